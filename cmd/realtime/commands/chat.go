package commands

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/haivivi/realtime/pkg/cli"
	"github.com/haivivi/realtime/pkg/realtime"
)

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Start an interactive realtime session",
	Long: `Start an interactive session with a realtime model.

Each line read from stdin is sent as a user message and followed by a
response request. Lines starting with "/" are commands (see /help).

The session configuration comes from flags, or from a YAML/JSON file given
with -f. Response audio is written to -o as 16-bit PCM, 24kHz, mono.

Examples:
  realtime -c prod chat
  realtime -c prod chat --instructions "Answer in French" --modalities text,audio -o reply.pcm
  realtime -c prod chat -f session.yaml --json
  realtime -c prod chat --webrtc`,
	RunE: runChat,
}

var (
	chatModel        string
	chatVoice        string
	chatInstructions string
	chatModalities   []string
	chatWebRTC       bool
	chatDebugEvents  bool
)

func init() {
	chatCmd.Flags().StringVar(&chatModel, "model", "", "model to use (default from context, then "+realtime.ModelGPT4oRealtimePreview+")")
	chatCmd.Flags().StringVar(&chatVoice, "voice", "", "voice for audio output")
	chatCmd.Flags().StringVar(&chatInstructions, "instructions", "", "system instructions")
	chatCmd.Flags().StringSliceVar(&chatModalities, "modalities", []string{realtime.ModalityText}, "output modalities (text, audio)")
	chatCmd.Flags().BoolVar(&chatWebRTC, "webrtc", false, "connect over WebRTC instead of WebSocket")
	chatCmd.Flags().BoolVar(&chatDebugEvents, "debug-events", false, "print a debug event for every dropped frame")
}

// chatSessionConfig builds the session configuration from -f and flags.
// Flags that were set explicitly override the file.
func chatSessionConfig(cmd *cobra.Command) (*realtime.SessionConfig, error) {
	cfg := &realtime.SessionConfig{}
	if inputFile != "" {
		if err := cli.LoadRequest(inputFile, cfg); err != nil {
			return nil, err
		}
	}
	flags := cmd.Flags()
	if chatInstructions != "" {
		cfg.Instructions = chatInstructions
	}
	if flags.Changed("modalities") || len(cfg.Modalities) == 0 {
		cfg.Modalities = chatModalities
	}
	if flags.Changed("voice") {
		cfg.Voice = chatVoice
	}
	return cfg, nil
}

func runChat(cmd *cobra.Command, args []string) error {
	cctx, err := getContext()
	if err != nil {
		return err
	}
	sessionConfig, err := chatSessionConfig(cmd)
	if err != nil {
		return err
	}
	printer, err := newPrinter(cmd.OutOrStdout())
	if err != nil {
		return err
	}

	opts := cctx.DialOptions()
	opts = append(opts, realtime.WithModel(chatModel), realtime.WithVoice(chatVoice))

	printVerbose("Using context: %s", cctx.Name)

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()

	dialCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	var (
		conn realtime.Conn
		rtc  *realtime.WebRTCConn
	)
	if chatWebRTC {
		rtc, err = realtime.DialWebRTC(dialCtx, opts...)
		conn = rtc
	} else {
		conn, err = realtime.DialWebSocket(dialCtx, opts...)
	}
	if err != nil {
		return fmt.Errorf("failed to connect: %w", err)
	}

	sessionOpts := []realtime.Option{realtime.WithLogger(slog.Default())}
	if chatDebugEvents {
		sessionOpts = append(sessionOpts, realtime.WithDebugEvents())
	}
	session := realtime.New(conn, sessionConfig, sessionOpts...)
	defer session.Disconnect()

	var audioOut io.WriteCloser
	if outputFile != "" {
		f, err := os.Create(outputFile)
		if err != nil {
			return fmt.Errorf("failed to create output file: %w", err)
		}
		defer f.Close()
		audioOut = f
	}

	if outputFormat() == cli.FormatText && filterExpr == "" {
		printer.Println("Connected. Type a message, or /help for commands.")
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return printEvents(session, printer, audioOut)
	})
	g.Go(func() error {
		return readPrompts(gctx, cmd.InOrStdin(), session, printer)
	})
	if rtc != nil {
		g.Go(func() error {
			return drainAudioTrack(gctx, rtc)
		})
	}
	g.Go(func() error {
		select {
		case <-gctx.Done():
		case <-session.Done():
		}
		session.Disconnect()
		return nil
	})
	return g.Wait()
}

// printEvents prints every event until the session ends, saving response
// audio to audioOut when set.
func printEvents(session *realtime.Session, printer *cli.EventPrinter, audioOut io.Writer) error {
	for ev := range session.Events() {
		if audioOut != nil && ev.Kind == realtime.EventResponseAudioDelta {
			pcm, err := ev.Audio()
			if err != nil {
				slog.Warn("realtime: bad audio delta", "error", err)
			} else if _, err := audioOut.Write(pcm); err != nil {
				return fmt.Errorf("failed to write audio: %w", err)
			}
		}
		if err := ev.Err(); err != nil {
			slog.Debug("realtime: server reported an error", "error", err)
		}
		if err := printer.Print(ev); err != nil {
			return err
		}
	}
	return nil
}

// readPrompts sends stdin lines to the session until /exit, the session ends,
// or ctx is cancelled. End of input keeps the session open so pending
// responses still arrive; interrupt to quit.
func readPrompts(ctx context.Context, r io.Reader, session *realtime.Session, printer *cli.EventPrinter) error {
	lines := make(chan string)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(r)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-session.Done():
				return
			}
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-session.Done():
			return nil
		case line, ok := <-lines:
			if !ok {
				lines = nil
				continue
			}
			input := strings.TrimSpace(line)
			if input == "" {
				continue
			}
			if strings.HasPrefix(input, "/") {
				if handleCommand(session, printer, input) {
					session.Disconnect()
					return nil
				}
				continue
			}
			session.AddUserMessage(input)
			session.CreateResponse(nil)
		}
	}
}

// handleCommand runs a slash command and reports whether to quit.
func handleCommand(session *realtime.Session, printer *cli.EventPrinter, input string) bool {
	parts := strings.Fields(input)
	switch strings.ToLower(parts[0]) {
	case "/exit", "/quit":
		printer.Println("Goodbye!")
		return true

	case "/audio":
		if len(parts) < 2 {
			printer.Println("Usage: /audio <file>")
			break
		}
		if err := sendAudioFile(session, parts[1]); err != nil {
			cli.PrintError("Failed to send audio: %v", err)
		}

	case "/clear":
		session.ClearInput()

	case "/cancel":
		session.CancelResponse()

	case "/voice":
		if len(parts) < 2 {
			printer.Println("Usage: /voice <id>")
			break
		}
		updated := *session.Config()
		updated.Voice = parts[1]
		session.UpdateSession(&updated)

	case "/help":
		printer.Println("Commands:")
		printer.Println("  /audio <file> - Send an audio file (16-bit PCM, 24kHz, mono) and request a response")
		printer.Println("  /clear        - Clear the input audio buffer")
		printer.Println("  /cancel       - Cancel the response in progress")
		printer.Println("  /voice <id>   - Change the output voice")
		printer.Println("  /exit, /quit  - End the session")
		printer.Println("  /help         - Show this help")

	default:
		cli.PrintError("Unknown command: %s (try /help)", parts[0])
	}
	return false
}

// sendAudioFile streams a PCM file in 100ms chunks, commits it and requests
// a response.
func sendAudioFile(session *realtime.Session, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open audio file: %w", err)
	}
	defer f.Close()

	// 24kHz * 2 bytes * 0.1s
	buf := make([]byte, 4800)
	for {
		n, err := f.Read(buf)
		if n > 0 {
			session.AppendAudio(buf[:n])
		}
		if err == io.EOF {
			break
		}
		if err != nil {
			return fmt.Errorf("failed to read audio file: %w", err)
		}
	}
	session.CommitInput()
	session.CreateResponse(nil)
	return nil
}

// drainAudioTrack reads the WebRTC audio track so the model audio keeps
// flowing; packets are only counted.
func drainAudioTrack(ctx context.Context, rtc *realtime.WebRTCConn) error {
	var packets, bytes int
	defer func() {
		slog.Debug("realtime: audio track drained", "packets", packets, "bytes", bytes)
	}()
	for {
		pkt, err := rtc.ReadAudioPacket(ctx)
		if err != nil {
			if ctx.Err() == nil {
				slog.Debug("realtime: audio track ended", "error", err)
			}
			return nil
		}
		packets++
		bytes += len(pkt.Payload)
	}
}
