package commands

import (
	"bufio"
	"encoding/base64"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/haivivi/realtime/pkg/cli"
	"github.com/haivivi/realtime/pkg/realtime"
)

var decodeCmd = &cobra.Command{
	Use:   "decode [file]",
	Short: "Decode recorded server frames into events",
	Long: `Decode newline-delimited server frames, read from a file or stdin, with
the same rules a live session applies, and print the resulting events.

Each line is one JSON text frame. With --msgpack, each line is a base64
encoded MessagePack binary frame instead.

Frames with an unknown type or missing required fields produce no event
(use --debug-events to see them). Frames that are not objects or lack a
type are reported on stderr; a live session would disconnect on them.

Examples:
  realtime decode frames.jsonl
  cat frames.jsonl | realtime decode --json --filter '.kind'`,
	Args: cobra.MaximumNArgs(1),
	RunE: runDecode,
}

var (
	decodeMsgpack     bool
	decodeDebugEvents bool
	decodeStrict      bool
)

func init() {
	decodeCmd.Flags().BoolVar(&decodeMsgpack, "msgpack", false, "lines are base64 MessagePack binary frames")
	decodeCmd.Flags().BoolVar(&decodeDebugEvents, "debug-events", false, "print a debug event for every dropped frame")
	decodeCmd.Flags().BoolVar(&decodeStrict, "strict", false, "stop at the first frame that cannot be classified")
}

func runDecode(cmd *cobra.Command, args []string) error {
	var r io.Reader = cmd.InOrStdin()
	if len(args) == 1 && args[0] != "-" {
		f, err := os.Open(args[0])
		if err != nil {
			return fmt.Errorf("failed to open frames: %w", err)
		}
		defer f.Close()
		r = f
	}

	printer, err := newPrinter(cmd.OutOrStdout())
	if err != nil {
		return err
	}

	stats, err := decodeFrames(r, printer, decodeOptions{
		msgpack:     decodeMsgpack,
		debugEvents: decodeDebugEvents,
		strict:      decodeStrict,
		errOut:      cmd.ErrOrStderr(),
	})
	printVerbose("Decoded %d frames: %d events, %d dropped, %d invalid", stats.frames, stats.events, stats.dropped, stats.invalid)
	return err
}

type decodeOptions struct {
	msgpack     bool
	debugEvents bool
	strict      bool
	errOut      io.Writer
}

type decodeStats struct {
	frames, events, dropped, invalid int
}

// decodeFrames decodes one frame per line of r and prints the events.
func decodeFrames(r io.Reader, printer *cli.EventPrinter, opts decodeOptions) (decodeStats, error) {
	var (
		stats decodeStats
		codec realtime.Codec = realtime.JSONCodec{}
	)
	if opts.msgpack {
		codec = realtime.MsgpackCodec{}
	}
	if opts.errOut == nil {
		opts.errOut = io.Discard
	}

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), 16*1024*1024)
	for lineNo := 1; scanner.Scan(); lineNo++ {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		stats.frames++

		frame := realtime.TextFrame(line)
		if opts.msgpack {
			data, err := base64.StdEncoding.DecodeString(line)
			if err != nil {
				return stats, fmt.Errorf("line %d: invalid base64: %w", lineNo, err)
			}
			frame = realtime.Frame{Kind: realtime.FrameBinary, Data: data}
		}

		discriminator, payload, err := realtime.ParseFrame(frame, codec)
		if err != nil {
			stats.invalid++
			if opts.strict {
				return stats, fmt.Errorf("line %d: %w", lineNo, err)
			}
			fmt.Fprintf(opts.errOut, "line %d: %v\n", lineNo, err)
			continue
		}

		ev, ok := realtime.Decode(discriminator, payload)
		if !ok {
			stats.dropped++
			if !opts.debugEvents {
				continue
			}
			reason := "unknown event type"
			if realtime.KnownType(discriminator) {
				reason = "incomplete payload"
			}
			ev = realtime.Event{Kind: realtime.EventDebug, Debug: fmt.Sprintf("line %d: dropped %q: %s", lineNo, discriminator, reason)}
		} else {
			stats.events++
		}
		if err := printer.Print(ev); err != nil {
			return stats, err
		}
	}
	if err := scanner.Err(); err != nil {
		return stats, fmt.Errorf("failed to read frames: %w", err)
	}
	return stats, nil
}
