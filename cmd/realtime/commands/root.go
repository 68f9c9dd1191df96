package commands

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/haivivi/realtime/pkg/cli"
)

var (
	// Global flags
	cfgFile     string
	contextName string
	outputFile  string
	inputFile   string
	outputJSON  bool
	outputYAML  bool
	filterExpr  string
	verbose     bool

	globalConfig *cli.Config
)

var rootCmd = &cobra.Command{
	Use:   "realtime",
	Short: "Realtime model session CLI tool",
	Long: `Realtime CLI - talk to a realtime model over WebSocket or WebRTC.

Configuration is stored in ~/.giztoy/realtime/ and supports multiple contexts,
similar to kubectl's context management.

Examples:
  # Set up a new context
  realtime config add-context prod --api-key sk-xxxxx

  # Start an interactive text session
  realtime -c prod chat

  # Print only the response text, as JSON strings
  realtime -c prod chat --json --filter 'select(.kind == "responseTextDelta") | .delta'

  # Inspect recorded frames offline
  realtime decode frames.jsonl --yaml
`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Command returns the root cobra command for mounting into a parent CLI.
func Command() *cobra.Command {
	return rootCmd
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ~/.giztoy/realtime/config.yaml)")
	rootCmd.PersistentFlags().StringVarP(&contextName, "context", "c", "", "context name to use")
	rootCmd.PersistentFlags().StringVarP(&outputFile, "output", "o", "", "output file for response audio (16-bit PCM)")
	rootCmd.PersistentFlags().StringVarP(&inputFile, "file", "f", "", "session configuration file (YAML or JSON)")
	rootCmd.PersistentFlags().BoolVar(&outputJSON, "json", false, "print events as JSON lines")
	rootCmd.PersistentFlags().BoolVar(&outputYAML, "yaml", false, "print events as YAML documents")
	rootCmd.PersistentFlags().StringVar(&filterExpr, "filter", "", "jq expression applied to each event")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
	rootCmd.MarkFlagsMutuallyExclusive("json", "yaml")

	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(chatCmd)
	rootCmd.AddCommand(decodeCmd)
}

func initConfig() {
	logLevel := slog.LevelInfo
	if verbose {
		logLevel = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: logLevel,
	})))

	var err error
	globalConfig, err = cli.LoadConfig(cfgFile)
	if err != nil {
		// Keep going so commands that need no context still work.
		fmt.Fprintf(os.Stderr, "Warning: realtime config: %v\n", err)
	}
}

func getConfig() (*cli.Config, error) {
	if globalConfig == nil {
		return nil, fmt.Errorf("configuration not initialized")
	}
	return globalConfig, nil
}

// getContext returns the context selected by -c, or the current one.
func getContext() (*cli.Context, error) {
	cfg, err := getConfig()
	if err != nil {
		return nil, err
	}
	ctx, err := cfg.ResolveContext(contextName)
	if err != nil {
		if contextName == "" {
			return nil, fmt.Errorf("no context specified. Use -c flag or set a default context with 'realtime config use-context'")
		}
		return nil, err
	}
	return ctx, nil
}

func outputFormat() cli.OutputFormat {
	switch {
	case outputJSON:
		return cli.FormatJSON
	case outputYAML:
		return cli.FormatYAML
	}
	return cli.FormatText
}

// newPrinter builds the event printer from the output flags.
func newPrinter(w io.Writer) (*cli.EventPrinter, error) {
	var filter *cli.Filter
	if filterExpr != "" {
		f, err := cli.ParseFilter(filterExpr)
		if err != nil {
			return nil, err
		}
		filter = f
	}
	return cli.NewEventPrinter(w, outputFormat(), filter), nil
}

func printVerbose(format string, args ...any) {
	if verbose {
		fmt.Fprintf(os.Stderr, "[verbose] "+format+"\n", args...)
	}
}
