package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/haivivi/realtime/pkg/cli"
	"github.com/haivivi/realtime/pkg/realtime"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Configuration management",
	Long: `Manage realtime CLI configuration.

Configuration is stored in ~/.giztoy/realtime/config.yaml.
Multiple contexts can be defined for different accounts or environments.`,
}

var configAddContextCmd = &cobra.Command{
	Use:   "add-context <name>",
	Short: "Add or replace a context",
	Long: `Add a context with API credentials and defaults.

Examples:
  realtime config add-context prod --api-key sk-xxxxx
  realtime config add-context local --api-key test --base-url ws://localhost:8080/v1/realtime`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		name := args[0]
		flags := cmd.Flags()
		apiKey, _ := flags.GetString("api-key")
		if apiKey == "" {
			return fmt.Errorf("api-key is required")
		}

		ctx := &cli.Context{APIKey: apiKey}
		ctx.BaseURL, _ = flags.GetString("base-url")
		ctx.HTTPURL, _ = flags.GetString("http-url")
		ctx.Organization, _ = flags.GetString("organization")
		ctx.Project, _ = flags.GetString("project")
		ctx.Model, _ = flags.GetString("model")
		ctx.Voice, _ = flags.GetString("voice")

		cfg, err := getConfig()
		if err != nil {
			return err
		}
		if err := cfg.SetContext(name, ctx); err != nil {
			return err
		}
		if cfg.CurrentContext == "" {
			if err := cfg.UseContext(name); err != nil {
				return err
			}
		}
		cli.PrintSuccess(cmd.OutOrStdout(), "Context '%s' added", name)
		return nil
	},
}

var configDeleteContextCmd = &cobra.Command{
	Use:   "delete-context <name>",
	Short: "Delete a context",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := getConfig()
		if err != nil {
			return err
		}
		if err := cfg.DeleteContext(args[0]); err != nil {
			return err
		}
		cli.PrintSuccess(cmd.OutOrStdout(), "Context '%s' deleted", args[0])
		return nil
	},
}

var configUseContextCmd = &cobra.Command{
	Use:   "use-context <name>",
	Short: "Set the default context",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := getConfig()
		if err != nil {
			return err
		}
		if err := cfg.UseContext(args[0]); err != nil {
			return err
		}
		cli.PrintSuccess(cmd.OutOrStdout(), "Switched to context '%s'", args[0])
		return nil
	},
}

var configGetContextsCmd = &cobra.Command{
	Use:   "get-contexts",
	Short: "List all contexts",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := getConfig()
		if err != nil {
			return err
		}
		w := cmd.OutOrStdout()
		names := cfg.ContextNames()
		if len(names) == 0 {
			fmt.Fprintln(w, "No contexts configured")
			return nil
		}
		for _, name := range names {
			marker := "  "
			if name == cfg.CurrentContext {
				marker = "* "
			}
			ctx := cfg.Contexts[name]
			fmt.Fprintf(w, "%s%-16s %s\n", marker, name, cli.MaskAPIKey(ctx.APIKey))
		}
		return nil
	},
}

var configViewCmd = &cobra.Command{
	Use:   "view",
	Short: "View full configuration (API keys masked)",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := getConfig()
		if err != nil {
			return err
		}
		view := cli.Config{
			CurrentContext: cfg.CurrentContext,
			Contexts:       make(map[string]*cli.Context, len(cfg.Contexts)),
		}
		for name, ctx := range cfg.Contexts {
			masked := *ctx
			masked.APIKey = cli.MaskAPIKey(ctx.APIKey)
			view.Contexts[name] = &masked
		}
		format := cli.FormatYAML
		if outputJSON {
			format = cli.FormatJSON
		}
		return cli.Output(cmd.OutOrStdout(), format, &view)
	},
}

func init() {
	configAddContextCmd.Flags().StringP("api-key", "k", "", "API key (required)")
	configAddContextCmd.Flags().StringP("base-url", "u", "", "WebSocket URL (default: "+realtime.DefaultWebSocketURL+")")
	configAddContextCmd.Flags().String("http-url", "", "HTTP URL used for WebRTC session setup")
	configAddContextCmd.Flags().String("organization", "", "organization ID")
	configAddContextCmd.Flags().String("project", "", "project ID")
	configAddContextCmd.Flags().String("model", "", "default model")
	configAddContextCmd.Flags().String("voice", "", "default voice")

	configCmd.AddCommand(configAddContextCmd)
	configCmd.AddCommand(configDeleteContextCmd)
	configCmd.AddCommand(configUseContextCmd)
	configCmd.AddCommand(configGetContextsCmd)
	configCmd.AddCommand(configViewCmd)
}
