package commands

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/haivivi/wombscape/pkg/cli"
	"github.com/haivivi/wombscape/pkg/storage"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage CLI configuration",
	Long: `Manage CLI configuration and contexts.

A context holds defaults for render and stream: preset, sample rate,
output directory, catalog directory, stream address and S3 settings.
Contexts work like kubectl's.

Configuration is stored in ~/.wombscape/wombscape/config.yaml`,
}

var configAddContextCmd = &cobra.Command{
	Use:   "add-context <name>",
	Short: "Add or replace a context",
	Long: `Add or replace a context with the specified name.

Example:
  wombscape config add-context home --preset soft --output-dir ~/beds
  wombscape config add-context cloud --output-dir s3://beds/nightly \
      --s3-region eu-west-1 --s3-endpoint http://localhost:9000 --s3-path-style`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		flags := cmd.Flags()
		str := func(name string) string {
			v, _ := flags.GetString(name)
			return v
		}
		rate, err := flags.GetInt("sample-rate")
		if err != nil {
			return fmt.Errorf("failed to read 'sample-rate' flag: %w", err)
		}
		pathStyle, err := flags.GetBool("s3-path-style")
		if err != nil {
			return fmt.Errorf("failed to read 's3-path-style' flag: %w", err)
		}

		ctx := &cli.Context{
			Preset:      str("preset"),
			PresetsFile: str("presets-file"),
			SampleRate:  rate,
			OutputDir:   str("output-dir"),
			CatalogDir:  str("catalog-dir"),
			StreamAddr:  str("stream-addr"),
		}
		s3 := storage.S3Config{
			Region:          str("s3-region"),
			Endpoint:        str("s3-endpoint"),
			PathStyle:       pathStyle,
			AccessKeyID:     str("s3-access-key-id"),
			SecretAccessKey: str("s3-secret-access-key"),
		}
		if s3 != (storage.S3Config{}) {
			ctx.S3 = &s3
		}

		name := args[0]
		if err := getConfig().AddContext(name, ctx); err != nil {
			return err
		}
		cli.PrintSuccess("Context %q added successfully", name)
		return nil
	},
}

var configDeleteContextCmd = &cobra.Command{
	Use:   "delete-context <name>",
	Short: "Delete a context",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		name := args[0]
		if err := getConfig().DeleteContext(name); err != nil {
			return err
		}
		cli.PrintSuccess("Context %q deleted", name)
		return nil
	},
}

var configUseContextCmd = &cobra.Command{
	Use:   "use-context <name>",
	Short: "Set the current context",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		name := args[0]
		if err := getConfig().UseContext(name); err != nil {
			return err
		}
		cli.PrintSuccess("Switched to context %q", name)
		return nil
	},
}

var configListContextsCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"list-contexts", "get-contexts"},
	Short:   "List all contexts",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := getConfig()
		if len(cfg.Contexts) == 0 {
			fmt.Println("No contexts configured")
			return nil
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "CURRENT\tNAME\tPRESET\tOUTPUT_DIR")
		for _, name := range cfg.ListContexts() {
			ctx := cfg.Contexts[name]
			current := ""
			if name == cfg.CurrentContext {
				current = "*"
			}
			preset := ctx.Preset
			if preset == "" {
				preset = "(default)"
			}
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", current, name, preset, ctx.OutputDir)
		}
		return w.Flush()
	},
}

var configViewCmd = &cobra.Command{
	Use:   "view [name]",
	Short: "View the configuration, or one context",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := getConfig()
		if len(args) == 1 {
			ctx, err := cfg.GetContext(args[0])
			if err != nil {
				return err
			}
			return outputResult(ctx.Redacted())
		}

		view := struct {
			Path           string                  `json:"path" yaml:"path"`
			CurrentContext string                  `json:"current_context" yaml:"current_context"`
			Contexts       map[string]*cli.Context `json:"contexts" yaml:"contexts"`
		}{
			Path:           cfg.Path(),
			CurrentContext: cfg.CurrentContext,
			Contexts:       make(map[string]*cli.Context, len(cfg.Contexts)),
		}
		for name, ctx := range cfg.Contexts {
			view.Contexts[name] = ctx.Redacted()
		}
		return outputResult(view)
	},
}

func init() {
	f := configAddContextCmd.Flags()
	f.String("preset", "", "default preset id")
	f.String("presets-file", "", "YAML or JSON file of extra presets")
	f.Int("sample-rate", 0, "synthesis sample rate in Hz")
	f.String("output-dir", "", "directory or s3:// prefix for renders")
	f.String("catalog-dir", "", "render catalog directory")
	f.String("stream-addr", "", "stream server listen address")
	f.String("s3-region", "", "S3 region (default: AWS_REGION or us-east-1)")
	f.String("s3-endpoint", "", "S3-compatible endpoint URL")
	f.Bool("s3-path-style", false, "use path-style S3 addressing")
	f.String("s3-access-key-id", "", "S3 access key id (default: AWS_ACCESS_KEY_ID)")
	f.String("s3-secret-access-key", "", "S3 secret access key (default: AWS_SECRET_ACCESS_KEY)")

	configCmd.AddCommand(configAddContextCmd)
	configCmd.AddCommand(configDeleteContextCmd)
	configCmd.AddCommand(configUseContextCmd)
	configCmd.AddCommand(configListContextsCmd)
	configCmd.AddCommand(configViewCmd)
}
