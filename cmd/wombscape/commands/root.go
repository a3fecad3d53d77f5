package commands

import (
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/haivivi/wombscape/pkg/catalog"
	"github.com/haivivi/wombscape/pkg/cli"
	"github.com/haivivi/wombscape/pkg/kv"
	"github.com/haivivi/wombscape/pkg/presets"
)

const appName = "wombscape"

var (
	// Global flags
	cfgFile      string
	contextName  string
	outputFile   string
	outputFormat string
	outputJSON   bool
	verbose      bool

	// Global configuration
	globalConfig *cli.Config
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "wombscape",
	Short: "Womb bed synthesizer",
	Long: `wombscape - render and stream womb-like sleep beds.

A bed is a maternal heartbeat (lub and dub thumps) over breathing-modulated
pink noise. Beds are deterministic for a given preset and seed.

Configuration is stored in ~/.wombscape/wombscape/ and supports multiple
contexts, similar to kubectl's context management.

Examples:
  # Render one minute of the default preset
  wombscape render

  # Ten minutes of the soft preset at 44.1 kHz, uploaded to S3
  wombscape render --preset soft --minutes 10 --out-rate 44100 s3://beds/soft.wav

  # Serve live beds on :8790
  wombscape stream

  # Find loud renders
  wombscape catalog list --query 'select(.peak_db > -3)'
`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "", "", "config file (default is ~/.wombscape/wombscape/config.yaml)")
	rootCmd.PersistentFlags().StringVarP(&contextName, "context", "c", "", "context name to use")
	rootCmd.PersistentFlags().StringVarP(&outputFile, "output", "o", "", "write the result to a file (default: stdout)")
	rootCmd.PersistentFlags().StringVar(&outputFormat, "format", "", "result format: text, yaml, json")
	rootCmd.PersistentFlags().BoolVar(&outputJSON, "json", false, "output as JSON (for piping)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")

	rootCmd.AddCommand(renderCmd)
	rootCmd.AddCommand(streamCmd)
	rootCmd.AddCommand(presetCmd)
	rootCmd.AddCommand(catalogCmd)
	rootCmd.AddCommand(inspectCmd)
	rootCmd.AddCommand(configCmd)
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
	globalConfig, err = cli.LoadConfigWithPath(appName, cfgFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error initializing config: %v\n", err)
		os.Exit(1)
	}
}

// getConfig returns the global configuration
func getConfig() *cli.Config {
	return globalConfig
}

// getContext returns the context to use. Without -c or a current context
// it returns an empty context so commands run on built-in defaults.
func getContext() (*cli.Context, error) {
	cfg := getConfig()
	if cfg == nil {
		return nil, fmt.Errorf("configuration not initialized")
	}
	return cfg.ResolveContext(contextName)
}

func getPaths() (*cli.Paths, error) {
	return cli.NewPaths(appName)
}

// outputResult outputs the result using cli package
func outputResult(result any) error {
	format, err := cli.ParseOutputFormat(outputFormat)
	if err != nil {
		return err
	}
	if outputJSON {
		format = cli.FormatJSON
	}
	return cli.Output(result, cli.OutputOptions{
		Format: format,
		File:   outputFile,
	})
}

// printVerbose prints verbose output if enabled
func printVerbose(format string, args ...any) {
	cli.PrintVerbose(verbose, format, args...)
}

// loadPresets loads user presets from path, the context's presets file, or
// the default presets file if it exists.
func loadPresets(ctx *cli.Context, path string) ([]presets.Preset, error) {
	if path == "" {
		path = ctx.PresetsFile
	}
	if path == "" {
		paths, err := getPaths()
		if err != nil {
			return nil, err
		}
		path = paths.PresetsFile()
		if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
	}
	printVerbose("loading presets from %s", path)
	return presets.LoadFile(path)
}

// openCatalog opens the badger-backed render catalog of ctx. The caller
// must call the returned close function.
func openCatalog(ctx *cli.Context) (*catalog.Catalog, func() error, error) {
	dir := ctx.CatalogDir
	if dir == "" {
		paths, err := getPaths()
		if err != nil {
			return nil, nil, err
		}
		if err := paths.EnsureCatalogDir(); err != nil {
			return nil, nil, fmt.Errorf("failed to create catalog directory: %w", err)
		}
		dir = paths.CatalogDir()
	}
	printVerbose("opening catalog at %s", dir)
	store, err := kv.NewBadger(kv.BadgerOptions{Dir: dir, Logger: slog.Default()})
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open catalog: %w", err)
	}
	return catalog.New(store), store.Close, nil
}
