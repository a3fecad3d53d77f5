package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/goccy/go-yaml"
)

// OutputFormat represents the output format type
type OutputFormat string

const (
	// FormatText renders a human-readable card (default for terminal)
	FormatText OutputFormat = "text"
	// FormatYAML outputs as YAML
	FormatYAML OutputFormat = "yaml"
	// FormatJSON outputs as JSON
	FormatJSON OutputFormat = "json"
	// FormatRaw outputs raw data
	FormatRaw OutputFormat = "raw"
)

// ParseOutputFormat parses a format name. The empty string is FormatText.
func ParseOutputFormat(s string) (OutputFormat, error) {
	switch f := OutputFormat(s); f {
	case "":
		return FormatText, nil
	case FormatText, FormatYAML, FormatJSON, FormatRaw:
		return f, nil
	}
	return "", fmt.Errorf("unsupported output format: %s", s)
}

// Texter is implemented by results that have a text rendering.
type Texter interface {
	Text() string
}

// Stdout and Stderr are where Output and the print helpers write.
var (
	Stdout io.Writer = os.Stdout
	Stderr io.Writer = os.Stderr
)

// OutputOptions configures output behavior
type OutputOptions struct {
	// Format is the output format (text, yaml, json, raw)
	Format OutputFormat

	// File is the output file path (empty for Stdout)
	File string

	// Indent is the indentation for JSON output
	Indent string

	// Writer is an optional custom writer (overrides File)
	Writer io.Writer
}

// Output writes the result to the configured destination. Text output falls
// back to YAML for results that are not a Texter.
func Output(result any, opts OutputOptions) error {
	w := Stdout
	if opts.Writer != nil {
		w = opts.Writer
	} else if opts.File != "" {
		f, err := os.Create(opts.File)
		if err != nil {
			return fmt.Errorf("failed to create output file: %w", err)
		}
		defer f.Close()
		w = f
	}

	switch opts.Format {
	case FormatJSON:
		return outputJSON(w, result, opts.Indent)
	case FormatYAML:
		return outputYAML(w, result)
	case FormatText, "":
		if t, ok := result.(Texter); ok {
			_, err := fmt.Fprintln(w, t.Text())
			return err
		}
		return outputYAML(w, result)
	case FormatRaw:
		return outputRaw(w, result)
	default:
		return fmt.Errorf("unsupported output format: %s", opts.Format)
	}
}

func outputJSON(w io.Writer, result any, indent string) error {
	enc := json.NewEncoder(w)
	if indent == "" {
		indent = "  "
	}
	enc.SetIndent("", indent)
	return enc.Encode(result)
}

func outputYAML(w io.Writer, result any) error {
	data, err := yaml.Marshal(result)
	if err != nil {
		return fmt.Errorf("failed to format output: %w", err)
	}
	_, err = w.Write(data)
	return err
}

func outputRaw(w io.Writer, result any) error {
	switch v := result.(type) {
	case []byte:
		_, err := w.Write(v)
		return err
	case string:
		_, err := io.WriteString(w, v)
		return err
	default:
		return outputYAML(w, result)
	}
}

// PrintSuccess prints a success message with checkmark
func PrintSuccess(format string, args ...any) {
	fmt.Fprintf(Stdout, "✓ "+format+"\n", args...)
}

// PrintError prints an error message to Stderr
func PrintError(format string, args ...any) {
	fmt.Fprintf(Stderr, "Error: "+format+"\n", args...)
}

// PrintInfo prints an info message
func PrintInfo(format string, args ...any) {
	fmt.Fprintf(Stdout, "ℹ "+format+"\n", args...)
}

// PrintWarning prints a warning message to Stderr
func PrintWarning(format string, args ...any) {
	fmt.Fprintf(Stderr, "⚠ "+format+"\n", args...)
}

// PrintVerbose prints verbose output to Stderr
func PrintVerbose(verbose bool, format string, args ...any) {
	if verbose {
		fmt.Fprintf(Stderr, "[verbose] "+format+"\n", args...)
	}
}
