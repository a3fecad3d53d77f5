// Package cli provides common CLI utilities for wombscape command-line tools.
//
// This package includes:
//   - Configuration management with named contexts
//   - Output formatting (text cards, JSON, YAML)
//   - Directory layout under ~/.wombscape/<app>/
//
// Contexts work like kubectl's: each one carries defaults such as the
// preset, output directory and S3 settings, and one may be current.
//
// Example usage:
//
//	cfg, err := cli.LoadConfig("wombscape")
//	ctx, err := cfg.ResolveContext(flagContext)
//
//	card := cli.NewCard("womb", "a1b2c3d4").
//	    Add("bed", cli.Row{Label: "heart rate", Value: "110 bpm"})
//	cli.Output(card, cli.OutputOptions{Format: cli.FormatText})
package cli
