package commands

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/haivivi/wombscape/pkg/cli"
	"github.com/haivivi/wombscape/pkg/presets"
	"github.com/haivivi/wombscape/pkg/render"
	"github.com/haivivi/wombscape/pkg/womb"
)

var presetsFileFlag string

var presetCmd = &cobra.Command{
	Use:   "preset",
	Short: "List and inspect presets",
	Long: `List and inspect presets.

Built-in presets: womb, soft, industrial, choral. Extra presets are read
from --presets-file, the context's presets_file, or
~/.wombscape/wombscape/presets.yaml. Run 'wombscape preset schema' for the
file format.`,
}

var presetListCmd = &cobra.Command{
	Use:   "list",
	Short: "List presets",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		all, err := allPresets()
		if err != nil {
			return err
		}
		if outputJSON || outputFormat != "" {
			return outputResult(all)
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tBPM\tHEART\tNOISE\tDESCRIPTION")
		for _, p := range all {
			fmt.Fprintf(w, "%s\t%g\t%g dB\t%g dB\t%s\n", p.ID, p.HeartRateBPM, p.HeartLevelDB, p.NoiseLevelDB, p.Description)
		}
		return w.Flush()
	},
}

var presetShowCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Show a preset",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cliCtx, err := getContext()
		if err != nil {
			return err
		}
		extra, err := loadPresets(cliCtx, presetsFileFlag)
		if err != nil {
			return err
		}
		p, err := presets.Resolve(args[0], extra)
		if err != nil {
			return err
		}
		return outputCard(p, presetCard(p))
	},
}

var presetSchemaCmd = &cobra.Command{
	Use:   "schema",
	Short: "Print the JSON Schema of preset files",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		data, err := presets.SchemaJSON()
		if err != nil {
			return err
		}
		return cli.Output(append(data, '\n'), cli.OutputOptions{Format: cli.FormatRaw, File: outputFile})
	},
}

func init() {
	presetCmd.PersistentFlags().StringVar(&presetsFileFlag, "presets-file", "", "YAML or JSON file of extra presets")

	presetCmd.AddCommand(presetListCmd)
	presetCmd.AddCommand(presetShowCmd)
	presetCmd.AddCommand(presetSchemaCmd)
}

// allPresets returns the user presets followed by the built-ins they do not
// shadow.
func allPresets() ([]presets.Preset, error) {
	cliCtx, err := getContext()
	if err != nil {
		return nil, err
	}
	extra, err := loadPresets(cliCtx, presetsFileFlag)
	if err != nil {
		return nil, err
	}
	all := append([]presets.Preset(nil), extra...)
	for _, p := range presets.All {
		shadowed := false
		for _, e := range extra {
			if e.ID == p.ID {
				shadowed = true
				break
			}
		}
		if !shadowed {
			all = append(all, p)
		}
	}
	return all, nil
}

func envelopeValue(t, def womb.EnvelopeTimes) string {
	if t.AttackMs == 0 {
		t.AttackMs = def.AttackMs
	}
	if t.DecayMs == 0 {
		t.DecayMs = def.DecayMs
	}
	return fmt.Sprintf("%g ms attack, %g ms decay", t.AttackMs, t.DecayMs)
}

func presetCard(p *presets.Preset) *cli.Card {
	name := p.Name
	if name == "" {
		name = p.ID
	}
	card := cli.NewCard(name, p.ID)
	if p.Description != "" {
		card.Add("", cli.Row{Label: "about", Value: p.Description})
	}
	target := p.TargetPeakDB
	if target == 0 {
		target = womb.LinearToDB(render.DefaultTargetPeak)
	}
	card.Add("heart",
		cli.Row{Label: "rate", Value: fmt.Sprintf("%g bpm", p.HeartRateBPM)},
		cli.Row{Label: "level", Value: fmt.Sprintf("%g dB", p.HeartLevelDB)},
		cli.Row{Label: "lub", Value: envelopeValue(p.Lub, womb.EnvelopeTimes{AttackMs: womb.DefaultLubAttackMs, DecayMs: womb.DefaultLubDecayMs})},
		cli.Row{Label: "dub", Value: envelopeValue(p.Dub, womb.EnvelopeTimes{AttackMs: womb.DefaultDubAttackMs, DecayMs: womb.DefaultDubDecayMs})},
	)
	card.Add("noise", cli.Row{Label: "level", Value: fmt.Sprintf("%g dB", p.NoiseLevelDB)})
	card.Add("output", cli.Row{Label: "target", Value: cli.FormatDB(target)})
	return card
}
