package commands

import (
	"fmt"
	"time"

	"github.com/haivivi/wombscape/pkg/catalog"
	"github.com/haivivi/wombscape/pkg/cli"
	"github.com/haivivi/wombscape/pkg/render"
)

// outputCard prints card for text output and result otherwise.
func outputCard(result any, card *cli.Card) error {
	format, err := cli.ParseOutputFormat(outputFormat)
	if err != nil {
		return err
	}
	if format == cli.FormatText && !outputJSON {
		return outputResult(card)
	}
	return outputResult(result)
}

func reportCard(r *render.Report) *cli.Card {
	title := r.Preset
	if title == "" {
		title = "custom"
	}
	card := cli.NewCard(title, catalog.ShortID(r.ID))
	card.Add("",
		cli.Row{Label: "target", Value: r.Target},
		cli.Row{Label: "created", Value: r.CreatedAt.Local().Format(time.DateTime)},
	)
	card.Add("bed",
		cli.Row{Label: "heart rate", Value: fmt.Sprintf("%g bpm", r.HeartRate)},
		cli.Row{Label: "seed", Value: fmt.Sprint(r.Seed)},
		cli.Row{Label: "synthesis", Value: cli.FormatRate(r.SampleRate)},
		cli.Row{Label: "triggers", Value: fmt.Sprintf("%d lub / %d dub", r.LubTriggers, r.DubTriggers)},
	)
	if r.Anomalies > 0 {
		card.Add("bed", cli.Row{Label: "anomalies", Value: fmt.Sprint(r.Anomalies)})
	}
	card.Add("output",
		cli.Row{Label: "format", Value: fmt.Sprintf("%s, %d ch, %s", cli.FormatRate(r.OutputRate), r.Channels, r.Encoding)},
		cli.Row{Label: "duration", Value: cli.FormatDuration(r.Duration)},
		cli.Row{Label: "size", Value: cli.FormatBytes(r.Bytes)},
		cli.Row{Label: "peak", Value: fmt.Sprintf("%s -> %s (gain %.3f)", cli.FormatDB(r.PeakDB), cli.FormatDB(r.TargetDB), r.Gain)},
	)
	if r.Elapsed > 0 {
		card.Add("output", cli.Row{Label: "elapsed", Value: cli.FormatDuration(r.Elapsed)})
	}
	return card
}
