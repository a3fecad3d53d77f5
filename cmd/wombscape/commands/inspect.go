package commands

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/haivivi/wombscape/pkg/audio/wav"
	"github.com/haivivi/wombscape/pkg/cli"
	"github.com/haivivi/wombscape/pkg/storage"
	"github.com/haivivi/wombscape/pkg/womb"
)

// inspectResult is the structured output of inspect.
type inspectResult struct {
	File       string        `json:"file" yaml:"file"`
	SampleRate int           `json:"sample_rate" yaml:"sample_rate"`
	Channels   int           `json:"channels" yaml:"channels"`
	Encoding   string        `json:"encoding" yaml:"encoding"`
	Frames     int64         `json:"frames" yaml:"frames"`
	Duration   time.Duration `json:"duration" yaml:"duration"`
	PeakDB     []float64     `json:"peak_db" yaml:"peak_db"`
	RMSDB      []float64     `json:"rms_db" yaml:"rms_db"`
}

var inspectCmd = &cobra.Command{
	Use:   "inspect <file.wav>",
	Short: "Show a WAV file's header and levels",
	Long: `Show a WAV file's format, duration, and per-channel peak and RMS levels.

The file may be a local path or an s3://bucket/key URL.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cliCtx, err := getContext()
		if err != nil {
			return err
		}
		var s3cfg storage.S3Config
		if cliCtx.S3 != nil {
			s3cfg = *cliCtx.S3
		}
		ctx := cmd.Context()
		store, key, err := storage.Open(ctx, args[0], s3cfg)
		if err != nil {
			return err
		}
		r, err := store.Read(ctx, key)
		if err != nil {
			return err
		}
		defer r.Close()

		lv, err := wav.Measure(r)
		if err != nil {
			return fmt.Errorf("%s: %w", args[0], err)
		}
		res := inspectResult{
			File:       store.Location(key),
			SampleRate: lv.Format.SampleRate,
			Channels:   lv.Format.Channels,
			Encoding:   lv.Format.Encoding.String(),
			Frames:     lv.Frames,
			Duration:   time.Duration(lv.Frames) * time.Second / time.Duration(lv.Format.SampleRate),
		}
		for ch := range lv.Peak {
			res.PeakDB = append(res.PeakDB, levelDB(lv.Peak[ch]))
			res.RMSDB = append(res.RMSDB, levelDB(lv.RMS[ch]))
		}
		return outputCard(res, inspectCard(res))
	},
}

// levelDB converts a linear level to dBFS, flooring silence at -120.
func levelDB(v float64) float64 {
	if v <= 0 {
		return -120
	}
	return max(womb.LinearToDB(v), -120)
}

func inspectCard(res inspectResult) *cli.Card {
	card := cli.NewCard(filepath.Base(res.File), res.Encoding)
	card.Add("",
		cli.Row{Label: "file", Value: res.File},
		cli.Row{Label: "format", Value: fmt.Sprintf("%s, %d ch", cli.FormatRate(res.SampleRate), res.Channels)},
		cli.Row{Label: "duration", Value: cli.FormatDuration(res.Duration)},
		cli.Row{Label: "frames", Value: fmt.Sprint(res.Frames)},
	)
	names := []string{"left", "right"}
	if res.Channels == 1 {
		names = []string{"mono"}
	}
	for ch := range res.PeakDB {
		name := fmt.Sprintf("ch%d", ch)
		if ch < len(names) {
			name = names[ch]
		}
		card.Add("levels", cli.Row{
			Label: name,
			Value: fmt.Sprintf("peak %s, rms %s", cli.FormatDB(res.PeakDB[ch]), cli.FormatDB(res.RMSDB[ch])),
		})
	}
	return card
}
