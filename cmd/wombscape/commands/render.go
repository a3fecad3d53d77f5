package commands

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/haivivi/wombscape/pkg/audio/pcm"
	"github.com/haivivi/wombscape/pkg/audio/wav"
	"github.com/haivivi/wombscape/pkg/cli"
	"github.com/haivivi/wombscape/pkg/presets"
	"github.com/haivivi/wombscape/pkg/render"
	"github.com/haivivi/wombscape/pkg/storage"
)

const (
	defaultTarget     = "out.wav"
	defaultSampleRate = 48000
	defaultSeed       = 42
	defaultMinutes    = 1
)

var renderFlags struct {
	preset      string
	presetsFile string
	minutes     float64
	seconds     float64
	sampleRate  int
	outRate     int
	seed        uint64
	bpm         float64
	heartDB     float64
	noiseDB     float64
	targetDB    float64
	mono        bool
	l16         bool
	f32         bool
	explain     bool
	trace       string
	noCatalog   bool
}

var renderCmd = &cobra.Command{
	Use:   "render [target]",
	Short: "Render a womb bed to a WAV file",
	Long: `Render a womb bed to a WAV file.

The target is a local path or an s3://bucket/key URL. Without a target the
bed is written to out.wav, inside the context's output directory if it has
one. The bed is peak-normalized to -1 dBFS (or the preset's target) and
written as 32-bit float stereo unless --l16 or --mono say otherwise.

Every render is recorded in the catalog unless --no-catalog is given.

Examples:
  wombscape render
  wombscape render --preset soft --minutes 10 bed.wav
  wombscape render --bpm 72 --seed 7 --out-rate 16000 --mono --l16 phone.wav
  wombscape render --trace triggers.msgpack s3://beds/nightly/womb.wav`,
	Args: cobra.MaximumNArgs(1),
	RunE: runRender,
}

func init() {
	f := renderCmd.Flags()
	f.StringVar(&renderFlags.preset, "preset", "", "preset id (default: context preset or womb)")
	f.StringVar(&renderFlags.presetsFile, "presets-file", "", "YAML or JSON file of extra presets")
	f.Float64Var(&renderFlags.minutes, "minutes", defaultMinutes, "duration in minutes")
	f.Float64Var(&renderFlags.seconds, "seconds", 0, "duration in seconds, added to --minutes")
	f.IntVar(&renderFlags.sampleRate, "sr", 0, "synthesis sample rate in Hz (default 48000)")
	f.IntVar(&renderFlags.outRate, "out-rate", 0, "output sample rate in Hz (default: synthesis rate)")
	f.Uint64Var(&renderFlags.seed, "seed", defaultSeed, "random seed")
	f.Float64Var(&renderFlags.bpm, "bpm", 0, "override the preset heart rate")
	f.Float64Var(&renderFlags.heartDB, "heart-db", 0, "override the preset heartbeat level in dB")
	f.Float64Var(&renderFlags.noiseDB, "noise-db", 0, "override the preset noise level in dB")
	f.Float64Var(&renderFlags.targetDB, "target-db", 0, "override the normalization target in dBFS")
	f.BoolVar(&renderFlags.mono, "mono", false, "write one channel")
	f.BoolVar(&renderFlags.l16, "l16", false, "write 16-bit integer samples")
	f.BoolVar(&renderFlags.f32, "f32", false, "write 32-bit float samples (default)")
	f.BoolVar(&renderFlags.explain, "explain", false, "log progress once per second of audio")
	f.StringVar(&renderFlags.trace, "trace", "", "write every heartbeat trigger, msgpack-encoded, to this file")
	f.BoolVar(&renderFlags.noCatalog, "no-catalog", false, "do not record the render in the catalog")
	renderCmd.MarkFlagsMutuallyExclusive("l16", "f32")
}

// renderTarget picks the output location from the argument and context.
func renderTarget(args []string, ctx *cli.Context) string {
	if len(args) > 0 {
		return args[0]
	}
	dir := ctx.OutputDir
	switch {
	case dir == "":
		return defaultTarget
	case strings.HasPrefix(dir, "s3://"):
		return strings.TrimSuffix(dir, "/") + "/" + defaultTarget
	default:
		return filepath.Join(dir, defaultTarget)
	}
}

// renderOptions builds render options from flags, the context and the
// resolved preset.
func renderOptions(cmd *cobra.Command, ctx *cli.Context) (render.Options, error) {
	extra, err := loadPresets(ctx, renderFlags.presetsFile)
	if err != nil {
		return render.Options{}, err
	}
	id := renderFlags.preset
	if id == "" {
		id = ctx.Preset
	}
	preset, err := presets.Resolve(id, extra)
	if err != nil {
		return render.Options{}, err
	}

	rate := renderFlags.sampleRate
	if rate == 0 {
		rate = ctx.SampleRate
	}
	if rate == 0 {
		rate = defaultSampleRate
	}

	bed := preset.Bed(rate, renderFlags.seed)
	flags := cmd.Flags()
	if flags.Changed("bpm") {
		bed.HeartRateBPM = renderFlags.bpm
	}
	if flags.Changed("heart-db") {
		bed.HeartLevelDB = renderFlags.heartDB
	}
	if flags.Changed("noise-db") {
		bed.NoiseLevelDB = renderFlags.noiseDB
	}
	var target *float64
	switch {
	case flags.Changed("target-db"):
		target = &renderFlags.targetDB
	case preset.TargetPeakDB != 0:
		target = &preset.TargetPeakDB
	}

	seconds := renderFlags.minutes*60 + renderFlags.seconds
	opts := render.Options{
		Bed:          bed,
		Preset:       preset.ID,
		Duration:     time.Duration(seconds * float64(time.Second)),
		OutputRate:   renderFlags.outRate,
		Channels:     2,
		Encoding:     pcm.F32,
		TargetPeakDB: target,
		Explain:      renderFlags.explain,
		Logger:       slog.Default(),
	}
	if renderFlags.mono {
		opts.Channels = 1
	}
	if renderFlags.l16 {
		opts.Encoding = pcm.L16
	}
	return opts, nil
}

func runRender(cmd *cobra.Command, args []string) error {
	cliCtx, err := getContext()
	if err != nil {
		return err
	}
	opts, err := renderOptions(cmd, cliCtx)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var s3cfg storage.S3Config
	if cliCtx.S3 != nil {
		s3cfg = *cliCtx.S3
	}
	target := renderTarget(args, cliCtx)
	store, key, err := storage.Open(ctx, target, s3cfg)
	if err != nil {
		return err
	}

	var trace *os.File
	if renderFlags.trace != "" {
		trace, err = os.Create(renderFlags.trace)
		if err != nil {
			return fmt.Errorf("failed to create trace file: %w", err)
		}
		opts.Trace = trace
	}

	_, frames := opts.Frames()
	format := opts.Format()
	size := wav.HeaderSize + frames*int64(format.FrameBytes())
	printVerbose("rendering %s of %s to %s (%s)", cli.FormatDuration(opts.Duration), opts.Preset, target, cli.FormatBytes(size))

	w, err := store.Write(ctx, key, storage.Meta{
		ContentType: storage.ContentTypeWAV,
		Size:        size,
		Metadata: map[string]string{
			"preset": opts.Preset,
			"seed":   fmt.Sprint(opts.Bed.Seed),
		},
	})
	if err != nil {
		discardTrace(trace)
		return err
	}
	report, err := render.Render(ctx, opts, w)
	if err != nil {
		storage.Abort(w, err)
		discardTrace(trace)
		return err
	}
	if err := w.Close(); err != nil {
		discardTrace(trace)
		return err
	}
	if trace != nil {
		if err := trace.Close(); err != nil {
			return fmt.Errorf("failed to write trace file: %w", err)
		}
	}
	report.Target = store.Location(key)

	if !renderFlags.noCatalog {
		cat, closeCatalog, err := openCatalog(cliCtx)
		if err != nil {
			return err
		}
		defer closeCatalog()
		if err := cat.Put(ctx, report); err != nil {
			return err
		}
	}

	return outputCard(report, reportCard(report))
}

// discardTrace closes and removes the trace file of a failed render.
func discardTrace(f *os.File) {
	if f == nil {
		return
	}
	f.Close()
	if err := os.Remove(f.Name()); err != nil {
		slog.Warn("render: remove trace file", "path", f.Name(), "error", err)
	}
}
