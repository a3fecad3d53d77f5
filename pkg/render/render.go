package render

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"math"
	"time"

	"github.com/google/uuid"
	"github.com/vmihailenco/msgpack/v5"

	"github.com/haivivi/wombscape/pkg/audio/pcm"
	"github.com/haivivi/wombscape/pkg/audio/resampler"
	"github.com/haivivi/wombscape/pkg/audio/wav"
	"github.com/haivivi/wombscape/pkg/womb"
)

// Defaults.
const (
	// DefaultTargetPeak is the normalization target, about -1 dBFS.
	DefaultTargetPeak = 0.89

	// DefaultRightGain scales the right channel for a slight decorrelation.
	DefaultRightGain = 0.98

	// BlockSize is the number of samples generated between context checks.
	BlockSize = 4096
)

// Options configures a render.
type Options struct {
	// Bed configures the synthesizer. Bed.SampleRate is the synthesis rate.
	Bed womb.Config

	// Preset is recorded in the report.
	Preset string

	// Duration of the output.
	Duration time.Duration

	// OutputRate is the WAV sample rate. Zero means Bed.SampleRate.
	OutputRate int

	// Channels is 1 or 2. Zero means 2.
	Channels int

	// Encoding of the WAV data. The zero value is pcm.L16; renders default to
	// F32 through the CLI.
	Encoding pcm.Encoding

	// TargetPeakDB is the normalization target in dBFS. Nil means
	// DefaultTargetPeak; 0 is full scale.
	TargetPeakDB *float64

	// RightGain is the right channel scale in stereo output. Zero means
	// DefaultRightGain.
	RightGain float64

	// Explain logs one line per second of audio during analysis.
	Explain bool

	// Trace, if set, receives every fired trigger msgpack-encoded.
	Trace io.Writer

	// Logger is optional. If nil, uses slog.Default().
	Logger *slog.Logger
}

// Report describes a finished render.
type Report struct {
	ID          string        `json:"id" yaml:"id" msgpack:"id"`
	Preset      string        `json:"preset,omitempty" yaml:"preset,omitempty" msgpack:"preset"`
	Target      string        `json:"target,omitempty" yaml:"target,omitempty" msgpack:"target"`
	Seed        uint64        `json:"seed" yaml:"seed" msgpack:"seed"`
	HeartRate   float64       `json:"heart_rate_bpm" yaml:"heart_rate_bpm" msgpack:"heart_rate_bpm"`
	SampleRate  int           `json:"sample_rate" yaml:"sample_rate" msgpack:"sample_rate"`
	OutputRate  int           `json:"output_rate" yaml:"output_rate" msgpack:"output_rate"`
	Channels    int           `json:"channels" yaml:"channels" msgpack:"channels"`
	Encoding    string        `json:"encoding" yaml:"encoding" msgpack:"encoding"`
	Frames      int64         `json:"frames" yaml:"frames" msgpack:"frames"`
	Bytes       int64         `json:"bytes" yaml:"bytes" msgpack:"bytes"`
	Duration    time.Duration `json:"duration" yaml:"duration" msgpack:"duration"`
	PeakDB      float64       `json:"peak_db" yaml:"peak_db" msgpack:"peak_db"`
	TargetDB    float64       `json:"target_db" yaml:"target_db" msgpack:"target_db"`
	Gain        float64       `json:"gain" yaml:"gain" msgpack:"gain"`
	LubTriggers uint64        `json:"lub_triggers" yaml:"lub_triggers" msgpack:"lub_triggers"`
	DubTriggers uint64        `json:"dub_triggers" yaml:"dub_triggers" msgpack:"dub_triggers"`
	Anomalies   uint64        `json:"anomalies" yaml:"anomalies" msgpack:"anomalies"`
	Rearms      uint64        `json:"rearms" yaml:"rearms" msgpack:"rearms"`
	Elapsed     time.Duration `json:"elapsed" yaml:"elapsed" msgpack:"elapsed"`
	CreatedAt   time.Time     `json:"created_at" yaml:"created_at" msgpack:"created_at"`
}

// Format returns the WAV format the options produce.
func (o Options) Format() pcm.Format {
	f := pcm.Format{
		SampleRate: o.OutputRate,
		Channels:   o.Channels,
		Encoding:   o.Encoding,
	}
	if f.SampleRate == 0 {
		f.SampleRate = o.Bed.SampleRate
	}
	if f.Channels == 0 {
		f.Channels = 2
	}
	return f
}

func (o Options) targetPeak() float64 {
	if o.TargetPeakDB == nil {
		return DefaultTargetPeak
	}
	return womb.DBToLinear(*o.TargetPeakDB)
}

func (o Options) rightGain() float32 {
	if o.RightGain == 0 {
		return DefaultRightGain
	}
	return float32(o.RightGain)
}

// Frames returns the number of synthesized and output frames.
func (o Options) Frames() (synth, out int64) {
	synth = pcm.Format{SampleRate: o.Bed.SampleRate, Channels: 1}.SamplesInDuration(o.Duration)
	out = o.Format().SamplesInDuration(o.Duration)
	return synth, out
}

func (o Options) validate() error {
	if o.Duration <= 0 {
		return fmt.Errorf("render: %w: duration %v", womb.ErrInvalidParameter, o.Duration)
	}
	if err := o.Format().Validate(); err != nil {
		return fmt.Errorf("render: %w: %v", womb.ErrInvalidParameter, err)
	}
	if t := o.targetPeak(); !(t > 0 && t <= 1) {
		return fmt.Errorf("render: %w: target peak %v dBFS", womb.ErrInvalidParameter, *o.TargetPeakDB)
	}
	if g := o.RightGain; g < 0 || g > 1 || g != g {
		return fmt.Errorf("render: %w: right gain %v", womb.ErrInvalidParameter, g)
	}
	return nil
}

// Render synthesizes opts.Duration of audio and writes it to w as a WAV.
// Invalid options wrap womb.ErrInvalidParameter. Cancelling ctx aborts the
// render between blocks with ctx.Err().
func Render(ctx context.Context, opts Options, w io.Writer) (*Report, error) {
	if err := opts.validate(); err != nil {
		return nil, err
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	start := time.Now()
	format := opts.Format()
	synthFrames, outFrames := opts.Frames()

	peak, stats, err := analyze(ctx, opts, format, synthFrames, outFrames, logger)
	if err != nil {
		return nil, err
	}
	target := opts.targetPeak()
	gain := 1.0
	if peak > 0 {
		gain = math.Min(target/peak, 1)
	}
	logger.Info("render: analysis done",
		"peak_db", dbfs(peak), "target_db", dbfs(target), "gain", gain)

	if err := synthesize(ctx, opts, format, synthFrames, outFrames, float32(gain), w); err != nil {
		return nil, err
	}

	return &Report{
		ID:          uuid.New().String(),
		Preset:      opts.Preset,
		Seed:        opts.Bed.Seed,
		HeartRate:   opts.Bed.HeartRateBPM,
		SampleRate:  opts.Bed.SampleRate,
		OutputRate:  format.SampleRate,
		Channels:    format.Channels,
		Encoding:    format.Encoding.String(),
		Frames:      outFrames,
		Bytes:       wav.HeaderSize + outFrames*int64(format.FrameBytes()),
		Duration:    opts.Duration,
		PeakDB:      dbfs(peak),
		TargetDB:    dbfs(target),
		Gain:        gain,
		LubTriggers: stats.LubTriggers,
		DubTriggers: stats.DubTriggers,
		Anomalies:   stats.Anomalies,
		Rearms:      stats.Rearms,
		Elapsed:     time.Since(start),
		CreatedAt:   time.Now().UTC(),
	}, nil
}

// analyze runs the first pass and returns the peak magnitude of the mono
// signal at the output rate, so resampler overshoot is normalized too.
func analyze(ctx context.Context, opts Options, format pcm.Format, synthFrames, outFrames int64, logger *slog.Logger) (float64, womb.Stats, error) {
	cfg := opts.Bed
	cfg.OnTrigger = nil
	cfg.Logger = logger
	bed, err := womb.New(cfg)
	if err != nil {
		return 0, womb.Stats{}, err
	}
	rs, err := resampler.New(cfg.SampleRate, format.SampleRate, 1)
	if err != nil {
		return 0, womb.Stats{}, err
	}

	var peak float64
	var measured int64
	measure := func(mono []float32) {
		mono = mono[:min(int64(len(mono)), outFrames-measured)]
		for _, s := range mono {
			peak = math.Max(peak, math.Abs(float64(s)))
		}
		measured += int64(len(mono))
	}

	block := make([]float32, BlockSize)
	second := int64(cfg.SampleRate)
	for done := int64(0); done < synthFrames; {
		if err := ctx.Err(); err != nil {
			return 0, womb.Stats{}, err
		}
		n := int(min(int64(len(block)), synthFrames-done))
		// Stop at second boundaries so Explain lines land on them.
		if opts.Explain {
			n = int(min(int64(n), second-done%second))
		}
		bed.Fill(block[:n])
		out, err := rs.Process(block[:n])
		if err != nil {
			return 0, womb.Stats{}, err
		}
		measure(out)
		done += int64(n)
		if opts.Explain && done%second == 0 {
			st := bed.Stats()
			logger.Info("render: explain",
				"second", done/second,
				"bpm", bed.HeartRate(),
				"lub", st.LubTriggers,
				"dub", st.DubTriggers,
				"anomalies", st.Anomalies,
				"peak_db", dbfs(peak))
		}
	}
	tail, err := rs.Drain()
	if err != nil {
		return 0, womb.Stats{}, err
	}
	measure(tail)
	return peak, bed.Stats(), nil
}

// synthesize runs the second pass and writes the WAV.
func synthesize(ctx context.Context, opts Options, format pcm.Format, synthFrames, outFrames int64, gain float32, w io.Writer) error {
	cfg := opts.Bed
	cfg.Logger = opts.Logger
	var traceErr error
	if opts.Trace != nil {
		enc := msgpack.NewEncoder(opts.Trace)
		user := cfg.OnTrigger
		cfg.OnTrigger = func(t womb.Trigger) {
			if traceErr == nil {
				traceErr = enc.Encode(&t)
			}
			if user != nil {
				user(t)
			}
		}
	}
	bed, err := womb.New(cfg)
	if err != nil {
		return err
	}
	rs, err := resampler.New(cfg.SampleRate, format.SampleRate, 1)
	if err != nil {
		return err
	}
	enc, err := wav.NewEncoder(w, format, outFrames)
	if err != nil {
		return err
	}

	var written int64
	emit := func(mono []float32) error {
		mono = mono[:min(int64(len(mono)), outFrames-written)]
		if len(mono) == 0 {
			return nil
		}
		for i, s := range mono {
			mono[i] = pcm.Clamp(s * gain)
		}
		frames := mono
		if format.Channels == 2 {
			frames = pcm.Stereo(mono, opts.rightGain())
		}
		written += int64(len(mono))
		return enc.Write(frames)
	}

	block := make([]float32, BlockSize)
	for done := int64(0); done < synthFrames; {
		if err := ctx.Err(); err != nil {
			return err
		}
		n := int(min(int64(len(block)), synthFrames-done))
		bed.Fill(block[:n])
		done += int64(n)
		if traceErr != nil {
			return fmt.Errorf("render: trace: %w", traceErr)
		}
		out, err := rs.Process(block[:n])
		if err != nil {
			return err
		}
		if err := emit(out); err != nil {
			return err
		}
	}
	tail, err := rs.Drain()
	if err != nil {
		return err
	}
	if err := emit(tail); err != nil {
		return err
	}
	// Rounding in the resampler can leave the stream a frame short.
	if _, err := enc.Pad(); err != nil {
		return err
	}
	return enc.Close()
}

// silenceDB stands in for the level of an all-zero signal so reports stay
// JSON-encodable.
const silenceDB = -120.0

func dbfs(v float64) float64 {
	if v <= 0 {
		return silenceDB
	}
	return max(womb.LinearToDB(v), silenceDB)
}
