package resampler

import (
	"fmt"
	"math"

	resampling "github.com/tphakala/go-audio-resampling"
)

// Float resamples interleaved float32 frames from one rate to another. When
// the rates are equal it is a passthrough. It is not safe for concurrent use.
type Float struct {
	srcRate  int
	dstRate  int
	channels int

	resampler resampling.Resampler
	in        []float64

	// Frames consumed and produced, used by Drain to size the tail.
	consumed int64
	produced int64
}

// New creates a resampler from srcRate to dstRate for the given number of
// interleaved channels.
func New(srcRate, dstRate, channels int) (*Float, error) {
	if srcRate <= 0 || dstRate <= 0 {
		return nil, fmt.Errorf("resampler: invalid rates %d -> %d", srcRate, dstRate)
	}
	if channels <= 0 {
		return nil, fmt.Errorf("resampler: invalid channel count %d", channels)
	}
	f := &Float{srcRate: srcRate, dstRate: dstRate, channels: channels}
	if srcRate == dstRate {
		return f, nil
	}
	rs, err := resampling.New(&resampling.Config{
		InputRate:  float64(srcRate),
		OutputRate: float64(dstRate),
		Channels:   channels,
		Quality:    resampling.QualitySpec{Preset: resampling.QualityHigh},
	})
	if err != nil {
		return nil, fmt.Errorf("resampler: failed to create resampler: %w", err)
	}
	f.resampler = rs
	return f, nil
}

// Passthrough reports whether the source and destination rates are equal.
func (f *Float) Passthrough() bool {
	return f.resampler == nil
}

// Channels returns the number of interleaved channels.
func (f *Float) Channels() int {
	return f.channels
}

// OutputFrames returns the number of frames a complete stream of n input
// frames resamples to.
func (f *Float) OutputFrames(n int64) int64 {
	if f.Passthrough() {
		return n
	}
	return int64(math.Round(float64(n) * float64(f.dstRate) / float64(f.srcRate)))
}

// Process resamples one block of interleaved samples. The returned slice may
// be shorter than the ideal output while the filter fills; Drain returns the
// remainder. len(samples) must be a multiple of the channel count.
func (f *Float) Process(samples []float32) ([]float32, error) {
	if len(samples)%f.channels != 0 {
		return nil, fmt.Errorf("resampler: %d samples is not a whole number of %d-channel frames", len(samples), f.channels)
	}
	if f.Passthrough() {
		out := make([]float32, len(samples))
		copy(out, samples)
		f.consumed += int64(len(samples) / f.channels)
		f.produced = f.consumed
		return out, nil
	}
	f.consumed += int64(len(samples) / f.channels)
	return f.process(samples)
}

func (f *Float) process(samples []float32) ([]float32, error) {
	if cap(f.in) < len(samples) {
		f.in = make([]float64, len(samples))
	}
	in := f.in[:len(samples)]
	for i, s := range samples {
		in[i] = float64(s)
	}
	output, err := f.resampler.Process(in)
	if err != nil {
		return nil, fmt.Errorf("resampler: resample error: %w", err)
	}
	out := make([]float32, len(output)/f.channels*f.channels)
	for i := range out {
		out[i] = float32(output[i])
	}
	f.produced += int64(len(out) / f.channels)
	return out, nil
}

// Drain flushes the filter with silence and returns the frames still owed
// for the input consumed so far, so that the total output equals
// OutputFrames(consumed).
func (f *Float) Drain() ([]float32, error) {
	want := f.OutputFrames(f.consumed) - f.produced
	if f.Passthrough() || want <= 0 {
		return nil, nil
	}
	block := max(f.srcRate/50, 64) * f.channels
	silence := make([]float32, block)
	var tail []float32
	// Bound the loop by a few seconds of silence in case the filter stalls.
	for i := 0; int64(len(tail)/f.channels) < want && i < 250; i++ {
		out, err := f.process(silence)
		if err != nil {
			return nil, err
		}
		tail = append(tail, out...)
	}
	if n := int(want) * f.channels; len(tail) > n {
		tail = tail[:n]
	}
	f.produced = f.OutputFrames(f.consumed)
	return tail, nil
}
