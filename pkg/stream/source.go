package stream

import (
	"fmt"
	"time"

	"github.com/haivivi/wombscape/pkg/audio/pcm"
	"github.com/haivivi/wombscape/pkg/audio/resampler"
	"github.com/haivivi/wombscape/pkg/womb"
)

// DefaultFrameDuration is the length of one streamed frame.
const DefaultFrameDuration = 20 * time.Millisecond

// rightGain matches the offline renderer's stereo decorrelation.
const rightGain = 0.98

// Source cuts a bed into fixed-length frames in an output format. It is not
// safe for concurrent use.
type Source struct {
	bed    *womb.Bed
	rs     *resampler.Float
	format pcm.Format

	synthPerFrame int
	outPerFrame   int
	block         []float32
	pending       []float32
}

// NewSource creates a bed from cfg and resamples it to format. Live output
// is clamped but not normalized.
func NewSource(cfg womb.Config, format pcm.Format, frame time.Duration) (*Source, error) {
	if err := format.Validate(); err != nil {
		return nil, err
	}
	if frame <= 0 {
		frame = DefaultFrameDuration
	}
	bed, err := womb.New(cfg)
	if err != nil {
		return nil, err
	}
	rs, err := resampler.New(cfg.SampleRate, format.SampleRate, 1)
	if err != nil {
		return nil, err
	}
	s := &Source{
		bed:           bed,
		rs:            rs,
		format:        format,
		synthPerFrame: int(pcm.Format{SampleRate: cfg.SampleRate, Channels: 1}.SamplesInDuration(frame)),
		outPerFrame:   int(format.SamplesInDuration(frame)),
	}
	if s.synthPerFrame == 0 || s.outPerFrame == 0 {
		return nil, fmt.Errorf("stream: %w: frame %v too short", womb.ErrInvalidParameter, frame)
	}
	s.block = make([]float32, s.synthPerFrame)
	return s, nil
}

// Format returns the output format.
func (s *Source) Format() pcm.Format {
	return s.format
}

// FrameSamples returns the number of frames (per channel) in each Frame.
func (s *Source) FrameSamples() int {
	return s.outPerFrame
}

// Bed returns the underlying bed.
func (s *Source) Bed() *womb.Bed {
	return s.bed
}

// Frame returns the next frame as interleaved, clamped samples.
func (s *Source) Frame() ([]float32, error) {
	for len(s.pending) < s.outPerFrame {
		s.bed.Fill(s.block)
		out, err := s.rs.Process(s.block)
		if err != nil {
			return nil, err
		}
		s.pending = append(s.pending, out...)
	}
	mono := make([]float32, s.outPerFrame)
	for i, v := range s.pending[:s.outPerFrame] {
		mono[i] = pcm.Clamp(v)
	}
	s.pending = append(s.pending[:0], s.pending[s.outPerFrame:]...)
	if s.format.Channels == 2 {
		return pcm.Stereo(mono, rightGain), nil
	}
	return mono, nil
}

// EncodedFrame returns the next frame encoded in the output format.
func (s *Source) EncodedFrame() ([]byte, error) {
	f, err := s.Frame()
	if err != nil {
		return nil, err
	}
	return pcm.Encode(s.format.Encoding, f), nil
}
