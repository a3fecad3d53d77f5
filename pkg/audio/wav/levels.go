package wav

import (
	"errors"
	"fmt"
	"io"
	"math"

	"github.com/haivivi/wombscape/pkg/audio/pcm"
)

// Levels are per-channel signal levels of a WAV stream.
type Levels struct {
	Format pcm.Format `json:"-" yaml:"-"`
	Frames int64      `json:"frames" yaml:"frames"`

	// Peak and RMS are linear, one entry per channel.
	Peak []float64 `json:"peak" yaml:"peak"`
	RMS  []float64 `json:"rms" yaml:"rms"`
}

// measureBlock is the number of frames decoded at a time.
const measureBlock = 4096

// Measure reads a whole WAV stream and returns its levels without holding
// the data in memory. A data chunk shorter than its header claims is
// measured up to the last whole frame.
func Measure(r io.Reader) (*Levels, error) {
	h, err := ReadHeader(r)
	if err != nil {
		return nil, err
	}
	channels := h.Format.Channels
	frameBytes := h.Format.FrameBytes()
	lv := &Levels{
		Format: h.Format,
		Peak:   make([]float64, channels),
		RMS:    make([]float64, channels),
	}
	sums := make([]float64, channels)

	buf := make([]byte, measureBlock*frameBytes)
	remaining := int64(h.DataSize)
	for remaining > 0 {
		chunk := buf[:min(int64(len(buf)), remaining)]
		n, err := io.ReadFull(r, chunk)
		n -= n % frameBytes
		for i, s := range pcm.Decode(h.Format.Encoding, chunk[:n]) {
			ch := i % channels
			v := float64(s)
			lv.Peak[ch] = math.Max(lv.Peak[ch], math.Abs(v))
			sums[ch] += v * v
		}
		lv.Frames += int64(n / frameBytes)
		remaining -= int64(len(chunk))
		if errors.Is(err, io.ErrUnexpectedEOF) || errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("wav: read data: %w", err)
		}
	}
	if lv.Frames > 0 {
		for ch := range sums {
			lv.RMS[ch] = math.Sqrt(sums[ch] / float64(lv.Frames))
		}
	}
	return lv, nil
}
