package wav

import (
	"fmt"
	"io"
	"math"

	"github.com/haivivi/wombscape/pkg/audio/pcm"
)

// Encoder writes a WAV stream whose frame count is declared up front.
type Encoder struct {
	cw      pcm.Writer
	fw      *pcm.FrameWriter
	format  pcm.Format
	want    int64
	written int64
}

// NewEncoder writes the header for frames frames in format f and returns an
// encoder for the sample data.
func NewEncoder(w io.Writer, f pcm.Format, frames int64) (*Encoder, error) {
	size := frames * int64(f.FrameBytes())
	if frames < 0 || size > math.MaxUint32-36 {
		return nil, fmt.Errorf("wav: %d frames do not fit in a RIFF container", frames)
	}
	if err := WriteHeader(w, Header{Format: f, DataSize: uint32(size)}); err != nil {
		return nil, err
	}
	cw := pcm.ChunkWriter(w)
	return &Encoder{
		cw:     cw,
		fw:     pcm.NewFrameWriter(cw, f),
		format: f,
		want:   frames,
	}, nil
}

// Format returns the stream format.
func (e *Encoder) Format() pcm.Format {
	return e.format
}

// Write encodes interleaved samples. Writing more frames than declared is an
// error.
func (e *Encoder) Write(samples []float32) error {
	if len(samples)%e.format.Channels != 0 {
		return fmt.Errorf("wav: %d samples is not a whole number of %d-channel frames", len(samples), e.format.Channels)
	}
	frames := int64(len(samples) / e.format.Channels)
	if e.written+frames > e.want {
		return fmt.Errorf("wav: frame overflow: %d declared, %d written", e.want, e.written+frames)
	}
	if err := e.fw.WriteFrames(samples); err != nil {
		return err
	}
	e.written += frames
	return nil
}

// Pad writes silence up to the declared frame count and returns the number
// of frames padded.
func (e *Encoder) Pad() (int64, error) {
	n := e.want - e.written
	if n <= 0 {
		return 0, nil
	}
	if err := e.cw.Write(e.format.SilenceChunk(n)); err != nil {
		return 0, err
	}
	e.written = e.want
	return n, nil
}

// Close checks that exactly the declared number of frames was written.
func (e *Encoder) Close() error {
	if e.written != e.want {
		return fmt.Errorf("wav: short stream: %d declared, %d written", e.want, e.written)
	}
	return nil
}
