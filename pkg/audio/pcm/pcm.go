package pcm

import (
	"fmt"
	"io"
	"time"
)

// Encoding is the sample encoding of a Format.
type Encoding int

const (
	// L16 is 16-bit signed little-endian integer PCM.
	L16 Encoding = iota
	// F32 is 32-bit IEEE float little-endian PCM.
	F32
)

// Depth returns the bit depth of the encoding.
func (e Encoding) Depth() int {
	switch e {
	case L16:
		return 16
	case F32:
		return 32
	}
	panic("pcm: invalid encoding")
}

func (e Encoding) String() string {
	switch e {
	case L16:
		return "L16"
	case F32:
		return "F32"
	}
	return fmt.Sprintf("Encoding(%d)", int(e))
}

// ParseEncoding parses "l16" or "f32" (case-insensitive).
func ParseEncoding(s string) (Encoding, error) {
	switch s {
	case "l16", "L16", "s16", "pcm16":
		return L16, nil
	case "f32", "F32", "float", "float32":
		return F32, nil
	}
	return 0, fmt.Errorf("pcm: unknown encoding %q", s)
}

// Common formats.
var (
	// L16Mono16K is audio/L16; rate=16000; channels=1
	L16Mono16K = Format{SampleRate: 16000, Channels: 1, Encoding: L16}
	// L16Mono48K is audio/L16; rate=48000; channels=1
	L16Mono48K = Format{SampleRate: 48000, Channels: 1, Encoding: L16}
	// F32Stereo48K is 32-bit float stereo at 48 kHz, the default render format.
	F32Stereo48K = Format{SampleRate: 48000, Channels: 2, Encoding: F32}
)

// Chunk is a chunk of audio data.
type Chunk interface {
	Len() int64
	Format() Format
	WriteTo(w io.Writer) (int64, error)
}

// Format represents an audio format configuration.
type Format struct {
	SampleRate int
	Channels   int
	Encoding   Encoding
}

// Validate reports whether the format is usable.
func (f Format) Validate() error {
	if f.SampleRate <= 0 {
		return fmt.Errorf("pcm: invalid sample rate %d", f.SampleRate)
	}
	if f.Channels != 1 && f.Channels != 2 {
		return fmt.Errorf("pcm: unsupported channel count %d", f.Channels)
	}
	if f.Encoding != L16 && f.Encoding != F32 {
		return fmt.Errorf("pcm: invalid encoding %d", f.Encoding)
	}
	return nil
}

// Depth returns the bit depth for this format.
func (f Format) Depth() int {
	return f.Encoding.Depth()
}

// FrameBytes returns the size of one frame (one sample per channel).
func (f Format) FrameBytes() int {
	return f.Channels * f.Depth() / 8
}

// Samples returns the number of frames in the given number of bytes.
func (f Format) Samples(bytes int64) int64 {
	return bytes / int64(f.FrameBytes())
}

// SamplesInDuration returns the number of frames in the given duration.
func (f Format) SamplesInDuration(d time.Duration) int64 {
	return int64(time.Duration(f.SampleRate) * d / time.Second)
}

// BytesInDuration returns the number of bytes in the given duration.
func (f Format) BytesInDuration(d time.Duration) int64 {
	return f.SamplesInDuration(d) * int64(f.FrameBytes())
}

// Duration returns the duration of the given number of bytes.
func (f Format) Duration(bytes int64) time.Duration {
	return time.Duration(f.Samples(bytes)) * time.Second / time.Duration(f.SampleRate)
}

// BytesRate returns the byte rate of the audio data.
func (f Format) BytesRate() int {
	return f.SampleRate * f.FrameBytes()
}

// SilenceChunk returns a chunk of the given number of silent frames.
func (f Format) SilenceChunk(frames int64) Chunk {
	return &SilenceChunk{
		Frames: frames,
		len:    frames * int64(f.FrameBytes()),
		fmt:    f,
	}
}

// DataChunk returns a chunk of audio data.
func (f Format) DataChunk(data []byte) Chunk {
	return &DataChunk{
		Data: data,
		fmt:  f,
	}
}

// String returns a MIME-style description of the format.
func (f Format) String() string {
	return fmt.Sprintf("audio/%s; rate=%d; channels=%d", f.Encoding, f.SampleRate, f.Channels)
}

// DataChunk is a chunk of audio data.
type DataChunk struct {
	Data []byte
	fmt  Format
}

// Len returns the length of the audio data in bytes.
func (c *DataChunk) Len() int64 {
	return int64(len(c.Data))
}

// Format returns the audio format of this chunk.
func (c *DataChunk) Format() Format {
	return c.fmt
}

// WriteTo writes the audio data to the writer.
func (c *DataChunk) WriteTo(w io.Writer) (int64, error) {
	n, err := w.Write(c.Data)
	return int64(n), err
}

// SilenceChunk is a chunk of silence.
type SilenceChunk struct {
	Frames int64
	len    int64
	fmt    Format
}

// Len returns the length of the silence in bytes.
func (c *SilenceChunk) Len() int64 {
	return c.len
}

// Format returns the audio format of this chunk.
func (c *SilenceChunk) Format() Format {
	return c.fmt
}

var emptyBytes [32000]byte

// WriteTo writes silence to the writer. Zero bytes are silence for both
// L16 and F32.
func (c *SilenceChunk) WriteTo(w io.Writer) (int64, error) {
	tw := c.len
	wn := int64(0)
	for tw > 0 {
		silence := emptyBytes[:min(tw, int64(len(emptyBytes)))]
		tw -= int64(len(silence))
		n, err := w.Write(silence)
		wn += int64(n)
		if err != nil {
			return wn, err
		}
	}
	return wn, nil
}
