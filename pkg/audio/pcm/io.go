package pcm

import (
	"io"
)

// Writer is a writer for chunks of audio data.
type Writer interface {
	Write(Chunk) error
}

// ChunkWriter wraps an io.Writer to provide a pcm.Writer interface.
// All chunks are written to the underlying writer using WriteTo.
func ChunkWriter(w io.Writer) Writer {
	return &chunkWriter{w: w}
}

type chunkWriter struct {
	w io.Writer
}

func (w *chunkWriter) Write(c Chunk) error {
	_, err := c.WriteTo(w.w)
	return err
}

// FrameWriter encodes float frames in a fixed format and writes them as
// DataChunks. It reuses its encode buffer between calls.
type FrameWriter struct {
	w   Writer
	f   Format
	buf []byte
}

// NewFrameWriter returns a FrameWriter writing chunks in format f to w.
func NewFrameWriter(w Writer, f Format) *FrameWriter {
	return &FrameWriter{w: w, f: f}
}

// Format returns the output format.
func (fw *FrameWriter) Format() Format {
	return fw.f
}

// WriteFrames encodes interleaved samples and writes them as one chunk.
// len(samples) must be a multiple of the channel count.
func (fw *FrameWriter) WriteFrames(samples []float32) error {
	fw.buf = AppendEncoded(fw.buf[:0], fw.f.Encoding, samples)
	return fw.w.Write(fw.f.DataChunk(fw.buf))
}
