// Package wav reads and writes canonical RIFF/WAVE containers for the PCM
// formats in package pcm (16-bit integer and 32-bit IEEE float).
//
// Writers never seek: the data size must be known before the header is
// written, which suits two-pass rendering and object-store uploads.
package wav

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"

	"github.com/haivivi/wombscape/pkg/audio/pcm"
)

// HeaderSize is the size of a canonical WAV header in bytes.
const HeaderSize = 44

// maxFmtSize bounds the "fmt " chunk. WAVE_FORMAT_EXTENSIBLE needs 40.
const maxFmtSize = 64

// WAVE format tags.
const (
	formatPCM   = 1
	formatFloat = 3
)

// Sentinel errors.
var (
	// ErrNotWAV is returned when the input is not a RIFF/WAVE stream.
	ErrNotWAV = errors.New("wav: not a RIFF/WAVE stream")

	// ErrUnsupportedFormat is returned for encodings pcm cannot represent.
	ErrUnsupportedFormat = errors.New("wav: unsupported format")
)

// Header describes a WAV stream.
type Header struct {
	Format   pcm.Format
	DataSize uint32
}

// Frames returns the number of frames in the data chunk.
func (h Header) Frames() int64 {
	return h.Format.Samples(int64(h.DataSize))
}

func formatTag(e pcm.Encoding) (uint16, error) {
	switch e {
	case pcm.L16:
		return formatPCM, nil
	case pcm.F32:
		return formatFloat, nil
	}
	return 0, fmt.Errorf("%w: encoding %v", ErrUnsupportedFormat, e)
}

// WriteHeader writes a 44-byte canonical header.
func WriteHeader(w io.Writer, h Header) error {
	if err := h.Format.Validate(); err != nil {
		return fmt.Errorf("%w: %v", ErrUnsupportedFormat, err)
	}
	tag, err := formatTag(h.Format.Encoding)
	if err != nil {
		return err
	}
	f := h.Format
	b := make([]byte, 0, HeaderSize)
	b = append(b, "RIFF"...)
	b = binary.LittleEndian.AppendUint32(b, 36+h.DataSize)
	b = append(b, "WAVE"...)
	b = append(b, "fmt "...)
	b = binary.LittleEndian.AppendUint32(b, 16)
	b = binary.LittleEndian.AppendUint16(b, tag)
	b = binary.LittleEndian.AppendUint16(b, uint16(f.Channels))
	b = binary.LittleEndian.AppendUint32(b, uint32(f.SampleRate))
	b = binary.LittleEndian.AppendUint32(b, uint32(f.BytesRate()))
	b = binary.LittleEndian.AppendUint16(b, uint16(f.FrameBytes()))
	b = binary.LittleEndian.AppendUint16(b, uint16(f.Depth()))
	b = append(b, "data"...)
	b = binary.LittleEndian.AppendUint32(b, h.DataSize)
	_, err = w.Write(b)
	return err
}

// ReadHeader parses a WAV header and leaves r positioned at the start of the
// sample data. Chunks other than "fmt " and "data" are skipped.
func ReadHeader(r io.Reader) (Header, error) {
	var riff [12]byte
	if _, err := io.ReadFull(r, riff[:]); err != nil {
		return Header{}, fmt.Errorf("%w: %v", ErrNotWAV, err)
	}
	if string(riff[0:4]) != "RIFF" || string(riff[8:12]) != "WAVE" {
		return Header{}, ErrNotWAV
	}

	var (
		h      Header
		gotFmt bool
	)
	for {
		var ch [8]byte
		if _, err := io.ReadFull(r, ch[:]); err != nil {
			return Header{}, fmt.Errorf("wav: read chunk header: %w", err)
		}
		id := string(ch[0:4])
		size := binary.LittleEndian.Uint32(ch[4:8])
		padded := int64(size) + int64(size%2)
		switch id {
		case "fmt ":
			if size < 16 || size > maxFmtSize {
				return Header{}, fmt.Errorf("%w: fmt chunk of %d bytes", ErrNotWAV, size)
			}
			body := make([]byte, padded)
			if _, err := io.ReadFull(r, body); err != nil {
				return Header{}, fmt.Errorf("wav: read fmt chunk: %w", err)
			}
			f, err := parseFmt(body)
			if err != nil {
				return Header{}, err
			}
			h.Format = f
			gotFmt = true
		case "data":
			if !gotFmt {
				return Header{}, fmt.Errorf("%w: data before fmt", ErrNotWAV)
			}
			h.DataSize = size
			return h, nil
		default:
			if _, err := io.CopyN(io.Discard, r, padded); err != nil {
				return Header{}, fmt.Errorf("wav: skip %q chunk: %w", id, err)
			}
		}
	}
}

func parseFmt(b []byte) (pcm.Format, error) {
	tag := binary.LittleEndian.Uint16(b[0:2])
	channels := int(binary.LittleEndian.Uint16(b[2:4]))
	rate := int(binary.LittleEndian.Uint32(b[4:8]))
	depth := binary.LittleEndian.Uint16(b[14:16])

	var enc pcm.Encoding
	switch {
	case tag == formatPCM && depth == 16:
		enc = pcm.L16
	case tag == formatFloat && depth == 32:
		enc = pcm.F32
	default:
		return pcm.Format{}, fmt.Errorf("%w: tag %d depth %d", ErrUnsupportedFormat, tag, depth)
	}
	f := pcm.Format{SampleRate: rate, Channels: channels, Encoding: enc}
	if err := f.Validate(); err != nil {
		return pcm.Format{}, fmt.Errorf("%w: %v", ErrUnsupportedFormat, err)
	}
	return f, nil
}
