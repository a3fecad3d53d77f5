package wav

import (
	"bytes"
	"encoding/binary"
	"errors"
	"io"
	"testing"

	"github.com/haivivi/wombscape/pkg/audio/pcm"
)

func decodeAll(t *testing.T, r io.Reader) (Header, []float32) {
	t.Helper()
	h, err := ReadHeader(r)
	if err != nil {
		t.Fatal(err)
	}
	data, err := io.ReadAll(io.LimitReader(r, int64(h.DataSize)))
	if err != nil {
		t.Fatal(err)
	}
	return h, pcm.Decode(h.Format.Encoding, data)
}

func TestEncoderFloatStereo(t *testing.T) {
	var buf bytes.Buffer
	f := pcm.F32Stereo48K
	enc, err := NewEncoder(&buf, f, 3)
	if err != nil {
		t.Fatal(err)
	}
	if err := enc.Write([]float32{0.5, 0.49, -0.25, -0.245}); err != nil {
		t.Fatal(err)
	}
	if err := enc.Write([]float32{1, 0.98}); err != nil {
		t.Fatal(err)
	}
	if err := enc.Close(); err != nil {
		t.Fatal(err)
	}

	b := buf.Bytes()
	if len(b) != HeaderSize+3*8 {
		t.Fatalf("len = %d, want %d", len(b), HeaderSize+24)
	}
	if got := binary.LittleEndian.Uint16(b[20:22]); got != formatFloat {
		t.Fatalf("format tag = %d, want 3", got)
	}
	if got := binary.LittleEndian.Uint32(b[4:8]); got != 36+24 {
		t.Fatalf("riff size = %d", got)
	}
	if got := binary.LittleEndian.Uint32(b[28:32]); got != 48000*8 {
		t.Fatalf("byte rate = %d", got)
	}

	h, samples := decodeAll(t, bytes.NewReader(b))
	if h.Format != f || h.Frames() != 3 {
		t.Fatalf("header = %+v", h)
	}
	want := []float32{0.5, 0.49, -0.25, -0.245, 1, 0.98}
	for i := range want {
		if samples[i] != want[i] {
			t.Fatalf("samples = %v, want %v", samples, want)
		}
	}
}

func TestEncoderFrameAccounting(t *testing.T) {
	var buf bytes.Buffer
	enc, err := NewEncoder(&buf, pcm.L16Mono16K, 2)
	if err != nil {
		t.Fatal(err)
	}
	if err := enc.Write([]float32{0.1}); err != nil {
		t.Fatal(err)
	}
	if err := enc.Close(); err == nil {
		t.Fatal("Close on short stream should fail")
	}
	if err := enc.Write([]float32{0.2, 0.3}); err == nil {
		t.Fatal("overflow should fail")
	}

	stereo, err := NewEncoder(&buf, pcm.F32Stereo48K, 1)
	if err != nil {
		t.Fatal(err)
	}
	if err := stereo.Write([]float32{0.1}); err == nil {
		t.Fatal("partial frame should fail")
	}
}

func TestEncoderPad(t *testing.T) {
	var buf bytes.Buffer
	enc, err := NewEncoder(&buf, pcm.L16Mono16K, 5)
	if err != nil {
		t.Fatal(err)
	}
	if err := enc.Write([]float32{0.5, 0.5}); err != nil {
		t.Fatal(err)
	}
	n, err := enc.Pad()
	if err != nil || n != 3 {
		t.Fatalf("Pad = %d, %v, want 3", n, err)
	}
	if n, _ := enc.Pad(); n != 0 {
		t.Fatalf("second Pad = %d, want 0", n)
	}
	if err := enc.Close(); err != nil {
		t.Fatal(err)
	}
	if buf.Len() != HeaderSize+10 {
		t.Fatalf("len = %d, want %d", buf.Len(), HeaderSize+10)
	}
	_, samples := decodeAll(t, &buf)
	if len(samples) != 5 || samples[1] < 0.49 || samples[2] != 0 || samples[4] != 0 {
		t.Fatalf("samples = %v", samples)
	}
}

func TestReadHeaderSkipsUnknownChunks(t *testing.T) {
	var body bytes.Buffer
	if err := WriteHeader(&body, Header{Format: pcm.L16Mono16K, DataSize: 4}); err != nil {
		t.Fatal(err)
	}
	raw := body.Bytes()
	// Splice a LIST chunk between fmt and data.
	var spliced bytes.Buffer
	spliced.Write(raw[:36])
	spliced.WriteString("LIST")
	spliced.Write(binary.LittleEndian.AppendUint32(nil, 3))
	spliced.Write([]byte{1, 2, 3, 0})
	spliced.Write(raw[36:])
	spliced.Write([]byte{0, 0, 0xff, 0x7f})

	h, samples := decodeAll(t, &spliced)
	if h.Format != pcm.L16Mono16K || len(samples) != 2 {
		t.Fatalf("header = %+v samples = %v", h, samples)
	}
	if samples[1] < 0.99 {
		t.Fatalf("second sample = %v, want ~1", samples[1])
	}
}

func TestReadHeaderRejects(t *testing.T) {
	if _, err := ReadHeader(bytes.NewReader([]byte("RIFF\x00\x00\x00\x00AVI "))); !errors.Is(err, ErrNotWAV) {
		t.Fatalf("err = %v, want ErrNotWAV", err)
	}
	if _, err := ReadHeader(bytes.NewReader(nil)); !errors.Is(err, ErrNotWAV) {
		t.Fatalf("err = %v, want ErrNotWAV", err)
	}

	var buf bytes.Buffer
	if err := WriteHeader(&buf, Header{Format: pcm.L16Mono16K}); err != nil {
		t.Fatal(err)
	}
	b := buf.Bytes()
	binary.LittleEndian.PutUint16(b[34:36], 24)
	if _, err := ReadHeader(bytes.NewReader(b)); !errors.Is(err, ErrUnsupportedFormat) {
		t.Fatalf("err = %v, want ErrUnsupportedFormat", err)
	}
}

func chunkStream(id string, size uint32, body []byte) []byte {
	b := []byte("RIFF\x00\x00\x00\x00WAVE")
	b = append(b, id...)
	b = binary.LittleEndian.AppendUint32(b, size)
	return append(b, body...)
}

func TestReadHeaderRejectsBadChunkSizes(t *testing.T) {
	tests := []struct {
		name string
		in   []byte
	}{
		{"fmt size wraps", chunkStream("fmt ", 0xFFFFFFFF, make([]byte, 16))},
		{"fmt too large", chunkStream("fmt ", 65, make([]byte, 66))},
		{"fmt too small", chunkStream("fmt ", 15, make([]byte, 16))},
		{"unknown chunk past end", chunkStream("LIST", 0xFFFFFFFF, make([]byte, 8))},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := ReadHeader(bytes.NewReader(tt.in)); err == nil {
				t.Fatal("expected error")
			}
		})
	}
}
