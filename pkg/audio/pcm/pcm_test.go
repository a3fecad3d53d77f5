package pcm

import (
	"bytes"
	"math"
	"testing"
	"time"
)

func TestFormatSizes(t *testing.T) {
	tests := []struct {
		format     Format
		frameBytes int
		bytes20ms  int64
		str        string
	}{
		{L16Mono16K, 2, 640, "audio/L16; rate=16000; channels=1"},
		{L16Mono48K, 2, 1920, "audio/L16; rate=48000; channels=1"},
		{F32Stereo48K, 8, 7680, "audio/F32; rate=48000; channels=2"},
	}
	for _, tt := range tests {
		if got := tt.format.FrameBytes(); got != tt.frameBytes {
			t.Errorf("%v FrameBytes = %d, want %d", tt.format, got, tt.frameBytes)
		}
		if got := tt.format.BytesInDuration(20 * time.Millisecond); got != tt.bytes20ms {
			t.Errorf("%v BytesInDuration(20ms) = %d, want %d", tt.format, got, tt.bytes20ms)
		}
		if got := tt.format.Duration(tt.bytes20ms); got != 20*time.Millisecond {
			t.Errorf("%v Duration = %v, want 20ms", tt.format, got)
		}
		if got := tt.format.String(); got != tt.str {
			t.Errorf("String = %q, want %q", got, tt.str)
		}
		if err := tt.format.Validate(); err != nil {
			t.Errorf("Validate(%v) = %v", tt.format, err)
		}
	}
}

func TestFormatValidate(t *testing.T) {
	bad := []Format{
		{SampleRate: 0, Channels: 1},
		{SampleRate: 48000, Channels: 3},
		{SampleRate: 48000, Channels: 1, Encoding: 9},
	}
	for _, f := range bad {
		if err := f.Validate(); err == nil {
			t.Errorf("Validate(%+v) = nil, want error", f)
		}
	}
}

func TestEncodeDecodeL16(t *testing.T) {
	in := []float32{0, 0.5, -0.5, 1, -1, 2, -2}
	data := Encode(L16, in)
	if len(data) != len(in)*2 {
		t.Fatalf("len = %d", len(data))
	}
	out := Decode(L16, data)
	want := []float32{0, 0.5, -0.5, 1, -1, 1, -1}
	for i := range want {
		if math.Abs(float64(out[i]-want[i])) > 1.0/16384 {
			t.Errorf("sample %d = %v, want ~%v", i, out[i], want[i])
		}
	}
}

func TestEncodeF32ClampsAndPreserves(t *testing.T) {
	in := []float32{0.123456, -0.75, 3, float32(math.NaN())}
	out := Decode(F32, Encode(F32, in))
	want := []float32{0.123456, -0.75, 1, 0}
	for i := range want {
		if out[i] != want[i] {
			t.Errorf("sample %d = %v, want %v", i, out[i], want[i])
		}
	}
}

func TestStereo(t *testing.T) {
	got := Stereo([]float32{1, -0.5}, 0.98)
	want := []float32{1, 0.98, -0.5, -0.49}
	for i := range want {
		if math.Abs(float64(got[i]-want[i])) > 1e-6 {
			t.Fatalf("Stereo = %v, want %v", got, want)
		}
	}
}

func TestFrameWriter(t *testing.T) {
	var buf bytes.Buffer
	w := NewFrameWriter(ChunkWriter(&buf), L16Mono16K)
	if w.Format() != L16Mono16K {
		t.Fatalf("format = %v", w.Format())
	}
	for range 3 {
		if err := w.WriteFrames([]float32{0.1, 0.2}); err != nil {
			t.Fatal(err)
		}
	}
	if buf.Len() != 12 {
		t.Fatalf("bytes = %d, want 12", buf.Len())
	}
	if got := Decode(L16, buf.Bytes()[:4]); math.Abs(float64(got[1]-0.2)) > 1e-4 {
		t.Fatalf("decoded = %v", got)
	}
}

func TestSilenceChunk(t *testing.T) {
	c := F32Stereo48K.SilenceChunk(4800)
	var buf bytes.Buffer
	n, err := c.WriteTo(&buf)
	if err != nil {
		t.Fatal(err)
	}
	if n != c.Len() || n != 38400 {
		t.Fatalf("wrote %d, Len %d, want 38400", n, c.Len())
	}
	if bytes.Count(buf.Bytes(), []byte{0}) != buf.Len() {
		t.Fatal("silence is not zero")
	}
}

func TestParseEncoding(t *testing.T) {
	for in, want := range map[string]Encoding{"l16": L16, "F32": F32, "float": F32} {
		got, err := ParseEncoding(in)
		if err != nil || got != want {
			t.Errorf("ParseEncoding(%q) = %v, %v", in, got, err)
		}
	}
	if _, err := ParseEncoding("mp3"); err == nil {
		t.Error("expected error for mp3")
	}
}
