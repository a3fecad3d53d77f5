package stream

import (
	"bytes"
	"testing"
	"time"

	"github.com/haivivi/wombscape/pkg/audio/pcm"
	"github.com/haivivi/wombscape/pkg/presets"
)

func TestSourceFrameSizes(t *testing.T) {
	tests := []struct {
		name    string
		format  pcm.Format
		samples int
	}{
		{"16k mono", pcm.L16Mono16K, 320},
		{"48k mono passthrough", pcm.L16Mono48K, 960},
		{"44.1k stereo float", pcm.Format{SampleRate: 44100, Channels: 2, Encoding: pcm.F32}, 882},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			src, err := NewSource(presets.Womb.Bed(48000, 7), tt.format, 20*time.Millisecond)
			if err != nil {
				t.Fatal(err)
			}
			if src.FrameSamples() != tt.samples {
				t.Fatalf("FrameSamples = %d, want %d", src.FrameSamples(), tt.samples)
			}
			for i := range 60 {
				frame, err := src.Frame()
				if err != nil {
					t.Fatal(err)
				}
				if len(frame) != tt.samples*tt.format.Channels {
					t.Fatalf("frame %d has %d samples", i, len(frame))
				}
				for _, s := range frame {
					if s < -1 || s > 1 {
						t.Fatalf("frame %d sample %v not clamped", i, s)
					}
				}
			}
			if st := src.Bed().Stats(); st.LubTriggers == 0 {
				t.Fatalf("no lub after 1.2 s: %+v", st)
			}
		})
	}
}

func TestSourceDeterministic(t *testing.T) {
	a, err := NewSource(presets.Womb.Bed(48000, 99), pcm.L16Mono16K, 0)
	if err != nil {
		t.Fatal(err)
	}
	b, err := NewSource(presets.Womb.Bed(48000, 99), pcm.L16Mono16K, 0)
	if err != nil {
		t.Fatal(err)
	}
	for i := range 10 {
		fa, err := a.EncodedFrame()
		if err != nil {
			t.Fatal(err)
		}
		fb, _ := b.EncodedFrame()
		if !bytes.Equal(fa, fb) {
			t.Fatalf("frame %d differs", i)
		}
		if len(fa) != 640 {
			t.Fatalf("encoded frame = %d bytes, want 640", len(fa))
		}
	}
}

func TestSourceStereoDecorrelation(t *testing.T) {
	src, err := NewSource(presets.Womb.Bed(48000, 1), pcm.Format{SampleRate: 48000, Channels: 2, Encoding: pcm.F32}, 0)
	if err != nil {
		t.Fatal(err)
	}
	frame, err := src.Frame()
	if err != nil {
		t.Fatal(err)
	}
	for i := 0; i < len(frame); i += 2 {
		if frame[i+1] != frame[i]*rightGain {
			t.Fatalf("frame %d: right %v, left %v", i/2, frame[i+1], frame[i])
		}
	}
}

func TestNewSourceRejects(t *testing.T) {
	if _, err := NewSource(presets.Womb.Bed(48000, 1), pcm.Format{SampleRate: 16000, Channels: 3}, 0); err == nil {
		t.Fatal("three channels should fail")
	}
	if _, err := NewSource(presets.Womb.Bed(0, 1), pcm.L16Mono16K, 0); err == nil {
		t.Fatal("zero synth rate should fail")
	}
	if _, err := NewSource(presets.Womb.Bed(48000, 1), pcm.L16Mono16K, time.Microsecond); err == nil {
		t.Fatal("sub-sample frame should fail")
	}
}
