package womb

import (
	"math"
	"math/rand/v2"
	"testing"
)

func TestPinkNoiseRecurrence(t *testing.T) {
	var p PinkNoise
	if got := p.Next(1); got != 0.015 {
		t.Fatalf("first step = %v, want 0.015", got)
	}
	want := 0.985*0.015 + 0.015*-0.5
	if got := p.Next(-0.5); got != want {
		t.Fatalf("second step = %v, want %v", got, want)
	}
}

func TestPinkNoiseStaysBounded(t *testing.T) {
	var p PinkNoise
	rng := rand.New(rand.NewPCG(7, 7))
	for i := range 2_000_000 {
		v := p.Next(rng.Float64()*2 - 1)
		if math.IsNaN(v) || v < -1 || v > 1 {
			t.Fatalf("step %d: %v out of [-1,1]", i, v)
		}
	}
	// Constant extreme input converges without overshoot.
	p = PinkNoise{}
	for range 10000 {
		p.Next(-1)
	}
	if v := p.State(); v < -1 || v > -0.999 {
		t.Fatalf("converged state = %v, want ~-1", v)
	}
}

func TestBreathingBounds(t *testing.T) {
	b, err := NewBreathing(100)
	if err != nil {
		t.Fatal(err)
	}
	// 100 Hz at 0.1 Hz breath rate: 1000 samples per breath.
	lo, hi := 2.0, 0.0
	for i := range 5000 {
		v := b.Advance()
		if v < 0.70-1e-12 || v > 1.00+1e-12 {
			t.Fatalf("step %d: %v out of [0.70,1.00]", i, v)
		}
		if p := b.Phase(); p < 0 || p >= 1 {
			t.Fatalf("step %d: phase %v out of [0,1)", i, p)
		}
		lo, hi = min(lo, v), max(hi, v)
	}
	if hi < 0.999 || lo > 0.701 {
		t.Fatalf("range [%v,%v] does not span the modulation depth", lo, hi)
	}
}

func TestNewBreathingRejectsZeroRate(t *testing.T) {
	if _, err := NewBreathing(0); err == nil {
		t.Fatal("expected error")
	}
}

func TestDecibels(t *testing.T) {
	if got := DBToLinear(0); got != 1 {
		t.Fatalf("0 dB = %v", got)
	}
	if got := DBToLinear(-20); math.Abs(got-0.1) > 1e-12 {
		t.Fatalf("-20 dB = %v", got)
	}
	if got := LinearToDB(0.89); math.Abs(got+1.012) > 0.01 {
		t.Fatalf("0.89 = %v dB, want ~-1", got)
	}
}
