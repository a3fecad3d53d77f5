package womb

import "math"

const (
	// BreathRateHz is the breathing modulation rate (about 6 breaths per
	// minute).
	BreathRateHz = 0.1

	breathCenter = 0.85
	breathDepth  = 0.15
)

// Breathing is a slow sinusoidal amplitude modulator.
type Breathing struct {
	phase float64
	inc   float64
}

// NewBreathing returns a modulator advancing at BreathRateHz for the given
// sample rate.
func NewBreathing(sampleRate int) (*Breathing, error) {
	if sampleRate <= 0 {
		return nil, invalidf("sample rate %d", sampleRate)
	}
	return &Breathing{inc: BreathRateHz / float64(sampleRate)}, nil
}

// Advance moves the phase forward one sample and returns the modulation
// factor, which lies in [0.70, 1.00].
func (b *Breathing) Advance() float64 {
	b.phase += b.inc
	if b.phase >= 1 {
		b.phase -= 1
	}
	return breathCenter + breathDepth*math.Sin(2*math.Pi*b.phase)
}

// Phase returns the current phase in [0, 1).
func (b *Breathing) Phase() float64 {
	return b.phase
}
