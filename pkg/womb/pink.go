package womb

// Pink noise filter coefficients. They are per-sample constants, so the
// spectral tilt they produce depends on the sample rate.
const (
	pinkFeedback = 0.985
	pinkInput    = 0.015
)

// PinkNoise colors white noise with a fixed one-pole lowpass. It is not a
// true 1/f generator, only a pink-ish tilt that suits a womb bed.
type PinkNoise struct {
	state float64
}

// Next filters one white noise sample and returns the filtered value.
func (p *PinkNoise) Next(white float64) float64 {
	p.state = pinkFeedback*p.state + pinkInput*white
	return p.state
}

// State returns the last filtered value.
func (p *PinkNoise) State() float64 {
	return p.state
}
