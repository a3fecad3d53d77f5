package womb

import "math"

// EnvState is the state of an Envelope.
type EnvState int

const (
	// Idle is at rest; the level still decays passively toward zero.
	Idle EnvState = iota
	// Attacking rises exponentially toward 1.
	Attacking
	// Decaying falls exponentially toward 0.
	Decaying
)

func (s EnvState) String() string {
	switch s {
	case Idle:
		return "idle"
	case Attacking:
		return "attacking"
	case Decaying:
		return "decaying"
	}
	return "unknown"
}

const (
	// attackDone is the level above which an attack turns into a decay.
	attackDone = 0.98
	// decayFloor is the level below which a decay snaps to 0 and goes idle.
	decayFloor = 0.0005
)

// Envelope is an attack/decay amplitude envelope for percussive sounds.
//
// The level always stays in [0, 1].
type Envelope struct {
	attackCoeff float64
	decayCoeff  float64
	level       float64
	state       EnvState
}

// NewEnvelope creates an envelope for the given sample rate with attack and
// decay time constants in milliseconds. Times shorter than one sample are
// floored to one sample.
func NewEnvelope(sampleRate int, attackMs, decayMs float64) (*Envelope, error) {
	if sampleRate <= 0 {
		return nil, invalidf("sample rate %d", sampleRate)
	}
	if !finite(attackMs) || attackMs < 0 {
		return nil, invalidf("attack time %v ms", attackMs)
	}
	if !finite(decayMs) || decayMs < 0 {
		return nil, invalidf("decay time %v ms", decayMs)
	}
	attack := coefficient(attackMs, sampleRate)
	decay := coefficient(decayMs, sampleRate)
	if !finite(attack) || !finite(decay) {
		return nil, degeneratef("envelope coefficients attack=%v decay=%v", attack, decay)
	}
	return &Envelope{
		attackCoeff: attack,
		decayCoeff:  decay,
	}, nil
}

// coefficient returns exp(-1/samples) for a time constant in milliseconds.
func coefficient(ms float64, sampleRate int) float64 {
	samples := ms / 1000 * float64(sampleRate)
	return math.Exp(-1 / math.Max(samples, 1))
}

// Fire starts an attack from the current level. It does not guard against
// re-triggering mid-attack.
func (e *Envelope) Fire() {
	e.state = Attacking
}

// Advance moves the envelope forward one sample and returns the new level.
func (e *Envelope) Advance() float64 {
	switch e.state {
	case Idle:
		e.level *= e.decayCoeff
	case Attacking:
		e.level = 1 + (e.level-1)*e.attackCoeff
		if e.level > attackDone {
			e.state = Decaying
		}
	case Decaying:
		e.level *= e.decayCoeff
		if e.level < decayFloor {
			e.level = 0
			e.state = Idle
		}
	}
	return e.level
}

// State returns the current state.
func (e *Envelope) State() EnvState {
	return e.state
}

// Level returns the current level without advancing.
func (e *Envelope) Level() float64 {
	return e.level
}
