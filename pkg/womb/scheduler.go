package womb

import (
	"log/slog"
	"math"
	"math/rand/v2"
)

const (
	// DubOffsetFraction is the lub-to-dub delay as a fraction of one second
	// of samples.
	DubOffsetFraction = 0.12

	// WindowWidth is the width of a trigger window in samples. A half-open
	// window one sample wide contains exactly one sample position per beat.
	WindowWidth = 1.0

	// MaxJitter bounds the jitter offset, in samples, redrawn on each re-arm.
	MaxJitter = 500.0
)

// Side identifies one of the two heart sounds.
type Side int

const (
	// SideNone means no trigger.
	SideNone Side = iota
	// SideLub is the first heart sound.
	SideLub
	// SideDub is the second heart sound.
	SideDub
)

func (s Side) String() string {
	switch s {
	case SideLub:
		return "lub"
	case SideDub:
		return "dub"
	}
	return "none"
}

// Trigger records a fired trigger.
type Trigger struct {
	Side     Side    `msgpack:"side" json:"side"`
	Sample   uint64  `msgpack:"sample" json:"sample"`
	Position float64 `msgpack:"position" json:"position"`
	Jitter   float64 `msgpack:"jitter" json:"jitter"`
}

// Scheduler decides when the lub and dub envelopes fire.
//
// Each call to Next evaluates one sample and advances the sample counter by
// one. The counter never resets within a session.
type Scheduler struct {
	sampleRate int
	bpm        float64
	dubOffset  float64
	rng        *rand.Rand
	logger     *slog.Logger

	counter  uint64
	jitter   float64
	last     Side
	prevDub  EnvState
	rearms   uint64
	lastFire Trigger
}

// NewScheduler creates a scheduler. The random source is shared with the
// caller so that jitter and noise draws interleave in a fixed order.
func NewScheduler(sampleRate int, bpm float64, rng *rand.Rand, logger *slog.Logger) (*Scheduler, error) {
	if sampleRate <= 0 {
		return nil, invalidf("sample rate %d", sampleRate)
	}
	if rng == nil {
		return nil, invalidf("nil random source")
	}
	if logger == nil {
		logger = slog.Default()
	}
	s := &Scheduler{
		sampleRate: sampleRate,
		dubOffset:  DubOffsetFraction * float64(sampleRate),
		rng:        rng,
		logger:     logger,
	}
	if err := s.SetHeartRate(bpm); err != nil {
		return nil, err
	}
	return s, nil
}

// SetHeartRate changes the heart rate for subsequent samples.
func (s *Scheduler) SetHeartRate(bpm float64) error {
	if !finite(bpm) || bpm <= 0 {
		return invalidf("heart rate %v bpm", bpm)
	}
	spb := samplesPerBeat(bpm, s.sampleRate)
	if !finite(spb) || spb <= WindowWidth {
		return degeneratef("%v samples per beat at %v bpm", spb, bpm)
	}
	s.bpm = bpm
	if s.collides(spb) {
		s.logger.Warn("womb: lub and dub windows collide, dub triggers will be dropped",
			"bpm", bpm, "samples_per_beat", spb, "dub_offset", s.dubOffset)
	}
	return nil
}

// HeartRate returns the current heart rate in beats per minute.
func (s *Scheduler) HeartRate() float64 {
	return s.bpm
}

// Counter returns the index of the next sample to be evaluated.
func (s *Scheduler) Counter() uint64 {
	return s.counter
}

// Jitter returns the current jitter offset in samples.
func (s *Scheduler) Jitter() float64 {
	return s.jitter
}

// Rearms returns how many times the jitter has been redrawn.
func (s *Scheduler) Rearms() uint64 {
	return s.rearms
}

// Last returns the side of the most recent fired trigger.
func (s *Scheduler) Last() Side {
	return s.last
}

// LastTrigger returns the most recent fired trigger.
func (s *Scheduler) LastTrigger() Trigger {
	return s.lastFire
}

func samplesPerBeat(bpm float64, sampleRate int) float64 {
	return 60 / bpm * float64(sampleRate)
}

// windows returns the start of the lub and dub windows within a beat of spb
// samples. The dub window wraps into the beat when the offset exceeds it.
func (s *Scheduler) windows(spb float64) (lub, dub float64) {
	lub = math.Mod(s.jitter, spb)
	dub = math.Mod(lub+s.dubOffset, spb)
	return lub, dub
}

func (s *Scheduler) collides(spb float64) bool {
	lub, dub := s.windows(spb)
	d := math.Abs(dub - lub)
	return math.Min(d, spb-d) < WindowWidth
}

func inWindow(pos, start, spb float64) bool {
	end := start + WindowWidth
	if pos >= start && pos < end {
		return true
	}
	// Window straddling the end of the beat.
	return end > spb && pos < end-spb
}

// Next evaluates the current sample. dubState is the state of the dub
// envelope before it is advanced for this sample; a Decaying to Idle
// transition since the previous call re-arms the jitter.
//
// It returns the side to fire, or SideNone. If the trigger would repeat the
// previous side it is skipped: Next returns SideNone and an *AnomalyError.
func (s *Scheduler) Next(dubState EnvState) (Side, error) {
	spb := samplesPerBeat(s.bpm, s.sampleRate)
	pos := math.Mod(float64(s.counter), spb)
	lub, dub := s.windows(spb)

	var (
		side Side
		err  error
	)
	switch {
	case inWindow(pos, lub, spb):
		side = SideLub
	case inWindow(pos, dub, spb) && !s.collides(spb):
		side = SideDub
	case dubState == Idle && s.prevDub == Decaying:
		s.jitter = s.rng.Float64() * MaxJitter
		s.rearms++
	}

	if side != SideNone {
		if side == s.last {
			err = &AnomalyError{Side: side, Sample: s.counter, Position: pos}
			side = SideNone
		} else {
			s.last = side
			s.lastFire = Trigger{Side: side, Sample: s.counter, Position: pos, Jitter: s.jitter}
		}
	}

	s.prevDub = dubState
	s.counter++
	return side, err
}
