package womb

import (
	"errors"
	"log/slog"
	"math/rand/v2"
)

// Default envelope time constants, in milliseconds.
const (
	DefaultLubAttackMs = 8.0
	DefaultLubDecayMs  = 70.0
	DefaultDubAttackMs = 10.0
	DefaultDubDecayMs  = 90.0

	// DubWeight scales the dub envelope relative to lub.
	DubWeight = 0.7
)

// pcgStream decorrelates the second PCG word from the user seed.
const pcgStream = 0x9e3779b97f4a7c15

// EnvelopeTimes holds attack and decay time constants in milliseconds.
// Zero fields take the voice default.
type EnvelopeTimes struct {
	AttackMs float64 `json:"attack_ms,omitempty" yaml:"attack_ms,omitempty"`
	DecayMs  float64 `json:"decay_ms,omitempty" yaml:"decay_ms,omitempty"`
}

func (t EnvelopeTimes) withDefaults(attack, decay float64) EnvelopeTimes {
	if t.AttackMs == 0 {
		t.AttackMs = attack
	}
	if t.DecayMs == 0 {
		t.DecayMs = decay
	}
	return t
}

// Config configures a Bed.
type Config struct {
	// SampleRate is the synthesis rate in Hz. Required.
	SampleRate int

	// Seed seeds the session random source.
	Seed uint64

	// HeartRateBPM is the maternal heart rate. Required, > 0.
	HeartRateBPM float64

	// HeartLevelDB and NoiseLevelDB are the heartbeat and noise levels in dB.
	HeartLevelDB float64
	NoiseLevelDB float64

	// Lub and Dub override the envelope time constants.
	Lub EnvelopeTimes
	Dub EnvelopeTimes

	// OnTrigger is called synchronously for every fired trigger.
	OnTrigger func(Trigger)

	// Logger is optional. If nil, uses slog.Default().
	Logger *slog.Logger
}

// Stats are running counters for a Bed.
type Stats struct {
	Samples     uint64 `json:"samples" msgpack:"samples"`
	LubTriggers uint64 `json:"lub_triggers" msgpack:"lub_triggers"`
	DubTriggers uint64 `json:"dub_triggers" msgpack:"dub_triggers"`
	Anomalies   uint64 `json:"anomalies" msgpack:"anomalies"`
	Rearms      uint64 `json:"rearms" msgpack:"rearms"`
}

// Bed is the womb bed synthesizer. It owns all session state.
type Bed struct {
	sampleRate int
	rng        *rand.Rand
	logger     *slog.Logger
	onTrigger  func(Trigger)

	scheduler *Scheduler
	lub       *Envelope
	dub       *Envelope
	pink      PinkNoise
	breathing *Breathing

	heartGain float64
	noiseGain float64

	stats Stats
}

// New creates a Bed. Parameter errors wrap ErrInvalidParameter or
// ErrNumericDegenerate.
func New(cfg Config) (*Bed, error) {
	if cfg.SampleRate <= 0 {
		return nil, invalidf("sample rate %d", cfg.SampleRate)
	}
	if !finite(cfg.HeartLevelDB) || !finite(cfg.NoiseLevelDB) {
		return nil, invalidf("levels heart=%v dB noise=%v dB", cfg.HeartLevelDB, cfg.NoiseLevelDB)
	}
	heartGain := DBToLinear(cfg.HeartLevelDB)
	noiseGain := DBToLinear(cfg.NoiseLevelDB)
	if !finite(heartGain) || !finite(noiseGain) {
		return nil, degeneratef("gains heart=%v noise=%v", heartGain, noiseGain)
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	rng := rand.New(rand.NewPCG(cfg.Seed, cfg.Seed^pcgStream))

	scheduler, err := NewScheduler(cfg.SampleRate, cfg.HeartRateBPM, rng, logger)
	if err != nil {
		return nil, err
	}
	lubTimes := cfg.Lub.withDefaults(DefaultLubAttackMs, DefaultLubDecayMs)
	lub, err := NewEnvelope(cfg.SampleRate, lubTimes.AttackMs, lubTimes.DecayMs)
	if err != nil {
		return nil, err
	}
	dubTimes := cfg.Dub.withDefaults(DefaultDubAttackMs, DefaultDubDecayMs)
	dub, err := NewEnvelope(cfg.SampleRate, dubTimes.AttackMs, dubTimes.DecayMs)
	if err != nil {
		return nil, err
	}
	breathing, err := NewBreathing(cfg.SampleRate)
	if err != nil {
		return nil, err
	}

	return &Bed{
		sampleRate: cfg.SampleRate,
		rng:        rng,
		logger:     logger,
		onTrigger:  cfg.OnTrigger,
		scheduler:  scheduler,
		lub:        lub,
		dub:        dub,
		breathing:  breathing,
		heartGain:  heartGain,
		noiseGain:  noiseGain,
	}, nil
}

// SampleRate returns the synthesis rate in Hz.
func (b *Bed) SampleRate() int {
	return b.sampleRate
}

// HeartRate returns the current heart rate in beats per minute.
func (b *Bed) HeartRate() float64 {
	return b.scheduler.HeartRate()
}

// SetHeartRate changes the heart rate for subsequent samples. Non-positive
// or degenerate rates are rejected and leave the rate unchanged.
func (b *Bed) SetHeartRate(bpm float64) error {
	return b.scheduler.SetHeartRate(bpm)
}

// Stats returns the running counters.
func (b *Bed) Stats() Stats {
	s := b.stats
	s.Rearms = b.scheduler.Rearms()
	return s
}

// Next produces one mono sample. A non-nil error is an *AnomalyError: the
// offending trigger was skipped and the returned sample is still valid.
func (b *Bed) Next() (float32, error) {
	side, err := b.scheduler.Next(b.dub.State())
	switch side {
	case SideLub:
		b.lub.Fire()
		b.stats.LubTriggers++
	case SideDub:
		b.dub.Fire()
		b.stats.DubTriggers++
	}
	if side != SideNone && b.onTrigger != nil {
		b.onTrigger(b.scheduler.LastTrigger())
	}
	if err != nil {
		b.stats.Anomalies++
	}

	lub := b.lub.Advance()
	dub := DubWeight * b.dub.Advance()
	heart := (lub + dub) * b.heartGain

	breath := b.breathing.Advance()
	white := b.rng.Float64()*2 - 1
	pink := b.pink.Next(white) * b.noiseGain * breath

	b.stats.Samples++
	return float32(pink + heart), err
}

// NextSample produces one mono sample, logging scheduling anomalies at debug
// level instead of returning them.
func (b *Bed) NextSample() float32 {
	s, err := b.Next()
	if err != nil {
		var ae *AnomalyError
		if errors.As(err, &ae) {
			b.logger.Debug("womb: skipped trigger", "side", ae.Side, "sample", ae.Sample, "position", ae.Position)
		}
	}
	return s
}

// Fill fills dst with consecutive samples and returns the number of
// scheduling anomalies encountered.
func (b *Bed) Fill(dst []float32) int {
	n := 0
	for i := range dst {
		s, err := b.Next()
		if err != nil {
			n++
		}
		dst[i] = s
	}
	return n
}
