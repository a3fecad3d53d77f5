// Package presets holds named bed configurations ("moods") and loads
// user-defined ones from YAML or JSON files.
package presets

import (
	"fmt"

	"github.com/haivivi/wombscape/pkg/womb"
)

// DefaultID is the preset used when none is named.
const DefaultID = "womb"

// Preset is a named set of bed parameters.
type Preset struct {
	ID           string             `json:"id" yaml:"id" jsonschema:"unique preset identifier"`
	Name         string             `json:"name,omitempty" yaml:"name,omitempty" jsonschema:"display name"`
	Description  string             `json:"description,omitempty" yaml:"description,omitempty"`
	HeartRateBPM float64            `json:"heart_rate_bpm" yaml:"heart_rate_bpm" jsonschema:"maternal heart rate in beats per minute"`
	HeartLevelDB float64            `json:"heart_level_db" yaml:"heart_level_db" jsonschema:"heartbeat level in dB"`
	NoiseLevelDB float64            `json:"noise_level_db" yaml:"noise_level_db" jsonschema:"pink noise level in dB"`
	Lub          womb.EnvelopeTimes `json:"lub,omitzero" yaml:"lub,omitempty" jsonschema:"lub envelope times, zero fields use defaults"`
	Dub          womb.EnvelopeTimes `json:"dub,omitzero" yaml:"dub,omitempty" jsonschema:"dub envelope times, zero fields use defaults"`
	TargetPeakDB float64            `json:"target_peak_db,omitempty" yaml:"target_peak_db,omitempty" jsonschema:"normalization target in dBFS, zero means -1 dBFS"`
}

// Bed returns a bed configuration for the preset.
func (p Preset) Bed(sampleRate int, seed uint64) womb.Config {
	return womb.Config{
		SampleRate:   sampleRate,
		Seed:         seed,
		HeartRateBPM: p.HeartRateBPM,
		HeartLevelDB: p.HeartLevelDB,
		NoiseLevelDB: p.NoiseLevelDB,
		Lub:          p.Lub,
		Dub:          p.Dub,
	}
}

// Validate checks the preset by building a bed from it. Errors wrap
// womb.ErrInvalidParameter or womb.ErrNumericDegenerate.
func (p Preset) Validate() error {
	if p.ID == "" {
		return fmt.Errorf("presets: %w: missing id", womb.ErrInvalidParameter)
	}
	if p.TargetPeakDB > 0 {
		return fmt.Errorf("presets: %s: %w: target peak %v dBFS above full scale", p.ID, womb.ErrInvalidParameter, p.TargetPeakDB)
	}
	if _, err := womb.New(p.Bed(48000, 0)); err != nil {
		return fmt.Errorf("presets: %s: %w", p.ID, err)
	}
	return nil
}

// Built-in presets.
var (
	Womb = Preset{
		ID:           "womb",
		Name:         "Womb",
		Description:  "Resting maternal heartbeat over a low pink-noise bed.",
		HeartRateBPM: 110,
		HeartLevelDB: -15,
		NoiseLevelDB: -36,
	}

	Soft = Preset{
		ID:           "soft",
		Name:         "Soft",
		Description:  "Slow, rounded beats with more noise for sleep.",
		HeartRateBPM: 72,
		HeartLevelDB: -20,
		NoiseLevelDB: -32,
		Lub:          womb.EnvelopeTimes{AttackMs: 12, DecayMs: 110},
		Dub:          womb.EnvelopeTimes{AttackMs: 14, DecayMs: 130},
	}

	Industrial = Preset{
		ID:           "industrial",
		Name:         "Industrial",
		Description:  "Fast, tight thumps with a dry noise floor.",
		HeartRateBPM: 132,
		HeartLevelDB: -10,
		NoiseLevelDB: -40,
		Lub:          womb.EnvelopeTimes{AttackMs: 3, DecayMs: 45},
		Dub:          womb.EnvelopeTimes{AttackMs: 4, DecayMs: 55},
		TargetPeakDB: -3,
	}

	Choral = Preset{
		ID:           "choral",
		Name:         "Choral",
		Description:  "Long, washed beats under a breathing noise wash.",
		HeartRateBPM: 64,
		HeartLevelDB: -22,
		NoiseLevelDB: -28,
		Lub:          womb.EnvelopeTimes{AttackMs: 20, DecayMs: 160},
		Dub:          womb.EnvelopeTimes{AttackMs: 24, DecayMs: 200},
	}
)

// All contains the built-in presets.
var All = []Preset{Womb, Soft, Industrial, Choral}

// ByID returns a built-in preset by ID, or nil if not found.
func ByID(id string) *Preset {
	return find(All, id)
}

// IDs returns the IDs of the built-in presets.
func IDs() []string {
	ids := make([]string, len(All))
	for i, p := range All {
		ids[i] = p.ID
	}
	return ids
}

// Resolve looks id up in extra first, then in the built-ins.
func Resolve(id string, extra []Preset) (*Preset, error) {
	if id == "" {
		id = DefaultID
	}
	if p := find(extra, id); p != nil {
		return p, nil
	}
	if p := ByID(id); p != nil {
		return p, nil
	}
	return nil, fmt.Errorf("presets: unknown preset %q (built-in: %v)", id, IDs())
}

func find(ps []Preset, id string) *Preset {
	for i := range ps {
		if ps[i].ID == id {
			return &ps[i]
		}
	}
	return nil
}
