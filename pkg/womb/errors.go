package womb

import (
	"errors"
	"fmt"
)

// Sentinel errors.
var (
	// ErrInvalidParameter is returned when a construction or
	// reconfiguration parameter is out of range.
	ErrInvalidParameter = errors.New("womb: invalid parameter")

	// ErrNumericDegenerate is returned when a derived quantity (coefficient,
	// gain, samples per beat) is not a usable finite number.
	ErrNumericDegenerate = errors.New("womb: numeric degenerate")

	// ErrSchedulingAnomaly reports two consecutive triggers of the same side.
	// It is recoverable: the offending trigger is skipped and generation
	// continues.
	ErrSchedulingAnomaly = errors.New("womb: scheduling anomaly")
)

// AnomalyError describes a skipped trigger.
type AnomalyError struct {
	// Side is the side whose trigger was skipped.
	Side Side

	// Sample is the sample counter at which the trigger was skipped.
	Sample uint64

	// Position is the position within the beat, in samples.
	Position float64
}

func (e *AnomalyError) Error() string {
	return fmt.Sprintf("womb: double %s at sample %d (position %.2f)", e.Side, e.Sample, e.Position)
}

// Is reports whether target is ErrSchedulingAnomaly.
func (e *AnomalyError) Is(target error) bool {
	return target == ErrSchedulingAnomaly
}

func invalidf(format string, args ...any) error {
	return fmt.Errorf("%w: "+format, append([]any{ErrInvalidParameter}, args...)...)
}

func degeneratef(format string, args ...any) error {
	return fmt.Errorf("%w: "+format, append([]any{ErrNumericDegenerate}, args...)...)
}
