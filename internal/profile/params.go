package profile

import (
	"fmt"
	"math"
)

// Generation defaults used when a request omits a value.
const (
	DefaultLength    = 500
	DefaultAmplitude = 0.3
	DefaultFrequency = 0.02

	// MinLength is exclusive: a profile needs at least three samples.
	MinLength = 2
)

// Params are the caller-supplied generation parameters.
type Params struct {
	Length    int     `json:"length"`
	Amplitude float64 `json:"amplitude"`
	Frequency float64 `json:"frequency"`
}

// DefaultParams returns the parameters used by the web page on first load.
func DefaultParams() Params {
	return Params{
		Length:    DefaultLength,
		Amplitude: DefaultAmplitude,
		Frequency: DefaultFrequency,
	}
}

// Limits bound the work and magnitude of a single generation. A zero field
// disables that bound.
type Limits struct {
	MaxLength    int
	MaxAmplitude float64
}

// Validate checks p against lim.
func (p Params) Validate(lim Limits) error {
	if p.Length <= MinLength {
		return fmt.Errorf("%w: length must be greater than %d, got %d", ErrInvalidParameter, MinLength, p.Length)
	}
	if lim.MaxLength > 0 && p.Length > lim.MaxLength {
		return fmt.Errorf("%w: length must be at most %d, got %d", ErrInvalidParameter, lim.MaxLength, p.Length)
	}
	if math.IsNaN(p.Amplitude) || math.IsInf(p.Amplitude, 0) {
		return fmt.Errorf("%w: amplitude must be finite, got %v", ErrInvalidParameter, p.Amplitude)
	}
	if p.Amplitude < 0 {
		return fmt.Errorf("%w: amplitude must be non-negative, got %v", ErrInvalidParameter, p.Amplitude)
	}
	if lim.MaxAmplitude > 0 && p.Amplitude > lim.MaxAmplitude {
		return fmt.Errorf("%w: amplitude must be at most %v, got %v", ErrInvalidParameter, lim.MaxAmplitude, p.Amplitude)
	}
	if math.IsNaN(p.Frequency) || math.IsInf(p.Frequency, 0) {
		return fmt.Errorf("%w: frequency must be finite, got %v", ErrInvalidParameter, p.Frequency)
	}
	return nil
}
