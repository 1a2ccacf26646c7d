package profile

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/integrate"
	"gonum.org/v1/gonum/stat"
)

// DefectIntegral compares a measured profile with its ideal baseline. It
// returns the pointwise absolute differences and their trapezoidal integral
// over unit spacing.
func DefectIntegral(ideal, real []float64) (float64, []float64, error) {
	if len(ideal) != len(real) {
		return 0, nil, fmt.Errorf("%w: ideal has %d samples, real has %d", ErrLengthMismatch, len(ideal), len(real))
	}
	diff := make([]float64, len(real))
	floats.SubTo(diff, real, ideal)
	for i, d := range diff {
		diff[i] = math.Abs(d)
	}
	if len(diff) < 2 {
		return 0, diff, nil
	}
	x := make([]float64, len(diff))
	floats.Span(x, 0, float64(len(diff)-1))
	return integrate.Trapezoidal(x, diff), diff, nil
}

// Stats summarises a difference sequence.
type Stats struct {
	MaxDeviation  float64 `json:"maxDeviation"`
	MeanDeviation float64 `json:"meanDeviation"`
	StdDeviation  float64 `json:"stdDeviation"`
}

// Summarize computes Stats over diff. Empty input yields zero Stats.
func Summarize(diff []float64) Stats {
	if len(diff) == 0 {
		return Stats{}
	}
	s := Stats{
		MaxDeviation:  floats.Max(diff),
		MeanDeviation: stat.Mean(diff, nil),
	}
	if len(diff) > 1 {
		s.StdDeviation = stat.StdDev(diff, nil)
	}
	return s
}
