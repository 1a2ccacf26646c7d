// Package profile generates synthetic rail height profiles and scores their
// deviation from an ideal baseline.
//
// Every generator takes an explicit *rand.Rand. Production callers seed it
// from entropy; tests pass a fixed seed so output is reproducible.
package profile

import (
	"math"
	"math/rand/v2"
)

// Noise components are indexed 3..7 inclusive. Each contributes amplitude/k
// at frequency*k/noiseFreqDivisor.
const (
	noiseFirstComponent = 3
	noiseLastComponent  = 7
	noiseFreqDivisor    = 5.0
)

// SmoothNoise returns length samples of amplitude-modulated sinusoidal noise.
//
// For each component k a phase is drawn once, and a fresh amplitude factor
// is drawn for every sample, so each component is a pure sinusoid scaled by
// independent per-sample randomness. length <= 0 yields an empty slice.
func SmoothNoise(rng *rand.Rand, length int, amplitude, frequency float64) []float64 {
	if length <= 0 {
		return []float64{}
	}
	noise := make([]float64, length)
	for k := noiseFirstComponent; k <= noiseLastComponent; k++ {
		phase := rng.Float64()
		freq := frequency * (float64(k) / noiseFreqDivisor)
		for j := range noise {
			scale := rng.Float64() * amplitude / float64(k)
			noise[j] += scale * math.Sin(2*math.Pi*freq*float64(j)+phase)
		}
	}
	return noise
}
