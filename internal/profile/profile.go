package profile

import (
	"math/rand/v2"

	"gonum.org/v1/gonum/floats"
)

// NoiseBand is one SmoothNoise layer of a generated profile.
type NoiseBand struct {
	Name      string  `json:"name" yaml:"name"`
	Amplitude float64 `json:"amplitude" yaml:"amplitude"`
	Frequency float64 `json:"frequency" yaml:"frequency"`
}

// Variant describes how a defective profile is assembled: the noise bands
// summed onto the baseline and how many depressions to cut into it.
type Variant struct {
	Name        string      `json:"name" yaml:"name"`
	Bands       []NoiseBand `json:"bands" yaml:"bands"`
	Depressions int         `json:"depressions" yaml:"depressions"`

	// ClampOverlap floors overlapping depressions at the deepest single
	// depth instead of letting them add up. Off by default.
	ClampOverlap bool `json:"clamp_overlap,omitempty" yaml:"clamp_overlap,omitempty"`
}

// Band names used by the realistic preset.
const (
	BandLong   = "long"
	BandMedium = "medium"
	BandShort  = "short"
)

// RealisticVariant is three wavelength bands plus random depressions.
func RealisticVariant() Variant {
	return Variant{
		Name: "realistic",
		Bands: []NoiseBand{
			{Name: BandLong, Amplitude: 0.15, Frequency: 0.001},
			{Name: BandMedium, Amplitude: 0.1, Frequency: 0.005},
			{Name: BandShort, Amplitude: 0.05, Frequency: 0.02},
		},
		Depressions: DefaultDepressionCount,
	}
}

// DefectVariant is a single noise band and no depressions.
func DefectVariant(amplitude, frequency float64) Variant {
	return Variant{
		Name:  "defect",
		Bands: []NoiseBand{{Name: BandShort, Amplitude: amplitude, Frequency: frequency}},
	}
}

// WithBand returns a copy of v with the named band replaced by (amplitude,
// frequency). If no band has that name the band is appended.
func (v Variant) WithBand(name string, amplitude, frequency float64) Variant {
	out := v
	out.Bands = make([]NoiseBand, 0, len(v.Bands)+1)
	replaced := false
	for _, b := range v.Bands {
		if b.Name == name {
			b.Amplitude = amplitude
			b.Frequency = frequency
			replaced = true
		}
		out.Bands = append(out.Bands, b)
	}
	if !replaced {
		out.Bands = append(out.Bands, NoiseBand{Name: name, Amplitude: amplitude, Frequency: frequency})
	}
	return out
}

// IdealProfile returns a flat profile of length zeros.
func IdealProfile(length int) []float64 {
	if length <= 0 {
		return []float64{}
	}
	return make([]float64, length)
}

// DefectProfile is the ideal profile plus one band of smooth noise.
func DefectProfile(rng *rand.Rand, length int, amplitude, frequency float64) []float64 {
	p, _ := Build(rng, length, DefectVariant(amplitude, frequency))
	return p
}

// RealisticProfile builds a profile with the realistic preset.
func RealisticProfile(rng *rand.Rand, length int) ([]float64, []Depression) {
	return Build(rng, length, RealisticVariant())
}

// Build assembles a profile from v: each band is generated with SmoothNoise
// and summed onto a zero baseline, then depressions are drawn and applied.
func Build(rng *rand.Rand, length int, v Variant) ([]float64, []Depression) {
	profile := IdealProfile(length)
	if length <= 0 {
		return profile, nil
	}
	for _, b := range v.Bands {
		floats.Add(profile, SmoothNoise(rng, length, b.Amplitude, b.Frequency))
	}

	deps := GenerateDepressions(rng, length, v.Depressions)
	if v.ClampOverlap {
		applyDepressionsClamped(profile, deps)
	} else {
		for _, d := range deps {
			ApplyDepression(profile, d)
		}
	}
	return profile, deps
}
