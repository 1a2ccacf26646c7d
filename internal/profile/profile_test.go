package profile

import (
	"errors"
	"math"
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRand(seed uint64) *rand.Rand {
	return rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
}

func TestSmoothNoise_LengthAndFinite(t *testing.T) {
	t.Parallel()
	rng := newTestRand(1)
	for _, n := range []int{1, 2, 3, 10, 500, 4096} {
		noise := SmoothNoise(rng, n, 0.3, 0.02)
		require.Len(t, noise, n)
		for i, v := range noise {
			if math.IsNaN(v) || math.IsInf(v, 0) {
				t.Fatalf("length %d: sample %d is not finite: %v", n, i, v)
			}
		}
	}
}

func TestSmoothNoise_NonPositiveLength(t *testing.T) {
	t.Parallel()
	rng := newTestRand(2)
	assert.Empty(t, SmoothNoise(rng, 0, 1, 0.1))
	assert.Empty(t, SmoothNoise(rng, -5, 1, 0.1))
}

func TestSmoothNoise_Bounded(t *testing.T) {
	t.Parallel()
	// sum over k=3..7 of amplitude/k is the worst case magnitude.
	amplitude := 2.0
	bound := 0.0
	for k := 3; k <= 7; k++ {
		bound += amplitude / float64(k)
	}
	for _, v := range SmoothNoise(newTestRand(3), 1000, amplitude, 0.05) {
		assert.LessOrEqual(t, math.Abs(v), bound+1e-12)
	}
}

func TestSmoothNoise_ZeroAmplitude(t *testing.T) {
	t.Parallel()
	for _, v := range SmoothNoise(newTestRand(4), 50, 0, 0.3) {
		assert.Zero(t, v)
	}
}

func TestSmoothNoise_Reproducible(t *testing.T) {
	t.Parallel()
	a := SmoothNoise(newTestRand(42), 200, 0.3, 0.02)
	b := SmoothNoise(newTestRand(42), 200, 0.3, 0.02)
	assert.Equal(t, a, b)
}

func TestIdealProfile(t *testing.T) {
	t.Parallel()
	for _, n := range []int{0, 1, 3, 500} {
		p := IdealProfile(n)
		require.Len(t, p, n)
		for _, v := range p {
			assert.Zero(t, v)
		}
	}
	assert.Empty(t, IdealProfile(-1))
}

func TestGenerateDepressions_Ranges(t *testing.T) {
	t.Parallel()
	rng := newTestRand(5)
	for _, length := range []int{1, 3, 17, 500} {
		deps := GenerateDepressions(rng, length, 400)
		require.Len(t, deps, 400)
		for _, d := range deps {
			assert.GreaterOrEqual(t, d.Position, 0)
			assert.Less(t, d.Position, length)
			assert.GreaterOrEqual(t, d.Depth, -0.7)
			assert.LessOrEqual(t, d.Depth, -0.2)
			assert.GreaterOrEqual(t, d.Width, 5)
			assert.LessOrEqual(t, d.Width, 14)
		}
	}
}

func TestGenerateDepressions_Empty(t *testing.T) {
	t.Parallel()
	rng := newTestRand(6)
	assert.Empty(t, GenerateDepressions(rng, 0, 5))
	assert.Empty(t, GenerateDepressions(rng, 100, 0))
}

func TestDepression_Contribution(t *testing.T) {
	t.Parallel()
	d := Depression{Position: 20, Depth: -0.5, Width: 8}

	assert.InDelta(t, -0.5, d.Contribution(20), 1e-12, "full depth at centre")
	assert.Zero(t, d.Contribution(28), "zero at width distance")
	assert.Zero(t, d.Contribution(12), "zero at width distance on the left")
	assert.Zero(t, d.Contribution(100))
	assert.InDelta(t, -0.25, d.Contribution(24), 1e-12, "half depth at half width")
	assert.Equal(t, d.Contribution(17), d.Contribution(23), "symmetric about the centre")

	assert.Zero(t, Depression{Position: 3, Depth: -0.5, Width: 0}.Contribution(3))
}

func TestApplyDepression_OverlapIsAdditive(t *testing.T) {
	t.Parallel()
	p := IdealProfile(40)
	ApplyDepression(p, Depression{Position: 20, Depth: -0.3, Width: 5})
	ApplyDepression(p, Depression{Position: 20, Depth: -0.4, Width: 5})

	assert.InDelta(t, -0.7, p[20], 1e-12)
	assert.Zero(t, p[15])
	assert.Zero(t, p[25])
	assert.Less(t, p[16], 0.0)
}

func TestApplyDepression_EdgesClipped(t *testing.T) {
	t.Parallel()
	p := IdealProfile(6)
	ApplyDepression(p, Depression{Position: 0, Depth: -0.5, Width: 10})
	ApplyDepression(p, Depression{Position: 5, Depth: -0.5, Width: 10})
	require.Len(t, p, 6)
	assert.Less(t, p[0], -0.5)
}

func TestApplyDepressionsClamped(t *testing.T) {
	t.Parallel()
	p := IdealProfile(40)
	applyDepressionsClamped(p, []Depression{
		{Position: 20, Depth: -0.3, Width: 5},
		{Position: 20, Depth: -0.4, Width: 5},
	})
	assert.InDelta(t, -0.4, p[20], 1e-12)
	assert.Zero(t, p[30])
}

func TestBuild_ZeroBandsNoDepressions(t *testing.T) {
	t.Parallel()
	v := RealisticVariant()
	for i := range v.Bands {
		v.Bands[i].Amplitude = 0
	}
	v.Depressions = 0

	p, deps := Build(newTestRand(7), 300, v)
	assert.Empty(t, deps)
	assert.Equal(t, IdealProfile(300), p)
}

func TestRealisticProfile(t *testing.T) {
	t.Parallel()
	p, deps := RealisticProfile(newTestRand(8), 500)
	require.Len(t, p, 500)
	assert.Len(t, deps, DefaultDepressionCount)

	// Each depression pulls its centre below the noise envelope.
	noiseBound := 0.0
	for _, b := range RealisticVariant().Bands {
		for k := 3; k <= 7; k++ {
			noiseBound += b.Amplitude / float64(k)
		}
	}
	for _, d := range deps {
		assert.Less(t, p[d.Position], noiseBound+d.Depth+1e-9)
	}
}

func TestDefectProfile(t *testing.T) {
	t.Parallel()
	p := DefectProfile(newTestRand(9), 120, 0.5, 0.05)
	require.Len(t, p, 120)

	flat := DefectProfile(newTestRand(9), 120, 0, 0.05)
	assert.Equal(t, IdealProfile(120), flat)
}

func TestVariant_WithBand(t *testing.T) {
	t.Parallel()
	base := RealisticVariant()
	v := base.WithBand(BandShort, 0.3, 0.04)

	require.Len(t, v.Bands, 3)
	assert.Equal(t, NoiseBand{Name: BandShort, Amplitude: 0.3, Frequency: 0.04}, v.Bands[2])
	assert.Equal(t, 0.05, base.Bands[2].Amplitude, "original untouched")

	added := Variant{}.WithBand("extra", 1, 2)
	assert.Equal(t, []NoiseBand{{Name: "extra", Amplitude: 1, Frequency: 2}}, added.Bands)
}

func TestDefectVariant(t *testing.T) {
	t.Parallel()
	v := DefectVariant(0.4, 0.03)
	assert.Equal(t, []NoiseBand{{Name: BandShort, Amplitude: 0.4, Frequency: 0.03}}, v.Bands)
	assert.Zero(t, v.Depressions)
}

func TestDefectIntegral_SelfIsZero(t *testing.T) {
	t.Parallel()
	p, _ := RealisticProfile(newTestRand(10), 250)
	score, diff, err := DefectIntegral(p, p)
	require.NoError(t, err)
	assert.Zero(t, score)
	require.Len(t, diff, 250)
	for _, d := range diff {
		assert.Zero(t, d)
	}
}

func TestDefectIntegral_Symmetric(t *testing.T) {
	t.Parallel()
	a := SmoothNoise(newTestRand(11), 300, 0.4, 0.01)
	b, _ := RealisticProfile(newTestRand(12), 300)

	ab, _, err := DefectIntegral(a, b)
	require.NoError(t, err)
	ba, _, err := DefectIntegral(b, a)
	require.NoError(t, err)
	assert.Equal(t, ab, ba)
	assert.Greater(t, ab, 0.0)
}

func TestDefectIntegral_Trapezoid(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name  string
		ideal []float64
		real  []float64
		want  float64
	}{
		{"empty", []float64{}, []float64{}, 0},
		{"single sample", []float64{0}, []float64{3}, 0},
		{"constant offset", []float64{0, 0, 0, 0}, []float64{1, 1, 1, 1}, 3},
		{"triangle", []float64{0, 0, 0}, []float64{0, -2, 0}, 2},
		{"offset baseline", []float64{-3, -3}, []float64{-2, -4}, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, diff, err := DefectIntegral(tt.ideal, tt.real)
			require.NoError(t, err)
			assert.InDelta(t, tt.want, got, 1e-12)
			assert.Len(t, diff, len(tt.real))
			for _, d := range diff {
				assert.GreaterOrEqual(t, d, 0.0)
			}
		})
	}
}

func TestDefectIntegral_LengthMismatch(t *testing.T) {
	t.Parallel()
	_, _, err := DefectIntegral(make([]float64, 3), make([]float64, 4))
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrLengthMismatch))
}

func TestSummarize(t *testing.T) {
	t.Parallel()
	assert.Equal(t, Stats{}, Summarize(nil))

	s := Summarize([]float64{1, 3})
	assert.Equal(t, 3.0, s.MaxDeviation)
	assert.Equal(t, 2.0, s.MeanDeviation)
	assert.InDelta(t, math.Sqrt2, s.StdDeviation, 1e-12)

	assert.Zero(t, Summarize([]float64{5}).StdDeviation)
}

func TestEndToEnd_FlatProfileIsExcellent(t *testing.T) {
	t.Parallel()
	const length = 10
	ideal := IdealProfile(length)
	v := RealisticVariant().WithBand(BandShort, 0, 0)
	for i := range v.Bands {
		v.Bands[i].Amplitude = 0
		v.Bands[i].Frequency = 0
	}
	v.Depressions = 0

	real, _ := Build(newTestRand(13), length, v)
	assert.Equal(t, ideal, real)

	score, _, err := DefectIntegral(ideal, real)
	require.NoError(t, err)
	assert.Zero(t, score)
	assert.Equal(t, LabelExcellent, Assess(score).Label)
}
