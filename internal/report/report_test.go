package report

import (
	"encoding/json"
	"errors"
	"math"
	"slices"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/railwear/internal/config"
	"github.com/banshee-data/railwear/internal/profile"
	"github.com/banshee-data/railwear/internal/timeutil"
)

func TestBuild_Shape(t *testing.T) {
	t.Parallel()
	b := NewBuilder(config.DefaultRailConfig())

	rep, err := b.Build(profile.DefaultParams(), 7)
	require.NoError(t, err)

	_, err = uuid.Parse(rep.ID)
	require.NoError(t, err)
	assert.Equal(t, uint64(7), rep.Seed)
	require.Len(t, rep.X, profile.DefaultLength)
	assert.Equal(t, 0, rep.X[0])
	assert.Equal(t, profile.DefaultLength-1, rep.X[len(rep.X)-1])

	for _, n := range []int{1, 2} {
		rail := rep.Rail(n)
		require.NotNil(t, rail)
		for name, series := range map[string][]float64{
			"top": rail.Top, "bottom": rail.Bottom,
			"idealTop": rail.IdealTop, "idealBottom": rail.IdealBottom,
			"diffTop": rail.DiffTop, "diffBottom": rail.DiffBottom,
		} {
			assert.Len(t, series, profile.DefaultLength, "rail %d %s", n, name)
		}
		assert.Len(t, rail.Depressions, profile.DefaultDepressionCount)
		assert.InDelta(t, rail.IntegralTop+rail.IntegralBottom, rail.TotalIntegral, 1e-9)
		assert.Equal(t, profile.Assess(rail.TotalIntegral), rail.Assessment)
		assert.Equal(t, 0.0, rail.IdealTop[10])
		assert.Equal(t, -3.0, rail.IdealBottom[10])
		assert.GreaterOrEqual(t, rail.Stats.Top.MaxDeviation, rail.Stats.Top.MeanDeviation)
	}
	assert.Nil(t, rep.Rail(3))
}

func TestBuild_SeedReproducible(t *testing.T) {
	t.Parallel()
	b := NewBuilder(nil)

	a, err := b.Build(profile.DefaultParams(), 1234)
	require.NoError(t, err)
	c, err := b.Build(profile.DefaultParams(), 1234)
	require.NoError(t, err)

	opts := cmpopts.IgnoreFields(Report{}, "ID", "CreatedAt")
	if diff := cmp.Diff(a, c, opts); diff != "" {
		t.Errorf("same seed produced different reports (-a +c):\n%s", diff)
	}
	assert.NotEqual(t, a.ID, c.ID)

	d, err := b.Build(profile.DefaultParams(), 1235)
	require.NoError(t, err)
	assert.NotEqual(t, a.Rail1.Top, d.Rail1.Top)
}

func TestBuild_RailsDiffer(t *testing.T) {
	t.Parallel()
	rep, err := NewBuilder(nil).Build(profile.DefaultParams(), 99)
	require.NoError(t, err)
	assert.NotEqual(t, rep.Rail1.Top, rep.Rail2.Top)
	assert.Equal(t, rep.Rail1.IdealTop, rep.Rail2.IdealTop)
}

func TestBuild_FlatConfigIsExcellent(t *testing.T) {
	t.Parallel()
	zero := 0.0
	none := 0
	cfg := config.DefaultRailConfig()
	cfg.Bands = []profile.NoiseBand{}
	cfg.Depressions = &none
	cfg.BottomAmplitude = &zero

	rep, err := NewBuilder(cfg).Build(profile.Params{Length: 10}, 3)
	require.NoError(t, err)

	for _, rail := range []RailReport{rep.Rail1, rep.Rail2} {
		assert.Equal(t, rail.IdealTop, rail.Top)
		assert.Equal(t, rail.IdealBottom, rail.Bottom)
		assert.Zero(t, rail.TotalIntegral)
		assert.Equal(t, profile.LabelExcellent, rail.Assessment.Label)
		assert.Empty(t, rail.Depressions)
	}
}

func TestBuild_InvalidParams(t *testing.T) {
	t.Parallel()
	max := 1000
	cfg := config.DefaultRailConfig()
	cfg.MaxLength = &max
	b := NewBuilder(cfg)

	tests := []profile.Params{
		{Length: 2, Amplitude: 0.3, Frequency: 0.02},
		{Length: 1001, Amplitude: 0.3, Frequency: 0.02},
		{Length: 100, Amplitude: -1, Frequency: 0.02},
		{Length: 100, Amplitude: math.NaN(), Frequency: 0.02},
		{Length: 100, Amplitude: 0.3, Frequency: math.Inf(1)},
		{Length: 100, Amplitude: 1000.5, Frequency: 0.02},
		{Length: 100, Amplitude: 1e308, Frequency: 0.02},
	}
	for _, p := range tests {
		_, err := b.Build(p, 1)
		if !errors.Is(err, profile.ErrInvalidParameter) {
			t.Errorf("Build(%+v) error = %v, want ErrInvalidParameter", p, err)
		}
	}
}

func TestBuild_RejectsOverflow(t *testing.T) {
	t.Parallel()
	unbounded := math.MaxFloat64
	cfg := config.DefaultRailConfig()
	cfg.MaxAmplitude = &unbounded

	_, err := NewBuilder(cfg).Build(profile.Params{Length: 1000, Amplitude: 1e308, Frequency: 0.02}, 1)
	require.ErrorIs(t, err, profile.ErrInvalidParameter)
	assert.Contains(t, err.Error(), "overflows")
}

func TestBuild_AtAmplitudeLimitIsFinite(t *testing.T) {
	t.Parallel()
	cfg := config.DefaultRailConfig()
	rep, err := NewBuilder(cfg).Build(profile.Params{Length: 5000, Amplitude: cfg.GetMaxAmplitude(), Frequency: 0.5}, 11)
	require.NoError(t, err)
	assert.True(t, rep.Rail1.finite())
	assert.True(t, rep.Rail2.finite())
}

func TestBuild_IdealSlicesNotShared(t *testing.T) {
	t.Parallel()
	rep, err := NewBuilder(config.DefaultRailConfig()).Build(profile.Params{Length: 20, Amplitude: 0.3, Frequency: 0.02}, 4)
	require.NoError(t, err)
	require.Equal(t, rep.Rail1.IdealTop, rep.Rail2.IdealTop)

	wantTop := slices.Clone(rep.Rail2.IdealTop)
	wantBottom := slices.Clone(rep.Rail2.IdealBottom)
	rep.Rail1.IdealTop[0] += 5
	rep.Rail1.IdealBottom[0] -= 5

	assert.Equal(t, wantTop, rep.Rail2.IdealTop)
	assert.Equal(t, wantBottom, rep.Rail2.IdealBottom)
}

func TestBuild_UsesClockAndScale(t *testing.T) {
	t.Parallel()
	fixed := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	cfg := config.DefaultRailConfig()
	cfg.Condition = &profile.ConditionScale{Worst: profile.Assessment{Label: "Always bad", Color: "#000"}}

	b := NewBuilder(cfg).WithClock(timeutil.NewMockClock(fixed))
	rep, err := b.Build(profile.Params{Length: 50, Amplitude: 0.1, Frequency: 0.02}, 5)
	require.NoError(t, err)

	assert.Equal(t, fixed, rep.CreatedAt)
	assert.Equal(t, "Always bad", rep.Rail1.Assessment.Label)
	assert.Equal(t, "Always bad", b.Scale().Assess(0).Label)
}

func TestReport_JSONShape(t *testing.T) {
	t.Parallel()
	rep, err := NewBuilder(nil).Build(profile.Params{Length: 5, Amplitude: 0.3, Frequency: 0.02}, math.MaxUint64)
	require.NoError(t, err)

	data, err := json.Marshal(rep)
	require.NoError(t, err)

	var decoded map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(data, &decoded))
	for _, key := range []string{"id", "seed", "x", "rail1", "rail2"} {
		assert.Contains(t, decoded, key)
	}
	assert.JSONEq(t, `"18446744073709551615"`, string(decoded["seed"]))

	var rail map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(decoded["rail1"], &rail))
	for _, key := range []string{"top", "bottom", "idealTop", "idealBottom", "integralTop", "integralBottom", "totalIntegral", "assessment", "depressions"} {
		assert.Contains(t, rail, key)
	}

	var back Report
	require.NoError(t, json.Unmarshal(data, &back))
	assert.Equal(t, rep.Seed, back.Seed)
}

func TestReport_Summarize(t *testing.T) {
	t.Parallel()
	rep, err := NewBuilder(nil).Build(profile.DefaultParams(), 11)
	require.NoError(t, err)

	s := rep.Summarize()
	assert.Equal(t, rep.ID, s.ID)
	assert.Equal(t, uint64(11), s.Seed)
	assert.Equal(t, profile.DefaultLength, s.Length)
	assert.Equal(t, rep.Rail1.TotalIntegral, s.Rail1Total)
	assert.Equal(t, rep.Rail2.Assessment.Label, s.Rail2Label)
}

func TestRandomSeedVaries(t *testing.T) {
	t.Parallel()
	seen := map[uint64]bool{}
	for i := 0; i < 8; i++ {
		seen[RandomSeed()] = true
	}
	assert.Greater(t, len(seen), 1)
}
