// Package report turns profile generation into the two-rail payload served
// to the page and the chart renderers.
package report

import (
	"fmt"
	"math"
	"math/rand/v2"
	"slices"
	"time"

	"github.com/google/uuid"
	"gonum.org/v1/gonum/floats"

	"github.com/banshee-data/railwear/internal/config"
	"github.com/banshee-data/railwear/internal/monitoring"
	"github.com/banshee-data/railwear/internal/profile"
	"github.com/banshee-data/railwear/internal/timeutil"
)

// seedStream is the second PCG word; the first is the caller's seed.
const seedStream = 0x5851f42d4c957f2d

// NewRand returns the generator used for a report with the given seed.
func NewRand(seed uint64) *rand.Rand {
	return rand.New(rand.NewPCG(seed, seedStream))
}

// RandomSeed draws a seed from the runtime's entropy-seeded generator.
func RandomSeed() uint64 {
	return rand.Uint64()
}

// RailStats holds deviation statistics for both surfaces of a rail.
type RailStats struct {
	Top    profile.Stats `json:"top"`
	Bottom profile.Stats `json:"bottom"`
}

// RailReport is everything the page shows for one rail.
type RailReport struct {
	Top            []float64            `json:"top"`
	Bottom         []float64            `json:"bottom"`
	IdealTop       []float64            `json:"idealTop"`
	IdealBottom    []float64            `json:"idealBottom"`
	DiffTop        []float64            `json:"diffTop"`
	DiffBottom     []float64            `json:"diffBottom"`
	IntegralTop    float64              `json:"integralTop"`
	IntegralBottom float64              `json:"integralBottom"`
	TotalIntegral  float64              `json:"totalIntegral"`
	Assessment     profile.Assessment   `json:"assessment"`
	Depressions    []profile.Depression `json:"depressions"`
	Stats          RailStats            `json:"stats"`
}

// Report is one generated pair of rails. It is the only state carried from
// generation to rendering.
type Report struct {
	ID        string         `json:"id"`
	Seed      uint64         `json:"seed,string"`
	Params    profile.Params `json:"params"`
	CreatedAt time.Time      `json:"createdAt"`
	X         []int          `json:"x"`
	Rail1     RailReport     `json:"rail1"`
	Rail2     RailReport     `json:"rail2"`
}

// Rail returns rail 1 or 2, or nil for any other number.
func (r *Report) Rail(n int) *RailReport {
	switch n {
	case 1:
		return &r.Rail1
	case 2:
		return &r.Rail2
	default:
		return nil
	}
}

// Builder assembles reports from a RailConfig.
type Builder struct {
	cfg   *config.RailConfig
	scale profile.ConditionScale
	clock timeutil.Clock
}

// NewBuilder returns a Builder for cfg. A nil cfg uses the built-in defaults.
func NewBuilder(cfg *config.RailConfig) *Builder {
	if cfg == nil {
		cfg = config.EmptyRailConfig()
	}
	return &Builder{
		cfg:   cfg,
		scale: cfg.GetCondition(),
		clock: timeutil.RealClock{},
	}
}

// WithClock replaces the clock used for CreatedAt.
func (b *Builder) WithClock(c timeutil.Clock) *Builder {
	b.clock = c
	return b
}

// Scale returns the condition table used to assess rails.
func (b *Builder) Scale() profile.ConditionScale {
	return b.scale
}

// Config returns the builder's configuration.
func (b *Builder) Config() *config.RailConfig {
	return b.cfg
}

// Build validates params and generates both rails from seed. The same seed
// and params always produce the same report apart from ID and CreatedAt.
func (b *Builder) Build(params profile.Params, seed uint64) (*Report, error) {
	if err := params.Validate(b.cfg.Limits()); err != nil {
		return nil, err
	}
	start := b.clock.Now()
	rng := NewRand(seed)
	n := params.Length

	idealTop := profile.IdealProfile(n)
	idealBottom := shifted(idealTop, -b.cfg.GetRailHeight())

	rail1, err := b.buildRail(rng, params, idealTop, idealBottom)
	if err != nil {
		return nil, err
	}
	rail2, err := b.buildRail(rng, params, idealTop, idealBottom)
	if err != nil {
		return nil, err
	}
	for i, rail := range []RailReport{rail1, rail2} {
		if !rail.finite() {
			return nil, fmt.Errorf("%w: rail %d overflows at amplitude %v", profile.ErrInvalidParameter, i+1, params.Amplitude)
		}
	}

	x := make([]int, n)
	for i := range x {
		x[i] = i
	}

	rep := &Report{
		ID:        uuid.New().String(),
		Seed:      seed,
		Params:    params,
		CreatedAt: start.UTC(),
		X:         x,
		Rail1:     rail1,
		Rail2:     rail2,
	}
	monitoring.Debugf("[report] %s built in %v (length=%d seed=%d)", rep.ID, b.clock.Since(start), n, seed)
	return rep, nil
}

func (b *Builder) buildRail(rng *rand.Rand, params profile.Params, idealTop, idealBottom []float64) (RailReport, error) {
	n := params.Length
	top, deps := profile.Build(rng, n, b.cfg.TopVariant(params.Amplitude, params.Frequency))

	bottom := shifted(top, -b.cfg.GetRailHeight())
	floats.Add(bottom, profile.SmoothNoise(rng, n, b.cfg.GetBottomAmplitude(), b.cfg.GetBottomFrequency()))

	intTop, diffTop, err := profile.DefectIntegral(idealTop, top)
	if err != nil {
		return RailReport{}, err
	}
	intBottom, diffBottom, err := profile.DefectIntegral(idealBottom, bottom)
	if err != nil {
		return RailReport{}, err
	}
	total := intTop + intBottom

	if deps == nil {
		deps = []profile.Depression{}
	}
	return RailReport{
		Top:            top,
		Bottom:         bottom,
		IdealTop:       slices.Clone(idealTop),
		IdealBottom:    slices.Clone(idealBottom),
		DiffTop:        diffTop,
		DiffBottom:     diffBottom,
		IntegralTop:    intTop,
		IntegralBottom: intBottom,
		TotalIntegral:  total,
		Assessment:     b.scale.Assess(total),
		Depressions:    deps,
		Stats: RailStats{
			Top:    profile.Summarize(diffTop),
			Bottom: profile.Summarize(diffBottom),
		},
	}, nil
}

// finite reports whether every value r would serialize is a finite number.
func (r RailReport) finite() bool {
	for _, v := range []float64{
		r.IntegralTop, r.IntegralBottom, r.TotalIntegral,
		r.Stats.Top.MaxDeviation, r.Stats.Top.MeanDeviation, r.Stats.Top.StdDeviation,
		r.Stats.Bottom.MaxDeviation, r.Stats.Bottom.MeanDeviation, r.Stats.Bottom.StdDeviation,
	} {
		if !isFinite(v) {
			return false
		}
	}
	for _, s := range [][]float64{r.Top, r.Bottom, r.DiffTop, r.DiffBottom} {
		for _, v := range s {
			if !isFinite(v) {
				return false
			}
		}
	}
	return true
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

func shifted(p []float64, by float64) []float64 {
	out := make([]float64, len(p))
	copy(out, p)
	floats.AddConst(by, out)
	return out
}

// Summary is the per-report record kept in history.
type Summary struct {
	ID         string    `json:"id"`
	Seed       uint64    `json:"seed,string"`
	Length     int       `json:"length"`
	Amplitude  float64   `json:"amplitude"`
	Frequency  float64   `json:"frequency"`
	Rail1Total float64   `json:"rail1Total"`
	Rail1Label string    `json:"rail1Label"`
	Rail2Total float64   `json:"rail2Total"`
	Rail2Label string    `json:"rail2Label"`
	CreatedAt  time.Time `json:"createdAt"`
}

// Summarize reduces r to its history record.
func (r *Report) Summarize() Summary {
	return Summary{
		ID:         r.ID,
		Seed:       r.Seed,
		Length:     r.Params.Length,
		Amplitude:  r.Params.Amplitude,
		Frequency:  r.Params.Frequency,
		Rail1Total: r.Rail1.TotalIntegral,
		Rail1Label: r.Rail1.Assessment.Label,
		Rail2Total: r.Rail2.TotalIntegral,
		Rail2Label: r.Rail2.Assessment.Label,
		CreatedAt:  r.CreatedAt,
	}
}
