package profile

import (
	"math"
	"math/rand/v2"
)

// Depression ranges. Depth is drawn from [-(depthBase+depthSpan), -depthBase)
// and width from [widthMin, widthMin+widthSpan).
const (
	depthBase = 0.2
	depthSpan = 0.5
	widthMin  = 5
	widthSpan = 10

	// DefaultDepressionCount is the number of depressions per realistic profile.
	DefaultDepressionCount = 5
)

// Depression is a localized dip in the rail surface.
type Depression struct {
	Position int     `json:"position"`
	Depth    float64 `json:"depth"`
	Width    int     `json:"width"`
}

// Contribution returns the height change d causes at index i. The raised
// cosine falloff is 1 at the centre and reaches 0 at Width samples away.
func (d Depression) Contribution(i int) float64 {
	dist := i - d.Position
	if dist < 0 {
		dist = -dist
	}
	if d.Width <= 0 || dist >= d.Width {
		return 0
	}
	falloff := math.Cos(float64(dist)/float64(d.Width)*math.Pi)*0.5 + 0.5
	return d.Depth * falloff
}

// GenerateDepressions draws count independent depressions for a profile of
// the given length. Depressions may coincide or overlap.
func GenerateDepressions(rng *rand.Rand, length, count int) []Depression {
	if length <= 0 || count <= 0 {
		return nil
	}
	deps := make([]Depression, 0, count)
	for i := 0; i < count; i++ {
		pos := int(math.Floor(rng.Float64() * float64(length)))
		if pos >= length {
			pos = length - 1
		}
		depth := -(rng.Float64()*depthSpan + depthBase)
		width := int(math.Floor(rng.Float64()*widthSpan)) + widthMin
		deps = append(deps, Depression{Position: pos, Depth: depth, Width: width})
	}
	return deps
}

// ApplyDepression adds d to profile in place. Overlapping depressions
// accumulate.
func ApplyDepression(profile []float64, d Depression) {
	if d.Width <= 0 {
		return
	}
	lo := max(d.Position-d.Width+1, 0)
	hi := min(d.Position+d.Width-1, len(profile)-1)
	for i := lo; i <= hi; i++ {
		profile[i] += d.Contribution(i)
	}
}

// applyDepressionsClamped sums deps like ApplyDepression but never lets the
// combined dip at a sample exceed the deepest single depression touching it.
func applyDepressionsClamped(profile []float64, deps []Depression) {
	sum := make([]float64, len(profile))
	floor := make([]float64, len(profile))
	for _, d := range deps {
		if d.Width <= 0 {
			continue
		}
		lo := max(d.Position-d.Width+1, 0)
		hi := min(d.Position+d.Width-1, len(profile)-1)
		for i := lo; i <= hi; i++ {
			sum[i] += d.Contribution(i)
			floor[i] = math.Min(floor[i], d.Depth)
		}
	}
	for i := range profile {
		profile[i] += math.Max(sum[i], floor[i])
	}
}
