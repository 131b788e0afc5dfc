package fit

import (
	"math"
	"sort"

	"elastic-fit/internal/mathutil"
)

// smoothEpsilon is the floor of the blend threshold so a perfectly
// uniform field does not divide by zero.
const smoothEpsilon = 1e-4

// Smoother diffuses a displacement field across the fitted adjacency.
// Where the field changes sharply between neighbours it blends strongly
// toward the neighbour mean; smooth regions are barely touched.
type Smoother struct {
	Passes              int
	ThresholdMultiplier float64
	MinBlend            float64
	MaxBlend            float64
}

// Gradients returns, per slot, the largest difference between the
// slot's displacement and any neighbour's. Isolated slots get 0.
func Gradients(field []mathutil.Vec3, adj Adjacency) []float64 {
	out := make([]float64, len(field))
	for i, d := range field {
		for _, n := range adj[i] {
			out[i] = math.Max(out[i], d.Dist(field[n]))
		}
	}
	return out
}

// Median returns the upper median of vals, or 0 when vals is empty.
// vals is not modified.
func Median(vals []float64) float64 {
	if len(vals) == 0 {
		return 0
	}
	sorted := append([]float64(nil), vals...)
	sort.Float64s(sorted)
	return sorted[len(sorted)/2]
}

// Threshold is the gradient above which blending ramps up.
func (s Smoother) Threshold(median float64) float64 {
	return math.Max(median*s.ThresholdMultiplier, smoothEpsilon)
}

// BlendFactor maps a gradient to a blend weight. It is MinBlend up to the
// threshold, then rises linearly to MaxBlend at twice the threshold.
func (s Smoother) BlendFactor(gradient, threshold float64) float64 {
	if gradient <= threshold {
		return s.MinBlend
	}
	t := math.Min(1, (gradient-threshold)/math.Max(threshold, smoothEpsilon))
	return s.MinBlend + (s.MaxBlend-s.MinBlend)*t
}

// Blends returns the per-slot blend factors one pass would use on field.
func (s Smoother) Blends(field []mathutil.Vec3, adj Adjacency) []float64 {
	grad := Gradients(field, adj)
	threshold := s.Threshold(Median(grad))
	out := make([]float64, len(grad))
	for i, g := range grad {
		out[i] = s.BlendFactor(g, threshold)
	}
	return out
}

// Smooth runs Passes synchronous passes and returns a new field. Every
// pass reads only the previous pass's output. field is not modified.
func (s Smoother) Smooth(field []mathutil.Vec3, adj Adjacency) []mathutil.Vec3 {
	cur := append([]mathutil.Vec3(nil), field...)
	if s.Passes <= 0 {
		return cur
	}
	next := make([]mathutil.Vec3, len(cur))
	for pass := 0; pass < s.Passes; pass++ {
		blends := s.Blends(cur, adj)
		for i, d := range cur {
			if len(adj[i]) == 0 {
				next[i] = d
				continue
			}
			var sum mathutil.Vec3
			for _, n := range adj[i] {
				sum = sum.Add(cur[n])
			}
			avg := sum.Scale(1 / float64(len(adj[i])))
			next[i] = d.Scale(1 - blends[i]).Add(avg.Scale(blends[i]))
		}
		cur, next = next, cur
	}
	return cur
}
