package fit

import (
	"math"

	"elastic-fit/internal/mathutil"
	"elastic-fit/internal/spatial"
)

// followEpsilon bounds follow weights for coincident rest positions.
const followEpsilon = 1e-4

// Follower moves preserved vertices with nearby fitted vertices. The
// nearest-neighbour index over fitted rest positions is built on first
// use and reused for the life of the session.
type Follower struct {
	index *spatial.PointIndex
}

// Apply rewrites the preserved entries of positions. Each preserved
// vertex takes the inverse-distance weighted mean displacement of its k
// nearest fitted rest neighbours, scaled by strength. Fitted entries of
// positions must already hold their final values.
func (f *Follower) Apply(positions, rest []mathutil.Vec3, c Classification, k int, strength float64) {
	for _, vi := range c.Preserved {
		positions[vi] = rest[vi]
	}
	if len(c.Preserved) == 0 || len(c.Fitted) == 0 || strength == 0 {
		return
	}
	if f.index == nil {
		f.index = spatial.NewPointIndex(pick(rest, c.Fitted))
	}
	k = min(k, len(c.Fitted))

	for _, vi := range c.Preserved {
		var total mathutil.Vec3
		var weight float64
		for _, nb := range f.index.KNearest(rest[vi], k) {
			ni := c.Fitted[nb.Index]
			w := 1 / math.Max(nb.Dist, followEpsilon)
			total = total.Add(positions[ni].Sub(rest[ni]).Scale(w))
			weight += w
		}
		if weight > 0 {
			positions[vi] = rest[vi].Add(total.Scale(strength / weight))
		}
	}
}
