package fit

import "elastic-fit/internal/mesh"

// Classification partitions the clothing vertices into fitted and
// preserved sets. Every fitted vertex owns a dense slot so per-vertex
// fields can be flat slices: Fitted[slot] is the vertex index and
// Slot[vertex] is its slot, or -1 for preserved vertices.
type Classification struct {
	Fitted    []int
	Preserved []int
	Slot      []int
}

// Classify splits n vertices on the preserve group: weight > 0 means
// preserved. A nil group preserves nothing.
func Classify(n int, preserve *mesh.Group) Classification {
	c := Classification{
		Fitted: make([]int, 0, n),
		Slot:   make([]int, n),
	}
	for vi := 0; vi < n; vi++ {
		if preserve.Weight(vi) > 0 {
			c.Preserved = append(c.Preserved, vi)
			c.Slot[vi] = -1
			continue
		}
		c.Slot[vi] = len(c.Fitted)
		c.Fitted = append(c.Fitted, vi)
	}
	return c
}

// IsPreserved reports whether vertex vi is preserved.
func (c Classification) IsPreserved(vi int) bool {
	return vi >= 0 && vi < len(c.Slot) && c.Slot[vi] < 0
}

// FittedMask returns a per-vertex mask of fitted vertices, or nil when
// every vertex is fitted.
func (c Classification) FittedMask() []bool {
	if len(c.Preserved) == 0 {
		return nil
	}
	mask := make([]bool, len(c.Slot))
	for _, vi := range c.Fitted {
		mask[vi] = true
	}
	return mask
}
