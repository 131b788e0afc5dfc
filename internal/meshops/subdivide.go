package meshops

import (
	"elastic-fit/internal/mathutil"
	"elastic-fit/internal/mesh"
)

// Subdivide splits every n-gon into n quads through its edge midpoints and
// centre, levels times. Positions are not smoothed, so the subdivided
// surface matches the input shape exactly.
func (Native) Subdivide(m *mesh.Mesh, levels int) *mesh.Mesh {
	out := m.CloneGeometry()
	for l := 0; l < levels; l++ {
		out = subdivideOnce(out)
	}
	out.Edges = nil
	out.EnsureEdges()
	return out
}

func subdivideOnce(m *mesh.Mesh) *mesh.Mesh {
	out := &mesh.Mesh{Verts: m.Positions()}
	mids := make(map[[2]int]int)
	midpoint := func(a, b int) int {
		key := [2]int{a, b}
		if a > b {
			key = [2]int{b, a}
		}
		if vi, ok := mids[key]; ok {
			return vi
		}
		vi := len(out.Verts)
		out.Verts = append(out.Verts, m.Verts[a].Add(m.Verts[b]).Scale(0.5))
		mids[key] = vi
		return vi
	}

	for _, f := range m.Faces {
		n := len(f)
		if n < 3 {
			continue
		}
		pts := make([]mathutil.Vec3, n)
		for i, vi := range f {
			pts[i] = m.Verts[vi]
		}
		center := len(out.Verts)
		out.Verts = append(out.Verts, mathutil.Centroid(pts))

		edgeMid := make([]int, n)
		for i := 0; i < n; i++ {
			edgeMid[i] = midpoint(f[i], f[(i+1)%n])
		}
		for i := 0; i < n; i++ {
			prev := edgeMid[(i+n-1)%n]
			out.Faces = append(out.Faces, []int{f[i], edgeMid[i], center, prev})
		}
	}
	return out
}
