package meshops

import (
	"math"

	"gonum.org/v1/gonum/floats"

	"elastic-fit/internal/mathutil"
	"elastic-fit/internal/mesh"
)

// CorrectiveSmooth relaxes the masked vertices of m and adds back the
// detail that the same relaxation removes from the rest shape, so only
// the difference between m and its rest shape is smoothed. A missing or
// mismatched rest shape falls back to the current positions.
func (Native) CorrectiveSmooth(m *mesh.Mesh, opts CorrectiveSmoothOptions) {
	if opts.Iterations <= 0 || opts.Factor == 0 || len(m.Verts) == 0 {
		return
	}
	rest := opts.Rest
	if len(rest) != len(m.Verts) {
		rest = m.Positions()
	}
	adj := m.Neighbors()

	smoothRest := relax(rest, adj, opts.Factor, opts.Iterations, opts.Mask)
	smoothCur := relax(m.Verts, adj, opts.Factor, opts.Iterations, opts.Mask)
	for i := range m.Verts {
		if !masked(opts.Mask, i) {
			continue
		}
		m.Verts[i] = smoothCur[i].Add(rest[i].Sub(smoothRest[i]))
	}
}

// relax runs Jacobi umbrella smoothing toward the neighbour average.
// Unmasked and isolated vertices stay fixed.
func relax(pts []mathutil.Vec3, adj [][]int, factor float64, iterations int, mask []bool) []mathutil.Vec3 {
	cur := append([]mathutil.Vec3(nil), pts...)
	next := make([]mathutil.Vec3, len(cur))
	for it := 0; it < iterations; it++ {
		for i, p := range cur {
			next[i] = p
			if !masked(mask, i) || len(adj[i]) == 0 {
				continue
			}
			var sum mathutil.Vec3
			for _, j := range adj[i] {
				sum = sum.Add(cur[j])
			}
			avg := sum.Scale(1 / float64(len(adj[i])))
			next[i] = p.Add(avg.Sub(p).Scale(factor))
		}
		cur, next = next, cur
	}
	return cur
}

// LaplacianSmooth moves masked vertices along their Laplacian. Border
// vertices use BorderFactor. With Normalized the Laplacian is the offset
// to the neighbour average, otherwise the sum of edge vectors. With
// PreserveVolume the mesh is rescaled about its centroid after every
// iteration to keep its enclosed volume.
func (Native) LaplacianSmooth(m *mesh.Mesh, opts LaplacianOptions) {
	if opts.Iterations <= 0 || len(m.Verts) == 0 {
		return
	}
	adj := m.Neighbors()
	border := m.BoundaryVertices()
	startVol := signedVolume(m)

	next := make([]mathutil.Vec3, len(m.Verts))
	for it := 0; it < opts.Iterations; it++ {
		for i, p := range m.Verts {
			next[i] = p
			if !masked(opts.Mask, i) || len(adj[i]) == 0 {
				continue
			}
			lambda := opts.Factor
			if border[i] {
				lambda = opts.BorderFactor
			}
			var lap mathutil.Vec3
			for _, j := range adj[i] {
				lap = lap.Add(m.Verts[j].Sub(p))
			}
			if opts.Normalized {
				lap = lap.Scale(1 / float64(len(adj[i])))
			}
			next[i] = p.Add(lap.Scale(lambda))
		}
		copy(m.Verts, next)

		if opts.PreserveVolume {
			restoreVolume(m, startVol, opts.Mask)
		}
	}
}

// signedVolume is the divergence-theorem volume of the fan triangulation.
// Open meshes give a value relative to the origin, which is still
// consistent between iterations.
func signedVolume(m *mesh.Mesh) float64 {
	tris := m.Triangulate()
	parts := make([]float64, len(tris))
	for i, t := range tris {
		a, b, c := m.Verts[t.V[0]], m.Verts[t.V[1]], m.Verts[t.V[2]]
		parts[i] = a.Dot(b.Cross(c)) / 6
	}
	return floats.Sum(parts)
}

func restoreVolume(m *mesh.Mesh, target float64, mask []bool) {
	vol := signedVolume(m)
	if target == 0 || vol == 0 || (target > 0) != (vol > 0) {
		return
	}
	s := math.Cbrt(target / vol)
	c := mathutil.Centroid(m.Verts)
	for i, p := range m.Verts {
		if masked(mask, i) {
			m.Verts[i] = c.Add(p.Sub(c).Scale(s))
		}
	}
}
