package meshops

import (
	"elastic-fit/internal/mathutil"
	"elastic-fit/internal/mesh"
	"elastic-fit/internal/spatial"
)

// DefaultSymmetrizeThreshold is the pairing distance used when
// SymmetrizeOptions.Threshold is zero.
const DefaultSymmetrizeThreshold = 1e-4

// Symmetrize copies the source half of the selected vertices onto the
// other half. Vertices are paired by mirroring their reference position
// and matching the nearest selected source-side vertex within the
// threshold. Selected vertices on the mirror plane are snapped onto it.
// Unpaired vertices keep their position.
func (Native) Symmetrize(m *mesh.Mesh, opts SymmetrizeOptions) {
	dim, sign, ok := opts.Axis.split()
	if !ok || len(m.Verts) == 0 {
		return
	}
	ref := opts.Reference
	if len(ref) != len(m.Verts) {
		ref = m.Positions()
	}
	tol := opts.Threshold
	if tol <= 0 {
		tol = DefaultSymmetrizeThreshold
	}

	mirror := [3]float64{1, 1, 1}
	mirror[dim] = -1
	flip := mathutil.Mat3Diag(mirror[0], mirror[1], mirror[2])

	var srcIdx []int
	var srcPts []mathutil.Vec3
	for i, p := range ref {
		if masked(opts.Selected, i) && p[dim]*sign > tol {
			srcIdx = append(srcIdx, i)
			srcPts = append(srcPts, p)
		}
	}
	index := spatial.NewPointIndex(srcPts)

	out := m.Positions()
	for i, p := range ref {
		if !masked(opts.Selected, i) {
			continue
		}
		side := p[dim] * sign
		switch {
		case side > tol:
			// source side
		case side >= -tol:
			out[i][dim] = 0
		default:
			nb, ok := index.Nearest(flip.MulVec3(p))
			if !ok || nb.Dist > tol {
				continue
			}
			out[i] = flip.MulVec3(m.Verts[srcIdx[nb.Index]])
		}
	}
	copy(m.Verts, out)
}
