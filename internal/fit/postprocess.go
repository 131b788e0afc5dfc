package fit

import (
	"elastic-fit/internal/mathutil"
	"elastic-fit/internal/mesh"
	"elastic-fit/internal/meshops"
)

// PostOptions are the clean-up operators run once a fit is committed.
type PostOptions struct {
	SmoothFactor        float64
	SmoothIterations    int
	Symmetrize          bool
	SymmetrizeAxis      meshops.Axis
	Laplacian           bool
	LaplacianFactor     float64
	LaplacianIterations int
}

// PostProcess runs corrective smoothing, symmetrize and Laplacian
// smoothing on the fitted clothing. Preserved vertices are excluded from
// every operator. rest is the pre-fit shape: corrective smoothing keeps
// its detail and symmetrize pairs vertices on it.
func PostProcess(ops meshops.MeshOps, m *mesh.Mesh, rest []mathutil.Vec3, c Classification, opts PostOptions) {
	mask := c.FittedMask()

	if opts.SmoothIterations > 0 {
		ops.CorrectiveSmooth(m, meshops.CorrectiveSmoothOptions{
			Factor:     opts.SmoothFactor,
			Iterations: opts.SmoothIterations,
			Rest:       rest,
			Mask:       mask,
		})
	}
	if opts.Symmetrize {
		ops.Symmetrize(m, meshops.SymmetrizeOptions{
			Axis:      opts.SymmetrizeAxis,
			Selected:  mask,
			Reference: rest,
		})
	}
	if opts.Laplacian {
		ops.LaplacianSmooth(m, meshops.LaplacianOptions{
			Factor:         opts.LaplacianFactor,
			BorderFactor:   0,
			Iterations:     opts.LaplacianIterations,
			PreserveVolume: true,
			Normalized:     true,
			Mask:           mask,
		})
	}
}
