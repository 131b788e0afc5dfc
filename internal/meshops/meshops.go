// Package meshops defines the mesh-editing capabilities the fitting
// pipeline consumes and a native implementation of them.
//
// The fitting algorithm only talks to the MeshOps interface, so a host
// toolkit can substitute its own subdivision, projection and smoothing
// operators.
package meshops

import (
	"elastic-fit/internal/mathutil"
	"elastic-fit/internal/mesh"
)

// MeshOps is the set of boundary operations used by a fit.
type MeshOps interface {
	// Subdivide returns a new mesh subdivided levels times without smoothing.
	Subdivide(m *mesh.Mesh, levels int) *mesh.Mesh
	// ProjectOntoSurface returns one projected position per input point.
	ProjectOntoSurface(points []mathutil.Vec3, target *mesh.Mesh, opts ProjectOptions) []mathutil.Vec3
	CorrectiveSmooth(m *mesh.Mesh, opts CorrectiveSmoothOptions)
	Symmetrize(m *mesh.Mesh, opts SymmetrizeOptions)
	LaplacianSmooth(m *mesh.Mesh, opts LaplacianOptions)
	SnapshotUVs(m *mesh.Mesh) UVSnapshot
	RestoreUVs(m *mesh.Mesh, snap UVSnapshot)
}

// WrapMethod selects how points are matched to the target surface.
type WrapMethod string

const (
	NearestSurfacePoint WrapMethod = "NEAREST_SURFACEPOINT"
)

// WrapMode selects which side of the surface the offset is applied on.
type WrapMode string

const (
	// OutsideSurface always places the point offset along the face normal.
	OutsideSurface WrapMode = "OUTSIDE_SURFACE"
	// OnSurface keeps the point on the side it started from.
	OnSurface WrapMode = "ON_SURFACE"
)

// ProjectOptions configures ProjectOntoSurface.
type ProjectOptions struct {
	Offset float64
	Method WrapMethod
	Mode   WrapMode
}

// CorrectiveSmoothOptions configures CorrectiveSmooth. Rest is the shape
// whose detail is restored after smoothing; Mask limits which vertices
// may move (nil means all).
type CorrectiveSmoothOptions struct {
	Factor     float64
	Iterations int
	Rest       []mathutil.Vec3
	Mask       []bool
}

// Axis is a symmetrize direction: the sign names the source side.
type Axis string

const (
	PositiveX Axis = "POSITIVE_X"
	NegativeX Axis = "NEGATIVE_X"
	PositiveY Axis = "POSITIVE_Y"
	NegativeY Axis = "NEGATIVE_Y"
	PositiveZ Axis = "POSITIVE_Z"
	NegativeZ Axis = "NEGATIVE_Z"
)

// Axes lists every symmetrize direction.
var Axes = []Axis{PositiveX, NegativeX, PositiveY, NegativeY, PositiveZ, NegativeZ}

// Valid reports whether a is a known direction.
func (a Axis) Valid() bool {
	_, _, ok := a.split()
	return ok
}

// split returns the mirrored dimension and the sign of the source side.
func (a Axis) split() (dim int, sign float64, ok bool) {
	switch a {
	case PositiveX:
		return 0, 1, true
	case NegativeX:
		return 0, -1, true
	case PositiveY:
		return 1, 1, true
	case NegativeY:
		return 1, -1, true
	case PositiveZ:
		return 2, 1, true
	case NegativeZ:
		return 2, -1, true
	}
	return 0, 0, false
}

// SymmetrizeOptions configures Symmetrize. Selected limits the vertices
// taking part (nil means all). Reference positions pair vertices with
// their mirror partner; nil pairs on current positions.
type SymmetrizeOptions struct {
	Axis      Axis
	Selected  []bool
	Reference []mathutil.Vec3
	Threshold float64
}

// LaplacianOptions configures LaplacianSmooth.
type LaplacianOptions struct {
	Factor         float64
	BorderFactor   float64
	Iterations     int
	PreserveVolume bool
	Normalized     bool
	Mask           []bool
}

// UVSnapshot holds per-corner UVs by layer name.
type UVSnapshot map[string][][2]float64

// Native implements MeshOps in Go.
type Native struct{}

var _ MeshOps = Native{}

func masked(mask []bool, i int) bool {
	return mask == nil || (i < len(mask) && mask[i])
}
