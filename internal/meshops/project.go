package meshops

import (
	"elastic-fit/internal/mathutil"
	"elastic-fit/internal/mesh"
	"elastic-fit/internal/spatial"
)

// ProjectOntoSurface moves every point to the nearest point on target's
// surface, then offsets it along the face normal. Points with no surface
// to project onto are returned unchanged.
func (Native) ProjectOntoSurface(points []mathutil.Vec3, target *mesh.Mesh, opts ProjectOptions) []mathutil.Vec3 {
	out := make([]mathutil.Vec3, len(points))
	surf := spatial.NewMeshSurface(target)
	for i, p := range points {
		hit, ok := surf.Nearest(p)
		if !ok {
			out[i] = p
			continue
		}
		n := hit.Normal
		if opts.Mode == OnSurface && p.Sub(hit.Location).Dot(n) < 0 {
			n = n.Scale(-1)
		}
		out[i] = hit.Location.Add(n.Scale(opts.Offset))
	}
	return out
}
