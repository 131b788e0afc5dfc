package fit

import (
	"math"

	"elastic-fit/internal/mathutil"
	"elastic-fit/internal/mesh"
	"elastic-fit/internal/spatial"
)

// transferEpsilon bounds inverse-distance weights when a clothing vertex
// coincides with a proxy vertex.
const transferEpsilon = 1e-5

// SuppressPreserved resets Post to Pre for every proxy vertex strictly
// closer to a preserved rest position than to a fitted one, so the
// preserved region contributes no displacement through the proxy. It
// returns how many proxy vertices were reset.
func SuppressPreserved(p *Proxy, rest []mathutil.Vec3, c Classification) int {
	if len(c.Preserved) == 0 {
		return 0
	}
	preserved := spatial.NewPointIndex(pick(rest, c.Preserved))
	fitted := spatial.NewPointIndex(pick(rest, c.Fitted))

	n := 0
	for i, pos := range p.Pre {
		dp, _ := preserved.Nearest(pos)
		df, ok := fitted.Nearest(pos)
		if !ok || dp.Dist < df.Dist {
			p.Post[i] = p.Pre[i]
			n++
		}
	}
	return n
}

// Transfer interpolates the proxy displacement onto every fitted vertex.
// Each vertex takes the inverse-distance weighted mean of Post-Pre over
// the vertices of the nearest proxy polygon on the pre-projection
// surface. The result is indexed by fitted slot; a vertex with no
// nearest polygon gets a zero displacement.
func Transfer(p *Proxy, rest []mathutil.Vec3, c Classification) []mathutil.Vec3 {
	surf := spatial.NewSurfaceIndex(p.Pre, p.Mesh.Triangulate())
	out := make([]mathutil.Vec3, len(c.Fitted))
	for slot, vi := range c.Fitted {
		v := rest[vi]
		hit, ok := surf.Nearest(v)
		if !ok {
			continue
		}
		face := p.Mesh.Faces[hit.Face]

		var wsum float64
		weights := make([]float64, len(face))
		for k, fi := range face {
			weights[k] = 1 / math.Max(v.Dist(p.Pre[fi]), transferEpsilon)
			wsum += weights[k]
		}
		var d mathutil.Vec3
		for k, fi := range face {
			d = d.Add(p.Post[fi].Sub(p.Pre[fi]).Scale(weights[k] / wsum))
		}
		out[slot] = d
	}
	return out
}

// BodyNormals returns the unit normal of the body face nearest to each
// fitted rest position, indexed by slot. Zero when the body has no faces.
func BodyNormals(body *mesh.Mesh, rest []mathutil.Vec3, c Classification) []mathutil.Vec3 {
	surf := spatial.NewMeshSurface(body)
	out := make([]mathutil.Vec3, len(c.Fitted))
	for slot, vi := range c.Fitted {
		if hit, ok := surf.Nearest(rest[vi]); ok {
			out[slot] = hit.Normal
		}
	}
	return out
}

func pick(pts []mathutil.Vec3, idx []int) []mathutil.Vec3 {
	out := make([]mathutil.Vec3, len(idx))
	for i, vi := range idx {
		out[i] = pts[vi]
	}
	return out
}
