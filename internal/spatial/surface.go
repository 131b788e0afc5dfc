package spatial

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/spatial/r3"

	"elastic-fit/internal/mathutil"
	"elastic-fit/internal/mesh"
)

// maxTrianglesPerLeaf is the threshold for splitting BVH nodes.
const maxTrianglesPerLeaf = 4

// Hit is the result of a nearest-surface query.
type Hit struct {
	Face     int // source polygon index
	Tri      int // triangle index within the SurfaceIndex
	Location mathutil.Vec3
	Normal   mathutil.Vec3 // unit face normal
	Dist     float64
}

// SurfaceIndex answers closest-point-on-surface queries over a set of
// triangles using a bounding volume hierarchy.
type SurfaceIndex struct {
	verts   []mathutil.Vec3
	tris    []mesh.Triangle
	normals []mathutil.Vec3
	root    *bvhNode
}

// bvhNode has an axis-aligned bounding box and either two children or a
// list of triangle indices.
type bvhNode struct {
	min, max    mathutil.Vec3
	left, right *bvhNode
	tris        []int
}

// NewMeshSurface indexes the fan-triangulated faces of m.
func NewMeshSurface(m *mesh.Mesh) *SurfaceIndex {
	return NewSurfaceIndex(m.Verts, m.Triangulate())
}

// NewSurfaceIndex indexes tris over verts. Zero-area triangles are
// dropped since they have no defined normal.
func NewSurfaceIndex(verts []mathutil.Vec3, tris []mesh.Triangle) *SurfaceIndex {
	s := &SurfaceIndex{verts: verts}
	ids := make([]int, 0, len(tris))
	for _, t := range tris {
		a, b, c := verts[t.V[0]], verts[t.V[1]], verts[t.V[2]]
		n := b.Sub(a).Cross(c.Sub(a))
		if n.LenSq() < 1e-24 {
			continue
		}
		ids = append(ids, len(s.tris))
		s.tris = append(s.tris, t)
		s.normals = append(s.normals, n.Normalize())
	}
	if len(ids) > 0 {
		s.root = s.build(ids)
	}
	return s
}

// Len returns the number of indexed triangles.
func (s *SurfaceIndex) Len() int { return len(s.tris) }

func (s *SurfaceIndex) build(ids []int) *bvhNode {
	node := &bvhNode{}
	node.min, node.max = s.bounds(ids)

	if len(ids) <= maxTrianglesPerLeaf {
		node.tris = ids
		return node
	}

	// Split on the longest axis at the centroid median.
	extent := node.max.Sub(node.min)
	axis := 0
	if extent[1] > extent[0] && extent[1] >= extent[2] {
		axis = 1
	} else if extent[2] > extent[0] && extent[2] > extent[1] {
		axis = 2
	}
	sort.SliceStable(ids, func(i, j int) bool {
		return s.centroid(ids[i])[axis] < s.centroid(ids[j])[axis]
	})

	mid := len(ids) / 2
	node.left = s.build(ids[:mid])
	node.right = s.build(ids[mid:])
	return node
}

func (s *SurfaceIndex) bounds(ids []int) (lo, hi mathutil.Vec3) {
	inf := math.Inf(1)
	lo = mathutil.Vec3{inf, inf, inf}
	hi = mathutil.Vec3{-inf, -inf, -inf}
	for _, id := range ids {
		for _, vi := range s.tris[id].V {
			lo = mathutil.MinElem(lo, s.verts[vi])
			hi = mathutil.MaxElem(hi, s.verts[vi])
		}
	}
	return lo, hi
}

func (s *SurfaceIndex) centroid(id int) mathutil.Vec3 {
	t := s.tris[id].V
	return s.verts[t[0]].Add(s.verts[t[1]]).Add(s.verts[t[2]]).Scale(1.0 / 3)
}

// Nearest returns the closest point on the indexed surface to q.
// ok is false when the index holds no triangles.
func (s *SurfaceIndex) Nearest(q mathutil.Vec3) (Hit, bool) {
	if s == nil || s.root == nil {
		return Hit{}, false
	}
	best := Hit{Tri: -1, Dist: math.Inf(1)}
	bestD2 := math.Inf(1)
	s.nearest(s.root, q, &best, &bestD2)
	if best.Tri < 0 {
		return Hit{}, false
	}
	best.Dist = math.Sqrt(bestD2)
	return best, true
}

func (s *SurfaceIndex) nearest(n *bvhNode, q mathutil.Vec3, best *Hit, bestD2 *float64) {
	if boxDist2(n.min, n.max, q) > *bestD2 {
		return
	}
	if n.left == nil {
		for _, id := range n.tris {
			t := s.tris[id].V
			p := closestOnTriangle(q, s.verts[t[0]], s.verts[t[1]], s.verts[t[2]])
			d2 := p.Sub(q).LenSq()
			if d2 < *bestD2 || (d2 == *bestD2 && id < best.Tri) {
				*bestD2 = d2
				*best = Hit{Face: s.tris[id].Face, Tri: id, Location: p, Normal: s.normals[id]}
			}
		}
		return
	}

	// Descend into the closer child first for better pruning.
	first, second := n.left, n.right
	if boxDist2(second.min, second.max, q) < boxDist2(first.min, first.max, q) {
		first, second = second, first
	}
	s.nearest(first, q, best, bestD2)
	s.nearest(second, q, best, bestD2)
}

// boxDist2 is the squared distance from q to an AABB (0 inside).
func boxDist2(lo, hi, q mathutil.Vec3) float64 {
	var d2 float64
	for k := 0; k < 3; k++ {
		if q[k] < lo[k] {
			d := lo[k] - q[k]
			d2 += d * d
		} else if q[k] > hi[k] {
			d := q[k] - hi[k]
			d2 += d * d
		}
	}
	return d2
}

// closestOnTriangle returns the point of triangle abc closest to p
// (Ericson, Real-Time Collision Detection 5.1.5).
func closestOnTriangle(p, a, b, c mathutil.Vec3) mathutil.Vec3 {
	P, A, B, C := vec(p), vec(a), vec(b), vec(c)
	ab := r3.Sub(B, A)
	ac := r3.Sub(C, A)
	ap := r3.Sub(P, A)

	d1, d2 := r3.Dot(ab, ap), r3.Dot(ac, ap)
	if d1 <= 0 && d2 <= 0 {
		return a
	}

	bp := r3.Sub(P, B)
	d3, d4 := r3.Dot(ab, bp), r3.Dot(ac, bp)
	if d3 >= 0 && d4 <= d3 {
		return b
	}

	vc := d1*d4 - d3*d2
	if vc <= 0 && d1 >= 0 && d3 <= 0 {
		v := d1 / (d1 - d3)
		return unvec(r3.Add(A, r3.Scale(v, ab)))
	}

	cp := r3.Sub(P, C)
	d5, d6 := r3.Dot(ab, cp), r3.Dot(ac, cp)
	if d6 >= 0 && d5 <= d6 {
		return c
	}

	vb := d5*d2 - d1*d6
	if vb <= 0 && d2 >= 0 && d6 <= 0 {
		w := d2 / (d2 - d6)
		return unvec(r3.Add(A, r3.Scale(w, ac)))
	}

	va := d3*d6 - d5*d4
	if va <= 0 && (d4-d3) >= 0 && (d5-d6) >= 0 {
		w := (d4 - d3) / ((d4 - d3) + (d5 - d6))
		return unvec(r3.Add(B, r3.Scale(w, r3.Sub(C, B))))
	}

	denom := 1 / (va + vb + vc)
	v := vb * denom
	w := vc * denom
	return unvec(r3.Add(A, r3.Add(r3.Scale(v, ab), r3.Scale(w, ac))))
}

func vec(v mathutil.Vec3) r3.Vec   { return r3.Vec{X: v[0], Y: v[1], Z: v[2]} }
func unvec(v r3.Vec) mathutil.Vec3 { return mathutil.Vec3{v.X, v.Y, v.Z} }
