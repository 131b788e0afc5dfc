package mesh

import (
	"sort"

	"elastic-fit/internal/mathutil"
)

// Triangle is one fan triangle of a polygon. Face is the source polygon index.
type Triangle struct {
	V    [3]int
	Face int
}

// TriangleCount returns Σ max(0, len(face)-2) over all faces.
func (m *Mesh) TriangleCount() int {
	n := 0
	for _, f := range m.Faces {
		if len(f) > 2 {
			n += len(f) - 2
		}
	}
	return n
}

// Triangulate fan-triangulates every polygon. Polygons with fewer than
// three vertices or out-of-range indices are skipped.
func (m *Mesh) Triangulate() []Triangle {
	tris := make([]Triangle, 0, m.TriangleCount())
	nv := len(m.Verts)
	for fi, f := range m.Faces {
		if len(f) < 3 || !inRange(f, nv) {
			continue
		}
		for k := 1; k+1 < len(f); k++ {
			tris = append(tris, Triangle{V: [3]int{f[0], f[k], f[k+1]}, Face: fi})
		}
	}
	return tris
}

func inRange(f []int, n int) bool {
	for _, v := range f {
		if v < 0 || v >= n {
			return false
		}
	}
	return true
}

// FaceEdges returns the unique, sorted edge list implied by the faces.
func (m *Mesh) FaceEdges() [][2]int {
	seen := make(map[[2]int]struct{})
	var edges [][2]int
	for _, f := range m.Faces {
		n := len(f)
		if n < 2 {
			continue
		}
		for i := 0; i < n; i++ {
			e := sortedEdge(f[i], f[(i+1)%n])
			if e[0] == e[1] {
				continue
			}
			if _, ok := seen[e]; ok {
				continue
			}
			seen[e] = struct{}{}
			edges = append(edges, e)
		}
	}
	sort.Slice(edges, func(i, j int) bool {
		if edges[i][0] != edges[j][0] {
			return edges[i][0] < edges[j][0]
		}
		return edges[i][1] < edges[j][1]
	})
	return edges
}

// EnsureEdges derives Edges from Faces when the mesh has none.
func (m *Mesh) EnsureEdges() {
	if len(m.Edges) == 0 {
		m.Edges = m.FaceEdges()
	}
}

func sortedEdge(a, b int) [2]int {
	if a > b {
		a, b = b, a
	}
	return [2]int{a, b}
}

// Neighbors returns the edge-connected neighbours of every vertex.
func (m *Mesh) Neighbors() [][]int {
	m.EnsureEdges()
	adj := make([][]int, len(m.Verts))
	for _, e := range m.Edges {
		a, b := e[0], e[1]
		if a < 0 || b < 0 || a >= len(adj) || b >= len(adj) {
			continue
		}
		adj[a] = append(adj[a], b)
		adj[b] = append(adj[b], a)
	}
	return adj
}

// BoundaryVertices marks vertices touching an edge used by exactly one face.
func (m *Mesh) BoundaryVertices() []bool {
	use := make(map[[2]int]int)
	for _, f := range m.Faces {
		n := len(f)
		for i := 0; i < n; i++ {
			use[sortedEdge(f[i], f[(i+1)%n])]++
		}
	}
	out := make([]bool, len(m.Verts))
	for e, c := range use {
		if c != 1 {
			continue
		}
		for _, v := range e {
			if v >= 0 && v < len(out) {
				out[v] = true
			}
		}
	}
	return out
}

// Positions returns a copy of the vertex positions.
func (m *Mesh) Positions() []mathutil.Vec3 {
	out := make([]mathutil.Vec3, len(m.Verts))
	copy(out, m.Verts)
	return out
}

// CloneGeometry returns a topologically independent copy of positions,
// edges and faces. UVs, groups and object-level state are not copied.
func (m *Mesh) CloneGeometry() *Mesh {
	c := &Mesh{
		Verts: m.Positions(),
		Edges: make([][2]int, len(m.Edges)),
		Faces: make([][]int, len(m.Faces)),
	}
	copy(c.Edges, m.Edges)
	for i, f := range m.Faces {
		c.Faces[i] = append([]int(nil), f...)
	}
	return c
}

// CornerCount returns the number of face corners (UV slots per layer).
func (m *Mesh) CornerCount() int {
	n := 0
	for _, f := range m.Faces {
		n += len(f)
	}
	return n
}

// Bounds returns the axis-aligned bounding box of the vertices.
func (m *Mesh) Bounds() (lo, hi mathutil.Vec3) {
	if len(m.Verts) == 0 {
		return
	}
	lo, hi = m.Verts[0], m.Verts[0]
	for _, v := range m.Verts[1:] {
		lo = mathutil.MinElem(lo, v)
		hi = mathutil.MaxElem(hi, v)
	}
	return lo, hi
}
