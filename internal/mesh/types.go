package mesh

import (
	"sort"

	"elastic-fit/internal/mathutil"
)

// Mesh holds vertex positions, edges and polygonal faces.
// Faces are ordered vertex index loops; Edges are unordered pairs
// stored with the lower index first.
type Mesh struct {
	Verts    []mathutil.Vec3
	Edges    [][2]int
	Faces    [][]int
	UVLayers []UVLayer
	Groups   map[string]*Group
}

// UVLayer stores one UV per face corner, face by face in Faces order.
type UVLayer struct {
	Name string
	UVs  [][2]float64
}

// Group is a named per-vertex weight map.
type Group struct {
	Name    string
	weights map[int]float64
}

// NewGroup creates an empty vertex group.
func NewGroup(name string) *Group {
	return &Group{Name: name, weights: make(map[int]float64)}
}

// Set assigns a weight to vertex i.
func (g *Group) Set(i int, w float64) {
	g.weights[i] = w
}

// Weight returns the weight of vertex i, or 0 when the vertex is not
// assigned. Out-of-range indices are not an error.
func (g *Group) Weight(i int) float64 {
	if g == nil {
		return 0
	}
	return g.weights[i]
}

// Indices returns the assigned vertex indices in ascending order.
func (g *Group) Indices() []int {
	out := make([]int, 0, len(g.weights))
	for i := range g.weights {
		out = append(out, i)
	}
	sort.Ints(out)
	return out
}

// Group looks up a vertex group by name.
func (m *Mesh) Group(name string) (*Group, bool) {
	if m.Groups == nil {
		return nil, false
	}
	g, ok := m.Groups[name]
	return g, ok
}

// AddGroup registers g, replacing any group with the same name.
func (m *Mesh) AddGroup(g *Group) {
	if m.Groups == nil {
		m.Groups = make(map[string]*Group)
	}
	m.Groups[g.Name] = g
}

// UVLayer looks up a UV layer by name.
func (m *Mesh) UVLayer(name string) *UVLayer {
	for i := range m.UVLayers {
		if m.UVLayers[i].Name == name {
			return &m.UVLayers[i]
		}
	}
	return nil
}

// ObjectType mirrors the host's object kinds.
type ObjectType string

const (
	TypeMesh     ObjectType = "MESH"
	TypeArmature ObjectType = "ARMATURE"
	TypeEmpty    ObjectType = "EMPTY"
	TypeCurve    ObjectType = "CURVE"
)

// Modifier is an unapplied modifier on an object's stack.
type Modifier struct {
	Name string
	Type string
}

// Object is a named scene object. Meta carries custom numeric metadata
// that survives with the object (e.g. the rest-position snapshot).
type Object struct {
	Name      string
	Type      ObjectType
	Mesh      *Mesh
	ShapeKeys []string
	Modifiers []Modifier
	Meta      map[string][]float64
}

// NewMeshObject wraps m in a mesh-typed object.
func NewMeshObject(name string, m *Mesh) *Object {
	return &Object{Name: name, Type: TypeMesh, Mesh: m}
}

// SetMeta stores a metadata array under key.
func (o *Object) SetMeta(key string, v []float64) {
	if o.Meta == nil {
		o.Meta = make(map[string][]float64)
	}
	o.Meta[key] = v
}
