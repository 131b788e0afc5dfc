package meshops

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"elastic-fit/internal/mathutil"
	"elastic-fit/internal/mesh"
	"elastic-fit/internal/testutil"
)

func cube() *mesh.Mesh {
	m := &mesh.Mesh{
		Verts: []mathutil.Vec3{
			{0, 0, 0}, {1, 0, 0}, {1, 1, 0}, {0, 1, 0},
			{0, 0, 1}, {1, 0, 1}, {1, 1, 1}, {0, 1, 1},
		},
		Faces: [][]int{
			{0, 3, 2, 1}, {4, 5, 6, 7},
			{0, 1, 5, 4}, {2, 3, 7, 6},
			{0, 4, 7, 3}, {1, 2, 6, 5},
		},
	}
	m.EnsureEdges()
	return m
}

func TestSubdivideCounts(t *testing.T) {
	t.Parallel()

	quad := testutil.Grid(1, 1, 1, 0)
	tri := &mesh.Mesh{
		Verts: []mathutil.Vec3{{0, 0, 0}, {1, 0, 0}, {0, 1, 0}},
		Faces: [][]int{{0, 1, 2}},
	}

	cases := []struct {
		name             string
		m                *mesh.Mesh
		levels           int
		verts, faces, ed int
	}{
		{"quad level 0", quad, 0, 4, 1, 4},
		{"quad level 1", quad, 1, 9, 4, 12},
		{"quad level 2", quad, 2, 25, 16, 40},
		{"triangle level 1", tri, 1, 7, 3, 9},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			out := Native{}.Subdivide(tc.m, tc.levels)
			assert.Len(t, out.Verts, tc.verts)
			assert.Len(t, out.Faces, tc.faces)
			assert.Len(t, out.Edges, tc.ed)
		})
	}
}

func TestSubdividePreservesShape(t *testing.T) {
	cyl := testutil.Cylinder(1, 2, 12, 2)
	out := Native{}.Subdivide(cyl, 1)
	require.Greater(t, len(out.Verts), len(cyl.Verts))

	// Original vertices keep their slots and positions.
	testutil.AssertVecsNear(t, cyl.Verts, out.Verts[:len(cyl.Verts)], 0)

	// New vertices lie on the original faces, which sit inside the radius.
	for _, v := range out.Verts {
		r := math.Hypot(v[0], v[1])
		assert.LessOrEqual(t, r, 1+1e-12)
		assert.GreaterOrEqual(t, v[2], 0.0)
		assert.LessOrEqual(t, v[2], 2.0)
	}
}

func TestSubdivideDoesNotAliasInput(t *testing.T) {
	g := testutil.Grid(1, 1, 1, 0)
	out := Native{}.Subdivide(g, 0)
	out.Verts[0][2] = 5
	out.Faces[0][0] = 3
	assert.Equal(t, 0.0, g.Verts[0][2])
	assert.Equal(t, 0, g.Faces[0][0])
}

func TestProjectOntoSurface(t *testing.T) {
	g := testutil.Grid(4, 4, 4, 0)
	pts := []mathutil.Vec3{{1.5, 1.5, 2}, {1.5, 1.5, -2}}

	out := Native{}.ProjectOntoSurface(pts, g, ProjectOptions{Offset: 0.1, Method: NearestSurfacePoint, Mode: OutsideSurface})
	testutil.AssertVecsNear(t, []mathutil.Vec3{{1.5, 1.5, 0.1}, {1.5, 1.5, 0.1}}, out, 1e-12)

	out = Native{}.ProjectOntoSurface(pts, g, ProjectOptions{Offset: 0.1, Method: NearestSurfacePoint, Mode: OnSurface})
	testutil.AssertVecsNear(t, []mathutil.Vec3{{1.5, 1.5, 0.1}, {1.5, 1.5, -0.1}}, out, 1e-12)

	// The input slice is not modified.
	assert.Equal(t, mathutil.Vec3{1.5, 1.5, 2}, pts[0])
}

func TestProjectOntoEmptySurface(t *testing.T) {
	pts := []mathutil.Vec3{{1, 2, 3}}
	out := Native{}.ProjectOntoSurface(pts, &mesh.Mesh{}, ProjectOptions{Offset: 0.1})
	assert.Equal(t, pts, out)
}

func TestCorrectiveSmoothKeepsRigidMotion(t *testing.T) {
	g := testutil.Grid(4, 4, 4, 0)
	g.Verts[12][2] = 0.7 // rest detail must survive
	rest := g.Positions()

	shift := mathutil.Vec3{0.3, -0.2, 1}
	for i := range g.Verts {
		g.Verts[i] = g.Verts[i].Add(shift)
	}
	want := g.Positions()

	Native{}.CorrectiveSmooth(g, CorrectiveSmoothOptions{Factor: 0.75, Iterations: 10, Rest: rest})
	testutil.AssertVecsNear(t, want, g.Verts, 1e-9)
}

func TestCorrectiveSmoothReducesSpike(t *testing.T) {
	g := testutil.Grid(4, 4, 4, 0)
	rest := g.Positions()
	g.Verts[12][2] = 1

	Native{}.CorrectiveSmooth(g, CorrectiveSmoothOptions{Factor: 0.5, Iterations: 5, Rest: rest})
	assert.Less(t, g.Verts[12][2], 1.0)
	assert.Greater(t, g.Verts[11][2], 0.0)
}

func TestCorrectiveSmoothMask(t *testing.T) {
	g := testutil.Grid(4, 4, 4, 0)
	rest := g.Positions()
	g.Verts[12][2] = 1
	mask := make([]bool, len(g.Verts))
	for i := range mask {
		mask[i] = i != 12
	}

	Native{}.CorrectiveSmooth(g, CorrectiveSmoothOptions{Factor: 0.5, Iterations: 5, Rest: rest, Mask: mask})
	assert.Equal(t, 1.0, g.Verts[12][2])
}

func TestCorrectiveSmoothNoop(t *testing.T) {
	g := testutil.Grid(2, 2, 2, 0)
	g.Verts[4][2] = 1
	before := g.Positions()
	Native{}.CorrectiveSmooth(g, CorrectiveSmoothOptions{Factor: 0.5, Iterations: 0})
	assert.Equal(t, before, g.Verts)
}

func centredGrid() *mesh.Mesh {
	g := testutil.Grid(4, 2, 2, 0)
	for i := range g.Verts {
		g.Verts[i][0]--
	}
	return g
}

func TestSymmetrizePositiveX(t *testing.T) {
	g := centredGrid()
	ref := g.Positions()
	// vertex 3 sits at x=0.5, vertex 1 at x=-0.5 in the first row
	g.Verts[3][2] = 0.25
	g.Verts[1][2] = -0.4
	g.Verts[2][0] = 0.01

	Native{}.Symmetrize(g, SymmetrizeOptions{Axis: PositiveX, Reference: ref})
	assert.InDelta(t, 0.25, g.Verts[1][2], 1e-12)
	assert.InDelta(t, -0.5, g.Verts[1][0], 1e-12)
	assert.InDelta(t, 0.0, g.Verts[2][0], 1e-12)
	assert.InDelta(t, 0.25, g.Verts[3][2], 1e-12)
}

func TestSymmetrizeNegativeXAndSelection(t *testing.T) {
	g := centredGrid()
	ref := g.Positions()
	g.Verts[1][2] = -0.4
	g.Verts[6][2] = -0.3 // x=-0.5, second row
	sel := make([]bool, len(g.Verts))
	for i := range sel {
		sel[i] = i != 8 // mirror of vertex 6
	}

	Native{}.Symmetrize(g, SymmetrizeOptions{Axis: NegativeX, Reference: ref, Selected: sel})
	assert.InDelta(t, -0.4, g.Verts[3][2], 1e-12)
	assert.InDelta(t, 0.0, g.Verts[8][2], 1e-12)
}

func TestSymmetrizeUnknownAxis(t *testing.T) {
	g := centredGrid()
	g.Verts[1][2] = 1
	before := g.Positions()
	Native{}.Symmetrize(g, SymmetrizeOptions{Axis: "SIDEWAYS"})
	assert.Equal(t, before, g.Verts)
	assert.False(t, Axis("SIDEWAYS").Valid())
	for _, a := range Axes {
		assert.True(t, a.Valid(), a)
	}
}

func TestLaplacianSmoothFlattensSpike(t *testing.T) {
	g := testutil.Grid(4, 4, 4, 0)
	g.Verts[12][2] = 1

	Native{}.LaplacianSmooth(g, LaplacianOptions{Factor: 0.25, BorderFactor: 0, Iterations: 3, Normalized: true})
	assert.Less(t, g.Verts[12][2], 1.0)
	assert.Greater(t, g.Verts[7][2], 0.0)

	border := g.BoundaryVertices()
	base := testutil.Grid(4, 4, 4, 0)
	for i, b := range border {
		if b {
			assert.Equal(t, base.Verts[i], g.Verts[i], "border vertex %d moved", i)
		}
	}
}

func TestLaplacianSmoothPreservesVolume(t *testing.T) {
	c := cube()
	before := math.Abs(signedVolume(c))
	require.InDelta(t, 1.0, before, 1e-12)

	shrunk := cube()
	Native{}.LaplacianSmooth(shrunk, LaplacianOptions{Factor: 0.2, Iterations: 2, Normalized: true})
	assert.Less(t, math.Abs(signedVolume(shrunk)), before)

	Native{}.LaplacianSmooth(c, LaplacianOptions{Factor: 0.2, Iterations: 2, Normalized: true, PreserveVolume: true})
	assert.InDelta(t, before, math.Abs(signedVolume(c)), 1e-9)
}

func TestUVSnapshotRestore(t *testing.T) {
	g := testutil.Grid(2, 2, 2, 0)
	ops := Native{}
	snap := ops.SnapshotUVs(g)
	want := append([][2]float64(nil), g.UVLayers[0].UVs...)

	for i := range g.UVLayers[0].UVs {
		g.UVLayers[0].UVs[i] = [2]float64{9, 9}
	}
	snap["missing"] = [][2]float64{{1, 1}}
	ops.RestoreUVs(g, snap)

	assert.Equal(t, want, g.UVLayers[0].UVs)
	assert.Nil(t, g.UVLayer("missing"))
}
