// Package testutil provides shared mesh fixtures for package tests.
package testutil

import (
	"math"
	"testing"

	"elastic-fit/internal/mathutil"
	"elastic-fit/internal/mesh"
)

// Grid builds an nx×ny quad grid in the XY plane at height z, spanning
// [0, size] on both axes, with a per-corner UV layer.
func Grid(nx, ny int, size, z float64) *mesh.Mesh {
	m := &mesh.Mesh{}
	for j := 0; j <= ny; j++ {
		for i := 0; i <= nx; i++ {
			m.Verts = append(m.Verts, mathutil.Vec3{
				size * float64(i) / float64(nx),
				size * float64(j) / float64(ny),
				z,
			})
		}
	}
	idx := func(i, j int) int { return j*(nx+1) + i }
	var uvs [][2]float64
	for j := 0; j < ny; j++ {
		for i := 0; i < nx; i++ {
			face := []int{idx(i, j), idx(i+1, j), idx(i+1, j+1), idx(i, j+1)}
			m.Faces = append(m.Faces, face)
			for _, vi := range face {
				v := m.Verts[vi]
				uvs = append(uvs, [2]float64{v[0] / size, v[1] / size})
			}
		}
	}
	m.UVLayers = []mesh.UVLayer{{Name: mesh.DefaultUVLayer, UVs: uvs}}
	m.EnsureEdges()
	return m
}

// Cylinder builds an open tube of quads around the Z axis with outward
// facing normals. rings is the number of quad rows between z=0 and height.
func Cylinder(radius, height float64, segments, rings int) *mesh.Mesh {
	m := &mesh.Mesh{}
	for r := 0; r <= rings; r++ {
		z := height * float64(r) / float64(rings)
		for s := 0; s < segments; s++ {
			a := 2 * math.Pi * float64(s) / float64(segments)
			m.Verts = append(m.Verts, mathutil.Vec3{radius * math.Cos(a), radius * math.Sin(a), z})
		}
	}
	idx := func(r, s int) int { return r*segments + (s % segments) }
	var uvs [][2]float64
	for r := 0; r < rings; r++ {
		for s := 0; s < segments; s++ {
			face := []int{idx(r, s), idx(r, s+1), idx(r+1, s+1), idx(r+1, s)}
			m.Faces = append(m.Faces, face)
			uvs = append(uvs,
				[2]float64{float64(s) / float64(segments), float64(r) / float64(rings)},
				[2]float64{float64(s+1) / float64(segments), float64(r) / float64(rings)},
				[2]float64{float64(s+1) / float64(segments), float64(r+1) / float64(rings)},
				[2]float64{float64(s) / float64(segments), float64(r+1) / float64(rings)},
			)
		}
	}
	m.UVLayers = []mesh.UVLayer{{Name: mesh.DefaultUVLayer, UVs: uvs}}
	m.EnsureEdges()
	return m
}

// Ring builds n vertices on a unit circle joined by edges only.
func Ring(n int) *mesh.Mesh {
	m := &mesh.Mesh{}
	for i := 0; i < n; i++ {
		a := 2 * math.Pi * float64(i) / float64(n)
		m.Verts = append(m.Verts, mathutil.Vec3{math.Cos(a), math.Sin(a), 0})
		j := (i + 1) % n
		e := [2]int{i, j}
		if e[0] > e[1] {
			e[0], e[1] = e[1], e[0]
		}
		m.Edges = append(m.Edges, e)
	}
	return m
}

// AssertVecsNear fails when any pair of vectors differs by more than tol.
func AssertVecsNear(t *testing.T, want, got []mathutil.Vec3, tol float64) {
	t.Helper()
	if len(want) != len(got) {
		t.Fatalf("length = %d, want %d", len(got), len(want))
	}
	for i := range want {
		if d := want[i].Dist(got[i]); d > tol {
			t.Errorf("vertex %d = %v, want %v (off by %g)", i, got[i], want[i], d)
		}
	}
}
