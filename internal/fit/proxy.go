package fit

import (
	"math"

	"elastic-fit/internal/mathutil"
	"elastic-fit/internal/mesh"
	"elastic-fit/internal/meshops"
)

// Proxy is the subdivided stand-in for the clothing. Pre holds the
// positions before projection and Post after.
type Proxy struct {
	Mesh      *mesh.Mesh
	Level     int
	Triangles int
	Pre       []mathutil.Vec3
	Post      []mathutil.Vec3
}

// CalcSubdivisions returns how many subdivision levels take current
// triangles to roughly target. Each level multiplies the count by four.
func CalcSubdivisions(current, target int) int {
	if current <= 0 {
		return 1
	}
	ratio := float64(target) / float64(current)
	if ratio <= 1 {
		return 0
	}
	levels := math.RoundToEven(math.Log(ratio) / math.Log(4))
	return max(1, int(levels))
}

// BuildProxy copies the clothing geometry and subdivides it toward
// targetTriangles. Only positions and topology are copied, so the proxy
// rest shape is exactly the clothing's current shape.
func BuildProxy(ops meshops.MeshOps, clothing *mesh.Mesh, targetTriangles int) *Proxy {
	level := CalcSubdivisions(clothing.TriangleCount(), targetTriangles)
	m := clothing.CloneGeometry()
	if level > 0 {
		m = ops.Subdivide(m, level)
	}
	return &Proxy{Mesh: m, Level: level, Triangles: m.TriangleCount()}
}
