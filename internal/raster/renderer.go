package raster

import (
	"image"

	"elastic-fit/internal/mathutil"
	"elastic-fit/internal/mesh"
)

// Layer is one mesh in a preview. VertexColors, when it has one entry per
// vertex, overrides Color.
type Layer struct {
	Mesh         *mesh.Mesh
	Color        [3]uint8
	VertexColors [][3]uint8
}

// Render draws the layers into a square image of size*supersample pixels.
// All layers share one framing so relative placement is preserved.
func Render(layers []Layer, cam Camera, size, supersample int) *image.NRGBA {
	if supersample < 1 {
		supersample = 1
	}
	renderSize := size * supersample

	var sets [][]mathutil.Vec3
	for _, l := range layers {
		if l.Mesh != nil {
			sets = append(sets, l.Mesh.Verts)
		}
	}
	f, ok := cam.frame(sets, renderSize, 16*supersample)
	if !ok {
		return image.NewNRGBA(image.Rect(0, 0, renderSize, renderSize))
	}

	fb := NewFrameBuffer(renderSize, renderSize)
	lc := DefaultLightConfig()

	for _, l := range layers {
		if l.Mesh == nil || len(l.Mesh.Verts) == 0 {
			continue
		}
		s := cam.project(f, l.Mesh.Verts)
		colors := linearColors(l)

		for _, tri := range l.Mesh.Triangulate() {
			col := [3]mathutil.Vec3{colors[tri.V[0]], colors[tri.V[1]], colors[tri.V[2]]}
			RasterizeTriangle(fb, s, tri.V, col, &lc)
		}
	}

	return fb.Image()
}

func linearColors(l Layer) []mathutil.Vec3 {
	out := make([]mathutil.Vec3, len(l.Mesh.Verts))
	if len(l.VertexColors) == len(out) {
		for i, c := range l.VertexColors {
			out[i] = Linear(c)
		}
		return out
	}
	base := Linear(l.Color)
	for i := range out {
		out[i] = base
	}
	return out
}
