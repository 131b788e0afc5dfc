package raster

import (
	"math"

	"elastic-fit/internal/mathutil"
)

// Screen holds projected vertices: pixel X, pixel Y and depth (larger is
// closer to the camera).
type Screen struct {
	X, Y, Z []float64
}

// RasterizeTriangle fills triangle vi with z-buffering. Lighting is flat
// (one shade per face from the screen-space normal); the linear vertex
// colors are interpolated across the face.
//
// This is the hot path: no allocation in the pixel loop.
func RasterizeTriangle(fb *FrameBuffer, s *Screen, vi [3]int, col [3]mathutil.Vec3, lc *LightConfig) {
	nv := len(s.X)
	for _, i := range vi {
		if i < 0 || i >= nv {
			return
		}
	}

	x0, y0, z0 := s.X[vi[0]], s.Y[vi[0]], s.Z[vi[0]]
	x1, y1, z1 := s.X[vi[1]], s.Y[vi[1]], s.Z[vi[1]]
	x2, y2, z2 := s.X[vi[2]], s.Y[vi[2]], s.Z[vi[2]]

	// Face normal for flat shading. Screen Y points down, so flip it back
	// before lighting.
	n := mathutil.Vec3{x1 - x0, -(y1 - y0), z1 - z0}.Cross(mathutil.Vec3{x2 - x0, -(y2 - y0), z2 - z0})
	if n.LenSq() < 1e-16 {
		return
	}
	shade := lc.ComputeShade(n.Normalize())

	minX := max(int(math.Min(math.Min(x0, x1), x2)), 0)
	maxX := min(int(math.Max(math.Max(x0, x1), x2))+1, fb.Width-1)
	minY := max(int(math.Min(math.Min(y0, y1), y2)), 0)
	maxY := min(int(math.Max(math.Max(y0, y1), y2))+1, fb.Height-1)
	if minX > maxX || minY > maxY {
		return
	}

	// Barycentric setup
	det := (y1-y2)*(x0-x2) + (x2-x1)*(y0-y2)
	if det > -1e-8 && det < 1e-8 {
		return
	}
	invDet := 1.0 / det

	dy12 := y1 - y2
	dx21 := x2 - x1
	dy20 := y2 - y0
	dx02 := x0 - x2

	for sy := minY; sy <= maxY; sy++ {
		dsy := float64(sy) - y2
		rowOff := sy * fb.Width
		for sx := minX; sx <= maxX; sx++ {
			dsx := float64(sx) - x2
			w0 := (dy12*dsx + dx21*dsy) * invDet
			w1 := (dy20*dsx + dx02*dsy) * invDet
			w2 := 1.0 - w0 - w1

			if w0 < -0.001 || w1 < -0.001 || w2 < -0.001 {
				continue
			}

			z := w0*z0 + w1*z1 + w2*z2
			zIdx := rowOff + sx
			if z <= fb.ZBuf[zIdx] {
				continue
			}
			fb.ZBuf[zIdx] = z

			lin := col[0].Scale(w0).Add(col[1].Scale(w1)).Add(col[2].Scale(w2))
			r, g, b := lc.Apply(lin, shade)

			pxIdx := zIdx * 4
			fb.Color[pxIdx] = r
			fb.Color[pxIdx+1] = g
			fb.Color[pxIdx+2] = b
			fb.Color[pxIdx+3] = 255
		}
	}
}
