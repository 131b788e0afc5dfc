package raster

import (
	"math"

	"elastic-fit/internal/mathutil"
)

// DefaultFOV is the vertical field of view used for perspective previews.
const DefaultFOV = 30.0

// Camera orients and frames the preview.
type Camera struct {
	View        mathutil.Mat3
	Perspective bool
	FOV         float64 // degrees; 0 means DefaultFOV
}

// Views names the preset preview orientations.
var Views = map[string]mathutil.Mat3{
	"front":         mathutil.ViewFront,
	"side":          mathutil.ViewSide,
	"three-quarter": mathutil.ViewThreeQuarter,
}

// DefaultCamera is the three-quarter orthographic preview camera.
func DefaultCamera() Camera {
	return Camera{View: mathutil.ViewThreeQuarter}
}

// framing maps view-space coordinates to pixels.
type framing struct {
	center   mathutil.Vec3
	scale    float64
	half     float64
	camDist  float64
	zCenter  float64
	perspect bool
}

// frame fits the view-space bounds of every vertex set into a square
// render target of size pixels with margin pixels on each side.
func (c Camera) frame(sets [][]mathutil.Vec3, size, margin int) (framing, bool) {
	inf := math.Inf(1)
	lo := mathutil.Vec3{inf, inf, inf}
	hi := mathutil.Vec3{-inf, -inf, -inf}
	n := 0
	for _, verts := range sets {
		for _, v := range verts {
			t := c.View.MulVec3(v)
			lo = mathutil.MinElem(lo, t)
			hi = mathutil.MaxElem(hi, t)
			n++
		}
	}
	if n == 0 {
		return framing{}, false
	}

	f := framing{
		center:   lo.Add(hi).Scale(0.5),
		half:     float64(size) / 2,
		perspect: c.Perspective,
	}
	span := math.Max(math.Max(hi[0]-lo[0], hi[1]-lo[1]), 0.001)
	f.scale = float64(size-2*margin) / span

	if c.Perspective {
		fov := c.FOV
		if fov == 0 {
			fov = DefaultFOV
		}
		f.zCenter = f.center[2]
		f.camDist = (span / 2) / math.Tan(mathutil.Deg2Rad(fov/2))
		// Keep the near side of the bounds in front of the camera.
		f.camDist = math.Max(f.camDist, (hi[2]-lo[2])/2+span/2)
	}
	return f, true
}

// project transforms verts to screen coordinates.
func (c Camera) project(f framing, verts []mathutil.Vec3) *Screen {
	s := &Screen{
		X: make([]float64, len(verts)),
		Y: make([]float64, len(verts)),
		Z: make([]float64, len(verts)),
	}
	for i, v := range verts {
		t := c.View.MulVec3(v)
		x, y := t[0]-f.center[0], t[1]-f.center[1]
		if f.perspect {
			depth := math.Max(f.camDist-(t[2]-f.zCenter), 0.1)
			k := f.camDist / depth
			x *= k
			y *= k
		}
		s.X[i] = x*f.scale + f.half
		s.Y[i] = -y*f.scale + f.half
		s.Z[i] = t[2]
	}
	return s
}
