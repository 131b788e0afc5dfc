package raster

import (
	"math"

	"elastic-fit/internal/mathutil"
)

// LightConfig holds precomputed lighting parameters.
type LightConfig struct {
	LightDir  mathutil.Vec3
	RimDir    mathutil.Vec3
	ViewDir   mathutil.Vec3
	HalfMain  mathutil.Vec3 // precomputed half-vector for Blinn-Phong
	Ambient   float64
	Hemi      float64
	Direct    float64
	Rim       float64
	SpecInt   float64
	SpecPow   float64
	Exposure  float64
	SRGBGamma float64
	InvGamma  float64
}

// DefaultLightConfig returns a soft studio rig: key light from the upper
// right, rim light from behind, low specular so cloth reads as matte.
func DefaultLightConfig() LightConfig {
	lightDir := mathutil.Vec3{180, 260, 140}.Normalize()
	rimDir := mathutil.Vec3{-160, 130, -210}.Normalize()
	viewDir := mathutil.Vec3{0, -110, -400}.Normalize()

	return LightConfig{
		LightDir:  lightDir,
		RimDir:    rimDir,
		ViewDir:   viewDir,
		HalfMain:  lightDir.Sub(viewDir).Normalize(),
		Ambient:   0.35,
		Hemi:      0.40,
		Direct:    1.10,
		Rim:       0.45,
		SpecInt:   0.15,
		SpecPow:   8.0,
		Exposure:  1.0,
		SRGBGamma: 2.2,
		InvGamma:  1.0 / 2.2,
	}
}

// ComputeShade returns the combined lighting scalar for a unit face normal.
func (lc *LightConfig) ComputeShade(normal mathutil.Vec3) float64 {
	// Lambertian (abs for double-sided)
	ndlMain := math.Abs(normal.Dot(lc.LightDir))
	ndlRim := math.Abs(normal.Dot(lc.RimDir))

	// Hemisphere fill
	hemi := (1.0-math.Abs(normal[1]))*0.5 + 0.5

	// Blinn-Phong specular
	ndh := math.Max(normal.Dot(lc.HalfMain), 0)
	spec := math.Pow(ndh, lc.SpecPow) * lc.SpecInt

	return lc.Ambient + hemi*lc.Hemi + ndlMain*lc.Direct + ndlRim*lc.Rim + spec
}

// Apply shades a linear color and returns it sRGB-encoded after ACES
// tone mapping.
func (lc *LightConfig) Apply(lin mathutil.Vec3, shade float64) (r, g, b uint8) {
	k := shade * lc.Exposure
	r = clamp255(math.Pow(ACESTonemap(lin[0]*k), lc.InvGamma) * 255)
	g = clamp255(math.Pow(ACESTonemap(lin[1]*k), lc.InvGamma) * 255)
	b = clamp255(math.Pow(ACESTonemap(lin[2]*k), lc.InvGamma) * 255)
	return r, g, b
}

// Precomputed sRGB-to-linear lookup table (256 entries).
var srgbToLinear [256]float64

func init() {
	for i := 0; i < 256; i++ {
		srgbToLinear[i] = math.Pow(float64(i)/255.0, 2.2)
	}
}

// Linear decodes an 8-bit sRGB color.
func Linear(c [3]uint8) mathutil.Vec3 {
	return mathutil.Vec3{srgbToLinear[c[0]], srgbToLinear[c[1]], srgbToLinear[c[2]]}
}

// ACESTonemap applies ACES Filmic tone mapping to a linear value.
func ACESTonemap(x float64) float64 {
	return (x * (2.51*x + 0.03)) / (x*(2.43*x+0.59) + 0.14)
}

func clamp255(v float64) uint8 {
	if v < 0 {
		return 0
	}
	if v > 255 {
		return 255
	}
	return uint8(v + 0.5)
}
