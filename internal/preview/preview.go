// Package preview renders body + clothing frames and writes them as
// WebP, TGA or PNG.
package preview

import (
	"image"
	"image/color"
	"math"

	"gonum.org/v1/plot/palette/moreland"

	"elastic-fit/internal/mathutil"
	"elastic-fit/internal/mesh"
	"elastic-fit/internal/postprocess"
	"elastic-fit/internal/raster"
)

// Default layer colors (sRGB).
var (
	BodyColor     = [3]uint8{196, 170, 150}
	ClothingColor = [3]uint8{70, 110, 170}
)

// Options controls a preview frame.
type Options struct {
	Size        int
	Supersample int
	Camera      raster.Camera
	// Heatmap colors clothing vertices by distance from their rest
	// position instead of ClothingColor.
	Heatmap bool
	// HideBody drops the body layer.
	HideBody bool
	// Background, when set, flattens the frame onto an opaque color.
	Background *color.NRGBA
}

// DefaultOptions returns a 512 px, 2x supersampled three-quarter view.
func DefaultOptions() Options {
	return Options{Size: 512, Supersample: 2, Camera: raster.DefaultCamera()}
}

// Frame renders clothing over body. rest is only read when Heatmap is set
// and must then match clothing's vertex count.
func Frame(body, clothing *mesh.Mesh, rest []mathutil.Vec3, opts Options) *image.NRGBA {
	var layers []raster.Layer
	if body != nil && !opts.HideBody {
		layers = append(layers, raster.Layer{Mesh: body, Color: BodyColor})
	}
	if clothing != nil {
		l := raster.Layer{Mesh: clothing, Color: ClothingColor}
		if opts.Heatmap && len(rest) == len(clothing.Verts) {
			l.VertexColors = HeatColors(clothing.Verts, rest)
		}
		layers = append(layers, l)
	}

	img := raster.Render(layers, opts.Camera, opts.Size, opts.Supersample)
	img = postprocess.Downsample(img, opts.Supersample)
	if opts.Background != nil {
		img = postprocess.Flatten(img, *opts.Background)
	}
	return img
}

// HeatColors maps per-vertex displacement magnitude onto a blue-to-red
// diverging ramp normalised by the largest displacement.
func HeatColors(pos, rest []mathutil.Vec3) [][3]uint8 {
	mags := make([]float64, len(pos))
	var top float64
	for i := range pos {
		mags[i] = pos[i].Dist(rest[i])
		top = math.Max(top, mags[i])
	}

	cmap := moreland.SmoothBlueRed()
	cmap.SetMax(1)
	cmap.SetMin(0)

	out := make([][3]uint8, len(pos))
	for i, m := range mags {
		t := 0.0
		if top > 0 {
			t = math.Min(m/top, 1)
		}
		c, err := cmap.At(t)
		if err != nil {
			continue
		}
		nc := color.NRGBAModel.Convert(c).(color.NRGBA)
		out[i] = [3]uint8{nc.R, nc.G, nc.B}
	}
	return out
}
