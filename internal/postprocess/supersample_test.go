package postprocess

import (
	"image"
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDownsampleNoHalo(t *testing.T) {
	// Left half opaque white, right half fully transparent black.
	img := image.NewNRGBA(image.Rect(0, 0, 64, 64))
	for y := 0; y < 64; y++ {
		for x := 0; x < 32; x++ {
			img.SetNRGBA(x, y, color.NRGBA{255, 255, 255, 255})
		}
	}

	out := Downsample(img, 2)
	assert.Equal(t, image.Rect(0, 0, 32, 32), out.Bounds())

	// Edge pixels are partially transparent but stay white.
	for x := 14; x < 18; x++ {
		c := out.NRGBAAt(x, 16)
		if c.A > 16 {
			assert.GreaterOrEqual(t, c.R, uint8(240), "x=%d", x)
		}
	}
	assert.Equal(t, uint8(255), out.NRGBAAt(4, 4).A)
	assert.Zero(t, out.NRGBAAt(28, 4).A)
}

func TestDownsampleFactorOne(t *testing.T) {
	img := image.NewNRGBA(image.Rect(0, 0, 8, 8))
	assert.Same(t, img, Downsample(img, 1))
	assert.Same(t, img, Downsample(img, 0))
}

func TestFlatten(t *testing.T) {
	img := image.NewNRGBA(image.Rect(0, 0, 2, 1))
	img.SetNRGBA(0, 0, color.NRGBA{255, 0, 0, 255})
	out := Flatten(img, color.NRGBA{0, 0, 255, 255})
	assert.Equal(t, color.NRGBA{255, 0, 0, 255}, out.NRGBAAt(0, 0))
	assert.Equal(t, color.NRGBA{0, 0, 255, 255}, out.NRGBAAt(1, 0))
}
