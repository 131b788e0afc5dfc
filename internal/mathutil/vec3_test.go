package mathutil

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestVec3Basics(t *testing.T) {
	a := Vec3{1, 2, 3}
	b := Vec3{4, 6, 3}

	assert.Equal(t, Vec3{5, 8, 6}, a.Add(b))
	assert.Equal(t, Vec3{-3, -4, 0}, a.Sub(b))
	assert.Equal(t, Vec3{2, 4, 6}, a.Scale(2))
	assert.InDelta(t, 5.0, a.Dist(b), 1e-12)
	assert.InDelta(t, 25.0, b.Sub(a).LenSq(), 1e-12)
	assert.Equal(t, Vec3{0, 0, 1}, Vec3{1, 0, 0}.Cross(Vec3{0, 1, 0}))
}

func TestVec3NormalizeZero(t *testing.T) {
	assert.Equal(t, Vec3{}, Vec3{}.Normalize())
	n := Vec3{3, 0, 4}.Normalize()
	assert.InDelta(t, 1.0, n.Len(), 1e-12)
}

func TestVec3Lerp(t *testing.T) {
	a := Vec3{0, 0, 0}
	b := Vec3{2, -2, 4}
	assert.Equal(t, a, a.Lerp(b, 0))
	assert.Equal(t, b, a.Lerp(b, 1))
	assert.Equal(t, Vec3{1, -1, 2}, a.Lerp(b, 0.5))
}

func TestCentroid(t *testing.T) {
	assert.Equal(t, Vec3{}, Centroid(nil))
	c := Centroid([]Vec3{{0, 0, 0}, {2, 0, 0}, {0, 2, 0}, {2, 2, 0}})
	assert.Equal(t, Vec3{1, 1, 0}, c)
}

func TestRotationsPreserveLength(t *testing.T) {
	v := Vec3{1, 2, 3}
	for _, m := range []Mat3{RotX(0.3), RotY(-1.2), RotZ(2.5), ViewThreeQuarter, ViewFromAngles(45, 20)} {
		assert.InDelta(t, v.Len(), m.MulVec3(v).Len(), 1e-9)
	}
	assert.InDelta(t, math.Pi, Deg2Rad(180), 1e-12)
	assert.Equal(t, v, Mat3Identity().MulVec3(v))
}
