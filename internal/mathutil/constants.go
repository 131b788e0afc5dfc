package mathutil

import "math"

// Precomputed preview camera matrices.
var (
	// ModelFlip converts Z-up scene coordinates to Y-up screen space: Rx(-90°)
	ModelFlip = RotX(math.Pi / -2)

	// ViewFront looks at a Z-up model from the front, slightly from above.
	// Rx(-10°) @ MODEL_FLIP
	ViewFront = Mat3Mul(RotX(Deg2Rad(-10)), ModelFlip)

	// ViewThreeQuarter is the default preview camera.
	// Rx(-15°) @ Ry(30°) @ MODEL_FLIP
	ViewThreeQuarter = Mat3Mul(Mat3Mul(RotX(Deg2Rad(-15)), RotY(Deg2Rad(30))), ModelFlip)

	// ViewSide looks along +X.
	ViewSide = Mat3Mul(RotY(Deg2Rad(90)), ModelFlip)
)

// ViewFromAngles builds a preview camera from a yaw and pitch in degrees
// applied after ModelFlip.
func ViewFromAngles(yawDeg, pitchDeg float64) Mat3 {
	return Mat3Mul(Mat3Mul(RotX(Deg2Rad(-pitchDeg)), RotY(Deg2Rad(yawDeg))), ModelFlip)
}
