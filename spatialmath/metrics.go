package spatialmath

import (
	"math"

	"github.com/golang/geo/r3"
	"gonum.org/v1/gonum/num/quat"
)

// RotationMatrix is a 3x3 rotation matrix in row major order.
type RotationMatrix [9]float64

// QuatToRotationMatrix converts a unit quaternion to a rotation matrix.
func QuatToRotationMatrix(q quat.Number) RotationMatrix {
	w, x, y, z := q.Real, q.Imag, q.Jmag, q.Kmag
	return RotationMatrix{
		1 - 2*(y*y+z*z), 2 * (x*y - w*z), 2 * (x*z + w*y),
		2 * (x*y + w*z), 1 - 2*(x*x+z*z), 2 * (y*z - w*x),
		2 * (x*z - w*y), 2 * (y*z + w*x), 1 - 2*(x*x+y*y),
	}
}

// OrientationError returns the rotation angle, in radians, that takes one
// rotation matrix into the other. Zero means the orientations agree; the
// metric is symmetric in its arguments.
func OrientationError(a, b RotationMatrix) float64 {
	// tr(aᵀb) is the elementwise product of the two matrices.
	var tr float64
	for i := range a {
		tr += a[i] * b[i]
	}
	// Clamp against floating point drift outside acos's domain.
	cos := (tr - 1) / 2
	if cos > 1 {
		cos = 1
	} else if cos < -1 {
		cos = -1
	}
	return math.Acos(cos)
}

// OrientationErrorBetweenQuats is OrientationError applied to two unit
// quaternions.
func OrientationErrorBetweenQuats(a, b quat.Number) float64 {
	return OrientationError(QuatToRotationMatrix(a), QuatToRotationMatrix(b))
}

// PointDistance returns the Euclidean distance between two points.
func PointDistance(a, b r3.Vector) float64 {
	return a.Sub(b).Norm()
}
