package spatialmath

import (
	"math"

	"github.com/golang/geo/r3"
	"gonum.org/v1/gonum/num/quat"
)

// Pose represents the position and orientation of a rigid body frame in
// world space. The orientation is a unit quaternion.
type Pose struct {
	Point       r3.Vector
	Orientation quat.Number
}

// NewZeroPose returns the identity pose.
func NewZeroPose() Pose {
	return Pose{Orientation: quat.Number{Real: 1}}
}

// NewPose constructs a pose from a point and an orientation.
func NewPose(pt r3.Vector, o quat.Number) Pose {
	return Pose{Point: pt, Orientation: o}
}

// NewPoseFromEuler constructs a pose from a point and roll/pitch/yaw angles
// in radians.
func NewPoseFromEuler(pt r3.Vector, roll, pitch, yaw float64) Pose {
	return Pose{Point: pt, Orientation: EulerToQuat(roll, pitch, yaw)}
}

// TransformPoint maps a point in the pose's local frame into world space.
func (p Pose) TransformPoint(local r3.Vector) r3.Vector {
	return RotateVector(p.Orientation, local).Add(p.Point)
}

// Compose returns the pose obtained by applying other within p's frame.
func (p Pose) Compose(other Pose) Pose {
	return Pose{
		Point:       p.TransformPoint(other.Point),
		Orientation: quat.Mul(p.Orientation, other.Orientation),
	}
}

// EulerToQuat converts roll/pitch/yaw angles in radians (rotations about the
// world x, y and z axes, applied in that order) to a unit quaternion.
func EulerToQuat(roll, pitch, yaw float64) quat.Number {
	sr, cr := math.Sincos(roll / 2)
	sp, cp := math.Sincos(pitch / 2)
	sy, cy := math.Sincos(yaw / 2)
	return quat.Number{
		Real: cr*cp*cy + sr*sp*sy,
		Imag: sr*cp*cy - cr*sp*sy,
		Jmag: cr*sp*cy + sr*cp*sy,
		Kmag: cr*cp*sy - sr*sp*cy,
	}
}

// QuatToEuler converts a unit quaternion back to roll/pitch/yaw angles in
// radians. Inverse of EulerToQuat. At gimbal lock (pitch ±π/2) roll and yaw
// are degenerate; the whole residual rotation is reported as roll.
func QuatToEuler(q quat.Number) (roll, pitch, yaw float64) {
	const lock = 1 - 1e-9
	sinp := 2 * (q.Real*q.Jmag - q.Kmag*q.Imag)
	if sinp >= lock || sinp <= -lock {
		pitch = math.Copysign(math.Pi/2, sinp)
		roll = 2 * math.Atan2(q.Imag, q.Real)
		return roll, pitch, 0
	}
	roll = math.Atan2(2*(q.Real*q.Imag+q.Jmag*q.Kmag), 1-2*(q.Imag*q.Imag+q.Jmag*q.Jmag))
	pitch = math.Asin(sinp)
	yaw = math.Atan2(2*(q.Real*q.Kmag+q.Imag*q.Jmag), 1-2*(q.Jmag*q.Jmag+q.Kmag*q.Kmag))
	return roll, pitch, yaw
}

// RotateVector rotates a vector by the given unit quaternion.
func RotateVector(q quat.Number, v r3.Vector) r3.Vector {
	qv := r3.Vector{X: q.Imag, Y: q.Jmag, Z: q.Kmag}
	t := qv.Cross(v).Mul(2)
	return v.Add(t.Mul(q.Real)).Add(qv.Cross(t))
}
