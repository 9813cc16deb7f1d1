package pour

import (
	"math"

	"github.com/golang/geo/r3"
	"gonum.org/v1/gonum/num/quat"

	"github.com/imaginelab/affordance/spatialmath"
)

// retreatPoint backs the nominal pour point off along the negative
// planar-angle direction by the given retreat distance. The height is kept.
func retreatPoint(nominal r3.Vector, planarAngle, retreat float64) r3.Vector {
	sin, cos := math.Sincos(planarAngle)
	return r3.Vector{
		X: nominal.X - retreat*cos,
		Y: nominal.Y - retreat*sin,
		Z: nominal.Z,
	}
}

// containerPlacement computes the container's starting pose for a pour at
// the given planar angle, along with the pour pivot expressed in the
// container's frame. The container is offset from the pour point by its own
// half length along the pour direction and lifted so the mouth tip sits on
// the pour point; the frame-local pivot therefore lands on the pour point
// for every planar angle.
func containerPlacement(
	pourPos r3.Vector,
	planarAngle float64,
	bounds spatialmath.AABB,
	mouthOffset float64,
) (spatialmath.Pose, r3.Vector) {
	halfLength := bounds.Max.X
	sin, cos := math.Sincos(planarAngle)

	base := r3.Vector{
		X: pourPos.X - halfLength*cos,
		Y: pourPos.Y - halfLength*sin,
		Z: pourPos.Z - bounds.Min.Z - mouthOffset,
	}
	pivotLocal := r3.Vector{X: halfLength, Y: 0, Z: pourPos.Z - base.Z}
	return spatialmath.NewPoseFromEuler(base, 0, 0, planarAngle), pivotLocal
}

// tipOrientation returns the container orientation at the given step of the
// tip motion: a sinusoidal pitch sweep from level to maxTip across
// motionSteps, with the planar angle held as yaw.
func tipOrientation(planarAngle, maxTip float64, step, motionSteps int) quat.Number {
	pitch := maxTip * math.Sin(math.Pi*2*float64(step)/float64(4*motionSteps))
	return spatialmath.EulerToQuat(0, pitch, planarAngle)
}

// pivotPose places a body so that its frame-local pivot point coincides with
// the world pivot under the given orientation.
func pivotPose(pivot, pivotLocal r3.Vector, orientation quat.Number) spatialmath.Pose {
	return spatialmath.Pose{
		Point:       pivot.Sub(spatialmath.RotateVector(orientation, pivotLocal)),
		Orientation: orientation,
	}
}
