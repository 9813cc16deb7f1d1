package pour

import (
	"math"
	"testing"

	"github.com/golang/geo/r3"
	"go.viam.com/test"

	"github.com/imaginelab/affordance/spatialmath"
)

func TestRetreatPoint(t *testing.T) {
	nominal := r3.Vector{X: 1, Y: 2, Z: 0.3}

	// Angle 0 retreats along -x.
	got := retreatPoint(nominal, 0, 0.1)
	test.That(t, got.X, test.ShouldAlmostEqual, 0.9)
	test.That(t, got.Y, test.ShouldAlmostEqual, 2)
	test.That(t, got.Z, test.ShouldAlmostEqual, 0.3)

	// Angle π/2 retreats along -y.
	got = retreatPoint(nominal, math.Pi/2, 0.1)
	test.That(t, got.X, test.ShouldAlmostEqual, 1, 1e-12)
	test.That(t, got.Y, test.ShouldAlmostEqual, 1.9)

	// Zero retreat is the identity.
	test.That(t, retreatPoint(nominal, 1.234, 0), test.ShouldResemble, nominal)
}

func TestContainerMouthOnPourPoint(t *testing.T) {
	bounds := spatialmath.NewAABB(
		r3.Vector{X: -0.06, Y: -0.03, Z: -0.08},
		r3.Vector{X: 0.06, Y: 0.03, Z: 0.08},
	)
	pourPos := r3.Vector{X: 0.2, Y: -0.1, Z: 0.25}

	// The container mouth must land on the pour point for every planar
	// angle, at rest and throughout the tip motion.
	const motionSteps = 500
	for k := 0; k < 8; k++ {
		angle := float64(k) / 8 * 2 * math.Pi
		basePose, pivotLocal := containerPlacement(pourPos, angle, bounds, 0.014)

		mouth := basePose.TransformPoint(pivotLocal)
		test.That(t, mouth.X, test.ShouldAlmostEqual, pourPos.X, 1e-9)
		test.That(t, mouth.Y, test.ShouldAlmostEqual, pourPos.Y, 1e-9)
		test.That(t, mouth.Z, test.ShouldAlmostEqual, pourPos.Z, 1e-9)

		for _, step := range []int{0, motionSteps / 3, motionSteps - 1} {
			orientation := tipOrientation(angle, DefaultMaxTipAngle, step, motionSteps)
			pose := pivotPose(pourPos, pivotLocal, orientation)
			mouth := pose.TransformPoint(pivotLocal)
			test.That(t, mouth.X, test.ShouldAlmostEqual, pourPos.X, 1e-9)
			test.That(t, mouth.Y, test.ShouldAlmostEqual, pourPos.Y, 1e-9)
			test.That(t, mouth.Z, test.ShouldAlmostEqual, pourPos.Z, 1e-9)
		}
	}
}

func TestTipOrientationProfile(t *testing.T) {
	const motionSteps = 500
	const angle = math.Pi / 4

	// The sweep starts level and reaches the peak tip angle at the end of
	// the motion.
	level := tipOrientation(angle, DefaultMaxTipAngle, 0, motionSteps)
	test.That(t, spatialmath.OrientationErrorBetweenQuats(
		level, spatialmath.EulerToQuat(0, 0, angle)), test.ShouldAlmostEqual, 0, 1e-9)

	peak := tipOrientation(angle, DefaultMaxTipAngle, motionSteps, motionSteps)
	test.That(t, spatialmath.OrientationErrorBetweenQuats(
		peak, spatialmath.EulerToQuat(0, DefaultMaxTipAngle, angle)), test.ShouldAlmostEqual, 0, 1e-9)

	// Pitch grows monotonically across the sweep.
	prev := -1.0
	for _, step := range []int{0, 100, 250, 400, motionSteps} {
		q := tipOrientation(angle, DefaultMaxTipAngle, step, motionSteps)
		pitch := spatialmath.OrientationErrorBetweenQuats(q, spatialmath.EulerToQuat(0, 0, angle))
		test.That(t, pitch, test.ShouldBeGreaterThanOrEqualTo, prev)
		prev = pitch
	}
}

func TestContentOffsetsInsideContainer(t *testing.T) {
	containerBounds := spatialmath.NewAABB(
		r3.Vector{X: -0.05, Y: -0.03, Z: -0.08},
		r3.Vector{X: 0.05, Y: 0.03, Z: 0.08},
	)
	contentBounds := spatialmath.NewAABB(
		r3.Vector{X: -0.005, Y: -0.005, Z: -0.005},
		r3.Vector{X: 0.005, Y: 0.005, Z: 0.005},
	)

	rng := newTestRand()
	offsets, err := contentOffsets(containerBounds, contentBounds, 100, 0, rng)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, len(offsets), test.ShouldEqual, 100)
	for _, off := range offsets {
		// At planar angle zero the offsets sit behind the mouth and within
		// the container's vertical extent.
		test.That(t, off.X, test.ShouldBeLessThanOrEqualTo, 0)
		test.That(t, off.X, test.ShouldBeGreaterThanOrEqualTo, containerBounds.Min.X)
		test.That(t, off.Z, test.ShouldBeGreaterThan, containerBounds.Min.Z)
		test.That(t, off.Z, test.ShouldBeLessThan, containerBounds.Max.Z)
	}
}

func TestContentOffsetsTooSmallContainer(t *testing.T) {
	tiny := spatialmath.NewAABB(
		r3.Vector{X: -0.01, Y: -0.01, Z: -0.01},
		r3.Vector{X: 0.01, Y: 0.01, Z: 0.01},
	)
	content := spatialmath.NewAABB(
		r3.Vector{X: -0.005, Y: -0.005, Z: -0.005},
		r3.Vector{X: 0.005, Y: 0.005, Z: 0.005},
	)
	_, err := contentOffsets(tiny, content, 10, 0, newTestRand())
	test.That(t, err, test.ShouldNotBeNil)
}
