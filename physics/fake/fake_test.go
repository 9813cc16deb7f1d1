package fake

import (
	"testing"

	"github.com/edaniels/golog"
	"github.com/golang/geo/r3"
	"go.viam.com/test"

	"github.com/imaginelab/affordance/physics"
	"github.com/imaginelab/affordance/spatialmath"
)

func boxSpec(name string) *physics.BodySpec {
	return &physics.BodySpec{
		Name: name,
		Primitives: []physics.Primitive{{
			Type:        physics.PrimitiveBox,
			HalfExtents: r3.Vector{X: 0.1, Y: 0.1, Z: 0.1},
		}},
	}
}

func TestGravityHistory(t *testing.T) {
	w := NewWorld(golog.NewTestLogger(t))

	w.SetGravity(r3.Vector{Z: -10})
	test.That(t, w.Step(), test.ShouldBeNil)
	w.SetGravity(r3.Vector{X: 5, Z: -10})
	test.That(t, w.Step(), test.ShouldBeNil)
	test.That(t, w.Step(), test.ShouldBeNil)

	test.That(t, w.GravityHistory(), test.ShouldResemble, []r3.Vector{
		{Z: -10},
		{X: 5, Z: -10},
		{X: 5, Z: -10},
	})
	test.That(t, w.Steps(), test.ShouldEqual, 3)
}

func TestStepHook(t *testing.T) {
	w := NewWorld(golog.NewTestLogger(t))
	b, err := w.AddBody(boxSpec("crate"), spatialmath.NewZeroPose(), false)
	test.That(t, err, test.ShouldBeNil)

	w.StepHook = func(w *World, step int) {
		pose := spatialmath.NewZeroPose()
		pose.Point.Z = float64(step)
		for _, dyn := range w.DynamicBodies() {
			test.That(t, dyn.SetPose(pose), test.ShouldBeNil)
		}
	}
	test.That(t, w.Step(), test.ShouldBeNil)
	test.That(t, w.Step(), test.ShouldBeNil)

	test.That(t, b.Pose().Point.Z, test.ShouldEqual, 2)
	// The AABB follows the scripted pose.
	test.That(t, b.AABB().Min.Z, test.ShouldAlmostEqual, 1.9)
}

func TestBodyGroups(t *testing.T) {
	w := NewWorld(golog.NewTestLogger(t))
	_, err := w.AddBody(boxSpec("table"), spatialmath.NewZeroPose(), true)
	test.That(t, err, test.ShouldBeNil)
	crate, err := w.AddBody(boxSpec("crate"), spatialmath.NewZeroPose(), false)
	test.That(t, err, test.ShouldBeNil)

	test.That(t, len(w.Bodies()), test.ShouldEqual, 2)
	dyn := w.DynamicBodies()
	test.That(t, len(dyn), test.ShouldEqual, 1)
	test.That(t, dyn[0].Name(), test.ShouldEqual, "crate")

	test.That(t, crate.Remove(), test.ShouldBeNil)
	test.That(t, len(w.Bodies()), test.ShouldEqual, 1)
	test.That(t, crate.Remove(), test.ShouldNotBeNil)
	test.That(t, crate.SetPose(spatialmath.NewZeroPose()), test.ShouldNotBeNil)
}

func TestClosedWorld(t *testing.T) {
	w := NewWorld(golog.NewTestLogger(t))
	test.That(t, w.Close(), test.ShouldBeNil)

	_, err := w.AddBody(boxSpec("crate"), spatialmath.NewZeroPose(), false)
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, w.Step(), test.ShouldNotBeNil)
}
