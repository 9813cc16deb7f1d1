package containability

import (
	"context"
	"testing"

	"github.com/edaniels/golog"
	"github.com/golang/geo/r3"
	"go.viam.com/test"

	"github.com/imaginelab/affordance/physics"
	"github.com/imaginelab/affordance/physics/fake"
	"github.com/imaginelab/affordance/spatialmath"
)

func testProbeSpec() *physics.BodySpec {
	return &physics.BodySpec{
		Name:       "probe",
		Density:    200,
		Primitives: []physics.Primitive{{Type: physics.PrimitiveSphere, Radius: 0.005}},
	}
}

// cubeSpec is a 10cm cube stand-in for an open-top box target.
func cubeSpec() *physics.BodySpec {
	return &physics.BodySpec{
		Name: "cube",
		Primitives: []physics.Primitive{
			{Type: physics.PrimitiveBox, HalfExtents: r3.Vector{X: 0.05, Y: 0.05, Z: 0.05}},
		},
	}
}

func testConfig() Config {
	return Config{
		ProbeSpec: testProbeSpec(),
		Steps:     200,
		Seed:      3,
	}
}

func TestNewTesterRaisesTarget(t *testing.T) {
	logger := golog.NewTestLogger(t)
	w := fake.NewWorld(logger)
	defer func() {
		test.That(t, w.Close(), test.ShouldBeNil)
	}()

	tester, err := NewTester(w, cubeSpec(), spatialmath.NewZeroPose(), testConfig(), logger)
	test.That(t, err, test.ShouldBeNil)

	// The cube starts centered at the origin; its bottom must be lifted to
	// the minimum target height.
	aabb := tester.TargetAABB()
	test.That(t, aabb.Min.Z, test.ShouldAlmostEqual, DefaultMinTargetHeight, 1e-9)
	test.That(t, aabb.Max.Z, test.ShouldAlmostEqual, DefaultMinTargetHeight+0.1, 1e-9)
}

func TestRunContainedVerdict(t *testing.T) {
	logger := golog.NewTestLogger(t)
	w := fake.NewWorld(logger)
	defer func() {
		test.That(t, w.Close(), test.ShouldBeNil)
	}()

	cfg := testConfig()
	tester, err := NewTester(w, cubeSpec(), spatialmath.NewZeroPose(), cfg, logger)
	test.That(t, err, test.ShouldBeNil)

	// Script a deep container: at the last step every probe has settled
	// into the target's bounding volume.
	inside := tester.TargetAABB().Center()
	w.StepHook = func(w *fake.World, step int) {
		if step != cfg.Steps {
			return
		}
		for _, b := range w.DynamicBodies() {
			test.That(t, b.SetPose(spatialmath.Pose{
				Point:       inside,
				Orientation: spatialmath.NewZeroPose().Orientation,
			}), test.ShouldBeNil)
		}
	}

	result, err := tester.Run(context.Background())
	test.That(t, err, test.ShouldBeNil)
	test.That(t, result.Contained, test.ShouldBeTrue)
	test.That(t, result.RetainedCount, test.ShouldEqual, DefaultProbeCount)
	test.That(t, result.RetainedFraction, test.ShouldAlmostEqual, 1.0)
	test.That(t, len(result.RetainedDropPositions), test.ShouldEqual, DefaultProbeCount)

	// The probes existed only for the run; the world is back to the ground
	// plane and the target.
	test.That(t, len(w.Bodies()), test.ShouldEqual, 2)
}

func TestRunNotContainedVerdict(t *testing.T) {
	logger := golog.NewTestLogger(t)
	w := fake.NewWorld(logger)
	defer func() {
		test.That(t, w.Close(), test.ShouldBeNil)
	}()

	cfg := testConfig()
	tester, err := NewTester(w, cubeSpec(), spatialmath.NewZeroPose(), cfg, logger)
	test.That(t, err, test.ShouldBeNil)

	// Script a flat-plate outcome: agitation sweeps every probe onto the
	// ground, below the target's bounding volume.
	w.StepHook = func(w *fake.World, step int) {
		if step != cfg.Steps {
			return
		}
		for _, b := range w.DynamicBodies() {
			test.That(t, b.SetPose(spatialmath.Pose{
				Point:       r3.Vector{X: 0.5, Y: 0.5, Z: 0.005},
				Orientation: spatialmath.NewZeroPose().Orientation,
			}), test.ShouldBeNil)
		}
	}

	result, err := tester.Run(context.Background())
	test.That(t, err, test.ShouldBeNil)
	test.That(t, result.Contained, test.ShouldBeFalse)
	test.That(t, result.RetainedCount, test.ShouldEqual, 0)
	test.That(t, result.RetainedFraction, test.ShouldAlmostEqual, 0.0)
}

func TestRunAppliesSchedule(t *testing.T) {
	logger := golog.NewTestLogger(t)
	w := fake.NewWorld(logger)
	defer func() {
		test.That(t, w.Close(), test.ShouldBeNil)
	}()

	cfg := testConfig()
	tester, err := NewTester(w, cubeSpec(), spatialmath.NewZeroPose(), cfg, logger)
	test.That(t, err, test.ShouldBeNil)
	_, err = tester.Run(context.Background())
	test.That(t, err, test.ShouldBeNil)

	history := w.GravityHistory()
	test.That(t, len(history), test.ShouldEqual, cfg.Steps)

	schedule := NewAgitationSchedule(cfg.Steps, DefaultHorizontalStrength, DefaultVerticalGravity)
	for _, step := range []int{0, cfg.Steps / 5, cfg.Steps / 2, 3 * cfg.Steps / 5, 9 * cfg.Steps / 10, cfg.Steps - 1} {
		test.That(t, history[step], test.ShouldResemble, schedule.ForceAt(step))
	}
	// Settle phase is plain gravity; the final phase pushes on the negative
	// diagonal.
	test.That(t, history[0], test.ShouldResemble, r3.Vector{Z: -10})
	test.That(t, history[cfg.Steps-1], test.ShouldResemble, r3.Vector{X: -10, Y: -10, Z: -10})
}

func TestRunCancelled(t *testing.T) {
	logger := golog.NewTestLogger(t)
	w := fake.NewWorld(logger)
	defer func() {
		test.That(t, w.Close(), test.ShouldBeNil)
	}()

	tester, err := NewTester(w, cubeSpec(), spatialmath.NewZeroPose(), testConfig(), logger)
	test.That(t, err, test.ShouldBeNil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = tester.Run(ctx)
	test.That(t, err, test.ShouldNotBeNil)

	// Probes are cleaned up on the failure path too.
	test.That(t, len(w.Bodies()), test.ShouldEqual, 2)
}

func TestNewTesterRequiresProbeSpec(t *testing.T) {
	logger := golog.NewTestLogger(t)
	w := fake.NewWorld(logger)
	defer func() {
		test.That(t, w.Close(), test.ShouldBeNil)
	}()

	_, err := NewTester(w, cubeSpec(), spatialmath.NewZeroPose(), Config{}, logger)
	test.That(t, err, test.ShouldNotBeNil)
}
