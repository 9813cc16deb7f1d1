// Package containability implements the sphere-retention containability
// test: drop a lattice of probes onto a target object, agitate them with a
// time-varying force field, and decide whether the target can hold a
// substance from the fraction of probes its bounding volume retains.
package containability

import (
	"context"
	"math/rand"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/edaniels/golog"
	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
	"go.uber.org/multierr"

	"github.com/imaginelab/affordance/capture"
	"github.com/imaginelab/affordance/physics"
	"github.com/imaginelab/affordance/spatialmath"
)

// Defaults for Config fields left at their zero value. The probe count,
// retention threshold and disturbance strengths are empirically tuned.
const (
	DefaultProbeCount         = 225
	DefaultThreshold          = 0.2
	DefaultSteps              = 1000
	DefaultClearance          = 0.01
	DefaultMinTargetHeight    = 0.1
	DefaultHorizontalStrength = 10
	DefaultVerticalGravity    = -10
	defaultStepDelay          = time.Second / 240
)

// Config parameterizes a containability test.
type Config struct {
	// ProbeSpec describes the probe body. Its restitution is forced to zero.
	ProbeSpec *physics.BodySpec
	// ProbeCount is the number of probes dropped (default 225).
	ProbeCount int
	// Threshold is the retained fraction above which the target counts as a
	// container (default 0.2).
	Threshold float64
	// Steps is the total simulation step count (default 1000).
	Steps int
	// Clearance is the drop height above the target's bounding box top
	// (default 1 cm).
	Clearance float64
	// MinTargetHeight raises the target so its bounding box bottom sits at
	// least this high before pinning it (default 10 cm).
	MinTargetHeight float64
	// HorizontalStrength and VerticalGravity shape the agitation schedule.
	HorizontalStrength float64
	VerticalGravity    float64
	// Seed drives randomized fallback probe placement.
	Seed int64
	// CheckProcess paces the run in wall-clock time for visualization; it
	// has no effect on the outcome.
	CheckProcess bool
	StepDelay    time.Duration
	Clock        clock.Clock
	// Recorder, if set, captures body pose traces during the run.
	Recorder *capture.Recorder
}

func (c Config) withDefaults() Config {
	if c.ProbeCount == 0 {
		c.ProbeCount = DefaultProbeCount
	}
	if c.Threshold == 0 {
		c.Threshold = DefaultThreshold
	}
	if c.Steps == 0 {
		c.Steps = DefaultSteps
	}
	if c.Clearance == 0 {
		c.Clearance = DefaultClearance
	}
	if c.MinTargetHeight == 0 {
		c.MinTargetHeight = DefaultMinTargetHeight
	}
	if c.HorizontalStrength == 0 {
		c.HorizontalStrength = DefaultHorizontalStrength
	}
	if c.VerticalGravity == 0 {
		c.VerticalGravity = DefaultVerticalGravity
	}
	if c.StepDelay == 0 {
		c.StepDelay = defaultStepDelay
	}
	if c.Clock == nil {
		c.Clock = clock.New()
	}
	return c
}

// Result is the outcome of one containability run.
type Result struct {
	// Contained is true when the retained fraction exceeds the threshold.
	Contained bool
	// RetainedFraction is retained count over probe count at run end.
	RetainedFraction float64
	// RetainedCount is the number of probes inside the target's bounding
	// volume after full agitation.
	RetainedCount int
	// SettledCount is the retained count measured at the end of the settle
	// phase, before agitation; informational only.
	SettledCount int
	// RetainedDropPositions are the original drop positions of the retained
	// probes, for downstream analysis.
	RetainedDropPositions []r3.Vector
}

// Tester owns a world for the duration of one containability run. The
// caller retains ownership of the world's lifecycle and must close it.
type Tester struct {
	world      physics.World
	target     physics.Body
	targetAABB spatialmath.AABB
	cfg        Config
	schedule   Schedule
	rng        *rand.Rand
	logger     golog.Logger
}

// NewTester prepares a world for a containability test: a ground plane and
// the target object, raised clear of the ground and pinned in place. The
// target's bounding volume is captured once here and treated as immutable
// for the run.
func NewTester(
	world physics.World,
	targetSpec *physics.BodySpec,
	targetPose spatialmath.Pose,
	cfg Config,
	logger golog.Logger,
) (*Tester, error) {
	cfg = cfg.withDefaults()
	if cfg.ProbeSpec == nil {
		return nil, errors.New("containability test needs a probe spec")
	}

	ground := &physics.BodySpec{
		Name:       "ground",
		Primitives: []physics.Primitive{{Type: physics.PrimitivePlane, Normal: r3.Vector{Z: 1}}},
	}
	if _, err := world.AddBody(ground, spatialmath.NewZeroPose(), true); err != nil {
		return nil, errors.Wrap(err, "cannot add ground plane")
	}

	target, err := world.AddBody(targetSpec, targetPose, true)
	if err != nil {
		return nil, errors.Wrapf(err, "cannot add target %q", targetSpec.Name)
	}
	if err := target.SetMaterial(physics.Material{Restitution: 0}); err != nil {
		return nil, err
	}

	// Raise the target if it sits too close to the ground, then recapture
	// its bounding volume.
	aabb := target.AABB()
	if aabb.Min.Z <= cfg.MinTargetHeight {
		raised := targetPose
		raised.Point.Z += cfg.MinTargetHeight - aabb.Min.Z
		if err := target.SetPose(raised); err != nil {
			return nil, errors.Wrap(err, "cannot raise target")
		}
		aabb = target.AABB()
	}

	return &Tester{
		world:      world,
		target:     target,
		targetAABB: aabb,
		cfg:        cfg,
		schedule:   NewAgitationSchedule(cfg.Steps, cfg.HorizontalStrength, cfg.VerticalGravity),
		rng:        rand.New(rand.NewSource(cfg.Seed)),
		logger:     logger,
	}, nil
}

// TargetAABB returns the bounding volume captured for this run.
func (t *Tester) TargetAABB() spatialmath.AABB {
	return t.targetAABB
}

// Run executes the full drop-and-agitate procedure and returns the verdict.
// Probes are created at the start of the run and removed before it returns
// on every path.
func (t *Tester) Run(ctx context.Context) (result Result, err error) {
	dropPositions := dropLattice(t.targetAABB, t.cfg.ProbeCount, t.cfg.Clearance, t.rng)

	probes := make([]physics.Body, 0, t.cfg.ProbeCount)
	defer func() {
		for _, probe := range probes {
			err = multierr.Combine(err, probe.Remove())
		}
	}()

	probeMaterial := t.cfg.ProbeSpec.Material
	probeMaterial.Restitution = 0
	for i := 0; i < t.cfg.ProbeCount; i++ {
		probe, addErr := t.world.AddBody(t.cfg.ProbeSpec, spatialmath.Pose{
			Point:       dropPositions[i],
			Orientation: spatialmath.NewZeroPose().Orientation,
		}, false)
		if addErr != nil {
			return Result{}, errors.Wrap(addErr, "cannot add probe")
		}
		if matErr := probe.SetMaterial(probeMaterial); matErr != nil {
			return Result{}, matErr
		}
		probes = append(probes, probe)
	}

	midStep := t.cfg.Steps / 5
	for i := 0; i < t.cfg.Steps; i++ {
		if ctx.Err() != nil {
			return Result{}, ctx.Err()
		}
		t.world.SetGravity(t.schedule.ForceAt(i))
		if stepErr := t.world.Step(); stepErr != nil {
			return Result{}, errors.Wrapf(stepErr, "step %d failed", i)
		}
		if t.cfg.CheckProcess {
			t.cfg.Clock.Sleep(t.cfg.StepDelay)
		}
		if recErr := t.cfg.Recorder.Record(i, probes); recErr != nil {
			return Result{}, recErr
		}
		if i == midStep {
			settled, _ := countRetained(probes, dropPositions, t.targetAABB)
			result.SettledCount = settled
			t.logger.Debugf("settle phase done: %d/%d probes inside %v",
				settled, t.cfg.ProbeCount, t.targetAABB)
		}
	}

	retained, retainedDrops := countRetained(probes, dropPositions, t.targetAABB)
	result.RetainedCount = retained
	result.RetainedDropPositions = retainedDrops
	result.RetainedFraction = float64(retained) / float64(t.cfg.ProbeCount)
	result.Contained = result.RetainedFraction > t.cfg.Threshold

	t.logger.Infof("retained %d/%d probes (fraction %.3f, threshold %.3f): contained=%t",
		retained, t.cfg.ProbeCount, result.RetainedFraction, t.cfg.Threshold, result.Contained)
	return result, nil
}

// countRetained measures, from scratch, which probes currently sit strictly
// inside the bounding volume. It returns the count and the retained probes'
// original drop positions. The measurement is a pure function of the probe
// positions and the captured bounds and can run at any step.
func countRetained(
	probes []physics.Body,
	dropPositions []r3.Vector,
	bounds spatialmath.AABB,
) (int, []r3.Vector) {
	var retained []r3.Vector
	for i, probe := range probes {
		if bounds.ContainsPoint(probe.Pose().Point) {
			retained = append(retained, dropPositions[i])
		}
	}
	return len(retained), retained
}
