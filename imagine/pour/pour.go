// Package pour implements the pour-spillage imagination test: tip a filled
// container through a sinusoidal pitch profile at a candidate pour point and
// count how many content particles end up below the target's resting
// surface instead of inside it.
package pour

import (
	"context"
	"math"
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

// Defaults for Config fields left at their zero value.
const (
	DefaultContentCount = 40
	DefaultSteps        = 600
	DefaultMaxTipAngle  = 2 * math.Pi / 5
	DefaultAngleCount   = 8
	DefaultIndentCount  = 1
	DefaultBaseIndent   = 0.01
	DefaultSettleSteps  = 200
	DefaultMouthOffset  = 0.014
	defaultStepDelay    = time.Second / 240

	contentLateralFriction  = 0.005
	contentSpinningFriction = 0.5
	contentRollingFriction  = 0.5
)

// Config parameterizes a pour sweep.
type Config struct {
	// ContainerSpec describes the pouring container.
	ContainerSpec *physics.BodySpec
	// ContentSpec describes a single content particle.
	ContentSpec *physics.BodySpec
	// ContentCount is the number of particles poured (default 40).
	ContentCount int
	// Steps is the per-trial simulation step count (default 600): the first
	// 5/6 sweep the tip angle, the final 1/6 hold the pose.
	Steps int
	// MaxTipAngle is the peak pitch of the tip motion (default 2π/5).
	MaxTipAngle float64
	// AngleCount is the number of planar angles swept over [0, 2π)
	// (default 8). Angles overrides the uniform sweep when non-empty.
	AngleCount int
	Angles     []float64
	// IndentCount is the number of indent depths per angle (default 1).
	IndentCount int
	// BaseIndent is the first retreat distance from the nominal pour point
	// (default 1 cm); deeper indents step by a third of the target's
	// footprint diagonal divided by IndentCount.
	BaseIndent float64
	// SettleSteps lets seeded contents come to rest before tipping
	// (default 200).
	SettleSteps int
	// MouthOffset is the drop from the container's bounding-box bottom to
	// the mouth tip (default 1.4 cm).
	MouthOffset float64
	// Seed drives the randomized content sublattice.
	Seed int64
	// CheckProcess paces the run in wall-clock time for visualization; it
	// has no effect on the outcome.
	CheckProcess bool
	StepDelay    time.Duration
	Clock        clock.Clock
	// Recorder, if set, captures content pose traces during trials.
	Recorder *capture.Recorder
}

func (c Config) withDefaults() Config {
	if c.ContentCount == 0 {
		c.ContentCount = DefaultContentCount
	}
	if c.Steps == 0 {
		c.Steps = DefaultSteps
	}
	if c.MaxTipAngle == 0 {
		c.MaxTipAngle = DefaultMaxTipAngle
	}
	if c.AngleCount == 0 {
		c.AngleCount = DefaultAngleCount
	}
	if c.IndentCount == 0 {
		c.IndentCount = DefaultIndentCount
	}
	if c.BaseIndent == 0 {
		c.BaseIndent = DefaultBaseIndent
	}
	if c.SettleSteps == 0 {
		c.SettleSteps = DefaultSettleSteps
	}
	if c.MouthOffset == 0 {
		c.MouthOffset = DefaultMouthOffset
	}
	if c.StepDelay == 0 {
		c.StepDelay = defaultStepDelay
	}
	if c.Clock == nil {
		c.Clock = clock.New()
	}
	return c
}

// Trial is the spill count of one (angle, indent) configuration.
type Trial struct {
	AngleIndex  int
	IndentIndex int
	PlanarAngle float64
	Indent      float64
	Spilled     int
}

// Result is the outcome of a pour sweep: a spill-count matrix indexed by
// (angle, indent) plus the flat trial list.
type Result struct {
	Spills       [][]int
	Trials       []Trial
	ContentCount int
}

// Tester owns a world for the duration of one pour sweep. The caller
// retains ownership of the world's lifecycle and must close it.
type Tester struct {
	world           physics.World
	target          physics.Body
	targetAABB      spatialmath.AABB
	pourNominal     r3.Vector
	indentLength    float64
	containerBounds spatialmath.AABB
	contentBounds   spatialmath.AABB
	contents        []physics.Body
	cfg             Config
	rng             *rand.Rand
	logger          golog.Logger
}

// NewTester prepares a world for a pour sweep: ground plane, pinned target,
// and the reusable content particles. pourPoint is relative to the target's
// placement, matching how candidate pour points are produced upstream.
func NewTester(
	world physics.World,
	targetSpec *physics.BodySpec,
	targetPose spatialmath.Pose,
	pourPoint r3.Vector,
	cfg Config,
	logger golog.Logger,
) (*Tester, error) {
	cfg = cfg.withDefaults()
	if cfg.ContainerSpec == nil || cfg.ContentSpec == nil {
		return nil, errors.New("pour test needs container and content specs")
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
	aabb := target.AABB()

	footprint := aabb.Size()
	diagonal := math.Hypot(footprint.X, footprint.Y)

	t := &Tester{
		world:           world,
		target:          target,
		targetAABB:      aabb,
		pourNominal:     pourPoint.Add(targetPose.Point),
		indentLength:    diagonal / (3 * float64(cfg.IndentCount)),
		containerBounds: cfg.ContainerSpec.BoundingBox(),
		contentBounds:   cfg.ContentSpec.BoundingBox(),
		cfg:             cfg,
		rng:             rand.New(rand.NewSource(cfg.Seed)),
		logger:          logger,
	}

	// Content particles are created once and reseeded for every trial.
	// Staged well above the scene so they cannot disturb it between trials.
	material := cfg.ContentSpec.Material
	material.Restitution = 0
	material.LateralFriction = contentLateralFriction
	material.SpinningFriction = contentSpinningFriction
	material.RollingFriction = contentRollingFriction
	for i := 0; i < cfg.ContentCount; i++ {
		content, err := world.AddBody(cfg.ContentSpec, stagingPose(i), false)
		if err != nil {
			return nil, errors.Wrap(err, "cannot add content particle")
		}
		if err := content.SetMaterial(material); err != nil {
			return nil, err
		}
		t.contents = append(t.contents, content)
	}
	return t, nil
}

// stagingPose parks the i-th content particle on a sparse grid far above
// the workspace.
func stagingPose(i int) spatialmath.Pose {
	return spatialmath.Pose{
		Point:       r3.Vector{X: float64(i%8) * 0.1, Y: float64(i/8) * 0.1, Z: 10},
		Orientation: spatialmath.NewZeroPose().Orientation,
	}
}

// TargetAABB returns the bounding volume captured for this sweep.
func (t *Tester) TargetAABB() spatialmath.AABB {
	return t.targetAABB
}

// Angles returns the planar angles the sweep will visit.
func (t *Tester) Angles() []float64 {
	if len(t.cfg.Angles) > 0 {
		return t.cfg.Angles
	}
	angles := make([]float64, t.cfg.AngleCount)
	for k := range angles {
		angles[k] = float64(k) / float64(t.cfg.AngleCount) * 2 * math.Pi
	}
	return angles
}

// Run sweeps every configured planar angle and indent depth and returns the
// spill-count matrix.
func (t *Tester) Run(ctx context.Context) (Result, error) {
	angles := t.Angles()
	result := Result{
		Spills:       make([][]int, len(angles)),
		ContentCount: t.cfg.ContentCount,
	}
	for k, angle := range angles {
		result.Spills[k] = make([]int, t.cfg.IndentCount)
		for j := 0; j < t.cfg.IndentCount; j++ {
			indent := t.cfg.BaseIndent + float64(j)*t.indentLength
			spilled, err := t.pourOnce(ctx, angle, indent)
			if err != nil {
				return Result{}, errors.Wrapf(err, "pour trial angle %d indent %d failed", k, j)
			}
			result.Spills[k][j] = spilled
			result.Trials = append(result.Trials, Trial{
				AngleIndex:  k,
				IndentIndex: j,
				PlanarAngle: angle,
				Indent:      indent,
				Spilled:     spilled,
			})
			t.logger.Infof("pour angle %.3f rad indent %.3f m: spilled %d/%d",
				angle, indent, spilled, t.cfg.ContentCount)
		}
	}
	return result, nil
}

// pourOnce runs a single pour trial: place the container so its mouth sits
// on the retreated pour point, fill and settle the contents, sweep the tip
// profile, hold, then count spills. The container exists only for the trial.
func (t *Tester) pourOnce(ctx context.Context, planarAngle, indent float64) (spilled int, err error) {
	pourPos := retreatPoint(t.pourNominal, planarAngle, indent)
	basePose, pivotLocal := containerPlacement(pourPos, planarAngle, t.containerBounds, t.cfg.MouthOffset)

	container, err := t.world.AddBody(t.cfg.ContainerSpec, basePose, true)
	if err != nil {
		return 0, errors.Wrapf(err, "cannot add container %q", t.cfg.ContainerSpec.Name)
	}
	defer func() {
		err = multierr.Combine(err, container.Remove())
	}()

	if err := t.seedContents(ctx, basePose.Point, planarAngle); err != nil {
		return 0, err
	}

	motionSteps := 5 * t.cfg.Steps / 6
	for i := 0; i < motionSteps; i++ {
		if ctx.Err() != nil {
			return 0, ctx.Err()
		}
		orientation := tipOrientation(planarAngle, t.cfg.MaxTipAngle, i, motionSteps)
		if err := container.SetPose(pivotPose(pourPos, pivotLocal, orientation)); err != nil {
			return 0, err
		}
		if err := t.step(i); err != nil {
			return 0, err
		}
	}
	for i := motionSteps; i < t.cfg.Steps; i++ {
		if ctx.Err() != nil {
			return 0, ctx.Err()
		}
		if err := t.step(i); err != nil {
			return 0, err
		}
	}

	return t.countSpilled(), nil
}

func (t *Tester) step(i int) error {
	if err := t.world.Step(); err != nil {
		return errors.Wrapf(err, "step %d failed", i)
	}
	if t.cfg.CheckProcess {
		t.cfg.Clock.Sleep(t.cfg.StepDelay)
	}
	return t.cfg.Recorder.Record(i, t.contents)
}

// seedContents repositions the content particles on a randomized interior
// sublattice of the container and lets them settle.
func (t *Tester) seedContents(ctx context.Context, containerBase r3.Vector, planarAngle float64) error {
	offsets, err := contentOffsets(t.containerBounds, t.contentBounds, t.cfg.ContentCount, planarAngle, t.rng)
	if err != nil {
		return err
	}
	for i, content := range t.contents {
		if err := content.SetPose(spatialmath.Pose{
			Point:       containerBase.Add(offsets[i]),
			Orientation: spatialmath.NewZeroPose().Orientation,
		}); err != nil {
			return err
		}
	}
	for i := 0; i < t.cfg.SettleSteps; i++ {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if err := t.world.Step(); err != nil {
			return errors.Wrapf(err, "settle step %d failed", i)
		}
		if t.cfg.CheckProcess {
			t.cfg.Clock.Sleep(t.cfg.StepDelay)
		}
	}
	return nil
}

// countSpilled classifies each content particle by its final height: below
// the target's lowest bounding-box coordinate means it landed on the ground
// or outside the target.
func (t *Tester) countSpilled() int {
	spilled := 0
	for _, content := range t.contents {
		if content.Pose().Point.Z < t.targetAABB.Min.Z {
			spilled++
		}
	}
	return spilled
}
