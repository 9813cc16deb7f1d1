package manipulator

import (
	"context"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/edaniels/golog"
	"github.com/golang/geo/r3"
	"github.com/pkg/errors"

	"github.com/imaginelab/affordance/spatialmath"
)

// ErrOutOfWorkspace reports that a goal pose could not be reached within the
// finger pose tolerances. A convergence timeout alone is not an error; the
// pose check after the control loop decides.
var ErrOutOfWorkspace = errors.New("goal pose is out of the manipulator workspace")

// Defaults for Config fields left at their zero value. The finger offset is
// the fixed transform from the end-effector frame to the point centered
// between the gripper finger tips.
const (
	DefaultPosTolerance   = 0.1   // 10 cm
	DefaultOrnTolerance   = 0.15  // about 10 degrees
	DefaultJointTolerance = 0.001 // summed over all arm joints
	DefaultMaxMoveSteps   = 2400  // about 10 s of control
	DefaultGripperSteps   = 200   // about 1 s to open or close
	defaultStepDelay      = time.Second / 240

	// Position targets run at a fraction of each joint's velocity limit to
	// avoid servo overshoot.
	velocityDivisor = 5
)

// DefaultFingerOffset is the finger-center offset in the end-effector frame.
var DefaultFingerOffset = r3.Vector{X: 0.10559, Y: 0, Z: -0.00410}

// Config parameterizes a Controller.
type Config struct {
	// FingerOffset is the finger-center point in the end-effector frame.
	FingerOffset r3.Vector
	// PosTolerance and OrnTolerance bound the accepted finger pose error
	// after a move (meters, radians).
	PosTolerance float64
	OrnTolerance float64
	// JointTolerance is the summed absolute joint error below which a move
	// is considered converged.
	JointTolerance float64
	// MaxMoveSteps bounds one Cartesian move; hitting it is a soft timeout.
	MaxMoveSteps int
	// GripperSteps is the fixed step count for an open or close.
	GripperSteps int
	// CheckProcess paces the loops in wall-clock time for visualization; it
	// has no effect on the outcome.
	CheckProcess bool
	StepDelay    time.Duration
	Clock        clock.Clock
}

func (c Config) withDefaults() Config {
	if c.FingerOffset == (r3.Vector{}) {
		c.FingerOffset = DefaultFingerOffset
	}
	if c.PosTolerance == 0 {
		c.PosTolerance = DefaultPosTolerance
	}
	if c.OrnTolerance == 0 {
		c.OrnTolerance = DefaultOrnTolerance
	}
	if c.JointTolerance == 0 {
		c.JointTolerance = DefaultJointTolerance
	}
	if c.MaxMoveSteps == 0 {
		c.MaxMoveSteps = DefaultMaxMoveSteps
	}
	if c.GripperSteps == 0 {
		c.GripperSteps = DefaultGripperSteps
	}
	if c.StepDelay == 0 {
		c.StepDelay = defaultStepDelay
	}
	if c.Clock == nil {
		c.Clock = clock.New()
	}
	return c
}

// Controller drives an Arm through Cartesian finger-center goals and
// gripper open/close motions.
type Controller struct {
	arm    Arm
	cfg    Config
	logger golog.Logger
}

// NewController wraps an arm with goal-space control.
func NewController(arm Arm, cfg Config, logger golog.Logger) *Controller {
	return &Controller{arm: arm, cfg: cfg.withDefaults(), logger: logger}
}

// FingerPose returns the pose of the point centered between the finger
// tips: the end-effector pose shifted by the fixed finger offset.
func (c *Controller) FingerPose() spatialmath.Pose {
	ee := c.arm.EndEffectorPose()
	return spatialmath.Pose{
		Point:       ee.TransformPoint(c.cfg.FingerOffset),
		Orientation: ee.Orientation,
	}
}

// MoveTo drives the finger center to the goal pose. It resolves the goal
// through inverse kinematics once, then servos the arm joints at a reduced
// velocity bound until the summed joint error converges or the step budget
// runs out. Exceeding the budget is a soft timeout, not an error; the pose
// check afterwards decides reachability. The best-effort finger pose is
// returned either way.
func (c *Controller) MoveTo(ctx context.Context, goal spatialmath.Pose) (spatialmath.Pose, error) {
	// The goal addresses the finger center; shift it back to the
	// end-effector frame for the solver.
	eeGoal := spatialmath.Pose{
		Point:       goal.Point.Sub(spatialmath.RotateVector(goal.Orientation, c.cfg.FingerOffset)),
		Orientation: goal.Orientation,
	}
	targets, err := c.arm.InverseKinematics(eeGoal)
	if err != nil {
		return c.FingerPose(), errors.Wrap(err, "inverse kinematics failed")
	}
	joints := c.arm.ArmJoints()
	if len(targets) != len(joints) {
		return c.FingerPose(), errors.Errorf(
			"inverse kinematics returned %d targets for %d joints", len(targets), len(joints))
	}

	converged := false
	for step := 0; step < c.cfg.MaxMoveSteps; step++ {
		if err := ctx.Err(); err != nil {
			return c.FingerPose(), err
		}
		for i, joint := range joints {
			if err := c.arm.SetJointTarget(joint.ID, targets[i], joint.MaxVelocity/velocityDivisor); err != nil {
				return c.FingerPose(), err
			}
		}
		if err := c.step(); err != nil {
			return c.FingerPose(), err
		}
		jointErr, err := c.jointError(joints, targets)
		if err != nil {
			return c.FingerPose(), err
		}
		if jointErr <= c.cfg.JointTolerance {
			converged = true
			break
		}
	}
	if !converged {
		c.logger.Debugw("move did not converge within step budget", "steps", c.cfg.MaxMoveSteps)
	}

	finger := c.FingerPose()
	posErr := spatialmath.PointDistance(finger.Point, goal.Point)
	ornErr := spatialmath.OrientationErrorBetweenQuats(finger.Orientation, goal.Orientation)
	if posErr > c.cfg.PosTolerance || ornErr > c.cfg.OrnTolerance {
		return finger, errors.Wrapf(ErrOutOfWorkspace,
			"position error %.4f m, orientation error %.4f rad", posErr, ornErr)
	}
	return finger, nil
}

// jointError sums the absolute position error of the given joints against
// their targets.
func (c *Controller) jointError(joints []Joint, targets []float64) (float64, error) {
	total := 0.0
	for i, joint := range joints {
		pos, err := c.arm.JointPosition(joint.ID)
		if err != nil {
			return 0, err
		}
		diff := pos - targets[i]
		if diff < 0 {
			diff = -diff
		}
		total += diff
	}
	return total, nil
}

// OpenGripper drives the knuckle joints to their lower limit.
func (c *Controller) OpenGripper(ctx context.Context) error {
	return c.driveGripper(ctx, func(j Joint) float64 { return j.LowerLimit })
}

// CloseGripper drives the knuckle joints to their upper limit.
func (c *Controller) CloseGripper(ctx context.Context) error {
	return c.driveGripper(ctx, func(j Joint) float64 { return j.UpperLimit })
}

func (c *Controller) driveGripper(ctx context.Context, target func(Joint) float64) error {
	joints := c.arm.GripperJoints()
	for step := 0; step < c.cfg.GripperSteps; step++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		for _, joint := range joints {
			if err := c.arm.SetJointTarget(joint.ID, target(joint), joint.MaxVelocity/velocityDivisor); err != nil {
				return err
			}
		}
		if err := c.step(); err != nil {
			return err
		}
	}
	return nil
}

// ObjectInGripper reports whether the gripper holds something: after a
// close, knuckles stopped short of their upper limit mean an obstruction.
// Fully closed or fully open knuckles mean an empty gripper.
func (c *Controller) ObjectInGripper() (bool, error) {
	const epsilon = 0.02
	atUpper, atLower := true, true
	for _, joint := range c.arm.GripperJoints() {
		pos, err := c.arm.JointPosition(joint.ID)
		if err != nil {
			return false, err
		}
		if pos < joint.UpperLimit-epsilon {
			atUpper = false
		}
		if pos >= joint.LowerLimit+epsilon {
			atLower = false
		}
	}
	return !atUpper && !atLower, nil
}

func (c *Controller) step() error {
	if err := c.arm.Step(); err != nil {
		return err
	}
	if c.cfg.CheckProcess {
		c.cfg.Clock.Sleep(c.cfg.StepDelay)
	}
	return nil
}
