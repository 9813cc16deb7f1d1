// Package fake implements a deterministic gantry-style manipulator: three
// prismatic slides, a spherical wrist split into three revolute joints and a
// two-knuckle gripper. Kinematics are exact, so inverse kinematics is a
// closed-form decomposition and every servo converges without overshoot.
// It stands in for an engine-backed robot in tests and demos.
package fake

import (
	"math"

	"github.com/edaniels/golog"
	"github.com/golang/geo/r3"
	"github.com/pkg/errors"

	"github.com/imaginelab/affordance/manipulator"
	"github.com/imaginelab/affordance/spatialmath"
)

const stepSize = 1. / 240.

// Joint IDs of the gantry model.
const (
	JointSlideX = iota
	JointSlideY
	JointSlideZ
	JointWristRoll
	JointWristPitch
	JointWristYaw
	JointLeftKnuckle
	JointRightKnuckle
)

type servo struct {
	joint    manipulator.Joint
	position float64
	target   float64
	velocity float64
}

// Arm is a fake manipulator.Arm.
type Arm struct {
	logger golog.Logger
	servos []*servo

	// knuckleStop caps knuckle travel to simulate an object between the
	// fingers; at or above the upper limit it has no effect.
	knuckleStop float64
}

// NewArm returns a gantry arm with all joints at zero.
func NewArm(logger golog.Logger) *Arm {
	joints := []manipulator.Joint{
		{ID: JointSlideX, Name: "slide_x", Kind: manipulator.JointPrismatic,
			LowerLimit: -1, UpperLimit: 1, MaxForce: 150, MaxVelocity: 1, Controllable: true},
		{ID: JointSlideY, Name: "slide_y", Kind: manipulator.JointPrismatic,
			LowerLimit: -1, UpperLimit: 1, MaxForce: 150, MaxVelocity: 1, Controllable: true},
		{ID: JointSlideZ, Name: "slide_z", Kind: manipulator.JointPrismatic,
			LowerLimit: 0, UpperLimit: 2, MaxForce: 150, MaxVelocity: 1, Controllable: true},
		{ID: JointWristRoll, Name: "wrist_roll", Kind: manipulator.JointRevolute,
			LowerLimit: -math.Pi, UpperLimit: math.Pi, MaxForce: 28, MaxVelocity: math.Pi, Controllable: true},
		{ID: JointWristPitch, Name: "wrist_pitch", Kind: manipulator.JointRevolute,
			LowerLimit: -math.Pi / 2, UpperLimit: math.Pi / 2, MaxForce: 28, MaxVelocity: math.Pi, Controllable: true},
		{ID: JointWristYaw, Name: "wrist_yaw", Kind: manipulator.JointRevolute,
			LowerLimit: -math.Pi, UpperLimit: math.Pi, MaxForce: 28, MaxVelocity: math.Pi, Controllable: true},
		{ID: JointLeftKnuckle, Name: "left_inner_knuckle", Kind: manipulator.JointRevolute,
			LowerLimit: 0, UpperLimit: 0.8, MaxForce: 20, MaxVelocity: 5, Controllable: true},
		{ID: JointRightKnuckle, Name: "right_inner_knuckle", Kind: manipulator.JointRevolute,
			LowerLimit: 0, UpperLimit: 0.8, MaxForce: 20, MaxVelocity: 5, Controllable: true},
	}
	a := &Arm{logger: logger, knuckleStop: math.Inf(1)}
	for _, j := range joints {
		a.servos = append(a.servos, &servo{joint: j})
	}
	return a
}

// ArmJoints returns the six gantry joints in slide/wrist order.
func (a *Arm) ArmJoints() []manipulator.Joint {
	return a.jointRange(JointSlideX, JointWristYaw)
}

// GripperJoints returns the two knuckle joints.
func (a *Arm) GripperJoints() []manipulator.Joint {
	return a.jointRange(JointLeftKnuckle, JointRightKnuckle)
}

func (a *Arm) jointRange(from, to int) []manipulator.Joint {
	joints := make([]manipulator.Joint, 0, to-from+1)
	for _, s := range a.servos[from : to+1] {
		joints = append(joints, s.joint)
	}
	return joints
}

func (a *Arm) servoByID(id int) (*servo, error) {
	if id < 0 || id >= len(a.servos) {
		return nil, errors.Errorf("no joint with ID %d", id)
	}
	return a.servos[id], nil
}

// JointPosition reads a joint position by ID.
func (a *Arm) JointPosition(id int) (float64, error) {
	s, err := a.servoByID(id)
	if err != nil {
		return 0, err
	}
	return s.position, nil
}

// SetJointPosition teleports a joint, resetting its servo target. Used to
// establish a home configuration before control starts.
func (a *Arm) SetJointPosition(id int, position float64) error {
	s, err := a.servoByID(id)
	if err != nil {
		return err
	}
	s.position = s.joint.Clamp(position)
	s.target = s.position
	s.velocity = 0
	return nil
}

// SetJointTarget sets a position servo target with a velocity bound.
func (a *Arm) SetJointTarget(id int, target, maxVelocity float64) error {
	s, err := a.servoByID(id)
	if err != nil {
		return err
	}
	if !s.joint.Controllable {
		return errors.Errorf("joint %q is not controllable", s.joint.Name)
	}
	if maxVelocity <= 0 {
		return errors.Errorf("joint %q needs a positive velocity bound", s.joint.Name)
	}
	s.target = s.joint.Clamp(target)
	s.velocity = maxVelocity
	return nil
}

// SetKnuckleStop caps knuckle travel at the given position, simulating an
// object of that width caught between the fingers.
func (a *Arm) SetKnuckleStop(position float64) {
	a.knuckleStop = position
}

// EndEffectorPose composes the slide positions and wrist angles into the
// end-effector frame.
func (a *Arm) EndEffectorPose() spatialmath.Pose {
	return spatialmath.NewPoseFromEuler(
		r3.Vector{
			X: a.servos[JointSlideX].position,
			Y: a.servos[JointSlideY].position,
			Z: a.servos[JointSlideZ].position,
		},
		a.servos[JointWristRoll].position,
		a.servos[JointWristPitch].position,
		a.servos[JointWristYaw].position,
	)
}

// InverseKinematics decomposes an end-effector goal into slide positions and
// wrist angles. The decomposition is exact; targets outside joint travel are
// clamped, which the caller's pose check will surface as unreachable.
func (a *Arm) InverseKinematics(goal spatialmath.Pose) ([]float64, error) {
	roll, pitch, yaw := spatialmath.QuatToEuler(goal.Orientation)
	raw := []float64{goal.Point.X, goal.Point.Y, goal.Point.Z, roll, pitch, yaw}
	targets := make([]float64, len(raw))
	for i, v := range raw {
		targets[i] = a.servos[i].joint.Clamp(v)
	}
	return targets, nil
}

// Step advances every servo toward its target at its velocity bound.
func (a *Arm) Step() error {
	for _, s := range a.servos {
		limit := s.joint.UpperLimit
		if s.joint.ID == JointLeftKnuckle || s.joint.ID == JointRightKnuckle {
			limit = math.Min(limit, a.knuckleStop)
		}
		target := math.Min(s.target, limit)
		delta := target - s.position
		maxStep := s.velocity * stepSize
		if delta > maxStep {
			delta = maxStep
		} else if delta < -maxStep {
			delta = -maxStep
		}
		s.position += delta
	}
	return nil
}

// StepSize returns the fixed step duration in seconds.
func (a *Arm) StepSize() float64 {
	return stepSize
}
