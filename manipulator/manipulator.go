// Package manipulator provides typed joint records and a Cartesian goal
// controller for a simulated arm-and-gripper. Inverse kinematics and the
// underlying dynamics are capabilities of the manipulator implementation;
// the controller only issues position targets and polls errors.
package manipulator

import (
	"github.com/imaginelab/affordance/spatialmath"
)

// Arm is the capability surface a simulated manipulator must expose for the
// controller to drive it. ArmJoints and GripperJoints return the
// controllable joints of each group in a stable order; all position slices
// follow that order.
type Arm interface {
	// ArmJoints returns the controllable arm joints.
	ArmJoints() []Joint
	// GripperJoints returns the controllable gripper (knuckle) joints.
	GripperJoints() []Joint

	// JointPosition reads the current position of a joint by ID.
	JointPosition(id int) (float64, error)
	// SetJointTarget sets the position servo target for a joint, with the
	// given velocity bound.
	SetJointTarget(id int, target, maxVelocity float64) error

	// EndEffectorPose returns the pose of the end-effector frame.
	EndEffectorPose() spatialmath.Pose

	// InverseKinematics resolves an end-effector goal pose into position
	// targets for the arm joints, in ArmJoints order.
	InverseKinematics(goal spatialmath.Pose) ([]float64, error)

	// Step advances the underlying simulation by one fixed step.
	Step() error
	// StepSize returns the duration of one step in seconds.
	StepSize() float64
}
