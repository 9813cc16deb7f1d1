// Package physics defines the rigid-body simulation capability surface the
// imagination testers consume, together with the body description format
// used to instantiate objects. Engine behavior itself (collision, dynamics,
// constraint solving) lives behind these interfaces; see the feathersim
// package for the production backend.
package physics

import (
	"github.com/golang/geo/r3"

	"github.com/imaginelab/affordance/spatialmath"
)

// Material holds the per-body contact properties a tester may override after
// instantiation.
type Material struct {
	Restitution      float64 `json:"restitution"`
	LateralFriction  float64 `json:"lateral_friction"`
	SpinningFriction float64 `json:"spinning_friction"`
	RollingFriction  float64 `json:"rolling_friction"`
}

// World is a single mutable simulation context. A world is exclusively owned
// by one running procedure for its entire lifetime and is never reused
// across runs; callers must Close it on all exit paths.
type World interface {
	// SetGravity replaces the world's uniform force field. It may be called
	// between steps to apply a time-varying field.
	SetGravity(g r3.Vector)

	// AddBody instantiates a body from a spec at the given pose. Static
	// bodies are pinned in place; their pose may still be reset through
	// Body.SetPose to drive them kinematically.
	AddBody(spec *BodySpec, pose spatialmath.Pose, static bool) (Body, error)

	// Step advances the simulation by one fixed time step.
	Step() error

	// StepSize returns the duration of one fixed step in seconds.
	StepSize() float64

	// Close tears the world down. The world and all bodies created from it
	// are unusable afterwards.
	Close() error
}

// Body is a rigid body living in a World.
type Body interface {
	// Name returns the name of the spec the body was created from.
	Name() string

	// Pose returns the body's current frame pose in world space.
	Pose() spatialmath.Pose

	// SetPose resets the body's pose, zeroing its velocities. For dynamic
	// bodies this is a teleport; for static bodies it is the kinematic
	// driving primitive.
	SetPose(pose spatialmath.Pose) error

	// AABB returns the body's current axis-aligned bounding box.
	AABB() spatialmath.AABB

	// SetMaterial overrides the body's contact material.
	SetMaterial(m Material) error

	// Remove deletes the body from its world. The body is unusable
	// afterwards.
	Remove() error
}
