// Package fake implements a scripted physics world. Bodies only move when a
// test moves them, and every gravity change is recorded, which makes the
// imagination procedures testable independently of a real engine.
package fake

import (
	"github.com/edaniels/golog"
	"github.com/golang/geo/r3"
	"github.com/pkg/errors"

	"github.com/imaginelab/affordance/physics"
	"github.com/imaginelab/affordance/spatialmath"
)

const defaultStepSize = 1. / 240.

// World is a fake physics.World. The optional StepHook runs after each step
// and may reposition bodies to script a scenario.
type World struct {
	logger golog.Logger

	gravity        r3.Vector
	gravityHistory []r3.Vector
	bodies         []*Body
	steps          int
	closed         bool

	// StepHook, if set, is called after each step with the world and the
	// number of steps taken so far.
	StepHook func(w *World, step int)
}

// NewWorld returns an empty fake world.
func NewWorld(logger golog.Logger) *World {
	return &World{logger: logger}
}

// SetGravity records the new uniform force field.
func (w *World) SetGravity(g r3.Vector) {
	w.gravity = g
}

// Gravity returns the current uniform force field.
func (w *World) Gravity() r3.Vector {
	return w.gravity
}

// GravityHistory returns the gravity vector that was in effect at each step
// taken so far.
func (w *World) GravityHistory() []r3.Vector {
	return w.gravityHistory
}

// AddBody adds a stationary fake body at the given pose.
func (w *World) AddBody(spec *physics.BodySpec, pose spatialmath.Pose, static bool) (physics.Body, error) {
	if w.closed {
		return nil, errors.New("world is closed")
	}
	b := &Body{w: w, spec: spec, pose: pose, static: static}
	w.bodies = append(w.bodies, b)
	return b, nil
}

// Bodies returns all bodies currently in the world, in insertion order.
func (w *World) Bodies() []*Body {
	return w.bodies
}

// DynamicBodies returns all non-static bodies currently in the world.
func (w *World) DynamicBodies() []*Body {
	var dyn []*Body
	for _, b := range w.bodies {
		if !b.static {
			dyn = append(dyn, b)
		}
	}
	return dyn
}

// Step advances the step counter, records gravity and runs the hook.
func (w *World) Step() error {
	if w.closed {
		return errors.New("world is closed")
	}
	w.steps++
	w.gravityHistory = append(w.gravityHistory, w.gravity)
	if w.StepHook != nil {
		w.StepHook(w, w.steps)
	}
	return nil
}

// Steps returns the number of steps taken.
func (w *World) Steps() int {
	return w.steps
}

// StepSize returns the fixed step duration.
func (w *World) StepSize() float64 {
	return defaultStepSize
}

// Close marks the world unusable.
func (w *World) Close() error {
	w.closed = true
	w.bodies = nil
	return nil
}

// Body is a fake physics.Body.
type Body struct {
	w        *World
	spec     *physics.BodySpec
	pose     spatialmath.Pose
	static   bool
	removed  bool
	material physics.Material
}

// Name returns the spec name.
func (b *Body) Name() string {
	return b.spec.Name
}

// Pose returns the body's pose.
func (b *Body) Pose() spatialmath.Pose {
	return b.pose
}

// SetPose moves the body.
func (b *Body) SetPose(pose spatialmath.Pose) error {
	if b.removed {
		return errors.Errorf("body %q was removed", b.spec.Name)
	}
	b.pose = pose
	return nil
}

// AABB returns the spec's bounding box translated to the body's position.
// Rotation is ignored; fake scenarios are axis-aligned.
func (b *Body) AABB() spatialmath.AABB {
	return b.spec.BoundingBox().Translate(b.pose.Point)
}

// SetMaterial records the material.
func (b *Body) SetMaterial(m physics.Material) error {
	if b.removed {
		return errors.Errorf("body %q was removed", b.spec.Name)
	}
	b.material = m
	return nil
}

// Material returns the last recorded material.
func (b *Body) Material() physics.Material {
	return b.material
}

// Remove drops the body from the world.
func (b *Body) Remove() error {
	if b.removed {
		return errors.Errorf("body %q was already removed", b.spec.Name)
	}
	b.removed = true
	for i, other := range b.w.bodies {
		if other == b {
			b.w.bodies = append(b.w.bodies[:i], b.w.bodies[i+1:]...)
			break
		}
	}
	return nil
}
