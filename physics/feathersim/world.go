// Package feathersim implements the physics capability surface on top of
// the feather rigid-body engine.
package feathersim

import (
	"github.com/akmonengine/feather"
	"github.com/edaniels/golog"
	"github.com/golang/geo/r3"
	"github.com/pkg/errors"

	"github.com/imaginelab/affordance/physics"
	"github.com/imaginelab/affordance/spatialmath"
)

const (
	// DefaultStepSize matches the fixed step the original experiments were
	// tuned against.
	DefaultStepSize = 1. / 240.

	// substeps per fixed step; feather's solver runs one iteration per
	// substep.
	defaultSubsteps = 4

	// Spatial grid sized for tabletop scenes with centimeter-scale bodies.
	gridCellSize = 0.1
	gridCells    = 4096
)

type world struct {
	logger   golog.Logger
	eng      *feather.World
	stepSize float64
	closed   bool
}

// NewWorld creates a new simulation world with the default fixed step size.
func NewWorld(logger golog.Logger) physics.World {
	return NewWorldWithStepSize(logger, DefaultStepSize)
}

// NewWorldWithStepSize creates a new simulation world advancing by the given
// fixed step, in seconds.
func NewWorldWithStepSize(logger golog.Logger, stepSize float64) physics.World {
	eng := &feather.World{
		Gravity:     vecToEngine(r3.Vector{Z: -9.81}),
		Substeps:    defaultSubsteps,
		SpatialGrid: feather.NewSpatialGrid(gridCellSize, gridCells),
		Workers:     1,
		Events:      feather.NewEvents(),
	}
	return &world{logger: logger, eng: eng, stepSize: stepSize}
}

func (w *world) SetGravity(g r3.Vector) {
	if w.closed {
		return
	}
	w.eng.Gravity = vecToEngine(g)
	// A force-field change must reach bodies the engine already put to
	// sleep.
	for _, rb := range w.eng.Bodies {
		rb.WakeUp()
	}
}

func (w *world) AddBody(spec *physics.BodySpec, pose spatialmath.Pose, static bool) (physics.Body, error) {
	if w.closed {
		return nil, errors.New("world is closed")
	}
	if !static && len(spec.Primitives) != 1 {
		return nil, errors.Errorf("dynamic body %q must have exactly one primitive, got %d",
			spec.Name, len(spec.Primitives))
	}
	b := &body{w: w, spec: spec, framePose: pose, static: static}
	for i := range spec.Primitives {
		part, err := newPart(&spec.Primitives[i], spec, pose, static)
		if err != nil {
			return nil, errors.Wrapf(err, "cannot instantiate body %q", spec.Name)
		}
		b.parts = append(b.parts, part)
		w.eng.AddBody(part.rb)
	}
	if err := b.SetMaterial(spec.Material); err != nil {
		return nil, err
	}
	return b, nil
}

func (w *world) Step() error {
	if w.closed {
		return errors.New("world is closed")
	}
	w.eng.Step(w.stepSize)
	return nil
}

func (w *world) StepSize() float64 {
	return w.stepSize
}

func (w *world) Close() error {
	if w.closed {
		return nil
	}
	w.closed = true
	w.eng.Bodies = nil
	w.eng = nil
	return nil
}
