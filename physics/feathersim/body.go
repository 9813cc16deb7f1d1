package feathersim

import (
	"github.com/akmonengine/feather/actor"
	"github.com/go-gl/mathgl/mgl64"
	"github.com/pkg/errors"

	"github.com/imaginelab/affordance/physics"
	"github.com/imaginelab/affordance/spatialmath"
)

// part is one engine rigid body backing a primitive of a body spec.
type part struct {
	rb     *actor.RigidBody
	center mgl64.Vec3
}

func newPart(prim *physics.Primitive, spec *physics.BodySpec, pose spatialmath.Pose, static bool) (*part, error) {
	var shape actor.ShapeInterface
	switch prim.Type {
	case physics.PrimitiveBox:
		shape = &actor.Box{HalfExtents: vecToEngine(prim.HalfExtents)}
	case physics.PrimitiveSphere:
		shape = &actor.Sphere{Radius: prim.Radius}
	case physics.PrimitivePlane:
		shape = &actor.Plane{Normal: vecToEngine(prim.Normal), Distance: 0}
	default:
		return nil, errors.Errorf("unknown primitive type %q", prim.Type)
	}

	bodyType := actor.BodyTypeDynamic
	if static {
		bodyType = actor.BodyTypeStatic
	}
	transform := transformFromPose(pose.Compose(spatialmath.Pose{
		Point:       prim.Center,
		Orientation: spatialmath.NewZeroPose().Orientation,
	}))
	rb := actor.NewRigidBody(transform, shape, bodyType, spec.Density)
	return &part{rb: rb, center: vecToEngine(prim.Center)}, nil
}

type body struct {
	w         *world
	spec      *physics.BodySpec
	parts     []*part
	framePose spatialmath.Pose
	static    bool
	removed   bool
}

func (b *body) Name() string {
	return b.spec.Name
}

func (b *body) Pose() spatialmath.Pose {
	if b.static || b.removed {
		return b.framePose
	}
	// Dynamic bodies are single primitive; recover the frame pose from the
	// engine transform and the primitive's local offset.
	p := b.parts[0]
	orientation := quatFromEngine(p.rb.Transform.Rotation)
	point := vecFromEngine(p.rb.Transform.Position).
		Sub(spatialmath.RotateVector(orientation, vecFromEngine(p.center)))
	return spatialmath.NewPose(point, orientation)
}

func (b *body) SetPose(pose spatialmath.Pose) error {
	if b.removed {
		return errors.Errorf("body %q was removed", b.spec.Name)
	}
	b.framePose = pose
	for _, p := range b.parts {
		worldPos := pose.TransformPoint(vecFromEngine(p.center))
		transform := actor.Transform{
			Position:        vecToEngine(worldPos),
			Rotation:        quatToEngine(pose.Orientation),
			InverseRotation: quatToEngine(pose.Orientation).Inverse(),
		}
		p.rb.Transform = transform
		p.rb.PreviousTransform = transform
		p.rb.Velocity = mgl64.Vec3{}
		p.rb.AngularVelocity = mgl64.Vec3{}
		p.rb.PresolveVelocity = mgl64.Vec3{}
		p.rb.PresolveAngularVelocity = mgl64.Vec3{}
		p.rb.Shape.ComputeAABB(transform)
		p.rb.WakeUp()
	}
	return nil
}

func (b *body) AABB() spatialmath.AABB {
	var bounds spatialmath.AABB
	for i, p := range b.parts {
		p.rb.Shape.ComputeAABB(p.rb.Transform)
		aabb := p.rb.Shape.GetAABB()
		partBounds := spatialmath.NewAABB(vecFromEngine(aabb.Min), vecFromEngine(aabb.Max))
		if i == 0 {
			bounds = partBounds
			continue
		}
		bounds = bounds.Union(partBounds)
	}
	return bounds
}

func (b *body) SetMaterial(m physics.Material) error {
	if b.removed {
		return errors.Errorf("body %q was removed", b.spec.Name)
	}
	for _, p := range b.parts {
		p.rb.Material.Restitution = m.Restitution
		p.rb.Material.StaticFriction = m.LateralFriction
		p.rb.Material.DynamicFriction = m.LateralFriction
		// feather has no per-contact spin/roll friction; angular damping is
		// the closest lever.
		p.rb.Material.AngularDamping = clamp01((m.SpinningFriction + m.RollingFriction) / 2)
	}
	return nil
}

func (b *body) Remove() error {
	if b.removed {
		return errors.Errorf("body %q was already removed", b.spec.Name)
	}
	if b.w.closed {
		return errors.New("world is closed")
	}
	b.removed = true
	for _, p := range b.parts {
		b.w.eng.RemoveBody(p.rb)
	}
	return nil
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
