package physics

import (
	"encoding/json"

	"github.com/a8m/envsubst"
	"github.com/golang/geo/r3"
	"github.com/pkg/errors"

	"github.com/imaginelab/affordance/spatialmath"
)

// PrimitiveType enumerates the collision primitives a body may be built
// from.
type PrimitiveType string

// The supported primitive types.
const (
	PrimitiveBox    = PrimitiveType("box")
	PrimitiveSphere = PrimitiveType("sphere")
	PrimitivePlane  = PrimitiveType("plane")
)

// Primitive is one collision primitive of a body, placed at a fixed offset
// in the body frame.
type Primitive struct {
	Type PrimitiveType `json:"type"`
	// Center is the primitive's offset in the body frame.
	Center r3.Vector `json:"center,omitempty"`
	// HalfExtents apply to box primitives.
	HalfExtents r3.Vector `json:"half_extents,omitempty"`
	// Radius applies to sphere primitives.
	Radius float64 `json:"radius,omitempty"`
	// Normal applies to plane primitives and must be a unit vector.
	Normal r3.Vector `json:"normal,omitempty"`
}

// BodySpec is an opaque shape description: the geometry, density and contact
// material needed to instantiate a body. Only the bounding box and the
// ability to create a body from it are consumed by the testers.
type BodySpec struct {
	Name       string      `json:"name"`
	Density    float64     `json:"density"`
	Material   Material    `json:"material"`
	Primitives []Primitive `json:"primitives"`
}

// Validate ensures all parts of the spec are valid.
func (s *BodySpec) Validate(path string) error {
	if s.Name == "" {
		return errors.Errorf("%s: body spec needs a name", path)
	}
	if len(s.Primitives) == 0 {
		return errors.Errorf("%s: body spec %q has no primitives", path, s.Name)
	}
	if s.Density < 0 {
		return errors.Errorf("%s: body spec %q has negative density", path, s.Name)
	}
	for i, prim := range s.Primitives {
		switch prim.Type {
		case PrimitiveBox:
			if prim.HalfExtents.X <= 0 || prim.HalfExtents.Y <= 0 || prim.HalfExtents.Z <= 0 {
				return errors.Errorf("%s: primitive %d of %q needs positive half extents", path, i, s.Name)
			}
		case PrimitiveSphere:
			if prim.Radius <= 0 {
				return errors.Errorf("%s: primitive %d of %q needs a positive radius", path, i, s.Name)
			}
		case PrimitivePlane:
			if prim.Normal.Norm() == 0 {
				return errors.Errorf("%s: primitive %d of %q needs a nonzero normal", path, i, s.Name)
			}
		default:
			return errors.Errorf("%s: primitive %d of %q has unknown type %q", path, i, s.Name, prim.Type)
		}
	}
	return nil
}

// BoundingBox returns the body-frame AABB of the spec, the union of its
// primitives' bounds at their local offsets. Planes contribute only their
// center point.
func (s *BodySpec) BoundingBox() spatialmath.AABB {
	var bounds spatialmath.AABB
	for i, prim := range s.Primitives {
		var half r3.Vector
		switch prim.Type {
		case PrimitiveBox:
			half = prim.HalfExtents
		case PrimitiveSphere:
			half = r3.Vector{X: prim.Radius, Y: prim.Radius, Z: prim.Radius}
		case PrimitivePlane:
		}
		primBounds := spatialmath.NewAABB(prim.Center.Sub(half), prim.Center.Add(half))
		if i == 0 {
			bounds = primBounds
			continue
		}
		bounds = bounds.Union(primBounds)
	}
	return bounds
}

// ReadBodySpec reads and validates a body spec from a JSON file. Environment
// variables referenced in the file are substituted first so asset locations
// can be injected by the caller.
func ReadBodySpec(path string) (*BodySpec, error) {
	buf, err := envsubst.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "cannot read body spec %q", path)
	}
	var spec BodySpec
	if err := json.Unmarshal(buf, &spec); err != nil {
		return nil, errors.Wrapf(err, "cannot parse body spec %q", path)
	}
	if err := spec.Validate(path); err != nil {
		return nil, err
	}
	return &spec, nil
}
