// Package spatialmath defines the small spatial-math kernel shared by the
// imagination testers: axis-aligned bounding boxes, poses, and the distance
// metrics used to score convergence.
package spatialmath

import (
	"fmt"

	"github.com/golang/geo/r3"
)

// containmentScale is the uniform scale applied to both operands of the
// point-in-box predicate. Working in centimeters keeps the per-axis
// comparisons away from the denormal range for tabletop-sized objects.
const containmentScale = 100.

// AABB is an axis-aligned bounding box defined by its two extreme corners.
type AABB struct {
	Min r3.Vector
	Max r3.Vector
}

// NewAABB constructs an AABB from its min and max corners.
func NewAABB(min, max r3.Vector) AABB {
	return AABB{Min: min, Max: max}
}

// Center returns the center point of the box.
func (a AABB) Center() r3.Vector {
	return a.Min.Add(a.Max).Mul(0.5)
}

// Size returns the full extent of the box along each axis.
func (a AABB) Size() r3.Vector {
	return a.Max.Sub(a.Min)
}

// HalfExtents returns half the extent of the box along each axis.
func (a AABB) HalfExtents() r3.Vector {
	return a.Size().Mul(0.5)
}

// Translate returns the box shifted by the given offset.
func (a AABB) Translate(offset r3.Vector) AABB {
	return AABB{Min: a.Min.Add(offset), Max: a.Max.Add(offset)}
}

// Union returns the smallest AABB enclosing both boxes.
func (a AABB) Union(other AABB) AABB {
	return AABB{
		Min: r3.Vector{
			X: min(a.Min.X, other.Min.X),
			Y: min(a.Min.Y, other.Min.Y),
			Z: min(a.Min.Z, other.Min.Z),
		},
		Max: r3.Vector{
			X: max(a.Max.X, other.Max.X),
			Y: max(a.Max.Y, other.Max.Y),
			Z: max(a.Max.Z, other.Max.Z),
		},
	}
}

// ContainsPoint reports whether the point lies strictly inside the box. The
// comparison is evaluated per axis against the box center and half extents,
// both scaled by a consistent factor, so the result depends only on relative
// positions. Points exactly on a face are not contained.
func (a AABB) ContainsPoint(pt r3.Vector) bool {
	center := a.Center().Mul(containmentScale)
	half := a.HalfExtents().Mul(containmentScale)
	d := pt.Mul(containmentScale).Sub(center)
	return abs(d.X) < half.X && abs(d.Y) < half.Y && abs(d.Z) < half.Z
}

// String returns a human readable representation of the box.
func (a AABB) String() string {
	return fmt.Sprintf("AABB(min: %.3f,%.3f,%.3f max: %.3f,%.3f,%.3f)",
		a.Min.X, a.Min.Y, a.Min.Z, a.Max.X, a.Max.Y, a.Max.Z)
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
