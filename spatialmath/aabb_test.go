package spatialmath

import (
	"testing"

	"github.com/golang/geo/r3"
	"go.viam.com/test"
)

func TestAABBGeometry(t *testing.T) {
	a := NewAABB(r3.Vector{X: -1, Y: -2, Z: 0}, r3.Vector{X: 3, Y: 2, Z: 4})
	test.That(t, a.Center(), test.ShouldResemble, r3.Vector{X: 1, Y: 0, Z: 2})
	test.That(t, a.Size(), test.ShouldResemble, r3.Vector{X: 4, Y: 4, Z: 4})
	test.That(t, a.HalfExtents(), test.ShouldResemble, r3.Vector{X: 2, Y: 2, Z: 2})
}

func TestAABBContainsPoint(t *testing.T) {
	a := NewAABB(r3.Vector{X: -0.05, Y: -0.05, Z: 0}, r3.Vector{X: 0.05, Y: 0.05, Z: 0.1})

	cases := []struct {
		name     string
		pt       r3.Vector
		expected bool
	}{
		{"center", r3.Vector{X: 0, Y: 0, Z: 0.05}, true},
		{"near face inside", r3.Vector{X: 0.049, Y: 0, Z: 0.05}, true},
		{"on face", r3.Vector{X: 0.05, Y: 0, Z: 0.05}, false},
		{"outside one axis", r3.Vector{X: 0.06, Y: 0, Z: 0.05}, false},
		{"below", r3.Vector{X: 0, Y: 0, Z: -0.01}, false},
		{"above", r3.Vector{X: 0, Y: 0, Z: 0.11}, false},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			test.That(t, a.ContainsPoint(c.pt), test.ShouldEqual, c.expected)
		})
	}
}

func TestContainsPointTranslationInvariant(t *testing.T) {
	a := NewAABB(r3.Vector{X: -0.1, Y: -0.1, Z: 0}, r3.Vector{X: 0.1, Y: 0.1, Z: 0.2})
	pts := []r3.Vector{
		{X: 0, Y: 0, Z: 0.1},
		{X: 0.09, Y: -0.09, Z: 0.19},
		{X: 0.2, Y: 0, Z: 0.1},
	}
	offsets := []r3.Vector{
		{X: 1, Y: 0, Z: 0},
		{X: -3.5, Y: 2.25, Z: 10},
		{X: 1e3, Y: -1e3, Z: 5e2},
	}
	for _, pt := range pts {
		want := a.ContainsPoint(pt)
		for _, off := range offsets {
			got := a.Translate(off).ContainsPoint(pt.Add(off))
			test.That(t, got, test.ShouldEqual, want)
		}
	}
}

func TestAABBUnion(t *testing.T) {
	a := NewAABB(r3.Vector{X: -1, Y: 0, Z: 0}, r3.Vector{X: 1, Y: 1, Z: 1})
	b := NewAABB(r3.Vector{X: 0, Y: -2, Z: 0.5}, r3.Vector{X: 2, Y: 0.5, Z: 3})
	u := a.Union(b)
	test.That(t, u.Min, test.ShouldResemble, r3.Vector{X: -1, Y: -2, Z: 0})
	test.That(t, u.Max, test.ShouldResemble, r3.Vector{X: 2, Y: 1, Z: 3})
}
