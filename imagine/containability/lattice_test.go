package containability

import (
	"math/rand"
	"testing"

	"github.com/golang/geo/r3"
	"go.viam.com/test"

	"github.com/imaginelab/affordance/spatialmath"
)

func TestDropLatticeWithinFootprint(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	bounds := spatialmath.NewAABB(
		r3.Vector{X: -0.5, Y: -0.5, Z: 0.125},
		r3.Vector{X: 0.5, Y: 0.5, Z: 0.25},
	)
	const n = 225
	positions := dropLattice(bounds, n, 0.01, rng)
	test.That(t, len(positions), test.ShouldEqual, n)

	center := bounds.Center()
	half := bounds.HalfExtents()
	for _, pos := range positions {
		test.That(t, pos.X, test.ShouldBeBetweenOrEqual, center.X-half.X, center.X+half.X)
		test.That(t, pos.Y, test.ShouldBeBetweenOrEqual, center.Y-half.Y, center.Y+half.Y)
		test.That(t, pos.Z, test.ShouldBeGreaterThanOrEqualTo, bounds.Max.Z+0.01)
	}

	// A unit footprint gives d=sqrt(225)=15, nx=ny=15: all 225 probes land
	// on the lattice plane exactly one clearance up.
	onPlane := 0
	for _, pos := range positions {
		if pos.Z == bounds.Max.Z+0.01 {
			onPlane++
		}
	}
	test.That(t, onPlane, test.ShouldEqual, 225)
}

func TestDropLatticeOverflowProbes(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	bounds := spatialmath.NewAABB(
		r3.Vector{X: -0.5, Y: -0.25, Z: 0.125},
		r3.Vector{X: 0.5, Y: 0.25, Z: 0.25},
	)
	// An uneven footprint floors away grid cells, forcing overflow probes
	// onto the randomized upper layer: d=sqrt(100/0.5)=14.14, nx=14, ny=7,
	// so two of the 100 probes overflow.
	const n = 100
	positions := dropLattice(bounds, n, 0.01, rng)
	test.That(t, len(positions), test.ShouldEqual, n)

	raised := 0
	for _, pos := range positions {
		if pos.Z > bounds.Max.Z+0.01 {
			raised++
			test.That(t, pos.Z, test.ShouldAlmostEqual, bounds.Max.Z+0.01+fallbackRaise)
		}
	}
	gridCap := 14 * 7
	test.That(t, raised, test.ShouldEqual, n-gridCap)
}

func TestDropLatticeDegenerateFootprint(t *testing.T) {
	rng := rand.New(rand.NewSource(7))

	// Zero-area footprint: every probe takes the fallback branch.
	flat := spatialmath.NewAABB(r3.Vector{}, r3.Vector{Z: 0.2})
	positions := dropLattice(flat, 50, 0.01, rng)
	test.That(t, len(positions), test.ShouldEqual, 50)
	for _, pos := range positions {
		test.That(t, pos.Z, test.ShouldAlmostEqual, 0.2+0.01+fallbackRaise)
	}

	// A sliver footprint yields nx==0 and must not divide by zero.
	sliver := spatialmath.NewAABB(
		r3.Vector{X: -0.0001, Y: -1, Z: 0},
		r3.Vector{X: 0.0001, Y: 1, Z: 0.1},
	)
	positions = dropLattice(sliver, 10, 0.01, rng)
	test.That(t, len(positions), test.ShouldEqual, 10)
	for _, pos := range positions {
		test.That(t, pos.Z, test.ShouldAlmostEqual, 0.1+0.01+fallbackRaise)
	}
}

func TestLinspace(t *testing.T) {
	test.That(t, linspace(0, 1, 1), test.ShouldResemble, []float64{0})
	test.That(t, linspace(-1, 1, 3), test.ShouldResemble, []float64{-1, 0, 1})
	vals := linspace(0, 0.09, 10)
	test.That(t, len(vals), test.ShouldEqual, 10)
	test.That(t, vals[9], test.ShouldAlmostEqual, 0.09)
}
