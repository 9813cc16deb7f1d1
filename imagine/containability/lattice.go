package containability

import (
	"math"
	"math/rand"

	"github.com/golang/geo/r3"

	"github.com/imaginelab/affordance/spatialmath"
)

// fallbackRaise lifts overflow probes above the lattice plane so they do not
// start interpenetrating grid probes.
const fallbackRaise = 0.05

// dropLattice computes probe start positions above a bounding box. Probes
// are laid out on an evenly spaced grid spanning the box footprint at the
// target linear density; probes that do not fit on the grid, or all probes
// when the footprint degenerates to zero rows or columns, are placed at
// randomized positions on a higher layer.
func dropLattice(bounds spatialmath.AABB, count int, clearance float64, rng *rand.Rand) []r3.Vector {
	center := bounds.Center()
	size := bounds.Size()
	dropZ := bounds.Max.Z + clearance

	fallback := func() r3.Vector {
		return r3.Vector{
			X: center.X + rng.Float64()*size.X/2,
			Y: center.Y + rng.Float64()*size.Y/2,
			Z: dropZ + fallbackRaise,
		}
	}

	positions := make([]r3.Vector, 0, count)

	// Zero-area footprints produce no grid at all; guard before dividing.
	if size.X <= 0 || size.Y <= 0 {
		for i := 0; i < count; i++ {
			positions = append(positions, fallback())
		}
		return positions
	}

	density := math.Sqrt(float64(count) / (size.X * size.Y))
	nx := int(math.Floor(density * size.X))
	ny := int(math.Floor(density * size.Y))
	if nx < 1 || ny < 1 {
		for i := 0; i < count; i++ {
			positions = append(positions, fallback())
		}
		return positions
	}

	xs := linspace(center.X-size.X/2, center.X+size.X/2, nx)
	ys := linspace(center.Y-size.Y/2, center.Y+size.Y/2, ny)

	for i := 0; i < count; i++ {
		xi := i % nx
		yi := i / nx
		if yi >= ny {
			positions = append(positions, fallback())
			continue
		}
		positions = append(positions, r3.Vector{X: xs[xi], Y: ys[yi], Z: dropZ})
	}
	return positions
}

// linspace returns n evenly spaced values from start to stop inclusive. A
// single-element spacing returns just the start.
func linspace(start, stop float64, n int) []float64 {
	out := make([]float64, n)
	if n == 1 {
		out[0] = start
		return out
	}
	step := (stop - start) / float64(n-1)
	for i := range out {
		out[i] = start + float64(i)*step
	}
	return out
}
