package pour

import (
	"math"
	"math/rand"

	"github.com/golang/geo/r3"
	"github.com/pkg/errors"

	"github.com/imaginelab/affordance/spatialmath"
)

// contentOffsets draws randomized body-frame offsets for the content
// particles on an interior sublattice of the container: the container's
// occupied volume shrunk by the content's own bounding margins, quantized to
// content-sized cells, rotated into the pour's planar angle. Positions are
// relative to the container's base position.
func contentOffsets(
	containerBounds, contentBounds spatialmath.AABB,
	count int,
	planarAngle float64,
	rng *rand.Rand,
) ([]r3.Vector, error) {
	contentSize := contentBounds.Size()

	xRange := math.Abs(containerBounds.Min.X) - contentSize.X*2
	yRange := containerBounds.Size().Y - contentSize.Y*4
	zRange := containerBounds.Size().Z - contentSize.Z*4

	xCells := math.Floor(xRange / contentSize.X)
	yCells := math.Floor(yRange / contentSize.Y)
	zCells := math.Floor(zRange / contentSize.Z)
	if xCells < 1 || yCells < 1 || zCells < 1 {
		return nil, errors.Errorf(
			"container interior %v cannot hold content of size %v", containerBounds, contentSize)
	}

	sin, cos := math.Sincos(planarAngle)
	offsets := make([]r3.Vector, 0, count)
	for i := 0; i < count; i++ {
		xOff := float64(rng.Intn(int(xCells))+1) / xCells * xRange
		yOff := float64(rng.Intn(int(yCells))+1)/yCells*yRange + containerBounds.Min.Y - contentBounds.Min.Y*2
		zOff := float64(rng.Intn(int(zCells))+1)/zCells*zRange + containerBounds.Min.Z - contentBounds.Min.Z*2

		// Rotate the horizontal jitter into the pour direction.
		xAngled := cos*xOff + sin*yOff
		yAngled := -sin*xOff + cos*yOff

		offsets = append(offsets, r3.Vector{X: -xAngled, Y: yAngled, Z: zOff})
	}
	return offsets, nil
}
