package containability

import (
	"math"

	"github.com/golang/geo/r3"
)

// Phase is one contiguous step-index range of a force schedule. Force maps
// an absolute step index within [Start, End) to the uniform force field for
// that step.
type Phase struct {
	Name  string
	Start int
	End   int
	Force func(step int) r3.Vector
}

// Schedule is an ordered list of non-overlapping phases covering a run. It
// is evaluated purely by step index, which keeps the state machine testable
// away from the simulator.
type Schedule []Phase

// ForceAt returns the force field for the given step. Steps past the end of
// the schedule keep the last phase's field.
func (s Schedule) ForceAt(step int) r3.Vector {
	for _, phase := range s {
		if step >= phase.Start && step < phase.End {
			return phase.Force(step)
		}
	}
	if len(s) == 0 {
		return r3.Vector{}
	}
	last := s[len(s)-1]
	return last.Force(last.End - 1)
}

// PhaseAt returns the name of the phase covering the given step.
func (s Schedule) PhaseAt(step int) string {
	for _, phase := range s {
		if step >= phase.Start && step < phase.End {
			return phase.Name
		}
	}
	return ""
}

// NewAgitationSchedule builds the five-phase disturbance used by the
// containability test: settle under plain gravity, ramp a horizontal field
// up along the +x+y diagonal, hold it, ramp to the opposite diagonal, hold
// again. horizontal is the hold-phase field strength; vertical is the
// downward component kept throughout (negative z). The phase shape and
// strengths are empirically tuned, which is why they are parameters rather
// than constants.
func NewAgitationSchedule(totalSteps int, horizontal, vertical float64) Schedule {
	settleEnd := totalSteps / 5
	rampUpEnd := totalSteps / 2
	holdPosEnd := 3 * totalSteps / 5
	rampDownEnd := 9 * totalSteps / 10

	half := horizontal / 2
	rampSpan := float64(rampUpEnd - settleEnd)

	return Schedule{
		{
			Name:  "settle",
			Start: 0,
			End:   settleEnd,
			Force: func(int) r3.Vector {
				return r3.Vector{Z: vertical}
			},
		},
		{
			Name:  "ramp-up",
			Start: settleEnd,
			End:   rampUpEnd,
			Force: func(step int) r3.Vector {
				h := half + half*math.Sin(math.Pi/2*float64(step-settleEnd)/rampSpan)
				return r3.Vector{X: h, Y: h, Z: vertical}
			},
		},
		{
			Name:  "hold-pos",
			Start: rampUpEnd,
			End:   holdPosEnd,
			Force: func(int) r3.Vector {
				return r3.Vector{X: horizontal, Y: horizontal, Z: vertical}
			},
		},
		{
			Name:  "ramp-down",
			Start: holdPosEnd,
			End:   rampDownEnd,
			Force: func(step int) r3.Vector {
				h := -half - half*math.Sin(math.Pi/2*float64(step-holdPosEnd)/rampSpan)
				return r3.Vector{X: h, Y: h, Z: vertical}
			},
		},
		{
			Name:  "hold-neg",
			Start: rampDownEnd,
			End:   totalSteps,
			Force: func(int) r3.Vector {
				return r3.Vector{X: -horizontal, Y: -horizontal, Z: vertical}
			},
		},
	}
}
