package manipulator

import "github.com/pkg/errors"

// JointKind enumerates the joint types a manipulator model can expose.
type JointKind int

// The supported joint kinds, matching the usual rigid-body taxonomy.
const (
	JointRevolute JointKind = iota
	JointPrismatic
	JointSpherical
	JointPlanar
	JointFixed
)

// String implements fmt.Stringer.
func (k JointKind) String() string {
	switch k {
	case JointRevolute:
		return "revolute"
	case JointPrismatic:
		return "prismatic"
	case JointSpherical:
		return "spherical"
	case JointPlanar:
		return "planar"
	case JointFixed:
		return "fixed"
	default:
		return "unknown"
	}
}

// Joint describes one joint of a manipulator: its stable identifier, kind,
// travel limits and actuation limits. Only controllable joints accept
// position targets.
type Joint struct {
	ID           int
	Name         string
	Kind         JointKind
	LowerLimit   float64
	UpperLimit   float64
	MaxForce     float64
	MaxVelocity  float64
	Controllable bool
}

// Clamp limits a target position to the joint's travel range.
func (j Joint) Clamp(target float64) float64 {
	if target < j.LowerLimit {
		return j.LowerLimit
	}
	if target > j.UpperLimit {
		return j.UpperLimit
	}
	return target
}

// Validate checks that the joint record is internally consistent.
func (j Joint) Validate() error {
	if j.Name == "" {
		return errors.Errorf("joint %d has no name", j.ID)
	}
	if j.LowerLimit > j.UpperLimit {
		return errors.Errorf("joint %q has inverted limits [%f, %f]", j.Name, j.LowerLimit, j.UpperLimit)
	}
	if j.Controllable && j.MaxVelocity <= 0 {
		return errors.Errorf("controllable joint %q needs a positive max velocity", j.Name)
	}
	return nil
}
