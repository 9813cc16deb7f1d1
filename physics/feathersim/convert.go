package feathersim

import (
	"github.com/akmonengine/feather/actor"
	"github.com/go-gl/mathgl/mgl64"
	"github.com/golang/geo/r3"
	"gonum.org/v1/gonum/num/quat"

	"github.com/imaginelab/affordance/spatialmath"
)

func vecToEngine(v r3.Vector) mgl64.Vec3 {
	return mgl64.Vec3{v.X, v.Y, v.Z}
}

func vecFromEngine(v mgl64.Vec3) r3.Vector {
	return r3.Vector{X: v.X(), Y: v.Y(), Z: v.Z()}
}

func quatToEngine(q quat.Number) mgl64.Quat {
	return mgl64.Quat{W: q.Real, V: mgl64.Vec3{q.Imag, q.Jmag, q.Kmag}}
}

func quatFromEngine(q mgl64.Quat) quat.Number {
	return quat.Number{Real: q.W, Imag: q.V.X(), Jmag: q.V.Y(), Kmag: q.V.Z()}
}

func transformFromPose(pose spatialmath.Pose) actor.Transform {
	rot := quatToEngine(pose.Orientation)
	return actor.Transform{
		Position:        vecToEngine(pose.Point),
		Rotation:        rot,
		InverseRotation: rot.Inverse(),
	}
}
