package spatialmath

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/golang/geo/r3"
)

// NewPose composes a homogeneous transform from a rotation and a translation.
func NewPose(rot mgl64.Mat3, trans r3.Vector) mgl64.Mat4 {
	m := rot.Mat4()
	m.SetCol(3, mglVec(trans).Vec4(1))
	return m
}

// NewPoseFromRPY composes a homogeneous transform from a translation and
// XYZ-ordered roll/pitch/yaw Euler angles in radians.
func NewPoseFromRPY(trans r3.Vector, roll, pitch, yaw float64) mgl64.Mat4 {
	return NewPose(RPYToMat(roll, pitch, yaw), trans)
}

// RPYToMat converts XYZ-ordered roll/pitch/yaw Euler angles (radians) to a
// rotation matrix, R = Rz(yaw) * Ry(pitch) * Rx(roll).
func RPYToMat(roll, pitch, yaw float64) mgl64.Mat3 {
	return mgl64.Rotate3DZ(yaw).Mul3(mgl64.Rotate3DY(pitch)).Mul3(mgl64.Rotate3DX(roll))
}

// MatToRPY converts a rotation matrix to XYZ-ordered roll/pitch/yaw Euler
// angles in radians. Near the pitch singularity yaw is pinned to zero.
func MatToRPY(m mgl64.Mat3) (roll, pitch, yaw float64) {
	sy := math.Sqrt(m.At(0, 0)*m.At(0, 0) + m.At(1, 0)*m.At(1, 0))
	if sy < 1e-6 {
		roll = math.Atan2(-m.At(1, 2), m.At(1, 1))
		pitch = math.Atan2(-m.At(2, 0), sy)
		yaw = 0
		return
	}
	roll = math.Atan2(m.At(2, 1), m.At(2, 2))
	pitch = math.Atan2(-m.At(2, 0), sy)
	yaw = math.Atan2(m.At(1, 0), m.At(0, 0))
	return
}

// Translation returns the translation component of a homogeneous transform.
func Translation(m mgl64.Mat4) r3.Vector {
	return r3Vec(m.Col(3).Vec3())
}

// TranslationMat returns a pure-translation homogeneous transform.
func TranslationMat(v r3.Vector) mgl64.Mat4 {
	return mgl64.Translate3D(v.X, v.Y, v.Z)
}

// Rotation returns the upper-left rotation block of a homogeneous transform.
func Rotation(m mgl64.Mat4) mgl64.Mat3 {
	return m.Mat3()
}

// StripScale decomposes a transform carrying scale and returns the rigid
// rotation+translation part. Axis extraction requires an orthonormal rotation
// block; a scaled basis silently corrupts pivot and axis math.
func StripScale(m mgl64.Mat4) mgl64.Mat4 {
	out := mgl64.Ident4()
	for c := 0; c < 3; c++ {
		col := m.Col(c).Vec3()
		if n := col.Len(); n > 1e-12 {
			col = col.Mul(1 / n)
		}
		out.SetCol(c, col.Vec4(0))
	}
	out.SetCol(3, m.Col(3))
	return out
}

// TransformDirection rotates a direction vector by the rotation block of m,
// ignoring translation.
func TransformDirection(m mgl64.Mat4, v r3.Vector) r3.Vector {
	out := m.Mul4x1(mglVec(v).Vec4(0))
	return r3Vec(out.Vec3())
}

// TransformPoint applies the full transform m to a point.
func TransformPoint(m mgl64.Mat4, v r3.Vector) r3.Vector {
	out := m.Mul4x1(mglVec(v).Vec4(1))
	return r3Vec(out.Vec3())
}

// PoseAlmostEqual reports whether two rigid transforms agree within delta on
// translation and within angleDelta radians on rotation.
func PoseAlmostEqual(a, b mgl64.Mat4, delta, angleDelta float64) bool {
	if Translation(a).Sub(Translation(b)).Norm() > delta {
		return false
	}
	diff := Rotation(a).Transpose().Mul3(Rotation(b))
	_, angle := AxisAngleOfMat(diff)
	return math.Abs(angle) <= angleDelta
}
