// Package spatialmath defines the spatial mathematical operations used to
// express rigid body poses and the rotations between joint axes.
package spatialmath

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
	"gonum.org/v1/gonum/num/quat"
)

// Angles closer than this to 0 or pi are treated as parallel/anti-parallel,
// where the cross product is too small to yield a usable rotation axis.
const axisAlignmentEpsilon = 0.1 // radians

// ErrZeroLengthVector is returned when a direction vector with no length is
// passed to an operation that needs to derive an axis from it.
var ErrZeroLengthVector = errors.New("vector has zero length, cannot derive a rotation axis")

// SkewSymmetricMat returns the skew-symmetric cross-product matrix of v,
// such that SkewSymmetricMat(v).Mul3x1(w) == v x w.
func SkewSymmetricMat(v r3.Vector) mgl64.Mat3 {
	m := mgl64.Mat3{}
	m.Set(0, 1, -v.Z)
	m.Set(0, 2, v.Y)
	m.Set(1, 0, v.Z)
	m.Set(1, 2, -v.X)
	m.Set(2, 0, -v.Y)
	m.Set(2, 1, v.X)
	return m
}

// AngleBetween returns the unsigned angle between two vectors in radians.
func AngleBetween(a, b r3.Vector) (float64, error) {
	if a.Norm() == 0 || b.Norm() == 0 {
		return 0, ErrZeroLengthVector
	}
	cos := a.Normalize().Dot(b.Normalize())
	// guard acos against floating point drift outside [-1, 1]
	cos = math.Max(-1, math.Min(1, cos))
	return math.Acos(cos), nil
}

// RotationBetween returns the shortest-arc rotation mapping `from` onto `to`.
// Inputs need not be unit length. Near-parallel vectors return identity.
// Near anti-parallel vectors are a degenerate case: the cross product is
// unreliable, so a rotation axis orthogonal to `from` is built from the world
// X axis, or the world Y axis if `from` is itself nearly collinear with X.
// Otherwise the rotation is built from the skew-symmetric cross-product
// matrix via Rodrigues' formula.
// See https://math.stackexchange.com/questions/180418
func RotationBetween(from, to r3.Vector) (mgl64.Mat3, error) {
	if from.Norm() == 0 || to.Norm() == 0 {
		return mgl64.Ident3(), ErrZeroLengthVector
	}
	f := from.Normalize()
	t := to.Normalize()
	vdot := f.Dot(t)
	angle, err := AngleBetween(f, t)
	if err != nil {
		return mgl64.Ident3(), err
	}
	switch {
	case 1.0-vdot < axisAlignmentEpsilon:
		return mgl64.Ident3(), nil
	case 1.0+vdot < axisAlignmentEpsilon:
		axis := orthogonalAxisTo(f)
		return mgl64.HomogRotate3D(angle, mglVec(axis).Normalize()).Mat3(), nil
	default:
		v := f.Cross(t)
		sk := SkewSymmetricMat(v)
		sk2 := sk.Mul3(sk)
		norm2 := v.Norm2()
		return mgl64.Ident3().Add(sk).Add(sk2.Mul((1 - vdot) / norm2)), nil
	}
}

// RotationBetweenWithAngle returns the axis and unsigned angle of the
// shortest-arc rotation mapping `from` onto `to`, following the same
// degenerate-case policy as RotationBetween. The returned axis is not
// normalized; it is zero-adjacent only when the angle is near zero, in which
// case the axis choice does not matter and world Y is returned.
func RotationBetweenWithAngle(from, to r3.Vector) (r3.Vector, float64, error) {
	if from.Norm() == 0 || to.Norm() == 0 {
		return r3.Vector{}, 0, ErrZeroLengthVector
	}
	f := from.Normalize()
	t := to.Normalize()
	angle, err := AngleBetween(f, t)
	if err != nil {
		return r3.Vector{}, 0, err
	}
	var axis r3.Vector
	switch {
	case math.Abs(angle) <= axisAlignmentEpsilon:
		// rotation is near identity, any axis works
		axis = r3.Vector{Y: 1}
	case math.Abs(angle) >= math.Pi-axisAlignmentEpsilon:
		axis = orthogonalAxisTo(f)
	default:
		axis = f.Cross(t)
	}
	return axis, angle, nil
}

// orthogonalAxisTo picks a rotation axis orthogonal to v for the anti-parallel
// case. World X is tried first; if v is nearly collinear with X, world Y is
// guaranteed not to be.
func orthogonalAxisTo(v r3.Vector) r3.Vector {
	nx := r3.Vector{X: 1}
	ang, _ := AngleBetween(v, nx)
	if axisAlignmentEpsilon < math.Abs(ang) && math.Abs(ang) < math.Pi-axisAlignmentEpsilon {
		return v.Cross(nx)
	}
	return v.Cross(r3.Vector{Y: 1})
}

// RotationAbout returns the homogeneous rotation of `angle` radians about
// `axis`. A zero axis yields identity.
func RotationAbout(axis r3.Vector, angle float64) mgl64.Mat4 {
	if axis.Norm() == 0 {
		return mgl64.Ident4()
	}
	return mgl64.HomogRotate3D(angle, mglVec(axis).Normalize())
}

// AxisAngleOfMat extracts the axis and signed angle of a rotation matrix by
// way of its quaternion, in the same manner the Eigen library does.
// https://eigen.tuxfamily.org/dox/AngleAxis_8h_source.html
func AxisAngleOfMat(m mgl64.Mat3) (r3.Vector, float64) {
	mq := mgl64.Mat4ToQuat(m.Mat4())
	return QuatToAxisAngle(quat.Number{Real: mq.W, Imag: mq.X(), Jmag: mq.Y(), Kmag: mq.Z()})
}

// QuatToAxisAngle converts a quaternion to axis-angle form. The angle carries
// the sign of the real part; the axis is unit length, defaulting to X when
// the rotation is indistinguishable from identity.
func QuatToAxisAngle(q quat.Number) (r3.Vector, float64) {
	denom := quatNorm(q)
	angle := 2 * math.Atan2(denom, math.Abs(q.Real))
	if q.Real < 0 {
		angle *= -1
	}
	if denom < 1e-6 {
		return r3.Vector{X: 1}, angle
	}
	return r3.Vector{X: q.Imag / denom, Y: q.Jmag / denom, Z: q.Kmag / denom}, angle
}

// quatNorm returns the norm of the imaginary parts of the quaternion.
func quatNorm(q quat.Number) float64 {
	return math.Sqrt(q.Imag*q.Imag + q.Jmag*q.Jmag + q.Kmag*q.Kmag)
}

func mglVec(v r3.Vector) mgl64.Vec3 {
	return mgl64.Vec3{v.X, v.Y, v.Z}
}

func r3Vec(v mgl64.Vec3) r3.Vector {
	return r3.Vector{X: v.X(), Y: v.Y(), Z: v.Z()}
}
