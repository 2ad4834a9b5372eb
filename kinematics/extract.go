package kinematics

import (
	"math"

	"github.com/golang/geo/r3"
	"github.com/pkg/errors"

	"github.com/ambf-tools/adfgo/scene"
	"github.com/ambf-tools/adfgo/spatialmath"
)

// Offsets smaller than this are dropped entirely; the pivot and axis already
// describe the pose to serialization precision.
const minOffsetAngle = 0.01 // radians

// Dot-product tolerance for deciding whether the residual rotation axis lies
// along the joint axis.
const offsetAxisTolerance = 0.1

// JointGeometry holds the relative-pose parameters that fully reconstruct a
// child body's transform when composed back through the joint.
type JointGeometry struct {
	ParentPivot r3.Vector
	ParentAxis  r3.Vector
	ChildPivot  r3.Vector
	ChildAxis   r3.Vector
	// Offset is the residual rotation about the constraint axis not captured
	// by pivot and axis alone.
	Offset   float64
	Detached bool
}

// pivotAndAxis expresses the joint frame of axisSource relative to parent:
// the pivot is the translation of axisSource in parent's frame, the axis is
// the nominal constraint axis carried into parent's frame. Scale is stripped
// from both world transforms first; a scaled basis would corrupt the axis.
func pivotAndAxis(parent, axisSource *scene.Body, nominalAxis r3.Vector) (r3.Vector, r3.Vector, error) {
	if nominalAxis.Norm() == 0 {
		return r3.Vector{}, r3.Vector{}, spatialmath.ErrZeroLengthVector
	}
	tPW := spatialmath.StripScale(parent.World)
	tCW := spatialmath.StripScale(axisSource.World)
	tCP := tPW.Inv().Mul4(tCW)

	pivot := spatialmath.Translation(tCP)
	axis := spatialmath.TransformDirection(tCP, nominalAxis)
	return pivot, axis, nil
}

// ExtractJointGeometry derives the pivot, axis, and offset fields for a joint
// between parent and child. For a normal joint the joint frame coincides with
// the child frame: the child side is the canonical pivot-at-origin/nominal
// axis and only the parent side is measured. For a detached joint parent and
// child are not structurally adjacent, so both sides are measured
// independently against the joint marker body `frame` (the child itself when
// frame is nil).
//
// A returned geometry may be accompanied by ErrOffsetAxisMismatch: the
// geometry is still the best-effort value and the caller decides whether to
// keep it.
func ExtractJointGeometry(joint string, parent, child, frame *scene.Body, nominalAxis r3.Vector, detached bool) (JointGeometry, error) {
	if frame == nil {
		frame = child
	}
	geom := JointGeometry{Detached: detached}

	if detached {
		parentPivot, parentAxis, err := pivotAndAxis(parent, frame, nominalAxis)
		if err != nil {
			return geom, newDegenerateJointError(joint, err)
		}
		childPivot, childAxis, err := pivotAndAxis(child, frame, nominalAxis)
		if err != nil {
			return geom, newDegenerateJointError(joint, err)
		}
		geom.ParentPivot, geom.ParentAxis = parentPivot, parentAxis
		geom.ChildPivot, geom.ChildAxis = childPivot, childAxis
	} else {
		parentPivot, parentAxis, err := pivotAndAxis(parent, child, nominalAxis)
		if err != nil {
			return geom, newDegenerateJointError(joint, err)
		}
		geom.ParentPivot, geom.ParentAxis = parentPivot, parentAxis
		geom.ChildPivot = r3.Vector{}
		geom.ChildAxis = nominalAxis
	}

	offset, err := extractOffset(geom.ChildAxis, geom.ParentAxis, parent, child)
	geom.Offset = offset
	if err != nil {
		return geom, errors.Wrapf(err, "joint %q", joint)
	}
	return geom, nil
}

// extractOffset computes the residual rotation about the constraint axis.
// The relative rotation implied by the stored axes alone is inverted against
// the actual parent-relative child rotation; what remains must be a rotation
// about the child axis, with the sign taken from the axis direction.
func extractOffset(childAxis, parentAxis r3.Vector, parent, child *scene.Body) (float64, error) {
	rCPAmbf, err := spatialmath.RotationBetween(childAxis, parentAxis)
	if err != nil {
		return 0, err
	}
	rPCAmbf := rCPAmbf.Inv()

	rWP := spatialmath.Rotation(spatialmath.StripScale(parent.World)).Inv()
	rCW := spatialmath.Rotation(spatialmath.StripScale(child.World))
	rCPActual := rWP.Mul3(rCW)

	rDelta := rPCAmbf.Mul3(rCPActual)
	axis, angle := spatialmath.AxisAngleOfMat(rDelta)
	if math.Abs(angle) <= minOffsetAngle {
		return 0, nil
	}

	dot := childAxis.Normalize().Dot(axis)
	switch {
	case math.Abs(1-dot) < offsetAxisTolerance:
		return angle, nil
	case math.Abs(1+dot) < offsetAxisTolerance:
		return -angle, nil
	default:
		return 0, ErrOffsetAxisMismatch
	}
}
