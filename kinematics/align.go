package kinematics

import (
	"math"

	"github.com/edaniels/golog"

	"github.com/ambf-tools/adfgo/adf"
	"github.com/ambf-tools/adfgo/scene"
	"github.com/ambf-tools/adfgo/spatialmath"
	"github.com/ambf-tools/adfgo/utils"
)

// Corrections below this angle are left alone; the authored axis already
// matches the canonical one to serialization precision.
const minAlignmentAngle = 0.1 // radians

// aligner rewrites legacy bodies whose authored local joint axis differs
// from the canonical constraint axis of their joint kind. The child body's
// local geometry absorbs the difference, the stored child pivot/axis fields
// are reset to canonical values, and the correction is recorded for the
// body's descendants to compose through.
type aligner struct {
	composer *composer
	logger   golog.Logger
}

// alignJoint applies the one-time correction for j's child body. Detached
// joints never reach here; they do not constrain structural placement.
func (a *aligner) alignJoint(j *adf.JointRecord, child *scene.Body) error {
	kind, err := j.Kind()
	if err != nil {
		return err
	}
	nominalAxis := kind.NominalAxis()
	childAxis := j.ChildAxisVec()
	childPivot := j.ChildPivotVec()

	axis, angle, err := spatialmath.RotationBetweenWithAngle(nominalAxis, childAxis)
	if err != nil {
		return newDegenerateJointError(j.Name, err)
	}
	tJC := spatialmath.RotationAbout(axis, angle)
	tJC.SetCol(3, spatialmath.TranslationMat(childPivot).Col(3))
	tCJ := tJC.Inv()

	// the correction absorbs the axis misalignment: stored fields become canonical
	j.ChildPivot = &adf.XYZ{}
	j.ChildAxis = &adf.XYZ{X: nominalAxis.X, Y: nominalAxis.Y, Z: nominalAxis.Z}

	child.Mesh = tCJ.Mul4(child.Mesh)
	a.composer.corrections[child] = tCJ

	// Alignment-offset sub-procedure: after the child-side correction, the
	// parent's view of the corrected child axis must still match the parent
	// joint axis; any residual is a rotation about the nominal axis.
	parentAxis := j.ParentAxisVec()

	caAxis, caAngle, err := spatialmath.RotationBetweenWithAngle(nominalAxis, parentAxis)
	if err != nil {
		return newDegenerateJointError(j.Name, err)
	}
	rCNewP := spatialmath.RotationAbout(caAxis, caAngle).Mul4(tCJ)

	cpAxis, cpAngle, err := spatialmath.RotationBetweenWithAngle(childAxis, parentAxis)
	if err != nil {
		return newDegenerateJointError(j.Name, err)
	}
	rCP := spatialmath.RotationAbout(cpAxis, cpAngle)

	delta := rCNewP.Inv().Mul4(rCP)
	dAxis, dAngle := spatialmath.AxisAngleOfMat(delta.Mat3())
	dAxis = utils.RoundVec4(dAxis)

	// Sanity check: the residual must lie along the child axis. Surface a
	// warning rather than silently applying a wrong correction.
	if vDiff := dAxis.Cross(childAxis); vDiff.Norm() > offsetAxisTolerance && math.Abs(dAngle) > minAlignmentAngle {
		a.logger.Warnw("axis alignment sanity check failed",
			"joint", j.Name, "axis", dAxis, "angle", dAngle, "error", ErrAlignmentLogic)
	}
	if dAxis.X < 0 || dAxis.Y < 0 || dAxis.Z < 0 {
		dAngle = -dAngle
	}

	if math.Abs(dAngle) > minAlignmentAngle {
		rAO := spatialmath.RotationAbout(nominalAxis, dAngle)
		child.Mesh = rAO.Mul4(child.Mesh)
		a.composer.corrections[child] = rAO.Mul4(tCJ)
	}
	return nil
}
