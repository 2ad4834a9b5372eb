// Package kinematics converts between scene body graphs and ADF joint
// geometry: extracting pivot/axis/offset parameters from world transforms on
// export, and recomposing world transforms from stored parameters on import.
package kinematics

import (
	"github.com/go-gl/mathgl/mgl64"

	"github.com/ambf-tools/adfgo/adf"
	"github.com/ambf-tools/adfgo/scene"
	"github.com/ambf-tools/adfgo/spatialmath"
)

// composer rebuilds joint and child world transforms from stored joint
// geometry during one import pass. The correction map is the only mutable
// state: it is written once per body, in hierarchy order, by the axis
// aligner, and read by that body's descendants.
type composer struct {
	ignoreOffsets bool
	corrections   map[*scene.Body]mgl64.Mat4
}

func newComposer(ignoreOffsets bool) *composer {
	return &composer{
		ignoreOffsets: ignoreOffsets,
		corrections:   map[*scene.Body]mgl64.Mat4{},
	}
}

// correction returns the accumulated CorrectionFrame for a body, identity if
// the body needed no axis alignment.
func (c *composer) correction(b *scene.Body) mgl64.Mat4 {
	if m, ok := c.corrections[b]; ok {
		return m
	}
	return mgl64.Ident4()
}

// offsetAngle returns the stored offset rotation, unless offsets were
// explicitly opted out of.
func (c *composer) offsetAngle(j *adf.JointRecord) float64 {
	if c.ignoreOffsets {
		return 0
	}
	return j.Offset
}

// jointWorldTransform reconstructs the joint frame in world space:
//
//	T_j_w = T_p_w * T_corr * P_j_p * R_offset * R_j_p
//
// where P_j_p translates by the parent pivot, R_offset rotates by the stored
// offset about the parent axis, and R_j_p maps the kind's nominal constraint
// axis onto the parent axis.
func (c *composer) jointWorldTransform(j *adf.JointRecord, parent *scene.Body) (mgl64.Mat4, error) {
	kind, err := j.Kind()
	if err != nil {
		return mgl64.Ident4(), err
	}
	parentAxis := j.ParentAxisVec()

	axis, angle, err := spatialmath.RotationBetweenWithAngle(kind.NominalAxis(), parentAxis)
	if err != nil {
		return mgl64.Ident4(), newDegenerateJointError(j.Name, err)
	}
	rJP := spatialmath.RotationAbout(axis, angle)
	pJP := spatialmath.TranslationMat(j.ParentPivotVec())
	offsetRot := spatialmath.RotationAbout(parentAxis, c.offsetAngle(j))

	return parent.World.Mul4(c.correction(parent)).Mul4(pJP).Mul4(offsetRot).Mul4(rJP), nil
}

// childWorldTransform reconstructs the child body's world transform through
// the joint:
//
//	T_c_w = T_p_w * T_corr * P_j_p * R_offset * R_c_p * P_c_j
//
// with R_c_p mapping the child axis onto the parent axis and P_c_j the
// inverse of the child pivot translation.
func (c *composer) childWorldTransform(j *adf.JointRecord, parent *scene.Body) (mgl64.Mat4, error) {
	parentAxis := j.ParentAxisVec()

	axis, angle, err := spatialmath.RotationBetweenWithAngle(j.ChildAxisVec(), parentAxis)
	if err != nil {
		return mgl64.Ident4(), newDegenerateJointError(j.Name, err)
	}
	rCP := spatialmath.RotationAbout(axis, angle)
	pJP := spatialmath.TranslationMat(j.ParentPivotVec())
	pCJ := spatialmath.TranslationMat(j.ChildPivotVec().Mul(-1))
	offsetRot := spatialmath.RotationAbout(parentAxis, c.offsetAngle(j))

	return parent.World.Mul4(c.correction(parent)).Mul4(pJP).Mul4(offsetRot).Mul4(rCP).Mul4(pCJ), nil
}
