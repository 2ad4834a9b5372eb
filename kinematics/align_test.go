package kinematics

import (
	"testing"

	"github.com/edaniels/golog"
	"github.com/go-gl/mathgl/mgl64"
	"github.com/golang/geo/r3"
	"go.viam.com/test"

	"github.com/ambf-tools/adfgo/adf"
	"github.com/ambf-tools/adfgo/scene"
	"github.com/ambf-tools/adfgo/spatialmath"
)

func canonicalRevoluteRecord() *adf.JointRecord {
	parentAxis := adf.XYZ{Z: 1}
	childPivot := adf.XYZ{}
	childAxis := adf.XYZ{Z: 1}
	return &adf.JointRecord{
		Name: "A-B", Parent: "A", Child: "B", Type: "revolute",
		ParentAxis: &parentAxis, ChildPivot: &childPivot, ChildAxis: &childAxis,
	}
}

func TestAlignCanonicalJointIsNoop(t *testing.T) {
	comp := newComposer(false)
	al := &aligner{composer: comp, logger: golog.NewTestLogger(t)}

	child := scene.NewBody("B")
	rec := canonicalRevoluteRecord()

	test.That(t, al.alignJoint(rec, child), test.ShouldBeNil)
	test.That(t, spatialmath.PoseAlmostEqual(
		comp.correction(child), mgl64.Ident4(), 1e-9, 1e-9), test.ShouldBeTrue)
	test.That(t, spatialmath.PoseAlmostEqual(
		child.Mesh, mgl64.Ident4(), 1e-9, 1e-9), test.ShouldBeTrue)
	test.That(t, rec.ChildAxis.Vector().Sub(r3.Vector{Z: 1}).Norm(), test.ShouldAlmostEqual, 0, 1e-9)
	test.That(t, rec.ChildPivot.Vector().Norm(), test.ShouldAlmostEqual, 0, 1e-9)
}

func TestAlignIsIdempotent(t *testing.T) {
	comp := newComposer(false)
	al := &aligner{composer: comp, logger: golog.NewTestLogger(t)}

	child := scene.NewBody("B")
	childPivot := adf.XYZ{X: 0.2}
	childAxis := adf.XYZ{X: 1}
	rec := canonicalRevoluteRecord()
	rec.ParentAxis = &adf.XYZ{X: 1}
	rec.ChildPivot = &childPivot
	rec.ChildAxis = &childAxis

	test.That(t, al.alignJoint(rec, child), test.ShouldBeNil)
	meshAfterFirst := child.Mesh
	// the record is canonical now, so a second pass must leave the mesh alone
	test.That(t, al.alignJoint(rec, child), test.ShouldBeNil)
	test.That(t, spatialmath.PoseAlmostEqual(
		child.Mesh, meshAfterFirst, 1e-9, 1e-9), test.ShouldBeTrue)
	test.That(t, spatialmath.PoseAlmostEqual(
		comp.correction(child), mgl64.Ident4(), 1e-9, 1e-9), test.ShouldBeTrue)
	test.That(t, rec.ChildAxis.Vector().Sub(r3.Vector{Z: 1}).Norm(), test.ShouldAlmostEqual, 0, 1e-9)
	test.That(t, rec.ChildPivot.Vector().Norm(), test.ShouldAlmostEqual, 0, 1e-9)
}
