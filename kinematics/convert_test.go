package kinematics

import (
	"testing"

	"github.com/edaniels/golog"
	"github.com/go-gl/mathgl/mgl64"
	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
	"go.viam.com/test"

	"github.com/ambf-tools/adfgo/adf"
	"github.com/ambf-tools/adfgo/scene"
	"github.com/ambf-tools/adfgo/spatialmath"
)

func jointRecordFromGeometry(name, typ string, geom JointGeometry) *adf.JointRecord {
	parentPivot := adf.NewXYZ(geom.ParentPivot)
	parentAxis := adf.NewXYZ(geom.ParentAxis)
	childPivot := adf.NewXYZ(geom.ChildPivot)
	childAxis := adf.NewXYZ(geom.ChildAxis)
	return &adf.JointRecord{
		Name:        name,
		Type:        typ,
		ParentPivot: &parentPivot,
		ParentAxis:  &parentAxis,
		ChildPivot:  &childPivot,
		ChildAxis:   &childAxis,
		Offset:      geom.Offset,
	}
}

func bodyRecordAt(name string, pos r3.Vector) *adf.BodyRecord {
	return &adf.BodyRecord{
		Name:     name,
		Mesh:     name + ".STL",
		Mass:     1,
		Location: adf.PoseField{Position: adf.NewXYZ(pos)},
	}
}

func qualified(name string) string {
	return adf.DefaultNamespace + name
}

// twoBodyDoc builds a document with bodies A and B connected by one revolute
// joint. The joint record is returned for per-test tweaking.
func twoBodyDoc() (*adf.Document, *adf.JointRecord) {
	doc := adf.NewDocument()
	doc.AddBody(bodyRecordAt("A", r3.Vector{}))
	doc.AddBody(bodyRecordAt("B", r3.Vector{X: 9, Y: 9, Z: 9}))
	parentPivot := adf.XYZ{X: 1}
	rec := &adf.JointRecord{
		Name:        "A-B",
		Parent:      "A",
		Child:       "B",
		Type:        "revolute",
		ParentPivot: &parentPivot,
	}
	doc.AddJoint(rec)
	return doc, rec
}

func TestImportSimpleChain(t *testing.T) {
	logger := golog.NewTestLogger(t)
	doc, _ := twoBodyDoc()

	res, err := ImportDocument(doc, ImportOptions{}, logger)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, res.JointErrors, test.ShouldBeNil)
	test.That(t, len(res.Joints), test.ShouldEqual, 1)

	b, ok := res.Scene.Body(qualified("B"))
	test.That(t, ok, test.ShouldBeTrue)
	// composed from the joint, not the record's location field
	want := spatialmath.TranslationMat(r3.Vector{X: 1})
	test.That(t, spatialmath.PoseAlmostEqual(b.World, want, 1e-9, 1e-9), test.ShouldBeTrue)

	a, _ := res.Scene.Body(qualified("A"))
	test.That(t, b.Parent(), test.ShouldEqual, a)
}

func TestImportAppliesOffset(t *testing.T) {
	logger := golog.NewTestLogger(t)
	doc, rec := twoBodyDoc()
	rec.Offset = 0.9

	res, err := ImportDocument(doc, ImportOptions{}, logger)
	test.That(t, err, test.ShouldBeNil)

	b, _ := res.Scene.Body(qualified("B"))
	want := spatialmath.TranslationMat(r3.Vector{X: 1}).
		Mul4(spatialmath.RotationAbout(r3.Vector{Z: 1}, 0.9))
	test.That(t, spatialmath.PoseAlmostEqual(b.World, want, 1e-9, 1e-9), test.ShouldBeTrue)
}

func TestImportIgnoreOffsets(t *testing.T) {
	logger := golog.NewTestLogger(t)
	doc, rec := twoBodyDoc()
	rec.Offset = 0.9

	res, err := ImportDocument(doc, ImportOptions{IgnoreOffsets: true}, logger)
	test.That(t, err, test.ShouldBeNil)

	b, _ := res.Scene.Body(qualified("B"))
	want := spatialmath.TranslationMat(r3.Vector{X: 1})
	test.That(t, spatialmath.PoseAlmostEqual(b.World, want, 1e-9, 1e-9), test.ShouldBeTrue)
}

func TestImportUnknownJointKind(t *testing.T) {
	logger := golog.NewTestLogger(t)
	doc, rec := twoBodyDoc()
	rec.Type = "wobbly"

	res, err := ImportDocument(doc, ImportOptions{}, logger)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, res.JointErrors, test.ShouldNotBeNil)
	test.That(t, res.JointErrors.Error(), test.ShouldContainSubstring, "wobbly")
	test.That(t, len(res.Joints), test.ShouldEqual, 0)
}

func TestImportMissingBody(t *testing.T) {
	logger := golog.NewTestLogger(t)
	doc, rec := twoBodyDoc()
	rec.Child = "nowhere"

	res, err := ImportDocument(doc, ImportOptions{}, logger)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, res.JointErrors, test.ShouldNotBeNil)
	test.That(t, res.JointErrors.Error(), test.ShouldContainSubstring, "nowhere")
}

func TestImportStructuralCycle(t *testing.T) {
	logger := golog.NewTestLogger(t)
	doc, _ := twoBodyDoc()
	doc.AddJoint(&adf.JointRecord{Name: "B-A", Parent: "B", Child: "A", Type: "revolute"})

	_, err := ImportDocument(doc, ImportOptions{}, logger)
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, errors.Is(err, scene.ErrStructuralCycle), test.ShouldBeTrue)
}

func TestImportDetachedJoint(t *testing.T) {
	logger := golog.NewTestLogger(t)
	doc := adf.NewDocument()
	doc.AddBody(bodyRecordAt("A", r3.Vector{}))
	doc.AddBody(bodyRecordAt("B", r3.Vector{X: 5}))
	doc.AddJoint(&adf.JointRecord{Name: "detached loop", Parent: "A", Child: "B", Type: "p2p"})

	res, err := ImportDocument(doc, ImportOptions{}, logger)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, res.JointErrors, test.ShouldBeNil)
	test.That(t, len(res.Joints), test.ShouldEqual, 1)
	test.That(t, res.Joints[0].Detached, test.ShouldBeTrue)

	// the joint adds no structural edge and never positions its child
	b, _ := res.Scene.Body(qualified("B"))
	test.That(t, b.Parent(), test.ShouldBeNil)
	want := spatialmath.TranslationMat(r3.Vector{X: 5})
	test.That(t, spatialmath.PoseAlmostEqual(b.World, want, 1e-9, 1e-9), test.ShouldBeTrue)
}

func TestImportFirstJointClaimsBody(t *testing.T) {
	logger := golog.NewTestLogger(t)
	doc, _ := twoBodyDoc()
	doc.AddBody(bodyRecordAt("C", r3.Vector{}))
	secondPivot := adf.XYZ{X: 7}
	doc.AddJoint(&adf.JointRecord{
		Name: "C-B", Parent: "C", Child: "B", Type: "revolute", ParentPivot: &secondPivot,
	})

	res, err := ImportDocument(doc, ImportOptions{}, logger)
	test.That(t, err, test.ShouldBeNil)

	a, _ := res.Scene.Body(qualified("A"))
	b, _ := res.Scene.Body(qualified("B"))
	test.That(t, b.Parent(), test.ShouldEqual, a)
	want := spatialmath.TranslationMat(r3.Vector{X: 1})
	test.That(t, spatialmath.PoseAlmostEqual(b.World, want, 1e-9, 1e-9), test.ShouldBeTrue)
}

func TestImportAdjustPivotsPreservesVisualPose(t *testing.T) {
	logger := golog.NewTestLogger(t)
	makeDoc := func() *adf.Document {
		doc := adf.NewDocument()
		doc.AddBody(bodyRecordAt("A", r3.Vector{}))
		doc.AddBody(bodyRecordAt("B", r3.Vector{}))
		parentPivot := adf.XYZ{X: 1}
		parentAxis := adf.XYZ{X: 1}
		childPivot := adf.XYZ{X: 0.2}
		childAxis := adf.XYZ{X: 1}
		doc.AddJoint(&adf.JointRecord{
			Name: "A-B", Parent: "A", Child: "B", Type: "revolute",
			ParentPivot: &parentPivot, ParentAxis: &parentAxis,
			ChildPivot: &childPivot, ChildAxis: &childAxis,
		})
		return doc
	}

	plain, err := ImportDocument(makeDoc(), ImportOptions{}, logger)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, plain.JointErrors, test.ShouldBeNil)

	adjustedDoc := makeDoc()
	adjusted, err := ImportDocument(adjustedDoc, ImportOptions{AdjustPivots: true}, logger)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, adjusted.JointErrors, test.ShouldBeNil)

	// world*mesh is the on-screen pose; alignment moves geometry between the
	// two factors without changing the product
	pb, _ := plain.Scene.Body(qualified("B"))
	ab, _ := adjusted.Scene.Body(qualified("B"))
	test.That(t, spatialmath.PoseAlmostEqual(
		pb.World.Mul4(pb.Mesh), ab.World.Mul4(ab.Mesh), 1e-9, 1e-9), test.ShouldBeTrue)

	// the stored child-side fields are canonical afterwards
	rec, _ := adjustedDoc.Joint("A-B")
	test.That(t, rec.ChildAxis.Vector().Sub(r3.Vector{Z: 1}).Norm(), test.ShouldAlmostEqual, 0, 1e-9)
	test.That(t, rec.ChildPivot.Vector().Norm(), test.ShouldAlmostEqual, 0, 1e-9)
}

func TestImportAdjustPivotsAppliesOffset(t *testing.T) {
	// pivot adjustment only canonicalizes axis misalignment; the stored
	// offset must still rotate the child into place
	logger := golog.NewTestLogger(t)
	doc, rec := twoBodyDoc()
	rec.Offset = 0.9

	res, err := ImportDocument(doc, ImportOptions{AdjustPivots: true}, logger)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, res.JointErrors, test.ShouldBeNil)

	b, _ := res.Scene.Body(qualified("B"))
	want := spatialmath.TranslationMat(r3.Vector{X: 1}).
		Mul4(spatialmath.RotationAbout(r3.Vector{Z: 1}, 0.9))
	test.That(t, spatialmath.PoseAlmostEqual(b.World, want, 1e-9, 1e-9), test.ShouldBeTrue)
}

func TestImportLimitShift(t *testing.T) {
	logger := golog.NewTestLogger(t)
	makeDoc := func() (*adf.Document, *adf.JointRecord) {
		doc, rec := twoBodyDoc()
		rec.Offset = 0.5
		rec.Limits = &adf.Limits{Low: -1, High: 1}
		return doc, rec
	}

	// plain import: the offset moves the child's zero position, so the
	// in-memory limits move with it
	doc, rec := makeDoc()
	res, err := ImportDocument(doc, ImportOptions{}, logger)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, res.Joints[0].Limits.Low, test.ShouldAlmostEqual, -0.5, 1e-9)
	test.That(t, res.Joints[0].Limits.High, test.ShouldAlmostEqual, 1.5, 1e-9)
	// the document record is never mutated
	test.That(t, rec.Limits.Low, test.ShouldAlmostEqual, -1, 1e-9)
	test.That(t, rec.Limits.High, test.ShouldAlmostEqual, 1, 1e-9)

	// adjusted import: limits stay as stored
	doc, _ = makeDoc()
	res, err = ImportDocument(doc, ImportOptions{AdjustPivots: true}, logger)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, res.Joints[0].Limits.Low, test.ShouldAlmostEqual, -1, 1e-9)
	test.That(t, res.Joints[0].Limits.High, test.ShouldAlmostEqual, 1, 1e-9)

	// ignored offsets never shift limits either
	doc, _ = makeDoc()
	res, err = ImportDocument(doc, ImportOptions{IgnoreOffsets: true}, logger)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, res.Joints[0].Limits.Low, test.ShouldAlmostEqual, -1, 1e-9)
}

func TestImportListedRecordMissing(t *testing.T) {
	logger := golog.NewTestLogger(t)

	doc, _ := twoBodyDoc()
	doc.JointKeys = append(doc.JointKeys, adf.JointKey("ghost"))
	res, err := ImportDocument(doc, ImportOptions{}, logger)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, res.JointErrors, test.ShouldNotBeNil)
	test.That(t, res.JointErrors.Error(), test.ShouldContainSubstring, "ghost")

	doc, _ = twoBodyDoc()
	doc.BodyKeys = append(doc.BodyKeys, adf.BodyKey("ghost"))
	_, err = ImportDocument(doc, ImportOptions{}, logger)
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, err.Error(), test.ShouldContainSubstring, "ghost")
}

// buildChainScene assembles base -> arm (revolute, rotated about the joint
// axis) -> wrist (prismatic) plus a free-floating anchor.
func buildChainScene(t *testing.T) (*scene.Scene, []*Joint) {
	t.Helper()
	s := scene.NewScene()

	base := scene.NewBody(qualified("base"))
	arm := scene.NewBody(qualified("arm"))
	wrist := scene.NewBody(qualified("wrist"))
	anchor := scene.NewBody(qualified("anchor"))

	arm.World = spatialmath.TranslationMat(r3.Vector{X: 0.5}).
		Mul4(spatialmath.RotationAbout(r3.Vector{Z: 1}, 0.9))
	wrist.World = arm.World.Mul4(spatialmath.TranslationMat(r3.Vector{X: 0.2, Y: 0.3}))
	anchor.World = spatialmath.TranslationMat(r3.Vector{Y: -2})

	for _, b := range []*scene.Body{base, arm, wrist, anchor} {
		b.Mass = 1
		test.That(t, s.AddBody(b), test.ShouldBeNil)
	}
	arm.SetParent(base)
	wrist.SetParent(arm)

	joints := []*Joint{
		{Kind: adf.KindRevolute, Parent: base, Child: arm, Limits: &adf.Limits{Low: -1.5, High: 1.5}},
		{Kind: adf.KindPrismatic, Parent: arm, Child: wrist},
		{Kind: adf.KindFixed, Parent: base, Child: anchor},
	}
	return s, joints
}

func TestExportImportRoundTrip(t *testing.T) {
	logger := golog.NewTestLogger(t)
	s, joints := buildChainScene(t)

	res, err := ExportDocument(s, joints, ExportOptions{HighResPath: "meshes/high/"}, logger)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, res.JointErrors, test.ShouldBeNil)
	test.That(t, res.Document.HighResPath, test.ShouldEqual, "meshes/high/")
	test.That(t, len(res.Document.BodyKeys), test.ShouldEqual, 4)
	test.That(t, len(res.Document.JointKeys), test.ShouldEqual, 3)

	imported, err := ImportDocument(res.Document, ImportOptions{}, logger)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, imported.JointErrors, test.ShouldBeNil)

	for _, orig := range s.Bodies() {
		got, ok := imported.Scene.Body(orig.Name)
		test.That(t, ok, test.ShouldBeTrue)
		// four-decimal serialization rounding bounds the round-trip error
		test.That(t, spatialmath.PoseAlmostEqual(got.World, orig.World, 1e-3, 1e-3), test.ShouldBeTrue)
	}
}

func TestExportHierarchyOrder(t *testing.T) {
	logger := golog.NewTestLogger(t)
	s := scene.NewScene()
	c := scene.NewBody("C")
	b := scene.NewBody("B")
	a := scene.NewBody("A")
	// registered leaf-first on purpose
	for _, body := range []*scene.Body{c, b, a} {
		test.That(t, s.AddBody(body), test.ShouldBeNil)
	}
	b.World = spatialmath.TranslationMat(r3.Vector{X: 1})
	c.World = spatialmath.TranslationMat(r3.Vector{X: 2})
	b.SetParent(a)
	c.SetParent(b)

	joints := []*Joint{
		{Kind: adf.KindRevolute, Parent: b, Child: c},
		{Kind: adf.KindRevolute, Parent: a, Child: b},
	}
	res, err := ExportDocument(s, joints, ExportOptions{}, logger)
	test.That(t, err, test.ShouldBeNil)

	test.That(t, res.Document.BodyKeys, test.ShouldResemble,
		[]string{adf.BodyKey("A"), adf.BodyKey("B"), adf.BodyKey("C")})
	test.That(t, res.Document.JointKeys, test.ShouldResemble,
		[]string{adf.JointKey("A-B"), adf.JointKey("B-C")})
}

func TestExportJointDefaults(t *testing.T) {
	logger := golog.NewTestLogger(t)
	s := scene.NewScene()
	a := scene.NewBody(qualified("A"))
	b := scene.NewBody(qualified("B"))
	b.World = spatialmath.TranslationMat(r3.Vector{X: 1})
	test.That(t, s.AddBody(a), test.ShouldBeNil)
	test.That(t, s.AddBody(b), test.ShouldBeNil)
	b.SetParent(a)

	joints := []*Joint{{
		Kind: adf.KindContinuous, Parent: a, Child: b,
		Limits: &adf.Limits{Low: -1, High: 1},
	}}
	res, err := ExportDocument(s, joints, ExportOptions{}, logger)
	test.That(t, err, test.ShouldBeNil)

	rec, ok := res.Document.Joint("A-B")
	test.That(t, ok, test.ShouldBeTrue)
	test.That(t, rec.Name, test.ShouldEqual, "A-B")
	test.That(t, rec.Type, test.ShouldEqual, "continuous")
	// continuous joints are unconstrained; limits never serialize
	test.That(t, rec.Limits, test.ShouldBeNil)
	test.That(t, rec.ParentPivot.Vector().Sub(r3.Vector{X: 1}).Norm(), test.ShouldAlmostEqual, 0, 1e-9)
}

func TestExportDegenerateJointSkipped(t *testing.T) {
	logger := golog.NewTestLogger(t)
	s := scene.NewScene()
	a := scene.NewBody("A")
	b := scene.NewBody("B")
	test.That(t, s.AddBody(a), test.ShouldBeNil)
	test.That(t, s.AddBody(b), test.ShouldBeNil)
	b.SetParent(a)

	// a zero column collapses the child's rotation basis
	b.World.SetCol(2, mgl64.Vec4{})

	joints := []*Joint{{Kind: adf.KindRevolute, Parent: a, Child: b}}
	res, err := ExportDocument(s, joints, ExportOptions{}, logger)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, res.JointErrors, test.ShouldNotBeNil)
	test.That(t, len(res.Document.JointKeys), test.ShouldEqual, 0)
}
