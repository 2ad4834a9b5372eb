package kinematics

import (
	"sort"

	"github.com/edaniels/golog"
	"github.com/pkg/errors"
	"go.uber.org/multierr"

	"github.com/ambf-tools/adfgo/adf"
	"github.com/ambf-tools/adfgo/scene"
	"github.com/ambf-tools/adfgo/spatialmath"
	"github.com/ambf-tools/adfgo/utils"
)

// ExportOptions control one export pass.
type ExportOptions struct {
	// Namespace is written as the document namespace. Empty means the file
	// declares none and readers assume the AMBF default.
	Namespace string
	// HighResPath and LowResPath locate the visual and collision meshes the
	// body records reference.
	HighResPath string
	LowResPath  string
	// IgnoreInterCollision disables collision between bodies of this document.
	IgnoreInterCollision bool
}

// ExportResult is the serialized document plus per-joint failures. A joint
// with degenerate geometry is dropped from the document and reported without
// preventing the rest of the scene from exporting.
type ExportResult struct {
	Document    *adf.Document
	JointErrors error
}

// ExportDocument serializes a scene and its joints to an ADF document. Bodies
// are written in hierarchy order so every parent record precedes its
// descendants, and joints follow their child body's position. All geometry is
// rounded to four decimals on the way out.
func ExportDocument(s *scene.Scene, joints []*Joint, opts ExportOptions, logger golog.Logger) (*ExportResult, error) {
	ordered, err := s.OrderBodies()
	if err != nil {
		return nil, err
	}

	doc := adf.NewDocument()
	doc.Namespace = opts.Namespace
	doc.HighResPath = opts.HighResPath
	doc.LowResPath = opts.LowResPath
	doc.IgnoreInterCollision = opts.IgnoreInterCollision

	for _, body := range ordered {
		doc.AddBody(exportBody(body, doc.EffectiveNamespace()))
	}

	var jointErrs error
	for _, j := range sortJointsByHierarchy(joints, ordered) {
		rec, err := exportJoint(j, logger)
		if err != nil {
			jointErrs = multierr.Append(jointErrs, err)
			continue
		}
		doc.AddJoint(rec)
	}
	return &ExportResult{Document: doc, JointErrors: jointErrs}, nil
}

// exportBody builds the record for one body. The namespace field is written
// only when the body lives outside the document namespace.
func exportBody(body *scene.Body, docNS string) *adf.BodyRecord {
	local := adf.LocalName(body.Name)
	mesh := body.MeshName
	if mesh == "" {
		mesh = local + ".STL"
	}

	world := spatialmath.StripScale(body.World)
	pos := utils.RoundVec4(spatialmath.Translation(world))
	roll, pitch, yaw := spatialmath.MatToRPY(spatialmath.Rotation(world))

	rec := &adf.BodyRecord{
		Name:    local,
		Mesh:    mesh,
		Mass:    utils.Round4(body.Mass),
		Color:   body.Color,
		Passive: body.Passive,
		Location: adf.PoseField{
			Position: adf.NewXYZ(pos),
			Orientation: adf.RPY{
				R: utils.Round4(roll),
				P: utils.Round4(pitch),
				Y: utils.Round4(yaw),
			},
		},
	}
	if ns := adf.BodyNamespace(body.Name); ns != "" && ns != docNS {
		rec.Namespace = ns
	}
	return rec
}

// exportJoint extracts the joint geometry and builds its record. A
// consistency-check failure on the offset keeps the best-effort geometry and
// only logs; degenerate geometry drops the joint.
func exportJoint(j *Joint, logger golog.Logger) (*adf.JointRecord, error) {
	name := j.DisplayName()
	geom, err := ExtractJointGeometry(name, j.Parent, j.Child, j.Frame, j.Kind.NominalAxis(), j.Detached)
	if err != nil {
		if !errors.Is(err, ErrOffsetAxisMismatch) {
			return nil, err
		}
		logger.Warnw("keeping joint with inconsistent offset axis",
			"joint", name, "error", err)
	}

	parentPivot := adf.NewXYZ(utils.RoundVec4(geom.ParentPivot))
	parentAxis := adf.NewXYZ(utils.RoundVec4(geom.ParentAxis))
	childPivot := adf.NewXYZ(utils.RoundVec4(geom.ChildPivot))
	childAxis := adf.NewXYZ(utils.RoundVec4(geom.ChildAxis))

	rec := &adf.JointRecord{
		Name:            name,
		Parent:          adf.LocalName(j.Parent.Name),
		Child:           adf.LocalName(j.Child.Name),
		ParentPivot:     &parentPivot,
		ParentAxis:      &parentAxis,
		ChildPivot:      &childPivot,
		ChildAxis:       &childAxis,
		Type:            j.Kind.String(),
		Offset:          utils.Round4(geom.Offset),
		Damping:         j.Damping,
		Controller:      j.Controller,
		MaxMotorImpulse: j.MaxMotorImpulse,
		EnableFeedback:  j.EnableFeedback,
		Detached:        j.Detached,
		Passive:         j.Passive,
	}
	if j.Kind.HasLimits() && j.Limits != nil {
		rec.Limits = &adf.Limits{Low: utils.Round4(j.Limits.Low), High: utils.Round4(j.Limits.High)}
	}
	if j.Kind.Spring() {
		rec.Stiffness = j.Stiffness
	}
	return rec, nil
}

// sortJointsByHierarchy orders joints by their child body's position in the
// ordered body list, so that a reader composing joints in document order
// always positions parents before descendants. Joints over bodies outside the
// scene keep their relative order at the end.
func sortJointsByHierarchy(joints []*Joint, ordered []*scene.Body) []*Joint {
	pos := make(map[*scene.Body]int, len(ordered))
	for i, b := range ordered {
		pos[b] = i
	}
	rank := func(j *Joint) int {
		if i, ok := pos[j.Child]; ok {
			return i
		}
		return len(ordered)
	}
	out := make([]*Joint, len(joints))
	copy(out, joints)
	sort.SliceStable(out, func(i, k int) bool {
		return rank(out[i]) < rank(out[k])
	})
	return out
}
