package kinematics

import (
	"github.com/edaniels/golog"
	"github.com/go-gl/mathgl/mgl64"
	"github.com/pkg/errors"
	"go.uber.org/multierr"

	"github.com/ambf-tools/adfgo/adf"
	"github.com/ambf-tools/adfgo/scene"
	"github.com/ambf-tools/adfgo/spatialmath"
)

// ImportOptions control one import pass.
type ImportOptions struct {
	// IgnoreOffsets treats every stored offset angle as zero. This is an
	// explicit opt-out for inspecting raw pivot/axis geometry.
	IgnoreOffsets bool
	// AdjustPivots enables the legacy-compatibility axis alignment: bodies
	// authored with a local joint axis differing from the canonical
	// constraint axis get their geometry corrected and their pivot/axis
	// fields canonicalized. The stored offset is applied either way; only
	// the axis misalignment moves into body geometry.
	AdjustPivots bool
	// Namespace overrides the document namespace for body qualification.
	Namespace string
}

// ImportResult is a fully positioned scene plus the joints read from the
// document. JointErrors collects per-joint failures: a bad joint is skipped
// and reported without preventing the rest of the document from loading.
type ImportResult struct {
	Scene       *scene.Scene
	Joints      []*Joint
	JointErrors error
}

// importer holds the state of one import pass; it replaces the global
// registries of the legacy tooling with pass-scoped context.
type importer struct {
	doc      *adf.Document
	opts     ImportOptions
	logger   golog.Logger
	scene    *scene.Scene
	bodies   map[string]*scene.Body
	composer *composer
}

// ImportDocument builds a scene from an ADF document. Bodies are created
// from their records, structural edges and joint parameters are resolved,
// and world transforms are composed in hierarchy order so that every body is
// positioned exactly once, after its ancestors. Structural cycles abort the
// whole pass; per-joint problems are collected into the result.
func ImportDocument(doc *adf.Document, opts ImportOptions, logger golog.Logger) (*ImportResult, error) {
	imp := &importer{
		doc:      doc,
		opts:     opts,
		logger:   logger,
		scene:    scene.NewScene(),
		bodies:   map[string]*scene.Body{},
		composer: newComposer(opts.IgnoreOffsets),
	}
	if err := imp.loadBodies(); err != nil {
		return nil, err
	}
	joints, inbound, jointErrs := imp.resolveJoints()

	ordered, err := imp.scene.OrderBodies()
	if err != nil {
		return nil, err
	}

	if opts.AdjustPivots {
		al := &aligner{composer: imp.composer, logger: logger}
		for _, body := range ordered {
			rec, ok := inbound[body]
			if !ok {
				continue
			}
			if err := al.alignJoint(rec, body); err != nil {
				jointErrs = multierr.Append(jointErrs, err)
				delete(inbound, body)
			}
		}
	}

	for _, body := range ordered {
		rec, ok := inbound[body]
		if !ok {
			continue
		}
		parent, _ := imp.body(rec.Parent)
		tCW, err := imp.composer.childWorldTransform(rec, parent)
		if err != nil {
			jointErrs = multierr.Append(jointErrs, err)
			continue
		}
		body.World = tCW
	}

	return &ImportResult{Scene: imp.scene, Joints: joints, JointErrors: jointErrs}, nil
}

// loadBodies creates one scene body per record, posed from its location
// field. Namespace qualification follows the record's own namespace when
// present, the document's otherwise.
func (imp *importer) loadBodies() error {
	ns := imp.opts.Namespace
	if ns == "" {
		ns = imp.doc.EffectiveNamespace()
	}
	for _, key := range imp.doc.BodyKeys {
		rec, ok := imp.doc.Body(key)
		if !ok {
			return errors.Errorf("body %q listed but has no record in document", key)
		}
		bodyNS := ns
		if rec.Namespace != "" {
			bodyNS = rec.Namespace
		}
		body := scene.NewBody(adf.QualifyName(bodyNS, rec.Name))
		body.Mass = rec.Mass
		body.MeshName = rec.Mesh
		body.Color = rec.Color
		body.Passive = rec.Passive
		body.World = spatialmath.NewPoseFromRPY(
			rec.Location.Position.Vector(),
			rec.Location.Orientation.R, rec.Location.Orientation.P, rec.Location.Orientation.Y,
		)
		if err := imp.scene.AddBody(body); err != nil {
			return err
		}
		// referenced by record key, bare record name, and qualified name
		imp.bodies[key] = body
		imp.bodies[rec.Name] = body
		imp.bodies[body.Name] = body
	}
	return nil
}

// body resolves a parent/child reference string from a joint record.
func (imp *importer) body(ref string) (*scene.Body, bool) {
	if b, ok := imp.bodies[ref]; ok {
		return b, true
	}
	b, ok := imp.bodies[adf.StripKeyPrefix(ref)]
	return b, ok
}

// resolveJoints validates every joint record, builds the structural edges
// for non-detached joints, and returns the map of each body to the joint
// record that positions it. A body is claimed by at most one joint.
func (imp *importer) resolveJoints() ([]*Joint, map[*scene.Body]*adf.JointRecord, error) {
	var joints []*Joint
	var jointErrs error
	inbound := map[*scene.Body]*adf.JointRecord{}

	for _, key := range imp.doc.JointKeys {
		rec, ok := imp.doc.Joint(key)
		if !ok {
			jointErrs = multierr.Append(jointErrs,
				errors.Errorf("joint %q listed but has no record in document", key))
			continue
		}
		kind, err := rec.Kind()
		if err != nil {
			jointErrs = multierr.Append(jointErrs, err)
			continue
		}
		parent, ok := imp.body(rec.Parent)
		if !ok {
			jointErrs = multierr.Append(jointErrs, newMissingBodyError(rec.Name, rec.Parent))
			continue
		}
		child, ok := imp.body(rec.Child)
		if !ok {
			jointErrs = multierr.Append(jointErrs, newMissingBodyError(rec.Name, rec.Child))
			continue
		}

		detached := rec.IsDetached()
		joints = append(joints, &Joint{
			Name:            rec.Name,
			Kind:            kind,
			Parent:          parent,
			Child:           child,
			Detached:        detached,
			Limits:          imp.jointLimits(rec, kind),
			Damping:         rec.Damping,
			Stiffness:       rec.Stiffness,
			Controller:      rec.Controller,
			MaxMotorImpulse: rec.MaxMotorImpulse,
			EnableFeedback:  rec.EnableFeedback,
			Passive:         rec.Passive,
		})

		// a detached joint closes a kinematic loop; it never positions its
		// child and adds no structural edge
		if detached {
			continue
		}
		if child.Parent() != nil {
			imp.logger.Warnw("body already claimed by another joint, skipping placement",
				"joint", rec.Name, "body", child.Name)
			continue
		}
		child.SetParent(parent)
		inbound[child] = rec
	}
	return joints, inbound, jointErrs
}

// jointLimits returns the limits the in-scene joint carries. The stored
// offset rotates the child's zero position, so on a plain import rotational
// limits move with it; an adjusted import canonicalizes the geometry around
// that zero position and keeps the limits as stored. The document record is
// never mutated.
func (imp *importer) jointLimits(rec *adf.JointRecord, kind adf.JointKind) *adf.Limits {
	if rec.Limits == nil {
		return nil
	}
	limits := *rec.Limits
	if !imp.opts.AdjustPivots && !imp.opts.IgnoreOffsets &&
		kind.HasLimits() && !kind.Linear() {
		limits.Low += rec.Offset
		limits.High += rec.Offset
	}
	return &limits
}

// JointWorldTransform reconstructs the joint frame of a joint record in
// world space, for callers that need the frame itself (detached joint
// markers, diagnostics). The parent must already be positioned; no
// correction frames are applied.
func JointWorldTransform(rec *adf.JointRecord, parent *scene.Body) (mgl64.Mat4, error) {
	c := newComposer(false)
	return c.jointWorldTransform(rec, parent)
}
