package kinematics

import (
	"github.com/pkg/errors"
)

// ErrOffsetAxisMismatch marks a consistency-check failure: the residual
// rotation between the ADF frame and the actual relative pose is not about
// the joint axis, so no scalar offset can represent it. This usually points
// at bad upstream data rather than a conversion bug; it is surfaced as a
// warning and the pass continues with the best-effort value.
var ErrOffsetAxisMismatch = errors.New("offset rotation axis is neither parallel nor antiparallel to the joint axis")

// ErrAlignmentLogic marks the axis aligner's sanity check failing: the
// corrective rotation it derived does not lie along the corrected child axis.
var ErrAlignmentLogic = errors.New("axis alignment correction is not about the child axis")

func newDegenerateJointError(joint string, cause error) error {
	return errors.Wrapf(cause, "joint %q has degenerate geometry", joint)
}

func newMissingBodyError(joint, body string) error {
	return errors.Errorf("joint %q references body %q which is not in the document", joint, body)
}
