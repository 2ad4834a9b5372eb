package kinematics

import (
	"github.com/ambf-tools/adfgo/adf"
	"github.com/ambf-tools/adfgo/scene"
)

// Joint connects two scene bodies. It carries the per-kind dynamics
// parameters verbatim; only the geometric fields are computed by this
// package.
type Joint struct {
	Name   string
	Kind   adf.JointKind
	Parent *scene.Body
	Child  *scene.Body
	// Frame is the axis-source body defining the joint frame. Nil means the
	// child body itself; detached joints use a separate marker body because
	// parent and child are not structurally adjacent.
	Frame    *scene.Body
	Detached bool

	Limits          *adf.Limits
	Damping         float64
	Stiffness       float64
	Controller      *adf.PID
	MaxMotorImpulse float64
	EnableFeedback  bool
	Passive         bool
}

// DisplayName returns the joint name, defaulting to parent-child when unset.
func (j *Joint) DisplayName() string {
	if j.Name != "" {
		return j.Name
	}
	return adf.LocalName(j.Parent.Name) + "-" + adf.LocalName(j.Child.Name)
}
