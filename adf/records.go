package adf

import (
	"strings"

	"github.com/golang/geo/r3"
	"gopkg.in/yaml.v3"
)

// XYZ is a 3-component point or direction as stored on disk.
type XYZ struct {
	X float64 `yaml:"x"`
	Y float64 `yaml:"y"`
	Z float64 `yaml:"z"`
}

// Vector converts an XYZ field to a vector.
func (v XYZ) Vector() r3.Vector {
	return r3.Vector{X: v.X, Y: v.Y, Z: v.Z}
}

// NewXYZ converts a vector to its on-disk form.
func NewXYZ(v r3.Vector) XYZ {
	return XYZ{X: v.X, Y: v.Y, Z: v.Z}
}

// RPY is a roll/pitch/yaw orientation in radians.
type RPY struct {
	R float64 `yaml:"r"`
	P float64 `yaml:"p"`
	Y float64 `yaml:"y"`
}

// PoseField is the on-disk position+orientation pair used by `location` and
// `inertial offset`.
type PoseField struct {
	Position    XYZ `yaml:"position"`
	Orientation RPY `yaml:"orientation"`
}

// Inertia is the diagonal body inertia field.
type Inertia struct {
	IX float64 `yaml:"ix"`
	IY float64 `yaml:"iy"`
	IZ float64 `yaml:"iz"`
}

// PID holds controller gains.
type PID struct {
	P float64 `yaml:"P"`
	I float64 `yaml:"I"`
	D float64 `yaml:"D"`
}

// BodyController is the body-level linear/angular controller field.
type BodyController struct {
	Linear  PID `yaml:"linear"`
	Angular PID `yaml:"angular"`
}

// Limits is the `joint limits` field. Units are radians for revolute and
// torsion-spring joints, meters for prismatic and linear-spring joints.
type Limits struct {
	Low  float64 `yaml:"low"`
	High float64 `yaml:"high"`
}

// BodyRecord is one rigid body entry of an ADF document. Collision and
// inertial-estimation payloads are carried opaquely; this module never
// computes them.
type BodyRecord struct {
	Name                   string          `yaml:"name"`
	Mesh                   string          `yaml:"mesh"`
	Mass                   float64         `yaml:"mass"`
	Scale                  float64         `yaml:"scale,omitempty"`
	CollisionMargin        float64         `yaml:"collision margin,omitempty"`
	Inertia                *Inertia        `yaml:"inertia,omitempty"`
	Location               PoseField       `yaml:"location"`
	InertialOffset         *PoseField      `yaml:"inertial offset,omitempty"`
	Controller             *BodyController `yaml:"controller,omitempty"`
	CollisionShape         *yaml.Node      `yaml:"collision shape,omitempty"`
	CollisionGeometry      *yaml.Node      `yaml:"collision geometry,omitempty"`
	CollisionOffset        *yaml.Node      `yaml:"collision offset,omitempty"`
	CompoundCollisionShape *yaml.Node      `yaml:"compound collision shape,omitempty"`
	Color                  string          `yaml:"color,omitempty"`
	Namespace              string          `yaml:"namespace,omitempty"`
	Passive                bool            `yaml:"passive,omitempty"`
}

// JointRecord is one joint entry of an ADF document. The pivot and axis
// fields are pointers so that an absent field can fall back to the format's
// defaults rather than a zero vector.
type JointRecord struct {
	Name            string  `yaml:"name"`
	Parent          string  `yaml:"parent"`
	Child           string  `yaml:"child"`
	ParentPivot     *XYZ    `yaml:"parent pivot,omitempty"`
	ParentAxis      *XYZ    `yaml:"parent axis,omitempty"`
	ChildPivot      *XYZ    `yaml:"child pivot,omitempty"`
	ChildAxis       *XYZ    `yaml:"child axis,omitempty"`
	Type            string  `yaml:"type"`
	Limits          *Limits `yaml:"joint limits,omitempty"`
	Offset          float64 `yaml:"offset,omitempty"`
	Damping         float64 `yaml:"damping,omitempty"`
	Stiffness       float64 `yaml:"stiffness,omitempty"`
	Controller      *PID    `yaml:"controller,omitempty"`
	MaxMotorImpulse float64 `yaml:"max motor impulse,omitempty"`
	EnableFeedback  bool    `yaml:"enable feedback,omitempty"`
	Detached        bool    `yaml:"detached,omitempty"`
	Redundant       bool    `yaml:"redundant,omitempty"`
	Passive         bool    `yaml:"passive,omitempty"`
}

// detachedJointPrefixes marks placeholder joint bodies used to express closed
// kinematic loops that the one-parent-per-body hierarchy cannot represent.
var detachedJointPrefixes = []string{
	"redundant", "Redundant", "REDUNDANT",
	"detached", "Detached", "DETACHED",
}

// HasDetachedPrefix reports whether a joint name carries one of the legacy
// detached-joint name prefixes.
func HasDetachedPrefix(name string) bool {
	for _, prefix := range detachedJointPrefixes {
		if strings.HasPrefix(name, prefix) {
			return true
		}
	}
	return false
}

// IsDetached reports whether the joint's parent and child are not structurally
// adjacent. The explicit `detached` field, the legacy `redundant` synonym, and
// the legacy name prefixes all mark a joint detached.
func (j *JointRecord) IsDetached() bool {
	return j.Detached || j.Redundant || HasDetachedPrefix(j.Name)
}

// Kind parses the record's type string.
func (j *JointRecord) Kind() (JointKind, error) {
	return ParseJointKind(j.Type)
}

// ParentPivotVec returns the parent pivot, defaulting to the origin.
func (j *JointRecord) ParentPivotVec() r3.Vector {
	if j.ParentPivot == nil {
		return r3.Vector{}
	}
	return j.ParentPivot.Vector()
}

// ParentAxisVec returns the parent axis, defaulting to the Z axis when the
// field is absent.
func (j *JointRecord) ParentAxisVec() r3.Vector {
	if j.ParentAxis == nil {
		return r3.Vector{Z: 1}
	}
	return j.ParentAxis.Vector()
}

// ChildPivotVec returns the child pivot, defaulting to the origin.
func (j *JointRecord) ChildPivotVec() r3.Vector {
	if j.ChildPivot == nil {
		return r3.Vector{}
	}
	return j.ChildPivot.Vector()
}

// ChildAxisVec returns the child axis, defaulting to the Z axis when the
// field is absent.
func (j *JointRecord) ChildAxisVec() r3.Vector {
	if j.ChildAxis == nil {
		return r3.Vector{Z: 1}
	}
	return j.ChildAxis.Vector()
}
