// Package adf models AMBF Agent Description File (ADF) documents: the bodies,
// joints, and field vocabulary of the on-disk format, independent of any scene
// the records describe.
package adf

import (
	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
)

// JointKind enumerates the joint types of the ADF vocabulary.
type JointKind int

// The supported joint kinds. Revolute-class and torsion springs rotate about
// the canonical Z axis, prismatic-class and linear springs translate along X.
const (
	KindRevolute JointKind = iota
	KindContinuous
	KindPrismatic
	KindLinearSpring
	KindTorsionSpring
	KindP2P
	KindFixed
)

// jointKindVocabulary maps every accepted type string, including legacy
// synonyms, to its kind.
var jointKindVocabulary = map[string]JointKind{
	"hinge":            KindRevolute,
	"revolute":         KindRevolute,
	"continuous":       KindContinuous,
	"prismatic":        KindPrismatic,
	"slider":           KindPrismatic,
	"spring":           KindLinearSpring,
	"linear spring":    KindLinearSpring,
	"angular spring":   KindTorsionSpring,
	"torsional spring": KindTorsionSpring,
	"torsion spring":   KindTorsionSpring,
	"p2p":              KindP2P,
	"point2point":      KindP2P,
	"fixed":            KindFixed,
	"FIXED":            KindFixed,
}

// ParseJointKind maps a type string from a joint record to its kind. An
// unrecognized string is a hard error, never a silent default.
func ParseJointKind(s string) (JointKind, error) {
	kind, ok := jointKindVocabulary[s]
	if !ok {
		return KindFixed, errors.Errorf("joint type %q not understood", s)
	}
	return kind, nil
}

// String returns the canonical type string written to file for the kind.
func (k JointKind) String() string {
	switch k {
	case KindRevolute:
		return "revolute"
	case KindContinuous:
		return "continuous"
	case KindPrismatic:
		return "prismatic"
	case KindLinearSpring:
		return "linear spring"
	case KindTorsionSpring:
		return "angular spring"
	case KindP2P:
		return "p2p"
	case KindFixed:
		return "fixed"
	}
	return "fixed"
}

// NominalAxis returns the canonical constraint axis authored geometry is
// aligned to for this kind.
func (k JointKind) NominalAxis() r3.Vector {
	switch k {
	case KindPrismatic, KindLinearSpring:
		return r3.Vector{X: 1}
	default:
		return r3.Vector{Z: 1}
	}
}

// HasLimits reports whether joint limits apply to this kind. Fixed, p2p and
// continuous joints are unconstrained along their motion axis.
func (k JointKind) HasLimits() bool {
	switch k {
	case KindFixed, KindP2P, KindContinuous:
		return false
	default:
		return true
	}
}

// Linear reports whether the kind's motion (and limit units) are translational
// meters rather than radians.
func (k JointKind) Linear() bool {
	return k == KindPrismatic || k == KindLinearSpring
}

// Spring reports whether stiffness applies to this kind.
func (k JointKind) Spring() bool {
	return k == KindLinearSpring || k == KindTorsionSpring
}
