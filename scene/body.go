// Package scene holds the in-memory rigid body graph that ADF documents are
// extracted from and composed into: named bodies with world transforms and
// structural parent links forming a forest.
package scene

import (
	"github.com/go-gl/mathgl/mgl64"
)

// Body is one rigid body of a scene. The structural parent is the hierarchy
// edge used for traversal ordering; it usually coincides with a joint's
// parent/child relation but is a distinct concept (detached joints reference
// bodies with no structural edge).
type Body struct {
	// Name is the unique, namespace-qualified body name.
	Name string
	// Mass of zero marks a static world anchor.
	Mass float64
	// World is the body's pose in the world frame. It may carry scale; axis
	// extraction strips it.
	World mgl64.Mat4
	// Mesh is the local geometry transform. The axis aligner rewrites it when
	// legacy joint axes are corrected; world pose is unaffected.
	Mesh mgl64.Mat4
	// MeshName is the geometry file the body renders with. Mesh contents are
	// never touched here; only the reference is carried.
	MeshName string
	// Color is an optional named material, carried through unchanged.
	Color string
	// Passive bodies are ignored by controllers; carried through unchanged.
	Passive bool

	parent   *Body
	children []*Body
}

// NewBody returns a body at the world origin with identity mesh transform.
func NewBody(name string) *Body {
	return &Body{
		Name:  name,
		World: mgl64.Ident4(),
		Mesh:  mgl64.Ident4(),
	}
}

// Parent returns the structural parent, or nil for a root.
func (b *Body) Parent() *Body {
	return b.parent
}

// Children returns the structural children in attachment order.
func (b *Body) Children() []*Body {
	return b.children
}

// SetParent attaches the body under parent, detaching it from any previous
// parent first. A nil parent makes the body a root.
func (b *Body) SetParent(parent *Body) {
	if b.parent != nil {
		siblings := b.parent.children
		for i, c := range siblings {
			if c == b {
				b.parent.children = append(siblings[:i], siblings[i+1:]...)
				break
			}
		}
	}
	b.parent = parent
	if parent != nil {
		parent.children = append(parent.children, b)
	}
}
