package scene

import (
	"github.com/pkg/errors"
)

// ErrStructuralCycle is returned when body parent links do not form a forest.
// Ordering cannot be established, so this aborts a whole document pass.
var ErrStructuralCycle = errors.New("structural cycle in body hierarchy")

// Scene is a registry of bodies with stable enumeration order.
type Scene struct {
	bodies map[string]*Body
	order  []string
}

// NewScene returns an empty scene.
func NewScene() *Scene {
	return &Scene{bodies: map[string]*Body{}}
}

// AddBody registers a body. Body names are unique within a scene.
func (s *Scene) AddBody(b *Body) error {
	if _, ok := s.bodies[b.Name]; ok {
		return errors.Errorf("body %q already in scene", b.Name)
	}
	s.bodies[b.Name] = b
	s.order = append(s.order, b.Name)
	return nil
}

// Body looks up a body by name.
func (s *Scene) Body(name string) (*Body, bool) {
	b, ok := s.bodies[name]
	return b, ok
}

// Bodies returns all bodies in insertion order.
func (s *Scene) Bodies() []*Body {
	out := make([]*Body, 0, len(s.order))
	for _, name := range s.order {
		out = append(out, s.bodies[name])
	}
	return out
}

// Len returns the number of bodies in the scene.
func (s *Scene) Len() int {
	return len(s.order)
}

// root walks structural parent links up to the root of b's tree, detecting
// parent-link cycles along the way.
func (s *Scene) root(b *Body) (*Body, error) {
	seen := map[*Body]bool{}
	for b.parent != nil {
		if seen[b] {
			return nil, errors.Wrapf(ErrStructuralCycle, "at body %q", b.Name)
		}
		seen[b] = true
		b = b.parent
	}
	return b, nil
}

// OrderBodies returns every body exactly once, each preceded by its full
// structural ancestor chain. For each body in insertion order the tree root
// is found, then the root's subtree is emitted in pre-order; bodies already
// emitted are skipped so shared reachability cannot duplicate or loop.
func (s *Scene) OrderBodies() ([]*Body, error) {
	visited := make(map[*Body]bool, len(s.order))
	ordered := make([]*Body, 0, len(s.order))

	var downward func(b *Body)
	downward = func(b *Body) {
		if b == nil || visited[b] {
			return
		}
		visited[b] = true
		ordered = append(ordered, b)
		for _, child := range b.children {
			downward(child)
		}
	}

	for _, name := range s.order {
		root, err := s.root(s.bodies[name])
		if err != nil {
			return nil, err
		}
		downward(root)
	}
	return ordered, nil
}
