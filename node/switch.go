package node

import (
	"github.com/gogpu/scene3d/bounds"
	"github.com/gogpu/scene3d/pick"
	"github.com/gogpu/scene3d/render"
)

// Switch shows at most one of its children.
type Switch struct {
	base
	children []Node
	active   int
}

// NewSwitch creates a switch showing the first child.
func NewSwitch(children ...Node) *Switch {
	return &Switch{base: newBase(""), children: children}
}

// Select shows child i. An index out of range hides all children.
func (s *Switch) Select(i int) { s.active = i }

// Selected returns the active index.
func (s *Switch) Selected() int { return s.active }

func (s *Switch) current() Node {
	if s.active < 0 || s.active >= len(s.children) {
		return nil
	}
	return s.children[s.active]
}

// UpdateBounds refreshes the bounds of every child, shown or not.
func (s *Switch) UpdateBounds() {
	for _, c := range s.children {
		if u, ok := c.(interface{ UpdateBounds() }); ok {
			u.UpdateBounds()
		}
	}
}

// CullableBounds implements render.Cullable.
func (s *Switch) CullableBounds() bounds.Volume {
	if c := s.current(); c != nil {
		return cullBoundsIn(c)
	}
	return bounds.Void{}
}

// CullableChild implements render.SingleCullable.
func (s *Switch) CullableChild() render.Cullable {
	if c := s.current(); c != nil {
		return c
	}
	return nil
}

// PickTargetType implements pick.Target.
func (s *Switch) PickTargetType() pick.TargetType { return pick.TypeSingle }

// PickableBounds implements pick.Target.
func (s *Switch) PickableBounds() bounds.Volume {
	if c := s.current(); c != nil {
		return pickBoundsIn(c)
	}
	return bounds.Void{}
}

// PickableChild implements pick.SingleTarget.
func (s *Switch) PickableChild() pick.Target {
	if c := s.current(); c != nil {
		return c
	}
	return nil
}
