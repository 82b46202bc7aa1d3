package node

import (
	"github.com/go-gl/mathgl/mgl64"

	"github.com/gogpu/scene3d/bounds"
	"github.com/gogpu/scene3d/pick"
	"github.com/gogpu/scene3d/render"
)

// Group is a node with any number of children. Removing a child leaves a
// nil hole so that child indices stay stable; Compact drops the holes.
//
// A Group also scopes lights, clip planes and fog to its subtree.
type Group struct {
	base
	cull  []render.Cullable
	picks []pick.Target

	// Cull and pick bounds differ for nodes such as overlays and
	// sounds, which are never picked but always drawn.
	cullBounds bounds.Volume
	pickBounds bounds.Volume

	lights []render.Effect
	clips  []render.Effect
	fog    render.Effect
}

// NewGroup creates a group with the given children.
func NewGroup(children ...Node) *Group {
	g := &Group{base: newBase("")}
	for _, c := range children {
		g.AddChild(c)
	}
	return g
}

// AddChild appends a child.
func (g *Group) AddChild(n Node) {
	if n == nil {
		return
	}
	if g.cull == nil {
		g.cull = []render.Cullable{}
		g.picks = []pick.Target{}
	}
	g.cull = append(g.cull, n)
	g.picks = append(g.picks, n)
}

// RemoveChild replaces n with a nil hole. It reports whether n was found.
func (g *Group) RemoveChild(n Node) bool {
	for i, c := range g.cull {
		if c != nil && c == render.Cullable(n) {
			g.cull[i] = nil
			g.picks[i] = nil
			return true
		}
	}
	return false
}

// Compact removes nil holes.
func (g *Group) Compact() {
	j := 0
	for i := range g.cull {
		if g.cull[i] != nil {
			g.cull[j], g.picks[j] = g.cull[i], g.picks[i]
			j++
		}
	}
	clear(g.cull[j:])
	clear(g.picks[j:])
	g.cull, g.picks = g.cull[:j], g.picks[:j]
}

// Children returns the child slots, including holes.
func (g *Group) Children() []Node {
	out := make([]Node, len(g.cull))
	for i, c := range g.cull {
		if c != nil {
			out[i] = c.(Node)
		}
	}
	return out
}

// AddLight scopes a light to this subtree.
func (g *Group) AddLight(l render.Effect) { g.lights = append(g.lights, l) }

// AddClipPlane scopes a clip plane to this subtree.
func (g *Group) AddClipPlane(c render.Effect) { g.clips = append(g.clips, c) }

// SetFog scopes fog to this subtree. Nil removes it.
func (g *Group) SetFog(f render.Effect) { g.fog = f }

// Lights implements render.EffectScope.
func (g *Group) Lights() []render.Effect { return g.lights }

// ClipPlanes implements render.EffectScope.
func (g *Group) ClipPlanes() []render.Effect { return g.clips }

// Fog implements render.EffectScope.
func (g *Group) Fog() render.Effect { return g.fog }

// SetBounds overrides both the cull and the pick bounds. Nil means
// unbounded.
func (g *Group) SetBounds(v bounds.Volume) {
	g.cullBounds, g.pickBounds = v, v
}

// UpdateBounds recomputes the bounds of this subtree from its leaves.
func (g *Group) UpdateBounds() {
	g.cullBounds, g.pickBounds = childBounds(g.cull)
}

// childBounds updates every child and merges their bounds into the space
// the children are placed in.
func childBounds(children []render.Cullable) (cullVol, pickVol bounds.Volume) {
	cullVol, pickVol = bounds.Void{}, bounds.Void{}
	for _, c := range children {
		if c == nil {
			continue
		}
		if u, ok := c.(interface{ UpdateBounds() }); ok {
			u.UpdateBounds()
		}
		cullVol = bounds.Merge(cullVol, cullBoundsIn(c))
		if t, ok := c.(pick.Target); ok {
			pickVol = bounds.Merge(pickVol, pickBoundsIn(t))
		}
	}
	return cullVol, pickVol
}

// cullBoundsIn returns the cull bounds of c in its parent's space.
func cullBoundsIn(c render.Cullable) bounds.Volume {
	v := c.CullableBounds()
	if t, ok := c.(render.TransformCullable); ok && v != nil {
		v = v.Transform(t.Transform())
	}
	return v
}

// pickBoundsIn returns the pick bounds of t in its parent's space.
func pickBoundsIn(t pick.Target) bounds.Volume {
	v := t.PickableBounds()
	if tt, ok := t.(pick.TransformTarget); ok && v != nil {
		v = v.Transform(tt.Transform())
	}
	return v
}

// CullableBounds implements render.Cullable. A group without computed
// bounds is unbounded.
func (g *Group) CullableBounds() bounds.Volume { return g.cullBounds }

// NumCullableChildren returns -1 for a group that never had children.
func (g *Group) NumCullableChildren() int {
	if g.cull == nil {
		return -1
	}
	return len(g.cull)
}

// CullableChildren implements render.GroupCullable.
func (g *Group) CullableChildren() []render.Cullable { return g.cull }

// PickTargetType implements pick.Target.
func (g *Group) PickTargetType() pick.TargetType { return pick.TypeGroup }

// PickableBounds implements pick.Target.
func (g *Group) PickableBounds() bounds.Volume { return g.pickBounds }

// NumPickableChildren returns -1 for a group that never had children.
func (g *Group) NumPickableChildren() int { return g.NumCullableChildren() }

// PickableChildren implements pick.GroupTarget.
func (g *Group) PickableChildren() []pick.Target { return g.picks }

// TransformGroup is a Group that applies a local transform to its
// children. The inverse is kept alongside the transform and is exact for
// transforms built with SetComponents.
type TransformGroup struct {
	Group
	transform mgl64.Mat4
	inverse   mgl64.Mat4
}

// NewTransformGroup creates a transform group.
func NewTransformGroup(m mgl64.Mat4, children ...Node) *TransformGroup {
	tg := &TransformGroup{Group: *NewGroup(children...)}
	tg.SetTransform(m)
	return tg
}

// SetTransform sets an arbitrary local transform.
func (tg *TransformGroup) SetTransform(m mgl64.Mat4) {
	tg.transform = m
	tg.inverse = m.Inv()
}

// SetComponents sets the transform T*R*S and its inverse S⁻¹*Rᵀ*T⁻¹
// computed from the components directly.
func (tg *TransformGroup) SetComponents(translation mgl64.Vec3, rotation mgl64.Quat, scale mgl64.Vec3) {
	rotation = rotation.Normalize()
	tg.transform = mgl64.Translate3D(translation[0], translation[1], translation[2]).
		Mul4(rotation.Mat4()).
		Mul4(mgl64.Scale3D(scale[0], scale[1], scale[2]))
	tg.inverse = mgl64.Scale3D(1/scale[0], 1/scale[1], 1/scale[2]).
		Mul4(rotation.Mat4().Transpose()).
		Mul4(mgl64.Translate3D(-translation[0], -translation[1], -translation[2]))
}

// Transform implements render.TransformCullable and pick.TransformTarget.
func (tg *TransformGroup) Transform() mgl64.Mat4 { return tg.transform }

// InverseTransform implements pick.TransformTarget.
func (tg *TransformGroup) InverseTransform() mgl64.Mat4 { return tg.inverse }
