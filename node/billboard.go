package node

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/gogpu/scene3d/bounds"
	"github.com/gogpu/scene3d/pick"
	"github.com/gogpu/scene3d/render"
)

// Billboard rotates its children about the local Y axis so that their +Z
// side faces the viewer. It selects its children itself during culling
// and picking.
type Billboard struct {
	base
	children []Node

	// Spheres about the local origin enclosing the children under any
	// rotation about Y.
	cullVol bounds.Volume
	pickVol bounds.Volume
}

// NewBillboard creates a billboard.
func NewBillboard(children ...Node) *Billboard {
	b := &Billboard{base: newBase(""), cullVol: bounds.Void{}, pickVol: bounds.Void{}}
	for _, c := range children {
		b.AddChild(c)
	}
	return b
}

// AddChild appends a child and grows the bounding spheres.
func (b *Billboard) AddChild(n Node) {
	if n == nil {
		return
	}
	b.children = append(b.children, n)
	b.cullVol = mergeSpun(b.cullVol, spun(cullBoundsIn(n)))
	b.pickVol = mergeSpun(b.pickVol, spun(pickBoundsIn(n)))
}

// UpdateBounds refreshes the children and recomputes the bounding
// spheres.
func (b *Billboard) UpdateBounds() {
	b.cullVol, b.pickVol = bounds.Void{}, bounds.Void{}
	for _, c := range b.children {
		if u, ok := c.(interface{ UpdateBounds() }); ok {
			u.UpdateBounds()
		}
		b.cullVol = mergeSpun(b.cullVol, spun(cullBoundsIn(c)))
		b.pickVol = mergeSpun(b.pickVol, spun(pickBoundsIn(c)))
	}
}

// spun returns the sphere about the origin swept by v rotating about Y.
func spun(v bounds.Volume) bounds.Volume {
	if v == nil {
		return bounds.Infinite{}
	}
	box, ok := bounds.Enclose(v)
	switch {
	case !ok:
		return bounds.Infinite{}
	case box.IsEmpty():
		return bounds.Void{}
	}
	var r float64
	for _, p := range box.Corners() {
		r = max(r, p.Len())
	}
	return bounds.Sphere{R: r}
}

// mergeSpun merges two results of spun.
func mergeSpun(a, b bounds.Volume) bounds.Volume {
	switch {
	case a.Kind() == bounds.KindVoid:
		return b
	case b.Kind() == bounds.KindVoid:
		return a
	case a.Kind() == bounds.KindInfinite || b.Kind() == bounds.KindInfinite:
		return bounds.Infinite{}
	}
	_, ra := a.Sphere()
	_, rb := b.Sphere()
	return bounds.Sphere{R: max(ra, rb)}
}

// Children returns the children.
func (b *Billboard) Children() []Node { return b.children }

// facing returns the rotation about Y that turns +Z towards eye, given
// in the billboard's local space.
func facing(eye mgl64.Vec3) mgl64.Mat4 {
	if eye[0] == 0 && eye[2] == 0 {
		return mgl64.Ident4()
	}
	return mgl64.HomogRotate3DY(math.Atan2(eye[0], eye[2]))
}

// CullableBounds implements render.Cullable.
func (b *Billboard) CullableBounds() bounds.Volume { return b.cullVol }

// CullChildren implements render.CustomCullable.
func (b *Billboard) CullChildren(out *render.CullInstructions, world, view mgl64.Mat4, frustum bounds.Frustum, _ float64) {
	if len(b.children) == 0 {
		return
	}
	if b.cullVol.Transform(world).Classify(&frustum) == bounds.Outside {
		return
	}
	eye := world.Inv().Mul4x1(view.Inv().Col(3)).Vec3()
	out.SetTransform(facing(eye))
	for _, c := range b.children {
		out.Add(c)
	}
}

// PickTargetType implements pick.Target.
func (b *Billboard) PickTargetType() pick.TargetType { return pick.TypeCustom }

// PickableBounds implements pick.Target.
func (b *Billboard) PickableBounds() bounds.Volume { return b.pickVol }

// PickChildren implements pick.CustomTarget. The request origin stands in
// for the viewer.
func (b *Billboard) PickChildren(out *pick.CustomData, world mgl64.Mat4, req *pick.Request) {
	if len(b.children) == 0 {
		return
	}
	local := req.Local(world.Inv())
	s := b.pickVol
	var hit bool
	switch local.Geometry {
	case pick.GeometryPoint:
		hit = s.ContainsPoint(local.Origin)
	case pick.GeometryRay, pick.GeometrySegment:
		_, hit = s.IntersectRay(local.Origin, local.Direction)
	case pick.GeometrySphere:
		hit = s.IntersectSphere(local.Origin, local.Radius)
	}
	if !hit {
		return
	}
	rot := facing(local.Origin)
	for _, c := range b.children {
		out.AddWithTransform(c, rot)
	}
}
