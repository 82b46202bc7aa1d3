package node

import (
	"image/color"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/gogpu/scene3d/bounds"
	"github.com/gogpu/scene3d/pick"
	"github.com/gogpu/scene3d/render"
)

// Overlay2D draws flat triangles in screen pixels on top of the 3D scene.
// It is never culled and never picked.
type Overlay2D struct {
	base
	vertices []mgl64.Vec2
	color    color.NRGBA
}

// NewOverlay2D creates an overlay from a triangle list in pixels.
func NewOverlay2D(vertices []mgl64.Vec2, c color.NRGBA) *Overlay2D {
	o := &Overlay2D{base: newBase(""), vertices: vertices[:len(vertices)/3*3], color: c}
	o.mask = 0
	return o
}

// NewRect2D creates a rectangle overlay.
func NewRect2D(x, y, w, h float64, c color.NRGBA) *Overlay2D {
	a, b := mgl64.Vec2{x, y}, mgl64.Vec2{x + w, y}
	cc, d := mgl64.Vec2{x + w, y + h}, mgl64.Vec2{x, y + h}
	return NewOverlay2D([]mgl64.Vec2{a, b, cc, a, cc, d}, c)
}

// Is2D implements render.Renderable2D.
func (o *Overlay2D) Is2D() bool { return true }

// Render implements render.Renderable.
func (o *Overlay2D) Render(dc render.DrawContext) {
	if sink, ok := dc.(TriangleSink); ok && len(o.vertices) > 0 {
		sink.DrawTriangles2D(o.vertices, o.color)
	}
}

// Renderable implements render.LeafCullable.
func (o *Overlay2D) Renderable() render.Renderable {
	if len(o.vertices) == 0 {
		return nil
	}
	return o
}

// CullableBounds implements render.Cullable.
func (o *Overlay2D) CullableBounds() bounds.Volume { return bounds.Infinite{} }

// PickTargetType implements pick.Target.
func (o *Overlay2D) PickTargetType() pick.TargetType { return pick.TypeLeaf }

// PickableBounds implements pick.Target.
func (o *Overlay2D) PickableBounds() bounds.Volume { return bounds.Void{} }
