package node

import (
	"image/color"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/gogpu/scene3d/render"
)

// Light is a directional light. Direction points from the light towards
// the scene, in the space of the group that scopes the light.
type Light struct {
	Direction mgl64.Vec3
	Color     color.NRGBA
	id        uint64
}

// NewLight creates a directional light.
func NewLight(dir mgl64.Vec3, c color.NRGBA) *Light {
	return &Light{Direction: dir, Color: c, id: nextID()}
}

// EffectID implements render.Effect.
func (l *Light) EffectID() uint64 { return l.id }

// Render enables the light with its direction in eye space.
func (l *Light) Render(dc render.DrawContext) {
	if s, ok := dc.(StateSink); ok {
		dir := dc.ModelView().Mul4x1(l.Direction.Vec4(0)).Vec3()
		if dir.Len() > 0 {
			dir = dir.Normalize()
		}
		s.EnableLight(l.id, dir, l.Color)
	}
}

// PostRender disables the light.
func (l *Light) PostRender(dc render.DrawContext) {
	if s, ok := dc.(StateSink); ok {
		s.DisableLight(l.id)
	}
}

// ClipPlane discards geometry on the negative side of a plane
// a*x + b*y + c*z + d = 0 given in the space of its scoping group.
type ClipPlane struct {
	Plane mgl64.Vec4
	id    uint64
}

// NewClipPlane creates a clip plane.
func NewClipPlane(plane mgl64.Vec4) *ClipPlane {
	return &ClipPlane{Plane: plane, id: nextID()}
}

// EffectID implements render.Effect.
func (c *ClipPlane) EffectID() uint64 { return c.id }

// Render enables the plane in eye space.
func (c *ClipPlane) Render(dc render.DrawContext) {
	if s, ok := dc.(StateSink); ok {
		// Planes transform by the inverse transpose.
		inv := dc.ModelView().Inv()
		s.EnableClipPlane(c.id, inv.Transpose().Mul4x1(c.Plane))
	}
}

// PostRender disables the plane.
func (c *ClipPlane) PostRender(dc render.DrawContext) {
	if s, ok := dc.(StateSink); ok {
		s.DisableClipPlane(c.id)
	}
}

// Fog blends geometry towards Color between Near and Far eye distances.
type Fog struct {
	Color     color.NRGBA
	Near, Far float64
	id        uint64
}

// NewFog creates linear fog.
func NewFog(c color.NRGBA, near, far float64) *Fog {
	return &Fog{Color: c, Near: near, Far: far, id: nextID()}
}

// EffectID implements render.Effect.
func (f *Fog) EffectID() uint64 { return f.id }

// Render enables fog.
func (f *Fog) Render(dc render.DrawContext) {
	if s, ok := dc.(StateSink); ok {
		s.EnableFog(f.Color, f.Near, f.Far)
	}
}

// PostRender disables fog.
func (f *Fog) PostRender(dc render.DrawContext) {
	if s, ok := dc.(StateSink); ok {
		s.DisableFog()
	}
}
