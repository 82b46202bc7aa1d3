// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package device

import (
	"image"
	"image/color"

	"github.com/go-gl/mathgl/mgl64"
	"golang.org/x/image/vector"

	"github.com/gogpu/scene3d/node"
	"github.com/gogpu/scene3d/render"
)

// view is the part of the executor state that viewports and viewport
// states push and pop.
type view struct {
	target    *image.RGBA
	rect      image.Rectangle
	offscreen bool
	env       render.Environment
	eye       mgl64.Vec3
}

type light struct {
	dir mgl64.Vec3
	c   color.NRGBA
}

type fog struct {
	c         color.NRGBA
	near, far float64
}

// executor walks one instruction stream and is the draw context the
// renderables see.
type executor struct {
	dev *Raster
	dec render.Decoder
	ras vector.Rasterizer

	cur   view
	stack []view

	modelView mgl64.Mat4
	custom    any
	inverse   mgl64.Mat4
	hasInv    bool

	tints       []color.NRGBA
	lights      map[uint64]light
	clips       map[uint64]mgl64.Vec4
	fog         *fog
	transparent bool
}

var (
	_ render.DrawContext  = (*executor)(nil)
	_ node.TriangleSink   = (*executor)(nil)
	_ node.StateSink      = (*executor)(nil)
	_ node.SpatialContext = (*executor)(nil)
	_ node.AudioSink      = (*executor)(nil)
)

// run executes instr into target.
func (e *executor) run(instr *render.RenderInstructions, target *image.RGBA, offscreen bool) {
	env := render.DefaultEnvironment(target.Bounds().Dx(), target.Bounds().Dy())
	e.cur = view{target: target, rect: target.Bounds(), offscreen: offscreen, env: env}
	e.stack = e.stack[:0]
	e.modelView = env.View
	e.tints = e.tints[:0]
	e.lights = make(map[uint64]light)
	e.clips = make(map[uint64]mgl64.Vec4)
	e.fog = nil
	e.transparent = false

	e.dec.Reset(instr)
	for e.dec.Next() {
		e.exec(e.dec.Op(), e.dec.Detail())
	}
	e.custom = nil
}

func (e *executor) push() {
	e.stack = append(e.stack, e.cur)
}

func (e *executor) pop() {
	if n := len(e.stack); n > 0 {
		e.cur = e.stack[n-1]
		e.stack = e.stack[:n-1]
	}
}

// rect returns the pixel rectangle of vp inside the current target.
func (e *executor) rect(vp *render.Viewport) image.Rectangle {
	if vp == nil || e.cur.offscreen || vp.Width <= 0 || vp.Height <= 0 {
		return e.cur.target.Bounds()
	}
	return image.Rect(vp.X, vp.Y, vp.X+vp.Width, vp.Y+vp.Height).Intersect(e.cur.target.Bounds())
}

func (e *executor) exec(op render.RenderOp, d *render.Detail) {
	switch op {
	case render.StartShadowGenerator:
		e.dec.Skip()

	case render.StartViewport:
		e.push()
		if d.Offscreen != nil {
			e.cur.target = e.dev.offscreenImage(d.Offscreen)
			e.cur.offscreen = true
		}
		e.cur.rect = e.rect(d.Viewport)
	case render.StopViewport:
		e.pop()

	case render.StartLayer:
		e.push()
		if d.Layer != nil && !e.cur.offscreen {
			e.cur.target = e.dev.surface.Layer(d.Layer.ID)
		}
	case render.StopLayer:
		e.pop()

	case render.SetViewportState:
		e.push()
		e.cur.rect = e.rect(d.Viewport)
		if d.Env != nil {
			e.cur.env = *d.Env
			e.cur.eye = d.Env.Eye()
		}
	case render.StopViewportState:
		e.pop()

	case render.SetBufferClear:
		if d.Clear != nil && d.Clear.ClearColor {
			c := d.Clear.Color
			fill(e.cur.target, e.cur.rect, color.NRGBA{unit(c.R), unit(c.G), unit(c.B), unit(c.A)})
		}

	case render.StartTransparent:
		e.transparent = true
	case render.StopTransparent:
		e.transparent = false

	default:
		if d.Renderable == nil {
			return
		}
		e.apply(d)
		if op.IsStop() {
			if s, ok := d.Renderable.(render.StatefulRenderable); ok {
				s.PostRender(e)
			}
			return
		}
		d.Renderable.Render(e)
	}
}

// apply loads the transform and custom data of d into the context.
func (e *executor) apply(d *render.Detail) {
	e.modelView = e.cur.env.View
	if d.HasTransform {
		e.modelView = e.modelView.Mul4(d.Transform)
	}
	e.custom = d.Custom
	e.inverse, e.hasInv = d.Inverse, d.HasInverse
}

// ModelView implements render.DrawContext.
func (e *executor) ModelView() mgl64.Mat4 { return e.modelView }

// Projection implements render.DrawContext.
func (e *executor) Projection() mgl64.Mat4 { return e.cur.env.Projection }

// Custom implements render.DrawContext.
func (e *executor) Custom() any { return e.custom }

// DeviceHandle implements render.DrawContext.
func (e *executor) DeviceHandle() render.DeviceHandle { return e.dev.handle }

// InverseWorld implements node.SpatialContext.
func (e *executor) InverseWorld() (mgl64.Mat4, bool) { return e.inverse, e.hasInv }

// Eye implements node.SpatialContext.
func (e *executor) Eye() mgl64.Vec3 { return e.cur.eye }

// PlaceSource implements node.AudioSink.
func (e *executor) PlaceSource(id uint64, listener mgl64.Vec3, gain float64) {
	e.dev.sources[id] = Placement{Listener: listener, Gain: gain}
}

// PushTint implements node.StateSink.
func (e *executor) PushTint(c color.NRGBA) { e.tints = append(e.tints, c) }

// PopTint implements node.StateSink.
func (e *executor) PopTint() {
	if n := len(e.tints); n > 0 {
		e.tints = e.tints[:n-1]
	}
}

// EnableLight implements node.StateSink.
func (e *executor) EnableLight(id uint64, dir mgl64.Vec3, c color.NRGBA) {
	e.lights[id] = light{dir: dir, c: c}
}

// DisableLight implements node.StateSink.
func (e *executor) DisableLight(id uint64) { delete(e.lights, id) }

// EnableClipPlane implements node.StateSink.
func (e *executor) EnableClipPlane(id uint64, plane mgl64.Vec4) { e.clips[id] = plane }

// DisableClipPlane implements node.StateSink.
func (e *executor) DisableClipPlane(id uint64) { delete(e.clips, id) }

// EnableFog implements node.StateSink.
func (e *executor) EnableFog(c color.NRGBA, near, far float64) {
	e.fog = &fog{c: c, near: near, far: far}
}

// DisableFog implements node.StateSink.
func (e *executor) DisableFog() { e.fog = nil }

// unit converts a [0,1] channel to 8 bits.
func unit(v float64) uint8 {
	return uint8(min(max(v, 0), 1)*255 + 0.5)
}
