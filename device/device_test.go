// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package device

import (
	"bytes"
	"image"
	"image/color"
	"testing"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gogpu/scene3d/cull"
	"github.com/gogpu/scene3d/node"
	"github.com/gogpu/scene3d/render"
	"github.com/gogpu/scene3d/sorter"
)

var (
	white = color.NRGBA{255, 255, 255, 255}
	red   = color.NRGBA{255, 0, 0, 255}
	green = color.NRGBA{0, 255, 0, 255}
	black = color.RGBA{0, 0, 0, 255}
)

// redBox is a 2x2x2 box five units in front of the default camera. Its
// front face covers the middle of a square surface.
func redBox() node.Node {
	shape := node.NewShape(node.NewBoxGeometry(mgl64.Vec3{2, 2, 2}, white), node.NewMaterial(red))
	return node.NewTransformGroup(mgl64.Translate3D(0, 0, -5), shape)
}

func pass(root render.Cullable, size int, clear bool) render.Pass {
	p := render.Pass{Root: root, Env: render.DefaultEnvironment(size, size)}
	if clear {
		c := render.DefaultClearState()
		p.Clear = &c
	}
	return p
}

func drawFrame(t *testing.T, dev render.OutputDevice, frame *render.Frame) *render.RenderInstructions {
	t.Helper()
	fo := cull.NewFrameOutput()
	require.NoError(t, cull.NewStage().CullFrame(fo, frame))
	st, err := sorter.NewStage(sorter.NewStatePolicy())
	require.NoError(t, err)
	require.True(t, st.SortFrame(fo, frame))

	var prof render.ProfilingData
	require.True(t, dev.Draw(st.Instructions(), &prof))
	return st.Instructions()
}

func TestRasterDrawsBox(t *testing.T) {
	dev := NewRaster(64, 64)
	drawFrame(t, dev, render.SinglePass(redBox(), render.DefaultEnvironment(64, 64), 64, 64))

	img := dev.Image()
	assert.Equal(t, color.RGBA{255, 0, 0, 255}, img.RGBAAt(34, 34))
	assert.Equal(t, black, img.RGBAAt(1, 1))
	assert.Equal(t, 2, dev.Triangles(), "only the front face survives back-face removal")
	assert.Equal(t, 1, dev.Frames())
}

func TestRasterLayers(t *testing.T) {
	dev := NewRaster(64, 64)
	frame := &render.Frame{Viewports: []render.Viewport{{
		Width: 64, Height: 64,
		Layers: []render.Layer{
			{ID: 0, Passes: []render.Pass{pass(redBox(), 64, true)}},
			{ID: 1, Passes: []render.Pass{pass(node.NewRect2D(0, 0, 8, 8, green), 64, false)}},
		},
	}}}
	drawFrame(t, dev, frame)

	img := dev.Image()
	assert.Equal(t, color.RGBA{0, 255, 0, 255}, img.RGBAAt(5, 2), "the overlay layer is composited on top")
	assert.Equal(t, color.RGBA{255, 0, 0, 255}, img.RGBAAt(34, 34))
	assert.Equal(t, []int{1}, dev.Surface().Layers())
}

func TestRasterOffscreen(t *testing.T) {
	dev := NewRaster(32, 32)
	target := &render.OffscreenTarget{Name: "mirror", Width: 16, Height: 16, Buffer: render.DefaultBufferSetup()}
	off := pass(redBox(), 16, true)
	off.Target = target
	frame := &render.Frame{Viewports: []render.Viewport{{
		Width: 32, Height: 32,
		Layers: []render.Layer{{Passes: []render.Pass{off, pass(node.NewGroup(), 32, true)}}},
	}}}
	instr := drawFrame(t, dev, frame)
	require.Len(t, instr.Offscreens, 1)

	img := dev.Offscreen(target)
	require.NotNil(t, img)
	assert.Equal(t, image.Rect(0, 0, 16, 16), img.Bounds())
	assert.Equal(t, color.RGBA{255, 0, 0, 255}, img.RGBAAt(9, 9))
	assert.Equal(t, black, dev.Image().RGBAAt(16, 16), "the main surface does not see the offscreen pass")
}

func TestRasterSpatialSound(t *testing.T) {
	dev := NewRaster(8, 8)
	snd := node.NewSound(1, 1, 100)
	root := node.NewTransformGroup(mgl64.Translate3D(0, 0, -4), snd)
	drawFrame(t, dev, render.SinglePass(root, render.DefaultEnvironment(8, 8), 8, 8))

	p, ok := dev.Sources()[snd.ID()]
	require.True(t, ok)
	assert.InDelta(t, 4, p.Listener[2], 1e-9)
	assert.InDelta(t, 0.25, p.Gain, 1e-9)
}

func TestRasterLightingAndFog(t *testing.T) {
	gray := color.NRGBA{100, 100, 100, 255}
	shape := node.NewShape(node.NewBoxGeometry(mgl64.Vec3{2, 2, 2}, gray))
	g := node.NewTransformGroup(mgl64.Translate3D(0, 0, -5), shape)
	g.AddLight(node.NewLight(mgl64.Vec3{0, 0, -1}, white))

	dev := NewRaster(64, 64)
	drawFrame(t, dev, render.SinglePass(g, render.DefaultEnvironment(64, 64), 64, 64))
	assert.Equal(t, uint8(125), dev.Image().RGBAAt(34, 34).R, "ambient plus a head-on light")

	g.SetFog(node.NewFog(white, 0, 4))
	drawFrame(t, dev, render.SinglePass(g, render.DefaultEnvironment(64, 64), 64, 64))
	assert.Equal(t, color.RGBA{255, 255, 255, 255}, dev.Image().RGBAAt(34, 34), "beyond the fog's far distance")
}

func TestRasterClosed(t *testing.T) {
	dev := NewRaster(4, 4)
	require.NoError(t, dev.Close())
	assert.False(t, dev.Draw(render.NewRenderInstructions(), nil))
	assert.False(t, dev.Draw(nil, nil))
	assert.Equal(t, "raster", dev.Capabilities().Name)
	assert.False(t, dev.Capabilities().SupportsShadows)
}

func TestTrace(t *testing.T) {
	var buf bytes.Buffer
	dev := NewTrace(&buf)
	drawFrame(t, dev, render.SinglePass(redBox(), render.DefaultEnvironment(64, 64), 64, 64))
	require.NoError(t, dev.Err())

	out := buf.String()
	assert.Contains(t, out, "frame 0:")
	assert.Contains(t, out, "StartViewport 0,0 64x64")
	assert.Contains(t, out, "StartState Material")
	assert.Contains(t, out, "RenderGeometry TriangleGeometry @(0,0,-5)")
	assert.Contains(t, out, "StopViewport")
}

func TestTraceRejectsUnbalanced(t *testing.T) {
	var buf bytes.Buffer
	dev := NewTrace(&buf)
	instr := render.NewRenderInstructions()
	instr.AppendOp(render.StartLayer)

	assert.False(t, dev.Draw(instr, nil))
	assert.ErrorIs(t, dev.Err(), render.ErrUnbalanced)
	assert.Empty(t, buf.String())

	require.NoError(t, dev.Close())
	assert.False(t, dev.Draw(render.NewRenderInstructions(), nil))
}

func TestNull(t *testing.T) {
	dev := NewNull()
	instr := render.NewRenderInstructions()
	instr.AppendOp(render.StartTransparent)
	instr.AppendOp(render.StopTransparent)
	off := render.NewRenderInstructions()
	off.AppendOp(render.StartShadow)
	off.AppendOp(render.StopShadow)
	instr.Offscreens = append(instr.Offscreens, off)

	var prof render.ProfilingData
	assert.True(t, dev.Draw(instr, &prof))
	assert.Equal(t, 1, dev.Frames())
	assert.Equal(t, 4, dev.Ops())

	require.NoError(t, dev.Close())
	assert.False(t, dev.Draw(instr, &prof))
}

func TestSurfaceComposite(t *testing.T) {
	s := NewSurface(4, 4)
	s.Begin(color.RGBA{0, 0, 255, 255})
	fill(s.Layer(2), image.Rect(0, 0, 2, 2), red)
	fill(s.Layer(-1), image.Rect(0, 0, 4, 4), green)
	s.SetLayerVisible(3, false)
	assert.Equal(t, []int{-1, 2}, s.Layers())

	s.Composite()
	img := s.Image()
	assert.Equal(t, color.RGBA{255, 0, 0, 255}, img.RGBAAt(0, 0))
	assert.Equal(t, color.RGBA{0, 0, 255, 255}, img.RGBAAt(3, 3), "an opaque base hides layers below it")

	s.Begin(color.Transparent)
	s.Composite()
	assert.Equal(t, color.RGBA{}, s.Image().RGBAAt(0, 0), "layers not drawn this frame are skipped")
}
