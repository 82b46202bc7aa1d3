// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package render

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/gogpu/scene3d/bounds"
)

// Environment is the per-pass view data the sort stage consumes alongside
// the cull output.
type Environment struct {
	// View is the world-to-eye transform.
	View mgl64.Mat4

	Projection mgl64.Mat4

	// AngularResolution is the angle in radians covered by one pixel.
	// Level-of-detail nodes use it to pick a representation.
	AngularResolution float64

	Background Renderable
	Fog        Effect
}

// DefaultEnvironment returns an identity view looking down -Z with a 45
// degree perspective projection for the given surface size.
func DefaultEnvironment(width, height int) Environment {
	aspect := 1.0
	if width > 0 && height > 0 {
		aspect = float64(width) / float64(height)
	}
	fovy := mgl64.DegToRad(45)
	env := Environment{
		View:       mgl64.Ident4(),
		Projection: mgl64.Perspective(fovy, aspect, 0.1, 1000),
	}
	if height > 0 {
		env.AngularResolution = fovy / float64(height)
	}
	return env
}

// Eye returns the viewer position in world space.
func (e *Environment) Eye() mgl64.Vec3 {
	inv := e.View.Inv()
	return inv.Col(3).Vec3()
}

// Frustum returns the world-space view frustum.
func (e *Environment) Frustum() bounds.Frustum {
	return bounds.FrustumFromMatrix(e.Projection.Mul4(e.View))
}

// DistanceTo returns the eye distance of a point given in world space.
func (e *Environment) DistanceTo(p mgl64.Vec3) float64 {
	d := e.Eye().Sub(p).Len()
	if math.IsNaN(d) {
		return math.Inf(1)
	}
	return d
}

// OffscreenTarget is a texture the scene renders into before the main
// surface is drawn.
type OffscreenTarget struct {
	Name   string
	Width  int
	Height int
	Buffer BufferSetupData
}

// Descriptor returns the texture descriptor for the color attachment.
func (t *OffscreenTarget) Descriptor() TextureDescriptor {
	desc := DefaultTextureDescriptor(uint32(max(t.Width, 0)), uint32(max(t.Height, 0)), t.Buffer.ColorFormat())
	desc.Label = t.Name
	desc.SampleCount = t.Buffer.SampleCount()
	return desc
}

// Pass is one render of one scene root with one environment.
type Pass struct {
	Root   Cullable
	Env    Environment
	Buffer *BufferSetupData
	Clear  *ClearState

	// Target redirects the pass into an offscreen texture.
	Target *OffscreenTarget
}

// Layer is a stack of passes composited in order. A layer with more
// than one pass is rendered as a multipass block.
type Layer struct {
	ID     int
	Passes []Pass
}

// IsMultipass reports whether the layer has more than one pass.
func (l *Layer) IsMultipass() bool {
	return len(l.Passes) > 1
}

// Viewport is a rectangle of the output surface with its own layers.
// Layers are composited in slice order, lowest first.
type Viewport struct {
	X, Y          int
	Width, Height int
	Layers        []Layer
}

// Frame describes everything one output surface draws per frame.
type Frame struct {
	// Context identifies the output surface. Offscreen targets shared
	// between surfaces are aliased per context.
	Context int

	Viewports []Viewport
}

// NumPasses returns the total pass count across viewports and layers.
func (f *Frame) NumPasses() int {
	n := 0
	for i := range f.Viewports {
		for j := range f.Viewports[i].Layers {
			n += len(f.Viewports[i].Layers[j].Passes)
		}
	}
	return n
}

// SinglePass wraps a root and environment into a one-viewport frame.
func SinglePass(root Cullable, env Environment, width, height int) *Frame {
	buf := DefaultBufferSetup()
	clr := DefaultClearState()
	return &Frame{
		Viewports: []Viewport{{
			Width:  width,
			Height: height,
			Layers: []Layer{{
				Passes: []Pass{{Root: root, Env: env, Buffer: &buf, Clear: &clr}},
			}},
		}},
	}
}

// CulledDetail is one visible node produced by the cull stage.
type CulledDetail struct {
	// Renderable is nil when the node contributed no renderable.
	Renderable Renderable

	// Transform is the local-to-world transform.
	Transform mgl64.Mat4

	// Bounds are the node's world-space bounds, or nil.
	Bounds bounds.Volume

	// Lights and ClipPlanes are shared between nodes of one scope and
	// must not be modified.
	Lights     []EffectDetail
	ClipPlanes []EffectDetail
	Fog        Effect

	// Depth is the traversal depth at which the node was found.
	Depth int
}

// Centroid returns the world-space center of the node.
func (c *CulledDetail) Centroid() mgl64.Vec3 {
	if c.Bounds != nil && c.Bounds.Kind() != bounds.KindVoid && c.Bounds.Kind() != bounds.KindInfinite {
		return c.Bounds.Center()
	}
	return c.Transform.Col(3).Vec3()
}

// EffectDetail is an effect with the world transform of the group that
// scoped it.
type EffectDetail struct {
	Effect    Effect
	Transform mgl64.Mat4
}
