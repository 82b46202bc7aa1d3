// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package render

import (
	"github.com/go-gl/mathgl/mgl64"

	"github.com/gogpu/scene3d/bounds"
)

// The pipeline stages see scene nodes only through the interfaces in this
// file. A node implements any subset of them; stages dispatch on interface
// presence and silently skip what a node does not provide.
//
// Every method must be safe for concurrent calls from several pipes. A
// node keeps no per-traversal state; everything a call needs arrives as
// arguments and everything it produces leaves through output parameters.

// Cullable is a node the cull stage can visit.
type Cullable interface {
	// CullableBounds returns the node's bounds in its own local space.
	CullableBounds() bounds.Volume
}

// GroupCullable is a node with any number of children.
type GroupCullable interface {
	Cullable

	// NumCullableChildren returns the number of valid entries in
	// CullableChildren, or -1 when the node has no child array at all.
	NumCullableChildren() int

	// CullableChildren may contain nil holes; callers skip them.
	CullableChildren() []Cullable
}

// SingleCullable is a node with exactly one child slot.
type SingleCullable interface {
	Cullable
	CullableChild() Cullable
}

// TransformCullable is a node that applies a local transform to its
// children.
type TransformCullable interface {
	Cullable
	Transform() mgl64.Mat4
}

// CustomCullable decides for itself which children are visible. The cull
// stage performs no bounds test on it; the node does its own.
type CustomCullable interface {
	Cullable
	CullChildren(out *CullInstructions, world, view mgl64.Mat4, frustum bounds.Frustum, angularRes float64)
}

// LeafCullable terminates traversal and contributes one renderable.
type LeafCullable interface {
	Cullable

	// Renderable returns the renderable, or nil when the leaf draws nothing.
	Renderable() Renderable
}

// EffectScope is implemented by groups whose lights, clip planes and fog
// apply to their whole subtree.
type EffectScope interface {
	Lights() []Effect
	ClipPlanes() []Effect
	Fog() Effect
}

// Renderable is anything the output device can draw.
type Renderable interface {
	Render(dc DrawContext)
}

// StatefulRenderable changes device state in Render and restores it in
// PostRender.
type StatefulRenderable interface {
	Renderable
	PostRender(dc DrawContext)
}

// SpatializedRenderable depends on its position in 3D space, for example
// a positional sound. The sorter attaches the inverse world transform.
type SpatializedRenderable interface {
	Renderable
	IsSpatialized() bool
}

// TransparentRenderable reports whether it must be blended.
type TransparentRenderable interface {
	Renderable
	HasTransparency() bool
}

// Renderable2D is drawn in screen space.
type Renderable2D interface {
	Renderable
	Is2D() bool
}

// ShadowCaster takes part in shadow map generation.
type ShadowCaster interface {
	Renderable
	CastsShadow() bool
}

// ShapeRenderable pairs geometry with the state components it is drawn
// under.
type ShapeRenderable interface {
	Renderable
	Geometry() Renderable
	Components() []Component
}

// Component is one piece of appearance state: a shader, a texture or a
// material.
type Component interface {
	StatefulRenderable

	// StartOp is the op that opens this component's state block, such as
	// StartShaderProgram or StartTexture. StartState covers everything else.
	StartOp() RenderOp

	// StateID identifies equal state; components with the same StartOp and
	// StateID can share one state block.
	StateID() uint64
}

// ShaderArgs is a component applied with SetShaderArgs inside an open
// shader program block.
type ShaderArgs interface {
	Renderable
	ShaderArgsID() uint64
}

// CustomRenderable produces its own draw instructions during sorting.
type CustomRenderable interface {
	Renderable
	ProcessCull(out *RenderableInstructions, world, view mgl64.Mat4, frustum bounds.Frustum, angularRes float64)
}

// Effect is a light, clip plane or fog that brackets the renderables it
// affects.
type Effect interface {
	StatefulRenderable
	EffectID() uint64
}

// DrawContext is the view of the output device a renderable gets while it
// is being drawn.
type DrawContext interface {
	// ModelView returns the current model-view matrix.
	ModelView() mgl64.Mat4

	// Projection returns the current projection matrix.
	Projection() mgl64.Mat4

	// Custom returns the instructions a CustomRenderable produced during
	// sorting, or nil.
	Custom() any

	// DeviceHandle returns the host GPU device.
	DeviceHandle() DeviceHandle
}
