// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package render

import "github.com/go-gl/mathgl/mgl64"

// DefaultCullCapacity is the initial number of child slots in a
// CullInstructions buffer.
const DefaultCullCapacity = 20

// CullInstructions is the output parameter a CustomCullable fills to tell
// the cull stage which children to visit and under what local transform.
//
// Children may be longer than NumChildren; only the first NumChildren
// entries are valid.
type CullInstructions struct {
	Children    []Cullable
	NumChildren int

	// LocalTransform applies to every listed child when HasTransform is set.
	LocalTransform mgl64.Mat4
	HasTransform   bool
}

// NewCullInstructions creates a buffer with DefaultCullCapacity slots.
func NewCullInstructions() *CullInstructions {
	return &CullInstructions{
		Children:       make([]Cullable, DefaultCullCapacity),
		LocalTransform: mgl64.Ident4(),
	}
}

// Resize replaces Children with exactly n slots and resets NumChildren
// to zero. The previous entries are not preserved.
func (c *CullInstructions) Resize(n int) {
	c.Children = make([]Cullable, max(n, 0))
	c.NumChildren = 0
}

// Add appends a child, growing Children with its content kept when full.
func (c *CullInstructions) Add(child Cullable) {
	if c.NumChildren == len(c.Children) {
		grown := make([]Cullable, max(2*len(c.Children), DefaultCullCapacity))
		copy(grown, c.Children)
		c.Children = grown
	}
	c.Children[c.NumChildren] = child
	c.NumChildren++
}

// SetTransform sets the local transform applied to the listed children.
func (c *CullInstructions) SetTransform(m mgl64.Mat4) {
	c.LocalTransform = m
	c.HasTransform = true
}

// Valid returns the listed children.
func (c *CullInstructions) Valid() []Cullable {
	return c.Children[:min(c.NumChildren, len(c.Children))]
}

// Reset clears the listed children and the transform for reuse.
func (c *CullInstructions) Reset() {
	clear(c.Children[:min(c.NumChildren, len(c.Children))])
	c.NumChildren = 0
	c.LocalTransform = mgl64.Ident4()
	c.HasTransform = false
}

// RenderableInstructions is the output parameter a CustomRenderable fills
// during sorting.
type RenderableInstructions struct {
	// Instructions is opaque to the pipeline and is handed back to the
	// renderable at draw time through DrawContext.Custom. A nil value
	// means the renderable has nothing to draw this frame.
	Instructions any

	LocalTransform mgl64.Mat4
	HasTransform   bool
}

// Reset clears r for reuse.
func (r *RenderableInstructions) Reset() {
	r.Instructions = nil
	r.LocalTransform = mgl64.Ident4()
	r.HasTransform = false
}

// SetTransform sets the local transform applied on top of the world
// transform of the renderable.
func (r *RenderableInstructions) SetTransform(m mgl64.Mat4) {
	r.LocalTransform = m
	r.HasTransform = true
}
