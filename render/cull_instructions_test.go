// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package render

import (
	"testing"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/stretchr/testify/assert"

	"github.com/gogpu/scene3d/bounds"
)

type stubCullable struct{}

func (stubCullable) CullableBounds() bounds.Volume { return bounds.Void{} }

func TestNewCullInstructions(t *testing.T) {
	ci := NewCullInstructions()
	assert.Equal(t, 0, ci.NumChildren)
	assert.Len(t, ci.Children, DefaultCullCapacity)
	assert.Equal(t, 20, len(ci.Children))
	assert.False(t, ci.HasTransform)
	assert.Equal(t, mgl64.Ident4(), ci.LocalTransform)
}

func TestCullInstructionsResizeAlwaysResets(t *testing.T) {
	for _, n := range []int{0, 1, 5, 20, 64} {
		ci := NewCullInstructions()
		for range 10 {
			ci.Add(stubCullable{})
		}
		ci.Resize(n)
		assert.Len(t, ci.Children, n, "capacity exactly %d", n)
		assert.Equal(t, 0, ci.NumChildren, "count reset for %d", n)
		assert.LessOrEqual(t, ci.NumChildren, len(ci.Children))
	}
}

func TestCullInstructionsAddGrowsPreserving(t *testing.T) {
	ci := NewCullInstructions()
	ci.Resize(1)
	a, b := stubCullable{}, &stubCullable{}
	ci.Add(a)
	ci.Add(b)
	ci.Add(nil)

	assert.Equal(t, 3, ci.NumChildren)
	assert.GreaterOrEqual(t, len(ci.Children), 3)
	assert.Equal(t, []Cullable{a, b, nil}, ci.Valid())
}

func TestCullInstructionsReset(t *testing.T) {
	ci := NewCullInstructions()
	ci.Add(stubCullable{})
	ci.SetTransform(mgl64.Translate3D(1, 2, 3))

	ci.Reset()
	assert.Equal(t, 0, ci.NumChildren)
	assert.False(t, ci.HasTransform)
	assert.Equal(t, mgl64.Ident4(), ci.LocalTransform)
	assert.Nil(t, ci.Children[0])
}

func TestRenderableInstructionsReset(t *testing.T) {
	var ri RenderableInstructions
	ri.Instructions = []int{1}
	ri.SetTransform(mgl64.Scale3D(2, 2, 2))
	ri.Reset()
	assert.Nil(t, ri.Instructions)
	assert.False(t, ri.HasTransform)
	assert.Equal(t, mgl64.Ident4(), ri.LocalTransform)
}
