// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package render

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubRenderable struct{ name string }

func (stubRenderable) Render(DrawContext) {}

func TestNewRenderInstructionsDefaults(t *testing.T) {
	ri := NewRenderInstructions()
	assert.Equal(t, 0, ri.Len())
	assert.Equal(t, DefaultInstructionCapacity, ri.Capacity())
	assert.Equal(t, 496, ri.Capacity())
	assert.Equal(t, GrowGeometric, ri.Strategy())
	assert.False(t, ri.IsAlias())
	assert.Nil(t, ri.CopyOf())
}

func TestNewRenderInstructionsWithRejectsBadConfig(t *testing.T) {
	_, err := NewRenderInstructionsWith(GrowthStrategy(9), 10)
	assert.ErrorIs(t, err, ErrInvalidStrategy)

	_, err = NewRenderInstructionsWith(GrowExact, -1)
	assert.ErrorIs(t, err, ErrInvalidCapacity)

	ri, err := NewRenderInstructionsWith(GrowExact, 0)
	require.NoError(t, err)
	assert.Equal(t, 0, ri.Capacity())
}

func TestParseGrowthStrategy(t *testing.T) {
	s, err := ParseGrowthStrategy("exact")
	require.NoError(t, err)
	assert.Equal(t, GrowExact, s)

	s, err = ParseGrowthStrategy("")
	require.NoError(t, err)
	assert.Equal(t, GrowGeometric, s)

	_, err = ParseGrowthStrategy("fibonacci")
	assert.ErrorIs(t, err, ErrInvalidStrategy)
}

func TestAppendGrowth(t *testing.T) {
	tests := []struct {
		strategy GrowthStrategy
		initial  int
		appends  int
		wantCap  int
	}{
		{GrowGeometric, 2, 3, 16},
		{GrowGeometric, 20, 21, 40},
		{GrowExact, 2, 3, 3},
		{GrowExact, 0, 5, 5},
	}
	for _, tt := range tests {
		t.Run(tt.strategy.String(), func(t *testing.T) {
			ri, err := NewRenderInstructionsWith(tt.strategy, tt.initial)
			require.NoError(t, err)
			for range tt.appends {
				ri.AppendOp(RenderGeometry)
			}
			assert.Equal(t, tt.appends, ri.Len())
			assert.Equal(t, tt.wantCap, ri.Capacity())
		})
	}
}

func TestAppendCopyOnGrow(t *testing.T) {
	ri, err := NewRenderInstructionsWith(GrowGeometric, 2)
	require.NoError(t, err)
	a := stubRenderable{"a"}
	ri.Append(StartRender, Detail{Renderable: a})
	ri.Append(StopRender, Detail{Renderable: a})

	before := ri.Ops()
	beforeDetails := ri.Details()
	ri.AppendOp(RenderGeometry)

	// The grow allocated new arrays; the old view is untouched.
	assert.Equal(t, []RenderOp{StartRender, StopRender}, before)
	assert.Equal(t, a, beforeDetails[0].Renderable)
	assert.Equal(t, []RenderOp{StartRender, StopRender, RenderGeometry}, ri.Ops())
}

func TestEnsureCapacityPreservesContent(t *testing.T) {
	ri, err := NewRenderInstructionsWith(GrowExact, 4)
	require.NoError(t, err)
	ri.AppendOp(StartFog)
	ri.AppendOp(StopFog)

	ri.EnsureCapacity(100)
	assert.Equal(t, 100, ri.Capacity())
	assert.Equal(t, []RenderOp{StartFog, StopFog}, ri.Ops())

	ri.EnsureCapacity(10)
	assert.Equal(t, 100, ri.Capacity(), "never shrinks")
}

func TestResizeIsExactAndDestructive(t *testing.T) {
	for _, n := range []int{0, 3, 1000} {
		ri := NewRenderInstructions()
		ri.AppendOp(StartRender)
		ri.AppendOp(StopRender)

		ri.Resize(n)
		assert.Equal(t, n, ri.Capacity())
		assert.Equal(t, 0, ri.Len())
	}

	ri := NewRenderInstructions()
	ri.Resize(-4)
	assert.Equal(t, 0, ri.Capacity())
}

func TestResetKeepsCapacity(t *testing.T) {
	ri := NewRenderInstructions()
	ri.Append(StartRender, Detail{Renderable: stubRenderable{}})
	ri.Offscreens = append(ri.Offscreens, NewRenderInstructions())

	ri.Reset()
	assert.Equal(t, 0, ri.Len())
	assert.Equal(t, DefaultInstructionCapacity, ri.Capacity())
	assert.Empty(t, ri.Offscreens)
	assert.Nil(t, ri.details[0].Renderable, "operand cleared")
}

func TestTruncate(t *testing.T) {
	ri := NewRenderInstructions()
	ri.AppendOp(StartRender)
	ri.AppendOp(RenderGeometry)
	ri.AppendOp(StopRender)

	ri.Truncate(1)
	assert.Equal(t, []RenderOp{StartRender}, ri.Ops())
	ri.Truncate(5)
	assert.Equal(t, 1, ri.Len())
}

func TestAliasResolvesToCanonical(t *testing.T) {
	canonical := NewRenderInstructions()
	canonical.AppendOp(StartRender)
	canonical.AppendOp(StopRender)

	alias := AliasOf(canonical)
	require.True(t, alias.IsAlias())
	assert.Same(t, canonical, alias.CopyOf())
	assert.Same(t, canonical, alias.Resolve())

	// The alias's own storage is never observed by readers.
	alias.AppendOp(RenderGeometry)
	assert.Equal(t, 2, alias.Len())
	assert.Equal(t, canonical.Ops(), alias.Ops())

	chained := AliasOf(alias)
	assert.Same(t, canonical, chained.Resolve())
	assert.Equal(t, 2, chained.Len())

	op, d := chained.At(0)
	assert.Equal(t, StartRender, op)
	assert.NotNil(t, d)

	canonical.AppendOp(RenderGeometry)
	assert.Equal(t, 3, alias.Len(), "alias tracks canonical content")
}
