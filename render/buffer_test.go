// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package render

import (
	"testing"

	"github.com/gogpu/gputypes"
	"github.com/stretchr/testify/assert"
)

func TestDefaultBufferSetup(t *testing.T) {
	b := DefaultBufferSetup()
	assert.Equal(t, 16, b.DepthBits)
	assert.Equal(t, 0, b.StencilBits)
	assert.Equal(t, 0, b.NumAASamples)
	assert.False(t, b.UseFloatingPointColor)
	assert.False(t, b.UseUnclampedColor)
	assert.NoError(t, b.Validate())
	assert.Equal(t, uint32(1), b.SampleCount())
}

func TestBufferSetupFormats(t *testing.T) {
	tests := []struct {
		name  string
		setup BufferSetupData
		color gputypes.TextureFormat
		depth gputypes.TextureFormat
	}{
		{"default", DefaultBufferSetup(), gputypes.TextureFormatRGBA8Unorm, gputypes.TextureFormatDepth16Unorm},
		{"no depth", BufferSetupData{}, gputypes.TextureFormatRGBA8Unorm, gputypes.TextureFormatUndefined},
		{"depth24", BufferSetupData{DepthBits: 24}, gputypes.TextureFormatRGBA8Unorm, gputypes.TextureFormatDepth24Plus},
		{"depth32", BufferSetupData{DepthBits: 32}, gputypes.TextureFormatRGBA8Unorm, gputypes.TextureFormatDepth32Float},
		{"stencil", BufferSetupData{DepthBits: 16, StencilBits: 8}, gputypes.TextureFormatRGBA8Unorm, gputypes.TextureFormatDepth24PlusStencil8},
		{"float", BufferSetupData{UseFloatingPointColor: true}, gputypes.TextureFormatRGBA16Float, gputypes.TextureFormatUndefined},
		{"unclamped", BufferSetupData{UseFloatingPointColor: true, UseUnclampedColor: true}, gputypes.TextureFormatRGBA32Float, gputypes.TextureFormatUndefined},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.color, tt.setup.ColorFormat())
			assert.Equal(t, tt.depth, tt.setup.DepthFormat())
		})
	}
}

func TestBufferSetupValidate(t *testing.T) {
	bad := []BufferSetupData{
		{DepthBits: -1},
		{DepthBits: 64},
		{StencilBits: 9},
		{NumAASamples: 3},
		{NumRenderTargets: -1},
		{NumRenderTargets: 2, RenderTargetIndex: 2},
	}
	for _, b := range bad {
		assert.ErrorIs(t, b.Validate(), ErrInvalidBufferSetup, "%+v", b)
	}
	good := BufferSetupData{DepthBits: 24, StencilBits: 8, NumAASamples: 4, NumRenderTargets: 2, RenderTargetIndex: 1}
	assert.NoError(t, good.Validate())
}

func TestClearStateLoadOps(t *testing.T) {
	var none *ClearState
	assert.Equal(t, gputypes.LoadOpLoad, none.ColorLoadOp())

	c := DefaultClearState()
	assert.Equal(t, gputypes.LoadOpClear, c.ColorLoadOp())
	assert.Equal(t, gputypes.LoadOpClear, c.DepthLoadOp())
	assert.Equal(t, 1.0, c.Depth)

	c.ClearDepth = false
	assert.Equal(t, gputypes.LoadOpLoad, c.DepthLoadOp())
}
