// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package render

import (
	"errors"
	"fmt"

	"github.com/gogpu/gputypes"
)

// ErrInvalidBufferSetup is returned by BufferSetupData.Validate.
var ErrInvalidBufferSetup = errors.New("render: invalid buffer setup")

// BufferSetupData describes the frame buffers a pass renders into.
type BufferSetupData struct {
	DepthBits         int
	StencilBits       int
	NumAASamples      int
	NumRenderTargets  int
	RenderTargetIndex int

	UseFloatingPointColor bool
	UseUnclampedColor     bool
}

// DefaultBufferSetup returns a 16-bit depth buffer with no stencil, no
// multisampling and a single clamped color target.
func DefaultBufferSetup() BufferSetupData {
	return BufferSetupData{
		DepthBits:        16,
		NumRenderTargets: 1,
	}
}

// ColorFormat returns the color attachment format implied by the setup.
func (b *BufferSetupData) ColorFormat() gputypes.TextureFormat {
	switch {
	case b.UseFloatingPointColor && b.UseUnclampedColor:
		return gputypes.TextureFormatRGBA32Float
	case b.UseFloatingPointColor:
		return gputypes.TextureFormatRGBA16Float
	default:
		return gputypes.TextureFormatRGBA8Unorm
	}
}

// DepthFormat returns the depth/stencil attachment format, or Undefined
// when no depth or stencil buffer is requested.
func (b *BufferSetupData) DepthFormat() gputypes.TextureFormat {
	switch {
	case b.StencilBits > 0:
		return gputypes.TextureFormatDepth24PlusStencil8
	case b.DepthBits <= 0:
		return gputypes.TextureFormatUndefined
	case b.DepthBits <= 16:
		return gputypes.TextureFormatDepth16Unorm
	case b.DepthBits <= 24:
		return gputypes.TextureFormatDepth24Plus
	default:
		return gputypes.TextureFormatDepth32Float
	}
}

// SampleCount returns the multisample count, at least 1.
func (b *BufferSetupData) SampleCount() uint32 {
	return uint32(max(b.NumAASamples, 1))
}

// Validate checks the setup for values no device can honor.
func (b *BufferSetupData) Validate() error {
	switch {
	case b.DepthBits < 0 || b.DepthBits > 32:
		return fmt.Errorf("%w: depth bits %d", ErrInvalidBufferSetup, b.DepthBits)
	case b.StencilBits < 0 || b.StencilBits > 8:
		return fmt.Errorf("%w: stencil bits %d", ErrInvalidBufferSetup, b.StencilBits)
	case b.NumAASamples < 0 || b.NumAASamples&(b.NumAASamples-1) != 0:
		return fmt.Errorf("%w: %d samples is not a power of two", ErrInvalidBufferSetup, b.NumAASamples)
	case b.NumRenderTargets < 0:
		return fmt.Errorf("%w: %d render targets", ErrInvalidBufferSetup, b.NumRenderTargets)
	case b.RenderTargetIndex < 0 || (b.NumRenderTargets > 0 && b.RenderTargetIndex >= b.NumRenderTargets):
		return fmt.Errorf("%w: render target index %d out of %d",
			ErrInvalidBufferSetup, b.RenderTargetIndex, b.NumRenderTargets)
	}
	return nil
}

// ClearState describes which buffers a pass clears before drawing.
type ClearState struct {
	Color      gputypes.Color
	ClearColor bool

	Depth      float64
	ClearDepth bool

	Stencil      uint32
	ClearStencil bool
}

// ColorLoadOp returns the load operation for the color attachment.
func (c *ClearState) ColorLoadOp() gputypes.LoadOp {
	if c != nil && c.ClearColor {
		return gputypes.LoadOpClear
	}
	return gputypes.LoadOpLoad
}

// DepthLoadOp returns the load operation for the depth attachment.
func (c *ClearState) DepthLoadOp() gputypes.LoadOp {
	if c != nil && c.ClearDepth {
		return gputypes.LoadOpClear
	}
	return gputypes.LoadOpLoad
}

// DefaultClearState clears color to opaque black and depth to 1.
func DefaultClearState() ClearState {
	return ClearState{
		Color:      gputypes.Color{A: 1},
		ClearColor: true,
		Depth:      1,
		ClearDepth: true,
	}
}
