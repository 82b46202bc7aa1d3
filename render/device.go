// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package render

import (
	"github.com/gogpu/gpucontext"
	"github.com/gogpu/gputypes"
)

// DeviceHandle provides GPU device access from the host application.
//
// The host application implements DeviceHandle and hands it to the output
// device. The pipeline never creates a device itself; renderables reach
// the shared device through DrawContext.DeviceHandle.
//
// DeviceHandle is an alias for gpucontext.DeviceProvider so that any host
// in the gpucontext ecosystem can drive the pipeline directly.
type DeviceHandle = gpucontext.DeviceProvider

// OutputDevice consumes a sorted instruction stream and turns it into
// output: pixels, a trace, or nothing at all.
type OutputDevice interface {
	// Draw executes one frame of instructions. It reports false when the
	// device could not produce output, for example after Close.
	// Implementations record their own timing into prof when non-nil.
	Draw(instr *RenderInstructions, prof *ProfilingData) bool

	// Capabilities describes what the device supports.
	Capabilities() DeviceCapabilities

	// Close releases device resources.
	Close() error
}

// DeviceCapabilities describes the capabilities of an output device.
// The sort stage and the host consult it before emitting optional work.
type DeviceCapabilities struct {
	// Name identifies the device, e.g. "raster".
	Name string

	// MaxTextureSize is the largest offscreen dimension supported.
	// Zero means unlimited.
	MaxTextureSize uint32

	// MaxAASamples is the highest sample count supported.
	MaxAASamples int

	// SupportsOffscreen indicates offscreen targets are drawn.
	SupportsOffscreen bool

	// SupportsShadows indicates shadow generator blocks are honored.
	SupportsShadows bool

	// SupportsFloatColor indicates floating point color buffers exist.
	SupportsFloatColor bool
}

// TextureDescriptor describes the texture backing an offscreen target.
// This mirrors the WebGPU GPUTextureDescriptor.
type TextureDescriptor struct {
	Label         string
	Width         uint32
	Height        uint32
	Depth         uint32
	MipLevelCount uint32
	SampleCount   uint32
	Format        gputypes.TextureFormat
	Usage         TextureUsage
}

// TextureUsage specifies how a texture can be used.
// These flags can be combined with bitwise OR.
type TextureUsage uint32

const (
	// TextureUsageCopySrc allows the texture to be used as a copy source.
	TextureUsageCopySrc TextureUsage = 1 << iota

	// TextureUsageCopyDst allows the texture to be used as a copy destination.
	TextureUsageCopyDst

	// TextureUsageTextureBinding allows the texture to be sampled.
	TextureUsageTextureBinding

	// TextureUsageStorageBinding allows the texture to be used in a storage binding.
	TextureUsageStorageBinding

	// TextureUsageRenderAttachment allows the texture to be rendered into.
	TextureUsageRenderAttachment
)

// DefaultTextureDescriptor returns a TextureDescriptor with sensible defaults.
// Only Width, Height, and Format need to be set.
func DefaultTextureDescriptor(width, height uint32, format gputypes.TextureFormat) TextureDescriptor {
	return TextureDescriptor{
		Width:         width,
		Height:        height,
		Depth:         1,
		MipLevelCount: 1,
		SampleCount:   1,
		Format:        format,
		Usage:         TextureUsageTextureBinding | TextureUsageRenderAttachment,
	}
}

// NullDeviceHandle is the handle a CPU rasterizer hands to renderables.
// It exposes no GPU objects.
type NullDeviceHandle struct{}

func (NullDeviceHandle) Device() gpucontext.Device   { return nil }
func (NullDeviceHandle) Queue() gpucontext.Queue     { return nil }
func (NullDeviceHandle) Adapter() gpucontext.Adapter { return nil }

// SurfaceFormat is undefined: there is no surface to match.
func (NullDeviceHandle) SurfaceFormat() gputypes.TextureFormat {
	return gputypes.TextureFormatUndefined
}

// AdapterInfo reports an unknown adapter.
func (NullDeviceHandle) AdapterInfo() gpucontext.AdapterInfo {
	return gpucontext.AdapterInfo{Type: gpucontext.AdapterTypeUnknown}
}

var _ DeviceHandle = NullDeviceHandle{}
