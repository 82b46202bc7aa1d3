// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package device

import (
	"time"

	"github.com/gogpu/scene3d/render"
)

// Null is an output device that accepts every stream and draws nothing.
type Null struct {
	frames int
	ops    int
	closed bool
}

// NewNull creates a null device.
func NewNull() *Null {
	return &Null{}
}

// Draw implements render.OutputDevice.
func (d *Null) Draw(instr *render.RenderInstructions, prof *render.ProfilingData) bool {
	if d.closed || instr == nil {
		return false
	}
	start := time.Now()
	d.frames++
	d.ops += instr.Len()
	for _, off := range instr.Offscreens {
		d.ops += off.Len()
	}
	if prof != nil {
		prof.DrawTime = time.Since(start)
	}
	return true
}

// Frames returns the number of frames drawn.
func (d *Null) Frames() int { return d.frames }

// Ops returns the number of ops received, offscreen streams included.
func (d *Null) Ops() int { return d.ops }

// Capabilities implements render.OutputDevice.
func (d *Null) Capabilities() render.DeviceCapabilities {
	return render.DeviceCapabilities{
		Name:               "null",
		MaxAASamples:       64,
		SupportsOffscreen:  true,
		SupportsShadows:    true,
		SupportsFloatColor: true,
	}
}

// Close implements render.OutputDevice.
func (d *Null) Close() error {
	d.closed = true
	return nil
}
