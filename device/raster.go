// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package device

import (
	"image"
	"image/color"
	"log/slog"
	"time"

	"github.com/gogpu/scene3d"
	"github.com/gogpu/scene3d/render"
)

// MaxRasterSize is the largest offscreen target the raster device
// allocates along either axis.
const MaxRasterSize = 8192

// Option configures a Raster device.
type Option func(*Raster)

// WithBackground sets the color the surface is cleared to at the start of
// every frame. The default is opaque black.
func WithBackground(c color.Color) Option {
	return func(r *Raster) { r.background = c }
}

// WithLogger sets the device logger. By default the device logs through
// scene3d.Logger.
func WithLogger(l *slog.Logger) Option {
	return func(r *Raster) { r.logger = l }
}

// WithHandle sets the host device handle exposed to renderables.
func WithHandle(h render.DeviceHandle) Option {
	return func(r *Raster) { r.handle = h }
}

// Placement is where a spatialized sound source was last heard.
type Placement struct {
	// Listener is the listener position in the source's local space.
	Listener [3]float64
	Gain     float64
}

// Raster is a software output device. It executes the instruction stream
// on the CPU and fills flat-shaded triangles into a layered Surface.
//
// Raster has no depth buffer: triangles are drawn in stream order with
// back faces removed, which is exact for convex shapes and relies on the
// sort order otherwise. Shadow generator blocks are skipped.
type Raster struct {
	surface    *Surface
	background color.Color
	logger     *slog.Logger
	handle     render.DeviceHandle

	offscreen map[*render.OffscreenTarget]*image.RGBA
	sources   map[uint64]Placement
	exec      executor
	closed    bool

	frames    int
	triangles int
}

// NewRaster creates a raster device with a surface of the given size.
func NewRaster(width, height int, opts ...Option) *Raster {
	r := &Raster{
		surface:    NewSurface(width, height),
		background: color.Black,
		handle:     render.NullDeviceHandle{},
		offscreen:  make(map[*render.OffscreenTarget]*image.RGBA),
		sources:    make(map[uint64]Placement),
	}
	for _, opt := range opts {
		opt(r)
	}
	r.exec.dev = r
	return r
}

func (r *Raster) log() *slog.Logger {
	if r.logger != nil {
		return r.logger
	}
	return scene3d.Logger()
}

// Surface returns the output surface.
func (r *Raster) Surface() *Surface { return r.surface }

// Image returns the composited output of the last frame.
func (r *Raster) Image() *image.RGBA { return r.surface.Image() }

// Offscreen returns the image of an offscreen target drawn by this
// device, or nil.
func (r *Raster) Offscreen(t *render.OffscreenTarget) *image.RGBA {
	return r.offscreen[t]
}

// Sources returns the sound placements of the last frame.
func (r *Raster) Sources() map[uint64]Placement { return r.sources }

// Frames returns the number of frames drawn.
func (r *Raster) Frames() int { return r.frames }

// Triangles returns the number of triangles filled in the last frame.
func (r *Raster) Triangles() int { return r.triangles }

// Resize changes the surface size. Content is discarded.
func (r *Raster) Resize(width, height int) {
	r.surface.Resize(width, height)
}

// Draw implements render.OutputDevice. Offscreen streams are drawn first,
// each target once per frame, then the main stream, then the layers are
// composited.
func (r *Raster) Draw(instr *render.RenderInstructions, prof *render.ProfilingData) bool {
	if r.closed || instr == nil {
		return false
	}
	start := time.Now()
	r.triangles = 0
	clear(r.sources)

	drawn := make(map[*render.OffscreenTarget]bool, len(instr.Offscreens))
	for _, off := range instr.Offscreens {
		src := off.Resolve()
		if src.Target == nil || drawn[src.Target] {
			continue
		}
		drawn[src.Target] = true
		r.exec.run(src, r.offscreenImage(src.Target), true)
	}

	r.surface.Begin(r.background)
	r.exec.run(instr, r.surface.Image(), false)
	r.surface.Composite()
	r.frames++

	elapsed := time.Since(start)
	if prof != nil {
		prof.DrawTime = elapsed
	}
	r.log().Debug("raster: frame drawn",
		"ops", instr.Len(),
		"offscreens", len(drawn),
		"triangles", r.triangles,
		"elapsed", elapsed)
	return true
}

// offscreenImage returns the image for t, reallocating it when the
// target size changed.
func (r *Raster) offscreenImage(t *render.OffscreenTarget) *image.RGBA {
	w := min(max(t.Width, 1), MaxRasterSize)
	h := min(max(t.Height, 1), MaxRasterSize)
	img, ok := r.offscreen[t]
	if !ok || img.Bounds().Dx() != w || img.Bounds().Dy() != h {
		if t.Width > MaxRasterSize || t.Height > MaxRasterSize {
			r.log().Warn("raster: offscreen target clamped", "name", t.Name, "width", t.Width, "height", t.Height)
		}
		img = image.NewRGBA(image.Rect(0, 0, w, h))
		r.offscreen[t] = img
	}
	return img
}

// Capabilities implements render.OutputDevice.
func (r *Raster) Capabilities() render.DeviceCapabilities {
	return render.DeviceCapabilities{
		Name:              "raster",
		MaxTextureSize:    MaxRasterSize,
		MaxAASamples:      1,
		SupportsOffscreen: true,
	}
}

// Close implements render.OutputDevice.
func (r *Raster) Close() error {
	r.closed = true
	clear(r.offscreen)
	return nil
}
