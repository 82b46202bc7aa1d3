// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package device

import (
	"image"
	"image/color"
	"image/draw"
	"slices"

	"github.com/gogpu/gputypes"
)

// layer is one compositing layer of a Surface.
type layer struct {
	img     *image.RGBA
	visible bool
	used    bool
}

// Surface is a CPU render target with z-ordered layers.
//
// Layer 0 is the base image. Any other layer is created on first use and
// composited over the base in ascending z-order by Composite.
type Surface struct {
	base   *image.RGBA
	layers map[int]*layer
	zOrder []int
	width  int
	height int
}

// NewSurface creates a surface of the given size.
func NewSurface(width, height int) *Surface {
	width, height = max(width, 0), max(height, 0)
	return &Surface{
		base:   image.NewRGBA(image.Rect(0, 0, width, height)),
		layers: make(map[int]*layer),
		width:  width,
		height: height,
	}
}

// Width returns the surface width in pixels.
func (s *Surface) Width() int { return s.width }

// Height returns the surface height in pixels.
func (s *Surface) Height() int { return s.height }

// Format returns the pixel format.
func (s *Surface) Format() gputypes.TextureFormat {
	return gputypes.TextureFormatRGBA8Unorm
}

// Image returns the base image. After Composite it holds the final frame.
func (s *Surface) Image() *image.RGBA { return s.base }

// Layer returns the image for layer z, creating it when needed.
func (s *Surface) Layer(z int) *image.RGBA {
	if z == 0 {
		return s.base
	}
	l, ok := s.layers[z]
	if !ok {
		l = &layer{img: image.NewRGBA(s.base.Bounds()), visible: true}
		s.layers[z] = l
		s.zOrder = nil
	}
	l.used = true
	return l.img
}

// SetLayerVisible hides or shows a layer without dropping its content.
func (s *Surface) SetLayerVisible(z int, visible bool) {
	if l, ok := s.layers[z]; ok {
		l.visible = visible
	}
}

// Layers returns the z-orders of the extra layers in ascending order.
func (s *Surface) Layers() []int {
	if s.zOrder == nil {
		s.zOrder = make([]int, 0, len(s.layers))
		for z := range s.layers {
			s.zOrder = append(s.zOrder, z)
		}
		slices.Sort(s.zOrder)
	}
	return slices.Clone(s.zOrder)
}

// Begin prepares a new frame: the base is cleared to c and every layer to
// transparent.
func (s *Surface) Begin(c color.Color) {
	fill(s.base, s.base.Bounds(), c)
	for _, l := range s.layers {
		if l.used {
			clear(l.img.Pix)
			l.used = false
		}
	}
}

// Composite blends the visible layers used this frame over the base in
// z-order. Layers below zero go underneath the base content.
func (s *Surface) Composite() {
	orders := s.Layers()
	below := orders[:0:0]
	for _, z := range orders {
		if z < 0 {
			below = append(below, z)
		}
	}
	if len(below) > 0 {
		under := image.NewRGBA(s.base.Bounds())
		for _, z := range below {
			if l := s.layers[z]; l.visible && l.used {
				draw.Draw(under, under.Bounds(), l.img, image.Point{}, draw.Over)
			}
		}
		draw.Draw(under, under.Bounds(), s.base, image.Point{}, draw.Over)
		s.base = under
	}
	for _, z := range orders {
		if l := s.layers[z]; z > 0 && l.visible && l.used {
			draw.Draw(s.base, s.base.Bounds(), l.img, image.Point{}, draw.Over)
		}
	}
}

// Resize discards the content and reallocates every layer.
func (s *Surface) Resize(width, height int) {
	*s = *NewSurface(width, height)
}

// fill sets every pixel of r in img to c.
func fill(img *image.RGBA, r image.Rectangle, c color.Color) {
	draw.Draw(img, r.Intersect(img.Bounds()), image.NewUniform(c), image.Point{}, draw.Src)
}
