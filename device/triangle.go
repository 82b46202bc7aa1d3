// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package device

import (
	"image"
	"image/color"
	"image/draw"
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// ambient is the light level of surfaces facing away from every light.
const ambient = 0.25

// minW rejects vertices on or behind the eye plane. The device does not
// clip against the near plane.
const minW = 1e-6

// DrawTriangles implements node.TriangleSink.
func (e *executor) DrawTriangles(vertices []mgl64.Vec3, c color.NRGBA) {
	base := e.tinted(c)
	proj := e.cur.env.Projection
	for i := 0; i+2 < len(vertices); i += 3 {
		var eye [3]mgl64.Vec3
		for k := range 3 {
			eye[k] = e.modelView.Mul4x1(vertices[i+k].Vec4(1)).Vec3()
		}
		if e.clipped(eye) {
			continue
		}
		n := eye[1].Sub(eye[0]).Cross(eye[2].Sub(eye[0]))
		if n.Dot(eye[0]) >= 0 {
			// Back face: the eye sits at the origin of eye space.
			continue
		}

		var pts [3]mgl64.Vec2
		visible := true
		for k := range 3 {
			p, ok := e.project(proj, eye[k])
			if !ok {
				visible = false
				break
			}
			pts[k] = p
		}
		if !visible {
			continue
		}

		col := e.shade(base, n.Normalize())
		if e.fog != nil {
			centroid := eye[0].Add(eye[1]).Add(eye[2]).Mul(1.0 / 3)
			col = e.fogged(col, centroid.Len())
		}
		e.fill(pts, col)
	}
}

// DrawTriangles2D implements node.TriangleSink. Vertices are pixels from
// the top-left corner of the current viewport.
func (e *executor) DrawTriangles2D(vertices []mgl64.Vec2, c color.NRGBA) {
	col := e.tinted(c)
	origin := mgl64.Vec2{float64(e.cur.rect.Min.X), float64(e.cur.rect.Min.Y)}
	for i := 0; i+2 < len(vertices); i += 3 {
		e.fill([3]mgl64.Vec2{
			vertices[i].Add(origin),
			vertices[i+1].Add(origin),
			vertices[i+2].Add(origin),
		}, col)
	}
}

// project maps an eye-space point to pixels of the current viewport.
func (e *executor) project(proj mgl64.Mat4, p mgl64.Vec3) (mgl64.Vec2, bool) {
	clip := proj.Mul4x1(p.Vec4(1))
	if clip[3] <= minW {
		return mgl64.Vec2{}, false
	}
	ndcX, ndcY := clip[0]/clip[3], clip[1]/clip[3]
	r := e.cur.rect
	return mgl64.Vec2{
		float64(r.Min.X) + (ndcX+1)*0.5*float64(r.Dx()),
		float64(r.Min.Y) + (1-ndcY)*0.5*float64(r.Dy()),
	}, true
}

// clipped reports whether an enabled clip plane removes the whole
// triangle.
func (e *executor) clipped(eye [3]mgl64.Vec3) bool {
	for _, plane := range e.clips {
		out := 0
		for _, p := range eye {
			if plane.Dot(p.Vec4(1)) < 0 {
				out++
			}
		}
		if out == 3 {
			return true
		}
	}
	return false
}

// tinted multiplies c by every active tint.
func (e *executor) tinted(c color.NRGBA) color.NRGBA {
	for _, t := range e.tints {
		c.R = uint8(uint16(c.R) * uint16(t.R) / 255)
		c.G = uint8(uint16(c.G) * uint16(t.G) / 255)
		c.B = uint8(uint16(c.B) * uint16(t.B) / 255)
		c.A = uint8(uint16(c.A) * uint16(t.A) / 255)
	}
	return c
}

// shade applies Lambert lighting with normal n in eye space. Without
// lights the color is unchanged.
func (e *executor) shade(c color.NRGBA, n mgl64.Vec3) color.NRGBA {
	if len(e.lights) == 0 {
		return c
	}
	r, g, b := ambient, ambient, ambient
	for _, l := range e.lights {
		k := max(n.Dot(l.dir.Mul(-1)), 0)
		r += k * float64(l.c.R) / 255
		g += k * float64(l.c.G) / 255
		b += k * float64(l.c.B) / 255
	}
	return color.NRGBA{
		R: scale(c.R, r),
		G: scale(c.G, g),
		B: scale(c.B, b),
		A: c.A,
	}
}

// fogged blends c towards the fog color by eye distance.
func (e *executor) fogged(c color.NRGBA, dist float64) color.NRGBA {
	f := e.fog
	t := 1.0
	if f.far > f.near {
		t = (dist - f.near) / (f.far - f.near)
	}
	t = min(max(t, 0), 1)
	mix := func(a, b uint8) uint8 {
		return uint8(math.Round(float64(a)*(1-t) + float64(b)*t))
	}
	return color.NRGBA{mix(c.R, f.c.R), mix(c.G, f.c.G), mix(c.B, f.c.B), c.A}
}

func scale(v uint8, k float64) uint8 {
	return uint8(min(float64(v)*k, 255))
}

// fill rasterizes one triangle given in target pixels. The rasterizer only
// covers the triangle's bounding box inside the current viewport.
func (e *executor) fill(pts [3]mgl64.Vec2, c color.NRGBA) {
	if c.A == 0 {
		return
	}
	minX, minY := math.Inf(1), math.Inf(1)
	maxX, maxY := math.Inf(-1), math.Inf(-1)
	for _, p := range pts {
		minX, maxX = min(minX, p[0]), max(maxX, p[0])
		minY, maxY = min(minY, p[1]), max(maxY, p[1])
	}
	if math.IsNaN(minX+minY+maxX+maxY) {
		return
	}
	box := image.Rect(
		int(math.Floor(max(minX, -1<<20))), int(math.Floor(max(minY, -1<<20))),
		int(math.Ceil(min(maxX, 1<<20))), int(math.Ceil(min(maxY, 1<<20))),
	)
	r := box.Intersect(e.cur.rect).Intersect(e.cur.target.Bounds())
	if r.Empty() {
		return
	}

	ox, oy := float64(r.Min.X), float64(r.Min.Y)
	e.ras.Reset(r.Dx(), r.Dy())
	e.ras.DrawOp = draw.Over
	e.ras.MoveTo(float32(pts[0][0]-ox), float32(pts[0][1]-oy))
	e.ras.LineTo(float32(pts[1][0]-ox), float32(pts[1][1]-oy))
	e.ras.LineTo(float32(pts[2][0]-ox), float32(pts[2][1]-oy))
	e.ras.ClosePath()
	e.ras.Draw(e.cur.target, r, image.NewUniform(c), image.Point{})
	e.dev.triangles++
}
