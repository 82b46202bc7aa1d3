// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package sorter

import (
	"github.com/go-gl/mathgl/mgl64"

	"github.com/gogpu/scene3d/bounds"
	"github.com/gogpu/scene3d/render"
)

type plain struct{ name string }

func (*plain) Render(render.DrawContext) {}

type spatial struct {
	plain
	onQuery func()
}

func (s *spatial) IsSpatialized() bool {
	if s.onQuery != nil {
		s.onQuery()
	}
	return true
}

type glass struct{ plain }

func (*glass) HasTransparency() bool { return true }

type overlay struct{ plain }

func (*overlay) Is2D() bool { return true }

type comp struct {
	op render.RenderOp
	id uint64
}

func (*comp) Render(render.DrawContext)     {}
func (*comp) PostRender(render.DrawContext) {}
func (c *comp) StartOp() render.RenderOp    { return c.op }
func (c *comp) StateID() uint64             { return c.id }

type shape struct {
	plain
	geom        render.Renderable
	comps       []render.Component
	transparent bool
	caster      bool
}

func (s *shape) Geometry() render.Renderable    { return s.geom }
func (s *shape) Components() []render.Component { return s.comps }
func (s *shape) HasTransparency() bool          { return s.transparent }
func (s *shape) CastsShadow() bool              { return s.caster }

type customR struct {
	plain
	instr any
	local *mgl64.Mat4
}

func (c *customR) ProcessCull(out *render.RenderableInstructions, _, _ mgl64.Mat4, _ bounds.Frustum, _ float64) {
	out.Instructions = c.instr
	if c.local != nil {
		out.SetTransform(*c.local)
	}
}

type light struct {
	plain
	id uint64
}

func (*light) PostRender(render.DrawContext) {}
func (l *light) EffectID() uint64            { return l.id }

type collector struct {
	calls int
	last  []render.RenderOp
}

func (c *collector) SortedOutput(instr *render.RenderInstructions) {
	c.calls++
	c.last = append(c.last[:0], instr.Ops()...)
}

func at(r render.Renderable, x, y, z float64) render.CulledDetail {
	return render.CulledDetail{Renderable: r, Transform: mgl64.Translate3D(x, y, z)}
}

func testEnv() *render.Environment {
	env := render.DefaultEnvironment(100, 100)
	return &env
}

func ops(ri *render.RenderInstructions) []render.RenderOp {
	return append([]render.RenderOp(nil), ri.Ops()...)
}
