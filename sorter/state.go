// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package sorter

import (
	"cmp"
	"slices"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/gogpu/scene3d/bounds"
	"github.com/gogpu/scene3d/render"
)

// frame is one entry of the state stack: an open bracket, or a
// SetShaderArgs that stays in force until its shader block closes.
type frame struct {
	op           render.RenderOp
	id           uint64
	r            render.Renderable
	transform    mgl64.Mat4
	hasTransform bool
}

func (f *frame) equal(o *frame) bool {
	return f.op == o.op && f.id == o.id && f.hasTransform == o.hasTransform && f.transform == o.transform
}

func (f *frame) detail() render.Detail {
	return render.Detail{Renderable: f.r, Transform: f.transform, HasTransform: f.hasTransform}
}

// componentRank orders components inside a shape's state block.
func componentRank(op render.RenderOp) int {
	switch op {
	case render.StartShaderProgram:
		return 0
	case render.SetShaderArgs:
		return 1
	case render.StartTexture:
		return 2
	default:
		return 3
	}
}

// componentOp maps a component's StartOp to the op the stream uses.
func componentOp(c render.Component) render.RenderOp {
	switch op := c.StartOp(); op {
	case render.StartShaderProgram, render.SetShaderArgs, render.StartTexture, render.StartState:
		return op
	default:
		return render.StartState
	}
}

// emitter tracks the open state stack and emits the minimal START/STOP
// ops to move from one shape's state to the next.
type emitter struct {
	out  *render.RenderInstructions
	open []frame
}

func (e *emitter) sync(want []frame) {
	k := 0
	for k < len(e.open) && k < len(want) && e.open[k].equal(&want[k]) {
		k++
	}
	e.popTo(k)
	for i := k; i < len(want); i++ {
		e.out.Append(want[i].op, want[i].detail())
		e.open = append(e.open, want[i])
	}
}

func (e *emitter) popTo(k int) {
	for len(e.open) > k {
		top := &e.open[len(e.open)-1]
		if top.op.IsStart() {
			e.out.Append(top.op.Matching(), top.detail())
		}
		e.open = e.open[:len(e.open)-1]
	}
}

// stateEntry is a classified node. Its desired state stack lives in the
// policy arena at [effStart:end); components begin at compStart.
type stateEntry struct {
	node      *render.CulledDetail
	index     int
	dist      float64
	scope     int
	effStart  int
	compStart int
	end       int

	draw   render.RenderOp
	detail render.Detail
}

// scopeKey identifies a set of effects shared by nodes of one scope.
type scopeKey struct {
	lights *render.EffectDetail
	nl     int
	clips  *render.EffectDetail
	nc     int
	fog    uint64
	hasFog bool
}

// StatePolicy minimizes state changes. Opaque shapes are grouped by
// effect scope and then by component state in shader, texture, material
// order so that consecutive shapes share open brackets. Transparent nodes
// follow in a back-to-front block. Shadow casters are first drawn in a
// shadow generator block and the main pass is wrapped in a shadow block.
// Screen-space nodes are drawn last.
//
// All sorts are stable, so equal keys keep input order.
type StatePolicy struct {
	shadows bool

	arena       []frame
	opaque      []stateEntry
	transparent []stateEntry
	casters     []stateEntry
	flat        []stateEntry
	comps       []render.Component
	scopes      map[scopeKey]int
	custom      render.RenderableInstructions
	em          emitter
}

// StateOption configures a StatePolicy.
type StateOption func(*StatePolicy)

// WithShadows enables or disables the shadow generator block. It is
// enabled by default.
func WithShadows(enabled bool) StateOption {
	return func(p *StatePolicy) { p.shadows = enabled }
}

// NewStatePolicy creates a state sorting policy.
func NewStatePolicy(opts ...StateOption) *StatePolicy {
	p := &StatePolicy{shadows: true, scopes: make(map[scopeKey]int)}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// SortNodes implements Policy.
func (p *StatePolicy) SortNodes(out *render.RenderInstructions, nodes []render.CulledDetail, env *render.Environment, halt *Signal) bool {
	defer p.reset()
	frustum := env.Frustum()
	for i := range nodes {
		if halt.Halted() {
			return false
		}
		p.classify(&nodes[i], i, env, &frustum)
	}

	p.em.out = out
	hasShadow := p.shadows && len(p.casters) > 0
	if hasShadow {
		out.AppendOp(render.StartShadowGenerator)
		for i := range p.casters {
			if halt.Halted() {
				return false
			}
			p.draw(out, &p.casters[i])
		}
		out.AppendOp(render.StopShadowGenerator)
		out.AppendOp(render.StartShadow)
	}

	slices.SortStableFunc(p.opaque, p.compareState)
	for i := range p.opaque {
		if halt.Halted() {
			return false
		}
		e := &p.opaque[i]
		p.em.sync(p.arena[e.effStart:e.end])
		p.draw(out, e)
	}
	p.em.popTo(0)

	if len(p.transparent) > 0 {
		slices.SortStableFunc(p.transparent, func(a, b stateEntry) int {
			if c := cmp.Compare(b.dist, a.dist); c != 0 {
				return c
			}
			return cmp.Compare(a.index, b.index)
		})
		out.AppendOp(render.StartTransparent)
		for i := range p.transparent {
			if halt.Halted() {
				return false
			}
			e := &p.transparent[i]
			p.em.sync(p.arena[e.effStart:e.end])
			p.draw(out, e)
		}
		p.em.popTo(0)
		out.AppendOp(render.StopTransparent)
	}

	if hasShadow {
		out.AppendOp(render.StopShadow)
	}

	for i := range p.flat {
		if halt.Halted() {
			return false
		}
		out.Append(render.RenderGeometry2D, p.flat[i].detail)
	}
	return true
}

func (p *StatePolicy) reset() {
	clear(p.arena)
	p.arena = p.arena[:0]
	clear(p.opaque)
	p.opaque = p.opaque[:0]
	clear(p.transparent)
	p.transparent = p.transparent[:0]
	clear(p.casters)
	p.casters = p.casters[:0]
	clear(p.flat)
	p.flat = p.flat[:0]
	clear(p.scopes)
	p.em.out = nil
	p.em.open = p.em.open[:0]
}

// classify decides how a node is drawn and records its desired state.
func (p *StatePolicy) classify(n *render.CulledDetail, index int, env *render.Environment, frustum *bounds.Frustum) {
	r := n.Renderable
	if r == nil {
		return
	}
	e := stateEntry{node: n, index: index}

	if r2, ok := r.(render.Renderable2D); ok && r2.Is2D() {
		e.detail = render.Detail{Renderable: r, Transform: n.Transform, HasTransform: true}
		p.flat = append(p.flat, e)
		return
	}

	shape, isShape := r.(render.ShapeRenderable)
	switch {
	case isShape:
		geom := shape.Geometry()
		if geom == nil {
			return
		}
		e.draw = render.RenderGeometry
		e.detail = render.Detail{Renderable: geom, Transform: n.Transform, HasTransform: true}
		if c, ok := geom.(render.CustomRenderable); ok {
			if !p.processCustom(c, n, env, frustum, &e.detail) {
				return
			}
			e.draw = render.RenderCustomGeometry
		}
	default:
		if c, ok := r.(render.CustomRenderable); ok {
			e.detail = render.Detail{Renderable: r, Transform: n.Transform, HasTransform: true}
			if !p.processCustom(c, n, env, frustum, &e.detail) {
				return
			}
			e.draw = render.RenderCustom
		} else {
			e.draw = render.StartRender
			e.detail = renderDetail(r, n)
		}
	}

	e.scope = p.scopeOf(n)
	e.effStart = len(p.arena)
	p.pushEffects(n)
	e.compStart = len(p.arena)
	if isShape {
		p.pushComponents(shape)
	}
	e.end = len(p.arena)

	if caster, ok := r.(render.ShadowCaster); ok && caster.CastsShadow() {
		p.casters = append(p.casters, e)
	}
	if isTransparent(r) {
		e.dist = env.DistanceTo(n.Centroid())
		p.transparent = append(p.transparent, e)
	} else {
		p.opaque = append(p.opaque, e)
	}
}

// processCustom asks a custom renderable for its instructions. It reports
// false when the renderable has nothing to draw.
func (p *StatePolicy) processCustom(c render.CustomRenderable, n *render.CulledDetail, env *render.Environment, frustum *bounds.Frustum, d *render.Detail) bool {
	p.custom.Reset()
	c.ProcessCull(&p.custom, n.Transform, env.View, *frustum, env.AngularResolution)
	if p.custom.Instructions == nil {
		return false
	}
	d.Custom = p.custom.Instructions
	if p.custom.HasTransform {
		d.Transform = n.Transform.Mul4(p.custom.LocalTransform)
	}
	return true
}

func (p *StatePolicy) scopeOf(n *render.CulledDetail) int {
	var k scopeKey
	if len(n.Lights) > 0 {
		k.lights, k.nl = &n.Lights[0], len(n.Lights)
	}
	if len(n.ClipPlanes) > 0 {
		k.clips, k.nc = &n.ClipPlanes[0], len(n.ClipPlanes)
	}
	if n.Fog != nil {
		k.fog, k.hasFog = n.Fog.EffectID(), true
	}
	id, ok := p.scopes[k]
	if !ok {
		id = len(p.scopes)
		p.scopes[k] = id
	}
	return id
}

// pushEffects appends the node's effect brackets, outermost first: fog,
// clip planes, lights.
func (p *StatePolicy) pushEffects(n *render.CulledDetail) {
	if n.Fog != nil {
		p.arena = append(p.arena, frame{op: render.StartFog, id: n.Fog.EffectID(), r: n.Fog})
	}
	for _, c := range n.ClipPlanes {
		p.arena = append(p.arena, frame{op: render.StartClipPlane, id: c.Effect.EffectID(), r: c.Effect, transform: c.Transform, hasTransform: true})
	}
	for _, l := range n.Lights {
		p.arena = append(p.arena, frame{op: render.StartLight, id: l.Effect.EffectID(), r: l.Effect, transform: l.Transform, hasTransform: true})
	}
}

func (p *StatePolicy) pushComponents(shape render.ShapeRenderable) {
	p.comps = p.comps[:0]
	for _, c := range shape.Components() {
		if c != nil {
			p.comps = append(p.comps, c)
		}
	}
	slices.SortStableFunc(p.comps, func(a, b render.Component) int {
		return cmp.Compare(componentRank(componentOp(a)), componentRank(componentOp(b)))
	})
	for _, c := range p.comps {
		p.arena = append(p.arena, frame{op: componentOp(c), id: c.StateID(), r: c})
	}
	clear(p.comps)
}

// compareState orders by effect scope, then component state.
func (p *StatePolicy) compareState(a, b stateEntry) int {
	if c := cmp.Compare(a.scope, b.scope); c != 0 {
		return c
	}
	ca := p.arena[a.compStart:a.end]
	cb := p.arena[b.compStart:b.end]
	for i := 0; i < len(ca) && i < len(cb); i++ {
		if c := cmp.Compare(componentRank(ca[i].op), componentRank(cb[i].op)); c != 0 {
			return c
		}
		if c := cmp.Compare(ca[i].id, cb[i].id); c != 0 {
			return c
		}
	}
	return cmp.Compare(len(ca), len(cb))
}

// draw appends the draw ops of an entry.
func (p *StatePolicy) draw(out *render.RenderInstructions, e *stateEntry) {
	if e.draw == render.StartRender {
		out.Append(render.StartRender, e.detail)
		out.Append(render.StopRender, e.detail)
		return
	}
	out.Append(e.draw, e.detail)
}
