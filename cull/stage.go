// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package cull

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/gogpu/scene3d"
	"github.com/gogpu/scene3d/bounds"
	"github.com/gogpu/scene3d/pick"
	"github.com/gogpu/scene3d/render"
)

// DefaultMaxDepth bounds traversal depth so that an accidental cycle in
// the graph cannot recurse forever.
const DefaultMaxDepth = 256

// ErrNotTraversable is returned when the root of a traversal is
// explicitly excluded.
var ErrNotTraversable = errors.New("cull: node is not traversable")

// Option configures a Stage.
type Option func(*Stage)

// WithFrustumCulling enables or disables the view frustum test.
// It is enabled by default.
func WithFrustumCulling(enabled bool) Option {
	return func(s *Stage) { s.frustumCulling = enabled }
}

// WithMaxDepth overrides DefaultMaxDepth.
func WithMaxDepth(depth int) Option {
	return func(s *Stage) {
		if depth > 0 {
			s.maxDepth = depth
		}
	}
}

// WithLogger sets the stage logger. By default the stage logs through
// scene3d.Logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Stage) { s.logger = l }
}

// Stage walks a scene graph and collects the visible renderables with
// their world transforms and effect scopes.
//
// A Stage owns reusable scratch buffers and is not safe for concurrent
// use; each pipe owns its own. Distinct stages may traverse the same
// graph concurrently because nodes are only read.
type Stage struct {
	frustumCulling bool
	maxDepth       int
	logger         *slog.Logger
	gate           *pick.Gate

	// custom holds one CullInstructions per traversal depth.
	custom []*render.CullInstructions

	// per-call state
	out     *Output
	env     *render.Environment
	frustum bounds.Frustum
	pruned  int
	tooDeep int
}

// NewStage creates a cull stage.
func NewStage(opts ...Option) *Stage {
	s := &Stage{
		frustumCulling: true,
		maxDepth:       DefaultMaxDepth,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// SetGate installs the update window. While the gate is open the graph
// may be changing and culling fails with pick.ErrInvalidTiming.
func (s *Stage) SetGate(g *pick.Gate) {
	s.gate = g
}

func (s *Stage) log() *slog.Logger {
	if s.logger != nil {
		return s.logger
	}
	return scene3d.Logger()
}

// Cull traverses the graph under root with the view in env and replaces
// the content of out with the visible nodes. A nil env culls with
// identity view and projection.
//
// Nodes lacking a capability, nil children and leaves without a
// renderable are skipped silently.
func (s *Stage) Cull(out *Output, root render.Cullable, env *render.Environment) error {
	if s.gate != nil && s.gate.IsOpen() {
		return fmt.Errorf("cull: %w", pick.ErrInvalidTiming)
	}
	out.Reset()
	if root == nil {
		return nil
	}
	if ex, ok := root.(pick.Excludable); ok && ex.IsExcluded() {
		return ErrNotTraversable
	}

	if env == nil {
		env = &render.Environment{View: mgl64.Ident4(), Projection: mgl64.Ident4()}
	}
	s.out = out
	s.env = env
	s.frustum = env.Frustum()
	s.pruned = 0
	s.tooDeep = 0
	s.walk(root, mgl64.Ident4(), 0, false, scope{})
	s.out = nil
	s.env = nil

	if s.tooDeep > 0 {
		s.log().Warn("cull: traversal depth exceeded", "max", s.maxDepth, "skipped", s.tooDeep)
	}
	s.log().Debug("cull: pass done", "visible", out.NumNodes, "pruned", s.pruned)
	return nil
}

// CullFrame culls every pass of frame into out, one Output per pass.
func (s *Stage) CullFrame(out *FrameOutput, frame *render.Frame) error {
	out.resize(frame.NumPasses())
	k := 0
	for vi := range frame.Viewports {
		vp := &frame.Viewports[vi]
		for li := range vp.Layers {
			layer := &vp.Layers[li]
			for pi := range layer.Passes {
				pass := &layer.Passes[pi]
				if err := s.Cull(out.Passes[k], pass.Root, &pass.Env); err != nil {
					return fmt.Errorf("viewport %d layer %d pass %d: %w", vi, layer.ID, pi, err)
				}
				k++
			}
		}
	}
	return nil
}

// scope is the set of effects in force for a subtree. Slices are never
// appended to in place, so children can share them with their parent.
type scope struct {
	lights []render.EffectDetail
	clips  []render.EffectDetail
	fog    render.Effect
}

func (sc scope) enter(es render.EffectScope, world mgl64.Mat4) scope {
	if l := es.Lights(); len(l) > 0 {
		sc.lights = appendEffects(sc.lights, l, world)
	}
	if c := es.ClipPlanes(); len(c) > 0 {
		sc.clips = appendEffects(sc.clips, c, world)
	}
	if f := es.Fog(); f != nil {
		sc.fog = f
	}
	return sc
}

func appendEffects(base []render.EffectDetail, effects []render.Effect, world mgl64.Mat4) []render.EffectDetail {
	out := make([]render.EffectDetail, len(base), len(base)+len(effects))
	copy(out, base)
	for _, e := range effects {
		if e != nil {
			out = append(out, render.EffectDetail{Effect: e, Transform: world})
		}
	}
	return out
}

// walk visits n with the accumulated parent transform. inside is set once
// an ancestor was found entirely within the frustum.
func (s *Stage) walk(n render.Cullable, parent mgl64.Mat4, depth int, inside bool, sc scope) {
	if depth > s.maxDepth {
		s.tooDeep++
		return
	}

	world := parent
	if t, ok := n.(render.TransformCullable); ok {
		world = parent.Mul4(t.Transform())
	}

	if c, ok := n.(render.CustomCullable); ok {
		s.walkCustom(c, world, depth, inside, sc)
		return
	}

	var wb bounds.Volume
	if b := n.CullableBounds(); b != nil {
		wb = b.Transform(world)
		if s.frustumCulling && !inside {
			switch wb.Classify(&s.frustum) {
			case bounds.Outside:
				s.pruned++
				return
			case bounds.Inside:
				inside = true
			}
		}
	}

	if es, ok := n.(render.EffectScope); ok {
		sc = sc.enter(es, world)
	}

	if l, ok := n.(render.LeafCullable); ok {
		if r := l.Renderable(); r != nil {
			s.out.add(render.CulledDetail{
				Renderable: r,
				Transform:  world,
				Bounds:     wb,
				Lights:     sc.lights,
				ClipPlanes: sc.clips,
				Fog:        sc.fog,
				Depth:      depth,
			})
		}
	}

	switch g := n.(type) {
	case render.GroupCullable:
		num := g.NumCullableChildren()
		if num < 0 {
			return
		}
		children := g.CullableChildren()
		for _, child := range children[:min(num, len(children))] {
			if child != nil {
				s.walk(child, world, depth+1, inside, sc)
			}
		}
	case render.SingleCullable:
		if child := g.CullableChild(); child != nil {
			s.walk(child, world, depth+1, inside, sc)
		}
	}
}

// walkCustom lets the node choose its children. The node does its own
// bounds testing.
func (s *Stage) walkCustom(c render.CustomCullable, world mgl64.Mat4, depth int, inside bool, sc scope) {
	ci := s.instructionsAt(depth)
	ci.Reset()
	c.CullChildren(ci, world, s.env.View, s.frustum, s.env.AngularResolution)

	if es, ok := c.(render.EffectScope); ok {
		sc = sc.enter(es, world)
	}
	childWorld := world
	if ci.HasTransform {
		childWorld = world.Mul4(ci.LocalTransform)
	}
	for _, child := range ci.Valid() {
		if child != nil {
			s.walk(child, childWorld, depth+1, inside, sc)
		}
	}
	ci.Reset()
}

func (s *Stage) instructionsAt(depth int) *render.CullInstructions {
	for len(s.custom) <= depth {
		s.custom = append(s.custom, render.NewCullInstructions())
	}
	return s.custom[depth]
}
