// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package sorter

import (
	"errors"
	"log/slog"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/gogpu/scene3d"
	"github.com/gogpu/scene3d/cull"
	"github.com/gogpu/scene3d/render"
)

// ErrNilPolicy is returned by NewStage without a policy.
var ErrNilPolicy = errors.New("sorter: nil sort policy")

// slack is the extra capacity reserved beyond two ops per node for the
// bracketing ops a frame adds.
const slack = 32

// Option configures a Stage.
type Option func(*Stage)

// WithLogger sets the stage logger. By default the stage logs through
// scene3d.Logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Stage) { s.logger = l }
}

// WithInstructions replaces the stage's output buffer, for example one
// built with a specific growth strategy.
func WithInstructions(ri *render.RenderInstructions) Option {
	return func(s *Stage) {
		if ri != nil {
			s.out = ri
		}
	}
}

// WithSharedTargets makes the stage alias offscreen targets that another
// rendering context already produces.
func WithSharedTargets(st *render.SharedTargets) Option {
	return func(s *Stage) { s.shared = st }
}

// WithInstructionPool sets the pool offscreen target buffers are taken
// from and returned to. Pipes of one manager share a pool.
func WithInstructionPool(p *render.InstructionPool) Option {
	return func(s *Stage) {
		if p != nil {
			s.pool = p
		}
	}
}

// offscreen is the reusable output for one offscreen target.
type offscreen struct {
	instr    *render.RenderInstructions
	viewport *render.Viewport
	frame    uint64
}

// Stage turns cull output into an instruction stream and hands it to the
// receiver.
//
// A Stage reuses one output buffer across frames and is not safe for
// concurrent sorting. Halt may be called from any goroutine.
type Stage struct {
	policy   Policy
	receiver Receiver
	signal   Signal
	out      *render.RenderInstructions
	shared   *render.SharedTargets
	pool     *render.InstructionPool
	targets  map[*render.OffscreenTarget]*offscreen
	frame    uint64
	logger   *slog.Logger
}

// NewStage creates a sort stage running policy.
func NewStage(policy Policy, opts ...Option) (*Stage, error) {
	if policy == nil {
		return nil, ErrNilPolicy
	}
	s := &Stage{
		policy:  policy,
		targets: make(map[*render.OffscreenTarget]*offscreen),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.out == nil {
		s.out = render.NewRenderInstructions()
	}
	if s.pool == nil {
		s.pool = render.NewInstructionPool()
	}
	return s, nil
}

func (s *Stage) log() *slog.Logger {
	if s.logger != nil {
		return s.logger
	}
	return scene3d.Logger()
}

// SetReceiver registers the consumer of completed streams. With no
// receiver completed streams are discarded.
func (s *Stage) SetReceiver(r Receiver) {
	s.receiver = r
}

// Policy returns the active sort policy.
func (s *Stage) Policy() Policy {
	return s.policy
}

// Halt stops the sort in progress, if any, and every later sort until
// Resume. A halted sort never reaches the receiver.
func (s *Stage) Halt() {
	s.signal.Halt()
}

// Resume clears a previous Halt.
func (s *Stage) Resume() {
	s.signal.Clear()
}

// Signal returns the stage's halt flag.
func (s *Stage) Signal() *Signal {
	return &s.signal
}

// Instructions returns the stage's output buffer.
func (s *Stage) Instructions() *render.RenderInstructions {
	return s.out
}

// Sort orders the first numNodes nodes with env and delivers the result.
// It returns false when halted; the receiver is then not called.
func (s *Stage) Sort(nodes []render.CulledDetail, numNodes int, env *render.Environment) bool {
	if s.signal.Halted() {
		return false
	}
	numNodes = min(max(numNodes, 0), len(nodes))
	if env == nil {
		env = &render.Environment{View: mgl64.Ident4(), Projection: mgl64.Ident4()}
	}

	s.out.Reset()
	s.reserve(2*numNodes + slack)
	if !s.policy.SortNodes(s.out, nodes[:numNodes], env, &s.signal) || s.signal.Halted() {
		return false
	}
	s.deliver()
	return true
}

// SortFrame sorts every pass of a culled frame into one stream with the
// viewport, layer, multipass and buffer brackets of composition. Passes
// that render into an offscreen target go to Offscreens instead.
func (s *Stage) SortFrame(frame *cull.FrameOutput, composition *render.Frame) bool {
	if s.signal.Halted() {
		return false
	}
	s.out.Reset()
	s.reserve(2*frame.NumNodes() + slack*(composition.NumPasses()+1))
	s.frame++

	k := 0
	for vi := range composition.Viewports {
		vp := &composition.Viewports[vi]
		s.out.Append(render.StartViewport, render.Detail{Viewport: vp})
		for li := range vp.Layers {
			layer := &vp.Layers[li]
			multi := layer.IsMultipass()
			s.out.Append(render.StartLayer, render.Detail{Layer: layer})
			if multi {
				s.out.Append(render.StartMultipass, render.Detail{Layer: layer})
			}
			for pi := range layer.Passes {
				pass := &layer.Passes[pi]
				var nodes []render.CulledDetail
				if k < len(frame.Passes) {
					nodes = frame.Passes[k].Valid()
				}
				k++

				if pass.Target != nil {
					if !s.sortOffscreen(pass, nodes, composition.Context) {
						return false
					}
					continue
				}
				if multi {
					s.out.Append(render.StartMultipassPass, render.Detail{Layer: layer, Pass: pi})
				}
				if !s.emitPass(s.out, vp, pass, nodes) {
					return false
				}
				if multi {
					s.out.Append(render.StopMultipassPass, render.Detail{Layer: layer, Pass: pi})
				}
			}
			if multi {
				s.out.Append(render.StopMultipass, render.Detail{Layer: layer})
			}
			s.out.Append(render.StopLayer, render.Detail{Layer: layer})
		}
		s.out.Append(render.StopViewport, render.Detail{Viewport: vp})
	}

	if s.signal.Halted() {
		return false
	}
	s.releaseUnused()
	s.deliver()
	return true
}

// releaseUnused returns the buffers of targets the last frame did not
// render to the pool.
func (s *Stage) releaseUnused() {
	for t, o := range s.targets {
		if o.frame != s.frame {
			s.pool.Put(o.instr)
			delete(s.targets, t)
		}
	}
}

// Release returns every offscreen buffer to the pool. The stage stays
// usable.
func (s *Stage) Release() {
	for t, o := range s.targets {
		s.pool.Put(o.instr)
		delete(s.targets, t)
	}
}

// emitPass appends one pass: viewport state, buffer state, clear,
// background, environment fog and the policy's content.
func (s *Stage) emitPass(out *render.RenderInstructions, vp *render.Viewport, pass *render.Pass, nodes []render.CulledDetail) bool {
	env := &pass.Env
	buf := pass.Buffer
	if buf == nil && pass.Target != nil {
		buf = &pass.Target.Buffer
	}

	out.Append(render.SetViewportState, render.Detail{Viewport: vp, Env: env})
	out.Append(render.StartBufferState, render.Detail{Buffer: buf})
	if pass.Clear != nil {
		out.Append(render.SetBufferClear, render.Detail{Clear: pass.Clear})
	}
	if bg := env.Background; bg != nil {
		d := render.Detail{Renderable: bg}
		out.Append(render.StartRender, d)
		out.Append(render.StopRender, d)
	}
	fog := env.Fog
	if fog != nil {
		out.Append(render.StartFog, render.Detail{Renderable: fog})
	}
	if !s.policy.SortNodes(out, nodes, env, &s.signal) {
		return false
	}
	if fog != nil {
		out.Append(render.StopFog, render.Detail{Renderable: fog})
	}
	out.Append(render.StopBufferState, render.Detail{Buffer: buf})
	out.Append(render.StopViewportState, render.Detail{Viewport: vp, Env: env})
	return true
}

// sortOffscreen renders a pass into its target's own stream, or attaches
// an alias when another context already produces the target.
func (s *Stage) sortOffscreen(pass *render.Pass, nodes []render.CulledDetail, context int) bool {
	target := pass.Target
	if s.shared != nil {
		if alias, ok := s.shared.Lookup(target, context); ok {
			s.out.Offscreens = append(s.out.Offscreens, alias)
			return true
		}
	}

	o, ok := s.targets[target]
	if !ok {
		o = &offscreen{instr: s.pool.Get()}
		s.targets[target] = o
	}
	o.frame = s.frame
	// Published copies keep pointing at the old viewport.
	if o.viewport == nil || o.viewport.Width != target.Width || o.viewport.Height != target.Height {
		o.viewport = &render.Viewport{Width: target.Width, Height: target.Height}
	}
	instr := o.instr
	instr.Reset()
	instr.Target = target
	instr.EnsureCapacity(2*len(nodes) + slack)

	instr.Append(render.StartViewport, render.Detail{Viewport: o.viewport, Offscreen: target})
	if !s.emitPass(instr, o.viewport, pass, nodes) {
		return false
	}
	instr.Append(render.StopViewport, render.Detail{Viewport: o.viewport, Offscreen: target})

	if s.shared != nil {
		instr = s.shared.Claim(target, context, instr)
	}
	s.out.Offscreens = append(s.out.Offscreens, instr)
	return true
}

func (s *Stage) reserve(n int) {
	before := s.out.Capacity()
	s.out.EnsureCapacity(n)
	if after := s.out.Capacity(); after != before {
		s.log().Debug("sorter: instruction buffer grown", "from", before, "to", after)
	}
}

func (s *Stage) deliver() {
	if s.receiver == nil {
		return
	}
	s.receiver.SortedOutput(s.out)
}
