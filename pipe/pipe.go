// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package pipe

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/gogpu/scene3d"
	"github.com/gogpu/scene3d/cull"
	"github.com/gogpu/scene3d/pick"
	"github.com/gogpu/scene3d/render"
	"github.com/gogpu/scene3d/sorter"
)

var (
	// ErrHalted is returned for a frame that was not delivered because
	// the pipe or its manager was halted.
	ErrHalted = errors.New("pipe: halted")

	// ErrDrawFailed is returned when the output device rejects a frame.
	ErrDrawFailed = errors.New("pipe: device dropped frame")

	// ErrNoFrame is returned when a pipe has nothing to render.
	ErrNoFrame = errors.New("pipe: no frame composition")
)

// Option configures a Pipe.
type Option func(*pipeConfig)

type pipeConfig struct {
	name     string
	policy   sorter.Policy
	cullOpts []cull.Option
	instr    *render.RenderInstructions
	shared   *render.SharedTargets
	buffers  *render.InstructionPool
	gate     *pick.Gate
	logger   *slog.Logger
}

// WithName names the pipe in log output.
func WithName(name string) Option {
	return func(c *pipeConfig) { c.name = name }
}

// WithPolicy sets the sort policy. The default is the state policy.
func WithPolicy(p sorter.Policy) Option {
	return func(c *pipeConfig) { c.policy = p }
}

// WithCullOptions passes options to the pipe's cull stage.
func WithCullOptions(opts ...cull.Option) Option {
	return func(c *pipeConfig) { c.cullOpts = append(c.cullOpts, opts...) }
}

// WithInstructions gives the sort stage a preconfigured output buffer.
func WithInstructions(ri *render.RenderInstructions) Option {
	return func(c *pipeConfig) { c.instr = ri }
}

// WithSharedTargets lets the pipe share offscreen targets with other
// pipes rendering the same scene.
func WithSharedTargets(st *render.SharedTargets) Option {
	return func(c *pipeConfig) { c.shared = st }
}

// WithInstructionPool sets the pool the sort stage takes offscreen
// target buffers from.
func WithInstructionPool(p *render.InstructionPool) Option {
	return func(c *pipeConfig) { c.buffers = p }
}

// WithGate makes the cull stage refuse to run while the update window
// is open.
func WithGate(g *pick.Gate) Option {
	return func(c *pipeConfig) { c.gate = g }
}

// WithLogger sets the logger for the pipe and its stages.
func WithLogger(l *slog.Logger) Option {
	return func(c *pipeConfig) { c.logger = l }
}

// Pipe renders one frame composition to one output device:
// cull, then sort, then draw.
//
// A Pipe owns its stages and buffers. RenderFrame must not be called
// concurrently on the same pipe; distinct pipes may render the same
// scene at the same time.
type Pipe struct {
	name   string
	logger *slog.Logger
	device render.OutputDevice

	frame  *render.Frame
	cull   *cull.Stage
	sort   *sorter.Stage
	culled *cull.FrameOutput

	pending *render.RenderInstructions
	prof    render.ProfilingData

	frames  int
	dropped int
}

// New creates a pipe drawing frame on dev.
func New(dev render.OutputDevice, frame *render.Frame, opts ...Option) (*Pipe, error) {
	if dev == nil {
		return nil, errors.New("pipe: nil output device")
	}
	cfg := pipeConfig{}
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.policy == nil {
		cfg.policy = sorter.NewStatePolicy()
	}
	if cfg.name == "" {
		cfg.name = dev.Capabilities().Name
	}

	p := &Pipe{
		name:   cfg.name,
		logger: cfg.logger,
		device: dev,
		frame:  frame,
		culled: cull.NewFrameOutput(),
	}

	cullOpts := cfg.cullOpts
	sortOpts := []sorter.Option{}
	if cfg.logger != nil {
		cullOpts = append(cullOpts, cull.WithLogger(cfg.logger))
		sortOpts = append(sortOpts, sorter.WithLogger(cfg.logger))
	}
	if cfg.instr != nil {
		sortOpts = append(sortOpts, sorter.WithInstructions(cfg.instr))
	}
	if cfg.shared != nil {
		sortOpts = append(sortOpts, sorter.WithSharedTargets(cfg.shared))
	}
	if cfg.buffers != nil {
		sortOpts = append(sortOpts, sorter.WithInstructionPool(cfg.buffers))
	}

	p.cull = cull.NewStage(cullOpts...)
	if cfg.gate != nil {
		p.cull.SetGate(cfg.gate)
	}
	st, err := sorter.NewStage(cfg.policy, sortOpts...)
	if err != nil {
		return nil, fmt.Errorf("pipe %s: %w", cfg.name, err)
	}
	st.SetReceiver(p)
	p.sort = st
	return p, nil
}

func (p *Pipe) log() *slog.Logger {
	if p.logger != nil {
		return p.logger
	}
	return scene3d.Logger()
}

// Name returns the pipe name.
func (p *Pipe) Name() string { return p.name }

// Device returns the output device.
func (p *Pipe) Device() render.OutputDevice { return p.device }

// Frame returns the frame composition.
func (p *Pipe) Frame() *render.Frame { return p.frame }

// SetFrame replaces the frame composition. Call it from an update
// listener or while no frame is rendering.
func (p *Pipe) SetFrame(f *render.Frame) { p.frame = f }

// SortedOutput implements sorter.Receiver.
func (p *Pipe) SortedOutput(instr *render.RenderInstructions) {
	p.pending = instr
}

// Halt stops the current sort and suppresses its delivery. Frames keep
// failing with ErrHalted until Resume.
func (p *Pipe) Halt() { p.sort.Halt() }

// Resume lifts a Halt.
func (p *Pipe) Resume() { p.sort.Resume() }

// Profile returns the timings of the last frame.
func (p *Pipe) Profile() render.ProfilingData { return p.prof }

// Instructions returns the stream of the last sorted frame.
func (p *Pipe) Instructions() *render.RenderInstructions { return p.sort.Instructions() }

// Frames returns the number of frames drawn.
func (p *Pipe) Frames() int { return p.frames }

// Dropped returns the number of frames the device rejected.
func (p *Pipe) Dropped() int { return p.dropped }

// RenderFrame culls, sorts and draws one frame.
func (p *Pipe) RenderFrame(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if p.frame == nil {
		return ErrNoFrame
	}
	start := time.Now()
	p.prof.Reset()

	if err := p.cull.CullFrame(p.culled, p.frame); err != nil {
		return fmt.Errorf("pipe %s: %w", p.name, err)
	}
	p.prof.CullTime = time.Since(start)
	p.prof.NumSortInput = p.culled.NumNodes()

	sortStart := time.Now()
	p.pending = nil
	if !p.sort.SortFrame(p.culled, p.frame) || p.pending == nil {
		return ErrHalted
	}
	p.prof.SortTime = time.Since(sortStart)

	if err := ctx.Err(); err != nil {
		return err
	}
	ok := p.device.Draw(p.pending, &p.prof)
	p.prof.RenderTime = time.Since(start)
	if !ok {
		p.dropped++
		p.log().Warn("pipe: frame dropped", "pipe", p.name, "dropped", p.dropped)
		return fmt.Errorf("pipe %s: %w", p.name, ErrDrawFailed)
	}
	p.frames++
	p.log().Debug("pipe: frame", "pipe", p.name, "profile", p.prof.String())
	return nil
}

// Close returns the pipe's offscreen buffers to their pool and closes
// the output device.
func (p *Pipe) Close() error {
	p.sort.Release()
	return p.device.Close()
}
