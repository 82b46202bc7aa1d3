// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package pipe

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gogpu/scene3d"
	"github.com/gogpu/scene3d/internal/parallel"
	"github.com/gogpu/scene3d/pick"
	"github.com/gogpu/scene3d/render"
)

// ErrShutdown is returned by a manager after Shutdown.
var ErrShutdown = errors.New("pipe: manager shut down")

// ErrInvalidMode is returned by ParseMode for an unknown name.
var ErrInvalidMode = errors.New("pipe: invalid threading mode")

// Mode selects how a Manager drives its pipes.
type Mode int

const (
	// SingleThreaded renders the pipes one after another on the calling
	// goroutine.
	SingleThreaded Mode = iota

	// MultiThreaded renders every pipe on its own worker, all at once.
	MultiThreaded
)

// String returns the configuration name of the mode.
func (m Mode) String() string {
	switch m {
	case SingleThreaded:
		return "single"
	case MultiThreaded:
		return "multi"
	default:
		return fmt.Sprintf("Mode(%d)", int(m))
	}
}

// ParseMode maps "single" and "multi" to a Mode. The empty string is
// SingleThreaded.
func ParseMode(name string) (Mode, error) {
	switch name {
	case "", "single":
		return SingleThreaded, nil
	case "multi":
		return MultiThreaded, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrInvalidMode, name)
	}
}

// UpdateListener is called once per frame before culling starts. While
// it runs the scene graph may be modified and picking is allowed.
type UpdateListener interface {
	Update(ctx context.Context, frame int) error
}

// UpdateFunc adapts a function to UpdateListener.
type UpdateFunc func(ctx context.Context, frame int) error

// Update implements UpdateListener.
func (f UpdateFunc) Update(ctx context.Context, frame int) error { return f(ctx, frame) }

// ManagerOption configures a Manager.
type ManagerOption func(*Manager)

// WithMode sets the threading mode. The default is SingleThreaded.
func WithMode(m Mode) ManagerOption {
	return func(mg *Manager) { mg.mode = m }
}

// WithWorkers sets the worker count for MultiThreaded mode. Zero means
// GOMAXPROCS.
func WithWorkers(n int) ManagerOption {
	return func(mg *Manager) { mg.workers = n }
}

// WithFrameRate limits Run to fps frames per second. Zero renders as fast
// as possible.
func WithFrameRate(fps float64) ManagerOption {
	return func(mg *Manager) {
		if fps > 0 {
			mg.interval = time.Duration(float64(time.Second) / fps)
		} else {
			mg.interval = 0
		}
	}
}

// WithManagerLogger sets the manager logger.
func WithManagerLogger(l *slog.Logger) ManagerOption {
	return func(mg *Manager) { mg.logger = l }
}

// Manager sequences update, cull, sort and draw for a set of pipes.
//
// Each frame the manager opens the update window, runs the update
// listeners, closes the window and then renders every pipe. Scene
// changes made outside an update listener race with the pipes.
type Manager struct {
	mode     Mode
	workers  int
	interval time.Duration
	logger   *slog.Logger

	gate    pick.Gate
	picker  *pick.Picker
	shared  *render.SharedTargets
	buffers *render.InstructionPool
	pool    *parallel.WorkerPool

	// busy is held for the duration of a frame.
	busy sync.Mutex

	mu        sync.Mutex
	pipes     []*Pipe
	listeners []UpdateListener
	frame     int

	halted   atomic.Bool
	shutdown atomic.Bool
	stop     chan struct{}
	stopOnce sync.Once
}

// NewManager creates a manager.
func NewManager(opts ...ManagerOption) *Manager {
	m := &Manager{
		shared:  render.NewSharedTargets(),
		buffers: render.NewInstructionPool(),
		stop:    make(chan struct{}),
	}
	for _, opt := range opts {
		opt(m)
	}
	m.picker = pick.NewPicker(&m.gate)
	if m.mode == MultiThreaded {
		m.pool = parallel.NewWorkerPool(m.workers)
	}
	return m
}

func (m *Manager) log() *slog.Logger {
	if m.logger != nil {
		return m.logger
	}
	return scene3d.Logger()
}

// Mode returns the threading mode.
func (m *Manager) Mode() Mode { return m.mode }

// Gate returns the update window gate.
func (m *Manager) Gate() *pick.Gate { return &m.gate }

// Picker returns a picker that works inside update listeners.
func (m *Manager) Picker() *pick.Picker { return m.picker }

// SharedTargets returns the offscreen targets shared by the pipes.
func (m *Manager) SharedTargets() *render.SharedTargets { return m.shared }

// NewPipe creates a pipe wired to this manager's gate, shared targets and
// buffer pool and adds it.
func (m *Manager) NewPipe(dev render.OutputDevice, frame *render.Frame, opts ...Option) (*Pipe, error) {
	base := []Option{WithGate(&m.gate), WithSharedTargets(m.shared), WithInstructionPool(m.buffers)}
	if m.logger != nil {
		base = append(base, WithLogger(m.logger))
	}
	p, err := New(dev, frame, append(base, opts...)...)
	if err != nil {
		return nil, err
	}
	m.AddPipe(p)
	return p, nil
}

// AddPipe adds a pipe. A halted manager halts the new pipe too.
func (m *Manager) AddPipe(p *Pipe) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.halted.Load() {
		p.Halt()
	}
	m.pipes = append(m.pipes, p)
}

// RemovePipe removes a pipe and releases the offscreen targets its
// frame context owned. It reports whether the pipe was found.
func (m *Manager) RemovePipe(p *Pipe) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	i := slices.Index(m.pipes, p)
	if i < 0 {
		return false
	}
	m.pipes = slices.Delete(m.pipes, i, i+1)
	if f := p.Frame(); f != nil {
		m.shared.ReleaseContext(f.Context)
	}
	return true
}

// Pipes returns the current pipes.
func (m *Manager) Pipes() []*Pipe {
	m.mu.Lock()
	defer m.mu.Unlock()
	return slices.Clone(m.pipes)
}

// AddUpdateListener registers l.
func (m *Manager) AddUpdateListener(l UpdateListener) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.listeners = append(m.listeners, l)
}

// Halt stops every pipe: sorts in progress are abandoned without
// delivery and frames fail with ErrHalted until Resume.
func (m *Manager) Halt() {
	m.halted.Store(true)
	for _, p := range m.Pipes() {
		p.Halt()
	}
	m.log().Info("pipe: manager halted")
}

// Resume lifts a Halt.
func (m *Manager) Resume() {
	m.halted.Store(false)
	for _, p := range m.Pipes() {
		p.Resume()
	}
	m.log().Info("pipe: manager resumed")
}

// Halted reports whether the manager is halted.
func (m *Manager) Halted() bool { return m.halted.Load() }

// Frame returns the number of frames started.
func (m *Manager) Frame() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.frame
}

// RenderFrame runs the update listeners and renders every pipe once.
// Errors of individual pipes are joined; a failing pipe does not stop
// the others.
func (m *Manager) RenderFrame(ctx context.Context) error {
	m.busy.Lock()
	defer m.busy.Unlock()
	if m.shutdown.Load() {
		return ErrShutdown
	}
	if m.halted.Load() {
		return ErrHalted
	}

	m.mu.Lock()
	frame := m.frame
	m.frame++
	pipes := slices.Clone(m.pipes)
	listeners := slices.Clone(m.listeners)
	m.mu.Unlock()

	if err := m.update(ctx, frame, listeners); err != nil {
		return err
	}

	switch m.mode {
	case MultiThreaded:
		tasks := make([]parallel.Task, len(pipes))
		for i, p := range pipes {
			tasks[i] = p.RenderFrame
		}
		return m.pool.Run(ctx, tasks)
	default:
		var errs []error
		for _, p := range pipes {
			if err := p.RenderFrame(ctx); err != nil {
				errs = append(errs, err)
			}
		}
		return errors.Join(errs...)
	}
}

// update runs the listeners inside the update window.
func (m *Manager) update(ctx context.Context, frame int, listeners []UpdateListener) error {
	m.gate.Open()
	defer m.gate.Close()
	for _, l := range listeners {
		if err := l.Update(ctx, frame); err != nil {
			return fmt.Errorf("pipe: update listener: %w", err)
		}
	}
	return nil
}

// Run renders frames until ctx is canceled or Shutdown is called. Frame
// errors are logged and do not stop the loop; while halted the loop idles.
func (m *Manager) Run(ctx context.Context) error {
	if m.shutdown.Load() {
		return ErrShutdown
	}
	m.log().Info("pipe: manager started", "mode", m.mode, "pipes", len(m.Pipes()), "interval", m.interval)
	defer m.log().Info("pipe: manager stopped", "frames", m.Frame())

	var tick <-chan time.Time
	if m.interval > 0 {
		t := time.NewTicker(m.interval)
		defer t.Stop()
		tick = t.C
	}
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-m.stop:
			return nil
		default:
		}

		if m.halted.Load() {
			// Idle without spinning while halted.
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-m.stop:
				return nil
			case <-time.After(max(m.interval, time.Millisecond)):
			}
			continue
		}

		err := m.RenderFrame(ctx)
		switch {
		case err == nil, errors.Is(err, ErrHalted):
		case errors.Is(err, ErrShutdown):
			return nil
		case ctx.Err() != nil:
			return ctx.Err()
		default:
			m.log().Warn("pipe: frame failed", "err", err)
		}

		if tick != nil {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-m.stop:
				return nil
			case <-tick:
			}
		}
	}
}

// Shutdown stops Run, halts the pipes, stops the workers and closes every
// output device. It waits for the frame in progress and must not be
// called from an update listener.
func (m *Manager) Shutdown() error {
	if !m.shutdown.CompareAndSwap(false, true) {
		return nil
	}
	m.stopOnce.Do(func() { close(m.stop) })
	for _, p := range m.Pipes() {
		p.Halt()
	}
	if m.pool != nil {
		m.pool.Close()
	}

	m.busy.Lock()
	defer m.busy.Unlock()
	var errs []error
	for _, p := range m.Pipes() {
		if err := p.Close(); err != nil {
			errs = append(errs, fmt.Errorf("pipe %s: %w", p.Name(), err))
		}
	}
	return errors.Join(errs...)
}
