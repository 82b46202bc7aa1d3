// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package device

import (
	"bufio"
	"fmt"
	"io"
	"log/slog"
	"reflect"
	"strings"
	"time"

	"github.com/gogpu/scene3d"
	"github.com/gogpu/scene3d/render"
)

// Trace is an output device that writes a readable listing of every
// stream it receives. Streams that do not nest properly are rejected.
type Trace struct {
	w      *bufio.Writer
	logger *slog.Logger
	frame  int
	closed bool
	err    error
}

// NewTrace creates a trace device writing to w.
func NewTrace(w io.Writer) *Trace {
	return &Trace{w: bufio.NewWriter(w)}
}

// SetLogger sets the device logger. By default the device logs through
// scene3d.Logger.
func (t *Trace) SetLogger(l *slog.Logger) { t.logger = l }

func (t *Trace) log() *slog.Logger {
	if t.logger != nil {
		return t.logger
	}
	return scene3d.Logger()
}

// Err returns the first write or validation error.
func (t *Trace) Err() error { return t.err }

// Draw implements render.OutputDevice.
func (t *Trace) Draw(instr *render.RenderInstructions, prof *render.ProfilingData) bool {
	if t.closed || instr == nil {
		return false
	}
	start := time.Now()
	defer func() {
		if prof != nil {
			prof.DrawTime = time.Since(start)
		}
	}()

	if err := t.validate(instr); err != nil {
		if t.err == nil {
			t.err = err
		}
		t.log().Warn("trace: frame rejected", "frame", t.frame, "err", err)
		return false
	}

	fmt.Fprintf(t.w, "frame %d: %d ops\n", t.frame, instr.Len())
	for i, off := range instr.Offscreens {
		src := off.Resolve()
		name := "?"
		if src.Target != nil {
			name = src.Target.Name
		}
		alias := ""
		if off.IsAlias() {
			alias = " (shared)"
		}
		fmt.Fprintf(t.w, "offscreen %d %q%s: %d ops\n", i, name, alias, src.Len())
		t.list(src, 1)
	}
	t.list(instr, 0)
	t.frame++
	if err := t.w.Flush(); err != nil {
		if t.err == nil {
			t.err = err
		}
		return false
	}
	return true
}

func (t *Trace) validate(instr *render.RenderInstructions) error {
	if err := render.Validate(instr.Ops()); err != nil {
		return err
	}
	for i, off := range instr.Offscreens {
		if err := render.Validate(off.Ops()); err != nil {
			return fmt.Errorf("offscreen %d: %w", i, err)
		}
	}
	return nil
}

func (t *Trace) list(instr *render.RenderInstructions, indent int) {
	dec := render.NewDecoder(instr)
	for dec.Next() {
		op := dec.Op()
		fmt.Fprintf(t.w, "%4d %s%s%s\n", dec.Position(), strings.Repeat("  ", indent+dec.Depth()), op, describe(op, dec.Detail()))
	}
}

// describe renders the meaningful operand of op.
func describe(op render.RenderOp, d *render.Detail) string {
	switch {
	case d == nil:
		return ""
	case d.Renderable != nil:
		s := " " + typeName(d.Renderable)
		if d.HasTransform {
			p := d.Transform.Col(3)
			s += fmt.Sprintf(" @(%.3g,%.3g,%.3g)", p[0], p[1], p[2])
		}
		if d.Custom != nil {
			s += " custom=" + typeName(d.Custom)
		}
		return s
	case op == render.StartLayer || op == render.StartMultipass:
		if d.Layer != nil {
			return fmt.Sprintf(" id=%d passes=%d", d.Layer.ID, len(d.Layer.Passes))
		}
	case op == render.StartMultipassPass:
		return fmt.Sprintf(" pass=%d", d.Pass)
	case op == render.StartViewport || op == render.SetViewportState:
		switch {
		case d.Offscreen != nil:
			return fmt.Sprintf(" offscreen=%q %dx%d", d.Offscreen.Name, d.Offscreen.Width, d.Offscreen.Height)
		case d.Viewport != nil:
			v := d.Viewport
			return fmt.Sprintf(" %d,%d %dx%d", v.X, v.Y, v.Width, v.Height)
		}
	case op == render.StartBufferState || op == render.ChangeBufferState:
		if b := d.Buffer; b != nil {
			return fmt.Sprintf(" color=%v depth=%v samples=%d", b.ColorFormat(), b.DepthFormat(), b.SampleCount())
		}
	case op == render.SetBufferClear:
		if c := d.Clear; c != nil {
			return fmt.Sprintf(" color=%t depth=%t stencil=%t", c.ClearColor, c.ClearDepth, c.ClearStencil)
		}
	}
	return ""
}

func typeName(v any) string {
	t := reflect.TypeOf(v)
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	return t.Name()
}

// Capabilities implements render.OutputDevice.
func (t *Trace) Capabilities() render.DeviceCapabilities {
	return render.DeviceCapabilities{
		Name:               "trace",
		MaxAASamples:       64,
		SupportsOffscreen:  true,
		SupportsShadows:    true,
		SupportsFloatColor: true,
	}
}

// Close implements render.OutputDevice.
func (t *Trace) Close() error {
	if t.closed {
		return nil
	}
	t.closed = true
	return t.w.Flush()
}
