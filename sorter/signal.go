// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package sorter

import (
	"sync/atomic"

	"github.com/gogpu/scene3d/render"
)

// Signal is the cooperative halt flag checked by sort policies between
// nodes. Once halted it stays halted until Clear.
//
// Signal is safe for concurrent use.
type Signal struct {
	halted atomic.Bool
}

// Halt asks the current and every later sort to stop.
func (s *Signal) Halt() { s.halted.Store(true) }

// Clear re-enables sorting.
func (s *Signal) Clear() { s.halted.Store(false) }

// Halted reports whether a halt was requested.
func (s *Signal) Halted() bool { return s.halted.Load() }

// Receiver accepts completed instruction streams.
type Receiver interface {
	SortedOutput(instr *render.RenderInstructions)
}

// ReceiverFunc adapts a function to Receiver.
type ReceiverFunc func(instr *render.RenderInstructions)

// SortedOutput calls f(instr).
func (f ReceiverFunc) SortedOutput(instr *render.RenderInstructions) { f(instr) }
