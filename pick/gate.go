package pick

import (
	"errors"
	"sync/atomic"
)

var (
	// ErrInvalidTiming is returned when picking is attempted outside the
	// update window in which the render manager permits it.
	ErrInvalidTiming = errors.New("pick: invalid pick timing")

	// ErrNotPickable is returned when the root of a pick is explicitly
	// excluded from picking or fails the request mask.
	ErrNotPickable = errors.New("pick: target is not pickable")
)

// Gate tracks the update window in which scene changes and picking are
// permitted. The render manager opens the gate while it runs update
// listeners and closes it before the cull stage starts.
//
// Gate is safe for concurrent use.
type Gate struct {
	open atomic.Bool
}

// Open starts the update window.
func (g *Gate) Open() { g.open.Store(true) }

// Close ends the update window.
func (g *Gate) Close() { g.open.Store(false) }

// IsOpen reports whether the update window is active.
func (g *Gate) IsOpen() bool { return g.open.Load() }
