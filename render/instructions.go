// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package render

import (
	"errors"
	"fmt"

	"github.com/go-gl/mathgl/mgl64"
)

// DefaultInstructionCapacity is the initial number of slots in a
// RenderInstructions buffer.
const DefaultInstructionCapacity = 496

// minGrowth is the smallest capacity a geometric grow produces.
const minGrowth = 16

var (
	// ErrInvalidStrategy is returned for an unknown GrowthStrategy.
	ErrInvalidStrategy = errors.New("render: unknown growth strategy")

	// ErrInvalidCapacity is returned for a negative buffer capacity.
	ErrInvalidCapacity = errors.New("render: negative buffer capacity")
)

// GrowthStrategy selects how a RenderInstructions buffer grows when an
// append overflows its capacity.
type GrowthStrategy uint8

const (
	// GrowGeometric doubles the capacity (amortized O(1) append).
	GrowGeometric GrowthStrategy = iota
	// GrowExact grows to exactly the required size.
	GrowExact
)

// String returns a human-readable name for the strategy.
func (s GrowthStrategy) String() string {
	switch s {
	case GrowGeometric:
		return "geometric"
	case GrowExact:
		return "exact"
	default:
		return "unknown"
	}
}

// ParseGrowthStrategy converts a configuration name to a strategy.
func ParseGrowthStrategy(name string) (GrowthStrategy, error) {
	switch name {
	case "", "geometric":
		return GrowGeometric, nil
	case "exact":
		return GrowExact, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrInvalidStrategy, name)
	}
}

// Detail is the operand of one RenderOp. Which fields are meaningful
// depends on the op; see the RenderOp constants.
type Detail struct {
	Renderable Renderable

	// Transform is the local-to-world transform of Renderable.
	Transform    mgl64.Mat4
	HasTransform bool

	// Inverse is the world-to-local transform, filled for spatialized
	// renderables.
	Inverse    mgl64.Mat4
	HasInverse bool

	// Custom carries instructions produced by a custom renderable.
	Custom any

	Buffer    *BufferSetupData
	Clear     *ClearState
	Viewport  *Viewport
	Env       *Environment
	Layer     *Layer
	Pass      int
	Offscreen *OffscreenTarget
}

// RenderInstructions is a flattened, ordered stream of RenderOp tags with
// a parallel operand array. It is produced by the sort stage and consumed
// by an OutputDevice.
//
// The backing arrays are reused from frame to frame: Reset only rewinds
// the valid count. When an append overflows, new arrays are allocated and
// the valid prefix is copied, so slices handed out before the grow keep
// seeing the data they were handed.
//
// An instance is either canonical, owning its ops, or an alias created by
// AliasOf that points at a canonical instance. Readers always go through
// Ops, Details and Len, which resolve the alias first.
type RenderInstructions struct {
	ops      []RenderOp
	details  []Detail
	numValid int
	strategy GrowthStrategy

	copyOf *RenderInstructions

	// Offscreens holds the streams for offscreen render targets used by
	// this frame. Devices draw them before the main stream.
	Offscreens []*RenderInstructions

	// Target is the offscreen target this stream renders into, or nil
	// for the main surface.
	Target *OffscreenTarget
}

// NewRenderInstructions creates a buffer with the default capacity and
// geometric growth.
func NewRenderInstructions() *RenderInstructions {
	ri, _ := NewRenderInstructionsWith(GrowGeometric, DefaultInstructionCapacity)
	return ri
}

// NewRenderInstructionsWith creates a buffer with an explicit growth
// strategy and initial capacity.
func NewRenderInstructionsWith(strategy GrowthStrategy, capacity int) (*RenderInstructions, error) {
	if strategy != GrowGeometric && strategy != GrowExact {
		return nil, fmt.Errorf("%w: %d", ErrInvalidStrategy, strategy)
	}
	if capacity < 0 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidCapacity, capacity)
	}
	return &RenderInstructions{
		ops:      make([]RenderOp, capacity),
		details:  make([]Detail, capacity),
		strategy: strategy,
	}, nil
}

// AliasOf returns an instance that stands for canonical without copying
// its content. It is used when one resource is referenced from several
// rendering contexts that cannot share state.
func AliasOf(canonical *RenderInstructions) *RenderInstructions {
	return &RenderInstructions{copyOf: canonical}
}

// CopyOf returns the instance this one aliases, or nil when canonical.
func (r *RenderInstructions) CopyOf() *RenderInstructions {
	return r.copyOf
}

// IsAlias reports whether r stands for another instance.
func (r *RenderInstructions) IsAlias() bool {
	return r.copyOf != nil
}

// Resolve follows alias links to the canonical instance.
func (r *RenderInstructions) Resolve() *RenderInstructions {
	for r.copyOf != nil {
		r = r.copyOf
	}
	return r
}

// Len returns the number of valid ops.
func (r *RenderInstructions) Len() int {
	return r.Resolve().numValid
}

// Ops returns the valid ops. The slice aliases the backing array and is
// only valid until the next Reset or Resize.
func (r *RenderInstructions) Ops() []RenderOp {
	c := r.Resolve()
	return c.ops[:c.numValid]
}

// Details returns the operands parallel to Ops.
func (r *RenderInstructions) Details() []Detail {
	c := r.Resolve()
	return c.details[:c.numValid]
}

// At returns the op and operand at index i.
func (r *RenderInstructions) At(i int) (RenderOp, *Detail) {
	c := r.Resolve()
	return c.ops[i], &c.details[i]
}

// Capacity returns the size of this instance's own backing arrays.
func (r *RenderInstructions) Capacity() int {
	return len(r.ops)
}

// Strategy returns the growth strategy.
func (r *RenderInstructions) Strategy() GrowthStrategy {
	return r.strategy
}

// Append adds one op with its operand.
func (r *RenderInstructions) Append(op RenderOp, d Detail) {
	if r.numValid == len(r.ops) {
		r.grow(r.numValid + 1)
	}
	r.ops[r.numValid] = op
	r.details[r.numValid] = d
	r.numValid++
}

// AppendOp adds an op that takes no operand.
func (r *RenderInstructions) AppendOp(op RenderOp) {
	r.Append(op, Detail{})
}

// EnsureCapacity grows the backing arrays so that at least n slots exist,
// preserving the valid content. It never shrinks.
func (r *RenderInstructions) EnsureCapacity(n int) {
	if n > len(r.ops) {
		r.grow(n)
	}
}

// Resize replaces the backing arrays with arrays of exactly n slots and
// resets the valid count to zero. Content is not preserved; callers must
// repopulate after a resize. A negative n is treated as zero.
func (r *RenderInstructions) Resize(n int) {
	n = max(n, 0)
	r.ops = make([]RenderOp, n)
	r.details = make([]Detail, n)
	r.numValid = 0
}

// Reset rewinds the valid count without releasing memory. Operand
// references are cleared so that the previous frame's nodes can be
// collected.
func (r *RenderInstructions) Reset() {
	clear(r.details[:r.numValid])
	r.numValid = 0
	clear(r.Offscreens)
	r.Offscreens = r.Offscreens[:0]
}

// Truncate drops ops beyond n.
func (r *RenderInstructions) Truncate(n int) {
	if n < 0 || n >= r.numValid {
		return
	}
	clear(r.details[n:r.numValid])
	r.numValid = n
}

// CopyFrom replaces the content of r with the valid ops of src, resolving
// aliases. Target is copied; Offscreens are not. The backing arrays of r
// are reused when large enough.
func (r *RenderInstructions) CopyFrom(src *RenderInstructions) {
	c := src.Resolve()
	r.Reset()
	r.EnsureCapacity(c.numValid)
	copy(r.ops, c.ops[:c.numValid])
	copy(r.details, c.details[:c.numValid])
	r.numValid = c.numValid
	r.Target = c.Target
}

// Clone returns a canonical copy of the valid content of r. Later changes
// to r do not show through the copy.
func (r *RenderInstructions) Clone() *RenderInstructions {
	c := &RenderInstructions{strategy: r.Resolve().strategy}
	c.CopyFrom(r)
	return c
}

// grow reallocates to hold at least need slots and copies the valid prefix.
func (r *RenderInstructions) grow(need int) {
	size := need
	if r.strategy == GrowGeometric {
		size = max(2*len(r.ops), need, minGrowth)
	}
	ops := make([]RenderOp, size)
	details := make([]Detail, size)
	copy(ops, r.ops[:r.numValid])
	copy(details, r.details[:r.numValid])
	r.ops = ops
	r.details = details
}
