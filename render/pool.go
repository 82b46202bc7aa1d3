// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package render

import "sync"

// InstructionPool manages a pool of reusable RenderInstructions.
// After warmup, allocations are minimized by reusing buffers.
//
// Usage:
//
//	pool := NewInstructionPool()
//	instr := pool.Get()
//	defer pool.Put(instr)
type InstructionPool struct {
	pool sync.Pool
}

// NewInstructionPool creates a pool whose new buffers use the default
// capacity and geometric growth.
func NewInstructionPool() *InstructionPool {
	return NewInstructionPoolWith(GrowGeometric, DefaultInstructionCapacity)
}

// NewInstructionPoolWith creates a pool with explicit buffer settings.
// Invalid settings fall back to the defaults.
func NewInstructionPoolWith(strategy GrowthStrategy, capacity int) *InstructionPool {
	return &InstructionPool{
		pool: sync.Pool{
			New: func() any {
				ri, err := NewRenderInstructionsWith(strategy, capacity)
				if err != nil {
					return NewRenderInstructions()
				}
				return ri
			},
		},
	}
}

// Get retrieves a buffer from the pool.
// The buffer is reset and ready for use.
func (p *InstructionPool) Get() *RenderInstructions {
	ri := p.pool.Get().(*RenderInstructions)
	ri.Reset()
	ri.Target = nil
	return ri
}

// Put returns a buffer to the pool for reuse. Aliases are not pooled.
func (p *InstructionPool) Put(ri *RenderInstructions) {
	if ri == nil || ri.IsAlias() {
		return
	}
	p.pool.Put(ri)
}

// Warmup pre-allocates buffers to avoid allocation during critical paths.
func (p *InstructionPool) Warmup(count int) {
	buffers := make([]*RenderInstructions, count)
	for i := range buffers {
		buffers[i] = p.Get()
	}
	for _, ri := range buffers {
		p.Put(ri)
	}
}
