// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package cull

import "github.com/gogpu/scene3d/render"

// DefaultOutputCapacity is the initial node capacity of an Output.
const DefaultOutputCapacity = 256

// Output is the flattened result of culling one pass. Nodes may be longer
// than NumNodes; only the first NumNodes entries are valid.
type Output struct {
	Nodes    []render.CulledDetail
	NumNodes int
}

// NewOutput creates an output with room for capacity nodes.
func NewOutput(capacity int) *Output {
	return &Output{Nodes: make([]render.CulledDetail, max(capacity, 0))}
}

// Valid returns the culled nodes.
func (o *Output) Valid() []render.CulledDetail {
	return o.Nodes[:o.NumNodes]
}

// Reset clears the valid nodes, keeping capacity.
func (o *Output) Reset() {
	clear(o.Nodes[:o.NumNodes])
	o.NumNodes = 0
}

// EnsureCapacity grows Nodes to at least n entries, preserving content.
func (o *Output) EnsureCapacity(n int) {
	if n <= len(o.Nodes) {
		return
	}
	grown := make([]render.CulledDetail, n)
	copy(grown, o.Nodes[:o.NumNodes])
	o.Nodes = grown
}

func (o *Output) add(d render.CulledDetail) {
	if o.NumNodes == len(o.Nodes) {
		o.EnsureCapacity(max(2*len(o.Nodes), 16))
	}
	o.Nodes[o.NumNodes] = d
	o.NumNodes++
}

// FrameOutput holds one Output per pass of a render.Frame, in viewport,
// layer, pass order.
type FrameOutput struct {
	Passes []*Output
}

// NewFrameOutput creates an empty frame output.
func NewFrameOutput() *FrameOutput {
	return &FrameOutput{}
}

// Reset clears every pass output and keeps the buffers for reuse.
func (f *FrameOutput) Reset() {
	for _, o := range f.Passes {
		o.Reset()
	}
}

// resize makes exactly n pass outputs available. Outputs beyond n are
// cleared and kept in the backing array for a later, larger frame.
func (f *FrameOutput) resize(n int) {
	for _, o := range f.Passes[min(n, len(f.Passes)):] {
		o.Reset()
	}
	if n <= cap(f.Passes) {
		f.Passes = f.Passes[:n]
	}
	for i, o := range f.Passes {
		if o == nil {
			f.Passes[i] = NewOutput(DefaultOutputCapacity)
		}
	}
	for len(f.Passes) < n {
		f.Passes = append(f.Passes, NewOutput(DefaultOutputCapacity))
	}
}

// NumNodes returns the node count summed over every pass.
func (f *FrameOutput) NumNodes() int {
	n := 0
	for _, o := range f.Passes {
		n += o.NumNodes
	}
	return n
}
