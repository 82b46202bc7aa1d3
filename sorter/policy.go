// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package sorter

import (
	"cmp"
	"errors"
	"fmt"
	"slices"

	"github.com/gogpu/scene3d/render"
)

// ErrUnknownPolicy is returned by NewPolicy for an unrecognized name.
var ErrUnknownPolicy = errors.New("sorter: unknown sort policy")

// Policy orders culled nodes into an instruction stream.
//
// SortNodes appends to out without resetting it. It checks halt between
// nodes and returns false as soon as a halt is seen. For a fixed input a
// policy must append the same ops every time.
type Policy interface {
	SortNodes(out *render.RenderInstructions, nodes []render.CulledDetail, env *render.Environment, halt *Signal) bool
}

// PolicyNames lists the names NewPolicy accepts.
var PolicyNames = []string{"null", "transparency", "state"}

// NewPolicy returns a fresh policy by configuration name.
func NewPolicy(name string) (Policy, error) {
	switch name {
	case "null":
		return NullPolicy{}, nil
	case "transparency":
		return NewTransparencyPolicy(), nil
	case "", "state":
		return NewStatePolicy(), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownPolicy, name)
	}
}

// NullPolicy emits every renderable node in input order wrapped in a
// StartRender/StopRender pair. Nodes without a renderable are skipped.
type NullPolicy struct{}

// SortNodes implements Policy.
func (NullPolicy) SortNodes(out *render.RenderInstructions, nodes []render.CulledDetail, _ *render.Environment, halt *Signal) bool {
	for i := range nodes {
		if halt.Halted() {
			return false
		}
		if nodes[i].Renderable != nil {
			emitRender(out, nodes[i].Renderable, &nodes[i])
		}
	}
	return true
}

// renderDetail builds the operand for drawing r with the node's world
// transform. Spatialized renderables also get the inverse transform.
func renderDetail(r render.Renderable, n *render.CulledDetail) render.Detail {
	d := render.Detail{Renderable: r, Transform: n.Transform, HasTransform: true}
	if sp, ok := r.(render.SpatializedRenderable); ok && sp.IsSpatialized() {
		d.Inverse = n.Transform.Inv()
		d.HasInverse = true
	}
	return d
}

func emitRender(out *render.RenderInstructions, r render.Renderable, n *render.CulledDetail) {
	d := renderDetail(r, n)
	out.Append(render.StartRender, d)
	out.Append(render.StopRender, d)
}

func isTransparent(r render.Renderable) bool {
	t, ok := r.(render.TransparentRenderable)
	return ok && t.HasTransparency()
}

// depthEntry is a node with its eye distance, kept with its input index
// so that equal distances sort stably.
type depthEntry struct {
	node  *render.CulledDetail
	index int
	dist  float64
}

// backToFront orders by decreasing distance, then input order.
func backToFront(a, b depthEntry) int {
	if c := cmp.Compare(b.dist, a.dist); c != 0 {
		return c
	}
	return cmp.Compare(a.index, b.index)
}

// TransparencyPolicy emits opaque nodes in input order followed by a
// StartTransparent/StopTransparent block with the transparent nodes
// ordered back to front by centroid distance from the eye. Equal
// distances keep input order.
type TransparencyPolicy struct {
	transparent []depthEntry
}

// NewTransparencyPolicy creates a transparency sort policy.
func NewTransparencyPolicy() *TransparencyPolicy {
	return &TransparencyPolicy{}
}

// SortNodes implements Policy.
func (p *TransparencyPolicy) SortNodes(out *render.RenderInstructions, nodes []render.CulledDetail, env *render.Environment, halt *Signal) bool {
	p.transparent = p.transparent[:0]
	for i := range nodes {
		if halt.Halted() {
			return false
		}
		n := &nodes[i]
		if n.Renderable == nil {
			continue
		}
		if isTransparent(n.Renderable) {
			p.transparent = append(p.transparent, depthEntry{node: n, index: i, dist: env.DistanceTo(n.Centroid())})
			continue
		}
		emitRender(out, n.Renderable, n)
	}
	if len(p.transparent) == 0 {
		return true
	}

	slices.SortStableFunc(p.transparent, backToFront)
	out.AppendOp(render.StartTransparent)
	for _, e := range p.transparent {
		if halt.Halted() {
			return false
		}
		emitRender(out, e.node.Renderable, e.node)
	}
	out.AppendOp(render.StopTransparent)
	clear(p.transparent)
	return true
}
