// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package cull

import (
	"sync"
	"testing"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gogpu/scene3d/bounds"
	"github.com/gogpu/scene3d/pick"
	"github.com/gogpu/scene3d/render"
)

type drawable struct{ name string }

func (*drawable) Render(render.DrawContext) {}

type effect struct{ id uint64 }

func (*effect) Render(render.DrawContext)     {}
func (*effect) PostRender(render.DrawContext) {}
func (e *effect) EffectID() uint64            { return e.id }

type leaf struct {
	vol bounds.Volume
	r   render.Renderable
}

func (l *leaf) CullableBounds() bounds.Volume { return l.vol }
func (l *leaf) Renderable() render.Renderable { return l.r }

type group struct {
	children []render.Cullable
	num      int
	lights   []render.Effect
	fog      render.Effect
	excluded bool
}

func newGroup(children ...render.Cullable) *group {
	return &group{children: children, num: len(children)}
}

func (g *group) CullableBounds() bounds.Volume       { return bounds.Infinite{} }
func (g *group) NumCullableChildren() int            { return g.num }
func (g *group) CullableChildren() []render.Cullable { return g.children }
func (g *group) Lights() []render.Effect             { return g.lights }
func (g *group) ClipPlanes() []render.Effect         { return nil }
func (g *group) Fog() render.Effect                  { return g.fog }
func (g *group) IsExcluded() bool                    { return g.excluded }

type xform struct {
	m     mgl64.Mat4
	child render.Cullable
}

func (x *xform) CullableBounds() bounds.Volume  { return bounds.Infinite{} }
func (x *xform) Transform() mgl64.Mat4          { return x.m }
func (x *xform) CullableChild() render.Cullable { return x.child }

type custom struct {
	children []render.Cullable
	local    mgl64.Mat4

	mu    sync.Mutex
	calls int
	seen  mgl64.Mat4
}

func (c *custom) CullableBounds() bounds.Volume { return bounds.Void{} }

func (c *custom) CullChildren(out *render.CullInstructions, world, _ mgl64.Mat4, _ bounds.Frustum, _ float64) {
	c.mu.Lock()
	c.calls++
	c.seen = world
	c.mu.Unlock()
	for _, ch := range c.children {
		out.Add(ch)
	}
	out.SetTransform(c.local)
}

func sphereAt(x, y, z float64) bounds.Volume {
	return bounds.Sphere{C: mgl64.Vec3{x, y, z}, R: 0.5}
}

func testEnv() *render.Environment {
	env := render.DefaultEnvironment(100, 100)
	return &env
}

func TestCullEmptyAndNilRoot(t *testing.T) {
	s := NewStage()
	out := NewOutput(4)
	out.add(render.CulledDetail{})

	require.NoError(t, s.Cull(out, nil, testEnv()))
	assert.Equal(t, 0, out.NumNodes)

	require.NoError(t, s.Cull(out, newGroup(), testEnv()))
	assert.Equal(t, 0, out.NumNodes)
}

func TestCullSkipsHolesAndMissingRenderables(t *testing.T) {
	a := &drawable{"a"}
	root := newGroup(
		&leaf{vol: sphereAt(0, 0, -5), r: a},
		nil,
		&leaf{vol: sphereAt(0, 0, -5)},
		&group{num: -1, children: []render.Cullable{&leaf{vol: sphereAt(0, 0, -5), r: &drawable{"hidden"}}}},
		&group{num: 0, children: make([]render.Cullable, 3)},
	)

	out := NewOutput(1)
	require.NoError(t, NewStage().Cull(out, root, testEnv()))
	require.Equal(t, 1, out.NumNodes)
	assert.Same(t, a, out.Nodes[0].Renderable)
	assert.Equal(t, 1, out.Nodes[0].Depth)
}

func TestCullNumChildrenLimitsIteration(t *testing.T) {
	g := newGroup(
		&leaf{vol: sphereAt(0, 0, -5), r: &drawable{"first"}},
		&leaf{vol: sphereAt(0, 0, -5), r: &drawable{"beyond count"}},
	)
	g.num = 1
	out := NewOutput(0)
	require.NoError(t, NewStage().Cull(out, g, testEnv()))
	assert.Equal(t, 1, out.NumNodes)
}

func TestCullAccumulatesTransforms(t *testing.T) {
	r := &drawable{"r"}
	root := &xform{
		m: mgl64.Translate3D(1, 0, 0),
		child: &xform{
			m:     mgl64.Translate3D(0, 2, -10),
			child: &leaf{vol: bounds.Sphere{R: 1}, r: r},
		},
	}
	out := NewOutput(0)
	require.NoError(t, NewStage().Cull(out, root, testEnv()))
	require.Equal(t, 1, out.NumNodes)

	d := out.Nodes[0]
	assert.True(t, d.Transform.ApproxEqual(mgl64.Translate3D(1, 2, -10)))
	assert.True(t, d.Centroid().ApproxEqual(mgl64.Vec3{1, 2, -10}))
	assert.Equal(t, 2, d.Depth)
}

func TestCullFrustum(t *testing.T) {
	front := &drawable{"front"}
	behind := &drawable{"behind"}
	root := newGroup(
		&leaf{vol: sphereAt(0, 0, -5), r: front},
		&leaf{vol: sphereAt(0, 0, 5), r: behind},
		&leaf{vol: nil, r: &drawable{"unbounded"}},
	)

	out := NewOutput(0)
	require.NoError(t, NewStage().Cull(out, root, testEnv()))
	assert.Equal(t, 2, out.NumNodes)
	assert.Same(t, front, out.Nodes[0].Renderable)

	require.NoError(t, NewStage(WithFrustumCulling(false)).Cull(out, root, testEnv()))
	assert.Equal(t, 3, out.NumNodes)
}

func TestCullCustomNodeNotPretested(t *testing.T) {
	r := &drawable{"child"}
	c := &custom{
		children: []render.Cullable{nil, &leaf{vol: sphereAt(0, 0, 0), r: r}},
		local:    mgl64.Translate3D(0, 0, -5),
	}
	root := &xform{m: mgl64.Translate3D(1, 0, 0), child: c}

	out := NewOutput(0)
	require.NoError(t, NewStage().Cull(out, root, testEnv()))
	assert.Equal(t, 1, c.calls, "void bounds must not stop a custom node")
	assert.True(t, c.seen.ApproxEqual(mgl64.Translate3D(1, 0, 0)))
	require.Equal(t, 1, out.NumNodes)
	assert.True(t, out.Nodes[0].Transform.ApproxEqual(mgl64.Translate3D(1, 0, -5)))
}

func TestCullEffectScopes(t *testing.T) {
	light := &effect{1}
	fog := &effect{2}
	lit := &drawable{"lit"}
	dark := &drawable{"dark"}

	scoped := newGroup(&leaf{vol: sphereAt(0, 0, -5), r: lit})
	scoped.lights = []render.Effect{light, nil}
	scoped.fog = fog
	root := newGroup(scoped, &leaf{vol: sphereAt(0, 0, -5), r: dark})

	out := NewOutput(0)
	require.NoError(t, NewStage().Cull(out, root, testEnv()))
	require.Equal(t, 2, out.NumNodes)

	assert.Same(t, lit, out.Nodes[0].Renderable)
	require.Len(t, out.Nodes[0].Lights, 1)
	assert.Same(t, light, out.Nodes[0].Lights[0].Effect)
	assert.Equal(t, fog, out.Nodes[0].Fog)

	assert.Same(t, dark, out.Nodes[1].Renderable)
	assert.Empty(t, out.Nodes[1].Lights)
	assert.Nil(t, out.Nodes[1].Fog)
}

func TestCullTimingAndExclusion(t *testing.T) {
	var gate pick.Gate
	s := NewStage()
	s.SetGate(&gate)

	gate.Open()
	err := s.Cull(NewOutput(0), newGroup(), testEnv())
	assert.ErrorIs(t, err, pick.ErrInvalidTiming)

	gate.Close()
	root := newGroup()
	root.excluded = true
	err = s.Cull(NewOutput(0), root, testEnv())
	assert.ErrorIs(t, err, ErrNotTraversable)
	assert.NotErrorIs(t, err, pick.ErrInvalidTiming)
}

func TestCullMaxDepth(t *testing.T) {
	var n render.Cullable = &leaf{vol: sphereAt(0, 0, -5), r: &drawable{"deep"}}
	for range 5 {
		n = &xform{m: mgl64.Ident4(), child: n}
	}
	out := NewOutput(0)
	require.NoError(t, NewStage(WithMaxDepth(3)).Cull(out, n, testEnv()))
	assert.Equal(t, 0, out.NumNodes)

	require.NoError(t, NewStage(WithMaxDepth(5)).Cull(out, n, testEnv()))
	assert.Equal(t, 1, out.NumNodes)
}

func TestCullFrame(t *testing.T) {
	a := newGroup(&leaf{vol: sphereAt(0, 0, -5), r: &drawable{"a"}})
	b := newGroup(
		&leaf{vol: sphereAt(0, 0, -5), r: &drawable{"b1"}},
		&leaf{vol: sphereAt(0, 0, -6), r: &drawable{"b2"}},
	)
	env := render.DefaultEnvironment(10, 10)
	frame := &render.Frame{Viewports: []render.Viewport{
		{Layers: []render.Layer{{Passes: []render.Pass{{Root: a, Env: env}, {Root: b, Env: env}}}}},
		{Layers: []render.Layer{{Passes: []render.Pass{{Root: b, Env: env}}}}},
	}}

	out := NewFrameOutput()
	require.NoError(t, NewStage().CullFrame(out, frame))
	require.Len(t, out.Passes, 3)
	assert.Equal(t, 1, out.Passes[0].NumNodes)
	assert.Equal(t, 2, out.Passes[1].NumNodes)
	assert.Equal(t, 2, out.Passes[2].NumNodes)
	assert.Equal(t, 5, out.NumNodes())

	out.Reset()
	assert.Equal(t, 0, out.NumNodes())
}

func TestCullFrameFewerPasses(t *testing.T) {
	b := newGroup(
		&leaf{vol: sphereAt(0, 0, -5), r: &drawable{"b1"}},
		&leaf{vol: sphereAt(0, 0, -6), r: &drawable{"b2"}},
	)
	env := render.DefaultEnvironment(10, 10)
	pass := render.Pass{Root: b, Env: env}
	frame := &render.Frame{Viewports: []render.Viewport{
		{Layers: []render.Layer{{Passes: []render.Pass{pass, pass, pass}}}},
	}}

	s := NewStage()
	out := NewFrameOutput()
	require.NoError(t, s.CullFrame(out, frame))
	assert.Equal(t, 6, out.NumNodes())
	third := out.Passes[2]

	frame.Viewports[0].Layers[0].Passes = []render.Pass{pass}
	require.NoError(t, s.CullFrame(out, frame))
	require.Len(t, out.Passes, 1)
	assert.Equal(t, 2, out.NumNodes())
	assert.Zero(t, third.NumNodes, "dropped passes are cleared")

	frame.Viewports[0].Layers[0].Passes = []render.Pass{pass, pass, pass}
	require.NoError(t, s.CullFrame(out, frame))
	require.Len(t, out.Passes, 3)
	assert.Same(t, third, out.Passes[2], "outputs are reused")
	assert.Equal(t, 6, out.NumNodes())
}

func TestCullNilEnvironment(t *testing.T) {
	in := &drawable{"in"}
	root := newGroup(
		&leaf{vol: sphereAt(0, 0, 0), r: in},
		&leaf{vol: sphereAt(5, 0, 0), r: &drawable{"out"}},
	)
	out := NewOutput(0)
	require.NoError(t, NewStage().Cull(out, root, nil))
	require.Equal(t, 1, out.NumNodes)
	assert.Same(t, in, out.Nodes[0].Renderable)
}

func TestCullConcurrentStagesShareGraph(t *testing.T) {
	var children []render.Cullable
	for i := range 50 {
		children = append(children, &xform{
			m:     mgl64.Translate3D(float64(i%5), 0, -float64(i%7)-2),
			child: &leaf{vol: bounds.Sphere{R: 0.5}, r: &drawable{}},
		})
	}
	root := newGroup(children...)

	want := NewOutput(0)
	require.NoError(t, NewStage().Cull(want, root, testEnv()))

	var wg sync.WaitGroup
	for range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			out := NewOutput(0)
			s := NewStage()
			for range 10 {
				if assert.NoError(t, s.Cull(out, root, testEnv())) {
					assert.Equal(t, want.Valid(), out.Valid())
				}
			}
		}()
	}
	wg.Wait()
}

func TestOutputGrowth(t *testing.T) {
	out := NewOutput(1)
	for range 40 {
		out.add(render.CulledDetail{Depth: 1})
	}
	assert.Equal(t, 40, out.NumNodes)
	out.EnsureCapacity(10)
	assert.GreaterOrEqual(t, len(out.Nodes), 40)
	out.Reset()
	assert.Empty(t, out.Valid())
}
