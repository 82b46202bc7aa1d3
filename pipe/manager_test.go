// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package pipe

import (
	"context"
	"errors"
	"image/color"
	"sync/atomic"
	"testing"
	"time"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gogpu/scene3d/device"
	"github.com/gogpu/scene3d/pick"
	"github.com/gogpu/scene3d/render"
)

func TestParseMode(t *testing.T) {
	for name, want := range map[string]Mode{"": SingleThreaded, "single": SingleThreaded, "multi": MultiThreaded} {
		got, err := ParseMode(name)
		require.NoError(t, err, name)
		assert.Equal(t, want, got)
	}
	_, err := ParseMode("fibers")
	assert.ErrorIs(t, err, ErrInvalidMode)

	assert.Equal(t, "multi", MultiThreaded.String())
	assert.Equal(t, "Mode(7)", Mode(7).String())
}

func TestManagerUpdateWindow(t *testing.T) {
	root, shape := boxScene()
	m := NewManager()
	p, err := m.NewPipe(device.NewNull(), render.SinglePass(root, render.DefaultEnvironment(32, 32), 32, 32))
	require.NoError(t, err)

	var picked []pick.Result
	m.AddUpdateListener(UpdateFunc(func(ctx context.Context, frame int) error {
		assert.True(t, m.Gate().IsOpen())

		// Culling is refused while the graph may change.
		assert.ErrorIs(t, p.RenderFrame(ctx), pick.ErrInvalidTiming)

		res, err := m.Picker().Pick(root, pick.NewRayRequest(mgl64.Vec3{}, mgl64.Vec3{0, 0, -1}))
		picked = res
		return err
	}))

	require.NoError(t, m.RenderFrame(context.Background()))
	assert.False(t, m.Gate().IsOpen())
	assert.Equal(t, 1, p.Frames())
	assert.Equal(t, 1, m.Frame())

	require.Len(t, picked, 1)
	assert.Same(t, shape, picked[0].Target)
	assert.InDelta(t, 4, picked[0].Distance, 1e-9)

	_, err = m.Picker().Pick(root, pick.NewRayRequest(mgl64.Vec3{}, mgl64.Vec3{0, 0, -1}))
	assert.ErrorIs(t, err, pick.ErrInvalidTiming, "picking outside the update window")
}

func TestManagerListenerError(t *testing.T) {
	m := NewManager()
	p, err := m.NewPipe(device.NewNull(), boxFrame())
	require.NoError(t, err)

	boom := errors.New("boom")
	m.AddUpdateListener(UpdateFunc(func(context.Context, int) error { return boom }))

	assert.ErrorIs(t, m.RenderFrame(context.Background()), boom)
	assert.Zero(t, p.Frames())
	assert.False(t, m.Gate().IsOpen())
}

func TestManagerMultiThreaded(t *testing.T) {
	m := NewManager(WithMode(MultiThreaded), WithWorkers(2))
	defer m.Shutdown()
	assert.Equal(t, MultiThreaded, m.Mode())

	root, _ := boxScene()
	var devs []*device.Null
	for range 4 {
		dev := device.NewNull()
		devs = append(devs, dev)
		_, err := m.NewPipe(dev, render.SinglePass(root, render.DefaultEnvironment(32, 32), 32, 32))
		require.NoError(t, err)
	}

	for range 3 {
		require.NoError(t, m.RenderFrame(context.Background()))
	}
	for _, dev := range devs {
		assert.Equal(t, 3, dev.Frames())
	}
}

func TestManagerMultiThreadedSharedTarget(t *testing.T) {
	m := NewManager(WithMode(MultiThreaded), WithWorkers(2))
	defer m.Shutdown()

	root, _ := boxScene()
	target := &render.OffscreenTarget{Name: "mirror", Width: 16, Height: 16, Buffer: render.DefaultBufferSetup()}
	env := render.DefaultEnvironment(32, 32)
	frameFor := func(ctx int) *render.Frame {
		return &render.Frame{Context: ctx, Viewports: []render.Viewport{{
			Width: 32, Height: 32,
			Layers: []render.Layer{{Passes: []render.Pass{
				{Root: root, Env: env, Target: target},
				{Root: root, Env: env},
			}}},
		}}}
	}

	var devs []*device.Raster
	var pipes []*Pipe
	for ctx := range 2 {
		dev := device.NewRaster(32, 32)
		p, err := m.NewPipe(dev, frameFor(ctx))
		require.NoError(t, err)
		devs = append(devs, dev)
		pipes = append(pipes, p)
	}

	for range 50 {
		require.NoError(t, m.RenderFrame(context.Background()))
	}

	aliases := 0
	for i, p := range pipes {
		offs := p.Instructions().Offscreens
		require.Len(t, offs, 1)
		if offs[0].IsAlias() {
			aliases++
		}
		assert.NoError(t, render.Validate(offs[0].Ops()))
		assert.Same(t, target, offs[0].Resolve().Target)
		img := devs[i].Offscreen(target)
		require.NotNil(t, img)
		assert.Equal(t, color.RGBA{255, 0, 0, 255}, img.RGBAAt(9, 9), "pipe %d offscreen", i)
	}
	assert.Equal(t, 1, aliases)
	assert.Equal(t, 1, m.SharedTargets().Len())
}

func TestManagerJoinsPipeErrors(t *testing.T) {
	m := NewManager()
	good, err := m.NewPipe(device.NewNull(), boxFrame())
	require.NoError(t, err)
	bad, err := m.NewPipe(device.NewNull(), nil)
	require.NoError(t, err)

	err = m.RenderFrame(context.Background())
	assert.ErrorIs(t, err, ErrNoFrame)
	assert.Equal(t, 1, good.Frames(), "a failing pipe does not stop the others")

	assert.True(t, m.RemovePipe(bad))
	assert.False(t, m.RemovePipe(bad))
	assert.Len(t, m.Pipes(), 1)
	assert.NoError(t, m.RenderFrame(context.Background()))
}

func TestManagerHalt(t *testing.T) {
	m := NewManager()
	p, err := m.NewPipe(device.NewNull(), boxFrame())
	require.NoError(t, err)

	m.Halt()
	assert.True(t, m.Halted())
	assert.ErrorIs(t, m.RenderFrame(context.Background()), ErrHalted)

	late, err := m.NewPipe(device.NewNull(), boxFrame())
	require.NoError(t, err)
	assert.ErrorIs(t, late.RenderFrame(context.Background()), ErrHalted)

	m.Resume()
	require.NoError(t, m.RenderFrame(context.Background()))
	assert.Equal(t, 1, p.Frames())
	assert.Equal(t, 1, late.Frames())
}

func TestManagerRun(t *testing.T) {
	m := NewManager(WithFrameRate(1000))
	p, err := m.NewPipe(device.NewNull(), boxFrame())
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	m.AddUpdateListener(UpdateFunc(func(_ context.Context, frame int) error {
		if frame == 4 {
			cancel()
		}
		return nil
	}))

	err = m.Run(ctx)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 5, m.Frame())
	assert.GreaterOrEqual(t, p.Frames(), 4)
}

func TestManagerShutdown(t *testing.T) {
	m := NewManager(WithMode(MultiThreaded))
	dev := device.NewNull()
	_, err := m.NewPipe(dev, boxFrame())
	require.NoError(t, err)

	var frames atomic.Int32
	m.AddUpdateListener(UpdateFunc(func(context.Context, int) error {
		frames.Add(1)
		return nil
	}))

	done := make(chan error, 1)
	go func() { done <- m.Run(context.Background()) }()

	require.Eventually(t, func() bool { return frames.Load() > 2 }, time.Second, time.Millisecond)
	require.NoError(t, m.Shutdown())

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("Run did not return after Shutdown")
	}

	assert.ErrorIs(t, m.RenderFrame(context.Background()), ErrShutdown)
	assert.ErrorIs(t, m.Run(context.Background()), ErrShutdown)
	assert.False(t, dev.Draw(render.NewRenderInstructions(), nil), "device closed")
	assert.NoError(t, m.Shutdown())
}
