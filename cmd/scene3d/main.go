// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Command scene3d renders a YAML scene description through the pipeline.
//
// Usage:
//
//	scene3d -scene demo.yaml [-config scene3d.toml] [-device raster] [-frames 1]
//	        [-out frame.png] [-spin name] [-profile] [-watch] [-v]
//
// With the raster device the last frame is written as PNG. The trace
// device prints the sorted instruction stream of every frame. With -watch
// the scene is reloaded and re-rendered whenever the file changes.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"image/png"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"sync/atomic"

	"github.com/fsnotify/fsnotify"
	"github.com/go-gl/mathgl/mgl64"

	"github.com/gogpu/scene3d"
	"github.com/gogpu/scene3d/config"
	"github.com/gogpu/scene3d/device"
	"github.com/gogpu/scene3d/node"
	"github.com/gogpu/scene3d/pipe"
	"github.com/gogpu/scene3d/scenefile"
)

// spinStep is the rotation per frame of the -spin node, in radians.
const spinStep = 0.05

type options struct {
	config  string
	scene   string
	device  string
	frames  int
	out     string
	spin    string
	profile bool
	watch   bool
	verbose bool
}

func main() {
	var o options
	flag.StringVar(&o.config, "config", "", "TOML configuration file")
	flag.StringVar(&o.scene, "scene", "", "YAML scene file (required)")
	flag.StringVar(&o.device, "device", "", "output device, overrides the configuration")
	flag.IntVar(&o.frames, "frames", 0, "frames to render, overrides the configuration")
	flag.StringVar(&o.out, "out", "frame.png", "PNG output for the raster device")
	flag.StringVar(&o.spin, "spin", "", "name of a transformed node to rotate every frame")
	flag.BoolVar(&o.profile, "profile", false, "print per-frame stage timings")
	flag.BoolVar(&o.watch, "watch", false, "re-render when the scene file changes")
	flag.BoolVar(&o.verbose, "v", false, "debug logging")
	flag.Parse()

	if err := run(o, os.Stdout); err != nil {
		fmt.Fprintln(os.Stderr, "scene3d:", err)
		os.Exit(1)
	}
}

func run(o options, stdout io.Writer) error {
	if o.scene == "" {
		return errors.New("missing -scene")
	}
	level := slog.LevelInfo
	if o.verbose {
		level = slog.LevelDebug
	}
	scene3d.SetLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))

	cfg := config.Default()
	if o.config != "" {
		var err error
		if cfg, err = config.Load(o.config); err != nil {
			return err
		}
	}
	if o.device != "" {
		cfg.Device = o.device
	}
	if o.frames > 0 {
		cfg.Frames = o.frames
	}

	scene, err := scenefile.Load(o.scene)
	if err != nil {
		return err
	}
	cfg.Width, cfg.Height = scene.Width, scene.Height
	if err := cfg.Validate(); err != nil {
		return err
	}
	scene.SetBufferSetup(cfg.BufferSetup())

	dev, err := config.NewRegistry().New(cfg, stdout)
	if err != nil {
		return err
	}
	mgr := pipe.NewManager(cfg.ManagerOptions()...)
	defer func() {
		if err := mgr.Shutdown(); err != nil {
			scene3d.Logger().Warn("scene3d: shutdown", "err", err)
		}
	}()

	opts, err := cfg.PipeOptions()
	if err != nil {
		return err
	}
	p, err := mgr.NewPipe(dev, scene.Frame, opts...)
	if err != nil {
		return err
	}

	r := &renderer{opts: o, cfg: cfg, mgr: mgr, pipe: p, stdout: stdout}
	r.scene.Store(scene)
	mgr.AddUpdateListener(r)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := r.frames(ctx, cfg.Frames); err != nil {
		return err
	}
	if !o.watch {
		return nil
	}
	return r.watch(ctx)
}

// renderer drives frames and swaps in reloaded scenes during the update
// window.
type renderer struct {
	opts   options
	cfg    *config.Config
	mgr    *pipe.Manager
	pipe   *pipe.Pipe
	stdout io.Writer

	scene   atomic.Pointer[scenefile.Scene]
	pending atomic.Pointer[scenefile.Scene]

	spin     *node.TransformGroup
	spinBase mgl64.Mat4
}

// Update implements pipe.UpdateListener.
func (r *renderer) Update(_ context.Context, frame int) error {
	if s := r.pending.Swap(nil); s != nil {
		r.scene.Store(s)
		r.pipe.SetFrame(s.Frame)
		r.spin = nil
	}
	if r.opts.spin == "" {
		return nil
	}
	if r.spin == nil {
		n, ok := r.scene.Load().Node(r.opts.spin)
		if !ok {
			return fmt.Errorf("no node named %q", r.opts.spin)
		}
		tg, ok := n.(*node.TransformGroup)
		if !ok {
			return fmt.Errorf("node %q has no transform", r.opts.spin)
		}
		r.spin, r.spinBase = tg, tg.Transform()
	}
	r.spin.SetTransform(r.spinBase.Mul4(mgl64.HomogRotate3DY(float64(frame) * spinStep)))
	return nil
}

func (r *renderer) frames(ctx context.Context, n int) error {
	for range max(n, 1) {
		if err := r.mgr.RenderFrame(ctx); err != nil {
			return err
		}
		if r.opts.profile {
			prof := r.pipe.Profile()
			fmt.Fprintf(r.stdout, "frame %d: %s\n", r.pipe.Frames()-1, prof.String())
		}
	}
	return r.save()
}

// save writes the raster image. Other devices have nothing to save.
func (r *renderer) save() error {
	ras, ok := r.pipe.Device().(*device.Raster)
	if !ok || r.opts.out == "" {
		return nil
	}
	f, err := os.Create(r.opts.out)
	if err != nil {
		return err
	}
	if err := png.Encode(f, ras.Image()); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	scene3d.Logger().Info("scene3d: wrote image", "path", r.opts.out,
		"width", ras.Surface().Width(), "height", ras.Surface().Height())
	return nil
}

// watch re-renders on every change of the scene file until ctx ends.
// The directory is watched so editors that replace the file are seen.
func (r *renderer) watch(ctx context.Context) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer w.Close()

	path, err := filepath.Abs(r.opts.scene)
	if err != nil {
		return err
	}
	if err := w.Add(filepath.Dir(path)); err != nil {
		return err
	}
	scene3d.Logger().Info("scene3d: watching", "path", path)

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-w.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != path || !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}
			r.reload(ctx)
		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			scene3d.Logger().Warn("scene3d: watcher", "err", err)
		}
	}
}

// reload keeps the previous scene when the new file does not load.
func (r *renderer) reload(ctx context.Context) {
	s, err := scenefile.Load(r.opts.scene)
	if err != nil {
		scene3d.Logger().Warn("scene3d: reload failed", "err", err)
		return
	}
	cur := r.scene.Load()
	if s.Width != cur.Width || s.Height != cur.Height {
		scene3d.Logger().Warn("scene3d: surface size changes need a restart",
			"have", fmt.Sprintf("%dx%d", cur.Width, cur.Height),
			"want", fmt.Sprintf("%dx%d", s.Width, s.Height))
		return
	}
	s.SetBufferSetup(r.cfg.BufferSetup())
	r.pending.Store(s)
	if err := r.frames(ctx, 1); err != nil {
		scene3d.Logger().Warn("scene3d: render failed", "err", err)
	}
}
