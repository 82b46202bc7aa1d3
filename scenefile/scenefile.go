// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package scenefile loads YAML scene descriptions into a node graph and
// the frame composition that renders it.
//
// A minimal file declares a root and a camera:
//
//	width: 320
//	height: 240
//	camera:
//	  eye: [0, 1, 4]
//	  target: [0, 0, 0]
//	scenes:
//	  main:
//	    type: group
//	    lights:
//	      - direction: [0, -1, -1]
//	    children:
//	      - type: box
//	        size: [1, 1, 1]
//	        material: "#ff0000"
//
// Without a viewports section the frame is a single pass drawing the
// scene named "main" over the whole surface.
package scenefile

import (
	"bytes"
	"errors"
	"fmt"
	"os"

	"github.com/go-gl/mathgl/mgl64"
	"gopkg.in/yaml.v3"

	"github.com/gogpu/scene3d/node"
	"github.com/gogpu/scene3d/render"
)

// ErrInvalidScene is wrapped by every error about the content of a
// scene file.
var ErrInvalidScene = errors.New("scenefile: invalid scene")

// MainScene is the scene drawn when no viewports are declared.
const MainScene = "main"

// Vec3 is a three component vector.
type Vec3 [3]float64

func (v Vec3) mgl() mgl64.Vec3 { return mgl64.Vec3(v) }

// File is the decoded form of a scene file.
type File struct {
	Width  int `yaml:"width"`
	Height int `yaml:"height"`

	// Camera is the default camera of every pass.
	Camera *Camera `yaml:"camera"`

	// Fog is the default environment fog of every pass.
	Fog *FogSpec `yaml:"fog"`

	Scenes    map[string]*NodeSpec `yaml:"scenes"`
	Targets   []TargetSpec         `yaml:"targets"`
	Viewports []ViewportSpec       `yaml:"viewports"`
}

// Camera describes a view and perspective projection.
type Camera struct {
	Eye    Vec3    `yaml:"eye"`
	Target *Vec3   `yaml:"target"`
	Up     *Vec3   `yaml:"up"`
	Fov    float64 `yaml:"fov"`
	Near   float64 `yaml:"near"`
	Far    float64 `yaml:"far"`
}

// TargetSpec declares an offscreen texture.
type TargetSpec struct {
	Name   string `yaml:"name"`
	Width  int    `yaml:"width"`
	Height int    `yaml:"height"`
}

// ViewportSpec is one rectangle of the output surface.
type ViewportSpec struct {
	X      int         `yaml:"x"`
	Y      int         `yaml:"y"`
	Width  int         `yaml:"width"`
	Height int         `yaml:"height"`
	Layers []LayerSpec `yaml:"layers"`
}

// LayerSpec is a stack of passes.
type LayerSpec struct {
	ID     int        `yaml:"id"`
	Passes []PassSpec `yaml:"passes"`
}

// PassSpec renders one scene. Clear is omitted to draw over the content
// below.
type PassSpec struct {
	Scene  string   `yaml:"scene"`
	Camera *Camera  `yaml:"camera"`
	Fog    *FogSpec `yaml:"fog"`
	Clear  *Color   `yaml:"clear"`
	Target string   `yaml:"target"`
}

// Scene is a loaded scene file.
type Scene struct {
	Width, Height int

	// Roots holds the built graph of every entry under scenes.
	Roots map[string]node.Node

	// Nodes maps node names to nodes. A named node with a transform is
	// registered as its TransformGroup.
	Nodes map[string]node.Node

	Targets map[string]*render.OffscreenTarget
	Frame   *render.Frame
}

// Load reads a scene file.
func Load(path string) (*Scene, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("scenefile: %w", err)
	}
	s, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return s, nil
}

// Parse decodes and builds a scene. Unknown keys are rejected.
func Parse(data []byte) (*Scene, error) {
	var f File
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&f); err != nil {
		return nil, fmt.Errorf("scenefile: %w", err)
	}
	return f.Build()
}

// Build turns the decoded file into a node graph and frame.
func (f *File) Build() (*Scene, error) {
	s := &Scene{
		Width:   f.Width,
		Height:  f.Height,
		Roots:   make(map[string]node.Node, len(f.Scenes)),
		Nodes:   make(map[string]node.Node),
		Targets: make(map[string]*render.OffscreenTarget, len(f.Targets)),
	}
	if s.Width <= 0 || s.Height <= 0 {
		return nil, fmt.Errorf("%w: surface size %dx%d", ErrInvalidScene, s.Width, s.Height)
	}
	if len(f.Scenes) == 0 {
		return nil, fmt.Errorf("%w: no scenes", ErrInvalidScene)
	}

	b := builder{names: s.Nodes}
	for name, spec := range f.Scenes {
		root, err := b.build(spec, name)
		if err != nil {
			return nil, err
		}
		if g, ok := root.(interface{ UpdateBounds() }); ok {
			g.UpdateBounds()
		}
		s.Roots[name] = root
	}

	for _, t := range f.Targets {
		if t.Name == "" || t.Width <= 0 || t.Height <= 0 {
			return nil, fmt.Errorf("%w: offscreen target %q %dx%d", ErrInvalidScene, t.Name, t.Width, t.Height)
		}
		if _, dup := s.Targets[t.Name]; dup {
			return nil, fmt.Errorf("%w: duplicate offscreen target %q", ErrInvalidScene, t.Name)
		}
		s.Targets[t.Name] = &render.OffscreenTarget{
			Name: t.Name, Width: t.Width, Height: t.Height,
			Buffer: render.DefaultBufferSetup(),
		}
	}

	viewports := f.Viewports
	if len(viewports) == 0 {
		viewports = []ViewportSpec{{
			Width: f.Width, Height: f.Height,
			Layers: []LayerSpec{{Passes: []PassSpec{{Scene: MainScene, Clear: &Color{A: 255}}}}},
		}}
	}

	s.Frame = &render.Frame{}
	for i, vs := range viewports {
		vp := render.Viewport{X: vs.X, Y: vs.Y, Width: vs.Width, Height: vs.Height}
		if vp.Width <= 0 || vp.Height <= 0 {
			return nil, fmt.Errorf("%w: viewport %d is %dx%d", ErrInvalidScene, i, vp.Width, vp.Height)
		}
		for _, ls := range vs.Layers {
			layer := render.Layer{ID: ls.ID}
			for _, ps := range ls.Passes {
				p, err := s.pass(f, ps, vp)
				if err != nil {
					return nil, fmt.Errorf("viewport %d layer %d: %w", i, ls.ID, err)
				}
				layer.Passes = append(layer.Passes, p)
			}
			vp.Layers = append(vp.Layers, layer)
		}
		s.Frame.Viewports = append(s.Frame.Viewports, vp)
	}
	return s, nil
}

func (s *Scene) pass(f *File, ps PassSpec, vp render.Viewport) (render.Pass, error) {
	root, ok := s.Roots[ps.Scene]
	if !ok {
		return render.Pass{}, fmt.Errorf("%w: unknown scene %q", ErrInvalidScene, ps.Scene)
	}

	w, h := vp.Width, vp.Height
	var target *render.OffscreenTarget
	if ps.Target != "" {
		if target, ok = s.Targets[ps.Target]; !ok {
			return render.Pass{}, fmt.Errorf("%w: unknown offscreen target %q", ErrInvalidScene, ps.Target)
		}
		w, h = target.Width, target.Height
	}

	cam := ps.Camera
	if cam == nil {
		cam = f.Camera
	}
	env, err := cam.environment(w, h)
	if err != nil {
		return render.Pass{}, err
	}
	fog := ps.Fog
	if fog == nil {
		fog = f.Fog
	}
	if fog != nil {
		env.Fog = fog.build()
	}

	buf := render.DefaultBufferSetup()
	p := render.Pass{Root: root, Env: env, Buffer: &buf, Target: target}
	if ps.Clear != nil {
		c := render.DefaultClearState()
		c.Color.R = float64(ps.Clear.R) / 255
		c.Color.G = float64(ps.Clear.G) / 255
		c.Color.B = float64(ps.Clear.B) / 255
		c.Color.A = float64(ps.Clear.A) / 255
		p.Clear = &c
	}
	return p, nil
}

// environment returns the view for a w by h surface. A nil camera is
// the default environment.
func (c *Camera) environment(w, h int) (render.Environment, error) {
	env := render.DefaultEnvironment(w, h)
	if c == nil {
		return env, nil
	}

	target := c.Eye.mgl().Add(mgl64.Vec3{0, 0, -1})
	if c.Target != nil {
		target = c.Target.mgl()
	}
	up := mgl64.Vec3{0, 1, 0}
	if c.Up != nil {
		up = c.Up.mgl()
	}
	if target.Sub(c.Eye.mgl()).Len() == 0 || up.Len() == 0 {
		return env, fmt.Errorf("%w: degenerate camera", ErrInvalidScene)
	}

	fov, near, far := c.Fov, c.Near, c.Far
	if fov == 0 {
		fov = 45
	}
	if near == 0 {
		near = 0.1
	}
	if far == 0 {
		far = 1000
	}
	if fov <= 0 || fov >= 180 || near <= 0 || far <= near {
		return env, fmt.Errorf("%w: projection fov=%g near=%g far=%g", ErrInvalidScene, fov, near, far)
	}

	fovy := mgl64.DegToRad(fov)
	env.View = mgl64.LookAtV(c.Eye.mgl(), target, up)
	env.Projection = mgl64.Perspective(fovy, float64(w)/float64(h), near, far)
	env.AngularResolution = fovy / float64(h)
	return env, nil
}

// SetBufferSetup replaces the buffer setup of every pass.
func (s *Scene) SetBufferSetup(b render.BufferSetupData) {
	for i := range s.Frame.Viewports {
		vp := &s.Frame.Viewports[i]
		for j := range vp.Layers {
			for k := range vp.Layers[j].Passes {
				buf := b
				vp.Layers[j].Passes[k].Buffer = &buf
			}
		}
	}
	for _, t := range s.Targets {
		t.Buffer = b
	}
}

// Node returns the named node.
func (s *Scene) Node(name string) (node.Node, bool) {
	n, ok := s.Nodes[name]
	return n, ok
}
