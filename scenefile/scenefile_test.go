// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package scenefile

import (
	"image/color"
	"os"
	"path/filepath"
	"testing"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gogpu/scene3d/bounds"
	"github.com/gogpu/scene3d/cull"
	"github.com/gogpu/scene3d/node"
	"github.com/gogpu/scene3d/render"
)

const demo = `
width: 64
height: 48
camera:
  eye: [0, 0, 5]
  target: [0, 0, 0]
scenes:
  main:
    type: group
    lights:
      - direction: [0, 0, -1]
        color: "#ffffff"
    fog:
      color: [128, 128, 128]
      near: 10
      far: 50
    children:
      - type: box
        name: cube
        size: [1, 1, 1]
        rotate: [0, 45, 0]
        material: "#ff000080"
        shader: {name: flat}
        args: {shininess: 8}
        shadow: true
      - type: switch
        name: picker
        select: 1
        children:
          - type: box
            size: [1, 1, 1]
          - type: lod
            translate: [2, 0, 0]
            levels:
              - {size: [1, 1, 1], min_pixels: 20}
              - {size: [2, 2, 2], min_pixels: 2}
      - type: billboard
        children:
          - type: triangles
            vertices: [[0, 0, 0], [1, 0, 0], [0, 1, 0]]
      - type: sound
        gain: 0.5
        ref_dist: 1
        max_dist: 20
`

func TestParseDemo(t *testing.T) {
	s, err := Parse([]byte(demo))
	require.NoError(t, err)
	assert.Equal(t, 64, s.Width)

	root, ok := s.Roots[MainScene].(*node.Group)
	require.True(t, ok)
	assert.Len(t, root.Children(), 4)
	assert.Len(t, root.Lights(), 1)
	assert.NotNil(t, root.Fog())
	assert.NotNil(t, root.CullableBounds(), "bounds are computed on load")

	cube, ok := s.Node("cube")
	require.True(t, ok)
	tg, ok := cube.(*node.TransformGroup)
	require.True(t, ok, "a rotated leaf is wrapped in a transform group")
	assert.InDelta(t, 1, tg.Transform().Mul4(tg.InverseTransform()).Det(), 1e-9)

	shape, ok := tg.Children()[0].(*node.Shape)
	require.True(t, ok)
	assert.Equal(t, "cube", shape.Name())
	assert.True(t, shape.CastsShadow())
	assert.True(t, shape.HasTransparency(), "half transparent material")
	require.Len(t, shape.Components(), 3)
	assert.IsType(t, &node.ShaderProgram{}, shape.Components()[0])
	assert.IsType(t, &node.ShaderArguments{}, shape.Components()[1])

	sw, ok := s.Nodes["picker"].(*node.Switch)
	require.True(t, ok)
	assert.Equal(t, 1, sw.Selected())

	require.Len(t, s.Frame.Viewports, 1)
	vp := s.Frame.Viewports[0]
	assert.Equal(t, 64, vp.Width)
	require.Len(t, vp.Layers, 1)
	require.Len(t, vp.Layers[0].Passes, 1)
	pass := vp.Layers[0].Passes[0]
	require.NotNil(t, pass.Clear)
	assert.True(t, pass.Clear.ClearColor)
	assert.InDelta(t, 5, pass.Env.Eye().Z(), 1e-9)

	fo := cull.NewFrameOutput()
	require.NoError(t, cull.NewStage().CullFrame(fo, s.Frame))
	assert.Positive(t, fo.NumNodes())
}

func TestViewportsAndTargets(t *testing.T) {
	s, err := Parse([]byte(`
width: 100
height: 100
scenes:
  main:
    type: box
    size: [1, 1, 1]
    translate: [0, 0, -4]
  hud:
    type: overlay
    rect: [0, 0, 10, 10]
    color: [0, 255, 0]
targets:
  - {name: mirror, width: 32, height: 16}
viewports:
  - width: 50
    height: 100
    layers:
      - id: 0
        passes:
          - {scene: main, target: mirror, clear: "#000000"}
          - {scene: main, clear: "#102030ff"}
      - id: 1
        passes:
          - {scene: hud}
  - x: 50
    width: 50
    height: 100
    layers:
      - passes:
          - scene: main
            camera: {eye: [0, 0, 2], fov: 60}
            fog: {color: "#ffffff", near: 1, far: 10}
`))
	require.NoError(t, err)
	require.Len(t, s.Frame.Viewports, 2)
	assert.Equal(t, 4, s.Frame.NumPasses())

	left := s.Frame.Viewports[0]
	require.True(t, left.Layers[0].IsMultipass())
	off := left.Layers[0].Passes[0]
	require.NotNil(t, off.Target)
	assert.Same(t, s.Targets["mirror"], off.Target)
	assert.InDelta(t, 2.0, off.Env.Projection[5]/off.Env.Projection[0], 1e-9, "aspect follows the target")

	onscreen := left.Layers[0].Passes[1]
	assert.Nil(t, onscreen.Target)
	assert.InDelta(t, 0x10/255.0, onscreen.Clear.Color.R, 1e-9)
	assert.InDelta(t, 0x30/255.0, onscreen.Clear.Color.B, 1e-9)
	assert.Nil(t, left.Layers[1].Passes[0].Clear)

	right := s.Frame.Viewports[1].Layers[0].Passes[0]
	assert.Equal(t, 50, s.Frame.Viewports[1].X)
	assert.NotNil(t, right.Env.Fog)
	assert.InDelta(t, 2, right.Env.Eye().Z(), 1e-9)

	s.SetBufferSetup(render.BufferSetupData{DepthBits: 24, NumRenderTargets: 1})
	assert.Equal(t, 24, s.Frame.Viewports[1].Layers[0].Passes[0].Buffer.DepthBits)
	assert.Equal(t, 24, s.Targets["mirror"].Buffer.DepthBits)
}

func TestColor(t *testing.T) {
	s, err := Parse([]byte(`
width: 1
height: 1
scenes:
  main:
    type: overlay
    points: [[0, 0], [1, 0], [0, 1]]
    color: "#11223344"
`))
	require.NoError(t, err)
	o, ok := s.Roots[MainScene].(*node.Overlay2D)
	require.True(t, ok)
	assert.True(t, o.Is2D())
	assert.IsType(t, bounds.Infinite{}, o.CullableBounds())

	var c Color
	require.NoError(t, c.parseHex("#abcdef"))
	assert.Equal(t, color.NRGBA{0xab, 0xcd, 0xef, 0xff}, c.NRGBA())
	assert.Error(t, c.parseHex("#abc"))
	assert.Error(t, c.parseHex("#zzzzzz"))
}

func TestParseErrors(t *testing.T) {
	scene := func(body string) string {
		return "width: 8\nheight: 8\nscenes:\n  main:\n" + body
	}
	tests := []struct {
		name string
		yaml string
	}{
		{"no size", "scenes:\n  main:\n    type: group\n"},
		{"no scenes", "width: 8\nheight: 8\n"},
		{"unknown type", scene("    type: teapot\n")},
		{"effects on leaf", scene("    type: box\n    size: [1, 1, 1]\n    lights: [{direction: [0, 0, -1]}]\n")},
		{"flat box", scene("    type: box\n    size: [1, 0, 1]\n")},
		{"loose vertices", scene("    type: triangles\n    vertices: [[0, 0, 0], [1, 0, 0]]\n")},
		{"lod order", scene("    type: lod\n    levels: [{size: [1, 1, 1], min_pixels: 1}, {size: [2, 2, 2], min_pixels: 5}]\n")},
		{"empty rect", scene("    type: overlay\n    rect: [0, 0, 0, 4]\n")},
		{"sound range", scene("    type: sound\n    ref_dist: 5\n    max_dist: 1\n")},
		{"zero scale", scene("    type: group\n    scale: [0]\n")},
		{"two scales", scene("    type: group\n    scale: [1, 2]\n")},
		{"dark light", scene("    type: group\n    lights: [{direction: [0, 0, 0]}]\n")},
		{"unknown scene", scene("    type: group\nviewports:\n  - {width: 8, height: 8, layers: [{passes: [{scene: other}]}]}\n")},
		{"unknown target", scene("    type: group\nviewports:\n  - {width: 8, height: 8, layers: [{passes: [{scene: main, target: x}]}]}\n")},
		{"empty viewport", scene("    type: group\nviewports:\n  - {width: 0, height: 8}\n")},
		{"bad target", scene("    type: group\ntargets: [{name: t, width: 0, height: 1}]\n")},
		{"bad camera", scene("    type: group\ncamera: {eye: [0, 0, 0], target: [0, 0, 0]}\n")},
		{"bad fov", scene("    type: group\ncamera: {fov: 200}\n")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.yaml))
			assert.ErrorIs(t, err, ErrInvalidScene)
		})
	}

	_, err := Parse([]byte("width: 8\nheight: 8\nwidht: 3\n"))
	assert.Error(t, err, "unknown keys are rejected")
	_, err = Parse([]byte(scene("    type: box\n    color: [1, 2]\n")))
	assert.Error(t, err)
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "scene.yaml")
	require.NoError(t, os.WriteFile(path, []byte(demo), 0o644))

	s, err := Load(path)
	require.NoError(t, err)
	assert.Len(t, s.Roots, 1)

	_, err = Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestPlacement(t *testing.T) {
	spec := &NodeSpec{Type: "group", Translate: Vec3{1, 2, 3}, Scale: []float64{2}}
	placed, err := spec.placed("x")
	require.NoError(t, err)
	assert.True(t, placed)
	assert.Equal(t, mgl64.Vec3{2, 2, 2}, spec.scale())

	placed, err = (&NodeSpec{Type: "group"}).placed("x")
	require.NoError(t, err)
	assert.False(t, placed)
}

func TestBoxGeometryShared(t *testing.T) {
	src := []byte(`
width: 8
height: 8
scenes:
  main:
    type: group
    children:
      - {type: box, name: a, size: [1, 2, 3], color: "#336699"}
      - {type: box, name: b, size: [1, 2, 3], color: "#336699"}
      - {type: box, name: c, size: [1, 2, 3]}
`)
	geometry := func(s *Scene, name string) render.Renderable {
		n, ok := s.Node(name)
		require.True(t, ok)
		return n.(*node.Shape).Geometry()
	}

	s, err := Parse(src)
	require.NoError(t, err)
	assert.Same(t, geometry(s, "a"), geometry(s, "b"))
	assert.NotSame(t, geometry(s, "a"), geometry(s, "c"))

	again, err := Parse(src)
	require.NoError(t, err)
	assert.Same(t, geometry(s, "a"), geometry(again, "a"), "reloads reuse geometry")
}
