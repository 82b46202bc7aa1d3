// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package scenefile

import (
	"fmt"
	"image/color"
	"slices"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/gogpu/scene3d/internal/cache"
	"github.com/gogpu/scene3d/node"
)

// NodeTypes lists the accepted values of NodeSpec.Type.
var NodeTypes = []string{"group", "box", "triangles", "lod", "billboard", "switch", "overlay", "sound"}

// NodeSpec describes one node. Which fields apply depends on Type.
type NodeSpec struct {
	Type string `yaml:"type"`
	Name string `yaml:"name"`

	// Translate, Rotate (degrees about X, Y then Z) and Scale place the
	// node in its parent. Scale holds one uniform or three per-axis
	// factors. A non-group node with a transform is wrapped in a
	// transform group.
	Translate Vec3      `yaml:"translate"`
	Rotate    Vec3      `yaml:"rotate"`
	Scale     []float64 `yaml:"scale"`

	PickMask *uint32 `yaml:"pick_mask"`
	Excluded bool    `yaml:"excluded"`

	// Group, billboard and switch children.
	Children []*NodeSpec `yaml:"children"`

	// Group effect scope.
	Lights []LightSpec `yaml:"lights"`
	Clip   [][4]float64 `yaml:"clip"`
	Fog    *FogSpec     `yaml:"fog"`

	// Shapes: box, triangles and lod.
	Size        Vec3               `yaml:"size"`
	Vertices    []Vec3             `yaml:"vertices"`
	Levels      []LevelSpec        `yaml:"levels"`
	Color       *Color             `yaml:"color"`
	Material    *Color             `yaml:"material"`
	Shader      *ShaderSpec        `yaml:"shader"`
	Args        map[string]float64 `yaml:"args"`
	Transparent bool               `yaml:"transparent"`
	Shadow      bool               `yaml:"shadow"`

	// Switch.
	Select int `yaml:"select"`

	// Overlay: either Rect (x, y, w, h) or Points forming triangles.
	Rect   *[4]float64  `yaml:"rect"`
	Points [][2]float64 `yaml:"points"`

	// Sound.
	Gain    float64 `yaml:"gain"`
	RefDist float64 `yaml:"ref_dist"`
	MaxDist float64 `yaml:"max_dist"`
}

// LightSpec is a directional light.
type LightSpec struct {
	Direction Vec3   `yaml:"direction"`
	Color     *Color `yaml:"color"`
}

// FogSpec is linear fog between Near and Far.
type FogSpec struct {
	Color Color   `yaml:"color"`
	Near  float64 `yaml:"near"`
	Far   float64 `yaml:"far"`
}

func (f *FogSpec) build() *node.Fog {
	return node.NewFog(f.Color.NRGBA(), f.Near, f.Far)
}

// LevelSpec is one box level of a level-of-detail shape.
type LevelSpec struct {
	Size      Vec3    `yaml:"size"`
	MinPixels float64 `yaml:"min_pixels"`
}

// ShaderSpec names a shader program.
type ShaderSpec struct {
	Name   string `yaml:"name"`
	Source string `yaml:"source"`
}

var white = color.NRGBA{255, 255, 255, 255}

type boxKey struct {
	size  Vec3
	color color.NRGBA
}

// boxes shares box geometry between identical shapes across files and
// reloads.
var boxes = cache.New[boxKey, *node.TriangleGeometry](1024)

func box(size Vec3, c color.NRGBA) *node.TriangleGeometry {
	return boxes.GetOrCreate(boxKey{size, c}, func() *node.TriangleGeometry {
		return node.NewBoxGeometry(size.mgl(), c)
	})
}

type builder struct {
	names map[string]node.Node
}

func (b *builder) build(spec *NodeSpec, path string) (node.Node, error) {
	if spec == nil {
		return nil, fmt.Errorf("%w: %s: empty node", ErrInvalidScene, path)
	}
	if spec.Name != "" {
		path = spec.Name
	}
	if !slices.Contains(NodeTypes, spec.Type) {
		return nil, fmt.Errorf("%w: %s: unknown node type %q", ErrInvalidScene, path, spec.Type)
	}
	if spec.Type != "group" && (len(spec.Lights) > 0 || len(spec.Clip) > 0 || spec.Fog != nil) {
		return nil, fmt.Errorf("%w: %s: effects need a group", ErrInvalidScene, path)
	}

	children, err := b.children(spec, path)
	if err != nil {
		return nil, err
	}

	var n node.Node
	switch spec.Type {
	case "group":
		return b.group(spec, path, children)
	case "box", "triangles", "lod":
		n, err = b.shape(spec, path)
		if err != nil {
			return nil, err
		}
	case "billboard":
		n = node.NewBillboard(children...)
	case "switch":
		sw := node.NewSwitch(children...)
		sw.Select(spec.Select)
		n = sw
	case "overlay":
		n, err = overlay(spec, path)
		if err != nil {
			return nil, err
		}
	case "sound":
		if spec.MaxDist < spec.RefDist {
			return nil, fmt.Errorf("%w: %s: max_dist below ref_dist", ErrInvalidScene, path)
		}
		n = node.NewSound(spec.Gain, spec.RefDist, spec.MaxDist)
	}
	b.configure(n, spec)

	hasTransform, err := spec.placed(path)
	if err != nil {
		return nil, err
	}
	if hasTransform {
		tg := node.NewTransformGroup(mgl64.Ident4(), n)
		tg.SetComponents(spec.Translate.mgl(), spec.rotation(), spec.scale())
		return b.register(spec, tg), nil
	}
	return b.register(spec, n), nil
}

func (b *builder) children(spec *NodeSpec, path string) ([]node.Node, error) {
	var out []node.Node
	for i, c := range spec.Children {
		n, err := b.build(c, fmt.Sprintf("%s[%d]", path, i))
		if err != nil {
			return nil, err
		}
		out = append(out, n)
	}
	return out, nil
}

func (b *builder) group(spec *NodeSpec, path string, children []node.Node) (node.Node, error) {
	hasTransform, err := spec.placed(path)
	if err != nil {
		return nil, err
	}

	var g *node.Group
	var n node.Node
	if hasTransform {
		tg := node.NewTransformGroup(mgl64.Ident4(), children...)
		tg.SetComponents(spec.Translate.mgl(), spec.rotation(), spec.scale())
		g, n = &tg.Group, tg
	} else {
		g = node.NewGroup(children...)
		n = g
	}

	for _, l := range spec.Lights {
		c := white
		if l.Color != nil {
			c = l.Color.NRGBA()
		}
		if l.Direction.mgl().Len() == 0 {
			return nil, fmt.Errorf("%w: %s: light without direction", ErrInvalidScene, path)
		}
		g.AddLight(node.NewLight(l.Direction.mgl(), c))
	}
	for _, p := range spec.Clip {
		g.AddClipPlane(node.NewClipPlane(mgl64.Vec4(p)))
	}
	if spec.Fog != nil {
		g.SetFog(spec.Fog.build())
	}
	b.configure(n, spec)
	return b.register(spec, n), nil
}

func (b *builder) shape(spec *NodeSpec, path string) (*node.Shape, error) {
	c := white
	if spec.Color != nil {
		c = spec.Color.NRGBA()
	}

	var g node.Geometry
	switch spec.Type {
	case "box":
		if !positive(spec.Size) {
			return nil, fmt.Errorf("%w: %s: box size %v", ErrInvalidScene, path, spec.Size)
		}
		g = box(spec.Size, c)
	case "triangles":
		if len(spec.Vertices) == 0 || len(spec.Vertices)%3 != 0 {
			return nil, fmt.Errorf("%w: %s: %d vertices do not form triangles", ErrInvalidScene, path, len(spec.Vertices))
		}
		vs := make([]mgl64.Vec3, len(spec.Vertices))
		for i, v := range spec.Vertices {
			vs[i] = v.mgl()
		}
		g = node.NewTriangleGeometry(vs, c)
	case "lod":
		if len(spec.Levels) == 0 {
			return nil, fmt.Errorf("%w: %s: lod without levels", ErrInvalidScene, path)
		}
		levels := make([]*node.TriangleGeometry, len(spec.Levels))
		pixels := make([]float64, len(spec.Levels))
		for i, l := range spec.Levels {
			if !positive(l.Size) {
				return nil, fmt.Errorf("%w: %s: level %d size %v", ErrInvalidScene, path, i, l.Size)
			}
			if i > 0 && l.MinPixels > pixels[i-1] {
				return nil, fmt.Errorf("%w: %s: level thresholds must decrease", ErrInvalidScene, path)
			}
			levels[i] = box(l.Size, c)
			pixels[i] = l.MinPixels
		}
		g = node.NewLOD(levels, pixels)
	}

	s := node.NewShape(g)
	if spec.Shader != nil {
		s.AddComponent(node.NewShaderProgram(spec.Shader.Name, spec.Shader.Source))
	}
	if len(spec.Args) > 0 {
		s.AddComponent(node.NewShaderArguments(spec.Args))
	}
	if spec.Material != nil {
		s.AddComponent(node.NewMaterial(spec.Material.NRGBA()))
	}
	s.SetTransparent(spec.Transparent)
	s.SetCastsShadow(spec.Shadow)
	return s, nil
}

func overlay(spec *NodeSpec, path string) (*node.Overlay2D, error) {
	c := white
	if spec.Color != nil {
		c = spec.Color.NRGBA()
	}
	if spec.Rect != nil {
		r := spec.Rect
		if r[2] <= 0 || r[3] <= 0 {
			return nil, fmt.Errorf("%w: %s: empty rect", ErrInvalidScene, path)
		}
		return node.NewRect2D(r[0], r[1], r[2], r[3], c), nil
	}
	if len(spec.Points) < 3 || len(spec.Points)%3 != 0 {
		return nil, fmt.Errorf("%w: %s: overlay needs a rect or triangle points", ErrInvalidScene, path)
	}
	pts := make([]mgl64.Vec2, len(spec.Points))
	for i, p := range spec.Points {
		pts[i] = mgl64.Vec2(p)
	}
	return node.NewOverlay2D(pts, c), nil
}

type configurable interface {
	SetName(string)
	SetPickMask(uint32)
	SetExcluded(bool)
}

func (b *builder) configure(n node.Node, spec *NodeSpec) {
	c, ok := n.(configurable)
	if !ok {
		return
	}
	c.SetName(spec.Name)
	if spec.PickMask != nil {
		c.SetPickMask(*spec.PickMask)
	}
	c.SetExcluded(spec.Excluded)
}

func (b *builder) register(spec *NodeSpec, n node.Node) node.Node {
	if spec.Name != "" {
		b.names[spec.Name] = n
	}
	return n
}

// placed reports whether the node moves away from its parent's origin.
func (s *NodeSpec) placed(path string) (bool, error) {
	if len(s.Scale) != 0 && len(s.Scale) != 1 && len(s.Scale) != 3 {
		return false, fmt.Errorf("%w: %s: scale needs 1 or 3 factors", ErrInvalidScene, path)
	}
	scale := s.scale()
	if scale[0] == 0 || scale[1] == 0 || scale[2] == 0 {
		return false, fmt.Errorf("%w: %s: zero scale", ErrInvalidScene, path)
	}
	return s.Translate != (Vec3{}) || s.Rotate != (Vec3{}) || scale != (mgl64.Vec3{1, 1, 1}), nil
}

func (s *NodeSpec) rotation() mgl64.Quat {
	r := s.Rotate
	return mgl64.AnglesToQuat(mgl64.DegToRad(r[0]), mgl64.DegToRad(r[1]), mgl64.DegToRad(r[2]), mgl64.XYZ)
}

func (s *NodeSpec) scale() mgl64.Vec3 {
	switch len(s.Scale) {
	case 1:
		return mgl64.Vec3{s.Scale[0], s.Scale[0], s.Scale[0]}
	case 3:
		return mgl64.Vec3{s.Scale[0], s.Scale[1], s.Scale[2]}
	default:
		return mgl64.Vec3{1, 1, 1}
	}
}

func positive(v Vec3) bool {
	return v[0] > 0 && v[1] > 0 && v[2] > 0
}
