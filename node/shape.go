package node

import (
	"image/color"
	"math"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/gogpu/scene3d/bounds"
	"github.com/gogpu/scene3d/pick"
	"github.com/gogpu/scene3d/render"
)

// Geometry is drawable content with local bounds.
type Geometry interface {
	render.Renderable
	Bounds() bounds.Volume
}

// Shape is a leaf pairing geometry with appearance components.
type Shape struct {
	base
	geometry    Geometry
	components  []render.Component
	transparent bool
	shadow      bool
}

// NewShape creates a shape.
func NewShape(g Geometry, components ...render.Component) *Shape {
	return &Shape{base: newBase(""), geometry: g, components: components}
}

// SetGeometry replaces the geometry.
func (s *Shape) SetGeometry(g Geometry) { s.geometry = g }

// AddComponent appends an appearance component.
func (s *Shape) AddComponent(c render.Component) { s.components = append(s.components, c) }

// SetTransparent forces blending regardless of materials.
func (s *Shape) SetTransparent(t bool) { s.transparent = t }

// SetCastsShadow makes the shape part of the shadow generator pass.
func (s *Shape) SetCastsShadow(c bool) { s.shadow = c }

// Renderable implements render.LeafCullable.
func (s *Shape) Renderable() render.Renderable {
	if s.geometry == nil {
		return nil
	}
	return s
}

// Geometry implements render.ShapeRenderable.
func (s *Shape) Geometry() render.Renderable {
	if s.geometry == nil {
		return nil
	}
	return s.geometry
}

// Components implements render.ShapeRenderable.
func (s *Shape) Components() []render.Component { return s.components }

// HasTransparency reports whether the shape must be blended.
func (s *Shape) HasTransparency() bool {
	if s.transparent {
		return true
	}
	for _, c := range s.components {
		if m, ok := c.(*Material); ok && m.Color.A < 255 {
			return true
		}
	}
	return false
}

// CastsShadow implements render.ShadowCaster.
func (s *Shape) CastsShadow() bool { return s.shadow }

// Render draws the shape with all of its components applied. The sorter
// normally decomposes shapes; this path serves policies that do not.
func (s *Shape) Render(dc render.DrawContext) {
	for _, c := range s.components {
		c.Render(dc)
	}
	if s.geometry != nil {
		s.geometry.Render(dc)
	}
	for i := len(s.components) - 1; i >= 0; i-- {
		s.components[i].PostRender(dc)
	}
}

// CullableBounds implements render.Cullable.
func (s *Shape) CullableBounds() bounds.Volume {
	if s.geometry == nil {
		return bounds.Void{}
	}
	return s.geometry.Bounds()
}

// PickTargetType implements pick.Target.
func (s *Shape) PickTargetType() pick.TargetType { return pick.TypeLeaf }

// PickableBounds implements pick.Target.
func (s *Shape) PickableBounds() bounds.Volume { return s.CullableBounds() }

// TriangleGeometry is a flat-colored triangle list.
type TriangleGeometry struct {
	vertices []mgl64.Vec3
	color    color.NRGBA
	bounds   bounds.Box
}

// NewTriangleGeometry creates geometry from a vertex list, three
// vertices per triangle. Trailing vertices are ignored.
func NewTriangleGeometry(vertices []mgl64.Vec3, c color.NRGBA) *TriangleGeometry {
	vertices = vertices[:len(vertices)/3*3]
	return &TriangleGeometry{vertices: vertices, color: c, bounds: bounds.BoxFromPoints(vertices...)}
}

// NewBoxGeometry creates an axis-aligned box centered on the origin.
func NewBoxGeometry(size mgl64.Vec3, c color.NRGBA) *TriangleGeometry {
	h := size.Mul(0.5)
	b := bounds.Box{Min: h.Mul(-1), Max: h}
	p := b.Corners()
	faces := [6][4]int{
		{0, 2, 3, 1}, // -z
		{4, 5, 7, 6}, // +z
		{0, 4, 6, 2}, // -x
		{1, 3, 7, 5}, // +x
		{0, 1, 5, 4}, // -y
		{2, 6, 7, 3}, // +y
	}
	verts := make([]mgl64.Vec3, 0, 36)
	for _, f := range faces {
		verts = append(verts, p[f[0]], p[f[1]], p[f[2]], p[f[0]], p[f[2]], p[f[3]])
	}
	return NewTriangleGeometry(verts, c)
}

// Vertices returns the triangle list.
func (g *TriangleGeometry) Vertices() []mgl64.Vec3 { return g.vertices }

// Color returns the base color.
func (g *TriangleGeometry) Color() color.NRGBA { return g.color }

// NumTriangles returns the triangle count.
func (g *TriangleGeometry) NumTriangles() int { return len(g.vertices) / 3 }

// Bounds implements Geometry.
func (g *TriangleGeometry) Bounds() bounds.Volume {
	if len(g.vertices) == 0 {
		return bounds.Void{}
	}
	return g.bounds
}

// Render sends the triangles to the context when it can rasterize them.
func (g *TriangleGeometry) Render(dc render.DrawContext) {
	if sink, ok := dc.(TriangleSink); ok && len(g.vertices) > 0 {
		sink.DrawTriangles(g.vertices, g.color)
	}
}

// LOD is custom geometry that picks one of several representations by
// its projected size on screen.
type LOD struct {
	levels    []*TriangleGeometry
	minPixels []float64
	bounds    bounds.Volume
}

// NewLOD creates a level-of-detail geometry. Levels are ordered from
// most to least detailed; minPixels[i] is the smallest projected diameter
// in pixels at which level i is used. Below the last threshold nothing
// is drawn.
func NewLOD(levels []*TriangleGeometry, minPixels []float64) *LOD {
	n := min(len(levels), len(minPixels))
	l := &LOD{levels: levels[:n], minPixels: minPixels[:n], bounds: bounds.Void{}}
	for _, g := range l.levels {
		l.bounds = bounds.Merge(l.bounds, g.Bounds())
	}
	return l
}

// Bounds implements Geometry.
func (l *LOD) Bounds() bounds.Volume { return l.bounds }

// Select returns the level index for a projected diameter in pixels, or
// -1 when the geometry is too small to draw.
func (l *LOD) Select(pixels float64) int {
	for i, m := range l.minPixels {
		if pixels >= m {
			return i
		}
	}
	return -1
}

// ProcessCull implements render.CustomRenderable. The chosen level is
// handed back through DrawContext.Custom.
func (l *LOD) ProcessCull(out *render.RenderableInstructions, world, view mgl64.Mat4, _ bounds.Frustum, angularRes float64) {
	if len(l.levels) == 0 || angularRes <= 0 {
		return
	}
	wb := l.bounds.Transform(world)
	center, radius := wb.Sphere()
	eye := view.Inv().Col(3).Vec3()
	dist := eye.Sub(center).Len()
	pixels := math.Inf(1)
	if dist > radius {
		pixels = 2 * math.Atan(radius/dist) / angularRes
	}
	if i := l.Select(pixels); i >= 0 {
		out.Instructions = l.levels[i]
	}
}

// Render draws the level chosen during sorting.
func (l *LOD) Render(dc render.DrawContext) {
	if g, ok := dc.Custom().(*TriangleGeometry); ok {
		g.Render(dc)
	}
}
