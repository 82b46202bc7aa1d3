package node

import (
	"image"
	"image/color"

	"github.com/gogpu/scene3d/render"
)

// Material is a flat surface color. An alpha below 255 makes the shape
// transparent.
type Material struct {
	Color color.NRGBA
	id    uint64
}

// NewMaterial creates a material.
func NewMaterial(c color.NRGBA) *Material {
	return &Material{Color: c, id: nextID()}
}

// StartOp implements render.Component.
func (m *Material) StartOp() render.RenderOp { return render.StartState }

// StateID implements render.Component.
func (m *Material) StateID() uint64 { return m.id }

// Render applies the material tint.
func (m *Material) Render(dc render.DrawContext) {
	if s, ok := dc.(StateSink); ok {
		s.PushTint(m.Color)
	}
}

// PostRender removes the material tint.
func (m *Material) PostRender(dc render.DrawContext) {
	if s, ok := dc.(StateSink); ok {
		s.PopTint()
	}
}

// Texture is an image bound to a texture unit. Devices without texture
// sampling apply its average color as a tint.
type Texture struct {
	Unit    int
	Image   image.Image
	average color.NRGBA
	id      uint64
}

// NewTexture creates a texture for unit from img.
func NewTexture(unit int, img image.Image) *Texture {
	return &Texture{Unit: unit, Image: img, average: averageColor(img), id: nextID()}
}

// Average returns the mean color of the image.
func (t *Texture) Average() color.NRGBA { return t.average }

// StartOp implements render.Component.
func (t *Texture) StartOp() render.RenderOp { return render.StartTexture }

// StateID implements render.Component.
func (t *Texture) StateID() uint64 { return t.id }

// Render binds the texture.
func (t *Texture) Render(dc render.DrawContext) {
	if s, ok := dc.(StateSink); ok {
		s.PushTint(t.average)
	}
}

// PostRender unbinds the texture.
func (t *Texture) PostRender(dc render.DrawContext) {
	if s, ok := dc.(StateSink); ok {
		s.PopTint()
	}
}

func averageColor(img image.Image) color.NRGBA {
	if img == nil {
		return color.NRGBA{255, 255, 255, 255}
	}
	b := img.Bounds()
	var r, g, bl, a, n uint64
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			c := color.NRGBAModel.Convert(img.At(x, y)).(color.NRGBA)
			r += uint64(c.R)
			g += uint64(c.G)
			bl += uint64(c.B)
			a += uint64(c.A)
			n++
		}
	}
	if n == 0 {
		return color.NRGBA{255, 255, 255, 255}
	}
	return color.NRGBA{uint8(r / n), uint8(g / n), uint8(bl / n), uint8(a / n)}
}

// ShaderProgram identifies a shader. The pipeline only orders by it;
// compiling and running shaders is the device's concern.
type ShaderProgram struct {
	Name   string
	Source string
	id     uint64
}

// NewShaderProgram creates a shader program.
func NewShaderProgram(name, source string) *ShaderProgram {
	return &ShaderProgram{Name: name, Source: source, id: nextID()}
}

// StartOp implements render.Component.
func (p *ShaderProgram) StartOp() render.RenderOp { return render.StartShaderProgram }

// StateID implements render.Component.
func (p *ShaderProgram) StateID() uint64 { return p.id }

// Render binds the program.
func (p *ShaderProgram) Render(render.DrawContext) {}

// PostRender unbinds the program.
func (p *ShaderProgram) PostRender(render.DrawContext) {}

// ShaderArguments are uniform values for the enclosing shader program.
type ShaderArguments struct {
	Values map[string]float64
	id     uint64
}

// NewShaderArguments creates an argument set.
func NewShaderArguments(values map[string]float64) *ShaderArguments {
	return &ShaderArguments{Values: values, id: nextID()}
}

// StartOp implements render.Component.
func (a *ShaderArguments) StartOp() render.RenderOp { return render.SetShaderArgs }

// StateID implements render.Component.
func (a *ShaderArguments) StateID() uint64 { return a.id }

// ShaderArgsID implements render.ShaderArgs.
func (a *ShaderArguments) ShaderArgsID() uint64 { return a.id }

// Render uploads the arguments.
func (a *ShaderArguments) Render(render.DrawContext) {}

// PostRender implements render.StatefulRenderable.
func (a *ShaderArguments) PostRender(render.DrawContext) {}
