package node

import (
	"image/color"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/gogpu/scene3d/render"
)

// recorder is a draw context that records every sink call.
type recorder struct {
	modelView mgl64.Mat4
	custom    any
	inverse   mgl64.Mat4
	hasInv    bool
	eye       mgl64.Vec3

	triangles int
	flat      int
	colors    []color.NRGBA
	tints     []color.NRGBA
	lights    map[uint64]mgl64.Vec3
	clips     map[uint64]mgl64.Vec4
	fog       bool
	sources   map[uint64]float64
	listener  mgl64.Vec3
}

func newRecorder() *recorder {
	return &recorder{
		modelView: mgl64.Ident4(),
		lights:    map[uint64]mgl64.Vec3{},
		clips:     map[uint64]mgl64.Vec4{},
		sources:   map[uint64]float64{},
	}
}

func (r *recorder) ModelView() mgl64.Mat4             { return r.modelView }
func (r *recorder) Projection() mgl64.Mat4            { return mgl64.Ident4() }
func (r *recorder) Custom() any                       { return r.custom }
func (r *recorder) DeviceHandle() render.DeviceHandle { return render.NullDeviceHandle{} }

func (r *recorder) DrawTriangles(v []mgl64.Vec3, c color.NRGBA) {
	r.triangles += len(v) / 3
	r.colors = append(r.colors, c)
}

func (r *recorder) DrawTriangles2D(v []mgl64.Vec2, c color.NRGBA) {
	r.flat += len(v) / 3
	r.colors = append(r.colors, c)
}

func (r *recorder) PushTint(c color.NRGBA) { r.tints = append(r.tints, c) }
func (r *recorder) PopTint()               { r.tints = r.tints[:len(r.tints)-1] }

func (r *recorder) EnableLight(id uint64, dir mgl64.Vec3, _ color.NRGBA) { r.lights[id] = dir }
func (r *recorder) DisableLight(id uint64)                              { delete(r.lights, id) }

func (r *recorder) EnableClipPlane(id uint64, p mgl64.Vec4) { r.clips[id] = p }
func (r *recorder) DisableClipPlane(id uint64)              { delete(r.clips, id) }

func (r *recorder) EnableFog(color.NRGBA, float64, float64) { r.fog = true }
func (r *recorder) DisableFog()                             { r.fog = false }

func (r *recorder) InverseWorld() (mgl64.Mat4, bool) { return r.inverse, r.hasInv }
func (r *recorder) Eye() mgl64.Vec3                  { return r.eye }

func (r *recorder) PlaceSource(id uint64, listener mgl64.Vec3, gain float64) {
	r.sources[id] = gain
	r.listener = listener
}
