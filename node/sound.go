package node

import (
	"github.com/gogpu/scene3d/bounds"
	"github.com/gogpu/scene3d/pick"
	"github.com/gogpu/scene3d/render"
)

// Sound is a positional audio source at the origin of its local space.
// Its gain falls off with the listener distance.
type Sound struct {
	base
	Gain    float64
	RefDist float64
	MaxDist float64
	id      uint64
}

// NewSound creates a sound audible up to maxDist.
func NewSound(gain, refDist, maxDist float64) *Sound {
	return &Sound{base: newBase(""), Gain: gain, RefDist: refDist, MaxDist: maxDist, id: nextID()}
}

// ID identifies the source to the audio sink.
func (s *Sound) ID() uint64 { return s.id }

// IsSpatialized implements render.SpatializedRenderable.
func (s *Sound) IsSpatialized() bool { return true }

// GainAt returns the gain heard at distance d.
func (s *Sound) GainAt(d float64) float64 {
	if s.MaxDist > 0 && d > s.MaxDist {
		return 0
	}
	if d <= s.RefDist || s.RefDist <= 0 {
		return s.Gain
	}
	return s.Gain * s.RefDist / d
}

// Render places the source relative to the listener.
func (s *Sound) Render(dc render.DrawContext) {
	sc, ok := dc.(SpatialContext)
	if !ok {
		return
	}
	sink, ok := dc.(AudioSink)
	if !ok {
		return
	}
	inv, ok := sc.InverseWorld()
	if !ok {
		return
	}
	listener := inv.Mul4x1(sc.Eye().Vec4(1)).Vec3()
	sink.PlaceSource(s.id, listener, s.GainAt(listener.Len()))
}

// Renderable implements render.LeafCullable.
func (s *Sound) Renderable() render.Renderable { return s }

// CullableBounds implements render.Cullable. Sounds are heard off screen.
func (s *Sound) CullableBounds() bounds.Volume { return bounds.Infinite{} }

// PickTargetType implements pick.Target.
func (s *Sound) PickTargetType() pick.TargetType { return pick.TypeLeaf }

// PickableBounds implements pick.Target.
func (s *Sound) PickableBounds() bounds.Volume { return bounds.Void{} }
