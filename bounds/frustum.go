package bounds

import "github.com/go-gl/mathgl/mgl64"

// Classification is the result of a frustum test.
type Classification uint8

const (
	// Outside means the volume is entirely outside the frustum.
	Outside Classification = iota
	// Intersects means the volume straddles at least one plane.
	Intersects
	// Inside means the volume is entirely inside the frustum.
	Inside
)

// String returns a human-readable name for the classification.
func (c Classification) String() string {
	switch c {
	case Outside:
		return "Outside"
	case Intersects:
		return "Intersects"
	case Inside:
		return "Inside"
	default:
		return "Unknown"
	}
}

// Plane is n·p + D = 0 with a unit normal pointing into the frustum.
type Plane struct {
	Normal mgl64.Vec3
	D      float64
}

// Distance returns the signed distance from p to the plane.
func (p Plane) Distance(pt mgl64.Vec3) float64 {
	return p.Normal.Dot(pt) + p.D
}

func planeFromRow(v mgl64.Vec4) Plane {
	n := v.Vec3()
	l := n.Len()
	if l == 0 {
		return Plane{}
	}
	return Plane{Normal: n.Mul(1 / l), D: v[3] / l}
}

// Frustum holds the six clip planes in the order left, right, bottom,
// top, near, far.
type Frustum struct {
	Planes [6]Plane
}

// FrustumFromMatrix extracts the clip planes of a combined
// projection × view matrix.
func FrustumFromMatrix(m mgl64.Mat4) Frustum {
	r0, r1, r2, r3 := m.Row(0), m.Row(1), m.Row(2), m.Row(3)
	return Frustum{Planes: [6]Plane{
		planeFromRow(r3.Add(r0)),
		planeFromRow(r3.Sub(r0)),
		planeFromRow(r3.Add(r1)),
		planeFromRow(r3.Sub(r1)),
		planeFromRow(r3.Add(r2)),
		planeFromRow(r3.Sub(r2)),
	}}
}

// ContainsPoint reports whether p is inside all six planes.
func (f *Frustum) ContainsPoint(p mgl64.Vec3) bool {
	for _, pl := range f.Planes {
		if pl.Distance(p) < 0 {
			return false
		}
	}
	return true
}

// ClassifySphere tests a sphere against the frustum.
func (f *Frustum) ClassifySphere(c mgl64.Vec3, r float64) Classification {
	result := Inside
	for _, pl := range f.Planes {
		d := pl.Distance(c)
		if d < -r {
			return Outside
		}
		if d < r {
			result = Intersects
		}
	}
	return result
}

// ClassifyBox tests an axis-aligned box using the positive/negative
// vertex of each plane.
func (f *Frustum) ClassifyBox(lo, hi mgl64.Vec3) Classification {
	result := Inside
	for _, pl := range f.Planes {
		var pv, nv mgl64.Vec3
		for i := 0; i < 3; i++ {
			if pl.Normal[i] >= 0 {
				pv[i], nv[i] = hi[i], lo[i]
			} else {
				pv[i], nv[i] = lo[i], hi[i]
			}
		}
		if pl.Distance(pv) < 0 {
			return Outside
		}
		if pl.Distance(nv) < 0 {
			result = Intersects
		}
	}
	return result
}
