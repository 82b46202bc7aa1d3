// Package bounds provides bounding volumes and view frustum tests used by
// the cull and pick stages.
//
// All volumes are immutable values. Transform returns a new volume in the
// target space, so a single volume can be shared by any number of
// concurrent traversals.
package bounds

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// Kind identifies the concrete shape of a Volume.
type Kind uint8

const (
	// KindVoid never intersects anything.
	KindVoid Kind = iota
	// KindBox is an axis-aligned bounding box.
	KindBox
	// KindSphere is a bounding sphere.
	KindSphere
	// KindInfinite always intersects.
	KindInfinite
)

// String returns a human-readable name for the kind.
func (k Kind) String() string {
	switch k {
	case KindVoid:
		return "Void"
	case KindBox:
		return "Box"
	case KindSphere:
		return "Sphere"
	case KindInfinite:
		return "Infinite"
	default:
		return "Unknown"
	}
}

// Volume is a bounding volume in some coordinate space.
type Volume interface {
	// Kind reports the concrete shape.
	Kind() Kind

	// Center returns the centroid of the volume.
	Center() mgl64.Vec3

	// Sphere returns a sphere enclosing the volume.
	Sphere() (center mgl64.Vec3, radius float64)

	// ContainsPoint reports whether p lies inside the volume.
	ContainsPoint(p mgl64.Vec3) bool

	// IntersectRay tests the half-line origin + t*dir, t >= 0. On a hit
	// it returns the smallest such t.
	IntersectRay(origin, dir mgl64.Vec3) (float64, bool)

	// IntersectSphere reports whether the volume overlaps the sphere.
	IntersectSphere(center mgl64.Vec3, radius float64) bool

	// Transform returns an enclosing volume in the space defined by m.
	Transform(m mgl64.Mat4) Volume

	// Classify reports the position of the volume relative to f.
	Classify(f *Frustum) Classification
}

// transformPoint applies the affine part of m to p.
func transformPoint(m mgl64.Mat4, p mgl64.Vec3) mgl64.Vec3 {
	return m.Mul4x1(p.Vec4(1)).Vec3()
}

// Box is an axis-aligned bounding box.
type Box struct {
	Min, Max mgl64.Vec3
}

// NewBox returns a box spanning the two corners in any order.
func NewBox(a, b mgl64.Vec3) Box {
	return Box{
		Min: mgl64.Vec3{math.Min(a[0], b[0]), math.Min(a[1], b[1]), math.Min(a[2], b[2])},
		Max: mgl64.Vec3{math.Max(a[0], b[0]), math.Max(a[1], b[1]), math.Max(a[2], b[2])},
	}
}

// BoxFromPoints returns the smallest box enclosing pts. With no points the
// result is an inverted box that contains nothing.
func BoxFromPoints(pts ...mgl64.Vec3) Box {
	b := Box{
		Min: mgl64.Vec3{math.Inf(1), math.Inf(1), math.Inf(1)},
		Max: mgl64.Vec3{math.Inf(-1), math.Inf(-1), math.Inf(-1)},
	}
	for _, p := range pts {
		b = b.AddPoint(p)
	}
	return b
}

// AddPoint returns the box grown to include p.
func (b Box) AddPoint(p mgl64.Vec3) Box {
	for i := 0; i < 3; i++ {
		b.Min[i] = math.Min(b.Min[i], p[i])
		b.Max[i] = math.Max(b.Max[i], p[i])
	}
	return b
}

// Union returns the smallest box containing both boxes.
func (b Box) Union(o Box) Box {
	return b.AddPoint(o.Min).AddPoint(o.Max)
}

// IsEmpty reports whether the box encloses no point.
func (b Box) IsEmpty() bool {
	return b.Min[0] > b.Max[0] || b.Min[1] > b.Max[1] || b.Min[2] > b.Max[2]
}

// Size returns the extent along each axis.
func (b Box) Size() mgl64.Vec3 {
	return b.Max.Sub(b.Min)
}

// Corners returns the eight corners of the box.
func (b Box) Corners() [8]mgl64.Vec3 {
	return [8]mgl64.Vec3{
		{b.Min[0], b.Min[1], b.Min[2]},
		{b.Max[0], b.Min[1], b.Min[2]},
		{b.Min[0], b.Max[1], b.Min[2]},
		{b.Max[0], b.Max[1], b.Min[2]},
		{b.Min[0], b.Min[1], b.Max[2]},
		{b.Max[0], b.Min[1], b.Max[2]},
		{b.Min[0], b.Max[1], b.Max[2]},
		{b.Max[0], b.Max[1], b.Max[2]},
	}
}

func (b Box) Kind() Kind { return KindBox }

func (b Box) Center() mgl64.Vec3 {
	return b.Min.Add(b.Max).Mul(0.5)
}

func (b Box) Sphere() (mgl64.Vec3, float64) {
	return b.Center(), b.Size().Len() * 0.5
}

func (b Box) ContainsPoint(p mgl64.Vec3) bool {
	return p[0] >= b.Min[0] && p[0] <= b.Max[0] &&
		p[1] >= b.Min[1] && p[1] <= b.Max[1] &&
		p[2] >= b.Min[2] && p[2] <= b.Max[2]
}

// IntersectRay uses the slab method.
func (b Box) IntersectRay(origin, dir mgl64.Vec3) (float64, bool) {
	tmin, tmax := 0.0, math.Inf(1)
	for i := 0; i < 3; i++ {
		if dir[i] == 0 {
			if origin[i] < b.Min[i] || origin[i] > b.Max[i] {
				return 0, false
			}
			continue
		}
		inv := 1 / dir[i]
		t0 := (b.Min[i] - origin[i]) * inv
		t1 := (b.Max[i] - origin[i]) * inv
		if t0 > t1 {
			t0, t1 = t1, t0
		}
		tmin = math.Max(tmin, t0)
		tmax = math.Min(tmax, t1)
		if tmin > tmax {
			return 0, false
		}
	}
	return tmin, true
}

func (b Box) IntersectSphere(center mgl64.Vec3, radius float64) bool {
	var d2 float64
	for i := 0; i < 3; i++ {
		v := center[i]
		if v < b.Min[i] {
			d2 += (b.Min[i] - v) * (b.Min[i] - v)
		} else if v > b.Max[i] {
			d2 += (v - b.Max[i]) * (v - b.Max[i])
		}
	}
	return d2 <= radius*radius
}

// Transform returns the axis-aligned box enclosing the eight transformed
// corners.
func (b Box) Transform(m mgl64.Mat4) Volume {
	if b.IsEmpty() {
		return b
	}
	out := BoxFromPoints()
	for _, c := range b.Corners() {
		out = out.AddPoint(transformPoint(m, c))
	}
	return out
}

func (b Box) Classify(f *Frustum) Classification {
	return f.ClassifyBox(b.Min, b.Max)
}

// Sphere is a bounding sphere.
type Sphere struct {
	C mgl64.Vec3
	R float64
}

func (s Sphere) Kind() Kind { return KindSphere }

func (s Sphere) Center() mgl64.Vec3 { return s.C }

func (s Sphere) Sphere() (mgl64.Vec3, float64) { return s.C, s.R }

func (s Sphere) ContainsPoint(p mgl64.Vec3) bool {
	return p.Sub(s.C).Len() <= s.R
}

func (s Sphere) IntersectRay(origin, dir mgl64.Vec3) (float64, bool) {
	l := dir.Len()
	if l == 0 {
		return 0, s.ContainsPoint(origin)
	}
	d := dir.Mul(1 / l)
	oc := origin.Sub(s.C)
	bq := oc.Dot(d)
	c := oc.Dot(oc) - s.R*s.R
	if c <= 0 {
		return 0, true
	}
	disc := bq*bq - c
	if disc < 0 || bq > 0 {
		return 0, false
	}
	t := -bq - math.Sqrt(disc)
	return t / l, true
}

func (s Sphere) IntersectSphere(center mgl64.Vec3, radius float64) bool {
	r := s.R + radius
	return s.C.Sub(center).Len() <= r
}

// Transform moves the center and scales the radius by the largest axis
// scale of m.
func (s Sphere) Transform(m mgl64.Mat4) Volume {
	return Sphere{C: transformPoint(m, s.C), R: s.R * mgl64.ExtractMaxScale(m)}
}

func (s Sphere) Classify(f *Frustum) Classification {
	return f.ClassifySphere(s.C, s.R)
}

// Void is a volume that contains nothing. Nodes with Void bounds are
// always culled and never picked.
type Void struct{}

func (Void) Kind() Kind                                     { return KindVoid }
func (Void) Center() mgl64.Vec3                             { return mgl64.Vec3{} }
func (Void) Sphere() (mgl64.Vec3, float64)                  { return mgl64.Vec3{}, 0 }
func (Void) ContainsPoint(mgl64.Vec3) bool                  { return false }
func (Void) IntersectRay(_, _ mgl64.Vec3) (float64, bool)   { return 0, false }
func (Void) IntersectSphere(mgl64.Vec3, float64) bool       { return false }
func (v Void) Transform(mgl64.Mat4) Volume                  { return v }
func (Void) Classify(*Frustum) Classification               { return Outside }

// Infinite is a volume that contains everything. The cull stage treats a
// nil volume as Infinite.
type Infinite struct{}

func (Infinite) Kind() Kind                                   { return KindInfinite }
func (Infinite) Center() mgl64.Vec3                           { return mgl64.Vec3{} }
func (Infinite) Sphere() (mgl64.Vec3, float64)                { return mgl64.Vec3{}, math.Inf(1) }
func (Infinite) ContainsPoint(mgl64.Vec3) bool                { return true }
func (Infinite) IntersectRay(_, _ mgl64.Vec3) (float64, bool) { return 0, true }
func (Infinite) IntersectSphere(mgl64.Vec3, float64) bool     { return true }
func (v Infinite) Transform(mgl64.Mat4) Volume                { return v }
func (Infinite) Classify(*Frustum) Classification             { return Intersects }

var (
	_ Volume = Box{}
	_ Volume = Sphere{}
	_ Volume = Void{}
	_ Volume = Infinite{}
)

// Enclose returns an axis-aligned box enclosing v. Void and empty
// volumes give an empty box; the boolean is false for Infinite.
func Enclose(v Volume) (Box, bool) {
	switch b := v.(type) {
	case Box:
		return b, true
	case Void:
		return BoxFromPoints(), true
	case Infinite:
		return Box{}, false
	}
	c, r := v.Sphere()
	if math.IsInf(r, 1) {
		return Box{}, false
	}
	ext := mgl64.Vec3{r, r, r}
	return Box{Min: c.Sub(ext), Max: c.Add(ext)}, true
}

// Merge returns a volume enclosing both a and b. A nil volume stands for
// unbounded and absorbs the other operand.
func Merge(a, b Volume) Volume {
	if a == nil || b == nil {
		return nil
	}
	if a.Kind() == KindVoid {
		return b
	}
	if b.Kind() == KindVoid {
		return a
	}
	ba, okA := Enclose(a)
	bb, okB := Enclose(b)
	if !okA || !okB {
		return Infinite{}
	}
	return ba.Union(bb)
}
