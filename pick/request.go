package pick

import (
	"github.com/go-gl/mathgl/mgl64"
)

// GeometryType selects the shape used for a pick query.
type GeometryType uint8

const (
	// GeometryPoint picks everything whose bounds contain Origin.
	GeometryPoint GeometryType = iota
	// GeometryRay picks along the half-line Origin + t*Direction.
	GeometryRay
	// GeometrySegment picks along Origin + t*Direction with 0 <= t <= 1.
	GeometrySegment
	// GeometrySphere picks everything overlapping the sphere at Origin.
	GeometrySphere
)

// String returns a human-readable name for the geometry type.
func (g GeometryType) String() string {
	switch g {
	case GeometryPoint:
		return "Point"
	case GeometryRay:
		return "Ray"
	case GeometrySegment:
		return "Segment"
	case GeometrySphere:
		return "Sphere"
	default:
		return "Unknown"
	}
}

// SortType controls which results a pick returns and in what order.
type SortType uint8

const (
	// SortAll returns every hit in traversal order.
	SortAll SortType = iota
	// SortAllSorted returns every hit ordered by distance.
	SortAllSorted
	// SortAny returns the first hit found.
	SortAny
	// SortClosest returns only the nearest hit.
	SortClosest
)

// Request describes a pick query. A Request is read-only during a pick
// and can be shared between concurrent picks.
type Request struct {
	Geometry  GeometryType
	Origin    mgl64.Vec3
	Direction mgl64.Vec3
	Radius    float64
	Mask      uint32
	Sort      SortType
}

// NewRayRequest returns a ray request matching all pick categories.
func NewRayRequest(origin, dir mgl64.Vec3) *Request {
	return &Request{
		Geometry:  GeometryRay,
		Origin:    origin,
		Direction: dir,
		Mask:      AllMask,
		Sort:      SortAllSorted,
	}
}

// Local returns a copy of the request expressed in the space whose
// world-to-local transform is inv.
func (r *Request) Local(inv mgl64.Mat4) Request {
	out := *r
	out.Origin = inv.Mul4x1(r.Origin.Vec4(1)).Vec3()
	out.Direction = inv.Mul4x1(r.Direction.Vec4(0)).Vec3()
	if r.Geometry == GeometrySphere {
		out.Radius = r.Radius * mgl64.ExtractMaxScale(inv)
	}
	return out
}

// Result is one pick hit.
type Result struct {
	// Target is the leaf (or custom node) that was hit.
	Target Target

	// Distance is the ray parameter of the hit along the request's
	// Direction for ray and segment picks, and zero otherwise. It is in
	// world units when Direction has unit length.
	Distance float64

	// World is the accumulated local-to-world transform of Target.
	World mgl64.Mat4
}

// CustomData is the output parameter of CustomTarget.PickChildren.
// Transforms is either empty or parallel to Children.
type CustomData struct {
	Children    []Target
	Transforms  []mgl64.Mat4
	NumChildren int
}

// Reset clears the output for reuse without releasing memory.
func (d *CustomData) Reset() {
	clear(d.Children[:d.NumChildren])
	d.Children = d.Children[:0]
	d.Transforms = d.Transforms[:0]
	d.NumChildren = 0
}

// Add appends a child that uses its parent's transform.
func (d *CustomData) Add(child Target) {
	d.Children = append(d.Children, child)
	if len(d.Transforms) > 0 {
		d.Transforms = append(d.Transforms, mgl64.Ident4())
	}
	d.NumChildren = len(d.Children)
}

// AddWithTransform appends a child together with its local transform.
func (d *CustomData) AddWithTransform(child Target, local mgl64.Mat4) {
	for len(d.Transforms) < len(d.Children) {
		d.Transforms = append(d.Transforms, mgl64.Ident4())
	}
	d.Children = append(d.Children, child)
	d.Transforms = append(d.Transforms, local)
	d.NumChildren = len(d.Children)
}
