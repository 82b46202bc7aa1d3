// Package node provides a reference set of scene graph nodes implementing
// the render and pick capability interfaces.
//
// Nodes are read concurrently by every pipe rendering the scene and by
// pickers. None of them keeps per-traversal state. Mutating methods
// (Add, Set*, Remove) must only be called while no pipe is culling, which
// the render manager guarantees inside its update window.
package node

import (
	"image/color"
	"sync/atomic"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/gogpu/scene3d/pick"
	"github.com/gogpu/scene3d/render"
)

// Node is implemented by every node of the graph.
type Node interface {
	render.Cullable
	pick.Target
}

var lastID atomic.Uint64

// nextID returns a process-unique state identifier.
func nextID() uint64 {
	return lastID.Add(1)
}

// base holds the pick attributes shared by all nodes.
type base struct {
	name     string
	mask     pick.Mask
	excluded bool
}

func newBase(name string) base {
	return base{name: name, mask: pick.Mask(pick.AllMask)}
}

// Name returns the node name.
func (b *base) Name() string { return b.name }

// SetName sets the node name.
func (b *base) SetName(name string) { b.name = name }

// CheckPickMask implements pick.Target.
func (b *base) CheckPickMask(mask uint32) bool { return b.mask.CheckPickMask(mask) }

// SetPickMask sets the pick categories of the node.
func (b *base) SetPickMask(mask uint32) { b.mask = pick.Mask(mask) }

// IsExcluded reports whether the node was removed from picking and
// traversal.
func (b *base) IsExcluded() bool { return b.excluded }

// SetExcluded removes the node from picking and traversal.
func (b *base) SetExcluded(excluded bool) { b.excluded = excluded }

// TriangleSink is implemented by draw contexts that rasterize geometry.
// Vertices are in the local space of the current model-view transform.
type TriangleSink interface {
	DrawTriangles(vertices []mgl64.Vec3, c color.NRGBA)
	DrawTriangles2D(vertices []mgl64.Vec2, c color.NRGBA)
}

// StateSink is implemented by draw contexts that apply appearance and
// effect state. Directions and planes are given in eye space.
type StateSink interface {
	PushTint(c color.NRGBA)
	PopTint()
	EnableLight(id uint64, dir mgl64.Vec3, c color.NRGBA)
	DisableLight(id uint64)
	EnableClipPlane(id uint64, plane mgl64.Vec4)
	DisableClipPlane(id uint64)
	EnableFog(c color.NRGBA, near, far float64)
	DisableFog()
}

// SpatialContext is implemented by draw contexts that expose the inverse
// world transform the sorter attached to a spatialized renderable.
type SpatialContext interface {
	InverseWorld() (mgl64.Mat4, bool)
	Eye() mgl64.Vec3
}

// AudioSink is implemented by draw contexts that place sound sources.
// listener is the listener position in the source's local space.
type AudioSink interface {
	PlaceSource(id uint64, listener mgl64.Vec3, gain float64)
}
