// Package pick defines the capability interfaces through which scene
// nodes expose pickable structure, and a reference Picker that walks them.
//
// Picking is dispatched on a type tag (GROUP, SINGLE, LEAF, CUSTOM) plus
// interface presence, so the pickable shape of a subgraph may differ from
// its renderable shape. Implementations must be reentrant: the same node
// can be visited by several concurrent pick and render passes, so every
// piece of per-call state arrives as an argument.
package pick

import (
	"github.com/go-gl/mathgl/mgl64"

	"github.com/gogpu/scene3d/bounds"
)

// TargetType tags how a Target exposes its pickable structure.
type TargetType uint8

const (
	// TypeGroup marks a target with zero or more pickable children.
	TypeGroup TargetType = iota
	// TypeSingle marks a target with exactly one pickable child.
	TypeSingle
	// TypeLeaf marks a terminal target.
	TypeLeaf
	// TypeCustom marks a target that selects its own children.
	TypeCustom
)

// String returns a human-readable name for the type.
func (t TargetType) String() string {
	switch t {
	case TypeGroup:
		return "Group"
	case TypeSingle:
		return "Single"
	case TypeLeaf:
		return "Leaf"
	case TypeCustom:
		return "Custom"
	default:
		return "Unknown"
	}
}

// Target is a node that can take part in pick queries.
type Target interface {
	// PickTargetType reports how children are exposed.
	PickTargetType() TargetType

	// CheckPickMask reports whether the node's pick category mask shares
	// at least one bit with mask.
	CheckPickMask(mask uint32) bool

	// PickableBounds returns the node's bounds in its local space, the
	// space its children and geometry are placed in. For a
	// TransformTarget that is the space after Transform. A nil volume is
	// treated as unbounded.
	PickableBounds() bounds.Volume
}

// GroupTarget is a Target with an enumerable child list.
type GroupTarget interface {
	Target

	// NumPickableChildren returns the number of valid entries in
	// PickableChildren, or -1 when the group has no valid children at
	// all. Zero means the list exists but is empty.
	NumPickableChildren() int

	// PickableChildren returns the child list. Entries may be nil and
	// must be skipped by callers.
	PickableChildren() []Target
}

// SingleTarget is a Target with exactly one child.
type SingleTarget interface {
	Target

	// PickableChild returns the child, or nil when there is none.
	PickableChild() Target
}

// TransformTarget is a Target that applies a local transform to its
// children.
type TransformTarget interface {
	Target

	// Transform returns the local-to-parent transform.
	Transform() mgl64.Mat4

	// InverseTransform returns the exact inverse of Transform.
	InverseTransform() mgl64.Mat4
}

// CustomTarget is a Target that decides which of its children take part
// in a pick. The dispatcher does not pretest custom targets against the
// pick geometry; the node does its own bounds testing.
type CustomTarget interface {
	Target

	// PickChildren writes the relevant children, and optionally a local
	// transform per child, into out. world is the accumulated
	// local-to-world transform of the node itself.
	PickChildren(out *CustomData, world mgl64.Mat4, req *Request)
}

// Excludable is implemented by nodes that can be explicitly removed from
// picking and traversal regardless of their mask.
type Excludable interface {
	IsExcluded() bool
}

// Mask is a helper that implements CheckPickMask for embedding.
type Mask uint32

// CheckPickMask reports whether m and mask share any bit.
func (m Mask) CheckPickMask(mask uint32) bool {
	return uint32(m)&mask != 0
}

// AllMask matches every pick category.
const AllMask uint32 = 0xFFFFFFFF
