// Package scene3d is a retained-mode 3D scene graph with a multi-stage
// render pipeline.
//
// # Overview
//
// A frame is produced in three stages that are decoupled by reusable
// instruction buffers:
//
//	scene graph ──▶ cull ──▶ sort ──▶ output device
//	               (cull)  (sorter)   (device)
//
//   - The cull stage walks the graph through capability interfaces,
//     accumulates world transforms and tests bounds against the view
//     frustum, producing a flat list of culled leaves.
//   - The sort stage orders the culled leaves (state batching, depth
//     sorted transparency, shadow grouping) and flattens them into a
//     render.RenderInstructions stream of render.RenderOp tags with a
//     parallel operand array.
//   - The output device executes the stream against an opaque graphics
//     sink and reports render.ProfilingData back.
//
// The pipe package sequences the stages per frame, either on a single
// goroutine or with one goroutine per pipe when several output surfaces
// render the same graph.
//
// # Capabilities
//
// Stages never depend on concrete node types. A node participates by
// implementing zero or more small interfaces (render.GroupCullable,
// render.TransformCullable, render.CustomCullable, pick.GroupTarget, ...)
// and the stages dispatch on interface presence. The node package
// provides a reference set of nodes.
//
// # Thread Safety
//
// The scene graph may be traversed concurrently by several pipes. All
// per-traversal state lives in the caller-owned stage and output
// structures, never on a node. Stage values themselves are owned by a
// single pipe and are not safe for concurrent use.
//
// # Logging
//
// scene3d is silent by default. Call SetLogger to route diagnostics to a
// log/slog logger.
package scene3d

// Version information
const (
	// Version is the current version of the library
	Version = "0.3.0"

	// VersionMajor is the major version
	VersionMajor = 0

	// VersionMinor is the minor version
	VersionMinor = 3

	// VersionPatch is the patch version
	VersionPatch = 0
)
