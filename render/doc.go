// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package render defines the data that flows between the stages of the
// scene3d pipeline and the capability interfaces through which the stages
// see scene nodes.
//
// # Instruction Stream
//
// The sort stage flattens a culled scene into a RenderInstructions
// stream: an ordered sequence of RenderOp tags with one Detail operand
// per tag. START ops open a state block and are closed by their matching
// STOP op; the leaf ops (RenderGeometry, RenderGeometry2D, RenderCustom,
// RenderCustomGeometry) stand alone.
//
//	StartViewport
//	  StartLayer
//	    StartBufferState
//	      SetBufferClear
//	      StartLight
//	        StartRender  (shape)
//	          RenderGeometry
//	        StopRender
//	      StopLight
//	    StopBufferState
//	  StopLayer
//	StopViewport
//
// Buffers are created once per stage and reused every frame. Growth
// copies the valid prefix into new arrays; Resize is an exact, destructive
// capacity change.
//
// # Canonical and Alias Instructions
//
// When two output surfaces reference the same offscreen target, only one
// produces its instructions. The other holds an alias created by AliasOf.
// Readers call Ops, Details and Len, which resolve the alias first.
// SharedTargets hands out the aliases.
//
// # Capabilities
//
// Stages never depend on concrete node types. A node implements any
// subset of Cullable, GroupCullable, TransformCullable, CustomCullable,
// LeafCullable and the Renderable family; missing capabilities are
// skipped, not errors.
//
// # Device Integration
//
// OutputDevice consumes a stream. Devices RECEIVE a GPU device from the
// host through DeviceHandle (an alias for gpucontext.DeviceProvider);
// they never create one.
//
// # Thread Safety
//
// RenderInstructions, CullInstructions and Decoder are NOT thread-safe;
// each pipe owns its own. Capability implementations must be reentrant.
// SharedTargets and InstructionPool are safe for concurrent use.
package render
