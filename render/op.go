// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package render

// RenderOp is a single operation tag in a RenderInstructions stream.
// The operand for each op is held at the same index in the parallel
// Detail array.
//
// Ops come in START/STOP pairs that bracket state, except for the leaf
// draw ops and the single-shot SET ops. Pairs nest strictly.
type RenderOp uint8

// RenderOp constants. The operand each op reads from its Detail is noted
// in its comment. A STOP op that restores renderable state carries the
// same Renderable as its START op.
const (
	// OpInvalid is the zero value and never appears in a valid stream.
	OpInvalid RenderOp = iota

	// StartRender calls Renderable.Render. Detail: Renderable, optional
	// Transform and Inverse.
	StartRender
	// StopRender calls StatefulRenderable.PostRender if implemented.
	// Detail: Renderable, as for the matching StartRender.
	StopRender

	// RenderGeometry draws a geometry leaf. Detail: Renderable, Transform.
	RenderGeometry
	// RenderGeometry2D draws screen-space geometry. Detail: Renderable.
	RenderGeometry2D
	// RenderCustom draws a custom renderable with the instructions it
	// produced during sort. Detail: Renderable, Custom, Transform.
	RenderCustom
	// RenderCustomGeometry draws custom geometry inside an appearance.
	// Detail: Renderable, Custom, Transform.
	RenderCustomGeometry

	// StartState applies an appearance component. Detail: Renderable.
	StartState
	// StopState removes an appearance component.
	StopState

	// StartLight enables a light. Detail: Renderable, Transform.
	StartLight
	// StopLight disables a light.
	StopLight

	// StartTransparent begins the blended, depth-sorted block.
	StartTransparent
	// StopTransparent ends the blended block.
	StopTransparent

	// StartShadow begins geometry that receives shadows.
	StartShadow
	// StopShadow ends shadow receiving geometry.
	StopShadow
	// StartShadowGenerator begins the shadow map generation pass.
	StartShadowGenerator
	// StopShadowGenerator ends the shadow map generation pass.
	StopShadowGenerator

	// StartClipPlane enables a clip plane. Detail: Renderable, Transform.
	StartClipPlane
	// StopClipPlane disables a clip plane.
	StopClipPlane

	// StartFog enables fog. Detail: Renderable.
	StartFog
	// StopFog disables fog.
	StopFog

	// StartShaderProgram binds a shader program. Detail: Renderable.
	StartShaderProgram
	// StopShaderProgram unbinds a shader program.
	StopShaderProgram
	// SetShaderArgs uploads shader arguments. Detail: Renderable.
	SetShaderArgs

	// StartTexture binds a texture unit. Detail: Renderable.
	StartTexture
	// StopTexture unbinds a texture unit.
	StopTexture

	// StartLayer begins a composited layer. Detail: Layer.
	StartLayer
	// StopLayer ends a layer.
	StopLayer

	// StartViewport begins a viewport. Detail: Viewport.
	StartViewport
	// StopViewport ends a viewport.
	StopViewport

	// StartMultipass begins a multipass block. Detail: Layer.
	StartMultipass
	// StopMultipass ends a multipass block.
	StopMultipass
	// StartMultipassPass begins one pass. Detail: Pass.
	StartMultipassPass
	// StopMultipassPass ends one pass.
	StopMultipassPass

	// StartBufferState applies a buffer configuration. Detail: Buffer.
	StartBufferState
	// SetBufferClear clears buffers. Detail: Clear.
	SetBufferClear
	// ChangeBufferState changes buffer configuration mid-pass. Detail: Buffer.
	ChangeBufferState
	// StopBufferState restores the previous buffer configuration.
	StopBufferState

	// SetViewportState sets the viewport rectangle and the pass view and
	// projection. Detail: Viewport, Env.
	SetViewportState
	// StopViewportState restores the previous viewport rectangle.
	StopViewportState

	numOps
)

var opNames = [numOps]string{
	OpInvalid:            "Invalid",
	StartRender:          "StartRender",
	StopRender:           "StopRender",
	RenderGeometry:       "RenderGeometry",
	RenderGeometry2D:     "RenderGeometry2D",
	RenderCustom:         "RenderCustom",
	RenderCustomGeometry: "RenderCustomGeometry",
	StartState:           "StartState",
	StopState:            "StopState",
	StartLight:           "StartLight",
	StopLight:            "StopLight",
	StartTransparent:     "StartTransparent",
	StopTransparent:      "StopTransparent",
	StartShadow:          "StartShadow",
	StopShadow:           "StopShadow",
	StartShadowGenerator: "StartShadowGenerator",
	StopShadowGenerator:  "StopShadowGenerator",
	StartClipPlane:       "StartClipPlane",
	StopClipPlane:        "StopClipPlane",
	StartFog:             "StartFog",
	StopFog:              "StopFog",
	StartShaderProgram:   "StartShaderProgram",
	StopShaderProgram:    "StopShaderProgram",
	SetShaderArgs:        "SetShaderArgs",
	StartTexture:         "StartTexture",
	StopTexture:          "StopTexture",
	StartLayer:           "StartLayer",
	StopLayer:            "StopLayer",
	StartViewport:        "StartViewport",
	StopViewport:         "StopViewport",
	StartMultipass:       "StartMultipass",
	StopMultipass:        "StopMultipass",
	StartMultipassPass:   "StartMultipassPass",
	StopMultipassPass:    "StopMultipassPass",
	StartBufferState:     "StartBufferState",
	SetBufferClear:       "SetBufferClear",
	ChangeBufferState:    "ChangeBufferState",
	StopBufferState:      "StopBufferState",
	SetViewportState:     "SetViewportState",
	StopViewportState:    "StopViewportState",
}

// pairs maps every opening op to its closing op.
var pairs = map[RenderOp]RenderOp{
	StartRender:          StopRender,
	StartState:           StopState,
	StartLight:           StopLight,
	StartTransparent:     StopTransparent,
	StartShadow:          StopShadow,
	StartShadowGenerator: StopShadowGenerator,
	StartClipPlane:       StopClipPlane,
	StartFog:             StopFog,
	StartShaderProgram:   StopShaderProgram,
	StartTexture:         StopTexture,
	StartLayer:           StopLayer,
	StartViewport:        StopViewport,
	StartMultipass:       StopMultipass,
	StartMultipassPass:   StopMultipassPass,
	StartBufferState:     StopBufferState,
	SetViewportState:     StopViewportState,
}

var closers = func() map[RenderOp]RenderOp {
	m := make(map[RenderOp]RenderOp, len(pairs))
	for open, stop := range pairs {
		m[stop] = open
	}
	return m
}()

// String returns a human-readable name for the op.
func (op RenderOp) String() string {
	if op < numOps {
		return opNames[op]
	}
	return "Unknown"
}

// Valid reports whether op is a defined, non-zero op.
func (op RenderOp) Valid() bool {
	return op > OpInvalid && op < numOps
}

// IsStart reports whether op opens a bracket that a later op closes.
func (op RenderOp) IsStart() bool {
	_, ok := pairs[op]
	return ok
}

// IsStop reports whether op closes a bracket.
func (op RenderOp) IsStop() bool {
	_, ok := closers[op]
	return ok
}

// IsLeaf reports whether op is a terminal draw op that never receives a
// matching post-op.
func (op RenderOp) IsLeaf() bool {
	switch op {
	case RenderGeometry, RenderGeometry2D, RenderCustom, RenderCustomGeometry:
		return true
	default:
		return false
	}
}

// Matching returns the op that closes op, or opens it when op is a STOP.
// Ops without a partner return OpInvalid.
func (op RenderOp) Matching() RenderOp {
	if m, ok := pairs[op]; ok {
		return m
	}
	if m, ok := closers[op]; ok {
		return m
	}
	return OpInvalid
}
