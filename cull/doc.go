// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package cull implements the first pipeline stage: it walks a scene graph
// through the render capability interfaces, accumulates world transforms,
// tests bounds against the view frustum and flattens the visible
// renderables into an Output for the sort stage.
//
// Custom cullable nodes are never pretested; they receive the world
// transform, view and frustum and list the children to visit themselves.
package cull
