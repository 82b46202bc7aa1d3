// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package sorter implements the second pipeline stage: it orders the
// cull output and flattens it into a render.RenderInstructions stream.
//
// Ordering is delegated to a Policy:
//
//   - NullPolicy wraps each renderable in StartRender/StopRender in input order.
//   - TransparencyPolicy moves blended nodes into a back-to-front block.
//   - StatePolicy batches by effect scope and component state, adds the
//     shadow generator block and draws screen-space nodes last.
//
// A Stage delivers finished streams to its Receiver. Halt is cooperative:
// policies check the Signal between nodes, and a halted sort is never
// delivered.
package sorter
