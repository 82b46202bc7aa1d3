// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package device provides reference output devices for the render
// pipeline.
//
// Three devices are included:
//   - Null discards the stream. Use it to measure cull and sort cost.
//   - Trace writes an indented listing of every op and checks that the
//     stream nests properly.
//   - Raster executes the stream on the CPU, filling flat-shaded
//     triangles into an *image.RGBA with golang.org/x/image/vector and
//     compositing layers by z-order.
//
// Real GPU devices live outside this module. They implement
// render.OutputDevice and receive the host GPU through render.DeviceHandle.
//
// A device is owned by one pipe and is not safe for concurrent Draw calls.
package device
