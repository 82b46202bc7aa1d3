// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package cache provides a generic thread-safe LRU cache.
//
//	c := cache.New[string, *node.TriangleGeometry](256)
//	g := c.GetOrCreate("box", func() *node.TriangleGeometry { ... })
//
// A Cache must not be copied after first use.
package cache
