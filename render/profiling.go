// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package render

import (
	"fmt"
	"time"
)

// ProfilingData records per-frame timings for the pipeline stages.
// Each stage writes only its own field.
type ProfilingData struct {
	CullTime   time.Duration
	SortTime   time.Duration
	DrawTime   time.Duration
	RenderTime time.Duration

	// NumSortInput is the number of culled nodes handed to the sorter.
	NumSortInput int
}

// Reset zeroes all counters.
func (p *ProfilingData) Reset() {
	*p = ProfilingData{}
}

// Total returns the sum of the stage timings.
func (p *ProfilingData) Total() time.Duration {
	return p.CullTime + p.SortTime + p.DrawTime
}

// String returns a one-line summary.
func (p *ProfilingData) String() string {
	return fmt.Sprintf("cull=%s sort=%s draw=%s render=%s nodes=%d",
		p.CullTime, p.SortTime, p.DrawTime, p.RenderTime, p.NumSortInput)
}
