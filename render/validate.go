// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package render

import (
	"errors"
	"fmt"
)

// ErrUnbalanced is returned by Validate for a stream whose START and STOP
// ops do not nest properly.
var ErrUnbalanced = errors.New("render: unbalanced instruction stream")

// Validate checks that every op is defined, that every START op is closed
// by its matching STOP op and that brackets nest strictly.
func Validate(ops []RenderOp) error {
	stack := make([]RenderOp, 0, 16)
	for i, op := range ops {
		switch {
		case !op.Valid():
			return fmt.Errorf("%w: invalid op %d at %d", ErrUnbalanced, op, i)
		case op.IsStart():
			stack = append(stack, op)
		case op.IsStop():
			if len(stack) == 0 {
				return fmt.Errorf("%w: %s at %d closes nothing", ErrUnbalanced, op, i)
			}
			top := stack[len(stack)-1]
			if top.Matching() != op {
				return fmt.Errorf("%w: %s at %d closes %s", ErrUnbalanced, op, i, top)
			}
			stack = stack[:len(stack)-1]
		}
	}
	if len(stack) > 0 {
		return fmt.Errorf("%w: %s left open", ErrUnbalanced, stack[len(stack)-1])
	}
	return nil
}
