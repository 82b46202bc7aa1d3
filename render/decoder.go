// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package render

// Decoder provides sequential reading of a RenderInstructions stream.
// It resolves aliases once at construction and tracks a single cursor
// into the op and operand arrays.
//
// Example usage:
//
//	dec := NewDecoder(instr)
//	for dec.Next() {
//	    switch dec.Op() {
//	    case StartRender:
//	        d := dec.Detail()
//	        d.Renderable.Render(ctx)
//	    case StartLight:
//	        // push light
//	    }
//	}
type Decoder struct {
	ops     []RenderOp
	details []Detail
	pos     int
	depth   int
}

// NewDecoder creates a decoder for the given instructions.
// Returns nil if instr is nil.
func NewDecoder(instr *RenderInstructions) *Decoder {
	if instr == nil {
		return nil
	}
	d := &Decoder{}
	d.Reset(instr)
	return d
}

// Reset points the decoder at the beginning of instr.
func (d *Decoder) Reset(instr *RenderInstructions) {
	d.ops = instr.Ops()
	d.details = instr.Details()
	d.pos = -1
	d.depth = 0
}

// Next advances to the next op.
// Returns true if there is another op, false when iteration is complete.
func (d *Decoder) Next() bool {
	if d.pos+1 >= len(d.ops) {
		d.pos = len(d.ops)
		return false
	}
	if d.pos >= 0 && d.ops[d.pos].IsStart() {
		d.depth++
	}
	d.pos++
	if d.ops[d.pos].IsStop() {
		d.depth--
	}
	return true
}

// Op returns the current op.
func (d *Decoder) Op() RenderOp {
	if d.pos < 0 || d.pos >= len(d.ops) {
		return OpInvalid
	}
	return d.ops[d.pos]
}

// Detail returns the operand of the current op.
func (d *Decoder) Detail() *Detail {
	if d.pos < 0 || d.pos >= len(d.details) {
		return nil
	}
	return &d.details[d.pos]
}

// Peek returns the next op without advancing the decoder.
// Returns OpInvalid at end of stream.
func (d *Decoder) Peek() RenderOp {
	if d.pos+1 >= len(d.ops) {
		return OpInvalid
	}
	return d.ops[d.pos+1]
}

// HasMore returns true if there are more ops to decode.
func (d *Decoder) HasMore() bool {
	return d.pos+1 < len(d.ops)
}

// Position returns the index of the current op.
func (d *Decoder) Position() int {
	return d.pos
}

// Depth returns the bracket nesting depth of the current op. A START op
// and its matching STOP op report the same depth.
func (d *Decoder) Depth() int {
	return d.depth
}

// Skip advances past the STOP op that closes the current START op.
// It does nothing when the current op is not a START op.
func (d *Decoder) Skip() {
	if !d.Op().IsStart() {
		return
	}
	target := d.depth
	for d.Next() {
		if d.Op().IsStop() && d.depth == target {
			return
		}
	}
}
