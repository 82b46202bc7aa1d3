// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package scenefile

import (
	"fmt"
	"image/color"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Color is an NRGBA color written either as a hex string ("#rrggbb" or
// "#rrggbbaa") or as a sequence of three or four 0-255 channels.
type Color color.NRGBA

// NRGBA returns the color as a color.NRGBA.
func (c Color) NRGBA() color.NRGBA { return color.NRGBA(c) }

// UnmarshalYAML implements yaml.Unmarshaler.
func (c *Color) UnmarshalYAML(value *yaml.Node) error {
	switch value.Kind {
	case yaml.ScalarNode:
		return c.parseHex(value.Value)
	case yaml.SequenceNode:
		var ch []uint8
		if err := value.Decode(&ch); err != nil {
			return err
		}
		switch len(ch) {
		case 3:
			*c = Color{ch[0], ch[1], ch[2], 255}
		case 4:
			*c = Color{ch[0], ch[1], ch[2], ch[3]}
		default:
			return fmt.Errorf("line %d: color needs 3 or 4 channels, got %d", value.Line, len(ch))
		}
		return nil
	default:
		return fmt.Errorf("line %d: invalid color", value.Line)
	}
}

func (c *Color) parseHex(s string) error {
	hex := strings.TrimPrefix(s, "#")
	if len(hex) != 6 && len(hex) != 8 {
		return fmt.Errorf("invalid hex color %q", s)
	}
	v, err := strconv.ParseUint(hex, 16, 32)
	if err != nil {
		return fmt.Errorf("invalid hex color %q", s)
	}
	if len(hex) == 6 {
		v = v<<8 | 0xff
	}
	*c = Color{uint8(v >> 24), uint8(v >> 16), uint8(v >> 8), uint8(v)}
	return nil
}
