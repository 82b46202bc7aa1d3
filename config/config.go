// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package config holds the explicit pipeline configuration: which output
// device and sort policy to use, the threading model, buffer sizing and
// the output surface. A Config is loaded from TOML or built from Default
// and turned into pipe options by its accessor methods.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"slices"

	"github.com/pelletier/go-toml/v2"

	"github.com/gogpu/scene3d/pipe"
	"github.com/gogpu/scene3d/render"
	"github.com/gogpu/scene3d/sorter"
)

// ErrInvalidConfig is wrapped by every validation failure.
var ErrInvalidConfig = errors.New("config: invalid configuration")

// MaxSurfaceSize bounds the output width and height.
const MaxSurfaceSize = 16384

// Config is the pipeline configuration.
type Config struct {
	// Device names the output device in the Registry.
	Device string `toml:"device"`

	// Policy is one of sorter.PolicyNames.
	Policy string `toml:"policy"`

	// Shadows enables shadow generator blocks for the state policy.
	Shadows bool `toml:"shadows"`

	// Threading is "single" or "multi".
	Threading string `toml:"threading"`

	// Workers is the worker count for multi-threaded rendering; zero
	// means GOMAXPROCS.
	Workers int `toml:"workers"`

	// FrameRate limits the frame loop; zero renders as fast as possible.
	FrameRate float64 `toml:"frame_rate"`

	// Frames is the number of frames a batch run renders.
	Frames int `toml:"frames"`

	Width  int `toml:"width"`
	Height int `toml:"height"`

	Instructions Instructions `toml:"instructions"`
	Buffer       Buffer       `toml:"buffer"`
}

// Instructions configures the sort stage output buffer.
type Instructions struct {
	Capacity int    `toml:"capacity"`
	Growth   string `toml:"growth"`
}

// Buffer mirrors render.BufferSetupData.
type Buffer struct {
	DepthBits     int  `toml:"depth_bits"`
	StencilBits   int  `toml:"stencil_bits"`
	Samples       int  `toml:"samples"`
	RenderTargets int  `toml:"render_targets"`
	FloatColor    bool `toml:"float_color"`
	Unclamped     bool `toml:"unclamped"`
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	buf := render.DefaultBufferSetup()
	return &Config{
		Device:    "raster",
		Policy:    "state",
		Shadows:   true,
		Threading: pipe.SingleThreaded.String(),
		Frames:    1,
		Width:     640,
		Height:    480,
		Instructions: Instructions{
			Capacity: render.DefaultInstructionCapacity,
			Growth:   render.GrowGeometric.String(),
		},
		Buffer: Buffer{
			DepthBits:     buf.DepthBits,
			StencilBits:   buf.StencilBits,
			Samples:       buf.NumAASamples,
			RenderTargets: buf.NumRenderTargets,
		},
	}
}

// Load reads and validates a TOML configuration file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	c, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return c, nil
}

// Parse decodes TOML over Default and validates the result. Unknown keys
// are rejected.
func Parse(data []byte) (*Config, error) {
	c := Default()
	dec := toml.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(c); err != nil {
		var sm *toml.StrictMissingError
		if errors.As(err, &sm) {
			return nil, fmt.Errorf("%w: %s", ErrInvalidConfig, sm.String())
		}
		return nil, fmt.Errorf("config: %w", err)
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

// Marshal encodes the configuration as TOML.
func (c *Config) Marshal() ([]byte, error) {
	return toml.Marshal(c)
}

// Validate rejects unknown names and out-of-range sizes.
func (c *Config) Validate() error {
	var errs []error
	bad := func(format string, args ...any) {
		errs = append(errs, fmt.Errorf("%w: "+format, append([]any{ErrInvalidConfig}, args...)...))
	}

	if c.Device == "" {
		bad("empty device name")
	}
	if !slices.Contains(sorter.PolicyNames, c.Policy) {
		bad("unknown policy %q", c.Policy)
	}
	if _, err := pipe.ParseMode(c.Threading); err != nil {
		bad("%v", err)
	}
	if c.Workers < 0 {
		bad("negative worker count %d", c.Workers)
	}
	if c.FrameRate < 0 {
		bad("negative frame rate %g", c.FrameRate)
	}
	if c.Frames < 0 {
		bad("negative frame count %d", c.Frames)
	}
	if c.Width <= 0 || c.Height <= 0 || c.Width > MaxSurfaceSize || c.Height > MaxSurfaceSize {
		bad("surface size %dx%d", c.Width, c.Height)
	}
	if c.Instructions.Capacity < 0 {
		bad("negative instruction capacity %d", c.Instructions.Capacity)
	}
	if _, err := render.ParseGrowthStrategy(c.Instructions.Growth); err != nil {
		bad("%v", err)
	}
	buf := c.BufferSetup()
	if err := buf.Validate(); err != nil {
		bad("%v", err)
	}
	return errors.Join(errs...)
}

// Mode returns the threading mode.
func (c *Config) Mode() pipe.Mode {
	m, _ := pipe.ParseMode(c.Threading)
	return m
}

// BufferSetup returns the buffer setup for every pass.
func (c *Config) BufferSetup() render.BufferSetupData {
	return render.BufferSetupData{
		DepthBits:             c.Buffer.DepthBits,
		StencilBits:           c.Buffer.StencilBits,
		NumAASamples:          c.Buffer.Samples,
		NumRenderTargets:      c.Buffer.RenderTargets,
		UseFloatingPointColor: c.Buffer.FloatColor,
		UseUnclampedColor:     c.Buffer.Unclamped,
	}
}

// SortPolicy returns a fresh policy. Policies keep per-frame state, so
// every pipe needs its own.
func (c *Config) SortPolicy() (sorter.Policy, error) {
	if c.Policy == "state" {
		return sorter.NewStatePolicy(sorter.WithShadows(c.Shadows)), nil
	}
	return sorter.NewPolicy(c.Policy)
}

// NewInstructions returns an empty sort output buffer.
func (c *Config) NewInstructions() (*render.RenderInstructions, error) {
	strategy, err := render.ParseGrowthStrategy(c.Instructions.Growth)
	if err != nil {
		return nil, err
	}
	return render.NewRenderInstructionsWith(strategy, c.Instructions.Capacity)
}

// PipeOptions returns the per-pipe options: sort policy and output
// buffer.
func (c *Config) PipeOptions() ([]pipe.Option, error) {
	policy, err := c.SortPolicy()
	if err != nil {
		return nil, err
	}
	ri, err := c.NewInstructions()
	if err != nil {
		return nil, err
	}
	return []pipe.Option{pipe.WithPolicy(policy), pipe.WithInstructions(ri)}, nil
}

// ManagerOptions returns the manager options.
func (c *Config) ManagerOptions() []pipe.ManagerOption {
	return []pipe.ManagerOption{
		pipe.WithMode(c.Mode()),
		pipe.WithWorkers(c.Workers),
		pipe.WithFrameRate(c.FrameRate),
	}
}
