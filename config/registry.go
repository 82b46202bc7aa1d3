// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package config

import (
	"errors"
	"fmt"
	"io"
	"slices"
	"sync"

	"github.com/gogpu/scene3d/device"
	"github.com/gogpu/scene3d/render"
)

// ErrUnknownDevice is returned by Registry.New for an unregistered name.
var ErrUnknownDevice = errors.New("config: unknown device")

// DeviceFactory creates an output device for c. Text devices write to w.
type DeviceFactory func(c *Config, w io.Writer) render.OutputDevice

// Registry maps device names to factories. The zero value is empty and
// ready to use.
type Registry struct {
	mu        sync.RWMutex
	factories map[string]DeviceFactory
}

// NewRegistry returns a registry with the built-in devices: "null",
// "trace" and "raster".
func NewRegistry() *Registry {
	r := &Registry{}
	r.Register("null", func(*Config, io.Writer) render.OutputDevice {
		return device.NewNull()
	})
	r.Register("trace", func(_ *Config, w io.Writer) render.OutputDevice {
		if w == nil {
			w = io.Discard
		}
		return device.NewTrace(w)
	})
	r.Register("raster", func(c *Config, _ io.Writer) render.OutputDevice {
		return device.NewRaster(c.Width, c.Height)
	})
	return r
}

// Register adds a factory under name.
//
// Register panics if factory is nil or name is already registered.
func (r *Registry) Register(name string, factory DeviceFactory) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if factory == nil {
		panic("config: Register factory is nil")
	}
	if _, dup := r.factories[name]; dup {
		panic("config: Register called twice for " + name)
	}
	if r.factories == nil {
		r.factories = make(map[string]DeviceFactory)
	}
	r.factories[name] = factory
}

// Unregister removes name. Unknown names are ignored.
func (r *Registry) Unregister(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.factories, name)
}

// New creates the device c names.
func (r *Registry) New(c *Config, w io.Writer) (render.OutputDevice, error) {
	r.mu.RLock()
	factory, ok := r.factories[c.Device]
	r.mu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("%w %q (known: %v)", ErrUnknownDevice, c.Device, r.Devices())
	}
	return factory(c, w), nil
}

// Devices returns the registered names, sorted.
func (r *Registry) Devices() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.factories))
	for name := range r.factories {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// IsRegistered reports whether name has a factory.
func (r *Registry) IsRegistered(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.factories[name]
	return ok
}

// Len returns the number of registered devices.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.factories)
}
