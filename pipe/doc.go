// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package pipe drives the render pipeline.
//
// A Pipe binds one frame composition to one output device and runs the
// cull stage, the sort stage and the device draw for every frame. A
// Manager owns a set of pipes, brackets each frame with the update
// window in which listeners may change the scene graph and pick, and
// renders the pipes either one after another or concurrently on a
// worker pool.
//
//	mgr := pipe.NewManager(pipe.WithMode(pipe.MultiThreaded))
//	_, err := mgr.NewPipe(device.NewRaster(640, 480), frame)
//	...
//	mgr.AddUpdateListener(pipe.UpdateFunc(func(ctx context.Context, n int) error {
//		spin.SetTransform(mgl64.HomogRotate3DY(float64(n) * 0.01))
//		return nil
//	}))
//	err = mgr.Run(ctx)
package pipe
