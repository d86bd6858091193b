// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package render

import (
	"errors"

	"github.com/gogpu/sdfview/pipeline"
)

// Surface errors a Presenter reports from Present.
var (
	// ErrSurfaceOutdated means the target no longer matches its
	// configuration (resized window). The loop reconfigures and skips
	// the frame.
	ErrSurfaceOutdated = errors.New("render: surface outdated")

	// ErrSurfaceLost means the target is gone for good. The loop stops.
	ErrSurfaceLost = errors.New("render: surface lost")
)

// Presenter renders frames to some target: a window surface, an offscreen
// texture with readback, or a CPU rasterizer.
//
// Present blocks until the GPU (if any) has finished the frame, so when it
// returns nil the frame index is fully complete and resources referenced by
// it may be released.
type Presenter interface {
	// Size returns the current target dimensions.
	Size() (width, height uint32)

	// Present renders one frame with the given pipeline state.
	Present(frame uint64, fc FrameContext, state *pipeline.State) error

	// Reconfigure resizes the target after ErrSurfaceOutdated.
	Reconfigure(width, height uint32) error

	// Close releases the target's resources.
	Close() error
}
