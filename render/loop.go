// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package render

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gogpu/sdfview"
	"github.com/gogpu/sdfview/compile"
	"github.com/gogpu/sdfview/pipeline"
	"github.com/gogpu/sdfview/sdf"
	"github.com/gogpu/sdfview/watch"
)

// DefaultFrameInterval paces the loop at roughly 60 frames per second.
const DefaultFrameInterval = 16 * time.Millisecond

// SourcePoller reports debounced shader source changes.
// *watch.Watcher implements it.
type SourcePoller interface {
	Poll() (*watch.ChangeEvent, bool)
}

// CompileQueue accepts compile jobs and yields their results.
// *compile.Compiler implements it.
type CompileQueue interface {
	Submit(job compile.Job)
	Poll() (*compile.Artifact, *compile.Diagnostic)
}

// LoopOption configures a Loop.
type LoopOption func(*Loop)

// WithFrameInterval sets the frame pacing. A non-positive interval runs
// frames back to back.
func WithFrameInterval(d time.Duration) LoopOption {
	return func(l *Loop) { l.interval = d }
}

// WithFrameLimit stops the loop after n presented frames. Zero means run
// until the context is cancelled.
func WithFrameLimit(n uint64) LoopOption {
	return func(l *Loop) { l.frameLimit = n }
}

// WithCamera sets the camera. Default is sdf.DefaultCamera.
func WithCamera(c sdf.Camera) LoopOption {
	return func(l *Loop) { l.camera = c }
}

// Loop owns one iteration of the viewer: watch, compile, swap, present.
// It runs single-threaded; the watcher and compiler do their blocking work
// on their own goroutines and are only polled here.
type Loop struct {
	source    SourcePoller
	compiler  CompileQueue
	manager   *pipeline.Manager
	presenter Presenter

	camera     sdf.Camera
	interval   time.Duration
	frameLimit uint64

	frame uint64 // last presented frame index, 0 before the first
}

// NewLoop assembles a render loop from its stages.
func NewLoop(source SourcePoller, compiler CompileQueue, manager *pipeline.Manager, presenter Presenter, opts ...LoopOption) *Loop {
	l := &Loop{
		source:    source,
		compiler:  compiler,
		manager:   manager,
		presenter: presenter,
		camera:    sdf.DefaultCamera(),
		interval:  DefaultFrameInterval,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Frame returns the number of frames presented so far.
func (l *Loop) Frame() uint64 { return l.frame }

// Run drives the loop until the context is cancelled, the frame limit is
// reached, or the surface is lost. Compile diagnostics never stop it.
func (l *Loop) Run(ctx context.Context) error {
	var tick <-chan time.Time
	if l.interval > 0 {
		ticker := time.NewTicker(l.interval)
		defer ticker.Stop()
		tick = ticker.C
	}

	start := time.Now()
	for {
		if tick != nil {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-tick:
			}
		} else if err := ctx.Err(); err != nil {
			return err
		}

		if err := l.step(time.Since(start)); err != nil {
			return err
		}
		if l.frameLimit > 0 && l.frame >= l.frameLimit {
			return nil
		}
	}
}

// step runs one frame: forward source changes, apply compile results,
// present, and release retired pipelines.
func (l *Loop) step(elapsed time.Duration) error {
	if ev, ok := l.source.Poll(); ok {
		sdfview.Logger().Info("render: source changed",
			"generation", ev.Generation, "fingerprint", ev.Fingerprint)
		l.compiler.Submit(compile.Job{
			Generation:  ev.Generation,
			Fingerprint: ev.Fingerprint,
		})
	}

	if artifact, diag := l.compiler.Poll(); diag != nil {
		sdfview.Logger().Warn("render: compile failed, keeping previous pipeline",
			"generation", diag.Generation, "error", diag.Err)
	} else if artifact != nil {
		if err := l.manager.Swap(artifact, l.frame); err != nil {
			if errors.Is(err, pipeline.ErrStaleGeneration) {
				sdfview.Logger().Debug("render: dropping stale artifact",
					"generation", artifact.Generation)
			} else {
				sdfview.Logger().Warn("render: pipeline build failed, keeping previous",
					"generation", artifact.Generation, "error", err)
			}
		}
	}

	state := l.manager.Active()
	if state == nil {
		// Nothing compiled yet. Not an error during startup.
		return nil
	}

	w, h := l.presenter.Size()
	fc := FrameContext{
		Width:  w,
		Height: h,
		Time:   float32(elapsed.Seconds()),
		Camera: l.camera,
	}

	l.frame++
	switch err := l.presenter.Present(l.frame, fc, state); {
	case err == nil:
		l.manager.RetireCompleted(l.frame)
	case errors.Is(err, ErrSurfaceOutdated):
		sdfview.Logger().Info("render: surface outdated, reconfiguring",
			"width", w, "height", h)
		if rerr := l.presenter.Reconfigure(w, h); rerr != nil {
			return fmt.Errorf("reconfigure surface: %w", rerr)
		}
	case errors.Is(err, ErrSurfaceLost):
		return fmt.Errorf("present frame %d: %w", l.frame, err)
	default:
		sdfview.Logger().Warn("render: present failed, skipping frame",
			"frame", l.frame, "error", err)
	}

	return nil
}
