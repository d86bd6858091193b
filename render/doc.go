// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package render drives the viewer's frame loop.
//
// Each tick the loop polls the source watcher, forwards changes to the
// compiler, applies finished artifacts to the pipeline manager, and presents
// one frame through a Presenter. Compile failures are reported and the last
// good pipeline keeps rendering; only surface loss or context cancellation
// stops the loop.
package render
