// Package sdfview implements an interactive viewer for signed-distance-field
// scenes rendered on the GPU via a ray-marching fragment shader.
//
// The defining feature is hot reloading: the shader program describing the
// scene can be edited and recompiled while the viewer keeps running. The
// moving parts are split into small packages:
//
//   - watch: observes the shader source tree and emits debounced change events
//   - compile: runs the shader toolchain out of process and hands back
//     versioned artifacts (or diagnostics, on failure)
//   - pipeline: owns the active GPU pipeline and swaps it atomically when a
//     newer artifact arrives, retiring superseded pipelines only after the
//     GPU is done with them
//   - render: the per-frame driver tying the above together
//   - scene, sdf: the SDF scene model and the ray-marching evaluator, both as
//     generated WGSL for the GPU and as a deterministic CPU implementation
//     used by the software presenter and the tests
//
// The root package holds what everything shares: the logger, small vector
// math, colors, and the Pixmap pixel buffer.
//
// The viewer never blocks a frame on compilation. Whatever pipeline is
// currently installed keeps rendering; a newly compiled shader takes effect
// on the next presented frame, and a failed compile changes nothing beyond
// an operator-visible diagnostic.
package sdfview
