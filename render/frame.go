// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package render

import (
	"encoding/binary"
	"math"

	"github.com/gogpu/sdfview/sdf"
)

// ParamsSize is the byte size of the per-frame uniform buffer.
// Layout (std140-compatible):
//
//	resolution (vec2<f32>) at offset 0
//	time       (f32)       at offset 8
//	fov        (f32)       at offset 12
//	origin     (vec3<f32>) at offset 16
//	padding    (f32)       at offset 28
const ParamsSize = 32

// FrameContext carries everything needed to render one frame.
type FrameContext struct {
	// Width and Height are the target dimensions in pixels.
	Width, Height uint32

	// Time is seconds since the loop started.
	Time float32

	// Camera positions the viewer.
	Camera sdf.Camera
}

// Pack serializes the frame parameters into the uniform buffer layout the
// scene shader declares at group 0, binding 0.
func (fc FrameContext) Pack() []byte {
	buf := make([]byte, ParamsSize)
	putF32 := func(off int, v float32) {
		binary.LittleEndian.PutUint32(buf[off:], math.Float32bits(v))
	}
	putF32(0, float32(fc.Width))
	putF32(4, float32(fc.Height))
	putF32(8, fc.Time)
	putF32(12, fc.Camera.FOV)
	putF32(16, fc.Camera.Origin.X)
	putF32(20, fc.Camera.Origin.Y)
	putF32(24, fc.Camera.Origin.Z)
	// Bytes 28..31 stay zero.
	return buf
}
