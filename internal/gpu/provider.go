package gpu

import (
	"errors"
	"fmt"

	"github.com/gogpu/gpucontext"
	"github.com/gogpu/wgpu/hal"

	"github.com/gogpu/sdfview"
)

// ErrNoHALAccess reports a provider that cannot expose raw HAL handles.
var ErrNoHALAccess = errors.New("gpu: provider does not expose HAL types")

// FromProvider builds a Context on a GPU device shared by a host
// application instead of opening one. The provider must also implement
// HalDevice() any and HalQueue() any returning hal.Device and hal.Queue,
// the way gogpu's context provider does.
//
// The returned context does not own the device; Close leaves it alone.
func FromProvider(provider gpucontext.DeviceProvider) (*Context, error) {
	if provider == nil {
		return nil, fmt.Errorf("gpu: nil device provider")
	}
	type halProvider interface {
		HalDevice() any
		HalQueue() any
	}
	hp, ok := provider.(halProvider)
	if !ok {
		return nil, ErrNoHALAccess
	}
	device, ok := hp.HalDevice().(hal.Device)
	if !ok || device == nil {
		return nil, fmt.Errorf("%w: HalDevice is not hal.Device", ErrNoHALAccess)
	}
	queue, ok := hp.HalQueue().(hal.Queue)
	if !ok || queue == nil {
		return nil, fmt.Errorf("%w: HalQueue is not hal.Queue", ErrNoHALAccess)
	}

	sdfview.Logger().Info("gpu: using shared device from provider")
	return &Context{
		device:   device,
		queue:    queue,
		external: true,
	}, nil
}
