// Package gpu opens the HAL device and adapts it to the viewer's
// pipeline and presenter interfaces.
package gpu

import (
	"fmt"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"

	// Import Vulkan backend so it registers via init().
	_ "github.com/gogpu/wgpu/hal/vulkan"

	"github.com/gogpu/sdfview"
)

// Context owns the HAL instance, device, and queue for the viewer's
// lifetime.
type Context struct {
	instance hal.Instance
	device   hal.Device
	queue    hal.Queue
	external bool

	// AdapterName is the selected GPU's reported name.
	AdapterName string
}

// Open initializes the Vulkan backend and opens a device on the best
// available adapter, preferring discrete over integrated GPUs.
func Open() (*Context, error) {
	backend, ok := hal.GetBackend(gputypes.BackendVulkan)
	if !ok {
		return nil, fmt.Errorf("vulkan backend not available")
	}

	instance, err := backend.CreateInstance(&hal.InstanceDescriptor{Flags: 0})
	if err != nil {
		return nil, fmt.Errorf("create instance: %w", err)
	}

	adapters := instance.EnumerateAdapters(nil)
	if len(adapters) == 0 {
		instance.Destroy()
		return nil, fmt.Errorf("no GPU adapters found")
	}

	var selected *hal.ExposedAdapter
	for i := range adapters {
		if adapters[i].Info.DeviceType == gputypes.DeviceTypeDiscreteGPU {
			selected = &adapters[i]
			break
		}
	}
	if selected == nil {
		for i := range adapters {
			if adapters[i].Info.DeviceType == gputypes.DeviceTypeIntegratedGPU {
				selected = &adapters[i]
				break
			}
		}
	}
	if selected == nil {
		selected = &adapters[0]
	}

	openDev, err := selected.Adapter.Open(gputypes.Features(0), gputypes.DefaultLimits())
	if err != nil {
		instance.Destroy()
		return nil, fmt.Errorf("open device: %w", err)
	}

	sdfview.Logger().Info("gpu: device opened", "adapter", selected.Info.Name)
	return &Context{
		instance:    instance,
		device:      openDev.Device,
		queue:       openDev.Queue,
		AdapterName: selected.Info.Name,
	}, nil
}

// Device returns the HAL device.
func (c *Context) Device() hal.Device { return c.device }

// Queue returns the HAL queue.
func (c *Context) Queue() hal.Queue { return c.queue }

// Close destroys the device and instance. Callers must destroy all
// resources created from the device first. A context built from an
// external provider leaves the shared device alone.
func (c *Context) Close() {
	if c.external {
		c.device = nil
		c.queue = nil
		return
	}
	if c.device != nil {
		c.device.Destroy()
		c.device = nil
	}
	if c.instance != nil {
		c.instance.Destroy()
		c.instance = nil
	}
	c.queue = nil
}
