package gpu

import (
	"errors"
	"testing"

	"github.com/gogpu/gpucontext"
	"github.com/gogpu/gputypes"
)

type mockDevice struct{}

func (m *mockDevice) Poll(wait bool) {}
func (m *mockDevice) Destroy()       {}

type mockQueue struct{}

type mockAdapter struct{}

// mockProvider implements gpucontext.DeviceProvider without HAL access.
type mockProvider struct{}

func (m *mockProvider) Device() gpucontext.Device             { return &mockDevice{} }
func (m *mockProvider) Queue() gpucontext.Queue               { return &mockQueue{} }
func (m *mockProvider) Adapter() gpucontext.Adapter           { return &mockAdapter{} }
func (m *mockProvider) SurfaceFormat() gputypes.TextureFormat { return gputypes.TextureFormatBGRA8Unorm }
func (m *mockProvider) AdapterInfo() gpucontext.AdapterInfo   { return gpucontext.AdapterInfo{} }

// halMockProvider claims HAL access but hands back the wrong types.
type halMockProvider struct {
	mockProvider
}

func (m *halMockProvider) HalDevice() any { return "not a device" }
func (m *halMockProvider) HalQueue() any  { return "not a queue" }

func TestFromProviderNil(t *testing.T) {
	if _, err := FromProvider(nil); err == nil {
		t.Fatal("expected error for nil provider")
	}
}

func TestFromProviderNoHALAccess(t *testing.T) {
	_, err := FromProvider(&mockProvider{})
	if !errors.Is(err, ErrNoHALAccess) {
		t.Fatalf("err = %v, want ErrNoHALAccess", err)
	}
}

func TestFromProviderWrongHALTypes(t *testing.T) {
	_, err := FromProvider(&halMockProvider{})
	if !errors.Is(err, ErrNoHALAccess) {
		t.Fatalf("err = %v, want ErrNoHALAccess", err)
	}
}
