package jax

import (
	"fmt"
	"sync"

	"github.com/QSLee-Net/jax/ifrt"
	"github.com/pkg/errors"
)

// Client wraps an ifrt.Client and is the single source of truth mapping native
// device handles to their canonical *Device wrappers. Many DeviceList
// instances share one Client; from this layer's perspective it is read-only.
type Client struct {
	ifrtClient ifrt.Client

	mu       sync.Mutex
	wrappers map[ifrt.Device]*Device
}

// NewClient wraps an ifrt.Client into the runtime-layer client that hands out
// canonical device wrappers.
func NewClient(ifrtClient ifrt.Client) *Client {
	return &Client{
		ifrtClient: ifrtClient,
		wrappers:   make(map[ifrt.Device]*Device),
	}
}

// Platform returns the name of the platform backing this client.
func (c *Client) Platform() string { return c.ifrtClient.Platform() }

// ProcessIndex returns the index of the current process. Always 0 in a
// single-process setting.
func (c *Client) ProcessIndex() int { return c.ifrtClient.ProcessIndex() }

// GetDevice returns the canonical wrapper for the given device handle:
// repeated lookups of the same handle return the same *Device.
func (c *Client) GetDevice(handle ifrt.Device) *Device {
	c.mu.Lock()
	defer c.mu.Unlock()
	wrapper, found := c.wrappers[handle]
	if !found {
		wrapper = &Device{client: c, handle: handle}
		c.wrappers[handle] = wrapper
	}
	return wrapper
}

// Devices returns the canonical wrappers for all devices known to the client,
// including non-addressable ones.
func (c *Client) Devices() []*Device {
	handles := c.ifrtClient.Devices()
	devices := make([]*Device, len(handles))
	for i, handle := range handles {
		devices[i] = c.GetDevice(handle)
	}
	return devices
}

// AddressableDevices returns the canonical wrappers for the devices the
// current process can address.
func (c *Client) AddressableDevices() []*Device {
	handles := c.ifrtClient.AddressableDevices()
	devices := make([]*Device, len(handles))
	for i, handle := range handles {
		devices[i] = c.GetDevice(handle)
	}
	return devices
}

// MakeDeviceList builds a native-backed DeviceList from wrappers owned by this
// client, preserving order and duplicates.
func (c *Client) MakeDeviceList(devices ...*Device) (*DeviceList, error) {
	handles := make([]ifrt.Device, len(devices))
	for i, device := range devices {
		if device.client != c {
			return nil, errors.Errorf("device %s belongs to a different client", device)
		}
		handles[i] = device.handle
	}
	native, err := c.ifrtClient.MakeDeviceList(handles)
	if err != nil {
		return nil, errors.Wrapf(err, "%s failed to build a device list", c)
	}
	return NewDeviceList(c, native), nil
}

// String implements fmt.Stringer.
func (c *Client) String() string {
	return fmt.Sprintf("Client[%s, process=%d]", c.Platform(), c.ProcessIndex())
}
