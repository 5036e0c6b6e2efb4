package jax

import (
	"github.com/QSLee-Net/jax/ifrt"
)

// DeviceLike is the minimal capability an element of a DeviceList must
// provide. Both *Device (the native wrapper) and device types of alternative
// backends implement it: whether a value is "device-like" is an interface
// check, never reflection over attributes.
//
// Implementations must have a comparable dynamic type (pointer types are the
// norm): DeviceList hashes and compares its elements with ==.
type DeviceLike interface {
	// ProcessIndex returns the index of the process the device belongs to.
	ProcessIndex() int
}

// ClientProcessIndexer is the capability of reporting the process index of the
// process that owns the device's client, i.e., the "current" process from the
// device's point of view. DeviceList uses it to resolve addressability for
// duck-typed devices.
type ClientProcessIndexer interface {
	ClientProcessIndex() int
}

// MemorySpaceProvider is the capability of describing the memory spaces
// attached to a device. DeviceList uses it for memory-kind queries on
// duck-typed devices.
type MemorySpaceProvider interface {
	// DefaultMemory returns the memory space buffers default to.
	DefaultMemory() (ifrt.Memory, error)

	// AddressableMemories returns all memory spaces of the device.
	AddressableMemories() []ifrt.Memory
}

// Device is the canonical wrapper of a native device handle. Wrappers are
// created by their Client and are identity-stable: looking up the same handle
// repeatedly always returns the same *Device, so wrappers can be compared and
// hashed by identity.
type Device struct {
	client *Client
	handle ifrt.Device
}

var (
	_ DeviceLike           = (*Device)(nil)
	_ ClientProcessIndexer = (*Device)(nil)
	_ MemorySpaceProvider  = (*Device)(nil)
)

// Client returns the Client that owns this device.
func (d *Device) Client() *Client { return d.client }

// ID returns the id of the device, unique within its client.
func (d *Device) ID() int { return d.handle.ID() }

// ProcessIndex returns the index of the process this device belongs to.
func (d *Device) ProcessIndex() int { return d.handle.ProcessIndex() }

// ClientProcessIndex returns the process index of the current process, as
// reported by the owning client.
func (d *Device) ClientProcessIndex() int { return d.client.ProcessIndex() }

// Kind is the vendor-dependent string identifying the kind of the device.
func (d *Device) Kind() string { return d.handle.Kind() }

// DefaultMemory returns the memory space buffers placed on this device default to.
func (d *Device) DefaultMemory() (ifrt.Memory, error) { return d.handle.DefaultMemory() }

// AddressableMemories returns all memory spaces attached to this device.
func (d *Device) AddressableMemories() []ifrt.Memory { return d.handle.Memories() }

// String implements fmt.Stringer.
func (d *Device) String() string { return d.handle.DebugString() }
