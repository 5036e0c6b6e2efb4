// Package ifrttest provides an in-memory ifrt implementation that simulates a
// (possibly multi-process) device topology. It backs the tests and examples of
// the runtime layer; no accelerator or plugin is involved.
//
// Devices are declared with DeviceSpec and get sequential ids in declaration
// order. The client is given the process index it observes the topology from,
// so multi-process addressability can be exercised from a single test process.
package ifrttest

import (
	"encoding/binary"
	"fmt"
	"hash/maphash"
	"slices"
	"strings"

	"github.com/QSLee-Net/jax/ifrt"
	"github.com/pkg/errors"
)

// DefaultMemoryKinds are the memory spaces given to devices whose DeviceSpec
// doesn't list any. The first entry is the default memory space.
var DefaultMemoryKinds = []string{"device", "pinned_host"}

// DeviceSpec configures one simulated device.
type DeviceSpec struct {
	// ProcessIndex of the process the device belongs to.
	ProcessIndex int

	// Kind of the device. Defaults to "TestDevice".
	Kind string

	// MemoryKinds lists the memory spaces of the device, the first one being the
	// default. Defaults to DefaultMemoryKinds.
	MemoryKinds []string

	// DefaultMemoryErr, if set, makes Device.DefaultMemory fail with this error.
	// Used to exercise error capturing in callers.
	DefaultMemoryErr error
}

// Memory is an in-memory ifrt.Memory.
type Memory struct {
	kind   string
	device *Device
}

// Kind implements ifrt.Memory.
func (m *Memory) Kind() string { return m.kind }

// DebugString implements ifrt.Memory.
func (m *Memory) DebugString() string {
	return fmt.Sprintf("Memory(kind=%q, device=%d)", m.kind, m.device.id)
}

// Device is an in-memory ifrt.Device.
type Device struct {
	client   *Client
	id       int
	spec     DeviceSpec
	memories []ifrt.Memory
}

// ID implements ifrt.Device.
func (d *Device) ID() int { return d.id }

// ProcessIndex implements ifrt.Device.
func (d *Device) ProcessIndex() int { return d.spec.ProcessIndex }

// Kind implements ifrt.Device.
func (d *Device) Kind() string { return d.spec.Kind }

// DefaultMemory implements ifrt.Device. It fails if the device was configured
// with DeviceSpec.DefaultMemoryErr.
func (d *Device) DefaultMemory() (ifrt.Memory, error) {
	if d.spec.DefaultMemoryErr != nil {
		return nil, errors.WithStack(d.spec.DefaultMemoryErr)
	}
	if len(d.memories) == 0 {
		return nil, errors.Errorf("device %d has no memory spaces", d.id)
	}
	return d.memories[0], nil
}

// Memories implements ifrt.Device.
func (d *Device) Memories() []ifrt.Memory { return d.memories }

// DebugString implements ifrt.Device.
func (d *Device) DebugString() string {
	return fmt.Sprintf("%s(id=%d, process=%d)", d.spec.Kind, d.id, d.spec.ProcessIndex)
}

// Client is an in-memory ifrt.Client over the devices built from the given specs.
type Client struct {
	platform     string
	processIndex int
	devices      []ifrt.Device
}

// NewClient creates an in-memory client simulating the devices described by
// specs, observed from the process with the given processIndex.
func NewClient(platform string, processIndex int, specs ...DeviceSpec) *Client {
	c := &Client{platform: platform, processIndex: processIndex}
	for id, spec := range specs {
		if spec.Kind == "" {
			spec.Kind = "TestDevice"
		}
		if spec.MemoryKinds == nil {
			spec.MemoryKinds = DefaultMemoryKinds
		}
		device := &Device{client: c, id: id, spec: spec}
		for _, kind := range spec.MemoryKinds {
			device.memories = append(device.memories, &Memory{kind: kind, device: device})
		}
		c.devices = append(c.devices, device)
	}
	return c
}

// Platform implements ifrt.Client.
func (c *Client) Platform() string { return c.platform }

// ProcessIndex implements ifrt.Client.
func (c *Client) ProcessIndex() int { return c.processIndex }

// Devices implements ifrt.Client.
func (c *Client) Devices() []ifrt.Device { return c.devices }

// AddressableDevices implements ifrt.Client.
func (c *Client) AddressableDevices() []ifrt.Device {
	var addressable []ifrt.Device
	for _, device := range c.devices {
		if device.ProcessIndex() == c.processIndex {
			addressable = append(addressable, device)
		}
	}
	return addressable
}

// MakeDeviceList implements ifrt.Client: order and duplicates are preserved.
func (c *Client) MakeDeviceList(devices []ifrt.Device) (ifrt.DeviceList, error) {
	return newDeviceList(devices), nil
}

var fingerprintSeed = maphash.MakeSeed()

// DeviceList is an in-memory ifrt.DeviceList. Its fingerprint is structural:
// two lists over the same device handles in the same order fingerprint
// identically, even when built by separate MakeDeviceList calls.
type DeviceList struct {
	devices     []ifrt.Device
	fingerprint uint64
}

func newDeviceList(devices []ifrt.Device) *DeviceList {
	l := &DeviceList{devices: slices.Clone(devices)}
	var h maphash.Hash
	h.SetSeed(fingerprintSeed)
	var buf [8]byte
	for _, device := range l.devices {
		binary.LittleEndian.PutUint64(buf[:], maphash.Comparable(fingerprintSeed, device))
		h.Write(buf[:])
	}
	l.fingerprint = h.Sum64()
	return l
}

// Len implements ifrt.DeviceList.
func (l *DeviceList) Len() int { return len(l.devices) }

// Devices implements ifrt.DeviceList.
func (l *DeviceList) Devices() []ifrt.Device { return l.devices }

// Fingerprint implements ifrt.DeviceList.
func (l *DeviceList) Fingerprint() uint64 { return l.fingerprint }

// Equal implements ifrt.DeviceList.
func (l *DeviceList) Equal(other ifrt.DeviceList) bool {
	if other == nil || l.Len() != other.Len() {
		return false
	}
	otherDevices := other.Devices()
	for i, device := range l.devices {
		if device != otherDevices[i] {
			return false
		}
	}
	return true
}

// String implements fmt.Stringer.
func (l *DeviceList) String() string {
	parts := make([]string, len(l.devices))
	for i, device := range l.devices {
		parts[i] = device.DebugString()
	}
	return "[" + strings.Join(parts, ", ") + "]"
}
