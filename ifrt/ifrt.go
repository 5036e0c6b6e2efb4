// Package ifrt defines the interface between the runtime device layer (package jax)
// and the underlying accelerator runtime that owns the physical devices, their
// memory spaces and the compiled programs.
//
// The jax package only consumes these interfaces. Concrete implementations are
// provided by accelerator runtimes -- a PJRT-backed implementation lives out of
// tree -- and by the in-memory implementation in the sub-package ifrttest, used
// by tests and examples.
package ifrt

// Device is an opaque handle to one unit of processing capable of executing
// computations: typically a whole GPU/TPU chip, a slice of one, or a CPU NUMA
// node. The handle is owned by its Client and shares its lifetime; this
// package's consumers never destroy devices.
type Device interface {
	// ID returns the id of this device, unique among the devices of its Client.
	ID() int

	// ProcessIndex returns the index of the process this device belongs to, i.e.,
	// is addressable from. In a multi-process setting each client sees devices
	// from all processes, but only the ones whose process index matches the
	// client's are addressable by it.
	ProcessIndex() int

	// Kind is a vendor-dependent string that uniquely identifies the kind of the
	// device, e.g., "Tesla V100-SXM2-16GB".
	Kind() string

	// DefaultMemory returns the memory space new buffers are placed on by default.
	DefaultMemory() (Memory, error)

	// Memories returns all memory spaces attached to this device.
	Memories() []Memory

	// DebugString suitable for logging when errors occur. Should be verbose
	// enough to describe the current device unambiguously.
	DebugString() string
}

// Memory is a memory space attached to one or more devices, e.g., device HBM
// or pinned host memory.
type Memory interface {
	// Kind is the platform-dependent label of this class of memory space, e.g.,
	// "device" or "pinned_host".
	Kind() string

	// DebugString suitable for logging.
	DebugString() string
}

// Client owns a set of devices and is the factory for native device lists.
type Client interface {
	// Platform returns the name of the platform backing this client, e.g., "cpu" or "cuda".
	Platform() string

	// ProcessIndex returns the index of the current process within this client's
	// computation. Always 0 in a single-process setting.
	ProcessIndex() int

	// Devices returns all devices known to the client, including non-addressable ones.
	Devices() []Device

	// AddressableDevices returns the devices the current process can address.
	AddressableDevices() []Device

	// MakeDeviceList builds a native DeviceList from handles owned by this
	// client, preserving order and duplicates.
	MakeDeviceList(devices []Device) (DeviceList, error)
}

// DeviceList is an ordered collection of device handles built by a Client.
//
// Fingerprint and Equal must be consistent: lists that compare Equal (same
// devices in the same order) return the same fingerprint, including lists built
// by separate MakeDeviceList calls.
type DeviceList interface {
	// Len returns the number of devices in the list.
	Len() int

	// Devices returns the handles in list order. The returned slice must not be modified.
	Devices() []Device

	// Fingerprint returns a structural hash of the list, stable within the process.
	Fingerprint() uint64

	// Equal reports whether both lists hold the same devices in the same order.
	Equal(other DeviceList) bool

	// String implements fmt.Stringer.
	String() string
}
