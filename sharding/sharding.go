// Package sharding describes how the shards of a distributed array are placed
// on devices.
//
// It provides the small placement layer dispatch logic needs: which devices
// hold data (always expressed as a jax.DeviceList), in which memory kind, and
// the compatibility checks performed before transferring between placements.
// The sharding propagation rule set itself lives elsewhere.
package sharding

import (
	"fmt"
	"slices"

	"github.com/QSLee-Net/jax"
	"github.com/QSLee-Net/jax/types"
	"github.com/pkg/errors"
)

// Sharding is a placement of array shards onto an ordered list of devices.
type Sharding interface {
	// DeviceList returns the device list backing the sharding.
	DeviceList() *jax.DeviceList

	// MemoryKind returns the memory kind the data lives in, or "" for the
	// devices' default memory kind.
	MemoryKind() string

	// String implements fmt.Stringer.
	String() string
}

// NumDevices returns the number of devices the sharding spans.
func NumDevices(s Sharding) int { return s.DeviceList().Len() }

// IsFullyAddressable reports whether the current process can address every
// device of the sharding.
func IsFullyAddressable(s Sharding) bool { return s.DeviceList().IsFullyAddressable() }

// AddressableDevices returns the devices of the sharding addressable by the
// current process, in list order.
func AddressableDevices(s Sharding) []jax.DeviceLike {
	return s.DeviceList().AddressableDeviceList().AsTuple()
}

// DeviceSet returns the (unordered) set of devices of the sharding.
func DeviceSet(s Sharding) types.Set[jax.DeviceLike] {
	return types.SetWith(s.DeviceList().AsTuple()...)
}

// SingleDeviceSharding places the whole array on one device.
type SingleDeviceSharding struct {
	device     jax.DeviceLike
	memoryKind string
	devices    *jax.DeviceList
}

// NewSingleDeviceSharding returns a Sharding placing everything on device.
// memoryKind may be "" for the device's default memory kind.
func NewSingleDeviceSharding(device jax.DeviceLike, memoryKind string) *SingleDeviceSharding {
	return &SingleDeviceSharding{
		device:     device,
		memoryKind: memoryKind,
		devices:    jax.DeviceListFromSequence([]jax.DeviceLike{device}),
	}
}

// Device returns the one device holding the data.
func (s *SingleDeviceSharding) Device() jax.DeviceLike { return s.device }

// DeviceList implements Sharding.
func (s *SingleDeviceSharding) DeviceList() *jax.DeviceList { return s.devices }

// MemoryKind implements Sharding.
func (s *SingleDeviceSharding) MemoryKind() string { return s.memoryKind }

// String implements fmt.Stringer.
func (s *SingleDeviceSharding) String() string {
	return fmt.Sprintf("SingleDeviceSharding(%v, memory_kind=%q)", s.device, s.memoryKind)
}

// DeviceListSharding shards an array across all devices of a list, one shard
// per position.
type DeviceListSharding struct {
	devices    *jax.DeviceList
	memoryKind string
}

// NewDeviceListSharding returns a Sharding spanning all devices of the list.
// memoryKind may be "" for the devices' default memory kind.
func NewDeviceListSharding(devices *jax.DeviceList, memoryKind string) *DeviceListSharding {
	return &DeviceListSharding{devices: devices, memoryKind: memoryKind}
}

// DeviceList implements Sharding.
func (s *DeviceListSharding) DeviceList() *jax.DeviceList { return s.devices }

// MemoryKind implements Sharding.
func (s *DeviceListSharding) MemoryKind() string { return s.memoryKind }

// String implements fmt.Stringer.
func (s *DeviceListSharding) String() string {
	return fmt.Sprintf("DeviceListSharding(%s, memory_kind=%q)", s.devices, s.memoryKind)
}

// CheckCompatible verifies that data can be transferred between the two
// placements: the device kinds must match and the placements must span the
// same set of processes. Shardings over duck-typed device lists cannot be
// checked and are rejected with jax.ErrNotNative.
func CheckCompatible(src, dst Sharding) error {
	srcKind, err := src.DeviceList().DeviceKind()
	if err != nil {
		return errors.WithMessagef(err, "source sharding %s", src)
	}
	dstKind, err := dst.DeviceList().DeviceKind()
	if err != nil {
		return errors.WithMessagef(err, "destination sharding %s", dst)
	}
	if srcKind != dstKind {
		return errors.Errorf("cannot transfer between different device kinds: %q vs %q", srcKind, dstKind)
	}
	if !src.DeviceList().ProcessIndices().Equal(dst.DeviceList().ProcessIndices()) {
		return errors.Errorf("cannot transfer between shardings spanning different processes: %v vs %v",
			types.Sorted(src.DeviceList().ProcessIndices()), types.Sorted(dst.DeviceList().ProcessIndices()))
	}
	return nil
}

// ValidateMemoryKind checks that the sharding's memory kind is one supported
// by its devices. A "" memory kind always validates, standing for the default.
func ValidateMemoryKind(s Sharding) error {
	kind := s.MemoryKind()
	if kind == "" {
		return nil
	}
	kinds, err := s.DeviceList().MemoryKinds()
	if err != nil {
		return err
	}
	if !slices.Contains(kinds, kind) {
		return errors.Errorf("memory kind %q is not supported by the devices of %s (available: %q)", kind, s, kinds)
	}
	return nil
}
