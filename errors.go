package jax

import "github.com/pkg/errors"

// Sentinel errors returned (wrapped) by DeviceList operations. Use errors.Is
// to discriminate them.
var (
	// ErrIndexOutOfRange is returned by DeviceList.GetItem for an index outside
	// [-Len(), Len()).
	ErrIndexOutOfRange = errors.New("device list index out of range")

	// ErrEmptyDeviceList is returned by queries that have no sensible answer on
	// an empty list, like DeviceList.DeviceKind.
	ErrEmptyDeviceList = errors.New("device list is empty")

	// ErrNotNative is returned by operations that require the native
	// representation when the list holds duck-typed devices, e.g., because it
	// was built from devices of multiple clients.
	ErrNotNative = errors.New("device list contains non-native devices")

	// ErrZeroSliceStep is returned by DeviceList.GetSlice when Slice.Step is zero.
	ErrZeroSliceStep = errors.New("slice step cannot be zero")
)
