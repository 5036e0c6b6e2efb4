package ifrttest

import (
	"testing"

	"github.com/QSLee-Net/jax/ifrt"
	"github.com/stretchr/testify/require"
)

func TestClientTopology(t *testing.T) {
	client := NewClient("sim", 1,
		DeviceSpec{ProcessIndex: 0},
		DeviceSpec{ProcessIndex: 1, Kind: "SimGPU"},
		DeviceSpec{ProcessIndex: 1, MemoryKinds: []string{"hbm"}},
	)
	require.Equal(t, "sim", client.Platform())
	require.Equal(t, 1, client.ProcessIndex())

	devices := client.Devices()
	require.Len(t, devices, 3)
	for i, device := range devices {
		require.Equal(t, i, device.ID())
	}
	require.Equal(t, "TestDevice", devices[0].Kind())
	require.Equal(t, "SimGPU", devices[1].Kind())

	addressable := client.AddressableDevices()
	require.Len(t, addressable, 2)
	require.Same(t, devices[1], addressable[0])

	require.Equal(t, DefaultMemoryKinds[0], must1(devices[0].DefaultMemory()).Kind())
	require.Equal(t, "hbm", must1(devices[2].DefaultMemory()).Kind())
	require.Len(t, devices[0].Memories(), len(DefaultMemoryKinds))
}

func TestDeviceListFingerprint(t *testing.T) {
	client := NewClient("sim", 0,
		DeviceSpec{}, DeviceSpec{}, DeviceSpec{})
	devices := client.Devices()

	a := must1(client.MakeDeviceList(devices))
	b := must1(client.MakeDeviceList(devices))
	require.True(t, a.Equal(b))
	require.Equal(t, a.Fingerprint(), b.Fingerprint())

	shorter := must1(client.MakeDeviceList(devices[:2]))
	require.False(t, a.Equal(shorter))
	require.False(t, a.Equal(nil))

	reordered := must1(client.MakeDeviceList([]ifrt.Device{devices[2], devices[1], devices[0]}))
	require.False(t, a.Equal(reordered))
}

func TestDeviceListPreservesOrderAndDuplicates(t *testing.T) {
	client := NewClient("sim", 0, DeviceSpec{}, DeviceSpec{})
	devices := client.Devices()

	list := must1(client.MakeDeviceList([]ifrt.Device{devices[1], devices[0], devices[1]}))
	require.Equal(t, 3, list.Len())
	require.Same(t, devices[1], list.Devices()[0])
	require.Same(t, devices[0], list.Devices()[1])
	require.Same(t, devices[1], list.Devices()[2])
}

func must1[T any](value T, err error) T {
	if err != nil {
		panic(err)
	}
	return value
}
