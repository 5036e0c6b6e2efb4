package sharding

import (
	"testing"

	"github.com/QSLee-Net/jax"
	"github.com/QSLee-Net/jax/ifrt/ifrttest"
	"github.com/QSLee-Net/jax/types"
	"github.com/stretchr/testify/require"
)

// newTestClient builds 4 devices over 2 processes, observed from process 0.
func newTestClient(kind string) *jax.Client {
	return jax.NewClient(ifrttest.NewClient("test", 0,
		ifrttest.DeviceSpec{ProcessIndex: 0, Kind: kind},
		ifrttest.DeviceSpec{ProcessIndex: 0, Kind: kind},
		ifrttest.DeviceSpec{ProcessIndex: 1, Kind: kind},
		ifrttest.DeviceSpec{ProcessIndex: 1, Kind: kind},
	))
}

func allDevicesList(t *testing.T, client *jax.Client) *jax.DeviceList {
	list, err := client.MakeDeviceList(client.Devices()...)
	require.NoError(t, err)
	return list
}

func TestSingleDeviceSharding(t *testing.T) {
	client := newTestClient("TestDevice")
	device := client.Devices()[0]
	s := NewSingleDeviceSharding(device, "")

	require.Equal(t, 1, NumDevices(s))
	require.True(t, IsFullyAddressable(s))
	require.Same(t, device, s.Device())
	require.Equal(t, []jax.DeviceLike{device}, AddressableDevices(s))
	require.True(t, DeviceSet(s).Equal(types.SetWith[jax.DeviceLike](device)))

	// The sequence constructor upgraded the backing list to native.
	kind, err := s.DeviceList().DeviceKind()
	require.NoError(t, err)
	require.Equal(t, "TestDevice", kind)
}

func TestDeviceListSharding(t *testing.T) {
	client := newTestClient("TestDevice")
	s := NewDeviceListSharding(allDevicesList(t, client), "")

	require.Equal(t, 4, NumDevices(s))
	require.False(t, IsFullyAddressable(s))
	addressable := AddressableDevices(s)
	require.Len(t, addressable, 2)
	for _, device := range addressable {
		require.Equal(t, 0, device.ProcessIndex())
	}
}

func TestCheckCompatible(t *testing.T) {
	client := newTestClient("TestDevice")
	all := NewDeviceListSharding(allDevicesList(t, client), "")

	t.Run("sameKindAndProcesses", func(t *testing.T) {
		other := NewDeviceListSharding(allDevicesList(t, client), "pinned_host")
		require.NoError(t, CheckCompatible(all, other))
	})

	t.Run("differentKinds", func(t *testing.T) {
		gpuClient := newTestClient("SimGPU")
		gpu := NewDeviceListSharding(allDevicesList(t, gpuClient), "")
		require.ErrorContains(t, CheckCompatible(all, gpu), "different device kinds")
	})

	t.Run("differentProcesses", func(t *testing.T) {
		local, err := client.MakeDeviceList(client.AddressableDevices()...)
		require.NoError(t, err)
		localSharding := NewDeviceListSharding(local, "")
		require.ErrorContains(t, CheckCompatible(all, localSharding), "different processes")
	})

	t.Run("duckTypedRejected", func(t *testing.T) {
		duck := NewDeviceListSharding(jax.DeviceListFromSequence(nil), "")
		err := CheckCompatible(duck, all)
		require.ErrorIs(t, err, jax.ErrNotNative)
	})
}

func TestValidateMemoryKind(t *testing.T) {
	client := newTestClient("TestDevice")
	list := allDevicesList(t, client)

	require.NoError(t, ValidateMemoryKind(NewDeviceListSharding(list, "")))
	require.NoError(t, ValidateMemoryKind(NewDeviceListSharding(list, "pinned_host")))

	err := ValidateMemoryKind(NewDeviceListSharding(list, "floppy_disk"))
	require.ErrorContains(t, err, `memory kind "floppy_disk"`)
}
