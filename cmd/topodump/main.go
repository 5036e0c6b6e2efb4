// topodump prints the device topology and the derived device-list properties
// for a simulated multi-process configuration. It is a debugging aid to reason
// about addressability and memory kinds without any accelerator attached.
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/QSLee-Net/jax"
	"github.com/QSLee-Net/jax/ifrt/ifrttest"
	"github.com/QSLee-Net/jax/types"
	"github.com/janpfeifer/must"
	"k8s.io/klog/v2"
)

var (
	flagProcesses = flag.Int("processes", 2, "Number of processes in the simulated topology")
	flagPerProc   = flag.Int("devices_per_process", 2, "Number of devices per process")
	flagProcess   = flag.Int("process", 0, "Process index the topology is observed from")
	flagKind      = flag.String("kind", "TestDevice", "Device kind of every simulated device")
)

func main() {
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, `topodump simulates a multi-process device topology and prints the
properties derived from its device list: process indices, addressability,
device kind and memory kinds.

Usage:
`)
		flag.PrintDefaults()
	}
	klog.InitFlags(flag.CommandLine)
	flag.Parse()

	var specs []ifrttest.DeviceSpec
	for process := range *flagProcesses {
		for range *flagPerProc {
			specs = append(specs, ifrttest.DeviceSpec{ProcessIndex: process, Kind: *flagKind})
		}
	}
	client := jax.NewClient(ifrttest.NewClient("sim", *flagProcess, specs...))
	fmt.Printf("%s with %d devices\n", client, len(client.Devices()))

	devices := make([]jax.DeviceLike, 0, len(client.Devices()))
	for _, device := range client.Devices() {
		devices = append(devices, device)
	}
	list := jax.DeviceListFromSequence(devices)
	fmt.Printf("  device list: %s\n", list)
	fmt.Printf("  hash: %016x\n", list.Hash())
	fmt.Printf("  process indices: %v\n", types.Sorted(list.ProcessIndices()))
	fmt.Printf("  fully addressable: %v\n", list.IsFullyAddressable())
	fmt.Printf("  addressable sub-list: %s\n", list.AddressableDeviceList())
	fmt.Printf("  device kind: %s\n", must.M1(list.DeviceKind()))
	fmt.Printf("  default memory kind: %s\n", must.M1(list.DefaultMemoryKind()))
	fmt.Printf("  memory kinds: %q\n", must.M1(list.MemoryKinds()))
}
