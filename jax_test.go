package jax

// Common initialization and testing tools for all test files.

import (
	"fmt"

	"github.com/QSLee-Net/jax/ifrt"
	"github.com/QSLee-Net/jax/ifrt/ifrttest"
	"github.com/pkg/errors"
	"k8s.io/klog/v2"
)

func init() {
	klog.InitFlags(nil)
}

func must(err error) {
	if err != nil {
		panic(fmt.Sprintf("Failed: %+v", errors.WithStack(err)))
	}
}

func must1[T any](t T, err error) T {
	must(err)
	return t
}

// newTestClient builds the reference test topology: 4 devices spread over 2
// processes (2 devices each), observed from process 0.
func newTestClient() *Client {
	return NewClient(ifrttest.NewClient("test", 0,
		ifrttest.DeviceSpec{ProcessIndex: 0},
		ifrttest.DeviceSpec{ProcessIndex: 0},
		ifrttest.DeviceSpec{ProcessIndex: 1},
		ifrttest.DeviceSpec{ProcessIndex: 1},
	))
}

// deviceLikes converts wrappers to the element type DeviceListFromSequence takes.
func deviceLikes(devices []*Device) []DeviceLike {
	out := make([]DeviceLike, len(devices))
	for i, device := range devices {
		out[i] = device
	}
	return out
}

// duckDevice simulates a device of an alternative backend: it implements the
// device capabilities without being a *Device.
type duckDevice struct {
	id            int
	processIndex  int
	clientProcess int
	memoryKinds   []string
	memoryErr     error
	closed        bool
}

var (
	_ DeviceLike           = (*duckDevice)(nil)
	_ ClientProcessIndexer = (*duckDevice)(nil)
	_ MemorySpaceProvider  = (*duckDevice)(nil)
)

func (d *duckDevice) ProcessIndex() int       { return d.processIndex }
func (d *duckDevice) ClientProcessIndex() int { return d.clientProcess }

func (d *duckDevice) DefaultMemory() (ifrt.Memory, error) {
	if d.memoryErr != nil {
		return nil, d.memoryErr
	}
	if len(d.memoryKinds) == 0 {
		return nil, errors.Errorf("duck device %d has no memories", d.id)
	}
	return duckMemory{kind: d.memoryKinds[0]}, nil
}

func (d *duckDevice) AddressableMemories() []ifrt.Memory {
	memories := make([]ifrt.Memory, len(d.memoryKinds))
	for i, kind := range d.memoryKinds {
		memories[i] = duckMemory{kind: kind}
	}
	return memories
}

func (d *duckDevice) Close() error {
	d.closed = true
	return nil
}

func (d *duckDevice) String() string { return fmt.Sprintf("DuckDevice(%d)", d.id) }

type duckMemory struct{ kind string }

func (m duckMemory) Kind() string        { return m.kind }
func (m duckMemory) DebugString() string { return "DuckMemory(" + m.kind + ")" }

// minimalDevice only provides the mandatory capability.
type minimalDevice struct{ processIndex int }

func (d *minimalDevice) ProcessIndex() int { return d.processIndex }
