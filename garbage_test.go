package jax

import (
	"runtime"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"
)

type closerFunc func() error

func (f closerFunc) Close() error { return f() }

func TestGarbageQueue(t *testing.T) {
	var q GarbageQueue
	require.Equal(t, 0, q.Collect())

	var closed int
	closer := closerFunc(func() error {
		closed++
		return nil
	})
	q.Add(closer, closer)
	q.Add(closerFunc(func() error { return errors.New("cleanup failed") })) // Logged, not propagated.
	require.Equal(t, 3, q.Len())

	require.Equal(t, 3, q.Collect())
	require.Equal(t, 2, closed)
	require.Equal(t, 0, q.Len())
	require.Equal(t, 0, q.Collect())
}

// makeCollectableList builds a generic DeviceList in a separate frame so the
// caller holds no live reference to it.
func makeCollectableList(ducks []DeviceLike) uint64 {
	list := DeviceListFromSequence(ducks)
	return list.Hash()
}

func TestGenericListDefersCleanupToGarbageQueue(t *testing.T) {
	queue := GlobalGarbageQueue()

	ducks := []DeviceLike{&duckDevice{id: 0}, &duckDevice{id: 1}}
	_ = makeCollectableList(ducks)

	// Finalization only queues the sequence; the devices are closed at the next
	// explicit Collect. Other tests' collected lists may share the global queue,
	// so only our own ducks are asserted on.
	closed := func() bool {
		return ducks[0].(*duckDevice).closed && ducks[1].(*duckDevice).closed
	}
	deadline := time.Now().Add(5 * time.Second)
	for !closed() && time.Now().Before(deadline) {
		runtime.GC()
		time.Sleep(time.Millisecond)
		queue.Collect()
	}
	require.True(t, closed())
}
