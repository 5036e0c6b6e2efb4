package jax

import (
	"io"
	"sync"

	"k8s.io/klog/v2"
)

// GarbageQueue accumulates resources whose release must happen at an explicit
// safe point rather than inline during finalization: releasing a duck-typed
// device sequence may run arbitrary backend code, which is not safe inside a
// Go finalizer.
//
// The zero value is ready to use. Safe for concurrent use.
type GarbageQueue struct {
	mu      sync.Mutex
	pending []io.Closer
}

// Add queues resources for deferred release. It never blocks on the resources
// themselves, so it may be called from finalizers.
func (q *GarbageQueue) Add(resources ...io.Closer) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.pending = append(q.pending, resources...)
}

// Len returns the number of resources currently queued.
func (q *GarbageQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.pending)
}

// Collect releases every resource queued so far and returns how many were
// released. Callers pick a safe point to call it, e.g., between dispatch
// steps. Close errors are logged, not propagated: there is no caller that
// could meaningfully handle them.
func (q *GarbageQueue) Collect() int {
	q.mu.Lock()
	pending := q.pending
	q.pending = nil
	q.mu.Unlock()
	for _, resource := range pending {
		if err := resource.Close(); err != nil {
			klog.Errorf("deferred device cleanup failed: %+v", err)
		}
	}
	return len(pending)
}

var globalGarbageQueue = &GarbageQueue{}

// GlobalGarbageQueue returns the queue that receives the device sequences of
// garbage-collected generic DeviceList instances.
func GlobalGarbageQueue() *GarbageQueue { return globalGarbageQueue }
