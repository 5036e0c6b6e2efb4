package jax

import (
	"encoding/binary"
	"fmt"
	"hash/maphash"
	"io"
	"iter"
	"runtime"
	"slices"
	"strings"
	"sync"

	"github.com/QSLee-Net/jax/ifrt"
	"github.com/QSLee-Net/jax/types"
	"github.com/gomlx/exceptions"
	"github.com/pkg/errors"
	"k8s.io/klog/v2"
)

// DeviceList is an ordered collection of devices participating in a sharded
// computation. It is the key type shardings and dispatch logic hash and
// compare in hot paths, so hashing and equality are cheap and memoized.
//
// A DeviceList has one of two representations, fixed at construction:
// native-backed (an ifrt.DeviceList plus the Client all devices belong to) or
// generic (an ordered sequence of DeviceLike values from an alternative
// backend). All operations behave the same regardless of representation.
//
// Instances are logically immutable. The derived queries -- Hash,
// ProcessIndices, IsFullyAddressable, AddressableDeviceList, DeviceKind and
// the memory-kind queries -- are computed once, on first use, under the
// instance's own lock, and cached for the life of the instance. Equal-valued
// instances may coexist; there is no global deduplication.
//
// Safe for concurrent use.
type DeviceList struct {
	rep representationKind

	// client owns every device of a native-backed list. Nil for generic lists.
	client *Client
	native ifrt.DeviceList

	generic []DeviceLike

	mu sync.Mutex
	// Derived values below are write-once, guarded by mu.
	hash               *uint64
	processIndices     types.Set[int]
	isFullyAddressable *bool
	addressable        *DeviceList
	memoryKinds        *memoryKindInfo
	deviceKind         *string
}

// memoryKindInfo is the single memoized record behind DefaultMemoryKind and
// MemoryKinds: either the resolved kinds or the captured failure.
type memoryKindInfo struct {
	defaultKind string
	kinds       []string
	err         error
}

// NewDeviceList creates a DeviceList backed by a native device list. All
// devices of the native list must be owned by client, which must not be nil.
// Ordering and duplicates are taken as-is from the native list.
func NewDeviceList(client *Client, native ifrt.DeviceList) *DeviceList {
	return &DeviceList{rep: representationNative, client: client, native: native}
}

// DeviceListFromSequence builds a DeviceList from an arbitrary ordered
// sequence of device-like values.
//
// It attempts a one-shot upgrade to the native representation: if every
// element is a *Device and all belong to the same client, the client builds a
// native list from the underlying handles, in order. Any element from another
// backend, or a mix of clients, keeps the sequence as the generic
// representation -- that is a representation choice, never an error.
//
// Reconstructing a list from DeviceList.Dump goes through here, so
// DeviceListFromSequence(x.Dump()) is always Equal to x.
func DeviceListFromSequence(devices []DeviceLike) *DeviceList {
	dl := &DeviceList{rep: representationGeneric, generic: slices.Clone(devices)}
	if len(devices) == 0 {
		return dl
	}
	var client *Client
	handles := make([]ifrt.Device, 0, len(devices))
	for _, deviceLike := range devices {
		device, ok := deviceLike.(*Device)
		if !ok {
			// Element from an alternative backend: keep the duck-typed sequence.
			registerGenericCleanup(dl)
			return dl
		}
		if client == nil {
			client = device.client
		} else if device.client != client {
			// Mixed-client lists are not representable natively.
			klog.V(1).Infof("DeviceListFromSequence: devices from multiple clients, keeping the generic representation")
			registerGenericCleanup(dl)
			return dl
		}
		handles = append(handles, device.handle)
	}
	native, err := client.ifrtClient.MakeDeviceList(handles)
	if err != nil {
		klog.V(1).Infof("DeviceListFromSequence: %s could not build a native device list (%v), keeping the generic representation", client, err)
		registerGenericCleanup(dl)
		return dl
	}
	dl.rep = representationNative
	dl.client = client
	dl.native = native
	dl.generic = nil
	return dl
}

// registerGenericCleanup hands the duck-typed device sequence of a collected
// DeviceList to the global garbage queue instead of letting element cleanup
// run inside the finalizer.
func registerGenericCleanup(dl *DeviceList) {
	var closers []io.Closer
	for _, device := range dl.generic {
		if closer, ok := device.(io.Closer); ok {
			closers = append(closers, closer)
		}
	}
	if len(closers) == 0 {
		return
	}
	runtime.SetFinalizer(dl, func(*DeviceList) {
		GlobalGarbageQueue().Add(closers...)
	})
}

// panicUnrecognized flags a corrupted representation tag. Representations are
// a closed two-value set, so this is unreachable in correct code.
func panicUnrecognized(rep representationKind) {
	exceptions.Panicf("unrecognized DeviceList representation %s", rep)
}

// Client returns the client owning the devices of a native-backed list, or
// nil for a generic one.
func (dl *DeviceList) Client() *Client { return dl.client }

// NativeDeviceList returns the underlying ifrt.DeviceList, or ErrNotNative if
// the list holds duck-typed devices.
func (dl *DeviceList) NativeDeviceList() (ifrt.DeviceList, error) {
	switch dl.rep {
	case representationNative:
		return dl.native, nil
	case representationGeneric:
		return nil, errors.WithStack(ErrNotNative)
	}
	panicUnrecognized(dl.rep)
	return nil, nil
}

// Len returns the number of devices in the list.
func (dl *DeviceList) Len() int {
	switch dl.rep {
	case representationNative:
		return dl.native.Len()
	case representationGeneric:
		return len(dl.generic)
	}
	panicUnrecognized(dl.rep)
	return 0
}

// GetItem returns the device at the given position. Negative indices count
// from the end: GetItem(-1) is the last device. Indices outside [-Len(), Len())
// return ErrIndexOutOfRange.
func (dl *DeviceList) GetItem(index int) (DeviceLike, error) {
	n := dl.Len()
	if index < -n || index >= n {
		return nil, errors.Wrapf(ErrIndexOutOfRange, "index %d on a list of %d devices", index, n)
	}
	if index < 0 {
		index += n
	}
	switch dl.rep {
	case representationNative:
		return dl.client.GetDevice(dl.native.Devices()[index]), nil
	case representationGeneric:
		return dl.generic[index], nil
	}
	panicUnrecognized(dl.rep)
	return nil, nil
}

// GetSlice materializes the sub-sequence selected by slice, with conventional
// slice semantics including negative bounds and negative step. The result is a
// plain ordered slice of devices, not a new DeviceList.
func (dl *DeviceList) GetSlice(slice Slice) ([]DeviceLike, error) {
	start, step, sliceLen, err := slice.indices(dl.Len())
	if err != nil {
		return nil, err
	}
	out := make([]DeviceLike, 0, sliceLen)
	switch dl.rep {
	case representationNative:
		handles := dl.native.Devices()
		for i, pos := 0, start; i < sliceLen; i, pos = i+1, pos+step {
			out = append(out, dl.client.GetDevice(handles[pos]))
		}
	case representationGeneric:
		for i, pos := 0, start; i < sliceLen; i, pos = i+1, pos+step {
			out = append(out, dl.generic[pos])
		}
	default:
		panicUnrecognized(dl.rep)
	}
	return out, nil
}

// All iterates over the devices in list order. Every call returns an
// independent, restartable iteration; the DeviceList itself holds no cursor.
func (dl *DeviceList) All() iter.Seq[DeviceLike] {
	switch dl.rep {
	case representationNative:
		return func(yield func(DeviceLike) bool) {
			for _, handle := range dl.native.Devices() {
				if !yield(dl.client.GetDevice(handle)) {
					return
				}
			}
		}
	case representationGeneric:
		return func(yield func(DeviceLike) bool) {
			for _, device := range dl.generic {
				if !yield(device) {
					return
				}
			}
		}
	}
	panicUnrecognized(dl.rep)
	return nil
}

// AsTuple materializes the canonical ordered sequence of devices, the form
// used wherever a comparable representation is needed. The returned slice
// must not be modified.
func (dl *DeviceList) AsTuple() []DeviceLike {
	switch dl.rep {
	case representationNative:
		handles := dl.native.Devices()
		out := make([]DeviceLike, len(handles))
		for i, handle := range handles {
			out[i] = dl.client.GetDevice(handle)
		}
		return out
	case representationGeneric:
		return dl.generic
	}
	panicUnrecognized(dl.rep)
	return nil
}

// Dump reduces the list to its canonical device sequence.
// DeviceListFromSequence reconstructs an equal list from it.
func (dl *DeviceList) Dump() []DeviceLike { return dl.AsTuple() }

// String implements fmt.Stringer.
func (dl *DeviceList) String() string {
	devices := dl.AsTuple()
	if len(devices) == 1 {
		return fmt.Sprintf("(%v,)", devices[0])
	}
	parts := make([]string, len(devices))
	for i, device := range devices {
		parts[i] = fmt.Sprintf("%v", device)
	}
	return "(" + strings.Join(parts, ", ") + ")"
}

var deviceListHashSeed = maphash.MakeSeed()

// Hash returns the structural hash of the list, memoized on first use. Lists
// that compare Equal hash identically, so a DeviceList can serve as a mapping
// key. Hashing only ever takes the instance's own lock.
func (dl *DeviceList) Hash() uint64 {
	dl.mu.Lock()
	defer dl.mu.Unlock()
	return dl.hashLocked()
}

func (dl *DeviceList) hashLocked() uint64 {
	if dl.hash != nil {
		return *dl.hash
	}
	var h uint64
	if dl.Len() == 0 {
		// Empty lists hash alike in both representations, so an empty native
		// list stays equal to its reconstruction from an (empty) dump.
		h = maphash.Bytes(deviceListHashSeed, nil)
		dl.hash = &h
		return h
	}
	switch dl.rep {
	case representationNative:
		h = dl.native.Fingerprint()
	case representationGeneric:
		var mh maphash.Hash
		mh.SetSeed(deviceListHashSeed)
		var buf [8]byte
		for _, device := range dl.generic {
			binary.LittleEndian.PutUint64(buf[:], maphash.Comparable(deviceListHashSeed, device))
			mh.Write(buf[:])
		}
		h = mh.Sum64()
	default:
		panicUnrecognized(dl.rep)
	}
	dl.hash = &h
	return h
}

// Equal reports whether both lists hold the same devices in the same order.
//
// Identity short-circuits to true. Otherwise each side's hash is read under
// that side's own lock -- never both locks at once -- and unequal hashes imply
// inequality. On a hash match the structural comparison runs with no locks
// held: native-to-native compares the underlying ifrt lists, anything else
// compares the canonical tuples element-wise.
func (dl *DeviceList) Equal(other *DeviceList) bool {
	if other == nil {
		return false
	}
	if dl == other {
		return true
	}
	dl.mu.Lock()
	h1 := dl.hashLocked()
	dl.mu.Unlock()
	other.mu.Lock()
	h2 := other.hashLocked()
	other.mu.Unlock()
	if h1 != h2 {
		return false
	}
	if dl.rep == representationNative && other.rep == representationNative {
		return dl.native.Equal(other.native)
	}
	a, b := dl.AsTuple(), other.AsTuple()
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// NotEqual is the negation of Equal.
func (dl *DeviceList) NotEqual(other *DeviceList) bool { return !dl.Equal(other) }

// ProcessIndices returns the set of process indices touched by the devices in
// the list. Memoized; the returned set is shared and must not be modified.
func (dl *DeviceList) ProcessIndices() types.Set[int] {
	dl.mu.Lock()
	defer dl.mu.Unlock()
	return dl.processIndicesLocked()
}

func (dl *DeviceList) processIndicesLocked() types.Set[int] {
	if dl.processIndices != nil {
		return dl.processIndices
	}
	indices := types.MakeSet[int]()
	switch dl.rep {
	case representationNative:
		for _, device := range dl.native.Devices() {
			indices.Insert(device.ProcessIndex())
		}
	case representationGeneric:
		for _, device := range dl.generic {
			indices.Insert(device.ProcessIndex())
		}
	default:
		panicUnrecognized(dl.rep)
	}
	dl.processIndices = indices
	return indices
}

// IsFullyAddressable reports whether every device in the list is addressable
// by the current process: the devices span exactly one process, and it is the
// current one. Memoized. An empty list is not fully addressable.
func (dl *DeviceList) IsFullyAddressable() bool {
	dl.mu.Lock()
	defer dl.mu.Unlock()
	return dl.isFullyAddressableLocked()
}

func (dl *DeviceList) isFullyAddressableLocked() bool {
	if dl.isFullyAddressable == nil {
		result := false
		if indices := dl.processIndicesLocked(); len(indices) == 1 {
			result = indices.Has(dl.currentProcessIndex())
		}
		dl.isFullyAddressable = &result
	}
	return *dl.isFullyAddressable
}

// currentProcessIndex resolves the process index the list is viewed from: the
// owning client's for the native representation, or the first device's
// owning-client lookup for the generic one. 0 when no client is known.
func (dl *DeviceList) currentProcessIndex() int {
	switch dl.rep {
	case representationNative:
		if dl.client == nil {
			return 0
		}
		return dl.client.ProcessIndex()
	case representationGeneric:
		if len(dl.generic) > 0 {
			if indexer, ok := dl.generic[0].(ClientProcessIndexer); ok {
				return indexer.ClientProcessIndex()
			}
		}
		return 0
	}
	panicUnrecognized(dl.rep)
	return 0
}

// AddressableDeviceList returns the sub-list of devices addressable by the
// current process.
//
// If the receiver is already fully addressable it returns the receiver itself:
// a shared reference that, by contract, is never stored in the cache field, so
// the ownership graph cannot cycle through the cache. Otherwise the filtered
// list is built once, through the representation-appropriate path, and
// memoized: repeated calls return the same instance.
func (dl *DeviceList) AddressableDeviceList() *DeviceList {
	dl.mu.Lock()
	defer dl.mu.Unlock()
	if dl.isFullyAddressableLocked() {
		return dl
	}
	if dl.addressable != nil {
		return dl.addressable
	}
	switch dl.rep {
	case representationNative:
		processIndex := dl.currentProcessIndex()
		var addressable []ifrt.Device
		for _, device := range dl.native.Devices() {
			if device.ProcessIndex() == processIndex {
				addressable = append(addressable, device)
			}
		}
		native, err := dl.client.ifrtClient.MakeDeviceList(addressable)
		if err != nil {
			exceptions.Panicf("%s failed to build the addressable device list: %+v", dl.client, err)
		}
		dl.addressable = NewDeviceList(dl.client, native)
	case representationGeneric:
		var addressable []DeviceLike
		for _, device := range dl.generic {
			indexer, ok := device.(ClientProcessIndexer)
			if ok && device.ProcessIndex() == indexer.ClientProcessIndex() {
				addressable = append(addressable, device)
			}
		}
		dl.addressable = DeviceListFromSequence(addressable)
	default:
		panicUnrecognized(dl.rep)
	}
	return dl.addressable
}

// DeviceKind returns the platform kind string of the devices in the list.
// Memoized. Only the first device is inspected: devices of one list are
// assumed homogeneous.
//
// It requires the native representation (ErrNotNative otherwise) and a
// non-empty list (ErrEmptyDeviceList otherwise); there is no duck-typed
// fallback for this query.
func (dl *DeviceList) DeviceKind() (string, error) {
	dl.mu.Lock()
	defer dl.mu.Unlock()
	if dl.deviceKind != nil {
		return *dl.deviceKind, nil
	}
	switch dl.rep {
	case representationNative:
	case representationGeneric:
		return "", errors.Wrap(ErrNotNative, "DeviceKind")
	default:
		panicUnrecognized(dl.rep)
	}
	if dl.native.Len() == 0 {
		return "", errors.Wrap(ErrEmptyDeviceList, "DeviceKind")
	}
	kind := dl.native.Devices()[0].Kind()
	dl.deviceKind = &kind
	return kind, nil
}

// DefaultMemoryKind returns the memory kind buffers on this list's devices
// default to, or "" for an empty list.
//
// Populated together with MemoryKinds on first access to either. A failure to
// resolve the default memory space is captured once and returned identically
// on every subsequent call; it is never retried.
func (dl *DeviceList) DefaultMemoryKind() (string, error) {
	dl.mu.Lock()
	defer dl.mu.Unlock()
	info := dl.memoryKindInfoLocked()
	if info.err != nil {
		return "", info.err
	}
	return info.defaultKind, nil
}

// MemoryKinds returns the ordered memory kinds supported by this list's
// devices, empty for an empty list. The returned slice must not be modified.
//
// Only the first device is sampled: devices of one list are assumed
// homogeneous in supported memory kinds. Failures are captured and replayed
// exactly like for DefaultMemoryKind.
func (dl *DeviceList) MemoryKinds() ([]string, error) {
	dl.mu.Lock()
	defer dl.mu.Unlock()
	info := dl.memoryKindInfoLocked()
	if info.err != nil {
		return nil, info.err
	}
	return info.kinds, nil
}

func (dl *DeviceList) memoryKindInfoLocked() *memoryKindInfo {
	if dl.memoryKinds == nil {
		dl.memoryKinds = dl.populateMemoryKindInfo()
	}
	return dl.memoryKinds
}

func (dl *DeviceList) populateMemoryKindInfo() *memoryKindInfo {
	switch dl.rep {
	case representationNative:
		if dl.native.Len() == 0 {
			return &memoryKindInfo{}
		}
		device := dl.native.Devices()[0]
		defaultMemory, err := device.DefaultMemory()
		if err != nil {
			return &memoryKindInfo{err: errors.Wrapf(err, "resolving the default memory of %s", device.DebugString())}
		}
		memories := device.Memories()
		kinds := make([]string, len(memories))
		for i, memory := range memories {
			kinds[i] = memory.Kind()
		}
		return &memoryKindInfo{defaultKind: defaultMemory.Kind(), kinds: kinds}
	case representationGeneric:
		if len(dl.generic) == 0 {
			return &memoryKindInfo{}
		}
		device := dl.generic[0]
		provider, ok := device.(MemorySpaceProvider)
		if !ok {
			return &memoryKindInfo{err: errors.Errorf("device %v provides no memory space information", device)}
		}
		defaultMemory, err := provider.DefaultMemory()
		if err != nil {
			return &memoryKindInfo{err: errors.Wrapf(err, "resolving the default memory of %v", device)}
		}
		memories := provider.AddressableMemories()
		kinds := make([]string, len(memories))
		for i, memory := range memories {
			kinds[i] = memory.Kind()
		}
		return &memoryKindInfo{defaultKind: defaultMemory.Kind(), kinds: kinds}
	}
	panicUnrecognized(dl.rep)
	return nil
}
