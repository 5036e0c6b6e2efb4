package jax

// representationKind tags which of the two DeviceList representations is
// active. It is decided at construction and never changes for the life of the
// instance. Every switch over it carries a default branch that treats any
// other value as a fatal internal error.
type representationKind int

//go:generate go tool enumer -type=representationKind -trimprefix=representation representation.go

const (
	// representationNative: the list is an ifrt.DeviceList plus the Client all its devices belong to.
	representationNative representationKind = iota

	// representationGeneric: the list is an ordered sequence of externally-supplied
	// device-like values; no client uniformity is known.
	representationGeneric
)
