// Package jax implements the runtime device layer of a sharded/distributed
// array computation system.
//
// It provides canonical wrappers for the devices owned by an ifrt.Client
// (Device, Client) and DeviceList, the ordered device collection that shardings
// and dispatch logic use as a cheap, hashable key type. DeviceList transparently
// supports two representations: backed by a native ifrt.DeviceList (the fast
// path), or by an arbitrary sequence of device-like values supplied by an
// alternative backend (the duck-typed fallback).
//
// The interface to the underlying accelerator runtime is defined in the
// sub-package ifrt; an in-memory implementation for tests and examples lives in
// ifrt/ifrttest.
package jax
