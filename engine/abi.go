// Package engine provides the client for the native zenith_core data
// plane. The native library is reached through a fixed four-operation
// binary contract; the Client wraps one engine handle with lifecycle
// enforcement so a closed handle is never dereferenced.
package engine

import (
	"errors"
	"fmt"
)

// ErrNativeUnavailable reports that the binary carries no cgo binding
// to libzenith_core. NativeABI returns it when the zenithffi build tag
// is absent.
var ErrNativeUnavailable = errors.New(
	"engine: built without native support (rebuild with -tags zenithffi)",
)

// Handle is an opaque reference to engine-owned native state. The zero
// Handle is the null sentinel returned when initialization fails.
type Handle uintptr

// Status is a native return code. Zero means success; failures are
// negative and map to a fixed table shared with every other binding of
// the library.
type Status int32

const (
	StatusOK          Status = 0
	StatusNullPointer Status = -1
	StatusBufferFull  Status = -2
	StatusPluginLoad  Status = -3
	StatusConversion  Status = -4
)

func (s Status) String() string {
	switch s {
	case StatusOK:
		return "success"
	case StatusNullPointer:
		return "null pointer"
	case StatusBufferFull:
		return "buffer full"
	case StatusPluginLoad:
		return "plugin load failure"
	case StatusConversion:
		return "conversion failure"
	default:
		return fmt.Sprintf("unknown error: %d", int32(s))
	}
}

// RawStats mirrors the ZenithStats struct crossing the native boundary.
// Field order and widths are the wire contract: two size words followed
// by a 64-bit counter. Changing either breaks binary compatibility with
// independently built engines.
type RawStats struct {
	BufferLen       uint64
	PluginCount     uint64
	EventsProcessed uint64
}

// ABI is the four-operation contract of the native engine. It is an
// explicit dependency of the Client rather than process-global state so
// tests can substitute a recording boundary and callers control library
// lifetime.
type ABI interface {
	// Open creates an engine with the given ring-buffer capacity. It
	// returns the zero Handle on failure and never partially
	// initializes.
	Open(capacity uint32) Handle

	// Close releases a handle. Passing the zero Handle is a no-op; a
	// live handle must not be closed twice.
	Close(h Handle)

	// LoadPlugin forwards the plugin bytes with an explicit length.
	// The buffer is read-only and not retained past the call.
	LoadPlugin(h Handle, plugin []byte) Status

	// Stats fills the caller-allocated struct with a consistent
	// snapshot of the engine counters.
	Stats(h Handle, out *RawStats) Status
}
