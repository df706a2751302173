//go:build zenithffi && cgo

package engine

/*
#cgo LDFLAGS: -lzenith_core
#include <stdint.h>
#include <stddef.h>

typedef struct {
	size_t buffer_len;
	size_t plugin_count;
	uint64_t events_processed;
} ZenithStats;

extern void *zenith_init(uint32_t buffer_size);
extern void zenith_free(void *engine);
extern int32_t zenith_load_plugin(void *engine, const uint8_t *bytes, size_t len);
extern int32_t zenith_get_stats(void *engine, ZenithStats *out);
*/
import "C"

import "unsafe"

// nativeABI calls the linked zenith_core shared library.
type nativeABI struct{}

// NativeABI returns the ABI backed by libzenith_core. The library is
// resolved at link time; building without the zenithffi tag yields the
// stub that reports the boundary as unavailable.
func NativeABI() (ABI, error) {
	return nativeABI{}, nil
}

func (nativeABI) Open(capacity uint32) Handle {
	return Handle(uintptr(C.zenith_init(C.uint32_t(capacity))))
}

func (nativeABI) Close(h Handle) {
	if h == 0 {
		return
	}
	C.zenith_free(unsafe.Pointer(uintptr(h))) //nolint:govet // handle originates from zenith_init
}

func (nativeABI) LoadPlugin(h Handle, plugin []byte) Status {
	if len(plugin) == 0 {
		return StatusNullPointer
	}
	ret := C.zenith_load_plugin(
		unsafe.Pointer(uintptr(h)),
		(*C.uint8_t)(unsafe.Pointer(&plugin[0])),
		C.size_t(len(plugin)),
	)
	return Status(ret)
}

func (nativeABI) Stats(h Handle, out *RawStats) Status {
	var cs C.ZenithStats
	ret := C.zenith_get_stats(unsafe.Pointer(uintptr(h)), &cs)
	if Status(ret) != StatusOK {
		return Status(ret)
	}
	out.BufferLen = uint64(cs.buffer_len)
	out.PluginCount = uint64(cs.plugin_count)
	out.EventsProcessed = uint64(cs.events_processed)
	return StatusOK
}
