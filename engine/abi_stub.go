//go:build !zenithffi || !cgo

package engine

// NativeABI returns ErrNativeUnavailable; this build carries no cgo
// binding to libzenith_core.
func NativeABI() (ABI, error) {
	return nil, ErrNativeUnavailable
}
