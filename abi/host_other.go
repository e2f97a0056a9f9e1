//go:build !(linux && (amd64 || arm64))

package abi

const _ENOSYS = 38

type unsupportedHost struct{}

// HostSystem reports every call as unimplemented on this host.
var HostSystem Host = unsupportedHost{}

func (unsupportedHost) Invoke(name string, args [ARG_COUNT]uintptr) (result int64) {
	return -_ENOSYS
}
