//go:build linux && (amd64 || arm64)

package abi

import (
	"golang.org/x/sys/unix"
)

// Host syscall numbers by name. x/sys/unix resolves them for the build
// architecture, so either tape architecture runs on either host.
var _host_numbers = map[string]uintptr{
	"read":       unix.SYS_READ,
	"write":      unix.SYS_WRITE,
	"close":      unix.SYS_CLOSE,
	"getpid":     unix.SYS_GETPID,
	"socket":     unix.SYS_SOCKET,
	"connect":    unix.SYS_CONNECT,
	"accept":     unix.SYS_ACCEPT,
	"shutdown":   unix.SYS_SHUTDOWN,
	"bind":       unix.SYS_BIND,
	"listen":     unix.SYS_LISTEN,
	"setsockopt": unix.SYS_SETSOCKOPT,
}

type linuxHost struct{}

// HostSystem invokes syscalls on the running kernel.
var HostSystem Host = linuxHost{}

func (linuxHost) Invoke(name string, args [ARG_COUNT]uintptr) (result int64) {
	nr, ok := _host_numbers[name]
	if !ok {
		return -int64(unix.ENOSYS)
	}

	r1, _, errno := unix.Syscall6(nr, args[0], args[1], args[2], args[3], args[4], args[5])
	if errno != 0 {
		return -int64(errno)
	}

	return int64(r1)
}
