package abi

import (
	"runtime"
	"strings"
)

// Arch is the tag of a syscall numbering convention.
type Arch int

//go:generate go tool stringer -linecomment -type=Arch
const (
	ARCH_X86_64 = Arch(0) // x86_64
	ARCH_ARM64  = Arch(1) // arm64
)

// ParseArch parses an architecture name, accepting the Go and the kernel
// spellings.
func ParseArch(name string) (arch Arch, err error) {
	switch strings.ToLower(name) {
	case "x86_64", "amd64":
		arch = ARCH_X86_64
	case "arm64", "aarch64":
		arch = ARCH_ARM64
	default:
		err = ErrArchUnknown(name)
	}

	return
}

// HostArch returns the architecture of the running process. ok is false when
// the host is neither x86_64 nor arm64.
func HostArch() (arch Arch, ok bool) {
	arch, err := ParseArch(runtime.GOARCH)
	ok = err == nil
	return
}
