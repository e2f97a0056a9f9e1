// Copyright 2025, Jason S. McMullan <jason.mcmullan@gmail.com>

package abi

import (
	"log"
	"runtime"
	"unsafe"
)

// Host performs a named syscall with raw register values, returning the
// signed result; a negative result is a host errno.
type Host interface {
	Invoke(name string, args [ARG_COUNT]uintptr) (result int64)
}

// Table dispatches tape syscalls of one architecture to a host.
type Table struct {
	*Descriptor
	Host    Host // Defaults to the running operating system.
	Verbose bool // If set, logs every dispatched call.
}

// NewTable creates a dispatch table for an architecture, bound to the
// running operating system.
func NewTable(arch Arch) (table *Table, err error) {
	desc, err := NewDescriptor(arch)
	if err != nil {
		return
	}

	table = &Table{
		Descriptor: desc,
		Host:       HostSystem,
	}

	return
}

// Dispatch performs syscall id with the argument cell values. Pointer
// arguments are tape offsets, translated to addresses inside cells; the
// caller guarantees that every such offset is in bounds.
func (table *Table) Dispatch(id byte, args [ARG_COUNT]byte, cells []byte) (result int64, err error) {
	sc, ok := table.Lookup(id)
	if !ok {
		err = &ErrUnsupportedSyscall{Arch: table.Arch, Id: id}
		return
	}

	var raw [ARG_COUNT]uintptr
	for n, value := range args {
		kind := ARG_INT
		if n < len(sc.Args) {
			kind = sc.Args[n]
		}
		switch {
		case kind == ARG_PTR, kind == ARG_PTR_OR_NULL && value != 0:
			// Held as a uintptr until the host call: cells is heap
			// allocated, which the Go collector never moves, and the
			// KeepAlive below keeps it reachable through the call.
			raw[n] = uintptr(unsafe.Pointer(&cells[value]))
		default:
			raw[n] = uintptr(value)
		}
	}

	host := table.Host
	if host == nil {
		host = HostSystem
	}

	result = host.Invoke(sc.Name, raw)
	runtime.KeepAlive(cells)

	if table.Verbose {
		log.Printf("abi: %v %v%v = %d", table.Arch, sc.Name, args[:len(sc.Args)], result)
	}

	return
}
