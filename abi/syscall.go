// Copyright 2025, Jason S. McMullan <jason.mcmullan@gmail.com>

package abi

import (
	"iter"
	"maps"
	"slices"
	"strings"
)

// ArgKind describes how an argument cell is marshalled to the host.
type ArgKind int

//go:generate go tool stringer -linecomment -type=ArgKind
const (
	ARG_INT         = ArgKind(0) // int
	ARG_PTR         = ArgKind(1) // ptr
	ARG_PTR_OR_NULL = ArgKind(2) // ptr?
)

// Syscall is a named host call and the kind of each of its arguments.
type Syscall struct {
	Name string
	Args []ArgKind
}

var _syscalls = []Syscall{
	{"read", []ArgKind{ARG_INT, ARG_PTR, ARG_INT}},
	{"write", []ArgKind{ARG_INT, ARG_PTR, ARG_INT}},
	{"close", []ArgKind{ARG_INT}},
	{"getpid", nil},
	{"socket", []ArgKind{ARG_INT, ARG_INT, ARG_INT}},
	{"connect", []ArgKind{ARG_INT, ARG_PTR, ARG_INT}},
	{"accept", []ArgKind{ARG_INT, ARG_PTR_OR_NULL, ARG_PTR_OR_NULL}},
	{"shutdown", []ArgKind{ARG_INT, ARG_INT}},
	{"bind", []ArgKind{ARG_INT, ARG_PTR, ARG_INT}},
	{"listen", []ArgKind{ARG_INT, ARG_INT}},
	{"setsockopt", []ArgKind{ARG_INT, ARG_INT, ARG_INT, ARG_PTR, ARG_INT}},
}

// Syscall numbers, per architecture.
var _numbers = map[Arch]map[string]byte{
	ARCH_X86_64: {
		"read":       0,
		"write":      1,
		"close":      3,
		"getpid":     39,
		"socket":     41,
		"connect":    42,
		"accept":     43,
		"shutdown":   48,
		"bind":       49,
		"listen":     50,
		"setsockopt": 54,
	},
	ARCH_ARM64: {
		"close":      57,
		"read":       63,
		"write":      64,
		"getpid":     172,
		"socket":     198,
		"bind":       200,
		"listen":     201,
		"accept":     202,
		"connect":    203,
		"setsockopt": 208,
		"shutdown":   210,
	},
}

// Descriptor is the immutable syscall table of one architecture.
type Descriptor struct {
	Arch Arch

	ids   map[string]byte
	calls map[byte]Syscall
}

// NewDescriptor builds the syscall table for an architecture.
func NewDescriptor(arch Arch) (desc *Descriptor, err error) {
	numbers, ok := _numbers[arch]
	if !ok {
		err = ErrArchUnknown(arch.String())
		return
	}

	desc = &Descriptor{
		Arch:  arch,
		ids:   maps.Clone(numbers),
		calls: make(map[byte]Syscall, len(numbers)),
	}

	for _, sc := range _syscalls {
		desc.calls[numbers[sc.Name]] = sc
	}

	return
}

// Lookup returns the syscall for a numeric id.
func (desc *Descriptor) Lookup(id byte) (sc Syscall, ok bool) {
	sc, ok = desc.calls[id]
	return
}

// Number returns the numeric id of a syscall name.
func (desc *Descriptor) Number(name string) (id byte, ok bool) {
	id, ok = desc.ids[name]
	return
}

// Names returns the supported syscall names, sorted.
func (desc *Descriptor) Names() []string {
	return slices.Sorted(maps.Keys(desc.ids))
}

// Defines returns SYS_<NAME> equates of the syscall numbers.
func (desc *Descriptor) Defines() iter.Seq2[string, int] {
	return func(yield func(string, int) bool) {
		for _, name := range desc.Names() {
			if !yield("SYS_"+strings.ToUpper(name), int(desc.ids[name])) {
				return
			}
		}
	}
}
