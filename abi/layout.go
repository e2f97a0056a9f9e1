// Copyright 2025, Jason S. McMullan <jason.mcmullan@gmail.com>

package abi

import (
	"iter"
	"maps"
)

const (
	CELL_RETURN = 0 // Low byte of the signed syscall result.
	CELL_ARG0   = 1 // First argument; argument n lives in CELL_ARG0+n.
	CELL_NUMBER = 7 // Syscall number.
	CELL_USER   = 8 // First cell free for user data.

	ARG_COUNT = 6 // Number of argument cells.

	RESULT_NAME = "_syscall_result" // Source name bound to CELL_RETURN.
)

// ArgCell returns the cell index of argument n.
func ArgCell(n int) int {
	return CELL_ARG0 + n
}

var _layout_defines = map[string]int{
	"CELL_RETURN": CELL_RETURN,
	"CELL_ARG0":   CELL_ARG0,
	"CELL_NUMBER": CELL_NUMBER,
	"CELL_USER":   CELL_USER,
	"ARG_COUNT":   ARG_COUNT,

	"STDIN":  0,
	"STDOUT": 1,
	"STDERR": 2,

	"AF_INET":      2,
	"SOCK_STREAM":  1,
	"SOCK_DGRAM":   2,
	"SOL_SOCKET":   1,
	"SO_REUSEADDR": 2,
	"SHUT_RD":      0,
	"SHUT_WR":      1,
	"SHUT_RDWR":    2,
}

// LayoutDefines returns the equates of the cell layout and the common
// socket constants shared by both architectures.
func LayoutDefines() iter.Seq2[string, int] {
	return maps.All(_layout_defines)
}
