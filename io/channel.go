// Package io provides the byte consoles attached to the tape machine.
//
// A console backs the plain mode `.` and `,` operations. Tape wraps an
// io.Reader and io.Writer; Temporary is an in-memory FIFO whose output feeds
// its own input.
package io

// Console is a byte stream device.
type Console interface {
	// Rewind resets the console to its initial state.
	Rewind()
	// Receive returns the next input byte, or false at end of input.
	Receive() (value byte, ok bool)
	// Send writes a single byte to the console.
	Send(value byte) error
}
