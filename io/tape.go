package io

import (
	"io"
)

// Tape provides sequential byte I/O over an io.Reader for input and an
// io.Writer for output. A nil Input is always at end of input; a nil Output
// discards.
type Tape struct {
	Input  io.Reader
	Output io.Writer

	Received int // Bytes received since the last rewind.
	Sent     int // Bytes sent since the last rewind.
}

var _ Console = (*Tape)(nil)

// Rewind is not possible on a tape; only the counters are reset.
func (tc *Tape) Rewind() {
	tc.Received = 0
	tc.Sent = 0
}

// Receive reads one byte from the input stream.
func (tc *Tape) Receive() (value byte, ok bool) {
	if tc.Input == nil {
		return
	}

	var one [1]byte
	for {
		n, err := tc.Input.Read(one[:])
		if n == 1 {
			tc.Received++
			value, ok = one[0], true
			return
		}
		if err != nil {
			return
		}
	}
}

// Send writes a byte to the output stream.
func (tc *Tape) Send(value byte) (err error) {
	if tc.Output == nil {
		return
	}

	_, err = tc.Output.Write([]byte{value})
	if err != nil {
		return
	}

	tc.Sent++
	return
}
