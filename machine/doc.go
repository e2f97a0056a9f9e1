// Package machine implements the bfsys tape machine.
//
// The machine runs the eight classic operations over a byte tape:
//
//	>  move the pointer right      <  move the pointer left
//	+  increment the cell          -  decrement the cell
//	[  skip past ] if cell is 0    ]  jump back to [ if cell is not 0
//	.  output (or syscall trigger) ,  input one byte
//
// In MODE_SYSCALL the `.` operation is a trigger: the machine reads the
// syscall number and arguments from the fixed cells of package abi, hands
// them to its Syscaller, and stores the low byte of the result in cell 0.
package machine
