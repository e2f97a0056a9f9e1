// Copyright 2025, Jason S. McMullan <jason.mcmullan@gmail.com>

// Package lang parses the bfsys source language into an abstract syntax tree.
//
// The language has byte variables, `+` and `-`, equality and unsigned
// ordering tests, if/else and while, console output and input, and raw
// system calls:
//
//	msg = "hi\n";
//	n = syscall($(SYS_WRITE), 1, msg, 3);
//	while (n != 0) { n = n - 1; }
//
// Numbers are bytes (0..255). A string or byte array literal evaluates to
// the tape address of its bytes. A `$(...)` expression is evaluated at parse
// time as a Starlark expression over the parser's equates.
package lang
