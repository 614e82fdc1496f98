// Package invariant provides contract assertions for the oracle text pipeline.
//
// Violations are implementation defects, never bad input: a lexer grammar
// hole, a token kind the parser does not know, a node id outside its arena.
// Every function here panics on violation.
package invariant

import (
	"fmt"
	"runtime"
)

// Precondition checks an input contract at function entry.
// Panics with PRECONDITION VIOLATION if condition is false.
//
// Example:
//
//	func (t *Tree[T]) AppendChild(parent, child NodeID) {
//	    invariant.Precondition(t.contains(child), "child %d out of range", child)
//	    // ... link ...
//	}
func Precondition(condition bool, format string, args ...any) {
	if !condition {
		fail("PRECONDITION", format, args...)
	}
}

// Postcondition checks an output contract before function return.
// Panics with POSTCONDITION VIOLATION if condition is false.
func Postcondition(condition bool, format string, args ...any) {
	if !condition {
		fail("POSTCONDITION", format, args...)
	}
}

// Invariant checks internal consistency during execution, typically loop
// progress.
//
// Example:
//
//	prev := l.pos
//	tok := l.next()
//	invariant.Invariant(l.pos > prev, "lexer must advance")
func Invariant(condition bool, format string, args ...any) {
	if !condition {
		fail("INVARIANT", format, args...)
	}
}

// Unreachable marks a branch the grammar guarantees is never taken.
func Unreachable(format string, args ...any) {
	fail("UNREACHABLE", format, args...)
}

// fail panics with a formatted message including the violating call site.
func fail(kind, format string, args ...any) {
	// Skip fail() and the exported wrapper.
	pc := make([]uintptr, 10)
	n := runtime.Callers(3, pc)
	frames := runtime.CallersFrames(pc[:n])

	msg := fmt.Sprintf("%s VIOLATION: "+format, append([]any{kind}, args...)...)

	if frame, ok := frames.Next(); ok {
		msg += fmt.Sprintf("\n  at %s:%d", frame.File, frame.Line)
	}

	panic(msg)
}
