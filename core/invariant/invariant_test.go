package invariant_test

import (
	"fmt"
	"strings"
	"testing"

	"github.com/opal-lang/oracle/core/invariant"
)

// expectPanic runs fn and returns the recovered panic message.
func expectPanic(t *testing.T, fn func()) (msg string) {
	t.Helper()
	defer func() {
		r := recover()
		if r == nil {
			t.Fatal("expected panic")
		}
		msg = fmt.Sprintf("%v", r)
	}()
	fn()
	return ""
}

func TestPassingContractsDoNotPanic(t *testing.T) {
	invariant.Precondition(true, "this should pass")
	invariant.Postcondition(len("tip") == 3, "length works")
	invariant.Invariant(1 < 2, "ordering works")
}

func TestViolationKinds(t *testing.T) {
	tests := []struct {
		name string
		fn   func()
		kind string
		text string
	}{
		{
			name: "precondition",
			fn:   func() { invariant.Precondition(false, "node %d out of range", 7) },
			kind: "PRECONDITION VIOLATION",
			text: "node 7 out of range",
		},
		{
			name: "postcondition",
			fn:   func() { invariant.Postcondition(false, "tokens must end with END") },
			kind: "POSTCONDITION VIOLATION",
			text: "tokens must end with END",
		},
		{
			name: "invariant",
			fn:   func() { invariant.Invariant(false, "lexer must advance") },
			kind: "INVARIANT VIOLATION",
			text: "lexer must advance",
		},
		{
			name: "unreachable",
			fn:   func() { invariant.Unreachable("no recognizer matched %q", "x") },
			kind: "UNREACHABLE VIOLATION",
			text: `no recognizer matched "x"`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			msg := expectPanic(t, tt.fn)
			if !strings.Contains(msg, tt.kind) {
				t.Errorf("expected %s, got: %s", tt.kind, msg)
			}
			if !strings.Contains(msg, tt.text) {
				t.Errorf("expected message %q, got: %s", tt.text, msg)
			}
		})
	}
}

func TestStackTraceContext(t *testing.T) {
	msg := expectPanic(t, func() {
		invariant.Invariant(false, "boom")
	})
	if !strings.Contains(msg, "invariant_test.go:") {
		t.Errorf("expected call site in message, got: %s", msg)
	}
}
