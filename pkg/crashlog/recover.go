// recover.go provides panic capture for goroutines and other code outside the host's own handlers.

package crashlog

import (
	"fmt"
	"runtime/debug"
)

// PanicError is the error captured for a recovered panic.
type PanicError struct {
	Value any
	Stack string
}

func (e *PanicError) Error() string {
	return "panic: " + formatRecovered(e.Value)
}

// Unwrap exposes a panicked error value so the root cause is the original error.
func (e *PanicError) Unwrap() error {
	if err, ok := e.Value.(error); ok {
		return err
	}
	return nil
}

// StackTrace returns the goroutine stack at the point of the panic.
func (e *PanicError) StackTrace() string {
	return e.Stack
}

// Recover captures a panic, logs it to the session, and returns the recovered value.
// It does NOT re-panic after logging.
//
// Use in defer:
//
//	go func() {
//	    defer crashlog.Recover(session)
//	    // code that might panic
//	}()
func Recover(s *Session) any {
	r := recover()
	if r == nil {
		return nil
	}
	s.Log(&PanicError{Value: r, Stack: string(debug.Stack())})
	return r
}

// Go runs fn in a new goroutine and logs any panic it raises.
func Go(s *Session, fn func()) {
	go func() {
		defer Recover(s)
		fn()
	}()
}

// formatRecovered formats a recovered panic value as a string.
func formatRecovered(recovered any) string {
	if recovered == nil {
		return "<nil>"
	}
	if err, ok := recovered.(error); ok {
		return err.Error()
	}
	return fmt.Sprintf("%v", recovered)
}
