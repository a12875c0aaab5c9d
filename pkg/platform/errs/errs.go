// Package errs adds context and stack capture to errors without breaking errors.Is/As.
package errs

import (
	"errors"
	"fmt"
	"log/slog"
	"runtime/debug"
)

// Wrap adds context and preserves the error chain.
func Wrap(err error, msg string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", msg, err)
}

// Wrapf adds formatted context and preserves the error chain.
func Wrapf(err error, format string, args ...any) error {
	if err == nil {
		return nil
	}
	args = append(args, err)
	return fmt.Errorf(format+": %w", args...)
}

// WithStack captures a stack trace once, at the root cause boundary.
func WithStack(err error) error {
	if err == nil {
		return nil
	}
	var se *StackError
	if errors.As(err, &se) {
		return err
	}
	return &StackError{err: err, stack: debug.Stack()}
}

// ErrPanic marks errors produced from a recovered panic.
var ErrPanic = errors.New("panic")

// FromPanic converts a value obtained from recover into an error carrying the
// stack of the panicking goroutine. Call it from the deferred function itself.
func FromPanic(recovered any) error {
	var err error
	switch v := recovered.(type) {
	case error:
		err = fmt.Errorf("%w: %w", ErrPanic, v)
	default:
		err = fmt.Errorf("%w: %v", ErrPanic, v)
	}
	return &StackError{err: err, stack: debug.Stack()}
}

// StackError wraps an error and stores a stack trace.
type StackError struct {
	err   error
	stack []byte
}

func (e *StackError) Error() string { return e.err.Error() }
func (e *StackError) Unwrap() error { return e.err }
func (e *StackError) Stack() []byte { return e.stack }

type loggable struct{ err error }

// Loggable makes slog encode the error as structured fields.
// Usage: slog.Any("error", errs.Loggable(err))
func Loggable(err error) slog.LogValuer { return loggable{err: err} }

func (l loggable) LogValue() slog.Value {
	if l.err == nil {
		return slog.GroupValue()
	}

	attrs := []slog.Attr{
		slog.String("message", l.err.Error()),
		slog.Any("chain", ErrorChainStrings(l.err)),
	}

	var se *StackError
	if errors.As(l.err, &se) {
		attrs = append(attrs, slog.String("stack", string(se.Stack())))
	}
	return slog.GroupValue(attrs...)
}

// ErrorChainStrings returns the unwrap chain as strings, outermost first.
// Joined errors contribute only their combined message.
func ErrorChainStrings(err error) []string {
	if err == nil {
		return nil
	}
	out := make([]string, 0, 8)
	for e := err; e != nil; e = errors.Unwrap(e) {
		out = append(out, e.Error())
	}
	return out
}
