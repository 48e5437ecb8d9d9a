// Package dberrors classifies every error the storage engine can return so
// the REPL layer knows whether to print-and-continue or print-and-abort.
package dberrors

import "github.com/pkg/errors"

// Category distinguishes how the caller is expected to react to an error.
type Category int

const (
	// Input marks errors detected while parsing a statement (bad syntax,
	// negative id, string too long, unrecognized keyword/command).
	Input Category = iota
	// Execution marks errors raised while executing an otherwise
	// well-formed statement (duplicate key).
	Execution
	// Fatal marks invariant violations and I/O failures that leave the
	// engine in a state it cannot safely continue from.
	Fatal
)

func (c Category) String() string {
	switch c {
	case Input:
		return "input"
	case Execution:
		return "execution"
	case Fatal:
		return "fatal"
	default:
		return "unknown"
	}
}

// Error wraps a message with the category the REPL should dispatch on,
// keeping the original cause (if any) reachable through errors.Unwrap.
type Error struct {
	category Category
	message  string
	cause    error
}

func (e *Error) Error() string {
	if e.cause != nil {
		return e.message + ": " + e.cause.Error()
	}
	return e.message
}

// Unwrap exposes the wrapped cause to errors.Is / errors.As.
func (e *Error) Unwrap() error { return e.cause }

// Category reports the classification attached to this error.
func (e *Error) Category() Category { return e.category }

// New builds a category-tagged error with no underlying cause.
func New(category Category, message string) *Error {
	return &Error{category: category, message: message}
}

// Wrap attaches a category to an existing error, preserving its stack via
// github.com/pkg/errors so a Fatal error can be logged with %+v upstream.
func Wrap(category Category, cause error, message string) *Error {
	return &Error{category: category, message: message, cause: errors.WithStack(cause)}
}

// Wrapf is Wrap with a formatted message.
func Wrapf(category Category, cause error, format string, args ...interface{}) *Error {
	return &Error{category: category, message: errors.Errorf(format, args...).Error(), cause: errors.WithStack(cause)}
}

// CategoryOf reports the category attached to err, or Fatal if err does not
// carry one — an un-categorized error is treated as unsafe to continue from.
func CategoryOf(err error) Category {
	var dbErr *Error
	if errors.As(err, &dbErr) {
		return dbErr.Category()
	}
	return Fatal
}

// NewInput is a convenience constructor for a parser-detected error.
func NewInput(message string) *Error { return New(Input, message) }

// NewExecution is a convenience constructor for a statement-execution error.
func NewExecution(message string) *Error { return New(Execution, message) }

// NewFatal is a convenience constructor for an invariant-violation error.
func NewFatal(message string) *Error { return New(Fatal, message) }
