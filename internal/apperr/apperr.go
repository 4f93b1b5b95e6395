// Package apperr classifies failures into the small set of kinds the CLI
// maps onto exit codes: invalid input, missing resources, collaborator
// failures and fatal conditions.
package apperr

import (
	"errors"
	"fmt"
)

// Kind identifies the class of a failure.
type Kind int

const (
	// Unknown is the kind of errors that were never classified.
	Unknown Kind = iota

	// InvalidInput marks malformed arguments or configuration values.
	InvalidInput

	// NotFound marks missing files, directories or audio samples.
	NotFound

	// CollaboratorFailure marks errors returned by the transcription or
	// text-generation service.
	CollaboratorFailure

	// Fatal marks conditions that prevent the command from doing anything
	// useful, such as missing credentials or every sample failing.
	Fatal
)

// String returns a lowercase label for k.
func (k Kind) String() string {
	switch k {
	case InvalidInput:
		return "invalid input"
	case NotFound:
		return "not found"
	case CollaboratorFailure:
		return "collaborator failure"
	case Fatal:
		return "fatal"
	default:
		return "unknown"
	}
}

// ExitCode returns the process exit status used for errors of kind k.
func (k Kind) ExitCode() int {
	switch k {
	case InvalidInput:
		return 2
	case NotFound:
		return 3
	case CollaboratorFailure:
		return 4
	default:
		return 1
	}
}

// Error is a classified error with an optional cause.
type Error struct {
	Kind    Kind
	Message string
	Cause   error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

// Unwrap returns the underlying cause for errors.Is/As.
func (e *Error) Unwrap() error { return e.Cause }

// New creates a new Error with the given kind and message.
func New(kind Kind, msg string) *Error {
	return &Error{Kind: kind, Message: msg}
}

// Newf creates a new Error with a formatted message.
func Newf(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// Wrap classifies err under kind.
func Wrap(err error, kind Kind, msg string) *Error {
	return &Error{Kind: kind, Message: msg, Cause: err}
}

// Wrapf classifies err under kind with a formatted message.
func Wrapf(err error, kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...), Cause: err}
}

// KindOf returns the kind of the outermost *Error in err's chain, or Unknown.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return Unknown
}

// IsKind reports whether err was classified as kind.
func IsKind(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}

// ExitCode returns the exit status for err; 0 when err is nil.
func ExitCode(err error) int {
	if err == nil {
		return 0
	}
	return KindOf(err).ExitCode()
}
