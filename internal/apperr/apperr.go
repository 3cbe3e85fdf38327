// Package apperr provides the typed error kinds of the client core.
// Validation and booking errors are shown to the user; lookup and
// render-fallback errors only degrade a feature and are never surfaced.
package apperr

import (
	"errors"
	"fmt"
)

// Kind represents the category of error.
type Kind int

const (
	// KindUnknown is the default error kind when none is specified.
	KindUnknown Kind = iota
	// KindValidation indicates a ride query with a blank field.
	KindValidation
	// KindLookup indicates an autocomplete failure.
	KindLookup
	// KindBooking indicates a failed ride request.
	KindBooking
	// KindRenderFallback indicates the host cannot embed a live map.
	KindRenderFallback
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindLookup:
		return "lookup"
	case KindBooking:
		return "booking"
	case KindRenderFallback:
		return "render_fallback"
	default:
		return "unknown"
	}
}

// Error is a client error with a typed Kind.
type Error struct {
	Kind    Kind
	Message string // user-visible text
	Op      string // operation that failed (optional)
	Err     error  // underlying error (optional)
}

func (e *Error) Error() string {
	msg := e.Message
	if e.Op != "" {
		msg = fmt.Sprintf("%s: %s", e.Op, msg)
	}
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

// Unwrap returns the underlying error for errors.Is/As support.
func (e *Error) Unwrap() error {
	return e.Err
}

// New creates an error with the given kind and message.
func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// Wrap creates an error of the given kind wrapping err.
func Wrap(kind Kind, message string, err error) *Error {
	return &Error{Kind: kind, Message: message, Err: err}
}

// WithOp sets the failing operation and returns e.
func (e *Error) WithOp(op string) *Error {
	e.Op = op
	return e
}

func Validation(message string) *Error { return New(KindValidation, message) }

func Lookup(err error) *Error { return Wrap(KindLookup, "autocomplete lookup failed", err) }

func Booking(message string, err error) *Error { return Wrap(KindBooking, message, err) }

func RenderFallback(message string) *Error { return New(KindRenderFallback, message) }

// GetKind extracts the error kind from anywhere in err's chain.
// Returns KindUnknown if no *Error is found.
func GetKind(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}

// Is checks if err carries an *Error with the given kind.
func Is(err error, kind Kind) bool {
	return GetKind(err) == kind
}

// UserMessage returns the text an alert should show for err.
func UserMessage(err error) string {
	var e *Error
	if errors.As(err, &e) && e.Message != "" {
		return e.Message
	}
	if err == nil {
		return ""
	}
	return err.Error()
}
