package fault

import (
	"errors"
	"fmt"
)

// Kind is the stable error classification surfaced to callers and transports.
type Kind string

const (
	KindSchema     Kind = "schema_error"
	KindProfile    Kind = "profile_error"
	KindDocument   Kind = "document_error"
	KindProvider   Kind = "provider_error"
	KindExtraction Kind = "extraction_error"
)

// Error carries a kind label, a human-readable message, and an optional cause.
type Error struct {
	Kind    Kind
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// New builds a fault with the given kind and message.
func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// Newf builds a fault with a formatted message.
func Newf(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// Wrap attaches a kind and message to an underlying error. Returns nil when err is nil.
func Wrap(kind Kind, message string, err error) *Error {
	if err == nil {
		return nil
	}
	return &Error{Kind: kind, Message: message, Cause: err}
}

// KindOf reports the kind of err, defaulting to extraction_error for
// unclassified errors so callers always get a stable label.
func KindOf(err error) Kind {
	var fe *Error
	if errors.As(err, &fe) {
		return fe.Kind
	}
	return KindExtraction
}

// MessageOf returns the human-readable message for err without internal detail.
func MessageOf(err error) string {
	var fe *Error
	if errors.As(err, &fe) {
		if fe.Cause != nil {
			return fmt.Sprintf("%s: %v", fe.Message, fe.Cause)
		}
		return fe.Message
	}
	if err == nil {
		return ""
	}
	return err.Error()
}
