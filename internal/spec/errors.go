package spec

import (
	"errors"
	"fmt"
)

// ErrorCode categorizes loader and validator errors for clearer handling and messaging.
type ErrorCode string

const (
	InputError      ErrorCode = "InputError"
	NetworkError    ErrorCode = "NetworkError"
	ParseError      ErrorCode = "ParseError"
	ValidationError ErrorCode = "ValidationError"
	ConversionError ErrorCode = "ConversionError"
)

// SpecError is a structured error with optional location and JSON Pointer.
type SpecError struct {
	Code        ErrorCode
	Message     string
	Location    string // file path or URL
	JSONPointer string // e.g. "#/paths/~1pets/get"
	Cause       error
}

func (e *SpecError) Error() string { return e.Message }
func (e *SpecError) Unwrap() error { return e.Cause }

var (
	// ErrTypeNotFound is returned by the type resolver when no rule of the
	// grammar applies. The builder always recovers from it.
	ErrTypeNotFound = errors.New("could not find type")
	// ErrMalformedDocument is matched by MalformedDocumentError.
	ErrMalformedDocument = errors.New("malformed document")
)

// MalformedDocumentError reports a missing required member. It aborts the build.
type MalformedDocumentError struct {
	Pointer string
	Reason  string
}

func (e *MalformedDocumentError) Error() string {
	return fmt.Sprintf("malformed document: %s %s", e.Pointer, e.Reason)
}

func (e *MalformedDocumentError) Is(target error) bool { return target == ErrMalformedDocument }

// Fallback records a placeholder substituted for a value that could not be
// resolved.
type Fallback struct {
	Pointer     string
	Placeholder string
	Err         error
}

func (f *Fallback) Error() string {
	return fmt.Sprintf("%s: %v (using %q)", f.Pointer, f.Err, f.Placeholder)
}

func (f *Fallback) Unwrap() error { return f.Err }
