package apo2cdsp

import (
	"errors"
	"fmt"
)

// Common errors returned by the filter pipeline. Every *ParseError matches
// exactly one of them through errors.Is.
var (
	// ErrInput indicates empty or whitespace-only input.
	ErrInput = errors.New("invalid input")

	// ErrFormat indicates a filter line that does not follow the APO grammar.
	ErrFormat = errors.New("invalid filter format")

	// ErrRange indicates a numeric field outside its valid domain.
	ErrRange = errors.New("value out of range")

	// ErrCount indicates the export does not hold exactly RequiredFilterCount filters.
	ErrCount = errors.New("unexpected filter count")

	// ErrUnexpected wraps failures that are not part of the pipeline's own taxonomy.
	ErrUnexpected = errors.New("unexpected error")
)

// ErrorKind classifies a ParseError.
type ErrorKind int

const (
	// KindInput is reported for empty input.
	KindInput ErrorKind = iota

	// KindFormat is reported when a line mentions "filter" but does not match.
	KindFormat

	// KindRange is reported when frequency, gain or Q fails validation.
	KindRange

	// KindCount is reported when the filter total differs from RequiredFilterCount.
	KindCount

	// KindUnexpected is reported for any other failure while scanning a line.
	KindUnexpected
)

// String returns the kind name.
func (k ErrorKind) String() string {
	switch k {
	case KindInput:
		return "input"
	case KindFormat:
		return "format"
	case KindRange:
		return "range"
	case KindCount:
		return "count"
	case KindUnexpected:
		return "unexpected"
	default:
		return fmt.Sprintf("ErrorKind(%d)", int(k))
	}
}

func (k ErrorKind) sentinel() error {
	switch k {
	case KindInput:
		return ErrInput
	case KindFormat:
		return ErrFormat
	case KindRange:
		return ErrRange
	case KindCount:
		return ErrCount
	default:
		return ErrUnexpected
	}
}

// ParseError is the structured error returned by Parse.
type ParseError struct {
	Kind ErrorKind

	// Line is the 1-based source line, or 0 when the error is not tied to a line.
	Line int

	// Msg is the human-readable diagnostic.
	Msg string

	// Err is the underlying cause for KindUnexpected errors.
	Err error
}

// Error implements the error interface. The line number is kept in Line
// and not repeated in the message.
func (e *ParseError) Error() string {
	return e.Msg
}

// Is reports whether target is the sentinel for this error's kind.
func (e *ParseError) Is(target error) bool {
	return target == e.Kind.sentinel()
}

// Unwrap returns the underlying cause, if any.
func (e *ParseError) Unwrap() error {
	return e.Err
}

func newLineError(kind ErrorKind, line int, format string, args ...any) *ParseError {
	return &ParseError{Kind: kind, Line: line, Msg: fmt.Sprintf(format, args...)}
}
