// Package pferrors defines the classified error kinds surfaced by the
// Prefetch decoder pipeline.
package pferrors

import "fmt"

// Kind classifies why a decode step failed.
type Kind int

const (
	// InvalidArgument marks a nil/empty input where one was required.
	InvalidArgument Kind = iota
	// ShortInput marks a read that returned fewer bytes than requested.
	ShortInput
	// InvalidSignature marks a header signature that isn't "SCCA".
	InvalidSignature
	// UnsupportedVersion marks a format_version outside {17,23,26}.
	UnsupportedVersion
	// OffsetOutOfBounds marks a decoded offset+length escaping its containing region.
	OffsetOutOfBounds
	// MalformedStringTable marks an odd byte length or truncated UTF-16 sequence.
	MalformedStringTable
	// InconsistentCounts marks a declared count disagreeing with a parsed count. Non-fatal.
	InconsistentCounts
	// SizeMismatch marks the header's declared file_size disagreeing with the
	// reader's actual size. Always non-fatal, even under StrictCounts.
	SizeMismatch
	// ReadFailed marks a lower-level failure returned by a ByteReader.
	ReadFailed
	// Aborted marks cooperative cancellation having been observed.
	Aborted
	// OutOfMemory marks an allocation failure.
	OutOfMemory
)

func (k Kind) String() string {
	switch k {
	case InvalidArgument:
		return "InvalidArgument"
	case ShortInput:
		return "ShortInput"
	case InvalidSignature:
		return "InvalidSignature"
	case UnsupportedVersion:
		return "UnsupportedVersion"
	case OffsetOutOfBounds:
		return "OffsetOutOfBounds"
	case MalformedStringTable:
		return "MalformedStringTable"
	case InconsistentCounts:
		return "InconsistentCounts"
	case SizeMismatch:
		return "SizeMismatch"
	case ReadFailed:
		return "ReadFailed"
	case Aborted:
		return "Aborted"
	case OutOfMemory:
		return "OutOfMemory"
	default:
		return "Unknown"
	}
}

// Error is a structured error carrying a Kind and an optional cause chain.
type Error struct {
	kind    Kind
	message string
	cause   error
}

// New creates an Error of the given kind with a formatted message.
func New(kind Kind, format string, args ...interface{}) *Error {
	return &Error{kind: kind, message: fmt.Sprintf(format, args...)}
}

// Wrap creates an Error of the given kind, chaining cause.
func Wrap(kind Kind, cause error, format string, args ...interface{}) *Error {
	return &Error{kind: kind, message: fmt.Sprintf(format, args...), cause: cause}
}

func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.kind, e.message, e.cause)
	}
	return fmt.Sprintf("%s: %s", e.kind, e.message)
}

// Unwrap exposes the cause so callers can use errors.Is/errors.As.
func (e *Error) Unwrap() error {
	return e.cause
}

// Kind returns the error's classification.
func (e *Error) Kind() Kind {
	return e.kind
}

// Is reports whether target is a *Error with the same Kind, so callers can
// compare with errors.Is(err, pferrors.New(pferrors.ShortInput, "")).
func (e *Error) Is(target error) bool {
	other, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.kind == other.kind
}
