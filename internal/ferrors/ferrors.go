// Package ferrors defines the error kinds the fingerprinting core surfaces
// at its operation boundaries (ingest, identify, open-store).
package ferrors

import (
	"errors"
	"fmt"
)

// Kind is one of the error kinds the core can return. NoMatch is not a
// failure: identify completed successfully and found nothing above
// threshold. It is exposed as a value, not treated as a program error.
type Kind int

const (
	_ Kind = iota
	InvalidAudio
	EmptyAudio
	SchemaMismatch
	StoreCorruption
	NoMatch
	Cancelled
	Internal
)

func (k Kind) String() string {
	switch k {
	case InvalidAudio:
		return "InvalidAudio"
	case EmptyAudio:
		return "EmptyAudio"
	case SchemaMismatch:
		return "SchemaMismatch"
	case StoreCorruption:
		return "StoreCorruption"
	case NoMatch:
		return "NoMatch"
	case Cancelled:
		return "Cancelled"
	case Internal:
		return "Internal"
	default:
		return "Unknown"
	}
}

// Error wraps a Kind with a message. Use errors.Is against the package-level
// sentinels (ErrInvalidAudio, etc.) to test the kind through a wrapped chain.
type Error struct {
	Kind Kind
	Msg  string
}

func (e *Error) Error() string {
	if e.Msg == "" {
		return e.Kind.String()
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Msg)
}

// Is reports whether target is a sentinel for the same Kind. This lets
// errors.Is(wrapped, ferrors.ErrNoMatch) succeed regardless of how deeply the
// error has been wrapped by pkg/errors along the way.
func (e *Error) Is(target error) bool {
	var t *Error
	if errors.As(target, &t) {
		return t.Kind == e.Kind
	}
	return false
}

// New constructs an *Error of the given kind with a formatted message.
func New(kind Kind, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Msg: fmt.Sprintf(format, args...)}
}

// Sentinels for errors.Is comparisons. Each carries no message; (*Error).Is
// only compares Kind, so the message on the left-hand side is irrelevant.
var (
	ErrInvalidAudio    = &Error{Kind: InvalidAudio}
	ErrEmptyAudio      = &Error{Kind: EmptyAudio}
	ErrSchemaMismatch  = &Error{Kind: SchemaMismatch}
	ErrStoreCorruption = &Error{Kind: StoreCorruption}
	ErrNoMatch         = &Error{Kind: NoMatch}
	ErrCancelled       = &Error{Kind: Cancelled}
	ErrInternal        = &Error{Kind: Internal}
)

// Is reports whether err carries the given kind anywhere in its chain.
func Is(err error, kind Kind) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind == kind
	}
	return false
}
