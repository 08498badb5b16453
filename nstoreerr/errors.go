// Package nstoreerr defines the error taxonomy from spec §7. Every public
// operation surfaces errors wrapped in an *Error so callers can test the
// kind with errors.As / Is without string-matching messages.
package nstoreerr

import (
	"errors"
	"fmt"
)

// Kind is one of the error categories named in spec §7.
type Kind int

const (
	Unknown Kind = iota
	NotFound
	AlreadyExists
	PermissionDenied
	MetadataError
	CodecError
	ShapeError
	TypeError
	VarlenError
	IoError
)

func (k Kind) String() string {
	switch k {
	case NotFound:
		return "not found"
	case AlreadyExists:
		return "already exists"
	case PermissionDenied:
		return "permission denied"
	case MetadataError:
		return "metadata error"
	case CodecError:
		return "codec error"
	case ShapeError:
		return "shape error"
	case TypeError:
		return "type error"
	case VarlenError:
		return "varlength error"
	case IoError:
		return "io error"
	default:
		return "unknown error"
	}
}

// Error wraps an underlying error with a Kind and the operation that
// produced it.
type Error struct {
	Kind Kind
	Op   string
	Err  error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: %s", e.Op, e.Kind)
	}
	return fmt.Sprintf("%s: %s: %v", e.Op, e.Kind, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// New builds an *Error for op of the given kind, wrapping err (which may
// be nil).
func New(kind Kind, op string, err error) *Error {
	return &Error{Kind: kind, Op: op, Err: err}
}

// Wrapf builds an *Error, formatting the message with fmt.Errorf so %w
// chains compose normally.
func Wrapf(kind Kind, op, format string, args ...any) *Error {
	return &Error{Kind: kind, Op: op, Err: fmt.Errorf(format, args...)}
}

// Is reports whether err (or anything it wraps) is an *Error of kind k.
func Is(err error, k Kind) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind == k
	}
	return false
}
