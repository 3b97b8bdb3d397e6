package service

import (
	"errors"
	"fmt"
	"strings"

	"github.com/iliyamo/cinema-screenings/internal/repository"
)

// Kind classifies an engine error.  Handlers map kinds onto HTTP status
// codes.
type Kind int

const (
	// KindInternal covers failures the caller cannot fix: store errors,
	// invoice rendering or mail dispatch failures.
	KindInternal Kind = iota
	// KindNotFound means a referenced movie, room, screening or
	// reservation does not exist.
	KindNotFound
	// KindConflict means the request collides with existing state: a
	// room already in use, a seat already booked, a referenced record.
	KindConflict
	// KindInvalidArgument means the request itself is malformed.
	KindInvalidArgument
	// KindUnavailable means a collaborator did not answer in time.
	KindUnavailable
)

func (k Kind) String() string {
	switch k {
	case KindNotFound:
		return "not_found"
	case KindConflict:
		return "conflict"
	case KindInvalidArgument:
		return "invalid_argument"
	case KindUnavailable:
		return "unavailable"
	default:
		return "internal"
	}
}

// Error is the error type returned by the engines.  Message is safe to
// show to clients and names the offending id or value.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil && e.Message == "" {
		return e.Err.Error()
	}
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

func newError(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// NotFoundf builds a KindNotFound error.
func NotFoundf(format string, args ...any) *Error { return newError(KindNotFound, format, args...) }

// Conflictf builds a KindConflict error.
func Conflictf(format string, args ...any) *Error { return newError(KindConflict, format, args...) }

// InvalidArgumentf builds a KindInvalidArgument error.
func InvalidArgumentf(format string, args ...any) *Error {
	return newError(KindInvalidArgument, format, args...)
}

// Internal wraps err as a KindInternal error with a client-facing message.
func Internal(err error, format string, args ...any) *Error {
	e := newError(KindInternal, format, args...)
	e.Err = err
	return e
}

// Unavailable wraps err as a KindUnavailable error.
func Unavailable(err error, format string, args ...any) *Error {
	e := newError(KindUnavailable, format, args...)
	e.Err = err
	return e
}

// KindOf returns the kind of err.  Errors that are not engine errors
// are internal.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// MessageOf returns the client-facing message of err.
func MessageOf(err error) string {
	var e *Error
	if errors.As(err, &e) && e.Message != "" {
		return e.Message
	}
	return "internal error"
}

// translate converts store errors into engine errors.  Engine errors
// returned from inside a store's atomic section pass through unchanged.
func translate(err error, action string) error {
	if err == nil {
		return nil
	}
	var e *Error
	if errors.As(err, &e) {
		return e
	}
	var nf *repository.NotFoundError
	if errors.As(err, &nf) {
		return &Error{Kind: KindNotFound, Message: nf.Error(), Err: err}
	}
	if errors.Is(err, repository.ErrNotFound) {
		return &Error{Kind: KindNotFound, Message: err.Error(), Err: err}
	}
	if errors.Is(err, repository.ErrConflict) {
		msg := strings.TrimPrefix(err.Error(), repository.ErrConflict.Error()+": ")
		return &Error{Kind: KindConflict, Message: msg, Err: err}
	}
	return Internal(err, "failed to %s", action)
}
