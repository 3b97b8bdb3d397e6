// Package repository defines the stores behind the schedule and
// reservation engines together with the error values they share.
// Handlers and services distinguish failure scenarios through the
// sentinels below: ErrNotFound when a referenced record is missing and
// ErrConflict when an operation cannot proceed because of existing
// state (for example deleting a movie that still has screenings, or
// inserting a seat that the unique index already holds).
package repository

import (
	"errors"
	"fmt"
)

// ErrNotFound is returned when a movie, room, screening or reservation
// does not exist.  Handlers translate it into 404 (or 409 when the
// missing record was referenced by a create request).
var ErrNotFound = errors.New("not found")

// ErrConflict is returned when a write is rejected because of
// conflicting state.  Handlers translate it into an HTTP 409 response.
var ErrConflict = errors.New("conflict")

// NotFoundError names the entity and id that could not be found.  It
// matches ErrNotFound with errors.Is.
type NotFoundError struct {
	Entity string
	ID     uint64
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("no %s with ID: %d", e.Entity, e.ID)
}

// Is lets errors.Is(err, ErrNotFound) succeed.
func (e *NotFoundError) Is(target error) bool { return target == ErrNotFound }

// NotFound builds a NotFoundError.
func NotFound(entity string, id uint64) error {
	return &NotFoundError{Entity: entity, ID: id}
}

// Conflictf wraps ErrConflict with a formatted message.
func Conflictf(format string, args ...any) error {
	return fmt.Errorf("%w: "+format, append([]any{ErrConflict}, args...)...)
}
