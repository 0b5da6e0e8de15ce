// Package repository defines the catalog store used by the box builder and
// its drivers: MySQL, MongoDB and an in-memory store for development and
// tests. Every driver reports failures with the sentinels below so handlers
// can map them without knowing which backend is configured.
package repository

import (
	"errors"
	"fmt"
)

// ErrNotFound is returned when a box, item, order or operator does not
// exist. Handlers translate it into HTTP 404.
var ErrNotFound = errors.New("not found")

// ErrConflict is returned when a write collides with existing state, such
// as a second operator with the same username. Handlers translate it into
// HTTP 409.
var ErrConflict = errors.New("conflict")

// ErrForbidden is returned when the caller may not touch a resource, for
// example a password change with the wrong current password.
var ErrForbidden = errors.New("forbidden")

// ErrUnavailable wraps every I/O failure of a backing store. The builder
// leaves session state untouched when it sees this error.
var ErrUnavailable = errors.New("store unavailable")

// unavailable tags err with ErrUnavailable while keeping the driver error
// in the chain.
func unavailable(op string, err error) error {
	return fmt.Errorf("%s: %w: %w", op, ErrUnavailable, err)
}
