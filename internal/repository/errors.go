// Package repository defines error types that are reused across multiple
// repositories. These sentinel values allow higher layers such as
// handlers to distinguish between different failure scenarios. Every
// "not found" sentinel wraps ErrNotFound so callers may test for the
// family with errors.Is.
package repository

import (
	"errors"
	"fmt"
)

// ErrForbidden is returned when the caller attempts an operation
// on a resource they do not own. Handlers should translate this
// into an HTTP 403 response.
var ErrForbidden = errors.New("forbidden")

// ErrConflict is returned when a write cannot be performed because of
// conflicting state, such as checking out of an attendance twice.
// Handlers should translate this into an HTTP 409 response.
var ErrConflict = errors.New("conflict")

// ErrDuplicate is returned when a unique index rejects a write.
var ErrDuplicate = errors.New("duplicate entry")

// ErrEmailExists is the duplicate case of users.email.
var ErrEmailExists = errors.New("email already exists")

// ErrNotFound is the parent of the per-entity sentinels below.
var ErrNotFound = errors.New("not found")

var (
	ErrUserNotFound       = fmt.Errorf("user %w", ErrNotFound)
	ErrPlanNotFound       = fmt.Errorf("membership plan %w", ErrNotFound)
	ErrMembershipNotFound = fmt.Errorf("active membership %w", ErrNotFound)
	ErrPaymentNotFound    = fmt.Errorf("payment %w", ErrNotFound)
	ErrClassNotFound      = fmt.Errorf("class %w", ErrNotFound)
	ErrSessionNotFound    = fmt.Errorf("class session %w", ErrNotFound)
	ErrAttendanceNotFound = fmt.Errorf("attendance %w", ErrNotFound)
)
