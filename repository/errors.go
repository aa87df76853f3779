package repository

import "errors"

var (
	// ErrNotFound is returned when a document does not exist.
	ErrNotFound = errors.New("record not found")

	// ErrNoCopiesAvailable is returned by the conditional decrement when the
	// material exists but has no available copies left.
	ErrNoCopiesAvailable = errors.New("no copies available")

	// ErrDuplicateActiveBooking is returned when an insert violates the
	// partial unique index over (user, material, non-terminal status).
	ErrDuplicateActiveBooking = errors.New("duplicate active booking")

	// ErrAlreadyReturned is returned by the conditional return update when
	// the booking has already been marked returned.
	ErrAlreadyReturned = errors.New("booking already returned")

	// ErrDuplicateEmail is returned when a user insert violates the unique
	// email index.
	ErrDuplicateEmail = errors.New("email already registered")
)
