package services

import "errors"

// Error taxonomy surfaced by the services. Controllers map these to HTTP
// status codes with errors.Is; everything not listed here is a 500.
var (
	// ErrNotFound: the referenced material, booking or request does not
	// exist.
	ErrNotFound = errors.New("not found")

	// ErrNotBorrowable: the material is not a physical circulating item.
	ErrNotBorrowable = errors.New("material is not a physical item and cannot be booked")

	// ErrNoCopiesAvailable: every copy is currently checked out.
	ErrNoCopiesAvailable = errors.New("no copies currently available for borrowing")

	// ErrDuplicateActiveLoan: the borrower already holds a non-terminal
	// booking for this material.
	ErrDuplicateActiveLoan = errors.New("an active loan for this material already exists")

	// ErrAlreadyReturned: the booking was already marked returned.
	ErrAlreadyReturned = errors.New("booking has already been marked as returned")

	// ErrIntegrityViolation: stored records contradict each other (for
	// example a booking referencing a missing material). Requires manual
	// reconciliation; always a 500.
	ErrIntegrityViolation = errors.New("data integrity violation")

	// ErrBorrowFailed: the booking insert failed after the copy counter was
	// decremented and the decrement was compensated.
	ErrBorrowFailed = errors.New("borrow failed")

	// ErrInvalidID: a path or body parameter is not a valid object ID.
	ErrInvalidID = errors.New("invalid ID format")

	// ErrInvalidCredentials: unknown email or wrong password.
	ErrInvalidCredentials = errors.New("invalid email or password")

	// ErrEmailTaken: registration with an email that already has an account.
	ErrEmailTaken = errors.New("email already registered")

	// ErrForbidden: the caller is authenticated but not allowed to act on
	// this record.
	ErrForbidden = errors.New("not authorized for this operation")

	// ErrValidation: malformed or semantically invalid input.
	ErrValidation = errors.New("validation error")
)
