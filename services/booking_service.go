package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"library-service/events"
	"library-service/models"
	"library-service/repository"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// DefaultLoanPeriod is how long a borrower may keep a copy.
const DefaultLoanPeriod = 14 * 24 * time.Hour

// BookingService moves single copies between "available" and "checked out"
// with lifecycle bookkeeping. It holds no state of its own: every mutation
// goes straight to the store, and concurrent borrows are arbitrated by the
// store's conditional decrement plus the bookings uniqueness index. When a
// later step fails after the counter was decremented, the service
// compensates by re-incrementing; a failed compensation is the one fatal
// condition, logged with every ID needed for manual repair.
type BookingService struct {
	bookings   repository.BookingRepository
	materials  repository.MaterialRepository
	publisher  events.Publisher
	logger     *zap.Logger
	loanPeriod time.Duration
}

// NewBookingService creates a BookingService. A non-positive loanPeriod
// falls back to DefaultLoanPeriod.
func NewBookingService(
	bookings repository.BookingRepository,
	materials repository.MaterialRepository,
	publisher events.Publisher,
	logger *zap.Logger,
	loanPeriod time.Duration,
) *BookingService {
	if loanPeriod <= 0 {
		loanPeriod = DefaultLoanPeriod
	}
	return &BookingService{
		bookings:   bookings,
		materials:  materials,
		publisher:  publisher,
		logger:     logger,
		loanPeriod: loanPeriod,
	}
}

// Borrow checks out one copy of a material to a borrower and records the
// loan. All guards run before any mutation: existence, borrowability,
// availability, then the duplicate-loan check against the ledger. The
// decrement itself is conditional at the storage layer, and the booking
// insert is covered by the uniqueness index, so both races close cleanly.
func (s *BookingService) Borrow(ctx context.Context, materialID, borrowerID string) (*models.Booking, error) {
	matID, err := primitive.ObjectIDFromHex(materialID)
	if err != nil {
		return nil, fmt.Errorf("%w: material id %q", ErrInvalidID, materialID)
	}
	userID, err := primitive.ObjectIDFromHex(borrowerID)
	if err != nil {
		return nil, fmt.Errorf("%w: borrower id %q", ErrInvalidID, borrowerID)
	}

	material, err := s.materials.FindByID(ctx, matID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to load material: %w", err)
	}
	if !material.IsPhysical {
		return nil, ErrNotBorrowable
	}
	if material.AvailableCopies <= 0 {
		return nil, ErrNoCopiesAvailable
	}

	if _, err := s.bookings.FindActive(ctx, userID, matID); err == nil {
		return nil, ErrDuplicateActiveLoan
	} else if !errors.Is(err, repository.ErrNotFound) {
		return nil, fmt.Errorf("failed to check active bookings: %w", err)
	}

	if err := s.materials.DecrementAvailable(ctx, matID); err != nil {
		switch {
		case errors.Is(err, repository.ErrNoCopiesAvailable):
			return nil, ErrNoCopiesAvailable
		case errors.Is(err, repository.ErrNotFound):
			return nil, ErrNotFound
		default:
			return nil, fmt.Errorf("failed to decrement available copies: %w", err)
		}
	}

	now := time.Now().UTC()
	booking := &models.Booking{
		User:       userID,
		Material:   matID,
		BorrowedAt: now,
		DueDate:    now.Add(s.loanPeriod),
		Status:     models.BookingStatusActive,
	}

	if err := s.bookings.Insert(ctx, booking); err != nil {
		s.compensateDecrement(ctx, matID, userID)
		if errors.Is(err, repository.ErrDuplicateActiveBooking) {
			return nil, ErrDuplicateActiveLoan
		}
		return nil, fmt.Errorf("%w: %v", ErrBorrowFailed, err)
	}

	s.logger.Info("Booking created",
		zap.String("booking_id", booking.ID.Hex()),
		zap.String("material_id", matID.Hex()),
		zap.String("user_id", userID.Hex()),
		zap.Time("due_date", booking.DueDate),
	)
	s.publisher.PublishBookingEvent(ctx, events.BookingEvent{
		Type:       events.EventBookingCreated,
		BookingID:  booking.ID.Hex(),
		MaterialID: matID.Hex(),
		UserID:     userID.Hex(),
		OccurredAt: now,
	})

	return booking, nil
}

// compensateDecrement undoes a copy decrement whose booking insert failed.
// If the compensation itself fails the counter no longer agrees with the
// ledger; that is logged as a critical data-integrity fault.
func (s *BookingService) compensateDecrement(ctx context.Context, materialID, userID primitive.ObjectID) {
	if err := s.materials.IncrementAvailable(ctx, materialID); err != nil {
		s.logger.Error("CRITICAL: failed to compensate copy decrement, counter inconsistent with ledger",
			zap.Error(err),
			zap.String("material_id", materialID.Hex()),
			zap.String("user_id", userID.Hex()),
		)
	}
}

// Return marks a booking returned and gives its copy back to the pool.
// The increment is clamped so availableCopies never exceeds totalCopies.
func (s *BookingService) Return(ctx context.Context, bookingID string) (*models.Booking, error) {
	id, err := primitive.ObjectIDFromHex(bookingID)
	if err != nil {
		return nil, fmt.Errorf("%w: booking id %q", ErrInvalidID, bookingID)
	}

	booking, err := s.bookings.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to load booking: %w", err)
	}
	if booking.Status == models.BookingStatusReturned {
		return nil, ErrAlreadyReturned
	}

	// A booking referencing a missing material is corrupt data, not an
	// ordinary not-found.
	if _, err := s.materials.FindByID(ctx, booking.Material); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			s.logger.Error("CRITICAL: booking references missing material",
				zap.String("booking_id", id.Hex()),
				zap.String("material_id", booking.Material.Hex()),
				zap.String("user_id", booking.User.Hex()),
			)
			return nil, ErrIntegrityViolation
		}
		return nil, fmt.Errorf("failed to load material: %w", err)
	}

	now := time.Now().UTC()
	updated, err := s.bookings.MarkReturned(ctx, id, now)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrAlreadyReturned):
			return nil, ErrAlreadyReturned
		case errors.Is(err, repository.ErrNotFound):
			return nil, ErrNotFound
		default:
			return nil, fmt.Errorf("failed to mark booking returned: %w", err)
		}
	}

	if err := s.materials.IncrementAvailable(ctx, booking.Material); err != nil {
		s.logger.Error("CRITICAL: booking returned but copy increment failed, counter inconsistent with ledger",
			zap.Error(err),
			zap.String("booking_id", id.Hex()),
			zap.String("material_id", booking.Material.Hex()),
			zap.String("user_id", booking.User.Hex()),
		)
		return nil, ErrIntegrityViolation
	}

	s.logger.Info("Booking returned",
		zap.String("booking_id", id.Hex()),
		zap.String("material_id", booking.Material.Hex()),
		zap.String("user_id", booking.User.Hex()),
	)
	s.publisher.PublishBookingEvent(ctx, events.BookingEvent{
		Type:       events.EventBookingReturned,
		BookingID:  id.Hex(),
		MaterialID: booking.Material.Hex(),
		UserID:     booking.User.Hex(),
		OccurredAt: now,
	})

	return updated, nil
}

// FindActiveLoan returns the borrower's non-terminal booking for a
// material, or nil when none exists.
func (s *BookingService) FindActiveLoan(ctx context.Context, borrowerID, materialID string) (*models.Booking, error) {
	userID, err := primitive.ObjectIDFromHex(borrowerID)
	if err != nil {
		return nil, fmt.Errorf("%w: borrower id %q", ErrInvalidID, borrowerID)
	}
	matID, err := primitive.ObjectIDFromHex(materialID)
	if err != nil {
		return nil, fmt.Errorf("%w: material id %q", ErrInvalidID, materialID)
	}

	booking, err := s.bookings.FindActive(ctx, userID, matID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find active booking: %w", err)
	}
	return booking, nil
}

// ListByBorrower returns the borrower's bookings newest first, optionally
// narrowed to one status. Unknown status values are ignored, matching the
// listing endpoints' lenient filter handling.
func (s *BookingService) ListByBorrower(ctx context.Context, borrowerID, status string) ([]models.Booking, error) {
	userID, err := primitive.ObjectIDFromHex(borrowerID)
	if err != nil {
		return nil, fmt.Errorf("%w: borrower id %q", ErrInvalidID, borrowerID)
	}

	opts := repository.ListBookingsOptions{User: userID}
	if models.ValidBookingStatus(status) {
		opts.Status = status
	}
	return s.bookings.List(ctx, opts)
}

// ListAll returns bookings newest first with optional status, borrower and
// material filters.
func (s *BookingService) ListAll(ctx context.Context, status, borrowerID, materialID string) ([]models.Booking, error) {
	opts := repository.ListBookingsOptions{}
	if models.ValidBookingStatus(status) {
		opts.Status = status
	}
	if borrowerID != "" {
		userID, err := primitive.ObjectIDFromHex(borrowerID)
		if err != nil {
			return nil, fmt.Errorf("%w: borrower id %q", ErrInvalidID, borrowerID)
		}
		opts.User = userID
	}
	if materialID != "" {
		matID, err := primitive.ObjectIDFromHex(materialID)
		if err != nil {
			return nil, fmt.Errorf("%w: material id %q", ErrInvalidID, materialID)
		}
		opts.Material = matID
	}
	return s.bookings.List(ctx, opts)
}
