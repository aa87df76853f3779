package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Booking statuses. A booking is non-terminal while booked, active or
// overdue; returned and cancelled are terminal.
const (
	BookingStatusBooked    = "booked"
	BookingStatusActive    = "active"
	BookingStatusReturned  = "returned"
	BookingStatusOverdue   = "overdue"
	BookingStatusCancelled = "cancelled"
)

// NonTerminalBookingStatuses are the states in which a booking still holds
// a physical copy. The bookings collection carries a partial unique index
// over (user, material) restricted to these statuses.
var NonTerminalBookingStatuses = []string{
	BookingStatusBooked,
	BookingStatusActive,
	BookingStatusOverdue,
}

// ValidBookingStatus reports whether s is a known booking status.
func ValidBookingStatus(s string) bool {
	switch s {
	case BookingStatusBooked, BookingStatusActive, BookingStatusReturned,
		BookingStatusOverdue, BookingStatusCancelled:
		return true
	}
	return false
}

// Booking records one borrower holding one copy of a material for a bounded
// period. Created in the active state by a successful borrow; a return moves
// it to returned and sets ReturnedAt. Bookings are never deleted.
type Booking struct {
	ID         primitive.ObjectID `json:"_id" bson:"_id,omitempty"`
	User       primitive.ObjectID `json:"user" bson:"user"`
	Material   primitive.ObjectID `json:"material" bson:"material"`
	BorrowedAt time.Time          `json:"borrowedAt" bson:"borrowedAt"`
	DueDate    time.Time          `json:"dueDate" bson:"dueDate"`
	ReturnedAt *time.Time         `json:"returnedAt" bson:"returnedAt"`
	Status     string             `json:"status" bson:"status"`
	CreatedAt  time.Time          `json:"createdAt" bson:"createdAt"`
	UpdatedAt  time.Time          `json:"updatedAt" bson:"updatedAt"`
}

// CreateBookingRequest is the body of POST /api/bookings.
type CreateBookingRequest struct {
	MaterialID string `json:"materialId" binding:"required"`
}
