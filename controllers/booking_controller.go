package controllers

import (
	"errors"
	"net/http"

	"library-service/middleware"
	"library-service/models"
	"library-service/services"

	"github.com/gin-gonic/gin"
)

// BookingController handles HTTP requests for borrowing and returning
// materials.
type BookingController struct {
	service *services.BookingService
}

// NewBookingController creates a BookingController.
func NewBookingController(service *services.BookingService) *BookingController {
	return &BookingController{service: service}
}

// CreateBooking borrows one copy of a material for the caller.
// POST /api/bookings
func (bc *BookingController) CreateBooking(c *gin.Context) {
	var req models.CreateBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "Valid materialId is required in the request body."})
		return
	}

	userID, err := middleware.GetUserID(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"success": false, "message": "Not authorized"})
		return
	}

	booking, err := bc.service.Borrow(c.Request.Context(), req.MaterialID, userID)
	if err != nil {
		bc.respondBorrowError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"success": true,
		"message": "Material booked successfully.",
		"data":    booking,
	})
}

func (bc *BookingController) respondBorrowError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, services.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"success": false, "message": "Material not found."})
	case errors.Is(err, services.ErrNotBorrowable):
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "This material is not a physical item and cannot be booked."})
	case errors.Is(err, services.ErrNoCopiesAvailable):
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "No copies currently available for borrowing."})
	case errors.Is(err, services.ErrDuplicateActiveLoan):
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "You already have an active loan or booking for this material."})
	case errors.Is(err, services.ErrInvalidID):
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "Invalid ID format."})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "Server error creating booking."})
	}
}

// ReturnBooking marks a booking returned and releases its copy.
// PATCH /api/bookings/:id/return
func (bc *BookingController) ReturnBooking(c *gin.Context) {
	booking, err := bc.service.Return(c.Request.Context(), c.Param("id"))
	if err != nil {
		switch {
		case errors.Is(err, services.ErrNotFound):
			c.JSON(http.StatusNotFound, gin.H{"success": false, "message": "Booking not found."})
		case errors.Is(err, services.ErrAlreadyReturned):
			c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "This booking has already been marked as returned."})
		case errors.Is(err, services.ErrInvalidID):
			c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "Invalid booking ID format."})
		case errors.Is(err, services.ErrIntegrityViolation):
			c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "Cannot return booking: associated material record not found."})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "Server error processing return."})
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Booking marked as returned successfully.",
		"data":    booking,
	})
}

// GetMyBookings lists the caller's bookings, optionally filtered by
// status. GET /api/bookings/my
func (bc *BookingController) GetMyBookings(c *gin.Context) {
	userID, err := middleware.GetUserID(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"success": false, "message": "Not authorized"})
		return
	}

	bookings, err := bc.service.ListByBorrower(c.Request.Context(), userID, c.Query("status"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "Server error retrieving your bookings."})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"count":   len(bookings),
		"data":    bookings,
	})
}

// GetAllBookings lists bookings across all users with optional status,
// userId and materialId filters. GET /api/bookings
func (bc *BookingController) GetAllBookings(c *gin.Context) {
	bookings, err := bc.service.ListAll(c.Request.Context(), c.Query("status"), c.Query("userId"), c.Query("materialId"))
	if err != nil {
		if errors.Is(err, services.ErrInvalidID) {
			c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "Invalid ID format."})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "Server error retrieving all bookings."})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"count":   len(bookings),
		"data":    bookings,
	})
}
