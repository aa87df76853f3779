package controllers

import (
	"errors"
	"net/http"

	"library-service/middleware"
	"library-service/models"
	"library-service/services"

	"github.com/gin-gonic/gin"
)

// RequestController handles the material acquisition request workflow.
type RequestController struct {
	service *services.RequestService
}

// NewRequestController creates a RequestController.
func NewRequestController(service *services.RequestService) *RequestController {
	return &RequestController{service: service}
}

// CreateRequest files a new acquisition request. POST /api/requests
func (rc *RequestController) CreateRequest(c *gin.Context) {
	var req models.CreateRequestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "A title is required for a material request."})
		return
	}

	userID, err := middleware.GetUserID(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"success": false, "message": "Not authorized"})
		return
	}

	request, err := rc.service.Create(c.Request.Context(), &req, userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "Server error creating request."})
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"success": true,
		"message": "Material request submitted.",
		"data":    request,
	})
}

// GetMyRequests lists the caller's requests. GET /api/requests/my
func (rc *RequestController) GetMyRequests(c *gin.Context) {
	userID, err := middleware.GetUserID(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"success": false, "message": "Not authorized"})
		return
	}

	requests, err := rc.service.ListMine(c.Request.Context(), userID, c.Query("status"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "Server error retrieving your requests."})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "count": len(requests), "data": requests})
}

// GetAllRequests lists every request for staff review. GET /api/requests
func (rc *RequestController) GetAllRequests(c *gin.Context) {
	requests, err := rc.service.ListAll(c.Request.Context(), c.Query("status"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "Server error retrieving requests."})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "count": len(requests), "data": requests})
}

// UpdateRequestStatus moves a request through its workflow.
// PATCH /api/requests/:id/status
func (rc *RequestController) UpdateRequestStatus(c *gin.Context) {
	var req models.UpdateRequestStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "A status is required."})
		return
	}

	request, err := rc.service.UpdateStatus(c.Request.Context(), c.Param("id"), &req)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrNotFound):
			c.JSON(http.StatusNotFound, gin.H{"success": false, "message": "Request not found."})
		case errors.Is(err, services.ErrValidation), errors.Is(err, services.ErrInvalidID):
			c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": err.Error()})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "Server error updating request."})
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Request updated.",
		"data":    request,
	})
}
