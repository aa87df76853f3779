package controllers

import (
	"errors"
	"net/http"

	"library-service/middleware"
	"library-service/models"
	"library-service/services"

	"github.com/gin-gonic/gin"
)

// UserController handles registration, login and profile lookup.
type UserController struct {
	service *services.UserService
}

// NewUserController creates a UserController.
func NewUserController(service *services.UserService) *UserController {
	return &UserController{service: service}
}

// Register creates an account and returns a token for it.
// POST /api/users/register
func (uc *UserController) Register(c *gin.Context) {
	var req models.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "Name, a valid email and a password of at least 8 characters are required."})
		return
	}

	auth, err := uc.service.Register(c.Request.Context(), &req)
	if err != nil {
		if errors.Is(err, services.ErrEmailTaken) {
			c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "An account with this email already exists."})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "Server error creating account."})
		return
	}

	c.JSON(http.StatusCreated, gin.H{"success": true, "data": auth})
}

// Login verifies credentials and issues a token. POST /api/users/login
func (uc *UserController) Login(c *gin.Context) {
	var req models.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "Email and password are required."})
		return
	}

	auth, err := uc.service.Login(c.Request.Context(), &req)
	if err != nil {
		if errors.Is(err, services.ErrInvalidCredentials) {
			c.JSON(http.StatusUnauthorized, gin.H{"success": false, "message": "Invalid email or password."})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "Server error logging in."})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "data": auth})
}

// Profile returns the caller's own account. GET /api/users/profile
func (uc *UserController) Profile(c *gin.Context) {
	userID, err := middleware.GetUserID(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"success": false, "message": "Not authorized"})
		return
	}

	user, err := uc.service.Profile(c.Request.Context(), userID)
	if err != nil {
		if errors.Is(err, services.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"success": false, "message": "User not found."})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "Server error loading profile."})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "data": user})
}
