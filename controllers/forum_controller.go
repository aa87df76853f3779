package controllers

import (
	"errors"
	"net/http"

	"library-service/middleware"
	"library-service/models"
	"library-service/services"

	"github.com/gin-gonic/gin"
)

// ForumController handles discussion categories, threads and posts.
type ForumController struct {
	service *services.ForumService
}

// NewForumController creates a ForumController.
func NewForumController(service *services.ForumService) *ForumController {
	return &ForumController{service: service}
}

// CreateCategory adds a discussion category. POST /api/forum/categories
func (fc *ForumController) CreateCategory(c *gin.Context) {
	var req models.CreateCategoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "A category name is required."})
		return
	}

	category, err := fc.service.CreateCategory(c.Request.Context(), &req)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "Server error creating category."})
		return
	}
	c.JSON(http.StatusCreated, gin.H{"success": true, "data": category})
}

// GetCategories lists all categories. GET /api/forum/categories
func (fc *ForumController) GetCategories(c *gin.Context) {
	categories, err := fc.service.ListCategories(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "Server error retrieving categories."})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "count": len(categories), "data": categories})
}

// UpdateCategory renames a category. PUT /api/forum/categories/:id
func (fc *ForumController) UpdateCategory(c *gin.Context) {
	var req models.CreateCategoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "A category name is required."})
		return
	}

	category, err := fc.service.UpdateCategory(c.Request.Context(), c.Param("id"), &req)
	if err != nil {
		fc.respondError(c, err, "category")
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "data": category})
}

// DeleteCategory removes a category. DELETE /api/forum/categories/:id
func (fc *ForumController) DeleteCategory(c *gin.Context) {
	if err := fc.service.DeleteCategory(c.Request.Context(), c.Param("id")); err != nil {
		fc.respondError(c, err, "category")
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Category deleted."})
}

// CreateThread opens a thread with its first post. POST /api/forum/threads
func (fc *ForumController) CreateThread(c *gin.Context) {
	var req models.CreateThreadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "Category, title and content are required."})
		return
	}

	userID, err := middleware.GetUserID(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"success": false, "message": "Not authorized"})
		return
	}

	view, err := fc.service.CreateThread(c.Request.Context(), &req, userID)
	if err != nil {
		fc.respondError(c, err, "category")
		return
	}
	c.JSON(http.StatusCreated, gin.H{"success": true, "data": view})
}

// GetThreads lists threads, optionally within one category.
// GET /api/forum/threads
func (fc *ForumController) GetThreads(c *gin.Context) {
	threads, err := fc.service.ListThreads(c.Request.Context(), c.Query("category"))
	if err != nil {
		fc.respondError(c, err, "category")
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "count": len(threads), "data": threads})
}

// GetThread loads a thread with its posts. GET /api/forum/threads/:id
func (fc *ForumController) GetThread(c *gin.Context) {
	view, err := fc.service.GetThread(c.Request.Context(), c.Param("id"))
	if err != nil {
		fc.respondError(c, err, "thread")
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "data": view})
}

// AddPost appends a reply to a thread. POST /api/forum/threads/:id/posts
func (fc *ForumController) AddPost(c *gin.Context) {
	var req models.CreatePostRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "Post content is required."})
		return
	}

	userID, err := middleware.GetUserID(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"success": false, "message": "Not authorized"})
		return
	}

	post, err := fc.service.AddPost(c.Request.Context(), c.Param("id"), &req, userID)
	if err != nil {
		fc.respondError(c, err, "thread")
		return
	}
	c.JSON(http.StatusCreated, gin.H{"success": true, "data": post})
}

func (fc *ForumController) respondError(c *gin.Context, err error, what string) {
	switch {
	case errors.Is(err, services.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"success": false, "message": "The requested " + what + " was not found."})
	case errors.Is(err, services.ErrInvalidID):
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "Invalid " + what + " ID format."})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "Server error."})
	}
}
