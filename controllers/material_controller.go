package controllers

import (
	"errors"
	"net/http"
	"strconv"

	"library-service/middleware"
	"library-service/models"
	"library-service/services"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// MaterialController handles HTTP requests for material metadata, search
// and file access.
type MaterialController struct {
	service *services.MaterialService
	cache   *CacheManager
	logger  *zap.Logger
}

// NewMaterialController creates a MaterialController. cache may be nil
// when Redis is not configured; search then always hits the database.
func NewMaterialController(service *services.MaterialService, cache *CacheManager, logger *zap.Logger) *MaterialController {
	return &MaterialController{service: service, cache: cache, logger: logger}
}

// searchParamsFromQuery reads search filters and pagination from the
// query string. Unparsable numbers fall back to their defaults.
func searchParamsFromQuery(c *gin.Context) services.MaterialSearchParams {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", strconv.Itoa(services.DefaultPageSize)))
	year, _ := strconv.Atoi(c.Query("publicationYear"))

	params := services.MaterialSearchParams{
		Keyword:         c.Query("keyword"),
		Category:        c.Query("category"),
		MaterialType:    c.Query("materialType"),
		PublicationYear: year,
		Page:            page,
		Limit:           limit,
		Sort:            c.Query("sort"),
	}
	params.Normalize()
	return params
}

// GetMaterials searches materials with keyword, filters and pagination.
// GET /api/materials
func (mc *MaterialController) GetMaterials(c *gin.Context) {
	params := searchParamsFromQuery(c)

	if mc.cache != nil {
		if cached, ok := mc.cache.GetMaterialList(c.Request.Context(), params); ok {
			c.JSON(http.StatusOK, cached)
			return
		}
	}

	result, err := mc.service.Search(c.Request.Context(), params)
	if err != nil {
		mc.logger.Error("Material search failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "Server error searching materials."})
		return
	}

	response := map[string]interface{}{
		"success":    true,
		"count":      len(result.Materials),
		"pagination": result.Pagination,
		"data":       result.Materials,
	}
	if mc.cache != nil {
		mc.cache.SetMaterialListAsync(params, response)
	}
	c.JSON(http.StatusOK, response)
}

// GetMaterial loads a single material by ID. GET /api/materials/:id
func (mc *MaterialController) GetMaterial(c *gin.Context) {
	material, err := mc.service.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		mc.respondLookupError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "data": material})
}

// UploadMaterial accepts a multipart form with the material metadata and
// its file. POST /api/materials/upload
func (mc *MaterialController) UploadMaterial(c *gin.Context) {
	var req models.UploadMaterialRequest
	if err := c.ShouldBind(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "Invalid material data: " + err.Error()})
		return
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "A file is required."})
		return
	}
	file, err := fileHeader.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "Could not read uploaded file."})
		return
	}
	defer file.Close()

	userID, err := middleware.GetUserID(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"success": false, "message": "Not authorized"})
		return
	}

	material, err := mc.service.Upload(
		c.Request.Context(),
		&req,
		userID,
		fileHeader.Filename,
		fileHeader.Header.Get("Content-Type"),
		file,
	)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrValidation), errors.Is(err, services.ErrInvalidID):
			c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": err.Error()})
		default:
			mc.logger.Error("Material upload failed", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "Server error uploading material."})
		}
		return
	}

	if mc.cache != nil {
		mc.cache.Invalidate(c.Request.Context())
	}
	c.JSON(http.StatusCreated, gin.H{
		"success": true,
		"message": "Material uploaded successfully.",
		"data":    material,
	})
}

// DeleteMaterial removes a material. Only the uploader or an admin may
// delete. DELETE /api/materials/:id
func (mc *MaterialController) DeleteMaterial(c *gin.Context) {
	userID, err := middleware.GetUserID(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"success": false, "message": "Not authorized"})
		return
	}
	role := middleware.GetUserRole(c)

	material, err := mc.service.Delete(c.Request.Context(), c.Param("id"), userID, role)
	if err != nil {
		if errors.Is(err, services.ErrForbidden) {
			c.JSON(http.StatusForbidden, gin.H{"success": false, "message": "You are not allowed to delete this material."})
			return
		}
		mc.respondLookupError(c, err)
		return
	}

	if mc.cache != nil {
		mc.cache.Invalidate(c.Request.Context())
	}
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Material deleted successfully.",
		"data":    material,
	})
}

// DownloadMaterial returns a time-limited URL for the material's file.
// GET /api/materials/:id/download
func (mc *MaterialController) DownloadMaterial(c *gin.Context) {
	url, err := mc.service.DownloadURL(c.Request.Context(), c.Param("id"))
	if err != nil {
		mc.respondLookupError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "data": gin.H{"url": url}})
}

func (mc *MaterialController) respondLookupError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, services.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"success": false, "message": "Material not found."})
	case errors.Is(err, services.ErrInvalidID):
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "Invalid material ID format."})
	default:
		mc.logger.Error("Material request failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "Server error."})
	}
}
