package routes

import (
	"library-service/controllers"
	"library-service/middleware"
	"library-service/models"

	"github.com/gin-gonic/gin"
)

// RegisterRoutes wires every controller under /api. Auth tiers: public
// (register, login, browse), authenticated (borrow, requests, forum
// posts), faculty/admin (upload, returns processing, request review,
// all-bookings view), admin (forum category management).
func RegisterRoutes(
	r *gin.Engine,
	jwtSecret string,
	users *controllers.UserController,
	materials *controllers.MaterialController,
	bookings *controllers.BookingController,
	requests *controllers.RequestController,
	forum *controllers.ForumController,
) {
	api := r.Group("/api")
	protected := middleware.Protect(jwtSecret)
	staffOnly := middleware.Authorize(models.RoleFaculty, models.RoleAdmin)
	adminOnly := middleware.Authorize(models.RoleAdmin)

	userRoutes := api.Group("/users")
	{
		userRoutes.POST("/register", users.Register)
		userRoutes.POST("/login", users.Login)
		userRoutes.GET("/profile", protected, users.Profile)
	}

	materialRoutes := api.Group("/materials")
	{
		materialRoutes.GET("", materials.GetMaterials)
		materialRoutes.GET("/:id", materials.GetMaterial)
		materialRoutes.POST("/upload", protected, staffOnly, materials.UploadMaterial)
		materialRoutes.DELETE("/:id", protected, materials.DeleteMaterial)
		materialRoutes.GET("/:id/download", protected, materials.DownloadMaterial)
	}

	bookingRoutes := api.Group("/bookings")
	bookingRoutes.Use(protected)
	{
		bookingRoutes.POST("", bookings.CreateBooking)
		bookingRoutes.GET("/my", bookings.GetMyBookings)
		bookingRoutes.PATCH("/:id/return", staffOnly, bookings.ReturnBooking)
		bookingRoutes.GET("", staffOnly, bookings.GetAllBookings)
	}

	requestRoutes := api.Group("/requests")
	requestRoutes.Use(protected)
	{
		requestRoutes.POST("", requests.CreateRequest)
		requestRoutes.GET("/my", requests.GetMyRequests)
		requestRoutes.GET("", staffOnly, requests.GetAllRequests)
		requestRoutes.PATCH("/:id/status", staffOnly, requests.UpdateRequestStatus)
	}

	forumRoutes := api.Group("/forum")
	{
		forumRoutes.GET("/categories", forum.GetCategories)
		forumRoutes.POST("/categories", protected, adminOnly, forum.CreateCategory)
		forumRoutes.PUT("/categories/:id", protected, adminOnly, forum.UpdateCategory)
		forumRoutes.DELETE("/categories/:id", protected, adminOnly, forum.DeleteCategory)

		forumRoutes.GET("/threads", forum.GetThreads)
		forumRoutes.GET("/threads/:id", forum.GetThread)
		forumRoutes.POST("/threads", protected, forum.CreateThread)
		forumRoutes.POST("/threads/:id/posts", protected, forum.AddPost)
	}
}
