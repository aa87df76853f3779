package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"library-service/config"
	"library-service/controllers"
	"library-service/database"
	"library-service/events"
	"library-service/logger"
	"library-service/middleware"
	"library-service/repository"
	"library-service/routes"
	"library-service/services"
	"library-service/storage"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

func main() {
	// Load .env file (optional, falls back to system env)
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		panic("failed to load configuration: " + err.Error())
	}

	logger.Initialize(cfg.Env)
	defer logger.Log.Sync()

	// --- 1. Infrastructure ---

	if err := database.Connect(cfg.MongoURL, cfg.DBName); err != nil {
		zap.L().Fatal("Failed to connect to MongoDB", zap.Error(err))
	}
	if err := database.EnsureIndexes(context.Background()); err != nil {
		zap.L().Fatal("Failed to ensure indexes", zap.Error(err))
	}

	var redisClient *redis.Client
	if cfg.RedisURL != "" {
		redisOpts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			zap.L().Warn("Failed to parse REDIS_URL, search caching disabled", zap.Error(err))
		} else {
			redisClient = redis.NewClient(redisOpts)
		}
	}

	blobStore, err := storage.NewS3BlobStore(context.Background(), storage.S3Options{
		Region:    cfg.AWSRegion,
		Endpoint:  cfg.AWSEndpoint,
		AccessKey: cfg.AWSAccessKey,
		SecretKey: cfg.AWSSecretKey,
		Bucket:    cfg.S3Bucket,
	})
	if err != nil {
		zap.L().Fatal("Failed to initialize blob store", zap.Error(err))
	}

	var publisher events.Publisher = events.NopPublisher{}
	if len(cfg.KafkaBrokers) > 0 {
		publisher = events.NewKafkaPublisher(cfg.KafkaBrokers, cfg.KafkaTopic, logger.Log)
	}
	defer publisher.Close()

	// --- 2. Dependency Injection (Wiring the layers together) ---

	materialRepo := repository.NewMongoMaterialRepository(database.DB)
	bookingRepo := repository.NewMongoBookingRepository(database.DB)
	userRepo := repository.NewMongoUserRepository(database.DB)
	requestRepo := repository.NewMongoRequestRepository(database.DB)
	forumRepo := repository.NewMongoForumRepository(database.DB)

	materialService := services.NewMaterialService(materialRepo, blobStore, logger.Log)
	bookingService := services.NewBookingService(bookingRepo, materialRepo, publisher, logger.Log, cfg.LoanPeriod)
	userService := services.NewUserService(userRepo, cfg.JWTSecret, logger.Log)
	requestService := services.NewRequestService(requestRepo, materialRepo, logger.Log)
	forumService := services.NewForumService(forumRepo)

	var cache *controllers.CacheManager
	if redisClient != nil {
		cache = controllers.NewCacheManager(redisClient)
	}

	materialController := controllers.NewMaterialController(materialService, cache, logger.Log)
	bookingController := controllers.NewBookingController(bookingService)
	userController := controllers.NewUserController(userService)
	requestController := controllers.NewRequestController(requestService)
	forumController := controllers.NewForumController(forumService)

	// --- 3. HTTP Server & Middleware ---

	if cfg.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(logger.RequestLogger())
	r.Use(middleware.RequestTimeout(30 * time.Second))

	routes.RegisterRoutes(r, cfg.JWTSecret, userController, materialController, bookingController, requestController, forumController)

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "OK"})
	})

	// --- 4. Graceful Shutdown ---

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: r,
	}

	go func() {
		zap.L().Info("Library Service starting", zap.String("port", cfg.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			zap.L().Fatal("Failed to start server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	zap.L().Info("Shutting down Library Service...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		zap.L().Fatal("Server forced to shutdown", zap.Error(err))
	}

	if redisClient != nil {
		if err := redisClient.Close(); err != nil {
			zap.L().Error("Failed to close Redis", zap.Error(err))
		}
	}
	if err := database.Close(); err != nil {
		zap.L().Error("Failed to close MongoDB", zap.Error(err))
	}

	zap.L().Info("Library Service stopped gracefully")
}
