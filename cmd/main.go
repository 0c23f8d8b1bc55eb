package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"catalog-service/internal/cache"
	"catalog-service/internal/catalog"
	"catalog-service/internal/config"
	"catalog-service/internal/handlers"
	"catalog-service/internal/imaging"
	"catalog-service/internal/middleware"
	"catalog-service/internal/repository"
	"catalog-service/internal/storage"
)

// @title Catalog Service API
// @version 1.0.0
// @description Grocery product catalogue service: storefront browsing, admin management, image delivery and bulk import/export

// @license.name MIT
// @license.url https://opensource.org/licenses/MIT

// @host localhost:8080
// @BasePath /api/v1

func main() {
	// Load environment variables
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using system environment variables")
	}

	// Initialize configuration
	cfg := config.Load()

	// Initialize database
	db, err := config.InitDB(cfg)
	if err != nil {
		log.Fatal("Failed to connect to database:", err)
	}

	// Initialize logger
	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})
	if cfg.Environment == "production" {
		logger.SetLevel(logrus.InfoLevel)
	} else {
		logger.SetLevel(logrus.DebugLevel)
	}

	// Initialize Redis client
	var redisClient *redis.Client
	redisOpts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		log.Printf("WARNING: Failed to parse Redis URL: %v (continuing without Redis)", err)
	} else {
		redisClient = redis.NewClient(redisOpts)
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := redisClient.Ping(ctx).Err(); err != nil {
			log.Printf("WARNING: Failed to connect to Redis: %v (falling back to in-memory caching)", err)
			redisClient = nil
		} else {
			log.Println("✓ Redis connected successfully")
		}
		cancel()
	}

	// Initialize repositories
	productsRepo := repository.NewProductsRepository(db, redisClient)
	categoriesRepo := repository.NewCategoriesRepository(db, redisClient)
	profilesRepo := repository.NewProfilesRepository(db)

	// Catalogue cache: Redis-backed when available, in-memory otherwise
	var cacheStorage cache.Storage
	if redisClient != nil {
		cacheStorage = cache.NewRedisStorage(redisClient)
	} else {
		cacheStorage = cache.NewMemoryStorage()
	}
	ttlCache := cache.New(cacheStorage, cache.DefaultTTL)

	catalogService := catalog.NewService(productsRepo, categoriesRepo, ttlCache, logger)

	// Image pipeline
	fetcher := imaging.NewFetcher()
	defer fetcher.Close()
	pipeline := imaging.NewPipeline(fetcher, cfg.StaticDir, logger)

	// Object storage for admin image uploads
	store, err := storage.NewClient(storage.Config{
		Endpoint:  cfg.StorageEndpoint,
		AccessKey: cfg.StorageAccessKey,
		SecretKey: cfg.StorageSecretKey,
		Bucket:    cfg.StorageBucket,
		UseSSL:    cfg.StorageUseSSL,
	})
	if err != nil {
		log.Fatal("Failed to initialize object storage:", err)
	}
	{
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		if err := store.EnsureBucket(ctx); err != nil {
			log.Printf("WARNING: Failed to ensure storage bucket: %v (uploads may fail)", err)
		}
		cancel()
	}

	// Initialize handlers
	healthHandler := handlers.NewHealthHandler(db)
	productsHandler := handlers.NewProductsHandler(productsRepo, catalogService, store, logger)
	categoriesHandler := handlers.NewCategoriesHandler(categoriesRepo, catalogService, logger)
	importHandler := handlers.NewImportHandler(productsRepo, catalogService, logger)
	exportHandler := handlers.NewExportHandler(catalogService, logger)
	profilesHandler := handlers.NewProfilesHandler(profilesRepo, logger)
	dashboardHandler := handlers.NewDashboardHandler(productsRepo, profilesRepo, logger)
	imagesHandler := handlers.NewImagesHandler(pipeline, fetcher, cfg.PublicBaseURL, logger)

	// Initialize Gin router
	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.CORS())

	// Health check endpoints (no auth required)
	router.GET("/health", healthHandler.HealthCheck)
	router.GET("/ready", healthHandler.ReadinessCheck)

	// Image delivery endpoints (public, consumed by <img> tags)
	router.GET("/api/v1/images", imagesHandler.OptimizeImage)
	router.GET("/api/v1/images/download", imagesHandler.DownloadFile)

	// Protected admin API routes
	api := router.Group("/api/v1")
	api.Use(middleware.RequireAdmin(profilesRepo))
	{
		products := api.Group("/products")
		{
			products.GET("", productsHandler.GetProducts)
			products.GET("/:id", productsHandler.GetProduct)
			products.POST("", productsHandler.CreateProduct)
			products.PUT("/:id", productsHandler.UpdateProduct)
			products.DELETE("/:id", productsHandler.DeleteProduct)
			products.POST("/images", productsHandler.UploadImage)

			products.GET("/import/template", importHandler.GetImportTemplate)
			products.POST("/import", importHandler.ImportProducts)
			products.GET("/export", exportHandler.ExportProducts)
		}

		categories := api.Group("/categories")
		{
			categories.GET("/tree", categoriesHandler.GetCategoryTree)
			categories.GET("/meta", categoriesHandler.GetCategoryMeta)
			categories.PUT("/meta", categoriesHandler.UpsertCategoryMeta)
			categories.DELETE("/meta/:id", categoriesHandler.DeleteCategoryMeta)
			categories.GET("/meta/export", categoriesHandler.ExportCategoryMeta)
			categories.POST("/meta/import", categoriesHandler.ImportCategoryMeta)
		}

		profiles := api.Group("/profiles")
		{
			profiles.GET("", profilesHandler.GetProfiles)
			profiles.PATCH("/:id", profilesHandler.UpdateProfile)
		}

		api.GET("/dashboard/stats", dashboardHandler.GetStats)
	}

	// Public storefront endpoints (no auth required)
	storefront := router.Group("/api/v1/storefront")
	{
		storefront.GET("/products", productsHandler.GetProducts)
		storefront.GET("/products/:id", productsHandler.GetProduct)
		storefront.GET("/categories", categoriesHandler.GetCategoryTree)
	}

	// Swagger documentation
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// Graceful shutdown handling
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		log.Printf("Catalog service starting on port %s", cfg.Port)
		if err := router.Run(":" + cfg.Port); err != nil {
			log.Fatal("Failed to start server:", err)
		}
	}()

	<-quit
	log.Println("Shutting down catalog-service...")

	if redisClient != nil {
		if err := redisClient.Close(); err != nil {
			log.Printf("Error closing Redis client: %v", err)
		}
	}

	log.Println("Catalog service stopped")
}
