package main

import (
	"fmt"
	"net/http"
	"os"

	"hawltrack/internal/config"
	"hawltrack/internal/crypto"
	"hawltrack/internal/database"
	"hawltrack/internal/handlers"
	"hawltrack/internal/logger"
	"hawltrack/internal/middleware"
	"hawltrack/internal/pricing"
	"hawltrack/internal/services"
	"hawltrack/internal/validator"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "hawltrack/internal/docs" // Import swagger docs
)

// @title           Hawltrack API
// @version         1.0
// @description     Hawltrack detects when a user's zakatable wealth crosses the Nisab threshold, tracks the lunar Hawl year, and manages the lifecycle of Nisab year records with a tamper-evident audit trail.

// @host      localhost:8080
// @BasePath  /api/v1

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.

func main() {
	// Initialize logger (use ENV var if available, default to development)
	logger.Init(os.Getenv("ENV"))
	defer logger.Sync()

	if err := run(); err != nil {
		logger.Get().Fatalf("Fatal error: %v", err)
	}
}

func run() error {
	appConfig, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	dbConfig, err := database.NewConfig()
	if err != nil {
		return fmt.Errorf("failed to load database configuration: %w", err)
	}

	dbManager, err := database.NewManager(dbConfig)
	if err != nil {
		return fmt.Errorf("failed to create database manager: %w", err)
	}

	if err := dbManager.RunMigrations(); err != nil {
		return fmt.Errorf("failed to run database migrations: %w", err)
	}

	// Field cipher for notes and audit payloads.
	var cipher *crypto.FieldCipher
	if appConfig.FieldKey != "" {
		cipher, err = crypto.NewFieldCipher(appConfig.FieldKey)
		if err != nil {
			return fmt.Errorf("invalid FIELD_ENCRYPTION_KEY: %w", err)
		}
	} else {
		logger.Get().Warn("FIELD_ENCRYPTION_KEY not set, using development key")
		cipher = crypto.NewDevFieldCipher(appConfig.JWTSecret)
	}

	// Redis price cache; degrade to live+fallback if unavailable.
	var rdb *redis.Client
	if opts, err := redis.ParseURL(appConfig.RedisURL); err == nil {
		rdb = redis.NewClient(opts)
	} else {
		logger.Get().Warnw("invalid REDIS_URL, price cache disabled", "error", err)
	}

	priceProvider := pricing.NewMetalsAPIProvider(
		&http.Client{Timeout: appConfig.PriceTimeout},
		appConfig.PriceAPIURL,
		appConfig.PriceAPIKey,
	)
	priceService := pricing.NewService(priceProvider, rdb,
		appConfig.ReportingCurrency, appConfig.PriceTimeout, appConfig.PriceCacheTTL)

	// Initialize services
	db := dbManager.DB()
	userService := services.NewUserService(db)
	auditService := services.NewAuditService(db, cipher)
	aggregationService := services.NewAggregationService(db)
	lifecycleService := services.NewLifecycleService(db, auditService, aggregationService, cipher)

	// Initialize handlers
	authHandler := handlers.NewAuthHandler(userService)
	recordHandler := handlers.NewRecordHandler(lifecycleService, auditService)
	thresholdHandler := handlers.NewThresholdHandler(priceService, userService)

	// Custom request validators
	validator.Register()

	// Initialize Gin router
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestLogging())
	router.Use(middleware.ErrorHandler())

	// Swagger documentation
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// Health check endpoint
	router.GET("/api/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	// API v1 group
	v1 := router.Group("/api/v1")

	// Public routes
	auth := v1.Group("/auth")
	auth.POST("/register", authHandler.Register)
	auth.POST("/login", authHandler.Login)

	// Protected routes
	protected := v1.Group("/")
	protected.Use(middleware.AuthMiddleware())

	// User profile and Zakat settings
	protected.GET("/profile", authHandler.GetProfile)
	protected.PUT("/profile/settings", authHandler.UpdateSettings)

	// Nisab year record routes
	records := protected.Group("/records")
	records.GET("", recordHandler.ListRecords)
	records.POST("", recordHandler.CreateRecord)
	records.GET("/:id", recordHandler.GetRecord)
	records.PUT("/:id", recordHandler.UpdateRecord)
	records.DELETE("/:id", recordHandler.DeleteRecord)
	records.POST("/:id/finalize", recordHandler.FinalizeRecord)
	records.POST("/:id/unlock", recordHandler.UnlockRecord)

	// Current Nisab threshold
	protected.GET("/nisab/threshold", thresholdHandler.GetThreshold)

	logger.Get().Infof("Starting server on port %s", appConfig.Port)
	return router.Run(":" + appConfig.Port)
}
