package main

import (
	"fmt"
	"net/http"
	"os"

	"refiwizard/internal/config"
	"refiwizard/internal/database"
	"refiwizard/internal/handlers"
	"refiwizard/internal/logger"
	"refiwizard/internal/middleware"
	"refiwizard/internal/schema"
	"refiwizard/internal/services"
	"refiwizard/internal/validator"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "refiwizard/internal/docs" // Import swagger docs
)

// @title           Refi Wizard API
// @version         1.0
// @description     Refi Wizard is a refinancing modeling backend with versioned, audit-logged data entry per project.

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
	log := logger.Get()

	// Load configuration
	appConfig, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	// Initialize database configuration
	dbConfig, err := database.NewConfig()
	if err != nil {
		return fmt.Errorf("failed to load database configuration: %w", err)
	}

	// Create database manager
	dbManager, err := database.NewManager(dbConfig)
	if err != nil {
		return fmt.Errorf("failed to create database manager: %w", err)
	}

	// Run migrations
	if err := dbManager.RunMigrations(); err != nil {
		return fmt.Errorf("failed to run database migrations: %w", err)
	}

	// Register custom binding validators
	validator.Register()

	// Initialize services
	db := dbManager.DB()
	userService := services.NewUserService(db)
	recordStore := services.NewRecordStore(db)
	auditLog := services.NewAuditLog(db)
	recordService := services.NewVersionedRecordService(db, recordStore, auditLog)
	auditQueryService := services.NewAuditQueryService(auditLog)
	calculationService := services.NewCalculationService(db, recordService)

	// Initialize handlers
	authHandler := handlers.NewAuthHandler(userService)
	projectAuditHandler := handlers.NewProjectAuditHandler(auditQueryService)
	calculationHandler := handlers.NewCalculationHandler(calculationService)

	// Initialize Gin router
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestLogging())
	router.Use(middleware.ErrorHandler())

	// CORS middleware
	router.Use(func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, PATCH, DELETE, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, X-API-Key")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	})

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

	// User profile
	protected.GET("/profile", authHandler.GetProfile)

	// Data entry resources, one route group per registered entity type
	projects := protected.Group("/projects/:projectId")
	for _, sch := range schema.All {
		handlers.NewResourceHandler(sch, recordService, auditQueryService).RegisterRoutes(projects)
	}

	// Project-wide audit history
	projects.GET("/audit-history", projectAuditHandler.History)

	// Calculation routes
	calculations := projects.Group("/calculations")
	calculations.POST("/debt-schedule", calculationHandler.RunDebtSchedule)
	calculations.POST("/depreciation-schedule", calculationHandler.RunDepreciationSchedule)
	calculations.GET("", calculationHandler.ListCalculations)
	calculations.GET("/:runId", calculationHandler.GetCalculation)

	// Internal endpoints for reporting pipelines, guarded by a shared key
	internal := router.Group("/api/internal")
	internal.Use(middleware.ServiceAuthMiddleware(appConfig.ServiceAPIKey))
	internal.GET("/projects/:projectId/audit-history", projectAuditHandler.History)

	log.Infof("Starting Refi Wizard backend server on port %s", appConfig.Port)
	log.Infof("Swagger documentation available at http://localhost:%s/swagger/index.html", appConfig.Port)
	return router.Run(":" + appConfig.Port)
}
