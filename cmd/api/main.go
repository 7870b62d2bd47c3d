package main

import (
	_ "backend/api/swagger" // swagger docs
	"backend/internal/database"
	"backend/internal/handler"
	"backend/internal/middleware"
	"backend/internal/notify"
	"backend/internal/repository"
	"backend/internal/service"
	"backend/internal/websocket"
	"os"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

// defaultApprovalThreshold is the estimated value (in the tenant's currency)
// at which stock adjustments and waste write-offs require approval.
const defaultApprovalThreshold = "50"

// @title           Restaurant Waste & Inventory API
// @version         1.0
// @description     Multi-tenant restaurant inventory and food waste tracking with an approval workflow.
// @host            localhost:8080
// @BasePath        /
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})

	if err := godotenv.Load("configs/.env"); err != nil {
		logger.Info("No configs/.env file found or error loading it")
	}

	dbHost := os.Getenv("DB_HOST")
	dbPort := os.Getenv("DB_PORT")
	dbUser := os.Getenv("DB_USER")
	dbPassword := os.Getenv("DB_PASSWORD")
	dbName := os.Getenv("DB_NAME")
	dbSslMode := os.Getenv("DB_SSLMODE")

	if dbHost == "" {
		dbHost = "localhost"
	}
	if dbPort == "" {
		dbPort = "5432"
	}
	if dbUser == "" {
		dbUser = "postgres"
	}
	if dbPassword == "" {
		dbPassword = "postgres"
	}
	if dbName == "" {
		dbName = "postgres"
	}
	if dbSslMode == "" {
		dbSslMode = "disable"
	}

	dsn := "postgres://" + dbUser + ":" + dbPassword + "@" + dbHost + ":" + dbPort + "/" + dbName + "?sslmode=" + dbSslMode

	db, err := database.NewConnection(dsn)
	if err != nil {
		logger.WithError(err).Fatal("Database connection failed")
	}
	logger.Info("Connected to PostgreSQL successfully")

	thresholdRaw := os.Getenv("APPROVAL_THRESHOLD")
	if thresholdRaw == "" {
		thresholdRaw = defaultApprovalThreshold
	}
	threshold, err := decimal.NewFromString(thresholdRaw)
	if err != nil {
		logger.WithError(err).Fatal("Invalid APPROVAL_THRESHOLD")
	}

	// Set up WebSocket Hub
	wsHub := websocket.NewHub()
	go wsHub.Run()
	notifier := notify.NewBroadcast(wsHub.Broadcast, logger)

	// Set up dependencies (Repository -> Service -> Handler)
	txManager := repository.NewTransactionManager(db)
	userRepo := repository.NewUserRepository(db)
	tenantRepo := repository.NewTenantRepository(db)
	itemRepo := repository.NewItemRepository(db)
	adjustmentRepo := repository.NewAdjustmentRepository(db)
	wasteRepo := repository.NewWasteRepository(db)
	approvalRepo := repository.NewApprovalRepository(db)
	auditRepo := repository.NewAuditRepository(db)

	userService := service.NewUserService(userRepo)
	approvalService := service.NewApprovalService(approvalRepo, adjustmentRepo, wasteRepo, itemRepo, userRepo, tenantRepo, auditRepo, txManager, notifier, logger)
	inventoryService := service.NewInventoryService(itemRepo, adjustmentRepo, auditRepo, txManager, approvalService, notifier, threshold, logger)
	wasteService := service.NewWasteService(wasteRepo, itemRepo, auditRepo, txManager, approvalService, notifier, threshold, logger)
	auditService := service.NewAuditService(auditRepo)

	// Initialize Handlers
	userHandler := handler.NewUserHandler(userService)
	approvalHandler := handler.NewApprovalHandler(approvalService)
	inventoryHandler := handler.NewInventoryHandler(inventoryService)
	wasteHandler := handler.NewWasteHandler(wasteService, userService)
	auditHandler := handler.NewAuditHandler(auditService)

	// Set up Gin Router
	router := gin.Default()

	// CORS configuration
	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = []string{"http://localhost:5173", "http://127.0.0.1:5173", "http://localhost:5174"} // Frontend URL
	corsConfig.AllowCredentials = true
	corsConfig.AllowHeaders = []string{"Origin", "Content-Length", "Content-Type", "Authorization", "Accept"}
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}
	router.Use(cors.New(corsConfig))

	// Swagger route
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// Health check
	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "OK"})
	})

	// WebSocket endpoint
	router.GET("/ws", func(c *gin.Context) {
		websocket.ServeWs(wsHub, c, middleware.GetJWTSecret())
	})

	// Register API Routes
	userHandler.RegisterRoutes(router.Group(""))
	approvalHandler.RegisterRoutes(router.Group(""))
	inventoryHandler.RegisterRoutes(router.Group(""))
	wasteHandler.RegisterRoutes(router.Group(""))
	auditHandler.RegisterRoutes(router.Group(""))

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	logger.WithField("port", port).Info("Server listening")
	if err := router.Run(":" + port); err != nil {
		logger.WithError(err).Fatal("Server failed")
	}
}
