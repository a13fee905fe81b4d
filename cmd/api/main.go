package main

import (
	"os"

	_ "assetledger/api/swagger" // swagger docs
	"assetledger/internal/database"
	"assetledger/internal/handler"
	"assetledger/internal/middleware"
	"assetledger/internal/repository"
	"assetledger/internal/service"
	"assetledger/internal/websocket"
	"assetledger/pkg/barcode"
	"assetledger/pkg/logger"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

// @title           Asset Ledger API
// @version         1.0
// @description     Multi-office inventory and asset-movement ledger with barcoded instances, two-phase transfers, and request workflows.
// @host            localhost:8080
// @BasePath        /
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	log := logger.New(logger.Config{
		Env:   os.Getenv("APP_ENV"),
		Level: os.Getenv("LOG_LEVEL"),
	})

	if err := godotenv.Load("configs/.env"); err != nil {
		log.Info().Msg("No configs/.env file found, using environment")
	}

	dbHost := envOr("DB_HOST", "localhost")
	dbPort := envOr("DB_PORT", "5432")
	dbUser := envOr("DB_USER", "postgres")
	dbPassword := envOr("DB_PASSWORD", "postgres")
	dbName := envOr("DB_NAME", "postgres")
	dbSslMode := envOr("DB_SSLMODE", "disable")

	dsn := "postgres://" + dbUser + ":" + dbPassword + "@" + dbHost + ":" + dbPort + "/" + dbName + "?sslmode=" + dbSslMode

	db, err := database.NewConnection(dsn)
	if err != nil {
		log.Fatal().Err(err).Msg("database connection failed")
	}
	log.Info().Str("host", dbHost).Str("db", dbName).Msg("connected to postgres")

	if err := database.SeedBaseData(db); err != nil {
		log.Fatal().Err(err).Msg("seeding roles failed")
	}
	if email := os.Getenv("BOOTSTRAP_ADMIN_EMAIL"); email != "" {
		if err := database.SeedBootstrapAdmin(db, email, envOr("BOOTSTRAP_ADMIN_PASSWORD", "changeme")); err != nil {
			log.Fatal().Err(err).Msg("seeding bootstrap admin failed")
		}
	}

	// WebSocket hub for transfer lifecycle events
	wsHub := websocket.NewHub()
	go wsHub.Run()

	// Repositories
	txManager := repository.NewTransactionManager(db)
	userRepo := repository.NewUserRepository(db)
	officeRepo := repository.NewOfficeRepository(db)
	catalogRepo := repository.NewCatalogRepository(db)
	instanceRepo := repository.NewInstanceRepository(db)
	purchaseRepo := repository.NewPurchaseRepository(db)
	transactionRepo := repository.NewTransactionRepository(db)
	requestRepo := repository.NewRequestRepository(db)
	auditRepo := repository.NewAuditRepository(db)

	// Services
	barcodes := barcode.NewGenerator()
	identityService := service.NewIdentityService(userRepo)
	userService := service.NewUserService(identityService, userRepo, officeRepo, auditRepo, txManager, middleware.GetJWTSecret())
	officeService := service.NewOfficeService(identityService, officeRepo, txManager)
	catalogService := service.NewCatalogService(identityService, catalogRepo)
	purchaseService := service.NewPurchaseService(identityService, purchaseRepo, catalogRepo, officeRepo, instanceRepo, auditRepo, txManager, barcodes)
	inventoryService := service.NewInventoryService(identityService, officeRepo, instanceRepo, transactionRepo, auditRepo, txManager)
	distributionService := service.NewDistributionService(identityService, officeRepo, instanceRepo, transactionRepo, auditRepo, txManager, wsHub)
	requestService := service.NewRequestService(identityService, requestRepo, officeRepo, catalogRepo, auditRepo, distributionService, txManager)
	trackingService := service.NewTrackingService(instanceRepo, transactionRepo, purchaseRepo)
	auditService := service.NewAuditService(auditRepo)

	// Handlers
	authHandler := handler.NewAuthHandler(userService)
	officeHandler := handler.NewOfficeHandler(officeService)
	catalogHandler := handler.NewCatalogHandler(catalogService)
	purchaseHandler := handler.NewPurchaseHandler(purchaseService)
	inventoryHandler := handler.NewInventoryHandler(inventoryService)
	distributionHandler := handler.NewDistributionHandler(distributionService)
	requestHandler := handler.NewRequestHandler(requestService)
	trackingHandler := handler.NewTrackingHandler(trackingService)
	auditHandler := handler.NewAuditHandler(auditService)

	router := gin.New()
	router.Use(middleware.RequestLogger(), gin.Recovery())

	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = []string{"http://localhost:5173", "http://127.0.0.1:5173"}
	corsConfig.AllowCredentials = true
	corsConfig.AllowHeaders = []string{"Origin", "Content-Length", "Content-Type", "Authorization", "Accept"}
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}
	router.Use(cors.New(corsConfig))

	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "OK"})
	})

	router.GET("/ws", func(c *gin.Context) {
		websocket.ServeWs(wsHub, c, middleware.GetJWTSecret())
	})

	api := router.Group("/api")
	authHandler.RegisterRoutes(api)
	officeHandler.RegisterRoutes(api)
	catalogHandler.RegisterRoutes(api)
	purchaseHandler.RegisterRoutes(api)
	inventoryHandler.RegisterRoutes(api)
	distributionHandler.RegisterRoutes(api)
	requestHandler.RegisterRoutes(api)
	trackingHandler.RegisterRoutes(api)
	auditHandler.RegisterRoutes(api)

	port := envOr("PORT", "8080")
	log.Info().Str("port", port).Msg("server listening")
	if err := router.Run(":" + port); err != nil {
		log.Fatal().Err(err).Msg("server failed")
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
