package main

import (
	"log"
	"os"

	_ "github.com/prontto/backend/api/swagger" // swagger docs
	"github.com/prontto/backend/internal/database"
	"github.com/prontto/backend/internal/handler"
	"github.com/prontto/backend/internal/middleware"
	"github.com/prontto/backend/internal/repository"
	"github.com/prontto/backend/internal/service"
	"github.com/prontto/backend/internal/websocket"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

// @title           Prontto POS API
// @version         1.0
// @description     Inventory, orders, credit notes and returns for a multi-store retail operation.
// @host            localhost:8080
// @BasePath        /
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	if err := godotenv.Load("configs/.env"); err != nil {
		log.Println("No configs/.env file found or error loading it")
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
		log.Fatalf("Database connection failed: %v", err)
	}
	log.Println("Connected to PostgreSQL successfully.")

	// Set up WebSocket Hub
	wsHub := websocket.NewHub()
	go wsHub.Run()

	// Repositories
	txManager := repository.NewTransactionManager(db)
	userRepo := repository.NewUserRepository(db)
	auditRepo := repository.NewAuditRepository(db)
	storeRepo := repository.NewStoreRepository(db)
	productRepo := repository.NewProductRepository(db)
	customerRepo := repository.NewCustomerRepository(db)
	supplierRepo := repository.NewSupplierRepository(db)
	inventoryRepo := repository.NewInventoryRepository(db)
	transferRepo := repository.NewTransferRepository(db)
	orderRepo := repository.NewOrderRepository(db)
	creditNoteRepo := repository.NewCreditNoteRepository(db)
	returnRepo := repository.NewReturnRepository(db)

	// Services (Repository -> Service -> Handler)
	userService := service.NewUserService(userRepo)
	auditService := service.NewAuditService(auditRepo)
	catalogService := service.NewCatalogService(productRepo, storeRepo, supplierRepo)
	stockService := service.NewStockService(inventoryRepo, auditRepo, txManager, wsHub)
	transferService := service.NewTransferService(transferRepo, inventoryRepo, storeRepo, auditRepo, stockService, txManager, wsHub)
	creditService := service.NewCreditService(creditNoteRepo, customerRepo, orderRepo, auditRepo, txManager)
	directoryService := service.NewDirectoryService(customerRepo, supplierRepo, creditService)
	orderService := service.NewOrderService(orderRepo, productRepo, customerRepo, storeRepo, auditRepo, stockService, creditService, txManager)
	returnService := service.NewReturnService(returnRepo, orderRepo, productRepo, customerRepo, supplierRepo, creditNoteRepo, auditRepo, stockService, txManager)

	// Handlers
	userHandler := handler.NewUserHandler(userService)
	auditHandler := handler.NewAuditHandler(auditService)
	catalogHandler := handler.NewCatalogHandler(catalogService)
	directoryHandler := handler.NewDirectoryHandler(directoryService)
	stockHandler := handler.NewStockHandler(stockService)
	transferHandler := handler.NewTransferHandler(transferService)
	orderHandler := handler.NewOrderHandler(orderService)
	creditHandler := handler.NewCreditHandler(creditService)
	returnHandler := handler.NewReturnHandler(returnService)

	// Set up Gin Router
	router := gin.Default()

	// CORS configuration
	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = []string{"http://localhost:5173", "http://127.0.0.1:5173"}
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
	auditHandler.RegisterRoutes(router.Group(""))
	catalogHandler.RegisterRoutes(router.Group(""))
	directoryHandler.RegisterRoutes(router.Group(""))
	stockHandler.RegisterRoutes(router.Group(""))
	transferHandler.RegisterRoutes(router.Group(""))
	orderHandler.RegisterRoutes(router.Group(""))
	creditHandler.RegisterRoutes(router.Group(""))
	returnHandler.RegisterRoutes(router.Group(""))

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	log.Printf("Server listening on :%s", port)
	if err := router.Run(":" + port); err != nil {
		log.Fatalf("Server failed: %v", err)
	}
}
