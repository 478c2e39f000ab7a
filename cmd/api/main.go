package main

import (
	"log"
	"os"
	"strconv"

	_ "stocksage/api/swagger" // swagger docs
	"stocksage/internal/auth"
	"stocksage/internal/database"
	"stocksage/internal/handler"
	"stocksage/internal/middleware"
	"stocksage/internal/payment"
	"stocksage/internal/repository"
	"stocksage/internal/service"
	"stocksage/internal/websocket"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

// @title           StockSage API
// @version         1.0
// @description     Inventory and invoicing backend: product/stock tracking, batch stocktake reconciliation, bulk invoice operations, multi-provider authentication with guest mode.
// @host            localhost:8080
// @BasePath        /
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	if err := godotenv.Load("configs/.env"); err != nil {
		log.Println("No configs/.env file found or error loading it")
	}

	dbHost := getEnv("DB_HOST", "localhost")
	dbPort := getEnv("DB_PORT", "5432")
	dbUser := getEnv("DB_USER", "postgres")
	dbPassword := getEnv("DB_PASSWORD", "postgres")
	dbName := getEnv("DB_NAME", "stocksage")
	dbSslMode := getEnv("DB_SSLMODE", "disable")

	dsn := "postgres://" + dbUser + ":" + dbPassword + "@" + dbHost + ":" + dbPort + "/" + dbName + "?sslmode=" + dbSslMode

	db, err := database.NewConnection(dsn)
	if err != nil {
		log.Fatalf("Database connection failed: %v", err)
	}
	log.Println("Connected to PostgreSQL successfully.")

	// Set up WebSocket Hub
	wsHub := websocket.NewHub()
	go wsHub.Run()

	// Set up dependencies (Repository -> Service -> Handler)
	userRepo := repository.NewUserRepository(db)
	productRepo := repository.NewProductRepository(db)
	logRepo := repository.NewInventoryLogRepository(db)
	invoiceRepo := repository.NewInvoiceRepository(db)
	txManager := repository.NewTransactionManager(db)

	guestStore := auth.NewGuestStore(auth.GuestCookieSecret())
	guestPoolSize, _ := strconv.Atoi(getEnv("GUEST_POOL_SIZE", "500"))
	guestPool := auth.NewGuestPool(userRepo, guestPoolSize)
	resolver := auth.NewDefaultResolver(guestStore)

	tokenCache := payment.NewTokenCache()
	paymentClient := payment.NewClient(
		getEnv("PAYMENT_API_URL", "https://api.payment.example"),
		os.Getenv("PAYMENT_CLIENT_ID"),
		os.Getenv("PAYMENT_CLIENT_SECRET"),
		tokenCache,
	)

	userService := service.NewUserService(userRepo)
	productService := service.NewProductService(productRepo, logRepo, txManager, wsHub)
	stocktakeService := service.NewStocktakeService(productRepo, logRepo, txManager, wsHub)
	invoiceService := service.NewInvoiceService(invoiceRepo, txManager)

	// Initialize Handlers
	authHandler := handler.NewAuthHandler(userService, guestStore, guestPool)
	inventoryHandler := handler.NewInventoryHandler(productService, stocktakeService)
	invoiceHandler := handler.NewInvoiceHandler(invoiceService, paymentClient)

	// Set up Gin Router
	router := gin.Default()

	// CORS configuration
	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = []string{"http://localhost:5173", "http://127.0.0.1:5173", "http://localhost:3000"} // Frontend URL
	corsConfig.AllowCredentials = true
	corsConfig.AllowHeaders = []string{"Origin", "Content-Length", "Content-Type", "Authorization", "Accept"}
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}
	router.Use(cors.New(corsConfig))

	// Route access policy gates every request before handlers run
	degraded := !auth.HasConfiguredSecret() && gin.Mode() != gin.ReleaseMode
	policy := middleware.NewAccessPolicy(resolver, degraded)
	router.Use(policy.Handler())

	// Swagger route
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// Health check
	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "OK"})
	})

	// WebSocket endpoint
	router.GET("/ws", func(c *gin.Context) {
		websocket.ServeWs(wsHub, c, auth.JWTSecret())
	})

	// Register API Routes
	authHandler.RegisterRoutes(router.Group(""))
	inventoryHandler.RegisterRoutes(router.Group(""))
	invoiceHandler.RegisterRoutes(router.Group(""))

	port := getEnv("PORT", "8080")

	log.Printf("Server listening on :%s", port)
	if err := router.Run(":" + port); err != nil {
		log.Fatalf("Server failed: %v", err)
	}
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
