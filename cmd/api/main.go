package main

import (
	"log"
	"os"

	_ "enquiry-backend/api/swagger" // swagger docs
	"enquiry-backend/internal/database"
	"enquiry-backend/internal/handler"
	"enquiry-backend/internal/middleware"
	"enquiry-backend/internal/repository"
	"enquiry-backend/internal/service"
	"enquiry-backend/internal/upload"
	"enquiry-backend/internal/websocket"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// @title           Enquiry Procurement API
// @version         1.0
// @description     Freight shipment enquiry intake and procurement pricing API with real-time updates.
// @host            localhost:8080
// @BasePath        /
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	if err := godotenv.Load("configs/.env"); err != nil {
		log.Println("No configs/.env file found or error loading it")
	}

	dbHost := getenv("DB_HOST", "localhost")
	dbPort := getenv("DB_PORT", "5432")
	dbUser := getenv("DB_USER", "postgres")
	dbPassword := getenv("DB_PASSWORD", "postgres")
	dbName := getenv("DB_NAME", "postgres")
	dbSslMode := getenv("DB_SSLMODE", "disable")

	dsn := "postgres://" + dbUser + ":" + dbPassword + "@" + dbHost + ":" + dbPort + "/" + dbName + "?sslmode=" + dbSslMode

	db, err := database.NewConnection(dsn)
	if err != nil {
		log.Fatalf("Database connection failed: %v", err)
	}
	log.Println("Connected to PostgreSQL successfully.")

	// Attachment storage on local disk, served statically below
	uploadDir := getenv("UPLOAD_DIR", "uploads")
	attachments, err := upload.NewDiskStore(upload.Options{Dir: uploadDir})
	if err != nil {
		log.Fatalf("Upload store init failed: %v", err)
	}

	// One hub per process; services publish into it, /ws clients drain it
	wsHub := websocket.NewHub()
	go wsHub.Run()

	// Set up dependencies (Repository -> Service -> Handler)
	userRepo := repository.NewUserRepository(db)
	enquiryRepo := repository.NewEnquiryRepository(db)
	auditRepo := repository.NewAuditRepository(db)
	txManager := repository.NewTransactionManager(db)

	userService := service.NewUserService(userRepo, auditRepo, middleware.GetJWTSecret())
	enquiryService := service.NewEnquiryService(enquiryRepo, auditRepo, txManager, attachments, wsHub)
	auditService := service.NewAuditService(auditRepo)

	authHandler := handler.NewAuthHandler(userService)
	enquiryHandler := handler.NewEnquiryHandler(enquiryService)
	procurementHandler := handler.NewProcurementHandler(enquiryService)
	auditHandler := handler.NewAuditHandler(auditService)

	router := gin.Default()

	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = []string{getenv("CLIENT_ORIGIN", "http://localhost:3000")}
	corsConfig.AllowCredentials = true
	corsConfig.AllowHeaders = []string{"Origin", "Content-Length", "Content-Type", "Authorization", "Accept"}
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}
	router.Use(cors.New(corsConfig))

	// Swagger route
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// Health check
	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "OK"})
	})

	// Uploaded attachments are retrievable by their stored name
	router.Static("/uploads", attachments.Dir())

	// WebSocket endpoint
	router.GET("/ws", func(c *gin.Context) {
		websocket.ServeWs(wsHub, c, middleware.GetJWTSecret())
	})

	// API routing
	authHandler.RegisterRoutes(router.Group(""))
	enquiryHandler.RegisterRoutes(router.Group(""))
	procurementHandler.RegisterRoutes(router.Group(""))
	auditHandler.RegisterRoutes(router.Group(""))

	port := getenv("PORT", "8080")

	log.Printf("Server listening on :%s", port)
	if err := router.Run(":" + port); err != nil {
		log.Fatalf("Server failed: %v", err)
	}
}
