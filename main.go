// @title Face detection API
// @description Face Detection Backend for REST API.
// @version 1.0
// @BasePath /
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
package main

import (
	"context"

	"github.com/faceapi/backend/internal/config"
	"github.com/faceapi/backend/internal/db"
	"github.com/faceapi/backend/internal/detect"
	"github.com/faceapi/backend/internal/handler"
	"github.com/faceapi/backend/internal/service"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
)

func main() {
	// .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()

	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})

	cfg, err := config.Load()
	if err != nil {
		logger.Fatalf("Failed to load config: %v", err)
	}

	logLevel, err := logrus.ParseLevel(cfg.Server.LogLevel)
	if err != nil {
		logLevel = logrus.InfoLevel
	}
	logger.SetLevel(logLevel)

	ctx := context.Background()

	pool, err := db.NewPostgresPool(ctx)
	if err != nil {
		logger.Fatalf("Failed to connect to postgres: %v", err)
	}
	defer pool.Close()

	store := db.New(pool)
	if err := store.EnsureSchema(ctx); err != nil {
		logger.Fatalf("Failed to ensure schema: %v", err)
	}

	detector, err := detect.NewDetector(cfg.Detect.CascadeFile)
	if err != nil {
		logger.Fatalf("Failed to load face detector: %v", err)
	}

	authService, err := service.NewAuthService(store, cfg.Auth, logger)
	if err != nil {
		logger.Fatalf("Failed to create auth service: %v", err)
	}
	quotaService := service.NewQuotaService(store, logger)
	imageService := service.NewImageService(store, quotaService, detector, logger)

	authHandler := handler.NewAuthHandler(authService)
	imageHandler := handler.NewImageHandler(imageService)

	router := gin.Default()
	router.Use(handler.CORSMiddleware())

	router.GET("/", handler.Root)
	router.GET("/ping", handler.Ping)
	router.GET("/openapi.json", handler.OpenAPIDoc)

	users := router.Group("/users")
	{
		users.POST("/register", authHandler.Register)
		users.POST("/login", authHandler.Login)
		users.POST("/refreshtoken", authHandler.RefreshToken)
	}

	app := router.Group("/app")
	app.Use(handler.AuthMiddleware(authService))
	{
		app.POST("/detect_faces", imageHandler.DetectFaces)
		app.GET("/", imageHandler.ListImages)
		app.GET("/:id", imageHandler.GetImage)
	}

	addr := ":" + cfg.Server.Port
	logger.Infof("Listening on %s", addr)
	if err := router.Run(addr); err != nil {
		logger.Fatalf("Server stopped: %v", err)
	}
}
