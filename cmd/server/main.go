package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/stayko/api/internal/config"
	"github.com/stayko/api/internal/database"
	"github.com/stayko/api/internal/geo"
	"github.com/stayko/api/internal/handlers"
	"github.com/stayko/api/internal/logger"
	"github.com/stayko/api/internal/mapview"
	"github.com/stayko/api/internal/middleware"
	"github.com/stayko/api/internal/repository"
	"github.com/stayko/api/internal/services"
	"github.com/stayko/api/internal/upload"
)

const (
	shutdownTimeout = 30 * time.Second
)

func main() {
	// Load a local .env when present; real deployments set the environment.
	_ = godotenv.Load()

	// Load configuration from environment variables
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// Initialize structured logger
	log := logger.New(cfg.Server.Env)
	log.Info("Starting StayKo API", map[string]interface{}{
		"version":     handlers.APIVersion,
		"environment": cfg.Server.Env,
		"port":        cfg.Server.Port,
	})

	// Create database connection pool
	ctx := context.Background()
	db, err := database.NewPostgresPool(ctx, cfg.Database)
	if err != nil {
		log.Fatal("Failed to connect to database", err, map[string]interface{}{
			"host": cfg.Database.Host,
			"port": cfg.Database.Port,
			"name": cfg.Database.Name,
		})
	}
	defer db.Close()

	log.Info("Database connection established", map[string]interface{}{
		"host":     cfg.Database.Host,
		"port":     cfg.Database.Port,
		"database": cfg.Database.Name,
		"pool_min": cfg.Database.PoolMin,
		"pool_max": cfg.Database.PoolMax,
	})

	// Setup Gin router
	if cfg.Server.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()

	// Add middleware in order: RequestID -> Logger -> Recovery -> CORS
	router.Use(middleware.RequestID())
	router.Use(middleware.Logger(log))
	router.Use(middleware.Recovery(log))
	router.Use(middleware.CORS(cfg.CORS.Origins))

	// Register health check routes
	healthHandler := handlers.NewHealthHandler(db, cfg.Server.Env)
	router.GET("/health", healthHandler.Health)
	router.GET("/health/ready", healthHandler.Ready)
	router.GET("/api/v1/info", healthHandler.Info)

	// Initialize repository and service layers
	listingRepo := repository.NewListingRepository(db)
	profileRepo := repository.NewProfileRepository(db)
	listingService := services.NewListingService(listingRepo, log)
	profileService := services.NewProfileService(profileRepo, log)

	// External service adapters
	routing := geo.NewOSRMClient(cfg.Routing.BaseURL)
	geocoder := geo.NewNominatimClient(cfg.Geocoding.BaseURL)
	uploader := upload.NewCloudinaryUploader(cfg.Uploads.CloudName, cfg.Uploads.UploadPreset)

	// Map interaction sessions
	mapSessions := mapview.NewManager(listingService, routing, log)
	sweeperCtx, stopSweeper := context.WithCancel(ctx)
	defer stopSweeper()
	mapSessions.StartSweeper(sweeperCtx)

	// Initialize handlers
	listingHandler := handlers.NewListingHandler(listingService)
	profileHandler := handlers.NewProfileHandler(profileService, uploader)
	geoHandler := handlers.NewGeoHandler(routing, geocoder)
	mapHandler := handlers.NewMapHandler(mapSessions)
	uploadHandler := handlers.NewUploadHandler(uploader)

	// Register API v1 routes
	v1 := router.Group("/api/v1")
	{
		listings := v1.Group("/listings")
		{
			listings.GET("", listingHandler.List)
			listings.GET("/:id", listingHandler.Get)
		}

		profiles := v1.Group("/profiles")
		{
			profiles.GET("/:id", profileHandler.GetPublic)
		}

		geoGroup := v1.Group("/geo")
		{
			geoGroup.GET("/route", geoHandler.Route)
			geoGroup.GET("/reverse", geoHandler.Reverse)
		}

		sessions := v1.Group("/map/sessions")
		{
			sessions.POST("", mapHandler.CreateSession)
			sessions.DELETE("/:id", mapHandler.DestroySession)
			sessions.GET("/:id/scene", mapHandler.Scene)
			sessions.PUT("/:id/position", mapHandler.SetPosition)
			sessions.PUT("/:id/filter", mapHandler.SetFilter)
			sessions.PUT("/:id/style", mapHandler.SetStyle)
			sessions.POST("/:id/select", mapHandler.Select)
			sessions.POST("/:id/close", mapHandler.Close)
			sessions.DELETE("/:id/route", mapHandler.ClearRoute)
			sessions.POST("/:id/carousel/next", mapHandler.NextImage)
			sessions.POST("/:id/carousel/previous", mapHandler.PreviousImage)
			sessions.PUT("/:id/carousel/maximized", mapHandler.SetMaximized)
			sessions.POST("/:id/copy-phone", mapHandler.CopyPhone)
		}

		// Owner-scoped routes require a verified bearer token.
		authed := v1.Group("")
		authed.Use(middleware.RequireAuth(cfg.Auth.JWTSecret))
		{
			authed.GET("/listings/mine", listingHandler.ListMine)
			authed.POST("/listings", listingHandler.Create)
			authed.PUT("/listings/:id", listingHandler.Update)
			authed.DELETE("/listings/:id", listingHandler.Delete)
			authed.PATCH("/listings/:id/status", listingHandler.SetStatus)

			authed.GET("/profiles/me", profileHandler.GetMe)
			authed.PUT("/profiles/me", profileHandler.UpdateMe)

			authed.POST("/uploads", uploadHandler.Upload)
		}
	}

	// Create HTTP server
	srv := &http.Server{
		Addr:    fmt.Sprintf(":%s", cfg.Server.Port),
		Handler: router,
	}

	// Start server in goroutine
	go func() {
		log.Info("Server listening", map[string]interface{}{
			"port": cfg.Server.Port,
			"addr": srv.Addr,
		})
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("Server failed to start", err, nil)
		}
	}()

	// Wait for interrupt signal (SIGINT or SIGTERM)
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	// Graceful shutdown
	log.Info("Shutting down server...", nil)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown", err, map[string]interface{}{
			"timeout": shutdownTimeout.String(),
		})
	}

	log.Info("Server exited", nil)
}
