package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/paulzwecker/asklio-case-study/config"
	"github.com/paulzwecker/asklio-case-study/handler"
	"github.com/paulzwecker/asklio-case-study/middleware"
	"github.com/paulzwecker/asklio-case-study/pkg/logger"
	"github.com/paulzwecker/asklio-case-study/service"
)

func main() {
	// Load configuration
	cfg, err := config.Load("config.yaml")
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	// Initialize logger
	logger.Init(&logger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
	})

	slog.Info("configuration loaded successfully")

	// Initialize request store with config
	service.InitRequestStore(&cfg.Store)

	// Offer archival is optional: only wired when object storage is configured
	var archiver service.OfferArchiver
	if cfg.Minio.Endpoint != "" {
		archiveSvc, err := service.NewArchiveService(&cfg.Minio)
		if err != nil {
			slog.Error("failed to initialize archive service", "error", err)
			os.Exit(1)
		}
		if err := archiveSvc.EnsureBucket(context.Background()); err != nil {
			slog.Error("failed to ensure archive bucket", "error", err)
			os.Exit(1)
		}
		archiver = archiveSvc
		slog.Info("offer archival enabled", "bucket", cfg.Minio.Bucket)
	}

	// Initialize services
	openaiSvc := service.NewOpenAIService(&cfg.OpenAI)
	extractionSvc := service.NewOfferExtractionService(openaiSvc, archiver)
	requestSvc := service.NewRequestService(service.GetRequestStore(), service.NewCommodityService())

	// Initialize handlers
	requestHandler := handler.NewRequestHandler(requestSvc)
	offerHandler := handler.NewOfferHandler(extractionSvc)

	// Setup Gin router
	gin.SetMode(gin.ReleaseMode)
	router := gin.New() // Use New() instead of Default() to avoid default middleware

	// Add custom middleware
	router.Use(middleware.RequestID())                 // Request ID for tracing
	router.Use(middleware.Recovery())                  // Panic recovery
	router.Use(middleware.RequestLogger())             // Access logging
	router.Use(corsMiddleware())                       // CORS
	router.Use(middleware.RateLimit(100, time.Minute)) // Rate limiting: 100 requests per minute

	// Health check endpoint
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status": "ok",
		})
	})

	// API routes
	router.GET("/requests", requestHandler.List)
	router.POST("/requests", requestHandler.Create)
	router.GET("/requests/:id", requestHandler.Get)
	router.PATCH("/requests/:id/status", requestHandler.UpdateStatus)
	router.POST("/offers/parse", offerHandler.Parse)

	// Create server
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  60 * time.Second,
		WriteTimeout: 180 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	// Start server in goroutine
	go func() {
		slog.Info("server starting", "port", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("failed to start server", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	slog.Info("shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		slog.Error("server forced to shutdown", "error", err)
		os.Exit(1)
	}

	slog.Info("server exited gracefully")
}

// corsMiddleware handles CORS headers for the frontend
func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, Authorization, accept, origin, Cache-Control, X-Requested-With, X-Request-ID")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS, GET, PUT, PATCH, DELETE")
		c.Writer.Header().Set("Access-Control-Expose-Headers", "X-Request-ID")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	}
}
