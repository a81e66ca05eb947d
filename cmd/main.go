package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"invoice-qa-platform/internal/ai"
	"invoice-qa-platform/internal/config"
	"invoice-qa-platform/internal/logger"
	"invoice-qa-platform/internal/telemetry"
	"invoice-qa-platform/middleware"
	"invoice-qa-platform/routes"
	"invoice-qa-platform/services"
)

func main() {
	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal("Failed to load config:", err)
	}

	logger.InitLogger(cfg)

	// Telemetry is opt-in: without a collector the exporter just burns
	// connections.
	var metrics *telemetry.Metrics
	if cfg.OTELEnabled {
		shutdownTracer, err := telemetry.InitTracer("invoice-qa-platform", cfg.OTELEndpoint)
		if err != nil {
			log.Fatal("Failed to initialize tracer:", err)
		}
		defer shutdownTracer()

		metrics, err = telemetry.InitMetrics()
		if err != nil {
			log.Fatal("Failed to initialize metrics:", err)
		}
	}

	// AI provider with injected credentials
	provider, err := ai.NewProvider(cfg, metrics)
	if err != nil {
		log.Fatal("Failed to initialize AI provider:", err)
	}
	defer provider.Close()

	chunker, err := services.NewChunkingService(cfg.ChunkSize, cfg.ChunkOverlap)
	if err != nil {
		log.Fatal("Failed to initialize chunker:", err)
	}

	answerer := services.NewAnswerService(provider)
	sessions := services.NewSessionService(cfg, chunker, provider, answerer, metrics)
	extractor := services.NewPDFExtractor(metrics)

	janitor := services.NewSessionJanitor(sessions, cfg.SessionIdleTTL)
	if err := janitor.Start(); err != nil {
		log.Fatal("Failed to start session janitor:", err)
	}
	defer janitor.Stop()

	// Initialize Gin router
	if cfg.GinMode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Logger())
	router.Use(gin.Recovery())
	router.Use(middleware.RequestIDMiddleware())
	if cfg.OTELEnabled {
		router.Use(middleware.TracingMiddleware())
		router.Use(middleware.EnrichTrace())
		router.Use(middleware.MetricsMiddleware(metrics))
	}
	router.Use(middleware.RateLimitMiddleware(cfg))
	// Per-file size is enforced later; the body cap covers a full batch
	// plus multipart framing.
	router.Use(middleware.RequestSizeLimit(cfg.MaxFileSizeBytes()*int64(cfg.MaxFilesPerUpload) + 1<<20))

	// CORS configuration
	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = cfg.CORSOrigins
	corsConfig.AllowMethods = []string{"GET", "POST", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "Accept", "X-Requested-With"}
	router.Use(cors.New(corsConfig))

	// Health check endpoint
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "healthy", "timestamp": time.Now()})
	})

	// Setup routes
	routes.SetupSessionRoutes(router, sessions)
	routes.SetupQARoutes(router, cfg, sessions, extractor)

	// Create HTTP server
	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: router,
	}

	// Start server in a goroutine
	go func() {
		logger.Info("server starting", "port", cfg.Port, "provider", cfg.AIProvider)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("shutting down server")

	// Graceful shutdown with timeout
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal("Server forced to shutdown:", err)
	}

	logger.Info("server exited")
}
