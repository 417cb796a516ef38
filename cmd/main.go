package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"cv-screening-platform/internal/ai"
	"cv-screening-platform/internal/config"
	"cv-screening-platform/internal/logger"
	"cv-screening-platform/internal/telemetry"
	"cv-screening-platform/middleware"
	"cv-screening-platform/routes"
	"cv-screening-platform/services"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/hibiken/asynq"
)

func main() {
	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal("Failed to load config:", err)
	}

	logger.InitLogger(cfg)

	// Tracing and metrics
	if cfg.TracingEnabled {
		shutdown, err := telemetry.InitTracer("cv-screening-platform", cfg.OTLPEndpoint)
		if err != nil {
			log.Fatal("Failed to initialize tracer:", err)
		}
		defer shutdown()
	}
	metrics, err := telemetry.InitMetrics()
	if err != nil {
		log.Fatal("Failed to initialize metrics:", err)
	}

	// Connect to MongoDB
	mongoClient, err := config.ConnectMongoDB(cfg)
	if err != nil {
		log.Fatal("Failed to connect to MongoDB:", err)
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		mongoClient.Disconnect(ctx)
	}()
	db := mongoClient.Database(cfg.DBName)

	// Connect to Redis
	redisClient, err := config.NewRedisClient(cfg)
	if err != nil {
		log.Fatal("Failed to connect to Redis:", err)
	}
	defer redisClient.Close()

	// Asynq client for queued resume processing
	asynqClient := asynq.NewClient(asynq.RedisClientOpt{
		Addr:     cfg.RedisURL,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	defer asynqClient.Close()

	// AI clients
	ctx := context.Background()
	embedder, err := ai.NewEmbedder(ctx, cfg)
	if err != nil {
		log.Fatal("Failed to initialize embedder:", err)
	}
	defer embedder.Close()

	resumeParser, err := ai.NewResumeExtractor(cfg.GeminiAPIKey, cfg.ExtractionModel, cfg.GeminiTier, metrics)
	if err != nil {
		log.Fatal("Failed to initialize resume extractor:", err)
	}
	defer resumeParser.Close()

	// Services
	rankCache := services.NewRankCache(redisClient, cfg.RankCacheTTLSecs)
	ingestSvc := services.NewIngestService(cfg, db, resumeParser, embedder, asynqClient, rankCache, metrics)
	catalogSvc := services.NewCatalogService(cfg, db, embedder, rankCache)
	rankingSvc := services.NewRankingService(cfg, db, embedder, rankCache, metrics)
	exportSvc := services.NewExportService()

	// Initialize Gin router
	if cfg.GinMode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Logger())
	router.Use(gin.Recovery())
	router.Use(middleware.RequestIDMiddleware())
	if cfg.TracingEnabled {
		router.Use(middleware.TracingMiddleware())
		router.Use(middleware.EnrichTrace())
	}
	router.Use(middleware.MetricsMiddleware(metrics))
	router.Use(middleware.RateLimitMiddleware(redisClient, cfg))

	// CORS configuration
	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = cfg.CORSOrigins
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "Accept", "X-Requested-With"}
	corsConfig.AllowCredentials = true
	router.Use(cors.New(corsConfig))

	// Health check endpoint
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "healthy", "timestamp": time.Now()})
	})

	// Routes
	router.POST("/resumes", routes.HandleResumeUpload(cfg, ingestSvc))
	router.GET("/resumes/:id", routes.HandleGetCandidate(ingestSvc))
	router.POST("/catalog", routes.HandleLoadCatalog(catalogSvc))
	router.GET("/catalog", routes.HandleListCatalog(catalogSvc))
	router.GET("/search/rank", routes.HandleRank(rankingSvc))
	router.GET("/search/rank/export", routes.HandleRankExport(rankingSvc, exportSvc))
	router.POST("/search/skill", routes.HandleSkillSearch(rankingSvc, catalogSvc))

	// Create HTTP server
	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: router,
	}

	// Start server in a goroutine
	go func() {
		log.Printf("Server starting on port %s", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Fatal("Server forced to shutdown:", err)
	}

	log.Println("Server exited")
}
