package main

import (
	"context"
	"log"

	"cv-screening-platform/internal/ai"
	"cv-screening-platform/internal/config"
	"cv-screening-platform/internal/logger"
	"cv-screening-platform/internal/queue"
	"cv-screening-platform/internal/telemetry"
	"cv-screening-platform/services"

	"github.com/hibiken/asynq"
)

func main() {
	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal("Failed to load config:", err)
	}

	logger.InitLogger(cfg)

	metrics, err := telemetry.InitMetrics()
	if err != nil {
		log.Fatal("Failed to initialize metrics:", err)
	}

	// Connect to MongoDB
	mongoClient, err := config.ConnectMongoDB(cfg)
	if err != nil {
		log.Fatal("Failed to connect to MongoDB:", err)
	}
	defer mongoClient.Disconnect(context.Background())
	db := mongoClient.Database(cfg.DBName)

	// Connect to Redis
	redisClient, err := config.NewRedisClient(cfg)
	if err != nil {
		log.Fatal("Failed to connect to Redis:", err)
	}
	defer redisClient.Close()

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

	// Services; the ingest service doubles as the task handler, so the
	// worker and the API share one pipeline implementation.
	rankCache := services.NewRankCache(redisClient, cfg.RankCacheTTLSecs)
	ingestSvc := services.NewIngestService(cfg, db, resumeParser, embedder, nil, rankCache, metrics)

	// Re-embed reconciler: picks up sections whose vectors never landed.
	reembedSvc := services.NewReembedService(cfg, db, embedder, rankCache)
	go reembedSvc.Start()
	defer reembedSvc.Stop()

	// Redis options for Asynq
	redisOpt := asynq.RedisClientOpt{
		Addr:     cfg.RedisURL,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	}

	// Create Asynq server
	server := asynq.NewServer(
		redisOpt,
		asynq.Config{
			Concurrency: 10,
			Queues: map[string]int{
				"critical": 6,
				"default":  3,
				"low":      1,
			},
			StrictPriority: true,
			ErrorHandler: asynq.ErrorHandlerFunc(func(ctx context.Context, task *asynq.Task, err error) {
				logger.Error("Task failed", "type", task.Type(), "error", err)
			}),
		},
	)

	// Create mux and register handlers
	mux := asynq.NewServeMux()
	mux.HandleFunc(queue.TaskIngestResume, ingestSvc.HandleIngestTask)

	log.Println("🚀 Starting Asynq worker...")
	log.Printf("   Queues: critical(6), default(3), low(1)")
	log.Printf("   Redis: %s", redisOpt.Addr)

	// Start the server
	if err := server.Run(mux); err != nil {
		log.Fatal("Failed to start worker:", err)
	}
}
