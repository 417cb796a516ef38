package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

type Config struct {
	MongoURI string
	DBName   string

	Port        string
	GinMode     string
	CORSOrigins []string

	// Gemini
	GeminiAPIKey    string
	GeminiTier      string // "free", "tier1", "tier2"
	ExtractionModel string // e.g. "gemini-2.0-flash"

	// Embeddings configuration
	EmbeddingsProvider    string // "google" (default)
	GoogleEmbeddingsModel string // e.g. "text-embedding-004"
	VectorDimensions      int

	// Matching / scoring policy. Changing these changes every derived
	// score, so deployments comparing scores over time must pin them.
	MatchThreshold     float64
	WeightEssential    float64
	WeightNiceToHave   float64
	WeightDefault      float64
	WeightFlat         float64
	DefaultRankLimit   int
	RankCacheTTLSecs   int
	ReembedIntervalSec int

	// Resume upload handling
	MaxFileSize         int64
	AllowedTypes        []string
	FileStorageDir      string
	SyncProcessingLimit int64

	// MongoDB Atlas vector search (optional; in-process matching otherwise)
	VectorSearchEnabled bool
	VectorIndexName     string

	// Redis Configuration
	RedisURL      string
	RedisPassword string
	RedisDB       int

	// Rate limiting
	RateLimitReqs   int
	RateLimitWindow int

	// Tracing
	TracingEnabled bool
	OTLPEndpoint   string
}

func LoadConfig() (*Config, error) {
	// Load .env file if exists
	if _, err := os.Stat(".env"); err == nil {
		if err := godotenv.Load(); err != nil {
			return nil, fmt.Errorf("error loading .env file: %v", err)
		}
	}

	cfg := &Config{
		MongoURI: getEnv("MONGO_URI", "mongodb://localhost:27017/cv_screening"),
		DBName:   getEnv("DB_NAME", "cv_screening"),

		Port:        getEnv("PORT", "8080"),
		GinMode:     getEnv("GIN_MODE", "debug"),
		CORSOrigins: strings.Split(getEnv("CORS_ORIGINS", "http://localhost:3000,http://localhost:8080"), ","),

		GeminiAPIKey:    getEnv("GEMINI_API_KEY", ""),
		GeminiTier:      getEnv("GEMINI_TIER", "free"),
		ExtractionModel: getEnv("EXTRACTION_MODEL", "gemini-2.0-flash"),

		EmbeddingsProvider:    getEnv("EMBEDDINGS_PROVIDER", "google"),
		GoogleEmbeddingsModel: getEnv("GOOGLE_EMBEDDINGS_MODEL", "text-embedding-004"),
		VectorDimensions:      getEnvInt("VECTOR_DIM", 768),

		MatchThreshold:     getEnvFloat64("MATCH_THRESHOLD", 0.65),
		WeightEssential:    getEnvFloat64("WEIGHT_ESSENTIAL", 10),
		WeightNiceToHave:   getEnvFloat64("WEIGHT_NICE_TO_HAVE", 5),
		WeightDefault:      getEnvFloat64("WEIGHT_DEFAULT", 2),
		WeightFlat:         getEnvFloat64("WEIGHT_FLAT", 5),
		DefaultRankLimit:   getEnvInt("DEFAULT_RANK_LIMIT", 50),
		RankCacheTTLSecs:   getEnvInt("RANK_CACHE_TTL", 60),
		ReembedIntervalSec: getEnvInt("REEMBED_INTERVAL", 900), // 15 minutes

		MaxFileSize:         getEnvInt64("MAX_FILE_SIZE", 20971520), // 20MB per resume
		AllowedTypes:        strings.Split(getEnv("ALLOWED_FILE_TYPES", "application/pdf,text/plain"), ","),
		FileStorageDir:      getEnv("FILE_STORAGE_DIR", "./storage"),
		SyncProcessingLimit: getEnvInt64("SYNC_PROCESSING_LIMIT", 2097152), // 2MB sync processing limit

		VectorSearchEnabled: getEnvBool("MONGODB_VECTOR_ENABLED", false),
		VectorIndexName:     getEnv("MONGODB_VECTOR_INDEX", "section_vectors_index"),

		RedisURL:      getEnv("REDIS_URL", "localhost:6379"),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisDB:       getEnvInt("REDIS_DB", 0),

		RateLimitReqs:   getEnvInt("RATE_LIMIT_REQUESTS", 100),
		RateLimitWindow: getEnvInt("RATE_LIMIT_WINDOW", 60),

		TracingEnabled: getEnvBool("TRACING_ENABLED", false),
		OTLPEndpoint:   getEnv("OTLP_ENDPOINT", "localhost:4317"),
	}

	// Validate required fields
	if cfg.GeminiAPIKey == "" {
		return nil, fmt.Errorf("GEMINI_API_KEY is required - set it in .env file")
	}

	if cfg.MatchThreshold <= 0 || cfg.MatchThreshold > 2 {
		return nil, fmt.Errorf("MATCH_THRESHOLD must be in (0, 2], got %v", cfg.MatchThreshold)
	}

	return cfg, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvInt64(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.ParseInt(value, 10, 64); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

func getEnvFloat64(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return floatValue
		}
	}
	return defaultValue
}
