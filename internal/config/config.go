package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config holds application configuration
type Config struct {
	DatabaseURL string
	ServerPort  string
	FrontendURL string

	OpenAIKey  string
	AIBaseURL  string
	FastModel  string
	SmartModel string
	EmbedModel string

	RedisURL         string
	RabbitMQURL      string
	RabbitMQPrefetch int

	// Product tunables. The defaults mirror observed production values;
	// the "right" numbers are product decisions, so everything is
	// overridable from the environment.
	SessionIdleTimeout   time.Duration
	RelevanceThreshold   float64
	RetrievalTimeout     time.Duration
	LLMTimeout           time.Duration
	CompactionInterval   int
	BackgroundWorkers    int
	RecentTurnsWindow    int
	KnowledgeCacheTTL    time.Duration
	SystemPromptTTL      time.Duration
	UserContextTTL       time.Duration
	KnowledgeCorpusPath  string
	RateLimit            string
	EnableHSTS           bool
	ServerDebugMode      bool
	WorkerDebugMode      bool
	OTELEnabled          bool
	OTELEndpoint         string
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	cfg := &Config{
		DatabaseURL: getEnv("DATABASE_URL", ""),
		ServerPort:  getEnv("SERVER_PORT", "8080"),
		FrontendURL: getEnv("FRONTEND_URL", "http://localhost:3000"),

		OpenAIKey:  getEnv("OPENAI_API_KEY", ""),
		AIBaseURL:  getEnv("AI_BASE_URL", ""),
		FastModel:  getEnv("AI_FAST_MODEL", "gpt-4o-mini"),
		SmartModel: getEnv("AI_SMART_MODEL", "gpt-4o"),
		EmbedModel: getEnv("AI_EMBED_MODEL", "text-embedding-3-small"),

		RedisURL:         getEnv("REDIS_URL", "redis://localhost:6379/0"),
		RabbitMQURL:      getEnv("RABBITMQ_URL", ""),
		RabbitMQPrefetch: getEnvInt("RABBITMQ_PREFETCH", 1),

		SessionIdleTimeout:  getEnvDuration("SESSION_IDLE_TIMEOUT", 3600*time.Second),
		RelevanceThreshold:  getEnvFloat("RELEVANCE_THRESHOLD", 0.8),
		RetrievalTimeout:    getEnvDuration("RETRIEVAL_TIMEOUT", 3*time.Second),
		LLMTimeout:          getEnvDuration("LLM_TIMEOUT", 30*time.Second),
		CompactionInterval:  getEnvInt("COMPACTION_INTERVAL_SESSIONS", 5),
		BackgroundWorkers:   getEnvInt("BACKGROUND_WORKERS", 4),
		RecentTurnsWindow:   getEnvInt("RECENT_TURNS_WINDOW", 10),
		KnowledgeCacheTTL:   getEnvDuration("KNOWLEDGE_CACHE_TTL", 30*time.Minute),
		SystemPromptTTL:     getEnvDuration("SYSTEM_PROMPT_TTL", 45*time.Minute),
		UserContextTTL:      getEnvDuration("USER_CONTEXT_TTL", 5*time.Minute),
		KnowledgeCorpusPath: getEnv("KNOWLEDGE_CORPUS_PATH", "data/knowledge.yaml"),
		RateLimit:           getEnv("RATE_LIMIT", "5-S"),
		EnableHSTS:          getEnvBool("ENABLE_HSTS", false),
		ServerDebugMode:     getEnvBool("SERVER_DEBUG_MODE", false),
		WorkerDebugMode:     getEnvBool("WORKER_DEBUG_MODE", false),
		OTELEnabled:         getEnvBool("OTEL_ENABLED", false),
		OTELEndpoint:        getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", ""),
	}

	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}

	if cfg.RelevanceThreshold <= 0 {
		return nil, fmt.Errorf("RELEVANCE_THRESHOLD must be positive")
	}

	if cfg.BackgroundWorkers < 1 {
		cfg.BackgroundWorkers = 1
	}

	return cfg, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		return value == "true" || value == "1" || value == "yes"
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

func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
		// Accept bare seconds for operational convenience
		if secs, err := strconv.Atoi(value); err == nil {
			return time.Duration(secs) * time.Second
		}
	}
	return defaultValue
}
