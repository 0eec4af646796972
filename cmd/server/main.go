package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gorilla/mux/otelmux"
	"go.uber.org/zap"

	"github.com/fitmind/assistant/internal/cache"
	"github.com/fitmind/assistant/internal/classifier"
	"github.com/fitmind/assistant/internal/config"
	"github.com/fitmind/assistant/internal/database"
	"github.com/fitmind/assistant/internal/engine"
	"github.com/fitmind/assistant/internal/handlers"
	"github.com/fitmind/assistant/internal/knowledge"
	"github.com/fitmind/assistant/internal/logger"
	"github.com/fitmind/assistant/internal/memory"
	"github.com/fitmind/assistant/internal/middleware"
	"github.com/fitmind/assistant/internal/prompt"
	"github.com/fitmind/assistant/internal/queue"
	"github.com/fitmind/assistant/internal/selector"
	"github.com/fitmind/assistant/internal/services/ai"
	"github.com/fitmind/assistant/internal/telemetry"
)

func main() {
	// Parse command-line flags
	debugFlag := flag.Bool("debug", false, "Enable debug mode for LLM API logging")
	flag.Parse()

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Override debug mode if flag is set
	debugMode := cfg.ServerDebugMode || *debugFlag

	// Initialize logger
	zapLogger, err := logger.NewProductionLogger(debugMode)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer func() {
		if syncErr := zapLogger.Sync(); syncErr != nil {
			// Ignore sync errors in production
			_ = syncErr
		}
	}()

	zapLogger.Info("starting_server",
		zap.Bool("debug_mode", debugMode),
		zap.String("server_port", cfg.ServerPort),
		zap.String("fast_model", cfg.FastModel),
		zap.String("smart_model", cfg.SmartModel),
		zap.Bool("otel_enabled", cfg.OTELEnabled),
	)

	// Initialize OpenTelemetry if enabled
	var tracerProvider interface{ Shutdown(context.Context) error }
	if cfg.OTELEnabled {
		if cfg.OTELEndpoint == "" {
			zapLogger.Warn("otel_enabled_but_endpoint_not_configured")
		} else {
			tp, err := telemetry.InitTracer(context.Background(), "fitmind-assistant", cfg.OTELEndpoint)
			if err != nil {
				zapLogger.Warn("failed_to_initialize_otel_tracer", zap.Error(err))
			} else {
				tracerProvider = tp
				zapLogger.Info("otel_tracer_initialized",
					zap.String("endpoint", cfg.OTELEndpoint),
				)
				defer func() {
					shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
					defer shutdownCancel()
					if err := tracerProvider.Shutdown(shutdownCtx); err != nil {
						zapLogger.Error("failed_to_shutdown_otel_tracer", zap.Error(err))
					}
				}()
			}
		}
	}

	// Connect to database
	db, err := database.New(cfg.DatabaseURL)
	if err != nil {
		zapLogger.Fatal("failed_to_connect_to_database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			zapLogger.Warn("failed_to_close_database_connection", zap.Error(err))
		}
	}()

	migrateCtx, migrateCancel := context.WithTimeout(context.Background(), 60*time.Second)
	if err := db.Migrate(migrateCtx); err != nil {
		migrateCancel()
		zapLogger.Fatal("failed_to_run_migrations", zap.Error(err))
	}
	migrateCancel()

	zapLogger.Info("connected_to_database")

	// Connect to Redis for caching and rate limiting. The cache is
	// advisory, so a missing Redis degrades to an in-process store.
	var cacheStore cache.Store
	var redisClient *redis.Client
	redisStore, err := cache.NewRedisStore(cfg.RedisURL)
	if err != nil {
		zapLogger.Warn("redis_unavailable_using_memory_cache", zap.Error(err))
		cacheStore = cache.NewMemoryStore()
	} else {
		cacheStore = redisStore
		redisClient = redisStore.Client()
		defer func() {
			if err := redisStore.Close(); err != nil {
				zapLogger.Warn("failed_to_close_redis_connection", zap.Error(err))
			}
		}()
		zapLogger.Info("connected_to_redis")
	}

	appCache := cache.New(cacheStore, cache.TTLs{
		Knowledge:    cfg.KnowledgeCacheTTL,
		SystemPrompt: cfg.SystemPromptTTL,
		UserContext:  cfg.UserContextTTL,
	})

	// Connect to RabbitMQ for the learning job queue. Retry with
	// exponential backoff to handle broker startup delays; without a
	// broker URL, fall back to the in-process queue.
	var jobQueue queue.JobQueue
	if cfg.RabbitMQURL != "" {
		jobQueue, err = connectRabbitMQ(cfg.RabbitMQURL, zapLogger)
		if err != nil {
			zapLogger.Fatal("failed_to_connect_to_rabbitmq_after_retries", zap.Error(err))
		}
		defer func() {
			if err := jobQueue.Close(); err != nil {
				zapLogger.Warn("failed_to_close_rabbitmq_connection", zap.Error(err))
			}
		}()
	} else {
		zapLogger.Warn("rabbitmq_not_configured_using_memory_queue")
		jobQueue = queue.NewMemoryQueue(0)
	}

	// Initialize repositories
	userRepo := database.NewUserRepository(db)
	profileRepo := database.NewProfileRepository(db)
	sessionRepo := database.NewSessionRepository(db)
	messageRepo := database.NewMessageRepository(db)

	// Initialize AI provider
	aiProvider := ai.NewOpenAIProvider(ai.Options{
		APIKey:     cfg.OpenAIKey,
		BaseURL:    cfg.AIBaseURL,
		FastModel:  cfg.FastModel,
		SmartModel: cfg.SmartModel,
		EmbedModel: cfg.EmbedModel,
		Timeout:    cfg.LLMTimeout,
		Logger:     zapLogger,
		DebugMode:  debugMode,
	})

	// Build the knowledge index from the seed corpus. Failures leave an
	// empty index; retrieval then degrades to unaugmented prompts.
	index := knowledge.NewIndex(aiProvider, cfg.RelevanceThreshold, zapLogger)
	if entries, err := knowledge.LoadCorpus(cfg.KnowledgeCorpusPath); err != nil {
		zapLogger.Warn("failed_to_load_knowledge_corpus",
			zap.String("path", cfg.KnowledgeCorpusPath),
			zap.Error(err),
		)
	} else {
		buildCtx, buildCancel := context.WithTimeout(context.Background(), 2*time.Minute)
		if err := index.BuildFromCorpus(buildCtx, entries); err != nil {
			zapLogger.Warn("failed_to_build_knowledge_index", zap.Error(err))
		}
		buildCancel()
	}
	retriever := knowledge.NewRetriever(index, appCache, cfg.RetrievalTimeout, zapLogger)

	// Initialize services
	composer := prompt.NewComposer(appCache, zapLogger)
	memoryService := memory.NewService(profileRepo, appCache, zapLogger)

	answerEngine := engine.New(
		userRepo,
		profileRepo,
		sessionRepo,
		messageRepo,
		appCache,
		classifier.New(),
		retriever,
		composer,
		memoryService,
		selector.New(),
		aiProvider,
		jobQueue,
		engine.Options{
			SessionIdleTimeout: cfg.SessionIdleTimeout,
			LLMTimeout:         cfg.LLMTimeout,
			RecentTurnsWindow:  cfg.RecentTurnsWindow,
			RetrievalK:         prompt.MaxSnippets,
		},
		zapLogger,
	)

	// Initialize handlers
	assistantHandler := handlers.NewAssistantHandler(answerEngine, zapLogger)
	var cachePinger handlers.CachePinger
	if redisStore != nil {
		cachePinger = redisStore
	}
	healthChecker := handlers.NewHealthChecker(db, cachePinger, jobQueue)

	// Setup router
	r := mux.NewRouter()

	// Apply middleware (order matters - executed in reverse order of registration)
	zapLogger.Info("setting_up_middleware")

	// Outermost middleware (executes first):
	// 0. OpenTelemetry tracing (if enabled)
	if cfg.OTELEnabled && tracerProvider != nil {
		r.Use(otelmux.Middleware("fitmind-assistant"))
		zapLogger.Info("otel_middleware_enabled")
	}
	// 1. Security headers (should be set on all responses)
	r.Use(middleware.SecurityHeaders(cfg.EnableHSTS))
	// 2. CORS
	r.Use(middleware.CORS([]string{cfg.FrontendURL}))
	// Rate limit middleware (applied selectively to specific routes, not globally)
	rateLimitMW, err := middleware.RateLimit(redisClient, cfg.RateLimit)
	if err != nil {
		zapLogger.Fatal("failed_to_create_rate_limiter", zap.Error(err))
	}
	// 3. Request size limits (protects against DoS)
	r.Use(middleware.MaxRequestSize(middleware.DefaultMaxRequestSize))
	// 4. Content-Type validation for POST/PATCH/PUT requests
	r.Use(middleware.ContentType)
	// 5. Request timeout
	r.Use(middleware.Timeout(cfg.LLMTimeout + 15*time.Second))
	// 6. Error handler (catches panics)
	r.Use(middleware.ErrorHandler(zapLogger))
	// 7. Logging (innermost, executes last before handler)
	r.Use(middleware.Logging(zapLogger))

	// Public routes (no rate limiting for health checks)
	r.HandleFunc("/healthz", healthChecker.HealthCheck).Methods("GET")
	r.HandleFunc("/version", versionInfo).Methods("GET")

	// API v1 routes
	apiRouter := r.PathPrefix("/api/v1").Subrouter()

	// Assistant routes (identity comes from the upstream gateway)
	assistantRouter := apiRouter.PathPrefix("/assistant").Subrouter()
	assistantRouter.Use(middleware.Identity(userRepo, zapLogger))
	assistantRouter.Use(rateLimitMW)
	assistantHandler.RegisterRoutes(assistantRouter)

	// Catch-all OPTIONS handler for preflight requests
	r.Methods("OPTIONS").HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})

	// Setup server
	srv := &http.Server{
		Addr:           ":" + cfg.ServerPort,
		Handler:        r,
		ReadTimeout:    15 * time.Second,
		WriteTimeout:   cfg.LLMTimeout + 30*time.Second,
		IdleTimeout:    60 * time.Second,
		MaxHeaderBytes: 1 << 20, // 1MB max header size
	}

	bgCtx, bgCancel := context.WithCancel(context.Background())
	defer bgCancel()

	// Start DLQ garbage collector if the queue implementation supports it
	if dlqPurger, ok := jobQueue.(queue.DLQPurger); ok {
		dlqGC := queue.NewGarbageCollector(dlqPurger, 1*time.Hour, 24*time.Hour, zapLogger)
		go func() {
			if err := dlqGC.Start(bgCtx); err != nil && err != context.Canceled {
				zapLogger.Error("dlq_garbage_collector_stopped_with_error", zap.Error(err))
			}
		}()
		zapLogger.Info("started_dlq_garbage_collector",
			zap.Duration("interval", 1*time.Hour),
			zap.Duration("retention", 24*time.Hour),
		)
	}

	// Start server in a goroutine
	go func() {
		zapLogger.Info("server_starting",
			zap.String("port", cfg.ServerPort),
		)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			zapLogger.Fatal("server_failed_to_start", zap.Error(err))
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	zapLogger.Info("server_shutting_down")
	bgCancel()

	// Graceful shutdown
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		zapLogger.Fatal("server_forced_to_shutdown", zap.Error(err))
	}

	zapLogger.Info("server_exited")
}

// connectRabbitMQ dials the broker with exponential backoff.
func connectRabbitMQ(amqpURL string, zapLogger *zap.Logger) (queue.JobQueue, error) {
	const maxRetries = 10
	const initialDelay = 2 * time.Second

	var lastErr error
	for attempt := 0; attempt < maxRetries; attempt++ {
		jobQueue, err := queue.NewRabbitMQQueue(amqpURL)
		if err == nil {
			zapLogger.Info("connected_to_rabbitmq")
			return jobQueue, nil
		}

		lastErr = err
		delay := initialDelay * time.Duration(1<<uint(attempt)) // Exponential backoff
		if delay > 30*time.Second {
			delay = 30 * time.Second // Cap at 30 seconds
		}
		zapLogger.Warn("failed_to_connect_to_rabbitmq_retrying",
			zap.Int("attempt", attempt+1),
			zap.Int("max_retries", maxRetries),
			zap.Error(err),
			zap.Duration("retry_delay", delay),
		)
		time.Sleep(delay)
	}

	return nil, lastErr
}

func versionInfo(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	// Only expose minimal version info (sanitized for security)
	if _, err := fmt.Fprintf(w, `{"version":"1.0.0","timestamp":"%s"}`, time.Now().UTC().Format(time.RFC3339)); err != nil {
		_ = err
	}
}
