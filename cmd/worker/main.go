package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/fitmind/assistant/internal/cache"
	"github.com/fitmind/assistant/internal/config"
	"github.com/fitmind/assistant/internal/database"
	"github.com/fitmind/assistant/internal/logger"
	"github.com/fitmind/assistant/internal/memory"
	"github.com/fitmind/assistant/internal/queue"
	"github.com/fitmind/assistant/internal/services/ai"
	"github.com/fitmind/assistant/internal/workers"
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
	debugMode := cfg.WorkerDebugMode || *debugFlag

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

	zapLogger.Info("starting_worker",
		zap.Bool("debug_mode", debugMode),
		zap.String("fast_model", cfg.FastModel),
		zap.Int("workers", cfg.BackgroundWorkers),
	)

	// Initialize database connection
	db, err := database.New(cfg.DatabaseURL)
	if err != nil {
		zapLogger.Fatal("failed_to_connect_to_database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			zapLogger.Warn("failed_to_close_database_connection", zap.Error(err))
		}
	}()

	zapLogger.Info("connected_to_database")

	// Initialize repositories
	profileRepo := database.NewProfileRepository(db)
	sessionRepo := database.NewSessionRepository(db)
	messageRepo := database.NewMessageRepository(db)
	longTermRepo := database.NewLongTermMemoryRepository(db)

	// The worker shares cache invalidation with the server so profile
	// updates made here are visible on the next prompt composition.
	var cacheStore cache.Store
	redisStore, err := cache.NewRedisStore(cfg.RedisURL)
	if err != nil {
		zapLogger.Warn("redis_unavailable_using_memory_cache", zap.Error(err))
		cacheStore = cache.NewMemoryStore()
	} else {
		cacheStore = redisStore
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

	// Initialize RabbitMQ queue
	jobQueue, err := queue.NewRabbitMQQueue(cfg.RabbitMQURL)
	if err != nil {
		zapLogger.Fatal("failed_to_connect_to_rabbitmq", zap.Error(err))
	}
	defer func() {
		if err := jobQueue.Close(); err != nil {
			zapLogger.Warn("failed_to_close_rabbitmq_connection", zap.Error(err))
		}
	}()

	zapLogger.Info("connected_to_rabbitmq",
		zap.Int("prefetch", cfg.RabbitMQPrefetch),
	)

	// Create AI provider
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

	memoryService := memory.NewService(profileRepo, appCache, zapLogger)

	// Create the background learner
	learner := workers.NewLearner(
		memoryService,
		aiProvider,
		aiProvider,
		sessionRepo,
		messageRepo,
		longTermRepo,
		jobQueue,
		cfg.CompactionInterval,
		zapLogger,
	)

	// Create context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Setup signal handling for graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	// Start consuming messages
	msgChan, errChan, err := jobQueue.Consume(ctx, cfg.RabbitMQPrefetch)
	if err != nil {
		zapLogger.Fatal("failed_to_start_consuming_messages", zap.Error(err))
	}

	// Start the DLQ garbage collector alongside the consumers
	dlqGC := queue.NewGarbageCollector(jobQueue, 1*time.Hour, 24*time.Hour, zapLogger)
	go func() {
		if err := dlqGC.Start(ctx); err != nil && err != context.Canceled {
			zapLogger.Error("dlq_garbage_collector_stopped_with_error", zap.Error(err))
		}
	}()

	zapLogger.Info("worker_started",
		zap.Int("workers", cfg.BackgroundWorkers),
	)

	// Process messages with a fixed-size worker pool
	var wg sync.WaitGroup
	for i := 0; i < cfg.BackgroundWorkers; i++ {
		wg.Add(1)
		go func(workerID int) {
			defer wg.Done()
			for {
				select {
				case <-ctx.Done():
					return
				case msg, ok := <-msgChan:
					if !ok {
						zapLogger.Info("message_channel_closed",
							zap.Int("worker_id", workerID),
						)
						return
					}

					if err := learner.ProcessJob(ctx, msg); err != nil {
						zapLogger.Error("failed_to_process_job",
							zap.Error(err),
							zap.Int("worker_id", workerID),
							zap.String("job_id", msg.GetJob().ID.String()),
							zap.String("job_type", string(msg.GetJob().Type)),
						)
					}
				}
			}
		}(i)
	}

	// Handle errors
	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case err, ok := <-errChan:
				if !ok {
					return
				}
				zapLogger.Error("queue_error", zap.Error(err))
			}
		}
	}()

	// Wait for shutdown signal
	<-sigChan
	zapLogger.Info("shutdown_signal_received")

	// Cancel context to stop processing and wait for in-flight jobs
	cancel()
	wg.Wait()

	zapLogger.Info("worker_stopped")
}
