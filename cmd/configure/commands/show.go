package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/fitmind/assistant/internal/config"
)

// NewConfigCmd creates the config command
func NewConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Show the effective runtime configuration",
		Long:  "Load configuration from the environment and print the effective values, secrets redacted",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}

			fmt.Println("Runtime configuration:")
			fmt.Printf("  server_port:           %s\n", cfg.ServerPort)
			fmt.Printf("  database_url:          %s\n", redact(cfg.DatabaseURL))
			fmt.Printf("  redis_url:             %s\n", redact(cfg.RedisURL))
			fmt.Printf("  rabbitmq_url:          %s\n", redact(cfg.RabbitMQURL))
			fmt.Printf("  openai_key:            %s\n", redact(cfg.OpenAIKey))
			fmt.Printf("  fast_model:            %s\n", cfg.FastModel)
			fmt.Printf("  smart_model:           %s\n", cfg.SmartModel)
			fmt.Printf("  embed_model:           %s\n", cfg.EmbedModel)
			fmt.Printf("  session_idle_timeout:  %s\n", cfg.SessionIdleTimeout)
			fmt.Printf("  relevance_threshold:   %.2f\n", cfg.RelevanceThreshold)
			fmt.Printf("  retrieval_timeout:     %s\n", cfg.RetrievalTimeout)
			fmt.Printf("  llm_timeout:           %s\n", cfg.LLMTimeout)
			fmt.Printf("  compaction_interval:   %d\n", cfg.CompactionInterval)
			fmt.Printf("  background_workers:    %d\n", cfg.BackgroundWorkers)
			fmt.Printf("  recent_turns_window:   %d\n", cfg.RecentTurnsWindow)
			fmt.Printf("  knowledge_corpus_path: %s\n", cfg.KnowledgeCorpusPath)
			fmt.Printf("  rate_limit:            %s\n", cfg.RateLimit)

			return nil
		},
	}

	return cmd
}

// redact hides everything but a short prefix of secret-bearing values.
func redact(value string) string {
	if value == "" {
		return "(not set)"
	}
	if len(value) <= 8 {
		return "********"
	}
	return value[:4] + "****"
}
