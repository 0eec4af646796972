package commands

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/fitmind/assistant/internal/config"
	"github.com/fitmind/assistant/internal/knowledge"
	"github.com/fitmind/assistant/internal/models"
	"github.com/fitmind/assistant/internal/services/ai"
	"github.com/fitmind/assistant/internal/validation"
)

// NewSearchCmd creates the search command
func NewSearchCmd() *cobra.Command {
	var category string
	var limit int

	cmd := &cobra.Command{
		Use:   "search <query>",
		Short: "Search the knowledge corpus",
		Long:  "Embed the corpus and the query, then print the most relevant snippets with their distances",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if category != "" {
				if err := validation.ValidateCategory(category); err != nil {
					return err
				}
			}

			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}
			if cfg.OpenAIKey == "" {
				return fmt.Errorf("OPENAI_API_KEY is required for search")
			}

			query := strings.Join(args, " ")

			provider := ai.NewOpenAIProvider(ai.Options{
				APIKey:     cfg.OpenAIKey,
				BaseURL:    cfg.AIBaseURL,
				EmbedModel: cfg.EmbedModel,
				Timeout:    cfg.LLMTimeout,
				Logger:     zap.NewNop(),
			})

			entries, err := knowledge.LoadCorpus(cfg.KnowledgeCorpusPath)
			if err != nil {
				return fmt.Errorf("failed to load corpus: %w", err)
			}

			ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
			defer cancel()

			index := knowledge.NewIndex(provider, cfg.RelevanceThreshold, zap.NewNop())
			if err := index.BuildFromCorpus(ctx, entries); err != nil {
				return fmt.Errorf("failed to build index: %w", err)
			}

			docs, err := index.Search(ctx, query, limit, models.Category(category))
			if err != nil {
				return fmt.Errorf("search failed: %w", err)
			}

			if len(docs) == 0 {
				fmt.Println("No relevant snippets found")
				return nil
			}

			for _, doc := range docs {
				fmt.Printf("[%.4f] (%s) %s\n", doc.Distance, doc.Category, doc.Text)
				fmt.Printf("         source: %s\n", doc.SourceTag)
			}

			return nil
		},
	}

	cmd.Flags().StringVar(&category, "category", "", "Restrict results to a category (exercise, nutrition, health, general)")
	cmd.Flags().IntVar(&limit, "limit", 5, "Maximum number of snippets to print")

	return cmd
}
