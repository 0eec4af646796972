package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/fitmind/assistant/internal/config"
	"github.com/fitmind/assistant/internal/knowledge"
)

// NewCorpusCmd creates the corpus command
func NewCorpusCmd() *cobra.Command {
	var path string

	cmd := &cobra.Command{
		Use:   "corpus",
		Short: "Validate and summarize the knowledge corpus",
		Long:  "Load the knowledge corpus file, validate its entries, and print a per-category summary",
		RunE: func(cmd *cobra.Command, args []string) error {
			if path == "" {
				cfg, err := config.Load()
				if err != nil {
					return fmt.Errorf("failed to load config: %w", err)
				}
				path = cfg.KnowledgeCorpusPath
			}

			entries, err := knowledge.LoadCorpus(path)
			if err != nil {
				return fmt.Errorf("failed to load corpus: %w", err)
			}

			byCategory := make(map[string]int)
			for _, entry := range entries {
				byCategory[string(entry.Category)]++
			}

			fmt.Printf("Corpus: %s\n", path)
			fmt.Printf("Entries: %d\n", len(entries))
			for category, count := range byCategory {
				fmt.Printf("  - %s: %d\n", category, count)
			}

			return nil
		},
	}

	cmd.Flags().StringVar(&path, "path", "", "Path to the corpus file (defaults to KNOWLEDGE_CORPUS_PATH)")

	return cmd
}
