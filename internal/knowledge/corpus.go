package knowledge

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/fitmind/assistant/internal/models"
)

// CorpusEntry is one snippet in the seed corpus file.
type CorpusEntry struct {
	Text     string `yaml:"text"`
	Source   string `yaml:"source"`
	Category string `yaml:"category"`
}

type corpusFile struct {
	Documents []CorpusEntry `yaml:"documents"`
}

// LoadCorpus reads a YAML seed corpus from path.
func LoadCorpus(path string) ([]CorpusEntry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read corpus file: %w", err)
	}

	var file corpusFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse corpus file: %w", err)
	}

	for i, entry := range file.Documents {
		if entry.Text == "" {
			return nil, fmt.Errorf("corpus entry %d has empty text", i)
		}
	}
	return file.Documents, nil
}

// BuildFromCorpus embeds and indexes the entries. It is a no-op when the
// index already holds documents, so restarts do not duplicate the corpus.
func (ix *Index) BuildFromCorpus(ctx context.Context, entries []CorpusEntry) error {
	if ix.Len() > 0 {
		return nil
	}

	start := time.Now()
	docs := make([]models.KnowledgeDocument, 0, len(entries))
	for _, entry := range entries {
		vec, err := ix.embedder.Embed(ctx, entry.Text)
		if err != nil {
			return fmt.Errorf("failed to embed corpus entry: %w", err)
		}
		docs = append(docs, models.KnowledgeDocument{
			ID:        uuid.New(),
			Text:      entry.Text,
			SourceTag: entry.Source,
			Category:  models.Category(entry.Category),
			Embedding: vec,
			CreatedAt: time.Now(),
		})
	}

	if err := ix.Add(docs...); err != nil {
		return err
	}

	if ix.logger != nil {
		ix.logger.Info("knowledge_index_built",
			zap.Int("document_count", len(docs)),
			zap.Int64("build_ms", time.Since(start).Milliseconds()),
		)
	}
	return nil
}
