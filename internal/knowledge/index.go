package knowledge

import (
	"context"
	"fmt"
	"math"
	"sort"
	"sync"

	"go.uber.org/zap"

	"github.com/fitmind/assistant/internal/models"
	"github.com/fitmind/assistant/internal/services/ai"
)

// DefaultRelevanceThreshold is the distance above which candidates are
// discarded. Lower distance means more similar.
const DefaultRelevanceThreshold = 0.8

// categoryOverfetch widens the candidate pool when a category filter is
// applied, compensating for post-filtering losses.
const categoryOverfetch = 3

// Index is an in-process similarity index over knowledge documents. It is
// built once at startup and shared read-only across requests.
type Index struct {
	embedder  ai.Embedder
	threshold float64
	logger    *zap.Logger

	mu   sync.RWMutex
	docs []models.KnowledgeDocument
}

// NewIndex creates an empty index backed by the given embedder.
func NewIndex(embedder ai.Embedder, threshold float64, logger *zap.Logger) *Index {
	if threshold <= 0 {
		threshold = DefaultRelevanceThreshold
	}
	return &Index{
		embedder:  embedder,
		threshold: threshold,
		logger:    logger,
	}
}

// Add appends documents to the index. Documents without an embedding are
// rejected.
func (ix *Index) Add(docs ...models.KnowledgeDocument) error {
	for _, doc := range docs {
		if len(doc.Embedding) == 0 {
			return fmt.Errorf("document %s has no embedding", doc.ID)
		}
	}
	ix.mu.Lock()
	ix.docs = append(ix.docs, docs...)
	ix.mu.Unlock()
	return nil
}

// Len returns the number of indexed documents.
func (ix *Index) Len() int {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	return len(ix.docs)
}

// Search embeds the query and returns up to k documents within the
// relevance threshold, most similar first. When a category is supplied,
// only documents of that category or the general category survive.
func (ix *Index) Search(ctx context.Context, query string, k int, category models.Category) ([]models.ScoredDocument, error) {
	vec, err := ix.embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to embed query: %w", err)
	}
	return ix.SearchVector(vec, k, category), nil
}

// SearchVector ranks indexed documents against a precomputed query vector.
func (ix *Index) SearchVector(vec []float32, k int, category models.Category) []models.ScoredDocument {
	ix.mu.RLock()
	defer ix.mu.RUnlock()

	candidates := make([]models.ScoredDocument, 0, len(ix.docs))
	for _, doc := range ix.docs {
		candidates = append(candidates, models.ScoredDocument{
			Text:      doc.Text,
			SourceTag: doc.SourceTag,
			Category:  doc.Category,
			Distance:  CosineDistance(vec, doc.Embedding),
		})
	}
	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].Distance < candidates[j].Distance
	})

	limit := k
	if category != models.CategoryNone {
		limit = k * categoryOverfetch
	}
	if limit < len(candidates) {
		candidates = candidates[:limit]
	}

	return selectRelevant(candidates, k, category, ix.threshold)
}

// selectRelevant applies the threshold and category filter to candidates
// already ordered by ascending distance, keeping at most k.
func selectRelevant(candidates []models.ScoredDocument, k int, category models.Category, threshold float64) []models.ScoredDocument {
	results := make([]models.ScoredDocument, 0, k)
	for _, cand := range candidates {
		if len(results) >= k {
			break
		}
		if cand.Distance >= threshold {
			continue
		}
		if category != models.CategoryNone &&
			cand.Category != category && cand.Category != models.CategoryGeneral {
			continue
		}
		results = append(results, cand)
	}
	return results
}

// CosineDistance returns 1 minus the cosine similarity of two vectors.
// Identical directions yield 0; orthogonal vectors yield 1. Mismatched or
// zero vectors yield the maximum distance.
func CosineDistance(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 2.0
	}
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 2.0
	}
	return 1.0 - dot/(math.Sqrt(normA)*math.Sqrt(normB))
}
