package knowledge

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/fitmind/assistant/internal/cache"
	"github.com/fitmind/assistant/internal/models"
)

// triggerWords force retrieval even when classification found no category.
// A cost guard, not a correctness requirement.
var triggerWords = []string{
	"workout", "exercise", "training", "diet", "nutrition", "protein",
	"calorie", "calories", "vitamin", "supplement", "stretching",
	"운동", "식단", "영양", "단백질", "칼로리", "비타민", "스트레칭",
}

// ShouldRetrieve reports whether a turn warrants knowledge retrieval:
// either the classifier found a category or the text names a domain topic.
func ShouldRetrieve(text string, category models.Category) bool {
	if category != models.CategoryNone {
		return true
	}
	lowered := strings.ToLower(text)
	for _, word := range triggerWords {
		if strings.Contains(lowered, word) {
			return true
		}
	}
	return false
}

// Retriever wraps the index with result memoization and degraded-mode
// handling. Retrieval failures never fail a turn; they yield an empty set.
type Retriever struct {
	index   *Index
	cache   *cache.Cache
	timeout time.Duration
	logger  *zap.Logger
}

// NewRetriever creates a Retriever over index and c.
func NewRetriever(index *Index, c *cache.Cache, timeout time.Duration, logger *zap.Logger) *Retriever {
	return &Retriever{
		index:   index,
		cache:   c,
		timeout: timeout,
		logger:  logger,
	}
}

// Search returns up to k relevant documents for query, consulting the cache
// first. On index failure or timeout it returns an empty slice and logs,
// letting the turn proceed ungrounded.
func (r *Retriever) Search(ctx context.Context, query string, k int, category models.Category) []models.ScoredDocument {
	key := cache.NewKey(cache.NamespaceKnowledge).Text(query).Part(string(category))

	var cached []models.ScoredDocument
	if err := r.cache.GetJSON(ctx, key, &cached); err == nil {
		return cached
	} else if !errors.Is(err, cache.ErrMiss) && r.logger != nil {
		r.logger.Warn("knowledge_cache_read_failed", zap.Error(err))
	}

	searchCtx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	docs, err := r.index.Search(searchCtx, query, k, category)
	if err != nil {
		if r.logger != nil {
			r.logger.Warn("knowledge_search_degraded",
				zap.String("category", string(category)),
				zap.Error(err),
			)
		}
		return []models.ScoredDocument{}
	}

	if err := r.cache.SetJSON(ctx, key, docs); err != nil && r.logger != nil {
		r.logger.Warn("knowledge_cache_write_failed", zap.Error(err))
	}
	return docs
}
