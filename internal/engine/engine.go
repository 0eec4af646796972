// Package engine is the conversational core: it turns one free-text user
// message into a grounded, personalized answer while maintaining session
// state, extracted memory, and the response caches.
package engine

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/fitmind/assistant/internal/cache"
	"github.com/fitmind/assistant/internal/classifier"
	"github.com/fitmind/assistant/internal/database"
	"github.com/fitmind/assistant/internal/knowledge"
	"github.com/fitmind/assistant/internal/memory"
	"github.com/fitmind/assistant/internal/models"
	"github.com/fitmind/assistant/internal/prompt"
	"github.com/fitmind/assistant/internal/queue"
	"github.com/fitmind/assistant/internal/selector"
	"github.com/fitmind/assistant/internal/services/ai"
)

// Fallback texts returned when the LLM call fails. The real cause goes to
// logs and result metadata, never to the user.
const (
	apologyEN = "I'm sorry, I couldn't process your request right now. Please try again in a moment."
	apologyKO = "죄송합니다. 지금은 요청을 처리할 수 없습니다. 잠시 후 다시 시도해 주세요."
)

// ErrEmptyMessage rejects blank input before the turn starts.
var ErrEmptyMessage = fmt.Errorf("message text is empty")

// DocumentRetriever is the retrieval dependency of the engine. Lookups are
// best-effort: an unavailable index yields an empty result, not an error.
type DocumentRetriever interface {
	Search(ctx context.Context, query string, k int, category models.Category) []models.ScoredDocument
}

// Options carries the engine's tunables.
type Options struct {
	SessionIdleTimeout time.Duration
	LLMTimeout         time.Duration
	RecentTurnsWindow  int
	RetrievalK         int
}

// Engine orchestrates a single conversational turn end to end.
type Engine struct {
	userRepo    database.UserRepositoryInterface
	profileRepo database.ProfileRepositoryInterface
	sessionRepo database.SessionRepositoryInterface
	messageRepo database.MessageRepositoryInterface

	cache      *cache.Cache
	classifier *classifier.Classifier
	retriever  DocumentRetriever
	composer   *prompt.Composer
	memorySvc  *memory.Service
	selector   *selector.Selector
	completer  ai.Completer
	jobQueue   queue.JobQueue

	sessionIdleTimeout time.Duration
	llmTimeout         time.Duration
	recentTurnsWindow  int
	retrievalK         int

	logger *zap.Logger
}

// New wires an Engine from its collaborators.
func New(
	userRepo database.UserRepositoryInterface,
	profileRepo database.ProfileRepositoryInterface,
	sessionRepo database.SessionRepositoryInterface,
	messageRepo database.MessageRepositoryInterface,
	c *cache.Cache,
	cls *classifier.Classifier,
	retriever DocumentRetriever,
	composer *prompt.Composer,
	memorySvc *memory.Service,
	sel *selector.Selector,
	completer ai.Completer,
	jobQueue queue.JobQueue,
	opts Options,
	logger *zap.Logger,
) *Engine {
	if opts.SessionIdleTimeout <= 0 {
		opts.SessionIdleTimeout = time.Hour
	}
	if opts.LLMTimeout <= 0 {
		opts.LLMTimeout = 30 * time.Second
	}
	if opts.RecentTurnsWindow <= 0 {
		opts.RecentTurnsWindow = 10
	}
	if opts.RetrievalK <= 0 {
		opts.RetrievalK = prompt.MaxSnippets
	}

	return &Engine{
		userRepo:           userRepo,
		profileRepo:        profileRepo,
		sessionRepo:        sessionRepo,
		messageRepo:        messageRepo,
		cache:              c,
		classifier:         cls,
		retriever:          retriever,
		composer:           composer,
		memorySvc:          memorySvc,
		selector:           sel,
		completer:          completer,
		jobQueue:           jobQueue,
		sessionIdleTimeout: opts.SessionIdleTimeout,
		llmTimeout:         opts.LLMTimeout,
		recentTurnsWindow:  opts.RecentTurnsWindow,
		retrievalK:         opts.RetrievalK,
		logger:             logger,
	}
}

// Answer runs one conversational turn for the user and returns the answer
// plus metadata. LLM failures come back as a result with Success=false and a
// fixed apology, not as an error; errors are reserved for turns that could
// not start (bad input, storage failures before the LLM call).
func (e *Engine) Answer(ctx context.Context, userID uuid.UUID, text, language string) (*models.AnswerResult, error) {
	start := time.Now()

	if isBlank(text) {
		return nil, ErrEmptyMessage
	}

	// Trivial inputs bypass everything, including session handling
	if reply, ok := CheckCanned(text, language); ok {
		return &models.AnswerResult{
			Success:        true,
			Response:       reply,
			Category:       models.CategoryNone,
			Cached:         true,
			ResponseTimeMs: time.Since(start).Milliseconds(),
		}, nil
	}

	category := e.classifier.Classify(text)

	session, err := e.sessionRepo.GetOrCreateActive(ctx, userID, e.sessionIdleTimeout)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve session: %w", err)
	}

	userCtx, err := e.loadUserContext(ctx, userID, session)
	if err != nil {
		return nil, err
	}

	// Fold preferences stated in this message into the profile right away,
	// so the prompt composed below already reflects them
	if changed, err := e.memorySvc.ExtractAndApply(ctx, userID, text); err != nil {
		e.logger.Warn("memory_extraction_failed",
			zap.String("user_id", userID.String()),
			zap.Error(err),
		)
	} else if changed {
		if fresh, err := e.profileRepo.GetByUserID(ctx, userID); err == nil {
			userCtx.Profile = fresh
		}
	}

	var docs []models.ScoredDocument
	if knowledge.ShouldRetrieve(text, category) {
		docs = e.retriever.Search(ctx, text, e.retrievalK, category)
	}

	systemPrompt := e.composer.Compose(ctx, userCtx, docs, language)
	messages := buildMessages(systemPrompt, userCtx.RecentTurns, text)
	tier := e.selector.Select(text, category)

	llmCtx, cancel := context.WithTimeout(ctx, e.llmTimeout)
	response, llmErr := e.completer.Complete(llmCtx, ai.CompletionRequest{
		Messages:    messages,
		Tier:        tier,
		Temperature: 0.7,
	})
	cancel()

	if llmErr != nil {
		// The user's message is still part of the conversation record
		e.persistMessage(ctx, session, userID, models.RoleUser, text, map[string]any{
			"category": string(category),
		})

		e.logger.Error("llm_call_failed",
			zap.String("user_id", userID.String()),
			zap.String("session_id", session.ID.String()),
			zap.String("tier", string(tier)),
			zap.Error(llmErr),
		)
		return &models.AnswerResult{
			Success:        false,
			Response:       apologyFor(language),
			Category:       category,
			SessionID:      session.ID,
			ResponseTimeMs: time.Since(start).Milliseconds(),
			ErrorDetail:    llmErr.Error(),
		}, nil
	}

	sources := sourceTags(docs)
	turnContext := map[string]any{
		"category": string(category),
		"model":    e.completer.ModelForTier(tier),
		"sources":  sources,
	}
	e.persistMessage(ctx, session, userID, models.RoleUser, text, map[string]any{
		"category": string(category),
	})
	e.persistMessage(ctx, session, userID, models.RoleAssistant, response, turnContext)

	e.scheduleBackground(ctx, userID, session.ID, response)

	return &models.AnswerResult{
		Success:        true,
		Response:       response,
		Sources:        sources,
		Category:       category,
		ModelUsed:      e.completer.ModelForTier(tier),
		SessionID:      session.ID,
		ResponseTimeMs: time.Since(start).Milliseconds(),
	}, nil
}

// History returns the user's past turns, newest first.
func (e *Engine) History(ctx context.Context, userID uuid.UUID, limit int) ([]models.Message, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	messages, err := e.messageRepo.GetHistoryByUser(ctx, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to load history: %w", err)
	}
	return messages, nil
}

// persistMessage stores one turn. Persistence failures are logged but do not
// fail the turn: the answer already exists.
func (e *Engine) persistMessage(ctx context.Context, session *models.Session, userID uuid.UUID, role models.MessageRole, text string, turnContext map[string]any) {
	msg := &models.Message{
		SessionID: session.ID,
		UserID:    userID,
		Role:      role,
		Text:      text,
		Context:   turnContext,
	}
	if err := e.messageRepo.Create(ctx, msg); err != nil {
		e.logger.Error("message_persist_failed",
			zap.String("session_id", session.ID.String()),
			zap.String("role", string(role)),
			zap.Error(err),
		)
	}
}

// scheduleBackground hands learning work to the queue and returns
// immediately. Enqueue failures are logged and dropped.
func (e *Engine) scheduleBackground(ctx context.Context, userID, sessionID uuid.UUID, reply string) {
	if e.jobQueue == nil {
		return
	}

	extraction := queue.NewJob(queue.JobTypeReplyExtraction, userID, &sessionID)
	extraction.Metadata["reply_text"] = reply
	if err := e.jobQueue.Enqueue(ctx, extraction); err != nil {
		e.logger.Warn("background_enqueue_failed",
			zap.String("job_type", string(queue.JobTypeReplyExtraction)),
			zap.Error(err),
		)
	}

	compaction := queue.NewJob(queue.JobTypeSessionCompaction, userID, nil)
	if err := e.jobQueue.Enqueue(ctx, compaction); err != nil {
		e.logger.Warn("background_enqueue_failed",
			zap.String("job_type", string(queue.JobTypeSessionCompaction)),
			zap.Error(err),
		)
	}
}

// buildMessages assembles the LLM conversation: system prompt, the recent
// window, then the incoming message.
func buildMessages(systemPrompt string, recentTurns []models.Message, text string) []ai.ChatMessage {
	messages := make([]ai.ChatMessage, 0, len(recentTurns)+2)
	messages = append(messages, ai.ChatMessage{Role: "system", Content: systemPrompt})
	for _, turn := range recentTurns {
		messages = append(messages, ai.ChatMessage{
			Role:    string(turn.Role),
			Content: turn.Text,
		})
	}
	return append(messages, ai.ChatMessage{Role: "user", Content: text})
}

func sourceTags(docs []models.ScoredDocument) []string {
	if len(docs) == 0 {
		return nil
	}
	tags := make([]string, 0, len(docs))
	for _, doc := range docs {
		if doc.SourceTag != "" {
			tags = append(tags, doc.SourceTag)
		}
	}
	return tags
}

func apologyFor(language string) string {
	if language == "ko" {
		return apologyKO
	}
	return apologyEN
}

func isBlank(s string) bool {
	for _, r := range s {
		if r != ' ' && r != '\t' && r != '\n' && r != '\r' {
			return false
		}
	}
	return true
}
