// Package workers holds the background learning jobs that run off the
// request path: reply re-extraction and session compaction.
package workers

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/fitmind/assistant/internal/database"
	"github.com/fitmind/assistant/internal/memory"
	"github.com/fitmind/assistant/internal/models"
	"github.com/fitmind/assistant/internal/queue"
	"github.com/fitmind/assistant/internal/selector"
	"github.com/fitmind/assistant/internal/services/ai"
)

// MetadataReplyText is the job metadata key carrying the assistant reply to
// re-extract memory from.
const MetadataReplyText = "reply_text"

// signalKeywords mark messages worth keeping during compaction: explicit
// preference or constraint statements.
var signalKeywords = []string{
	"like", "love", "enjoy", "dislike", "hate", "can't eat", "cannot eat",
	"allerg", "disease", "diagnos", "prefer", "avoid", "always", "never",
	"좋아", "싫어", "알레르기", "당뇨", "고혈압", "못 먹", "자주", "선호",
}

// Learner processes background learning jobs
type Learner struct {
	memorySvc          *memory.Service
	completer          ai.Completer
	embedder           ai.Embedder
	sessionRepo        database.SessionRepositoryInterface
	messageRepo        database.MessageRepositoryInterface
	longTermRepo       database.LongTermMemoryRepositoryInterface
	jobQueue           queue.JobQueue // For re-enqueueing jobs with delays
	compactionInterval int
	logger             *zap.Logger
}

// NewLearner creates a new learner
func NewLearner(
	memorySvc *memory.Service,
	completer ai.Completer,
	embedder ai.Embedder,
	sessionRepo database.SessionRepositoryInterface,
	messageRepo database.MessageRepositoryInterface,
	longTermRepo database.LongTermMemoryRepositoryInterface,
	jobQueue queue.JobQueue,
	compactionInterval int,
	logger *zap.Logger,
) *Learner {
	if compactionInterval <= 0 {
		compactionInterval = 5
	}
	return &Learner{
		memorySvc:          memorySvc,
		completer:          completer,
		embedder:           embedder,
		sessionRepo:        sessionRepo,
		messageRepo:        messageRepo,
		longTermRepo:       longTermRepo,
		jobQueue:           jobQueue,
		compactionInterval: compactionInterval,
		logger:             logger,
	}
}

// ProcessReplyExtractionJob re-runs memory extraction on an assistant reply.
// Some facts are only confirmed by the assistant, never stated by the user.
func (l *Learner) ProcessReplyExtractionJob(ctx context.Context, job *queue.Job) error {
	reply, _ := job.Metadata[MetadataReplyText].(string)
	if reply == "" {
		return fmt.Errorf("reply_text is required for reply extraction job")
	}

	changed, err := l.memorySvc.ExtractAndApply(ctx, job.UserID, reply)
	if err != nil {
		return fmt.Errorf("failed to extract from reply: %w", err)
	}
	if changed {
		l.logger.Info("reply_extraction_applied",
			zap.String("user_id", job.UserID.String()),
			zap.String("job_id", job.ID.String()),
		)
	}
	return nil
}

// ProcessSessionCompactionJob summarizes sessions accumulated since the last
// compaction into a long-term memory record. It is a no-op until enough new
// sessions exist.
func (l *Learner) ProcessSessionCompactionJob(ctx context.Context, job *queue.Job) error {
	lastCompacted := 0
	latest, err := l.longTermRepo.GetLatestByUser(ctx, job.UserID)
	if err != nil {
		return fmt.Errorf("failed to get latest memory: %w", err)
	}
	if latest != nil {
		lastCompacted = latest.LastSequence
	}

	maxSeq, err := l.sessionRepo.MaxSequence(ctx, job.UserID)
	if err != nil {
		return fmt.Errorf("failed to get max sequence: %w", err)
	}
	if maxSeq-lastCompacted < l.compactionInterval {
		return nil
	}

	messages, err := l.messageRepo.GetBySequenceRange(ctx, job.UserID, lastCompacted+1, maxSeq)
	if err != nil {
		return fmt.Errorf("failed to load messages: %w", err)
	}

	signals, topics := filterSignals(messages)
	if len(signals) == 0 {
		l.logger.Debug("compaction_skipped_no_signals",
			zap.String("user_id", job.UserID.String()),
			zap.Int("messages_scanned", len(messages)),
		)
		return nil
	}

	summary, err := l.summarize(ctx, signals)
	if err != nil {
		return fmt.Errorf("failed to summarize: %w", err)
	}

	embedding, err := l.embedder.Embed(ctx, summary)
	if err != nil {
		return fmt.Errorf("failed to embed summary: %w", err)
	}

	record := &models.LongTermMemory{
		UserID:        job.UserID,
		Summary:       summary,
		Embedding:     embedding,
		FirstSequence: lastCompacted + 1,
		LastSequence:  maxSeq,
		Topics:        topics,
	}
	if err := l.longTermRepo.Create(ctx, record); err != nil {
		return fmt.Errorf("failed to store memory: %w", err)
	}

	l.logger.Info("session_compaction_done",
		zap.String("user_id", job.UserID.String()),
		zap.Int("first_sequence", record.FirstSequence),
		zap.Int("last_sequence", record.LastSequence),
		zap.Int("signal_count", len(signals)),
	)
	return nil
}

// filterSignals keeps messages carrying preference or constraint statements
// and collects which keywords fired.
func filterSignals(messages []models.Message) ([]models.Message, []string) {
	var kept []models.Message
	seen := make(map[string]bool)
	var topics []string

	for _, msg := range messages {
		lowered := strings.ToLower(msg.Text)
		matched := false
		for _, kw := range signalKeywords {
			if strings.Contains(lowered, kw) {
				matched = true
				if !seen[kw] {
					seen[kw] = true
					topics = append(topics, kw)
				}
			}
		}
		if matched {
			kept = append(kept, msg)
		}
	}
	return kept, topics
}

// summarize condenses signal messages through the cheap model tier.
func (l *Learner) summarize(ctx context.Context, signals []models.Message) (string, error) {
	var b strings.Builder
	for _, msg := range signals {
		fmt.Fprintf(&b, "%s: %s\n", msg.Role, msg.Text)
	}

	resp, err := l.completer.Complete(ctx, ai.CompletionRequest{
		Messages: []ai.ChatMessage{
			{
				Role: "system",
				Content: "Summarize the durable facts about this user from the conversation excerpts below: " +
					"preferences, allergies, health conditions, and habits. " +
					"Write 2-4 plain sentences. Ignore small talk.",
			},
			{Role: "user", Content: b.String()},
		},
		Tier:        selector.TierFast,
		Temperature: 0.2,
		MaxTokens:   300,
	})
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(resp), nil
}

// ProcessJob processes a job based on its type
func (l *Learner) ProcessJob(ctx context.Context, msg *queue.Message) error {
	job := msg.Job

	if !job.ShouldProcess() {
		l.logger.Debug("job_not_ready",
			zap.String("job_id", job.ID.String()),
			zap.Timep("not_before", job.NotBefore),
		)
		// Put the job back so the delay is honored instead of the job
		// being dropped on queues without broker-side delayed delivery.
		if l.jobQueue != nil {
			if enqueueErr := l.jobQueue.Enqueue(ctx, job); enqueueErr != nil {
				l.logger.Warn("job_requeue_failed",
					zap.String("job_id", job.ID.String()),
					zap.Error(enqueueErr),
				)
			}
		}
		if ackErr := msg.Ack(); ackErr != nil {
			l.logger.Warn("job_ack_failed", zap.Error(ackErr))
		}
		return nil
	}

	switch job.Type {
	case queue.JobTypeReplyExtraction:
		if err := l.ProcessReplyExtractionJob(ctx, job); err != nil {
			return l.handleJobError(ctx, msg, job, err)
		}
	case queue.JobTypeSessionCompaction:
		if err := l.ProcessSessionCompactionJob(ctx, job); err != nil {
			return l.handleJobError(ctx, msg, job, err)
		}
	default:
		// Unknown job type, send to DLQ
		if nackErr := msg.Nack(false); nackErr != nil {
			l.logger.Warn("job_nack_failed", zap.Error(nackErr))
		}
		return fmt.Errorf("unknown job type: %s", job.Type)
	}

	if ackErr := msg.Ack(); ackErr != nil {
		return fmt.Errorf("failed to ack job: %w", ackErr)
	}
	return nil
}

// handleJobError retries with backoff, using delayed re-enqueue for rate
// limit and quota errors, and dead-letters jobs that are out of retries.
func (l *Learner) handleJobError(ctx context.Context, msg *queue.Message, job *queue.Job, err error) error {
	if ai.IsQuotaError(err) || ai.IsRateLimitError(err) {
		retryDelay := ai.GetRetryDelay(err, job.RetryCount)

		if job.CanRetry() && l.jobQueue != nil {
			notBefore := time.Now().Add(retryDelay)
			delayed := *job
			delayed.NotBefore = &notBefore
			delayed.RetryCount = job.RetryCount + 1

			if ackErr := msg.Ack(); ackErr != nil {
				l.logger.Warn("job_ack_failed", zap.Error(ackErr))
			}
			if enqueueErr := l.jobQueue.Enqueue(ctx, &delayed); enqueueErr != nil {
				return fmt.Errorf("failed to re-enqueue throttled job: %w", enqueueErr)
			}

			l.logger.Info("job_delayed_retry",
				zap.String("job_id", job.ID.String()),
				zap.String("job_type", string(job.Type)),
				zap.Duration("delay", retryDelay),
				zap.Int("retry_count", delayed.RetryCount),
			)
			return nil
		}

		if nackErr := msg.Nack(false); nackErr != nil {
			l.logger.Warn("job_nack_failed", zap.Error(nackErr))
		}
		return fmt.Errorf("throttled and out of retries (job %s): %w", job.ID, err)
	}

	if job.CanRetry() {
		job.IncrementRetry()
		l.logger.Warn("job_retry",
			zap.String("job_id", job.ID.String()),
			zap.String("job_type", string(job.Type)),
			zap.Int("attempt", job.RetryCount),
			zap.Int("max_retries", job.MaxRetries),
			zap.Error(err),
		)
		if nackErr := msg.Nack(true); nackErr != nil {
			l.logger.Warn("job_nack_failed", zap.Error(nackErr))
		}
		return fmt.Errorf("job failed (will retry): %w", err)
	}

	l.logger.Error("job_dead_lettered",
		zap.String("job_id", job.ID.String()),
		zap.String("job_type", string(job.Type)),
		zap.Error(err),
	)
	if nackErr := msg.Nack(false); nackErr != nil {
		l.logger.Warn("job_nack_failed", zap.Error(nackErr))
	}
	return fmt.Errorf("job failed (max retries): %w", err)
}
