package queue

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
)

func TestNewJob(t *testing.T) {
	t.Parallel()

	userID := uuid.New()
	sessionID := uuid.New()

	job := NewJob(JobTypeReplyExtraction, userID, &sessionID)

	if job.ID == uuid.Nil {
		t.Error("Expected job ID to be set")
	}
	if job.Type != JobTypeReplyExtraction {
		t.Errorf("Expected job type to be %s, got %s", JobTypeReplyExtraction, job.Type)
	}
	if job.UserID != userID {
		t.Errorf("Expected user ID to be %s, got %s", userID, job.UserID)
	}
	if job.SessionID == nil || *job.SessionID != sessionID {
		t.Errorf("Expected session ID to be %s, got %v", sessionID, job.SessionID)
	}
	if job.Metadata == nil {
		t.Error("Expected metadata to be initialized")
	}
	if job.RetryCount != 0 {
		t.Errorf("Expected retry count to be 0, got %d", job.RetryCount)
	}
	if job.MaxRetries != 3 {
		t.Errorf("Expected max retries to be 3, got %d", job.MaxRetries)
	}
}

func TestJob_ShouldProcess(t *testing.T) {
	t.Parallel()

	now := time.Now()
	past := now.Add(-time.Hour)
	future := now.Add(time.Hour)

	tests := []struct {
		name string
		job  *Job
		want bool
	}{
		{"no time constraints", &Job{}, true},
		{"not before in the past", &Job{NotBefore: &past}, true},
		{"not before in the future", &Job{NotBefore: &future}, false},
		{"not after in the future", &Job{NotAfter: &future}, true},
		{"expired", &Job{NotAfter: &past}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := tt.job.ShouldProcess(); got != tt.want {
				t.Errorf("ShouldProcess() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestJob_Retry(t *testing.T) {
	t.Parallel()

	job := NewJob(JobTypeSessionCompaction, uuid.New(), nil)
	for i := 0; i < job.MaxRetries; i++ {
		if !job.CanRetry() {
			t.Fatalf("CanRetry() = false after %d retries, want true", i)
		}
		job.IncrementRetry()
	}
	if job.CanRetry() {
		t.Error("CanRetry() = true after max retries")
	}
}

func TestMemoryQueueRoundTrip(t *testing.T) {
	t.Parallel()

	q := NewMemoryQueue(4)
	defer func() { _ = q.Close() }()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	job := NewJob(JobTypeReplyExtraction, uuid.New(), nil)
	if err := q.Enqueue(ctx, job); err != nil {
		t.Fatalf("Enqueue() error: %v", err)
	}

	msgs, _, err := q.Consume(ctx, 1)
	if err != nil {
		t.Fatalf("Consume() error: %v", err)
	}

	select {
	case msg := <-msgs:
		if msg.GetJob().ID != job.ID {
			t.Errorf("got job %s, want %s", msg.GetJob().ID, job.ID)
		}
		if err := msg.Ack(); err != nil {
			t.Errorf("Ack() error: %v", err)
		}
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for message")
	}
}

func TestMemoryQueueNackRequeues(t *testing.T) {
	t.Parallel()

	q := NewMemoryQueue(4)
	defer func() { _ = q.Close() }()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	job := NewJob(JobTypeSessionCompaction, uuid.New(), nil)
	if err := q.Enqueue(ctx, job); err != nil {
		t.Fatalf("Enqueue() error: %v", err)
	}

	msgs, _, err := q.Consume(ctx, 1)
	if err != nil {
		t.Fatalf("Consume() error: %v", err)
	}

	msg := <-msgs
	if err := msg.Nack(true); err != nil {
		t.Fatalf("Nack() error: %v", err)
	}

	select {
	case again := <-msgs:
		if again.GetJob().ID != job.ID {
			t.Errorf("requeued job %s, want %s", again.GetJob().ID, job.ID)
		}
		_ = again.Ack()
	case <-time.After(time.Second):
		t.Fatal("nacked job was not redelivered")
	}
}

func TestMemoryQueueHoldsDelayedJob(t *testing.T) {
	t.Parallel()

	q := NewMemoryQueue(4)
	defer func() { _ = q.Close() }()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	notBefore := time.Now().Add(50 * time.Millisecond)
	job := NewJob(JobTypeReplyExtraction, uuid.New(), nil)
	job.NotBefore = &notBefore

	if err := q.Enqueue(ctx, job); err != nil {
		t.Fatalf("Enqueue() error: %v", err)
	}

	msgs, _, err := q.Consume(ctx, 1)
	if err != nil {
		t.Fatalf("Consume() error: %v", err)
	}

	select {
	case msg := <-msgs:
		if time.Now().Before(notBefore) {
			t.Error("delayed job delivered before its NotBefore")
		}
		if msg.GetJob().ID != job.ID {
			t.Errorf("got job %s, want %s", msg.GetJob().ID, job.ID)
		}
		_ = msg.Ack()
	case <-time.After(2 * time.Second):
		t.Fatal("delayed job was never delivered")
	}
}

func TestMemoryQueueFullDropsJob(t *testing.T) {
	t.Parallel()

	q := NewMemoryQueue(1)
	defer func() { _ = q.Close() }()

	ctx := context.Background()
	if err := q.Enqueue(ctx, NewJob(JobTypeReplyExtraction, uuid.New(), nil)); err != nil {
		t.Fatalf("first Enqueue() error: %v", err)
	}
	if err := q.Enqueue(ctx, NewJob(JobTypeReplyExtraction, uuid.New(), nil)); err == nil {
		t.Error("expected error when queue is full")
	}
}

func TestMemoryQueueClosed(t *testing.T) {
	t.Parallel()

	q := NewMemoryQueue(1)
	if err := q.Close(); err != nil {
		t.Fatalf("Close() error: %v", err)
	}
	if err := q.HealthCheck(context.Background()); err == nil {
		t.Error("HealthCheck() should fail after Close")
	}
	if err := q.Enqueue(context.Background(), NewJob(JobTypeReplyExtraction, uuid.New(), nil)); err == nil {
		t.Error("Enqueue() should fail after Close")
	}
}
