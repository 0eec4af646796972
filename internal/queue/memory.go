package queue

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// MemoryQueue is an in-process JobQueue backed by a bounded channel. It is
// the fallback when no broker is configured: jobs survive only as long as
// the process, which is acceptable for best-effort learning work.
type MemoryQueue struct {
	jobs chan *Job

	mu     sync.Mutex
	closed bool
}

// NewMemoryQueue creates an in-process queue holding at most capacity jobs.
func NewMemoryQueue(capacity int) *MemoryQueue {
	if capacity <= 0 {
		capacity = 64
	}
	return &MemoryQueue{jobs: make(chan *Job, capacity)}
}

// Enqueue adds a job. A full queue drops the job with an error rather than
// blocking the request path.
func (q *MemoryQueue) Enqueue(ctx context.Context, job *Job) error {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return fmt.Errorf("queue closed")
	}
	q.mu.Unlock()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case q.jobs <- job:
		return nil
	default:
		return fmt.Errorf("queue full, dropping job %s", job.ID)
	}
}

// Consume returns a channel of messages. Nack with requeue puts the job back
// on the queue; without requeue the job is dropped (there is no DLQ).
func (q *MemoryQueue) Consume(ctx context.Context, prefetchCount int) (<-chan *Message, <-chan error, error) {
	if prefetchCount <= 0 {
		prefetchCount = 1
	}
	msgChan := make(chan *Message, prefetchCount)
	errChan := make(chan error, 1)

	go func() {
		defer close(msgChan)
		defer close(errChan)

		for {
			select {
			case <-ctx.Done():
				return
			case job, ok := <-q.jobs:
				if !ok {
					return
				}
				if job.IsExpired() {
					continue
				}
				if job.NotBefore != nil && !job.ShouldProcess() {
					// Delayed retry: hold the job back until its
					// NotBefore instead of spinning on the channel.
					j := job
					time.AfterFunc(time.Until(*j.NotBefore), func() {
						_ = q.Enqueue(context.Background(), j)
					})
					continue
				}

				j := job
				msg := NewMessage(j,
					func() error { return nil },
					func(requeue bool) error {
						if !requeue {
							return nil
						}
						return q.Enqueue(context.Background(), j)
					},
				)

				select {
				case <-ctx.Done():
					// Put the job back for the next consumer
					_ = q.Enqueue(context.Background(), j)
					return
				case msgChan <- msg:
				}
			}
		}
	}()

	return msgChan, errChan, nil
}

// HealthCheck reports whether the queue accepts jobs
func (q *MemoryQueue) HealthCheck(_ context.Context) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return fmt.Errorf("queue closed")
	}
	return nil
}

// Close stops the queue. Pending jobs are discarded.
func (q *MemoryQueue) Close() error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if !q.closed {
		q.closed = true
		close(q.jobs)
	}
	return nil
}

var _ JobQueue = (*MemoryQueue)(nil)
