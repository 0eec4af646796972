package queue

// Message wraps a Job with backend-specific acknowledgement callbacks, so
// workers process jobs the same way whether they came from RabbitMQ or the
// in-process queue.
type Message struct {
	Job *Job

	ackFn  func() error
	nackFn func(requeue bool) error
}

// NewMessage creates a message with the given acknowledgement callbacks.
func NewMessage(job *Job, ack func() error, nack func(requeue bool) error) *Message {
	return &Message{Job: job, ackFn: ack, nackFn: nack}
}

// Ack acknowledges the message
func (m *Message) Ack() error {
	if m.ackFn == nil {
		return nil
	}
	return m.ackFn()
}

// Nack negatively acknowledges the message
func (m *Message) Nack(requeue bool) error {
	if m.nackFn == nil {
		return nil
	}
	return m.nackFn(requeue)
}

// GetJob returns the wrapped job
func (m *Message) GetJob() *Job {
	return m.Job
}
