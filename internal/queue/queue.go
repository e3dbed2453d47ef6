package queue

import (
	"fmt"
	"log/slog"
	"sync"
	"time"
)

// Queue interface
type Queue interface {
	Publish(topic string, payload any) error
	Subscribe(topic string, handler func(payload any) error) error
}

// InMemoryQueue delivers each job to every subscriber on its own goroutine, with retry.
type InMemoryQueue struct {
	mu       sync.Mutex
	handlers map[string][]func(payload any) error
	wg       sync.WaitGroup

	MaxRetries int
	Backoff    time.Duration
	Logger     *slog.Logger
}

// NewInMemoryQueue creates a new queue
func NewInMemoryQueue(logger *slog.Logger) *InMemoryQueue {
	if logger == nil {
		logger = slog.Default()
	}
	return &InMemoryQueue{
		handlers:   make(map[string][]func(payload any) error),
		MaxRetries: 3,
		Backoff:    500 * time.Millisecond,
		Logger:     logger.With("component", "inMemoryQueue"),
	}
}

// JobPayload wraps a message payload with retry info
type JobPayload struct {
	Topic      string
	Payload    any
	RetryCount int
	MaxRetries int
}

// Publish sends a message to all subscribers
func (q *InMemoryQueue) Publish(topic string, payload any) error {
	q.mu.Lock()
	handlers := q.handlers[topic]
	q.mu.Unlock()

	if len(handlers) == 0 {
		return fmt.Errorf("no subscribers for topic %s", topic)
	}

	for _, handler := range handlers {
		job := JobPayload{Topic: topic, Payload: payload, MaxRetries: q.MaxRetries}
		q.wg.Add(1)
		go q.processJob(handler, job)
	}

	return nil
}

// processJob handles retries and errors
func (q *InMemoryQueue) processJob(handler func(payload any) error, job JobPayload) {
	defer q.wg.Done()

	for {
		err := handler(job.Payload)
		if err == nil {
			q.Logger.Debug("job processed", "topic", job.Topic, "payload", job.Payload)
			return
		}

		job.RetryCount++
		q.Logger.Warn("job failed", "topic", job.Topic, "payload", job.Payload,
			"attempt", job.RetryCount, "max_retries", job.MaxRetries, "error", err)

		if job.RetryCount > job.MaxRetries {
			q.Logger.Error("job permanently failed", "topic", job.Topic, "payload", job.Payload)
			return
		}

		// linear backoff before retry
		time.Sleep(time.Duration(job.RetryCount) * q.Backoff)
	}
}

// Subscribe adds a handler for a topic
func (q *InMemoryQueue) Subscribe(topic string, handler func(payload any) error) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	q.handlers[topic] = append(q.handlers[topic], handler)
	return nil
}

// Wait blocks until every published job has finished or given up.
func (q *InMemoryQueue) Wait() {
	q.wg.Wait()
}
