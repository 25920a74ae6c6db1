package tutor

import (
	"context"
	"sync"
	"time"

	"github.com/iyunix/go-sage/internal/services"
)

const writeQueueSize = 64

type writeJob struct {
	name   string
	chatID string
	fn     func(ctx context.Context) error
	done   chan struct{} // set for flush markers only
}

// writer runs persistence jobs one at a time in the order they were queued.
// Failures are logged and never stop later jobs.
type writer struct {
	jobs    chan writeJob
	timeout time.Duration
	logger  services.Logger

	mu       sync.Mutex
	closed   bool
	finished chan struct{}
}

func newWriter(timeout time.Duration, logger services.Logger) *writer {
	w := &writer{
		jobs:     make(chan writeJob, writeQueueSize),
		timeout:  timeout,
		logger:   logger,
		finished: make(chan struct{}),
	}
	go w.run()
	return w
}

func (w *writer) run() {
	defer close(w.finished)
	for job := range w.jobs {
		if job.done != nil {
			close(job.done)
			continue
		}
		ctx, cancel := context.WithTimeout(context.Background(), w.timeout)
		if err := job.fn(ctx); err != nil {
			w.logger.Error("background write failed", "job", job.name, "chat_id", job.chatID, "error", err)
		}
		cancel()
	}
}

// enqueue blocks only while the queue is full. Jobs queued after close are
// dropped.
func (w *writer) enqueue(name, chatID string, fn func(ctx context.Context) error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		w.logger.Warn("write dropped after close", "job", name, "chat_id", chatID)
		return
	}
	w.jobs <- writeJob{name: name, chatID: chatID, fn: fn}
}

// flush waits until every job queued before the call has run.
func (w *writer) flush(ctx context.Context) error {
	marker := make(chan struct{})
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return nil
	}
	w.jobs <- writeJob{name: "flush", done: marker}
	w.mu.Unlock()

	select {
	case <-marker:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// close drains the queue and stops the worker.
func (w *writer) close() {
	w.mu.Lock()
	if !w.closed {
		w.closed = true
		close(w.jobs)
	}
	w.mu.Unlock()
	<-w.finished
}
