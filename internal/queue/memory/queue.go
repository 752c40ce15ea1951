// Package memory provides the bounded in-process queue feeding the probe workers.
package memory

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/JakeFAU/aka-exporter/internal/links"
)

// ErrClosed is returned by Dequeue once the queue is closed and drained.
var ErrClosed = errors.New("queue closed")

// Queue is a bounded in-memory queue of records with context-aware operations.
type Queue struct {
	ch      chan links.Record
	closeMu sync.Mutex
	closed  bool
}

// NewQueue constructs a new queue with the provided capacity.
func NewQueue(capacity int) *Queue {
	if capacity < 0 {
		capacity = 0
	}
	return &Queue{
		ch: make(chan links.Record, capacity),
	}
}

// Enqueue pushes a record into the queue or returns if the context ends.
// Only the producer calls Enqueue, and never after Close.
func (q *Queue) Enqueue(ctx context.Context, rec links.Record) error {
	select {
	case <-ctx.Done():
		return fmt.Errorf("enqueue canceled: %w", ctx.Err())
	case q.ch <- rec:
		return nil
	}
}

// Dequeue pops the next record, respecting context cancellation.
// Records buffered before Close are still delivered.
func (q *Queue) Dequeue(ctx context.Context) (links.Record, error) {
	select {
	case <-ctx.Done():
		return links.Record{}, fmt.Errorf("dequeue canceled: %w", ctx.Err())
	case rec, ok := <-q.ch:
		if !ok {
			return links.Record{}, ErrClosed
		}
		return rec, nil
	}
}

// Len reports the number of buffered records.
func (q *Queue) Len() int {
	return len(q.ch)
}

// Close signals that no more records will be enqueued. It is safe to call twice.
func (q *Queue) Close() {
	q.closeMu.Lock()
	defer q.closeMu.Unlock()
	if q.closed {
		return
	}
	close(q.ch)
	q.closed = true
}
