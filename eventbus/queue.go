// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package eventbus

import (
	"context"
	"sync"
)

// Queue holds the events emitted during one unit of work. It is reachable
// only through the context that EnterQueueContext returned. The mutex exists
// because deferred listeners of the same request run concurrently and may
// emit with the request context.
type Queue struct {
	mu     sync.Mutex
	events []any
	closed bool
}

func (q *Queue) push(event any) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return ErrQueueClosed
	}
	q.events = append(q.events, event)
	return nil
}

// Events returns a copy of the queued events in emission order.
func (q *Queue) Events() []any {
	q.mu.Lock()
	defer q.mu.Unlock()
	return append([]any(nil), q.events...)
}

// Len returns the number of queued events.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.events)
}

// Closed reports whether the queue was released.
func (q *Queue) Closed() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.closed
}

func (q *Queue) release() {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.events = nil
	q.closed = true
}

type queueKey struct{}

// EnterQueueContext returns a child of parent carrying a fresh, empty queue
// and a release func that clears and closes it. Call release on every exit
// path (defer it). parent is never modified, so code holding parent keeps
// seeing the previous queue, or none.
func EnterQueueContext(parent context.Context) (context.Context, func()) {
	if parent == nil {
		parent = context.Background()
	}
	q := &Queue{}
	return context.WithValue(parent, queueKey{}, q), sync.OnceFunc(q.release)
}

// WithQueueContext runs fn inside a fresh queue context and releases the
// queue afterwards, also when fn returns an error or panics.
func WithQueueContext(ctx context.Context, fn func(ctx context.Context) error) error {
	ctx, release := EnterQueueContext(ctx)
	defer release()
	return fn(ctx)
}

// QueueFrom returns the queue carried by ctx.
func QueueFrom(ctx context.Context) (*Queue, bool) {
	if ctx == nil {
		return nil, false
	}
	q, ok := ctx.Value(queueKey{}).(*Queue)
	return q, ok
}
