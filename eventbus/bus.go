// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package eventbus

import (
	"context"
	"reflect"
	"sync"

	xglog "github.com/ManuGH/reqkit/internal/log"
	"github.com/ManuGH/reqkit/internal/metrics"
	"github.com/rs/zerolog"
)

// Bus is what the registry dispatches to. HandleEvent runs immediate
// listeners for one event; HandleEvents runs deferred listeners for a batch.
type Bus interface {
	HandleEvent(ctx context.Context, event any) error
	HandleEvents(ctx context.Context, events []any) error
}

// TypeKey identifies an event type in the subscription table.
type TypeKey = reflect.Type

// TypeOf returns the dispatch key for events of type E.
func TypeOf[E any]() TypeKey {
	return reflect.TypeFor[E]()
}

// TypeOfEvent returns the dispatch key of a concrete event value.
func TypeOfEvent(event any) TypeKey {
	return reflect.TypeOf(event)
}

type entry struct {
	listener  *Listener
	onPublish bool
}

// LocalBus keeps an in-memory subscription table keyed by event type.
// Insertion order is dispatch order.
type LocalBus struct {
	mu       sync.RWMutex
	handlers map[TypeKey][]entry

	dedup       bool
	concurrency int
	logger      zerolog.Logger
}

// Option configures a LocalBus.
type Option func(*LocalBus)

// WithDedup makes a repeated (listener, onPublish) subscription for the same
// type a no-op. By default every Subscribe call appends a new entry.
func WithDedup() Option {
	return func(b *LocalBus) { b.dedup = true }
}

// WithPublishConcurrency bounds the number of deferred listeners running at
// once in HandleEvents. Zero or negative means unbounded.
func WithPublishConcurrency(n int) Option {
	return func(b *LocalBus) { b.concurrency = n }
}

// WithLogger replaces the component logger.
func WithLogger(l zerolog.Logger) Option {
	return func(b *LocalBus) { b.logger = l }
}

// NewLocalBus returns an empty bus.
func NewLocalBus(opts ...Option) *LocalBus {
	b := &LocalBus{
		handlers: make(map[TypeKey][]entry),
		logger:   xglog.WithComponent("eventbus"),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Subscribe registers l for each of types. Like http.Handle it panics on a
// nil listener, which is a wiring bug.
func (b *LocalBus) Subscribe(types []TypeKey, l *Listener, onPublish bool) {
	if l == nil {
		panic(ErrNilListener)
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, t := range types {
		if b.dedup && b.containsLocked(t, l, onPublish) {
			continue
		}
		b.handlers[t] = append(b.handlers[t], entry{listener: l, onPublish: onPublish})
		b.logger.Debug().
			Str(xglog.FieldEventType, typeName(t)).
			Str(xglog.FieldListener, l.name).
			Bool(xglog.FieldOnPublish, onPublish).
			Msg("listener subscribed")
	}
}

func (b *LocalBus) containsLocked(t TypeKey, l *Listener, onPublish bool) bool {
	for _, e := range b.handlers[t] {
		if e.listener == l && e.onPublish == onPublish {
			return true
		}
	}
	return false
}

// Unsubscribe removes every entry of l for t. Unknown pairs are ignored.
func (b *LocalBus) Unsubscribe(t TypeKey, l *Listener) {
	b.mu.Lock()
	defer b.mu.Unlock()

	lst := b.handlers[t]
	if len(lst) == 0 {
		return
	}
	out := lst[:0]
	for _, e := range lst {
		if e.listener != l {
			out = append(out, e)
		}
	}
	if len(out) == 0 {
		delete(b.handlers, t)
	} else {
		b.handlers[t] = out
	}
}

// Handler registers l for types and returns it unchanged. An async listener
// can only be registered with onPublish set; otherwise nothing is registered
// and a *ConfigError wrapping ErrAsyncImmediate is returned.
func (b *LocalBus) Handler(l *Listener, onPublish bool, types ...TypeKey) (*Listener, error) {
	if l == nil {
		return nil, &ConfigError{Listener: "<nil>", Err: ErrNilListener}
	}
	if !onPublish && l.kind == KindAsync {
		var first TypeKey
		if len(types) > 0 {
			first = types[0]
		}
		return l, &ConfigError{Listener: l.name, EventType: first, Err: ErrAsyncImmediate}
	}
	b.Subscribe(types, l, onPublish)
	return l, nil
}

// MustHandler is Handler for startup code; it panics on a rejected registration.
func (b *LocalBus) MustHandler(l *Listener, onPublish bool, types ...TypeKey) *Listener {
	l, err := b.Handler(l, onPublish, types...)
	if err != nil {
		panic(err)
	}
	return l
}

// OnPublish registers l as a deferred listener for types.
func (b *LocalBus) OnPublish(l *Listener, types ...TypeKey) (*Listener, error) {
	return b.Handler(l, true, types...)
}

// HandleEvent runs the immediate listeners for the event's type in
// subscription order. The first failure aborts the rest and is returned
// as is.
func (b *LocalBus) HandleEvent(ctx context.Context, event any) error {
	t := TypeOfEvent(event)
	for _, e := range b.snapshot(t) {
		if e.onPublish {
			continue
		}
		if err := e.listener.Handle(ctx, event); err != nil {
			metrics.IncHandlerError(metrics.PhaseImmediate)
			b.logger.Debug().
				Err(err).
				Str(xglog.FieldEventType, typeName(t)).
				Str(xglog.FieldListener, e.listener.name).
				Msg("immediate listener failed")
			return err
		}
	}
	return nil
}

// HandleEvents runs every deferred listener of every event in the batch
// concurrently and waits for all of them. All failures are joined.
func (b *LocalBus) HandleEvents(ctx context.Context, events []any) error {
	var tasks []task
	for _, event := range events {
		t := TypeOfEvent(event)
		for _, e := range b.snapshot(t) {
			if !e.onPublish {
				continue
			}
			l := e.listener
			tasks = append(tasks, func(ctx context.Context) error {
				if err := l.HandleAsync(ctx, event); err != nil {
					metrics.IncHandlerError(metrics.PhaseDeferred)
					return &HandlerError{Listener: l.name, EventType: t, Err: err}
				}
				return nil
			})
		}
	}
	b.logger.Debug().
		Int(xglog.FieldQueueLen, len(events)).
		Int("listeners", len(tasks)).
		Msg("dispatching deferred listeners")
	return runAll(ctx, b.concurrency, tasks)
}

// Len returns the number of entries registered for t.
func (b *LocalBus) Len(t TypeKey) int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.handlers[t])
}

// Handlers returns the listeners registered for t in dispatch order.
func (b *LocalBus) Handlers(t TypeKey) []*Listener {
	snap := b.snapshot(t)
	out := make([]*Listener, len(snap))
	for i, e := range snap {
		out[i] = e.listener
	}
	return out
}

func (b *LocalBus) snapshot(t TypeKey) []entry {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return append([]entry(nil), b.handlers[t]...)
}

func typeName(t TypeKey) string {
	if t == nil {
		return "<nil>"
	}
	return t.String()
}

var _ Bus = (*LocalBus)(nil)
