// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package eventbus

import (
	"context"
	"fmt"
	"reflect"
	"runtime"
	"runtime/debug"
)

// Kind tells how a listener expects to be called.
type Kind uint8

const (
	// KindSync listeners are plain functions without a context. They may be
	// registered for immediate or deferred dispatch.
	KindSync Kind = iota
	// KindAsync listeners take a context and may block on I/O. They are only
	// accepted for deferred dispatch.
	KindAsync
)

func (k Kind) String() string {
	switch k {
	case KindSync:
		return "sync"
	case KindAsync:
		return "async"
	default:
		return fmt.Sprintf("kind(%d)", uint8(k))
	}
}

// SyncFunc is the callable behind a KindSync listener.
type SyncFunc func(event any) error

// AsyncFunc is the callable behind a KindAsync listener.
type AsyncFunc func(ctx context.Context, event any) error

// Listener wraps a callable. The pointer is the listener's identity: keep it
// to Unsubscribe later.
type Listener struct {
	name    string
	kind    Kind
	syncFn  SyncFunc
	asyncFn AsyncFunc
}

// ListenerOption customizes a Listener.
type ListenerOption func(*Listener)

// Named overrides the name used in logs and errors.
func Named(name string) ListenerOption {
	return func(l *Listener) {
		if name != "" {
			l.name = name
		}
	}
}

// Sync wraps fn as a KindSync listener.
func Sync(fn SyncFunc, opts ...ListenerOption) *Listener {
	if fn == nil {
		return nil
	}
	l := &Listener{name: funcName(fn), kind: KindSync, syncFn: fn}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Async wraps fn as a KindAsync listener.
func Async(fn AsyncFunc, opts ...ListenerOption) *Listener {
	if fn == nil {
		return nil
	}
	l := &Listener{name: funcName(fn), kind: KindAsync, asyncFn: fn}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// SyncOf adapts a typed function to a KindSync listener.
func SyncOf[E any](fn func(E) error, opts ...ListenerOption) *Listener {
	if fn == nil {
		return nil
	}
	opts = append([]ListenerOption{Named(funcName(fn))}, opts...)
	return Sync(func(event any) error {
		e, ok := event.(E)
		if !ok {
			return mismatch[E](event)
		}
		return fn(e)
	}, opts...)
}

// AsyncOf adapts a typed context-aware function to a KindAsync listener.
func AsyncOf[E any](fn func(context.Context, E) error, opts ...ListenerOption) *Listener {
	if fn == nil {
		return nil
	}
	opts = append([]ListenerOption{Named(funcName(fn))}, opts...)
	return Async(func(ctx context.Context, event any) error {
		e, ok := event.(E)
		if !ok {
			return mismatch[E](event)
		}
		return fn(ctx, e)
	}, opts...)
}

func mismatch[E any](event any) error {
	return fmt.Errorf("eventbus: listener expects %v, got %T", reflect.TypeFor[E](), event)
}

// Name returns the listener's display name.
func (l *Listener) Name() string { return l.name }

// Kind returns whether the listener is sync or async.
func (l *Listener) Kind() Kind { return l.kind }

// Handle invokes the callable on the caller's goroutine. Errors and panics
// propagate unchanged.
func (l *Listener) Handle(ctx context.Context, event any) error {
	if l.kind == KindAsync {
		return l.asyncFn(ctx, event)
	}
	return l.syncFn(event)
}

// HandleAsync is the deferred entry point, called on a goroutine of its own.
// Sync callables simply run to completion there. A panic is recovered into a
// *PanicError so that one listener cannot bring the process down.
func (l *Listener) HandleAsync(ctx context.Context, event any) (err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = &PanicError{Listener: l.name, Value: rec, Stack: string(debug.Stack())}
		}
	}()
	return l.Handle(ctx, event)
}

func funcName(fn any) string {
	v := reflect.ValueOf(fn)
	if v.Kind() != reflect.Func || v.IsNil() {
		return "<nil>"
	}
	if f := runtime.FuncForPC(v.Pointer()); f != nil {
		return f.Name()
	}
	return "<unknown>"
}
