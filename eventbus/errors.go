// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package eventbus

import (
	"errors"
	"fmt"
	"reflect"
)

var (
	// ErrAsyncImmediate is returned when an async listener is registered for
	// immediate dispatch. Immediate dispatch runs inline in Emit and never
	// waits on a scheduled goroutine.
	ErrAsyncImmediate = errors.New("async listeners are not allowed as immediate event handlers")

	// ErrNoQueueContext is returned by Emit and PublishEvents when the context
	// carries no event queue (middleware missing or emission outside a request).
	ErrNoQueueContext = errors.New("no event queue in context")

	// ErrQueueClosed is returned when emitting into a queue that was released.
	ErrQueueClosed = errors.New("event queue already released")

	// ErrNilListener is returned when registering a nil listener.
	ErrNilListener = errors.New("listener cannot be nil")

	// ErrNilEvent is returned when emitting a nil event.
	ErrNilEvent = errors.New("event cannot be nil")

	// ErrHandlerPanic matches any *PanicError.
	ErrHandlerPanic = errors.New("event handler panicked")
)

// ConfigError reports a rejected registration.
type ConfigError struct {
	Listener  string
	EventType reflect.Type
	Err       error
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("eventbus: cannot register %s for %v: %v", e.Listener, e.EventType, e.Err)
}

func (e *ConfigError) Unwrap() error { return e.Err }

// HandlerError attributes a deferred listener failure inside an aggregate.
// Immediate listener errors are returned unchanged and never wrapped.
type HandlerError struct {
	Listener  string
	EventType reflect.Type
	Err       error
}

func (e *HandlerError) Error() string {
	return fmt.Sprintf("eventbus: deferred handler %s for %v: %v", e.Listener, e.EventType, e.Err)
}

func (e *HandlerError) Unwrap() error { return e.Err }

// PanicError carries a panic recovered from a deferred listener goroutine.
type PanicError struct {
	Listener string
	Value    any
	Stack    string
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("eventbus: listener %s panicked: %v", e.Listener, e.Value)
}

// Is allows errors.Is(err, ErrHandlerPanic).
func (e *PanicError) Is(target error) bool {
	return target == ErrHandlerPanic
}
