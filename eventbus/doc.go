// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package eventbus dispatches in-process domain events in two phases.
//
// Emit appends an event to the queue carried by the request context and runs
// the immediate listeners of every registered bus before returning. Deferred
// ("on publish") listeners run later, concurrently, when PublishEvents is
// called for the whole queue, typically by the HTTP middleware after a
// successful response.
//
// Startup wiring:
//
//	bus := eventbus.NewLocalBus()
//	bus.MustHandler(eventbus.SyncOf(audit), false, eventbus.TypeOf[UserCreated]())
//	bus.MustHandler(eventbus.AsyncOf(sendWelcomeMail), true, eventbus.TypeOf[UserCreated]())
//	eventbus.DefaultRegistry().Register(bus)
//
// Request path:
//
//	ctx, release := eventbus.EnterQueueContext(r.Context())
//	defer release()
//	if err := eventbus.Emit(ctx, UserCreated{ID: id}); err != nil { ... }
//	...
//	err := eventbus.PublishEvents(ctx)
//
// Events are keyed by their dynamic Go type. Nothing is persisted and
// nothing leaves the process.
package eventbus
