// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package eventbus

import (
	"context"
	"time"

	xglog "github.com/ManuGH/reqkit/internal/log"
	"github.com/ManuGH/reqkit/internal/metrics"
	"github.com/ManuGH/reqkit/internal/telemetry"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "reqkit/eventbus"

// Emit appends event to the queue carried by ctx, then runs the immediate
// listeners of every registered bus in registration order. The first
// listener error is returned unchanged and the remaining listeners are
// skipped; the event stays queued.
func (r *Registry) Emit(ctx context.Context, event any) error {
	if event == nil {
		return ErrNilEvent
	}
	q, ok := QueueFrom(ctx)
	if !ok {
		r.logger.Error().
			Str(xglog.FieldEventType, typeName(TypeOfEvent(event))).
			Msg("emit outside of a queue context")
		return ErrNoQueueContext
	}
	if err := q.push(event); err != nil {
		return err
	}
	eventType := typeName(TypeOfEvent(event))
	metrics.IncEmitted(eventType)

	logger := xglog.WithContext(ctx, r.logger)
	logger.Debug().Str(xglog.FieldEventType, eventType).Msg("event emitted")

	for _, b := range r.Buses() {
		if err := b.HandleEvent(ctx, event); err != nil {
			return err
		}
	}
	return nil
}

// PublishEvents hands a snapshot of the queue carried by ctx to the deferred
// dispatch of every registered bus, concurrently, and waits for all of them.
// Errors from all buses are joined. The queue is left untouched: calling it
// twice dispatches the same events twice. Events emitted while a publish is
// in flight are not part of that call. A context that is already done
// discards the batch and returns its error.
func (r *Registry) PublishEvents(ctx context.Context) error {
	q, ok := QueueFrom(ctx)
	if !ok {
		return ErrNoQueueContext
	}
	if err := ctx.Err(); err != nil {
		metrics.IncPublishSkipped("canceled")
		trace.SpanFromContext(ctx).SetAttributes(telemetry.SkipAttributes("canceled")...)
		return err
	}
	events := q.Events()
	if len(events) == 0 {
		return nil
	}
	buses := r.Buses()

	ctx, span := telemetry.Tracer(tracerName).Start(ctx, "eventbus.publish")
	defer span.End()
	span.SetAttributes(telemetry.PublishAttributes(len(events), len(buses))...)

	logger := xglog.WithContext(ctx, r.logger)
	logger.Debug().
		Int(xglog.FieldQueueLen, len(events)).
		Int(xglog.FieldBusCount, len(buses)).
		Msg("publishing events")

	for _, event := range events {
		metrics.IncPublished(typeName(TypeOfEvent(event)))
	}

	start := time.Now()
	tasks := make([]task, 0, len(buses))
	for _, b := range buses {
		tasks = append(tasks, func(ctx context.Context) error {
			return b.HandleEvents(ctx, events)
		})
	}
	err := runAll(ctx, 0, tasks)
	metrics.ObservePublish(time.Since(start).Seconds())

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "deferred handler failed")
		span.SetAttributes(telemetry.ErrorAttributes(err, "deferred_handler")...)
	}
	return err
}

// Emit emits into the default registry.
func Emit(ctx context.Context, event any) error {
	return defaultRegistry.Emit(ctx, event)
}

// PublishEvents publishes through the default registry.
func PublishEvents(ctx context.Context) error {
	return defaultRegistry.PublishEvents(ctx)
}
