// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package middleware

import (
	"net/http"

	"github.com/ManuGH/reqkit/eventbus"
	"github.com/ManuGH/reqkit/internal/log"
	"github.com/ManuGH/reqkit/internal/metrics"
	"github.com/ManuGH/reqkit/internal/telemetry"
	chimw "github.com/go-chi/chi/v5/middleware"
	"go.opentelemetry.io/otel/trace"
)

// EventBusOption configures EventBus.
type EventBusOption func(*EventBusMiddleware)

// WithPublishBelow publishes only for responses with a status below code.
// The default is 400.
func WithPublishBelow(code int) EventBusOption {
	return func(m *EventBusMiddleware) {
		if code > 0 {
			m.publishBelow = code
		}
	}
}

// WithBuses registers buses on the registry when the middleware is built and
// unregisters them again on Close.
func WithBuses(buses ...eventbus.Bus) EventBusOption {
	return func(m *EventBusMiddleware) { m.buses = append(m.buses, buses...) }
}

// EventBusMiddleware gives every request its own event queue and publishes
// it after a successful response.
type EventBusMiddleware struct {
	reg          *eventbus.Registry
	publishBelow int
	buses        []eventbus.Bus
}

// EventBus builds the middleware for reg, or for the default registry when
// reg is nil.
func EventBus(reg *eventbus.Registry, opts ...EventBusOption) *EventBusMiddleware {
	if reg == nil {
		reg = eventbus.DefaultRegistry()
	}
	m := &EventBusMiddleware{reg: reg, publishBelow: http.StatusBadRequest}
	for _, opt := range opts {
		opt(m)
	}
	reg.Register(m.buses...)
	return m
}

// Registry returns the registry the middleware publishes through.
func (m *EventBusMiddleware) Registry() *eventbus.Registry { return m.reg }

// Handler is the chi middleware func.
//
// The queue is released when the handler chain returns or panics. Publishing
// happens after the response status is known and only below the threshold;
// deferred listener failures are logged and never change the response.
func (m *EventBusMiddleware) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx, release := eventbus.EnterQueueContext(r.Context())
		defer release()

		ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r.WithContext(ctx))

		logger := log.WithComponentFromContext(ctx, "eventbus")
		status := statusOf(ww)
		if status >= m.publishBelow {
			if q, ok := eventbus.QueueFrom(ctx); ok && q.Len() > 0 {
				metrics.IncPublishSkipped("status")
				trace.SpanFromContext(ctx).SetAttributes(telemetry.SkipAttributes("status")...)
				logger.Debug().
					Int(log.FieldStatus, status).
					Int(log.FieldQueueLen, q.Len()).
					Msg("discarding queued events")
			}
			return
		}

		if err := m.reg.PublishEvents(ctx); err != nil {
			ev := logger.Error()
			if ctx.Err() != nil {
				ev = logger.Warn()
			}
			ev.Err(err).
				Str(log.FieldMethod, r.Method).
				Str(log.FieldPath, r.URL.Path).
				Msg("publishing events failed")
		}
	})
}

// Close unregisters the buses registered by WithBuses.
func (m *EventBusMiddleware) Close() {
	for _, b := range m.buses {
		m.reg.Unregister(b)
	}
}
