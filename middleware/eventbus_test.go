// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/ManuGH/reqkit/eventbus"
	"github.com/ManuGH/reqkit/internal/metrics"
	"github.com/ManuGH/reqkit/internal/telemetry"
	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

type orderPlaced struct{ id int }

func getCounterValue(t *testing.T, counter prometheus.Counter) float64 {
	t.Helper()
	metric := &dto.Metric{}
	require.NoError(t, counter.Write(metric))
	return metric.GetCounter().GetValue()
}

type eventFixture struct {
	reg       *eventbus.Registry
	mw        *EventBusMiddleware
	published atomic.Int32
	queue     *eventbus.Queue
}

func newEventFixture(t *testing.T, opts ...EventBusOption) *eventFixture {
	t.Helper()
	f := &eventFixture{reg: eventbus.NewRegistry()}
	bus := eventbus.NewLocalBus()
	bus.MustHandler(eventbus.SyncOf(func(orderPlaced) error {
		f.published.Add(1)
		return nil
	}), true, eventbus.TypeOf[orderPlaced]())
	f.mw = EventBus(f.reg, append([]EventBusOption{WithBuses(bus)}, opts...)...)
	t.Cleanup(f.mw.Close)
	return f
}

// handler emits two events and answers with status.
func (f *eventFixture) handler(t *testing.T, status int) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q, ok := eventbus.QueueFrom(r.Context())
		require.True(t, ok)
		f.queue = q
		require.NoError(t, f.reg.Emit(r.Context(), orderPlaced{id: 1}))
		require.NoError(t, f.reg.Emit(r.Context(), orderPlaced{id: 2}))
		if status != 0 {
			w.WriteHeader(status)
		}
	})
}

func serve(h http.Handler) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/orders", nil))
	return w
}

func TestEventBusPublishesOnSuccess(t *testing.T) {
	for _, status := range []int{0, http.StatusOK, http.StatusCreated, http.StatusFound} {
		f := newEventFixture(t)
		serve(f.mw.Handler(f.handler(t, status)))

		assert.Equal(t, int32(2), f.published.Load(), "status %d", status)
		assert.True(t, f.queue.Closed())
		assert.Zero(t, f.queue.Len())
	}
}

func TestEventBusSkipsPublishOnServerError(t *testing.T) {
	f := newEventFixture(t)
	skipped := metrics.PublishSkippedTotal.WithLabelValues("status")
	before := getCounterValue(t, skipped)

	w := serve(f.mw.Handler(f.handler(t, http.StatusInternalServerError)))

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Zero(t, f.published.Load())
	require.NotNil(t, f.queue)
	assert.True(t, f.queue.Closed(), "queue must be released on exit")
	assert.Zero(t, f.queue.Len())
	assert.Equal(t, before+1, getCounterValue(t, skipped))
}

func TestEventBusMarksSkippedPublishOnSpan(t *testing.T) {
	exporter := tracetest.NewInMemoryExporter()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSyncer(exporter))
	prev := otel.GetTracerProvider()
	otel.SetTracerProvider(tp)
	t.Cleanup(func() {
		otel.SetTracerProvider(prev)
		_ = tp.Shutdown(t.Context())
	})

	f := newEventFixture(t)
	serve(Tracing("test")(f.mw.Handler(f.handler(t, http.StatusConflict))))

	spans := exporter.GetSpans()
	require.Len(t, spans, 1)
	attrs := map[attribute.Key]attribute.Value{}
	for _, kv := range spans[0].Attributes {
		attrs[kv.Key] = kv.Value
	}
	assert.True(t, attrs[telemetry.EventSkippedKey].AsBool())
	assert.Equal(t, "status", attrs[telemetry.EventSkipReasonKey].AsString())
}

func TestEventBusSkipsPublishOnClientError(t *testing.T) {
	f := newEventFixture(t)
	serve(f.mw.Handler(f.handler(t, http.StatusNotFound)))
	assert.Zero(t, f.published.Load())
}

func TestEventBusPublishBelowThreshold(t *testing.T) {
	f := newEventFixture(t, WithPublishBelow(http.StatusInternalServerError))
	serve(f.mw.Handler(f.handler(t, http.StatusNotFound)))
	assert.Equal(t, int32(2), f.published.Load())
}

func TestEventBusReleasesQueueOnPanic(t *testing.T) {
	f := newEventFixture(t)
	inner := f.handler(t, 0)
	panicking := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		inner.ServeHTTP(w, r)
		panic("handler exploded")
	})

	w := serve(Recoverer(f.mw.Handler(panicking)))

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Zero(t, f.published.Load())
	assert.True(t, f.queue.Closed())
}

func TestEventBusDeferredFailureKeepsResponse(t *testing.T) {
	reg := eventbus.NewRegistry()
	bus := eventbus.NewLocalBus()
	bus.MustHandler(eventbus.Async(func(context.Context, any) error {
		return errors.New("mail relay down")
	}), true, eventbus.TypeOf[orderPlaced]())
	mw := EventBus(reg, WithBuses(bus))
	t.Cleanup(mw.Close)

	h := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, reg.Emit(r.Context(), orderPlaced{}))
		w.WriteHeader(http.StatusAccepted)
	})
	w := serve(mw.Handler(h))
	assert.Equal(t, http.StatusAccepted, w.Code)
}

func TestEventBusRequestsAreIsolated(t *testing.T) {
	f := newEventFixture(t)
	h := f.mw.Handler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, f.reg.Emit(r.Context(), orderPlaced{}))
		q, _ := eventbus.QueueFrom(r.Context())
		assert.Equal(t, 1, q.Len())
	}))
	for range 3 {
		serve(h)
	}
	assert.Equal(t, int32(3), f.published.Load())
}

func TestEventBusCloseUnregistersBuses(t *testing.T) {
	reg := eventbus.NewRegistry()
	other := eventbus.NewLocalBus()
	reg.Register(other)

	mw := EventBus(reg, WithBuses(eventbus.NewLocalBus(), eventbus.NewLocalBus()))
	assert.Equal(t, 3, reg.Len())
	assert.Same(t, reg, mw.Registry())

	mw.Close()
	require.Equal(t, 1, reg.Len())
	assert.Same(t, other, reg.Buses()[0])
}

func TestEventBusDefaultsToDefaultRegistry(t *testing.T) {
	mw := EventBus(nil)
	assert.Same(t, eventbus.DefaultRegistry(), mw.Registry())
}
