// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package metrics provides Prometheus metrics for the event bus and its
// request lifecycle.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Phase labels for handler failures.
const (
	PhaseImmediate = "immediate"
	PhaseDeferred  = "deferred"
)

var (
	EventsEmittedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "reqkit_events_emitted_total",
		Help: "Total number of events emitted into a request queue, by event type",
	}, []string{"type"})

	EventsPublishedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "reqkit_events_published_total",
		Help: "Total number of queued events handed to deferred dispatch, by event type",
	}, []string{"type"})

	HandlerErrorsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "reqkit_event_handler_errors_total",
		Help: "Total number of event handler failures, by dispatch phase",
	}, []string{"phase"})

	PublishSkippedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "reqkit_event_publish_skipped_total",
		Help: "Total number of requests whose queued events were discarded without publishing, by reason",
	}, []string{"reason"})

	PublishDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "reqkit_event_publish_duration_seconds",
		Help:    "Time spent running deferred handlers for one request",
		Buckets: prometheus.DefBuckets,
	})
)

// IncEmitted records one emitted event of the given type.
func IncEmitted(eventType string) {
	EventsEmittedTotal.WithLabelValues(labelOrUnknown(eventType)).Inc()
}

// IncPublished records one event handed to deferred handlers.
func IncPublished(eventType string) {
	EventsPublishedTotal.WithLabelValues(labelOrUnknown(eventType)).Inc()
}

// IncHandlerError records a failed handler in the given phase.
func IncHandlerError(phase string) {
	HandlerErrorsTotal.WithLabelValues(labelOrUnknown(phase)).Inc()
}

// IncPublishSkipped records a request that ended without publishing.
func IncPublishSkipped(reason string) {
	PublishSkippedTotal.WithLabelValues(labelOrUnknown(reason)).Inc()
}

// ObservePublish records the wall time of one publish call.
func ObservePublish(seconds float64) {
	PublishDuration.Observe(seconds)
}

func labelOrUnknown(v string) string {
	if v == "" {
		return "unknown"
	}
	return v
}
