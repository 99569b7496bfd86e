// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package telemetry

import (
	"go.opentelemetry.io/otel/attribute"
)

// Common attribute keys for consistent tracing across the application.
const (
	// HTTP attributes
	HTTPMethodKey     = "http.method"
	HTTPStatusCodeKey = "http.status_code"
	HTTPRouteKey      = "http.route"
	HTTPURLKey        = "http.url"

	// Event bus attributes
	EventQueueLenKey   = "eventbus.queue_len"
	EventBusCountKey   = "eventbus.bus_count"
	EventTypeKey       = "eventbus.event_type"
	EventSkippedKey    = "eventbus.publish_skipped"
	EventSkipReasonKey = "eventbus.skip_reason"

	// Resource attributes
	ServiceInstanceKey = "service.instance.id"
	AppDatabaseKey     = "reqkit.database"
	AppPublishBelowKey = "reqkit.events.publish_below"

	// Error attributes
	ErrorKey     = "error"
	ErrorTypeKey = "error.type"
)

// HTTPAttributes creates common HTTP span attributes.
func HTTPAttributes(method, route, url string, statusCode int) []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.String(HTTPMethodKey, method),
		attribute.String(HTTPRouteKey, route),
		attribute.String(HTTPURLKey, url),
		attribute.Int(HTTPStatusCodeKey, statusCode),
	}
}

// PublishAttributes describes one deferred publish call.
func PublishAttributes(queueLen, busCount int) []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.Int(EventQueueLenKey, queueLen),
		attribute.Int(EventBusCountKey, busCount),
	}
}

// SkipAttributes marks a request whose queue was discarded.
func SkipAttributes(reason string) []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.Bool(EventSkippedKey, true),
		attribute.String(EventSkipReasonKey, reason),
	}
}

// AppAttributes describes how the application was assembled. They are
// reported as resource attributes.
func AppAttributes(database bool, publishBelow int) []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.Bool(AppDatabaseKey, database),
		attribute.Int(AppPublishBelowKey, publishBelow),
	}
}

// ErrorAttributes creates error-related span attributes.
func ErrorAttributes(_ error, errorType string) []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.Bool(ErrorKey, true),
		attribute.String(ErrorTypeKey, errorType),
	}
}
