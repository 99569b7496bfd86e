// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package log

// Canonical field name constants for structured logging.
const (
	// Identity fields
	FieldRequestID     = "request_id"
	FieldCorrelationID = "correlation_id"
	FieldUserID        = "user_id"

	// Process fields
	FieldEvent     = "event"
	FieldComponent = "component"

	// Event bus fields
	FieldEventType  = "event_type"
	FieldListener   = "listener"
	FieldQueueLen   = "queue_len"
	FieldBusCount   = "bus_count"
	FieldOnPublish  = "on_publish"
	FieldPublishErr = "publish_error"

	// HTTP fields
	FieldMethod     = "method"
	FieldPath       = "path"
	FieldStatus     = "status"
	FieldDurationMS = "duration_ms"
	FieldRemoteAddr = "remote_addr"

	// Config fields
	FieldConfigDir = "config_dir"
	FieldConfigEnv = "config_env"
)
