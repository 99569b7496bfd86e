// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package log

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestContextWithRequestID(t *testing.T) {
	tests := []struct {
		name      string
		ctx       context.Context
		requestID string
		want      string
	}{
		{name: "nil context", ctx: nil, requestID: "test-id-123", want: "test-id-123"},
		{name: "background context", ctx: context.Background(), requestID: "req-456", want: "req-456"},
		{name: "empty request ID", ctx: context.Background(), requestID: "", want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := ContextWithRequestID(tt.ctx, tt.requestID)
			if got := RequestIDFromContext(ctx); got != tt.want {
				t.Errorf("RequestIDFromContext() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestRequestIDFromContextEmpty(t *testing.T) {
	tests := []struct {
		name string
		ctx  context.Context
	}{
		{name: "nil context", ctx: nil},
		{name: "context without request ID", ctx: context.Background()},
		{name: "context with wrong type", ctx: context.WithValue(context.Background(), requestIDKey, 123)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := RequestIDFromContext(tt.ctx); got != "" {
				t.Errorf("RequestIDFromContext() = %v, want empty", got)
			}
		})
	}
}

func TestWithContextAddsCorrelationFields(t *testing.T) {
	buf := captureLogs(t)

	ctx := ContextWithRequestID(context.Background(), "req-123")
	ctx = ContextWithCorrelationID(ctx, "corr-1")
	ctx = ContextWithUserID(ctx, "u-7")

	l := WithComponentFromContext(ctx, "test")
	l.Info().Msg("with ids")

	out := buf.String()
	require.Contains(t, out, `"request_id":"req-123"`)
	require.Contains(t, out, `"correlation_id":"corr-1"`)
	require.Contains(t, out, `"user_id":"u-7"`)
	require.Contains(t, out, `"component":"test"`)
}

func TestFromContextFallsBackToBase(t *testing.T) {
	buf := captureLogs(t)

	FromContext(nil).Info().Msg("nil ctx")
	FromContext(ContextWithRequestID(context.Background(), "r1")).Info().Msg("bg ctx")

	require.Contains(t, buf.String(), "nil ctx")
	require.Contains(t, buf.String(), `"request_id":"r1"`)
}
