// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package log

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestMiddlewareLogsMethodStatusPathAndDuration(t *testing.T) {
	buf := captureLogs(t)

	ticks := []time.Time{time.Unix(0, 0), time.Unix(1, 0)}
	now = func() time.Time {
		next := ticks[0]
		ticks = ticks[1:]
		return next
	}
	t.Cleanup(func() { now = time.Now })

	h := Middleware()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusCreated)
	}))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/custom", nil))

	out := buf.String()
	require.Contains(t, out, "GET 201 /custom 1000.00ms")
	require.Contains(t, out, `"event":"request.handled"`)
}

func TestMiddlewareDefaultsStatusToOK(t *testing.T) {
	buf := captureLogs(t)

	h := Middleware()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, "/noop", nil))

	require.Contains(t, buf.String(), `"status":200`)
}
