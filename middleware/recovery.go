// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package middleware

import (
	"encoding/json"
	"net/http"
	"runtime"
	"strings"

	"github.com/ManuGH/reqkit/internal/log"
)

// Recoverer turns a panic in any downstream handler into a logged 500 JSON
// response. Inner middleware still runs its deferred cleanup while the panic
// unwinds, so request scoped state is released before this point.
func Recoverer(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			rec := recover()
			if rec == nil {
				return
			}
			if rec == http.ErrAbortHandler {
				panic(rec)
			}

			buf := make([]byte, 8192)
			stack := string(buf[:runtime.Stack(buf, false)])
			reqID := log.RequestIDFromContext(r.Context())
			if reqID == "" {
				// RequestID runs inside this handler; its context never reaches r
				reqID = w.Header().Get(HeaderRequestID)
			}

			logger := log.WithComponentFromContext(r.Context(), "panic-recovery")
			logger.Error().
				Str(log.FieldEvent, "panic.recovered").
				Str(log.FieldMethod, r.Method).
				Str(log.FieldPath, strings.ToValidUTF8(r.URL.Path, "")).
				Str(log.FieldRemoteAddr, r.RemoteAddr).
				Interface("panic_value", rec).
				Str("stack_trace", stack).
				Msg("panic recovered in HTTP handler")

			writeJSONError(w, http.StatusInternalServerError, "internal_error", reqID)
		}()

		next.ServeHTTP(w, r)
	})
}

func writeJSONError(w http.ResponseWriter, status int, code, reqID string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	body := map[string]any{
		"error":  code,
		"detail": http.StatusText(status),
	}
	if reqID != "" {
		body["request_id"] = reqID
	}
	_ = json.NewEncoder(w).Encode(body)
}
