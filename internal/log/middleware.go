// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package log

import (
	"fmt"
	"net/http"
	"time"

	chimw "github.com/go-chi/chi/v5/middleware"
)

// now is swapped by tests to make durations deterministic.
var now = time.Now

// Middleware logs one line per request once the downstream handler returns:
// method, status, path and the elapsed time in milliseconds.
func Middleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := now()
			ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)

			next.ServeHTTP(ww, r)

			status := ww.Status()
			if status == 0 {
				status = http.StatusOK
			}
			elapsed := float64(now().Sub(start).Microseconds()) / 1000
			duration := fmt.Sprintf("%.2f", elapsed)

			logger := WithComponentFromContext(r.Context(), "http")
			logger.Info().
				Str(FieldEvent, "request.handled").
				Str(FieldMethod, r.Method).
				Int(FieldStatus, status).
				Str(FieldPath, r.URL.Path).
				Str(FieldDurationMS, duration).
				Msgf("%s %d %s %sms", r.Method, status, r.URL.Path, duration)
		})
	}
}
