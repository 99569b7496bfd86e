// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package middleware

import (
	"net/http"

	"github.com/ManuGH/reqkit/internal/log"
	"github.com/ManuGH/reqkit/persistence"
	chimw "github.com/go-chi/chi/v5/middleware"
)

// Database opens a session per request. Whatever the handlers did not
// commit is rolled back once the chain returns.
func Database(db *persistence.Database) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx, _, release, err := db.SessionContext(r.Context())
			if err != nil {
				logger := log.WithComponentFromContext(r.Context(), "persistence")
				logger.Error().Err(err).Msg("opening database session failed")
				writeJSONError(w, http.StatusServiceUnavailable, "database_unavailable", log.RequestIDFromContext(r.Context()))
				return
			}
			defer release()
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// Autocommit commits the request session when the response status is below
// 400. It must run inside Database.
func Autocommit() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)

			if statusOf(ww) >= http.StatusBadRequest {
				return
			}
			s, err := persistence.SessionFrom(r.Context())
			if err != nil {
				return
			}
			if err := s.Commit(); err != nil {
				logger := log.WithComponentFromContext(r.Context(), "persistence")
				logger.Error().Err(err).Str(log.FieldPath, r.URL.Path).Msg("autocommit failed")
			}
		})
	}
}
