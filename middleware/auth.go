// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package middleware

import (
	"net/http"

	"github.com/ManuGH/reqkit/auth"
	"github.com/ManuGH/reqkit/internal/log"
)

// Authentication resolves the caller with getUser and stores the result,
// nil included, in the request context. It never rejects a request.
func Authentication(getUser func(*http.Request) any) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user := getUser(r)
			ctx := auth.ContextWithUser(r.Context(), user)
			if p, ok := user.(*auth.Principal); ok && p != nil {
				ctx = log.ContextWithUserID(ctx, p.ID)
			}
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
