// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package auth

import (
	"crypto/subtle"
	"net/http"
	"slices"
	"strings"
)

const (
	// SessionCookie is the cookie checked after the Authorization header.
	SessionCookie = "reqkit_session"
	// HeaderAPIToken is the fallback token header.
	HeaderAPIToken = "X-API-Token"
)

// ExtractToken returns the caller's token, checking in order:
// Authorization: Bearer, the session cookie, the X-API-Token header.
func ExtractToken(r *http.Request) string {
	if h := r.Header.Get("Authorization"); strings.HasPrefix(h, "Bearer ") {
		return strings.TrimSpace(h[len("Bearer "):])
	}
	if c, err := r.Cookie(SessionCookie); err == nil && c.Value != "" {
		return c.Value
	}
	return r.Header.Get(HeaderAPIToken)
}

// AuthorizeToken compares got with expected in constant time. Empty tokens
// never match.
func AuthorizeToken(got, expected string) bool {
	if strings.TrimSpace(expected) == "" || got == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(got), []byte(expected)) == 1
}

// TokenConfig maps one static token to a user.
type TokenConfig struct {
	Token  string   `yaml:"token"`
	User   string   `yaml:"user"`
	Scopes []string `yaml:"scopes"`
}

// StaticTokens returns a user resolver for a fixed token list, suitable for
// the authentication middleware. It yields a *Principal, or nil for an
// anonymous or unknown caller.
func StaticTokens(tokens []TokenConfig) func(*http.Request) any {
	cfg := slices.Clone(tokens)
	return func(r *http.Request) any {
		got := ExtractToken(r)
		if got == "" {
			return nil
		}
		for _, tc := range cfg {
			if AuthorizeToken(got, tc.Token) {
				return NewPrincipal(tc.Token, tc.User, tc.Scopes)
			}
		}
		return nil
	}
}
