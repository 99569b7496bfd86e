// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package auth resolves the caller of a request and carries it in the
// request context.
package auth

import (
	"crypto/sha256"
	"encoding/hex"
	"slices"
)

// Principal is an authenticated caller.
type Principal struct {
	// ID is the configured user name, or a token hash when there is none.
	ID string

	// User is the human readable name, possibly empty.
	User string

	Scopes []string
}

// NewPrincipal builds a Principal for token. The token itself is not kept.
func NewPrincipal(token, user string, scopes []string) *Principal {
	id := user
	if id == "" {
		hash := sha256.Sum256([]byte(token))
		id = "t_" + hex.EncodeToString(hash[:])[:16]
	}
	return &Principal{ID: id, User: user, Scopes: slices.Clone(scopes)}
}

// HasScope reports whether p was granted scope.
func (p *Principal) HasScope(scope string) bool {
	return p != nil && slices.Contains(p.Scopes, scope)
}
