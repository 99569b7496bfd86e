// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package auth

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractToken_PriorityOrder(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "http://example.local/test", nil)
	r.Header.Set("Authorization", "Bearer bearer-token ")
	r.Header.Set(HeaderAPIToken, "header-token")
	r.AddCookie(&http.Cookie{Name: SessionCookie, Value: "session-token"})
	assert.Equal(t, "bearer-token", ExtractToken(r))

	r.Header.Del("Authorization")
	assert.Equal(t, "session-token", ExtractToken(r))

	r = httptest.NewRequest(http.MethodGet, "http://example.local/test", nil)
	r.Header.Set(HeaderAPIToken, "header-token")
	assert.Equal(t, "header-token", ExtractToken(r))

	r = httptest.NewRequest(http.MethodGet, "http://example.local/test?token=query", nil)
	assert.Empty(t, ExtractToken(r))
}

func TestAuthorizeToken(t *testing.T) {
	assert.True(t, AuthorizeToken("secret", "secret"))
	assert.False(t, AuthorizeToken("secret", "other"))
	assert.False(t, AuthorizeToken("", "secret"))
	assert.False(t, AuthorizeToken("secret", ""))
	assert.False(t, AuthorizeToken("secret", "   "))
}

func TestNewPrincipal(t *testing.T) {
	p := NewPrincipal("tok", "dana", []string{"read"})
	assert.Equal(t, "dana", p.ID)
	assert.True(t, p.HasScope("read"))
	assert.False(t, p.HasScope("write"))

	anon := NewPrincipal("tok", "", nil)
	assert.Regexp(t, `^t_[0-9a-f]{16}$`, anon.ID)
	assert.Equal(t, anon.ID, NewPrincipal("tok", "", nil).ID)

	var none *Principal
	assert.False(t, none.HasScope("read"))
}

func TestStaticTokens(t *testing.T) {
	resolve := StaticTokens([]TokenConfig{
		{Token: "a-token", User: "alice", Scopes: []string{"admin"}},
		{Token: "b-token"},
	})

	r := httptest.NewRequest(http.MethodGet, "/", nil)
	assert.Nil(t, resolve(r))

	r.Header.Set("Authorization", "Bearer a-token")
	p, ok := resolve(r).(*Principal)
	require.True(t, ok)
	assert.Equal(t, "alice", p.ID)
	assert.True(t, p.HasScope("admin"))

	r.Header.Set("Authorization", "Bearer wrong")
	assert.Nil(t, resolve(r))
}

func TestUserContext(t *testing.T) {
	_, ok := UserFrom(context.Background())
	assert.False(t, ok)

	ctx := ContextWithUser(context.Background(), nil)
	user, ok := UserFrom(ctx)
	assert.True(t, ok)
	assert.Nil(t, user)
	assert.Nil(t, PrincipalFrom(ctx))

	p := NewPrincipal("", "erin", nil)
	ctx = ContextWithUser(context.Background(), p)
	assert.Same(t, p, PrincipalFrom(ctx))

	ctx = ContextWithUser(context.Background(), "just-a-name")
	user, _ = UserFrom(ctx)
	assert.Equal(t, "just-a-name", user)
	assert.Nil(t, PrincipalFrom(ctx))
}
