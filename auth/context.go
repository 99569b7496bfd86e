// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package auth

import "context"

type userKey struct{}

// ContextWithUser stores whatever the resolver returned, nil included.
func ContextWithUser(ctx context.Context, user any) context.Context {
	return context.WithValue(ctx, userKey{}, userBox{user})
}

// userBox lets a nil user be told apart from "never resolved".
type userBox struct{ v any }

// UserFrom returns the stored user and whether resolution ran at all.
func UserFrom(ctx context.Context) (any, bool) {
	b, ok := ctx.Value(userKey{}).(userBox)
	return b.v, ok
}

// PrincipalFrom returns the stored user when it is a *Principal.
func PrincipalFrom(ctx context.Context) *Principal {
	user, _ := UserFrom(ctx)
	p, _ := user.(*Principal)
	return p
}
