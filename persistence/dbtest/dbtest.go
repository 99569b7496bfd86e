// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package dbtest provides throwaway databases for tests.
package dbtest

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/ManuGH/reqkit/persistence"
	"github.com/ManuGH/reqkit/persistence/sqlite"
	"github.com/stretchr/testify/require"
)

// New opens a database in a temp directory, applies schema and closes it at
// cleanup. Sessions from the returned Database never commit.
func New(t testing.TB, schema ...string) *persistence.Database {
	t.Helper()
	db := Open(t, schema...)
	return persistence.New(db.DB(), persistence.WithRollbackOnly())
}

// Open is New without the rollback-only guard, for tests that need data to
// survive across sessions.
func Open(t testing.TB, schema ...string) *persistence.Database {
	t.Helper()
	raw, err := sqlite.Open(filepath.Join(t.TempDir(), "test.sqlite"), sqlite.DefaultConfig())
	require.NoError(t, err)
	t.Cleanup(func() { _ = raw.Close() })

	for _, stmt := range schema {
		_, err := raw.Exec(stmt)
		require.NoError(t, err, "apply schema: %s", stmt)
	}
	return persistence.New(raw)
}

// Session returns a context carrying a session of db that is released at
// cleanup.
func Session(t testing.TB, db *persistence.Database) context.Context {
	t.Helper()
	ctx, _, release, err := db.SessionContext(context.Background())
	require.NoError(t, err)
	t.Cleanup(release)
	return ctx
}
