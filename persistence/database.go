// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package persistence provides a session per unit of work on top of
// database/sql. A session pins one pooled connection and lazily opens a
// transaction on it; HTTP middleware opens one per request and commits it
// when the response succeeded.
package persistence

import (
	"context"
	"database/sql"
	"fmt"

	xglog "github.com/ManuGH/reqkit/internal/log"
	"github.com/rs/zerolog"
)

// Database hands out sessions bound to a context.
type Database struct {
	db           *sql.DB
	txOpts       *sql.TxOptions
	rollbackOnly bool
	logger       zerolog.Logger
}

// Option configures a Database.
type Option func(*Database)

// WithTxOptions sets the options used for every session transaction.
func WithTxOptions(opts *sql.TxOptions) Option {
	return func(d *Database) { d.txOpts = opts }
}

// WithRollbackOnly turns Commit into a no-op and rolls every session back on
// release. Used by test fixtures so nothing outlives a test.
func WithRollbackOnly() Option {
	return func(d *Database) { d.rollbackOnly = true }
}

// New wraps an open pool.
func New(db *sql.DB, opts ...Option) *Database {
	d := &Database{db: db, logger: xglog.WithComponent("persistence")}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// DB returns the underlying pool.
func (d *Database) DB() *sql.DB { return d.db }

// Close closes the pool.
func (d *Database) Close() error { return d.db.Close() }

type sessionKey struct{}

// SessionContext reserves a connection and returns a child context carrying
// the new session together with its release func. Release rolls back
// whatever was not committed and returns the connection to the pool; it is
// safe to call more than once. Nested sessions are refused.
func (d *Database) SessionContext(ctx context.Context) (context.Context, *Session, func(), error) {
	if _, ok := ctx.Value(sessionKey{}).(*Session); ok {
		return nil, nil, nil, ErrSessionExists
	}
	conn, err := d.db.Conn(ctx)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("persistence: acquire connection: %w", err)
	}
	s := &Session{
		conn:         conn,
		base:         context.WithoutCancel(ctx),
		txOpts:       d.txOpts,
		rollbackOnly: d.rollbackOnly,
		logger:       xglog.WithContext(ctx, d.logger),
	}
	return context.WithValue(ctx, sessionKey{}, s), s, s.release, nil
}

// WithSession runs fn inside a fresh session and releases it afterwards.
// fn decides whether to Commit.
func (d *Database) WithSession(ctx context.Context, fn func(ctx context.Context, s *Session) error) error {
	ctx, s, release, err := d.SessionContext(ctx)
	if err != nil {
		return err
	}
	defer release()
	return fn(ctx, s)
}

// SessionFrom returns the session carried by ctx.
func SessionFrom(ctx context.Context) (*Session, error) {
	if s, ok := ctx.Value(sessionKey{}).(*Session); ok {
		return s, nil
	}
	return nil, ErrNoSession
}
