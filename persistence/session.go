// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package persistence

import (
	"context"
	"database/sql"
	"fmt"
	"sync"

	"github.com/rs/zerolog"
)

// Session is one unit of work: a reserved connection plus at most one open
// transaction. The transaction starts on first use and again after each
// Commit or Rollback.
type Session struct {
	conn         *sql.Conn
	base         context.Context
	txOpts       *sql.TxOptions
	rollbackOnly bool
	logger       zerolog.Logger

	mu     sync.Mutex
	tx     *sql.Tx
	closed bool
}

// Tx returns the open transaction, beginning one if needed.
func (s *Session) Tx() (*sql.Tx, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.txLocked()
}

func (s *Session) txLocked() (*sql.Tx, error) {
	if s.closed {
		return nil, ErrSessionClosed
	}
	if s.tx == nil {
		// bound to the session, not to whichever query came first
		tx, err := s.conn.BeginTx(s.base, s.txOpts)
		if err != nil {
			return nil, fmt.Errorf("persistence: begin: %w", err)
		}
		s.tx = tx
	}
	return s.tx, nil
}

// Exec runs a statement inside the session transaction.
func (s *Session) Exec(ctx context.Context, query string, args ...any) (sql.Result, error) {
	tx, err := s.Tx()
	if err != nil {
		return nil, err
	}
	return tx.ExecContext(ctx, query, args...)
}

// Query runs a query inside the session transaction.
func (s *Session) Query(ctx context.Context, query string, args ...any) (*sql.Rows, error) {
	tx, err := s.Tx()
	if err != nil {
		return nil, err
	}
	return tx.QueryContext(ctx, query, args...)
}

// Row is the result of QueryRow. A failure to begin the transaction is
// reported by Scan.
type Row struct {
	row *sql.Row
	err error
}

// Scan copies the row's columns into dest.
func (r *Row) Scan(dest ...any) error {
	if r.err != nil {
		return r.err
	}
	return r.row.Scan(dest...)
}

// QueryRow runs a query expected to return at most one row.
func (s *Session) QueryRow(ctx context.Context, query string, args ...any) *Row {
	tx, err := s.Tx()
	if err != nil {
		return &Row{err: err}
	}
	return &Row{row: tx.QueryRowContext(ctx, query, args...)}
}

// Active reports whether a transaction is open.
func (s *Session) Active() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.tx != nil
}

// Commit commits the open transaction, if any.
func (s *Session) Commit() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrSessionClosed
	}
	if s.tx == nil || s.rollbackOnly {
		return nil
	}
	err := s.tx.Commit()
	s.tx = nil
	if err != nil {
		return fmt.Errorf("persistence: commit: %w", err)
	}
	s.logger.Debug().Msg("session committed")
	return nil
}

// Rollback discards the open transaction, if any.
func (s *Session) Rollback() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrSessionClosed
	}
	return s.rollbackLocked()
}

func (s *Session) rollbackLocked() error {
	if s.tx == nil {
		return nil
	}
	err := s.tx.Rollback()
	s.tx = nil
	if err != nil && err != sql.ErrTxDone {
		return fmt.Errorf("persistence: rollback: %w", err)
	}
	return nil
}

func (s *Session) release() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.closed = true
	if err := s.rollbackLocked(); err != nil {
		s.logger.Warn().Err(err).Msg("rollback on release failed")
	}
	if err := s.conn.Close(); err != nil {
		s.logger.Warn().Err(err).Msg("connection release failed")
	}
}
