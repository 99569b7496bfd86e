// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package sqlite opens database/sql pools on the pure Go modernc driver with
// the pragmas every reqkit database runs with.
package sqlite

import (
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite" // registers the "sqlite" driver
)

// Memory is the path that opens a private in-memory database.
const Memory = ":memory:"

// Config holds pool and pragma settings.
type Config struct {
	BusyTimeout  time.Duration `yaml:"busy_timeout"`
	MaxOpenConns int           `yaml:"max_open_conns"`
	ForeignKeys  bool          `yaml:"foreign_keys"`
}

// DefaultConfig returns the settings used when the config file has none.
func DefaultConfig() Config {
	return Config{
		BusyTimeout:  5 * time.Second,
		MaxOpenConns: 8,
		ForeignKeys:  true,
	}
}

// DSN builds the modernc connection string for path. Pragmas go into the DSN
// so they apply to every connection of the pool.
func DSN(path string, cfg Config) string {
	fk := "OFF"
	if cfg.ForeignKeys {
		fk = "ON"
	}
	if path == Memory {
		return fmt.Sprintf("file::memory:?_pragma=busy_timeout(%d)&_pragma=foreign_keys(%s)",
			cfg.BusyTimeout.Milliseconds(), fk)
	}
	return fmt.Sprintf("file:%s?_pragma=journal_mode(WAL)&_pragma=busy_timeout(%d)&_pragma=synchronous(NORMAL)&_pragma=foreign_keys(%s)",
		path, cfg.BusyTimeout.Milliseconds(), fk)
}

// Open returns a pinged pool for path. An in-memory database lives on a
// single connection, so the pool is capped at one.
func Open(path string, cfg Config) (*sql.DB, error) {
	if path == "" {
		return nil, fmt.Errorf("sqlite: empty database path")
	}
	db, err := sql.Open("sqlite", DSN(path, cfg))
	if err != nil {
		return nil, fmt.Errorf("sqlite: open failed: %w", err)
	}

	conns := cfg.MaxOpenConns
	if path == Memory || conns <= 0 {
		conns = 1
	}
	db.SetMaxOpenConns(conns)
	db.SetMaxIdleConns(conns)
	if path != Memory {
		db.SetConnMaxLifetime(time.Hour)
	}

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("sqlite: ping failed: %w", err)
	}
	return db, nil
}
