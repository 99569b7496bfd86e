// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package log

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"regexp"
	"sort"
	"strings"
	"sync"
	"time"
)

// Record is one decoded zerolog JSON line.
type Record struct {
	Level   string
	Time    string
	Message string
	Fields  map[string]any
}

// Mapping turns a record into column values for one row.
type Mapping func(Record) map[string]any

var identRe = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// DBWriter is an io.Writer that persists every log line as a row in a SQL
// table. Use it as a zerolog output, usually next to stdout via
// zerolog.MultiLevelWriter. Write never fails towards the logger: storage
// errors go to OnError.
type DBWriter struct {
	db      *sql.DB
	table   string
	mapping Mapping
	timeout time.Duration

	// OnError receives insert failures. Defaults to printing on stderr.
	OnError func(rec Record, err error)

	mu      sync.Mutex
	partial bytes.Buffer
}

// NewDBWriter validates the table name and returns a writer inserting into it.
func NewDBWriter(db *sql.DB, table string, mapping Mapping) (*DBWriter, error) {
	if db == nil {
		return nil, fmt.Errorf("db writer: nil database")
	}
	if !identRe.MatchString(table) {
		return nil, fmt.Errorf("db writer: invalid table name %q", table)
	}
	if mapping == nil {
		mapping = DefaultMapping
	}
	return &DBWriter{
		db:      db,
		table:   table,
		mapping: mapping,
		timeout: 5 * time.Second,
		OnError: func(rec Record, err error) {
			fmt.Fprintf(os.Stderr, "log db writer: %v (message=%q)\n", err, rec.Message)
		},
	}, nil
}

// DefaultMapping stores time, level and message columns.
func DefaultMapping(rec Record) map[string]any {
	return map[string]any{
		"time":    rec.Time,
		"level":   rec.Level,
		"message": rec.Message,
	}
}

// Write splits p into lines and inserts each complete line.
func (w *DBWriter) Write(p []byte) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.partial.Write(p)
	for {
		line, err := w.partial.ReadBytes('\n')
		if err != nil {
			// incomplete line, keep for the next write
			w.partial.Reset()
			w.partial.Write(line)
			break
		}
		w.insertLine(bytes.TrimSpace(line))
	}
	return len(p), nil
}

func (w *DBWriter) insertLine(line []byte) {
	if len(line) == 0 {
		return
	}
	rec, err := decodeRecord(line)
	if err != nil {
		w.OnError(Record{Message: string(line)}, err)
		return
	}
	if err := w.insert(rec); err != nil {
		w.OnError(rec, err)
	}
}

func (w *DBWriter) insert(rec Record) error {
	values := w.mapping(rec)
	if len(values) == 0 {
		return nil
	}
	cols := make([]string, 0, len(values))
	for col := range values {
		if !identRe.MatchString(col) {
			return fmt.Errorf("invalid column name %q", col)
		}
		cols = append(cols, col)
	}
	sort.Strings(cols)

	args := make([]any, len(cols))
	marks := make([]string, len(cols))
	for i, col := range cols {
		args[i] = values[col]
		marks[i] = "?"
	}
	stmt := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
		w.table, strings.Join(cols, ", "), strings.Join(marks, ", "))

	ctx, cancel := context.WithTimeout(context.Background(), w.timeout)
	defer cancel()
	tx, err := w.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	if _, err := tx.ExecContext(ctx, stmt, args...); err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("insert log: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

func decodeRecord(line []byte) (Record, error) {
	fields := map[string]any{}
	if err := json.Unmarshal(line, &fields); err != nil {
		return Record{}, fmt.Errorf("decode log line: %w", err)
	}
	rec := Record{Fields: fields}
	rec.Level, _ = fields["level"].(string)
	rec.Time, _ = fields["time"].(string)
	rec.Message, _ = fields["message"].(string)
	return rec, nil
}
