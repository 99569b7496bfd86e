// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package persistence

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"regexp"
	"slices"
	"sort"
	"strings"

	xglog "github.com/ManuGH/reqkit/internal/log"
	"github.com/rs/zerolog"
)

var identRe = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// Scanner is satisfied by *sql.Rows and *Row.
type Scanner interface {
	Scan(dest ...any) error
}

// Table describes how a record type maps to a table. Columns is the select
// list in Scan order and doubles as the whitelist for filters and sorting.
type Table[T any] struct {
	Name    string
	PK      string
	Columns []string
	Scan    func(Scanner) (T, error)

	// NotFound is returned by GetByPK for a missing key. Defaults to ErrNotFound.
	NotFound error
}

// Repository runs read queries for one table inside the context session.
type Repository[T any] struct {
	table  Table[T]
	logger zerolog.Logger
}

// NewRepository validates the table description.
func NewRepository[T any](table Table[T]) (*Repository[T], error) {
	if table.Scan == nil {
		return nil, fmt.Errorf("persistence: table %q has no scan func", table.Name)
	}
	if len(table.Columns) == 0 {
		return nil, fmt.Errorf("persistence: table %q has no columns", table.Name)
	}
	for _, ident := range append([]string{table.Name, table.PK}, table.Columns...) {
		if !identRe.MatchString(ident) {
			return nil, fmt.Errorf("persistence: invalid identifier %q", ident)
		}
	}
	if table.NotFound == nil {
		table.NotFound = ErrNotFound
	}
	return &Repository[T]{
		table:  table,
		logger: xglog.WithComponent("persistence").With().Str("table", table.Name).Logger(),
	}, nil
}

func (r *Repository[T]) selectList() string {
	return fmt.Sprintf("SELECT %s FROM %s", strings.Join(r.table.Columns, ", "), r.table.Name)
}

// GetByPK loads the record with the given primary key.
func (r *Repository[T]) GetByPK(ctx context.Context, pk any) (T, error) {
	var zero T
	s, err := SessionFrom(ctx)
	if err != nil {
		return zero, err
	}
	query := fmt.Sprintf("%s WHERE %s = ?", r.selectList(), r.table.PK)
	item, err := r.table.Scan(s.QueryRow(ctx, query, pk))
	if errors.Is(err, sql.ErrNoRows) {
		return zero, r.table.NotFound
	}
	if err != nil {
		return zero, fmt.Errorf("persistence: get %s by %s: %w", r.table.Name, r.table.PK, err)
	}
	return item, nil
}

// GetAll returns every record matching filter (column equality, nil values
// ignored), ordered by sortBy. sortBy is a comma separated list of
// "column.asc" or "column.desc"; unknown columns and malformed items are
// skipped.
func (r *Repository[T]) GetAll(ctx context.Context, filter map[string]any, sortBy string) ([]T, error) {
	s, err := SessionFrom(ctx)
	if err != nil {
		return nil, err
	}

	var (
		query strings.Builder
		args  []any
	)
	query.WriteString(r.selectList())

	where, args, err := r.where(filter)
	if err != nil {
		return nil, err
	}
	if where != "" {
		query.WriteString(" WHERE ")
		query.WriteString(where)
	}
	if order := r.orderBy(sortBy); order != "" {
		query.WriteString(" ORDER BY ")
		query.WriteString(order)
	}

	rows, err := s.Query(ctx, query.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("persistence: list %s: %w", r.table.Name, err)
	}
	defer rows.Close()

	var out []T
	for rows.Next() {
		item, err := r.table.Scan(rows)
		if err != nil {
			return nil, fmt.Errorf("persistence: scan %s: %w", r.table.Name, err)
		}
		out = append(out, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("persistence: list %s: %w", r.table.Name, err)
	}
	return out, nil
}

func (r *Repository[T]) where(filter map[string]any) (string, []any, error) {
	cols := make([]string, 0, len(filter))
	for col, v := range filter {
		if v == nil {
			continue
		}
		if !slices.Contains(r.table.Columns, col) {
			return "", nil, fmt.Errorf("persistence: filter %s.%s: %w", r.table.Name, col, ErrUnknownColumn)
		}
		cols = append(cols, col)
	}
	sort.Strings(cols)

	conds := make([]string, len(cols))
	args := make([]any, len(cols))
	for i, col := range cols {
		conds[i] = col + " = ?"
		args[i] = filter[col]
	}
	return strings.Join(conds, " AND "), args, nil
}

func (r *Repository[T]) orderBy(sortBy string) string {
	var terms []string
	for _, item := range strings.Split(sortBy, ",") {
		item = strings.TrimSpace(item)
		if item == "" {
			continue
		}
		col, dir, ok := strings.Cut(item, ".")
		if !ok || !slices.Contains(r.table.Columns, col) {
			r.logger.Debug().Str("sort", item).Msg("skipping sort item")
			continue
		}
		switch strings.ToLower(dir) {
		case "asc":
			terms = append(terms, col+" ASC")
		case "desc":
			terms = append(terms, col+" DESC")
		default:
			r.logger.Debug().Str("sort", item).Msg("skipping sort item")
		}
	}
	return strings.Join(terms, ", ")
}
