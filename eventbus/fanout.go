// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package eventbus

import (
	"context"
	"errors"
	"sync"

	"golang.org/x/sync/errgroup"
)

type task func(ctx context.Context) error

// runAll starts every task on its own goroutine (at most limit at a time when
// limit > 0), waits for all of them and joins every error. Tasks are never
// cancelled because a sibling failed.
func runAll(ctx context.Context, limit int, tasks []task) error {
	switch len(tasks) {
	case 0:
		return nil
	case 1:
		return tasks[0](ctx)
	}

	var (
		g    errgroup.Group
		mu   sync.Mutex
		errs []error
	)
	if limit > 0 {
		g.SetLimit(limit)
	}
	for _, t := range tasks {
		g.Go(func() error {
			if err := t(ctx); err != nil {
				mu.Lock()
				errs = append(errs, err)
				mu.Unlock()
			}
			return nil
		})
	}
	_ = g.Wait()
	return errors.Join(errs...)
}
