// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package config

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// reloadDebounce collapses bursts of file events into one reload.
var reloadDebounce = 500 * time.Millisecond

// OnReload registers fn to run after every successful Reload.
func (c *Configuration) OnReload(fn func()) {
	c.listenersMu.Lock()
	defer c.listenersMu.Unlock()
	c.listeners = append(c.listeners, fn)
}

func (c *Configuration) notifyListeners() {
	c.listenersMu.RLock()
	listeners := append([]func(){}, c.listeners...)
	c.listenersMu.RUnlock()
	for _, fn := range listeners {
		fn()
	}
}

// Watch reloads the configuration whenever a file of a loaded layer
// changes, until ctx is done. A failed reload keeps the previous tree.
func (c *Configuration) Watch(ctx context.Context) error {
	c.mu.RLock()
	loaded, opts := c.loaded, c.loadOpts
	c.mu.RUnlock()
	if !loaded {
		return ErrConfigNotFound
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("config: create watcher: %w", err)
	}
	dirs := []string{c.dir}
	if opts.Env != "" {
		dirs = append(dirs, filepath.Join(c.dir, opts.Env))
	}
	if opts.UseTestConfig {
		dirs = append(dirs, c.testDir)
	}
	for i, dir := range dirs {
		if err := watcher.Add(dir); err != nil {
			if i == 0 {
				_ = watcher.Close()
				return fmt.Errorf("config: watch %s: %w", dir, err)
			}
			c.logger.Debug().Err(err).Str("dir", dir).Msg("not watching config layer")
		}
	}

	c.logger.Info().
		Str("event", "config.watcher_started").
		Strs("dirs", dirs).
		Msg("watching configuration for changes")

	go c.watchLoop(ctx, watcher)
	return nil
}

func (c *Configuration) watchLoop(ctx context.Context, watcher *fsnotify.Watcher) {
	var debounce *time.Timer
	defer func() {
		if debounce != nil {
			debounce.Stop()
		}
		_ = watcher.Close()
	}()

	for {
		select {
		case <-ctx.Done():
			c.logger.Info().Str("event", "config.watcher_stopped").Msg("config watcher stopped")
			return

		case event, ok := <-watcher.Events:
			if !ok {
				return
			}
			ext := filepath.Ext(event.Name)
			if ext != ".yaml" && ext != ".yml" && filepath.Base(event.Name) != filepath.Base(c.envFile) {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) &&
				!event.Has(fsnotify.Remove) && !event.Has(fsnotify.Rename) {
				continue
			}
			c.logger.Debug().
				Str("event", "config.file_changed").
				Str("file", event.Name).
				Str("op", event.Op.String()).
				Msg("config file changed")

			if debounce != nil {
				debounce.Stop()
			}
			debounce = time.AfterFunc(reloadDebounce, func() {
				if ctx.Err() != nil {
					return
				}
				if err := c.Reload(); err != nil {
					c.logger.Error().
						Err(err).
						Str("event", "config.auto_reload_failed").
						Msg("automatic config reload failed")
					return
				}
				c.logger.Info().Str("event", "config.reload_success").Msg("configuration reloaded")
			})

		case err, ok := <-watcher.Errors:
			if !ok {
				return
			}
			c.logger.Error().Err(err).Str("event", "config.watcher_error").Msg("config watcher error")
		}
	}
}
