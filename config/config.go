// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package config loads a directory of YAML files into one tree.
//
// Every *.yaml and *.yml file of the directory is read in lexical order and
// deep merged. ${VAR} references are expanded from the environment, which a
// .env file may extend. An environment name merges the files of the matching
// subdirectory on top, and test runs can merge a test directory last. Keys
// are dotted paths ("database.path"); a key missing from the tree falls back
// to the environment variable of the same name.
package config

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"

	xglog "github.com/ManuGH/reqkit/internal/log"
	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"
)

// Option configures a Configuration.
type Option func(*Configuration)

// WithEnvFile loads a .env file before reading the YAML files.
func WithEnvFile(path string) Option {
	return func(c *Configuration) { c.envFile = path }
}

// WithTestDir sets the directory merged when LoadOptions.UseTestConfig is set.
func WithTestDir(dir string) Option {
	return func(c *Configuration) { c.testDir = dir }
}

// LoadOptions selects the layers merged on top of the base directory.
type LoadOptions struct {
	// Env names a subdirectory of the config directory merged after the
	// base files, e.g. "production".
	Env string
	// UseTestConfig merges the test directory last.
	UseTestConfig bool
}

// Configuration is a loaded configuration tree. It is safe for concurrent
// use.
type Configuration struct {
	dir     string
	envFile string
	testDir string
	logger  zerolog.Logger

	mu       sync.RWMutex
	tree     map[string]any
	loaded   bool
	loadOpts LoadOptions

	listenersMu sync.RWMutex
	listeners   []func()
}

// New returns an unloaded configuration for dir.
func New(dir string, opts ...Option) *Configuration {
	c := &Configuration{dir: dir, logger: xglog.WithComponent("config")}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Dir returns the base directory.
func (c *Configuration) Dir() string { return c.dir }

// Load reads all layers and replaces the current tree. On error the
// previous tree, if any, is kept.
func (c *Configuration) Load(opts LoadOptions) error {
	if err := loadEnvFile(c.envFile); err != nil {
		return fmt.Errorf("config: load env file: %w", err)
	}

	tree, err := readDir(c.dir)
	if err != nil {
		return err
	}

	if opts.Env != "" {
		envDir := filepath.Join(c.dir, opts.Env)
		if info, err := os.Stat(envDir); err != nil || !info.IsDir() {
			c.logger.Warn().
				Str(xglog.FieldConfigDir, envDir).
				Str(xglog.FieldConfigEnv, opts.Env).
				Msgf("No directory %s found for environment %q", envDir, opts.Env)
		} else {
			layer, err := readDir(envDir)
			if err != nil {
				return err
			}
			tree = deepMerge(tree, layer)
		}
	}

	if opts.UseTestConfig {
		if c.testDir == "" {
			return ErrTestDirNotSet
		}
		layer, err := readDir(c.testDir)
		if err != nil {
			return err
		}
		tree = deepMerge(tree, layer)
	}

	expandEnv(tree, c.logger)

	c.mu.Lock()
	c.tree = tree
	c.loaded = true
	c.loadOpts = opts
	c.mu.Unlock()

	c.logger.Debug().
		Str(xglog.FieldConfigDir, c.dir).
		Str(xglog.FieldConfigEnv, opts.Env).
		Int("keys", len(tree)).
		Msg("configuration loaded")
	return nil
}

// Reload repeats the last Load and notifies OnReload listeners on success.
func (c *Configuration) Reload() error {
	c.mu.RLock()
	loaded, opts := c.loaded, c.loadOpts
	c.mu.RUnlock()
	if !loaded {
		return ErrConfigNotFound
	}
	if err := c.Load(opts); err != nil {
		return err
	}
	c.notifyListeners()
	return nil
}

func readDir(dir string) (map[string]any, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("config: read dir: %w", err)
	}
	var names []string
	for _, e := range entries {
		ext := filepath.Ext(e.Name())
		if !e.IsDir() && (ext == ".yaml" || ext == ".yml") {
			names = append(names, e.Name())
		}
	}
	slices.Sort(names)

	tree := map[string]any{}
	for _, name := range names {
		data, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			return nil, fmt.Errorf("config: read %s: %w", name, err)
		}
		var doc map[string]any
		if err := yaml.Unmarshal(data, &doc); err != nil {
			return nil, fmt.Errorf("config: parse %s: %w", name, err)
		}
		tree = deepMerge(tree, doc)
	}
	return tree, nil
}

func splitKey(key string) []string {
	return strings.Split(key, ".")
}

// lookupLocked walks the dotted key through the tree.
func (c *Configuration) lookupLocked(key string) (any, bool) {
	var cur any = c.tree
	for _, part := range splitKey(key) {
		m, ok := cur.(map[string]any)
		if !ok {
			return nil, false
		}
		if cur, ok = m[part]; !ok {
			return nil, false
		}
	}
	return cur, true
}

// Get returns the value at key. A key missing from the tree is looked up as
// an environment variable of the same name.
func (c *Configuration) Get(key string) (any, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if !c.loaded {
		return nil, ErrConfigNotFound
	}
	if v, ok := c.lookupLocked(key); ok {
		return deepCopyValue(v), nil
	}
	if v, ok := os.LookupEnv(key); ok {
		return v, nil
	}
	return nil, fmt.Errorf("config: %q: %w", key, ErrKeyNotFound)
}

// GetOr is Get with a default for a missing key. It still returns def
// before Load.
func (c *Configuration) GetOr(key string, def any) any {
	v, err := c.Get(key)
	if err != nil {
		return def
	}
	return v
}

// Set stores value at key, creating intermediate maps. A non-map value on
// the path is replaced.
func (c *Configuration) Set(key string, value any) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.loaded {
		return ErrConfigNotFound
	}
	parts := splitKey(key)
	m := c.tree
	for _, part := range parts[:len(parts)-1] {
		next, ok := m[part].(map[string]any)
		if !ok {
			next = map[string]any{}
			m[part] = next
		}
		m = next
	}
	m[parts[len(parts)-1]] = deepCopyValue(value)
	return nil
}

// All returns a copy of the whole tree.
func (c *Configuration) All() (map[string]any, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if !c.loaded {
		return nil, ErrConfigNotFound
	}
	return deepCopy(c.tree), nil
}

// Sub returns a copy of the map at key.
func (c *Configuration) Sub(key string) (map[string]any, error) {
	v, err := c.Get(key)
	if err != nil {
		return nil, err
	}
	m, ok := v.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("config: %q is %T, not a map", key, v)
	}
	return m, nil
}

// Decode strictly decodes the subtree at key into out; an empty key decodes
// the whole tree. Keys without a matching field fail with
// ErrUnknownConfigField.
func (c *Configuration) Decode(key string, out any) error {
	var (
		v   any
		err error
	)
	if key == "" {
		v, err = c.All()
	} else {
		v, err = c.Get(key)
	}
	if err != nil {
		return err
	}
	data, err := yaml.Marshal(v)
	if err != nil {
		return fmt.Errorf("config: encode %q: %w", key, err)
	}
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(out); err != nil {
		if strings.Contains(err.Error(), "not found in type") {
			return fmt.Errorf("config: decode %q: %w: %v", key, ErrUnknownConfigField, err)
		}
		return fmt.Errorf("config: decode %q: %w", key, err)
	}
	return nil
}
