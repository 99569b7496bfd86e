// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/ManuGH/reqkit/auth"
	xglog "github.com/ManuGH/reqkit/internal/log"
	"github.com/ManuGH/reqkit/internal/telemetry"
	"github.com/ManuGH/reqkit/persistence/sqlite"
)

// AppSettings is the typed view of the configuration the server runs with.
// It is decoded from the "app" section of the tree.
type AppSettings struct {
	Server    ServerSettings    `yaml:"server"`
	Database  DatabaseSettings  `yaml:"database"`
	Log       LogSettings       `yaml:"log"`
	CORS      CORSSettings      `yaml:"cors"`
	RateLimit RateLimitSettings `yaml:"rate_limit"`
	Events    EventSettings     `yaml:"events"`
	Auth      AuthSettings      `yaml:"auth"`
	I18n      I18nSettings      `yaml:"i18n"`
	Tracing   telemetry.Config  `yaml:"tracing"`
}

// ServerSettings configures the HTTP listener.
type ServerSettings struct {
	Addr            string        `yaml:"addr"`
	ReadTimeout     time.Duration `yaml:"read_timeout"`
	WriteTimeout    time.Duration `yaml:"write_timeout"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

// DatabaseSettings selects the application database.
type DatabaseSettings struct {
	// Path of the SQLite file; ":memory:" for a private in-memory database.
	// Empty disables the database layer.
	Path   string        `yaml:"path"`
	SQLite sqlite.Config `yaml:"sqlite"`
}

type LogSettings struct {
	Level string `yaml:"level"`
	// Format is "json" (default) or "console" for colored development output.
	Format string `yaml:"format"`
	// Table, when set, also writes every log line into that table of the
	// SQLite file at Path. Log rows never share the application database,
	// so request transactions cannot block logging.
	Table string `yaml:"table"`
	Path  string `yaml:"path"`
}

type CORSSettings struct {
	Origins     []string `yaml:"origins"`
	Credentials bool     `yaml:"credentials"`
}

type RateLimitSettings struct {
	Requests int           `yaml:"requests"`
	Window   time.Duration `yaml:"window"`
}

// EventSettings tunes request-scoped event publishing.
type EventSettings struct {
	// PublishBelow is the exclusive status bound for publishing queued
	// events at the end of a request.
	PublishBelow int `yaml:"publish_below"`
	// Concurrency bounds the deferred listeners running at once per bus.
	Concurrency int `yaml:"concurrency"`
}

type AuthSettings struct {
	Tokens []auth.TokenConfig `yaml:"tokens"`
}

type I18nSettings struct {
	Dir    string `yaml:"dir"`
	Locale string `yaml:"locale"`
}

// DefaultAppSettings returns the settings used for keys the files omit.
func DefaultAppSettings() AppSettings {
	return AppSettings{
		Server: ServerSettings{
			Addr:            ":8080",
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    30 * time.Second,
			ShutdownTimeout: 10 * time.Second,
		},
		Database: DatabaseSettings{SQLite: sqlite.DefaultConfig()},
		Log:      LogSettings{Level: "info"},
		Events:   EventSettings{PublishBelow: 400},
		I18n:     I18nSettings{Locale: "en_US"},
		Tracing:  telemetry.Config{ServiceName: "reqkit", ExporterType: "grpc", SamplingRate: 1},
	}
}

// Validate reports settings the server cannot start with.
func (s AppSettings) Validate() error {
	var errs []error
	if s.Server.Addr == "" {
		errs = append(errs, errors.New("server.addr is required"))
	}
	if s.Events.PublishBelow < 100 || s.Events.PublishBelow > 600 {
		errs = append(errs, fmt.Errorf("events.publish_below %d is not an HTTP status", s.Events.PublishBelow))
	}
	if s.RateLimit.Requests < 0 {
		errs = append(errs, errors.New("rate_limit.requests must not be negative"))
	}
	switch s.Log.Format {
	case "", xglog.FormatJSON, xglog.FormatConsole:
	default:
		errs = append(errs, fmt.Errorf("log.format %q is not json or console", s.Log.Format))
	}
	if s.Log.Table != "" && (s.Log.Path == "" || s.Log.Path == sqlite.Memory) {
		errs = append(errs, errors.New("log.table needs a log.path file"))
	}
	return errors.Join(errs...)
}

// LoadAppSettings decodes the "app" section over the defaults and validates
// the result. A tree without an "app" section yields the defaults.
func LoadAppSettings(c *Configuration) (AppSettings, error) {
	s := DefaultAppSettings()
	if _, err := c.Get("app"); err != nil {
		if errors.Is(err, ErrKeyNotFound) {
			return s, s.Validate()
		}
		return s, err
	}
	if err := c.Decode("app", &s); err != nil {
		return s, err
	}
	if err := s.Validate(); err != nil {
		return s, fmt.Errorf("config: invalid app settings: %w", err)
	}
	return s, nil
}
