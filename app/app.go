// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package app assembles the HTTP application from AppSettings: database,
// logging, event bus, translation, health probes and the middleware stack.
package app

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"net/http"
	"os"
	"sync"

	"github.com/ManuGH/reqkit/auth"
	"github.com/ManuGH/reqkit/config"
	"github.com/ManuGH/reqkit/eventbus"
	"github.com/ManuGH/reqkit/internal/health"
	xglog "github.com/ManuGH/reqkit/internal/log"
	"github.com/ManuGH/reqkit/internal/telemetry"
	"github.com/ManuGH/reqkit/internal/version"
	"github.com/ManuGH/reqkit/middleware"
	"github.com/ManuGH/reqkit/persistence"
	"github.com/ManuGH/reqkit/persistence/sqlite"
	"github.com/ManuGH/reqkit/translation"
	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
)

// Option customizes New.
type Option func(*options)

type options struct {
	routes    []func(chi.Router)
	registry  *eventbus.Registry
	logOutput io.Writer
	localeFS  fs.FS
}

// WithRoutes mounts application routes behind the middleware stack.
func WithRoutes(fn func(chi.Router)) Option {
	return func(o *options) { o.routes = append(o.routes, fn) }
}

// WithRegistry publishes through reg instead of eventbus.DefaultRegistry,
// which the package level eventbus.Emit and PublishEvents use.
func WithRegistry(reg *eventbus.Registry) Option {
	return func(o *options) { o.registry = reg }
}

// WithLogOutput replaces stdout as the primary log destination.
func WithLogOutput(w io.Writer) Option {
	return func(o *options) { o.logOutput = w }
}

// WithLocaleFS reads locale catalogs from fsys instead of the i18n.dir
// directory on disk.
func WithLocaleFS(fsys fs.FS) Option {
	return func(o *options) { o.localeFS = fsys }
}

// App is an assembled application.
type App struct {
	Settings config.AppSettings

	Registry *eventbus.Registry
	Bus      *eventbus.LocalBus
	Events   *middleware.EventBusMiddleware
	// Database is nil when database.path is empty.
	Database *persistence.Database
	// Translator is nil when i18n.dir is empty.
	Translator *translation.Translator
	Health     *health.Manager

	router  *chi.Mux
	appDB   *sql.DB
	logDB   *sql.DB
	tracing *telemetry.Provider
	logger  zerolog.Logger
	logOut  io.Writer

	closeOnce sync.Once
	closeErr  error
}

// New builds the application. Resources opened before a failure are
// released again.
func New(ctx context.Context, s config.AppSettings, opts ...Option) (*App, error) {
	if err := s.Validate(); err != nil {
		return nil, fmt.Errorf("app: %w", err)
	}
	o := options{logOutput: os.Stdout}
	for _, opt := range opts {
		opt(&o)
	}

	a := &App{Settings: s}
	if err := a.init(ctx, o); err != nil {
		_ = a.Close(context.WithoutCancel(ctx))
		return nil, err
	}

	a.logger.Info().
		Str("database", s.Database.Path).
		Bool("tracing", s.Tracing.Enabled).
		Int("buses", a.Registry.Len()).
		Int("locales", len(a.locales())).
		Msg("application assembled")
	return a, nil
}

func (a *App) init(ctx context.Context, o options) error {
	s := a.Settings
	if err := a.setupLogging(o.logOutput); err != nil {
		return err
	}
	a.logger = xglog.WithComponent("app")

	a.Registry = o.registry
	if a.Registry == nil {
		a.Registry = eventbus.DefaultRegistry()
	}

	if s.Tracing.ServiceVersion == "" {
		s.Tracing.ServiceVersion = version.Version
	}
	var err error
	if a.tracing, err = telemetry.NewProvider(ctx, s.Tracing, telemetry.WithAttributes(
		telemetry.AppAttributes(s.Database.Path != "", s.Events.PublishBelow)...,
	)); err != nil {
		return fmt.Errorf("app: tracing: %w", err)
	}

	if s.Database.Path != "" {
		if a.appDB, err = sqlite.Open(s.Database.Path, s.Database.SQLite); err != nil {
			return fmt.Errorf("app: %w", err)
		}
		a.Database = persistence.New(a.appDB)
	}

	a.Bus = eventbus.NewLocalBus(
		eventbus.WithPublishConcurrency(s.Events.Concurrency),
		eventbus.WithLogger(xglog.Derive(func(c zerolog.Context) zerolog.Context {
			return c.Str(xglog.FieldComponent, "eventbus").Str("bus", "app")
		})),
	)
	a.Events = middleware.EventBus(a.Registry,
		middleware.WithPublishBelow(s.Events.PublishBelow),
		middleware.WithBuses(a.Bus),
	)

	if s.I18n.Dir != "" || o.localeFS != nil {
		if a.Translator, err = loadTranslator(s.I18n, o.localeFS); err != nil {
			return err
		}
	}

	a.Health = health.NewManager(version.Version)
	a.Health.RegisterChecker(health.NewDatabaseChecker(a.appDB))
	a.Health.RegisterChecker(health.NewRegistryChecker(a.Registry))

	a.router = a.buildRouter(o.routes)
	return nil
}

func (a *App) setupLogging(primary io.Writer) error {
	s := a.Settings.Log
	if s.Format == xglog.FormatConsole {
		primary = xglog.ConsoleWriter(primary)
	}
	a.logOut = primary
	out := primary
	if s.Table != "" {
		db, err := sqlite.Open(s.Path, sqlite.DefaultConfig())
		if err != nil {
			return fmt.Errorf("app: log database: %w", err)
		}
		a.logDB = db
		w, err := xglog.NewDBWriter(db, s.Table, nil)
		if err != nil {
			return fmt.Errorf("app: %w", err)
		}
		// NewDBWriter has validated the table name
		if _, err := db.Exec("CREATE TABLE IF NOT EXISTS " + s.Table +
			" (time TEXT, level TEXT, message TEXT)"); err != nil {
			return fmt.Errorf("app: create log table: %w", err)
		}
		out = zerolog.MultiLevelWriter(primary, w)
	}
	xglog.Reconfigure(xglog.Config{Level: s.Level, Output: out, Version: version.Version})
	return nil
}

func loadTranslator(s config.I18nSettings, fsys fs.FS) (*translation.Translator, error) {
	dir := "."
	if fsys == nil {
		fsys = os.DirFS(s.Dir)
	}
	catalogs, err := translation.LoadFS(fsys, dir)
	if err != nil {
		return nil, fmt.Errorf("app: %w", err)
	}
	t, err := translation.New(catalogs, s.Locale)
	if err != nil {
		return nil, fmt.Errorf("app: %w", err)
	}
	return t, nil
}

func (a *App) buildRouter(routes []func(chi.Router)) *chi.Mux {
	s := a.Settings
	root := chi.NewRouter()
	root.Use(middleware.Recoverer)
	root.Get("/healthz", a.Health.ServeHealth)
	root.Get("/readyz", a.Health.ServeReady)
	root.Handle("/metrics", promhttp.Handler())

	stack := middleware.StackConfig{
		EnableCORS:           len(s.CORS.Origins) > 0,
		AllowedOrigins:       s.CORS.Origins,
		CORSAllowCredentials: s.CORS.Credentials,
		EnableMetrics:        true,
		EnableLogging:        true,
		EnableRateLimit:      s.RateLimit.Requests > 0,
		RateLimit: middleware.RateLimitConfig{
			RequestLimit: s.RateLimit.Requests,
			WindowSize:   s.RateLimit.Window,
		},
		Database: a.Database,
		Events:   a.Events,
	}
	if s.Tracing.Enabled {
		stack.TracingService = s.Tracing.ServiceName
	}
	if len(s.Auth.Tokens) > 0 {
		stack.Authenticate = auth.StaticTokens(s.Auth.Tokens)
	}

	root.Group(func(r chi.Router) {
		middleware.ApplyStack(r, stack)
		for _, fn := range routes {
			fn(r)
		}
	})
	return root
}

func (a *App) locales() []string {
	if a.Translator == nil {
		return nil
	}
	return a.Translator.Locales()
}

// Handler returns the root HTTP handler.
func (a *App) Handler() http.Handler { return a.router }

// Run serves until ctx is done and releases every resource afterwards.
func (a *App) Run(ctx context.Context) error {
	srv, err := NewServer(a.Settings.Server, a.router)
	if err != nil {
		return err
	}
	srv.RegisterShutdownHook("resources", a.Close)
	return srv.Start(ctx)
}

// Close unregisters the buses, flushes traces and closes the databases.
// Later calls return the first result.
func (a *App) Close(ctx context.Context) error {
	a.closeOnce.Do(func() { a.closeErr = a.close(ctx) })
	return a.closeErr
}

func (a *App) close(ctx context.Context) error {
	var errs []error
	if a.Events != nil {
		a.Events.Close()
	}
	if a.tracing != nil {
		if err := a.tracing.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("tracing: %w", err))
		}
	}
	if a.appDB != nil {
		if err := a.appDB.Close(); err != nil {
			errs = append(errs, fmt.Errorf("database: %w", err))
		}
	}
	if a.logDB != nil {
		// route logs back to the primary writer before the table goes away
		xglog.Reconfigure(xglog.Config{Level: a.Settings.Log.Level, Output: a.logOut, Version: version.Version})
		if err := a.logDB.Close(); err != nil {
			errs = append(errs, fmt.Errorf("log database: %w", err))
		}
	}
	return errors.Join(errs...)
}
