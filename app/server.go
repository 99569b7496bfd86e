// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package app

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/ManuGH/reqkit/config"
	xglog "github.com/ManuGH/reqkit/internal/log"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

// ShutdownHook releases a resource during graceful shutdown.
// Hooks run in reverse registration order.
type ShutdownHook func(ctx context.Context) error

type namedHook struct {
	name string
	hook ShutdownHook
}

// Server runs one http.Server until its context is done, then shuts it down
// and runs the shutdown hooks.
type Server struct {
	cfg     config.ServerSettings
	handler http.Handler
	logger  zerolog.Logger

	mu       sync.Mutex
	srv      *http.Server
	listener net.Listener
	hooks    []namedHook
	started  bool
	stopping bool
	ready    chan struct{}
}

// NewServer returns a server for handler.
func NewServer(cfg config.ServerSettings, handler http.Handler) (*Server, error) {
	if handler == nil {
		return nil, ErrMissingHandler
	}
	if cfg.ShutdownTimeout <= 0 {
		cfg.ShutdownTimeout = 10 * time.Second
	}
	return &Server{
		cfg:     cfg,
		handler: handler,
		logger:  xglog.WithComponent("server"),
		ready:   make(chan struct{}),
	}, nil
}

// RegisterShutdownHook adds a hook run by Shutdown.
func (s *Server) RegisterShutdownHook(name string, hook ShutdownHook) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.hooks = append(s.hooks, namedHook{name: name, hook: hook})
	s.logger.Debug().Str("hook", name).Msg("registered shutdown hook")
}

// Ready is closed once the listener is bound.
func (s *Server) Ready() <-chan struct{} { return s.ready }

// Addr returns the bound address, or nil before Ready.
func (s *Server) Addr() net.Addr {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener == nil {
		return nil
	}
	return s.listener.Addr()
}

// Start serves until ctx is done or the server fails, then shuts down.
// A clean shutdown returns nil.
func (s *Server) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.started {
		s.mu.Unlock()
		return ErrServerStarted
	}
	ln, err := net.Listen("tcp", s.cfg.Addr)
	if err != nil {
		s.mu.Unlock()
		return fmt.Errorf("listen %s: %w", s.cfg.Addr, err)
	}
	s.started = true
	s.listener = ln
	s.srv = &http.Server{
		Handler:           s.handler,
		ReadTimeout:       s.cfg.ReadTimeout,
		ReadHeaderTimeout: s.cfg.ReadTimeout / 2,
		WriteTimeout:      s.cfg.WriteTimeout,
	}
	srv := s.srv
	s.mu.Unlock()
	close(s.ready)

	s.logger.Info().
		Str("addr", ln.Addr().String()).
		Dur("read_timeout", s.cfg.ReadTimeout).
		Dur("write_timeout", s.cfg.WriteTimeout).
		Dur("shutdown_timeout", s.cfg.ShutdownTimeout).
		Msg("HTTP server listening")

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	g, gctx := errgroup.WithContext(runCtx)
	g.Go(func() error {
		defer cancel()
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error().Err(err).Str("event", "server.failed").Msg("HTTP server failed")
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		// detached from ctx so shutdown can finish after cancellation
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.cfg.ShutdownTimeout)
		defer cancel()
		return s.Shutdown(shutdownCtx)
	})
	return g.Wait()
}

// Shutdown stops accepting requests, waits for in-flight ones and runs the
// shutdown hooks. Later calls are no-ops.
func (s *Server) Shutdown(ctx context.Context) error {
	s.mu.Lock()
	if s.stopping {
		s.mu.Unlock()
		return nil
	}
	if !s.started {
		s.mu.Unlock()
		return ErrServerNotStarted
	}
	s.stopping = true
	hooks := append([]namedHook(nil), s.hooks...)
	srv := s.srv
	s.mu.Unlock()

	s.logger.Info().Msg("shutting down HTTP server")

	var errs []error
	if err := srv.Shutdown(ctx); err != nil {
		errs = append(errs, fmt.Errorf("http server shutdown: %w", err))
	}

	for i := len(hooks) - 1; i >= 0; i-- {
		h := hooks[i]
		start := time.Now()
		if err := h.hook(ctx); err != nil {
			s.logger.Error().
				Err(err).
				Str("hook", h.name).
				Dur("duration", time.Since(start)).
				Msg("shutdown hook failed")
			errs = append(errs, fmt.Errorf("hook %s: %w", h.name, err))
			continue
		}
		s.logger.Debug().
			Str("hook", h.name).
			Dur("duration", time.Since(start)).
			Msg("shutdown hook completed")
	}

	if len(errs) > 0 {
		return fmt.Errorf("shutdown errors: %w", errors.Join(errs...))
	}
	s.logger.Info().Msg("HTTP server stopped cleanly")
	return nil
}
