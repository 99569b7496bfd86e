// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package health serves liveness and readiness probes with per-component
// status for the database and the event bus registry.
package health

import (
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/ManuGH/reqkit/eventbus"
	"github.com/ManuGH/reqkit/internal/log"
	"github.com/ManuGH/reqkit/persistence/sqlite"
	"golang.org/x/sync/errgroup"
)

// Status is the health of one component or of the whole process.
type Status string

const (
	StatusHealthy   Status = "healthy"
	StatusDegraded  Status = "degraded"
	StatusUnhealthy Status = "unhealthy"
)

// CheckResult is the outcome of one component check.
type CheckResult struct {
	Status  Status `json:"status"`
	Message string `json:"message,omitempty"`
	Error   string `json:"error,omitempty"`
}

// Response is the body of both probes.
type Response struct {
	Status    Status                 `json:"status"`
	Ready     bool                   `json:"ready"`
	Version   string                 `json:"version,omitempty"`
	Timestamp time.Time              `json:"timestamp"`
	Checks    map[string]CheckResult `json:"checks,omitempty"`
}

// Checker checks one component.
type Checker interface {
	Name() string
	Check(ctx context.Context) CheckResult
}

// Manager runs registered checkers.
type Manager struct {
	version string
	timeout time.Duration

	mu       sync.RWMutex
	checkers []Checker
}

// NewManager returns a manager reporting version.
func NewManager(version string) *Manager {
	return &Manager{version: version, timeout: 2 * time.Second}
}

// RegisterChecker adds c. Nil checkers are ignored.
func (m *Manager) RegisterChecker(c Checker) {
	if c == nil {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.checkers = append(m.checkers, c)
}

// Health is the liveness view. Components are only checked when verbose
// is set; the process itself is always reported alive.
func (m *Manager) Health(ctx context.Context, verbose bool) Response {
	resp := Response{Status: StatusHealthy, Ready: true, Version: m.version, Timestamp: time.Now()}
	if !verbose {
		return resp
	}
	resp.Checks = m.runChecks(ctx)
	resp.Status = overall(resp.Checks)
	return resp
}

// Ready is the readiness view. Any unhealthy component makes the process
// not ready; degraded components do not.
func (m *Manager) Ready(ctx context.Context) Response {
	resp := Response{Version: m.version, Timestamp: time.Now()}
	resp.Checks = m.runChecks(ctx)
	resp.Status = overall(resp.Checks)
	resp.Ready = resp.Status != StatusUnhealthy
	return resp
}

func (m *Manager) runChecks(ctx context.Context) map[string]CheckResult {
	m.mu.RLock()
	checkers := append([]Checker(nil), m.checkers...)
	m.mu.RUnlock()
	if len(checkers) == 0 {
		return nil
	}

	ctx, cancel := context.WithTimeout(ctx, m.timeout)
	defer cancel()

	results := make([]CheckResult, len(checkers))
	var g errgroup.Group
	for i, c := range checkers {
		g.Go(func() error {
			results[i] = c.Check(ctx)
			return nil
		})
	}
	_ = g.Wait()

	out := make(map[string]CheckResult, len(checkers))
	for i, c := range checkers {
		out[c.Name()] = results[i]
	}
	return out
}

func overall(checks map[string]CheckResult) Status {
	status := StatusHealthy
	for _, r := range checks {
		switch r.Status {
		case StatusUnhealthy:
			return StatusUnhealthy
		case StatusDegraded:
			status = StatusDegraded
		}
	}
	return status
}

// ServeHealth handles the liveness probe. It always answers 200.
func (m *Manager) ServeHealth(w http.ResponseWriter, r *http.Request) {
	verbose := r.URL.Query().Get("verbose") == "true"
	m.write(w, r, "health", http.StatusOK, m.Health(r.Context(), verbose))
}

// ServeReady handles the readiness probe: 200 when ready, 503 otherwise.
func (m *Manager) ServeReady(w http.ResponseWriter, r *http.Request) {
	resp := m.Ready(r.Context())
	status := http.StatusOK
	if !resp.Ready {
		status = http.StatusServiceUnavailable
	}
	m.write(w, r, "readiness", status, resp)
}

func (m *Manager) write(w http.ResponseWriter, r *http.Request, probe string, status int, resp Response) {
	logger := log.WithComponentFromContext(r.Context(), probe)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		logger.Error().Err(err).Str("event", probe+".encode_error").Msg("failed to encode probe response")
		return
	}
	logger.Debug().
		Str("event", probe+".checked").
		Str("status", string(resp.Status)).
		Bool("ready", resp.Ready).
		Msg("probe answered")
}

// DatabaseChecker pings the application database and runs a quick
// integrity check on it.
type DatabaseChecker struct {
	db *sql.DB
}

// NewDatabaseChecker returns a checker for db. A nil db reports healthy
// as "not configured".
func NewDatabaseChecker(db *sql.DB) *DatabaseChecker {
	return &DatabaseChecker{db: db}
}

func (c *DatabaseChecker) Name() string { return "database" }

func (c *DatabaseChecker) Check(ctx context.Context) CheckResult {
	if c.db == nil {
		return CheckResult{Status: StatusHealthy, Message: "not configured (optional)"}
	}
	if err := c.db.PingContext(ctx); err != nil {
		return CheckResult{Status: StatusUnhealthy, Error: err.Error(), Message: "ping failed"}
	}
	problems, err := sqlite.Check(ctx, c.db, sqlite.QuickCheck)
	if err != nil {
		return CheckResult{Status: StatusDegraded, Error: err.Error(), Message: "integrity check failed"}
	}
	if len(problems) > 0 {
		return CheckResult{Status: StatusDegraded, Error: strings.Join(problems, "; "), Message: "integrity problems"}
	}
	return CheckResult{Status: StatusHealthy, Message: "reachable"}
}

// RegistryChecker reports a registry without buses as degraded: emitted
// events would only be queued and never handled.
type RegistryChecker struct {
	reg *eventbus.Registry
}

// NewRegistryChecker returns a checker for reg.
func NewRegistryChecker(reg *eventbus.Registry) *RegistryChecker {
	return &RegistryChecker{reg: reg}
}

func (c *RegistryChecker) Name() string { return "eventbus" }

func (c *RegistryChecker) Check(context.Context) CheckResult {
	if c.reg == nil || c.reg.Len() == 0 {
		return CheckResult{Status: StatusDegraded, Message: "no event bus registered"}
	}
	return CheckResult{Status: StatusHealthy, Message: "buses registered"}
}
