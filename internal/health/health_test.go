// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package health

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/ManuGH/reqkit/eventbus"
	"github.com/ManuGH/reqkit/persistence/dbtest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockChecker struct {
	name   string
	status Status
}

func (m *mockChecker) Name() string { return m.name }

func (m *mockChecker) Check(context.Context) CheckResult {
	return CheckResult{Status: m.status}
}

func TestHealthWithoutCheckers(t *testing.T) {
	m := NewManager("v1.0.0")

	resp := m.Health(context.Background(), true)
	assert.Equal(t, StatusHealthy, resp.Status)
	assert.Equal(t, "v1.0.0", resp.Version)
	assert.Nil(t, resp.Checks)
}

func TestHealthVerbose(t *testing.T) {
	m := NewManager("v1.0.0")
	m.RegisterChecker(&mockChecker{name: "healthy", status: StatusHealthy})
	m.RegisterChecker(&mockChecker{name: "degraded", status: StatusDegraded})
	m.RegisterChecker(nil)

	resp := m.Health(context.Background(), false)
	assert.Equal(t, StatusHealthy, resp.Status)
	assert.Nil(t, resp.Checks)

	resp = m.Health(context.Background(), true)
	assert.Equal(t, StatusDegraded, resp.Status)
	require.Len(t, resp.Checks, 2)
	assert.Equal(t, StatusDegraded, resp.Checks["degraded"].Status)
}

func TestReady(t *testing.T) {
	tests := []struct {
		name   string
		status Status
		ready  bool
	}{
		{"healthy", StatusHealthy, true},
		{"degraded", StatusDegraded, true},
		{"unhealthy", StatusUnhealthy, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := NewManager("")
			m.RegisterChecker(&mockChecker{name: "ok", status: StatusHealthy})
			m.RegisterChecker(&mockChecker{name: tt.name, status: tt.status})

			resp := m.Ready(context.Background())
			assert.Equal(t, tt.ready, resp.Ready)
			assert.Equal(t, tt.status, resp.Status)
		})
	}
}

func TestServeHealthAlwaysOK(t *testing.T) {
	m := NewManager("v1")
	m.RegisterChecker(&mockChecker{name: "db", status: StatusUnhealthy})

	rec := httptest.NewRecorder()
	m.ServeHealth(rec, httptest.NewRequest(http.MethodGet, "/healthz?verbose=true", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	var resp Response
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, StatusUnhealthy, resp.Status)
	assert.Equal(t, StatusUnhealthy, resp.Checks["db"].Status)
}

func TestServeReadyUnavailable(t *testing.T) {
	m := NewManager("v1")
	m.RegisterChecker(&mockChecker{name: "db", status: StatusUnhealthy})

	rec := httptest.NewRecorder()
	m.ServeReady(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestDatabaseChecker(t *testing.T) {
	assert.Equal(t, StatusHealthy, NewDatabaseChecker(nil).Check(context.Background()).Status)

	db := dbtest.Open(t).DB()
	c := NewDatabaseChecker(db)
	assert.Equal(t, "database", c.Name())
	assert.Equal(t, StatusHealthy, c.Check(context.Background()).Status)

	require.NoError(t, db.Close())
	res := c.Check(context.Background())
	assert.Equal(t, StatusUnhealthy, res.Status)
	assert.NotEmpty(t, res.Error)
}

func TestRegistryChecker(t *testing.T) {
	reg := eventbus.NewRegistry()
	c := NewRegistryChecker(reg)
	assert.Equal(t, StatusDegraded, c.Check(context.Background()).Status)

	reg.Register(eventbus.NewLocalBus())
	assert.Equal(t, StatusHealthy, c.Check(context.Background()).Status)
}
