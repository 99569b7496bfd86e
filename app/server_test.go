// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package app

import (
	"context"
	"errors"
	"io"
	"net/http"
	"testing"
	"time"

	"github.com/ManuGH/reqkit/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testServerSettings() config.ServerSettings {
	return config.ServerSettings{
		Addr:            "127.0.0.1:0",
		ReadTimeout:     time.Second,
		WriteTimeout:    time.Second,
		ShutdownTimeout: time.Second,
	}
}

func TestNewServerRequiresHandler(t *testing.T) {
	_, err := NewServer(testServerSettings(), nil)
	assert.ErrorIs(t, err, ErrMissingHandler)
}

func TestServerServesUntilCanceled(t *testing.T) {
	srv, err := NewServer(testServerSettings(), http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = io.WriteString(w, "pong")
	}))
	require.NoError(t, err)

	var order []string
	srv.RegisterShutdownHook("first", func(context.Context) error {
		order = append(order, "first")
		return nil
	})
	srv.RegisterShutdownHook("second", func(context.Context) error {
		order = append(order, "second")
		return nil
	})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- srv.Start(ctx) }()

	select {
	case <-srv.Ready():
	case <-time.After(5 * time.Second):
		t.Fatal("server did not start")
	}

	resp, err := http.Get("http://" + srv.Addr().String())
	require.NoError(t, err)
	body, _ := io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	assert.Equal(t, "pong", string(body))

	assert.ErrorIs(t, srv.Start(ctx), ErrServerStarted)

	cancel()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not stop")
	}
	assert.Equal(t, []string{"second", "first"}, order)
	assert.NoError(t, srv.Shutdown(context.Background()), "repeated shutdown is a no-op")
}

func TestServerHookErrorsAreJoined(t *testing.T) {
	srv, err := NewServer(testServerSettings(), http.NotFoundHandler())
	require.NoError(t, err)
	boom := errors.New("boom")
	srv.RegisterShutdownHook("broken", func(context.Context) error { return boom })

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err = srv.Start(ctx)
	assert.ErrorIs(t, err, boom)
}

func TestServerShutdownBeforeStart(t *testing.T) {
	srv, err := NewServer(testServerSettings(), http.NotFoundHandler())
	require.NoError(t, err)
	assert.ErrorIs(t, srv.Shutdown(context.Background()), ErrServerNotStarted)
}

func TestServerListenFailure(t *testing.T) {
	cfg := testServerSettings()
	cfg.Addr = "256.0.0.1:bad"
	srv, err := NewServer(cfg, http.NotFoundHandler())
	require.NoError(t, err)
	assert.Error(t, srv.Start(context.Background()))
}
