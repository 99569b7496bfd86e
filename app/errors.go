// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package app

import "errors"

var (
	// ErrMissingHandler is returned when a server is built without a handler.
	ErrMissingHandler = errors.New("handler is required")

	// ErrServerStarted is returned by a second Start.
	ErrServerStarted = errors.New("server already started")

	// ErrServerNotStarted is returned when shutting down a server that never started.
	ErrServerNotStarted = errors.New("server not started")
)
