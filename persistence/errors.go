// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package persistence

import "errors"

var (
	// ErrNoSession is returned when the context carries no session.
	ErrNoSession = errors.New("no database session in context")

	// ErrSessionExists is returned when opening a session inside another one.
	ErrSessionExists = errors.New("database session already open in context")

	// ErrSessionClosed is returned when using a released session.
	ErrSessionClosed = errors.New("database session already released")

	// ErrNotFound is the default error for a missing primary key.
	ErrNotFound = errors.New("record not found")

	// ErrUnknownColumn is returned for filters on columns the table does not declare.
	ErrUnknownColumn = errors.New("unknown column")
)
