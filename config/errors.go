// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package config

import "errors"

var (
	// ErrConfigNotFound is returned by every accessor before Load succeeded.
	ErrConfigNotFound = errors.New("configuration not found, call Load before accessing or overriding it")

	// ErrKeyNotFound is returned when a key is neither in the tree nor in
	// the environment.
	ErrKeyNotFound = errors.New("config key not found")

	// ErrUnknownConfigField classifies strict decode failures caused by
	// unknown keys. Use errors.Is instead of string matching.
	ErrUnknownConfigField = errors.New("unknown config field")

	// ErrTestDirNotSet is returned when loading test overrides without a
	// test directory.
	ErrTestDirNotSet = errors.New("test config requested but no test directory configured")
)
