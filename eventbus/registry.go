// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package eventbus

import (
	"sync"

	xglog "github.com/ManuGH/reqkit/internal/log"
	"github.com/rs/zerolog"
)

// Registry is the set of buses that receive every emitted event. It is
// written at startup and teardown and read on every request.
// Registered Bus values must be comparable (pointers in practice).
type Registry struct {
	mu     sync.RWMutex
	buses  []Bus
	logger zerolog.Logger
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{logger: xglog.WithComponent("eventbus")}
}

var defaultRegistry = NewRegistry()

// DefaultRegistry returns the process-wide registry used by the package
// level Emit and PublishEvents.
func DefaultRegistry() *Registry {
	return defaultRegistry
}

// Register adds buses, skipping nils and buses already present.
func (r *Registry) Register(buses ...Bus) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, b := range buses {
		if b == nil || r.indexLocked(b) >= 0 {
			continue
		}
		r.buses = append(r.buses, b)
	}
	r.logger.Debug().Int(xglog.FieldBusCount, len(r.buses)).Msg("event buses registered")
}

// Unregister removes b if present.
func (r *Registry) Unregister(b Bus) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if i := r.indexLocked(b); i >= 0 {
		r.buses = append(r.buses[:i:i], r.buses[i+1:]...)
	}
}

// Clear removes every bus.
func (r *Registry) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.buses = nil
}

// Buses returns the registered buses in registration order.
func (r *Registry) Buses() []Bus {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]Bus(nil), r.buses...)
}

// Len returns the number of registered buses.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.buses)
}

func (r *Registry) indexLocked(b Bus) int {
	for i, have := range r.buses {
		if have == b {
			return i
		}
	}
	return -1
}
