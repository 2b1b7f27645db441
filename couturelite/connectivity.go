// Copyright 2025 KisCouture
// SPDX-License-Identifier: Apache-2.0

package couturelite

import (
	"context"
	"log/slog"
	"sync/atomic"
	"time"
)

// Connectivity exposes the current online/offline state and a notification
// channel that receives one event per offline-to-online transition.
type Connectivity interface {
	Online() bool
	Transitions() <-chan struct{}
}

// Monitor derives connectivity from a periodic probe against the remote
// health endpoint. State flips as probes succeed or fail; each recovery
// emits a transition event that the scheduler uses to trigger a sync.
type Monitor struct {
	probe       func(ctx context.Context) error
	interval    time.Duration
	online      atomic.Bool
	transitions chan struct{}
	logger      *slog.Logger
}

// NewMonitor creates a connectivity monitor. The probe is typically
// RemoteAPI.Health. The monitor starts in the offline state until the first
// probe succeeds.
func NewMonitor(probe func(ctx context.Context) error, interval time.Duration, logger *slog.Logger) *Monitor {
	if logger == nil {
		logger = slog.Default()
	}
	if interval <= 0 {
		interval = 30 * time.Second
	}
	return &Monitor{
		probe:       probe,
		interval:    interval,
		transitions: make(chan struct{}, 1),
		logger:      logger,
	}
}

func (m *Monitor) Online() bool { return m.online.Load() }
func (m *Monitor) Transitions() <-chan struct{} { return m.transitions }

// Run probes until ctx is done. An immediate probe runs before the first
// tick so a freshly started client learns its state without waiting a full
// interval.
func (m *Monitor) Run(ctx context.Context) {
	m.step(ctx)
	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.step(ctx)
		}
	}
}

func (m *Monitor) step(ctx context.Context) {
	err := m.probe(ctx)
	now := err == nil
	was := m.online.Swap(now)
	if now == was {
		return
	}
	if now {
		m.logger.Info("connectivity restored")
		select {
		case m.transitions <- struct{}{}:
		default: // a pending event already covers this transition
		}
	} else {
		m.logger.Info("connectivity lost", "error", err)
	}
}

// StaticConnectivity is a manually driven connectivity signal, used by tests
// and by one-shot CLI invocations where probing is pointless.
type StaticConnectivity struct {
	online      atomic.Bool
	transitions chan struct{}
}

func NewStaticConnectivity(online bool) *StaticConnectivity {
	s := &StaticConnectivity{transitions: make(chan struct{}, 1)}
	s.online.Store(online)
	return s
}

func (s *StaticConnectivity) Online() bool { return s.online.Load() }
func (s *StaticConnectivity) Transitions() <-chan struct{} { return s.transitions }

// SetOnline flips the state, emitting a transition event when it goes from offline to online.
func (s *StaticConnectivity) SetOnline(online bool) {
	was := s.online.Swap(online)
	if online && !was {
		select {
		case s.transitions <- struct{}{}:
		default:
		}
	}
}
