// Copyright 2025 KisCouture
// SPDX-License-Identifier: Apache-2.0

package couturelite

import (
	"context"
	"errors"
	"log/slog"
	"time"
)

// Scheduler triggers reconciliation passes automatically: periodically while
// online, and immediately on an offline-to-online transition. Attempts are
// throttled by Config.SyncMinInterval measured against the last attempt,
// successful or not, so a flapping connection cannot hammer the server.
type Scheduler struct {
	engine *Engine
	logger *slog.Logger
	now    func() time.Time
}

// NewScheduler builds a scheduler for the engine. logger may be nil.
func NewScheduler(engine *Engine, logger *slog.Logger) *Scheduler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Scheduler{
		engine: engine,
		logger: logger,
		now:    engine.now,
	}
}

// Run blocks until ctx is done, firing reconciliation attempts on every tick
// and on every connectivity transition to online. Run the connectivity
// monitor separately; the scheduler only consumes its signal.
func (s *Scheduler) Run(ctx context.Context) {
	ticker := time.NewTicker(s.engine.config.SyncTick)
	defer ticker.Stop()

	transitions := s.engine.net.Transitions()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.maybeSync(ctx, "tick")
		case <-transitions:
			s.logger.Info("connectivity restored, attempting sync")
			s.maybeSync(ctx, "reconnect")
		}
	}
}

// maybeSync runs one throttled reconciliation attempt. The attempt timestamp
// is recorded before the pass so that failures also count against the
// throttle window.
func (s *Scheduler) maybeSync(ctx context.Context, reason string) {
	if !s.engine.net.Online() {
		return
	}
	lastAttempt, err := s.engine.state.LastSyncAttempt(ctx)
	if err != nil {
		s.logger.Error("failed to read last sync attempt", "error", err)
		return
	}
	if gap := s.now().Sub(lastAttempt); gap < s.engine.config.SyncMinInterval {
		s.logger.Debug("sync throttled", "reason", reason, "since_last_attempt", gap)
		return
	}
	if err := s.engine.state.SetLastSyncAttempt(ctx, s.now()); err != nil {
		s.logger.Error("failed to record sync attempt", "error", err)
		return
	}
	if err := s.engine.Reconcile(ctx); err != nil {
		if errors.Is(err, ErrOffline) {
			return
		}
		s.logger.Warn("scheduled sync failed", "reason", reason, "error", err)
	}
}
