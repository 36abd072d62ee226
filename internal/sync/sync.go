// Package sync runs the background synchronization against the pull-request
// host: a periodic, cancellable task separate from restack execution. The
// engine's own lock keeps a sync pass from overlapping an in-flight restack's
// host calls.
package sync

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"grafton.dev/grafton/internal/engine"
)

// DefaultInterval is the default delay between sync passes
const DefaultInterval = 60 * time.Second

// Service periodically refreshes pull-request state for every stack branch
type Service struct {
	engine   *engine.Engine
	interval time.Duration
	log      *slog.Logger

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

// NewService creates a sync service. An interval of zero uses the default.
func NewService(eng *engine.Engine, interval time.Duration, log *slog.Logger) *Service {
	if interval <= 0 {
		interval = DefaultInterval
	}
	if log == nil {
		log = slog.Default()
	}
	return &Service{engine: eng, interval: interval, log: log}
}

// Start launches the periodic sync loop. Calling Start on a running service
// is a no-op.
func (s *Service) Start(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cancel != nil {
		return
	}

	ctx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	s.done = make(chan struct{})

	go s.run(ctx, s.done)
	s.log.Info("background sync started", "interval", s.interval)
}

// Stop cancels the loop and waits for the in-flight pass, if any, to finish
func (s *Service) Stop() {
	s.mu.Lock()
	cancel, done := s.cancel, s.done
	s.cancel = nil
	s.done = nil
	s.mu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	<-done
	s.log.Info("background sync stopped")
}

func (s *Service) run(ctx context.Context, done chan struct{}) {
	defer close(done)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.syncOnce(ctx)
		}
	}
}

// SyncNow triggers one immediate pass
func (s *Service) SyncNow(ctx context.Context) {
	s.syncOnce(ctx)
}

func (s *Service) syncOnce(ctx context.Context) {
	result, err := s.engine.SyncHostState(ctx)
	if err != nil {
		s.log.Warn("sync pass failed", "error", err)
		return
	}
	if result.Checked > 0 {
		s.log.Debug("sync pass complete", "checked", result.Checked, "merged", result.Merged)
	}
}
