package janitor

import (
	"context"
	"fmt"
	"sync"

	"github.com/robfig/cron/v3"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/insightx/internal/common"
	"github.com/ternarybob/insightx/internal/interfaces"
)

// Service sweeps expired chat sessions and analysis bundles on a cron
// schedule. Sweeps are best-effort: a failing store logs a warning and the
// next run tries again.
type Service struct {
	storage  interfaces.StorageManager
	sessions interfaces.SessionStorage
	bundles  interfaces.BundleStorage
	config   *common.RetentionConfig
	cron     *cron.Cron
	logger   arbor.ILogger
	mu       sync.Mutex
	running  bool
}

// NewService creates a new retention janitor
func NewService(storage interfaces.StorageManager, config *common.RetentionConfig, logger arbor.ILogger) *Service {
	return &Service{
		storage:  storage,
		sessions: storage.SessionStorage(),
		bundles:  storage.BundleStorage(),
		config:   config,
		cron:     cron.New(),
		logger:   logger,
	}
}

// Start schedules the cleanup job. Disabled retention is a no-op, not an
// error, so callers wire the janitor unconditionally.
func (s *Service) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.config.Enabled {
		s.logger.Info().Msg("Retention cleanup disabled")
		return nil
	}
	if s.running {
		return fmt.Errorf("retention janitor already running")
	}

	schedule := s.config.Schedule
	if schedule == "" {
		schedule = "*/10 * * * *"
	}

	if _, err := s.cron.AddFunc(schedule, s.sweep); err != nil {
		return fmt.Errorf("failed to schedule retention cleanup: %w", err)
	}

	s.cron.Start()
	s.running = true

	s.logger.Info().
		Str("schedule", schedule).
		Str("session_ttl", s.config.SessionTTL).
		Str("bundle_ttl", s.config.BundleTTL).
		Msg("Retention janitor started")

	return nil
}

// Stop halts the cleanup schedule
func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.running {
		return
	}

	s.cron.Stop()
	s.running = false
	s.logger.Info().Msg("Retention janitor stopped")
}

// RunNow performs one cleanup sweep immediately
func (s *Service) RunNow() {
	s.sweep()
}

func (s *Service) sweep() {
	ctx := context.Background()

	sessionsRemoved, err := s.sessions.DeleteExpired(ctx, s.config.SessionTTLSeconds())
	if err != nil {
		s.logger.Warn().Err(err).Msg("Failed to sweep expired sessions")
	}

	bundlesRemoved, err := s.bundles.DeleteExpired(ctx, s.config.BundleTTLSeconds())
	if err != nil {
		s.logger.Warn().Err(err).Msg("Failed to sweep expired bundles")
	}

	if sessionsRemoved > 0 || bundlesRemoved > 0 {
		if err := s.storage.RunGC(); err != nil {
			s.logger.Warn().Err(err).Msg("Value log GC failed after sweep")
		}

		s.logger.Info().
			Int("sessions", sessionsRemoved).
			Int("bundles", bundlesRemoved).
			Msg("Retention sweep complete")
	} else {
		s.logger.Debug().Msg("Retention sweep found nothing to remove")
	}
}
