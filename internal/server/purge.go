package server

import (
	"fmt"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/adminkit-dev/adminkit/internal/models"
)

// startPurgeScheduler runs purgeRevocations on the configured cron schedule
func (s *Server) startPurgeScheduler() error {
	s.scheduler = cron.New()

	if _, err := s.scheduler.AddFunc(s.config.Session.PurgeSchedule, s.purgeRevocations); err != nil {
		return fmt.Errorf("invalid purge schedule %q: %w", s.config.Session.PurgeSchedule, err)
	}

	s.scheduler.Start()
	s.logger.Info().Str("schedule", s.config.Session.PurgeSchedule).Msg("Revocation purge scheduled")
	return nil
}

// purgeRevocations drops revocations for tokens that have expired on their own
func (s *Server) purgeRevocations() {
	purged, err := models.PurgeExpiredRevocations(s.db, time.Now())
	if err != nil {
		s.logger.Error().Err(err).Msg("Failed to purge revoked tokens")
		return
	}
	if purged > 0 {
		s.logger.Info().Int64("purged", purged).Msg("Purged expired token revocations")
	}
}
