// Package retention prunes cache entries and chat history past their
// plan-defined horizon. The sweeper is idempotent and safe on any schedule;
// request handlers already expire cache entries lazily, this pass only keeps
// the tables from accumulating rows nobody will read again.
package retention

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/unionlens/contract-assistant/internal/access"
	"github.com/unionlens/contract-assistant/internal/cache"
	"github.com/unionlens/contract-assistant/internal/store"
)

// Config controls the sweep cadence.
type Config struct {
	Interval time.Duration
}

// Sweeper deletes expired cache entries and over-retention chat messages.
type Sweeper struct {
	store store.Store
	log   zerolog.Logger
	cfg   Config
	now   func() time.Time
}

func NewSweeper(s store.Store, cfg Config, log zerolog.Logger) *Sweeper {
	if cfg.Interval <= 0 {
		cfg.Interval = time.Hour
	}
	return &Sweeper{store: s, log: log, cfg: cfg, now: time.Now}
}

// WithClock overrides the time source. Test hook.
func (s *Sweeper) WithClock(now func() time.Time) *Sweeper {
	s.now = now
	return s
}

// Run sweeps on a ticker until ctx is canceled.
func (s *Sweeper) Run(ctx context.Context) error {
	s.log.Info().Dur("interval", s.cfg.Interval).Msg("retention sweeper starting")
	ticker := time.NewTicker(s.cfg.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.log.Info().Msg("retention sweeper stopping")
			return ctx.Err()
		case <-ticker.C:
			if err := s.SweepExpiredCache(ctx); err != nil {
				s.log.Error().Err(err).Msg("cache sweep failed")
			}
			if err := s.PruneOldChatHistory(ctx); err != nil {
				s.log.Error().Err(err).Msg("chat history prune failed")
			}
		}
	}
}

// SweepExpiredCache deletes cache entries older than the cache horizon.
func (s *Sweeper) SweepExpiredCache(ctx context.Context) error {
	cutoff := s.now().Add(-cache.Horizon)
	n, err := s.store.CacheEntries().DeleteOlderThan(ctx, cutoff)
	if err != nil {
		return err
	}
	if n > 0 {
		s.log.Info().Int64("deleted", n).Msg("expired cache entries swept")
	}
	return nil
}

// PruneOldChatHistory deletes each user's messages older than their
// effective retention horizon. The horizon comes from the same status-aware
// mapping the access resolver uses, so a local-trial user prunes on the
// trial tier even though their planId already names the paid plan. Plans
// with permanent retention are skipped outright: the unlimited sentinel must
// never be fed into cutoff arithmetic.
func (s *Sweeper) PruneOldChatHistory(ctx context.Context) error {
	users, err := s.store.Users().List(ctx)
	if err != nil {
		return err
	}
	now := s.now()
	for _, u := range users {
		days := access.EffectiveLimits(u.SubscriptionStatus, u.PlanID).ChatHistoryDays
		if days.IsUnlimited() {
			continue
		}
		cutoff := now.AddDate(0, 0, -int(days.Int()))
		n, err := s.store.Messages().DeleteOlderThan(ctx, u.UserID, cutoff)
		if err != nil {
			s.log.Error().Err(err).Str("user", u.UserID).Msg("prune failed for user")
			continue
		}
		if n > 0 {
			s.log.Info().Str("user", u.UserID).Int64("deleted", n).Msg("old chat messages pruned")
		}
	}
	return nil
}
