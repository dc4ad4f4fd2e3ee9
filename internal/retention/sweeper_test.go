package retention

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/unionlens/contract-assistant/internal/model"
	"github.com/unionlens/contract-assistant/internal/store/storetest"
)

var testNow = time.Date(2026, 3, 15, 10, 0, 0, 0, time.UTC)

func newSweeper(fs *storetest.Fake) *Sweeper {
	return NewSweeper(fs, Config{}, zerolog.Nop()).WithClock(func() time.Time { return testNow })
}

func TestSweepExpiredCache(t *testing.T) {
	ctx := context.Background()
	fs := storetest.NewFake()
	require.NoError(t, fs.CacheEntries().Upsert(ctx, &model.CacheEntry{
		Key: "stale", CreationTime: testNow.Add(-8 * 24 * time.Hour),
	}))
	require.NoError(t, fs.CacheEntries().Upsert(ctx, &model.CacheEntry{
		Key: "fresh", CreationTime: testNow.Add(-1 * 24 * time.Hour),
	}))

	require.NoError(t, newSweeper(fs).SweepExpiredCache(ctx))

	assert.Equal(t, 1, fs.EntryCount())
	_, err := fs.CacheEntries().Get(ctx, "fresh")
	assert.NoError(t, err)
}

func TestPruneOldChatHistoryPerPlanHorizon(t *testing.T) {
	ctx := context.Background()
	fs := storetest.NewFake()
	// basic: 7 days retention.
	fs.SeedUser(&model.User{UserID: "u-basic", SubscriptionStatus: model.StatusActive, PlanID: "basic"})
	fs.SeedMessage("u-basic", "c1", model.RoleUser, testNow.Add(-10*24*time.Hour))
	fs.SeedMessage("u-basic", "c1", model.RoleUser, testNow.Add(-2*24*time.Hour))

	require.NoError(t, newSweeper(fs).PruneOldChatHistory(ctx))

	msgs := fs.AllMessages()
	require.Len(t, msgs, 1)
	assert.Equal(t, testNow.Add(-2*24*time.Hour), msgs[0].CreationTime)
}

func TestPruneUsesTrialHorizonDuringLocalTrial(t *testing.T) {
	ctx := context.Background()
	fs := storetest.NewFake()
	// A local-trial user already points at the standard plan (30-day
	// retention) but runs on the trial tier (7 days) until billing confirms.
	ends := testNow.Add(48 * time.Hour)
	fs.SeedUser(&model.User{
		UserID:             "u-trial",
		SubscriptionStatus: model.StatusTrial,
		PlanID:             "standard",
		TrialEndsAt:        &ends,
	})
	fs.SeedMessage("u-trial", "c1", model.RoleUser, testNow.Add(-10*24*time.Hour))
	fs.SeedMessage("u-trial", "c1", model.RoleUser, testNow.Add(-2*24*time.Hour))

	require.NoError(t, newSweeper(fs).PruneOldChatHistory(ctx))

	msgs := fs.AllMessages()
	require.Len(t, msgs, 1)
	assert.Equal(t, testNow.Add(-2*24*time.Hour), msgs[0].CreationTime)

	// The sweep must not touch subscription state.
	u, err := fs.Users().Get(ctx, "u-trial")
	require.NoError(t, err)
	assert.Equal(t, model.StatusTrial, u.SubscriptionStatus)
}

func TestPruneSkipsPermanentRetention(t *testing.T) {
	ctx := context.Background()
	fs := storetest.NewFake()
	// premium: permanent retention, must delete nothing regardless of age.
	fs.SeedUser(&model.User{UserID: "u-prem", SubscriptionStatus: model.StatusActive, PlanID: "premium"})
	fs.SeedMessage("u-prem", "c1", model.RoleUser, testNow.Add(-365*24*time.Hour))
	fs.SeedMessage("u-prem", "c1", model.RoleAssistant, testNow.Add(-1000*24*time.Hour))

	require.NoError(t, newSweeper(fs).PruneOldChatHistory(ctx))

	assert.Len(t, fs.AllMessages(), 2)
}

func TestPruneIsIdempotent(t *testing.T) {
	ctx := context.Background()
	fs := storetest.NewFake()
	fs.SeedUser(&model.User{UserID: "u1", SubscriptionStatus: model.StatusActive, PlanID: "basic"})
	fs.SeedMessage("u1", "c1", model.RoleUser, testNow.Add(-30*24*time.Hour))

	sw := newSweeper(fs)
	require.NoError(t, sw.PruneOldChatHistory(ctx))
	require.NoError(t, sw.PruneOldChatHistory(ctx))
	assert.Len(t, fs.AllMessages(), 0)
}
