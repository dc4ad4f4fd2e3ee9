package usage

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/unionlens/contract-assistant/internal/access"
	"github.com/unionlens/contract-assistant/internal/model"
	"github.com/unionlens/contract-assistant/internal/store/storetest"
)

var testNow = time.Date(2026, 3, 15, 10, 0, 0, 0, time.UTC)

func newMeter(fs *storetest.Fake) *Meter {
	clock := func() time.Time { return testNow }
	r := access.NewResolver(fs, zerolog.Nop()).WithClock(clock)
	return NewMeter(fs, r, zerolog.Nop()).WithClock(clock)
}

func seedActive(fs *storetest.Fake, planID string) {
	fs.SeedUser(&model.User{UserID: "u1", SubscriptionStatus: model.StatusActive, PlanID: planID})
}

func TestMonthStart(t *testing.T) {
	assert.Equal(t, time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC), MonthStart(testNow))
	// Last second of the month still belongs to that month.
	lastSec := time.Date(2026, 3, 31, 23, 59, 59, 0, time.UTC)
	assert.Equal(t, time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC), MonthStart(lastSec))
}

func TestCanQueryBoundary(t *testing.T) {
	ctx := context.Background()

	// basic: maxQueries=20. Exactly 20 this month -> deny.
	fs := storetest.NewFake()
	seedActive(fs, "basic")
	for i := 0; i < 20; i++ {
		fs.SeedMessage("u1", "c1", model.RoleUser, testNow.Add(-time.Duration(i)*time.Hour))
	}
	ok, err := newMeter(fs).CanQuery(ctx, "u1")
	require.NoError(t, err)
	assert.False(t, ok)

	// 19 -> allow.
	fs = storetest.NewFake()
	seedActive(fs, "basic")
	for i := 0; i < 19; i++ {
		fs.SeedMessage("u1", "c1", model.RoleUser, testNow.Add(-time.Duration(i)*time.Hour))
	}
	ok, err = newMeter(fs).CanQuery(ctx, "u1")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestCanQueryIgnoresAssistantAndPriorMonths(t *testing.T) {
	ctx := context.Background()
	fs := storetest.NewFake()
	seedActive(fs, "basic")

	// Assistant responses never count.
	for i := 0; i < 30; i++ {
		fs.SeedMessage("u1", "c1", model.RoleAssistant, testNow.Add(-time.Hour))
	}
	// Last month's questions never count.
	for i := 0; i < 30; i++ {
		fs.SeedMessage("u1", "c1", model.RoleUser, testNow.AddDate(0, -1, 0))
	}

	ok, err := newMeter(fs).CanQuery(ctx, "u1")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestCanQueryUnlimitedPlan(t *testing.T) {
	ctx := context.Background()
	fs := storetest.NewFake()
	seedActive(fs, "premium")
	for i := 0; i < 10000; i++ {
		fs.SeedMessage("u1", "c1", model.RoleUser, testNow.Add(-time.Minute))
	}
	ok, err := newMeter(fs).CanQuery(ctx, "u1")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestCanQueryFailsClosedOnCountError(t *testing.T) {
	ctx := context.Background()
	fs := storetest.NewFake()
	seedActive(fs, "basic")
	fs.CountErr = errors.New("db gone")

	ok, err := newMeter(fs).CanQuery(ctx, "u1")
	assert.False(t, ok)
	assert.Error(t, err)
}

func TestCanUploadContractTotalCap(t *testing.T) {
	ctx := context.Background()
	fs := storetest.NewFake()
	seedActive(fs, "standard") // maxContracts=3
	for i := 0; i < 2; i++ {
		_, err := fs.Contracts().Create(ctx, &model.Contract{UserID: "u1", Title: "c"})
		require.NoError(t, err)
	}
	ok, err := newMeter(fs).CanUploadContract(ctx, "u1")
	require.NoError(t, err)
	assert.True(t, ok)

	_, err = fs.Contracts().Create(ctx, &model.Contract{UserID: "u1", Title: "c"})
	require.NoError(t, err)
	ok, err = newMeter(fs).CanUploadContract(ctx, "u1")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestUsageSnapshot(t *testing.T) {
	ctx := context.Background()
	fs := storetest.NewFake()
	seedActive(fs, "standard")
	fs.SeedMessage("u1", "c1", model.RoleUser, testNow.Add(-time.Hour))
	fs.SeedMessage("u1", "c1", model.RoleAssistant, testNow.Add(-time.Hour))
	_, err := fs.Contracts().Create(ctx, &model.Contract{UserID: "u1", Title: "c"})
	require.NoError(t, err)

	snap, err := newMeter(fs).Usage(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, "standard", snap.PlanID)
	assert.Equal(t, int64(1), snap.QueriesUsed)
	assert.Equal(t, int64(50), snap.MaxQueries)
	assert.Equal(t, int64(1), snap.ContractsUsed)
	assert.Equal(t, int64(3), snap.MaxContracts)
	assert.Equal(t, "standard", snap.ModelTier)
}
