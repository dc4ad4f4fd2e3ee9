// Package usage computes a user's consumption against their plan limits.
// Query quota is windowed to the current calendar month; the contract cap is
// a total. The meter never records usage itself: creating a chat message or
// contract row is what consumes quota.
package usage

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/unionlens/contract-assistant/internal/access"
	"github.com/unionlens/contract-assistant/internal/model"
	"github.com/unionlens/contract-assistant/internal/plan"
	"github.com/unionlens/contract-assistant/internal/store"
)

// MonthStart returns the first instant of t's calendar month in UTC.
func MonthStart(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
}

// Snapshot reports usage against limits for status surfaces
// ("N of M queries used"). Limits carry the -1 sentinel on the wire.
type Snapshot struct {
	PlanID        string `json:"planId"`
	QueriesUsed   int64  `json:"queriesUsed"`
	MaxQueries    int64  `json:"maxQueries"`
	ContractsUsed int64  `json:"contractsUsed"`
	MaxContracts  int64  `json:"maxContracts"`
	HistoryDays   int64  `json:"chatHistoryDays"`
	ModelTier     string `json:"modelTier"`
	TrialDaysLeft int    `json:"trialDaysLeft,omitempty"`
}

// Meter answers allow/deny questions per resource.
//
// Failure policy: if an underlying count fails the meter fails closed and
// returns the error; unmetered access is worse than a spurious denial.
type Meter struct {
	store    store.Store
	resolver *access.Resolver
	log      zerolog.Logger
	now      func() time.Time
}

func NewMeter(s store.Store, r *access.Resolver, log zerolog.Logger) *Meter {
	return &Meter{store: s, resolver: r, log: log, now: time.Now}
}

// WithClock overrides the time source. Test hook.
func (m *Meter) WithClock(now func() time.Time) *Meter {
	m.now = now
	return m
}

// CanQuery reports whether the user may issue one more contract query this
// calendar month.
func (m *Meter) CanQuery(ctx context.Context, userID string) (bool, error) {
	limits, err := m.limits(ctx, userID)
	if err != nil {
		return false, err
	}
	if limits.MaxQueries.IsUnlimited() {
		return true, nil
	}
	used, err := m.store.Messages().CountSince(ctx, userID, MonthStart(m.now()), model.RoleUser)
	if err != nil {
		return false, fmt.Errorf("count monthly queries: %w", err)
	}
	return limits.MaxQueries.Allows(used), nil
}

// CanUploadContract reports whether the user may store one more contract.
// This cap is a total, not time-windowed.
func (m *Meter) CanUploadContract(ctx context.Context, userID string) (bool, error) {
	limits, err := m.limits(ctx, userID)
	if err != nil {
		return false, err
	}
	if limits.MaxContracts.IsUnlimited() {
		return true, nil
	}
	used, err := m.store.Contracts().CountForUser(ctx, userID)
	if err != nil {
		return false, fmt.Errorf("count contracts: %w", err)
	}
	return limits.MaxContracts.Allows(used), nil
}

// Usage returns the current usage snapshot for the user.
func (m *Meter) Usage(ctx context.Context, userID string) (*Snapshot, error) {
	d, err := m.resolver.Check(ctx, userID)
	if err != nil {
		return nil, err
	}
	queries, err := m.store.Messages().CountSince(ctx, userID, MonthStart(m.now()), model.RoleUser)
	if err != nil {
		return nil, fmt.Errorf("count monthly queries: %w", err)
	}
	contracts, err := m.store.Contracts().CountForUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("count contracts: %w", err)
	}
	return &Snapshot{
		PlanID:        d.PlanID,
		QueriesUsed:   queries,
		MaxQueries:    d.Limits.MaxQueries.Int(),
		ContractsUsed: contracts,
		MaxContracts:  d.Limits.MaxContracts.Int(),
		HistoryDays:   d.Limits.ChatHistoryDays.Int(),
		ModelTier:     string(d.Limits.ModelTier),
		TrialDaysLeft: d.DaysLeft,
	}, nil
}

func (m *Meter) limits(ctx context.Context, userID string) (plan.Limits, error) {
	d, err := m.resolver.Check(ctx, userID)
	if err != nil {
		return plan.Limits{}, err
	}
	return d.Limits, nil
}
