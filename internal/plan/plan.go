// Package plan defines the static catalog of subscription tiers and their
// limits. It is the single source of truth for what each plan allows.
package plan

// Tier selects which model family answers a query.
type Tier string

const (
	TierBasic    Tier = "basic"
	TierStandard Tier = "standard"
	TierPremium  Tier = "premium"
)

// Limit is either a bounded count or unlimited. The persisted and wire form
// uses -1 for unlimited; inside the process the tagged form prevents
// arithmetic on the sentinel.
type Limit struct {
	n         int64
	unlimited bool
}

// Bounded returns a limit of n. Negative n is clamped to zero.
func Bounded(n int64) Limit {
	if n < 0 {
		n = 0
	}
	return Limit{n: n}
}

// Unlimited returns the no-limit value.
func Unlimited() Limit { return Limit{unlimited: true} }

// FromInt decodes the -1 sentinel convention.
func FromInt(n int64) Limit {
	if n < 0 {
		return Unlimited()
	}
	return Bounded(n)
}

func (l Limit) IsUnlimited() bool { return l.unlimited }

// Allows reports whether one more unit may be consumed given current usage.
func (l Limit) Allows(used int64) bool {
	if l.unlimited {
		return true
	}
	return used < l.n
}

// Int encodes the limit with the -1 sentinel for storage and JSON surfaces.
func (l Limit) Int() int64 {
	if l.unlimited {
		return -1
	}
	return l.n
}

// Limits is the bundle of quotas and feature access attached to a plan.
type Limits struct {
	MaxQueries      Limit
	MaxContracts    Limit
	ChatHistoryDays Limit
	ModelTier       Tier
}

// Known plan identifiers.
const (
	PlanTrial       = "trial"
	PlanBasic       = "basic"
	PlanStandard    = "standard"
	PlanPremium     = "premium"
	PlanUnionSmall  = "union-small"
	PlanUnionMedium = "union-medium"
)

var catalog = map[string]Limits{
	PlanTrial:       {MaxQueries: Bounded(10), MaxContracts: Bounded(1), ChatHistoryDays: Bounded(7), ModelTier: TierBasic},
	PlanBasic:       {MaxQueries: Bounded(20), MaxContracts: Bounded(1), ChatHistoryDays: Bounded(7), ModelTier: TierBasic},
	PlanStandard:    {MaxQueries: Bounded(50), MaxContracts: Bounded(3), ChatHistoryDays: Bounded(30), ModelTier: TierStandard},
	PlanPremium:     {MaxQueries: Unlimited(), MaxContracts: Unlimited(), ChatHistoryDays: Unlimited(), ModelTier: TierPremium},
	PlanUnionSmall:  {MaxQueries: Unlimited(), MaxContracts: Bounded(10), ChatHistoryDays: Bounded(60), ModelTier: TierPremium},
	PlanUnionMedium: {MaxQueries: Unlimited(), MaxContracts: Unlimited(), ChatHistoryDays: Unlimited(), ModelTier: TierPremium},
}

// LimitsFor returns the limits for a plan identifier. Unknown identifiers
// resolve to the trial limits, the most restrictive tier, never an error.
func LimitsFor(planID string) Limits {
	if l, ok := catalog[planID]; ok {
		return l
	}
	return catalog[PlanTrial]
}
