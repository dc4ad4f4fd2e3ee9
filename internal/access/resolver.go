// Package access resolves a user's subscription state into an allow/deny
// decision plus the effective plan limits. It owns every status transition:
// time-driven ones are applied lazily on each check, billing-driven ones
// arrive through ApplyBillingEvent.
package access

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/unionlens/contract-assistant/internal/model"
	"github.com/unionlens/contract-assistant/internal/plan"
	"github.com/unionlens/contract-assistant/internal/store"
)

// TrialDuration is the length of the locally managed trial granted on first access.
const TrialDuration = 7 * 24 * time.Hour

// DefaultTrialPlanID is the plan a fresh trial user is pointed at.
const DefaultTrialPlanID = plan.PlanStandard

// Decision is the outcome of an access check.
type Decision struct {
	Allowed bool
	// Reason is set when Allowed is false.
	Reason model.DenyReason
	// PaymentIssue marks past_due: read-only access may proceed but the
	// caller should surface a payment problem.
	PaymentIssue bool
	Status       model.SubscriptionStatus
	PlanID       string
	Limits       plan.Limits
	// DaysLeft is the remaining local-trial days, rounded up. Zero outside trial.
	DaysLeft int
}

// Err converts a deny decision into the typed error that crosses the service
// boundary. Returns nil for allowed decisions.
func (d Decision) Err() error {
	if d.Allowed {
		return nil
	}
	return &model.AccessDeniedError{Reason: d.Reason}
}

// Resolver checks and transitions subscription state.
type Resolver struct {
	store store.Store
	log   zerolog.Logger
	now   func() time.Time
}

func NewResolver(s store.Store, log zerolog.Logger) *Resolver {
	return &Resolver{store: s, log: log, now: time.Now}
}

// WithClock overrides the time source. Test hook.
func (r *Resolver) WithClock(now func() time.Time) *Resolver {
	r.now = now
	return r
}

// Check resolves the user's current access decision, persisting any lazy
// status transition it performs (unknown -> trial, trial -> trial_expired,
// canceling -> canceled past the period end).
func (r *Resolver) Check(ctx context.Context, userID string) (Decision, error) {
	u, err := r.store.Users().Get(ctx, userID)
	if err != nil {
		return Decision{}, err
	}
	now := r.now()

	switch u.SubscriptionStatus {
	case model.StatusUnknown:
		return r.startTrial(ctx, u, now)

	case model.StatusTrial:
		if u.TrialEndsAt == nil || now.After(*u.TrialEndsAt) {
			st := model.StatusTrialExpired
			if err := r.store.Users().UpdateSubscription(ctx, u.UserID, model.SubscriptionUpdate{Status: &st}); err != nil {
				return Decision{}, fmt.Errorf("persist trial expiry: %w", err)
			}
			r.log.Info().Str("user", u.UserID).Msg("trial expired")
			return r.deny(u, model.StatusTrialExpired, model.DenyTrialExpired), nil
		}
		d := r.allow(u, model.StatusTrial)
		d.DaysLeft = daysLeft(now, *u.TrialEndsAt)
		return d, nil

	case model.StatusTrialing:
		// Billing owns expiry for provider-managed trials: allowed as long
		// as the linked subscription exists.
		if u.StripeSubscriptionID == nil || *u.StripeSubscriptionID == "" {
			return r.deny(u, model.StatusTrialing, model.DenyNoSubscription), nil
		}
		return r.allow(u, model.StatusTrialing), nil

	case model.StatusActive:
		return r.allow(u, model.StatusActive), nil

	case model.StatusPastDue:
		d := r.deny(u, model.StatusPastDue, model.DenyPaymentPastDue)
		d.PaymentIssue = true
		return d, nil

	case model.StatusCanceling:
		if u.CurrentPeriodEnd != nil && now.After(*u.CurrentPeriodEnd) {
			st := model.StatusCanceled
			if err := r.store.Users().UpdateSubscription(ctx, u.UserID, model.SubscriptionUpdate{Status: &st}); err != nil {
				return Decision{}, fmt.Errorf("persist cancellation: %w", err)
			}
			return r.deny(u, model.StatusCanceled, model.DenyCanceled), nil
		}
		// Still inside the paid period: treated as active.
		return r.allow(u, model.StatusCanceling), nil

	case model.StatusCanceled:
		return r.deny(u, model.StatusCanceled, model.DenyCanceled), nil

	case model.StatusTrialExpired:
		return r.deny(u, model.StatusTrialExpired, model.DenyTrialExpired), nil

	default:
		return r.deny(u, u.SubscriptionStatus, model.DenyNoSubscription), nil
	}
}

// startTrial performs the sole initial-state transition: a never-initialized
// user becomes a local trial user pointed at the default plan.
func (r *Resolver) startTrial(ctx context.Context, u *model.User, now time.Time) (Decision, error) {
	st := model.StatusTrial
	ends := now.Add(TrialDuration)
	planID := DefaultTrialPlanID
	upd := model.SubscriptionUpdate{Status: &st, TrialEndsAt: &ends}
	if u.PlanID == "" {
		upd.PlanID = &planID
	}
	if err := r.store.Users().UpdateSubscription(ctx, u.UserID, upd); err != nil {
		return Decision{}, fmt.Errorf("start trial: %w", err)
	}
	r.log.Info().Str("user", u.UserID).Time("trial_ends_at", ends).Msg("trial started")

	u.SubscriptionStatus = st
	u.TrialEndsAt = &ends
	if u.PlanID == "" {
		u.PlanID = planID
	}
	d := r.allow(u, st)
	d.DaysLeft = daysLeft(now, ends)
	return d, nil
}

func (r *Resolver) allow(u *model.User, st model.SubscriptionStatus) Decision {
	return Decision{Allowed: true, Status: st, PlanID: u.PlanID, Limits: r.effectiveLimits(u, st)}
}

func (r *Resolver) deny(u *model.User, st model.SubscriptionStatus, reason model.DenyReason) Decision {
	return Decision{Status: st, PlanID: u.PlanID, Reason: reason, Limits: r.effectiveLimits(u, st)}
}

func (r *Resolver) effectiveLimits(u *model.User, st model.SubscriptionStatus) plan.Limits {
	return EffectiveLimits(st, u.PlanID)
}

// EffectiveLimits picks the limits the catalog grants for a subscription
// state. A local trial runs on the trial tier regardless of which plan the
// user is headed for; everything else resolves the plan id. Pure: callers
// that must not trigger state transitions (the retention sweeper) use this
// directly on stored state. The lazy transitions Check performs never change
// the outcome: unknown, trial, and trial_expired all land on the trial tier,
// and canceling vs canceled both resolve the plan id.
func EffectiveLimits(st model.SubscriptionStatus, planID string) plan.Limits {
	switch st {
	case model.StatusTrial, model.StatusTrialExpired, model.StatusUnknown:
		return plan.LimitsFor(plan.PlanTrial)
	default:
		return plan.LimitsFor(planID)
	}
}

// ApplyBillingEvent maps an external billing notification onto a status
// transition and persists it. This is the only place provider vocabulary
// enters the state machine.
func (r *Resolver) ApplyBillingEvent(ctx context.Context, userID string, ev model.BillingEvent) error {
	upd := model.SubscriptionUpdate{}
	var st model.SubscriptionStatus

	switch ev.Type {
	case model.EventPaymentSucceeded:
		st = model.StatusActive
	case model.EventPaymentFailed:
		st = model.StatusPastDue
	case model.EventTrialStarted:
		st = model.StatusTrialing
	case model.EventCancelRequested:
		st = model.StatusCanceling
	case model.EventSubscriptionDeleted:
		st = model.StatusCanceled
	case model.EventSubscriptionUpdated:
		// The generic update event carries the provider's own status string;
		// StatusFromBilling reconciles that vocabulary with ours.
		st = model.StatusFromBilling(ev.ProviderStatus)
		if st == model.StatusUnknown {
			return fmt.Errorf("%w: unknown provider status %q", model.ErrValidation, ev.ProviderStatus)
		}
	default:
		return fmt.Errorf("%w: unknown billing event type %q", model.ErrValidation, ev.Type)
	}

	upd.Status = &st
	if ev.PlanID != "" {
		planID := ev.PlanID
		upd.PlanID = &planID
	}
	if ev.SubscriptionID != "" {
		subID := ev.SubscriptionID
		upd.StripeSubscriptionID = &subID
	}
	if ev.PeriodEnd != nil {
		end := *ev.PeriodEnd
		upd.CurrentPeriodEnd = &end
	}

	if err := r.store.Users().UpdateSubscription(ctx, userID, upd); err != nil {
		return fmt.Errorf("apply billing event %q: %w", ev.Type, err)
	}
	r.log.Info().Str("user", userID).Str("event", ev.Type).Str("status", string(st)).Msg("billing event applied")
	return nil
}

func daysLeft(now, ends time.Time) int {
	remaining := ends.Sub(now)
	if remaining <= 0 {
		return 0
	}
	days := int(remaining / (24 * time.Hour))
	if remaining%(24*time.Hour) != 0 {
		days++
	}
	return days
}
