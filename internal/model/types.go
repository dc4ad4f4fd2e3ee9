package model

import "time"

// SubscriptionStatus is the closed set of subscription states a user can be in.
// Local trial logic and the external billing provider both feed into this enum;
// StatusFromBilling is the only place billing vocabulary is mapped onto it.
type SubscriptionStatus string

const (
	StatusUnknown      SubscriptionStatus = ""
	StatusTrial        SubscriptionStatus = "trial"
	StatusTrialing     SubscriptionStatus = "trialing"
	StatusActive       SubscriptionStatus = "active"
	StatusPastDue      SubscriptionStatus = "past_due"
	StatusCanceling    SubscriptionStatus = "canceling"
	StatusCanceled     SubscriptionStatus = "canceled"
	StatusTrialExpired SubscriptionStatus = "trial_expired"
)

// StatusFromBilling reconciles the billing provider's status vocabulary with
// ours. Unrecognized values map to StatusUnknown so callers can reject them.
func StatusFromBilling(s string) SubscriptionStatus {
	switch s {
	case "active":
		return StatusActive
	case "trialing":
		return StatusTrialing
	case "past_due", "unpaid":
		return StatusPastDue
	case "canceled", "incomplete_expired":
		return StatusCanceled
	default:
		return StatusUnknown
	}
}

// User represents an account with its subscription state attached.
type User struct {
	UserID               string             `json:"userId"`
	Email                string             `json:"email"`
	DisplayName          *string            `json:"displayName,omitempty"`
	SubscriptionStatus   SubscriptionStatus `json:"subscriptionStatus"`
	PlanID               string             `json:"planId"`
	TrialEndsAt          *time.Time         `json:"trialEndsAt,omitempty"`
	CurrentPeriodEnd     *time.Time         `json:"currentPeriodEnd,omitempty"`
	StripeSubscriptionID *string            `json:"stripeSubscriptionId,omitempty"`
	CreationTime         time.Time          `json:"creationTime"`
}

// SubscriptionUpdate carries a partial update of a user's subscription fields.
// Only non-nil fields are applied.
type SubscriptionUpdate struct {
	Status               *SubscriptionStatus
	PlanID               *string
	TrialEndsAt          *time.Time
	CurrentPeriodEnd     *time.Time
	StripeSubscriptionID *string
}

// Contract is an uploaded collective-bargaining agreement. The text is already
// extracted upstream; this service never touches PDF bytes.
type Contract struct {
	ContractID   string    `json:"contractId"`
	UserID       string    `json:"userId"`
	Title        string    `json:"title"`
	Text         string    `json:"text"`
	CreationTime time.Time `json:"creationTime"`
}

// Message roles. Only RoleUser counts against query quota.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// ChatMessage is one turn of a contract conversation.
type ChatMessage struct {
	MessageID    string    `json:"messageId"`
	UserID       string    `json:"userId"`
	ContractID   string    `json:"contractId"`
	Role         string    `json:"role"`
	Content      string    `json:"content"`
	CreationTime time.Time `json:"creationTime"`
}

// CacheEntry is a cached answer keyed by the deterministic digest of
// (contractId, normalized query). At most one live entry exists per key.
type CacheEntry struct {
	Key          string    `json:"key"`
	ContractID   string    `json:"contractId"`
	QueryText    string    `json:"queryText"`
	ResponseText string    `json:"responseText"`
	CreationTime time.Time `json:"creationTime"`
}

// CacheStat holds hit/miss counters for one calendar day (observability only).
type CacheStat struct {
	Day    string `json:"day"`
	Hits   int64  `json:"hits"`
	Misses int64  `json:"misses"`
}

// BillingEvent is an already-parsed notification from the billing provider.
// ProviderStatus carries the provider's raw subscription status and is only
// consulted for subscription_updated events.
type BillingEvent struct {
	Type           string     `json:"type"`
	SubscriptionID string     `json:"subscriptionId,omitempty"`
	PlanID         string     `json:"planId,omitempty"`
	PeriodEnd      *time.Time `json:"periodEnd,omitempty"`
	ProviderStatus string     `json:"status,omitempty"`
}

// Billing event types accepted by the access resolver.
const (
	EventPaymentSucceeded    = "payment_succeeded"
	EventPaymentFailed       = "payment_failed"
	EventTrialStarted        = "trial_started"
	EventCancelRequested     = "cancel_requested"
	EventSubscriptionDeleted = "subscription_deleted"
	EventSubscriptionUpdated = "subscription_updated"
)
