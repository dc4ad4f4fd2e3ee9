package model

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound   = errors.New("not found")
	ErrValidation = errors.New("validation error")
	ErrConflict   = errors.New("conflict")
)

// DenyReason explains why access was refused, so the caller can render the
// right remedy (trial countdown, billing portal, re-subscribe).
type DenyReason string

const (
	DenyTrialExpired   DenyReason = "trial_expired"
	DenyNoSubscription DenyReason = "no_subscription"
	DenyPaymentPastDue DenyReason = "payment_past_due"
	DenyCanceled       DenyReason = "canceled"
)

// AccessDeniedError is returned when the subscription state refuses a request.
type AccessDeniedError struct {
	Reason DenyReason
}

func (e *AccessDeniedError) Error() string {
	return fmt.Sprintf("access denied: %s", e.Reason)
}

// Quota resources.
const (
	ResourceQueries   = "queries"
	ResourceContracts = "contracts"
)

// QuotaExceededError is returned when a plan limit is exhausted. Distinct from
// AccessDeniedError: the remedy is an upgrade or waiting for the next period.
type QuotaExceededError struct {
	Resource string
}

func (e *QuotaExceededError) Error() string {
	return fmt.Sprintf("quota exceeded: %s", e.Resource)
}

// GenerationError wraps a failure of the upstream AI provider. It is the only
// retryable error crossing the service boundary, and its result is never cached.
type GenerationError struct {
	Err error
}

func (e *GenerationError) Error() string {
	return fmt.Sprintf("answer generation failed: %v", e.Err)
}

func (e *GenerationError) Unwrap() error { return e.Err }
