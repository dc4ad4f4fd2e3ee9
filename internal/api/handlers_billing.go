package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/unionlens/contract-assistant/internal/access"
	"github.com/unionlens/contract-assistant/internal/api/respond"
	"github.com/unionlens/contract-assistant/internal/api/validate"
	"github.com/unionlens/contract-assistant/internal/model"
)

// BillingHandler ingests already-verified billing provider events. Webhook
// signature verification happens at the edge, before this service.
type BillingHandler struct {
	resolver *access.Resolver
}

func NewBillingHandler(r *access.Resolver) *BillingHandler { return &BillingHandler{resolver: r} }

// HandleEvent handles POST /v0/billing/events.
func (h *BillingHandler) HandleEvent(w http.ResponseWriter, r *http.Request) {
	var in struct {
		UserID         string     `json:"userId"`
		Type           string     `json:"type"`
		SubscriptionID string     `json:"subscriptionId,omitempty"`
		PlanID         string     `json:"planId,omitempty"`
		PeriodEnd      *time.Time `json:"periodEnd,omitempty"`
		Status         string     `json:"status,omitempty"`
	}
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		respond.WriteBadRequest(w, "invalid json")
		return
	}
	if err := validate.NonEmpty("userId", in.UserID); err != nil {
		respond.WriteBadRequest(w, err.Error())
		return
	}
	if err := validate.NonEmpty("type", in.Type); err != nil {
		respond.WriteBadRequest(w, err.Error())
		return
	}

	ev := model.BillingEvent{
		Type:           in.Type,
		SubscriptionID: in.SubscriptionID,
		PlanID:         in.PlanID,
		PeriodEnd:      in.PeriodEnd,
		ProviderStatus: in.Status,
	}
	if err := h.resolver.ApplyBillingEvent(r.Context(), in.UserID, ev); err != nil {
		respond.WriteDomainError(w, err)
		return
	}
	respond.WriteJSON(w, http.StatusOK, map[string]string{"status": "applied"})
}
