package api

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/unionlens/contract-assistant/internal/api/respond"
	"github.com/unionlens/contract-assistant/internal/api/validate"
	"github.com/unionlens/contract-assistant/internal/model"
	"github.com/unionlens/contract-assistant/internal/services"
)

// AssistantHandler exposes contract upload, querying, chat history, and the
// usage/limits surface.
type AssistantHandler struct {
	svc *services.AssistantService
}

func NewAssistantHandler(svc *services.AssistantService) *AssistantHandler {
	return &AssistantHandler{svc: svc}
}

// UploadContract handles POST /v0/users/{userId}/contracts.
func (h *AssistantHandler) UploadContract(w http.ResponseWriter, r *http.Request) {
	userID := mux.Vars(r)["userId"]
	var in struct {
		Title string `json:"title"`
		Text  string `json:"text"`
	}
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		respond.WriteBadRequest(w, "invalid json")
		return
	}
	if err := validate.UploadContract(in.Title, in.Text); err != nil {
		respond.WriteBadRequest(w, err.Error())
		return
	}
	out, err := h.svc.UploadContract(r.Context(), &model.Contract{
		UserID: userID,
		Title:  in.Title,
		Text:   in.Text,
	})
	if err != nil {
		respond.WriteDomainError(w, err)
		return
	}
	respond.WriteJSON(w, http.StatusCreated, out)
}

// QueryContract handles POST /v0/users/{userId}/contracts/{contractId}/query.
func (h *AssistantHandler) QueryContract(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	userID, contractID := vars["userId"], vars["contractId"]
	var in struct {
		Question string `json:"question"`
	}
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		respond.WriteBadRequest(w, "invalid json")
		return
	}
	if err := validate.Question(in.Question); err != nil {
		respond.WriteBadRequest(w, err.Error())
		return
	}
	answer, err := h.svc.QueryContract(r.Context(), userID, contractID, in.Question)
	if err != nil {
		respond.WriteDomainError(w, err)
		return
	}
	respond.WriteJSON(w, http.StatusOK, map[string]string{"answer": answer})
}

// ListMessages handles GET /v0/users/{userId}/contracts/{contractId}/messages.
func (h *AssistantHandler) ListMessages(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	limit := 0
	if s := r.URL.Query().Get("limit"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n < 0 {
			respond.WriteBadRequest(w, "limit must be a non-negative integer")
			return
		}
		limit = n
	}
	msgs, err := h.svc.ListMessages(r.Context(), vars["userId"], vars["contractId"], limit)
	if err != nil {
		respond.WriteDomainError(w, err)
		return
	}
	respond.WriteJSON(w, http.StatusOK, map[string]any{"messages": msgs, "count": len(msgs)})
}

// GetLimits handles GET /v0/users/{userId}/limits.
func (h *AssistantHandler) GetLimits(w http.ResponseWriter, r *http.Request) {
	snap, err := h.svc.EffectiveLimits(r.Context(), mux.Vars(r)["userId"])
	if err != nil {
		respond.WriteDomainError(w, err)
		return
	}
	respond.WriteJSON(w, http.StatusOK, snap)
}
