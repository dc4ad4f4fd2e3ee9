package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/unionlens/contract-assistant/internal/access"
	"github.com/unionlens/contract-assistant/internal/cache"
	"github.com/unionlens/contract-assistant/internal/genai"
	"github.com/unionlens/contract-assistant/internal/model"
	"github.com/unionlens/contract-assistant/internal/plan"
	"github.com/unionlens/contract-assistant/internal/services"
	"github.com/unionlens/contract-assistant/internal/store/storetest"
	"github.com/unionlens/contract-assistant/internal/usage"
)

var testNow = time.Date(2026, 3, 15, 12, 0, 0, 0, time.UTC)

type stubGenerator struct {
	answer string
	err    error
	calls  int
}

func (g *stubGenerator) GenerateAnswer(_ context.Context, _, _ string, _ plan.Tier) (string, error) {
	g.calls++
	if g.err != nil {
		return "", g.err
	}
	return g.answer, nil
}

func newTestRouter(fs *storetest.Fake, gen genai.Generator) http.Handler {
	log := zerolog.Nop()
	clock := func() time.Time { return testNow }
	resolver := access.NewResolver(fs, log).WithClock(clock)
	meter := usage.NewMeter(fs, resolver, log).WithClock(clock)
	rc := cache.New(fs, log).WithClock(clock)
	assistant := services.NewAssistantService(fs, rc, resolver, meter, gen, log)
	return NewRouter(Deps{
		Users:     services.NewUserService(fs),
		Assistant: assistant,
		Resolver:  resolver,
		Log:       log,
	})
}

func doJSON(t *testing.T, h http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

func seedActiveUser(fs *storetest.Fake, userID, planID string) {
	fs.SeedUser(&model.User{
		UserID:             userID,
		Email:              userID + "@example.com",
		SubscriptionStatus: model.StatusActive,
		PlanID:             planID,
	})
}

func TestCreateAndGetUser(t *testing.T) {
	fs := storetest.NewFake()
	h := newTestRouter(fs, &stubGenerator{answer: "ok"})

	rr := doJSON(t, h, http.MethodPost, "/v0/users", map[string]any{
		"userId": "alice",
		"email":  "alice@example.com",
	})
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())

	rr = doJSON(t, h, http.MethodGet, "/v0/users/alice", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	var u model.User
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &u))
	assert.Equal(t, "alice", u.UserID)
}

func TestCreateUser_RejectsBadInput(t *testing.T) {
	h := newTestRouter(storetest.NewFake(), &stubGenerator{})

	rr := doJSON(t, h, http.MethodPost, "/v0/users", map[string]any{
		"userId": "Not Valid!", "email": "alice@example.com",
	})
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	rr = doJSON(t, h, http.MethodPost, "/v0/users", map[string]any{
		"userId": "alice", "email": "nope",
	})
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestGetUser_NotFound(t *testing.T) {
	h := newTestRouter(storetest.NewFake(), &stubGenerator{})
	rr := doJSON(t, h, http.MethodGet, "/v0/users/ghost", nil)
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestUploadAndQueryContract(t *testing.T) {
	fs := storetest.NewFake()
	seedActiveUser(fs, "alice", plan.PlanStandard)
	gen := &stubGenerator{answer: "Overtime is paid at 1.5x."}
	h := newTestRouter(fs, gen)

	rr := doJSON(t, h, http.MethodPost, "/v0/users/alice/contracts", map[string]any{
		"title": "Local 100 CBA",
		"text":  "Article 12: overtime at time and a half.",
	})
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	var c model.Contract
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &c))
	require.NotEmpty(t, c.ContractID)

	rr = doJSON(t, h, http.MethodPost, "/v0/users/alice/contracts/"+c.ContractID+"/query", map[string]any{
		"question": "What is the overtime rate?",
	})
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	var out map[string]string
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &out))
	assert.Equal(t, "Overtime is paid at 1.5x.", out["answer"])

	// The same question again is served from cache.
	rr = doJSON(t, h, http.MethodPost, "/v0/users/alice/contracts/"+c.ContractID+"/query", map[string]any{
		"question": "  what is the OVERTIME rate?",
	})
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, 1, gen.calls)
}

func TestQueryContract_AccessDenied(t *testing.T) {
	fs := storetest.NewFake()
	ends := testNow.Add(-24 * time.Hour)
	fs.SeedUser(&model.User{
		UserID:             "bob",
		Email:              "bob@example.com",
		SubscriptionStatus: model.StatusTrial,
		PlanID:             plan.PlanStandard,
		TrialEndsAt:        &ends,
	})
	h := newTestRouter(fs, &stubGenerator{answer: "x"})

	rr := doJSON(t, h, http.MethodPost, "/v0/users/bob/contracts/00000000-0000-0000-0000-000000000001/query", map[string]any{
		"question": "anything",
	})
	require.Equal(t, http.StatusForbidden, rr.Code, rr.Body.String())
	var er map[string]any
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &er))
	assert.Equal(t, "trial_expired", er["reason"])
}

func TestQueryContract_PastDueGets402(t *testing.T) {
	fs := storetest.NewFake()
	seedActiveUser(fs, "carol", plan.PlanBasic)
	h := newTestRouter(fs, &stubGenerator{answer: "x"})

	rr := doJSON(t, h, http.MethodPost, "/v0/billing/events", map[string]any{
		"userId": "carol",
		"type":   model.EventPaymentFailed,
	})
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	rr = doJSON(t, h, http.MethodPost, "/v0/users/carol/contracts/00000000-0000-0000-0000-000000000001/query", map[string]any{
		"question": "anything",
	})
	require.Equal(t, http.StatusPaymentRequired, rr.Code, rr.Body.String())
	var er map[string]any
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &er))
	assert.Equal(t, "payment_past_due", er["reason"])
}

func TestQueryContract_QuotaExceededGets429(t *testing.T) {
	fs := storetest.NewFake()
	seedActiveUser(fs, "dave", plan.PlanBasic)
	for i := 0; i < 20; i++ {
		fs.SeedMessage("dave", "c1", model.RoleUser, testNow.Add(-time.Hour))
	}
	h := newTestRouter(fs, &stubGenerator{answer: "x"})

	rr := doJSON(t, h, http.MethodPost, "/v0/users/dave/contracts/00000000-0000-0000-0000-000000000001/query", map[string]any{
		"question": "one more",
	})
	require.Equal(t, http.StatusTooManyRequests, rr.Code, rr.Body.String())
	var er map[string]any
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &er))
	assert.Equal(t, model.ResourceQueries, er["resource"])
}

func TestQueryContract_GenerationFailureGets502(t *testing.T) {
	fs := storetest.NewFake()
	seedActiveUser(fs, "erin", plan.PlanStandard)
	gen := &stubGenerator{err: &model.GenerationError{Err: assert.AnError}}
	h := newTestRouter(fs, gen)

	rr := doJSON(t, h, http.MethodPost, "/v0/users/erin/contracts", map[string]any{
		"title": "CBA", "text": "text",
	})
	require.Equal(t, http.StatusCreated, rr.Code)
	var c model.Contract
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &c))

	rr = doJSON(t, h, http.MethodPost, "/v0/users/erin/contracts/"+c.ContractID+"/query", map[string]any{
		"question": "anything",
	})
	assert.Equal(t, http.StatusBadGateway, rr.Code, rr.Body.String())
}

func TestUploadContract_CapGets429(t *testing.T) {
	fs := storetest.NewFake()
	seedActiveUser(fs, "frank", plan.PlanBasic)
	h := newTestRouter(fs, &stubGenerator{})

	rr := doJSON(t, h, http.MethodPost, "/v0/users/frank/contracts", map[string]any{
		"title": "First", "text": "text",
	})
	require.Equal(t, http.StatusCreated, rr.Code)

	rr = doJSON(t, h, http.MethodPost, "/v0/users/frank/contracts", map[string]any{
		"title": "Second", "text": "text",
	})
	require.Equal(t, http.StatusTooManyRequests, rr.Code, rr.Body.String())
	var er map[string]any
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &er))
	assert.Equal(t, model.ResourceContracts, er["resource"])
}

func TestGetLimits(t *testing.T) {
	fs := storetest.NewFake()
	seedActiveUser(fs, "grace", plan.PlanPremium)
	h := newTestRouter(fs, &stubGenerator{})

	rr := doJSON(t, h, http.MethodGet, "/v0/users/grace/limits", nil)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	var snap usage.Snapshot
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &snap))
	assert.Equal(t, plan.PlanPremium, snap.PlanID)
	assert.Equal(t, int64(-1), snap.MaxQueries)
	assert.Equal(t, "premium", snap.ModelTier)
}

func TestListMessages(t *testing.T) {
	fs := storetest.NewFake()
	seedActiveUser(fs, "henry", plan.PlanStandard)
	fs.SeedMessage("henry", "00000000-0000-0000-0000-00000000000a", model.RoleUser, testNow.Add(-2*time.Minute))
	fs.SeedMessage("henry", "00000000-0000-0000-0000-00000000000a", model.RoleAssistant, testNow.Add(-time.Minute))
	h := newTestRouter(fs, &stubGenerator{})

	rr := doJSON(t, h, http.MethodGet, "/v0/users/henry/contracts/00000000-0000-0000-0000-00000000000a/messages", nil)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	var out struct {
		Count    int                  `json:"count"`
		Messages []*model.ChatMessage `json:"messages"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &out))
	assert.Equal(t, 2, out.Count)
}

func TestBillingEvent_SubscriptionUpdatedStatus(t *testing.T) {
	fs := storetest.NewFake()
	seedActiveUser(fs, "judy", plan.PlanStandard)
	h := newTestRouter(fs, &stubGenerator{})

	rr := doJSON(t, h, http.MethodPost, "/v0/billing/events", map[string]any{
		"userId": "judy",
		"type":   model.EventSubscriptionUpdated,
		"status": "past_due",
	})
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	u, err := fs.Users().Get(context.Background(), "judy")
	require.NoError(t, err)
	assert.Equal(t, model.StatusPastDue, u.SubscriptionStatus)

	// An unrecognized provider status is rejected.
	rr = doJSON(t, h, http.MethodPost, "/v0/billing/events", map[string]any{
		"userId": "judy",
		"type":   model.EventSubscriptionUpdated,
		"status": "paused",
	})
	assert.Equal(t, http.StatusBadRequest, rr.Code, rr.Body.String())
}

func TestBillingEvent_UnknownTypeRejected(t *testing.T) {
	fs := storetest.NewFake()
	seedActiveUser(fs, "iris", plan.PlanStandard)
	h := newTestRouter(fs, &stubGenerator{})

	rr := doJSON(t, h, http.MethodPost, "/v0/billing/events", map[string]any{
		"userId": "iris",
		"type":   "totally_new_event",
	})
	assert.Equal(t, http.StatusBadRequest, rr.Code, rr.Body.String())
}

func TestHealth(t *testing.T) {
	h := newTestRouter(storetest.NewFake(), &stubGenerator{})
	rr := doJSON(t, h, http.MethodGet, "/v0/health", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), "healthy")
}
