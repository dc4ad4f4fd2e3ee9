package services

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/unionlens/contract-assistant/internal/access"
	"github.com/unionlens/contract-assistant/internal/cache"
	"github.com/unionlens/contract-assistant/internal/genai"
	"github.com/unionlens/contract-assistant/internal/model"
	"github.com/unionlens/contract-assistant/internal/store"
	"github.com/unionlens/contract-assistant/internal/usage"
)

// AssistantService is the single entry point combining cache, access control,
// and metering in front of the AI provider.
//
// Only AccessDeniedError, QuotaExceededError, and GenerationError cross this
// boundary to the caller; cache and accounting plumbing errors are absorbed
// with logging.
type AssistantService struct {
	store    store.Store
	cache    *cache.ResponseCache
	resolver *access.Resolver
	meter    *usage.Meter
	gen      genai.Generator
	log      zerolog.Logger
}

func NewAssistantService(s store.Store, c *cache.ResponseCache, r *access.Resolver, m *usage.Meter, g genai.Generator, log zerolog.Logger) *AssistantService {
	return &AssistantService{store: s, cache: c, resolver: r, meter: m, gen: g, log: log}
}

// QueryContract answers a question about one contract. A fresh cached answer
// is replayed without touching access control, quota, or the AI provider; a
// miss runs the full gate sequence before generating.
func (s *AssistantService) QueryContract(ctx context.Context, userID, contractID, question string) (string, error) {
	if answer, ok := s.cache.Get(ctx, contractID, question); ok {
		return answer, nil
	}

	d, err := s.resolver.Check(ctx, userID)
	if err != nil {
		return "", fmt.Errorf("resolve access: %w", err)
	}
	if !d.Allowed {
		return "", d.Err()
	}

	ok, err := s.meter.CanQuery(ctx, userID)
	if err != nil {
		// Accounting unavailable: fail closed rather than allow unmetered use.
		s.log.Warn().Err(err).Str("user", userID).Msg("query accounting unavailable, denying")
		return "", &model.QuotaExceededError{Resource: model.ResourceQueries}
	}
	if !ok {
		return "", &model.QuotaExceededError{Resource: model.ResourceQueries}
	}

	contract, err := s.store.Contracts().Get(ctx, userID, contractID)
	if err != nil {
		return "", fmt.Errorf("load contract: %w", err)
	}

	// The question is recorded before generation, so a failed attempt still
	// counts against quota (matching the billing semantics of the product).
	if _, err := s.store.Messages().Create(ctx, &model.ChatMessage{
		UserID: userID, ContractID: contractID, Role: model.RoleUser, Content: question,
	}); err != nil {
		return "", fmt.Errorf("record question: %w", err)
	}

	answer, err := s.gen.GenerateAnswer(ctx, contract.Text, question, d.Limits.ModelTier)
	if err != nil {
		// Never cache a failure; the caller may retry.
		return "", err
	}

	if _, err := s.store.Messages().Create(ctx, &model.ChatMessage{
		UserID: userID, ContractID: contractID, Role: model.RoleAssistant, Content: answer,
	}); err != nil {
		s.log.Warn().Err(err).Str("user", userID).Msg("failed to record assistant reply")
	}

	s.cache.Put(ctx, contractID, question, answer)
	return answer, nil
}

// UploadContract stores a contract after checking the plan's contract cap.
func (s *AssistantService) UploadContract(ctx context.Context, c *model.Contract) (*model.Contract, error) {
	d, err := s.resolver.Check(ctx, c.UserID)
	if err != nil {
		return nil, fmt.Errorf("resolve access: %w", err)
	}
	if !d.Allowed {
		return nil, d.Err()
	}

	ok, err := s.meter.CanUploadContract(ctx, c.UserID)
	if err != nil {
		s.log.Warn().Err(err).Str("user", c.UserID).Msg("contract accounting unavailable, denying")
		return nil, &model.QuotaExceededError{Resource: model.ResourceContracts}
	}
	if !ok {
		return nil, &model.QuotaExceededError{Resource: model.ResourceContracts}
	}

	return s.store.Contracts().Create(ctx, c)
}

// EffectiveLimits returns the user's plan limits and current usage for status
// surfaces. It does not require the user to be in an allowed state: an
// expired-trial user still sees their numbers next to the upgrade prompt.
func (s *AssistantService) EffectiveLimits(ctx context.Context, userID string) (*usage.Snapshot, error) {
	return s.meter.Usage(ctx, userID)
}

// ListMessages returns recent chat history for a contract conversation.
func (s *AssistantService) ListMessages(ctx context.Context, userID, contractID string, limit int) ([]*model.ChatMessage, error) {
	return s.store.Messages().List(ctx, userID, contractID, limit)
}
