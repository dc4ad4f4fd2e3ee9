package storetest

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/unionlens/contract-assistant/internal/model"
	"github.com/unionlens/contract-assistant/internal/store"
)

// Run exercises a minimal compliance suite against a store.Store
// implementation. Implementations should provide a clean, isolated store and
// return it from makeStore.
func Run(t *testing.T, makeStore func(t *testing.T) store.Store) {
	t.Helper()

	s := makeStore(t)
	ctx := context.Background()

	userID := "u-" + uuid.New().String()
	email := userID + "@example.test"

	// Users
	u := &model.User{UserID: userID, Email: email, PlanID: "standard"}
	if _, err := s.Users().Create(ctx, u); err != nil {
		t.Fatalf("CreateUser: %v", err)
	}
	if got, err := s.Users().Get(ctx, userID); err != nil || got == nil || got.UserID != userID {
		t.Fatalf("GetUser: got=%v err=%v", got, err)
	}

	// UpdateSubscription applies only non-nil fields
	st := model.StatusTrial
	ends := time.Now().UTC().Add(7 * 24 * time.Hour).Truncate(time.Second)
	if err := s.Users().UpdateSubscription(ctx, userID, model.SubscriptionUpdate{Status: &st, TrialEndsAt: &ends}); err != nil {
		t.Fatalf("UpdateSubscription: %v", err)
	}
	got, err := s.Users().Get(ctx, userID)
	if err != nil || got.SubscriptionStatus != model.StatusTrial {
		t.Fatalf("GetUser after update: got=%+v err=%v", got, err)
	}
	if got.PlanID != "standard" {
		t.Fatalf("UpdateSubscription clobbered planId: %q", got.PlanID)
	}
	if got.TrialEndsAt == nil || !got.TrialEndsAt.Equal(ends) {
		t.Fatalf("trialEndsAt mismatch: %v want %v", got.TrialEndsAt, ends)
	}

	if lst, err := s.Users().List(ctx); err != nil || len(lst) == 0 {
		t.Fatalf("ListUsers: n=%d err=%v", len(lst), err)
	}

	// Contracts
	c, err := s.Contracts().Create(ctx, &model.Contract{UserID: userID, Title: "CBA 2026", Text: "Article 12: sick leave..."})
	if err != nil {
		t.Fatalf("CreateContract: %v", err)
	}
	if c.ContractID == "" {
		t.Fatalf("CreateContract: empty contract id")
	}
	if got, err := s.Contracts().Get(ctx, userID, c.ContractID); err != nil || got.Title != "CBA 2026" {
		t.Fatalf("GetContract: got=%v err=%v", got, err)
	}
	if n, err := s.Contracts().CountForUser(ctx, userID); err != nil || n != 1 {
		t.Fatalf("CountForUser: n=%d err=%v", n, err)
	}

	// Messages
	if _, err := s.Messages().Create(ctx, &model.ChatMessage{UserID: userID, ContractID: c.ContractID, Role: model.RoleUser, Content: "how many sick days?"}); err != nil {
		t.Fatalf("CreateMessage: %v", err)
	}
	if _, err := s.Messages().Create(ctx, &model.ChatMessage{UserID: userID, ContractID: c.ContractID, Role: model.RoleAssistant, Content: "ten per year"}); err != nil {
		t.Fatalf("CreateMessage: %v", err)
	}
	monthAgo := time.Now().UTC().AddDate(0, -1, 0)
	if n, err := s.Messages().CountSince(ctx, userID, monthAgo, model.RoleUser); err != nil || n != 1 {
		t.Fatalf("CountSince user role: n=%d err=%v", n, err)
	}
	if lst, err := s.Messages().List(ctx, userID, c.ContractID, 10); err != nil || len(lst) != 2 {
		t.Fatalf("ListMessages: n=%d err=%v", len(lst), err)
	}
	if n, err := s.Messages().DeleteOlderThan(ctx, userID, monthAgo); err != nil || n != 0 {
		t.Fatalf("DeleteOlderThan (nothing old): n=%d err=%v", n, err)
	}

	// Cache entries: upsert semantics
	key := "k-" + uuid.New().String()
	e := &model.CacheEntry{Key: key, ContractID: c.ContractID, QueryText: "q", ResponseText: "r1", CreationTime: time.Now().UTC()}
	if err := s.CacheEntries().Upsert(ctx, e); err != nil {
		t.Fatalf("Upsert insert: %v", err)
	}
	e.ResponseText = "r2"
	if err := s.CacheEntries().Upsert(ctx, e); err != nil {
		t.Fatalf("Upsert replace: %v", err)
	}
	if got, err := s.CacheEntries().Get(ctx, key); err != nil || got.ResponseText != "r2" {
		t.Fatalf("Get after upsert: got=%v err=%v", got, err)
	}
	if err := s.CacheEntries().Delete(ctx, key); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := s.CacheEntries().Get(ctx, key); err != model.ErrNotFound {
		t.Fatalf("Get after delete: want ErrNotFound, got %v", err)
	}
	// Deleting an absent key is a no-op
	if err := s.CacheEntries().Delete(ctx, key); err != nil {
		t.Fatalf("Delete absent: %v", err)
	}

	// DeleteOlderThan removes only stale rows
	old := &model.CacheEntry{Key: "old-" + key, ContractID: c.ContractID, QueryText: "q", ResponseText: "r", CreationTime: time.Now().UTC().Add(-8 * 24 * time.Hour)}
	fresh := &model.CacheEntry{Key: "fresh-" + key, ContractID: c.ContractID, QueryText: "q", ResponseText: "r", CreationTime: time.Now().UTC()}
	if err := s.CacheEntries().Upsert(ctx, old); err != nil {
		t.Fatalf("Upsert old: %v", err)
	}
	if err := s.CacheEntries().Upsert(ctx, fresh); err != nil {
		t.Fatalf("Upsert fresh: %v", err)
	}
	if n, err := s.CacheEntries().DeleteOlderThan(ctx, time.Now().UTC().Add(-7*24*time.Hour)); err != nil || n != 1 {
		t.Fatalf("DeleteOlderThan: n=%d err=%v", n, err)
	}
	if _, err := s.CacheEntries().Get(ctx, fresh.Key); err != nil {
		t.Fatalf("fresh entry removed by sweep: %v", err)
	}

	// Cache stats
	day := time.Now().UTC().Format("2006-01-02")
	if err := s.CacheStats().IncrHit(ctx, day); err != nil {
		t.Fatalf("IncrHit: %v", err)
	}
	if err := s.CacheStats().IncrMiss(ctx, day); err != nil {
		t.Fatalf("IncrMiss: %v", err)
	}
	if err := s.CacheStats().IncrMiss(ctx, day); err != nil {
		t.Fatalf("IncrMiss: %v", err)
	}
	if stc, err := s.CacheStats().Get(ctx, day); err != nil || stc.Hits < 1 || stc.Misses < 2 {
		t.Fatalf("CacheStats.Get: got=%+v err=%v", stc, err)
	}
}
