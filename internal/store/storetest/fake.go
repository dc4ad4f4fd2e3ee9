// Package storetest provides an in-memory store.Store for unit tests and a
// compliance suite that driver implementations run against.
package storetest

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/unionlens/contract-assistant/internal/model"
	"github.com/unionlens/contract-assistant/internal/store"
)

// Fake is an in-memory store.Store with error-injection knobs. Safe for
// concurrent use.
type Fake struct {
	mu sync.Mutex

	users    map[string]*model.User
	conts    map[string]*model.Contract
	msgs     []*model.ChatMessage
	entries  map[string]*model.CacheEntry
	stats    map[string]*model.CacheStat
	EntryErr error // returned by all CacheEntries ops when set
	StatErr  error // returned by all CacheStats ops when set
	CountErr error // returned by Messages.CountSince / Contracts.CountForUser
}

func NewFake() *Fake {
	return &Fake{
		users:   map[string]*model.User{},
		conts:   map[string]*model.Contract{},
		entries: map[string]*model.CacheEntry{},
		stats:   map[string]*model.CacheStat{},
	}
}

func (f *Fake) Users() store.Users               { return fakeUsers{f} }
func (f *Fake) Contracts() store.Contracts       { return fakeContracts{f} }
func (f *Fake) Messages() store.Messages         { return fakeMessages{f} }
func (f *Fake) CacheEntries() store.CacheEntries { return fakeEntries{f} }
func (f *Fake) CacheStats() store.CacheStats     { return fakeStats{f} }

// SeedUser installs a user directly, bypassing Create.
func (f *Fake) SeedUser(u *model.User) {
	f.mu.Lock()
	defer f.mu.Unlock()
	cp := *u
	f.users[u.UserID] = &cp
}

// SeedMessage installs a chat message with an explicit creation time.
func (f *Fake) SeedMessage(userID, contractID, role string, at time.Time) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.msgs = append(f.msgs, &model.ChatMessage{
		UserID: userID, ContractID: contractID, Role: role, CreationTime: at,
	})
}

// AllMessages returns a copy of all stored messages, oldest first.
func (f *Fake) AllMessages() []*model.ChatMessage {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]*model.ChatMessage, len(f.msgs))
	copy(out, f.msgs)
	sort.Slice(out, func(i, j int) bool { return out[i].CreationTime.Before(out[j].CreationTime) })
	return out
}

// EntryCount reports the number of live cache entries.
func (f *Fake) EntryCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.entries)
}

type fakeUsers struct{ f *Fake }

func (s fakeUsers) Create(_ context.Context, u *model.User) (*model.User, error) {
	s.f.mu.Lock()
	defer s.f.mu.Unlock()
	if _, ok := s.f.users[u.UserID]; ok {
		return nil, model.ErrConflict
	}
	cp := *u
	if cp.CreationTime.IsZero() {
		cp.CreationTime = time.Now().UTC()
	}
	s.f.users[u.UserID] = &cp
	out := cp
	return &out, nil
}

func (s fakeUsers) Get(_ context.Context, userID string) (*model.User, error) {
	s.f.mu.Lock()
	defer s.f.mu.Unlock()
	u, ok := s.f.users[userID]
	if !ok {
		return nil, model.ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (s fakeUsers) UpdateSubscription(_ context.Context, userID string, upd model.SubscriptionUpdate) error {
	s.f.mu.Lock()
	defer s.f.mu.Unlock()
	u, ok := s.f.users[userID]
	if !ok {
		return model.ErrNotFound
	}
	if upd.Status != nil {
		u.SubscriptionStatus = *upd.Status
	}
	if upd.PlanID != nil {
		u.PlanID = *upd.PlanID
	}
	if upd.TrialEndsAt != nil {
		t := *upd.TrialEndsAt
		u.TrialEndsAt = &t
	}
	if upd.CurrentPeriodEnd != nil {
		t := *upd.CurrentPeriodEnd
		u.CurrentPeriodEnd = &t
	}
	if upd.StripeSubscriptionID != nil {
		id := *upd.StripeSubscriptionID
		u.StripeSubscriptionID = &id
	}
	return nil
}

func (s fakeUsers) List(_ context.Context) ([]*model.User, error) {
	s.f.mu.Lock()
	defer s.f.mu.Unlock()
	out := make([]*model.User, 0, len(s.f.users))
	for _, u := range s.f.users {
		cp := *u
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UserID < out[j].UserID })
	return out, nil
}

type fakeContracts struct{ f *Fake }

func (s fakeContracts) Create(_ context.Context, c *model.Contract) (*model.Contract, error) {
	s.f.mu.Lock()
	defer s.f.mu.Unlock()
	cp := *c
	if cp.ContractID == "" {
		cp.ContractID = uuid.New().String()
	}
	if cp.CreationTime.IsZero() {
		cp.CreationTime = time.Now().UTC()
	}
	s.f.conts[cp.ContractID] = &cp
	out := cp
	return &out, nil
}

func (s fakeContracts) Get(_ context.Context, userID, contractID string) (*model.Contract, error) {
	s.f.mu.Lock()
	defer s.f.mu.Unlock()
	c, ok := s.f.conts[contractID]
	if !ok || c.UserID != userID {
		return nil, model.ErrNotFound
	}
	cp := *c
	return &cp, nil
}

func (s fakeContracts) CountForUser(_ context.Context, userID string) (int64, error) {
	if s.f.CountErr != nil {
		return 0, s.f.CountErr
	}
	s.f.mu.Lock()
	defer s.f.mu.Unlock()
	var n int64
	for _, c := range s.f.conts {
		if c.UserID == userID {
			n++
		}
	}
	return n, nil
}

type fakeMessages struct{ f *Fake }

func (s fakeMessages) Create(_ context.Context, m *model.ChatMessage) (*model.ChatMessage, error) {
	s.f.mu.Lock()
	defer s.f.mu.Unlock()
	cp := *m
	if cp.MessageID == "" {
		cp.MessageID = uuid.New().String()
	}
	if cp.CreationTime.IsZero() {
		cp.CreationTime = time.Now().UTC()
	}
	s.f.msgs = append(s.f.msgs, &cp)
	out := cp
	return &out, nil
}

func (s fakeMessages) List(_ context.Context, userID, contractID string, limit int) ([]*model.ChatMessage, error) {
	s.f.mu.Lock()
	defer s.f.mu.Unlock()
	var out []*model.ChatMessage
	for _, m := range s.f.msgs {
		if m.UserID == userID && m.ContractID == contractID {
			cp := *m
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreationTime.After(out[j].CreationTime) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s fakeMessages) CountSince(_ context.Context, userID string, since time.Time, role string) (int64, error) {
	if s.f.CountErr != nil {
		return 0, s.f.CountErr
	}
	s.f.mu.Lock()
	defer s.f.mu.Unlock()
	var n int64
	for _, m := range s.f.msgs {
		if m.UserID == userID && m.Role == role && !m.CreationTime.Before(since) {
			n++
		}
	}
	return n, nil
}

func (s fakeMessages) DeleteOlderThan(_ context.Context, userID string, cutoff time.Time) (int64, error) {
	s.f.mu.Lock()
	defer s.f.mu.Unlock()
	kept := s.f.msgs[:0]
	var deleted int64
	for _, m := range s.f.msgs {
		if m.UserID == userID && m.CreationTime.Before(cutoff) {
			deleted++
			continue
		}
		kept = append(kept, m)
	}
	s.f.msgs = kept
	return deleted, nil
}

type fakeEntries struct{ f *Fake }

func (s fakeEntries) Get(_ context.Context, key string) (*model.CacheEntry, error) {
	if s.f.EntryErr != nil {
		return nil, s.f.EntryErr
	}
	s.f.mu.Lock()
	defer s.f.mu.Unlock()
	e, ok := s.f.entries[key]
	if !ok {
		return nil, model.ErrNotFound
	}
	cp := *e
	return &cp, nil
}

func (s fakeEntries) Upsert(_ context.Context, e *model.CacheEntry) error {
	if s.f.EntryErr != nil {
		return s.f.EntryErr
	}
	s.f.mu.Lock()
	defer s.f.mu.Unlock()
	cp := *e
	s.f.entries[e.Key] = &cp
	return nil
}

func (s fakeEntries) Delete(_ context.Context, key string) error {
	if s.f.EntryErr != nil {
		return s.f.EntryErr
	}
	s.f.mu.Lock()
	defer s.f.mu.Unlock()
	delete(s.f.entries, key)
	return nil
}

func (s fakeEntries) DeleteOlderThan(_ context.Context, cutoff time.Time) (int64, error) {
	if s.f.EntryErr != nil {
		return 0, s.f.EntryErr
	}
	s.f.mu.Lock()
	defer s.f.mu.Unlock()
	var n int64
	for k, e := range s.f.entries {
		if e.CreationTime.Before(cutoff) {
			delete(s.f.entries, k)
			n++
		}
	}
	return n, nil
}

type fakeStats struct{ f *Fake }

func (s fakeStats) IncrHit(_ context.Context, day string) error {
	if s.f.StatErr != nil {
		return s.f.StatErr
	}
	s.f.mu.Lock()
	defer s.f.mu.Unlock()
	st := s.f.stats[day]
	if st == nil {
		st = &model.CacheStat{Day: day}
		s.f.stats[day] = st
	}
	st.Hits++
	return nil
}

func (s fakeStats) IncrMiss(_ context.Context, day string) error {
	if s.f.StatErr != nil {
		return s.f.StatErr
	}
	s.f.mu.Lock()
	defer s.f.mu.Unlock()
	st := s.f.stats[day]
	if st == nil {
		st = &model.CacheStat{Day: day}
		s.f.stats[day] = st
	}
	st.Misses++
	return nil
}

func (s fakeStats) Get(_ context.Context, day string) (*model.CacheStat, error) {
	if s.f.StatErr != nil {
		return nil, s.f.StatErr
	}
	s.f.mu.Lock()
	defer s.f.mu.Unlock()
	st, ok := s.f.stats[day]
	if !ok {
		return nil, model.ErrNotFound
	}
	cp := *st
	return &cp, nil
}
