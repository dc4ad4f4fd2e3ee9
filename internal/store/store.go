package store

import (
	"context"
	"time"

	"github.com/unionlens/contract-assistant/internal/model"
)

// Store exposes persistence operations required by services.
// Implementations live under internal/store/<driver>/ (e.g., postgres, sqlite).
//
// All mutations on cache entries and cache stats are single-statement atomic
// upserts or deletes so concurrent callers cannot lose updates.
type Store interface {
	Users() Users
	Contracts() Contracts
	Messages() Messages
	CacheEntries() CacheEntries
	CacheStats() CacheStats
}

type Users interface {
	Create(ctx context.Context, u *model.User) (*model.User, error)
	Get(ctx context.Context, userID string) (*model.User, error)
	// UpdateSubscription applies only the non-nil fields of upd.
	UpdateSubscription(ctx context.Context, userID string, upd model.SubscriptionUpdate) error
	List(ctx context.Context) ([]*model.User, error)
}

type Contracts interface {
	Create(ctx context.Context, c *model.Contract) (*model.Contract, error)
	Get(ctx context.Context, userID, contractID string) (*model.Contract, error)
	CountForUser(ctx context.Context, userID string) (int64, error)
}

type Messages interface {
	Create(ctx context.Context, m *model.ChatMessage) (*model.ChatMessage, error)
	List(ctx context.Context, userID, contractID string, limit int) ([]*model.ChatMessage, error)
	// CountSince counts messages with the given role created at or after since.
	CountSince(ctx context.Context, userID string, since time.Time, role string) (int64, error)
	DeleteOlderThan(ctx context.Context, userID string, cutoff time.Time) (int64, error)
}

type CacheEntries interface {
	Get(ctx context.Context, key string) (*model.CacheEntry, error)
	// Upsert inserts the entry or, when the key exists, replaces the response
	// text and resets the creation time. Last write wins.
	Upsert(ctx context.Context, e *model.CacheEntry) error
	Delete(ctx context.Context, key string) error
	DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
}

type CacheStats interface {
	// IncrHit / IncrMiss bump the day's counter, creating the row on first use.
	IncrHit(ctx context.Context, day string) error
	IncrMiss(ctx context.Context, day string) error
	Get(ctx context.Context, day string) (*model.CacheStat, error)
}
