package sqlite

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/unionlens/contract-assistant/internal/model"
	"github.com/unionlens/contract-assistant/internal/store"
)

// New opens (or creates) a SQLite-backed store at path and applies the schema.
func New(path string) (store.Store, error) {
	db, err := Open(path)
	if err != nil {
		return nil, err
	}
	return NewWithDB(db)
}

// NewWithDB wires a store over an existing connection (used by tests and the factory).
func NewWithDB(db *sql.DB) (store.Store, error) {
	if err := Bootstrap(db); err != nil {
		return nil, err
	}
	return &sqliteStore{db: db}, nil
}

type sqliteStore struct{ db *sql.DB }

func (s *sqliteStore) Users() store.Users               { return users{db: s.db} }
func (s *sqliteStore) Contracts() store.Contracts       { return contracts{db: s.db} }
func (s *sqliteStore) Messages() store.Messages         { return messages{db: s.db} }
func (s *sqliteStore) CacheEntries() store.CacheEntries { return cacheEntries{db: s.db} }
func (s *sqliteStore) CacheStats() store.CacheStats     { return cacheStats{db: s.db} }

// HealthPing reports connectivity.
func (s *sqliteStore) HealthPing(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func notFound(err error) error {
	if err == sql.ErrNoRows {
		return model.ErrNotFound
	}
	return err
}

// --- Users ---
type users struct{ db *sql.DB }

func (u users) Create(ctx context.Context, m *model.User) (*model.User, error) {
	now := time.Now().UTC()
	_, err := u.db.ExecContext(ctx, `
        INSERT INTO users (user_id, email, display_name, subscription_status, plan_id, trial_ends_at, current_period_end, stripe_subscription_id, created_at)
        VALUES (?,?,?,?,?,?,?,?,?)
    `, m.UserID, m.Email, m.DisplayName, string(m.SubscriptionStatus), m.PlanID, m.TrialEndsAt, m.CurrentPeriodEnd, m.StripeSubscriptionID, now)
	if err != nil {
		return nil, err
	}
	out := *m
	out.CreationTime = now
	return &out, nil
}

func (u users) Get(ctx context.Context, userID string) (*model.User, error) {
	row := u.db.QueryRowContext(ctx, `
        SELECT user_id, email, display_name, subscription_status, plan_id, trial_ends_at, current_period_end, stripe_subscription_id, created_at
        FROM users WHERE user_id = ?
    `, userID)
	return scanUser(row)
}

func (u users) UpdateSubscription(ctx context.Context, userID string, upd model.SubscriptionUpdate) error {
	set, args := subscriptionSetClause(upd)
	if len(set) == 0 {
		return nil
	}
	args = append(args, userID)
	res, err := u.db.ExecContext(ctx, `UPDATE users SET `+strings.Join(set, ", ")+` WHERE user_id = ?`, args...)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return model.ErrNotFound
	}
	return nil
}

func (u users) List(ctx context.Context) ([]*model.User, error) {
	rows, err := u.db.QueryContext(ctx, `
        SELECT user_id, email, display_name, subscription_status, plan_id, trial_ends_at, current_period_end, stripe_subscription_id, created_at
        FROM users ORDER BY user_id
    `)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	var out []*model.User
	for rows.Next() {
		m, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

type rowScanner interface{ Scan(dest ...any) error }

func scanUser(row rowScanner) (*model.User, error) {
	var m model.User
	var status string
	if err := row.Scan(&m.UserID, &m.Email, &m.DisplayName, &status, &m.PlanID, &m.TrialEndsAt, &m.CurrentPeriodEnd, &m.StripeSubscriptionID, &m.CreationTime); err != nil {
		return nil, notFound(err)
	}
	m.SubscriptionStatus = model.SubscriptionStatus(status)
	return &m, nil
}

// subscriptionSetClause renders the partial-update SET list from the non-nil
// fields of upd.
func subscriptionSetClause(upd model.SubscriptionUpdate) ([]string, []any) {
	var set []string
	var args []any
	if upd.Status != nil {
		set = append(set, "subscription_status = ?")
		args = append(args, string(*upd.Status))
	}
	if upd.PlanID != nil {
		set = append(set, "plan_id = ?")
		args = append(args, *upd.PlanID)
	}
	if upd.TrialEndsAt != nil {
		set = append(set, "trial_ends_at = ?")
		args = append(args, *upd.TrialEndsAt)
	}
	if upd.CurrentPeriodEnd != nil {
		set = append(set, "current_period_end = ?")
		args = append(args, *upd.CurrentPeriodEnd)
	}
	if upd.StripeSubscriptionID != nil {
		set = append(set, "stripe_subscription_id = ?")
		args = append(args, *upd.StripeSubscriptionID)
	}
	return set, args
}

// --- Contracts ---
type contracts struct{ db *sql.DB }

func (c contracts) Create(ctx context.Context, m *model.Contract) (*model.Contract, error) {
	id := m.ContractID
	if id == "" {
		id = uuid.New().String()
	}
	now := time.Now().UTC()
	_, err := c.db.ExecContext(ctx, `
        INSERT INTO contracts (contract_id, user_id, title, body, created_at) VALUES (?,?,?,?,?)
    `, id, m.UserID, m.Title, m.Text, now)
	if err != nil {
		return nil, err
	}
	out := *m
	out.ContractID = id
	out.CreationTime = now
	return &out, nil
}

func (c contracts) Get(ctx context.Context, userID, contractID string) (*model.Contract, error) {
	var m model.Contract
	m.UserID = userID
	m.ContractID = contractID
	row := c.db.QueryRowContext(ctx, `
        SELECT title, body, created_at FROM contracts WHERE user_id = ? AND contract_id = ?
    `, userID, contractID)
	if err := row.Scan(&m.Title, &m.Text, &m.CreationTime); err != nil {
		return nil, notFound(err)
	}
	return &m, nil
}

func (c contracts) CountForUser(ctx context.Context, userID string) (int64, error) {
	var n int64
	err := c.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM contracts WHERE user_id = ?`, userID).Scan(&n)
	return n, err
}

// --- Messages ---
type messages struct{ db *sql.DB }

func (m messages) Create(ctx context.Context, msg *model.ChatMessage) (*model.ChatMessage, error) {
	id := msg.MessageID
	if id == "" {
		id = uuid.New().String()
	}
	now := msg.CreationTime
	if now.IsZero() {
		now = time.Now().UTC()
	}
	_, err := m.db.ExecContext(ctx, `
        INSERT INTO chat_messages (message_id, user_id, contract_id, role, content, created_at) VALUES (?,?,?,?,?,?)
    `, id, msg.UserID, msg.ContractID, msg.Role, msg.Content, now)
	if err != nil {
		return nil, err
	}
	out := *msg
	out.MessageID = id
	out.CreationTime = now
	return &out, nil
}

func (m messages) List(ctx context.Context, userID, contractID string, limit int) ([]*model.ChatMessage, error) {
	query := `
        SELECT message_id, role, content, created_at
        FROM chat_messages WHERE user_id = ? AND contract_id = ?
        ORDER BY created_at DESC`
	args := []any{userID, contractID}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}
	rows, err := m.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	var out []*model.ChatMessage
	for rows.Next() {
		var msg model.ChatMessage
		msg.UserID = userID
		msg.ContractID = contractID
		if err := rows.Scan(&msg.MessageID, &msg.Role, &msg.Content, &msg.CreationTime); err != nil {
			return nil, err
		}
		out = append(out, &msg)
	}
	return out, rows.Err()
}

func (m messages) CountSince(ctx context.Context, userID string, since time.Time, role string) (int64, error) {
	var n int64
	err := m.db.QueryRowContext(ctx, `
        SELECT COUNT(*) FROM chat_messages WHERE user_id = ? AND role = ? AND created_at >= ?
    `, userID, role, since).Scan(&n)
	return n, err
}

func (m messages) DeleteOlderThan(ctx context.Context, userID string, cutoff time.Time) (int64, error) {
	res, err := m.db.ExecContext(ctx, `
        DELETE FROM chat_messages WHERE user_id = ? AND created_at < ?
    `, userID, cutoff)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// --- Cache entries ---
type cacheEntries struct{ db *sql.DB }

func (c cacheEntries) Get(ctx context.Context, key string) (*model.CacheEntry, error) {
	var e model.CacheEntry
	e.Key = key
	row := c.db.QueryRowContext(ctx, `
        SELECT contract_id, query_text, response_text, created_at FROM cache_entries WHERE cache_key = ?
    `, key)
	if err := row.Scan(&e.ContractID, &e.QueryText, &e.ResponseText, &e.CreationTime); err != nil {
		return nil, notFound(err)
	}
	return &e, nil
}

func (c cacheEntries) Upsert(ctx context.Context, e *model.CacheEntry) error {
	_, err := c.db.ExecContext(ctx, `
        INSERT INTO cache_entries (cache_key, contract_id, query_text, response_text, created_at)
        VALUES (?,?,?,?,?)
        ON CONFLICT(cache_key) DO UPDATE SET
            query_text = excluded.query_text,
            response_text = excluded.response_text,
            created_at = excluded.created_at
    `, e.Key, e.ContractID, e.QueryText, e.ResponseText, e.CreationTime)
	return err
}

func (c cacheEntries) Delete(ctx context.Context, key string) error {
	_, err := c.db.ExecContext(ctx, `DELETE FROM cache_entries WHERE cache_key = ?`, key)
	return err
}

func (c cacheEntries) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := c.db.ExecContext(ctx, `DELETE FROM cache_entries WHERE created_at < ?`, cutoff)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// --- Cache stats ---
type cacheStats struct{ db *sql.DB }

func (c cacheStats) IncrHit(ctx context.Context, day string) error {
	_, err := c.db.ExecContext(ctx, `
        INSERT INTO cache_stats (day, hits, misses) VALUES (?, 1, 0)
        ON CONFLICT(day) DO UPDATE SET hits = hits + 1
    `, day)
	return err
}

func (c cacheStats) IncrMiss(ctx context.Context, day string) error {
	_, err := c.db.ExecContext(ctx, `
        INSERT INTO cache_stats (day, hits, misses) VALUES (?, 0, 1)
        ON CONFLICT(day) DO UPDATE SET misses = misses + 1
    `, day)
	return err
}

func (c cacheStats) Get(ctx context.Context, day string) (*model.CacheStat, error) {
	var st model.CacheStat
	st.Day = day
	row := c.db.QueryRowContext(ctx, `SELECT hits, misses FROM cache_stats WHERE day = ?`, day)
	if err := row.Scan(&st.Hits, &st.Misses); err != nil {
		return nil, notFound(err)
	}
	return &st, nil
}
