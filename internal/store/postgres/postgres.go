package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/unionlens/contract-assistant/internal/model"
	"github.com/unionlens/contract-assistant/internal/store"
)

// Open opens a PostgreSQL connection using the pgx stdlib driver and verifies connectivity.
func Open(dsn string) (*sql.DB, error) {
	if dsn == "" {
		return nil, fmt.Errorf("postgres DSN is empty")
	}
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, err
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}

// NewWithDB constructs a Postgres store backed directly by database/sql.
// Schema setup is handled by deployment migrations, not at runtime.
func NewWithDB(db *sql.DB) store.Store { return &pgStore{db: db} }

type pgStore struct{ db *sql.DB }

func (s *pgStore) Users() store.Users               { return users{db: s.db} }
func (s *pgStore) Contracts() store.Contracts       { return contracts{db: s.db} }
func (s *pgStore) Messages() store.Messages         { return messages{db: s.db} }
func (s *pgStore) CacheEntries() store.CacheEntries { return cacheEntries{db: s.db} }
func (s *pgStore) CacheStats() store.CacheStats     { return cacheStats{db: s.db} }

// HealthPing reports connectivity.
func (s *pgStore) HealthPing(ctx context.Context) error {
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
	var created time.Time
	row := u.db.QueryRowContext(ctx, `
        INSERT INTO users (user_id, email, display_name, subscription_status, plan_id, trial_ends_at, current_period_end, stripe_subscription_id)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
        RETURNING created_at
    `, m.UserID, m.Email, m.DisplayName, string(m.SubscriptionStatus), m.PlanID, m.TrialEndsAt, m.CurrentPeriodEnd, m.StripeSubscriptionID)
	if err := row.Scan(&created); err != nil {
		return nil, err
	}
	out := *m
	out.CreationTime = created
	return &out, nil
}

func (u users) Get(ctx context.Context, userID string) (*model.User, error) {
	row := u.db.QueryRowContext(ctx, `
        SELECT user_id, email, display_name, subscription_status, plan_id, trial_ends_at, current_period_end, stripe_subscription_id, created_at
        FROM users WHERE user_id=$1
    `, userID)
	return scanUser(row)
}

func (u users) UpdateSubscription(ctx context.Context, userID string, upd model.SubscriptionUpdate) error {
	set, args := subscriptionSetClause(upd)
	if len(set) == 0 {
		return nil
	}
	args = append(args, userID)
	query := fmt.Sprintf("UPDATE users SET %s WHERE user_id = $%d", joinSet(set), len(args))
	res, err := u.db.ExecContext(ctx, query, args...)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return model.ErrNotFound
	}
	return nil
}

// subscriptionSetClause renders the partial-update SET list with positional
// placeholders numbered from $1, in field order, from the non-nil fields of
// upd. The caller appends the WHERE argument after these.
func subscriptionSetClause(upd model.SubscriptionUpdate) ([]string, []any) {
	var set []string
	var args []any
	add := func(col string, v any) {
		args = append(args, v)
		set = append(set, fmt.Sprintf("%s = $%d", col, len(args)))
	}
	if upd.Status != nil {
		add("subscription_status", string(*upd.Status))
	}
	if upd.PlanID != nil {
		add("plan_id", *upd.PlanID)
	}
	if upd.TrialEndsAt != nil {
		add("trial_ends_at", *upd.TrialEndsAt)
	}
	if upd.CurrentPeriodEnd != nil {
		add("current_period_end", *upd.CurrentPeriodEnd)
	}
	if upd.StripeSubscriptionID != nil {
		add("stripe_subscription_id", *upd.StripeSubscriptionID)
	}
	return set, args
}

func joinSet(set []string) string {
	out := set[0]
	for _, s := range set[1:] {
		out += ", " + s
	}
	return out
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

// --- Contracts ---
type contracts struct{ db *sql.DB }

func (c contracts) Create(ctx context.Context, m *model.Contract) (*model.Contract, error) {
	id := m.ContractID
	if id == "" {
		id = uuid.New().String()
	}
	var created time.Time
	row := c.db.QueryRowContext(ctx, `
        INSERT INTO contracts (contract_id, user_id, title, body)
        VALUES ($1,$2,$3,$4)
        RETURNING created_at
    `, id, m.UserID, m.Title, m.Text)
	if err := row.Scan(&created); err != nil {
		return nil, err
	}
	out := *m
	out.ContractID = id
	out.CreationTime = created
	return &out, nil
}

func (c contracts) Get(ctx context.Context, userID, contractID string) (*model.Contract, error) {
	var m model.Contract
	m.UserID = userID
	m.ContractID = contractID
	row := c.db.QueryRowContext(ctx, `
        SELECT title, body, created_at FROM contracts WHERE user_id=$1 AND contract_id=$2
    `, userID, contractID)
	if err := row.Scan(&m.Title, &m.Text, &m.CreationTime); err != nil {
		return nil, notFound(err)
	}
	return &m, nil
}

func (c contracts) CountForUser(ctx context.Context, userID string) (int64, error) {
	var n int64
	err := c.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM contracts WHERE user_id=$1`, userID).Scan(&n)
	return n, err
}

// --- Messages ---
type messages struct{ db *sql.DB }

func (m messages) Create(ctx context.Context, msg *model.ChatMessage) (*model.ChatMessage, error) {
	id := msg.MessageID
	if id == "" {
		id = uuid.New().String()
	}
	var created time.Time
	row := m.db.QueryRowContext(ctx, `
        INSERT INTO chat_messages (message_id, user_id, contract_id, role, content)
        VALUES ($1,$2,$3,$4,$5)
        RETURNING created_at
    `, id, msg.UserID, msg.ContractID, msg.Role, msg.Content)
	if err := row.Scan(&created); err != nil {
		return nil, err
	}
	out := *msg
	out.MessageID = id
	out.CreationTime = created
	return &out, nil
}

func (m messages) List(ctx context.Context, userID, contractID string, limit int) ([]*model.ChatMessage, error) {
	query := `
        SELECT message_id, role, content, created_at
        FROM chat_messages WHERE user_id=$1 AND contract_id=$2
        ORDER BY created_at DESC`
	args := []any{userID, contractID}
	if limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", limit)
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
        SELECT COUNT(*) FROM chat_messages WHERE user_id=$1 AND role=$2 AND created_at >= $3
    `, userID, role, since).Scan(&n)
	return n, err
}

func (m messages) DeleteOlderThan(ctx context.Context, userID string, cutoff time.Time) (int64, error) {
	res, err := m.db.ExecContext(ctx, `
        DELETE FROM chat_messages WHERE user_id=$1 AND created_at < $2
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
        SELECT contract_id, query_text, response_text, created_at FROM cache_entries WHERE cache_key=$1
    `, key)
	if err := row.Scan(&e.ContractID, &e.QueryText, &e.ResponseText, &e.CreationTime); err != nil {
		return nil, notFound(err)
	}
	return &e, nil
}

func (c cacheEntries) Upsert(ctx context.Context, e *model.CacheEntry) error {
	_, err := c.db.ExecContext(ctx, `
        INSERT INTO cache_entries (cache_key, contract_id, query_text, response_text, created_at)
        VALUES ($1,$2,$3,$4,$5)
        ON CONFLICT (cache_key) DO UPDATE SET
            query_text = EXCLUDED.query_text,
            response_text = EXCLUDED.response_text,
            created_at = EXCLUDED.created_at
    `, e.Key, e.ContractID, e.QueryText, e.ResponseText, e.CreationTime)
	return err
}

func (c cacheEntries) Delete(ctx context.Context, key string) error {
	_, err := c.db.ExecContext(ctx, `DELETE FROM cache_entries WHERE cache_key=$1`, key)
	return err
}

func (c cacheEntries) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := c.db.ExecContext(ctx, `DELETE FROM cache_entries WHERE created_at < $1`, cutoff)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// --- Cache stats ---
type cacheStats struct{ db *sql.DB }

func (c cacheStats) IncrHit(ctx context.Context, day string) error {
	_, err := c.db.ExecContext(ctx, `
        INSERT INTO cache_stats (day, hits, misses) VALUES ($1, 1, 0)
        ON CONFLICT (day) DO UPDATE SET hits = cache_stats.hits + 1
    `, day)
	return err
}

func (c cacheStats) IncrMiss(ctx context.Context, day string) error {
	_, err := c.db.ExecContext(ctx, `
        INSERT INTO cache_stats (day, hits, misses) VALUES ($1, 0, 1)
        ON CONFLICT (day) DO UPDATE SET misses = cache_stats.misses + 1
    `, day)
	return err
}

func (c cacheStats) Get(ctx context.Context, day string) (*model.CacheStat, error) {
	var st model.CacheStat
	st.Day = day
	row := c.db.QueryRowContext(ctx, `SELECT hits, misses FROM cache_stats WHERE day=$1`, day)
	if err := row.Scan(&st.Hits, &st.Misses); err != nil {
		return nil, notFound(err)
	}
	return &st, nil
}
