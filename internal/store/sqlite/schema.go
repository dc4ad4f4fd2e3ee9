package sqlite

import "database/sql"

// DDL statements applied on startup. CREATE IF NOT EXISTS keeps Bootstrap
// idempotent.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS users (
        user_id                TEXT PRIMARY KEY,
        email                  TEXT NOT NULL UNIQUE,
        display_name           TEXT,
        subscription_status    TEXT NOT NULL DEFAULT '',
        plan_id                TEXT NOT NULL DEFAULT '',
        trial_ends_at          TIMESTAMP,
        current_period_end     TIMESTAMP,
        stripe_subscription_id TEXT,
        created_at             TIMESTAMP NOT NULL
    )`,
	`CREATE TABLE IF NOT EXISTS contracts (
        contract_id TEXT PRIMARY KEY,
        user_id     TEXT NOT NULL,
        title       TEXT NOT NULL,
        body        TEXT NOT NULL,
        created_at  TIMESTAMP NOT NULL
    )`,
	`CREATE INDEX IF NOT EXISTS idx_contracts_user ON contracts(user_id)`,
	`CREATE TABLE IF NOT EXISTS chat_messages (
        message_id  TEXT PRIMARY KEY,
        user_id     TEXT NOT NULL,
        contract_id TEXT NOT NULL,
        role        TEXT NOT NULL,
        content     TEXT NOT NULL,
        created_at  TIMESTAMP NOT NULL
    )`,
	`CREATE INDEX IF NOT EXISTS idx_messages_user_role_time ON chat_messages(user_id, role, created_at)`,
	`CREATE INDEX IF NOT EXISTS idx_messages_user_contract ON chat_messages(user_id, contract_id, created_at)`,
	`CREATE TABLE IF NOT EXISTS cache_entries (
        cache_key     TEXT PRIMARY KEY,
        contract_id   TEXT NOT NULL,
        query_text    TEXT NOT NULL,
        response_text TEXT NOT NULL,
        created_at    TIMESTAMP NOT NULL
    )`,
	`CREATE INDEX IF NOT EXISTS idx_cache_entries_created ON cache_entries(created_at)`,
	`CREATE TABLE IF NOT EXISTS cache_stats (
        day    TEXT PRIMARY KEY,
        hits   INTEGER NOT NULL DEFAULT 0,
        misses INTEGER NOT NULL DEFAULT 0
    )`,
}

// Bootstrap applies the schema.
func Bootstrap(db *sql.DB) error {
	for _, stmt := range schema {
		if _, err := db.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}
