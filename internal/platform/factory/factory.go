package factory

import (
	"fmt"

	"github.com/unionlens/contract-assistant/internal/config"
	"github.com/unionlens/contract-assistant/internal/store"
	"github.com/unionlens/contract-assistant/internal/store/postgres"
	"github.com/unionlens/contract-assistant/internal/store/sqlite"
)

// NewStore selects the storage driver based on cfg.DBDriver.
// SQLite bootstraps its own schema; Postgres schemas are applied by
// deployment migrations.
func NewStore(cfg *config.Config) (store.Store, error) {
	switch cfg.DBDriver {
	case "sqlite":
		return sqlite.New(cfg.SQLitePath)
	case "postgres":
		db, err := postgres.Open(cfg.PostgresDSN)
		if err != nil {
			return nil, fmt.Errorf("open postgres: %w", err)
		}
		return postgres.NewWithDB(db), nil
	default:
		return nil, fmt.Errorf("unknown DB_DRIVER: %s", cfg.DBDriver)
	}
}
