package factory

import (
	"path/filepath"
	"testing"

	"github.com/unionlens/contract-assistant/internal/config"
)

func TestNewStore_SQLite(t *testing.T) {
	cfg := config.NewForTesting()
	cfg.DBDriver = "sqlite"
	cfg.SQLitePath = filepath.Join(t.TempDir(), "factory.db")

	st, err := NewStore(cfg)
	if err != nil {
		t.Fatalf("NewStore returned error for sqlite: %v", err)
	}
	if st == nil {
		t.Fatal("expected store instance, got nil")
	}
}

func TestNewStore_Unsupported(t *testing.T) {
	cfg := config.NewForTesting()
	cfg.DBDriver = "dynamo"
	if _, err := NewStore(cfg); err == nil {
		t.Fatal("expected error for unsupported driver")
	}
}
