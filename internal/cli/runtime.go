package cli

import (
	"fmt"
	"path/filepath"

	"github.com/tracksync/tracksync/internal/config"
	"github.com/tracksync/tracksync/internal/store"
)

// openStore builds the configured record store backend.
func openStore(cfg *config.Config) (store.RecordStore, error) {
	switch cfg.Store.Backend {
	case config.BackendAirtable:
		if cfg.Store.Airtable.APIKey == "" || cfg.Store.Airtable.BaseID == "" {
			return nil, fmt.Errorf("airtable backend needs an API key and base id")
		}
		return store.NewAirtableStore(cfg.Store.Airtable.APIKey, cfg.Store.Airtable.BaseID, cfg.Store.Airtable.APIURL), nil
	case config.BackendSQLite, "":
		if err := config.EnsureDir(filepath.Dir(cfg.Store.SQLitePath)); err != nil {
			return nil, fmt.Errorf("create store directory: %w", err)
		}
		return store.NewSQLiteStore(cfg.Store.SQLitePath)
	default:
		return nil, fmt.Errorf("unknown store backend %q", cfg.Store.Backend)
	}
}
