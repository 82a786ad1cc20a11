package store

import (
	"fmt"

	"github.com/dgallion1/figsync/internal/config"
	"github.com/dgallion1/figsync/internal/pathstore"
)

// Open builds the backend named by cfg.StoreBackend.
func Open(cfg config.Config) (Store, error) {
	switch cfg.StoreBackend {
	case config.BackendMemory, "":
		return NewMemory(), nil
	case config.BackendSQLite:
		return NewSQLite(cfg.SQLiteDir)
	case config.BackendPathstore:
		return NewPathstore(pathstore.NewClient(cfg.PathstoreURL, cfg.PathstoreAPIKey)), nil
	}
	return nil, fmt.Errorf("unknown store backend %q", cfg.StoreBackend)
}
