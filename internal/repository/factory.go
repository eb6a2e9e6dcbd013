package repository

import (
	"fmt"

	"conditional_orderbook/internal/config"
	"conditional_orderbook/internal/core"
)

// New builds the repository selected by the config. The returned closer is a
// no-op for the memory backing.
func New(cfg config.RepositoryConfig) (core.IOrderRepository, func() error, error) {
	switch cfg.Backing {
	case "memory":
		return NewMemoryRepository(), func() error { return nil }, nil
	case "sqlite":
		repo, err := NewSQLiteRepository(cfg.SQLitePath)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to open sqlite repository: %w", err)
		}
		return repo, repo.Close, nil
	default:
		return nil, nil, fmt.Errorf("unknown repository backing: %s", cfg.Backing)
	}
}
