package infra

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/Alturino/foodorder/internal/config"
	"github.com/Alturino/foodorder/internal/kvstore"
)

// NewSessionStore opens the configured session backend. The returned func
// releases it. Services sharing carts must point at the same backend.
func NewSessionStore(c context.Context, cfg *config.Config) (kvstore.Store, func(), error) {
	logger := zerolog.Ctx(c)

	switch cfg.Storage.Driver {
	case config.StorageDriverRedis:
		client, err := NewCacheClient(c, cfg.Cache)
		if err != nil {
			return nil, nil, fmt.Errorf("failed connecting session store with error=%w", err)
		}
		return kvstore.NewRedis(client), func() {
			if err := client.Close(); err != nil {
				logger.Error().Err(err).Msgf("failed closing redis with error=%s", err.Error())
			}
		}, nil
	case config.StorageDriverSqlite:
		store, err := kvstore.NewSQLite(cfg.Storage.SqlitePath)
		if err != nil {
			return nil, nil, fmt.Errorf("failed opening sqlite with error=%w", err)
		}
		return store, func() {
			if err := store.Close(); err != nil {
				logger.Error().Err(err).Msgf("failed closing sqlite with error=%s", err.Error())
			}
		}, nil
	case config.StorageDriverMemory:
		return kvstore.NewMemory(), func() {}, nil
	default:
		return nil, nil, fmt.Errorf("unknown storage driver=%s", cfg.Storage.Driver)
	}
}
