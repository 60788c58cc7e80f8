package reminders

import (
	"context"

	"github.com/nikmy/remindbot/pkg/errors"
	"github.com/nikmy/remindbot/pkg/logger"
)

type Storage string

const (
	StorageMongo  Storage = "mongo"
	StorageSQLite Storage = "sqlite"
)

type Config struct {
	Storage Storage      `yaml:"storage"`
	Mongo   MongoConfig  `yaml:"mongo"`
	SQLite  SQLiteConfig `yaml:"sqlite"`
}

// New builds the configured store backend.
func New(ctx context.Context, log logger.Logger, cfg Config) (API, error) {
	switch cfg.Storage {
	case StorageMongo:
		return newMongo(ctx, cfg.Mongo, log)
	case StorageSQLite:
		return newSQLite(cfg.SQLite, log)
	default:
		return nil, errors.Errorf("unknown storage %q", cfg.Storage)
	}
}
