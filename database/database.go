package database

import (
	"context"
	"fmt"

	"github.com/sagarc03/pitfall"
	"github.com/sagarc03/pitfall/database/postgres"
	"github.com/sagarc03/pitfall/database/sqlite"
	"github.com/sagarc03/pitfall/userstore"

	_ "modernc.org/sqlite" // SQLite driver
)

// Backend names accepted in Config.Type.
const (
	BackendMemory   = "memory"
	BackendSQLite   = "sqlite"
	BackendPostgres = "postgres"
)

// Config holds the configuration for connecting to a credential backend.
type Config struct {
	// Type specifies the backend: "memory", "sqlite" or "postgres"
	Type string
	// DSN is the data source name (connection string)
	DSN string
	// Tables holds the table names
	Tables pitfall.Tables
}

// Database is a connected SQL credential backend.
type Database interface {
	Ping(ctx context.Context) error
	Migrate(ctx context.Context) error
	Seed(ctx context.Context, records []pitfall.UserRecord) error
	Validate(ctx context.Context) error
	GetRepo() pitfall.UserStore
	Close() error
}

// Connect opens a SQL backend without touching the schema.
func Connect(ctx context.Context, cfg Config) (Database, error) {
	if err := cfg.Tables.Validate(); err != nil {
		return nil, fmt.Errorf("connect: %w", err)
	}

	switch cfg.Type {
	case BackendSQLite:
		return sqlite.Connect(ctx, cfg.DSN, cfg.Tables)
	case BackendPostgres:
		return postgres.Connect(ctx, cfg.DSN, cfg.Tables)
	default:
		return nil, fmt.Errorf("unsupported database type: %s", cfg.Type)
	}
}

// OpenUserStore returns a ready-to-use credential store seeded from seed.
//
// For SQL backends it connects, runs migrations, validates the schema and
// upserts the seed records. The returned cleanup function closes the
// connection and must be called once the store is no longer used.
func OpenUserStore(ctx context.Context, cfg Config, seed userstore.SeedConfig) (pitfall.UserStore, func(), error) {
	records, err := userstore.Seed(seed)
	if err != nil {
		return nil, nil, fmt.Errorf("seed users: %w", err)
	}

	if cfg.Type == "" || cfg.Type == BackendMemory {
		return userstore.NewMapUserStore(records), func() {}, nil
	}

	db, err := Connect(ctx, cfg)
	if err != nil {
		return nil, nil, err
	}

	if err = db.Ping(ctx); err != nil {
		_ = db.Close()
		return nil, nil, fmt.Errorf("ping %s: %w", cfg.Type, err)
	}

	if err = db.Migrate(ctx); err != nil {
		_ = db.Close()
		return nil, nil, fmt.Errorf("migrate %s: %w", cfg.Type, err)
	}

	if err = db.Validate(ctx); err != nil {
		_ = db.Close()
		return nil, nil, fmt.Errorf("validate %s schema: %w", cfg.Type, err)
	}

	if err = db.Seed(ctx, records); err != nil {
		_ = db.Close()
		return nil, nil, fmt.Errorf("seed %s: %w", cfg.Type, err)
	}

	cleanup := func() {
		_ = db.Close()
	}

	return db.GetRepo(), cleanup, nil
}
