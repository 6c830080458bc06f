package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/sagarc03/pitfall"
)

type database struct {
	pool   *pgxpool.Pool
	tables pitfall.Tables
}

// Connect establishes a connection to PostgreSQL.
// Tables should be validated before calling Connect.
func Connect(ctx context.Context, dsn string, tables pitfall.Tables) (*database, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}

	return &database{
		pool:   pool,
		tables: tables,
	}, nil
}

// Ping verifies the database connection is alive.
func (d *database) Ping(ctx context.Context) error {
	return d.pool.Ping(ctx)
}

// Migrate runs database migrations to create required tables.
func (d *database) Migrate(ctx context.Context) error {
	if err := Migrate(ctx, d.pool, d.tables); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	return nil
}

// Seed inserts records. An existing username takes the record's ID, password
// and role; a row holding that ID under another username is removed.
func (d *database) Seed(ctx context.Context, records []pitfall.UserRecord) error {
	r := &Repo{pool: d.pool, tableName: d.tables.Users}
	if err := r.upsertAll(ctx, records); err != nil {
		return fmt.Errorf("seed: %w", err)
	}
	return nil
}

// Validate checks that the database schema matches expected structure.
func (d *database) Validate(ctx context.Context) error {
	return ValidateSchema(ctx, d.pool, d.tables)
}

// GetRepo returns the UserStore for database operations.
func (d *database) GetRepo() pitfall.UserStore {
	return &Repo{pool: d.pool, tableName: d.tables.Users}
}

// Close closes the database connection pool.
func (d *database) Close() error {
	d.pool.Close()
	return nil
}
