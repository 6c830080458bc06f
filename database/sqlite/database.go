package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/sagarc03/pitfall"

	_ "modernc.org/sqlite" // SQLite driver
)

// database provides SQLite database operations.
type database struct {
	db     *sql.DB
	tables pitfall.Tables
}

// Connect opens a SQLite database.
// Tables should be validated before calling Connect. An empty dsn opens
// a private in-memory database.
func Connect(ctx context.Context, dsn string, tables pitfall.Tables) (*database, error) {
	if dsn == "" {
		dsn = ":memory:"
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("connect sqlite: %w", err)
	}

	// Every connection to ":memory:" is a separate database.
	db.SetMaxOpenConns(1)

	return &database{
		db:     db,
		tables: tables,
	}, nil
}

// Ping verifies the database connection is alive.
func (d *database) Ping(ctx context.Context) error {
	return d.db.PingContext(ctx)
}

// Migrate runs database migrations to create required tables.
func (d *database) Migrate(ctx context.Context) error {
	if err := Migrate(ctx, d.db, d.tables); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	return nil
}

// Seed inserts records. An existing username takes the record's ID, password
// and role; a row holding that ID under another username is removed.
func (d *database) Seed(ctx context.Context, records []pitfall.UserRecord) error {
	r := &repo{db: d.db, tableName: d.tables.Users}
	if err := r.upsertAll(ctx, records); err != nil {
		return fmt.Errorf("seed: %w", err)
	}
	return nil
}

// Validate checks that the database schema matches expected structure.
func (d *database) Validate(ctx context.Context) error {
	return ValidateSchema(ctx, d.db, d.tables)
}

// GetRepo returns the UserStore for database operations.
func (d *database) GetRepo() pitfall.UserStore {
	return &repo{db: d.db, tableName: d.tables.Users}
}

// Close closes the database connection.
func (d *database) Close() error {
	return d.db.Close()
}
