package postgres

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/sagarc03/pitfall"
)

// usersColumns maps each required column to its information_schema data_type.
var usersColumns = []struct {
	name     string
	dataType string
}{
	{"id", "integer"},
	{"username", "text"},
	{"password", "text"},
	{"role", "text"},
}

const createUsersSQL = `CREATE TABLE IF NOT EXISTS %s (
	id INTEGER PRIMARY KEY,
	username TEXT NOT NULL UNIQUE,
	password TEXT NOT NULL,
	role TEXT NOT NULL CHECK (role IN ('admin', 'user'))
)`

// Migrate creates the users table if it does not exist.
func Migrate(ctx context.Context, pool *pgxpool.Pool, tables pitfall.Tables) error {
	if _, err := pool.Exec(ctx, fmt.Sprintf(createUsersSQL, pgx.Identifier{tables.Users}.Sanitize())); err != nil {
		return fmt.Errorf("create users table %s: %w", tables.Users, err)
	}
	return nil
}

// DropTables removes the users table.
func DropTables(ctx context.Context, pool *pgxpool.Pool, tables pitfall.Tables) error {
	if _, err := pool.Exec(ctx, "DROP TABLE IF EXISTS "+pgx.Identifier{tables.Users}.Sanitize()); err != nil {
		return fmt.Errorf("drop users table %s: %w", tables.Users, err)
	}
	return nil
}

type schemaColumn struct {
	ColumnName string `db:"column_name"`
	DataType   string `db:"data_type"`
	IsNullable string `db:"is_nullable"`
}

// ValidateSchema checks that the users table exists in the current schema
// with every expected column, type and NOT NULL constraint.
func ValidateSchema(ctx context.Context, pool *pgxpool.Pool, tables pitfall.Tables) error {
	if !pitfall.IsValidTableName(tables.Users) {
		return fmt.Errorf("validate schema: invalid table name: %s", tables.Users)
	}

	rows, err := pool.Query(ctx, `
		SELECT column_name, data_type, is_nullable
		FROM information_schema.columns
		WHERE table_schema = current_schema() AND table_name = $1`, tables.Users)
	if err != nil {
		return fmt.Errorf("validate schema %s: query columns: %w", tables.Users, err)
	}

	found, err := pgx.CollectRows(rows, pgx.RowToStructByName[schemaColumn])
	if err != nil {
		return fmt.Errorf("validate schema %s: %w", tables.Users, err)
	}
	if len(found) == 0 {
		return fmt.Errorf("validate schema: table %s does not exist", tables.Users)
	}

	columns := make(map[string]schemaColumn, len(found))
	for _, c := range found {
		columns[c.ColumnName] = c
	}

	var problems []string
	for _, want := range usersColumns {
		got, ok := columns[want.name]
		if !ok {
			problems = append(problems, "missing column "+want.name)
			continue
		}
		if got.DataType != want.dataType {
			problems = append(problems, fmt.Sprintf("%s is %s, want %s", want.name, got.DataType, want.dataType))
		}
		if got.IsNullable == "YES" {
			problems = append(problems, want.name+" must be NOT NULL")
		}
	}

	if len(problems) > 0 {
		return fmt.Errorf("validate schema %s: %s", tables.Users, strings.Join(problems, "; "))
	}
	return nil
}
