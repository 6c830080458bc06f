package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/sagarc03/pitfall"
)

// usersColumns is the layout Validate expects, in declaration order.
var usersColumns = []struct {
	name     string
	declType string
}{
	{"id", "integer"},
	{"username", "text"},
	{"password", "text"},
	{"role", "text"},
}

const createUsersSQL = `CREATE TABLE IF NOT EXISTS %s (
	id INTEGER NOT NULL PRIMARY KEY,
	username TEXT NOT NULL UNIQUE,
	password TEXT NOT NULL,
	role TEXT NOT NULL CHECK (role IN ('admin', 'user'))
)`

func quoteIdentifier(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

// Migrate creates the users table if it does not exist.
func Migrate(ctx context.Context, db *sql.DB, tables pitfall.Tables) error {
	if _, err := db.ExecContext(ctx, fmt.Sprintf(createUsersSQL, quoteIdentifier(tables.Users))); err != nil {
		return fmt.Errorf("create users table %s: %w", tables.Users, err)
	}
	return nil
}

// DropTables removes the users table.
func DropTables(ctx context.Context, db *sql.DB, tables pitfall.Tables) error {
	if _, err := db.ExecContext(ctx, "DROP TABLE IF EXISTS "+quoteIdentifier(tables.Users)); err != nil {
		return fmt.Errorf("drop users table %s: %w", tables.Users, err)
	}
	return nil
}

type declaredColumn struct {
	declType string
	notNull  bool
}

// ValidateSchema checks that the users table exists with every expected
// column, declared type and NOT NULL constraint.
func ValidateSchema(ctx context.Context, db *sql.DB, tables pitfall.Tables) error {
	if !pitfall.IsValidTableName(tables.Users) {
		return fmt.Errorf("validate schema: invalid table name: %s", tables.Users)
	}

	columns, err := tableColumns(ctx, db, tables.Users)
	if err != nil {
		return fmt.Errorf("validate schema %s: %w", tables.Users, err)
	}
	if len(columns) == 0 {
		return fmt.Errorf("validate schema: table %s does not exist", tables.Users)
	}

	var missing, problems []string
	for _, want := range usersColumns {
		got, ok := columns[want.name]
		switch {
		case !ok:
			missing = append(missing, want.name)
			continue
		case got.declType != want.declType:
			problems = append(problems, fmt.Sprintf("%s is %s, want %s", want.name, got.declType, want.declType))
		}
		if !got.notNull {
			problems = append(problems, want.name+" must be NOT NULL")
		}
	}

	if len(missing) > 0 {
		problems = append([]string{"missing columns: " + strings.Join(missing, ", ")}, problems...)
	}
	if len(problems) > 0 {
		return fmt.Errorf("validate schema %s: %s", tables.Users, strings.Join(problems, "; "))
	}
	return nil
}

// tableColumns reads pragma_table_info; a missing table yields no rows.
func tableColumns(ctx context.Context, db *sql.DB, table string) (map[string]declaredColumn, error) {
	rows, err := db.QueryContext(ctx, `SELECT name, type, "notnull" FROM pragma_table_info(?)`, table)
	if err != nil {
		return nil, fmt.Errorf("query columns: %w", err)
	}
	defer func() { _ = rows.Close() }()

	columns := make(map[string]declaredColumn)
	for rows.Next() {
		var (
			name, declType string
			notNull        int
		)
		if err := rows.Scan(&name, &declType, &notNull); err != nil {
			return nil, fmt.Errorf("scan column: %w", err)
		}
		columns[name] = declaredColumn{declType: strings.ToLower(declType), notNull: notNull == 1}
	}
	return columns, rows.Err()
}
