// Package sqlite implements the credential store using SQLite
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/sagarc03/pitfall"
)

type repo struct {
	db        *sql.DB
	tableName string
}

func (r *repo) Lookup(ctx context.Context, username string) (pitfall.UserRecord, error) {
	query := fmt.Sprintf( //nolint:gosec // G201: table name is validated
		`SELECT id, username, password, role FROM %s WHERE username = ?`, quoteIdentifier(r.tableName))

	var u pitfall.UserRecord
	var role string

	err := r.db.QueryRowContext(ctx, query, username).Scan(&u.ID, &u.Username, &u.Password, &role)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return pitfall.UserRecord{}, pitfall.ErrNotFound
		}
		return pitfall.UserRecord{}, fmt.Errorf("lookup: %w", err)
	}

	u.Role, err = pitfall.ParseRole(role)
	if err != nil {
		return pitfall.UserRecord{}, fmt.Errorf("lookup: %w", err)
	}

	return u, nil
}

func (r *repo) List(ctx context.Context) ([]pitfall.UserRecord, error) {
	query := fmt.Sprintf( //nolint:gosec // G201: table name is validated
		`SELECT id, username, password, role FROM %s ORDER BY id`, quoteIdentifier(r.tableName))

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list: %w", err)
	}
	defer func() { _ = rows.Close() }()

	users := []pitfall.UserRecord{}
	for rows.Next() {
		var u pitfall.UserRecord
		var role string
		if err := rows.Scan(&u.ID, &u.Username, &u.Password, &role); err != nil {
			return nil, fmt.Errorf("list: scan: %w", err)
		}
		if u.Role, err = pitfall.ParseRole(role); err != nil {
			return nil, fmt.Errorf("list: %w", err)
		}
		users = append(users, u)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list: rows error: %w", err)
	}

	return users, nil
}

func (r *repo) upsertAll(ctx context.Context, records []pitfall.UserRecord) error {
	if err := pitfall.ValidateUsers(records); err != nil {
		return err
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	table := quoteIdentifier(r.tableName)
	// A seed record owns its ID: a stale row holding it under another name goes first.
	release := fmt.Sprintf(`DELETE FROM %s WHERE id = ? AND username <> ?`, table) //nolint:gosec // G201: table name is validated
	upsert := fmt.Sprintf( //nolint:gosec // G201: table name is validated
		`INSERT INTO %s (id, username, password, role) VALUES (?, ?, ?, ?)
		ON CONFLICT (username) DO UPDATE
		SET id = excluded.id, password = excluded.password, role = excluded.role`,
		table)

	for _, u := range records {
		if _, err := tx.ExecContext(ctx, release, u.ID, u.Username); err != nil {
			return fmt.Errorf("release id %d: %w", u.ID, err)
		}
		if _, err := tx.ExecContext(ctx, upsert, u.ID, u.Username, u.Password, string(u.Role)); err != nil {
			return fmt.Errorf("upsert %s: %w", u.Username, err)
		}
	}

	return tx.Commit()
}
