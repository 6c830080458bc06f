// Package postgres implements the credential store using PostgreSQL
package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/sagarc03/pitfall"
)

type Repo struct {
	pool      *pgxpool.Pool
	tableName string
}

func NewRepo(pool *pgxpool.Pool, tables pitfall.Tables) (*Repo, error) {
	if err := tables.Validate(); err != nil {
		return nil, fmt.Errorf("new repo: %w", err)
	}

	return &Repo{pool: pool, tableName: tables.Users}, nil
}

// Ping verifies database connectivity
func (r *Repo) Ping(ctx context.Context) error {
	return r.pool.Ping(ctx)
}

func (r *Repo) table() string {
	return pgx.Identifier{r.tableName}.Sanitize()
}

func (r *Repo) Lookup(ctx context.Context, username string) (pitfall.UserRecord, error) {
	query := fmt.Sprintf(`SELECT id, username, password, role FROM %s WHERE username = $1`, r.table())

	var u pitfall.UserRecord
	var role string
	err := r.pool.QueryRow(ctx, query, username).Scan(&u.ID, &u.Username, &u.Password, &role)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
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

func (r *Repo) List(ctx context.Context) ([]pitfall.UserRecord, error) {
	query := fmt.Sprintf(`SELECT id, username, password, role FROM %s ORDER BY id`, r.table())

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list: %w", err)
	}
	defer rows.Close()

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

func (r *Repo) upsertAll(ctx context.Context, records []pitfall.UserRecord) error {
	if err := pitfall.ValidateUsers(records); err != nil {
		return err
	}

	// A seed record owns its ID: a stale row holding it under another name goes first.
	release := fmt.Sprintf(`DELETE FROM %s WHERE id = $1 AND username <> $2`, r.table())
	upsert := fmt.Sprintf(`
		INSERT INTO %s (id, username, password, role)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (username) DO UPDATE
		SET id = EXCLUDED.id, password = EXCLUDED.password, role = EXCLUDED.role
	`, r.table())

	// Statements in a batch run in one implicit transaction.
	batch := &pgx.Batch{}
	for _, u := range records {
		batch.Queue(release, u.ID, u.Username)
		batch.Queue(upsert, u.ID, u.Username, u.Password, string(u.Role))
	}

	return r.pool.SendBatch(ctx, batch).Close()
}
