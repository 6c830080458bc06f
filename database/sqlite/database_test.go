package sqlite_test

import (
	"context"
	"database/sql"
	"testing"

	"github.com/sagarc03/pitfall"
	"github.com/sagarc03/pitfall/database/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"
)

func TestDatabase_Seed_Upserts(t *testing.T) {
	ctx := context.Background()
	tables := pitfall.Tables{Users: uniqueTable("seed")}

	db, err := sqlite.Connect(ctx, ":memory:", tables)
	require.NoError(t, err)
	defer func() { _ = db.Close() }()

	require.NoError(t, db.Migrate(ctx))
	require.NoError(t, db.Seed(ctx, pitfall.DefaultUsers()))
	require.NoError(t, db.Seed(ctx, []pitfall.UserRecord{
		{ID: 1, Username: "admin", Password: "rotated", Role: pitfall.RoleAdmin},
	}))

	got, err := db.GetRepo().Lookup(ctx, "admin")
	require.NoError(t, err)
	assert.Equal(t, "rotated", got.Password)

	all, err := db.GetRepo().List(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 3)
}

func TestDatabase_Seed_ReconcilesIDs(t *testing.T) {
	ctx := context.Background()
	tables := pitfall.Tables{Users: uniqueTable("seed_ids")}

	db, err := sqlite.Connect(ctx, ":memory:", tables)
	require.NoError(t, err)
	defer func() { _ = db.Close() }()

	require.NoError(t, db.Migrate(ctx))
	require.NoError(t, db.Seed(ctx, pitfall.DefaultUsers()))

	// admin moves to 7; user1 and user2 swap IDs.
	require.NoError(t, db.Seed(ctx, []pitfall.UserRecord{
		{ID: 7, Username: "admin", Password: "rot", Role: pitfall.RoleAdmin},
		{ID: 3, Username: "user1", Password: "pass123", Role: pitfall.RoleUser},
		{ID: 2, Username: "user2", Password: "pass456", Role: pitfall.RoleUser},
	}))

	all, err := db.GetRepo().List(ctx)
	require.NoError(t, err)
	ids := map[string]int{}
	for _, u := range all {
		ids[u.Username] = u.ID
	}
	assert.Equal(t, map[string]int{"admin": 7, "user1": 3, "user2": 2}, ids)

	// A new username claiming a taken ID replaces the stale row.
	require.NoError(t, db.Seed(ctx, []pitfall.UserRecord{
		{ID: 7, Username: "root", Password: "toor", Role: pitfall.RoleAdmin},
	}))
	_, err = db.GetRepo().Lookup(ctx, "admin")
	assert.ErrorIs(t, err, pitfall.ErrNotFound)
	root, err := db.GetRepo().Lookup(ctx, "root")
	require.NoError(t, err)
	assert.Equal(t, 7, root.ID)
}

func TestDatabase_Seed_RejectsDuplicateIDs(t *testing.T) {
	ctx := context.Background()
	tables := pitfall.Tables{Users: uniqueTable("seed_dup")}

	db, err := sqlite.Connect(ctx, ":memory:", tables)
	require.NoError(t, err)
	defer func() { _ = db.Close() }()

	require.NoError(t, db.Migrate(ctx))

	err = db.Seed(ctx, []pitfall.UserRecord{
		{ID: 1, Username: "admin", Password: "x", Role: pitfall.RoleAdmin},
		{ID: 1, Username: "root", Password: "x", Role: pitfall.RoleAdmin},
	})
	assert.ErrorIs(t, err, pitfall.ErrInvalidInput)
}

func TestDatabase_Seed_RejectsInvalidRecord(t *testing.T) {
	ctx := context.Background()
	tables := pitfall.Tables{Users: uniqueTable("seed_bad")}

	db, err := sqlite.Connect(ctx, ":memory:", tables)
	require.NoError(t, err)
	defer func() { _ = db.Close() }()

	require.NoError(t, db.Migrate(ctx))

	err = db.Seed(ctx, []pitfall.UserRecord{
		{ID: 1, Username: "ok", Password: "x", Role: pitfall.RoleUser},
		{ID: 2, Username: "bad", Password: "x", Role: "root"},
	})
	assert.ErrorIs(t, err, pitfall.ErrInvalidInput)

	all, err := db.GetRepo().List(ctx)
	require.NoError(t, err)
	assert.Empty(t, all, "seed is all or nothing")
}

func TestValidateSchema(t *testing.T) {
	ctx := context.Background()

	t.Run("success after migrate", func(t *testing.T) {
		db, err := sqlite.Connect(ctx, ":memory:", pitfall.Tables{Users: "users"})
		require.NoError(t, err)
		defer func() { _ = db.Close() }()

		require.NoError(t, db.Migrate(ctx))
		assert.NoError(t, db.Validate(ctx))
	})

	t.Run("error - table does not exist", func(t *testing.T) {
		db, err := sqlite.Connect(ctx, ":memory:", pitfall.Tables{Users: "nonexistent_table"})
		require.NoError(t, err)
		defer func() { _ = db.Close() }()

		assert.Error(t, db.Validate(ctx))
	})

	t.Run("error - table has incomplete schema", func(t *testing.T) {
		db, err := sql.Open("sqlite", ":memory:")
		require.NoError(t, err)
		defer func() { _ = db.Close() }()
		db.SetMaxOpenConns(1)

		_, err = db.ExecContext(ctx, `CREATE TABLE incomplete (id INTEGER NOT NULL PRIMARY KEY, username TEXT NOT NULL)`)
		require.NoError(t, err)

		err = sqlite.ValidateSchema(ctx, db, pitfall.Tables{Users: "incomplete"})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "missing columns")
	})

	t.Run("error - nullable column", func(t *testing.T) {
		db, err := sql.Open("sqlite", ":memory:")
		require.NoError(t, err)
		defer func() { _ = db.Close() }()
		db.SetMaxOpenConns(1)

		_, err = db.ExecContext(ctx, `CREATE TABLE loose (id INTEGER NOT NULL, username TEXT NOT NULL, password TEXT, role TEXT NOT NULL)`)
		require.NoError(t, err)

		err = sqlite.ValidateSchema(ctx, db, pitfall.Tables{Users: "loose"})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "password")
	})

	t.Run("drop tables", func(t *testing.T) {
		db, err := sql.Open("sqlite", ":memory:")
		require.NoError(t, err)
		defer func() { _ = db.Close() }()
		db.SetMaxOpenConns(1)

		tables := pitfall.Tables{Users: "dropme"}
		require.NoError(t, sqlite.Migrate(ctx, db, tables))
		require.NoError(t, sqlite.DropTables(ctx, db, tables))
		assert.Error(t, sqlite.ValidateSchema(ctx, db, tables))
	})
}

func TestConnect_EmptyDSN(t *testing.T) {
	ctx := context.Background()

	db, err := sqlite.Connect(ctx, "", pitfall.Tables{Users: "users"})
	require.NoError(t, err)
	defer func() { _ = db.Close() }()

	require.NoError(t, db.Ping(ctx))
	require.NoError(t, db.Migrate(ctx))
	require.NoError(t, db.Seed(ctx, pitfall.DefaultUsers()))

	all, err := db.GetRepo().List(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 3)
}
