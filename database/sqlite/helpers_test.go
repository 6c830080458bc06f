package sqlite_test

import (
	"context"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/sagarc03/pitfall"
	"github.com/sagarc03/pitfall/database/sqlite"
)

// uniqueTable returns a table name no other test uses.
func uniqueTable(prefix string) string {
	return prefix + "_" + strings.ReplaceAll(uuid.NewString(), "-", "")
}

// seededRepo opens a private in-memory database, seeds it with records and
// returns its UserStore.
func seededRepo(t *testing.T, records []pitfall.UserRecord) pitfall.UserStore {
	t.Helper()
	ctx := context.Background()

	db, err := sqlite.Connect(ctx, ":memory:", pitfall.Tables{Users: uniqueTable("users")})
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	require.NoError(t, db.Migrate(ctx))
	require.NoError(t, db.Seed(ctx, records))
	return db.GetRepo()
}
