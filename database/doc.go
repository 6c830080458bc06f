// Package database connects the credential store to its configured backend.
//
// # Supported Backends
//
//   - memory: the default; a map built from the seed records
//   - sqlite: modernc.org/sqlite, ":memory:" unless a DSN is given
//   - postgres: pgx connection pool
//
// # Usage
//
//	cfg := database.Config{
//	    Type:   "sqlite",
//	    DSN:    "pitfall.db",
//	    Tables: pitfall.Tables{Users: "pitfall_users"},
//	}
//
//	users, cleanup, err := database.OpenUserStore(ctx, cfg, userstore.SeedConfig{})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer cleanup()
//
// OpenUserStore migrates and validates the schema, then upserts the seed
// records so the default accounts always exist.
package database
