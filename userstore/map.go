// Package userstore provides the in-memory credential store and seed loading
// shared by every credential backend.
package userstore

import (
	"context"
	"fmt"
	"sort"

	"github.com/sagarc03/pitfall"
)

// MapUserStore keeps user records in a map keyed by username.
// It is never mutated after construction, so concurrent lookups are safe.
type MapUserStore struct {
	users map[string]pitfall.UserRecord
}

// NewMapUserStore creates a store from records. Later records win when two
// share a username.
func NewMapUserStore(records []pitfall.UserRecord) *MapUserStore {
	users := make(map[string]pitfall.UserRecord, len(records))
	for _, r := range records {
		users[r.Username] = r
	}
	return &MapUserStore{users: users}
}

// Lookup retrieves the record for username.
func (s *MapUserStore) Lookup(ctx context.Context, username string) (pitfall.UserRecord, error) {
	if err := ctx.Err(); err != nil {
		return pitfall.UserRecord{}, err
	}

	user, found := s.users[username]
	if !found {
		return pitfall.UserRecord{}, fmt.Errorf("%w: %w", ErrUserNotFound, pitfall.ErrNotFound)
	}
	return user, nil
}

// List returns every record ordered by ID.
func (s *MapUserStore) List(ctx context.Context) ([]pitfall.UserRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	out := make([]pitfall.UserRecord, 0, len(s.users))
	for _, u := range s.users {
		out = append(out, u)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}
