package userstore

import (
	"fmt"

	"github.com/sagarc03/pitfall"
)

// SeedConfig holds configuration for building the initial user table.
type SeedConfig struct {
	Inline []pitfall.UserRecord `mapstructure:"inline"` // Extra records from config
	File   string               `mapstructure:"file"`   // Path to JSON file containing records
}

// Seed returns the records every backend starts with: the default table,
// then inline records, then file records. Later sources replace earlier
// records with the same username. The merged table must not reuse an ID.
func Seed(cfg SeedConfig) ([]pitfall.UserRecord, error) {
	for _, r := range cfg.Inline {
		if err := r.Validate(); err != nil {
			return nil, err
		}
	}

	records := pitfall.DefaultUsers()
	records = append(records, cfg.Inline...)

	if cfg.File != "" {
		fileUsers, err := LoadUsersFromFile(cfg.File)
		if err != nil {
			return nil, err
		}
		records = append(records, fileUsers...)
	}

	records = dedupe(records)
	if err := pitfall.ValidateUsers(records); err != nil {
		return nil, fmt.Errorf("seed users: %w", err)
	}
	return records, nil
}

// NewUserStore creates an in-memory store from the seed configuration.
func NewUserStore(cfg SeedConfig) (*MapUserStore, error) {
	records, err := Seed(cfg)
	if err != nil {
		return nil, err
	}
	return NewMapUserStore(records), nil
}

func dedupe(records []pitfall.UserRecord) []pitfall.UserRecord {
	index := make(map[string]int, len(records))
	out := make([]pitfall.UserRecord, 0, len(records))
	for _, r := range records {
		if i, ok := index[r.Username]; ok {
			out[i] = r
			continue
		}
		index[r.Username] = len(out)
		out = append(out, r)
	}
	return out
}
