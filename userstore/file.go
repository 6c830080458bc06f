package userstore

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/sagarc03/pitfall"
)

// LoadUsersFromFile loads user records from a JSON file.
// The file should contain an array of records:
//
//	[
//	  {"id": 4, "username": "auditor", "password": "audit789", "role": "user"},
//	  {"id": 5, "username": "ops", "password": "ops000", "role": "admin"}
//	]
//
// Every record is validated; the first invalid one fails the load.
func LoadUsersFromFile(path string) ([]pitfall.UserRecord, error) {
	data, err := os.ReadFile(path) //nolint:gosec // Path is from trusted config file
	if err != nil {
		return nil, fmt.Errorf("read users file: %w", err)
	}

	var records []pitfall.UserRecord
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("parse users file: %w", err)
	}

	for _, r := range records {
		if err := r.Validate(); err != nil {
			return nil, fmt.Errorf("users file: %w", err)
		}
	}

	return records, nil
}
