package userstore_test

import (
	"testing"

	"github.com/sagarc03/pitfall"
	"github.com/sagarc03/pitfall/userstore"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadUsersFromFile_ValidJSON(t *testing.T) {
	t.Parallel()

	path := writeUsersFile(t, `[
		{"id": 10, "username": "alice", "password": "password", "role": "user"},
		{"id": 11, "username": "bob", "password": "qwerty", "role": "admin"}
	]`)

	records, err := userstore.LoadUsersFromFile(path)
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, pitfall.UserRecord{ID: 10, Username: "alice", Password: "password", Role: pitfall.RoleUser}, records[0])
	assert.Equal(t, pitfall.RoleAdmin, records[1].Role)
}

func TestLoadUsersFromFile_EmptyArray(t *testing.T) {
	t.Parallel()

	records, err := userstore.LoadUsersFromFile(writeUsersFile(t, `[]`))
	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestLoadUsersFromFile_RejectsInvalidRecords(t *testing.T) {
	t.Parallel()

	tests := map[string]string{
		"missing username": `[{"id": 1, "password": "x", "role": "user"}]`,
		"unknown role":     `[{"id": 1, "username": "x", "password": "x", "role": "root"}]`,
	}

	for name, content := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := userstore.LoadUsersFromFile(writeUsersFile(t, content))
			assert.ErrorIs(t, err, pitfall.ErrInvalidInput)
		})
	}
}

func TestLoadUsersFromFile_InvalidJSON(t *testing.T) {
	t.Parallel()

	_, err := userstore.LoadUsersFromFile(writeUsersFile(t, `[{"id": `))
	assert.Error(t, err)
}
