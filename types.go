package pitfall

import (
	"errors"
	"fmt"
	"regexp"
	"time"
)

type Role string

const (
	RoleAdmin Role = "admin"
	RoleUser  Role = "user"
)

func (r Role) IsValid() bool {
	switch r {
	case RoleAdmin, RoleUser:
		return true
	default:
		return false
	}
}

func ParseRole(s string) (Role, error) {
	role := Role(s)
	if !role.IsValid() {
		return "", fmt.Errorf("invalid role: %s (valid roles: admin, user)", s)
	}
	return role, nil
}

// UserRecord is a credential store entry. The password is stored and
// returned in plaintext.
type UserRecord struct {
	ID       int    `json:"id" mapstructure:"id"`
	Username string `json:"username" mapstructure:"username"`
	Password string `json:"password" mapstructure:"password"`
	Role     Role   `json:"role" mapstructure:"role"`
}

// Validate checks that a record can be loaded into a credential store.
func (u UserRecord) Validate() error {
	if u.Username == "" {
		return fmt.Errorf("validate user %d: %w: username cannot be empty", u.ID, ErrInvalidInput)
	}
	if !u.Role.IsValid() {
		return fmt.Errorf("validate user %s: %w: invalid role %q", u.Username, ErrInvalidInput, u.Role)
	}
	return nil
}

// ValidateUsers checks every record and rejects a table in which two
// records share an ID or a username.
func ValidateUsers(records []UserRecord) error {
	ids := make(map[int]string, len(records))
	names := make(map[string]struct{}, len(records))
	for _, u := range records {
		if err := u.Validate(); err != nil {
			return err
		}
		if other, ok := ids[u.ID]; ok {
			return fmt.Errorf("validate user %s: %w: id %d already used by %s", u.Username, ErrInvalidInput, u.ID, other)
		}
		if _, ok := names[u.Username]; ok {
			return fmt.Errorf("validate user %s: %w: duplicate username", u.Username, ErrInvalidInput)
		}
		ids[u.ID] = u.Username
		names[u.Username] = struct{}{}
	}
	return nil
}

// DefaultUsers returns the fixed user table every credential store is seeded with.
func DefaultUsers() []UserRecord {
	return []UserRecord{
		{ID: 1, Username: "admin", Password: "admin123", Role: RoleAdmin},
		{ID: 2, Username: "user1", Password: "pass123", Role: RoleUser},
		{ID: 3, Username: "user2", Password: "pass456", Role: RoleUser},
	}
}

type LoginResult struct {
	Message string     `json:"message"`
	User    UserRecord `json:"user"`
}

type MonitorInfo struct {
	ID        int           `json:"id"`
	TaskID    string        `json:"task_id"`
	Interval  time.Duration `json:"interval"`
	StartedAt time.Time     `json:"started_at"`
	Ticks     int64         `json:"ticks"`
	Stopped   bool          `json:"stopped"`
}

// Tables holds configurable table names for credential storage.
type Tables struct {
	Users string `mapstructure:"users"`
}

var validTableNameRegex = regexp.MustCompile(`^[a-z_][a-z0-9_]*$`)

// IsValidTableName checks if a table name is valid (lowercase, alphanumeric with underscores, max 63 chars).
func IsValidTableName(name string) bool {
	return validTableNameRegex.MatchString(name) && len(name) <= 63
}

// Validate checks that all required table names are set and valid.
func (t Tables) Validate() error {
	if t.Users == "" {
		return errors.New("validate tables: users table name cannot be empty")
	}

	if !IsValidTableName(t.Users) {
		return fmt.Errorf("validate tables: invalid users table name: %s (must match ^[a-z_][a-z0-9_]*$ and be <= 63 chars)", t.Users)
	}

	return nil
}
