package probe

import "errors"

// Errors for profile operations.
var (
	ErrProfileNotFound = errors.New("profile not found")
	ErrNoProfiles      = errors.New("no profiles configured")
)

// Errors for client construction and options.
var (
	ErrConfigRequired  = errors.New("config is required")
	ErrInvalidEndpoint = errors.New("invalid endpoint")
	ErrInvalidOptions  = errors.New("invalid options")
)

// ErrCheckFailed is returned by the check commands when a check ran to
// completion but did not pass.
var ErrCheckFailed = errors.New("check failed")
