package pitfall

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound is returned when a resource is not found
	ErrNotFound = errors.New("not found")
	// ErrInternal is returned when an internal error occurs
	ErrInternal = errors.New("internal error")
	// ErrInvalidInput is returned when input validation fails
	ErrInvalidInput = errors.New("invalid input")
	// ErrInvalidPath is returned when a sanitized filename resolves outside the base directory
	ErrInvalidPath = fmt.Errorf("%w: path escapes base directory", ErrInvalidInput)
	// ErrUnauthorized is returned when credentials do not match
	ErrUnauthorized = errors.New("unauthorized")
)
