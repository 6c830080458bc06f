package userstore

import "errors"

// ErrUserNotFound is returned when the username does not exist in the store.
var ErrUserNotFound = errors.New("user not found")
