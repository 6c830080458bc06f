package http

import "errors"

// ErrMalformedBody is returned when a request body cannot be decoded.
var ErrMalformedBody = errors.New("malformed request body")
