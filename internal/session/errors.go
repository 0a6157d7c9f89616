package session

import "errors"

// ErrNotFound is returned when a session ID is unknown or has expired.
var ErrNotFound = errors.New("session not found")
