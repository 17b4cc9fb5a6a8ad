package database

import "errors"

// ErrNotReady indicates the database cannot be reached within the
// configured connection timeout.
var ErrNotReady = errors.New("database not ready")

// ErrOpen indicates the connection pool could not be configured from the
// given settings.
var ErrOpen = errors.New("database open failed")
