package db

import "errors"

// Sentinel errors for database operations.
var (
	ErrNoRows = errors.New("db: no rows")
)

// Op names used for error context.
const (
	OpConnect = "CONNECT"
	OpPing    = "PING"
	OpQuery   = "QUERY"
	OpScan    = "SCAN"
)

// Error wraps an underlying error with the operation name for diagnostics.
type Error struct {
	Op  string
	Err error
}

func (e *Error) Error() string { return e.Op + ": " + e.Err.Error() }
func (e *Error) Unwrap() error { return e.Err }
