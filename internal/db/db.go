package db

import (
	"context"
	"time"
)

// Store is the database facade used by the reconciliation channels.
type Store interface {
	Pinger
	Querier
	Close()
	WaitForReady(ctx context.Context, timeout time.Duration) error
}

// Pinger checks database connectivity.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Querier runs a parameterized read query and returns its rows in column order.
type Querier interface {
	QueryRecords(ctx context.Context, sql string, args ...any) ([]Record, error)
}
