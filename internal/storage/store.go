package storage

import (
	"context"
	"errors"
)

// ErrNotFound is returned when a record is missing from storage.
var ErrNotFound = errors.New("storage: record not found")

// Store represents the root storage interface.
type Store interface {
	Close() error
	Usage() UsageStore
}

// UsageStore manages per-user generation counters.
type UsageStore interface {
	Get(ctx context.Context, userID string) (*UsageRecord, error)
	Put(ctx context.Context, record UsageRecord) error
	List(ctx context.Context) ([]UsageRecord, error)
}
