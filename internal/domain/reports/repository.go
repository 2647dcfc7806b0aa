package reports

import (
	"context"
	"time"

	"salesboard/internal/core/id"
	"salesboard/internal/domain/sales"
)

// Snapshot is one immutable load of the transaction table. Every query that
// uses a snapshot sees exactly the same rows.
type Snapshot struct {
	ID       id.ID
	Table    sales.Table
	LoadedAt time.Time
	Source   string
}

// Repository loads the transaction table.
type Repository interface {
	// Load returns the current table. Implementations must not modify a
	// Table after returning it.
	Load(ctx context.Context) (*Snapshot, error)

	// Ping checks that the underlying source is reachable.
	Ping(ctx context.Context) error
}

// Memo stores analysis bundles by key. Keys combine a snapshot ID with
// FilterSpec.Key, so a hit is only possible for the same table and spec.
type Memo interface {
	Get(key string) (*sales.Bundle, bool)
	Put(key string, bundle *sales.Bundle)
}
