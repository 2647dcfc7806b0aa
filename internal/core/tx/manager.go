// Package tx abstracts database transactions away from the report service and
// the loaders that read through it.
package tx

import (
	"context"
)

// Manager runs fn inside a read-write transaction. An error from fn rolls it
// back; nested calls join the transaction already carried by ctx.
type Manager interface {
	RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}

// SnapshotManager adds consistent read-only transactions.
type SnapshotManager interface {
	Manager

	// ReadOnly runs fn in a read-only transaction.
	ReadOnly(ctx context.Context, fn func(ctx context.Context) error) error

	// Snapshot runs fn in a read-only REPEATABLE READ transaction, so every
	// query inside fn observes the same committed state.
	Snapshot(ctx context.Context, fn func(ctx context.Context) error) error
}
