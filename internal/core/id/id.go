// Package id generates identifiers for loaded table snapshots.
// UUIDv7 values sort by creation time, so a newer snapshot compares greater.
package id

import (
	"github.com/google/uuid"
)

// ID identifies one immutable snapshot of the transaction table.
type ID = uuid.UUID

// New returns a fresh UUIDv7.
func New() ID {
	v, err := uuid.NewV7()
	if err != nil {
		return uuid.New()
	}
	return v
}
