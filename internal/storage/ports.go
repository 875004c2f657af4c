// Package storage defines the persistence port of the ledger.
package storage

import (
	"context"

	"ledger/internal/core"
)

// Store mirrors the ledger. The in-memory ledger is the source of truth;
// Save replaces whatever the store holds with the given sequence.
type Store interface {
	Load(ctx context.Context) ([]core.Expense, error)
	Save(ctx context.Context, expenses []core.Expense) error
	// Append persists a single new record after the existing ones.
	Append(ctx context.Context, e core.Expense) error
}
