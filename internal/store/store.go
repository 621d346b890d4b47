// Package store persists ledger state, one document per user.
package store

import (
	"context"

	"meloch/internal/ledger"
)

// LedgerStore loads and saves the complete accounting state of a user.
// Save must be atomic: either the whole state is persisted or none of it.
type LedgerStore interface {
	// Load returns the stored state, or a freshly defaulted one when the user
	// has none yet.
	Load(ctx context.Context, userID uint) (ledger.State, error)
	Save(ctx context.Context, userID uint, s ledger.State) error
	// Delete removes every trace of the user's state.
	Delete(ctx context.Context, userID uint) error
}
