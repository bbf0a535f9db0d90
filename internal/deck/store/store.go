// Package store defines the persistence boundaries of the deck daemon.
// The pairing ledger is deliberately in-memory (see Ledger); deck state and
// the pairing audit trail go through driver interfaces so the durable format
// stays swappable.
package store

import (
	"errors"

	"github.com/tapdeck-labs/deckd/internal/deck/domain"
)

var (
	ErrNotFound = errors.New("store: not found")
)

// StateStore loads and saves the full deck state document. Implementations
// must treat a missing or corrupt document as "no prior state" on load, not
// as a fatal error.
type StateStore interface {
	LoadState() (domain.DeckState, error)
	SaveState(state domain.DeckState) error
}

// AuditLog records completed pairings. Append-only; nothing in the daemon
// reads it back.
type AuditLog interface {
	AppendPairedDevice(rec domain.PairedDevice) error
}
