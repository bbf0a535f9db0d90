package store

import (
	"sync"
	"time"

	"github.com/tapdeck-labs/deckd/internal/deck/domain"
)

// Ledger holds pending pairing challenges and trusted-token records. Both
// stores are in-memory on purpose: a challenge is worthless after the
// process restarts (the QR it belongs to is gone from the screen), and trust
// re-establishes itself through re-pairing. All methods are safe for
// concurrent use from every connection handler.
//
// Expired entries are treated as absent on every access; SweepExpired exists
// only to keep the maps from growing without bound.
type Ledger struct {
	mu         sync.Mutex
	challenges map[string]domain.PairingChallenge
	trusted    map[string]domain.TrustRecord
}

func NewLedger() *Ledger {
	return &Ledger{
		challenges: make(map[string]domain.PairingChallenge),
		trusted:    make(map[string]domain.TrustRecord),
	}
}

// Put registers a pending challenge, replacing any previous challenge for
// the same token. At most one live challenge per token.
func (l *Ledger) Put(c domain.PairingChallenge) {
	if c.Token == "" {
		return
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	l.challenges[c.Token] = c
}

// Get returns the pending challenge for a token. Expired challenges report
// ErrNotFound.
func (l *Ledger) Get(token string) (domain.PairingChallenge, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	c, ok := l.challenges[token]
	if !ok || c.Expired(time.Now()) {
		return domain.PairingChallenge{}, ErrNotFound
	}
	return c, nil
}

// Remove deletes a pending challenge. Removing an absent token is a no-op.
func (l *Ledger) Remove(token string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.challenges, token)
}

// Trust promotes a token to trusted until expiresAt.
func (l *Ledger) Trust(token string, expiresAt time.Time) {
	if token == "" {
		return
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	l.trusted[token] = domain.TrustRecord{
		Token:     token,
		TrustedAt: time.Now(),
		ExpiresAt: expiresAt,
	}
}

// IsTrusted reports whether a token holds unexpired trust.
func (l *Ledger) IsTrusted(token string) bool {
	if token == "" {
		return false
	}
	l.mu.Lock()
	defer l.mu.Unlock()

	r, ok := l.trusted[token]
	return ok && !r.Expired(time.Now())
}

// Revoke drops trust for a token. Revoking an untrusted token is a no-op.
func (l *Ledger) Revoke(token string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.trusted, token)
}

// SweepExpired removes challenges and trust records whose window has closed
// at the given instant, and returns how many entries were dropped.
func (l *Ledger) SweepExpired(now time.Time) int {
	l.mu.Lock()
	defer l.mu.Unlock()

	var dropped int
	for token, c := range l.challenges {
		if c.Expired(now) {
			delete(l.challenges, token)
			dropped++
		}
	}
	for token, r := range l.trusted {
		if r.Expired(now) {
			delete(l.trusted, token)
			dropped++
		}
	}
	return dropped
}
