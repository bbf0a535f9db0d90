package domain

import "time"

// PairingChallenge is a pairing attempt in progress: an opaque token guarded
// by a PIN. The PIN is stored hashed; the plaintext only exists in the QR
// handover to the phone. At most one live challenge per token.
type PairingChallenge struct {
	Token     string
	PINHash   string
	CreatedAt time.Time
	ExpiresAt time.Time
}

// Expired reports whether the challenge window has closed.
func (c PairingChallenge) Expired(now time.Time) bool {
	return now.After(c.ExpiresAt)
}

// TrustRecord marks a token that completed pairing and may issue
// authenticated messages until it expires or is revoked.
type TrustRecord struct {
	Token     string
	TrustedAt time.Time
	ExpiresAt time.Time
}

// Expired reports whether the trust window has closed.
func (r TrustRecord) Expired(now time.Time) bool {
	return now.After(r.ExpiresAt)
}

// PairedDevice is one append-only audit entry, written whenever a pairing
// completes. Informational only, never read back programmatically.
type PairedDevice struct {
	ID     string    `json:"id"`
	Device string    `json:"device"`
	Date   time.Time `json:"date"`
}

// QRPayload is the scannable pairing handover: where to connect and which
// token to present.
type QRPayload struct {
	IP    string `json:"ip"`
	Port  int    `json:"port"`
	Token string `json:"token"`
}
