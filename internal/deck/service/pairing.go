package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/tapdeck-labs/deckd/internal/deck/domain"
	"github.com/tapdeck-labs/deckd/internal/deck/host"
	"github.com/tapdeck-labs/deckd/internal/deck/store"
	"github.com/tapdeck-labs/deckd/pkg/cryptox"
	"github.com/tapdeck-labs/deckd/pkg/idx"
	"github.com/tapdeck-labs/deckd/pkg/netx"
	"github.com/tapdeck-labs/deckd/pkg/qrx"
)

var (
	// ErrChallengeNotFound means the challenge is absent, already consumed,
	// or expired. The phone has to rescan a fresh QR code.
	ErrChallengeNotFound = errors.New("pairing session not found")

	// ErrInvalidPIN means the challenge exists but the supplied PIN is
	// wrong. The challenge stays consumable for another attempt.
	ErrInvalidPIN = errors.New("invalid pin")
)

// DefaultDeviceName is recorded when the phone doesn't send its name.
const DefaultDeviceName = "Mobile"

// IssuedChallenge is the out-of-band handover for one pairing attempt: the
// PIN is displayed on the desktop, the QR image is scanned by the phone.
type IssuedChallenge struct {
	Token     string
	PIN       string
	QRPayload string // JSON {ip, port, token}
	QRImage   string // base64 data-URI PNG of QRPayload
}

// PairingService issues challenges and verifies PIN submissions. It owns all
// writes to the ledger's trust set.
type PairingService struct {
	Ledger *store.Ledger
	Audit  store.AuditLog
	Logger *slog.Logger

	Port         int           // advertised in the QR payload
	ChallengeTTL time.Duration // how long an unverified challenge lives
	TrustTTL     time.Duration // how long a paired token stays trusted

	// Notify is invoked once per completed pairing; nil is allowed.
	Notify host.PairNotifier
}

// IssueChallenge mints a fresh token and PIN, registers the challenge, and
// returns the QR handover. The only soft failure is IPv4 discovery, which
// degrades to the loopback address (same-host pairing still works).
func (s *PairingService) IssueChallenge(ctx context.Context) (IssuedChallenge, error) {
	token := uuid.NewString()

	pin, err := cryptox.GeneratePIN()
	if err != nil {
		return IssuedChallenge{}, fmt.Errorf("issue challenge: %w", err)
	}
	pinHash, err := cryptox.HashPIN(pin)
	if err != nil {
		return IssuedChallenge{}, fmt.Errorf("issue challenge: %w", err)
	}

	payload, err := json.Marshal(domain.QRPayload{
		IP:    netx.LocalIPv4(),
		Port:  s.Port,
		Token: token,
	})
	if err != nil {
		return IssuedChallenge{}, fmt.Errorf("issue challenge: %w", err)
	}

	image, err := qrx.DataURL(string(payload), 0)
	if err != nil {
		return IssuedChallenge{}, fmt.Errorf("issue challenge: %w", err)
	}

	now := time.Now()
	s.Ledger.Put(domain.PairingChallenge{
		Token:     token,
		PINHash:   pinHash,
		CreatedAt: now,
		ExpiresAt: now.Add(s.ChallengeTTL),
	})

	s.Logger.Info("pairing challenge issued",
		"token_fp", cryptox.FingerprintToken(token),
		"expires_in", s.ChallengeTTL,
	)

	return IssuedChallenge{
		Token:     token,
		PIN:       pin,
		QRPayload: string(payload),
		QRImage:   image,
	}, nil
}

// Verify consumes a challenge on PIN match: the token becomes trusted, the
// challenge is deleted, an audit record is appended, and the host is
// notified. A wrong PIN leaves the challenge in place.
func (s *PairingService) Verify(ctx context.Context, token, pin, deviceName string) error {
	challenge, err := s.Ledger.Get(token)
	if err != nil {
		return ErrChallengeNotFound
	}

	if err := cryptox.VerifyPIN(pin, challenge.PINHash); err != nil {
		if errors.Is(err, cryptox.ErrPINMismatch) {
			return ErrInvalidPIN
		}
		// A malformed stored hash should never happen; treat it like a
		// missing challenge so the phone re-scans.
		s.Logger.Error("pairing challenge hash unreadable", "error", err)
		return ErrChallengeNotFound
	}

	if deviceName == "" {
		deviceName = DefaultDeviceName
	}

	s.Ledger.Trust(token, time.Now().Add(s.TrustTTL))
	s.Ledger.Remove(token)

	if s.Audit != nil {
		rec := domain.PairedDevice{
			ID:     idx.New().String(),
			Device: deviceName,
			Date:   time.Now().UTC(),
		}
		if err := s.Audit.AppendPairedDevice(rec); err != nil {
			// Audit is informational; pairing still succeeds
			s.Logger.Warn("failed to append pairing audit record", "error", err)
		}
	}

	s.Logger.Info("device paired",
		"device", deviceName,
		"token_fp", cryptox.FingerprintToken(token),
	)

	if s.Notify != nil {
		s.Notify(token, deviceName)
	}
	return nil
}

// IsTrusted reports whether a token currently holds trust.
func (s *PairingService) IsTrusted(token string) bool {
	return s.Ledger.IsTrusted(token)
}

// Revoke drops trust for a token immediately.
func (s *PairingService) Revoke(token string) {
	s.Ledger.Revoke(token)
	s.Logger.Info("trust revoked", "token_fp", cryptox.FingerprintToken(token))
}
