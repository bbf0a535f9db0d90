package ws

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"time"

	"golang.org/x/net/websocket"
	"golang.org/x/time/rate"

	"github.com/tapdeck-labs/deckd/internal/deck/domain"
	"github.com/tapdeck-labs/deckd/internal/deck/service"
	"github.com/tapdeck-labs/deckd/pkg/idx"
	"github.com/tapdeck-labs/deckd/pkg/slogx"
)

// maxDecodeErrors is how many consecutive malformed messages a connection
// may send before it is closed. Malformed input is otherwise dropped, never
// answered; a healthy companion app never sends any.
const maxDecodeErrors = 5

// Pairing PIN attempts per connection: 5 per minute.
const (
	verifyAttemptEvery = 12 * time.Second
	verifyAttemptBurst = 5
)

// session is the per-connection protocol state: the bound token (nil until
// a pair_request or trusted message arrives) and nothing else. Trust itself
// always lives in the ledger so revocation applies mid-connection.
type session struct {
	peer  *peer
	token string
}

// effectiveToken prefers the token riding on the message over the bound
// one, mirroring how the companion app resumes trust after a reconnect
// without re-pairing.
func (s *session) effectiveToken(msg inbound) string {
	if msg.Token != "" {
		return msg.Token
	}
	return s.token
}

func (s *Server) handleConn(conn *websocket.Conn) {
	base := s.Logger
	if req := conn.Request(); req != nil {
		base = base.With("remote_addr", req.RemoteAddr)
	}

	// One context for the connection's lifetime; handlers and the services
	// below them pick the scoped logger back out of it.
	ctx := slogx.WithContext(context.Background(), base)
	ctx = slogx.WithConnID(ctx, idx.New().String())
	logger := slogx.FromContext(ctx)
	logger.Info("connection opened")

	p := newPeer(json.NewEncoder(conn))
	s.hub.add(p)
	defer func() {
		s.hub.remove(p)
		_ = conn.Close()
		logger.Info("connection closed")
	}()

	sess := &session{peer: p}
	verifyLimiter := rate.NewLimiter(rate.Every(verifyAttemptEvery), verifyAttemptBurst)

	decodeErrors := 0

	for {
		var raw string
		if err := websocket.Message.Receive(conn, &raw); err != nil {
			if !errors.Is(err, io.EOF) {
				logger.Debug("receive failed", "error", err)
			}
			return
		}

		var msg inbound
		if err := json.Unmarshal([]byte(raw), &msg); err != nil {
			decodeErrors++
			logger.Debug("dropping malformed message", "error", err)
			if decodeErrors >= maxDecodeErrors {
				logger.Warn("closing connection after repeated malformed messages")
				return
			}
			continue
		}
		decodeErrors = 0

		switch msg.Type {
		case typePairRequest:
			// Binds (or re-binds) the token; no response
			sess.token = msg.Token

		case typePairVerify:
			s.handlePairVerify(ctx, sess, msg, verifyLimiter)

		case typeAction:
			s.handleAction(ctx, sess, msg)

		case typeDeckSubscribe:
			token := sess.effectiveToken(msg)
			if !s.Pairing.IsTrusted(token) {
				_ = p.send(deckError{Type: "deck_error", Message: msgNotPaired})
				continue
			}
			sess.token = token
			p.setSubscribed(true)
			_ = p.send(newDeckUpdate(s.Deck.Snapshot()))

		case typeDeckSyncRequest:
			if !s.Pairing.IsTrusted(sess.effectiveToken(msg)) {
				_ = p.send(deckError{Type: "deck_error", Message: msgNotPaired})
				continue
			}
			_ = p.send(newDeckUpdate(s.Deck.Snapshot()))

		case typeDeckOpen:
			s.handleDeckOpen(ctx, sess, msg)

		default:
			logger.Debug("dropping message with unknown type", "type", msg.Type)
		}
	}
}

func (s *Server) handlePairVerify(ctx context.Context, sess *session, msg inbound, limiter *rate.Limiter) {
	logger := slogx.FromContext(ctx)
	if !limiter.Allow() {
		logger.Warn("pairing attempts rate limited")
		_ = sess.peer.send(pairFailed{Type: "pair_failed", Message: msgTooManyAttempts})
		return
	}

	token := sess.effectiveToken(msg)
	err := s.Pairing.Verify(ctx, token, msg.PIN, msg.DeviceName)
	switch {
	case err == nil:
		_ = sess.peer.send(pairSuccess{Type: "pair_success", Message: msgPairSuccess})
	case errors.Is(err, service.ErrInvalidPIN):
		logger.Info("pairing rejected, wrong pin")
		_ = sess.peer.send(pairFailed{Type: "pair_failed", Message: msgInvalidPIN})
	default:
		logger.Info("pairing rejected, no challenge for token")
		_ = sess.peer.send(pairFailed{Type: "pair_failed", Message: msgSessionNotFound})
	}
}

func (s *Server) handleAction(ctx context.Context, sess *session, msg inbound) {
	logger := slogx.FromContext(ctx)
	if !s.Pairing.IsTrusted(sess.effectiveToken(msg)) {
		_ = sess.peer.send(actionError{Type: "action_error", ActionID: msg.ActionID, Message: msgNotPairedAction})
		return
	}

	// Handlers may shell out; run them off the read loop. The peer write is
	// a no-op by then if the phone already disconnected.
	p := sess.peer
	actionID := msg.ActionID
	go func() {
		result, err := s.Actions.Execute(ctx, actionID)
		if err != nil {
			logger.Warn("action failed", "action_id", actionID, "error", err)
			_ = p.send(actionError{Type: "action_error", ActionID: actionID, Message: actionErrorMessage(err)})
			return
		}
		_ = p.send(actionAck{Type: "action_ack", ActionID: actionID, Message: result})
	}()
}

func (s *Server) handleDeckOpen(ctx context.Context, sess *session, msg inbound) {
	logger := slogx.FromContext(ctx)
	if !s.Pairing.IsTrusted(sess.effectiveToken(msg)) {
		_ = sess.peer.send(deckError{Type: "deck_error", Message: msgNotPaired})
		return
	}

	state := s.Deck.Snapshot()
	slot, ok := domain.ResolveSlot(state, msg.ProfileID, msg.Label)
	if !ok || slot.Path == nil || *slot.Path == "" {
		_ = sess.peer.send(deckOpenError{Type: "deck_open_error", Label: msg.Label, Message: msgSlotNoPath})
		return
	}

	p := sess.peer
	label := msg.Label
	path := *slot.Path
	name := "app"
	if slot.Name != nil && *slot.Name != "" {
		name = *slot.Name
	}
	go func() {
		if err := s.Opener.OpenPath(ctx, path); err != nil {
			logger.Warn("open failed", "label", label, "error", err)
			message := err.Error()
			if message == "" {
				message = msgOpenFallback
			}
			_ = p.send(deckOpenError{Type: "deck_open_error", Label: label, Message: message})
			return
		}
		_ = p.send(deckOpenAck{Type: "deck_open_ack", Label: label, Message: "Opening " + name})
	}()
}

func actionErrorMessage(err error) string {
	if errors.Is(err, service.ErrUnknownAction) {
		return msgUnknownAction
	}
	if msg := err.Error(); msg != "" {
		return msg
	}
	return msgActionFallback
}
