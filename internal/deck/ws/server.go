// Package ws is the session protocol engine: it terminates the persistent
// websocket from the companion app, runs the per-connection pairing/trust
// state machine, and fans deck updates out to subscribers.
package ws

import (
	"log/slog"
	"net/http"

	"golang.org/x/net/websocket"

	"github.com/tapdeck-labs/deckd/internal/deck/domain"
	"github.com/tapdeck-labs/deckd/internal/deck/host"
	"github.com/tapdeck-labs/deckd/internal/deck/service"
)

// Server holds the protocol engine's dependencies and the broadcast hub.
type Server struct {
	Pairing *service.PairingService
	Deck    *service.DeckService
	Actions *service.ActionService
	Opener  host.Opener
	Logger  *slog.Logger

	hub *Hub
}

func NewServer(
	pairing *service.PairingService,
	deck *service.DeckService,
	actions *service.ActionService,
	opener host.Opener,
	logger *slog.Logger,
) *Server {
	return &Server{
		Pairing: pairing,
		Deck:    deck,
		Actions: actions,
		Opener:  opener,
		Logger:  logger,
		hub:     NewHub(),
	}
}

// Handler returns the HTTP surface: the websocket endpoint and a liveness
// probe.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	wsHandler := websocket.Handler(s.handleConn)
	mux.HandleFunc("GET /ws", func(w http.ResponseWriter, r *http.Request) {
		wsHandler.ServeHTTP(w, r)
	})

	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})

	return mux
}

// Broadcast pushes a snapshot to every subscribed connection. The app wires
// this as the deck service's post-mutation hook so remote and local edits
// converge the same way.
func (s *Server) Broadcast(state domain.DeckState) {
	s.hub.Broadcast(state)
}
