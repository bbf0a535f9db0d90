package ws

import (
	"encoding/json"
	"sync"

	"github.com/tapdeck-labs/deckd/internal/deck/domain"
)

// peer is the write half of one connection. The encoder lock serializes
// frames from the read loop, async action handlers, and broadcasts. Once a
// write fails the peer is marked closed and later writes become no-ops;
// late completions for a gone phone are not errors.
type peer struct {
	mu         sync.Mutex
	enc        *json.Encoder
	closed     bool
	subscribed bool
}

func newPeer(enc *json.Encoder) *peer {
	return &peer{enc: enc}
}

func (p *peer) send(v any) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return nil
	}
	if err := p.enc.Encode(v); err != nil {
		p.closed = true
		return err
	}
	return nil
}

func (p *peer) setSubscribed(v bool) {
	p.mu.Lock()
	p.subscribed = v
	p.mu.Unlock()
}

func (p *peer) isSubscribed() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.subscribed && !p.closed
}

func (p *peer) markClosed() {
	p.mu.Lock()
	p.closed = true
	p.mu.Unlock()
}

// Hub tracks every live connection and fans deck updates out to the
// subscribed ones. It is the process-wide sync broadcaster: every mutation,
// local or remote, funnels through Broadcast.
type Hub struct {
	mu    sync.Mutex
	peers map[*peer]struct{}
}

func NewHub() *Hub {
	return &Hub{peers: make(map[*peer]struct{})}
}

func (h *Hub) add(p *peer) {
	h.mu.Lock()
	h.peers[p] = struct{}{}
	h.mu.Unlock()
}

func (h *Hub) remove(p *peer) {
	h.mu.Lock()
	delete(h.peers, p)
	h.mu.Unlock()
	p.markClosed()
}

// Broadcast sends the full snapshot to every subscribed open peer.
// Unsubscribed and closed peers are silently skipped.
func (h *Hub) Broadcast(state domain.DeckState) {
	frame := newDeckUpdate(state)

	h.mu.Lock()
	peers := make([]*peer, 0, len(h.peers))
	for p := range h.peers {
		peers = append(peers, p)
	}
	h.mu.Unlock()

	for _, p := range peers {
		if p.isSubscribed() {
			_ = p.send(frame)
		}
	}
}
