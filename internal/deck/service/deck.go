package service

import (
	"log/slog"
	"sync"

	"github.com/tapdeck-labs/deckd/internal/deck/domain"
	"github.com/tapdeck-labs/deckd/internal/deck/store"
)

// DeckService owns the in-memory deck state and its durable copy. In-memory
// state is the source of truth for the process lifetime; persistence is best
// effort and retries naturally on the next mutation.
type DeckService struct {
	mu     sync.Mutex
	state  domain.DeckState
	store  store.StateStore
	logger *slog.Logger

	// onUpdate fires after every successful Replace with the post-mutation
	// snapshot. The app wires this to the broadcaster.
	onUpdate func(domain.DeckState)
}

// NewDeckService loads prior state from the store, falling back to the
// default deck when nothing usable exists.
func NewDeckService(st store.StateStore, logger *slog.Logger) *DeckService {
	state, err := st.LoadState()
	if err != nil {
		if err != store.ErrNotFound {
			logger.Warn("failed to load deck state, using defaults", "error", err)
		}
		state = domain.DefaultState()
	} else {
		// Re-merge over defaults so documents written by older builds pick
		// up any fields they predate.
		state = domain.ReplacePayload{
			Slots:             state.Slots,
			Profiles:          state.Profiles,
			ActiveProfileID:   state.ActiveProfileID,
			ActiveProfileName: state.ActiveProfileName,
		}.Apply(domain.DefaultState())
	}

	return &DeckService{state: state, store: st, logger: logger}
}

// OnUpdate registers the post-mutation hook. Call before serving traffic.
func (s *DeckService) OnUpdate(fn func(domain.DeckState)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onUpdate = fn
}

// Snapshot returns a deep copy of the current state, safe to hand to any
// goroutine.
func (s *DeckService) Snapshot() domain.DeckState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return cloneState(s.state)
}

// Replace merges the payload over current state, persists the result, and
// fires the update hook. Persist failures are logged, never returned: the
// in-memory state already moved on.
func (s *DeckService) Replace(payload domain.ReplacePayload) domain.DeckState {
	s.mu.Lock()
	s.state = payload.Apply(s.state)
	snapshot := cloneState(s.state)
	hook := s.onUpdate

	if err := s.store.SaveState(s.state); err != nil {
		s.logger.Warn("failed to persist deck state", "error", err)
	}
	s.mu.Unlock()

	if hook != nil {
		hook(snapshot)
	}
	return snapshot
}

// cloneState copies the slice-typed fields so callers can't alias the
// service's internal state. Pointer fields on slots are immutable by
// convention (replaced wholesale, never written through).
func cloneState(state domain.DeckState) domain.DeckState {
	out := state
	out.Slots = append([]domain.Slot(nil), state.Slots...)
	out.Profiles = make([]domain.Profile, len(state.Profiles))
	for i, p := range state.Profiles {
		p.Slots = append([]domain.Slot(nil), p.Slots...)
		out.Profiles[i] = p
	}
	return out
}
