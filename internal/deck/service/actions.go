package service

import (
	"context"
	"errors"
	"sync"

	"github.com/tapdeck-labs/deckd/internal/deck/host"
	"github.com/tapdeck-labs/deckd/pkg/slogx"
)

// ErrUnknownAction is returned for action identifiers with no registered
// handler.
var ErrUnknownAction = errors.New("unknown action")

// ActionHandler performs one named action and returns a human-readable
// status string.
type ActionHandler func(ctx context.Context) (string, error)

// ActionService is an extensible registry of remote-triggerable actions.
// Handlers may block (they shell out); callers dispatch them off the
// connection's read loop.
type ActionService struct {
	mu       sync.RWMutex
	handlers map[string]ActionHandler
}

// NewActionService returns a registry preloaded with the built-in actions,
// each delegating to the host runner.
func NewActionService(runner host.Runner) *ActionService {
	s := &ActionService{handlers: make(map[string]ActionHandler)}
	for _, id := range []string{host.ActionPlayPause, host.ActionMuteToggle, host.ActionOpenBrowser} {
		s.Register(id, func(ctx context.Context) (string, error) {
			return runner.RunAction(ctx, id)
		})
	}
	return s
}

// Register adds or replaces the handler for an action id.
func (s *ActionService) Register(actionID string, h ActionHandler) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.handlers[actionID] = h
}

// Execute runs the handler for actionID. Unknown ids fail with
// ErrUnknownAction.
func (s *ActionService) Execute(ctx context.Context, actionID string) (string, error) {
	s.mu.RLock()
	h, ok := s.handlers[actionID]
	s.mu.RUnlock()

	if !ok {
		return "", ErrUnknownAction
	}
	slogx.FromContext(ctx).Debug("executing action", "action_id", actionID)
	return h(ctx)
}
