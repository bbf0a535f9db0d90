package service_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/tapdeck-labs/deckd/internal/deck/domain"
	"github.com/tapdeck-labs/deckd/internal/deck/service"
	"github.com/tapdeck-labs/deckd/internal/deck/store"
)

type memStateStore struct {
	state   *domain.DeckState
	saveErr error
	saves   int
}

func (m *memStateStore) LoadState() (domain.DeckState, error) {
	if m.state == nil {
		return domain.DeckState{}, store.ErrNotFound
	}
	return *m.state, nil
}

func (m *memStateStore) SaveState(state domain.DeckState) error {
	m.saves++
	if m.saveErr != nil {
		return m.saveErr
	}
	m.state = &state
	return nil
}

func strptr(s string) *string { return &s }

func TestNewDeckServiceDefaults(t *testing.T) {
	t.Parallel()

	svc := service.NewDeckService(&memStateStore{}, discardLogger())
	snap := svc.Snapshot()
	require.Equal(t, domain.DefaultState(), snap)
}

func TestNewDeckServiceLoadsPriorState(t *testing.T) {
	t.Parallel()

	prior := domain.DefaultState()
	prior.ActiveProfileID = "p7"
	prior.Slots[2].Name = strptr("Slack")

	svc := service.NewDeckService(&memStateStore{state: &prior}, discardLogger())
	snap := svc.Snapshot()
	require.Equal(t, "p7", snap.ActiveProfileID)
	require.Equal(t, "Slack", *snap.Slots[2].Name)
}

func TestReplacePersistsAndNotifies(t *testing.T) {
	t.Parallel()

	st := &memStateStore{}
	svc := service.NewDeckService(st, discardLogger())

	var received []domain.DeckState
	svc.OnUpdate(func(state domain.DeckState) { received = append(received, state) })

	snap := svc.Replace(domain.ReplacePayload{
		Slots: []domain.Slot{{Label: "Slot 1", Name: strptr("Mail"), Path: strptr("/Applications/Mail.app")}},
	})

	require.Equal(t, "Mail", *snap.Slots[0].Name)
	require.Len(t, received, 1)
	require.Equal(t, snap, received[0])

	// Persisted state matches the broadcast state, no stale reads
	require.NotNil(t, st.state)
	require.Equal(t, snap, *st.state)
}

func TestReplaceIdempotent(t *testing.T) {
	t.Parallel()

	svc := service.NewDeckService(&memStateStore{}, discardLogger())

	payload := domain.ReplacePayload{
		Slots:           []domain.Slot{{Label: "Slot 1", Name: strptr("Mail")}},
		ActiveProfileID: "p2",
	}

	first := svc.Replace(payload)
	second := svc.Replace(payload)
	require.Equal(t, first, second)
	require.Equal(t, second, svc.Snapshot())
}

func TestReplaceSurvivesPersistFailure(t *testing.T) {
	t.Parallel()

	st := &memStateStore{saveErr: errors.New("disk full")}
	svc := service.NewDeckService(st, discardLogger())

	snap := svc.Replace(domain.ReplacePayload{ActiveProfileName: "Renamed"})
	require.Equal(t, "Renamed", snap.ActiveProfileName)

	// In-memory state stays authoritative even though the write failed
	require.Equal(t, "Renamed", svc.Snapshot().ActiveProfileName)
	require.Equal(t, 1, st.saves)
}

func TestSnapshotIsACopy(t *testing.T) {
	t.Parallel()

	svc := service.NewDeckService(&memStateStore{}, discardLogger())

	snap := svc.Snapshot()
	snap.Slots[0].Label = "mutated"
	snap.ActiveProfileID = "mutated"

	fresh := svc.Snapshot()
	require.Equal(t, "Slot 1", fresh.Slots[0].Label)
	require.Equal(t, "profile-1", fresh.ActiveProfileID)
}
