package jsonfile_test

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/tapdeck-labs/deckd/internal/deck/domain"
	"github.com/tapdeck-labs/deckd/internal/deck/store"
	"github.com/tapdeck-labs/deckd/internal/deck/store/drivers/jsonfile"
)

func newStore(t *testing.T) (*jsonfile.Store, string) {
	t.Helper()
	dir := t.TempDir()
	return jsonfile.New(
		filepath.Join(dir, "deck-state.json"),
		filepath.Join(dir, "paired-devices.json"),
	), dir
}

func TestLoadStateMissingFile(t *testing.T) {
	t.Parallel()

	s, _ := newStore(t)
	_, err := s.LoadState()
	require.ErrorIs(t, err, store.ErrNotFound)
}

func TestLoadStateCorruptFile(t *testing.T) {
	t.Parallel()

	s, dir := newStore(t)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "deck-state.json"), []byte("{nope"), 0o644))

	_, err := s.LoadState()
	require.ErrorIs(t, err, store.ErrNotFound)
}

func TestSaveAndLoadRoundTrip(t *testing.T) {
	t.Parallel()

	s, _ := newStore(t)
	state := domain.DefaultState()
	name := "Mail"
	state.Slots[0].Name = &name

	require.NoError(t, s.SaveState(state))

	loaded, err := s.LoadState()
	require.NoError(t, err)
	require.Equal(t, state, loaded)
}

func TestSaveStateCreatesParentDir(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	s := jsonfile.New(
		filepath.Join(dir, "nested", "deep", "deck-state.json"),
		filepath.Join(dir, "paired-devices.json"),
	)
	require.NoError(t, s.SaveState(domain.DefaultState()))
}

func TestAppendPairedDevice(t *testing.T) {
	t.Parallel()

	s, dir := newStore(t)

	require.NoError(t, s.AppendPairedDevice(domain.PairedDevice{ID: "01A", Device: "Pixel", Date: time.Now().UTC()}))
	require.NoError(t, s.AppendPairedDevice(domain.PairedDevice{ID: "01B", Device: "iPhone", Date: time.Now().UTC()}))

	raw, err := os.ReadFile(filepath.Join(dir, "paired-devices.json"))
	require.NoError(t, err)

	var records []domain.PairedDevice
	require.NoError(t, json.Unmarshal(raw, &records))
	require.Len(t, records, 2)
	require.Equal(t, "Pixel", records[0].Device)
	require.Equal(t, "iPhone", records[1].Device)
}

func TestAppendPairedDeviceCorruptHistoryStartsOver(t *testing.T) {
	t.Parallel()

	s, dir := newStore(t)
	auditPath := filepath.Join(dir, "paired-devices.json")
	require.NoError(t, os.WriteFile(auditPath, []byte("garbage"), 0o644))

	require.NoError(t, s.AppendPairedDevice(domain.PairedDevice{ID: "01C", Device: "Pixel", Date: time.Now().UTC()}))

	raw, err := os.ReadFile(auditPath)
	require.NoError(t, err)

	var records []domain.PairedDevice
	require.NoError(t, json.Unmarshal(raw, &records))
	require.Len(t, records, 1)
}
