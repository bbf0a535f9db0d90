// Package jsonfile persists deck state and the pairing audit trail as
// pretty-printed JSON documents, matching the layout the companion tooling
// expects to find on disk.
package jsonfile

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"github.com/tapdeck-labs/deckd/internal/deck/domain"
	"github.com/tapdeck-labs/deckd/internal/deck/store"
)

// Store reads and writes the deck-state document and appends to the
// paired-devices audit document. Writes go through a temp file + rename so a
// crash mid-write never leaves a truncated document behind.
type Store struct {
	mu        sync.Mutex
	statePath string
	auditPath string
}

func New(statePath, auditPath string) *Store {
	return &Store{statePath: statePath, auditPath: auditPath}
}

// LoadState reads the state document. A missing or unparseable file yields
// store.ErrNotFound; the caller falls back to the default state.
func (s *Store) LoadState() (domain.DeckState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	raw, err := os.ReadFile(s.statePath)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return domain.DeckState{}, store.ErrNotFound
		}
		return domain.DeckState{}, fmt.Errorf("read state file: %w", err)
	}

	var state domain.DeckState
	if err := json.Unmarshal(raw, &state); err != nil {
		// Corrupt state is "no prior state", not fatal
		return domain.DeckState{}, store.ErrNotFound
	}
	return state, nil
}

// SaveState writes the full state document, creating parent directories as
// needed.
func (s *Store) SaveState(state domain.DeckState) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	raw, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal state: %w", err)
	}
	return writeFileAtomic(s.statePath, raw)
}

// AppendPairedDevice appends one audit record to the paired-devices
// document. The document is a JSON array; a missing or corrupt document
// starts a fresh one.
func (s *Store) AppendPairedDevice(rec domain.PairedDevice) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var records []domain.PairedDevice
	if raw, err := os.ReadFile(s.auditPath); err == nil {
		// Best effort: unreadable history starts over rather than blocking
		// the pairing that is completing right now.
		_ = json.Unmarshal(raw, &records)
	}
	records = append(records, rec)

	raw, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal audit log: %w", err)
	}
	return writeFileAtomic(s.auditPath, raw)
}

func writeFileAtomic(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create state dir: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("close temp file: %w", err)
	}

	if err := os.Rename(tmpName, path); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("replace %s: %w", filepath.Base(path), err)
	}
	return nil
}
