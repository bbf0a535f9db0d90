package domain

import (
	"encoding/json"
	"fmt"
)

// SlotsPerProfile is the fixed length of every slot sequence. The companion
// app renders a 2x3 grid and assumes exactly this many entries.
const SlotsPerProfile = 6

// Slot is one addressable shortcut position within a profile. Label is the
// stable identifier; the rest is nullable display/launch data.
type Slot struct {
	Label string  `json:"label"`
	Name  *string `json:"name"`
	Path  *string `json:"path"`
	Icon  *string `json:"icon"` // data URL or short glyph
}

// Profile is a named, ordered set of slots. One profile is active at a time.
type Profile struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Slots []Slot `json:"slots"`
}

// DeckState is the full synchronized state. Slots is the legacy default
// profile's slot list, kept so older companion builds keep working.
type DeckState struct {
	ActiveProfileID   string    `json:"activeProfileId"`
	ActiveProfileName string    `json:"activeProfileName"`
	Profiles          []Profile `json:"profiles"`
	Slots             []Slot    `json:"slots"`
}

// DefaultState returns the state used when no prior state exists on disk:
// a single implicit profile of six empty slots.
func DefaultState() DeckState {
	return DeckState{
		ActiveProfileID:   "profile-1",
		ActiveProfileName: "Profile 1",
		Profiles:          []Profile{},
		Slots:             emptySlots(),
	}
}

func emptySlots() []Slot {
	slots := make([]Slot, SlotsPerProfile)
	for i := range slots {
		slots[i] = Slot{Label: fmt.Sprintf("Slot %d", i+1)}
	}
	return slots
}

// NormalizeSlots pads or truncates a slot sequence to exactly
// SlotsPerProfile entries. Padded entries get a positional label.
func NormalizeSlots(slots []Slot) []Slot {
	out := make([]Slot, SlotsPerProfile)
	for i := range out {
		if i < len(slots) {
			out[i] = slots[i]
			if out[i].Label == "" {
				out[i].Label = fmt.Sprintf("Slot %d", i+1)
			}
			continue
		}
		out[i] = Slot{Label: fmt.Sprintf("Slot %d", i+1)}
	}
	return out
}

// ResolveSlot applies the profile/legacy fallback rule: use the addressed
// profile's slots when that profile exists and has a non-empty slot list,
// otherwise fall back to the legacy default slot list; then match by label.
// An empty profileID addresses the active profile.
func ResolveSlot(state DeckState, profileID, label string) (Slot, bool) {
	if profileID == "" {
		profileID = state.ActiveProfileID
	}

	source := state.Slots
	for _, p := range state.Profiles {
		if p.ID == profileID && len(p.Slots) > 0 {
			source = p.Slots
			break
		}
	}

	for _, s := range source {
		if s.Label == label {
			return s, true
		}
	}
	return Slot{}, false
}

// ReplacePayload is the single mutation shape for deck state. Nil or empty
// fields are retained from the current state; present fields replace
// wholesale. It unmarshals from either a bare slots array or a composite
// object, and accepts the legacy profileId/profileName key aliases.
type ReplacePayload struct {
	Slots             []Slot
	Profiles          []Profile
	ActiveProfileID   string
	ActiveProfileName string
}

func (p *ReplacePayload) UnmarshalJSON(data []byte) error {
	// Bare array form: replace the legacy slot list only.
	var slots []Slot
	if err := json.Unmarshal(data, &slots); err == nil {
		*p = ReplacePayload{Slots: slots}
		return nil
	}

	var obj struct {
		Slots             []Slot    `json:"slots"`
		Profiles          []Profile `json:"profiles"`
		ActiveProfileID   string    `json:"activeProfileId"`
		ProfileID         string    `json:"profileId"`
		ActiveProfileName string    `json:"activeProfileName"`
		ProfileName       string    `json:"profileName"`
	}
	if err := json.Unmarshal(data, &obj); err != nil {
		return err
	}

	*p = ReplacePayload{
		Slots:             obj.Slots,
		Profiles:          obj.Profiles,
		ActiveProfileID:   obj.ActiveProfileID,
		ActiveProfileName: obj.ActiveProfileName,
	}
	if p.ActiveProfileID == "" {
		p.ActiveProfileID = obj.ProfileID
	}
	if p.ActiveProfileName == "" {
		p.ActiveProfileName = obj.ProfileName
	}
	return nil
}

// Apply merges the payload over current and returns the resulting state.
// Slot sequences are normalized to the fixed length on the way in.
func (p ReplacePayload) Apply(current DeckState) DeckState {
	next := current

	if p.Slots != nil {
		next.Slots = NormalizeSlots(p.Slots)
	}
	if p.Profiles != nil {
		profiles := make([]Profile, len(p.Profiles))
		for i, prof := range p.Profiles {
			prof.Slots = NormalizeSlots(prof.Slots)
			profiles[i] = prof
		}
		next.Profiles = profiles
	}
	if p.ActiveProfileID != "" {
		next.ActiveProfileID = p.ActiveProfileID
	}
	if p.ActiveProfileName != "" {
		next.ActiveProfileName = p.ActiveProfileName
	}

	return next
}
