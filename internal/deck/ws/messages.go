package ws

import "github.com/tapdeck-labs/deckd/internal/deck/domain"

// Inbound message types.
const (
	typePairRequest     = "pair_request"
	typePairVerify      = "pair_verify"
	typeAction          = "action"
	typeDeckSubscribe   = "deck_subscribe"
	typeDeckSyncRequest = "deck_sync_request"
	typeDeckOpen        = "deck_open"
)

// inbound is the single wire shape for phone-to-desktop messages: one flat
// JSON object per message, discriminated by type. Fields irrelevant to a
// given type are simply absent.
type inbound struct {
	Type       string `json:"type"`
	Token      string `json:"token"`
	PIN        string `json:"pin"`
	DeviceName string `json:"deviceName"`
	ActionID   string `json:"actionId"`
	Label      string `json:"label"`
	ProfileID  string `json:"profileId"`
}

// Response messages. Strings the companion app surfaces verbatim live here
// so the protocol reads in one place.
const (
	msgPairSuccess     = "Phone ↔ PC pairing successfully. Enjoy 😊"
	msgInvalidPIN      = "Invalid PIN."
	msgSessionNotFound = "Pairing session not found. Rescan the QR code."
	msgTooManyAttempts = "Too many pairing attempts. Wait a moment and try again."
	msgNotPairedAction = "Device not paired or session expired. Please re-pair."
	msgNotPaired       = "Not paired."
	msgUnknownAction   = "Unknown action."
	msgActionFallback  = "Failed to run action."
	msgSlotNoPath      = "Slot has no app path."
	msgOpenFallback    = "Failed to open app."
)

type pairSuccess struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

type pairFailed struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

type actionAck struct {
	Type     string `json:"type"`
	ActionID string `json:"actionId"`
	Message  string `json:"message"`
}

type actionError struct {
	Type     string `json:"type"`
	ActionID string `json:"actionId"`
	Message  string `json:"message"`
}

type deckError struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

type deckOpenAck struct {
	Type    string `json:"type"`
	Label   string `json:"label"`
	Message string `json:"message"`
}

type deckOpenError struct {
	Type    string `json:"type"`
	Label   string `json:"label"`
	Message string `json:"message"`
}

type deckUpdate struct {
	Type              string           `json:"type"`
	Slots             []domain.Slot    `json:"slots"`
	ActiveProfileID   string           `json:"activeProfileId"`
	ActiveProfileName string           `json:"activeProfileName"`
	Profiles          []domain.Profile `json:"profiles"`
}

// newDeckUpdate builds the snapshot frame. Slices are forced non-nil so the
// wire always carries arrays, never null.
func newDeckUpdate(state domain.DeckState) deckUpdate {
	slots := state.Slots
	if slots == nil {
		slots = []domain.Slot{}
	}
	profiles := state.Profiles
	if profiles == nil {
		profiles = []domain.Profile{}
	}
	return deckUpdate{
		Type:              "deck_update",
		Slots:             slots,
		ActiveProfileID:   state.ActiveProfileID,
		ActiveProfileName: state.ActiveProfileName,
		Profiles:          profiles,
	}
}
