package deck_test

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"golang.org/x/net/websocket"

	"github.com/tapdeck-labs/deckd/internal/deck/app"
	"github.com/tapdeck-labs/deckd/internal/deck/domain"
)

type fakeRunner struct{}

func (fakeRunner) RunAction(_ context.Context, actionID string) (string, error) {
	return "ran " + actionID, nil
}

type fakeOpener struct{}

func (fakeOpener) OpenPath(_ context.Context, _ string) error { return nil }

func freePort(t *testing.T) int {
	t.Helper()
	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	port := l.Addr().(*net.TCPAddr).Port
	require.NoError(t, l.Close())
	return port
}

// startDaemon boots the full application on an ephemeral port, exactly as
// the desktop shell would, with exec capabilities faked out.
func startDaemon(t *testing.T) (*app.Application, int, chan string) {
	t.Helper()

	dir := t.TempDir()
	port := freePort(t)

	t.Setenv("TAPDECK_PORT", fmt.Sprintf("%d", port))
	t.Setenv("TAPDECK_STATE_DIR", dir)
	t.Setenv("TAPDECK_STATE_FILE", filepath.Join(dir, "deck-state.json"))
	t.Setenv("TAPDECK_AUDIT_FILE", filepath.Join(dir, "paired-devices.json"))
	t.Setenv("LOG_LEVEL", "error")

	cfg, err := app.LoadConfig()
	require.NoError(t, err)

	notified := make(chan string, 1)
	application, err := app.New(cfg,
		app.WithRunner(fakeRunner{}),
		app.WithOpener(fakeOpener{}),
		app.WithPairNotifier(func(_, deviceName string) { notified <- deviceName }),
	)
	require.NoError(t, err)

	done := make(chan error, 1)
	go func() { done <- application.Run() }()
	t.Cleanup(func() {
		require.NoError(t, application.Shutdown())
		select {
		case err := <-done:
			require.NoError(t, err)
		case <-time.After(5 * time.Second):
			t.Fatal("daemon did not stop")
		}
	})

	// Wait for the listener to come up
	require.Eventually(t, func() bool {
		conn, err := net.DialTimeout("tcp", fmt.Sprintf("127.0.0.1:%d", port), 100*time.Millisecond)
		if err != nil {
			return false
		}
		_ = conn.Close()
		return true
	}, 5*time.Second, 50*time.Millisecond)

	return application, port, notified
}

func dial(t *testing.T, port int) *websocket.Conn {
	t.Helper()
	origin := fmt.Sprintf("http://127.0.0.1:%d", port)
	conn, err := websocket.Dial(fmt.Sprintf("ws://127.0.0.1:%d/ws", port), "", origin)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func send(t *testing.T, conn *websocket.Conn, frame map[string]any) {
	t.Helper()
	raw, err := json.Marshal(frame)
	require.NoError(t, err)
	require.NoError(t, websocket.Message.Send(conn, string(raw)))
}

func recv(t *testing.T, conn *websocket.Conn) map[string]any {
	t.Helper()
	require.NoError(t, conn.SetDeadline(time.Now().Add(3*time.Second)))
	var raw string
	require.NoError(t, websocket.Message.Receive(conn, &raw))
	var frame map[string]any
	require.NoError(t, json.Unmarshal([]byte(raw), &frame))
	return frame
}

func TestFullPairingAndSyncFlow(t *testing.T) {
	application, port, notified := startDaemon(t)

	// Desktop side: issue a challenge for the QR screen
	issued, err := application.Pairing().IssueChallenge(context.Background())
	require.NoError(t, err)

	var payload domain.QRPayload
	require.NoError(t, json.Unmarshal([]byte(issued.QRPayload), &payload))
	require.Equal(t, port, payload.Port)

	// Phone side: connect, bind the token, submit the PIN
	phone := dial(t, port)
	send(t, phone, map[string]any{"type": "pair_request", "token": issued.Token})
	send(t, phone, map[string]any{"type": "pair_verify", "pin": issued.PIN, "deviceName": "E2E Phone"})
	require.Equal(t, "pair_success", recv(t, phone)["type"])

	select {
	case device := <-notified:
		require.Equal(t, "E2E Phone", device)
	case <-time.After(time.Second):
		t.Fatal("host was never notified of the pairing")
	}

	// Subscribe and receive the initial snapshot
	send(t, phone, map[string]any{"type": "deck_subscribe"})
	snapshot := recv(t, phone)
	require.Equal(t, "deck_update", snapshot["type"])
	require.Len(t, snapshot["slots"], domain.SlotsPerProfile)

	// Desktop edits a slot; the phone converges without polling
	name, path := "Terminal", "/Applications/Utilities/Terminal.app"
	application.Deck().Replace(domain.ReplacePayload{
		Slots: []domain.Slot{{Label: "Slot 1", Name: &name, Path: &path}},
	})

	update := recv(t, phone)
	require.Equal(t, "deck_update", update["type"])
	slots := update["slots"].([]any)
	require.Equal(t, "Terminal", slots[0].(map[string]any)["name"])

	// Phone triggers the slot and an action
	send(t, phone, map[string]any{"type": "deck_open", "label": "Slot 1"})
	resp := recv(t, phone)
	require.Equal(t, "deck_open_ack", resp["type"])
	require.Equal(t, "Opening Terminal", resp["message"])

	send(t, phone, map[string]any{"type": "action", "actionId": "play_pause"})
	resp = recv(t, phone)
	require.Equal(t, "action_ack", resp["type"])
	require.Equal(t, "ran play_pause", resp["message"])
}

func TestStateSurvivesRestart(t *testing.T) {
	dir := t.TempDir()
	stateFile := filepath.Join(dir, "deck-state.json")

	t.Setenv("TAPDECK_PORT", fmt.Sprintf("%d", freePort(t)))
	t.Setenv("TAPDECK_STATE_DIR", dir)
	t.Setenv("TAPDECK_STATE_FILE", stateFile)
	t.Setenv("TAPDECK_AUDIT_FILE", filepath.Join(dir, "paired-devices.json"))
	t.Setenv("LOG_LEVEL", "error")

	cfg, err := app.LoadConfig()
	require.NoError(t, err)

	first, err := app.New(cfg, app.WithRunner(fakeRunner{}), app.WithOpener(fakeOpener{}))
	require.NoError(t, err)

	name := "Mail"
	first.Deck().Replace(domain.ReplacePayload{
		Slots: []domain.Slot{{Label: "Slot 1", Name: &name}},
	})

	// A fresh process sees the persisted deck
	second, err := app.New(cfg, app.WithRunner(fakeRunner{}), app.WithOpener(fakeOpener{}))
	require.NoError(t, err)

	snap := second.Deck().Snapshot()
	require.Equal(t, "Mail", *snap.Slots[0].Name)
}
