package host

import (
	"context"
	"fmt"
	"os/exec"
	"runtime"
)

// Action identifiers the exec host knows how to run.
const (
	ActionPlayPause   = "play_pause"
	ActionMuteToggle  = "mute_toggle"
	ActionOpenBrowser = "open_browser"
)

// ErrUnknownAction is returned for action identifiers the host has no
// command for.
var ErrUnknownAction = fmt.Errorf("unknown action")

// ExecHost shells out to the platform for every capability. It is the
// default implementation used by the daemon binary; embedding hosts replace
// it with native calls.
type ExecHost struct {
	// goos overrides runtime.GOOS in tests.
	goos string
}

func NewExecHost() *ExecHost {
	return &ExecHost{}
}

func (h *ExecHost) os() string {
	if h.goos != "" {
		return h.goos
	}
	return runtime.GOOS
}

// OpenPath asks the OS to launch the given path with its default handler.
func (h *ExecHost) OpenPath(ctx context.Context, path string) error {
	var cmd *exec.Cmd
	switch h.os() {
	case "darwin":
		cmd = exec.CommandContext(ctx, "open", path)
	case "windows":
		cmd = exec.CommandContext(ctx, "cmd", "/c", "start", "", path)
	default:
		cmd = exec.CommandContext(ctx, "xdg-open", path)
	}

	if out, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("open %q: %w: %s", path, err, out)
	}
	return nil
}

// RunAction executes the platform command behind a built-in action and
// returns its status string.
func (h *ExecHost) RunAction(ctx context.Context, actionID string) (string, error) {
	argv, status, err := h.actionCommand(actionID)
	if err != nil {
		return "", err
	}

	cmd := exec.CommandContext(ctx, argv[0], argv[1:]...)
	if out, err := cmd.CombinedOutput(); err != nil {
		return "", fmt.Errorf("action %s: %w: %s", actionID, err, out)
	}
	return status, nil
}

func (h *ExecHost) actionCommand(actionID string) (argv []string, status string, err error) {
	switch actionID {
	case ActionPlayPause:
		switch h.os() {
		case "darwin":
			return []string{"osascript", "-e", `tell application "System Events" to key code 16`}, "Play/Pause sent.", nil
		default:
			return []string{"playerctl", "play-pause"}, "Play/Pause sent.", nil
		}
	case ActionMuteToggle:
		switch h.os() {
		case "darwin":
			return []string{"osascript", "-e", `set volume output muted not (output muted of (get volume settings))`}, "Mute toggled.", nil
		default:
			return []string{"pactl", "set-sink-mute", "@DEFAULT_SINK@", "toggle"}, "Mute toggled.", nil
		}
	case ActionOpenBrowser:
		switch h.os() {
		case "darwin":
			return []string{"open", "https://google.com"}, "Browser launch requested.", nil
		case "windows":
			return []string{"cmd", "/c", "start", "", "https://google.com"}, "Browser launch requested.", nil
		default:
			return []string{"xdg-open", "https://google.com"}, "Browser launch requested.", nil
		}
	default:
		return nil, "", ErrUnknownAction
	}
}
