// Package host declares the narrow surface the daemon expects from the
// desktop application: launching paths, running named system actions, and
// surfacing pairing notifications. The daemon never reaches around these
// interfaces to touch the OS directly.
package host

import "context"

// Opener launches a filesystem path with the OS default handler. May fail if
// the path is invalid or has no handler.
type Opener interface {
	OpenPath(ctx context.Context, path string) error
}

// Runner performs a named platform effect (media keys, mute, browser) and
// returns a human-readable status string.
type Runner interface {
	RunAction(ctx context.Context, actionID string) (string, error)
}

// PairNotifier is invoked once per successful pairing so the host can show
// a notification.
type PairNotifier func(token, deviceName string)
