// Package app wires the deck daemon together: stores, services, protocol
// engine, HTTP server, and lifecycle.
package app

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/tapdeck-labs/deckd/internal/deck/host"
	"github.com/tapdeck-labs/deckd/internal/deck/service"
	"github.com/tapdeck-labs/deckd/internal/deck/store"
	"github.com/tapdeck-labs/deckd/internal/deck/store/drivers/jsonfile"
	"github.com/tapdeck-labs/deckd/internal/deck/ws"
	"github.com/tapdeck-labs/deckd/pkg/slogx"
)

const (
	// BuildVersion should be set at build time via ldflags. Later problem
	BuildVersion = "v0.1.0"
)

// Application encapsulates the deck daemon with all its dependencies.
type Application struct {
	cfg    Config
	logger *slog.Logger

	ledger *store.Ledger
	files  *jsonfile.Store

	pairingService *service.PairingService
	deckService    *service.DeckService
	actionService  *service.ActionService
	sweeperService *service.SweeperService

	engine *ws.Server
	server *http.Server
}

// New creates an Application with all dependencies initialized. The exec
// host is the default set of capabilities; an embedding desktop shell may
// swap in native implementations through the option funcs below.
func New(cfg Config, opts ...Option) (*Application, error) {
	app := &Application{
		cfg: cfg,
		logger: slogx.New(slogx.Config{
			Service: "deckd",
			Version: BuildVersion,
			Env:     cfg.Env,
			Level:   cfg.LogLevel,
			Format:  cfg.LogFormat,
		}),
	}

	execHost := host.NewExecHost()
	settings := &options{
		opener: execHost,
		runner: execHost,
	}
	for _, opt := range opts {
		opt(settings)
	}

	app.ledger = store.NewLedger()
	app.files = jsonfile.New(cfg.StateFile, cfg.AuditFile)

	app.pairingService = &service.PairingService{
		Ledger:       app.ledger,
		Audit:        app.files,
		Logger:       app.logger,
		Port:         cfg.Port,
		ChallengeTTL: cfg.ChallengeTTL,
		TrustTTL:     cfg.TrustTTL,
		Notify:       settings.notify,
	}

	app.deckService = service.NewDeckService(app.files, app.logger)
	app.actionService = service.NewActionService(settings.runner)
	app.sweeperService = service.NewSweeperService(app.ledger, app.logger, cfg.SweepInterval)

	app.engine = ws.NewServer(
		app.pairingService,
		app.deckService,
		app.actionService,
		settings.opener,
		app.logger,
	)

	// Every mutation, remote or local, fans out through the engine
	app.deckService.OnUpdate(app.engine.Broadcast)

	app.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           app.engine.Handler(),
		ReadHeaderTimeout: 3 * time.Second,
	}

	return app, nil
}

// Pairing exposes the pairing service so the host application can issue
// challenges for its QR screen and revoke devices.
func (app *Application) Pairing() *service.PairingService { return app.pairingService }

// Deck exposes the deck service so the host application's editor can read
// and replace state; replacements broadcast to subscribers automatically.
func (app *Application) Deck() *service.DeckService { return app.deckService }

// Actions exposes the action registry so hosts can add custom actions.
func (app *Application) Actions() *service.ActionService { return app.actionService }

// Run starts the daemon and blocks until shutdown is requested.
func (app *Application) Run() error {
	app.sweeperService.Start()

	app.logger.Info("deck daemon listening",
		"port", app.cfg.Port,
		"state_file", app.cfg.StateFile,
	)

	serverErrors := make(chan error, 1)
	go func() {
		serverErrors <- app.server.ListenAndServe()
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		if err != nil && err != http.ErrServerClosed {
			return fmt.Errorf("server failed: %w", err)
		}
	case sig := <-shutdown:
		app.logger.Info("shutdown signal received", "signal", sig)
		if err := app.Shutdown(); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
	}

	return nil
}

// Shutdown gracefully stops the daemon.
func (app *Application) Shutdown() error {
	app.logger.Info("shutting down deck daemon...")

	ctx, cancel := context.WithTimeout(context.Background(), app.cfg.ShutdownGracePeriod)
	defer cancel()

	if err := app.server.Shutdown(ctx); err != nil {
		app.logger.Error("graceful server shutdown failed", "error", err)
		if err := app.server.Close(); err != nil {
			app.logger.Error("error closing server", "error", err)
		}
	}

	app.sweeperService.Stop()

	app.logger.Info("deck daemon stopped")
	return nil
}

// Option customizes host capabilities at construction time.
type Option func(*options)

type options struct {
	opener host.Opener
	runner host.Runner
	notify host.PairNotifier
}

// WithOpener replaces the exec-based path opener.
func WithOpener(o host.Opener) Option {
	return func(s *options) { s.opener = o }
}

// WithRunner replaces the exec-based action runner.
func WithRunner(r host.Runner) Option {
	return func(s *options) { s.runner = r }
}

// WithPairNotifier registers the host callback fired once per completed
// pairing.
func WithPairNotifier(n host.PairNotifier) Option {
	return func(s *options) { s.notify = n }
}
