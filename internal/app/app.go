package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/specialistvlad/defigrid/internal/chainrpc"
	"github.com/specialistvlad/defigrid/internal/ctxlog"
	"github.com/specialistvlad/defigrid/internal/dexapi"
	"github.com/specialistvlad/defigrid/internal/engine"
	"github.com/specialistvlad/defigrid/internal/registry"
	"github.com/specialistvlad/defigrid/internal/signing"
)

const shutdownTimeout = 10 * time.Second

// App encapsulates the application's dependencies, configuration, and lifecycle.
type App struct {
	outW     io.Writer
	logger   *slog.Logger
	config   *Config
	registry *registry.Registry
	engine   *engine.Engine
	signer   *signing.SocketIO
}

// NewApp is the constructor for the main application. It builds an isolated
// logger, connects the optional signer bridge, registers modules (the core
// set when none are given) and freezes the registry behind a new engine.
func NewApp(ctx context.Context, outW io.Writer, cfg *Config, modules ...registry.Module) (*App, error) {
	logger := newLogger(cfg.LogLevel, cfg.LogFormat, outW)
	ctx = ctxlog.WithLogger(ctx, logger)
	logger.Debug("Logger configured successfully.")

	a := &App{outW: outW, logger: logger, config: cfg}

	var shared signing.Channel
	if cfg.SignerURL != "" {
		sock, err := signing.Dial(ctx, signing.DialOptions{
			URL:                cfg.SignerURL,
			Namespace:          cfg.SignerNamespace,
			InsecureSkipVerify: cfg.SignerInsecure,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to connect signer: %w", err)
		}
		a.signer = sock
		shared = sock
	}

	if len(modules) == 0 {
		var dex *dexapi.Client
		if cfg.DEXURL != "" {
			dex = dexapi.New(cfg.DEXURL, cfg.DEXAPIKey, 0)
		}
		var rpc *chainrpc.Pool
		if len(cfg.RPCEndpoints) > 0 {
			rpc = chainrpc.NewPool(cfg.RPCEndpoints, chainrpc.Options{MaxRetries: cfg.RPCRetries, Logger: logger})
		}
		modules = coreModules(cfg, dex, rpc)
	}
	a.registry = registry.Load(modules...)
	logger.Debug("All Go modules registered.", "count", len(modules), "types", len(a.registry.Types()))

	a.engine = engine.New(a.registry, engine.Options{
		Workers:     cfg.Workers,
		NodeTimeout: cfg.NodeTimeout,
		RecordTTL:   cfg.RecordTTL,
		Signer:      shared,
	})
	return a, nil
}

// Registry returns the application's registry. This is primarily for testing.
func (a *App) Registry() *registry.Registry {
	return a.registry
}

// Engine returns the engine runs are submitted to.
func (a *App) Engine() *engine.Engine {
	return a.engine
}

// Close waits for background runs and disconnects the signer.
func (a *App) Close(ctx context.Context) error {
	a.logger.Debug("Closing application...")
	var errs []error
	if err := a.engine.Shutdown(ctx); err != nil {
		errs = append(errs, fmt.Errorf("engine shutdown: %w", err))
	}
	if a.signer != nil {
		if err := a.signer.Close(); err != nil {
			errs = append(errs, fmt.Errorf("signer close: %w", err))
		}
	}
	return errors.Join(errs...)
}

// Context returns parent carrying the app's logger, as engine calls expect.
func (a *App) Context(parent context.Context) context.Context {
	return ctxlog.WithLogger(parent, a.logger)
}
