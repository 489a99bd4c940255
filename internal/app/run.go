package app

import (
	"context"
	"errors"
	"fmt"

	json "github.com/goccy/go-json"
	"github.com/specialistvlad/defigrid/internal/api"
	"github.com/specialistvlad/defigrid/internal/ctxlog"
	"github.com/specialistvlad/defigrid/internal/engine"
	"github.com/specialistvlad/defigrid/internal/loader"
	"github.com/specialistvlad/defigrid/internal/model"
)

// ErrRunFailed is returned by Run when at least one workflow did not
// succeed. The results have been written already.
var ErrRunFailed = errors.New("one or more workflows failed")

// Run loads every workflow at path and executes them one after another,
// writing each result as indented JSON to the app's output.
func (a *App) Run(ctx context.Context, path string, req engine.Request) error {
	ctx = ctxlog.WithLogger(ctx, a.logger)
	defs, err := loader.Load(ctx, path)
	if err != nil {
		return err
	}
	if len(defs) == 0 {
		a.logger.Warn("No workflows found, execution not required.", "path", path)
		return nil
	}

	failed := false
	for _, def := range defs {
		a.logger.Info("🚀 Running workflow.", "workflow_id", def.ID, "nodes", len(def.Nodes))
		res, err := a.engine.Run(ctx, def, req)
		if res == nil {
			return fmt.Errorf("%s: %w", source(def), err)
		}
		if werr := a.writeJSON(res); werr != nil {
			return werr
		}
		if err != nil || !res.Success {
			failed = true
		}
		a.logger.Info("🏁 Workflow finished.", "workflow_id", def.ID, "success", res.Success)
	}
	if failed {
		return ErrRunFailed
	}
	return nil
}

// Validate loads every workflow at path and checks its structure.
func (a *App) Validate(ctx context.Context, path string) error {
	ctx = ctxlog.WithLogger(ctx, a.logger)
	defs, err := loader.Load(ctx, path)
	if err != nil {
		return err
	}
	var errs []error
	for _, def := range defs {
		if err := a.engine.Validate(ctx, def); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", source(def), err))
			continue
		}
		a.logger.Info("Workflow is valid.", "workflow_id", def.ID, "nodes", len(def.Nodes))
	}
	return errors.Join(errs...)
}

// Serve runs the HTTP API until ctx is cancelled, then shuts the server and
// the engine down.
func (a *App) Serve(ctx context.Context) error {
	router := api.NewRouter(a.engine, a.logger)
	srv := api.NewServer(a.config.ListenAddr, router, a.logger)

	errCh := make(chan error, 1)
	go func() { errCh <- srv.ListenAndServe() }()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}
	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("api shutdown: %w", err)
	}
	return nil
}

func (a *App) writeJSON(v any) error {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding result: %w", err)
	}
	_, err = fmt.Fprintln(a.outW, string(b))
	return err
}

func source(def *model.WorkflowDefinition) string {
	if def.FSInformation != nil {
		return fmt.Sprintf("workflow %q (%s)", def.ID, def.FSInformation.FilePath)
	}
	return fmt.Sprintf("workflow %q", def.ID)
}
