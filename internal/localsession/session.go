// Package localsession provides a concrete implementation of the session.Session
// and session.Factory interfaces for local, in-process execution.
package localsession

import (
	"context"
	"fmt"
	"time"

	"dario.cat/mergo"
	"github.com/specialistvlad/defigrid/internal/builder"
	"github.com/specialistvlad/defigrid/internal/ctxlog"
	"github.com/specialistvlad/defigrid/internal/execctx"
	"github.com/specialistvlad/defigrid/internal/executor"
	"github.com/specialistvlad/defigrid/internal/graph"
	"github.com/specialistvlad/defigrid/internal/inmemorystore"
	"github.com/specialistvlad/defigrid/internal/inmemorytopology"
	"github.com/specialistvlad/defigrid/internal/localexecutor"
	"github.com/specialistvlad/defigrid/internal/model"
	"github.com/specialistvlad/defigrid/internal/registry"
	"github.com/specialistvlad/defigrid/internal/result"
	"github.com/specialistvlad/defigrid/internal/scheduler"
	"github.com/specialistvlad/defigrid/internal/session"
)

// Factory implements session.Factory for local runs.
type Factory struct {
	Registry *registry.Registry
}

var _ session.Factory = (*Factory)(nil)

// NewSession validates def and wires a fresh set of per-run components.
// A structurally invalid workflow is rejected here, before anything runs.
func (f *Factory) NewSession(ctx context.Context, def *model.WorkflowDefinition, opts session.Options) (session.Session, error) {
	logger := ctxlog.FromContext(ctx)
	logger.Debug("Creating local session.", "workflow_id", def.ID)

	topoStore := inmemorytopology.New()
	nodeStore := inmemorystore.New()
	g, err := graph.Build(ctx, def, f.Registry, topoStore, nodeStore)
	if err != nil {
		return nil, err
	}

	vars, err := MergeVariables(def.Variables, opts.Variables)
	if err != nil {
		return nil, err
	}

	ec := execctx.New(opts.ExecutionID, def.ID, vars, opts.Secrets, opts.Signer)
	agg := result.NewAggregator(opts.ExecutionID, def.ID, ec.StartTime)
	sched := scheduler.New(g)
	b := builder.New(g, f.Registry, vars)
	exec := localexecutor.New(g, sched, b, agg, ec, localexecutor.Options{
		Workers:     opts.Workers,
		NodeTimeout: opts.NodeTimeout,
	})

	return &Session{executor: exec, execCtx: ec, results: agg}, nil
}

// MergeVariables layers overrides on top of the workflow's defaults without
// modifying either.
func MergeVariables(defaults, overrides map[string]any) (map[string]any, error) {
	vars := builder.DeepCopy(defaults)
	if vars == nil {
		vars = map[string]any{}
	}
	if len(overrides) == 0 {
		return vars, nil
	}
	if err := mergo.Merge(&vars, builder.DeepCopy(overrides), mergo.WithOverride); err != nil {
		return nil, fmt.Errorf("merging variables: %w", err)
	}
	return vars, nil
}

// Session implements session.Session for local runs.
type Session struct {
	executor executor.Executor
	execCtx  *execctx.Context
	results  *result.Aggregator
}

// Executor returns the executor that was created and wired up by the factory.
func (s *Session) Executor() executor.Executor {
	return s.executor
}

// Context returns the run-level execution context.
func (s *Session) Context() *execctx.Context {
	return s.execCtx
}

// Result renders the results aggregated so far.
func (s *Session) Result() *result.Workflow {
	return s.results.Snapshot(time.Now())
}

// Close releases pending approvals. The in-memory stores are left to the
// garbage collector.
func (s *Session) Close(ctx context.Context) error {
	ctxlog.FromContext(ctx).Debug("Closing local session.", "execution_id", s.execCtx.ExecutionID)
	s.execCtx.Close()
	return nil
}
