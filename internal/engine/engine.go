package engine

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/specialistvlad/defigrid/internal/approval"
	"github.com/specialistvlad/defigrid/internal/ctxlog"
	"github.com/specialistvlad/defigrid/internal/flowerr"
	"github.com/specialistvlad/defigrid/internal/graph"
	"github.com/specialistvlad/defigrid/internal/inmemorystore"
	"github.com/specialistvlad/defigrid/internal/inmemorytopology"
	"github.com/specialistvlad/defigrid/internal/localsession"
	"github.com/specialistvlad/defigrid/internal/model"
	"github.com/specialistvlad/defigrid/internal/nodetype"
	"github.com/specialistvlad/defigrid/internal/registry"
	"github.com/specialistvlad/defigrid/internal/result"
	"github.com/specialistvlad/defigrid/internal/runstore"
	"github.com/specialistvlad/defigrid/internal/session"
	"github.com/specialistvlad/defigrid/internal/signing"
)

// Options configure an Engine.
type Options struct {
	Workers     int
	NodeTimeout time.Duration
	// RecordTTL bounds how long finished executions stay queryable.
	RecordTTL time.Duration
	// Signer is an optional transport shared by every run, such as a
	// Socket.IO connection to a wallet bridge.
	Signer signing.Channel
}

// Request carries the per-run parameters of a submission.
type Request struct {
	Variables map[string]any    `json:"variables,omitempty"`
	Secrets   map[string]string `json:"secrets,omitempty"`
}

// Engine runs workflows against a frozen registry.
type Engine struct {
	registry *registry.Registry
	factory  session.Factory
	runs     *runstore.Store
	opts     Options

	mu     sync.Mutex
	active map[string]*activeRun
	wg     sync.WaitGroup
}

type activeRun struct {
	workflowID string
	sess       session.Session
	local      *signing.Local
	cancel     context.CancelFunc
}

// New creates an engine. The registry is frozen if it is not already.
func New(reg *registry.Registry, opts Options) *Engine {
	reg.Freeze()
	if opts.RecordTTL <= 0 {
		opts.RecordTTL = time.Hour
	}
	return &Engine{
		registry: reg,
		factory:  &localsession.Factory{Registry: reg},
		runs:     runstore.New(opts.RecordTTL),
		opts:     opts,
		active:   make(map[string]*activeRun),
	}
}

// Types lists the node types this engine can run.
func (e *Engine) Types() []nodetype.Type {
	return e.registry.Types()
}

// Validate checks def for structural problems without running anything.
func (e *Engine) Validate(ctx context.Context, def *model.WorkflowDefinition) error {
	_, err := graph.Build(ctx, def, e.registry, inmemorytopology.New(), inmemorystore.New())
	return err
}

// Run executes def and blocks until it finishes. A workflow that fails
// structural validation returns an error and no result. A run that was
// cancelled returns its partial result together with the cancellation error.
func (e *Engine) Run(ctx context.Context, def *model.WorkflowDefinition, req Request) (*result.Workflow, error) {
	id, runCtx, ar, err := e.prepare(ctx, def, req)
	if err != nil {
		return nil, err
	}
	return e.execute(runCtx, id, ar)
}

// Submit starts def in the background and returns its execution id. The
// run outlives ctx; use Cancel to stop it.
func (e *Engine) Submit(ctx context.Context, def *model.WorkflowDefinition, req Request) (string, error) {
	id, runCtx, ar, err := e.prepare(context.WithoutCancel(ctx), def, req)
	if err != nil {
		return "", err
	}
	e.wg.Add(1)
	go func() {
		defer e.wg.Done()
		_, _ = e.execute(runCtx, id, ar)
	}()
	return id, nil
}

func (e *Engine) prepare(ctx context.Context, def *model.WorkflowDefinition, req Request) (string, context.Context, *activeRun, error) {
	id := uuid.New().String()
	ctx = ctxlog.With(ctx, "execution_id", id, "workflow_id", def.ID)

	local := signing.NewLocal()
	var signer signing.Channel = local
	if e.opts.Signer != nil {
		signer = signing.Fanout(local, e.opts.Signer)
	}

	sess, err := e.factory.NewSession(ctx, def, session.Options{
		ExecutionID: id,
		Variables:   req.Variables,
		Secrets:     req.Secrets,
		Signer:      signer,
		Workers:     e.opts.Workers,
		NodeTimeout: e.opts.NodeTimeout,
	})
	if err != nil {
		return "", nil, nil, err
	}

	if err := e.runs.Create(runstore.Record{
		ID:          id,
		WorkflowID:  def.ID,
		Status:      runstore.StatusPending,
		SubmittedAt: time.Now(),
	}); err != nil {
		_ = sess.Close(ctx)
		return "", nil, nil, err
	}

	runCtx, cancel := context.WithCancel(ctx)
	ar := &activeRun{workflowID: def.ID, sess: sess, local: local, cancel: cancel}
	e.mu.Lock()
	e.active[id] = ar
	e.mu.Unlock()
	return id, runCtx, ar, nil
}

func (e *Engine) execute(ctx context.Context, id string, ar *activeRun) (*result.Workflow, error) {
	logger := ctxlog.FromContext(ctx)
	defer func() {
		e.mu.Lock()
		delete(e.active, id)
		e.mu.Unlock()
		_ = ar.sess.Close(ctx)
		ar.cancel()
	}()

	if _, err := e.runs.Update(id, func(r *runstore.Record) {
		r.Status = runstore.StatusRunning
		r.StartedAt = time.Now()
	}); err != nil {
		logger.Warn("Execution record not updated.", "error", err)
	}
	logger.Info("Execution started.")

	runErr := ar.sess.Executor().Execute(ctx)
	res := ar.sess.Result()

	status := runstore.StatusSucceeded
	switch {
	case errors.Is(runErr, context.Canceled):
		status = runstore.StatusCancelled
	case runErr != nil || !res.Success:
		status = runstore.StatusFailed
	}
	if _, err := e.runs.Update(id, func(r *runstore.Record) {
		r.Status = status
		r.FinishedAt = time.Now()
		r.Result = res
		r.Error = res.Error
	}); err != nil {
		logger.Error("Execution result not recorded.", "error", err)
	}

	logger.Info("Execution finished.", "status", string(status), "duration", res.ExecutionTime, "nodes", len(res.Nodes), "skipped", len(res.Skipped))
	return res, runErr
}

// Status returns the record of id. While the run is in progress the record
// carries a live snapshot of its results.
func (e *Engine) Status(id string) (runstore.Record, error) {
	ar, active := e.lookup(id)
	rec, err := e.runs.Get(id)
	if err != nil {
		if !active {
			return runstore.Record{}, err
		}
		rec = runstore.Record{ID: id, WorkflowID: ar.workflowID, Status: runstore.StatusRunning}
	}
	if active && !rec.Status.IsFinal() {
		rec.Result = ar.sess.Result()
	}
	return rec, nil
}

// Logs returns the causal log trail of id.
func (e *Engine) Logs(id string) ([]string, error) {
	rec, err := e.Status(id)
	if err != nil {
		return nil, err
	}
	if rec.Result == nil {
		return []string{}, nil
	}
	return rec.Result.Logs, nil
}

// Cancel stops a running execution and releases its pending approvals.
// Cancelling a finished execution is a no-op.
func (e *Engine) Cancel(id string) error {
	ar, ok := e.lookup(id)
	if !ok {
		_, err := e.runs.Get(id)
		return err
	}
	ar.cancel()
	ar.sess.Context().Close()
	return nil
}

// Approvals lists the signatures execution id is waiting for.
func (e *Engine) Approvals(id string) ([]approval.Pending, error) {
	ar, ok := e.lookup(id)
	if !ok {
		if _, err := e.runs.Get(id); err != nil {
			return nil, err
		}
		return []approval.Pending{}, nil
	}
	return ar.sess.Context().Approvals().List(), nil
}

// Deliver hands a signed artifact to the node of execution id that is
// waiting for it.
func (e *Engine) Deliver(id, nodeID string, signed any) error {
	ar, err := e.pending(id, nodeID)
	if err != nil {
		return err
	}
	return ar.local.Emit(signing.SignedEvent(id, nodeID), signed)
}

// DeliverError reports a signer-side failure to the waiting node.
func (e *Engine) DeliverError(id, nodeID, reason string) error {
	ar, err := e.pending(id, nodeID)
	if err != nil {
		return err
	}
	return ar.local.Emit(signing.ErrorEvent(id, nodeID), map[string]any{"reason": reason})
}

func (e *Engine) pending(id, nodeID string) (*activeRun, error) {
	ar, ok := e.lookup(id)
	if !ok {
		return nil, fmt.Errorf("active execution %s: %w", id, flowerr.ErrNotFound)
	}
	if _, ok := ar.sess.Context().Approvals().Get(nodeID); !ok {
		return nil, fmt.Errorf("pending approval for node %s: %w", nodeID, flowerr.ErrNotFound)
	}
	return ar, nil
}

func (e *Engine) lookup(id string) (*activeRun, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	ar, ok := e.active[id]
	return ar, ok
}

// Shutdown cancels every active run and waits for background runs to
// finish or for ctx to end.
func (e *Engine) Shutdown(ctx context.Context) error {
	e.mu.Lock()
	for _, ar := range e.active {
		ar.cancel()
	}
	e.mu.Unlock()

	done := make(chan struct{})
	go func() {
		e.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
