// Package localexecutor provides a concrete, in-process implementation of the
// executor.Executor interface.
//
// Execution proceeds in rounds. Each round asks the scheduler for every ready
// node and runs them concurrently, bounded by the worker count. A node that
// fails does not cancel its siblings: the scheduler skips its descendants in
// the next round while unrelated branches carry on.
package localexecutor

import (
	"context"
	"fmt"
	"time"

	"github.com/specialistvlad/defigrid/internal/builder"
	"github.com/specialistvlad/defigrid/internal/ctxlog"
	"github.com/specialistvlad/defigrid/internal/execctx"
	"github.com/specialistvlad/defigrid/internal/executor"
	"github.com/specialistvlad/defigrid/internal/flowerr"
	"github.com/specialistvlad/defigrid/internal/graph"
	"github.com/specialistvlad/defigrid/internal/node"
	"github.com/specialistvlad/defigrid/internal/result"
	"github.com/specialistvlad/defigrid/internal/scheduler"
	"golang.org/x/sync/errgroup"
)

// Options tune an executor.
type Options struct {
	// Workers bounds how many nodes of a round run at once. Zero or less
	// means no bound.
	Workers int
	// NodeTimeout bounds each Execute call. Zero disables it.
	NodeTimeout time.Duration
}

// Executor implements the executor.Executor interface for local execution.
type Executor struct {
	graph     graph.Graph
	scheduler *scheduler.Scheduler
	builder   *builder.Builder
	results   *result.Aggregator
	execCtx   *execctx.Context
	opts      Options
}

var _ executor.Executor = (*Executor)(nil)

// New creates a new local executor.
func New(
	g graph.Graph,
	sch *scheduler.Scheduler,
	b *builder.Builder,
	agg *result.Aggregator,
	ec *execctx.Context,
	opts Options,
) *Executor {
	return &Executor{
		graph:     g,
		scheduler: sch,
		builder:   b,
		results:   agg,
		execCtx:   ec,
		opts:      opts,
	}
}

// Execute runs rounds until nothing is left to dispatch.
func (e *Executor) Execute(ctx context.Context) error {
	logger := ctxlog.FromContext(ctx)

	for round := 1; ; round++ {
		if err := ctx.Err(); err != nil {
			e.results.Abort(err)
			return err
		}

		r, err := e.scheduler.NextRound(ctx)
		if err != nil {
			e.results.Abort(err)
			return fmt.Errorf("scheduling round %d: %w", round, err)
		}
		for _, s := range r.Skipped {
			e.results.Skip(s.NodeID, s.Cause)
		}
		if r.Done() {
			logger.Debug("No nodes left to dispatch.", "rounds", round-1)
			return nil
		}

		logger.Debug("Dispatching round.", "round", round, "nodes", len(r.Ready))
		var grp errgroup.Group
		if e.opts.Workers > 0 {
			grp.SetLimit(e.opts.Workers)
		}
		for _, n := range r.Ready {
			grp.Go(func() error {
				return e.runNode(ctx, n)
			})
		}
		if err := grp.Wait(); err != nil {
			e.results.Abort(err)
			return err
		}
	}
}

// runNode drives one node through its state machine. Node-level failures
// are recorded, not returned; an error here means the graph state itself
// could not be updated.
func (e *Executor) runNode(ctx context.Context, n *node.Node) error {
	ctx = ctxlog.With(ctx, "node_id", n.ID, "node_type", n.Type.String())
	logger := ctxlog.FromContext(ctx)

	if err := e.graph.MarkValidating(ctx, n.ID); err != nil {
		return err
	}

	tk, err := e.builder.Build(ctx, n)
	if err != nil {
		return e.reject(ctx, n, []string{err.Error()})
	}
	if v := tk.Handler.Validate(tk.Inputs); !v.Valid {
		return e.reject(ctx, n, v.Errors)
	}

	if err := e.graph.MarkExecuting(ctx, n.ID); err != nil {
		return err
	}
	logger.Debug("Node executing.")

	nodeCtx := ctx
	if e.opts.NodeTimeout > 0 {
		var cancel context.CancelFunc
		nodeCtx, cancel = context.WithTimeout(ctx, e.opts.NodeTimeout)
		defer cancel()
	}
	res := tk.Handler.Execute(nodeCtx, tk.Inputs, e.execCtx.ForNode(n.ID))

	if res.Success {
		if err := e.graph.MarkSucceeded(ctx, n.ID, builder.DeepCopy(res.Outputs)); err != nil {
			return err
		}
		logger.Debug("Node succeeded.", "duration", res.ExecutionTime)
	} else {
		if err := e.graph.MarkFailed(ctx, n.ID, res.Err()); err != nil {
			return err
		}
		logger.Error("Node failed.", "error", res.Error)
	}
	e.results.Record(res)
	return nil
}

func (e *Executor) reject(ctx context.Context, n *node.Node, problems []string) error {
	verr := &flowerr.ValidationError{NodeID: n.ID, Type: n.Type.String(), Problems: problems}
	if err := e.graph.MarkRejected(ctx, n.ID, verr); err != nil {
		return err
	}
	ctxlog.FromContext(ctx).Warn("Node rejected.", "problems", problems)

	res := result.Rejected(verr, []string{verr.Error()})
	res.NodeID = n.ID
	res.Type = n.Type.String()
	e.results.Record(res)
	return nil
}
