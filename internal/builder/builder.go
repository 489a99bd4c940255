package builder

import (
	"context"
	"errors"
	"fmt"

	"dario.cat/mergo"
	"github.com/specialistvlad/defigrid/internal/ctxlog"
	"github.com/specialistvlad/defigrid/internal/graph"
	"github.com/specialistvlad/defigrid/internal/handlers"
	"github.com/specialistvlad/defigrid/internal/node"
	"github.com/specialistvlad/defigrid/internal/nodetype"
	"github.com/specialistvlad/defigrid/internal/task"
)

// ErrUnresolvedReference is returned when a declared input references a
// node that is not a direct dependency, or a path missing from its output.
var ErrUnresolvedReference = errors.New("unresolved output reference")

// Lookup resolves the handler of a node type. The registry satisfies it.
type Lookup interface {
	Lookup(t nodetype.Type) (*handlers.Handler, error)
}

// Builder assembles tasks for one run.
type Builder struct {
	g         graph.Graph
	handlers  Lookup
	variables map[string]any
}

// New creates a builder reading outputs from g. variables are the run's
// workflow variables merged with any submitted overrides.
func New(g graph.Graph, h Lookup, variables map[string]any) *Builder {
	return &Builder{g: g, handlers: h, variables: variables}
}

// Build prepares n for execution. All dependencies of n must have succeeded.
func (b *Builder) Build(ctx context.Context, n *node.Node) (*task.Task, error) {
	logger := ctxlog.FromContext(ctx)

	h, err := b.handlers.Lookup(n.Type)
	if err != nil {
		return nil, err
	}

	merged := deepCopyMap(b.variables)
	if merged == nil {
		merged = map[string]any{}
	}

	deps, err := b.g.DependenciesOf(ctx, n.ID)
	if err != nil {
		return nil, err
	}
	outputs := make(map[string]map[string]any, len(deps))
	for _, dep := range deps {
		out, ok := b.g.Output(ctx, dep.ID)
		if !ok {
			return nil, fmt.Errorf("dependency %s of %s has no output", dep.ID, n.ID)
		}
		outputs[dep.ID] = out
		if len(out) == 0 {
			continue
		}
		if err := mergo.Merge(&merged, deepCopyMap(out), mergo.WithOverride); err != nil {
			return nil, fmt.Errorf("merging output of %s into %s: %w", dep.ID, n.ID, err)
		}
	}

	declared, err := resolveMap(deepCopyMap(n.Decl.Inputs), outputs)
	if err != nil {
		return nil, fmt.Errorf("node %s: %w", n.ID, err)
	}
	if len(declared) > 0 {
		if err := mergo.Merge(&merged, declared, mergo.WithOverride); err != nil {
			return nil, fmt.Errorf("merging declared inputs of %s: %w", n.ID, err)
		}
	}

	logger.Debug("Task built.", "node_id", n.ID, "input_keys", len(merged))
	return &task.Task{Node: n, Handler: h, Inputs: handlers.Inputs(merged)}, nil
}
