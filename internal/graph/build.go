package graph

import (
	"context"
	"fmt"
	"strings"

	"github.com/specialistvlad/defigrid/internal/ctxlog"
	"github.com/specialistvlad/defigrid/internal/flowerr"
	"github.com/specialistvlad/defigrid/internal/model"
	"github.com/specialistvlad/defigrid/internal/node"
	"github.com/specialistvlad/defigrid/internal/nodetype"
	"github.com/specialistvlad/defigrid/internal/nodestore"
	"github.com/specialistvlad/defigrid/internal/topologystore"
)

// TypeSet reports which node types can be executed. The handler registry
// satisfies it.
type TypeSet interface {
	Has(t nodetype.Type) bool
}

// Build validates def and populates fresh stores with its DAG. Nothing is
// executed. All structural problems are collected and returned together as
// a *flowerr.WorkflowError so a caller sees the full picture at once.
func Build(ctx context.Context, def *model.WorkflowDefinition, types TypeSet, ts topologystore.Store, ns nodestore.Store) (*Manager, error) {
	logger := ctxlog.FromContext(ctx)
	logger.Debug("Building workflow graph.", "workflow_id", def.ID, "node_count", len(def.Nodes))

	var problems []error

	for _, decl := range def.Nodes {
		if decl.ID == "" {
			problems = append(problems, fmt.Errorf("node of type %q has no id: %w", decl.Type, flowerr.ErrInvalidDeclaration))
			continue
		}
		typ, err := nodetype.Parse(decl.Type)
		if err != nil {
			problems = append(problems, fmt.Errorf("node %q: %v: %w", decl.ID, err, flowerr.ErrUnknownNodeType))
			continue
		}
		if types != nil && !types.Has(typ) {
			problems = append(problems, fmt.Errorf("node %q: no executor registered for %s: %w", decl.ID, typ, flowerr.ErrUnknownNodeType))
			continue
		}
		if err := ts.AddNode(ctx, node.New(decl, typ)); err != nil {
			problems = append(problems, err)
		}
	}

	declared := make(map[string]bool, len(def.Nodes))
	for _, decl := range def.Nodes {
		declared[decl.ID] = true
	}
	for _, decl := range def.Nodes {
		if _, ok := ts.GetNode(ctx, decl.ID); !ok {
			continue
		}
		for _, dep := range decl.Dependencies {
			switch {
			case dep == decl.ID:
				problems = append(problems, fmt.Errorf("node %q depends on itself: %w", decl.ID, flowerr.ErrCycle))
			case !declared[dep]:
				problems = append(problems, fmt.Errorf("node %q depends on %q: %w", decl.ID, dep, flowerr.ErrDanglingDependency))
			default:
				// A dependency that was itself rejected above is already reported.
				if _, ok := ts.GetNode(ctx, dep); !ok {
					continue
				}
				if err := ts.AddDependency(ctx, dep, decl.ID); err != nil {
					problems = append(problems, err)
				}
			}
		}
	}

	if cycle := detectCycle(ctx, ts); cycle != nil {
		problems = append(problems, fmt.Errorf("%s: %w", strings.Join(cycle, " -> "), flowerr.ErrCycle))
	}

	if len(problems) > 0 {
		logger.Warn("Workflow rejected.", "workflow_id", def.ID, "problems", len(problems))
		return nil, &flowerr.WorkflowError{WorkflowID: def.ID, Problems: problems}
	}

	for _, n := range ts.AllNodes(ctx) {
		if err := ns.SetStatus(ctx, n.ID, node.StatusPending); err != nil {
			return nil, err
		}
	}

	logger.Debug("Workflow graph built.", "workflow_id", def.ID)
	return New(ts, ns), nil
}

// detectCycle runs a depth-first search over dependency edges and returns
// the first cycle found as a path that starts and ends on the same node, or
// nil if the graph is acyclic.
func detectCycle(ctx context.Context, ts topologystore.Store) []string {
	// permanent: fully explored, known not to be on a cycle.
	// onStack: in the current DFS path, index into stack.
	permanent := make(map[string]bool)
	onStack := make(map[string]int)
	var stack []string

	var visit func(id string) []string
	visit = func(id string) []string {
		if permanent[id] {
			return nil
		}
		if idx, ok := onStack[id]; ok {
			cycle := append([]string{}, stack[idx:]...)
			return append(cycle, id)
		}

		onStack[id] = len(stack)
		stack = append(stack, id)

		dependents, _ := ts.DependentsOf(ctx, id)
		for _, next := range dependents {
			if cycle := visit(next); cycle != nil {
				return cycle
			}
		}

		stack = stack[:len(stack)-1]
		delete(onStack, id)
		permanent[id] = true
		return nil
	}

	for _, n := range ts.AllNodes(ctx) {
		if cycle := visit(n.ID); cycle != nil {
			return cycle
		}
	}
	return nil
}
