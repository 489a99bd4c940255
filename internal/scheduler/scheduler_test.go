package scheduler

import (
	"context"
	"errors"
	"testing"

	"github.com/specialistvlad/defigrid/internal/ctxlog"
	"github.com/specialistvlad/defigrid/internal/graph"
	"github.com/specialistvlad/defigrid/internal/inmemorystore"
	"github.com/specialistvlad/defigrid/internal/inmemorytopology"
	"github.com/specialistvlad/defigrid/internal/model"
	"github.com/specialistvlad/defigrid/internal/node"
	"github.com/specialistvlad/defigrid/internal/nodetype"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type anyType struct{}

func (anyType) Has(nodetype.Type) bool { return true }

func setup(t *testing.T, nodes ...model.NodeDeclaration) (context.Context, *graph.Manager) {
	t.Helper()
	ctx := ctxlog.Discard(context.Background())
	g, err := graph.Build(ctx, &model.WorkflowDefinition{ID: "wf", Nodes: nodes}, anyType{}, inmemorytopology.New(), inmemorystore.New())
	require.NoError(t, err)
	return ctx, g
}

func d(id string, deps ...string) model.NodeDeclaration {
	return model.NodeDeclaration{ID: id, Type: "wallet", Dependencies: deps}
}

func ids(nodes []*node.Node) []string {
	out := make([]string, 0, len(nodes))
	for _, n := range nodes {
		out = append(out, n.ID)
	}
	return out
}

func succeed(t *testing.T, ctx context.Context, g *graph.Manager, id string) {
	t.Helper()
	require.NoError(t, g.MarkValidating(ctx, id))
	require.NoError(t, g.MarkExecuting(ctx, id))
	require.NoError(t, g.MarkSucceeded(ctx, id, nil))
}

func fail(t *testing.T, ctx context.Context, g *graph.Manager, id string) {
	t.Helper()
	require.NoError(t, g.MarkValidating(ctx, id))
	require.NoError(t, g.MarkExecuting(ctx, id))
	require.NoError(t, g.MarkFailed(ctx, id, errors.New("boom")))
}

func TestNextRound_Layers(t *testing.T) {
	ctx, g := setup(t, d("c", "a", "b"), d("b"), d("a"), d("e", "c"))
	s := New(g)

	r, err := s.NextRound(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, ids(r.Ready))

	succeed(t, ctx, g, "a")
	succeed(t, ctx, g, "b")
	r, err = s.NextRound(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"c"}, ids(r.Ready))

	succeed(t, ctx, g, "c")
	r, err = s.NextRound(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"e"}, ids(r.Ready))

	succeed(t, ctx, g, "e")
	r, err = s.NextRound(ctx)
	require.NoError(t, err)
	assert.True(t, r.Done())
}

func TestNextRound_SkipsTransitiveDependents(t *testing.T) {
	// a -> b -> c, a -> d; x independent.
	ctx, g := setup(t, d("a"), d("b", "a"), d("c", "b"), d("d", "a"), d("x"))
	s := New(g)

	r, err := s.NextRound(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "x"}, ids(r.Ready))

	fail(t, ctx, g, "a")
	succeed(t, ctx, g, "x")

	r, err = s.NextRound(ctx)
	require.NoError(t, err)
	assert.True(t, r.Done())
	assert.ElementsMatch(t, []Skip{{NodeID: "b", Cause: "a"}, {NodeID: "c", Cause: "b"}, {NodeID: "d", Cause: "a"}}, r.Skipped)

	for _, id := range []string{"b", "c", "d"} {
		status, _ := g.NodeStatus(ctx, id)
		assert.Equal(t, node.StatusSkipped, status, id)
	}
}

func TestNextRound_StalledWhenInFlight(t *testing.T) {
	ctx, g := setup(t, d("a"), d("b", "a"))
	s := New(g)
	require.NoError(t, g.MarkValidating(ctx, "a"))

	_, err := s.NextRound(ctx)
	assert.ErrorIs(t, err, ErrStalled)
}
