package inmemorytopology

import (
	"context"
	"testing"

	"github.com/specialistvlad/defigrid/internal/flowerr"
	"github.com/specialistvlad/defigrid/internal/model"
	"github.com/specialistvlad/defigrid/internal/node"
	"github.com/specialistvlad/defigrid/internal/nodetype"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newNode(id string) *node.Node {
	return node.New(model.NodeDeclaration{ID: id, Type: "wallet"}, nodetype.WalletConnector)
}

func TestAddAndGetNode(t *testing.T) {
	s := New()
	ctx := context.Background()
	n := newNode("a")

	require.NoError(t, s.AddNode(ctx, n))

	got, ok := s.GetNode(ctx, "a")
	require.True(t, ok)
	assert.Same(t, n, got)

	_, ok = s.GetNode(ctx, "missing")
	assert.False(t, ok)
}

func TestAddNode_Duplicate(t *testing.T) {
	s := New()
	ctx := context.Background()
	require.NoError(t, s.AddNode(ctx, newNode("a")))

	err := s.AddNode(ctx, newNode("a"))
	assert.ErrorIs(t, err, flowerr.ErrDuplicateNode)
}

func TestDependencies(t *testing.T) {
	s := New()
	ctx := context.Background()
	for _, id := range []string{"a", "b", "c"} {
		require.NoError(t, s.AddNode(ctx, newNode(id)))
	}

	// c depends on b then a; b depends on a.
	require.NoError(t, s.AddDependency(ctx, "b", "c"))
	require.NoError(t, s.AddDependency(ctx, "a", "c"))
	require.NoError(t, s.AddDependency(ctx, "a", "b"))
	require.NoError(t, s.AddDependency(ctx, "a", "b"))

	deps, err := s.DependenciesOf(ctx, "c")
	require.NoError(t, err)
	assert.Equal(t, []string{"b", "a"}, deps)

	dependents, err := s.DependentsOf(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, []string{"c", "b"}, dependents)

	deps, err = s.DependenciesOf(ctx, "a")
	require.NoError(t, err)
	assert.Empty(t, deps)
}

func TestAddDependency_Dangling(t *testing.T) {
	s := New()
	ctx := context.Background()
	require.NoError(t, s.AddNode(ctx, newNode("a")))

	err := s.AddDependency(ctx, "ghost", "a")
	assert.ErrorIs(t, err, flowerr.ErrDanglingDependency)

	_, err = s.DependenciesOf(ctx, "ghost")
	assert.ErrorIs(t, err, flowerr.ErrNotFound)
}

func TestAllNodes_InsertionOrder(t *testing.T) {
	s := New()
	ctx := context.Background()
	for _, id := range []string{"z", "a", "m"} {
		require.NoError(t, s.AddNode(ctx, newNode(id)))
	}

	var ids []string
	for _, n := range s.AllNodes(ctx) {
		ids = append(ids, n.ID)
	}
	assert.Equal(t, []string{"z", "a", "m"}, ids)
}
