package inmemorystore

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/specialistvlad/defigrid/internal/node"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetAndGetStatus(t *testing.T) {
	s := New()
	ctx := context.Background()

	// Get status of a node that doesn't exist yet
	status, err := s.GetStatus(ctx, "wallet")
	require.NoError(t, err)
	assert.Equal(t, node.StatusPending, status)

	require.NoError(t, s.SetStatus(ctx, "wallet", node.StatusExecuting))

	status, err = s.GetStatus(ctx, "wallet")
	require.NoError(t, err)
	assert.Equal(t, node.StatusExecuting, status)
}

func TestCompareAndSwapStatus(t *testing.T) {
	s := New()
	ctx := context.Background()

	ok, err := s.CompareAndSwapStatus(ctx, "a", node.StatusPending, node.StatusValidating)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = s.CompareAndSwapStatus(ctx, "a", node.StatusPending, node.StatusSkipped)
	require.NoError(t, err)
	assert.False(t, ok, "status already moved past pending")

	status, _ := s.GetStatus(ctx, "a")
	assert.Equal(t, node.StatusValidating, status)
}

func TestCompareAndSwapStatus_SingleWinner(t *testing.T) {
	s := New()
	ctx := context.Background()

	var wins atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if ok, _ := s.CompareAndSwapStatus(ctx, "contended", node.StatusPending, node.StatusValidating); ok {
				wins.Add(1)
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, int32(1), wins.Load())
}

func TestSetAndGetOutput(t *testing.T) {
	s := New()
	ctx := context.Background()

	output, ok, err := s.GetOutput(ctx, "quote")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Nil(t, output)

	expected := map[string]any{"amount_out": "12.5"}
	require.NoError(t, s.SetOutput(ctx, "quote", expected))

	output, ok, err = s.GetOutput(ctx, "quote")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, expected, output)
}

func TestSetAndGetError(t *testing.T) {
	s := New()
	ctx := context.Background()

	retrievedErr, err := s.GetError(ctx, "swap")
	require.NoError(t, err)
	assert.Nil(t, retrievedErr)

	expectedErr := errors.New("a test error occurred")
	require.NoError(t, s.SetError(ctx, "swap", expectedErr))

	retrievedErr, err = s.GetError(ctx, "swap")
	require.NoError(t, err)
	assert.Equal(t, expectedErr, retrievedErr)
}

func TestConcurrentWrites(t *testing.T) {
	s := New()
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			id := fmt.Sprintf("n%d", i)
			_ = s.SetStatus(ctx, id, node.StatusSucceeded)
			_ = s.SetOutput(ctx, id, map[string]any{"i": i})
		}(i)
	}
	wg.Wait()

	for i := 0; i < 100; i++ {
		out, ok, err := s.GetOutput(ctx, fmt.Sprintf("n%d", i))
		require.NoError(t, err)
		require.True(t, ok)
		assert.Equal(t, i, out["i"])
	}
}
