package flowerr

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWorkflowError_MatchesSentinels(t *testing.T) {
	err := &WorkflowError{
		WorkflowID: "wf",
		Problems: []error{
			fmt.Errorf("node %q: %w", "a", ErrCycle),
			fmt.Errorf("node %q: %w", "b", ErrDanglingDependency),
		},
	}

	assert.ErrorIs(t, err, ErrCycle)
	assert.ErrorIs(t, err, ErrDanglingDependency)
	assert.NotErrorIs(t, err, ErrDuplicateNode)
	assert.Contains(t, err.Error(), `workflow "wf" rejected`)
}

func TestChainError(t *testing.T) {
	base := errors.New("nonce too low")
	wrapped := fmt.Errorf("broadcast: %w", &ChainError{ChainID: 43114, TxHash: "0xabc", Transient: true, Err: base})

	var chainErr *ChainError
	require.ErrorAs(t, wrapped, &chainErr)
	assert.Equal(t, int64(43114), chainErr.ChainID)
	assert.ErrorIs(t, wrapped, base)
	assert.True(t, IsTransient(wrapped))
	assert.False(t, IsTransient(base))
	assert.Equal(t, "chain 43114 tx 0xabc: nonce too low", chainErr.Error())
}

func TestExecutionError_Unwrap(t *testing.T) {
	inner := &ApprovalTimeoutError{ExecutionID: "e", NodeID: "icm", Timeout: time.Second}
	err := &ExecutionError{ExecutionID: "e", NodeID: "icm", Type: "icm_sender", Err: inner}

	var timeoutErr *ApprovalTimeoutError
	require.ErrorAs(t, err, &timeoutErr)
	assert.Contains(t, err.Error(), "signing timeout")
}
