package execctx

import (
	"context"
	"testing"
	"time"

	"github.com/specialistvlad/defigrid/internal/ctxlog"
	"github.com/specialistvlad/defigrid/internal/flowerr"
	"github.com/specialistvlad/defigrid/internal/signing"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestForNode_SharesRunState(t *testing.T) {
	run := New("exec", "wf", map[string]any{"chain_id": 1}, map[string]string{"rpc_key": "k"}, nil)
	a := run.ForNode("a")
	b := run.ForNode("b")

	assert.Equal(t, "a", a.NodeID)
	assert.Equal(t, "b", b.NodeID)
	assert.Empty(t, run.NodeID)
	assert.Equal(t, run.StartTime, a.StartTime)

	key, ok := b.Secret("rpc_key")
	require.True(t, ok)
	assert.Equal(t, "k", key)
	assert.GreaterOrEqual(t, a.Elapsed(), time.Duration(0))
}

func TestAwaitApproval_NoSigner(t *testing.T) {
	run := New("exec", "wf", nil, nil, nil)
	_, err := run.ForNode("swap").AwaitApproval(ctxlog.Discard(context.Background()), "tx", time.Second)
	assert.ErrorIs(t, err, flowerr.ErrNoSigner)
	run.Close()
}

func TestAwaitApproval_UsesNodeID(t *testing.T) {
	ch := signing.NewLocal()
	ch.On(signing.RequestEvent, func(p any) {
		req := p.(signing.Request)
		_ = ch.Emit(signing.SignedEvent(req.ExecutionID, req.NodeID), "signed-"+req.NodeID)
	})
	run := New("exec", "wf", nil, nil, ch)
	defer run.Close()

	signed, err := run.ForNode("swap").AwaitApproval(ctxlog.Discard(context.Background()), "tx", time.Second)
	require.NoError(t, err)
	assert.Equal(t, "signed-swap", signed)
	assert.Empty(t, run.Approvals().List())
}
