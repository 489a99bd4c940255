package testutil

import (
	"testing"

	"github.com/specialistvlad/defigrid/internal/execctx"
	"github.com/specialistvlad/defigrid/internal/handlers"
	"github.com/specialistvlad/defigrid/internal/nodetype"
	"github.com/specialistvlad/defigrid/internal/registry"
	"github.com/specialistvlad/defigrid/internal/signing"
	"github.com/stretchr/testify/require"
)

// Handler registers mod into a fresh registry and returns its handler for t.
func Handler(tb testing.TB, mod registry.Module, t nodetype.Type) *handlers.Handler {
	tb.Helper()
	reg := registry.Load(mod)
	h, err := reg.Lookup(t)
	require.NoError(tb, err)
	return h
}

// NodeContext returns an execution context scoped to nodeID whose approvals
// go through a fresh local channel, which is also returned.
func NodeContext(tb testing.TB, nodeID string) (*execctx.Context, *signing.Local) {
	tb.Helper()
	ch := signing.NewLocal()
	ec := execctx.New("exec-test", "wf-test", nil, nil, ch)
	tb.Cleanup(ec.Close)
	return ec.ForNode(nodeID), ch
}

// AutoSigner answers every sign request on ch with the event and payload
// returned by fn.
func AutoSigner(ch *signing.Local, fn func(req signing.Request) (string, any)) {
	ch.On(signing.RequestEvent, func(p any) {
		req, ok := p.(signing.Request)
		if !ok {
			return
		}
		event, payload := fn(req)
		_ = ch.Emit(event, payload)
	})
}
