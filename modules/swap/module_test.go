package swap

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	json "github.com/goccy/go-json"
	"github.com/specialistvlad/defigrid/internal/chainrpc"
	"github.com/specialistvlad/defigrid/internal/chains"
	"github.com/specialistvlad/defigrid/internal/ctxlog"
	"github.com/specialistvlad/defigrid/internal/dexapi"
	"github.com/specialistvlad/defigrid/internal/flowerr"
	"github.com/specialistvlad/defigrid/internal/handlers"
	"github.com/specialistvlad/defigrid/internal/nodetype"
	"github.com/specialistvlad/defigrid/internal/signing"
	"github.com/specialistvlad/defigrid/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const wallet = "0x8ba1f109551bD432803012645Ac136ddd64DBA72"

func liveInputs() handlers.Inputs {
	return handlers.Inputs{
		"wallet_address":          wallet,
		"chain_id":                43114,
		"from_token":              "AVAX",
		"to_token":                "USDC",
		"amount":                  1.5,
		"signing_timeout_seconds": 1,
	}
}

func dexServer(t *testing.T) *dexapi.Client {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{"to": "0xrouter", "data": "0xswapdata", "value": "0x14d1120d7b160000"})
	}))
	t.Cleanup(srv.Close)
	return dexapi.New(srv.URL, "", 0)
}

func TestTemplate_IsDeterministic(t *testing.T) {
	h := testutil.Handler(t, &Module{}, nodetype.SwapExecutor)
	ctx := ctxlog.Discard(context.Background())
	in := handlers.Inputs{"mode": "template"}

	ec, _ := testutil.NodeContext(t, "swap")
	first := h.Execute(ctx, in, ec)
	second := h.Execute(ctx, in, ec)
	require.True(t, first.Success, first.Error)
	assert.Equal(t, first.Outputs, second.Outputs)
	assert.True(t, chains.IsTxHash(first.Outputs["tx_hash"].(string)))
	assert.Equal(t, "simulated", first.Outputs["status"])
}

func TestLive_SignsAndBroadcasts(t *testing.T) {
	chain := testutil.NewFakeChain(t)
	pool := chainrpc.NewPool(map[int64]string{43114: chain.URL}, chainrpc.Options{})
	h := testutil.Handler(t, &Module{DEX: dexServer(t), RPC: pool}, nodetype.SwapExecutor)
	ec, ch := testutil.NodeContext(t, "swap")

	var seen signing.Request
	testutil.AutoSigner(ch, func(req signing.Request) (string, any) {
		seen = req
		return signing.SignedEvent(req.ExecutionID, req.NodeID), map[string]any{"signed_tx": "0xf86bsigned"}
	})

	in := liveInputs()
	require.True(t, h.Validate(in).Valid)
	res := h.Execute(ctxlog.Discard(context.Background()), in, ec)
	require.True(t, res.Success, res.Error)

	assert.Equal(t, "swap", seen.NodeID)
	assert.Equal(t, []string{"0xf86bsigned"}, chain.Sent())
	assert.Equal(t, "0x"+strings.Repeat("1", 64), res.Outputs["tx_hash"])
	assert.Equal(t, "submitted", res.Outputs["status"])
	assert.Equal(t, "180000", h.EstimateCost(in))
}

func TestLive_WalletBroadcastSkipsRPC(t *testing.T) {
	h := testutil.Handler(t, &Module{DEX: dexServer(t)}, nodetype.SwapExecutor)
	ec, ch := testutil.NodeContext(t, "swap")
	hash := "0x" + strings.Repeat("ab", 32)
	testutil.AutoSigner(ch, func(req signing.Request) (string, any) {
		return signing.SignedEvent(req.ExecutionID, req.NodeID), map[string]any{"tx_hash": hash}
	})

	res := h.Execute(ctxlog.Discard(context.Background()), liveInputs(), ec)
	require.True(t, res.Success, res.Error)
	assert.Equal(t, hash, res.Outputs["tx_hash"])
}

func TestLive_SignerRejects(t *testing.T) {
	chain := testutil.NewFakeChain(t)
	pool := chainrpc.NewPool(map[int64]string{43114: chain.URL}, chainrpc.Options{})
	h := testutil.Handler(t, &Module{DEX: dexServer(t), RPC: pool}, nodetype.SwapExecutor)
	ec, ch := testutil.NodeContext(t, "swap")
	testutil.AutoSigner(ch, func(req signing.Request) (string, any) {
		return signing.ErrorEvent(req.ExecutionID, req.NodeID), map[string]any{"reason": "user rejected"}
	})

	res := h.Execute(ctxlog.Discard(context.Background()), liveInputs(), ec)
	require.False(t, res.Success)
	var signErr *flowerr.SigningError
	assert.True(t, errors.As(res.Err(), &signErr))
	assert.Contains(t, res.Logs, "swap not sent")
	assert.Empty(t, chain.Sent())
}

func TestLive_Validate(t *testing.T) {
	h := testutil.Handler(t, &Module{}, nodetype.SwapExecutor)
	in := liveInputs()
	delete(in, "wallet_address")
	in["slippage_percent"] = 80

	v := h.Validate(in)
	require.False(t, v.Valid)
	assert.Equal(t, []string{
		"wallet_address is required",
		"slippage_percent must be a number in (0, 50]",
	}, v.Errors)
}
