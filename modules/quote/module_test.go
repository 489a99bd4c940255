package quote

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	json "github.com/goccy/go-json"
	"github.com/specialistvlad/defigrid/internal/ctxlog"
	"github.com/specialistvlad/defigrid/internal/dexapi"
	"github.com/specialistvlad/defigrid/internal/handlers"
	"github.com/specialistvlad/defigrid/internal/nodetype"
	"github.com/specialistvlad/defigrid/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTemplate(t *testing.T) {
	h := testutil.Handler(t, &Module{}, nodetype.QuoteFetcher)
	ec, _ := testutil.NodeContext(t, "quote")
	in := handlers.Inputs{"mode": "template", "amount": 2.0}

	res := h.Execute(ctxlog.Discard(context.Background()), in, ec)
	require.True(t, res.Success, res.Error)
	assert.Equal(t, 70.0, res.Outputs["expected_output"])
	assert.False(t, h.Validate(handlers.Inputs{"mode": "template", "amount": -1}).Valid)
}

func TestLive_Validate(t *testing.T) {
	h := testutil.Handler(t, &Module{}, nodetype.QuoteFetcher)
	v := h.Validate(handlers.Inputs{"from_token": "AVAX", "to_token": "USDC", "amount": 0, "chain_id": 43114})
	require.False(t, v.Valid)
	assert.Equal(t, []string{"amount must be a positive number"}, v.Errors)
}

func TestLive_Validate_NonFiniteAmount(t *testing.T) {
	h := testutil.Handler(t, &Module{}, nodetype.QuoteFetcher)
	for _, amount := range []any{"NaN", "Inf", "-Inf"} {
		v := h.Validate(handlers.Inputs{"from_token": "AVAX", "to_token": "USDC", "amount": amount, "chain_id": 43114})
		require.False(t, v.Valid, amount)
		assert.Equal(t, []string{"amount must be a positive number"}, v.Errors)
	}
}

func TestLive_FetchesQuote(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/43114/quote", r.URL.Path)
		assert.Equal(t, "2000000000000000000", r.URL.Query().Get("amount"))
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"toAmount": "70500000", "priceImpact": 1.25, "route": []string{"lfj", "pharaoh"},
		})
	}))
	defer srv.Close()

	h := testutil.Handler(t, &Module{DEX: dexapi.New(srv.URL, "", 0)}, nodetype.QuoteFetcher)
	ec, _ := testutil.NodeContext(t, "quote")
	in := handlers.Inputs{"from_token": "AVAX", "to_token": "USDC", "amount": 2, "chain_id": 43114}

	require.True(t, h.Validate(in).Valid)
	res := h.Execute(ctxlog.Discard(context.Background()), in, ec)
	require.True(t, res.Success, res.Error)
	assert.InDelta(t, 70.5, res.Outputs["expected_output"], 1e-9)
	assert.Equal(t, 1.25, res.Outputs["price_impact_percent"])
	assert.Equal(t, []any{"lfj", "pharaoh"}, res.Outputs["quote"].(map[string]any)["route"])
}

func TestLive_WithoutDEXFails(t *testing.T) {
	h := testutil.Handler(t, &Module{}, nodetype.QuoteFetcher)
	ec, _ := testutil.NodeContext(t, "quote")
	res := h.Execute(ctxlog.Discard(context.Background()), handlers.Inputs{"from_token": "AVAX", "to_token": "USDC", "amount": 1, "chain_id": 43114}, ec)
	assert.False(t, res.Success)
	assert.Contains(t, res.Error, "DEX API is not configured")
}
