package dexapi

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	json "github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeJSON(t *testing.T, w http.ResponseWriter, status int, body any) {
	t.Helper()
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	require.NoError(t, json.NewEncoder(w).Encode(body))
}

func TestClient_Quote(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/v1/43114/quote", r.URL.Path)
		assert.Equal(t, "AVAX", r.URL.Query().Get("fromToken"))
		assert.Equal(t, "Bearer secret", r.Header.Get("Authorization"))
		writeJSON(t, w, http.StatusOK, map[string]any{
			"fromToken": "AVAX", "toToken": "USDC",
			"fromAmount": "1000", "toAmount": "35000",
			"priceImpact": 0.42, "route": []string{"traderjoe"},
		})
	}))
	defer srv.Close()

	c := New(srv.URL, "secret", 0)
	q, err := c.Quote(context.Background(), QuoteRequest{ChainID: 43114, FromToken: "AVAX", ToToken: "USDC", Amount: "1000"})
	require.NoError(t, err)
	assert.Equal(t, "35000", q.ToAmount)
	assert.InDelta(t, 0.42, q.PriceImpactPercent, 1e-9)
	assert.Equal(t, []string{"traderjoe"}, q.Route)
}

func TestClient_BuildSwap(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/43114/swap", r.URL.Path)
		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "0xabc", body["from"])
		writeJSON(t, w, http.StatusOK, map[string]any{"to": "0xrouter", "data": "0xdeadbeef", "value": "0x0"})
	}))
	defer srv.Close()

	c := New(srv.URL, "", 0)
	tx, err := c.BuildSwap(context.Background(), SwapRequest{ChainID: 43114, FromToken: "AVAX", ToToken: "USDC", Amount: "1", From: "0xabc"})
	require.NoError(t, err)
	assert.Equal(t, &SwapTx{ChainID: 43114, To: "0xrouter", Data: "0xdeadbeef", Value: "0x0"}, tx)
}

func TestClient_ErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(t, w, http.StatusBadRequest, map[string]any{"code": 400, "message": "insufficient liquidity"})
	}))
	defer srv.Close()

	c := New(srv.URL, "", 0)
	_, err := c.Quote(context.Background(), QuoteRequest{ChainID: 1, FromToken: "A", ToToken: "B", Amount: "1"})
	assert.ErrorContains(t, err, "insufficient liquidity")
	assert.ErrorContains(t, err, "status 400")
}
