package api

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/specialistvlad/defigrid/internal/engine"
	"github.com/specialistvlad/defigrid/internal/nodetype"
	"github.com/specialistvlad/defigrid/internal/registry"
	"github.com/specialistvlad/defigrid/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRouter(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	mock := &testutil.MockModule{Types: []nodetype.Type{nodetype.WalletConnector, nodetype.TokenSelector}}
	e := engine.New(registry.Load(mock), engine.Options{Workers: 2})
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		_ = e.Shutdown(ctx)
	})
	return NewRouter(e, slog.New(slog.DiscardHandler))
}

func do(t *testing.T, router http.Handler, method, path string, body any) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	var decoded map[string]any
	if rec.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &decoded), rec.Body.String())
	}
	return rec, decoded
}

var workflow = map[string]any{
	"id": "wf",
	"nodes": []any{
		map[string]any{"id": "wallet", "type": "wallet_connector"},
		map[string]any{"id": "token", "type": "tokenSelector", "dependencies": []any{"wallet"}},
	},
}

func TestHealth(t *testing.T) {
	router := newRouter(t)
	rec, body := do(t, router, http.MethodGet, "/api/v1/health", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", body["status"])

	rec, _ = do(t, router, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestNodeTypes(t *testing.T) {
	_, body := do(t, newRouter(t), http.MethodGet, "/api/v1/node-types", nil)
	assert.Equal(t, []any{"token_selector", "wallet_connector"}, body["node_types"])
}

func TestCreateExecution_Wait(t *testing.T) {
	rec, body := do(t, newRouter(t), http.MethodPost, "/api/v1/executions?wait=true", map[string]any{
		"workflow":  workflow,
		"variables": map[string]any{"mode": "template"},
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, true, body["success"])
	nodes := body["nodes"].(map[string]any)
	assert.Len(t, nodes, 2)
}

func TestCreateExecution_AsyncThenPoll(t *testing.T) {
	router := newRouter(t)
	rec, body := do(t, router, http.MethodPost, "/api/v1/executions", map[string]any{"workflow": workflow})
	require.Equal(t, http.StatusAccepted, rec.Code, rec.Body.String())
	id, _ := body["execution_id"].(string)
	require.NotEmpty(t, id)

	require.Eventually(t, func() bool {
		_, status := do(t, router, http.MethodGet, "/api/v1/executions/"+id, nil)
		return status["status"] == "succeeded"
	}, 2*time.Second, 10*time.Millisecond)

	rec, body = do(t, router, http.MethodGet, "/api/v1/executions/"+id+"/logs", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.NotEmpty(t, body["logs"])

	rec, body = do(t, router, http.MethodGet, "/api/v1/executions/"+id+"/approvals", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, body["approvals"])

	rec, _ = do(t, router, http.MethodDelete, "/api/v1/executions/"+id, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestCreateExecution_Rejected(t *testing.T) {
	cyclic := map[string]any{
		"id": "loop",
		"nodes": []any{
			map[string]any{"id": "a", "type": "wallet", "dependencies": []any{"b"}},
			map[string]any{"id": "b", "type": "wallet", "dependencies": []any{"a"}},
		},
	}
	rec, body := do(t, newRouter(t), http.MethodPost, "/api/v1/executions", map[string]any{"workflow": cyclic})
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Equal(t, false, body["valid"])
	assert.NotEmpty(t, body["problems"])
}

func TestCreateExecution_BadBody(t *testing.T) {
	rec, _ := do(t, newRouter(t), http.MethodPost, "/api/v1/executions", map[string]any{"variables": map[string]any{}})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestValidateWorkflow(t *testing.T) {
	router := newRouter(t)
	rec, body := do(t, router, http.MethodPost, "/api/v1/workflows/validate", workflow)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, true, body["valid"])
	assert.Equal(t, float64(2), body["node_count"])

	unknown := map[string]any{"id": "x", "nodes": []any{map[string]any{"id": "a", "type": "swap_executor"}}}
	rec, body = do(t, router, http.MethodPost, "/api/v1/workflows/validate", unknown)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Contains(t, body["error"], "unknown node type")
}

func TestUnknownExecution(t *testing.T) {
	router := newRouter(t)
	for _, tc := range []struct{ method, path string }{
		{http.MethodGet, "/api/v1/executions/nope"},
		{http.MethodGet, "/api/v1/executions/nope/logs"},
		{http.MethodDelete, "/api/v1/executions/nope"},
		{http.MethodGet, "/api/v1/executions/nope/approvals"},
	} {
		rec, _ := do(t, router, tc.method, tc.path, nil)
		assert.Equal(t, http.StatusNotFound, rec.Code, tc.path)
	}

	rec, _ := do(t, router, http.MethodPost, "/api/v1/executions/nope/nodes/n/signature", map[string]any{"signed_payload": "0x1"})
	assert.Equal(t, http.StatusNotFound, rec.Code)
	rec, _ = do(t, router, http.MethodPost, "/api/v1/executions/nope/nodes/n/signing-error", map[string]any{"reason": "no"})
	assert.Equal(t, http.StatusNotFound, rec.Code)
	rec, _ = do(t, router, http.MethodPost, "/api/v1/executions/nope/nodes/n/signing-error", map[string]any{})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
