package configgen

import (
	"context"
	"testing"

	"github.com/specialistvlad/defigrid/internal/ctxlog"
	"github.com/specialistvlad/defigrid/internal/handlers"
	"github.com/specialistvlad/defigrid/internal/nodetype"
	"github.com/specialistvlad/defigrid/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerate(t *testing.T) {
	h := testutil.Handler(t, &Module{}, nodetype.ConfigGenerator)
	ec, _ := testutil.NodeContext(t, "config")
	in := handlers.Inputs{
		"wallet_address":     "0x8ba1f109551bD432803012645Ac136ddd64DBA72",
		"chain_id":           int64(43114),
		"token_config":       map[string]any{"chain_id": int64(43114)},
		"max_impact_percent": 3.0,
		"unrelated":          "dropped",
	}

	require.True(t, h.Validate(in).Valid)
	res := h.Execute(ctxlog.Discard(context.Background()), in, ec)
	require.True(t, res.Success, res.Error)

	assert.Equal(t, map[string]any{
		"app_name":           "wf-test",
		"workflow_id":        "wf-test",
		"network":            "avalanche",
		"wallet_address":     "0x8ba1f109551bD432803012645Ac136ddd64DBA72",
		"chain_id":           int64(43114),
		"token_config":       map[string]any{"chain_id": int64(43114)},
		"max_impact_percent": 3.0,
	}, res.Outputs["config"])
}

func TestValidate_ModeDependent(t *testing.T) {
	h := testutil.Handler(t, &Module{}, nodetype.ConfigGenerator)
	assert.True(t, h.Validate(handlers.Inputs{"mode": "template"}).Valid)

	v := h.Validate(handlers.Inputs{})
	require.False(t, v.Valid)
	assert.Equal(t, []string{"wallet_address is required", "chain_id is required", "token_config is required"}, v.Errors)
}
