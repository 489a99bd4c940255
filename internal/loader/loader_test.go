package loader

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/specialistvlad/defigrid/internal/ctxlog"
	"github.com/specialistvlad/defigrid/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const swapHCL = `
workflow "avax_swap" {
  name      = "Swap AVAX for USDC"
  variables = { chain_id = 43114, mode = "template" }

  node "wallet_connector" "wallet" {
    inputs = {
      supported_wallets = ["metamask", "core"]
    }
  }

  node "token_selector" "tokens" {
    inputs = {
      from_token = "AVAX"
      to_token   = "USDC"
      owner      = "{$.wallet.address}"
    }
    dependencies = ["wallet"]
  }

  node "price_impact" "impact" {
    dependencies = ["tokens"]
  }
}
`

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestParseHCL(t *testing.T) {
	ctx := ctxlog.Discard(context.Background())
	defs, err := ParseHCL(ctx, []byte(swapHCL), "swap.hcl")
	require.NoError(t, err)
	require.Len(t, defs, 1)

	want := &model.WorkflowDefinition{
		ID:        "avax_swap",
		Name:      "Swap AVAX for USDC",
		Variables: map[string]any{"chain_id": float64(43114), "mode": "template"},
		Nodes: []model.NodeDeclaration{
			{ID: "wallet", Type: "wallet_connector", Inputs: map[string]any{"supported_wallets": []any{"metamask", "core"}}},
			{ID: "tokens", Type: "token_selector", Dependencies: []string{"wallet"}, Inputs: map[string]any{
				"from_token": "AVAX", "to_token": "USDC", "owner": "{$.wallet.address}",
			}},
			{ID: "impact", Type: "price_impact", Dependencies: []string{"tokens"}},
		},
	}
	if diff := cmp.Diff(want, defs[0], cmpopts.IgnoreFields(model.WorkflowDefinition{}, "FSInformation")); diff != "" {
		t.Errorf("workflow mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, "swap.hcl", defs[0].FSInformation.FilePath)
}

func TestParseHCL_Errors(t *testing.T) {
	ctx := ctxlog.Discard(context.Background())
	testCases := map[string]string{
		"syntax":          `workflow "x" {`,
		"inputs not map":  `workflow "x" { node "wallet" "w" { inputs = "nope" } }`,
		"missing id label": `workflow "x" { node "wallet" {} }`,
	}
	for name, src := range testCases {
		t.Run(name, func(t *testing.T) {
			_, err := ParseHCL(ctx, []byte(src), "bad.hcl")
			assert.Error(t, err)
		})
	}
}

func TestLoad_Directory(t *testing.T) {
	ctx := ctxlog.Discard(context.Background())
	dir := t.TempDir()
	writeFile(t, dir, "a/swap.hcl", swapHCL)
	writeFile(t, dir, "b/bridge.json", `{
		"id": "bridge",
		"nodes": {
			"icm": {"type": "icm_sender", "dependencies": ["wallet"]},
			"wallet": {"type": "wallet_connector"}
		}
	}`)
	writeFile(t, dir, "notes.txt", "ignored")

	defs, err := Load(ctx, dir)
	require.NoError(t, err)
	require.Len(t, defs, 2)
	assert.Equal(t, "avax_swap", defs[0].ID)
	assert.Equal(t, "bridge", defs[1].ID)
	assert.Equal(t, "icm", defs[1].Nodes[0].ID)
	assert.Equal(t, []string{"wallet"}, defs[1].Nodes[0].Dependencies)
}

func TestLoad_Errors(t *testing.T) {
	ctx := ctxlog.Discard(context.Background())
	_, err := Load(ctx, filepath.Join(t.TempDir(), "missing"))
	assert.ErrorContains(t, err, "not found")

	path := writeFile(t, t.TempDir(), "wf.yaml", "id: x")
	_, err = Load(ctx, path)
	assert.ErrorContains(t, err, "unsupported workflow file type")

	defs, err := Load(ctx, t.TempDir())
	require.NoError(t, err)
	assert.Empty(t, defs)
}
