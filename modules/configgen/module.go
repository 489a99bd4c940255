// Package configgen provides the config_generator node, which folds the
// values produced upstream into one application configuration object.
package configgen

import (
	"context"
	"sort"

	"github.com/specialistvlad/defigrid/internal/chains"
	"github.com/specialistvlad/defigrid/internal/execctx"
	"github.com/specialistvlad/defigrid/internal/handlers"
	"github.com/specialistvlad/defigrid/internal/nodetype"
	"github.com/specialistvlad/defigrid/internal/registry"
	"github.com/specialistvlad/defigrid/internal/result"
)

// fields are the inputs copied into the generated configuration.
var fields = []string{
	"wallet_address",
	"wallet_type",
	"chain_id",
	"token_config",
	"max_impact_percent",
	"slippage_percent",
	"destination_chain_id",
	"recipient",
}

// Module registers config_generator.
type Module struct{}

// Register adds the config_generator handler. Both modes generate the same
// object; only validation differs.
func (m *Module) Register(r *registry.Registry) {
	r.Register(&handlers.Handler{
		Type:     nodetype.ConfigGenerator,
		Template: generator{},
		Live:     generator{strict: true},
	})
}

type generator struct {
	strict bool
}

func (g generator) Validate(in handlers.Inputs) handlers.Validation {
	var c handlers.Check
	if g.strict {
		chains.RequireAddress(&c, in, "wallet_address")
		chains.RequireChain(&c, in, "chain_id")
		if _, ok := in.Map("token_config"); !ok {
			c.Failf("token_config is required")
		}
	}
	if in.Has("app_name") {
		if s, ok := in.String("app_name"); !ok || s == "" {
			c.Failf("app_name must be a non-empty string")
		}
	}
	return c.Result()
}

func (g generator) Execute(_ context.Context, in handlers.Inputs, ec *execctx.Context, log *result.Log) (map[string]any, error) {
	cfg := map[string]any{
		"app_name":    in.StringOr("app_name", ec.WorkflowID),
		"workflow_id": ec.WorkflowID,
	}
	var included []string
	for _, f := range fields {
		if in.Has(f) {
			cfg[f] = in[f]
			included = append(included, f)
		}
	}
	if c, ok := chains.Lookup(chains.ChainOr(in, "chain_id")); ok {
		cfg["network"] = c.Name
	}
	sort.Strings(included)
	log.Addf("generated configuration with %v", included)
	return map[string]any{"config": cfg}, nil
}

func (generator) EstimateCost(handlers.Inputs) string { return "0" }
