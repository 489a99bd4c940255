// Package tokens provides the token_selector node, which resolves the pair
// of tokens a swap or transfer works on.
package tokens

import (
	"context"
	"strings"

	"github.com/specialistvlad/defigrid/internal/chains"
	"github.com/specialistvlad/defigrid/internal/execctx"
	"github.com/specialistvlad/defigrid/internal/handlers"
	"github.com/specialistvlad/defigrid/internal/nodetype"
	"github.com/specialistvlad/defigrid/internal/registry"
	"github.com/specialistvlad/defigrid/internal/result"
)

// Module registers token_selector.
type Module struct{}

// Register adds the token_selector handler.
func (m *Module) Register(r *registry.Registry) {
	r.Register(&handlers.Handler{
		Type:     nodetype.TokenSelector,
		Template: template{},
		Live:     live{},
	})
}

func tokenConfig(chainID int64, from, to chains.Token) map[string]any {
	return map[string]any{
		"chain_id":   chainID,
		"from_token": from.Map(),
		"to_token":   to.Map(),
	}
}

type template struct{}

func (template) Validate(handlers.Inputs) handlers.Validation {
	return handlers.Validation{Valid: true}
}

func (template) Execute(_ context.Context, in handlers.Inputs, _ *execctx.Context, log *result.Log) (map[string]any, error) {
	chainID := chains.ChainOr(in, "chain_id")
	native := "AVAX"
	if c, ok := chains.Lookup(chainID); ok {
		native = c.Native
	}
	fromRef := in.StringOr("from_token", native)
	toRef := in.StringOr("to_token", "USDC")

	from, ok := chains.ResolveToken(chainID, fromRef)
	if !ok {
		from = chains.Token{Symbol: fromRef, Address: chains.ZeroAddress, Decimals: 18}
	}
	to, ok := chains.ResolveToken(chainID, toRef)
	if !ok {
		to = chains.Token{Symbol: toRef, Address: chains.ZeroAddress, Decimals: 18}
	}
	log.Addf("template pair %s -> %s", fromRef, toRef)
	return map[string]any{
		"token_config": tokenConfig(chainID, from, to),
		"from_token":   fromRef,
		"to_token":     toRef,
	}, nil
}

func (template) EstimateCost(handlers.Inputs) string { return "0" }

type live struct{}

func (live) Validate(in handlers.Inputs) handlers.Validation {
	var c handlers.Check
	c.Require(in, "from_token", "to_token")
	chainID := chains.DefaultChainID
	if in.Has("chain_id") {
		chainID, _ = chains.RequireChain(&c, in, "chain_id")
	}
	from, _ := in.String("from_token")
	to, _ := in.String("to_token")
	if from != "" && to != "" && strings.EqualFold(from, to) {
		c.Failf("from_token and to_token must differ")
	}
	for _, key := range []string{"from_token", "to_token"} {
		ref, ok := in.String(key)
		if !ok || ref == "" || chainID == 0 {
			continue
		}
		if _, known := chains.ResolveToken(chainID, ref); !known {
			c.Failf("%s %q is not a known symbol or a token address", key, ref)
		}
	}
	return c.Result()
}

func (live) Execute(_ context.Context, in handlers.Inputs, _ *execctx.Context, log *result.Log) (map[string]any, error) {
	chainID := chains.ChainOr(in, "chain_id")
	fromRef, _ := in.String("from_token")
	toRef, _ := in.String("to_token")
	from, _ := chains.ResolveToken(chainID, fromRef)
	to, _ := chains.ResolveToken(chainID, toRef)
	log.Addf("resolved %s to %s and %s to %s on chain %d", fromRef, from.Address, toRef, to.Address, chainID)
	return map[string]any{
		"token_config":       tokenConfig(chainID, from, to),
		"from_token":         fromRef,
		"to_token":           toRef,
		"from_token_address": from.Address,
		"to_token_address":   to.Address,
		"from_decimals":      from.Decimals,
		"to_decimals":        to.Decimals,
	}, nil
}

func (live) EstimateCost(handlers.Inputs) string { return "0" }
