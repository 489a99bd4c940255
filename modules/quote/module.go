// Package quote provides the quote_fetcher node, which asks the DEX
// aggregator for the best route of a trade.
package quote

import (
	"context"
	"errors"
	"fmt"

	"github.com/specialistvlad/defigrid/internal/chains"
	"github.com/specialistvlad/defigrid/internal/dexapi"
	"github.com/specialistvlad/defigrid/internal/execctx"
	"github.com/specialistvlad/defigrid/internal/handlers"
	"github.com/specialistvlad/defigrid/internal/nodetype"
	"github.com/specialistvlad/defigrid/internal/registry"
	"github.com/specialistvlad/defigrid/internal/result"
)

// templateRate is the fixed exchange rate quoted in template mode.
const templateRate = 35.0

// Module registers quote_fetcher. DEX must be set for live runs.
type Module struct {
	DEX *dexapi.Client
}

// Register adds the quote_fetcher handler.
func (m *Module) Register(r *registry.Registry) {
	r.Register(&handlers.Handler{
		Type:     nodetype.QuoteFetcher,
		Template: template{},
		Live:     &live{dex: m.DEX},
	})
}

type template struct{}

func (template) Validate(in handlers.Inputs) handlers.Validation {
	var c handlers.Check
	if in.Has("amount") {
		chains.RequirePositive(&c, in, "amount")
	}
	return c.Result()
}

func (template) Execute(_ context.Context, in handlers.Inputs, _ *execctx.Context, log *result.Log) (map[string]any, error) {
	amount, ok := in.Float("amount")
	if !ok {
		amount = 1
	}
	from := in.StringOr("from_token", "AVAX")
	to := in.StringOr("to_token", "USDC")
	expected := amount * templateRate
	log.Addf("template quote %v %s -> %v %s", amount, from, expected, to)
	return map[string]any{
		"quote": map[string]any{
			"from_token":           from,
			"to_token":             to,
			"from_amount":          amount,
			"to_amount":            expected,
			"price_impact_percent": 0.1,
			"route":                []any{"template"},
		},
		"expected_output":      expected,
		"price_impact_percent": 0.1,
	}, nil
}

func (template) EstimateCost(handlers.Inputs) string { return "0" }

type live struct {
	dex *dexapi.Client
}

func (*live) Validate(in handlers.Inputs) handlers.Validation {
	var c handlers.Check
	c.Require(in, "from_token", "to_token")
	chains.RequirePositive(&c, in, "amount")
	chains.RequireChain(&c, in, "chain_id")
	return c.Result()
}

func (l *live) Execute(ctx context.Context, in handlers.Inputs, _ *execctx.Context, log *result.Log) (map[string]any, error) {
	if l.dex == nil {
		return nil, errors.New("DEX API is not configured")
	}
	chainID, _ := in.Int("chain_id")
	amount, _ := in.Float("amount")
	fromRef, _ := in.String("from_token")
	toRef, _ := in.String("to_token")
	from, _ := chains.ResolveToken(chainID, in.StringOr("from_token_address", fromRef))
	to, _ := chains.ResolveToken(chainID, in.StringOr("to_token_address", toRef))
	if from.Address == "" || to.Address == "" {
		return nil, errors.New("cannot resolve token addresses for quote")
	}

	units, ok := chains.ToBaseUnits(amount, from.Decimals)
	if !ok {
		return nil, fmt.Errorf("amount %v is not a finite number", amount)
	}
	req := dexapi.QuoteRequest{
		ChainID:   chainID,
		FromToken: from.Address,
		ToToken:   to.Address,
		Amount:    units,
	}
	log.Addf("requesting quote for %s of %s on chain %d", req.Amount, fromRef, chainID)
	q, err := l.dex.Quote(ctx, req)
	if err != nil {
		return nil, err
	}
	expected, ok := chains.FromBaseUnits(q.ToAmount, to.Decimals)
	if !ok {
		return nil, errors.New("aggregator returned a malformed output amount")
	}
	log.Addf("quoted %v %s with %.2f%% impact", expected, toRef, q.PriceImpactPercent)

	route := make([]any, 0, len(q.Route))
	for _, hop := range q.Route {
		route = append(route, hop)
	}
	return map[string]any{
		"quote": map[string]any{
			"from_token":           fromRef,
			"to_token":             toRef,
			"from_amount":          amount,
			"to_amount":            expected,
			"to_amount_base_units": q.ToAmount,
			"price_impact_percent": q.PriceImpactPercent,
			"estimated_gas":        q.EstimatedGas,
			"route":                route,
		},
		"expected_output":      expected,
		"price_impact_percent": q.PriceImpactPercent,
	}, nil
}

func (*live) EstimateCost(handlers.Inputs) string { return "0" }
