// Package priceimpact provides the price_impact node, which gates a trade on
// how far its quote moves the market.
package priceimpact

import (
	"context"
	"fmt"

	"github.com/specialistvlad/defigrid/internal/execctx"
	"github.com/specialistvlad/defigrid/internal/handlers"
	"github.com/specialistvlad/defigrid/internal/nodetype"
	"github.com/specialistvlad/defigrid/internal/registry"
	"github.com/specialistvlad/defigrid/internal/result"
)

// DefaultMaxImpactPercent applies when max_impact_percent is not given.
const DefaultMaxImpactPercent = 5.0

const templateImpactPercent = 0.3

// Module registers price_impact.
type Module struct{}

// Register adds the price_impact handler.
func (m *Module) Register(r *registry.Registry) {
	r.Register(&handlers.Handler{
		Type:     nodetype.PriceImpact,
		Template: template{},
		Live:     live{},
	})
}

func checkMax(c *handlers.Check, in handlers.Inputs) float64 {
	if !in.Has("max_impact_percent") {
		return DefaultMaxImpactPercent
	}
	limit, ok := in.Float("max_impact_percent")
	if !ok || limit <= 0 || limit > 100 {
		c.Failf("max_impact_percent must be a number in (0, 100]")
		return DefaultMaxImpactPercent
	}
	return limit
}

// impact reads the quoted impact, preferring the flat key over the nested
// quote object.
func impact(in handlers.Inputs) (float64, bool) {
	if v, ok := in.Float("price_impact_percent"); ok {
		return v, true
	}
	q, ok := in.Map("quote")
	if !ok {
		return 0, false
	}
	return handlers.Inputs(q).Float("price_impact_percent")
}

func outputs(value, limit float64) map[string]any {
	return map[string]any{
		"price_impact_percent": value,
		"max_impact_percent":   limit,
		"acceptable":           value <= limit,
	}
}

type template struct{}

func (template) Validate(in handlers.Inputs) handlers.Validation {
	var c handlers.Check
	checkMax(&c, in)
	return c.Result()
}

func (template) Execute(_ context.Context, in handlers.Inputs, _ *execctx.Context, log *result.Log) (map[string]any, error) {
	var c handlers.Check
	limit := checkMax(&c, in)
	value, ok := impact(in)
	if !ok {
		value = templateImpactPercent
	}
	log.Addf("template impact %.2f%% against limit %.2f%%", value, limit)
	out := outputs(value, limit)
	if cfg, ok := in.Map("token_config"); ok {
		out["token_config"] = cfg
	}
	return out, nil
}

func (template) EstimateCost(handlers.Inputs) string { return "0" }

type live struct{}

func (live) Validate(in handlers.Inputs) handlers.Validation {
	var c handlers.Check
	checkMax(&c, in)
	if _, ok := impact(in); !ok {
		c.Failf("price_impact_percent or a quote with price_impact_percent is required")
	}
	return c.Result()
}

func (live) Execute(_ context.Context, in handlers.Inputs, _ *execctx.Context, log *result.Log) (map[string]any, error) {
	var c handlers.Check
	limit := checkMax(&c, in)
	value, _ := impact(in)
	log.Addf("price impact %.2f%% against limit %.2f%%", value, limit)
	if value > limit {
		return nil, fmt.Errorf("price impact %.2f%% exceeds maximum %.2f%%", value, limit)
	}
	return outputs(value, limit), nil
}

func (live) EstimateCost(handlers.Inputs) string { return "0" }
