package handlers

import (
	"context"
	"fmt"
	"runtime/debug"
	"time"

	"github.com/specialistvlad/defigrid/internal/ctxlog"
	"github.com/specialistvlad/defigrid/internal/execctx"
	"github.com/specialistvlad/defigrid/internal/flowerr"
	"github.com/specialistvlad/defigrid/internal/nodetype"
	"github.com/specialistvlad/defigrid/internal/result"
)

// Validation is the outcome of Validate. Errors is empty when Valid is true.
type Validation struct {
	Valid  bool     `json:"valid"`
	Errors []string `json:"errors,omitempty"`
}

// Check accumulates validation problems.
type Check struct {
	problems []string
}

// Failf records a problem.
func (c *Check) Failf(format string, args ...any) {
	c.problems = append(c.problems, fmt.Sprintf(format, args...))
}

// Require records a problem for every key missing from in.
func (c *Check) Require(in Inputs, keys ...string) {
	for _, k := range keys {
		if !in.Has(k) {
			c.Failf("%s is required", k)
		}
	}
}

// Result renders the accumulated problems.
func (c *Check) Result() Validation {
	if len(c.problems) == 0 {
		return Validation{Valid: true}
	}
	return Validation{Valid: false, Errors: append([]string(nil), c.problems...)}
}

// Variant is one mode of a node executor.
//
// Validate must be pure. Execute may perform network calls and suspend on
// the approval rendezvous; it reports progress into log. EstimateCost must
// not have side effects and returns "0" for operations with no on-chain
// effect.
type Variant interface {
	Validate(in Inputs) Validation
	Execute(ctx context.Context, in Inputs, ec *execctx.Context, log *result.Log) (map[string]any, error)
	EstimateCost(in Inputs) string
}

// Handler routes calls for one node type to its template or live variant.
type Handler struct {
	Type     nodetype.Type
	Template Variant
	Live     Variant
}

func (h *Handler) variant(in Inputs) Variant {
	if in.IsTemplate() {
		return h.Template
	}
	return h.Live
}

// Validate checks in against the variant selected by its mode flag.
func (h *Handler) Validate(in Inputs) Validation {
	return h.variant(in).Validate(in)
}

// EstimateCost prices in with the variant selected by its mode flag.
func (h *Handler) EstimateCost(in Inputs) string {
	return h.variant(in).EstimateCost(in)
}

// Execute runs the selected variant. It never panics: a panic or an error
// inside the variant becomes a failed result that keeps the log trail.
func (h *Handler) Execute(ctx context.Context, in Inputs, ec *execctx.Context) (res result.Node) {
	logger := ctxlog.FromContext(ctx)
	log := &result.Log{}
	start := time.Now()
	mode := "live"
	if in.IsTemplate() {
		mode = "template"
	}
	log.Addf("executing %s in %s mode", h.Type, mode)

	defer func() {
		if r := recover(); r != nil {
			logger.Error("Node executor panicked.", "panic", r, "stack", string(debug.Stack()))
			err := &flowerr.ExecutionError{
				ExecutionID: ec.ExecutionID,
				NodeID:      ec.NodeID,
				Type:        h.Type.String(),
				Err:         fmt.Errorf("panic: %v", r),
			}
			log.Addf("panic: %v", r)
			res = result.Failed(err, log.Lines())
		}
		res.NodeID = ec.NodeID
		res.Type = h.Type.String()
		res.ExecutionTime = time.Since(start)
	}()

	outputs, err := h.variant(in).Execute(ctx, in, ec, log)
	if err != nil {
		log.Addf("failed: %v", err)
		return result.Failed(&flowerr.ExecutionError{
			ExecutionID: ec.ExecutionID,
			NodeID:      ec.NodeID,
			Type:        h.Type.String(),
			Err:         err,
		}, log.Lines())
	}
	log.Addf("completed")
	return result.Succeeded(outputs, log.Lines())
}
