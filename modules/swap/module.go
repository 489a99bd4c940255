// Package swap provides the swap_executor node. The live variant builds the
// swap through the DEX aggregator, suspends until the user's wallet signs it
// and broadcasts the signed transaction.
package swap

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/specialistvlad/defigrid/internal/chainrpc"
	"github.com/specialistvlad/defigrid/internal/chains"
	"github.com/specialistvlad/defigrid/internal/ctxlog"
	"github.com/specialistvlad/defigrid/internal/dexapi"
	"github.com/specialistvlad/defigrid/internal/execctx"
	"github.com/specialistvlad/defigrid/internal/handlers"
	"github.com/specialistvlad/defigrid/internal/nodetype"
	"github.com/specialistvlad/defigrid/internal/registry"
	"github.com/specialistvlad/defigrid/internal/result"
)

const (
	defaultSlippagePercent = 0.5
	estimatedSwapGas       = "180000"
)

// Module registers swap_executor.
type Module struct {
	DEX *dexapi.Client
	RPC *chainrpc.Pool
	// SigningTimeout is the default wait for a signature.
	SigningTimeout time.Duration
}

// Register adds the swap_executor handler.
func (m *Module) Register(r *registry.Registry) {
	r.Register(&handlers.Handler{
		Type:     nodetype.SwapExecutor,
		Template: template{},
		Live:     &live{dex: m.DEX, rpc: m.RPC, signingTimeout: m.SigningTimeout},
	})
}

func checkSlippage(c *handlers.Check, in handlers.Inputs) float64 {
	if !in.Has("slippage_percent") {
		return defaultSlippagePercent
	}
	s, ok := in.Float("slippage_percent")
	if !ok || s <= 0 || s > 50 {
		c.Failf("slippage_percent must be a number in (0, 50]")
	}
	return s
}

type template struct{}

func (template) Validate(in handlers.Inputs) handlers.Validation {
	var c handlers.Check
	checkSlippage(&c, in)
	return c.Result()
}

func (template) Execute(_ context.Context, in handlers.Inputs, ec *execctx.Context, log *result.Log) (map[string]any, error) {
	from := in.StringOr("from_token", "AVAX")
	to := in.StringOr("to_token", "USDC")
	hash := chains.TemplateHash("swap", ec.NodeID, from, to)
	log.Addf("template swap %s -> %s, nothing broadcast", from, to)
	return map[string]any{
		"tx_hash":  hash,
		"chain_id": chains.ChainOr(in, "chain_id"),
		"status":   "simulated",
	}, nil
}

func (template) EstimateCost(handlers.Inputs) string { return "0" }

type live struct {
	dex            *dexapi.Client
	rpc            *chainrpc.Pool
	signingTimeout time.Duration
}

func (*live) Validate(in handlers.Inputs) handlers.Validation {
	var c handlers.Check
	chains.RequireAddress(&c, in, "wallet_address")
	chains.RequireChain(&c, in, "chain_id")
	c.Require(in, "from_token", "to_token")
	chains.RequirePositive(&c, in, "amount")
	checkSlippage(&c, in)
	return c.Result()
}

func (l *live) Execute(ctx context.Context, in handlers.Inputs, ec *execctx.Context, log *result.Log) (map[string]any, error) {
	if l.dex == nil {
		return nil, errors.New("DEX API is not configured")
	}
	logger := ctxlog.FromContext(ctx)
	chainID, _ := in.Int("chain_id")
	wallet, _ := in.String("wallet_address")
	amount, _ := in.Float("amount")
	fromRef, _ := in.String("from_token")
	toRef, _ := in.String("to_token")
	from, ok := chains.ResolveToken(chainID, in.StringOr("from_token_address", fromRef))
	if !ok {
		return nil, fmt.Errorf("unknown token %q on chain %d", fromRef, chainID)
	}
	to, ok := chains.ResolveToken(chainID, in.StringOr("to_token_address", toRef))
	if !ok {
		return nil, fmt.Errorf("unknown token %q on chain %d", toRef, chainID)
	}
	var c handlers.Check
	slippage := checkSlippage(&c, in)
	units, ok := chains.ToBaseUnits(amount, from.Decimals)
	if !ok {
		return nil, fmt.Errorf("amount %v is not a finite number", amount)
	}

	tx, err := l.dex.BuildSwap(ctx, dexapi.SwapRequest{
		ChainID:         chainID,
		FromToken:       from.Address,
		ToToken:         to.Address,
		Amount:          units,
		From:            wallet,
		SlippagePercent: slippage,
	})
	if err != nil {
		return nil, err
	}
	log.Addf("swap transaction built, router %s", tx.To)

	timeout := chains.SigningTimeout(in, l.signingTimeout)
	log.Addf("waiting up to %s for signature", timeout)
	logger.Info("Awaiting swap signature.", "chain_id", chainID, "timeout", timeout)
	signed, err := ec.AwaitApproval(ctx, map[string]any{
		"kind":     "swap",
		"chain_id": chainID,
		"from":     wallet,
		"tx": map[string]any{
			"to":    tx.To,
			"data":  tx.Data,
			"value": tx.Value,
			"gas":   tx.Gas,
		},
		"summary": fmt.Sprintf("swap %v %s for %s", amount, fromRef, toRef),
	}, timeout)
	if err != nil {
		log.Addf("swap not sent")
		return nil, err
	}

	sig, err := chains.ParseSignature(signed)
	if err != nil {
		return nil, err
	}
	hash := sig.TxHash
	if hash == "" {
		client, err := l.rpc.Client(chainID)
		if err != nil {
			return nil, err
		}
		hash, err = client.SendRawTransaction(ctx, sig.Raw)
		if err != nil {
			log.Addf("broadcast failed")
			return nil, err
		}
	}
	log.Addf("swap submitted as %s", hash)
	return map[string]any{
		"tx_hash":        hash,
		"chain_id":       chainID,
		"wallet_address": wallet,
		"status":         "submitted",
	}, nil
}

func (*live) EstimateCost(in handlers.Inputs) string {
	if gas, ok := in.String("estimated_gas"); ok && gas != "" {
		return gas
	}
	return estimatedSwapGas
}
