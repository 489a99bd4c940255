// Package wallet provides the wallet_connector node, which establishes the
// account a workflow acts for.
package wallet

import (
	"context"
	"strings"

	"github.com/specialistvlad/defigrid/internal/chainrpc"
	"github.com/specialistvlad/defigrid/internal/chains"
	"github.com/specialistvlad/defigrid/internal/ctxlog"
	"github.com/specialistvlad/defigrid/internal/execctx"
	"github.com/specialistvlad/defigrid/internal/handlers"
	"github.com/specialistvlad/defigrid/internal/nodetype"
	"github.com/specialistvlad/defigrid/internal/registry"
	"github.com/specialistvlad/defigrid/internal/result"
)

var knownWallets = map[string]bool{
	"metamask":      true,
	"core":          true,
	"walletconnect": true,
	"coinbase":      true,
	"rabby":         true,
}

// Module registers wallet_connector. RPC is optional; without it the live
// variant skips the balance lookup.
type Module struct {
	RPC *chainrpc.Pool
}

// Register adds the wallet_connector handler.
func (m *Module) Register(r *registry.Registry) {
	r.Register(&handlers.Handler{
		Type:     nodetype.WalletConnector,
		Template: template{},
		Live:     &live{rpc: m.RPC},
	})
}

type template struct{}

func (template) Validate(in handlers.Inputs) handlers.Validation {
	var c handlers.Check
	if in.Has("supported_wallets") {
		wallets, ok := in.Strings("supported_wallets")
		if !ok || len(wallets) == 0 {
			c.Failf("supported_wallets must be a non-empty list of wallet names")
		}
		for _, w := range wallets {
			if !knownWallets[strings.ToLower(w)] {
				c.Failf("unknown wallet %q", w)
			}
		}
	}
	return c.Result()
}

func (template) Execute(_ context.Context, in handlers.Inputs, _ *execctx.Context, log *result.Log) (map[string]any, error) {
	wallets, ok := in.Strings("supported_wallets")
	if !ok || len(wallets) == 0 {
		wallets = []string{"metamask"}
	}
	chainID := chains.ChainOr(in, "chain_id")
	log.Addf("template wallet on chain %d", chainID)
	return map[string]any{
		"wallet_address":    chains.ZeroAddress,
		"wallet_type":       wallets[0],
		"supported_wallets": wallets,
		"chain_id":          chainID,
		"connected":         false,
	}, nil
}

func (template) EstimateCost(handlers.Inputs) string { return "0" }

type live struct {
	rpc *chainrpc.Pool
}

func (*live) Validate(in handlers.Inputs) handlers.Validation {
	var c handlers.Check
	chains.RequireAddress(&c, in, "wallet_address")
	chains.RequireChain(&c, in, "chain_id")
	return c.Result()
}

func (l *live) Execute(ctx context.Context, in handlers.Inputs, _ *execctx.Context, log *result.Log) (map[string]any, error) {
	address, _ := in.String("wallet_address")
	chainID, _ := in.Int("chain_id")
	out := map[string]any{
		"wallet_address": address,
		"wallet_type":    in.StringOr("wallet_type", "external"),
		"chain_id":       chainID,
		"connected":      true,
	}

	if l.rpc == nil {
		log.Addf("no RPC configured, balance not checked")
		return out, nil
	}
	client, err := l.rpc.Client(chainID)
	if err != nil {
		ctxlog.FromContext(ctx).Debug("Skipping balance lookup.", "chain_id", chainID, "reason", err)
		log.Addf("balance not checked: %v", err)
		return out, nil
	}
	balance, err := client.Balance(ctx, address)
	if err != nil {
		return nil, err
	}
	log.Addf("balance of %s is %s wei", address, balance)
	out["balance_wei"] = balance.String()
	return out, nil
}

func (*live) EstimateCost(handlers.Inputs) string { return "0" }
