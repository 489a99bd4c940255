// Package monitor provides the transaction_monitor node, which waits for a
// broadcast transaction to be mined and confirmed.
package monitor

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/specialistvlad/defigrid/internal/chainrpc"
	"github.com/specialistvlad/defigrid/internal/chains"
	"github.com/specialistvlad/defigrid/internal/ctxlog"
	"github.com/specialistvlad/defigrid/internal/execctx"
	"github.com/specialistvlad/defigrid/internal/flowerr"
	"github.com/specialistvlad/defigrid/internal/handlers"
	"github.com/specialistvlad/defigrid/internal/nodetype"
	"github.com/specialistvlad/defigrid/internal/registry"
	"github.com/specialistvlad/defigrid/internal/result"
)

const (
	defaultPollInterval = 2 * time.Second
	defaultTimeout      = 2 * time.Minute
)

// Module registers transaction_monitor.
type Module struct {
	RPC          *chainrpc.Pool
	PollInterval time.Duration
}

// Register adds the transaction_monitor handler.
func (m *Module) Register(r *registry.Registry) {
	interval := m.PollInterval
	if interval <= 0 {
		interval = defaultPollInterval
	}
	r.Register(&handlers.Handler{
		Type:     nodetype.TransactionMonitor,
		Template: template{},
		Live:     &live{rpc: m.RPC, interval: interval},
	})
}

func confirmations(in handlers.Inputs) int64 {
	if n, ok := in.Int("confirmations"); ok && n > 0 {
		return n
	}
	return 1
}

type template struct{}

func (template) Validate(in handlers.Inputs) handlers.Validation {
	var c handlers.Check
	if in.Has("tx_hash") {
		if h, _ := in.String("tx_hash"); !chains.IsTxHash(h) {
			c.Failf("tx_hash must be a 0x-prefixed 64 hex character hash")
		}
	}
	return c.Result()
}

func (template) Execute(_ context.Context, in handlers.Inputs, _ *execctx.Context, log *result.Log) (map[string]any, error) {
	hash := in.StringOr("tx_hash", chains.TemplateHash("monitor"))
	n := confirmations(in)
	log.Addf("template confirmation of %s", hash)
	return map[string]any{
		"tx_hash":       hash,
		"status":        "confirmed",
		"confirmations": n,
		"block_number":  int64(0),
	}, nil
}

func (template) EstimateCost(handlers.Inputs) string { return "0" }

type live struct {
	rpc      *chainrpc.Pool
	interval time.Duration
}

func (*live) Validate(in handlers.Inputs) handlers.Validation {
	var c handlers.Check
	if !in.Has("tx_hash") {
		c.Failf("tx_hash is required")
	} else if h, _ := in.String("tx_hash"); !chains.IsTxHash(h) {
		c.Failf("tx_hash must be a 0x-prefixed 64 hex character hash")
	}
	chains.RequireChain(&c, in, "chain_id")
	if in.Has("confirmations") {
		if n, ok := in.Int("confirmations"); !ok || n < 1 {
			c.Failf("confirmations must be a positive integer")
		}
	}
	if in.Has("timeout_seconds") {
		chains.RequirePositive(&c, in, "timeout_seconds")
	}
	return c.Result()
}

func (l *live) Execute(ctx context.Context, in handlers.Inputs, _ *execctx.Context, log *result.Log) (map[string]any, error) {
	logger := ctxlog.FromContext(ctx)
	hash, _ := in.String("tx_hash")
	chainID, _ := in.Int("chain_id")
	want := confirmations(in)
	timeout := defaultTimeout
	if s, ok := in.Float("timeout_seconds"); ok && s > 0 {
		timeout = chains.Seconds(s)
	}

	client, err := l.rpc.Client(chainID)
	if err != nil {
		return nil, err
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	log.Addf("watching %s on chain %d for %d confirmations", hash, chainID, want)
	ticker := time.NewTicker(l.interval)
	defer ticker.Stop()
	for {
		receipt, err := client.Receipt(ctx, hash)
		if err != nil && !flowerr.IsTransient(err) && ctx.Err() == nil {
			return nil, err
		}
		if receipt != nil {
			if !receipt.Success {
				log.Addf("transaction reverted in block %d", receipt.BlockNumber)
				return nil, &flowerr.ChainError{ChainID: chainID, TxHash: hash, BlockNumber: receipt.BlockNumber, Err: errors.New("transaction reverted")}
			}
			head, err := client.BlockNumber(ctx)
			if err != nil && !flowerr.IsTransient(err) && ctx.Err() == nil {
				return nil, err
			}
			if err == nil && head >= receipt.BlockNumber {
				got := int64(head-receipt.BlockNumber) + 1
				logger.Debug("Transaction mined.", "tx_hash", hash, "block", receipt.BlockNumber, "confirmations", got)
				if got >= want {
					log.Addf("confirmed in block %d with %d confirmations", receipt.BlockNumber, got)
					return map[string]any{
						"tx_hash":       hash,
						"status":        "confirmed",
						"confirmations": got,
						"block_number":  int64(receipt.BlockNumber),
						"gas_used":      int64(receipt.GasUsed),
					}, nil
				}
			}
		}

		select {
		case <-ctx.Done():
			log.Addf("not confirmed within %s", timeout)
			return nil, &flowerr.ChainError{
				ChainID:   chainID,
				TxHash:    hash,
				Transient: true,
				Err:       fmt.Errorf("transaction not confirmed: %w", ctx.Err()),
			}
		case <-ticker.C:
		}
	}
}

func (*live) EstimateCost(handlers.Inputs) string { return "0" }
