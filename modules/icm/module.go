// Package icm provides the icm_sender node, which sends an interchain
// message from one chain to another once the user's wallet has signed it.
package icm

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/specialistvlad/defigrid/internal/chainrpc"
	"github.com/specialistvlad/defigrid/internal/chains"
	"github.com/specialistvlad/defigrid/internal/ctxlog"
	"github.com/specialistvlad/defigrid/internal/execctx"
	"github.com/specialistvlad/defigrid/internal/handlers"
	"github.com/specialistvlad/defigrid/internal/nodetype"
	"github.com/specialistvlad/defigrid/internal/registry"
	"github.com/specialistvlad/defigrid/internal/result"
)

// Teleporter messenger, deployed at the same address on every chain.
const messengerAddress = "0x253b2784c75e510dD0fF1da844684a1aC0aa5fcf"

const estimatedSendGas = "250000"

// Module registers icm_sender.
type Module struct {
	RPC            *chainrpc.Pool
	SigningTimeout time.Duration
}

// Register adds the icm_sender handler.
func (m *Module) Register(r *registry.Registry) {
	r.Register(&handlers.Handler{
		Type:     nodetype.ICMSender,
		Template: template{},
		Live:     &live{rpc: m.RPC, signingTimeout: m.SigningTimeout},
	})
}

// sourceChain prefers source_chain_id and falls back to chain_id, which a
// wallet_connector upstream provides.
func sourceChain(in handlers.Inputs) string {
	if in.Has("source_chain_id") {
		return "source_chain_id"
	}
	return "chain_id"
}

func messageID(parts ...string) string {
	return uuid.NewSHA1(uuid.NameSpaceURL, []byte("icm:"+strings.Join(parts, "/"))).String()
}

type template struct{}

func (template) Validate(in handlers.Inputs) handlers.Validation {
	var c handlers.Check
	if in.Has("recipient") {
		chains.RequireAddress(&c, in, "recipient")
	}
	return c.Result()
}

func (template) Execute(_ context.Context, in handlers.Inputs, ec *execctx.Context, log *result.Log) (map[string]any, error) {
	src := chains.ChainOr(in, sourceChain(in))
	dst, ok := in.Int("destination_chain_id")
	if !ok {
		dst = 43113
	}
	id := messageID(ec.NodeID, strconv.FormatInt(src, 10), strconv.FormatInt(dst, 10))
	log.Addf("template message %s from chain %d to %d", id, src, dst)
	return map[string]any{
		"message_id":           id,
		"tx_hash":              chains.TemplateHash("icm", id),
		"source_chain_id":      src,
		"destination_chain_id": dst,
		"status":               "simulated",
	}, nil
}

func (template) EstimateCost(handlers.Inputs) string { return "0" }

type live struct {
	rpc            *chainrpc.Pool
	signingTimeout time.Duration
}

func (*live) Validate(in handlers.Inputs) handlers.Validation {
	var c handlers.Check
	chains.RequireAddress(&c, in, "wallet_address")
	src, srcOK := chains.RequireChain(&c, in, sourceChain(in))
	dst, dstOK := chains.RequireChain(&c, in, "destination_chain_id")
	if srcOK && dstOK && src == dst {
		c.Failf("destination_chain_id must differ from the source chain")
	}
	if in.Has("recipient") {
		chains.RequireAddress(&c, in, "recipient")
	}
	if !in.Has("message") && !in.Has("amount") {
		c.Failf("message or amount is required")
	}
	if in.Has("amount") {
		chains.RequirePositive(&c, in, "amount")
	}
	return c.Result()
}

func (l *live) Execute(ctx context.Context, in handlers.Inputs, ec *execctx.Context, log *result.Log) (map[string]any, error) {
	logger := ctxlog.FromContext(ctx)
	wallet, _ := in.String("wallet_address")
	src, _ := in.Int(sourceChain(in))
	dst, _ := in.Int("destination_chain_id")
	recipient := in.StringOr("recipient", wallet)
	id := messageID(ec.ExecutionID, ec.NodeID, strconv.FormatInt(src, 10), strconv.FormatInt(dst, 10))

	payload := map[string]any{
		"kind":                 "icm",
		"message_id":           id,
		"source_chain_id":      src,
		"destination_chain_id": dst,
		"from":                 wallet,
		"to":                   messengerAddress,
		"recipient":            recipient,
	}
	if msg, ok := in.String("message"); ok {
		payload["message"] = msg
	}
	if amount, ok := in.Float("amount"); ok {
		payload["amount"] = amount
	}

	timeout := chains.SigningTimeout(in, l.signingTimeout)
	log.Addf("message %s built, waiting up to %s for signature", id, timeout)
	logger.Info("Awaiting ICM signature.", "message_id", id, "source_chain_id", src, "destination_chain_id", dst)
	signed, err := ec.AwaitApproval(ctx, payload, timeout)
	if err != nil {
		log.Addf("%v", err)
		log.Addf("ICM message not sent")
		return nil, err
	}

	sig, err := chains.ParseSignature(signed)
	if err != nil {
		return nil, err
	}
	hash := sig.TxHash
	if hash == "" {
		client, err := l.rpc.Client(src)
		if err != nil {
			return nil, err
		}
		if hash, err = client.SendRawTransaction(ctx, sig.Raw); err != nil {
			log.Addf("ICM message not sent: broadcast failed")
			return nil, fmt.Errorf("broadcasting message %s: %w", id, err)
		}
	}
	log.Addf("ICM message sent in %s", hash)
	return map[string]any{
		"message_id":           id,
		"tx_hash":              hash,
		"chain_id":             src,
		"source_chain_id":      src,
		"destination_chain_id": dst,
		"status":               "sent",
	}, nil
}

func (*live) EstimateCost(handlers.Inputs) string { return estimatedSendGas }
