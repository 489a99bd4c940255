package app

import (
	"github.com/specialistvlad/defigrid/internal/chainrpc"
	"github.com/specialistvlad/defigrid/internal/dexapi"
	"github.com/specialistvlad/defigrid/internal/registry"
	"github.com/specialistvlad/defigrid/modules/configgen"
	"github.com/specialistvlad/defigrid/modules/icm"
	"github.com/specialistvlad/defigrid/modules/monitor"
	"github.com/specialistvlad/defigrid/modules/priceimpact"
	"github.com/specialistvlad/defigrid/modules/quote"
	"github.com/specialistvlad/defigrid/modules/swap"
	"github.com/specialistvlad/defigrid/modules/tokens"
	"github.com/specialistvlad/defigrid/modules/wallet"
)

// coreModules is the definitive list of all modules that are compiled into
// the defigrid binary, wired to the external clients. dex and rpc may be nil,
// in which case live nodes that need them fail at execution.
func coreModules(cfg *Config, dex *dexapi.Client, rpc *chainrpc.Pool) []registry.Module {
	return []registry.Module{
		&wallet.Module{RPC: rpc},
		&tokens.Module{},
		&quote.Module{DEX: dex},
		&priceimpact.Module{},
		&swap.Module{DEX: dex, RPC: rpc, SigningTimeout: cfg.SigningTimeout},
		&icm.Module{RPC: rpc, SigningTimeout: cfg.SigningTimeout},
		&monitor.Module{RPC: rpc, PollInterval: cfg.PollInterval},
		&configgen.Module{},
	}
}
