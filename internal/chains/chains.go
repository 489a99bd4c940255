// Package chains holds the chain whitelist, the token list and the input
// checks shared by the live executors.
package chains

import (
	"math"
	"math/big"
	"regexp"
	"sort"
	"strings"

	"github.com/specialistvlad/defigrid/internal/handlers"
)

// Chain describes a supported EVM network.
type Chain struct {
	ID     int64
	Name   string
	Native string
}

var supported = map[int64]Chain{
	1:     {ID: 1, Name: "ethereum", Native: "ETH"},
	10:    {ID: 10, Name: "optimism", Native: "ETH"},
	56:    {ID: 56, Name: "bsc", Native: "BNB"},
	137:   {ID: 137, Name: "polygon", Native: "POL"},
	8453:  {ID: 8453, Name: "base", Native: "ETH"},
	42161: {ID: 42161, Name: "arbitrum", Native: "ETH"},
	43113: {ID: 43113, Name: "avalanche-fuji", Native: "AVAX"},
	43114: {ID: 43114, Name: "avalanche", Native: "AVAX"},
}

// DefaultChainID is used by template executors when no chain is given.
const DefaultChainID int64 = 43114

var (
	addressRe = regexp.MustCompile(`^0x[0-9a-fA-F]{40}$`)
	txHashRe  = regexp.MustCompile(`^0x[0-9a-fA-F]{64}$`)
)

// Lookup returns the chain with id, if it is whitelisted.
func Lookup(id int64) (Chain, bool) {
	c, ok := supported[id]
	return c, ok
}

// IDs returns the whitelisted chain ids in ascending order.
func IDs() []int64 {
	ids := make([]int64, 0, len(supported))
	for id := range supported {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// IsAddress reports whether s is a 0x-prefixed 20-byte hex address.
func IsAddress(s string) bool { return addressRe.MatchString(s) }

// IsTxHash reports whether s is a 0x-prefixed 32-byte hex hash.
func IsTxHash(s string) bool { return txHashRe.MatchString(s) }

// ZeroAddress is the all-zero address used by template outputs.
const ZeroAddress = "0x0000000000000000000000000000000000000000"

// RequireChain checks that key holds a whitelisted chain id and returns it.
func RequireChain(c *handlers.Check, in handlers.Inputs, key string) (int64, bool) {
	if !in.Has(key) {
		c.Failf("%s is required", key)
		return 0, false
	}
	id, ok := in.Int(key)
	if !ok {
		c.Failf("%s must be an integer chain id", key)
		return 0, false
	}
	if _, ok := Lookup(id); !ok {
		c.Failf("%s %d is not a supported chain", key, id)
		return 0, false
	}
	return id, true
}

// RequireAddress checks that key holds a well-formed address.
func RequireAddress(c *handlers.Check, in handlers.Inputs, key string) (string, bool) {
	s, ok := in.String(key)
	if !in.Has(key) {
		c.Failf("%s is required", key)
		return "", false
	}
	if !ok || !IsAddress(s) {
		c.Failf("%s must be a 0x-prefixed 40 hex character address", key)
		return "", false
	}
	return s, true
}

// RequirePositive checks that key holds a number greater than zero.
func RequirePositive(c *handlers.Check, in handlers.Inputs, key string) (float64, bool) {
	if !in.Has(key) {
		c.Failf("%s is required", key)
		return 0, false
	}
	f, ok := in.Float(key)
	if !ok || f <= 0 {
		c.Failf("%s must be a positive number", key)
		return 0, false
	}
	return f, true
}

// ChainOr returns the chain id in key, or DefaultChainID.
func ChainOr(in handlers.Inputs, key string) int64 {
	if id, ok := in.Int(key); ok {
		return id
	}
	return DefaultChainID
}

// Token is an ERC-20 or native token.
type Token struct {
	Symbol   string `json:"symbol"`
	Address  string `json:"address"`
	Decimals int    `json:"decimals"`
}

// Map renders t as an output value.
func (t Token) Map() map[string]any {
	return map[string]any{"symbol": t.Symbol, "address": t.Address, "decimals": t.Decimals}
}

// NativeAddress is the placeholder aggregators use for a chain's native coin.
const NativeAddress = "0xEeeeeEeeeEeEeeEeEeEeeEEEeeeeEeeeeeeeEEeE"

var tokens = map[int64][]Token{
	1: {
		{Symbol: "USDC", Address: "0xA0b86991c6218b36c1d19D4a2e9Eb0cE3606eB48", Decimals: 6},
		{Symbol: "USDT", Address: "0xdAC17F958D2ee523a2206206994597C13D831ec7", Decimals: 6},
		{Symbol: "WETH", Address: "0xC02aaA39b223FE8D0A0e5C4F27eAD9083C756Cc2", Decimals: 18},
	},
	43113: {
		{Symbol: "USDC", Address: "0x5425890298aed601595a70AB815c96711a31Bc65", Decimals: 6},
		{Symbol: "WAVAX", Address: "0xd00ae08403B9bbb9124bB305C09058E32C39A48c", Decimals: 18},
	},
	43114: {
		{Symbol: "USDC", Address: "0xB97EF9Ef8734C71904D8002F8b6Bc66Dd9c48a6E", Decimals: 6},
		{Symbol: "USDT", Address: "0x9702230A8Ea53601f5cD2dc00fDBc13d4dF4A8c7", Decimals: 6},
		{Symbol: "WAVAX", Address: "0xB31f66AA3C1e785363F0875A1B74E27b85FD66c7", Decimals: 18},
	},
}

// ResolveToken finds a token on chainID by symbol or address. The chain's
// native symbol resolves to NativeAddress. An unknown address resolves to a
// token with 18 decimals and no symbol.
func ResolveToken(chainID int64, ref string) (Token, bool) {
	if c, ok := Lookup(chainID); ok && strings.EqualFold(ref, c.Native) {
		return Token{Symbol: c.Native, Address: NativeAddress, Decimals: 18}, true
	}
	for _, t := range tokens[chainID] {
		if strings.EqualFold(t.Symbol, ref) || strings.EqualFold(t.Address, ref) {
			return t, true
		}
	}
	if IsAddress(ref) {
		return Token{Address: ref, Decimals: 18}, true
	}
	return Token{}, false
}

// ToBaseUnits converts a human amount of a token with decimals into its
// smallest unit, truncating any remaining fraction.
// It reports false for NaN and infinities.
func ToBaseUnits(amount float64, decimals int) (string, bool) {
	if math.IsNaN(amount) || math.IsInf(amount, 0) {
		return "", false
	}
	scale := new(big.Float).SetInt(new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(decimals)), nil))
	v := new(big.Float).SetPrec(256).Mul(big.NewFloat(amount).SetPrec(256), scale)
	i, _ := v.Int(nil)
	return i.String(), true
}

// FromBaseUnits converts a smallest-unit amount string into a human amount.
func FromBaseUnits(amount string, decimals int) (float64, bool) {
	i, ok := new(big.Int).SetString(amount, 10)
	if !ok {
		return 0, false
	}
	scale := new(big.Float).SetInt(new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(decimals)), nil))
	f, _ := new(big.Float).Quo(new(big.Float).SetInt(i), scale).Float64()
	return f, true
}
