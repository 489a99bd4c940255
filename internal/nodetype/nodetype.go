// Package nodetype defines the closed set of node kinds the engine can run.
//
// Workflow documents carry the kind as a free-form string. It is parsed into
// a Type once, at the ingress boundary, and everything past that point works
// with the typed value.
package nodetype

import (
	"fmt"
	"strings"
)

// Type identifies a node executor.
type Type int

const (
	Unknown Type = iota
	WalletConnector
	TokenSelector
	QuoteFetcher
	PriceImpact
	SwapExecutor
	ICMSender
	TransactionMonitor
	ConfigGenerator
)

var names = map[Type]string{
	WalletConnector:    "wallet_connector",
	TokenSelector:      "token_selector",
	QuoteFetcher:       "quote_fetcher",
	PriceImpact:        "price_impact",
	SwapExecutor:       "swap_executor",
	ICMSender:          "icm_sender",
	TransactionMonitor: "transaction_monitor",
	ConfigGenerator:    "config_generator",
}

// aliases maps a normalized spelling (lower case, no separators) to a Type.
// Canonical names are added in init.
var aliases = map[string]Type{
	"wallet":    WalletConnector,
	"token":     TokenSelector,
	"quote":     QuoteFetcher,
	"impact":    PriceImpact,
	"swap":      SwapExecutor,
	"icm":       ICMSender,
	"bridge":    ICMSender,
	"monitor":   TransactionMonitor,
	"txmonitor": TransactionMonitor,
	"config":    ConfigGenerator,
}

func init() {
	for t, name := range names {
		aliases[normalize(name)] = t
	}
}

func normalize(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	return strings.NewReplacer("_", "", "-", "", " ", "").Replace(s)
}

// Parse converts a wire type string into a Type. Snake case, kebab case and
// camel case spellings are all accepted.
func Parse(s string) (Type, error) {
	if t, ok := aliases[normalize(s)]; ok {
		return t, nil
	}
	return Unknown, fmt.Errorf("unrecognized node type %q", s)
}

// All returns every known type in declaration order.
func All() []Type {
	return []Type{
		WalletConnector, TokenSelector, QuoteFetcher, PriceImpact,
		SwapExecutor, ICMSender, TransactionMonitor, ConfigGenerator,
	}
}

func (t Type) String() string {
	if name, ok := names[t]; ok {
		return name
	}
	return "unknown"
}

// MarshalText implements encoding.TextMarshaler.
func (t Type) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (t *Type) UnmarshalText(b []byte) error {
	parsed, err := Parse(string(b))
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}
