package app

import (
	"errors"
	"fmt"
	"time"

	"github.com/specialistvlad/defigrid/internal/chains"
)

// Config holds all the necessary configuration for an App instance to run.
type Config struct {
	LogFormat string
	LogLevel  string

	Workers        int
	NodeTimeout    time.Duration
	SigningTimeout time.Duration
	RecordTTL      time.Duration

	ListenAddr string

	DEXURL    string
	DEXAPIKey string

	// RPCEndpoints maps chain ids to JSON-RPC URLs.
	RPCEndpoints map[int64]string
	RPCRetries   uint64
	PollInterval time.Duration

	// SignerURL, when set, connects runs to a Socket.IO signer bridge.
	SignerURL       string
	SignerNamespace string
	SignerInsecure  bool
}

var (
	logLevels  = map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	logFormats = map[string]bool{"text": true, "json": true}
)

// NewConfig validates cfg and fills in defaults.
func NewConfig(cfg Config) (*Config, error) {
	if cfg.LogLevel == "" {
		cfg.LogLevel = "info"
	}
	if cfg.LogFormat == "" {
		cfg.LogFormat = "text"
	}
	if !logLevels[cfg.LogLevel] {
		return nil, fmt.Errorf("invalid log level %q: must be one of debug, info, warn, error", cfg.LogLevel)
	}
	if !logFormats[cfg.LogFormat] {
		return nil, fmt.Errorf("invalid log format %q: must be text or json", cfg.LogFormat)
	}
	if cfg.Workers < 0 {
		return nil, errors.New("workers cannot be negative")
	}
	if cfg.Workers == 0 {
		cfg.Workers = 10
	}
	if cfg.SigningTimeout <= 0 {
		cfg.SigningTimeout = chains.DefaultSigningTimeout
	}
	if cfg.NodeTimeout < 0 {
		return nil, errors.New("node timeout cannot be negative")
	}
	if cfg.NodeTimeout == 0 {
		cfg.NodeTimeout = 2 * cfg.SigningTimeout
	}
	if cfg.NodeTimeout <= cfg.SigningTimeout {
		return nil, fmt.Errorf("node timeout %s must exceed signing timeout %s", cfg.NodeTimeout, cfg.SigningTimeout)
	}
	if cfg.ListenAddr == "" {
		cfg.ListenAddr = ":8080"
	}
	for id := range cfg.RPCEndpoints {
		if _, ok := chains.Lookup(id); !ok {
			return nil, fmt.Errorf("RPC endpoint configured for unsupported chain %d", id)
		}
	}
	return &cfg, nil
}
