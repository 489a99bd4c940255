package chainrpc

import (
	"context"
	"log/slog"
	"math/big"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/cenkalti/backoff/v4"
	json "github.com/goccy/go-json"
	"github.com/pkg/errors"
	"github.com/specialistvlad/defigrid/internal/flowerr"
	"resty.dev/v3"
)

// Options configures a Client.
type Options struct {
	Timeout time.Duration
	// MaxRetries bounds retries of idempotent reads. Zero disables them.
	MaxRetries      uint64
	InitialInterval time.Duration
	Logger          *slog.Logger
}

// Client talks to one chain's JSON-RPC endpoint.
type Client struct {
	chainID int64
	http    *resty.Client
	opts    Options
	nextID  atomic.Int64
}

type rpcRequest struct {
	JSONRPC string `json:"jsonrpc"`
	ID      int64  `json:"id"`
	Method  string `json:"method"`
	Params  []any  `json:"params"`
}

type rpcError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

type rpcResponse struct {
	ID     int64           `json:"id"`
	Result json.RawMessage `json:"result"`
	Error  *rpcError       `json:"error"`
}

// New creates a client for chainID served at url.
func New(chainID int64, url string, opts Options) *Client {
	if opts.Timeout <= 0 {
		opts.Timeout = 15 * time.Second
	}
	if opts.InitialInterval <= 0 {
		opts.InitialInterval = 200 * time.Millisecond
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	c := resty.New().
		SetBaseURL(url).
		SetTimeout(opts.Timeout).
		SetHeader("Content-Type", "application/json")
	return &Client{chainID: chainID, http: c, opts: opts}
}

// ChainID is the chain this client is bound to.
func (c *Client) ChainID() int64 { return c.chainID }

// call performs a single JSON-RPC round trip and decodes the result into
// out. Every failure is returned as a *flowerr.ChainError.
func (c *Client) call(ctx context.Context, method string, out any, params ...any) error {
	if params == nil {
		params = []any{}
	}
	req := rpcRequest{JSONRPC: "2.0", ID: c.nextID.Add(1), Method: method, Params: params}

	var resp rpcResponse
	res, err := c.http.R().
		SetContext(ctx).
		SetBody(req).
		SetResult(&resp).
		Post("")
	if err != nil {
		return &flowerr.ChainError{ChainID: c.chainID, Transient: ctx.Err() == nil, Err: errors.Wrapf(err, "%s request", method)}
	}
	if res.IsError() {
		code := res.StatusCode()
		transient := code >= http.StatusInternalServerError || code == http.StatusTooManyRequests
		return &flowerr.ChainError{ChainID: c.chainID, Transient: transient, Err: errors.Errorf("%s: http status %d", method, code)}
	}
	if resp.Error != nil {
		return &flowerr.ChainError{
			ChainID:   c.chainID,
			Transient: isTransientCode(resp.Error.Code),
			Err:       errors.Errorf("%s: rpc error %d: %s", method, resp.Error.Code, resp.Error.Message),
		}
	}
	if out == nil || len(resp.Result) == 0 {
		return nil
	}
	if err := json.Unmarshal(resp.Result, out); err != nil {
		return &flowerr.ChainError{ChainID: c.chainID, Err: errors.Wrapf(err, "%s: decoding result", method)}
	}
	return nil
}

// -32005 is the de facto rate limit code, -32603 an internal node error.
func isTransientCode(code int) bool {
	return code == -32005 || code == -32603
}

// read wraps call with retries for transient chain errors.
func (c *Client) read(ctx context.Context, method string, out any, params ...any) error {
	if c.opts.MaxRetries == 0 {
		return c.call(ctx, method, out, params...)
	}
	eb := backoff.NewExponentialBackOff()
	eb.InitialInterval = c.opts.InitialInterval
	eb.MaxElapsedTime = 0
	b := backoff.WithContext(backoff.WithMaxRetries(eb, c.opts.MaxRetries), ctx)

	op := func() error {
		err := c.call(ctx, method, out, params...)
		if err != nil && !flowerr.IsTransient(err) {
			return backoff.Permanent(err)
		}
		return err
	}
	notify := func(err error, wait time.Duration) {
		c.opts.Logger.Warn("Retrying chain RPC read.", "chain_id", c.chainID, "method", method, "wait", wait, "error", err)
	}
	return backoff.RetryNotify(op, b, notify)
}

// BlockNumber returns the latest block height.
func (c *Client) BlockNumber(ctx context.Context) (uint64, error) {
	var hex string
	if err := c.read(ctx, "eth_blockNumber", &hex); err != nil {
		return 0, err
	}
	return parseUint(hex)
}

// Balance returns the native balance of address in wei at the latest block.
func (c *Client) Balance(ctx context.Context, address string) (*big.Int, error) {
	var hex string
	if err := c.read(ctx, "eth_getBalance", &hex, address, "latest"); err != nil {
		return nil, err
	}
	return parseBig(hex)
}

// Receipt is the subset of a transaction receipt the executors need.
type Receipt struct {
	TxHash      string
	BlockNumber uint64
	GasUsed     uint64
	Success     bool
}

type rawReceipt struct {
	TransactionHash string `json:"transactionHash"`
	BlockNumber     string `json:"blockNumber"`
	GasUsed         string `json:"gasUsed"`
	Status          string `json:"status"`
}

// Receipt returns the receipt for txHash, or nil when the transaction is
// still pending.
func (c *Client) Receipt(ctx context.Context, txHash string) (*Receipt, error) {
	var raw *rawReceipt
	if err := c.read(ctx, "eth_getTransactionReceipt", &raw, txHash); err != nil {
		return nil, err
	}
	if raw == nil {
		return nil, nil
	}
	block, err := parseUint(raw.BlockNumber)
	if err != nil {
		return nil, &flowerr.ChainError{ChainID: c.chainID, TxHash: txHash, Err: err}
	}
	gas, _ := parseUint(raw.GasUsed)
	return &Receipt{
		TxHash:      txHash,
		BlockNumber: block,
		GasUsed:     gas,
		Success:     raw.Status == "0x1",
	}, nil
}

// SendRawTransaction broadcasts a signed transaction and returns its hash.
func (c *Client) SendRawTransaction(ctx context.Context, signed string) (string, error) {
	var hash string
	if err := c.call(ctx, "eth_sendRawTransaction", &hash, signed); err != nil {
		return "", err
	}
	return hash, nil
}

func parseUint(hex string) (uint64, error) {
	v, err := strconv.ParseUint(strings.TrimPrefix(hex, "0x"), 16, 64)
	if err != nil {
		return 0, errors.Wrapf(err, "invalid quantity %q", hex)
	}
	return v, nil
}

func parseBig(hex string) (*big.Int, error) {
	v, ok := new(big.Int).SetString(strings.TrimPrefix(hex, "0x"), 16)
	if !ok {
		return nil, errors.Errorf("invalid quantity %q", hex)
	}
	return v, nil
}

// Pool hands out one client per configured chain.
type Pool struct {
	mu        sync.Mutex
	endpoints map[int64]string
	opts      Options
	clients   map[int64]*Client
}

// NewPool creates a pool over endpoints keyed by chain id.
func NewPool(endpoints map[int64]string, opts Options) *Pool {
	return &Pool{endpoints: endpoints, opts: opts, clients: make(map[int64]*Client)}
}

// Client returns the client for chainID, creating it on first use.
func (p *Pool) Client(chainID int64) (*Client, error) {
	if p == nil {
		return nil, errors.Errorf("no RPC endpoints configured")
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if c, ok := p.clients[chainID]; ok {
		return c, nil
	}
	url, ok := p.endpoints[chainID]
	if !ok {
		return nil, errors.Errorf("no RPC endpoint configured for chain %d", chainID)
	}
	c := New(chainID, url, p.opts)
	p.clients[chainID] = c
	return c, nil
}
