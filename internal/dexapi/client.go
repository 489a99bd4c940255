// Package dexapi is a client for a DEX aggregator's quote and swap-building
// HTTP API.
package dexapi

import (
	"context"
	"strconv"
	"time"

	"github.com/pkg/errors"
	"resty.dev/v3"
)

// Client calls the aggregator API.
type Client struct {
	http *resty.Client
}

// New creates a client for the API at baseURL. apiKey is sent as a bearer
// token when non-empty.
func New(baseURL, apiKey string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	c := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(timeout).
		SetHeader("Accept", "application/json")
	if apiKey != "" {
		c.SetHeader("Authorization", "Bearer "+apiKey)
	}
	return &Client{http: c}
}

// QuoteRequest asks for the best route selling Amount of FromToken.
// Amount is in the token's smallest unit.
type QuoteRequest struct {
	ChainID   int64
	FromToken string
	ToToken   string
	Amount    string
}

// Quote is the aggregator's best route for a QuoteRequest.
type Quote struct {
	FromToken          string   `json:"fromToken"`
	ToToken            string   `json:"toToken"`
	FromAmount         string   `json:"fromAmount"`
	ToAmount           string   `json:"toAmount"`
	PriceImpactPercent float64  `json:"priceImpact"`
	EstimatedGas       string   `json:"estimatedGas"`
	Route              []string `json:"route"`
}

// SwapRequest asks the aggregator to build an unsigned swap transaction.
type SwapRequest struct {
	ChainID         int64   `json:"-"`
	FromToken       string  `json:"fromToken"`
	ToToken         string  `json:"toToken"`
	Amount          string  `json:"amount"`
	From            string  `json:"from"`
	SlippagePercent float64 `json:"slippage"`
}

// SwapTx is an unsigned transaction ready to be handed to a signer.
type SwapTx struct {
	ChainID int64  `json:"chainId"`
	From    string `json:"from"`
	To      string `json:"to"`
	Data    string `json:"data"`
	Value   string `json:"value"`
	Gas     string `json:"gas"`
}

type apiError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// Quote fetches a quote.
func (c *Client) Quote(ctx context.Context, req QuoteRequest) (*Quote, error) {
	var (
		out    Quote
		apiErr apiError
	)
	res, err := c.http.R().
		SetContext(ctx).
		SetPathParam("chain", strconv.FormatInt(req.ChainID, 10)).
		SetQueryParam("fromToken", req.FromToken).
		SetQueryParam("toToken", req.ToToken).
		SetQueryParam("amount", req.Amount).
		SetResult(&out).
		SetError(&apiErr).
		Get("/v1/{chain}/quote")
	if err != nil {
		return nil, errors.Wrap(err, "quote request")
	}
	if res.IsError() {
		return nil, statusError("quote", res.StatusCode(), apiErr)
	}
	return &out, nil
}

// BuildSwap asks the aggregator for an unsigned swap transaction.
func (c *Client) BuildSwap(ctx context.Context, req SwapRequest) (*SwapTx, error) {
	var (
		out    SwapTx
		apiErr apiError
	)
	res, err := c.http.R().
		SetContext(ctx).
		SetPathParam("chain", strconv.FormatInt(req.ChainID, 10)).
		SetBody(req).
		SetResult(&out).
		SetError(&apiErr).
		Post("/v1/{chain}/swap")
	if err != nil {
		return nil, errors.Wrap(err, "swap request")
	}
	if res.IsError() {
		return nil, statusError("swap", res.StatusCode(), apiErr)
	}
	if out.ChainID == 0 {
		out.ChainID = req.ChainID
	}
	return &out, nil
}

func statusError(op string, status int, apiErr apiError) error {
	if apiErr.Message != "" {
		return errors.Errorf("%s: status %d: %s", op, status, apiErr.Message)
	}
	return errors.Errorf("%s: status %d", op, status)
}
