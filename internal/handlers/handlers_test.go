package handlers

import (
	"context"
	"errors"
	"math"
	"testing"

	json "github.com/goccy/go-json"
	"github.com/specialistvlad/defigrid/internal/ctxlog"
	"github.com/specialistvlad/defigrid/internal/execctx"
	"github.com/specialistvlad/defigrid/internal/flowerr"
	"github.com/specialistvlad/defigrid/internal/nodetype"
	"github.com/specialistvlad/defigrid/internal/result"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubVariant struct {
	name     string
	outputs  map[string]any
	err      error
	panicMsg string
	executed int
}

func (s *stubVariant) Validate(in Inputs) Validation {
	var c Check
	c.Require(in, "needed")
	return c.Result()
}

func (s *stubVariant) Execute(ctx context.Context, in Inputs, ec *execctx.Context, log *result.Log) (map[string]any, error) {
	s.executed++
	log.Addf("%s ran", s.name)
	if s.panicMsg != "" {
		panic(s.panicMsg)
	}
	return s.outputs, s.err
}

func (s *stubVariant) EstimateCost(Inputs) string { return s.name }

func newHandler() (*Handler, *stubVariant, *stubVariant) {
	tpl := &stubVariant{name: "template", outputs: map[string]any{"mock": true}}
	live := &stubVariant{name: "live", outputs: map[string]any{"mock": false}}
	return &Handler{Type: nodetype.WalletConnector, Template: tpl, Live: live}, tpl, live
}

func TestInputs_IsTemplate(t *testing.T) {
	testCases := []struct {
		in   Inputs
		want bool
	}{
		{Inputs{"template_creation_mode": true}, true},
		{Inputs{"template_creation_mode": "true"}, true},
		{Inputs{"template_creation_mode": false}, false},
		{Inputs{"mode": "template"}, true},
		{Inputs{"mode": "live"}, false},
		{Inputs{}, false},
	}
	for _, tc := range testCases {
		assert.Equal(t, tc.want, tc.in.IsTemplate(), "%v", tc.in)
	}
}

func TestInputs_Accessors(t *testing.T) {
	in := Inputs{
		"amount":   "1.5",
		"chain_id": float64(43114),
		"hex":      "0xa86a",
		"frac":     1.25,
		"flag":     "true",
		"list":     []any{"a", "b"},
		"mixed":    []any{"a", 1},
		"nested":   map[string]any{"k": "v"},
	}

	f, ok := in.Float("amount")
	require.True(t, ok)
	assert.Equal(t, 1.5, f)

	i, ok := in.Int("chain_id")
	require.True(t, ok)
	assert.Equal(t, int64(43114), i)

	i, ok = in.Int("hex")
	require.True(t, ok)
	assert.Equal(t, int64(43114), i)

	_, ok = in.Int("frac")
	assert.False(t, ok)

	b, ok := in.Bool("flag")
	require.True(t, ok)
	assert.True(t, b)

	list, ok := in.Strings("list")
	require.True(t, ok)
	assert.Equal(t, []string{"a", "b"}, list)
	_, ok = in.Strings("mixed")
	assert.False(t, ok)

	m, ok := in.Map("nested")
	require.True(t, ok)
	assert.Equal(t, "v", m["k"])

	s, ok := in.String("chain_id")
	require.True(t, ok)
	assert.Equal(t, "43114", s)
	assert.Equal(t, "fallback", in.StringOr("missing", "fallback"))
}

func TestInputs_FloatRejectsNonFinite(t *testing.T) {
	testCases := []struct {
		name string
		in   any
		ok   bool
	}{
		{"number string", "80", true},
		{"json number", json.Number("0.5"), true},
		{"nan string", "NaN", false},
		{"inf string", "Inf", false},
		{"negative inf string", "-Infinity", false},
		{"nan float", math.NaN(), false},
		{"inf float", math.Inf(1), false},
		{"garbage", "eighty", false},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, ok := Inputs{"v": tc.in}.Float("v")
			assert.Equal(t, tc.ok, ok)
		})
	}
}

func TestHandler_RoutesByMode(t *testing.T) {
	h, tpl, live := newHandler()
	ctx := ctxlog.Discard(context.Background())
	ec := execctx.New("exec", "wf", nil, nil, nil).ForNode("w")

	res := h.Execute(ctx, Inputs{"mode": "template"}, ec)
	require.True(t, res.Success)
	assert.Equal(t, true, res.Outputs["mock"])
	assert.Equal(t, "w", res.NodeID)
	assert.Equal(t, "wallet_connector", res.Type)
	assert.Contains(t, res.Logs, "template ran")
	assert.Equal(t, 1, tpl.executed)
	assert.Equal(t, 0, live.executed)

	assert.Equal(t, "live", h.EstimateCost(Inputs{}))
	assert.Equal(t, "template", h.EstimateCost(Inputs{"template_creation_mode": true}))
}

func TestHandler_Validate(t *testing.T) {
	h, _, _ := newHandler()
	v := h.Validate(Inputs{})
	assert.False(t, v.Valid)
	assert.Equal(t, []string{"needed is required"}, v.Errors)
	assert.True(t, h.Validate(Inputs{"needed": 1}).Valid)
}

func TestHandler_ErrorBecomesFailedResult(t *testing.T) {
	h, _, live := newHandler()
	live.err = errors.New("rpc down")
	ctx := ctxlog.Discard(context.Background())

	res := h.Execute(ctx, Inputs{}, execctx.New("exec", "wf", nil, nil, nil).ForNode("w"))
	assert.False(t, res.Success)
	assert.Equal(t, "failed", res.Status)
	assert.Contains(t, res.Error, "rpc down")
	assert.Contains(t, res.Logs, "live ran")

	var execErr *flowerr.ExecutionError
	require.ErrorAs(t, res.Err(), &execErr)
	assert.Equal(t, "w", execErr.NodeID)
}

func TestHandler_PanicIsRecovered(t *testing.T) {
	h, _, live := newHandler()
	live.panicMsg = "nil map"
	ctx := ctxlog.Discard(context.Background())

	var res result.Node
	require.NotPanics(t, func() {
		res = h.Execute(ctx, Inputs{}, execctx.New("exec", "wf", nil, nil, nil).ForNode("w"))
	})
	assert.False(t, res.Success)
	assert.Contains(t, res.Error, "panic: nil map")
	assert.Equal(t, "w", res.NodeID)
	assert.Contains(t, res.Logs, "live ran")
}
