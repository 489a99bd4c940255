package testutil

import (
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	json "github.com/goccy/go-json"
)

// FakeChain is a JSON-RPC endpoint with scripted answers per method.
type FakeChain struct {
	URL string

	mu      sync.Mutex
	answers map[string]func(params []any) any
	calls   map[string]int
	total   int
	sent    []string
}

// NewFakeChain starts a fake endpoint. eth_sendRawTransaction is answered
// by default and records the raw transaction.
func NewFakeChain(t *testing.T) *FakeChain {
	t.Helper()
	fc := &FakeChain{answers: make(map[string]func([]any) any), calls: make(map[string]int)}
	fc.On("eth_sendRawTransaction", func(params []any) any {
		fc.sent = append(fc.sent, params[0].(string))
		return "0x" + "11111111111111111111111111111111" + "11111111111111111111111111111111"
	})
	srv := httptest.NewServer(http.HandlerFunc(fc.serve))
	t.Cleanup(srv.Close)
	fc.URL = srv.URL
	return fc
}

// On scripts the result of method.
func (fc *FakeChain) On(method string, fn func(params []any) any) {
	fc.mu.Lock()
	defer fc.mu.Unlock()
	fc.answers[method] = fn
}

// Calls returns how many times method was called.
func (fc *FakeChain) Calls(method string) int {
	fc.mu.Lock()
	defer fc.mu.Unlock()
	return fc.calls[method]
}

// TotalCalls returns how many requests reached the endpoint, whatever the
// method.
func (fc *FakeChain) TotalCalls() int {
	fc.mu.Lock()
	defer fc.mu.Unlock()
	return fc.total
}

// Sent returns the raw transactions broadcast so far.
func (fc *FakeChain) Sent() []string {
	fc.mu.Lock()
	defer fc.mu.Unlock()
	return append([]string(nil), fc.sent...)
}

func (fc *FakeChain) serve(w http.ResponseWriter, r *http.Request) {
	fc.mu.Lock()
	fc.total++
	fc.mu.Unlock()

	var req struct {
		ID     int64  `json:"id"`
		Method string `json:"method"`
		Params []any  `json:"params"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	fc.mu.Lock()
	fc.calls[req.Method]++
	fn, ok := fc.answers[req.Method]
	var result any
	if ok {
		result = fn(req.Params)
	}
	fc.mu.Unlock()

	body := map[string]any{"jsonrpc": "2.0", "id": req.ID}
	if ok {
		body["result"] = result
	} else {
		body["error"] = map[string]any{"code": -32601, "message": "method not found"}
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(body)
}
