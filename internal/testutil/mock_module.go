package testutil

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/specialistvlad/defigrid/internal/execctx"
	"github.com/specialistvlad/defigrid/internal/handlers"
	"github.com/specialistvlad/defigrid/internal/nodetype"
	"github.com/specialistvlad/defigrid/internal/registry"
	"github.com/specialistvlad/defigrid/internal/result"
)

// ExecutionRecord holds the start and end times for a single node's execution.
type ExecutionRecord struct {
	Start time.Time
	End   time.Time
}

// MockModule registers a scripted executor for a set of node types. Both
// variants share the script. Every Execute is recorded with its inputs and
// timing, so tests can assert on ordering, concurrency and wiring.
type MockModule struct {
	Types []nodetype.Type
	Sleep time.Duration
	// FailOn makes Execute return an error for these node ids.
	FailOn map[string]bool
	// RejectOn makes Validate report a problem for these node ids. The id
	// is read from the "id" input.
	RejectOn map[string]bool
	// Outputs overrides the outputs of a node id. By default a node outputs
	// {"producer": <id>}.
	Outputs map[string]map[string]any
	// Completed, when set, receives the node id after each Execute.
	Completed chan<- string

	mu         sync.Mutex
	executions map[string]*ExecutionRecord
	inputs     map[string]handlers.Inputs
	order      []string
	validated  []string
}

// Register registers the mock handler for every configured type.
func (m *MockModule) Register(r *registry.Registry) {
	for _, t := range m.Types {
		v := &mockVariant{m: m}
		r.Register(&handlers.Handler{Type: t, Template: v, Live: v})
	}
}

// Executions returns a copy of the timing records keyed by node id.
func (m *MockModule) Executions() map[string]ExecutionRecord {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make(map[string]ExecutionRecord, len(m.executions))
	for id, rec := range m.executions {
		out[id] = *rec
	}
	return out
}

// Inputs returns the inputs a node was executed with.
func (m *MockModule) Inputs(id string) (handlers.Inputs, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	in, ok := m.inputs[id]
	return in, ok
}

// Order returns node ids in the order their Execute finished.
func (m *MockModule) Order() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.order...)
}

// Validated returns node ids in the order Validate was called.
func (m *MockModule) Validated() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.validated...)
}

type mockVariant struct {
	m *MockModule
}

func (v *mockVariant) Validate(in handlers.Inputs) handlers.Validation {
	id, _ := in.String("id")
	v.m.mu.Lock()
	v.m.validated = append(v.m.validated, id)
	v.m.mu.Unlock()

	var c handlers.Check
	if v.m.RejectOn[id] {
		c.Failf("%s rejected by mock", id)
	}
	return c.Result()
}

func (v *mockVariant) Execute(ctx context.Context, in handlers.Inputs, ec *execctx.Context, log *result.Log) (map[string]any, error) {
	start := time.Now()
	if v.m.Sleep > 0 {
		select {
		case <-time.After(v.m.Sleep):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	end := time.Now()

	v.m.mu.Lock()
	if v.m.executions == nil {
		v.m.executions = make(map[string]*ExecutionRecord)
		v.m.inputs = make(map[string]handlers.Inputs)
	}
	v.m.executions[ec.NodeID] = &ExecutionRecord{Start: start, End: end}
	v.m.inputs[ec.NodeID] = in
	v.m.order = append(v.m.order, ec.NodeID)
	v.m.mu.Unlock()

	if v.m.Completed != nil {
		v.m.Completed <- ec.NodeID
	}
	log.Addf("mock executed %s", ec.NodeID)

	if v.m.FailOn[ec.NodeID] {
		return nil, errors.New("mock failure")
	}
	if out, ok := v.m.Outputs[ec.NodeID]; ok {
		return out, nil
	}
	return map[string]any{"producer": ec.NodeID}, nil
}

func (v *mockVariant) EstimateCost(handlers.Inputs) string { return "0" }
