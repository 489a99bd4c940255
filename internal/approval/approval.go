// Package approval implements the rendezvous that suspends a node until an
// external signer returns a signed artifact, reports an error, or a deadline
// passes.
//
// Exactly one outcome wins. The listener callbacks only ever do a
// non-blocking send into a buffered channel of size one, and both listeners
// are removed by a deferred call on every exit path, so an event arriving
// after the winner is inert.
package approval

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/specialistvlad/defigrid/internal/ctxlog"
	"github.com/specialistvlad/defigrid/internal/flowerr"
	"github.com/specialistvlad/defigrid/internal/signing"
)

// Pending describes a node waiting for a signature.
type Pending struct {
	ExecutionID     string    `json:"execution_id"`
	NodeID          string    `json:"node_id"`
	UnsignedPayload any       `json:"unsigned_payload"`
	CreatedAt       time.Time `json:"created_at"`
	Deadline        time.Time `json:"deadline"`
}

// Registry tracks the pending approvals of one execution and owns their
// lifetime. Close releases every wait still in progress.
type Registry struct {
	channel     signing.Channel
	executionID string
	now         func() time.Time

	mu      sync.Mutex
	pending map[string]Pending
	closed  bool
	done    chan struct{}
}

// New creates a registry for executionID that talks over ch.
func New(ch signing.Channel, executionID string) *Registry {
	return &Registry{
		channel:     ch,
		executionID: executionID,
		now:         time.Now,
		pending:     make(map[string]Pending),
		done:        make(chan struct{}),
	}
}

// Await emits payload for nodeID and blocks until the signed artifact
// arrives. It fails with *flowerr.ApprovalTimeoutError when timeout elapses,
// *flowerr.SigningError when the signer reports an error, the context error
// when ctx ends, and flowerr.ErrApprovalsClosed when the registry closes.
func (r *Registry) Await(ctx context.Context, nodeID string, payload any, timeout time.Duration) (any, error) {
	if r.channel == nil {
		return nil, flowerr.ErrNoSigner
	}
	logger := ctxlog.FromContext(ctx)

	created := r.now()
	rec := Pending{
		ExecutionID:     r.executionID,
		NodeID:          nodeID,
		UnsignedPayload: payload,
		CreatedAt:       created,
		Deadline:        created.Add(timeout),
	}
	if err := r.add(rec); err != nil {
		return nil, err
	}
	defer r.remove(nodeID)

	signedCh := make(chan any, 1)
	errCh := make(chan string, 1)

	offSigned := r.channel.On(signing.SignedEvent(r.executionID, nodeID), func(p any) {
		select {
		case signedCh <- p:
		default:
		}
	})
	defer offSigned()
	offErr := r.channel.On(signing.ErrorEvent(r.executionID, nodeID), func(p any) {
		select {
		case errCh <- reason(p):
		default:
		}
	})
	defer offErr()

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	req := signing.Request{
		ExecutionID: r.executionID,
		NodeID:      nodeID,
		Payload:     payload,
		Deadline:    rec.Deadline.UTC().Format(time.RFC3339Nano),
	}
	if err := r.channel.Emit(signing.RequestEvent, req); err != nil {
		return nil, fmt.Errorf("emitting sign request: %w", err)
	}
	logger.Info("Waiting for external signature.", "node_id", nodeID, "timeout", timeout)

	select {
	case signed := <-signedCh:
		logger.Info("Signature received.", "node_id", nodeID)
		return signed, nil
	case msg := <-errCh:
		logger.Warn("Signer reported an error.", "node_id", nodeID, "reason", msg)
		return nil, &flowerr.SigningError{ExecutionID: r.executionID, NodeID: nodeID, Reason: msg}
	case <-timer.C:
		logger.Warn("Signing deadline passed.", "node_id", nodeID)
		return nil, &flowerr.ApprovalTimeoutError{ExecutionID: r.executionID, NodeID: nodeID, Timeout: timeout}
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-r.done:
		return nil, flowerr.ErrApprovalsClosed
	}
}

func (r *Registry) add(rec Pending) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return flowerr.ErrApprovalsClosed
	}
	if _, exists := r.pending[rec.NodeID]; exists {
		return fmt.Errorf("node %q already has a pending approval", rec.NodeID)
	}
	r.pending[rec.NodeID] = rec
	return nil
}

func (r *Registry) remove(nodeID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.pending, nodeID)
}

// Get returns the pending approval of nodeID.
func (r *Registry) Get(nodeID string) (Pending, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.pending[nodeID]
	return p, ok
}

// List returns every pending approval ordered by node id.
func (r *Registry) List() []Pending {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]Pending, 0, len(r.pending))
	for _, p := range r.pending {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].NodeID < out[j].NodeID })
	return out
}

// Close releases every in-flight Await and rejects new ones. It is safe to
// call more than once.
func (r *Registry) Close() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.closed {
		r.closed = true
		close(r.done)
	}
}

func reason(p any) string {
	switch v := p.(type) {
	case nil:
		return "signer reported an error"
	case string:
		return v
	case error:
		return v.Error()
	case map[string]any:
		if msg, ok := v["reason"].(string); ok {
			return msg
		}
		if msg, ok := v["error"].(string); ok {
			return msg
		}
	}
	return fmt.Sprint(p)
}
