// Package execctx carries the per-run state a node executor may read:
// identifiers, variables, secrets and the signing channel.
package execctx

import (
	"context"
	"time"

	"github.com/specialistvlad/defigrid/internal/approval"
	"github.com/specialistvlad/defigrid/internal/flowerr"
	"github.com/specialistvlad/defigrid/internal/signing"
)

// Context is created once per run. Executors receive a per-node view of it
// from ForNode and must treat it as read only.
type Context struct {
	ExecutionID string
	WorkflowID  string
	NodeID      string
	StartTime   time.Time
	Variables   map[string]any
	Secrets     map[string]string
	Signer      signing.Channel

	approvals *approval.Registry
}

// New creates the run-level context. When signer is non-nil an approval
// registry is attached so nodes can wait for external signatures.
func New(executionID, workflowID string, vars map[string]any, secrets map[string]string, signer signing.Channel) *Context {
	c := &Context{
		ExecutionID: executionID,
		WorkflowID:  workflowID,
		StartTime:   time.Now(),
		Variables:   vars,
		Secrets:     secrets,
		Signer:      signer,
	}
	if signer != nil {
		c.approvals = approval.New(signer, executionID)
	}
	return c
}

// ForNode returns a shallow copy scoped to node id. The maps and the
// approval registry are shared with the run.
func (c *Context) ForNode(id string) *Context {
	cp := *c
	cp.NodeID = id
	return &cp
}

// Elapsed is the time since the run started.
func (c *Context) Elapsed() time.Duration {
	return time.Since(c.StartTime)
}

// Secret returns a named secret and whether it was provided.
func (c *Context) Secret(name string) (string, bool) {
	v, ok := c.Secrets[name]
	return v, ok
}

// Approvals exposes the run's approval registry, nil when the run has no
// signer.
func (c *Context) Approvals() *approval.Registry {
	return c.approvals
}

// AwaitApproval hands payload to the external signer on behalf of the
// current node and blocks until it is signed, refused, or timeout passes.
func (c *Context) AwaitApproval(ctx context.Context, payload any, timeout time.Duration) (any, error) {
	if c.approvals == nil {
		return nil, flowerr.ErrNoSigner
	}
	return c.approvals.Await(ctx, c.NodeID, payload, timeout)
}

// Close releases every approval still pending for the run.
func (c *Context) Close() {
	if c.approvals != nil {
		c.approvals.Close()
	}
}
