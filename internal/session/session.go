// Package session defines the core interfaces for creating and managing an
// execution session. It abstracts away the details of local vs. remote execution.
package session

import (
	"context"
	"time"

	"github.com/specialistvlad/defigrid/internal/execctx"
	"github.com/specialistvlad/defigrid/internal/executor"
	"github.com/specialistvlad/defigrid/internal/model"
	"github.com/specialistvlad/defigrid/internal/result"
	"github.com/specialistvlad/defigrid/internal/signing"
)

// Options describe one run.
type Options struct {
	ExecutionID string
	// Variables override the workflow's own variables key by key.
	Variables map[string]any
	Secrets   map[string]string
	// Signer is the channel nodes use to request signatures. Nil disables
	// signing for the run.
	Signer      signing.Channel
	Workers     int
	NodeTimeout time.Duration
}

// Factory creates an execution Session. Different implementations can
// support various backends, such as local or distributed execution.
type Factory interface {
	NewSession(ctx context.Context, def *model.WorkflowDefinition, opts Options) (Session, error)
}

// Session represents a single execution run and manages its lifecycle.
type Session interface {
	Executor() executor.Executor
	// Context is the run-level execution context.
	Context() *execctx.Context
	// Result renders the run's results so far.
	Result() *result.Workflow
	// Close releases any resources held by the session. It accepts a context
	// to allow for graceful cleanup operations.
	Close(ctx context.Context) error
}
