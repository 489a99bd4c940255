package flowerr

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

var (
	ErrCycle              = errors.New("dependency cycle")
	ErrDanglingDependency = errors.New("dependency references an undeclared node")
	ErrDuplicateNode      = errors.New("duplicate node id")
	ErrUnknownNodeType    = errors.New("unknown node type")
	ErrInvalidDeclaration = errors.New("invalid node declaration")
	ErrNotFound           = errors.New("not found")
	ErrRegistryFrozen     = errors.New("registry is frozen")
	ErrApprovalsClosed    = errors.New("approval registry closed")
	ErrNoSigner           = errors.New("no signing channel attached to this execution")
)

// ValidationError reports node inputs that failed validation. It is never
// retried.
type ValidationError struct {
	NodeID   string
	Type     string
	Problems []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed for node %q (%s): %s", e.NodeID, e.Type, strings.Join(e.Problems, "; "))
}

// ExecutionError wraps a failure raised inside a node's Execute.
type ExecutionError struct {
	ExecutionID string
	NodeID      string
	Type        string
	Err         error
}

func (e *ExecutionError) Error() string {
	return fmt.Sprintf("node %q (%s) failed in execution %s: %v", e.NodeID, e.Type, e.ExecutionID, e.Err)
}

func (e *ExecutionError) Unwrap() error { return e.Err }

// ChainError is a failure attributable to an external chain or RPC
// provider. Transient marks failures that a bounded retry may clear.
type ChainError struct {
	ChainID     int64
	TxHash      string
	BlockNumber uint64
	Transient   bool
	Err         error
}

func (e *ChainError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "chain %d", e.ChainID)
	if e.TxHash != "" {
		fmt.Fprintf(&b, " tx %s", e.TxHash)
	}
	if e.BlockNumber > 0 {
		fmt.Fprintf(&b, " block %d", e.BlockNumber)
	}
	fmt.Fprintf(&b, ": %v", e.Err)
	return b.String()
}

func (e *ChainError) Unwrap() error { return e.Err }

// IsTransient reports whether err carries a ChainError marked transient.
func IsTransient(err error) bool {
	var chainErr *ChainError
	return errors.As(err, &chainErr) && chainErr.Transient
}

// ApprovalTimeoutError is returned when no signature arrives before the
// rendezvous deadline. It is terminal for the node.
type ApprovalTimeoutError struct {
	ExecutionID string
	NodeID      string
	Timeout     time.Duration
}

func (e *ApprovalTimeoutError) Error() string {
	return fmt.Sprintf("signing timeout after %s for node %q in execution %s", e.Timeout, e.NodeID, e.ExecutionID)
}

// SigningError carries the reason reported by the external signer.
type SigningError struct {
	ExecutionID string
	NodeID      string
	Reason      string
}

func (e *SigningError) Error() string {
	return fmt.Sprintf("signing failed for node %q in execution %s: %s", e.NodeID, e.ExecutionID, e.Reason)
}

// WorkflowError is a structural rejection of a whole workflow. Each problem
// wraps one of the sentinel errors so callers can test with errors.Is.
type WorkflowError struct {
	WorkflowID string
	Problems   []error
}

func (e *WorkflowError) Error() string {
	msgs := make([]string, len(e.Problems))
	for i, p := range e.Problems {
		msgs[i] = p.Error()
	}
	return fmt.Sprintf("workflow %q rejected: %s", e.WorkflowID, strings.Join(msgs, "; "))
}

func (e *WorkflowError) Unwrap() []error { return e.Problems }
