package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/specialistvlad/defigrid/internal/ctxlog"
	"github.com/specialistvlad/defigrid/internal/graph"
	"github.com/specialistvlad/defigrid/internal/node"
)

// ErrStalled is returned when Pending nodes remain but none can run. It
// indicates a graph that escaped build-time validation.
var ErrStalled = errors.New("scheduler stalled with pending nodes")

// Skip records a node that will never run.
type Skip struct {
	NodeID string
	// Cause is the dependency that did not succeed.
	Cause string
}

// Round is the outcome of one scheduling pass.
type Round struct {
	Ready   []*node.Node
	Skipped []Skip
}

// Done reports whether the round has nothing left to dispatch.
func (r Round) Done() bool {
	return len(r.Ready) == 0
}

// Scheduler computes rounds over a graph.
type Scheduler struct {
	g graph.Graph
}

// New creates a scheduler over g.
func New(g graph.Graph) *Scheduler {
	return &Scheduler{g: g}
}

// NextRound propagates failures to Pending descendants and returns the
// nodes ready to dispatch, ordered by id. A round with no Ready nodes means
// the run is over.
func (s *Scheduler) NextRound(ctx context.Context) (Round, error) {
	logger := ctxlog.FromContext(ctx)
	var round Round

	// Skips cascade, so repeat until a pass changes nothing.
	for changed := true; changed; {
		changed = false
		for _, n := range s.g.AllNodes(ctx) {
			if status, _ := s.g.NodeStatus(ctx, n.ID); status != node.StatusPending {
				continue
			}
			cause, err := s.blockedBy(ctx, n.ID)
			if err != nil {
				return Round{}, err
			}
			if cause == "" {
				continue
			}
			skipErr := fmt.Errorf("dependency %s did not succeed", cause)
			if err := s.g.MarkSkipped(ctx, n.ID, skipErr); err != nil {
				return Round{}, err
			}
			logger.Warn("Node skipped.", "node_id", n.ID, "cause", cause)
			round.Skipped = append(round.Skipped, Skip{NodeID: n.ID, Cause: cause})
			changed = true
		}
	}

	pending := 0
	for _, n := range s.g.AllNodes(ctx) {
		if status, _ := s.g.NodeStatus(ctx, n.ID); status != node.StatusPending {
			continue
		}
		pending++
		ready, err := s.isReady(ctx, n.ID)
		if err != nil {
			return Round{}, err
		}
		if ready {
			round.Ready = append(round.Ready, n)
		}
	}
	sort.Slice(round.Ready, func(i, j int) bool { return round.Ready[i].ID < round.Ready[j].ID })

	if pending > 0 && len(round.Ready) == 0 {
		return Round{}, fmt.Errorf("%d node(s) pending: %w", pending, ErrStalled)
	}
	logger.Debug("Round scheduled.", "ready", len(round.Ready), "skipped", len(round.Skipped))
	return round, nil
}

// blockedBy returns the first dependency of id in a terminal state other
// than Succeeded, or "".
func (s *Scheduler) blockedBy(ctx context.Context, id string) (string, error) {
	deps, err := s.g.DependenciesOf(ctx, id)
	if err != nil {
		return "", err
	}
	for _, d := range deps {
		status, _ := s.g.NodeStatus(ctx, d.ID)
		if status.IsTerminal() && status != node.StatusSucceeded {
			return d.ID, nil
		}
	}
	return "", nil
}

func (s *Scheduler) isReady(ctx context.Context, id string) (bool, error) {
	deps, err := s.g.DependenciesOf(ctx, id)
	if err != nil {
		return false, err
	}
	for _, d := range deps {
		if status, _ := s.g.NodeStatus(ctx, d.ID); status != node.StatusSucceeded {
			return false, nil
		}
	}
	return true, nil
}
