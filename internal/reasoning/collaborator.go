// Package reasoning is the boundary to the language-model collaborator. The
// engine consumes it strictly request/response: every call carries a context,
// may fail independently of graph state, and never holds graph locks.
package reasoning

import (
	"context"
	"time"

	"github.com/stridehq/stride/internal/breakdown"
	"github.com/stridehq/stride/internal/goal"
)

// BreakdownRequest asks for a decomposition of one goal into a subgoal tree.
type BreakdownRequest struct {
	Goal  *goal.Goal
	Notes string // Optional user steering, verbatim
}

// RegenerationRequest asks for an alternative framing of a goal, given what
// already hangs beneath it.
type RegenerationRequest struct {
	Goal     *goal.Goal
	Subgoals []*goal.Goal
	Progress float64
}

// RegenerationProposal carries the replacement framing.
type RegenerationProposal struct {
	Title     string `json:"title"`
	Body      string `json:"body"`
	Rationale string `json:"rationale,omitempty"`
}

// ActivationPlanRequest asks for an ordered list of work sessions to put on
// the calendar when the goal activates. AllGoals is the full graph snapshot,
// passed through for conflict avoidance; the engine never inspects it.
type ActivationPlanRequest struct {
	Goal     *goal.Goal
	AllGoals []*goal.Goal
	From     time.Time // Scheduling window start
}

// Session is one proposed calendar block of an activation plan.
type Session struct {
	Title    string        `json:"title"`
	Notes    string        `json:"notes,omitempty"`
	Start    time.Time     `json:"start"`
	Duration time.Duration `json:"duration"`
}

// NextStepRequest asks for the roadmap step that follows the one just
// completed.
type NextStepRequest struct {
	Goal          *goal.Goal
	CompletedStep *goal.Goal
	PriorSteps    []*goal.Goal
}

// StepProposal is the proposed next roadmap step. Final marks the roadmap as
// ending with this step.
type StepProposal struct {
	Title    string `json:"title"`
	Guidance string `json:"guidance,omitempty"`
	Final    bool   `json:"final,omitempty"`
}

// LockRationaleRequest asks for a short reason to store on a lock snapshot.
type LockRationaleRequest struct {
	Goal *goal.Goal
}

// Collaborator is the full reasoning surface the engine consumes. Callers
// that need a single operation accept a narrower interface.
type Collaborator interface {
	RequestBreakdown(ctx context.Context, req BreakdownRequest) (*breakdown.Tree, error)
	RequestRegeneration(ctx context.Context, req RegenerationRequest) (*RegenerationProposal, error)
	RequestActivationPlan(ctx context.Context, req ActivationPlanRequest) ([]Session, error)
	RequestNextStep(ctx context.Context, req NextStepRequest) (*StepProposal, error)
	RequestLockRationale(ctx context.Context, req LockRationaleRequest) (string, error)
}
