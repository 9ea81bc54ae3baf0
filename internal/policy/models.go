// Package policy evaluates workspace guardrails written in Rego before an
// operation commits. Activation and cascade deletion consult the engine: a
// deny blocks the operation, a warn is surfaced to the caller but does not
// block. Evaluation is entirely in-process.
package policy

import (
	"encoding/json"
	"time"

	"github.com/stridehq/stride/internal/goal"
)

// Decision is the recorded outcome of one policy evaluation.
type Decision struct {
	DecisionID  string    `json:"decisionId"`           // UUID for referencing
	PolicyPath  string    `json:"policyPath"`           // Rego package path (e.g. "stride.policy")
	Result      string    `json:"result"`               // "allow" or "deny"
	Violations  []string  `json:"violations,omitempty"` // Deny messages
	Warnings    []string  `json:"warnings,omitempty"`   // Warn messages; never block
	Input       any       `json:"input"`                // The input that was evaluated
	GoalID      string    `json:"goalId,omitempty"`     // Goal the operation was about
	EvaluatedAt time.Time `json:"evaluatedAt"`
}

// Result constants.
const (
	ResultAllow = "allow"
	ResultDeny  = "deny"
)

// Actions named in policy input documents.
const (
	ActionActivate = "activate"
	ActionDelete   = "delete"
)

// IsAllowed returns true if the decision was "allow".
func (d *Decision) IsAllowed() bool {
	return d.Result == ResultAllow
}

// IsDenied returns true if the decision was "deny".
func (d *Decision) IsDenied() bool {
	return d.Result == ResultDeny
}

// InputJSON returns the evaluated input as a JSON string for logging.
func (d *Decision) InputJSON() string {
	if d.Input == nil {
		return "{}"
	}
	b, err := json.Marshal(d.Input)
	if err != nil {
		return "{}"
	}
	return string(b)
}

// Input is the document Rego policies receive as `input`.
type Input struct {
	Action string      `json:"action"`          // "activate" or "delete"
	Goal   *GoalInput  `json:"goal,omitempty"`  // The goal the operation targets
	Graph  *GraphInput `json:"graph,omitempty"` // Workspace-level context
}

// GoalInput is the policy-facing view of one goal.
type GoalInput struct {
	ID       string  `json:"id"`
	Title    string  `json:"title"`
	Kind     string  `json:"kind"`
	Status   string  `json:"status"`
	Priority string  `json:"priority"`
	Locked   bool    `json:"locked"`
	Progress float64 `json:"progress"`
	Step     bool    `json:"step"`
}

// GraphInput carries the workspace counts and collections policies gate on.
type GraphInput struct {
	ActiveCount int         `json:"active_count"`
	Descendants []GoalInput `json:"descendants,omitempty"`
}

// GoalDocument converts a goal into its policy-facing form.
func GoalDocument(g *goal.Goal) *GoalInput {
	if g == nil {
		return nil
	}
	return &GoalInput{
		ID:       g.ID,
		Title:    g.Title,
		Kind:     string(g.Kind),
		Status:   string(g.Status),
		Priority: string(g.Priority),
		Locked:   g.Locked,
		Progress: g.Progress,
		Step:     g.IsStep(),
	}
}
