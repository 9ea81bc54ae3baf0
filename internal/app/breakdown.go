package app

import (
	"context"
	"fmt"

	"github.com/stridehq/stride/internal/breakdown"
	"github.com/stridehq/stride/internal/goal"
	"github.com/stridehq/stride/internal/reasoning"
)

// BreakdownResult is the response for breakdown operations.
type BreakdownResult struct {
	Success bool       `json:"success"`
	Message string     `json:"message,omitempty"`
	Hint    string     `json:"hint,omitempty"`
	Goal    *goal.Goal `json:"goal,omitempty"`

	// Tree is the pending proposal from Propose, for preview and confirm.
	Tree *breakdown.Tree `json:"tree,omitempty"`

	// Applied reports what a confirmed breakdown materialized.
	Applied  *breakdown.Result `json:"applied,omitempty"`
	Subgoals []*goal.Goal      `json:"subgoals,omitempty"`
}

// BreakdownOptions configures a breakdown proposal.
type BreakdownOptions struct {
	Ref   string // Required: goal to decompose
	Notes string // Optional steering passed to the collaborator verbatim
}

// BreakdownApp decomposes goals into subgoal trees with collaborator help.
// CLI and MCP are both thin layers over this type.
type BreakdownApp struct {
	ctx *Context
}

// NewBreakdownApp creates a new breakdown application service.
func NewBreakdownApp(ctx *Context) *BreakdownApp {
	return &BreakdownApp{ctx: ctx}
}

// failBreakdown maps a domain error to a Success=false result, or returns
// false for errors the caller should propagate.
func failBreakdown(err error) (*BreakdownResult, bool) {
	msg, hint, ok := domainFailure(err)
	if !ok {
		return nil, false
	}
	return &BreakdownResult{Success: false, Message: msg, Hint: hint}, true
}

// breakdownTarget resolves the ref and rejects goals that cannot take a
// breakdown. The check runs before the collaborator call so a doomed request
// never pays for one.
func (a *BreakdownApp) breakdownTarget(ref string) (*goal.Goal, *BreakdownResult, error) {
	gl, err := a.ctx.Resolve(ref)
	if err != nil {
		if res, ok := failBreakdown(err); ok {
			return nil, res, nil
		}
		return nil, nil, err
	}
	if gl.SequentialSteps {
		return nil, &BreakdownResult{
			Success: false,
			Message: fmt.Sprintf("%q runs as a sequential roadmap; its steps are managed one at a time.", gl.Title),
			Hint:    "Advance the roadmap with 'stride step done " + shortID(gl.ID) + "'.",
			Goal:    gl,
		}, nil
	}
	if gl.BrokenDown || len(a.ctx.Graph.Children(gl.ID)) > 0 {
		res, _ := failBreakdown(goal.ErrAlreadyBrokenDown)
		res.Goal = gl
		return nil, res, nil
	}
	return gl, nil, nil
}

// Propose asks the collaborator for a decomposition of the goal without
// touching the graph. The caller previews the tree and applies it separately.
func (a *BreakdownApp) Propose(ctx context.Context, opts BreakdownOptions) (*BreakdownResult, error) {
	gl, res, err := a.breakdownTarget(opts.Ref)
	if err != nil || res != nil {
		return res, err
	}

	tree, err := a.ctx.Reasoner.RequestBreakdown(ctx, reasoning.BreakdownRequest{
		Goal:  gl,
		Notes: opts.Notes,
	})
	if err != nil {
		if res, ok := failBreakdown(err); ok {
			res.Goal = gl
			return res, nil
		}
		return nil, fmt.Errorf("request breakdown: %w", err)
	}

	return &BreakdownResult{
		Success: true,
		Message: fmt.Sprintf("Proposed %d subgoal(s) for %q.", len(tree.Nodes), gl.Title),
		Goal:    gl,
		Tree:    tree,
	}, nil
}

// Apply materializes a previously proposed tree under the goal and persists
// the result. New subgoals are indexed for similarity search best-effort.
func (a *BreakdownApp) Apply(ctx context.Context, ref string, tree *breakdown.Tree) (*BreakdownResult, error) {
	gl, res, err := a.breakdownTarget(ref)
	if err != nil || res != nil {
		return res, err
	}

	applied, err := breakdown.NewBuilder(a.ctx.Graph).Apply(gl.ID, tree)
	if err != nil {
		if res, ok := failBreakdown(err); ok {
			res.Goal = gl
			return res, nil
		}
		return nil, fmt.Errorf("apply breakdown: %w", err)
	}
	if err := a.ctx.Save(); err != nil {
		return nil, err
	}

	created := make([]*goal.Goal, 0, len(applied.AssignedIdentifiers))
	for _, id := range applied.AssignedIdentifiers {
		if g, ok := a.ctx.Graph.Get(id); ok {
			created = append(created, g)
		}
	}
	a.ctx.saveEmbeddings(ctx, created...)

	updated, _ := a.ctx.Graph.Get(gl.ID)
	return &BreakdownResult{
		Success: true,
		Message: fmt.Sprintf("Created %d subgoal(s) and %d dependency edge(s) under %q.",
			applied.CreatedGoals, applied.DependencyCount, gl.Title),
		Hint:     "Review the tree with 'stride show " + shortID(gl.ID) + "'.",
		Goal:     updated,
		Applied:  applied,
		Subgoals: a.ctx.Graph.Children(gl.ID),
	}, nil
}

// Run proposes and applies in one call, for non-interactive surfaces.
func (a *BreakdownApp) Run(ctx context.Context, opts BreakdownOptions) (*BreakdownResult, error) {
	proposed, err := a.Propose(ctx, opts)
	if err != nil || !proposed.Success {
		return proposed, err
	}
	return a.Apply(ctx, proposed.Goal.ID, proposed.Tree)
}
