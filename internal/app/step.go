package app

import (
	"context"
	"fmt"
	"strings"

	"github.com/stridehq/stride/internal/goal"
	"github.com/stridehq/stride/internal/reasoning"
	"github.com/stridehq/stride/internal/roadmap"
)

// StepResult is the response for sequential roadmap operations.
type StepResult struct {
	Success bool       `json:"success"`
	Message string     `json:"message,omitempty"`
	Hint    string     `json:"hint,omitempty"`
	Goal    *goal.Goal `json:"goal,omitempty"`

	// Completed is the step that just finished; Next the one created after it.
	Completed *goal.Goal `json:"completed,omitempty"`
	Next      *goal.Goal `json:"next,omitempty"`

	Advance *roadmap.AdvanceResult `json:"advance,omitempty"`
	Warning string                 `json:"warning,omitempty"`
}

// StepApp runs goals as sequential roadmaps: one current step at a time,
// the next step proposed on completion.
// CLI and MCP are both thin layers over this type.
type StepApp struct {
	ctx *Context
}

// NewStepApp creates a new step application service.
func NewStepApp(ctx *Context) *StepApp {
	return &StepApp{ctx: ctx}
}

// failStep maps a domain error to a Success=false result, or returns false
// for errors the caller should propagate.
func failStep(err error) (*StepResult, bool) {
	msg, hint, ok := domainFailure(err)
	if !ok {
		return nil, false
	}
	return &StepResult{Success: false, Message: msg, Hint: hint}, true
}

// Start seeds a sequential roadmap with its first collaborator-proposed step.
// On a goal that is already a roadmap but has lost its current step (a
// duplicate proposal completes the old step without creating a successor) it
// re-seeds instead, so a stuck roadmap can move again.
func (a *StepApp) Start(ctx context.Context, ref, notes string) (*StepResult, error) {
	gl, err := a.ctx.Resolve(ref)
	if err != nil {
		if res, ok := failStep(err); ok {
			return res, nil
		}
		return nil, err
	}

	if gl.Status == goal.StatusCompleted || gl.Status == goal.StatusArchived {
		return &StepResult{
			Success: false,
			Message: fmt.Sprintf("%q is %s; only draft or active goals run a roadmap.", gl.Title, gl.Status),
			Goal:    gl,
		}, nil
	}
	if gl.IsStep() {
		return &StepResult{
			Success: false,
			Message: fmt.Sprintf("%q is itself a roadmap step.", gl.Title),
			Hint:    "Advance its parent roadmap with 'stride step done'.",
			Goal:    gl,
		}, nil
	}

	steps := a.ctx.Graph.Children(gl.ID)
	reseed := false
	if gl.SequentialSteps {
		for _, s := range steps {
			if s.StepStatus == goal.StepCurrent {
				return &StepResult{
					Success: false,
					Message: fmt.Sprintf("%q already runs as a sequential roadmap.", gl.Title),
					Hint:    "Advance it with 'stride step done " + shortID(gl.ID) + "'.",
					Goal:    gl,
				}, nil
			}
		}
		if len(steps) >= roadmap.HardStepLimit {
			res, _ := failStep(&goal.StepLimitError{GoalID: gl.ID, Count: len(steps), Limit: roadmap.HardStepLimit})
			res.Goal = gl
			return res, nil
		}
		reseed = true
	} else if len(steps) > 0 {
		return &StepResult{
			Success: false,
			Message: fmt.Sprintf("%q already has subgoals; a roadmap replaces a breakdown, not the other way round.", gl.Title),
			Hint:    "Delete the subgoals first if you want step-by-step execution.",
			Goal:    gl,
		}, nil
	}

	seed := gl
	if notes = strings.TrimSpace(notes); notes != "" {
		// The proposer only sees goal content, so steering notes ride on a
		// copy's body for the one request.
		clone := *gl
		clone.Body = strings.TrimSpace(clone.Body + "\n\n" + notes)
		seed = &clone
	}
	proposal, err := a.ctx.Reasoner.RequestNextStep(ctx, reasoning.NextStepRequest{
		Goal:       seed,
		PriorSteps: steps,
	})
	if err != nil {
		if res, ok := failStep(err); ok {
			res.Goal = gl
			return res, nil
		}
		return nil, fmt.Errorf("seed roadmap: %w", err)
	}
	title := strings.TrimSpace(proposal.Title)
	if title == "" {
		return nil, fmt.Errorf("seed roadmap for goal %s: proposer returned an empty step title", gl.ID)
	}
	for _, s := range steps {
		if foldRef(s.Title) == foldRef(title) {
			res, _ := failStep(&goal.DuplicateStepError{GoalID: gl.ID, Title: title})
			res.Goal = gl
			res.Hint = "The collaborator proposed a step that already exists; add steering notes and retry."
			return res, nil
		}
	}

	first := goal.New(title, proposal.Guidance, gl.Category, gl.Kind)
	first.Priority = goal.PriorityNow
	first.StepStatus = goal.StepCurrent
	first.FinalStep = proposal.Final

	err = a.ctx.Graph.Batch(func(b *goal.Batch) error {
		if err := b.Update(gl.ID, func(w *goal.Goal) error {
			w.SequentialSteps = true
			return nil
		}); err != nil {
			return err
		}
		return b.Insert(first, gl.ID)
	})
	if err != nil {
		if res, ok := failStep(err); ok {
			res.Goal = gl
			return res, nil
		}
		return nil, fmt.Errorf("seed roadmap: %w", err)
	}
	if err := a.ctx.Save(); err != nil {
		return nil, err
	}

	updated, _ := a.ctx.Graph.Get(gl.ID)
	next, _ := a.ctx.Graph.Get(first.ID)
	msg := fmt.Sprintf("Started a roadmap for %q; first step: %q.", gl.Title, title)
	if reseed {
		msg = fmt.Sprintf("Re-seeded the roadmap for %q; next step: %q.", gl.Title, title)
	}
	return &StepResult{
		Success: true,
		Message: msg,
		Hint:    "Finish it with 'stride step done " + shortID(gl.ID) + "' when the work is done.",
		Goal:    updated,
		Next:    next,
	}, nil
}

// Advance completes the current step. Unless the step was final a new one is
// proposed and becomes current; a final step completes the whole roadmap.
func (a *StepApp) Advance(ctx context.Context, ref string) (*StepResult, error) {
	gl, err := a.ctx.Resolve(ref)
	if err != nil {
		if res, ok := failStep(err); ok {
			return res, nil
		}
		return nil, err
	}
	// Pointing at a step advances the roadmap it belongs to.
	if gl.IsStep() && gl.ParentID != "" {
		if parent, ok := a.ctx.Graph.Get(gl.ParentID); ok {
			gl = parent
		}
	}

	engine := roadmap.NewEngine(a.ctx.Graph, a.ctx.Reasoner)
	adv, err := engine.CompleteCurrentStep(ctx, gl.ID)
	if err != nil {
		if res, ok := failStep(err); ok {
			res.Goal = gl
			return res, nil
		}
		return nil, fmt.Errorf("advance roadmap: %w", err)
	}
	if err := a.ctx.Save(); err != nil {
		return nil, err
	}

	res := &StepResult{
		Success: true,
		Goal:    mustGet(a.ctx.Graph, gl.ID),
		Advance: adv,
		Warning: adv.Warning,
	}
	if adv.CompletedStepID != "" {
		res.Completed = mustGet(a.ctx.Graph, adv.CompletedStepID)
	}
	switch {
	case adv.RoadmapDone:
		res.Message = fmt.Sprintf("Roadmap finished; %q is complete.", gl.Title)
	case adv.StepCreated:
		res.Next = mustGet(a.ctx.Graph, adv.NewStepID)
		res.Message = fmt.Sprintf("Step done. Next up: %q.", res.Next.Title)
	default:
		res.Message = "Step done, but the proposed successor duplicated an existing step."
		res.Hint = "Re-seed the roadmap with 'stride step start " + shortID(gl.ID) + "'."
	}
	return res, nil
}

// mustGet returns the goal or nil, for results assembled right after a
// successful mutation.
func mustGet(g *goal.Graph, id string) *goal.Goal {
	gl, _ := g.Get(id)
	return gl
}
