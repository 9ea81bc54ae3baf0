package app

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/stridehq/stride/internal/goal"
	"github.com/stridehq/stride/internal/lifecycle"
	"github.com/stridehq/stride/internal/reasoning"
)

// LifecycleResult is the canonical response for lifecycle transitions.
type LifecycleResult struct {
	Success bool       `json:"success"`
	Message string     `json:"message,omitempty"`
	Hint    string     `json:"hint,omitempty"`
	Goal    *goal.Goal `json:"goal,omitempty"`

	// Lock fields
	Snapshot *goal.Snapshot `json:"snapshot,omitempty"`

	// Activation fields
	Sessions         []reasoning.Session `json:"sessions,omitempty"`
	PartialConfirmed []goal.EventLink    `json:"partial_confirmed,omitempty"`
	FailedSession    string              `json:"failed_session,omitempty"`

	// Policy enforcement fields
	PolicyViolation bool     `json:"policy_violation,omitempty"`
	PolicyErrors    []string `json:"policy_errors,omitempty"`
	PolicyWarnings  []string `json:"policy_warnings,omitempty"`
}

// ActivateOptions configures activation.
type ActivateOptions struct {
	Ref string // Required: draft goal to activate

	// Plan is a previously generated session list to confirm. Nil asks the
	// collaborator for a fresh plan first.
	Plan []reasoning.Session
}

// DeactivateOptions configures deactivation.
type DeactivateOptions struct {
	Ref       string // Required
	To        string // draft or archived (default: draft)
	Rationale string // Optional audit note
}

// LifecycleApp drives goal state transitions.
// CLI and MCP are both thin layers over this type.
type LifecycleApp struct {
	ctx *Context
}

// NewLifecycleApp creates a new lifecycle application service.
func NewLifecycleApp(ctx *Context) *LifecycleApp {
	return &LifecycleApp{ctx: ctx}
}

// failLifecycle maps a domain error to a Success=false result, or returns
// false for errors the caller should propagate.
func failLifecycle(err error) (*LifecycleResult, bool) {
	msg, hint, ok := domainFailure(err)
	if !ok {
		return nil, false
	}
	return &LifecycleResult{Success: false, Message: msg, Hint: hint}, true
}

// engineFor builds a lifecycle engine whose calendar journals under the given
// goal.
func (a *LifecycleApp) engineFor(goalID string) *lifecycle.Engine {
	return lifecycle.NewEngine(a.ctx.Graph, a.ctx.Reasoner, a.ctx.goalCalendar(goalID))
}

// activationDenied evaluates the activation guardrail. A deny comes back as a
// ready-to-return result; warnings ride along for the caller to attach.
func (a *LifecycleApp) activationDenied(ctx context.Context, gl *goal.Goal) (*LifecycleResult, []string, error) {
	if a.ctx.Policy == nil {
		return nil, nil, nil
	}
	decision, err := a.ctx.Policy.EvaluateActivation(ctx, gl, a.ctx.ActiveCount())
	if err != nil {
		return nil, nil, fmt.Errorf("evaluate activation policy: %w", err)
	}
	if decision.IsDenied() {
		return &LifecycleResult{
			Success:         false,
			Message:         fmt.Sprintf("Policy blocked activating %q.", gl.Title),
			Goal:            gl,
			PolicyViolation: true,
			PolicyErrors:    decision.Violations,
			PolicyWarnings:  decision.Warnings,
		}, nil, nil
	}
	return nil, decision.Warnings, nil
}

// notActivatable reports a non-draft or locked goal as a user-facing failure
// before any collaborator or policy work happens.
func notActivatable(gl *goal.Goal) *LifecycleResult {
	switch {
	case gl.Locked:
		msg, hint, _ := domainFailure(&goal.LockedError{ID: gl.ID, Op: "activation"})
		return &LifecycleResult{Success: false, Message: msg, Hint: hint, Goal: gl}
	case gl.Status != goal.StatusDraft:
		return &LifecycleResult{
			Success: false,
			Message: fmt.Sprintf("%q is %s; only draft goals activate.", gl.Title, gl.Status),
			Goal:    gl,
		}
	}
	return nil
}

// Plan generates the proposed calendar sessions for activating a draft goal
// without committing anything. The activation guardrail runs first so a
// doomed activation never pays for a collaborator call.
func (a *LifecycleApp) Plan(ctx context.Context, ref string) (*LifecycleResult, error) {
	gl, err := a.ctx.Resolve(ref)
	if err != nil {
		if res, ok := failLifecycle(err); ok {
			return res, nil
		}
		return nil, err
	}
	if res := notActivatable(gl); res != nil {
		return res, nil
	}

	denied, warnings, err := a.activationDenied(ctx, gl)
	if err != nil || denied != nil {
		return denied, err
	}

	sessions, err := a.engineFor(gl.ID).GeneratePlan(ctx, gl.ID)
	if err != nil {
		if res, ok := failLifecycle(err); ok {
			res.Goal = gl
			return res, nil
		}
		return nil, err
	}

	return &LifecycleResult{
		Success:        true,
		Message:        fmt.Sprintf("Proposed %d session(s) for %q.", len(sessions), gl.Title),
		Goal:           gl,
		Sessions:       sessions,
		PolicyWarnings: warnings,
	}, nil
}

// Activate confirms an activation plan: one calendar event per session, then
// the goal goes active. With a nil plan a fresh one is generated first. A
// mid-plan calendar failure leaves the goal draft and reports which sessions
// already landed.
func (a *LifecycleApp) Activate(ctx context.Context, opts ActivateOptions) (*LifecycleResult, error) {
	gl, err := a.ctx.Resolve(opts.Ref)
	if err != nil {
		if res, ok := failLifecycle(err); ok {
			return res, nil
		}
		return nil, err
	}
	if res := notActivatable(gl); res != nil {
		return res, nil
	}

	denied, warnings, err := a.activationDenied(ctx, gl)
	if err != nil || denied != nil {
		return denied, err
	}

	engine := a.engineFor(gl.ID)
	plan := opts.Plan
	if len(plan) == 0 {
		plan, err = engine.GeneratePlan(ctx, gl.ID)
		if err != nil {
			if res, ok := failLifecycle(err); ok {
				res.Goal = gl
				return res, nil
			}
			return nil, err
		}
	}

	if err := engine.ConfirmActivation(ctx, gl.ID, plan); err != nil {
		var partial *goal.PartialActivationError
		if errors.As(err, &partial) {
			if serr := a.ctx.Save(); serr != nil {
				return nil, serr
			}
			return &LifecycleResult{
				Success: false,
				Message: fmt.Sprintf("Scheduled %d of %d session(s), then the calendar failed at %q.",
					len(partial.Confirmed), len(plan), partial.FailedAt),
				Hint:             "The goal stays draft; confirmed sessions remain scheduled. Retry once the calendar recovers.",
				Goal:             gl,
				Sessions:         plan,
				PartialConfirmed: partial.Confirmed,
				FailedSession:    partial.FailedAt,
				PolicyWarnings:   warnings,
			}, nil
		}
		if res, ok := failLifecycle(err); ok {
			res.Goal = gl
			return res, nil
		}
		return nil, fmt.Errorf("confirm activation: %w", err)
	}
	if err := a.ctx.Save(); err != nil {
		return nil, err
	}

	updated, _ := a.ctx.Graph.Get(gl.ID)
	return &LifecycleResult{
		Success:        true,
		Message:        fmt.Sprintf("Activated %q with %d scheduled session(s).", gl.Title, len(plan)),
		Goal:           updated,
		Sessions:       plan,
		PolicyWarnings: warnings,
	}, nil
}

// Deactivate returns a goal to draft or archives it, cancelling any calendar
// events still awaiting confirmation.
func (a *LifecycleApp) Deactivate(ctx context.Context, opts DeactivateOptions) (*LifecycleResult, error) {
	to := goal.StatusDraft
	switch strings.ToLower(strings.TrimSpace(opts.To)) {
	case "", "draft":
	case "archived", "archive":
		to = goal.StatusArchived
	default:
		return &LifecycleResult{
			Success: false,
			Message: fmt.Sprintf("cannot deactivate to %q (use draft or archived)", opts.To),
		}, nil
	}

	gl, err := a.ctx.Resolve(opts.Ref)
	if err != nil {
		if res, ok := failLifecycle(err); ok {
			return res, nil
		}
		return nil, err
	}

	if err := a.engineFor(gl.ID).Deactivate(ctx, gl.ID, to, opts.Rationale); err != nil {
		if res, ok := failLifecycle(err); ok {
			res.Goal = gl
			return res, nil
		}
		return nil, fmt.Errorf("deactivate goal: %w", err)
	}
	if err := a.ctx.Save(); err != nil {
		return nil, err
	}

	updated, _ := a.ctx.Graph.Get(gl.ID)
	return &LifecycleResult{
		Success: true,
		Message: fmt.Sprintf("Moved %q to %s.", gl.Title, to),
		Goal:    updated,
	}, nil
}

// Complete marks a goal finished at full progress.
func (a *LifecycleApp) Complete(ctx context.Context, ref string) (*LifecycleResult, error) {
	gl, err := a.ctx.Resolve(ref)
	if err != nil {
		if res, ok := failLifecycle(err); ok {
			return res, nil
		}
		return nil, err
	}

	if err := a.engineFor(gl.ID).Complete(ctx, gl.ID); err != nil {
		if res, ok := failLifecycle(err); ok {
			res.Goal = gl
			return res, nil
		}
		return nil, fmt.Errorf("complete goal: %w", err)
	}
	if err := a.ctx.Save(); err != nil {
		return nil, err
	}

	updated, _ := a.ctx.Graph.Get(gl.ID)
	return &LifecycleResult{
		Success: true,
		Message: fmt.Sprintf("Completed %q.", gl.Title),
		Goal:    updated,
	}, nil
}

// Lock freezes a goal's content behind an audited snapshot.
func (a *LifecycleApp) Lock(ctx context.Context, ref string) (*LifecycleResult, error) {
	gl, err := a.ctx.Resolve(ref)
	if err != nil {
		if res, ok := failLifecycle(err); ok {
			return res, nil
		}
		return nil, err
	}

	snap, err := a.engineFor(gl.ID).Lock(ctx, gl.ID)
	if err != nil {
		if res, ok := failLifecycle(err); ok {
			res.Goal = gl
			return res, nil
		}
		return nil, fmt.Errorf("lock goal: %w", err)
	}
	if err := a.ctx.Save(); err != nil {
		return nil, err
	}

	updated, _ := a.ctx.Graph.Get(gl.ID)
	return &LifecycleResult{
		Success:  true,
		Message:  fmt.Sprintf("Locked %q.", gl.Title),
		Goal:     updated,
		Snapshot: snap,
	}, nil
}

// Unlock clears a goal's lock.
func (a *LifecycleApp) Unlock(ctx context.Context, ref, reason string) (*LifecycleResult, error) {
	gl, err := a.ctx.Resolve(ref)
	if err != nil {
		if res, ok := failLifecycle(err); ok {
			return res, nil
		}
		return nil, err
	}

	if err := a.engineFor(gl.ID).Unlock(ctx, gl.ID, reason); err != nil {
		if res, ok := failLifecycle(err); ok {
			res.Goal = gl
			return res, nil
		}
		return nil, fmt.Errorf("unlock goal: %w", err)
	}
	if err := a.ctx.Save(); err != nil {
		return nil, err
	}

	updated, _ := a.ctx.Graph.Get(gl.ID)
	return &LifecycleResult{
		Success: true,
		Message: fmt.Sprintf("Unlocked %q.", gl.Title),
		Goal:    updated,
	}, nil
}

// Regenerate replaces a goal's framing with a collaborator proposal and
// refreshes its similarity index entry.
func (a *LifecycleApp) Regenerate(ctx context.Context, ref string) (*LifecycleResult, error) {
	gl, err := a.ctx.Resolve(ref)
	if err != nil {
		if res, ok := failLifecycle(err); ok {
			return res, nil
		}
		return nil, err
	}

	updated, err := a.engineFor(gl.ID).Regenerate(ctx, gl.ID)
	if err != nil {
		if res, ok := failLifecycle(err); ok {
			res.Goal = gl
			return res, nil
		}
		return nil, fmt.Errorf("regenerate goal: %w", err)
	}
	if err := a.ctx.Save(); err != nil {
		return nil, err
	}

	a.ctx.saveEmbeddings(ctx, updated)

	return &LifecycleResult{
		Success: true,
		Message: fmt.Sprintf("Reframed goal as %q.", updated.Title),
		Goal:    updated,
	}, nil
}
