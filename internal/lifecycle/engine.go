// Package lifecycle drives goal state transitions: lock/unlock, regeneration,
// two-phase activation, deactivation, and completion. External collaborators
// are consumed through narrow interfaces and never called under graph locks.
package lifecycle

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/stridehq/stride/internal/goal"
	"github.com/stridehq/stride/internal/reasoning"
)

// Reasoner is the reasoning surface lifecycle operations consume.
type Reasoner interface {
	RequestRegeneration(ctx context.Context, req reasoning.RegenerationRequest) (*reasoning.RegenerationProposal, error)
	RequestActivationPlan(ctx context.Context, req reasoning.ActivationPlanRequest) ([]reasoning.Session, error)
	RequestLockRationale(ctx context.Context, req reasoning.LockRationaleRequest) (string, error)
}

// Calendar schedules and cancels external events.
type Calendar interface {
	CreateEvent(ctx context.Context, title string, start time.Time, duration time.Duration, notes string) (string, error)
	CancelEvent(ctx context.Context, eventID string) error
}

// Engine applies lifecycle transitions to goals in a graph.
type Engine struct {
	graph    *goal.Graph
	reasoner Reasoner
	calendar Calendar
}

// NewEngine returns a lifecycle engine over g using the given collaborators.
func NewEngine(g *goal.Graph, r Reasoner, c Calendar) *Engine {
	return &Engine{graph: g, reasoner: r, calendar: c}
}

// DefaultLockRationale is stored when the reasoning collaborator cannot
// supply one. Locking never fails because of an external failure.
const DefaultLockRationale = "locked by user"

// Lock freezes a goal's content behind a snapshot. Locking an already locked
// goal is a no-op returning the existing snapshot. A goal with nothing to
// snapshot is rejected.
func (e *Engine) Lock(ctx context.Context, goalID string) (*goal.Snapshot, error) {
	gl, ok := e.graph.Get(goalID)
	if !ok {
		return nil, goal.NotFound(goalID)
	}
	if gl.Locked {
		if gl.LockSnapshot != nil {
			return gl.LockSnapshot, nil
		}
		return gl.ContentSnapshot(""), nil
	}
	if !gl.HasContent() {
		return nil, fmt.Errorf("lock goal %s: %w", goalID, goal.ErrNothingToLock)
	}

	rationale, err := e.reasoner.RequestLockRationale(ctx, reasoning.LockRationaleRequest{Goal: gl})
	if err != nil || strings.TrimSpace(rationale) == "" {
		if err != nil {
			slog.Warn("lock rationale unavailable, using default", "goal", goalID, "error", err)
		}
		rationale = DefaultLockRationale
	}

	var snap goal.Snapshot
	err = e.graph.Update(goalID, func(w *goal.Goal) error {
		if w.Locked {
			if w.LockSnapshot != nil {
				snap = *w.LockSnapshot
			}
			return nil
		}
		w.Locked = true
		s := w.ContentSnapshot(rationale)
		w.LockSnapshot = s
		w.AppendRevision("Locked", rationale, nil, s)
		snap = *s
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &snap, nil
}

// Unlock clears the lock overlay. Unlocking an unlocked goal is a no-op.
func (e *Engine) Unlock(ctx context.Context, goalID, reason string) error {
	gl, ok := e.graph.Get(goalID)
	if !ok {
		return goal.NotFound(goalID)
	}
	if !gl.Locked {
		return nil
	}
	return e.graph.Update(goalID, func(w *goal.Goal) error {
		if !w.Locked {
			return nil
		}
		before := w.LockSnapshot
		w.Locked = false
		w.LockSnapshot = nil
		summary := "Unlocked"
		if strings.TrimSpace(reason) != "" {
			summary = "Unlocked: " + reason
		}
		w.AppendRevision(summary, reason, before, nil)
		return nil
	})
}

// Regenerate asks the reasoning collaborator for an alternative framing and
// replaces title/body under one audited revision. A locked goal is rejected,
// and a collaborator failure leaves the goal byte-identical.
func (e *Engine) Regenerate(ctx context.Context, goalID string) (*goal.Goal, error) {
	gl, ok := e.graph.Get(goalID)
	if !ok {
		return nil, goal.NotFound(goalID)
	}
	if gl.Locked {
		return nil, &goal.LockedError{ID: goalID, Op: "regenerate"}
	}

	progress, err := e.graph.Progress(goalID)
	if err != nil {
		return nil, err
	}
	proposal, err := e.reasoner.RequestRegeneration(ctx, reasoning.RegenerationRequest{
		Goal:     gl,
		Subgoals: e.graph.Children(goalID),
		Progress: progress,
	})
	if err != nil {
		return nil, fmt.Errorf("regenerate goal %s: %w", goalID, err)
	}
	title := strings.TrimSpace(proposal.Title)
	if title == "" {
		return nil, fmt.Errorf("regenerate goal %s: collaborator returned an empty title", goalID)
	}

	err = e.graph.Update(goalID, func(w *goal.Goal) error {
		if w.Locked {
			return &goal.LockedError{ID: goalID, Op: "regenerate"}
		}
		before := w.ContentSnapshot("")
		w.Title = title
		w.Body = proposal.Body
		after := w.ContentSnapshot(proposal.Rationale)
		w.AppendRevision("Regenerated", proposal.Rationale, before, after)
		return nil
	})
	if err != nil {
		return nil, err
	}
	updated, _ := e.graph.Get(goalID)
	return updated, nil
}

// GeneratePlan is activation phase one: it returns the proposed calendar
// sessions without touching the goal. Nothing is committed until
// ConfirmActivation succeeds.
func (e *Engine) GeneratePlan(ctx context.Context, goalID string) ([]reasoning.Session, error) {
	gl, ok := e.graph.Get(goalID)
	if !ok {
		return nil, goal.NotFound(goalID)
	}
	if gl.Locked {
		return nil, &goal.LockedError{ID: goalID, Op: "activation planning"}
	}
	if gl.Status != goal.StatusDraft {
		return nil, fmt.Errorf("activate goal %s: status is %s, only drafts activate", goalID, gl.Status)
	}

	sessions, err := e.reasoner.RequestActivationPlan(ctx, reasoning.ActivationPlanRequest{
		Goal:     gl,
		AllGoals: e.graph.AllGoals(),
		From:     time.Now().UTC(),
	})
	if err != nil {
		return nil, fmt.Errorf("plan activation of goal %s: %w", goalID, err)
	}
	if len(sessions) == 0 {
		return nil, fmt.Errorf("plan activation of goal %s: collaborator returned an empty plan", goalID)
	}
	return sessions, nil
}

// ConfirmActivation is activation phase two: one calendar event per session,
// each recorded as a proposed link that flips to confirmed once the calendar
// returns an id. Full success activates the goal. A mid-plan calendar failure
// keeps the links already confirmed, leaves the goal draft, and reports which
// sessions landed through PartialActivationError.
func (e *Engine) ConfirmActivation(ctx context.Context, goalID string, plan []reasoning.Session) error {
	gl, ok := e.graph.Get(goalID)
	if !ok {
		return goal.NotFound(goalID)
	}
	if gl.Locked {
		return &goal.LockedError{ID: goalID, Op: "activation"}
	}
	if gl.Status != goal.StatusDraft {
		return fmt.Errorf("activate goal %s: status is %s, only drafts activate", goalID, gl.Status)
	}
	if len(plan) == 0 {
		return fmt.Errorf("activate goal %s: empty plan", goalID)
	}

	var confirmed []goal.EventLink
	for _, session := range plan {
		link := goal.EventLink{
			Title:  session.Title,
			Start:  session.Start,
			End:    session.Start.Add(session.Duration),
			Status: goal.EventProposed,
		}
		if err := e.graph.Update(goalID, func(w *goal.Goal) error {
			w.Events = append(w.Events, link)
			return nil
		}); err != nil {
			return err
		}

		eventID, err := e.calendar.CreateEvent(ctx, session.Title, session.Start, session.Duration, session.Notes)
		if err != nil {
			// Drop the unconfirmed link; everything confirmed so far stays.
			if uerr := e.graph.Update(goalID, func(w *goal.Goal) error {
				w.Events = w.Events[:len(w.Events)-1]
				return nil
			}); uerr != nil {
				slog.Warn("could not drop unconfirmed event link", "goal", goalID, "error", uerr)
			}
			return &goal.PartialActivationError{
				GoalID:    goalID,
				Confirmed: confirmed,
				FailedAt:  session.Title,
				Err:       err,
			}
		}

		if err := e.graph.Update(goalID, func(w *goal.Goal) error {
			last := len(w.Events) - 1
			w.Events[last].EventID = eventID
			w.Events[last].Status = goal.EventConfirmed
			return nil
		}); err != nil {
			return err
		}
		link.EventID = eventID
		link.Status = goal.EventConfirmed
		confirmed = append(confirmed, link)
	}

	return e.graph.Update(goalID, func(w *goal.Goal) error {
		now := time.Now().UTC()
		w.Status = goal.StatusActive
		w.ActivatedAt = &now
		w.AppendRevision("Activated", fmt.Sprintf("%d session(s) scheduled", len(confirmed)), nil, nil)
		return nil
	})
}

// Deactivate moves a goal to the target state regardless of lock. Event links
// still awaiting confirmation are cancelled: best-effort externally when one
// carries an id, locally otherwise.
func (e *Engine) Deactivate(ctx context.Context, goalID string, to goal.Status, rationale string) error {
	gl, ok := e.graph.Get(goalID)
	if !ok {
		return goal.NotFound(goalID)
	}

	for _, link := range gl.Events {
		if link.Status != goal.EventProposed || link.EventID == "" {
			continue
		}
		if err := e.calendar.CancelEvent(ctx, link.EventID); err != nil {
			slog.Warn("could not cancel pending event", "goal", goalID, "event", link.EventID, "error", err)
		}
	}

	return e.graph.Update(goalID, func(w *goal.Goal) error {
		for i := range w.Events {
			if w.Events[i].Status == goal.EventProposed {
				w.Events[i].Status = goal.EventCancelled
			}
		}
		w.Status = to
		if to == goal.StatusCompleted && w.CompletedAt == nil {
			now := time.Now().UTC()
			w.CompletedAt = &now
		}
		summary := fmt.Sprintf("Deactivated to %s", to)
		w.AppendRevision(summary, rationale, nil, nil)
		return nil
	})
}

// Complete marks the goal finished at full progress and refreshes the
// parent's stored aggregate.
func (e *Engine) Complete(ctx context.Context, goalID string) error {
	gl, ok := e.graph.Get(goalID)
	if !ok {
		return goal.NotFound(goalID)
	}

	err := e.graph.Update(goalID, func(w *goal.Goal) error {
		now := time.Now().UTC()
		w.Progress = 1.0
		w.Status = goal.StatusCompleted
		w.CompletedAt = &now
		if w.StepStatus != "" {
			w.StepStatus = goal.StepCompleted
		}
		w.AppendRevision("Completed", "", nil, nil)
		return nil
	})
	if err != nil {
		return err
	}

	if gl.ParentID != "" {
		aggregate, perr := e.graph.Progress(gl.ParentID)
		if perr != nil {
			return nil
		}
		if uerr := e.graph.Update(gl.ParentID, func(w *goal.Goal) error {
			w.Progress = aggregate
			return nil
		}); uerr != nil {
			slog.Warn("could not refresh parent progress", "goal", gl.ParentID, "error", uerr)
		}
	}
	return nil
}
