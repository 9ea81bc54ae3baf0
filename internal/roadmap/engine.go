// Package roadmap advances sequential step roadmaps: one current step at a
// time, completed steps locked behind it, the next step proposed by the
// reasoning collaborator.
package roadmap

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"golang.org/x/text/cases"

	"github.com/stridehq/stride/internal/goal"
	"github.com/stridehq/stride/internal/reasoning"
)

const (
	// HardStepLimit caps the number of steps a roadmap may hold. Advancing a
	// roadmap already at the cap fails without mutating anything.
	HardStepLimit = 15

	// SoftStepWarning is the count at which results start carrying a
	// non-blocking warning.
	SoftStepWarning = 12
)

// Proposer supplies the next roadmap step.
type Proposer interface {
	RequestNextStep(ctx context.Context, req reasoning.NextStepRequest) (*reasoning.StepProposal, error)
}

// Engine drives sequential roadmaps on the graph.
type Engine struct {
	graph    *goal.Graph
	proposer Proposer
}

// NewEngine returns an engine advancing roadmaps in g with steps from p.
func NewEngine(g *goal.Graph, p Proposer) *Engine {
	return &Engine{graph: g, proposer: p}
}

// AdvanceResult reports what completing the current step produced.
type AdvanceResult struct {
	CompletedStepID string `json:"completedStepId"`
	NewStepID       string `json:"newStepId,omitempty"`
	StepCreated     bool   `json:"stepCreated"`
	RoadmapDone     bool   `json:"roadmapDone"`
	StepCount       int    `json:"stepCount"`
	Warning         string `json:"warning,omitempty"`
}

// CompleteCurrentStep finishes the current step of a sequential roadmap and,
// unless that step was final, asks the proposer for the next one. A proposed
// title that case-insensitively matches an existing step is skipped, but the
// current step still completes. The graph mutation is one batch: readers
// never observe two current steps or a completed step without its successor
// bookkeeping.
func (e *Engine) CompleteCurrentStep(ctx context.Context, goalID string) (*AdvanceResult, error) {
	parent, ok := e.graph.Get(goalID)
	if !ok {
		return nil, goal.NotFound(goalID)
	}
	if !parent.SequentialSteps {
		return nil, fmt.Errorf("goal %s: %w", goalID, goal.ErrNotSequential)
	}

	steps := e.graph.Children(goalID)
	current := currentStep(steps)
	if current == nil {
		return nil, fmt.Errorf("goal %s: %w", goalID, goal.ErrNoCurrentStep)
	}

	if current.FinalStep {
		return e.finishRoadmap(goalID, current, len(steps))
	}

	if len(steps) >= HardStepLimit {
		return nil, &goal.StepLimitError{GoalID: goalID, Count: len(steps), Limit: HardStepLimit}
	}

	proposal, err := e.proposer.RequestNextStep(ctx, reasoning.NextStepRequest{
		Goal:          parent,
		CompletedStep: current,
		PriorSteps:    steps,
	})
	if err != nil {
		return nil, fmt.Errorf("complete step of goal %s: %w", goalID, err)
	}
	title := strings.TrimSpace(proposal.Title)
	if title == "" {
		return nil, fmt.Errorf("complete step of goal %s: proposer returned an empty step title", goalID)
	}

	if dup := findDuplicateTitle(steps, title); dup != nil {
		// Forward progress wins: the current step completes even though the
		// proposed successor was rejected. The roadmap may be left without a
		// current step.
		dupErr := &goal.DuplicateStepError{GoalID: goalID, Title: title}
		slog.Warn("skipping duplicate roadmap step", "goal", goalID, "title", title, "existing", dup.ID)
		res := &AdvanceResult{CompletedStepID: current.ID, StepCount: len(steps), Warning: dupErr.Error()}
		err := e.graph.Batch(func(b *goal.Batch) error {
			if err := completeStep(b, current.ID); err != nil {
				return err
			}
			return writeParentProgress(b, goalID)
		})
		if err != nil {
			return nil, err
		}
		return res, nil
	}

	res := &AdvanceResult{CompletedStepID: current.ID, StepCreated: true, StepCount: len(steps) + 1}
	err = e.graph.Batch(func(b *goal.Batch) error {
		if err := completeStep(b, current.ID); err != nil {
			return err
		}

		next := goal.New(title, proposal.Guidance, parent.Category, parent.Kind)
		next.Priority = goal.PriorityNow
		next.StepStatus = goal.StepCurrent
		next.FinalStep = proposal.Final
		if err := b.Insert(next, goalID); err != nil {
			return err
		}
		res.NewStepID = next.ID

		return writeParentProgress(b, goalID)
	})
	if err != nil {
		return nil, err
	}

	if res.StepCount >= SoftStepWarning {
		res.Warning = fmt.Sprintf("roadmap has %d of %d steps", res.StepCount, HardStepLimit)
	}
	return res, nil
}

// finishRoadmap completes the final step and the parent goal in one batch.
func (e *Engine) finishRoadmap(goalID string, current *goal.Goal, stepCount int) (*AdvanceResult, error) {
	err := e.graph.Batch(func(b *goal.Batch) error {
		if err := completeStep(b, current.ID); err != nil {
			return err
		}
		return b.Update(goalID, func(g *goal.Goal) error {
			now := time.Now().UTC()
			g.Progress = 1.0
			g.Status = goal.StatusCompleted
			g.CompletedAt = &now
			g.AppendRevision("Completed", "All sequential steps completed", nil, nil)
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	return &AdvanceResult{CompletedStepID: current.ID, RoadmapDone: true, StepCount: stepCount}, nil
}

// completeStep marks a step completed and locks it with a snapshot.
func completeStep(b *goal.Batch, stepID string) error {
	return b.Update(stepID, func(g *goal.Goal) error {
		now := time.Now().UTC()
		g.StepStatus = goal.StepCompleted
		g.Status = goal.StatusCompleted
		g.Progress = 1.0
		g.CompletedAt = &now
		if !g.Locked {
			g.Locked = true
			g.LockSnapshot = g.ContentSnapshot("Roadmap step completed")
		}
		g.AppendRevision("Completed", "", nil, nil)
		return nil
	})
}

// writeParentProgress stores the completed/total ratio on the parent so the
// persisted scalar matches what the aggregator reports.
func writeParentProgress(b *goal.Batch, goalID string) error {
	steps := b.Children(goalID)
	if len(steps) == 0 {
		return nil
	}
	completed := 0
	for _, s := range steps {
		if s.StepStatus == goal.StepCompleted {
			completed++
		}
	}
	ratio := float64(completed) / float64(len(steps))
	return b.Update(goalID, func(g *goal.Goal) error {
		g.Progress = ratio
		return nil
	})
}

// currentStep returns the single current step, or nil. Steps carrying the
// unknown recovery status never block and are never selected.
func currentStep(steps []*goal.Goal) *goal.Goal {
	for _, s := range steps {
		if s.StepStatus == goal.StepCurrent {
			return s
		}
	}
	return nil
}

// findDuplicateTitle reports an existing step whose title matches the
// candidate after trimming and Unicode case folding.
func findDuplicateTitle(steps []*goal.Goal, title string) *goal.Goal {
	want := foldTitle(title)
	for _, s := range steps {
		if foldTitle(s.Title) == want {
			return s
		}
	}
	return nil
}

// foldTitle normalizes a step title for duplicate comparison. Casers are
// stateful, so each call gets its own.
func foldTitle(s string) string {
	return cases.Fold().String(strings.TrimSpace(s))
}
