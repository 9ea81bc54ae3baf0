package app

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/stridehq/stride/internal/config"
	"github.com/stridehq/stride/internal/goal"
)

// GoalResult is the canonical response for goal operations. CLI and MCP both
// consume it; fields beyond Goal are filled per operation.
type GoalResult struct {
	Success bool       `json:"success"`
	Message string     `json:"message,omitempty"`
	Hint    string     `json:"hint,omitempty"`
	Goal    *goal.Goal `json:"goal,omitempty"`

	// Show fields
	Progress float64      `json:"progress,omitempty"`
	Subgoals []*goal.Goal `json:"subgoals,omitempty"`
	Incoming []*goal.Edge `json:"incoming_edges,omitempty"`
	Outgoing []*goal.Edge `json:"outgoing_edges,omitempty"`

	// Delete fields
	Deleted []string `json:"deleted,omitempty"`

	// Near-duplicate warning on create
	SimilarID    string  `json:"similar_id,omitempty"`
	SimilarTitle string  `json:"similar_title,omitempty"`
	SimilarScore float64 `json:"similar_score,omitempty"`

	// Policy enforcement fields
	PolicyViolation bool     `json:"policy_violation,omitempty"`
	PolicyErrors    []string `json:"policy_errors,omitempty"`
	PolicyWarnings  []string `json:"policy_warnings,omitempty"`
}

// failGoal maps a domain error to a Success=false result, or returns false
// for errors the caller should propagate.
func failGoal(err error) (*GoalResult, bool) {
	msg, hint, ok := domainFailure(err)
	if !ok {
		return nil, false
	}
	return &GoalResult{Success: false, Message: msg, Hint: hint}, true
}

// CreateOptions configures goal creation.
type CreateOptions struct {
	Title      string             // Required
	Body       string             // Optional description
	Category   string             // Optional grouping label
	Kind       string             // event, campaign, or hybrid (default: event)
	Priority   string             // now, next, or later (default: later)
	ParentRef  string             // Optional: attach under an existing goal
	TargetDate *time.Time         // Optional fixed outcome date
	Metric     *goal.MetricTarget // Optional measurable outcome
}

// ListOptions filters the goal listing.
type ListOptions struct {
	Status       string // Filter by status when set
	Kind         string // Filter by kind when set
	IncludeSteps bool   // Include roadmap steps (hidden by default)
}

// DeleteOptions configures cascading deletion.
type DeleteOptions struct {
	Ref string // Required: goal to delete with its subtree
}

// GoalApp provides goal CRUD and search.
// CLI and MCP are both thin layers over this type.
type GoalApp struct {
	ctx *Context
}

// NewGoalApp creates a new goal application service.
func NewGoalApp(ctx *Context) *GoalApp {
	return &GoalApp{ctx: ctx}
}

// Create inserts a draft goal, optionally under a parent. When an embedder is
// available the new title is compared against stored goal vectors and a
// near-duplicate is surfaced as a warning without blocking the create.
func (a *GoalApp) Create(ctx context.Context, opts CreateOptions) (*GoalResult, error) {
	title := strings.TrimSpace(opts.Title)
	if title == "" {
		return &GoalResult{Success: false, Message: "title is required"}, nil
	}

	kind, err := goal.ParseKind(opts.Kind)
	if err != nil {
		return &GoalResult{Success: false, Message: err.Error()}, nil
	}
	if kind == "" {
		kind = goal.KindEvent
	}
	priority, err := goal.ParsePriority(opts.Priority)
	if err != nil {
		return &GoalResult{Success: false, Message: err.Error()}, nil
	}

	var parentID string
	if opts.ParentRef != "" {
		parent, rerr := a.ctx.Resolve(opts.ParentRef)
		if rerr != nil {
			if res, ok := failGoal(rerr); ok {
				return res, nil
			}
			return nil, rerr
		}
		parentID = parent.ID
	}

	gl := goal.New(title, opts.Body, opts.Category, kind)
	if priority != "" {
		gl.Priority = priority
	}
	gl.TargetDate = opts.TargetDate
	gl.Metric = opts.Metric

	// The duplicate check runs before the insert so the new goal never
	// matches itself.
	similarID, similarTitle, similarScore := a.nearestExisting(ctx, gl)

	if err := a.ctx.Graph.Insert(gl, parentID); err != nil {
		if res, ok := failGoal(err); ok {
			return res, nil
		}
		return nil, fmt.Errorf("create goal: %w", err)
	}
	if err := a.ctx.Save(); err != nil {
		return nil, err
	}

	a.ctx.saveEmbeddings(ctx, gl)

	created, _ := a.ctx.Graph.Get(gl.ID)
	res := &GoalResult{
		Success: true,
		Message: fmt.Sprintf("Created goal %q.", title),
		Goal:    created,
		Hint:    "Break it into subgoals with 'stride breakdown " + shortID(gl.ID) + "'.",
	}
	if similarID != "" {
		res.SimilarID = similarID
		res.SimilarTitle = similarTitle
		res.SimilarScore = similarScore
		res.Message += fmt.Sprintf(" A similar goal already exists: %q (%s).", similarTitle, shortID(similarID))
	}
	return res, nil
}

// List returns goals matching the filters, ordered by status, priority, then
// title.
func (a *GoalApp) List(ctx context.Context, opts ListOptions) ([]*goal.Goal, error) {
	var status goal.Status
	if opts.Status != "" {
		status = goal.Status(strings.ToLower(strings.TrimSpace(opts.Status)))
		switch status {
		case goal.StatusDraft, goal.StatusActive, goal.StatusCompleted, goal.StatusArchived:
		default:
			return nil, fmt.Errorf("unknown status %q (use draft, active, completed, or archived)", opts.Status)
		}
	}
	kind, err := goal.ParseKind(opts.Kind)
	if err != nil {
		return nil, err
	}

	var out []*goal.Goal
	for _, gl := range a.ctx.Graph.AllGoals() {
		if !opts.IncludeSteps && gl.IsStep() {
			continue
		}
		if status != "" && gl.Status != status {
			continue
		}
		if kind != "" && gl.Kind != kind {
			continue
		}
		out = append(out, gl)
	}

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Status != out[j].Status {
			return statusRank(out[i].Status) < statusRank(out[j].Status)
		}
		if out[i].Priority != out[j].Priority {
			return priorityRank(out[i].Priority) < priorityRank(out[j].Priority)
		}
		return out[i].Title < out[j].Title
	})
	return out, nil
}

// Show returns one goal with its aggregate progress, ordered subgoals, and
// dependency edges.
func (a *GoalApp) Show(ctx context.Context, ref string) (*GoalResult, error) {
	gl, err := a.ctx.Resolve(ref)
	if err != nil {
		if res, ok := failGoal(err); ok {
			return res, nil
		}
		return nil, err
	}

	progress, err := a.ctx.Graph.Progress(gl.ID)
	if err != nil {
		return nil, fmt.Errorf("aggregate progress: %w", err)
	}
	incoming, outgoing, err := a.ctx.Graph.EdgesOf(gl.ID)
	if err != nil {
		return nil, fmt.Errorf("collect edges: %w", err)
	}

	return &GoalResult{
		Success:  true,
		Goal:     gl,
		Progress: progress,
		Subgoals: a.ctx.Graph.Children(gl.ID),
		Incoming: incoming,
		Outgoing: outgoing,
	}, nil
}

// Delete removes a goal and its entire subtree after the deletion guardrail
// allows it. Policy warnings are carried on the result; a deny blocks the
// delete with nothing removed.
func (a *GoalApp) Delete(ctx context.Context, opts DeleteOptions) (*GoalResult, error) {
	gl, err := a.ctx.Resolve(opts.Ref)
	if err != nil {
		if res, ok := failGoal(err); ok {
			return res, nil
		}
		return nil, err
	}

	descendants, err := a.ctx.Graph.Descendants(gl.ID, false)
	if err != nil {
		return nil, fmt.Errorf("collect subtree: %w", err)
	}

	var warnings []string
	if a.ctx.Policy != nil {
		decision, perr := a.ctx.Policy.EvaluateDeletion(ctx, gl, descendants)
		if perr != nil {
			return nil, fmt.Errorf("evaluate deletion policy: %w", perr)
		}
		if decision.IsDenied() {
			return &GoalResult{
				Success:         false,
				Message:         fmt.Sprintf("Policy blocked deleting %q.", gl.Title),
				Goal:            gl,
				PolicyViolation: true,
				PolicyErrors:    decision.Violations,
				PolicyWarnings:  decision.Warnings,
			}, nil
		}
		warnings = decision.Warnings
	}

	deleted := a.ctx.Graph.Delete(gl.ID)
	if err := a.ctx.Save(); err != nil {
		return nil, err
	}

	msg := fmt.Sprintf("Deleted %q.", gl.Title)
	if len(deleted) > 1 {
		msg = fmt.Sprintf("Deleted %q and %d descendant(s).", gl.Title, len(deleted)-1)
	}
	return &GoalResult{
		Success:        true,
		Message:        msg,
		Deleted:        deleted,
		PolicyWarnings: warnings,
	}, nil
}

// nearestExisting returns the stored goal most similar to the candidate when
// an embedder and vectors are available. Zero values mean no close match or
// no embedding support.
func (a *GoalApp) nearestExisting(ctx context.Context, gl *goal.Goal) (id, title string, score float64) {
	if a.ctx.Embedder == nil || a.ctx.DB == nil {
		return "", "", 0
	}
	vectors, err := a.ctx.DB.Embeddings()
	if err != nil || len(vectors) == 0 {
		return "", "", 0
	}
	queries, err := a.ctx.Embedder.EmbedStrings(ctx, []string{embeddingText(gl)})
	if err != nil || len(queries) == 0 {
		slog.Debug("duplicate check skipped", "error", err)
		return "", "", 0
	}

	threshold := config.LoadFindConfig().DuplicateThreshold
	var bestID string
	var bestScore float64
	for goalID, vec := range vectors {
		if s := cosineSimilarity(queries[0], vec); s > bestScore {
			bestID, bestScore = goalID, s
		}
	}
	if bestScore < threshold {
		return "", "", 0
	}
	existing, ok := a.ctx.Graph.Get(bestID)
	if !ok {
		return "", "", 0
	}
	return existing.ID, existing.Title, bestScore
}

func statusRank(s goal.Status) int {
	switch s {
	case goal.StatusActive:
		return 0
	case goal.StatusDraft:
		return 1
	case goal.StatusCompleted:
		return 2
	case goal.StatusArchived:
		return 3
	default:
		return 4
	}
}

func priorityRank(p goal.Priority) int {
	switch p {
	case goal.PriorityNow:
		return 0
	case goal.PriorityNext:
		return 1
	case goal.PriorityLater:
		return 2
	default:
		return 3
	}
}
