/*
Copyright © 2026 Stride contributors
*/
package mcp

// Tool parameter and response types. Parameter structs carry mcp tags so the
// SDK can publish per-field descriptions in the tool schema.

// ListParams filters the goal listing.
type ListParams struct {
	Status       string `json:"status,omitempty" mcp:"Filter by status: draft, active, completed, archived"`
	Kind         string `json:"kind,omitempty" mcp:"Filter by kind: event, campaign, hybrid"`
	IncludeSteps bool   `json:"includeSteps,omitempty" mcp:"Include roadmap step goals, hidden by default"`
}

// ShowParams identifies one goal.
type ShowParams struct {
	Ref string `json:"ref" mcp:"Goal id, unique id prefix, or title (required)"`
}

// CreateParams for creating a new goal.
type CreateParams struct {
	Title      string `json:"title" mcp:"Goal title (required)"`
	Body       string `json:"body,omitempty" mcp:"Longer description of the outcome"`
	Category   string `json:"category,omitempty" mcp:"Free-form grouping label"`
	Kind       string `json:"kind,omitempty" mcp:"Goal kind: event (fixed date), campaign (metric window), hybrid. Default: event"`
	Priority   string `json:"priority,omitempty" mcp:"Priority: now, next, later. Default: later"`
	ParentRef  string `json:"parentRef,omitempty" mcp:"Existing goal to nest this one under (id, prefix, or title)"`
	TargetDate string `json:"targetDate,omitempty" mcp:"Fixed outcome date, YYYY-MM-DD"`
}

// BreakdownParams for decomposing a goal into subgoals.
type BreakdownParams struct {
	Ref   string `json:"ref" mcp:"Goal to break down (required)"`
	Notes string `json:"notes,omitempty" mcp:"Steering notes passed to the collaborator verbatim"`
}

// PlanParams for previewing activation sessions.
type PlanParams struct {
	Ref string `json:"ref" mcp:"Draft goal to plan sessions for (required)"`
}

// ActivateParams for scheduling a goal onto the calendar.
type ActivateParams struct {
	Ref string `json:"ref" mcp:"Draft goal to activate (required)"`
}

// AdvanceParams for completing the current roadmap step.
type AdvanceParams struct {
	Ref string `json:"ref" mcp:"Roadmap goal whose current step is done (required)"`
}

// CompleteParams for marking a goal finished.
type CompleteParams struct {
	Ref string `json:"ref" mcp:"Goal to complete (required)"`
}

// LockParams for freezing a goal's wording.
type LockParams struct {
	Ref string `json:"ref" mcp:"Goal to lock (required)"`
}

// UnlockParams for releasing a locked goal.
type UnlockParams struct {
	Ref    string `json:"ref" mcp:"Locked goal to release (required)"`
	Reason string `json:"reason,omitempty" mcp:"Why the lock is lifted, kept in the revision trail"`
}

// TimelineParams for the date-window projection.
type TimelineParams struct {
	Ref  string `json:"ref,omitempty" mcp:"Project a single goal; empty projects every non-archived goal"`
	From string `json:"from,omitempty" mcp:"Window start, YYYY-MM-DD. Default: today"`
	Days int    `json:"days,omitempty" mcp:"Window length in days. Default: 14"`
}

// GoalSummary is the wire shape for one goal.
type GoalSummary struct {
	ID            string  `json:"id"`
	Title         string  `json:"title"`
	Body          string  `json:"body,omitempty"`
	Category      string  `json:"category,omitempty"`
	Status        string  `json:"status"`
	Kind          string  `json:"kind"`
	Priority      string  `json:"priority"`
	Progress      float64 `json:"progress"`
	ParentID      string  `json:"parentId,omitempty"`
	TargetDate    string  `json:"targetDate,omitempty"`
	Locked        bool    `json:"locked,omitempty"`
	Roadmap       bool    `json:"roadmap,omitempty"`
	StepStatus    string  `json:"stepStatus,omitempty"`
	EstimateHours float64 `json:"estimateHours,omitempty"`
	CreatedAt     string  `json:"createdAt"`
	UpdatedAt     string  `json:"updatedAt"`
	CompletedAt   string  `json:"completedAt,omitempty"`
}

// ListResponse for goal_list.
type ListResponse struct {
	Goals []GoalSummary `json:"goals"`
	Count int           `json:"count"`
}

// ShowResponse for goal_show.
type ShowResponse struct {
	Goal     GoalSummary   `json:"goal"`
	Progress float64       `json:"progress"`
	Subgoals []GoalSummary `json:"subgoals,omitempty"`
}

// CreateResponse for goal_create.
type CreateResponse struct {
	Goal         GoalSummary `json:"goal"`
	SimilarID    string      `json:"similarId,omitempty"`
	SimilarTitle string      `json:"similarTitle,omitempty"`
}

// BreakdownResponse for goal_breakdown.
type BreakdownResponse struct {
	Goal         GoalSummary   `json:"goal"`
	Subgoals     []GoalSummary `json:"subgoals"`
	CreatedCount int           `json:"createdCount"`
	AtomicCount  int           `json:"atomicCount"`
	EdgeCount    int           `json:"edgeCount"`
}

// SessionSummary is one proposed or scheduled working session.
type SessionSummary struct {
	Title       string `json:"title"`
	Start       string `json:"start"`
	DurationMin int    `json:"durationMinutes"`
}

// PlanResponse for goal_plan.
type PlanResponse struct {
	Goal     GoalSummary      `json:"goal"`
	Sessions []SessionSummary `json:"sessions"`
}

// ActivateResponse for goal_activate.
type ActivateResponse struct {
	Goal      GoalSummary      `json:"goal"`
	Sessions  []SessionSummary `json:"sessions,omitempty"`
	Confirmed int              `json:"confirmedEvents"`
}

// AdvanceResponse for goal_advance.
type AdvanceResponse struct {
	Goal      GoalSummary  `json:"goal"`
	Completed *GoalSummary `json:"completedStep,omitempty"`
	Next      *GoalSummary `json:"nextStep,omitempty"`
	Finished  bool         `json:"roadmapFinished"`
	Warning   string       `json:"warning,omitempty"`
}

// StatusResponse for transitions that return the updated goal.
type StatusResponse struct {
	Goal GoalSummary `json:"goal"`
}

// LockResponse for goal_lock.
type LockResponse struct {
	Goal      GoalSummary `json:"goal"`
	Rationale string      `json:"rationale,omitempty"`
}

// TimelineEntry is one row of the projection.
type TimelineEntry struct {
	Kind          string  `json:"kind"`
	Title         string  `json:"title"`
	Detail        string  `json:"detail,omitempty"`
	Start         string  `json:"start"`
	End           string  `json:"end"`
	MetricSummary string  `json:"metricSummary,omitempty"`
	Confidence    float64 `json:"confidence,omitempty"`
}

// TimelineResponse for goal_timeline.
type TimelineResponse struct {
	Start   string          `json:"start"`
	End     string          `json:"end"`
	Entries []TimelineEntry `json:"entries"`
}
