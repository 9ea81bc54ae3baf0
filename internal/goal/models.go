// Package goal defines the goal graph: the Goal entity, its two edge
// relations (parent/child ownership and typed dependency edges), and the
// invariants every mutation must preserve.
package goal

import (
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

// Status represents the activation state of a goal.
type Status string

const (
	StatusDraft     Status = "draft"     // Created, not yet scheduled
	StatusActive    Status = "active"    // Activation confirmed, calendar events exist
	StatusCompleted Status = "completed" // Terminal: finished
	StatusArchived  Status = "archived"  // Terminal: shelved without finishing
)

// Kind determines whether a goal's progress is time-driven or metric-driven.
type Kind string

const (
	KindEvent    Kind = "event"    // Fixed-date outcome (e.g. a race, a launch)
	KindCampaign Kind = "campaign" // Metric-driven push over a window
	KindHybrid   Kind = "hybrid"   // Both a date and a metric
)

// Priority is the user-facing urgency bucket.
type Priority string

const (
	PriorityNow   Priority = "now"
	PriorityNext  Priority = "next"
	PriorityLater Priority = "later"
)

// StepStatus is the roadmap state of a step goal. Only meaningful on goals
// that are steps of a sequential roadmap.
type StepStatus string

const (
	StepPending   StepStatus = "pending"
	StepCurrent   StepStatus = "current"
	StepCompleted StepStatus = "completed"
	StepUnknown   StepStatus = "unknown" // Recovery state; non-blocking
)

// Rank returns the display ordering for a step status. Unknown sorts after
// pending so unreadable steps never jump the queue.
func (s StepStatus) Rank() int {
	switch s {
	case StepCurrent:
		return 0
	case StepPending:
		return 1
	case StepUnknown:
		return 2
	case StepCompleted:
		return 3
	default:
		return 4
	}
}

// DependencyKind is the temporal relation carried by a dependency edge.
type DependencyKind string

const (
	FinishToStart  DependencyKind = "finish-to-start"
	StartToStart   DependencyKind = "start-to-start"
	FinishToFinish DependencyKind = "finish-to-finish"
)

// EventLinkStatus tracks a scheduled-event link through its lifecycle.
type EventLinkStatus string

const (
	EventProposed  EventLinkStatus = "proposed"  // Recorded locally, calendar not yet confirmed
	EventConfirmed EventLinkStatus = "confirmed" // Calendar returned an external id
	EventCancelled EventLinkStatus = "cancelled"
)

// ProjectionStatus is the state of an externally supplied forecast entry.
type ProjectionStatus string

const (
	ProjectionPending  ProjectionStatus = "pending"
	ProjectionComplete ProjectionStatus = "complete"
	ProjectionSkipped  ProjectionStatus = "skipped"
)

// Snapshot captures goal content at a point in time, used for lock capture
// and for the before/after pairs on audited revisions.
type Snapshot struct {
	Title     string    `json:"title"`
	Body      string    `json:"body,omitempty"`
	Progress  float64   `json:"progress"`
	Rationale string    `json:"rationale,omitempty"`
	At        time.Time `json:"at"`
}

// Revision is one append-only audit record. Revision lists are never
// mutated, reordered, or trimmed.
type Revision struct {
	Summary   string    `json:"summary"`
	Rationale string    `json:"rationale,omitempty"`
	Before    *Snapshot `json:"before,omitempty"`
	After     *Snapshot `json:"after,omitempty"`
	At        time.Time `json:"at"`
}

// Edge is a directed, typed dependency between two goals, independent of the
// parent/child hierarchy. The prerequisite must be satisfied per Kind before
// the dependent proceeds.
type Edge struct {
	ID             string         `json:"id" validate:"required,uuid4"`
	PrerequisiteID string         `json:"prerequisiteId" validate:"required,uuid4"`
	DependentID    string         `json:"dependentId" validate:"required,uuid4"`
	Kind           DependencyKind `json:"kind" validate:"required,oneof=finish-to-start start-to-start finish-to-finish"`
	Note           string         `json:"note,omitempty"`
	CreatedAt      time.Time      `json:"createdAt"`
}

// MetricTarget is the optional measurable outcome on campaign/hybrid goals.
type MetricTarget struct {
	Label      string  `json:"label"`
	Baseline   float64 `json:"baseline"`
	Target     float64 `json:"target"`
	Unit       string  `json:"unit,omitempty"`
	WindowDays int     `json:"windowDays"` // Measurement window length from activation
}

// Projection is an externally supplied forecast entry attached to a
// campaign-kind goal. The engine never computes these.
type Projection struct {
	Title         string           `json:"title"`
	Detail        string           `json:"detail,omitempty"`
	Start         time.Time        `json:"start"`
	End           time.Time        `json:"end"`
	ExpectedDelta float64          `json:"expectedDelta,omitempty"`
	Confidence    float64          `json:"confidence,omitempty"`
	Status        ProjectionStatus `json:"status"`
}

// EventLink ties a goal to an externally created calendar item.
type EventLink struct {
	EventID string          `json:"eventId,omitempty"` // External calendar identifier; empty until confirmed
	Title   string          `json:"title"`
	Start   time.Time       `json:"start"`
	End     time.Time       `json:"end"`
	Status  EventLinkStatus `json:"status"`
}

// StepSection is named grouping metadata over a contiguous range of roadmap
// step indices (inclusive start, exclusive end).
type StepSection struct {
	Title      string `json:"title"`
	StartIndex int    `json:"startIndex"`
	EndIndex   int    `json:"endIndex"`
}

// Goal is the central entity: a node in the hierarchy. It may be a top-level
// objective, a subgoal, or a roadmap step. Dependency edges are not stored on
// the struct; the Graph owns both edge tables (see graph.go).
type Goal struct {
	ID       string   `json:"id" validate:"required,uuid4"`
	Title    string   `json:"title" validate:"required,min=1,max=255"`
	Body     string   `json:"body,omitempty"`
	Category string   `json:"category,omitempty"`
	Priority Priority `json:"priority" validate:"required,oneof=now next later"`
	Kind     Kind     `json:"kind" validate:"required,oneof=event campaign hybrid"`
	Status   Status   `json:"status" validate:"required,oneof=draft active completed archived"`
	Progress float64  `json:"progress" validate:"gte=0,lte=1"`

	// Hierarchy. Order among siblings is the stored SortIndex, never
	// insertion order.
	ParentID  string `json:"parentId,omitempty" validate:"omitempty,uuid4"`
	SortIndex int    `json:"sortIndex" validate:"gte=0"`

	// Lock overlay. While locked, title/body are immutable and only audit
	// fields may append.
	Locked       bool      `json:"locked"`
	LockSnapshot *Snapshot `json:"lockSnapshot,omitempty"`

	ActivatedAt *time.Time `json:"activatedAt,omitempty"`
	CompletedAt *time.Time `json:"completedAt,omitempty"`
	TargetDate  *time.Time `json:"targetDate,omitempty"`

	// Roadmap fields, meaningful when SequentialSteps is true (on the parent)
	// or StepStatus is set (on a step).
	SequentialSteps bool          `json:"sequentialSteps,omitempty"`
	StepStatus      StepStatus    `json:"stepStatus,omitempty" validate:"omitempty,oneof=pending current completed unknown"`
	FinalStep       bool          `json:"finalStep,omitempty"`
	StepSections    []StepSection `json:"stepSections,omitempty"`

	// Breakdown bookkeeping.
	BrokenDown    bool    `json:"brokenDown,omitempty"`
	EstimateHours float64 `json:"estimateHours,omitempty" validate:"gte=0"`
	Difficulty    string  `json:"difficulty,omitempty"`

	// Glyph is set by external enrichment, opaque to the engine.
	Glyph string `json:"glyph,omitempty"`

	Metric      *MetricTarget `json:"metric,omitempty"`
	Projections []Projection  `json:"projections,omitempty"`
	Events      []EventLink   `json:"events,omitempty"`

	// Revisions is the append-only audit trail.
	Revisions []Revision `json:"revisions,omitempty"`

	CreatedAt time.Time `json:"createdAt" validate:"required"`
	UpdatedAt time.Time `json:"updatedAt" validate:"required"`
}

// New creates a draft goal with defaults applied.
func New(title, body, category string, kind Kind) *Goal {
	now := time.Now().UTC()
	return &Goal{
		ID:        uuid.NewString(),
		Title:     title,
		Body:      body,
		Category:  category,
		Priority:  PriorityLater,
		Kind:      kind,
		Status:    StatusDraft,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// IsStep reports whether the goal is a roadmap step of its parent.
func (g *Goal) IsStep() bool {
	return g.StepStatus != ""
}

// HasContent reports whether there is anything worth snapshotting.
func (g *Goal) HasContent() bool {
	return strings.TrimSpace(g.Title) != "" || strings.TrimSpace(g.Body) != ""
}

// ContentSnapshot captures the current title/body/progress with a rationale.
func (g *Goal) ContentSnapshot(rationale string) *Snapshot {
	return &Snapshot{
		Title:     g.Title,
		Body:      g.Body,
		Progress:  g.Progress,
		Rationale: rationale,
		At:        time.Now().UTC(),
	}
}

// AppendRevision appends an audit record. Revisions only ever grow.
func (g *Goal) AppendRevision(summary, rationale string, before, after *Snapshot) {
	g.Revisions = append(g.Revisions, Revision{
		Summary:   summary,
		Rationale: rationale,
		Before:    before,
		After:     after,
		At:        time.Now().UTC(),
	})
}

// Clone returns a deep copy so snapshot reads never alias graph-owned state.
func (g *Goal) Clone() *Goal {
	c := *g
	if g.LockSnapshot != nil {
		s := *g.LockSnapshot
		c.LockSnapshot = &s
	}
	c.ActivatedAt = cloneTime(g.ActivatedAt)
	c.CompletedAt = cloneTime(g.CompletedAt)
	c.TargetDate = cloneTime(g.TargetDate)
	if g.Metric != nil {
		m := *g.Metric
		c.Metric = &m
	}
	c.StepSections = append([]StepSection(nil), g.StepSections...)
	c.Projections = append([]Projection(nil), g.Projections...)
	c.Events = append([]EventLink(nil), g.Events...)
	c.Revisions = cloneRevisions(g.Revisions)
	return &c
}

func cloneTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := *t
	return &v
}

func cloneRevisions(revs []Revision) []Revision {
	if revs == nil {
		return nil
	}
	out := make([]Revision, len(revs))
	for i, r := range revs {
		out[i] = r
		if r.Before != nil {
			b := *r.Before
			out[i].Before = &b
		}
		if r.After != nil {
			a := *r.After
			out[i].After = &a
		}
	}
	return out
}

// Validate checks structural validity of the goal.
func (g *Goal) Validate() error {
	if err := ValidateStruct(g); err != nil {
		return err
	}
	if g.ParentID == g.ID && g.ID != "" {
		return fmt.Errorf("goal %s cannot be its own parent", g.ID)
	}
	return nil
}

// global validator instance shared by all model checks
var validate *validator.Validate

func init() {
	validate = validator.New()
}

// ValidateStruct performs validation on any struct carrying validation tags.
func ValidateStruct(s interface{}) error {
	if validate == nil {
		validate = validator.New()
	}
	err := validate.Struct(s)
	if err != nil {
		validationErrors, ok := err.(validator.ValidationErrors)
		if !ok {
			return err
		}
		var messages []string
		for _, e := range validationErrors {
			messages = append(messages, fmt.Sprintf("field '%s' failed rule '%s' (value: '%v')", e.StructNamespace(), e.Tag(), e.Value()))
		}
		return fmt.Errorf("%s", strings.Join(messages, "; "))
	}
	return nil
}
