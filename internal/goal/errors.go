package goal

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors for conditions that carry no payload. Callers match with
// errors.Is.
var (
	// ErrNotFound is returned when a goal id does not exist in the graph.
	ErrNotFound = errors.New("goal not found")

	// ErrDuplicateID is returned when inserting a goal whose id already exists.
	ErrDuplicateID = errors.New("goal id already exists")

	// ErrDuplicateDependency is returned when an identical dependency edge
	// (same prerequisite, dependent, and kind) already exists.
	ErrDuplicateDependency = errors.New("dependency already exists")

	// ErrNothingToLock is returned when a lock is requested on a goal with no
	// content to snapshot.
	ErrNothingToLock = errors.New("goal has no content to snapshot")

	// ErrAlreadyBrokenDown is returned when a breakdown is requested for a
	// goal that was already materialized or already has subgoals.
	ErrAlreadyBrokenDown = errors.New("goal already has a breakdown")

	// ErrNotSequential is returned when a roadmap operation targets a goal
	// that does not follow sequential steps.
	ErrNotSequential = errors.New("goal does not follow a sequential roadmap")

	// ErrNoCurrentStep is returned when a roadmap has no step in the current
	// state to advance from.
	ErrNoCurrentStep = errors.New("roadmap has no current step")
)

// NotFound wraps ErrNotFound with the offending id.
func NotFound(id string) error {
	return fmt.Errorf("goal %s: %w", id, ErrNotFound)
}

// CycleError reports a rejected mutation that would have closed a cycle,
// either in the parent/child hierarchy or in the dependency DAG. The edge set
// is unchanged when this is returned.
type CycleError struct {
	// Path holds the goal ids along the would-be cycle, ending where it
	// started.
	Path []string
}

func (e *CycleError) Error() string {
	if len(e.Path) == 0 {
		return "cycle detected"
	}
	return fmt.Sprintf("cycle detected: %s", strings.Join(e.Path, " -> "))
}

// NewCycleError builds a CycleError from the ids along the cycle.
func NewCycleError(path []string) *CycleError {
	return &CycleError{Path: path}
}

// SelfDependencyError reports a dependency edge whose prerequisite and
// dependent are the same goal.
type SelfDependencyError struct {
	ID string
}

func (e *SelfDependencyError) Error() string {
	return fmt.Sprintf("goal %s cannot depend on itself", e.ID)
}

// LockedError reports a mutation attempted on a locked goal.
type LockedError struct {
	ID string
	Op string
}

func (e *LockedError) Error() string {
	if e.Op == "" {
		return fmt.Sprintf("goal %s is locked", e.ID)
	}
	return fmt.Sprintf("goal %s is locked: %s rejected", e.ID, e.Op)
}

// StepLimitError reports a roadmap advance rejected because the step list
// reached the hard limit. Nothing changes when this is returned.
type StepLimitError struct {
	GoalID string
	Count  int
	Limit  int
}

func (e *StepLimitError) Error() string {
	return fmt.Sprintf("goal %s has %d steps, limit is %d: complete or split the goal", e.GoalID, e.Count, e.Limit)
}

// DuplicateStepError reports a proposed step whose title case-folds to an
// existing step title. Non-fatal: the engine logs it and completes the
// current step anyway.
type DuplicateStepError struct {
	GoalID string
	Title  string
}

func (e *DuplicateStepError) Error() string {
	return fmt.Sprintf("goal %s already has a step titled %q", e.GoalID, e.Title)
}

// ExternalServiceError wraps a reasoning or calendar collaborator failure.
// Recoverable signals that retrying the same call may succeed.
type ExternalServiceError struct {
	Service     string // "reasoning" or "calendar"
	Op          string
	Recoverable bool
	Err         error
}

func (e *ExternalServiceError) Error() string {
	return fmt.Sprintf("%s service failed during %s: %v", e.Service, e.Op, e.Err)
}

func (e *ExternalServiceError) Unwrap() error {
	return e.Err
}

// NewExternalServiceError wraps err with the collaborator and operation names.
func NewExternalServiceError(service, op string, recoverable bool, err error) *ExternalServiceError {
	return &ExternalServiceError{Service: service, Op: op, Recoverable: recoverable, Err: err}
}

// PartialActivationError reports an activation confirm that created some
// calendar events before failing. The goal remains draft; the confirmed links
// are kept on the goal and listed here.
type PartialActivationError struct {
	GoalID    string
	Confirmed []EventLink
	FailedAt  string // Title of the session that failed
	Err       error
}

func (e *PartialActivationError) Error() string {
	return fmt.Sprintf("activation of goal %s partially failed at %q: %d event(s) were created: %v",
		e.GoalID, e.FailedAt, len(e.Confirmed), e.Err)
}

func (e *PartialActivationError) Unwrap() error {
	return e.Err
}
