package lifecycle

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stridehq/stride/internal/goal"
	"github.com/stridehq/stride/internal/reasoning"
)

type scriptedReasoner struct {
	rationale    string
	rationaleErr error
	regen        *reasoning.RegenerationProposal
	regenErr     error
	plan         []reasoning.Session
	planErr      error
	regenCalls   int
}

func (r *scriptedReasoner) RequestRegeneration(ctx context.Context, req reasoning.RegenerationRequest) (*reasoning.RegenerationProposal, error) {
	r.regenCalls++
	if r.regenErr != nil {
		return nil, r.regenErr
	}
	return r.regen, nil
}

func (r *scriptedReasoner) RequestActivationPlan(ctx context.Context, req reasoning.ActivationPlanRequest) ([]reasoning.Session, error) {
	if r.planErr != nil {
		return nil, r.planErr
	}
	return r.plan, nil
}

func (r *scriptedReasoner) RequestLockRationale(ctx context.Context, req reasoning.LockRationaleRequest) (string, error) {
	if r.rationaleErr != nil {
		return "", r.rationaleErr
	}
	return r.rationale, nil
}

type scriptedCalendar struct {
	createdTitles []string
	cancelledIDs  []string
	failAtCall    int // 1-based CreateEvent call that fails; 0 = never
	calls         int
}

func (c *scriptedCalendar) CreateEvent(ctx context.Context, title string, start time.Time, duration time.Duration, notes string) (string, error) {
	c.calls++
	if c.failAtCall > 0 && c.calls == c.failAtCall {
		return "", errors.New("calendar unreachable")
	}
	c.createdTitles = append(c.createdTitles, title)
	return fmt.Sprintf("evt-%d", c.calls), nil
}

func (c *scriptedCalendar) CancelEvent(ctx context.Context, eventID string) error {
	c.cancelledIDs = append(c.cancelledIDs, eventID)
	return nil
}

func newEngine(t *testing.T, r *scriptedReasoner, c *scriptedCalendar) (*Engine, *goal.Graph, *goal.Goal) {
	t.Helper()
	g := goal.NewGraph()
	gl := goal.New("Launch the beta", "invite 50 users", "product", goal.KindEvent)
	require.NoError(t, g.Insert(gl, ""))
	return NewEngine(g, r, c), g, gl
}

func TestLock_CapturesSnapshotAndAppendsRevision(t *testing.T) {
	engine, g, gl := newEngine(t, &scriptedReasoner{rationale: "protect the approved framing"}, &scriptedCalendar{})

	snap, err := engine.Lock(context.Background(), gl.ID)
	require.NoError(t, err)
	require.NotNil(t, snap)
	assert.Equal(t, "Launch the beta", snap.Title)
	assert.Equal(t, "protect the approved framing", snap.Rationale)

	locked, _ := g.Get(gl.ID)
	assert.True(t, locked.Locked)
	require.NotNil(t, locked.LockSnapshot)
	require.Len(t, locked.Revisions, 1)
	assert.Equal(t, "Locked", locked.Revisions[0].Summary)

	// Locking again is a no-op returning the same snapshot.
	again, err := engine.Lock(context.Background(), gl.ID)
	require.NoError(t, err)
	assert.Equal(t, snap.Title, again.Title)
	after, _ := g.Get(gl.ID)
	assert.Len(t, after.Revisions, 1, "second lock must not append a revision")
}

func TestLock_NeverFailsOnReasonerError(t *testing.T) {
	engine, g, gl := newEngine(t, &scriptedReasoner{rationaleErr: errors.New("model offline")}, &scriptedCalendar{})

	snap, err := engine.Lock(context.Background(), gl.ID)
	require.NoError(t, err, "lock must degrade, not fail")
	assert.Equal(t, DefaultLockRationale, snap.Rationale)

	locked, _ := g.Get(gl.ID)
	assert.True(t, locked.Locked)
}

func TestLock_RejectsGoalWithNothingToSnapshot(t *testing.T) {
	engine, g, _ := newEngine(t, &scriptedReasoner{}, &scriptedCalendar{})
	blank := goal.New("   ", "", "", goal.KindEvent)
	require.NoError(t, g.Insert(blank, ""))

	_, err := engine.Lock(context.Background(), blank.ID)
	assert.ErrorIs(t, err, goal.ErrNothingToLock)
}

func TestLockUnlock_RestoresMutabilityWithTwoRevisions(t *testing.T) {
	engine, g, gl := newEngine(t, &scriptedReasoner{rationale: "hold"}, &scriptedCalendar{})

	_, err := engine.Lock(context.Background(), gl.ID)
	require.NoError(t, err)
	require.NoError(t, engine.Unlock(context.Background(), gl.ID, "editing again"))

	after, _ := g.Get(gl.ID)
	assert.False(t, after.Locked)
	assert.Nil(t, after.LockSnapshot)
	require.Len(t, after.Revisions, 2, "lock then unlock must append exactly two revisions")
	assert.Equal(t, "Unlocked: editing again", after.Revisions[1].Summary)

	// Mutability is restored.
	require.NoError(t, g.Update(gl.ID, func(w *goal.Goal) error {
		w.Title = "Launch the public beta"
		return nil
	}))
	edited, _ := g.Get(gl.ID)
	assert.Equal(t, "Launch the public beta", edited.Title)
}

func TestUnlock_NotLockedIsNoOp(t *testing.T) {
	engine, g, gl := newEngine(t, &scriptedReasoner{}, &scriptedCalendar{})

	require.NoError(t, engine.Unlock(context.Background(), gl.ID, "whatever"))
	after, _ := g.Get(gl.ID)
	assert.Empty(t, after.Revisions)
}

func TestRegenerate_ReplacesContentUnderOneRevision(t *testing.T) {
	engine, g, gl := newEngine(t, &scriptedReasoner{regen: &reasoning.RegenerationProposal{
		Title:     "Open the beta to everyone",
		Body:      "remove the invite gate",
		Rationale: "framing was too narrow",
	}}, &scriptedCalendar{})

	updated, err := engine.Regenerate(context.Background(), gl.ID)
	require.NoError(t, err)
	assert.Equal(t, "Open the beta to everyone", updated.Title)
	assert.Equal(t, "remove the invite gate", updated.Body)

	require.Len(t, updated.Revisions, 1)
	rev := updated.Revisions[0]
	assert.Equal(t, "Regenerated", rev.Summary)
	require.NotNil(t, rev.Before)
	require.NotNil(t, rev.After)
	assert.Equal(t, "Launch the beta", rev.Before.Title)
	assert.Equal(t, "Open the beta to everyone", rev.After.Title)

	stored, _ := g.Get(gl.ID)
	assert.Equal(t, "Open the beta to everyone", stored.Title)
}

func TestRegenerate_LockedLeavesContentByteIdentical(t *testing.T) {
	reasoner := &scriptedReasoner{rationale: "hold", regen: &reasoning.RegenerationProposal{Title: "X"}}
	engine, g, gl := newEngine(t, reasoner, &scriptedCalendar{})
	_, err := engine.Lock(context.Background(), gl.ID)
	require.NoError(t, err)

	_, err = engine.Regenerate(context.Background(), gl.ID)
	var lockErr *goal.LockedError
	require.ErrorAs(t, err, &lockErr)
	assert.Equal(t, 0, reasoner.regenCalls, "collaborator must not be consulted for a locked goal")

	after, _ := g.Get(gl.ID)
	assert.Equal(t, "Launch the beta", after.Title)
	assert.Equal(t, "invite 50 users", after.Body)
}

func TestRegenerate_CollaboratorFailureLeavesGoalUntouched(t *testing.T) {
	engine, g, gl := newEngine(t, &scriptedReasoner{regenErr: errors.New("model overloaded")}, &scriptedCalendar{})

	_, err := engine.Regenerate(context.Background(), gl.ID)
	require.Error(t, err)

	after, _ := g.Get(gl.ID)
	assert.Equal(t, "Launch the beta", after.Title)
	assert.Empty(t, after.Revisions)
}

func TestGeneratePlan_ReturnsSessionsWithoutMutation(t *testing.T) {
	start := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	plan := []reasoning.Session{
		{Title: "Kickoff", Start: start, Duration: time.Hour},
		{Title: "Deep work", Start: start.Add(24 * time.Hour), Duration: 2 * time.Hour},
	}
	engine, g, gl := newEngine(t, &scriptedReasoner{plan: plan}, &scriptedCalendar{})

	got, err := engine.GeneratePlan(context.Background(), gl.ID)
	require.NoError(t, err)
	assert.Len(t, got, 2)

	after, _ := g.Get(gl.ID)
	assert.Equal(t, goal.StatusDraft, after.Status)
	assert.Empty(t, after.Events)
	assert.Empty(t, after.Revisions)
}

func TestGeneratePlan_LockedRejected(t *testing.T) {
	engine, _, gl := newEngine(t, &scriptedReasoner{rationale: "hold"}, &scriptedCalendar{})
	_, err := engine.Lock(context.Background(), gl.ID)
	require.NoError(t, err)

	_, err = engine.GeneratePlan(context.Background(), gl.ID)
	var lockErr *goal.LockedError
	assert.ErrorAs(t, err, &lockErr)
}

func TestConfirmActivation_FullSuccessActivates(t *testing.T) {
	start := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	plan := []reasoning.Session{
		{Title: "Kickoff", Start: start, Duration: time.Hour},
		{Title: "Review", Start: start.Add(48 * time.Hour), Duration: 30 * time.Minute},
	}
	cal := &scriptedCalendar{}
	engine, g, gl := newEngine(t, &scriptedReasoner{}, cal)

	require.NoError(t, engine.ConfirmActivation(context.Background(), gl.ID, plan))

	after, _ := g.Get(gl.ID)
	assert.Equal(t, goal.StatusActive, after.Status)
	require.NotNil(t, after.ActivatedAt)
	require.Len(t, after.Events, 2)
	for i, link := range after.Events {
		assert.Equal(t, goal.EventConfirmed, link.Status, "link %d", i)
		assert.NotEmpty(t, link.EventID, "link %d", i)
	}
	assert.Equal(t, []string{"Kickoff", "Review"}, cal.createdTitles)
	require.NotEmpty(t, after.Revisions)
	assert.Equal(t, "Activated", after.Revisions[len(after.Revisions)-1].Summary)
}

func TestConfirmActivation_MidPlanFailureKeepsConfirmedLinks(t *testing.T) {
	start := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	plan := []reasoning.Session{
		{Title: "First", Start: start, Duration: time.Hour},
		{Title: "Second", Start: start.Add(time.Hour), Duration: time.Hour},
		{Title: "Third", Start: start.Add(2 * time.Hour), Duration: time.Hour},
	}
	cal := &scriptedCalendar{failAtCall: 2}
	engine, g, gl := newEngine(t, &scriptedReasoner{}, cal)

	err := engine.ConfirmActivation(context.Background(), gl.ID, plan)
	var partial *goal.PartialActivationError
	require.ErrorAs(t, err, &partial)
	assert.Equal(t, gl.ID, partial.GoalID)
	assert.Equal(t, "Second", partial.FailedAt)
	require.Len(t, partial.Confirmed, 1)
	assert.Equal(t, "First", partial.Confirmed[0].Title)

	after, _ := g.Get(gl.ID)
	assert.Equal(t, goal.StatusDraft, after.Status, "goal must stay draft on partial failure")
	assert.Nil(t, after.ActivatedAt)
	require.Len(t, after.Events, 1, "only the confirmed link survives")
	assert.Equal(t, goal.EventConfirmed, after.Events[0].Status)
	assert.Equal(t, 2, cal.calls, "no further calendar calls after the failure")
}

func TestDeactivate_CancelsPendingLinksAndIsLockProof(t *testing.T) {
	cal := &scriptedCalendar{}
	engine, g, gl := newEngine(t, &scriptedReasoner{rationale: "hold"}, cal)

	now := time.Now().UTC()
	require.NoError(t, g.Update(gl.ID, func(w *goal.Goal) error {
		w.Status = goal.StatusActive
		w.ActivatedAt = &now
		w.Events = []goal.EventLink{
			{EventID: "evt-a", Title: "Confirmed one", Status: goal.EventConfirmed},
			{EventID: "evt-b", Title: "Stuck proposed", Status: goal.EventProposed},
			{Title: "Local proposed", Status: goal.EventProposed},
		}
		return nil
	}))
	_, err := engine.Lock(context.Background(), gl.ID)
	require.NoError(t, err)

	require.NoError(t, engine.Deactivate(context.Background(), gl.ID, goal.StatusDraft, "plans changed"))

	after, _ := g.Get(gl.ID)
	assert.Equal(t, goal.StatusDraft, after.Status)
	assert.Equal(t, goal.EventConfirmed, after.Events[0].Status, "confirmed links are untouched")
	assert.Equal(t, goal.EventCancelled, after.Events[1].Status)
	assert.Equal(t, goal.EventCancelled, after.Events[2].Status)
	assert.Equal(t, []string{"evt-b"}, cal.cancelledIDs, "only id-carrying pending links cancel externally")

	last := after.Revisions[len(after.Revisions)-1]
	assert.Contains(t, last.Summary, "Deactivated")
	assert.Equal(t, "plans changed", last.Rationale)
}

func TestComplete_StampsAndRefreshesParentAggregate(t *testing.T) {
	engine, g, parent := newEngine(t, &scriptedReasoner{}, &scriptedCalendar{})
	done := goal.New("First half", "", "", goal.KindEvent)
	rest := goal.New("Second half", "", "", goal.KindEvent)
	require.NoError(t, g.Insert(done, parent.ID))
	require.NoError(t, g.Insert(rest, parent.ID))

	require.NoError(t, engine.Complete(context.Background(), done.ID))

	after, _ := g.Get(done.ID)
	assert.Equal(t, goal.StatusCompleted, after.Status)
	assert.Equal(t, 1.0, after.Progress)
	require.NotNil(t, after.CompletedAt)
	assert.Equal(t, "Completed", after.Revisions[len(after.Revisions)-1].Summary)

	p, _ := g.Get(parent.ID)
	assert.Equal(t, 0.5, p.Progress, "parent stored aggregate refreshed to leaf average")

	aggregate, err := g.Progress(parent.ID)
	require.NoError(t, err)
	assert.Equal(t, 0.5, aggregate)
}
