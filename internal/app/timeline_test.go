package app

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stridehq/stride/internal/goal"
)

func setEvent(t *testing.T, c *Context, id string, title string, start time.Time) {
	t.Helper()
	require.NoError(t, c.Graph.Update(id, func(w *goal.Goal) error {
		w.Events = append(w.Events, goal.EventLink{
			EventID: "evt-" + title,
			Title:   title,
			Start:   start,
			End:     start.Add(time.Hour),
			Status:  goal.EventConfirmed,
		})
		return nil
	}))
}

func TestWindow_AggregatesAcrossGoals(t *testing.T) {
	c, _ := newTestContext(t)
	app := NewTimelineApp(c)
	from := time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC)

	launch := seedGoal(t, c, "Launch week")
	activated := from
	target := from.AddDate(0, 0, 5)
	require.NoError(t, c.Graph.Update(launch.ID, func(w *goal.Goal) error {
		w.Status = goal.StatusActive
		w.ActivatedAt = &activated
		w.TargetDate = &target
		return nil
	}))
	setEvent(t, c, launch.ID, "Kickoff", from.AddDate(0, 0, 2))

	review := seedGoal(t, c, "Design review")
	setEvent(t, c, review.ID, "Review session", from.AddDate(0, 0, 1))

	res, err := app.Window(context.Background(), TimelineOptions{From: from, Days: 7})
	require.NoError(t, err)
	require.True(t, res.Success)
	require.Len(t, res.Goals, 2)
	require.Len(t, res.Entries, 2)
	assert.Equal(t, "Review session", res.Entries[0].Title, "flattened entries order by start across goals")
	assert.Equal(t, "Kickoff", res.Entries[1].Title)
}

func TestWindow_IncludesActivatedGoalWithoutEntries(t *testing.T) {
	c, _ := newTestContext(t)
	app := NewTimelineApp(c)
	from := time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC)

	quiet := seedGoal(t, c, "Quiet but active")
	activated := from.AddDate(0, 0, 1)
	require.NoError(t, c.Graph.Update(quiet.ID, func(w *goal.Goal) error {
		w.Status = goal.StatusActive
		w.ActivatedAt = &activated
		return nil
	}))

	res, err := app.Window(context.Background(), TimelineOptions{From: from, Days: 7})
	require.NoError(t, err)
	require.Len(t, res.Goals, 1, "an activated goal is in horizon even with nothing scheduled")
	assert.Empty(t, res.Goals[0].Entries)
}

func TestWindow_RefScopesToOneGoal(t *testing.T) {
	c, _ := newTestContext(t)
	app := NewTimelineApp(c)
	from := time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC)

	launch := seedGoal(t, c, "Launch week")
	setEvent(t, c, launch.ID, "Kickoff", from.AddDate(0, 0, 2))
	other := seedGoal(t, c, "Other goal")
	setEvent(t, c, other.ID, "Unrelated", from.AddDate(0, 0, 3))

	res, err := app.Window(context.Background(), TimelineOptions{Ref: "launch week", From: from, Days: 7})
	require.NoError(t, err)
	require.Len(t, res.Goals, 1)
	assert.Equal(t, launch.ID, res.Goals[0].Goal.ID)
	require.Len(t, res.Entries, 1)
	assert.Equal(t, "Kickoff", res.Entries[0].Title)
}

func TestWindow_SkipsArchivedAndOutOfWindow(t *testing.T) {
	c, _ := newTestContext(t)
	app := NewTimelineApp(c)
	from := time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC)

	archived := seedGoal(t, c, "Archived goal")
	setEvent(t, c, archived.ID, "Ghost event", from.AddDate(0, 0, 1))
	require.NoError(t, c.Graph.Update(archived.ID, func(w *goal.Goal) error {
		w.Status = goal.StatusArchived
		return nil
	}))

	late := seedGoal(t, c, "Far future")
	setEvent(t, c, late.ID, "Next quarter", from.AddDate(0, 3, 0))

	res, err := app.Window(context.Background(), TimelineOptions{From: from, Days: 7})
	require.NoError(t, err)
	assert.Empty(t, res.Goals)
	assert.Contains(t, res.Message, "Nothing scheduled")
}

func TestWindow_UnknownRef(t *testing.T) {
	c, _ := newTestContext(t)
	app := NewTimelineApp(c)

	res, err := app.Window(context.Background(), TimelineOptions{Ref: "missing"})
	require.NoError(t, err)
	assert.False(t, res.Success)
	assert.Contains(t, res.Hint, "stride list")
}
