package ui

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stridehq/stride/internal/goal"
)

func sampleGoals() []*goal.Goal {
	active := goal.New("Launch the newsletter", "", "writing", goal.KindCampaign)
	active.Status = goal.StatusActive
	active.Priority = goal.PriorityNow
	active.Progress = 0.4

	draft := goal.New("Plan a garden", "", "home", goal.KindEvent)
	target := time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC)
	draft.TargetDate = &target

	done := goal.New("Read twelve books", "", "learning", goal.KindCampaign)
	done.Status = goal.StatusCompleted
	done.Progress = 1

	return []*goal.Goal{active, draft, done}
}

func TestRenderGoalList_Compact(t *testing.T) {
	out := RenderGoalList(sampleGoals())

	assert.Contains(t, out, "Goals: 3")
	assert.Contains(t, out, "Launch the newsletter")
	assert.Contains(t, out, "Plan a garden")
	assert.Contains(t, out, "Read twelve books")
	assert.Contains(t, out, "Active")
	assert.Contains(t, out, "Drafts")
	assert.Contains(t, out, "Completed")
	// Active progress shown in compact mode.
	assert.Contains(t, out, "40%")
}

func TestRenderGoalList_GroupOrder(t *testing.T) {
	out := RenderGoalList(sampleGoals())

	activeIdx := strings.Index(out, "Launch the newsletter")
	draftIdx := strings.Index(out, "Plan a garden")
	doneIdx := strings.Index(out, "Read twelve books")

	assert.True(t, activeIdx < draftIdx, "active goals should render before drafts")
	assert.True(t, draftIdx < doneIdx, "drafts should render before completed")
}

func TestRenderGoalList_LockedMarker(t *testing.T) {
	g := goal.New("Ship the keynote", "", "work", goal.KindEvent)
	g.Locked = true

	out := RenderGoalList([]*goal.Goal{g})

	assert.Contains(t, out, "🔒")
}

func TestRenderGoalListVerbose(t *testing.T) {
	out := RenderGoalListVerbose(sampleGoals())

	// Table headers and formatted target dates.
	assert.Contains(t, out, "ID")
	assert.Contains(t, out, "Priority")
	assert.Contains(t, out, "Target")
	assert.Contains(t, out, "Apr 01 2026")
	for _, g := range sampleGoals() {
		assert.Contains(t, out, string(g.Kind))
	}
}

func TestStatusIcon(t *testing.T) {
	assert.Equal(t, "📝", StatusIcon(goal.StatusDraft))
	assert.Equal(t, "🔥", StatusIcon(goal.StatusActive))
	assert.Equal(t, "✅", StatusIcon(goal.StatusCompleted))
	assert.Equal(t, "📦", StatusIcon(goal.StatusArchived))
	assert.Equal(t, "❓", StatusIcon(goal.Status("bogus")))
}

func TestKindIcon(t *testing.T) {
	assert.Equal(t, "📅", KindIcon(goal.KindEvent))
	assert.Equal(t, "📈", KindIcon(goal.KindCampaign))
	assert.Equal(t, "🔀", KindIcon(goal.KindHybrid))
}

func TestPriorityLabel(t *testing.T) {
	assert.Contains(t, PriorityLabel(goal.PriorityNow), "now")
	assert.Contains(t, PriorityLabel(goal.PriorityNext), "next")
	assert.Contains(t, PriorityLabel(goal.PriorityLater), "later")
}

func TestProgressBar(t *testing.T) {
	tests := []struct {
		fraction float64
		width    int
		filled   int
	}{
		{0, 10, 0},
		{0.5, 10, 5},
		{1, 10, 10},
		{1.7, 10, 10}, // clamped
		{-0.3, 10, 0}, // clamped
	}

	for _, tc := range tests {
		bar := ProgressBar(tc.fraction, tc.width)
		assert.Equal(t, tc.filled, strings.Count(bar, "█"), "fraction %v", tc.fraction)
		assert.Equal(t, tc.width-tc.filled, strings.Count(bar, "░"), "fraction %v", tc.fraction)
	}
}

func TestProgressBar_Percent(t *testing.T) {
	assert.Contains(t, ProgressBar(0.25, 8), "25%")
	assert.Contains(t, ProgressBar(1, 8), "100%")
}
