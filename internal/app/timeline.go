package app

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/stridehq/stride/internal/goal"
	"github.com/stridehq/stride/internal/timeline"
)

// GoalTimeline groups one goal's projected entries.
type GoalTimeline struct {
	Goal    *goal.Goal       `json:"goal"`
	Entries []timeline.Entry `json:"entries,omitempty"`
}

// TimelineResult is the response for timeline projection.
type TimelineResult struct {
	Success bool             `json:"success"`
	Message string           `json:"message,omitempty"`
	Hint    string           `json:"hint,omitempty"`
	Horizon timeline.Horizon `json:"horizon"`

	// Goals holds per-goal groups; Entries is the same rows flattened and
	// ordered by start across goals.
	Goals   []GoalTimeline   `json:"goals,omitempty"`
	Entries []timeline.Entry `json:"entries,omitempty"`
}

// TimelineOptions configures the projection window.
type TimelineOptions struct {
	Ref  string    // Optional: project a single goal
	From time.Time // Window start; zero means today
	Days int       // Window length in days; 0 uses the default span
}

// TimelineApp projects scheduled events, forecasts, roadmap phases, and
// metric checkpoints onto a date window.
// CLI and MCP are both thin layers over this type.
type TimelineApp struct {
	ctx *Context
}

// NewTimelineApp creates a new timeline application service.
func NewTimelineApp(ctx *Context) *TimelineApp {
	return &TimelineApp{ctx: ctx}
}

// Window projects goals onto the requested horizon. Without a ref every
// non-archived goal that intersects the window contributes; roadmap steps
// never appear on their own, their sections show up as phases of the parent.
func (a *TimelineApp) Window(ctx context.Context, opts TimelineOptions) (*TimelineResult, error) {
	from := opts.From
	if from.IsZero() {
		from = time.Now().UTC().Truncate(24 * time.Hour)
	}
	days := opts.Days
	if days <= 0 {
		days = timeline.DefaultSpanDays
	}
	h := timeline.Horizon{Start: from, End: from.AddDate(0, 0, days)}

	var candidates []*goal.Goal
	if opts.Ref != "" {
		gl, err := a.ctx.Resolve(opts.Ref)
		if err != nil {
			msg, hint, ok := domainFailure(err)
			if !ok {
				return nil, err
			}
			return &TimelineResult{Success: false, Message: msg, Hint: hint, Horizon: h}, nil
		}
		candidates = []*goal.Goal{gl}
	} else {
		for _, gl := range a.ctx.Graph.AllGoals() {
			if gl.IsStep() || gl.Status == goal.StatusArchived {
				continue
			}
			candidates = append(candidates, gl)
		}
		sort.SliceStable(candidates, func(i, j int) bool {
			return candidates[i].Title < candidates[j].Title
		})
	}

	res := &TimelineResult{Success: true, Horizon: h}
	for _, gl := range candidates {
		entries := timeline.Build(gl, h)
		if len(entries) == 0 && !timeline.InHorizon(gl, h) {
			continue
		}
		res.Goals = append(res.Goals, GoalTimeline{Goal: gl, Entries: entries})
		res.Entries = append(res.Entries, entries...)
	}
	sort.SliceStable(res.Entries, func(i, j int) bool {
		return res.Entries[i].Start.Before(res.Entries[j].Start)
	})

	if len(res.Goals) == 0 {
		window := fmt.Sprintf("%s and %s", h.Start.Format("2006-01-02"), h.End.Format("2006-01-02"))
		if opts.Ref != "" && len(candidates) == 1 {
			res.Message = fmt.Sprintf("Nothing on the timeline for %q between %s.", candidates[0].Title, window)
			res.Hint = "Activate the goal to give it a scheduled span."
		} else {
			res.Message = fmt.Sprintf("Nothing scheduled between %s.", window)
			res.Hint = "Activate a goal with 'stride activate' to put sessions on the calendar."
		}
	}
	return res, nil
}
