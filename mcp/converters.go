/*
Copyright © 2026 Stride contributors
*/
package mcp

import (
	"time"

	"github.com/stridehq/stride/internal/goal"
	"github.com/stridehq/stride/internal/reasoning"
	"github.com/stridehq/stride/internal/timeline"
)

const stamp = "2006-01-02T15:04:05Z"

func goalToSummary(g *goal.Goal) GoalSummary {
	s := GoalSummary{
		ID:            g.ID,
		Title:         g.Title,
		Body:          g.Body,
		Category:      g.Category,
		Status:        string(g.Status),
		Kind:          string(g.Kind),
		Priority:      string(g.Priority),
		Progress:      g.Progress,
		ParentID:      g.ParentID,
		Locked:        g.Locked,
		Roadmap:       g.SequentialSteps,
		StepStatus:    string(g.StepStatus),
		EstimateHours: g.EstimateHours,
		CreatedAt:     g.CreatedAt.UTC().Format(stamp),
		UpdatedAt:     g.UpdatedAt.UTC().Format(stamp),
	}
	if g.TargetDate != nil {
		s.TargetDate = g.TargetDate.Format("2006-01-02")
	}
	if g.CompletedAt != nil {
		s.CompletedAt = g.CompletedAt.UTC().Format(stamp)
	}
	return s
}

func goalToSummaryPtr(g *goal.Goal) *GoalSummary {
	if g == nil {
		return nil
	}
	s := goalToSummary(g)
	return &s
}

func goalsToSummaries(goals []*goal.Goal) []GoalSummary {
	out := make([]GoalSummary, 0, len(goals))
	for _, g := range goals {
		out = append(out, goalToSummary(g))
	}
	return out
}

func sessionsToSummaries(sessions []reasoning.Session) []SessionSummary {
	out := make([]SessionSummary, 0, len(sessions))
	for _, s := range sessions {
		out = append(out, SessionSummary{
			Title:       s.Title,
			Start:       s.Start.UTC().Format(stamp),
			DurationMin: int(s.Duration / time.Minute),
		})
	}
	return out
}

func entriesToWire(entries []timeline.Entry) []TimelineEntry {
	out := make([]TimelineEntry, 0, len(entries))
	for _, e := range entries {
		out = append(out, TimelineEntry{
			Kind:          string(e.Kind),
			Title:         e.Title,
			Detail:        e.Detail,
			Start:         e.Start.Format("2006-01-02"),
			End:           e.End.Format("2006-01-02"),
			MetricSummary: e.MetricSummary,
			Confidence:    e.Confidence,
		})
	}
	return out
}
