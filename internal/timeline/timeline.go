// Package timeline projects a goal's scheduled events, forecasts, roadmap
// phases, and metric checkpoints onto a date horizon. Projection is a pure
// read over a goal snapshot.
package timeline

import (
	"fmt"
	"sort"
	"time"

	"github.com/stridehq/stride/internal/goal"
)

// DefaultSpanDays is the implied span length when an activated goal has no
// target date.
const DefaultSpanDays = 14

// Kind tags a timeline entry. The ordinal drives tie-breaking when entries
// share a start.
type Kind string

const (
	KindEvent            Kind = "event"
	KindProjection       Kind = "projection"
	KindPhase            Kind = "phase"
	KindMetricCheckpoint Kind = "metricCheckpoint"
)

func (k Kind) ordinal() int {
	switch k {
	case KindEvent:
		return 0
	case KindProjection:
		return 1
	case KindPhase:
		return 2
	case KindMetricCheckpoint:
		return 3
	default:
		return 4
	}
}

// Annotation is intelligence attached by an external enrichment pass. Never
// required for correctness; Build leaves it nil.
type Annotation struct {
	Outcome           string   `json:"outcome,omitempty"`
	Highlights        []string `json:"highlights,omitempty"`
	RecommendedAction string   `json:"recommendedAction,omitempty"`
}

// Entry is one row of a projected timeline.
type Entry struct {
	Kind          Kind        `json:"kind"`
	Title         string      `json:"title"`
	Detail        string      `json:"detail,omitempty"`
	Start         time.Time   `json:"start"`
	End           time.Time   `json:"end"`
	MetricSummary string      `json:"metricSummary,omitempty"`
	Confidence    float64     `json:"confidence,omitempty"`
	Annotation    *Annotation `json:"annotation,omitempty"`
}

// Horizon is the inclusive date window a projection covers.
type Horizon struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

func (h Horizon) intersects(start, end time.Time) bool {
	return !start.After(h.End) && !h.Start.After(end)
}

// Build returns the goal's timeline entries inside the horizon, sorted by
// start date with ties broken event < projection < phase < metricCheckpoint.
func Build(gl *goal.Goal, h Horizon) []Entry {
	if gl == nil {
		return nil
	}
	var entries []Entry

	for _, link := range gl.Events {
		if link.Status == goal.EventCancelled {
			continue
		}
		if !h.intersects(link.Start, link.End) {
			continue
		}
		entries = append(entries, Entry{
			Kind:  KindEvent,
			Title: link.Title,
			Start: link.Start,
			End:   link.End,
		})
	}

	for _, p := range gl.Projections {
		if p.Status == goal.ProjectionComplete || p.Status == goal.ProjectionSkipped {
			continue
		}
		if !h.intersects(p.Start, p.End) {
			continue
		}
		entries = append(entries, Entry{
			Kind:       KindProjection,
			Title:      p.Title,
			Detail:     p.Detail,
			Start:      p.Start,
			End:        p.End,
			Confidence: p.Confidence,
		})
	}

	entries = append(entries, phaseEntries(gl, h)...)

	if cp, ok := metricCheckpoint(gl); ok && h.intersects(cp.Start, cp.End) {
		entries = append(entries, cp)
	}

	sort.SliceStable(entries, func(i, j int) bool {
		if !entries[i].Start.Equal(entries[j].Start) {
			return entries[i].Start.Before(entries[j].Start)
		}
		return entries[i].Kind.ordinal() < entries[j].Kind.ordinal()
	})
	return entries
}

// InHorizon reports whether the goal's implied span overlaps the horizon.
// A goal can be in horizon with zero entries; callers use this to decide
// whether to render an empty-but-relevant row.
func InHorizon(gl *goal.Goal, h Horizon) bool {
	start, end, ok := ImpliedSpan(gl)
	if !ok {
		return false
	}
	return h.intersects(start, end)
}

// ImpliedSpan is activation to target date, or activation plus a default
// window when no target is set. Goals never activated have no span.
func ImpliedSpan(gl *goal.Goal) (start, end time.Time, ok bool) {
	if gl == nil || gl.ActivatedAt == nil {
		return time.Time{}, time.Time{}, false
	}
	start = *gl.ActivatedAt
	if gl.TargetDate != nil && gl.TargetDate.After(start) {
		return start, *gl.TargetDate, true
	}
	return start, start.AddDate(0, 0, DefaultSpanDays), true
}

// phaseEntries maps roadmap step sections proportionally over the implied
// span. A section covering steps [3,6) of a 12-step roadmap occupies the
// quarter of the span starting at its 3/12 mark.
func phaseEntries(gl *goal.Goal, h Horizon) []Entry {
	if !gl.SequentialSteps || len(gl.StepSections) == 0 {
		return nil
	}
	spanStart, spanEnd, ok := ImpliedSpan(gl)
	if !ok {
		return nil
	}
	total := 0
	for _, s := range gl.StepSections {
		if s.EndIndex > total {
			total = s.EndIndex
		}
	}
	if total == 0 {
		return nil
	}

	span := spanEnd.Sub(spanStart)
	var out []Entry
	for _, s := range gl.StepSections {
		if s.EndIndex <= s.StartIndex {
			continue
		}
		start := spanStart.Add(span * time.Duration(s.StartIndex) / time.Duration(total))
		end := spanStart.Add(span * time.Duration(s.EndIndex) / time.Duration(total))
		if !h.intersects(start, end) {
			continue
		}
		out = append(out, Entry{
			Kind:   KindPhase,
			Title:  s.Title,
			Detail: fmt.Sprintf("steps %d-%d", s.StartIndex+1, s.EndIndex),
			Start:  start,
			End:    end,
		})
	}
	return out
}

// metricCheckpoint synthesizes the measurement-window end for campaign goals
// carrying a target metric. The window runs from activation.
func metricCheckpoint(gl *goal.Goal) (Entry, bool) {
	if gl.Kind != goal.KindCampaign || gl.Metric == nil || gl.ActivatedAt == nil {
		return Entry{}, false
	}
	if gl.Metric.WindowDays <= 0 {
		return Entry{}, false
	}
	at := gl.ActivatedAt.AddDate(0, 0, gl.Metric.WindowDays)
	m := gl.Metric
	summary := fmt.Sprintf("%s: %v -> %v", m.Label, m.Baseline, m.Target)
	if m.Unit != "" {
		summary = fmt.Sprintf("%s: %v -> %v %s", m.Label, m.Baseline, m.Target, m.Unit)
	}
	return Entry{
		Kind:          KindMetricCheckpoint,
		Title:         fmt.Sprintf("Measure %s", m.Label),
		Start:         at,
		End:           at,
		MetricSummary: summary,
	}, true
}
