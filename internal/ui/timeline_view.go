package ui

import (
	"fmt"
	"strings"

	"github.com/stridehq/stride/internal/timeline"
)

// RenderTimeline renders projected entries grouped by start date. Entries
// arrive already sorted from the projection.
func RenderTimeline(entries []timeline.Entry, h timeline.Horizon) string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf(" 🗓  Timeline %s → %s\n",
		h.Start.Format("Jan 02 2006"), h.End.Format("Jan 02 2006")))
	sb.WriteString(StyleSubtle.Render(strings.Repeat("─", 50)) + "\n")

	if len(entries) == 0 {
		sb.WriteString(StyleSubtle.Render(" nothing scheduled in this window") + "\n")
		return sb.String()
	}

	lastDay := ""
	for _, e := range entries {
		day := e.Start.Format("Jan 02")
		dayCell := strings.Repeat(" ", len(day))
		if day != lastDay {
			dayCell = StyleTitle.Render(day)
			lastDay = day
		}

		line := fmt.Sprintf(" %s  %s %s", dayCell, EntryIcon(e.Kind), StyleText.Render(e.Title))
		if !e.End.Equal(e.Start) {
			line += StyleSubtle.Render(fmt.Sprintf(" → %s", e.End.Format("Jan 02")))
		}
		if e.Confidence > 0 {
			line += StyleSelectBadge.Render(fmt.Sprintf(" ~%.0f%%", e.Confidence*100))
		}
		if e.MetricSummary != "" {
			line += StyleSubtle.Render(" " + e.MetricSummary)
		}
		sb.WriteString(line + "\n")

		if e.Detail != "" {
			sb.WriteString(StyleSubtle.Render(fmt.Sprintf(" %s    %s", strings.Repeat(" ", len(day)), e.Detail)) + "\n")
		}
		if e.Annotation != nil {
			renderAnnotation(&sb, e.Annotation, len(day))
		}
	}
	return sb.String()
}

func renderAnnotation(sb *strings.Builder, a *timeline.Annotation, indent int) {
	pad := strings.Repeat(" ", indent)
	if a.Outcome != "" {
		sb.WriteString(fmt.Sprintf(" %s    %s\n", pad, StyleSuccess.Render("✓ "+a.Outcome)))
	}
	for _, hl := range a.Highlights {
		sb.WriteString(fmt.Sprintf(" %s    %s\n", pad, StyleSubtle.Render("· "+hl)))
	}
	if a.RecommendedAction != "" {
		sb.WriteString(fmt.Sprintf(" %s    %s\n", pad, StyleWarning.Render("→ "+a.RecommendedAction)))
	}
}

// EntryIcon returns the icon for a timeline entry kind.
func EntryIcon(k timeline.Kind) string {
	switch k {
	case timeline.KindEvent:
		return "📅"
	case timeline.KindProjection:
		return "🔮"
	case timeline.KindPhase:
		return "🧭"
	case timeline.KindMetricCheckpoint:
		return "📊"
	default:
		return "•"
	}
}
