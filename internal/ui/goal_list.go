package ui

import (
	"fmt"
	"math"
	"strings"

	"github.com/stridehq/stride/internal/goal"
)

// statusOrder fixes the group order in list views: work in flight first,
// then drafts, then the closed states.
var statusOrder = []goal.Status{
	goal.StatusActive,
	goal.StatusDraft,
	goal.StatusCompleted,
	goal.StatusArchived,
}

// RenderGoalList renders goals grouped by status in compact mode.
// For full metadata use RenderGoalListVerbose.
func RenderGoalList(goals []*goal.Goal) string {
	return renderGoalList(goals, false)
}

// RenderGoalListVerbose renders goals with full metadata (ID, priority,
// progress, target date).
func RenderGoalListVerbose(goals []*goal.Goal) string {
	return renderGoalList(goals, true)
}

func renderGoalList(goals []*goal.Goal, verbose bool) string {
	byStatus := make(map[goal.Status][]*goal.Goal)
	for _, g := range goals {
		byStatus[g.Status] = append(byStatus[g.Status], g)
	}

	var stats []string
	for _, s := range statusOrder {
		if count := len(byStatus[s]); count > 0 {
			stats = append(stats, fmt.Sprintf("%s %d", StatusIcon(s), count))
		}
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf(" 🎯 Goals: %d (%s)\n", len(goals), strings.Join(stats, " • ")))
	sb.WriteString(StyleSubtle.Render(strings.Repeat("─", 50)) + "\n")

	if verbose {
		renderVerboseGroups(&sb, byStatus)
	} else {
		renderCompactGroups(&sb, byStatus)
	}
	return sb.String()
}

func renderCompactGroups(sb *strings.Builder, byStatus map[goal.Status][]*goal.Goal) {
	for _, s := range statusOrder {
		group := byStatus[s]
		if len(group) == 0 {
			continue
		}

		sb.WriteString(StyleHeader.Render(fmt.Sprintf("%s %s", StatusIcon(s), statusHeading(s))) + "\n")

		for _, g := range group {
			line := fmt.Sprintf(" • %s %s", StyleTitle.Render(Truncate(g.Title, 60)), PriorityLabel(g.Priority))
			if g.Status == goal.StatusActive && g.Progress > 0 {
				line += " " + StyleSubtle.Render(fmt.Sprintf("%.0f%%", g.Progress*100))
			}
			if g.Locked {
				line += " 🔒"
			}
			sb.WriteString(line + "\n")
		}
		sb.WriteString("\n")
	}
}

func renderVerboseGroups(sb *strings.Builder, byStatus map[goal.Status][]*goal.Goal) {
	for _, s := range statusOrder {
		group := byStatus[s]
		if len(group) == 0 {
			continue
		}

		sb.WriteString(StyleHeader.Render(fmt.Sprintf("%s %s", StatusIcon(s), statusHeading(s))) + "\n")

		table := &Table{
			Headers:  []string{"ID", "Title", "Kind", "Priority", "Progress", "Target"},
			MaxWidth: 40,
		}

		for _, g := range group {
			target := "-"
			if g.TargetDate != nil {
				target = g.TargetDate.Format("Jan 02 2006")
			}

			table.Rows = append(table.Rows, []string{
				TruncateID(g.ID),
				g.Title,
				string(g.Kind),
				string(g.Priority),
				fmt.Sprintf("%.0f%%", g.Progress*100),
				target,
			})
		}

		sb.WriteString(table.Render())
		sb.WriteString("\n")
	}
}

func statusHeading(s goal.Status) string {
	switch s {
	case goal.StatusActive:
		return "Active"
	case goal.StatusDraft:
		return "Drafts"
	case goal.StatusCompleted:
		return "Completed"
	case goal.StatusArchived:
		return "Archived"
	default:
		return string(s)
	}
}

// StatusIcon returns the icon for a goal status.
func StatusIcon(s goal.Status) string {
	switch s {
	case goal.StatusDraft:
		return "📝"
	case goal.StatusActive:
		return "🔥"
	case goal.StatusCompleted:
		return "✅"
	case goal.StatusArchived:
		return "📦"
	default:
		return "❓"
	}
}

// KindIcon returns the icon for a goal kind.
func KindIcon(k goal.Kind) string {
	switch k {
	case goal.KindEvent:
		return "📅"
	case goal.KindCampaign:
		return "📈"
	case goal.KindHybrid:
		return "🔀"
	default:
		return "❓"
	}
}

// PriorityLabel returns a styled bracket label for a priority.
func PriorityLabel(p goal.Priority) string {
	switch p {
	case goal.PriorityNow:
		return StyleUrgent.Render("[now]")
	case goal.PriorityNext:
		return StyleWarning.Render("[next]")
	default:
		return StyleSubtle.Render("[later]")
	}
}

// ProgressBar renders a plain-text bar for a 0..1 fraction. Plain text so it
// stays aligned inside padded layouts.
func ProgressBar(fraction float64, width int) string {
	if width <= 0 {
		width = 10
	}
	if fraction < 0 {
		fraction = 0
	}
	if fraction > 1 {
		fraction = 1
	}
	filled := int(math.Round(fraction * float64(width)))
	return fmt.Sprintf("%s%s %3.0f%%",
		strings.Repeat("█", filled),
		strings.Repeat("░", width-filled),
		fraction*100)
}
