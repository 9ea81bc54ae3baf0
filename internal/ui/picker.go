package ui

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stridehq/stride/internal/goal"
)

// pickerOption is one selectable row in the goal picker.
type pickerOption struct {
	id    string
	title string
	badge string
	dim   bool
}

// PickerModel is the bubbletea model for interactive goal selection.
type PickerModel struct {
	title    string
	options  []pickerOption
	cursor   int
	selected string
	quit     bool
}

// NewGoalPicker builds a picker over the given goals. Closed goals render
// dimmed but stay selectable.
func NewGoalPicker(title string, goals []*goal.Goal) PickerModel {
	options := make([]pickerOption, 0, len(goals))
	for _, g := range goals {
		badge := fmt.Sprintf("%s %s", StatusIcon(g.Status), g.Priority)
		if g.Locked {
			badge += " 🔒"
		}
		options = append(options, pickerOption{
			id:    g.ID,
			title: Truncate(g.Title, 60),
			badge: badge,
			dim:   g.Status == goal.StatusCompleted || g.Status == goal.StatusArchived,
		})
	}
	return PickerModel{title: title, options: options}
}

func (m PickerModel) Init() tea.Cmd {
	return nil
}

func (m PickerModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	key, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}

	switch key.String() {
	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
		}
	case "down", "j":
		if m.cursor+1 < len(m.options) {
			m.cursor++
		}
	case "enter":
		if len(m.options) > 0 {
			m.selected = m.options[m.cursor].id
		}
		return m, tea.Quit
	case "ctrl+c", "q", "esc":
		m.quit = true
		return m, tea.Quit
	}
	return m, nil
}

func (m PickerModel) View() string {
	if m.quit || m.selected != "" {
		return ""
	}

	var sb strings.Builder
	sb.WriteString(StyleSelectTitle.Render(m.title) + "\n")

	for i, opt := range m.options {
		cursor := "  "
		lineStyle := StyleSelectNormal
		if opt.dim {
			lineStyle = StyleSelectDim
		}
		if i == m.cursor {
			cursor = StyleSelectActive.Render("▶ ")
			lineStyle = StyleSelectActive
		}
		sb.WriteString(fmt.Sprintf("%s%s %s\n",
			cursor,
			lineStyle.Render(opt.title),
			StyleSelectBadge.Render(opt.badge)))
	}

	sb.WriteString("\n" + StyleSubtle.Render("↑/↓ move • enter select • esc cancel") + "\n")
	return sb.String()
}

// PickGoal runs the interactive picker and returns the chosen goal id.
// Returns ErrCancelled when the user backs out.
func PickGoal(title string, goals []*goal.Goal) (string, error) {
	if len(goals) == 0 {
		return "", fmt.Errorf("no goals to pick from")
	}

	final, err := tea.NewProgram(NewGoalPicker(title, goals)).Run()
	if err != nil {
		return "", fmt.Errorf("run goal picker: %w", err)
	}

	m, ok := final.(PickerModel)
	if !ok {
		return "", fmt.Errorf("unexpected picker model type")
	}
	if m.quit || m.selected == "" {
		return "", ErrCancelled
	}
	return m.selected, nil
}
