// Package ui renders stride's terminal output: the lipgloss style palette,
// goal list and timeline views, the interactive goal picker, and the wait
// view shown during reasoning calls.
package ui

import (
	"errors"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"golang.org/x/term"
)

// ErrCancelled is returned when the user backs out of an interactive view.
var ErrCancelled = errors.New("cancelled")

// IsInteractive reports whether both stdin and stdout are terminals.
// Prompts read stdin, so a piped input disables them just like piped output.
func IsInteractive() bool {
	return term.IsTerminal(int(os.Stdin.Fd())) && term.IsTerminal(int(os.Stdout.Fd()))
}

// RenderPanel draws content in a rounded box with a bold title line, the
// block-level emphasis used by the goal detail view.
func RenderPanel(title, content string) string {
	box := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(ColorSecondary).
		Padding(0, 1)

	if title == "" {
		return box.Render(content)
	}
	heading := lipgloss.NewStyle().Bold(true).Foreground(ColorPrimary).Render(title)
	return box.Render(heading + "\n" + content)
}

// Truncate cuts s to maxLen runes, marking the cut with an ellipsis when
// there is room for one. Zero and negative lengths leave s alone.
func Truncate(s string, maxLen int) string {
	if maxLen <= 0 {
		return s
	}
	r := []rune(s)
	if len(r) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return string(r[:maxLen])
	}
	return string(r[:maxLen-3]) + "..."
}

// WrapText greedily wraps text at width columns, preserving existing line
// breaks. Widths count runes, so multibyte text breaks where it looks right.
func WrapText(text string, width int) string {
	if width <= 0 {
		return text
	}
	var out []string
	for _, line := range strings.Split(text, "\n") {
		out = append(out, wrapLine(line, width)...)
	}
	return strings.Join(out, "\n")
}

func wrapLine(line string, width int) []string {
	if len([]rune(line)) <= width {
		return []string{line}
	}

	var wrapped []string
	var cur strings.Builder
	curWidth := 0
	for _, word := range strings.Fields(line) {
		w := len([]rune(word))
		switch {
		case curWidth == 0:
			cur.WriteString(word)
			curWidth = w
		case curWidth+1+w <= width:
			cur.WriteByte(' ')
			cur.WriteString(word)
			curWidth += 1 + w
		default:
			wrapped = append(wrapped, cur.String())
			cur.Reset()
			cur.WriteString(word)
			curWidth = w
		}
	}
	if curWidth > 0 {
		wrapped = append(wrapped, cur.String())
	}
	if len(wrapped) == 0 {
		return []string{""}
	}
	return wrapped
}
