package ui

import (
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
)

// waitDoneMsg carries the result of the background call into the model.
type waitDoneMsg struct {
	err error
}

// WaitModel shows a spinner with elapsed time while a reasoning call runs in
// the background. Esc cancels the call through the supplied CancelFunc.
type WaitModel struct {
	Status string

	spinner   spinner.Model
	start     time.Time
	cancel    context.CancelFunc
	run       func() error
	err       error
	done      bool
	cancelled bool
}

// NewWaitModel wraps run in a wait view. cancel may be nil when the call
// cannot be interrupted.
func NewWaitModel(status string, cancel context.CancelFunc, run func() error) WaitModel {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = StylePrimary

	return WaitModel{
		Status:  status,
		spinner: s,
		start:   time.Now(),
		cancel:  cancel,
		run:     run,
	}
}

func (m WaitModel) Init() tea.Cmd {
	return tea.Batch(
		m.spinner.Tick,
		func() tea.Msg { return waitDoneMsg{err: m.run()} },
	)
}

func (m WaitModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "esc":
			if m.cancel != nil {
				m.cancel()
			}
			m.cancelled = true
			return m, tea.Quit
		}

	case waitDoneMsg:
		m.done = true
		m.err = msg.err
		return m, tea.Quit

	case spinner.TickMsg:
		if !m.done {
			var cmd tea.Cmd
			m.spinner, cmd = m.spinner.Update(msg)
			return m, cmd
		}
	}
	return m, nil
}

func (m WaitModel) View() string {
	if m.done || m.cancelled {
		return ""
	}

	elapsed := time.Since(m.start).Round(time.Second)
	return fmt.Sprintf("\n %s %s %s\n %s\n",
		m.spinner.View(),
		StyleText.Render(m.Status),
		StyleSubtle.Render(fmt.Sprintf("(%s)", elapsed)),
		StyleSubtle.Render("esc cancel"))
}

// RunWait runs the wait view until run returns or the user cancels. The
// background call's error comes back unchanged; cancellation returns
// ErrCancelled.
func RunWait(status string, cancel context.CancelFunc, run func() error) error {
	final, err := tea.NewProgram(NewWaitModel(status, cancel, run)).Run()
	if err != nil {
		return fmt.Errorf("run wait view: %w", err)
	}

	m, ok := final.(WaitModel)
	if !ok {
		return fmt.Errorf("unexpected wait model type")
	}
	if m.cancelled {
		return ErrCancelled
	}
	return m.err
}
