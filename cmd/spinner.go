package cmd

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// slowTaskAfter is when the spinner starts telling the user that AI work
// is still running.
const slowTaskAfter = 15 * time.Second

var (
	spinnerStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("69"))
	elapsedStyle = lipgloss.NewStyle().Faint(true)
	doneStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	failedStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("203"))
)

type taskDoneMsg struct {
	err error
}

type spinnerModel struct {
	spinner spinner.Model
	label   string
	task    tea.Cmd
	now     func() time.Time
	started time.Time
	elapsed time.Duration
	err     error
	done    bool
}

func newSpinnerModel(label string, task tea.Cmd, now func() time.Time) spinnerModel {
	s := spinner.New(
		spinner.WithSpinner(spinner.Dot),
		spinner.WithStyle(spinnerStyle),
	)

	return spinnerModel{
		spinner: s,
		label:   label,
		task:    task,
		now:     now,
		started: now(),
	}
}

func (m spinnerModel) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.task)
}

func (m spinnerModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case spinner.TickMsg:
		m.elapsed = m.now().Sub(m.started)
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	case taskDoneMsg:
		m.elapsed = m.now().Sub(m.started)
		m.done = true
		m.err = msg.err
		return m, tea.Quit
	default:
		return m, nil
	}
}

// View keeps the final line on screen once the task settles so the elapsed
// time survives in the terminal scrollback.
func (m spinnerModel) View() string {
	elapsed := formatElapsed(m.elapsed)
	switch {
	case m.done && m.err != nil:
		return failedStyle.Render("✗") + fmt.Sprintf(" %s failed after %s\n", m.label, elapsed)
	case m.done:
		return doneStyle.Render("✓") + fmt.Sprintf(" %s done in %s\n", m.label, elapsed)
	}

	line := fmt.Sprintf("%s %s %s", m.spinner.View(), m.label, elapsedStyle.Render(elapsed))
	if m.elapsed >= slowTaskAfter {
		line += elapsedStyle.Render(" (AI generation can take a minute)")
	}
	return line
}

func formatElapsed(d time.Duration) string {
	return d.Truncate(time.Second).String()
}

// runWithSpinner shows label and the elapsed time on output while task runs
// and returns the task's error.
func runWithSpinner(ctx context.Context, output io.Writer, label string, task func(context.Context) error) error {
	taskCmd := func() tea.Msg {
		return taskDoneMsg{err: task(ctx)}
	}

	p := tea.NewProgram(
		newSpinnerModel(label, taskCmd, time.Now),
		tea.WithInput(nil),
		tea.WithOutput(output),
		tea.WithContext(ctx),
	)

	finalModel, err := p.Run()
	if err != nil {
		return err
	}

	result, ok := finalModel.(spinnerModel)
	if !ok {
		return fmt.Errorf("unexpected final spinner model type %T", finalModel)
	}

	return result.err
}
