package cli

import (
	"context"
	"fmt"
	"time"

	"charm.land/bubbles/v2/spinner"
	tea "charm.land/bubbletea/v2"
	"github.com/charmbracelet/lipgloss"

	"github.com/mkarlsen/datapilot/internal/client"
	"github.com/mkarlsen/datapilot/internal/taskstore"
)

const pollInterval = time.Second

// Theme holds the color scheme for the progress display.
type Theme struct {
	Status  lipgloss.Color
	Success lipgloss.Color
	Error   lipgloss.Color
	Hint    lipgloss.Color
}

// defaultTheme provides default colors.
var defaultTheme = Theme{
	Status:  lipgloss.Color("#5FAFD7"), // light blue
	Success: lipgloss.Color("#00D787"), // green
	Error:   lipgloss.Color("#FF005F"), // red
	Hint:    lipgloss.Color("#6C6C6C"), // dim gray
}

func (t Theme) statusStyle() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(t.Status)
}

func (t Theme) completedStyle() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(t.Success).Bold(true)
}

func (t Theme) errorStyle() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(t.Error).Bold(true)
}

func (t Theme) hintStyle() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(t.Hint).Italic(true)
}

// tickMsg triggers polling the task status
type tickMsg time.Time

// taskUpdateMsg carries the updated task data
type taskUpdateMsg struct {
	task *client.Task
	err  error
}

// taskModel is the bubbletea model for agent run progress.
type taskModel struct {
	client   *client.Client
	taskID   string
	task     *client.Task
	spinner  spinner.Model
	theme    Theme
	started  time.Time
	done     bool
	quitting bool
	err      error
}

// newTaskModel creates a new task progress model.
func newTaskModel(c *client.Client, task *client.Task) taskModel {
	return taskModel{
		client:  c,
		taskID:  task.ID,
		task:    task,
		spinner: spinner.New(spinner.WithSpinner(spinner.Dot)),
		theme:   defaultTheme,
		started: time.Now(),
	}
}

// Init returns the initial command (start polling).
func (m taskModel) Init() tea.Cmd {
	return tea.Batch(
		tickCmd(),
		m.spinner.Tick,
	)
}

// Update handles messages and returns the updated model.
func (m taskModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyPressMsg:
		switch msg.String() {
		case "ctrl+c", "q":
			m.quitting = true
			return m, tea.Quit
		}

	case tickMsg:
		// Fetch task status
		return m, m.fetchTask()

	case taskUpdateMsg:
		if msg.err != nil {
			m.err = fmt.Errorf("failed to fetch task status: %w", msg.err)
			m.done = true
			return m, tea.Quit
		}

		m.task = msg.task

		// Check for terminal states
		switch m.task.Status {
		case taskstore.StatusCompleted:
			m.done = true
			return m, tea.Quit
		case taskstore.StatusFailed:
			m.done = true
			if m.task.Error != "" {
				m.err = fmt.Errorf("%s", m.task.Error)
			} else {
				m.err = fmt.Errorf("task failed with unknown error")
			}
			return m, tea.Quit
		}

		// Continue polling for running tasks
		return m, tickCmd()

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	return m, nil
}

// View renders the progress display.
func (m taskModel) View() tea.View {
	return tea.NewView(m.renderContent())
}

// renderContent builds the display string.
func (m taskModel) renderContent() string {
	if m.done {
		return m.finalView()
	}

	status := m.theme.statusStyle().Render(fmt.Sprintf("[%s]", m.task.Status))
	elapsed := fmt.Sprintf("%.0fs", time.Since(m.started).Seconds())
	hint := m.theme.hintStyle().Render("Press Ctrl+C to continue in background")

	return fmt.Sprintf("%s %s thinking... %s\n%s\n", status, m.spinner.View(), elapsed, hint)
}

// finalView renders the completion message.
func (m taskModel) finalView() string {
	if m.quitting {
		msg := fmt.Sprintf("\nTask %s continues in background.\nUse 'datapilot task %s' to check status.\n",
			m.taskID, m.taskID)
		return m.theme.hintStyle().Render(msg)
	}

	if m.err != nil {
		return m.theme.errorStyle().Render(fmt.Sprintf("\n✗ Run failed: %s\n", m.err))
	}

	if m.task != nil && m.task.Result != "" {
		return m.theme.completedStyle().Render("✓ Completed") + "\n\n" + m.task.Result + "\n"
	}

	return m.theme.completedStyle().Render("✓ Completed\n")
}

// fetchTask fetches the current task status from the server.
// Runs in a separate goroutine (command) to avoid blocking Update().
func (m taskModel) fetchTask() tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		task, err := m.client.TaskStatus(ctx, m.taskID)
		return taskUpdateMsg{task: task, err: err}
	}
}

// tickCmd returns a command that sends a tick after the poll interval.
func tickCmd() tea.Cmd {
	return tea.Tick(pollInterval, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

// RunTaskProgress runs the interactive progress UI for a background agent run.
// Returns nil on completion or Ctrl+C (background), error on task failure.
func RunTaskProgress(c *client.Client, task *client.Task) error {
	model := newTaskModel(c, task)
	p := tea.NewProgram(model)

	finalModel, err := p.Run()
	if err != nil {
		return fmt.Errorf("progress UI error: %w", err)
	}

	// If the user quit with Ctrl+C, the task continues in background - not an
	// error. A failed task surfaces its error.
	if m, ok := finalModel.(taskModel); ok {
		if m.quitting {
			return nil
		}
		if m.err != nil {
			return m.err
		}
	}

	return nil
}
