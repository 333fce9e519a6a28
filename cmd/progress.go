package cmd

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// Messages sent from the comparison pipeline into the TUI
type stageMsg struct {
	stage string
}

type compareDoneMsg struct {
	matched bool
	err     error
}

type cancelledMsg struct{}

type tickMsg time.Time

var (
	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#626262")).
			Margin(0, 2)

	stageStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#04B575")).
			Margin(0, 2)

	stageDoneStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#888888")).
			Margin(0, 2)

	resultPassStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#00FF00")).
			Bold(true).
			Margin(0, 2)

	resultFailStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF0000")).
			Bold(true).
			Margin(0, 2)
)

// progressModel renders the comparison stages while the pipeline runs
// in a background goroutine
type progressModel struct {
	config         *Config
	currentSpinner spinner.Model
	currentStage   string
	completed      []string
	startTime      time.Time
	done           bool
	cancelled      bool
	matched        bool
	err            error
}

func newProgressModel(config *Config) progressModel {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("205"))

	return progressModel{
		config:         config,
		currentSpinner: s,
		currentStage:   "Initializing...",
		completed:      make([]string, 0, 8),
		startTime:      time.Now(),
	}
}

func (m progressModel) Init() tea.Cmd {
	return tea.Batch(m.currentSpinner.Tick, tickEvery())
}

func tickEvery() tea.Cmd {
	return tea.Tick(time.Second, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func (m progressModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			m.cancelled = true
			return m, tea.Quit
		}
		return m, nil

	case stageMsg:
		if m.currentStage != "" && m.currentStage != "Initializing..." {
			m.completed = append(m.completed, m.currentStage)
		}
		m.currentStage = msg.stage
		return m, nil

	case compareDoneMsg:
		if m.currentStage != "" && m.currentStage != "Initializing..." {
			m.completed = append(m.completed, m.currentStage)
		}
		m.done = true
		m.matched = msg.matched
		m.err = msg.err
		return m, tea.Quit

	case cancelledMsg:
		m.cancelled = true
		return m, tea.Quit

	case tickMsg:
		return m, tickEvery()

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.currentSpinner, cmd = m.currentSpinner.Update(msg)
		return m, cmd
	}

	return m, nil
}

func (m progressModel) View() string {
	var b strings.Builder

	b.WriteString("\n")
	b.WriteString(titleStyle.Render("  Data Comparer"))
	b.WriteString("\n\n")

	for _, stage := range m.completed {
		b.WriteString(stageDoneStyle.Render(fmt.Sprintf("✅ %s", stage)))
		b.WriteString("\n")
	}

	switch {
	case m.cancelled:
		b.WriteString(resultFailStyle.Render("⚠️  Cancelled"))
		b.WriteString("\n")
	case m.done && m.err != nil:
		b.WriteString(resultFailStyle.Render(fmt.Sprintf("❌ Failed: %v", m.err)))
		b.WriteString("\n")
	case m.done && m.matched:
		b.WriteString(resultPassStyle.Render("✅ Datasets match"))
		b.WriteString("\n")
	case m.done:
		b.WriteString(resultFailStyle.Render("❌ Datasets do not match"))
		b.WriteString("\n")
	default:
		b.WriteString(stageStyle.Render(fmt.Sprintf("%s %s...", m.currentSpinner.View(), m.currentStage)))
		b.WriteString("\n")
	}

	elapsed := time.Since(m.startTime).Round(time.Second)
	b.WriteString("\n")
	b.WriteString(helpStyle.Render(fmt.Sprintf("Elapsed: %s", elapsed)))
	b.WriteString("\n")
	b.WriteString(helpStyle.Render("Press q or ctrl+c to cancel"))
	b.WriteString("\n")

	return b.String()
}
