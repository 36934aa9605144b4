// Package tui renders a live view of a running test pipeline.
package tui

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/hochfrequenz/claude-sample-harness/internal/domain"
)

// StageMsg carries one recorded stage result into the model
type StageMsg domain.StageResult

// DoneMsg is sent when the pipeline has finished
type DoneMsg struct {
	Run *domain.TestRun
}

// TickMsg drives the elapsed-time display
type TickMsg time.Time

// Model is the live pipeline view
type Model struct {
	sdk     domain.SDK
	variant string

	results map[domain.Stage]domain.StageResult
	run     *domain.TestRun
	done    bool

	started time.Time
	width   int

	events <-chan tea.Msg
}

// NewModel creates a model fed by the given event channel. The pipeline
// side sends StageMsg per stage and a final DoneMsg.
func NewModel(sdk domain.SDK, variant string, events <-chan tea.Msg) Model {
	return Model{
		sdk:     sdk,
		variant: variant,
		results: make(map[domain.Stage]domain.StageResult),
		started: time.Now(),
		events:  events,
	}
}

// Init starts the event pump and the clock
func (m Model) Init() tea.Cmd {
	return tea.Batch(waitEvent(m.events), tickCmd())
}

// Update handles messages
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width

	case StageMsg:
		m.results[msg.Stage] = domain.StageResult(msg)
		return m, waitEvent(m.events)

	case DoneMsg:
		m.done = true
		m.run = msg.Run
		return m, nil

	case TickMsg:
		if m.done {
			return m, nil
		}
		return m, tickCmd()
	}

	return m, nil
}

// Run returns the finished run, if the pipeline is done
func (m Model) Run() (*domain.TestRun, bool) {
	return m.run, m.done
}

func waitEvent(ch <-chan tea.Msg) tea.Cmd {
	return func() tea.Msg {
		return <-ch
	}
}

func tickCmd() tea.Cmd {
	return tea.Tick(time.Second, func(t time.Time) tea.Msg {
		return TickMsg(t)
	})
}
