package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/hochfrequenz/claude-sample-harness/internal/domain"
)

var (
	headerStyle = lipgloss.NewStyle().
			Background(lipgloss.Color("236")).
			Foreground(lipgloss.Color("255")).
			Padding(0, 1)

	passStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("42"))

	failStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196"))

	skipStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("244"))

	runningStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("214"))

	pendingStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240"))

	dimStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240"))
)

// View renders the pipeline state
func (m Model) View() string {
	var b strings.Builder

	title := fmt.Sprintf(" sample-harness │ %s", m.sdk)
	if m.variant != "" {
		title += " / " + m.variant
	}
	title += fmt.Sprintf(" │ %s ", elapsed(m.started))
	b.WriteString(headerStyle.Render(title))
	b.WriteString("\n\n")

	current := m.currentStage()
	for _, stage := range domain.Stages {
		b.WriteString(m.stageLine(stage, current))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	if m.done {
		if m.run != nil && m.run.Passed() {
			b.WriteString(passStyle.Render("run passed"))
		} else {
			b.WriteString(failStyle.Render("run failed"))
		}
		b.WriteString(dimStyle.Render("  ·  q to quit"))
	} else {
		b.WriteString(dimStyle.Render("q to abort"))
	}
	b.WriteString("\n")

	return b.String()
}

// currentStage is the first stage without a recorded result
func (m Model) currentStage() domain.Stage {
	if m.done {
		return ""
	}
	for _, stage := range domain.Stages {
		if _, ok := m.results[stage]; !ok {
			return stage
		}
	}
	return ""
}

func (m Model) stageLine(stage, current domain.Stage) string {
	res, ok := m.results[stage]
	if !ok {
		if stage == current {
			return fmt.Sprintf("  %s  %-9s", runningStyle.Render("▸"), stage)
		}
		return pendingStyle.Render(fmt.Sprintf("  ·  %-9s", stage))
	}

	var mark string
	switch res.Status {
	case domain.StagePassed:
		mark = passStyle.Render("✓")
	case domain.StageFailed:
		mark = failStyle.Render("✗")
	case domain.StageSkipped:
		mark = skipStyle.Render("‒")
	}

	line := fmt.Sprintf("  %s  %-9s", mark, stage)
	if res.Detail != "" {
		line += "  " + dimStyle.Render(res.Detail)
	}
	return line
}

func elapsed(start time.Time) string {
	d := time.Since(start).Round(time.Second)
	return d.String()
}
