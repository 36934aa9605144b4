// Package report renders the per-stage outcome of a test run and decides
// the process exit code.
package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/hochfrequenz/claude-sample-harness/internal/domain"
)

var (
	passStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("42"))

	failStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196"))

	skipStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("244"))

	stageStyle = lipgloss.NewStyle().
			Bold(true)

	dimStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240"))
)

// Reporter prints the stage report. It always runs, whatever the pipeline
// did before it.
type Reporter struct {
	out io.Writer
}

// New creates a Reporter writing to out
func New(out io.Writer) *Reporter {
	return &Reporter{out: out}
}

// Report prints one line per recorded stage plus an overall line and
// returns the process exit code: 0 iff every executed stage passed.
func (r *Reporter) Report(run *domain.TestRun) int {
	for _, res := range run.Results {
		fmt.Fprintln(r.out, r.stageLine(res))
		if res.Status == domain.StageFailed && res.Output != "" {
			fmt.Fprintln(r.out, dimStyle.Render(indent(strings.TrimRight(res.Output, "\n"))))
		}
	}

	overall := domain.StageResult{Stage: domain.StageReport, Status: domain.StagePassed, Detail: "all stages passed"}
	if !run.Passed() {
		overall.Status = domain.StageFailed
		overall.Detail = "run failed"
		if res, ok := firstFailure(run); ok {
			overall.Detail = fmt.Sprintf("failed at %s", res.Stage)
		}
	}
	fmt.Fprintln(r.out, r.stageLine(overall))

	if run.TokensInput > 0 || run.TokensOutput > 0 {
		fmt.Fprintln(r.out, dimStyle.Render(fmt.Sprintf("  tokens: %d in / %d out ($%.4f)",
			run.TokensInput, run.TokensOutput, run.CostUSD)))
	}

	if run.Passed() {
		return 0
	}
	return 1
}

func (r *Reporter) stageLine(res domain.StageResult) string {
	var mark string
	switch res.Status {
	case domain.StagePassed:
		mark = passStyle.Render("PASS")
	case domain.StageFailed:
		mark = failStyle.Render("FAIL")
	case domain.StageSkipped:
		mark = skipStyle.Render("SKIP")
	}

	line := fmt.Sprintf("%s  %-9s", mark, stageStyle.Render(string(res.Stage)))
	if res.Detail != "" {
		line += "  " + res.Detail
	}
	if res.Duration > 0 {
		line += dimStyle.Render(fmt.Sprintf("  (%.1fs)", res.Duration.Seconds()))
	}
	return line
}

func firstFailure(run *domain.TestRun) (domain.StageResult, bool) {
	for _, res := range run.Results {
		if res.Status == domain.StageFailed {
			return res, true
		}
	}
	return domain.StageResult{}, false
}

func indent(s string) string {
	lines := strings.Split(s, "\n")
	for i, l := range lines {
		lines[i] = "    " + l
	}
	return strings.Join(lines, "\n")
}
