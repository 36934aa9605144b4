// Package buildrun invokes the SDK's build tool against a generated sample.
package buildrun

import (
	"bufio"
	"context"
	"io"
	"os/exec"
	"strings"
	"time"

	"github.com/hochfrequenz/claude-sample-harness/internal/domain"
	"golang.org/x/sync/errgroup"
)

// Result captures one build invocation
type Result struct {
	ExitCode     int
	Stdout       string
	Stderr       string
	DurationSecs float64
}

// Output returns combined stdout+stderr
func (r *Result) Output() string {
	return r.Stdout + r.Stderr
}

// Runner executes build commands with a bounded wait
type Runner struct {
	Timeout time.Duration
}

// New creates a Runner
func New(timeout time.Duration) *Runner {
	return &Runner{Timeout: timeout}
}

// Run executes the SDK's build command via `sh -c` in the workspace
// directory. A non-zero exit or a timeout is reported as a BuildError
// carrying the captured output.
func (r *Runner) Run(ctx context.Context, spec domain.SDKSpec, dir string) (*Result, error) {
	if r.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.Timeout)
		defer cancel()
	}

	start := time.Now()
	cmd := exec.CommandContext(ctx, "sh", "-c", spec.BuildCommand)
	cmd.Dir = dir

	stdout, _ := cmd.StdoutPipe()
	stderr, _ := cmd.StderrPipe()

	var stdoutBuf, stderrBuf strings.Builder

	if err := cmd.Start(); err != nil {
		return nil, &domain.BuildError{ExitCode: -1, Output: err.Error()}
	}

	var eg errgroup.Group
	eg.Go(func() error { return collectLines(stdout, &stdoutBuf) })
	eg.Go(func() error { return collectLines(stderr, &stderrBuf) })
	eg.Wait()

	err := cmd.Wait()
	result := &Result{
		Stdout:       stdoutBuf.String(),
		Stderr:       stderrBuf.String(),
		DurationSecs: time.Since(start).Seconds(),
	}

	if ctx.Err() == context.DeadlineExceeded {
		return result, &domain.BuildError{TimedOut: true, Output: result.Output()}
	}
	if err != nil {
		if exitErr, ok := err.(*exec.ExitError); ok {
			result.ExitCode = exitErr.ExitCode()
			return result, &domain.BuildError{ExitCode: result.ExitCode, Output: result.Output()}
		}
		return result, &domain.BuildError{ExitCode: -1, Output: err.Error()}
	}

	return result, nil
}

func collectLines(r io.Reader, out *strings.Builder) error {
	scanner := bufio.NewScanner(r)
	buf := make([]byte, 0, 64*1024)
	scanner.Buffer(buf, 1024*1024)
	for scanner.Scan() {
		out.WriteString(scanner.Text())
		out.WriteByte('\n')
	}
	return scanner.Err()
}
