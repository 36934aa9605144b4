// Package execrun runs the generated sample end to end: it probes the
// workflow engine, starts the worker, invokes the client, and tears the
// worker down again.
package execrun

import (
	"bytes"
	"context"
	"fmt"
	"net"
	"os/exec"
	"strings"
	"time"

	"github.com/hochfrequenz/claude-sample-harness/internal/domain"
)

// workerLogName is the worker output log kept in the workspace root
const workerLogName = ".worker.log"

// Options configures one execution run
type Options struct {
	EngineAddr    string
	EngineRemedy  string // command that starts the engine, for the error payload
	ReadyPoll     time.Duration
	ReadyTimeout  time.Duration
	ClientTimeout time.Duration
	GracePeriod   time.Duration
}

// Result captures one execution run
type Result struct {
	WorkerPID    int
	ClientOutput string
	WorkerLog    string
}

// Runner executes the worker/client pair of a generated sample
type Runner struct {
	opts Options

	// dial is swappable for tests
	dial func(network, addr string, timeout time.Duration) (net.Conn, error)
}

// New creates a Runner
func New(opts Options) *Runner {
	return &Runner{opts: opts, dial: net.DialTimeout}
}

// Run drives the execution stage. The engine is probed before anything is
// spawned; the worker is terminated on every path out of this function.
func (r *Runner) Run(ctx context.Context, spec domain.SDKSpec, dir, target string) (*Result, error) {
	if err := r.probeEngine(); err != nil {
		return nil, err
	}

	worker, err := startWorker(spec.WorkerCommand, dir, dir+"/"+workerLogName)
	if err != nil {
		return nil, &domain.ExecutionError{Reason: err.Error()}
	}
	defer worker.Terminate(r.opts.GracePeriod)

	result := &Result{WorkerPID: worker.PID}

	if err := worker.WaitReady(ctx, spec.ReadyMarker, r.opts.ReadyPoll, r.opts.ReadyTimeout); err != nil {
		result.WorkerLog = worker.Log()
		return result, &domain.ExecutionError{
			Reason:    err.Error(),
			WorkerLog: result.WorkerLog,
		}
	}

	exitCode, output, err := r.runClient(ctx, spec, dir, target)
	result.ClientOutput = output
	result.WorkerLog = worker.Log()

	if err != nil {
		return result, &domain.ExecutionError{
			Reason:    err.Error(),
			ExitCode:  exitCode,
			Output:    output,
			WorkerLog: result.WorkerLog,
		}
	}
	if exitCode != 0 {
		return result, &domain.ExecutionError{
			Reason:    fmt.Sprintf("client exited with code %d", exitCode),
			ExitCode:  exitCode,
			Output:    output,
			WorkerLog: result.WorkerLog,
		}
	}

	return result, nil
}

// probeEngine checks that the workflow engine answers on its endpoint
func (r *Runner) probeEngine() error {
	conn, err := r.dial("tcp", r.opts.EngineAddr, 2*time.Second)
	if err != nil {
		return &domain.DependencyUnavailableError{
			Addr:   r.opts.EngineAddr,
			Remedy: r.opts.EngineRemedy,
		}
	}
	conn.Close()
	return nil
}

// runClient invokes the client synchronously with the target argument and
// captures its combined output.
func (r *Runner) runClient(ctx context.Context, spec domain.SDKSpec, dir, target string) (int, string, error) {
	if r.opts.ClientTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.opts.ClientTimeout)
		defer cancel()
	}

	argv := clientArgs(spec.ClientCommand, target)
	cmd := exec.CommandContext(ctx, argv[0], argv[1:]...)
	cmd.Dir = dir

	var out bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &out

	err := cmd.Run()
	if ctx.Err() == context.DeadlineExceeded {
		return -1, out.String(), fmt.Errorf("client timed out after %s", r.opts.ClientTimeout)
	}
	if err != nil {
		if exitErr, ok := err.(*exec.ExitError); ok {
			return exitErr.ExitCode(), out.String(), nil
		}
		return -1, out.String(), err
	}
	return 0, out.String(), nil
}

// clientArgs appends the target argument to the client command. Argument
// vectors whose last token ends in "=" (e.g. -Dexec.args=) take the target
// inline instead.
func clientArgs(command []string, target string) []string {
	argv := append([]string(nil), command...)
	if n := len(argv); n > 0 && strings.HasSuffix(argv[n-1], "=") {
		argv[n-1] += target
		return argv
	}
	return append(argv, target)
}
