package execrun

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"syscall"
	"time"
)

// Worker is a scoped handle for the sample's long-running worker process.
// Terminate is guaranteed to be called on every exit path of the execution
// stage, so no worker outlives its run.
type Worker struct {
	PID     int
	LogPath string

	cmd     *exec.Cmd
	logFile *os.File
	done    chan error
}

// startWorker spawns the worker in its own process group with stdout and
// stderr redirected to a log file in the workspace.
func startWorker(argv []string, dir, logPath string) (*Worker, error) {
	logFile, err := os.Create(logPath)
	if err != nil {
		return nil, fmt.Errorf("creating worker log: %w", err)
	}

	cmd := exec.Command(argv[0], argv[1:]...)
	cmd.Dir = dir
	cmd.Stdout = logFile
	cmd.Stderr = logFile
	// Own process group so Terminate reaches children spawned by build
	// tool wrappers (mvn exec:java, go run, npm run)
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}

	if err := cmd.Start(); err != nil {
		logFile.Close()
		return nil, fmt.Errorf("starting worker: %w", err)
	}

	w := &Worker{
		PID:     cmd.Process.Pid,
		LogPath: logPath,
		cmd:     cmd,
		logFile: logFile,
		done:    make(chan error, 1),
	}
	go func() { w.done <- cmd.Wait() }()

	return w, nil
}

// WaitReady polls the worker log for the ready marker with a bounded
// deadline. It fails early if the worker exits before becoming ready.
func (w *Worker) WaitReady(ctx context.Context, marker string, poll, timeout time.Duration) error {
	deadline := time.After(timeout)
	ticker := time.NewTicker(poll)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case err := <-w.done:
			w.done <- err // keep the exit status for Terminate
			return fmt.Errorf("worker exited before becoming ready")
		case <-deadline:
			return fmt.Errorf("worker not ready after %s", timeout)
		case <-ticker.C:
			if strings.Contains(w.Log(), marker) {
				return nil
			}
		}
	}
}

// Log returns the worker's captured output so far
func (w *Worker) Log() string {
	data, err := os.ReadFile(w.LogPath)
	if err != nil {
		return ""
	}
	return string(data)
}

// Alive reports whether the worker process still exists
func (w *Worker) Alive() bool {
	if w.PID == 0 {
		return false
	}
	return syscall.Kill(w.PID, 0) == nil
}

// Terminate sends SIGTERM to the worker's process group, waits up to the
// grace period, then force-kills. Idempotent and safe on every exit path.
func (w *Worker) Terminate(grace time.Duration) {
	defer w.logFile.Close()

	if w.Alive() {
		syscall.Kill(-w.PID, syscall.SIGTERM)
	}

	select {
	case <-w.done:
		return
	case <-time.After(grace):
	}

	syscall.Kill(-w.PID, syscall.SIGKILL)
	<-w.done
}
