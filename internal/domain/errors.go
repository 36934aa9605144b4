package domain

import "fmt"

// PrerequisiteError reports a missing credential or binary before any work starts
type PrerequisiteError struct {
	Missing string // what is missing (env var or binary name)
	Remedy  string // how to fix it
}

func (e *PrerequisiteError) Error() string {
	return fmt.Sprintf("missing prerequisite %s (%s)", e.Missing, e.Remedy)
}

// GenerationError reports a failed or empty generation-service call
type GenerationError struct {
	Reason string
	Output string // generation transcript tail
}

func (e *GenerationError) Error() string {
	return fmt.Sprintf("generation failed: %s", e.Reason)
}

// StructureError reports a generated sample missing an expected file
type StructureError struct {
	MissingPath string
}

func (e *StructureError) Error() string {
	return fmt.Sprintf("generated sample missing expected file %s", e.MissingPath)
}

// ValidationError reports a negative AI review verdict
type ValidationError struct {
	Rationale string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("semantic validation failed: %s", e.Rationale)
}

// BuildError reports a build command failure, carrying its output for diagnostics
type BuildError struct {
	ExitCode int
	TimedOut bool
	Output   string
}

func (e *BuildError) Error() string {
	if e.TimedOut {
		return "build timed out"
	}
	return fmt.Sprintf("build exited with code %d", e.ExitCode)
}

// DependencyUnavailableError reports an unreachable external service
type DependencyUnavailableError struct {
	Addr   string
	Remedy string // command that starts the service
}

func (e *DependencyUnavailableError) Error() string {
	return fmt.Sprintf("workflow engine not reachable at %s (start it with: %s)", e.Addr, e.Remedy)
}

// ExecutionError reports a failed worker/client execution, carrying the
// worker log for diagnostics
type ExecutionError struct {
	Reason    string
	ExitCode  int
	Output    string // client output
	WorkerLog string
}

func (e *ExecutionError) Error() string {
	return fmt.Sprintf("execution failed: %s", e.Reason)
}
