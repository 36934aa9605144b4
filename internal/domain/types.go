package domain

import "time"

// RunStatus represents the overall state of a test run
type RunStatus string

const (
	RunPending RunStatus = "pending"
	RunPassed  RunStatus = "passed"
	RunFailed  RunStatus = "failed"
)

// Stage identifies one phase of the pipeline
type Stage string

const (
	StagePrereq   Stage = "prereq"
	StageGenerate Stage = "generate"
	StageValidate Stage = "validate"
	StageBuild    Stage = "build"
	StageExecute  Stage = "execute"
	StageReport   Stage = "report"
)

// Stages lists the pipeline stages in execution order (report excluded;
// the reporter consumes results, it does not produce one)
var Stages = []Stage{StagePrereq, StageGenerate, StageValidate, StageBuild, StageExecute}

// StageStatus is the three-valued outcome of a stage
type StageStatus string

const (
	StagePassed  StageStatus = "passed"
	StageFailed  StageStatus = "failed"
	StageSkipped StageStatus = "skipped"
)

// StageResult records the outcome of one pipeline stage.
// Immutable once appended to a TestRun.
type StageResult struct {
	Stage    Stage
	Status   StageStatus
	Detail   string // one-line reason shown in the report
	Output   string // captured logs, populated on failure
	Duration time.Duration
}

// TestRun represents one invocation of the pipeline
type TestRun struct {
	ID            string
	SDK           SDK
	Variant       string
	SkipExecution bool
	Status        RunStatus
	Results       []StageResult
	WorkspacePath string
	StartedAt     time.Time
	FinishedAt    *time.Time

	// Token usage reported by the generation CLI
	TokensInput  int
	TokensOutput int
	CostUSD      float64
}

// Record appends a stage result. Results are append-only.
func (r *TestRun) Record(res StageResult) {
	r.Results = append(r.Results, res)
}

// Passed reports whether every executed stage passed.
// Skipped stages do not count as failures.
func (r *TestRun) Passed() bool {
	if len(r.Results) == 0 {
		return false
	}
	for _, res := range r.Results {
		if res.Status == StageFailed {
			return false
		}
	}
	return true
}

// Result returns the recorded result for a stage, if any
func (r *TestRun) Result(stage Stage) (StageResult, bool) {
	for _, res := range r.Results {
		if res.Stage == stage {
			return res, true
		}
	}
	return StageResult{}, false
}

// GeneratedProject is the set of source files produced by the generation stage
type GeneratedProject struct {
	Root           string
	Files          []string
	TranscriptPath string
}
