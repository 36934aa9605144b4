// Package pipeline sequences the test stages: prereq, generate, validate,
// build, execute. Stages run in order, a failure ends the run early, and
// later stages are recorded as skipped rather than silently dropped.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/hochfrequenz/claude-sample-harness/internal/buildrun"
	"github.com/hochfrequenz/claude-sample-harness/internal/config"
	"github.com/hochfrequenz/claude-sample-harness/internal/domain"
	"github.com/hochfrequenz/claude-sample-harness/internal/execrun"
	"github.com/hochfrequenz/claude-sample-harness/internal/generator"
	"github.com/hochfrequenz/claude-sample-harness/internal/prereq"
	"github.com/hochfrequenz/claude-sample-harness/internal/prompts"
	"github.com/hochfrequenz/claude-sample-harness/internal/validate"
	"github.com/hochfrequenz/claude-sample-harness/internal/workspace"
)

// Options configures a single run
type Options struct {
	SDK           domain.SDK
	Variant       string
	SkipExecution bool
	SkipSemantic  bool
	KeepWorkspace bool

	// ClientTarget is the argument handed to the sample's client
	ClientTarget string
}

// Seams for the stage implementations so tests can substitute them.
type prereqChecker interface {
	Check(spec domain.SDKSpec) error
}

type sampleGenerator interface {
	Generate(ctx context.Context, ws *workspace.Workspace, sdk domain.SDK, variant, engineAddr string) (*domain.GeneratedProject, generator.Usage, error)
}

type sampleValidator interface {
	CheckLayout(ws *workspace.Workspace, spec domain.SDKSpec) error
	CheckSemantics(ctx context.Context, ws *workspace.Workspace, proj *domain.GeneratedProject, sdk domain.SDK) error
}

type sampleBuilder interface {
	Run(ctx context.Context, spec domain.SDKSpec, dir string) (*buildrun.Result, error)
}

type sampleExecutor interface {
	Run(ctx context.Context, spec domain.SDKSpec, dir, target string) (*execrun.Result, error)
}

// Pipeline drives one test run end to end
type Pipeline struct {
	cfg *config.Config

	checker   prereqChecker
	generator sampleGenerator
	validator sampleValidator
	builder   sampleBuilder
	executor  sampleExecutor

	// OnStage, when set, is called with every stage result as it is
	// recorded. The TUI subscribes here.
	OnStage func(domain.StageResult)
}

// New wires a Pipeline from configuration
func New(cfg *config.Config) *Pipeline {
	loader := prompts.DefaultLoader()
	invoker := generator.New(
		cfg.Generator.Command,
		time.Duration(cfg.Generator.TimeoutMinutes)*time.Minute,
		loader,
	)

	return &Pipeline{
		cfg:       cfg,
		checker:   prereq.New(cfg.Generator.CredentialVar, cfg.Generator.Command),
		generator: invoker,
		validator: validate.New(loader, invoker),
		builder:   buildrun.New(time.Duration(cfg.Build.TimeoutMinutes) * time.Minute),
		executor: execrun.New(execrun.Options{
			EngineAddr:    cfg.Engine.Addr(),
			EngineRemedy:  cfg.Engine.StartCommand,
			ReadyPoll:     cfg.Execution.ReadyPoll(),
			ReadyTimeout:  cfg.Execution.ReadyTimeout(),
			ClientTimeout: cfg.Execution.ClientTimeout(),
			GracePeriod:   cfg.Execution.GracePeriod(),
		}),
	}
}

// Run executes the pipeline for one SDK/variant combination. It always
// returns a TestRun with a result for every stage; it never returns an
// error because failure is a run outcome, not a harness fault.
func (p *Pipeline) Run(ctx context.Context, opts Options) *domain.TestRun {
	run := &domain.TestRun{
		ID:            uuid.NewString(),
		SDK:           opts.SDK,
		Variant:       opts.Variant,
		SkipExecution: opts.SkipExecution,
		Status:        domain.RunPending,
		StartedAt:     time.Now(),
	}
	spec := opts.SDK.Spec()

	defer func() {
		now := time.Now()
		run.FinishedAt = &now
		if run.Passed() {
			run.Status = domain.RunPassed
		} else {
			run.Status = domain.RunFailed
		}
	}()

	// prereq runs before any workspace exists
	if err := p.runStage(run, domain.StagePrereq, "prerequisites satisfied", func() error {
		return p.checker.Check(spec)
	}); err != nil {
		p.skipRemaining(run, domain.StageGenerate)
		return run
	}

	ws, err := workspace.Create(p.cfg.General.WorkspaceDir, string(opts.SDK))
	if err != nil {
		p.record(run, domain.StageResult{
			Stage:  domain.StageGenerate,
			Status: domain.StageFailed,
			Detail: fmt.Sprintf("creating workspace: %v", err),
		})
		p.skipRemaining(run, domain.StageValidate)
		return run
	}
	run.WorkspacePath = ws.Root
	defer p.cleanup(run, ws, opts.KeepWorkspace)

	var proj *domain.GeneratedProject
	if err := p.runStage(run, domain.StageGenerate, "", func() error {
		var usage generator.Usage
		var genErr error
		proj, usage, genErr = p.generator.Generate(ctx, ws, opts.SDK, opts.Variant, p.cfg.Engine.Addr())
		run.TokensInput = usage.TokensInput
		run.TokensOutput = usage.TokensOutput
		run.CostUSD = usage.CostUSD
		return genErr
	}); err != nil {
		p.skipRemaining(run, domain.StageValidate)
		return run
	}
	p.amendDetail(run, domain.StageGenerate, fmt.Sprintf("%d files generated", len(proj.Files)))

	if err := p.runStage(run, domain.StageValidate, validateDetail(opts.SkipSemantic), func() error {
		if err := p.validator.CheckLayout(ws, spec); err != nil {
			return err
		}
		if opts.SkipSemantic {
			return nil
		}
		return p.validator.CheckSemantics(ctx, ws, proj, opts.SDK)
	}); err != nil {
		p.skipRemaining(run, domain.StageBuild)
		return run
	}

	if err := p.runStage(run, domain.StageBuild, "build succeeded", func() error {
		_, err := p.builder.Run(ctx, spec, ws.Root)
		return err
	}); err != nil {
		p.skipRemaining(run, domain.StageExecute)
		return run
	}

	if opts.SkipExecution {
		p.record(run, domain.StageResult{
			Stage:  domain.StageExecute,
			Status: domain.StageSkipped,
			Detail: "skipped by flag",
		})
		return run
	}

	target := opts.ClientTarget
	if target == "" {
		target = "World"
	}
	p.runStage(run, domain.StageExecute, "workflow completed", func() error {
		_, err := p.executor.Run(ctx, spec, ws.Root, target)
		return err
	})

	return run
}

// runStage times fn, records its result, and returns the stage error
func (p *Pipeline) runStage(run *domain.TestRun, stage domain.Stage, passDetail string, fn func() error) error {
	start := time.Now()
	err := fn()

	res := domain.StageResult{
		Stage:    stage,
		Status:   domain.StagePassed,
		Detail:   passDetail,
		Duration: time.Since(start),
	}
	if err != nil {
		res.Status = domain.StageFailed
		res.Detail = err.Error()
		res.Output = errOutput(err)
	}
	p.record(run, res)
	return err
}

func (p *Pipeline) record(run *domain.TestRun, res domain.StageResult) {
	run.Record(res)
	if p.OnStage != nil {
		p.OnStage(res)
	}
}

// amendDetail rewrites the detail of an already recorded passing stage.
// Results stay append-only from the run's point of view; this only fills
// in a detail that was not known before the stage function returned.
func (p *Pipeline) amendDetail(run *domain.TestRun, stage domain.Stage, detail string) {
	for i := range run.Results {
		if run.Results[i].Stage == stage && run.Results[i].Status == domain.StagePassed {
			run.Results[i].Detail = detail
		}
	}
}

// skipRemaining records every stage from first onward as skipped
func (p *Pipeline) skipRemaining(run *domain.TestRun, first domain.Stage) {
	skipping := false
	for _, stage := range domain.Stages {
		if stage == first {
			skipping = true
		}
		if !skipping {
			continue
		}
		p.record(run, domain.StageResult{
			Stage:  stage,
			Status: domain.StageSkipped,
			Detail: "skipped: earlier stage failed",
		})
	}
}

// cleanup removes the workspace unless the caller asked to keep it or the
// run failed. Failed runs keep their workspace so the transcript and logs
// stay inspectable.
func (p *Pipeline) cleanup(run *domain.TestRun, ws *workspace.Workspace, keep bool) {
	if keep || p.cfg.General.KeepWorkspace || !run.Passed() {
		return
	}
	ws.Remove()
}

func validateDetail(skipSemantic bool) string {
	if skipSemantic {
		return "layout check passed (semantic review skipped)"
	}
	return "layout and semantic checks passed"
}

// errOutput pulls the diagnostic payload out of the typed stage errors
func errOutput(err error) string {
	var genErr *domain.GenerationError
	if errors.As(err, &genErr) {
		return genErr.Output
	}
	var buildErr *domain.BuildError
	if errors.As(err, &buildErr) {
		return buildErr.Output
	}
	var execErr *domain.ExecutionError
	if errors.As(err, &execErr) {
		if execErr.Output != "" && execErr.WorkerLog != "" {
			return execErr.Output + "\n--- worker log ---\n" + execErr.WorkerLog
		}
		if execErr.Output != "" {
			return execErr.Output
		}
		return execErr.WorkerLog
	}
	return ""
}
