// Package validate checks a generated sample's file layout and, optionally,
// asks the AI service to review its SDK usage.
package validate

import (
	"context"
	"fmt"

	"github.com/hochfrequenz/claude-sample-harness/internal/domain"
	"github.com/hochfrequenz/claude-sample-harness/internal/generator"
	"github.com/hochfrequenz/claude-sample-harness/internal/prompts"
	"github.com/hochfrequenz/claude-sample-harness/internal/workspace"
)

// Reviewer is the AI review capability the semantic check needs
type Reviewer interface {
	Assess(ctx context.Context, prompt string) (generator.Verdict, error)
}

// Validator runs the layout and semantic checks
type Validator struct {
	loader   *prompts.Loader
	reviewer Reviewer
}

// New creates a Validator. The reviewer may be nil when the semantic
// check is disabled.
func New(loader *prompts.Loader, reviewer Reviewer) *Validator {
	return &Validator{loader: loader, reviewer: reviewer}
}

// CheckLayout verifies that every expected file of the SDK's sample layout
// exists in the workspace. It has no external dependency.
func (v *Validator) CheckLayout(ws *workspace.Workspace, spec domain.SDKSpec) error {
	for _, rel := range spec.ExpectedFiles {
		if !ws.Contains(rel) {
			return &domain.StructureError{MissingPath: rel}
		}
	}
	return nil
}

// CheckSemantics sends the generated files with the review rubric to the AI
// service and converts a negative judgment into a ValidationError.
func (v *Validator) CheckSemantics(ctx context.Context, ws *workspace.Workspace, proj *domain.GeneratedProject, sdk domain.SDK) error {
	if v.reviewer == nil {
		return fmt.Errorf("no reviewer configured")
	}

	var files []prompts.RubricFile
	for _, rel := range proj.Files {
		content, err := ws.ReadFile(rel)
		if err != nil {
			return fmt.Errorf("reading %s for review: %w", rel, err)
		}
		files = append(files, prompts.RubricFile{Path: rel, Content: string(content)})
	}

	prompt, err := v.loader.BuildRubricPrompt(prompts.RubricData{
		SDK:   string(sdk),
		Files: files,
	})
	if err != nil {
		return fmt.Errorf("building rubric prompt: %w", err)
	}

	verdict, err := v.reviewer.Assess(ctx, prompt)
	if err != nil {
		return &domain.ValidationError{Rationale: err.Error()}
	}
	if !verdict.Pass {
		return &domain.ValidationError{Rationale: verdict.Rationale}
	}
	return nil
}
