package validate

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/hochfrequenz/claude-sample-harness/internal/domain"
	"github.com/hochfrequenz/claude-sample-harness/internal/generator"
	"github.com/hochfrequenz/claude-sample-harness/internal/prompts"
	"github.com/hochfrequenz/claude-sample-harness/internal/workspace"
)

type fakeReviewer struct {
	verdict    generator.Verdict
	err        error
	lastPrompt string
}

func (f *fakeReviewer) Assess(ctx context.Context, prompt string) (generator.Verdict, error) {
	f.lastPrompt = prompt
	return f.verdict, f.err
}

func setupGoSample(t *testing.T, files ...string) *workspace.Workspace {
	t.Helper()
	ws, err := workspace.Create(t.TempDir(), "go")
	if err != nil {
		t.Fatal(err)
	}
	for _, f := range files {
		path := ws.Path(f)
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(path, []byte("// "+f), 0644); err != nil {
			t.Fatal(err)
		}
	}
	return ws
}

func TestCheckLayoutComplete(t *testing.T) {
	spec := domain.SDKGo.Spec()
	ws := setupGoSample(t, spec.ExpectedFiles...)

	v := New(prompts.NewLoader(), nil)
	if err := v.CheckLayout(ws, spec); err != nil {
		t.Errorf("CheckLayout failed: %v", err)
	}
}

func TestCheckLayoutMissingFile(t *testing.T) {
	spec := domain.SDKGo.Spec()
	// Everything except the client entry point
	var files []string
	for _, f := range spec.ExpectedFiles {
		if f != "client/main.go" {
			files = append(files, f)
		}
	}
	ws := setupGoSample(t, files...)

	v := New(prompts.NewLoader(), nil)
	err := v.CheckLayout(ws, spec)

	var serr *domain.StructureError
	if !errors.As(err, &serr) {
		t.Fatalf("got %v, want StructureError", err)
	}
	if serr.MissingPath != "client/main.go" {
		t.Errorf("got missing path %q, want client/main.go", serr.MissingPath)
	}
}

func TestCheckSemanticsPass(t *testing.T) {
	spec := domain.SDKGo.Spec()
	ws := setupGoSample(t, spec.ExpectedFiles...)
	proj := &domain.GeneratedProject{Root: ws.Root, Files: spec.ExpectedFiles}

	reviewer := &fakeReviewer{verdict: generator.Verdict{Pass: true, Rationale: "idiomatic"}}
	v := New(prompts.NewLoader(), reviewer)

	if err := v.CheckSemantics(context.Background(), ws, proj, domain.SDKGo); err != nil {
		t.Errorf("CheckSemantics failed: %v", err)
	}

	// The rubric prompt carries every generated file
	for _, f := range spec.ExpectedFiles {
		if !strings.Contains(reviewer.lastPrompt, f) {
			t.Errorf("rubric prompt missing file %s", f)
		}
	}
}

func TestCheckSemanticsNegativeVerdict(t *testing.T) {
	spec := domain.SDKGo.Spec()
	ws := setupGoSample(t, spec.ExpectedFiles...)
	proj := &domain.GeneratedProject{Root: ws.Root, Files: spec.ExpectedFiles}

	reviewer := &fakeReviewer{verdict: generator.Verdict{Pass: false, Rationale: "workflow calls activity directly"}}
	v := New(prompts.NewLoader(), reviewer)

	err := v.CheckSemantics(context.Background(), ws, proj, domain.SDKGo)
	var verr *domain.ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("got %v, want ValidationError", err)
	}
	if verr.Rationale != "workflow calls activity directly" {
		t.Errorf("got rationale %q", verr.Rationale)
	}
}

func TestCheckSemanticsReviewerError(t *testing.T) {
	spec := domain.SDKGo.Spec()
	ws := setupGoSample(t, spec.ExpectedFiles...)
	proj := &domain.GeneratedProject{Root: ws.Root, Files: spec.ExpectedFiles}

	reviewer := &fakeReviewer{err: fmt.Errorf("service unavailable")}
	v := New(prompts.NewLoader(), reviewer)

	err := v.CheckSemantics(context.Background(), ws, proj, domain.SDKGo)
	var verr *domain.ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("got %v, want ValidationError", err)
	}
}
