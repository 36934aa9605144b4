package generator

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/hochfrequenz/claude-sample-harness/internal/domain"
	"github.com/hochfrequenz/claude-sample-harness/internal/prompts"
	"github.com/hochfrequenz/claude-sample-harness/internal/workspace"
)

// writeStub creates a fake generation CLI script and returns its path
func writeStub(t *testing.T, script string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "claude-stub")
	if err := os.WriteFile(path, []byte("#!/bin/sh\n"+script), 0755); err != nil {
		t.Fatal(err)
	}
	return path
}

func newWorkspace(t *testing.T) *workspace.Workspace {
	t.Helper()
	ws, err := workspace.Create(t.TempDir(), "go")
	if err != nil {
		t.Fatal(err)
	}
	return ws
}

func TestGenerateSuccess(t *testing.T) {
	stub := writeStub(t, `
echo '{"type":"system","subtype":"init"}'
echo 'module sample' > go.mod
echo 'package sample' > workflow.go
echo '{"type":"result","result":"done","usage":{"input_tokens":120,"output_tokens":45},"cost_usd":0.07}'
`)

	g := New(stub, time.Minute, prompts.NewLoader())
	ws := newWorkspace(t)

	proj, usage, err := g.Generate(context.Background(), ws, domain.SDKGo, "", "127.0.0.1:7233")
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}

	if len(proj.Files) != 2 {
		t.Errorf("got %d generated files %v, want 2", len(proj.Files), proj.Files)
	}
	for _, f := range proj.Files {
		if f == ".generation.log" {
			t.Error("transcript counted as a generated file")
		}
	}
	if _, err := os.Stat(proj.TranscriptPath); err != nil {
		t.Errorf("transcript log missing: %v", err)
	}

	if usage.TokensInput != 120 || usage.TokensOutput != 45 {
		t.Errorf("got usage %+v, want 120/45", usage)
	}
	if usage.CostUSD != 0.07 {
		t.Errorf("got cost %f, want 0.07", usage.CostUSD)
	}
}

func TestGenerateNoFiles(t *testing.T) {
	stub := writeStub(t, `echo '{"type":"result","result":"nothing to do"}'`)

	g := New(stub, time.Minute, prompts.NewLoader())
	ws := newWorkspace(t)

	_, _, err := g.Generate(context.Background(), ws, domain.SDKGo, "", "127.0.0.1:7233")
	var gerr *domain.GenerationError
	if !errors.As(err, &gerr) {
		t.Fatalf("got %v, want GenerationError", err)
	}
}

func TestGenerateCLIFailure(t *testing.T) {
	stub := writeStub(t, `
echo '{"type":"error","error":"billing"}' >&2
exit 1
`)

	g := New(stub, time.Minute, prompts.NewLoader())
	ws := newWorkspace(t)

	_, _, err := g.Generate(context.Background(), ws, domain.SDKGo, "", "127.0.0.1:7233")
	var gerr *domain.GenerationError
	if !errors.As(err, &gerr) {
		t.Fatalf("got %v, want GenerationError", err)
	}
	if gerr.Output == "" {
		t.Error("expected error payload to carry the output tail")
	}
}

func TestGenerateTimeout(t *testing.T) {
	stub := writeStub(t, `sleep 5`)

	g := New(stub, 100*time.Millisecond, prompts.NewLoader())
	ws := newWorkspace(t)

	start := time.Now()
	_, _, err := g.Generate(context.Background(), ws, domain.SDKGo, "", "127.0.0.1:7233")
	var gerr *domain.GenerationError
	if !errors.As(err, &gerr) {
		t.Fatalf("got %v, want GenerationError", err)
	}
	if time.Since(start) > 3*time.Second {
		t.Error("timeout did not bound the call")
	}
}

func TestAssessParsesVerdict(t *testing.T) {
	stub := writeStub(t, `echo '{"type":"result","result":"{\"pass\": false, \"rationale\": \"activity invoked directly\"}"}'`)

	g := New(stub, time.Minute, prompts.NewLoader())

	verdict, err := g.Assess(context.Background(), "rubric")
	if err != nil {
		t.Fatalf("Assess failed: %v", err)
	}
	if verdict.Pass {
		t.Error("got pass=true, want false")
	}
	if verdict.Rationale != "activity invoked directly" {
		t.Errorf("got rationale %q", verdict.Rationale)
	}
}

func TestAssessNoVerdict(t *testing.T) {
	stub := writeStub(t, `echo '{"type":"result","result":"looks fine to me"}'`)

	g := New(stub, time.Minute, prompts.NewLoader())

	if _, err := g.Assess(context.Background(), "rubric"); err == nil {
		t.Error("expected error for missing verdict")
	}
}

func TestParseVerdict(t *testing.T) {
	tests := []struct {
		name   string
		text   string
		wantOK bool
		want   Verdict
	}{
		{
			"bare object",
			`{"pass": true, "rationale": "idiomatic"}`,
			true,
			Verdict{Pass: true, Rationale: "idiomatic"},
		},
		{
			"wrapped in prose",
			"Here is my judgment:\n```json\n{\"pass\": false, \"rationale\": \"no task queue\"}\n```",
			true,
			Verdict{Pass: false, Rationale: "no task queue"},
		},
		{
			"no json",
			"all good",
			false,
			Verdict{},
		},
		{
			"json without pass field",
			`{"verdict": "ok"}`,
			false,
			Verdict{},
		},
	}

	for _, tt := range tests {
		got, ok := parseVerdict(tt.text)
		if ok != tt.wantOK {
			t.Errorf("%s: ok = %v, want %v", tt.name, ok, tt.wantOK)
			continue
		}
		if ok && got != tt.want {
			t.Errorf("%s: got %+v, want %+v", tt.name, got, tt.want)
		}
	}
}
