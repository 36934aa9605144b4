// Package generator invokes the external AI generation CLI and collects
// its output.
package generator

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"
	"sync"
	"time"

	"github.com/hochfrequenz/claude-sample-harness/internal/domain"
	"github.com/hochfrequenz/claude-sample-harness/internal/prompts"
	"github.com/hochfrequenz/claude-sample-harness/internal/workspace"
	"golang.org/x/sync/errgroup"
)

// transcriptName is the generation log kept in the workspace root.
// It is not part of the expected sample layout.
const transcriptName = ".generation.log"

// Invoker drives the generation CLI
type Invoker struct {
	Command string
	Timeout time.Duration
	loader  *prompts.Loader
}

// Usage is the token accounting reported by the generation CLI
type Usage struct {
	TokensInput  int
	TokensOutput int
	CostUSD      float64
}

// Verdict is the parsed outcome of an AI review call
type Verdict struct {
	Pass      bool   `json:"pass"`
	Rationale string `json:"rationale"`
}

// New creates an Invoker
func New(command string, timeout time.Duration, loader *prompts.Loader) *Invoker {
	return &Invoker{Command: command, Timeout: timeout, loader: loader}
}

// Generate builds the task prompt for the given SDK/variant and runs the
// generation CLI in the workspace, blocking until it finishes or the timeout
// elapses. The full stream output is written to a transcript log in the
// workspace root.
func (g *Invoker) Generate(ctx context.Context, ws *workspace.Workspace, sdk domain.SDK, variant, engineAddr string) (*domain.GeneratedProject, Usage, error) {
	spec := sdk.Spec()
	prompt, err := g.loader.BuildSamplePrompt(prompts.SampleData{
		SDK:           string(sdk),
		Variant:       variant,
		ExpectedFiles: spec.ExpectedFiles,
		ReadyMarker:   spec.ReadyMarker,
		EngineAddr:    engineAddr,
	})
	if err != nil {
		return nil, Usage{}, fmt.Errorf("building generation prompt: %w", err)
	}

	transcriptPath := ws.Path(transcriptName)
	transcript, err := os.Create(transcriptPath)
	if err != nil {
		return nil, Usage{}, fmt.Errorf("creating transcript log: %w", err)
	}
	defer transcript.Close()

	res, err := g.run(ctx, ws.Root, prompt, transcript)
	if err != nil {
		return nil, res.usage, &domain.GenerationError{
			Reason: err.Error(),
			Output: res.tail(),
		}
	}

	files, err := ws.Files()
	if err != nil {
		return nil, res.usage, fmt.Errorf("listing workspace: %w", err)
	}
	var generated []string
	for _, f := range files {
		if f == transcriptName {
			continue
		}
		generated = append(generated, f)
	}
	if len(generated) == 0 {
		return nil, res.usage, &domain.GenerationError{
			Reason: "generation produced no files",
			Output: res.tail(),
		}
	}

	return &domain.GeneratedProject{
		Root:           ws.Root,
		Files:          generated,
		TranscriptPath: transcriptPath,
	}, res.usage, nil
}

// Assess sends a rubric prompt to the CLI and parses the JSON verdict from
// its final result text.
func (g *Invoker) Assess(ctx context.Context, prompt string) (Verdict, error) {
	res, err := g.run(ctx, "", prompt, io.Discard)
	if err != nil {
		return Verdict{}, fmt.Errorf("review call failed: %w (output: %s)", err, res.tail())
	}

	verdict, ok := parseVerdict(res.finalText)
	if !ok {
		return Verdict{}, fmt.Errorf("review returned no parseable verdict: %s", truncate(res.finalText, 500))
	}
	return verdict, nil
}

// runResult accumulates the stream output of one CLI invocation
type runResult struct {
	mu        sync.Mutex
	lines     []string
	usage     Usage
	finalText string
}

func (r *runResult) addLine(line string) {
	r.mu.Lock()
	r.lines = append(r.lines, line)
	r.mu.Unlock()
}

// tail returns the last lines of output for error payloads
func (r *runResult) tail() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	start := 0
	if len(r.lines) > 20 {
		start = len(r.lines) - 20
	}
	return strings.Join(r.lines[start:], "\n")
}

// streamMessage is the subset of the CLI's stream-json output we care about
type streamMessage struct {
	Type    string `json:"type"`
	Subtype string `json:"subtype,omitempty"`
	IsError bool   `json:"is_error,omitempty"`
	Result  string `json:"result,omitempty"`
	Usage   struct {
		InputTokens  int `json:"input_tokens"`
		OutputTokens int `json:"output_tokens"`
	} `json:"usage,omitempty"`
	CostUSD float64 `json:"cost_usd,omitempty"`
}

// run spawns the CLI non-interactively and streams its output line-wise to
// the transcript writer while scanning for the final result message.
func (g *Invoker) run(ctx context.Context, dir, prompt string, transcript io.Writer) (*runResult, error) {
	if g.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.Timeout)
		defer cancel()
	}

	cmd := exec.CommandContext(ctx, g.Command,
		"--print",
		"--verbose",
		"--dangerously-skip-permissions",
		"--output-format", "stream-json",
		"-p", prompt,
	)
	if dir != "" {
		cmd.Dir = dir
	}

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return &runResult{}, err
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return &runResult{}, err
	}

	res := &runResult{}

	if err := cmd.Start(); err != nil {
		return res, fmt.Errorf("starting %s: %w", g.Command, err)
	}

	var tmu sync.Mutex
	readLines := func(r io.Reader) error {
		scanner := bufio.NewScanner(r)
		// Long JSON lines need a bigger buffer than the scanner default
		buf := make([]byte, 0, 64*1024)
		scanner.Buffer(buf, 1024*1024)
		for scanner.Scan() {
			line := scanner.Text()
			res.addLine(line)
			res.parseLine(line)
			tmu.Lock()
			fmt.Fprintln(transcript, line)
			tmu.Unlock()
		}
		return scanner.Err()
	}

	var eg errgroup.Group
	eg.Go(func() error { return readLines(stdout) })
	eg.Go(func() error { return readLines(stderr) })
	streamErr := eg.Wait()

	if err := cmd.Wait(); err != nil {
		if ctx.Err() == context.DeadlineExceeded {
			return res, fmt.Errorf("%s timed out after %s", g.Command, g.Timeout)
		}
		return res, fmt.Errorf("%s: %w", g.Command, err)
	}
	if streamErr != nil {
		return res, fmt.Errorf("reading %s output: %w", g.Command, streamErr)
	}

	res.mu.Lock()
	isErr := res.finalText == "" && len(res.lines) == 0
	res.mu.Unlock()
	if isErr {
		return res, fmt.Errorf("%s produced no output", g.Command)
	}

	return res, nil
}

// parseLine extracts usage and final result text from a stream-json line
func (r *runResult) parseLine(line string) {
	if !strings.HasPrefix(line, "{") {
		return
	}
	var msg streamMessage
	if err := json.Unmarshal([]byte(line), &msg); err != nil {
		return
	}
	if msg.Type != "result" {
		return
	}
	r.mu.Lock()
	r.finalText = msg.Result
	r.usage.TokensInput = msg.Usage.InputTokens
	r.usage.TokensOutput = msg.Usage.OutputTokens
	r.usage.CostUSD = msg.CostUSD
	r.mu.Unlock()
}

// parseVerdict finds the JSON verdict object in the review result text.
// The model occasionally wraps it in prose or a code fence.
func parseVerdict(text string) (Verdict, bool) {
	start := strings.Index(text, "{")
	for start != -1 {
		end := strings.LastIndex(text, "}")
		if end <= start {
			return Verdict{}, false
		}
		var v struct {
			Pass      *bool  `json:"pass"`
			Rationale string `json:"rationale"`
		}
		if err := json.Unmarshal([]byte(text[start:end+1]), &v); err == nil && v.Pass != nil {
			return Verdict{Pass: *v.Pass, Rationale: v.Rationale}, true
		}
		next := strings.Index(text[start+1:], "{")
		if next == -1 {
			return Verdict{}, false
		}
		start = start + 1 + next
	}
	return Verdict{}, false
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
