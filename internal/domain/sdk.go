package domain

import (
	"fmt"
	"strings"
)

// SDK identifies a supported workflow SDK target
type SDK string

const (
	SDKJava       SDK = "java"
	SDKPython     SDK = "python"
	SDKGo         SDK = "go"
	SDKTypeScript SDK = "typescript"
)

// SDKSpec describes how the harness drives one SDK target: what the
// generated sample must look like and how to build and run it.
type SDKSpec struct {
	SDK SDK

	// Binaries that must be on PATH before the run starts
	RequiredBinaries []string

	// BuildCommand is executed via `sh -c` in the workspace
	BuildCommand string

	// WorkerCommand and ClientCommand are argv vectors; the client target
	// argument is appended to ClientCommand at execution time
	WorkerCommand []string
	ClientCommand []string

	// ExpectedFiles are workspace-relative paths the generated sample
	// must contain: build descriptor, workflow definition, worker entry
	// point, client entry point
	ExpectedFiles []string

	// ReadyMarker is the line the worker prints once it is polling;
	// the generation prompt instructs the sample to emit it
	ReadyMarker string
}

var sdkSpecs = map[SDK]SDKSpec{
	SDKJava: {
		SDK:              SDKJava,
		RequiredBinaries: []string{"java", "mvn"},
		BuildCommand:     "mvn -B -q compile",
		WorkerCommand:    []string{"mvn", "-B", "-q", "exec:java", "-Dexec.mainClass=sample.HelloWorker"},
		ClientCommand:    []string{"mvn", "-B", "-q", "exec:java", "-Dexec.mainClass=sample.HelloClient", "-Dexec.args="},
		ExpectedFiles: []string{
			"pom.xml",
			"src/main/java/sample/HelloWorkflow.java",
			"src/main/java/sample/HelloWorker.java",
			"src/main/java/sample/HelloClient.java",
		},
		ReadyMarker: "Worker started",
	},
	SDKPython: {
		SDK:              SDKPython,
		RequiredBinaries: []string{"python3"},
		BuildCommand:     "python3 -m compileall -q .",
		WorkerCommand:    []string{"python3", "run_worker.py"},
		ClientCommand:    []string{"python3", "run_client.py"},
		ExpectedFiles: []string{
			"pyproject.toml",
			"workflows.py",
			"run_worker.py",
			"run_client.py",
		},
		ReadyMarker: "Worker started",
	},
	SDKGo: {
		SDK:              SDKGo,
		RequiredBinaries: []string{"go"},
		BuildCommand:     "go build ./...",
		WorkerCommand:    []string{"go", "run", "./worker"},
		ClientCommand:    []string{"go", "run", "./client"},
		ExpectedFiles: []string{
			"go.mod",
			"workflow.go",
			"worker/main.go",
			"client/main.go",
		},
		ReadyMarker: "Worker started",
	},
	SDKTypeScript: {
		SDK:              SDKTypeScript,
		RequiredBinaries: []string{"node", "npm"},
		BuildCommand:     "npm install --no-audit --no-fund && npm run build",
		WorkerCommand:    []string{"npm", "run", "worker", "--silent"},
		ClientCommand:    []string{"npm", "run", "client", "--silent", "--"},
		ExpectedFiles: []string{
			"package.json",
			"src/workflows.ts",
			"src/worker.ts",
			"src/client.ts",
		},
		ReadyMarker: "Worker started",
	},
}

// ParseSDK resolves a free-form token to a supported SDK
func ParseSDK(s string) (SDK, error) {
	sdk := SDK(strings.ToLower(strings.TrimSpace(s)))
	if _, ok := sdkSpecs[sdk]; !ok {
		return "", fmt.Errorf("unsupported SDK %q (supported: %s)", s, strings.Join(SupportedSDKs(), ", "))
	}
	return sdk, nil
}

// Spec returns the SDKSpec for a supported SDK
func (s SDK) Spec() SDKSpec {
	return sdkSpecs[s]
}

// SupportedSDKs returns the supported SDK identifiers in a stable order
func SupportedSDKs() []string {
	return []string{string(SDKJava), string(SDKPython), string(SDKGo), string(SDKTypeScript)}
}
