package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadMissingFileReturnsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.toml"))
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Generator.Command != "claude" {
		t.Errorf("got generator command %q, want %q", cfg.Generator.Command, "claude")
	}
	if cfg.Generator.CredentialVar != "ANTHROPIC_API_KEY" {
		t.Errorf("got credential var %q, want ANTHROPIC_API_KEY", cfg.Generator.CredentialVar)
	}
	if cfg.Engine.Port != 7233 {
		t.Errorf("got engine port %d, want 7233", cfg.Engine.Port)
	}
	if cfg.Execution.ReadyTimeout() != 60*time.Second {
		t.Errorf("got ready timeout %v, want 60s", cfg.Execution.ReadyTimeout())
	}
}

func TestLoadOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	content := `
[general]
workspace_dir = "/tmp/harness-ws"
keep_workspace = true

[engine]
host = "10.0.0.5"
port = 9999
start_command = "docker compose up engine"

[execution]
ready_timeout_seconds = 5

[[batches]]
name = "nightly-java"
cron = "0 3 * * *"
sdk = "java"
`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.General.WorkspaceDir != "/tmp/harness-ws" {
		t.Errorf("got workspace dir %q", cfg.General.WorkspaceDir)
	}
	if !cfg.General.KeepWorkspace {
		t.Error("expected keep_workspace = true")
	}
	if got := cfg.Engine.Addr(); got != "10.0.0.5:9999" {
		t.Errorf("got engine addr %q, want 10.0.0.5:9999", got)
	}
	if cfg.Engine.StartCommand != "docker compose up engine" {
		t.Errorf("got start command %q", cfg.Engine.StartCommand)
	}
	if cfg.Execution.ReadyTimeout() != 5*time.Second {
		t.Errorf("got ready timeout %v, want 5s", cfg.Execution.ReadyTimeout())
	}
	// Untouched sections keep defaults
	if cfg.Generator.TimeoutMinutes != 15 {
		t.Errorf("got generator timeout %d, want 15", cfg.Generator.TimeoutMinutes)
	}

	if len(cfg.Batches) != 1 {
		t.Fatalf("got %d batches, want 1", len(cfg.Batches))
	}
	if err := cfg.Batches[0].Validate(); err != nil {
		t.Errorf("batch validation failed: %v", err)
	}
}

func TestBatchConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		batch   BatchConfig
		wantErr bool
	}{
		{"valid", BatchConfig{Name: "n", Cron: "* * * * *", SDK: "go"}, false},
		{"no name", BatchConfig{Cron: "* * * * *", SDK: "go"}, true},
		{"no cron", BatchConfig{Name: "n", SDK: "go"}, true},
		{"no sdk", BatchConfig{Name: "n", Cron: "* * * * *"}, true},
	}

	for _, tt := range tests {
		err := tt.batch.Validate()
		if (err != nil) != tt.wantErr {
			t.Errorf("%s: Validate() error = %v, wantErr %v", tt.name, err, tt.wantErr)
		}
	}
}

func TestSaveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sub", "config.toml")

	cfg := Default()
	cfg.Engine.Port = 7777
	if err := cfg.Save(path); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if loaded.Engine.Port != 7777 {
		t.Errorf("got port %d, want 7777", loaded.Engine.Port)
	}
}

func TestExpandPath(t *testing.T) {
	home, _ := os.UserHomeDir()
	if got := ExpandPath("~/x"); got != filepath.Join(home, "x") {
		t.Errorf("got %q", got)
	}
	if got := ExpandPath("/abs/path"); got != "/abs/path" {
		t.Errorf("got %q", got)
	}
}
