package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
)

// Config holds all harness configuration
type Config struct {
	General   GeneralConfig   `toml:"general"`
	Generator GeneratorConfig `toml:"generator"`
	Engine    EngineConfig    `toml:"engine"`
	Build     BuildConfig     `toml:"build"`
	Execution ExecutionConfig `toml:"execution"`
	Batches   []BatchConfig   `toml:"batches"`
}

// GeneralConfig holds general settings
type GeneralConfig struct {
	WorkspaceDir  string `toml:"workspace_dir"`
	KeepWorkspace bool   `toml:"keep_workspace"`
	DatabasePath  string `toml:"database_path"`
}

// GeneratorConfig holds generation CLI settings
type GeneratorConfig struct {
	Command        string `toml:"command"`
	CredentialVar  string `toml:"credential_var"`
	TimeoutMinutes int    `toml:"timeout_minutes"`
}

// EngineConfig holds workflow engine server settings
type EngineConfig struct {
	Host         string `toml:"host"`
	Port         int    `toml:"port"`
	StartCommand string `toml:"start_command"`
}

// Addr returns the engine endpoint as host:port
func (e EngineConfig) Addr() string {
	return fmt.Sprintf("%s:%d", e.Host, e.Port)
}

// BuildConfig holds build stage settings
type BuildConfig struct {
	TimeoutMinutes int `toml:"timeout_minutes"`
}

// ExecutionConfig holds execution stage settings
type ExecutionConfig struct {
	ReadyTimeoutSeconds int `toml:"ready_timeout_seconds"`
	ReadyPollMillis     int `toml:"ready_poll_millis"`
	ClientTimeoutSecs   int `toml:"client_timeout_seconds"`
	GracePeriodSeconds  int `toml:"grace_period_seconds"`
}

// ReadyTimeout returns the worker readiness deadline
func (e ExecutionConfig) ReadyTimeout() time.Duration {
	return time.Duration(e.ReadyTimeoutSeconds) * time.Second
}

// ReadyPoll returns the readiness poll interval
func (e ExecutionConfig) ReadyPoll() time.Duration {
	return time.Duration(e.ReadyPollMillis) * time.Millisecond
}

// ClientTimeout returns the client invocation deadline
func (e ExecutionConfig) ClientTimeout() time.Duration {
	return time.Duration(e.ClientTimeoutSecs) * time.Second
}

// GracePeriod returns how long to wait after SIGTERM before force-killing
func (e ExecutionConfig) GracePeriod() time.Duration {
	return time.Duration(e.GracePeriodSeconds) * time.Second
}

// BatchConfig describes one scheduled pipeline run
type BatchConfig struct {
	Name          string `toml:"name"`
	Cron          string `toml:"cron"`
	SDK           string `toml:"sdk"`
	Variant       string `toml:"variant"`
	SkipExecution bool   `toml:"skip_execution"`
}

// Validate checks that a batch config is runnable
func (b BatchConfig) Validate() error {
	if b.Name == "" {
		return fmt.Errorf("batch has no name")
	}
	if b.Cron == "" {
		return fmt.Errorf("batch %s has no cron expression", b.Name)
	}
	if b.SDK == "" {
		return fmt.Errorf("batch %s has no sdk", b.Name)
	}
	return nil
}

// Default returns a Config with sensible defaults
func Default() *Config {
	home, _ := os.UserHomeDir()
	return &Config{
		General: GeneralConfig{
			WorkspaceDir: filepath.Join(home, ".sample-harness", "workspaces"),
			DatabasePath: filepath.Join(home, ".sample-harness", "harness.db"),
		},
		Generator: GeneratorConfig{
			Command:        "claude",
			CredentialVar:  "ANTHROPIC_API_KEY",
			TimeoutMinutes: 15,
		},
		Engine: EngineConfig{
			Host:         "127.0.0.1",
			Port:         7233,
			StartCommand: "temporal server start-dev",
		},
		Build: BuildConfig{
			TimeoutMinutes: 10,
		},
		Execution: ExecutionConfig{
			ReadyTimeoutSeconds: 60,
			ReadyPollMillis:     500,
			ClientTimeoutSecs:   120,
			GracePeriodSeconds:  5,
		},
	}
}

// Load reads configuration from a TOML file, falling back to defaults
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, err
	}

	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}

	// Expand paths
	cfg.General.WorkspaceDir = ExpandPath(cfg.General.WorkspaceDir)
	cfg.General.DatabasePath = ExpandPath(cfg.General.DatabasePath)

	return cfg, nil
}

// Save writes the configuration to a TOML file
func (c *Config) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	data, err := toml.Marshal(c)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// ExpandPath expands ~ to the user's home directory
func ExpandPath(path string) string {
	if strings.HasPrefix(path, "~/") {
		home, _ := os.UserHomeDir()
		return filepath.Join(home, path[2:])
	}
	return path
}

// DefaultConfigPath returns the default config file location
func DefaultConfigPath() string {
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".config", "sample-harness", "config.toml")
}
