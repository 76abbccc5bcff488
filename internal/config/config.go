package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/dyluth/standup/internal/ado"
	"gopkg.in/yaml.v3"
)

// DefaultPath is the config file looked up in the working directory.
const DefaultPath = "standup.yml"

// Environment overrides. The Azure DevOps PAT is only ever read from the
// environment and is never written back to the file.
const (
	EnvWorkspace = "STANDUP_WORKSPACE"
	EnvRedisURL  = "STANDUP_REDIS_URL"
	EnvSharedDir = "STANDUP_SHARED_DIR"
)

// StandupConfig represents the top-level standup.yml configuration
type StandupConfig struct {
	Version     string            `yaml:"version"`
	Workspace   string            `yaml:"workspace"`
	Storage     StorageConfig     `yaml:"storage"`
	AzureDevOps AzureDevOpsConfig `yaml:"azure_devops"`
	Logging     LoggingConfig     `yaml:"logging"`
	Server      ServerConfig      `yaml:"server"`

	// PAT comes from AZURE_DEVOPS_PAT
	PAT string `yaml:"-"`
}

// StorageConfig selects where the document is kept
type StorageConfig struct {
	RedisURL     string `yaml:"redis_url,omitempty"` // Empty = in-memory, session only
	Bootstrap    string `yaml:"bootstrap,omitempty"` // Path or http(s) URL adopted on first load; empty disables
	SharedDir    string `yaml:"shared_dir,omitempty"`
	PollInterval string `yaml:"poll_interval,omitempty"`
	SaveDebounce string `yaml:"save_debounce,omitempty"`
}

// AzureDevOpsConfig locates the work item comments API
type AzureDevOpsConfig struct {
	BaseURL      string `yaml:"base_url,omitempty"`
	Organization string `yaml:"organization,omitempty"`
	Project      string `yaml:"project,omitempty"`
	APIVersion   string `yaml:"api_version,omitempty"`
	Timeout      string `yaml:"timeout,omitempty"`
}

// LoggingConfig configures the logrus logger
type LoggingConfig struct {
	Level  string `yaml:"level,omitempty"`
	Format string `yaml:"format,omitempty"` // "text" or "json"
}

// ServerConfig configures `standup serve`
type ServerConfig struct {
	Addr string `yaml:"addr,omitempty"`
}

// Default returns a configuration with every default applied.
func Default() *StandupConfig {
	c := &StandupConfig{}
	c.applyDefaults()
	return c
}

func (c *StandupConfig) applyDefaults() {
	if c.Version == "" {
		c.Version = "1.0"
	}
	if c.Workspace == "" {
		c.Workspace = "default"
	}
	if c.Storage.PollInterval == "" {
		c.Storage.PollInterval = "5s"
	}
	if c.Storage.SaveDebounce == "" {
		c.Storage.SaveDebounce = "400ms"
	}
	if c.AzureDevOps.BaseURL == "" {
		c.AzureDevOps.BaseURL = ado.DefaultBaseURL
	}
	if c.AzureDevOps.Organization == "" {
		c.AzureDevOps.Organization = ado.DefaultOrganization
	}
	if c.AzureDevOps.Project == "" {
		c.AzureDevOps.Project = ado.DefaultProject
	}
	if c.AzureDevOps.APIVersion == "" {
		c.AzureDevOps.APIVersion = ado.DefaultAPIVersion
	}
	if c.AzureDevOps.Timeout == "" {
		c.AzureDevOps.Timeout = "15s"
	}
	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
	if c.Logging.Format == "" {
		c.Logging.Format = "text"
	}
	if c.Server.Addr == "" {
		c.Server.Addr = ":8080"
	}
}

func (c *StandupConfig) applyEnv() {
	if v := os.Getenv(EnvWorkspace); v != "" {
		c.Workspace = v
	}
	if v := os.Getenv(EnvRedisURL); v != "" {
		c.Storage.RedisURL = v
	}
	if v := os.Getenv(EnvSharedDir); v != "" {
		c.Storage.SharedDir = v
	}
	c.PAT = strings.TrimSpace(os.Getenv(ado.PATEnvVar))
}

// Validate performs strict validation on the configuration
func (c *StandupConfig) Validate() error {
	if c.Version != "1.0" {
		return fmt.Errorf("unsupported version: %s (expected: 1.0)", c.Version)
	}

	if strings.TrimSpace(c.Workspace) == "" {
		return fmt.Errorf("workspace is required")
	}
	if strings.ContainsAny(c.Workspace, ": ") {
		return fmt.Errorf("invalid workspace '%s': must not contain spaces or ':'", c.Workspace)
	}

	durations := []struct {
		name  string
		value string
	}{
		{"storage.poll_interval", c.Storage.PollInterval},
		{"storage.save_debounce", c.Storage.SaveDebounce},
		{"azure_devops.timeout", c.AzureDevOps.Timeout},
	}
	for _, d := range durations {
		if _, err := parsePositiveDuration(d.value); err != nil {
			return fmt.Errorf("%s: %w", d.name, err)
		}
	}

	if c.Logging.Format != "text" && c.Logging.Format != "json" {
		return fmt.Errorf("invalid logging.format: %s (must be 'text' or 'json')", c.Logging.Format)
	}

	return nil
}

func parsePositiveDuration(s string) (time.Duration, error) {
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, fmt.Errorf("invalid duration %q: %w", s, err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("duration must be positive, got %s", s)
	}
	return d, nil
}

// PollInterval is the shared file fallback polling interval.
func (c *StandupConfig) PollInterval() time.Duration {
	d, _ := parsePositiveDuration(c.Storage.PollInterval)
	return d
}

// SaveDebounce is the trailing delay before a save.
func (c *StandupConfig) SaveDebounce() time.Duration {
	d, _ := parsePositiveDuration(c.Storage.SaveDebounce)
	return d
}

// ADOClientConfig builds the Azure DevOps client configuration.
func (c *StandupConfig) ADOClientConfig() ado.Config {
	timeout, _ := parsePositiveDuration(c.AzureDevOps.Timeout)
	return ado.Config{
		BaseURL:      c.AzureDevOps.BaseURL,
		Organization: c.AzureDevOps.Organization,
		Project:      c.AzureDevOps.Project,
		APIVersion:   c.AzureDevOps.APIVersion,
		PAT:          c.PAT,
		Timeout:      timeout,
	}
}

// Load reads and validates standup.yml from the specified path. A missing
// file yields the defaults; environment overrides apply either way.
func Load(path string) (*StandupConfig, error) {
	var config StandupConfig

	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
	case err != nil:
		return nil, fmt.Errorf("failed to read config: %w", err)
	default:
		if err := yaml.Unmarshal(data, &config); err != nil {
			return nil, fmt.Errorf("failed to parse YAML: %w", err)
		}
	}

	config.applyDefaults()
	config.applyEnv()

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

// Save writes the configuration to path.
func (c *StandupConfig) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}
