package config

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-viper/mapstructure/v2"
	"github.com/spf13/viper"
)

// Config root configuration. Constructed once at session start and passed by
// reference into each component; nothing reads ambient global state.
type Config struct {
	Agent     AgentConfig     `mapstructure:"agent"`
	Providers ProvidersConfig `mapstructure:"providers"`
	Log       LogConfig       `mapstructure:"log"`
	Exec      ExecConfig      `mapstructure:"exec"`
	Safety    SafetyConfig    `mapstructure:"safety"`
	Approval  ApprovalConfig  `mapstructure:"approval"`
}

// AgentConfig agent loop settings
type AgentConfig struct {
	Workspace         string  `mapstructure:"workspace"`
	Model             string  `mapstructure:"model"`
	MaxTokens         int     `mapstructure:"max_tokens"`
	Temperature       float64 `mapstructure:"temperature"`
	MaxToolIterations int     `mapstructure:"max_tool_iterations"`
}

// ProvidersConfig LLM provider settings
type ProvidersConfig struct {
	OpenRouter ProviderConfig `mapstructure:"openrouter"`
	Claude     ProviderConfig `mapstructure:"claude"`
	OpenAI     ProviderConfig `mapstructure:"openai"`
	DeepSeek   ProviderConfig `mapstructure:"deepseek"`
	Ollama     ProviderConfig `mapstructure:"ollama"`
}

// ProviderConfig single provider settings
type ProviderConfig struct {
	APIKey  string `mapstructure:"api_key"`
	BaseURL string `mapstructure:"base_url"`
}

// LogConfig application logging settings
type LogConfig struct {
	Level string `mapstructure:"level"`
	File  string `mapstructure:"file"`
}

// ExecConfig shell execution settings
type ExecConfig struct {
	TimeoutSeconds      int  `mapstructure:"timeout_seconds"`
	GraceMillis         int  `mapstructure:"grace_millis"`
	RestrictToWorkspace bool `mapstructure:"restrict_to_workspace"`
}

// SafetyConfig command classification settings. The prefix list is read-only
// for the session's lifetime.
type SafetyConfig struct {
	SafePrefixes []string `mapstructure:"safe_prefixes"`
}

// ApprovalConfig session approval settings
type ApprovalConfig struct {
	Scope           string `mapstructure:"scope"` // per_class | global
	GrantTTLMinutes int    `mapstructure:"grant_ttl_minutes"`
}

// DefaultConfig returns config with sensible defaults
func DefaultConfig() *Config {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		slog.Warn("failed to resolve home directory, using current directory as fallback", "error", err)
		homeDir = "."
	}
	return &Config{
		Agent: AgentConfig{
			Workspace:         filepath.Join(homeDir, ".warden", "workspace"),
			Model:             "anthropic/claude-sonnet-4-5",
			MaxTokens:         8192,
			Temperature:       0.7,
			MaxToolIterations: 20,
		},
		Providers: ProvidersConfig{},
		Log: LogConfig{
			Level: "info",
			File:  "",
		},
		Exec: ExecConfig{
			TimeoutSeconds:      60,
			GraceMillis:         200,
			RestrictToWorkspace: true,
		},
		Safety: SafetyConfig{
			SafePrefixes: []string{
				"ls", "pwd", "cat", "head", "tail", "wc",
				"git status", "git log", "git diff",
			},
		},
		Approval: ApprovalConfig{
			Scope:           "per_class",
			GrantTTLMinutes: 15,
		},
	}
}

// ConfigDir returns the warden config directory
func ConfigDir() string {
	homeDir, _ := os.UserHomeDir()
	return filepath.Join(homeDir, ".warden")
}

// ConfigPath returns the config file path
func ConfigPath() string {
	return filepath.Join(ConfigDir(), "config.json")
}

// Load loads config from file or returns defaults
func Load() (*Config, error) {
	cfg := DefaultConfig()

	configPath := ConfigPath()
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		if err := Save(cfg); err != nil {
			return cfg, fmt.Errorf("failed to create default config: %w", err)
		}
		return cfg, nil
	}

	v := viper.New()
	v.SetConfigFile(configPath)
	v.SetConfigType("json")
	v.SetEnvPrefix("WARDEN")
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		return cfg, err
	}

	if err := v.Unmarshal(cfg, func(dc *mapstructure.DecoderConfig) {
		dc.TagName = "mapstructure"
		dc.MatchName = func(mapKey, fieldName string) bool {
			return normalizeKey(mapKey) == normalizeKey(fieldName)
		}
	}); err != nil {
		return cfg, err
	}

	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

func normalizeKey(input string) string {
	input = strings.ReplaceAll(input, "_", "")
	input = strings.ReplaceAll(input, "-", "")
	return strings.ToLower(input)
}

// Save saves config to file
func Save(cfg *Config) error {
	configPath := ConfigPath()

	if err := os.MkdirAll(filepath.Dir(configPath), 0755); err != nil {
		return err
	}

	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return err
	}

	return os.WriteFile(configPath, data, 0600)
}

// Validate checks that the configuration values are within acceptable ranges.
func (c *Config) Validate() error {
	a := &c.Agent

	if a.MaxToolIterations < 0 {
		return fmt.Errorf("agent.max_tool_iterations must not be negative, got %d", a.MaxToolIterations)
	}
	if a.MaxToolIterations == 0 {
		a.MaxToolIterations = 20
	}

	if a.Temperature < 0 || a.Temperature > 2.0 {
		return fmt.Errorf("agent.temperature must be between 0 and 2.0, got %f", a.Temperature)
	}

	if a.MaxTokens <= 0 {
		return fmt.Errorf("agent.max_tokens must be > 0, got %d", a.MaxTokens)
	}

	if c.Exec.TimeoutSeconds < 0 {
		return fmt.Errorf("exec.timeout_seconds must not be negative, got %d", c.Exec.TimeoutSeconds)
	}
	if c.Exec.TimeoutSeconds == 0 {
		c.Exec.TimeoutSeconds = 60
	}
	if c.Exec.GraceMillis <= 0 {
		c.Exec.GraceMillis = 200
	}

	scope := strings.ToLower(strings.TrimSpace(c.Approval.Scope))
	switch scope {
	case "":
		c.Approval.Scope = "per_class"
	case "per_class", "global":
		c.Approval.Scope = scope
	default:
		return fmt.Errorf("approval.scope must be per_class or global; got %q", c.Approval.Scope)
	}
	if c.Approval.GrantTTLMinutes < 0 {
		return fmt.Errorf("approval.grant_ttl_minutes must not be negative, got %d", c.Approval.GrantTTLMinutes)
	}
	if c.Approval.GrantTTLMinutes == 0 {
		c.Approval.GrantTTLMinutes = 15
	}

	for _, prefix := range c.Safety.SafePrefixes {
		if strings.TrimSpace(prefix) == "" {
			return fmt.Errorf("safety.safe_prefixes must not contain blank entries")
		}
	}

	level := strings.ToLower(strings.TrimSpace(c.Log.Level))
	if level == "" {
		c.Log.Level = "info"
	} else {
		validLevels := map[string]bool{
			"debug": true,
			"info":  true,
			"warn":  true,
			"error": true,
		}
		if !validLevels[level] {
			return fmt.Errorf("log.level must be one of debug, info, warn, error; got %q", c.Log.Level)
		}
		c.Log.Level = level
	}

	return nil
}

// WorkspacePath returns the expanded workspace path
func (c *Config) WorkspacePath() string {
	path, err := c.WorkspacePathChecked()
	if err != nil {
		return filepath.Join(ConfigDir(), "workspace")
	}
	return path
}

// WorkspacePathChecked returns the expanded workspace path or an error if invalid.
func (c *Config) WorkspacePathChecked() (string, error) {
	workspace := strings.TrimSpace(c.Agent.Workspace)
	if workspace == "" {
		return filepath.Join(ConfigDir(), "workspace"), nil
	}
	if workspace[0] == '~' {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("failed to resolve home directory for workspace path: %w", err)
		}
		rest := workspace[1:]
		rest = strings.TrimPrefix(rest, string(filepath.Separator))
		rest = strings.TrimPrefix(rest, "/")
		return filepath.Join(homeDir, rest), nil
	}
	return workspace, nil
}
