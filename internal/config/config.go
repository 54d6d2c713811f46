package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// PermissionMode names the session-wide permission policy.
type PermissionMode string

const (
	ModeInteractive PermissionMode = "interactive"
	ModeFastEdit    PermissionMode = "fast_edit"
	ModeDanger      PermissionMode = "danger"
)

// AdapterBackend selects which ExecutionAdapter implementation the host wires up.
type AdapterBackend string

const (
	BackendLocal     AdapterBackend = "local"
	BackendContainer AdapterBackend = "container"
	BackendRemote    AdapterBackend = "remote"
)

// ProviderConfig holds model-provider configuration.
type ProviderConfig struct {
	Model   string `yaml:"model"`    // Anthropic model ID, e.g. "claude-sonnet-4-5"
	APIKey  string `yaml:"-"`        // Never persisted; sourced from ANTHROPIC_API_KEY
	BaseURL string `yaml:"base_url"` // Optional override for testing/proxies
}

// RateLimitConfig holds retry and token-bucket configuration for the provider wrapper.
type RateLimitConfig struct {
	MaxRetries         int           `yaml:"max_retries"`
	BaseDelay          time.Duration `yaml:"base_delay"`
	MaxDelay           time.Duration `yaml:"max_delay"`
	TokensPerMinute    int           `yaml:"tokens_per_minute"`
	EnableRateLimiting bool          `yaml:"enable_rate_limiting"`
}

// ContextConfig holds context-window management configuration.
type ContextConfig struct {
	AutoCompactThreshold float64 `yaml:"auto_compact_threshold"`
	WarnThreshold        float64 `yaml:"warn_threshold"`
	PreserveLast         int     `yaml:"preserve_last"`
	EnableAutoCompact    bool    `yaml:"enable_auto_compact"`
	ContextWindow        int     `yaml:"context_window"` // tokens
}

// ToolsConfig controls which built-in tools are registered and their behavior.
type ToolsConfig struct {
	Allowed        []string `yaml:"allowed"`          // empty = all built-ins registered
	BatchMaxFanout int      `yaml:"batch_max_fanout"` // concurrency cap for the batch tool
}

// AdapterConfig selects and configures the execution backend.
type AdapterConfig struct {
	Backend       AdapterBackend `yaml:"backend"`
	WorkspaceRoot string         `yaml:"workspace_root"`  // host project root (Local) or container mount source
	ContainerPath string         `yaml:"container_path"`  // workspace path inside the container/remote backend
	ContainerName string         `yaml:"container_name"`  // docker container name/id, required when Backend is "container"
	MaxReadBytes  int            `yaml:"max_read_bytes"`  // hard ceiling, clamped to 524288
	MaxReadLines  int            `yaml:"max_read_lines"`  // hard ceiling, clamped to 1000
	GlobResultCap int            `yaml:"glob_result_cap"` // hard cap, clamped to 100
}

// Config holds the application configuration.
type Config struct {
	Provider       ProviderConfig `yaml:"provider"`
	PermissionMode PermissionMode `yaml:"permission_mode"`
	MaxTokens      int            `yaml:"max_tokens"`
	Temperature    float64        `yaml:"temperature"`
	MaxRounds      int            `yaml:"max_rounds"` // agent loop safety cap
	RateLimit      RateLimitConfig `yaml:"rate_limit"`
	Context        ContextConfig   `yaml:"context"`
	Tools          ToolsConfig     `yaml:"tools"`
	Adapter        AdapterConfig   `yaml:"adapter"`

	// configPath records where the config was loaded from, if any.
	configPath string
}

// DefaultConfig returns a config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Provider: ProviderConfig{
			Model: "claude-sonnet-4-5-20250929",
		},
		PermissionMode: ModeInteractive,
		MaxTokens:      8192,
		Temperature:    0.7,
		MaxRounds:      64,
		RateLimit: RateLimitConfig{
			MaxRetries:         1,
			BaseDelay:          1 * time.Second,
			MaxDelay:           30 * time.Second,
			TokensPerMinute:    40000,
			EnableRateLimiting: true,
		},
		Context: ContextConfig{
			AutoCompactThreshold: 0.95,
			WarnThreshold:        0.80,
			PreserveLast:         4,
			EnableAutoCompact:    true,
			ContextWindow:        200000,
		},
		Tools: ToolsConfig{
			BatchMaxFanout: 8,
		},
		Adapter: AdapterConfig{
			Backend:       BackendLocal,
			ContainerPath: "/workspace",
			MaxReadBytes:  524288,
			MaxReadLines:  1000,
			GlobResultCap: 100,
		},
	}
}

// LoadOptions contains options for loading configuration.
type LoadOptions struct {
	ModelOverride string
}

// Load loads configuration from files and environment.
func Load() (*Config, error) {
	return LoadWithOptions(LoadOptions{})
}

// LoadWithOptions loads configuration with the given options.
func LoadWithOptions(opts LoadOptions) (*Config, error) {
	cfg := DefaultConfig()

	for _, path := range getConfigPaths() {
		if _, err := os.Stat(path); err == nil {
			if err := cfg.loadFromFile(path); err != nil {
				return nil, fmt.Errorf("error loading config from %s: %w", path, err)
			}
			cfg.configPath = path
			break
		}
	}

	cfg.Provider.APIKey = os.Getenv("ANTHROPIC_API_KEY")
	if base := os.Getenv("ANTHROPIC_BASE_URL"); base != "" {
		cfg.Provider.BaseURL = base
	}

	if opts.ModelOverride != "" {
		cfg.Provider.Model = opts.ModelOverride
	}

	clampAdapterCaps(&cfg.Adapter)

	return cfg, nil
}

func clampAdapterCaps(a *AdapterConfig) {
	if a.MaxReadBytes <= 0 || a.MaxReadBytes > 524288 {
		a.MaxReadBytes = 524288
	}
	if a.MaxReadLines <= 0 || a.MaxReadLines > 1000 {
		a.MaxReadLines = 1000
	}
	if a.GlobResultCap <= 0 || a.GlobResultCap > 100 {
		a.GlobResultCap = 100
	}
}

// getConfigPaths returns config file paths in priority order.
func getConfigPaths() []string {
	paths := []string{
		"agentcore.yaml",
		".agentcore/config.yaml",
	}

	if home, err := os.UserHomeDir(); err == nil {
		paths = append(paths, filepath.Join(home, ".config", "agentcore", "config.yaml"))
	}

	return paths
}

// loadFromFile loads config from a YAML file.
func (c *Config) loadFromFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return yaml.Unmarshal(data, c)
}

// ConfigPath returns where the config was loaded from.
func (c *Config) ConfigPath() string {
	return c.configPath
}
