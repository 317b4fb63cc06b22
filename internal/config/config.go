// Package config loads CLI settings from an optional assistant.yaml, a .env
// file, and ASST_* environment variables.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/petasbytes/go-assistant/processor"
	"github.com/petasbytes/go-assistant/tools"
)

// EnvPrefix prefixes every environment override, e.g. ASST_WINDOW_TOKEN_BUDGET.
const EnvPrefix = "ASST"

type Config struct {
	Provider    string `mapstructure:"provider"`
	Model       string `mapstructure:"model"`
	APIKey      string `mapstructure:"api_key"`
	BaseURL     string `mapstructure:"base_url"`
	AssistantID string `mapstructure:"assistant_id"`

	PollInterval    time.Duration `mapstructure:"poll_interval"`
	RunTimeout      time.Duration `mapstructure:"run_timeout"`
	ResponseRetries int           `mapstructure:"response_retries"`
	RetryDelay      time.Duration `mapstructure:"retry_delay"`
	MaxToolSteps    int           `mapstructure:"max_tool_steps"`

	Window      WindowConfig  `mapstructure:"window"`
	Store       StoreConfig   `mapstructure:"store"`
	SessionPath string        `mapstructure:"session_path"`
	Sandbox     SandboxConfig `mapstructure:"sandbox"`
	Observe     bool          `mapstructure:"observe"`
	Log         LogConfig     `mapstructure:"log"`
}

type WindowConfig struct {
	TokenBudget int    `mapstructure:"token_budget"`
	Counter     string `mapstructure:"counter"` // heuristic, tiktoken
}

type StoreConfig struct {
	Driver string `mapstructure:"driver"` // memory, sqlite
	Path   string `mapstructure:"path"`
}

type SandboxConfig struct {
	// ReadRoot confines read_file and list_files; empty means the working directory.
	ReadRoot string `mapstructure:"read_root"`
}

type LogConfig struct {
	Level     string `mapstructure:"level"`
	Format    string `mapstructure:"format"`
	Output    string `mapstructure:"output"`
	FilePath  string `mapstructure:"file_path"`
	AddSource bool   `mapstructure:"add_source"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("provider", "openai")
	v.SetDefault("model", "")
	v.SetDefault("api_key", "")
	v.SetDefault("base_url", "")
	v.SetDefault("assistant_id", "")
	v.SetDefault("poll_interval", processor.DefaultPollInterval)
	v.SetDefault("run_timeout", processor.DefaultRunTimeout)
	v.SetDefault("response_retries", processor.DefaultResponseRetries)
	v.SetDefault("retry_delay", processor.DefaultRetryDelay)
	v.SetDefault("max_tool_steps", processor.DefaultMaxToolSteps)
	v.SetDefault("window.token_budget", processor.DefaultTokenBudget)
	v.SetDefault("window.counter", "heuristic")
	v.SetDefault("store.driver", "memory")
	v.SetDefault("store.path", ".assistant/store.db")
	v.SetDefault("session_path", ".assistant/session.json")
	v.SetDefault("sandbox.read_root", "")
	v.SetDefault("observe", false)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")
	v.SetDefault("log.output", "stderr")
	v.SetDefault("log.file_path", "")
	v.SetDefault("log.add_source", false)
}

// Load reads configuration. An explicit configPath must exist; otherwise
// assistant.yaml is looked up in ./configs and . and may be absent.
func Load(configPath string) (*Config, error) {
	if _, err := os.Stat(".env"); err == nil {
		if err := godotenv.Load(); err != nil {
			return nil, fmt.Errorf("failed to load .env: %w", err)
		}
	}

	v := viper.New()
	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("assistant")
		v.SetConfigType("yaml")
		v.AddConfigPath("./configs")
		v.AddConfigPath(".")
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if configPath != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if cfg.APIKey == "" {
		cfg.APIKey = os.Getenv(CredentialEnv(cfg.Provider))
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return &cfg, nil
}

// CredentialEnv names the provider's conventional credential variable.
func CredentialEnv(provider string) string {
	return strings.ToUpper(provider) + "_API_KEY"
}

func (c *Config) Validate() error {
	if c.Provider == "" {
		return fmt.Errorf("provider is required")
	}
	if c.PollInterval <= 0 {
		return fmt.Errorf("poll_interval must be positive, got %s", c.PollInterval)
	}
	if c.RunTimeout < c.PollInterval {
		return fmt.Errorf("run_timeout (%s) must not be shorter than poll_interval (%s)", c.RunTimeout, c.PollInterval)
	}
	if c.ResponseRetries < 1 {
		return fmt.Errorf("response_retries must be at least 1, got %d", c.ResponseRetries)
	}
	if c.RetryDelay <= 0 {
		return fmt.Errorf("retry_delay must be positive, got %s", c.RetryDelay)
	}
	if c.MaxToolSteps < 1 {
		return fmt.Errorf("max_tool_steps must be at least 1, got %d", c.MaxToolSteps)
	}
	if c.Window.TokenBudget < 1 {
		return fmt.Errorf("window.token_budget must be positive, got %d", c.Window.TokenBudget)
	}
	if c.Window.Counter != "heuristic" && c.Window.Counter != "tiktoken" {
		return fmt.Errorf("invalid window.counter: %s, must be 'heuristic' or 'tiktoken'", c.Window.Counter)
	}
	switch c.Store.Driver {
	case "memory":
	case "sqlite":
		if c.Store.Path == "" {
			return fmt.Errorf("store.path is required for the sqlite driver")
		}
	default:
		return fmt.Errorf("invalid store.driver: %s, must be 'memory' or 'sqlite'", c.Store.Driver)
	}

	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[strings.ToLower(c.Log.Level)] {
		return fmt.Errorf("invalid log level: %s", c.Log.Level)
	}
	if c.Log.Format != "json" && c.Log.Format != "text" {
		return fmt.Errorf("invalid log format: %s, must be 'json' or 'text'", c.Log.Format)
	}
	switch c.Log.Output {
	case "stdout", "stderr":
	case "file":
		if c.Log.FilePath == "" {
			return fmt.Errorf("log.file_path is required when log.output is 'file'")
		}
	default:
		return fmt.Errorf("invalid log output: %s", c.Log.Output)
	}
	return nil
}

// Processor converts the settings into a processor configuration.
func (c *Config) Processor(fns []tools.ToolDefinition, log *slog.Logger) processor.Config {
	return processor.Config{
		Provider:        c.Provider,
		Model:           c.Model,
		APIKey:          c.APIKey,
		BaseURL:         c.BaseURL,
		AssistantID:     c.AssistantID,
		Functions:       fns,
		PollInterval:    c.PollInterval,
		RunTimeout:      c.RunTimeout,
		ResponseRetries: c.ResponseRetries,
		RetryDelay:      c.RetryDelay,
		MaxToolSteps:    c.MaxToolSteps,
		TokenBudget:     c.Window.TokenBudget,
		Counter:         c.Window.Counter,
		StoreDriver:     c.Store.Driver,
		StorePath:       c.Store.Path,
		Logger:          log,
	}
}
