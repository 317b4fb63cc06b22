package processor

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/petasbytes/go-assistant/tools"
)

const (
	DefaultPollInterval    = time.Second
	DefaultRunTimeout      = 2 * time.Minute
	DefaultResponseRetries = 3
	DefaultRetryDelay      = 2 * time.Second
	DefaultMaxToolSteps    = 8
	DefaultTokenBudget     = 8000
)

// Config selects and configures a provider.
type Config struct {
	Provider    string
	Model       string
	APIKey      string
	BaseURL     string
	AssistantID string

	// Functions are exposed to assistants and executed on requires_action.
	Functions []tools.ToolDefinition

	PollInterval    time.Duration
	RunTimeout      time.Duration
	ResponseRetries int
	RetryDelay      time.Duration

	// Used by providers that execute runs locally.
	MaxToolSteps int
	TokenBudget  int
	Counter      string
	StoreDriver  string
	StorePath    string

	HTTPClient *http.Client
	Logger     *slog.Logger
}

// WithDefaults returns a copy of c with zero values replaced by defaults.
func (c Config) WithDefaults() Config {
	if c.PollInterval <= 0 {
		c.PollInterval = DefaultPollInterval
	}
	if c.RunTimeout <= 0 {
		c.RunTimeout = DefaultRunTimeout
	}
	if c.ResponseRetries <= 0 {
		c.ResponseRetries = DefaultResponseRetries
	}
	if c.RetryDelay <= 0 {
		c.RetryDelay = DefaultRetryDelay
	}
	if c.MaxToolSteps <= 0 {
		c.MaxToolSteps = DefaultMaxToolSteps
	}
	if c.TokenBudget <= 0 {
		c.TokenBudget = DefaultTokenBudget
	}
	if c.Counter == "" {
		c.Counter = "heuristic"
	}
	if c.StoreDriver == "" {
		c.StoreDriver = "memory"
	}
	if c.Logger == nil {
		c.Logger = slog.Default()
	}
	return c
}
