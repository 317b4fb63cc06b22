// Package provider implements processor.Provider for hosted assistant
// services. Importing it registers "openai" and "anthropic".
package provider

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/petasbytes/go-assistant/internal/telemetry"
	"github.com/petasbytes/go-assistant/processor"
)

func init() {
	processor.Register("openai", func(cfg processor.Config) (processor.Provider, error) {
		p, err := NewOpenAI(cfg)
		if err != nil {
			return nil, err
		}
		return p, nil
	})
	processor.Register("anthropic", func(cfg processor.Config) (processor.Provider, error) {
		p, err := NewAnthropic(cfg)
		if err != nil {
			return nil, err
		}
		return p, nil
	})
}

// apiKey returns the configured key, falling back to env.
func apiKey(cfg processor.Config, env string) (string, error) {
	if cfg.APIKey != "" {
		return cfg.APIKey, nil
	}
	if v := os.Getenv(env); v != "" {
		return v, nil
	}
	return "", fmt.Errorf("%w: set api_key or %s", processor.ErrMissingAPIKey, env)
}

// apiError wraps err from provider with its HTTP status. A 404 also
// matches processor.ErrNotFound.
func apiError(provider string, status int, msg string, err error) error {
	if status == http.StatusNotFound {
		err = errors.Join(processor.ErrNotFound, err)
	}
	return &processor.APIError{Provider: provider, StatusCode: status, Message: msg, Err: err}
}

// finishRun emits run_finished and converts a non-completed terminal run
// into a *processor.RunError.
func finishRun(run *processor.Run, started time.Time) error {
	var errStr any
	var err error
	if run.Status != processor.RunCompleted {
		err = &processor.RunError{RunID: run.ID, Status: run.Status, Reason: run.LastError}
		errStr = err.Error()
	}
	telemetry.Emit(telemetry.EventRunFinished, map[string]any{
		"run_id":      run.ID,
		"thread_id":   run.ThreadID,
		"status":      string(run.Status),
		"duration_ms": time.Since(started).Milliseconds(),
		"error":       errStr,
	})
	return err
}

func emitRunStatus(run *processor.Run) {
	telemetry.Emit(telemetry.EventRunStatus, map[string]any{
		"run_id": run.ID,
		"status": string(run.Status),
	})
}

// cancelContext detaches from ctx so cleanup can run after it ended.
func cancelContext(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.WithoutCancel(ctx), 10*time.Second)
}
