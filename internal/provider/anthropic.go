package provider

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/petasbytes/go-assistant/internal/runner"
	"github.com/petasbytes/go-assistant/internal/store"
	"github.com/petasbytes/go-assistant/internal/telemetry"
	"github.com/petasbytes/go-assistant/internal/windowing"
	"github.com/petasbytes/go-assistant/processor"
)

const (
	anthropicName         = "anthropic"
	DefaultAnthropicModel = anthropic.ModelClaudeSonnet4_5
)

// Anthropic emulates the thread API on top of the Messages API. Assistants,
// threads, messages and runs are kept in a local store and each run is
// executed in-process.
type Anthropic struct {
	client  *anthropic.Client
	store   store.Store
	counter windowing.TokenCounter
	cfg     processor.Config
	fns     *processor.Functions
	log     *slog.Logger
}

// NewAnthropic builds a client and opens the configured store. The key falls
// back to ANTHROPIC_API_KEY.
func NewAnthropic(cfg processor.Config) (*Anthropic, error) {
	cfg = cfg.WithDefaults()
	key, err := apiKey(cfg, "ANTHROPIC_API_KEY")
	if err != nil {
		return nil, err
	}
	if cfg.Model == "" {
		cfg.Model = string(DefaultAnthropicModel)
	}
	log := cfg.Logger.With("provider", anthropicName)

	// Retries are driven by processor.Retry around each step.
	opts := []option.RequestOption{option.WithAPIKey(key), option.WithMaxRetries(0)}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}
	if cfg.HTTPClient != nil {
		opts = append(opts, option.WithHTTPClient(cfg.HTTPClient))
	}
	client := anthropic.NewClient(opts...)

	counter, err := windowing.NewCounter(cfg.Counter)
	if err != nil {
		log.Warn("token counter unavailable, using heuristic", "counter", cfg.Counter, "error", err)
		counter = windowing.HeuristicCounter{}
	}

	st, err := store.Open(cfg.StoreDriver, cfg.StorePath)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}

	return &Anthropic{
		client:  &client,
		store:   st,
		counter: counter,
		cfg:     cfg,
		fns:     processor.NewFunctions(cfg.Functions),
		log:     log,
	}, nil
}

// CreateAssistant stores the assistant. Only function tools can run locally;
// other tool types are dropped with a warning.
func (p *Anthropic) CreateAssistant(ctx context.Context, params processor.AssistantParams) (*processor.Assistant, error) {
	a := &processor.Assistant{
		Name:         params.Name,
		Instructions: params.Instructions,
		Model:        params.Model,
	}
	if a.Model == "" {
		a.Model = p.cfg.Model
	}
	for _, t := range params.Tools {
		if t.Type != processor.ToolFunction || t.Function == nil {
			p.log.Warn("tool not supported, dropping", "tool", t.Type)
			continue
		}
		a.Tools = append(a.Tools, t)
	}
	if err := p.store.CreateAssistant(ctx, a); err != nil {
		return nil, err
	}
	telemetry.Emit(telemetry.EventAssistantCreated, map[string]any{
		"provider":     anthropicName,
		"assistant_id": a.ID,
		"model":        a.Model,
		"tools":        len(a.Tools),
	})
	p.log.Info("assistant created", "assistant_id", a.ID, "model", a.Model)
	return a, nil
}

func (p *Anthropic) GetOrCreateThread(ctx context.Context, threadID string) (*processor.Thread, error) {
	if threadID != "" {
		t, err := p.store.GetThread(ctx, threadID)
		if err != nil {
			return nil, err
		}
		telemetry.Emit(telemetry.EventThreadReady, map[string]any{"provider": anthropicName, "thread_id": t.ID, "created": false})
		return t, nil
	}
	t := &processor.Thread{}
	if err := p.store.CreateThread(ctx, t); err != nil {
		return nil, err
	}
	telemetry.Emit(telemetry.EventThreadReady, map[string]any{"provider": anthropicName, "thread_id": t.ID, "created": true})
	return t, nil
}

func (p *Anthropic) CreateMessage(ctx context.Context, threadID, assistantID, content string) (*processor.Message, error) {
	msg, err := p.appendMessage(ctx, threadID, processor.TextMessage(processor.RoleUser, content))
	if err != nil {
		return nil, err
	}
	if _, err := p.StartRun(ctx, threadID, assistantID); err != nil {
		return nil, err
	}
	return msg, nil
}

func (p *Anthropic) appendMessage(ctx context.Context, threadID string, m processor.Message) (*processor.Message, error) {
	m.ThreadID = threadID
	if err := p.store.AppendMessage(ctx, &m); err != nil {
		return nil, err
	}
	telemetry.Emit(telemetry.EventMessageCreated, map[string]any{
		"thread_id":  threadID,
		"message_id": m.ID,
		"role":       string(m.Role),
	})
	telemetry.EmitMessageFeatures(ctx, threadID, string(m.Role), m.Text())
	return &m, nil
}

// StartRun windows the thread, then alternates model steps and function
// calls until the model stops calling functions, MaxToolSteps is reached, or
// RunTimeout elapses.
func (p *Anthropic) StartRun(ctx context.Context, threadID, assistantID string) (*processor.Run, error) {
	started := time.Now()
	a, err := p.store.GetAssistant(ctx, assistantID)
	if err != nil {
		return nil, err
	}
	history, err := p.store.ListMessages(ctx, threadID)
	if err != nil {
		return nil, err
	}

	run := &processor.Run{ThreadID: threadID, AssistantID: assistantID, Status: processor.RunInProgress}
	if err := p.store.SaveRun(ctx, run); err != nil {
		return nil, err
	}
	ctx = telemetry.WithRunID(ctx, run.ID)
	telemetry.Emit(telemetry.EventRunStarted, map[string]any{
		"provider":     anthropicName,
		"run_id":       run.ID,
		"thread_id":    threadID,
		"assistant_id": assistantID,
	})

	rctx, cancel := context.WithTimeout(ctx, p.cfg.RunTimeout)
	defer cancel()

	err = p.execute(rctx, a, run, history)
	if err != nil && ctx.Err() == nil && errors.Is(rctx.Err(), context.DeadlineExceeded) {
		err = fmt.Errorf("%w after %s: %w", processor.ErrTimeout, p.cfg.RunTimeout, err)
		p.transition(ctx, run, processor.RunExpired, err.Error())
	}
	if err != nil && ctx.Err() != nil && !run.Status.Terminal() {
		p.transition(ctx, run, processor.RunCancelled, err.Error())
		if !errors.Is(err, ctx.Err()) {
			err = fmt.Errorf("%w: %w", ctx.Err(), err)
		}
	}
	if err != nil {
		if !run.Status.Terminal() {
			p.transition(ctx, run, processor.RunFailed, err.Error())
			err = fmt.Errorf("%w: %w", processor.ErrRunFailed, err)
		}
		_ = finishRun(run, started)
		return run, err
	}
	return run, finishRun(run, started)
}

func (p *Anthropic) execute(ctx context.Context, a *processor.Assistant, run *processor.Run, history []processor.Message) error {
	r := runner.New(p.client, a.Tools, p.counter, p.cfg.TokenBudget)
	r.Log = p.log

	conv, err := r.Prepare(ctx, a.Model, history)
	if err != nil {
		return err
	}
	if len(conv) == 0 {
		return fmt.Errorf("thread %s has no user message", run.ThreadID)
	}

	for steps := 0; ; steps++ {
		if steps >= p.cfg.MaxToolSteps {
			p.transition(ctx, run, processor.RunIncomplete, fmt.Sprintf("exceeded %d tool steps", p.cfg.MaxToolSteps))
			return nil
		}

		var step *runner.Step
		err := processor.Retry(ctx, p.cfg.ResponseRetries, p.cfg.RetryDelay, p.log, func(ctx context.Context) error {
			var err error
			step, err = r.Step(ctx, a.Model, a.Instructions, conv)
			return p.wrap(err)
		})
		if err != nil {
			return err
		}

		if step.Text != "" {
			reply := processor.TextMessage(processor.RoleAssistant, step.Text)
			reply.AssistantID = a.ID
			reply.RunID = run.ID
			if _, err := p.appendMessage(ctx, run.ThreadID, reply); err != nil {
				return err
			}
		}
		if len(step.Calls) == 0 {
			now := time.Now().UTC()
			run.CompletedAt = &now
			p.transition(ctx, run, processor.RunCompleted, "")
			return nil
		}

		conv = append(conv, step.Message.ToParam())
		run.RequiredAction = step.Calls
		p.transition(ctx, run, processor.RunRequiresAction, "")
		next, err := p.SubmitToolOutputs(ctx, run, step.Calls)
		if err != nil {
			return err
		}
		*run = *next
		conv = append(conv, anthropic.NewUserMessage(runner.ToolResults(run.ToolOutputs)...))
	}
}

// transition records a status change. Store failures are logged so the run
// outcome still reaches the caller.
func (p *Anthropic) transition(ctx context.Context, run *processor.Run, status processor.RunStatus, reason string) {
	run.Status = status
	if reason != "" {
		run.LastError = reason
	}
	if err := p.store.SaveRun(context.WithoutCancel(ctx), run); err != nil {
		p.log.Warn("save run failed", "run_id", run.ID, "error", err)
	}
	emitRunStatus(run)
}

func (p *Anthropic) GetAssistantResponse(ctx context.Context, threadID string, maxRetries int) (*processor.Message, error) {
	var reply *processor.Message
	err := processor.Retry(ctx, maxRetries, p.cfg.RetryDelay, p.log, func(ctx context.Context) error {
		msgs, err := p.store.ListMessages(ctx, threadID)
		if err != nil {
			return err
		}
		reply, err = processor.LatestReply(msgs)
		return err
	})
	telemetry.Emit(telemetry.EventResponseAwaited, map[string]any{
		"provider":  anthropicName,
		"thread_id": threadID,
		"found":     err == nil,
	})
	if err != nil {
		return nil, err
	}
	return reply, nil
}

func (p *Anthropic) GetThreadMessages(ctx context.Context, threadID string) ([]processor.Message, error) {
	return p.store.ListMessages(ctx, threadID)
}

func (p *Anthropic) SetupNewThread(ctx context.Context, threadID string, messages []processor.Message) error {
	for _, m := range messages {
		text := m.Text()
		if text == "" {
			continue
		}
		if _, err := p.appendMessage(ctx, threadID, processor.TextMessage(m.Role, text)); err != nil {
			return fmt.Errorf("replay into %s: %w", threadID, err)
		}
	}
	return nil
}

func (p *Anthropic) ExecuteFunctionCall(ctx context.Context, threadID, name string, args json.RawMessage) (string, error) {
	p.log.Debug("function call", "thread_id", threadID, "name", name)
	return p.fns.Call(ctx, name, args)
}

// SubmitToolOutputs executes calls and resumes the run. The outputs are
// returned on the run for the next model step.
func (p *Anthropic) SubmitToolOutputs(ctx context.Context, run *processor.Run, calls []processor.ToolCall) (*processor.Run, error) {
	stored, err := p.store.GetRun(ctx, run.ID)
	if err != nil {
		return nil, err
	}
	if stored.Status != processor.RunRequiresAction {
		return nil, fmt.Errorf("run %s is %s, not %s", run.ID, stored.Status, processor.RunRequiresAction)
	}
	next := *run
	next.ToolOutputs = p.fns.Execute(telemetry.WithRunID(ctx, run.ID), calls)
	next.RequiredAction = nil
	next.Status = processor.RunInProgress
	if err := p.store.SaveRun(ctx, &next); err != nil {
		return nil, err
	}
	emitRunStatus(&next)
	return &next, nil
}

func (p *Anthropic) Close() error { return p.store.Close() }

func (p *Anthropic) wrap(err error) error {
	if err == nil {
		return nil
	}
	var apiErr *anthropic.Error
	if errors.As(err, &apiErr) {
		return apiError(anthropicName, apiErr.StatusCode, apiErr.Error(), err)
	}
	return err
}
