package provider

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/sashabaranov/go-openai"

	"github.com/petasbytes/go-assistant/internal/telemetry"
	"github.com/petasbytes/go-assistant/processor"
)

const (
	openAIName         = "openai"
	openAIListLimit    = 100
	DefaultOpenAIModel = openai.GPT3Dot5Turbo
)

// OpenAI drives the hosted Assistants API: assistants, threads, messages and
// runs all live on the service.
type OpenAI struct {
	client *openai.Client
	cfg    processor.Config
	fns    *processor.Functions
	log    *slog.Logger
}

// NewOpenAI builds a client from cfg. The key falls back to OPENAI_API_KEY.
func NewOpenAI(cfg processor.Config) (*OpenAI, error) {
	cfg = cfg.WithDefaults()
	key, err := apiKey(cfg, "OPENAI_API_KEY")
	if err != nil {
		return nil, err
	}
	oc := openai.DefaultConfig(key)
	if cfg.BaseURL != "" {
		oc.BaseURL = cfg.BaseURL
	}
	if cfg.HTTPClient != nil {
		oc.HTTPClient = cfg.HTTPClient
	}
	if cfg.Model == "" {
		cfg.Model = DefaultOpenAIModel
	}
	return &OpenAI{
		client: openai.NewClientWithConfig(oc),
		cfg:    cfg,
		fns:    processor.NewFunctions(cfg.Functions),
		log:    cfg.Logger.With("provider", openAIName),
	}, nil
}

func (p *OpenAI) CreateAssistant(ctx context.Context, params processor.AssistantParams) (*processor.Assistant, error) {
	model := params.Model
	if model == "" {
		model = p.cfg.Model
	}
	req := openai.AssistantRequest{
		Model:        model,
		Name:         &params.Name,
		Instructions: &params.Instructions,
	}
	for _, t := range params.Tools {
		at := openai.AssistantTool{Type: openai.AssistantToolType(t.Type)}
		if t.Function != nil {
			at.Function = &openai.FunctionDefinition{
				Name:        t.Function.Name,
				Description: t.Function.Description,
				Parameters:  t.Function.Parameters,
			}
		}
		req.Tools = append(req.Tools, at)
	}

	a, err := p.client.CreateAssistant(ctx, req)
	if err != nil {
		return nil, p.wrap("create assistant", err)
	}
	out := &processor.Assistant{
		ID:           a.ID,
		Name:         deref(a.Name),
		Instructions: deref(a.Instructions),
		Model:        a.Model,
		Tools:        params.Tools,
		CreatedAt:    time.Unix(int64(a.CreatedAt), 0).UTC(),
	}
	telemetry.Emit(telemetry.EventAssistantCreated, map[string]any{
		"provider":     openAIName,
		"assistant_id": out.ID,
		"model":        out.Model,
		"tools":        len(out.Tools),
	})
	p.log.Info("assistant created", "assistant_id", out.ID, "model", out.Model)
	return out, nil
}

func (p *OpenAI) GetOrCreateThread(ctx context.Context, threadID string) (*processor.Thread, error) {
	var (
		t       openai.Thread
		err     error
		created = threadID == ""
	)
	if created {
		t, err = p.client.CreateThread(ctx, openai.ThreadRequest{})
	} else {
		t, err = p.client.RetrieveThread(ctx, threadID)
	}
	if err != nil {
		return nil, p.wrap("thread "+threadID, err)
	}
	out := &processor.Thread{ID: t.ID, CreatedAt: time.Unix(int64(t.CreatedAt), 0).UTC()}
	if len(t.Metadata) > 0 {
		out.Metadata = make(map[string]string, len(t.Metadata))
		for k, v := range t.Metadata {
			out.Metadata[k] = fmt.Sprint(v)
		}
	}
	telemetry.Emit(telemetry.EventThreadReady, map[string]any{
		"provider":  openAIName,
		"thread_id": out.ID,
		"created":   created,
	})
	return out, nil
}

func (p *OpenAI) CreateMessage(ctx context.Context, threadID, assistantID, content string) (*processor.Message, error) {
	msg, err := p.appendMessage(ctx, threadID, processor.RoleUser, content)
	if err != nil {
		return nil, err
	}
	if _, err := p.StartRun(ctx, threadID, assistantID); err != nil {
		return nil, err
	}
	return msg, nil
}

func (p *OpenAI) appendMessage(ctx context.Context, threadID string, role processor.Role, content string) (*processor.Message, error) {
	m, err := p.client.CreateMessage(ctx, threadID, openai.MessageRequest{
		Role:    string(role),
		Content: content,
	})
	if err != nil {
		return nil, p.wrap("create message", err)
	}
	out := convertMessage(m)
	telemetry.Emit(telemetry.EventMessageCreated, map[string]any{
		"thread_id":  threadID,
		"message_id": out.ID,
		"role":       string(role),
	})
	telemetry.EmitMessageFeatures(ctx, threadID, string(role), content)
	return &out, nil
}

// StartRun creates a run and polls it until terminal, answering
// requires_action with the registered functions. When RunTimeout elapses the
// run is cancelled and an error matching processor.ErrTimeout is returned.
func (p *OpenAI) StartRun(ctx context.Context, threadID, assistantID string) (*processor.Run, error) {
	started := time.Now()
	r, err := p.client.CreateRun(ctx, threadID, openai.RunRequest{AssistantID: assistantID})
	if err != nil {
		return nil, p.wrap("create run", err)
	}
	run := convertRun(r)
	ctx = telemetry.WithRunID(ctx, run.ID)
	telemetry.Emit(telemetry.EventRunStarted, map[string]any{
		"provider":     openAIName,
		"run_id":       run.ID,
		"thread_id":    threadID,
		"assistant_id": assistantID,
	})
	p.log.Debug("run started", "run_id", run.ID, "thread_id", threadID)

	last := run.Status
	err = processor.Poll(ctx, p.cfg.PollInterval, p.cfg.RunTimeout, func(ctx context.Context) (bool, error) {
		r, err := p.client.RetrieveRun(ctx, threadID, run.ID)
		if err != nil {
			return false, p.wrap("retrieve run", err)
		}
		run = convertRun(r)
		if run.Status != last {
			last = run.Status
			emitRunStatus(run)
			p.log.Debug("run status", "run_id", run.ID, "status", run.Status)
		}
		if run.Status == processor.RunRequiresAction {
			next, err := p.SubmitToolOutputs(ctx, run, run.RequiredAction)
			if err != nil {
				return false, err
			}
			run = next
		}
		return run.Status.Terminal(), nil
	})
	if err != nil {
		switch {
		case processor.IsTimeout(err):
			p.cancelRun(ctx, threadID, run.ID)
			run.Status = processor.RunExpired
		case ctx.Err() != nil:
			// A run left active blocks new messages on the thread.
			p.cancelRun(ctx, threadID, run.ID)
			run.Status = processor.RunCancelled
			if !errors.Is(err, ctx.Err()) {
				err = fmt.Errorf("%w: %w", ctx.Err(), err)
			}
		default:
			return run, err
		}
		run.LastError = err.Error()
		_ = finishRun(run, started)
		return run, err
	}
	return run, finishRun(run, started)
}

// cancelRun asks the service to stop a run that timed out or was abandoned
// by the caller. Failures are logged.
func (p *OpenAI) cancelRun(ctx context.Context, threadID, runID string) {
	cctx, cancel := cancelContext(ctx)
	defer cancel()
	if _, err := p.client.CancelRun(cctx, threadID, runID); err != nil {
		p.log.Warn("cancel run failed", "run_id", runID, "error", err)
	}
}

func (p *OpenAI) GetAssistantResponse(ctx context.Context, threadID string, maxRetries int) (*processor.Message, error) {
	var reply *processor.Message
	err := processor.Retry(ctx, maxRetries, p.cfg.RetryDelay, p.log, func(ctx context.Context) error {
		msgs, err := p.GetThreadMessages(ctx, threadID)
		if err != nil {
			return err
		}
		reply, err = processor.LatestReply(msgs)
		return err
	})
	telemetry.Emit(telemetry.EventResponseAwaited, map[string]any{
		"provider":  openAIName,
		"thread_id": threadID,
		"found":     err == nil,
	})
	if err != nil {
		return nil, err
	}
	return reply, nil
}

// GetThreadMessages pages through the thread in ascending order.
func (p *OpenAI) GetThreadMessages(ctx context.Context, threadID string) ([]processor.Message, error) {
	var (
		out   []processor.Message
		after *string
		limit = openAIListLimit
		order = "asc"
	)
	for {
		page, err := p.client.ListMessage(ctx, threadID, &limit, &order, after, nil, nil)
		if err != nil {
			return nil, p.wrap("list messages", err)
		}
		for _, m := range page.Messages {
			out = append(out, convertMessage(m))
		}
		if !page.HasMore || len(page.Messages) == 0 {
			return out, nil
		}
		id := page.Messages[len(page.Messages)-1].ID
		after = &id
	}
}

func (p *OpenAI) SetupNewThread(ctx context.Context, threadID string, messages []processor.Message) error {
	for _, m := range messages {
		text := m.Text()
		if text == "" {
			continue
		}
		if _, err := p.appendMessage(ctx, threadID, m.Role, text); err != nil {
			return fmt.Errorf("replay into %s: %w", threadID, err)
		}
	}
	return nil
}

func (p *OpenAI) ExecuteFunctionCall(ctx context.Context, threadID, name string, args json.RawMessage) (string, error) {
	p.log.Debug("function call", "thread_id", threadID, "name", name)
	return p.fns.Call(ctx, name, args)
}

// SubmitToolOutputs executes calls and posts their outputs to the run.
func (p *OpenAI) SubmitToolOutputs(ctx context.Context, run *processor.Run, calls []processor.ToolCall) (*processor.Run, error) {
	outputs := p.fns.Execute(telemetry.WithRunID(ctx, run.ID), calls)
	req := openai.SubmitToolOutputsRequest{}
	for _, o := range outputs {
		req.ToolOutputs = append(req.ToolOutputs, openai.ToolOutput{ToolCallID: o.ToolCallID, Output: o.Output})
	}
	r, err := p.client.SubmitToolOutputs(ctx, run.ThreadID, run.ID, req)
	if err != nil {
		return nil, p.wrap("submit tool outputs", err)
	}
	next := convertRun(r)
	next.ToolOutputs = outputs
	return next, nil
}

func (p *OpenAI) Close() error { return nil }

func (p *OpenAI) wrap(op string, err error) error {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return fmt.Errorf("%s: %w", op, apiError(openAIName, apiErr.HTTPStatusCode, apiErr.Message, err))
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		return fmt.Errorf("%s: %w", op, apiError(openAIName, reqErr.HTTPStatusCode, reqErr.Error(), err))
	}
	return fmt.Errorf("%s: %w", op, err)
}

func convertMessage(m openai.Message) processor.Message {
	out := processor.Message{
		ID:          m.ID,
		ThreadID:    m.ThreadID,
		Role:        processor.Role(m.Role),
		CreatedAt:   time.Unix(int64(m.CreatedAt), 0).UTC(),
		AssistantID: deref(m.AssistantID),
		RunID:       deref(m.RunID),
	}
	for _, c := range m.Content {
		block := processor.ContentBlock{Type: c.Type}
		if c.Text != nil {
			block.Text = c.Text.Value
			block.Annotations = c.Text.Annotations
		}
		out.Content = append(out.Content, block)
	}
	return out
}

func convertRun(r openai.Run) *processor.Run {
	out := &processor.Run{
		ID:          r.ID,
		ThreadID:    r.ThreadID,
		AssistantID: r.AssistantID,
		Status:      processor.RunStatus(r.Status),
		CreatedAt:   time.Unix(int64(r.CreatedAt), 0).UTC(),
	}
	if r.CompletedAt != nil {
		t := time.Unix(int64(*r.CompletedAt), 0).UTC()
		out.CompletedAt = &t
	}
	if r.LastError != nil {
		out.LastError = r.LastError.Message
	}
	if r.RequiredAction != nil && r.RequiredAction.SubmitToolOutputs != nil {
		for _, c := range r.RequiredAction.SubmitToolOutputs.ToolCalls {
			out.RequiredAction = append(out.RequiredAction, processor.ToolCall{
				ID:        c.ID,
				Name:      c.Function.Name,
				Arguments: json.RawMessage(c.Function.Arguments),
			})
		}
	}
	return out
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
