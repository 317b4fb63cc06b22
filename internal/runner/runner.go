package runner

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/tidwall/gjson"

	"github.com/petasbytes/go-assistant/internal/telemetry"
	"github.com/petasbytes/go-assistant/internal/windowing"
	"github.com/petasbytes/go-assistant/processor"
)

// DefaultMaxTokens caps the reply length of one step.
const DefaultMaxTokens = 1024

// ErrOverBudget is returned when the newest turn alone exceeds the token budget.
var ErrOverBudget = errors.New("windowing: newest turn exceeds token budget")

type Runner struct {
	Client    *anthropic.Client
	Tools     []processor.Tool
	Counter   windowing.TokenCounter
	Budget    int
	MaxTokens int64
	Log       *slog.Logger
}

func New(client *anthropic.Client, tools []processor.Tool, counter windowing.TokenCounter, budget int) *Runner {
	if counter == nil {
		counter = windowing.HeuristicCounter{}
	}
	return &Runner{
		Client:    client,
		Tools:     tools,
		Counter:   counter,
		Budget:    budget,
		MaxTokens: DefaultMaxTokens,
		Log:       slog.Default(),
	}
}

// Step is the outcome of one Messages API call.
type Step struct {
	Message *anthropic.Message
	// Text joins the text blocks of the reply.
	Text  string
	Calls []processor.ToolCall
}

func (r *Runner) anthropicTools() []anthropic.ToolUnionParam {
	out := make([]anthropic.ToolUnionParam, 0, len(r.Tools))
	for _, t := range r.Tools {
		if t.Type != processor.ToolFunction || t.Function == nil {
			continue
		}
		out = append(out, anthropic.ToolUnionParam{OfTool: &anthropic.ToolParam{
			Name:        t.Function.Name,
			Description: anthropic.String(t.Function.Description),
			InputSchema: inputSchema(t.Function.Parameters),
		}})
	}
	return out
}

// inputSchema extracts properties and required from a JSON Schema object.
// Parameters may be a Go map or one decoded back from storage.
func inputSchema(params any) anthropic.ToolInputSchemaParam {
	var schema anthropic.ToolInputSchemaParam
	raw, err := json.Marshal(params)
	if err != nil {
		return schema
	}
	if props := gjson.GetBytes(raw, "properties"); props.IsObject() {
		schema.Properties = json.RawMessage(props.Raw)
	}
	for _, req := range gjson.GetBytes(raw, "required").Array() {
		schema.Required = append(schema.Required, req.String())
	}
	return schema
}

// Prepare windows the thread history to the token budget and converts it into
// a conversation. A newest turn over budget fails with ErrOverBudget.
func (r *Runner) Prepare(ctx context.Context, model string, history []processor.Message) ([]anthropic.MessageParam, error) {
	window, stats := windowing.PrepareSendWindow(history, r.Budget, r.Counter)

	runID, _ := telemetry.RunIDFromContext(ctx)
	telemetry.Emit(telemetry.EventWindowPrepared, map[string]any{
		"run_id":             runID,
		"model":              model,
		"budget":             stats.Budget,
		"total_estimated":    stats.Total,
		"included_groups":    stats.IncludedGroups,
		"skipped_groups":     stats.SkippedGroups,
		"over_budget_newest": stats.OverBudgetNewest,
	})
	r.Log.Debug("window prepared",
		"model", model,
		"budget", stats.Budget,
		"est_total", stats.Total,
		"groups_in", stats.IncludedGroups,
		"groups_skip", stats.SkippedGroups,
	)

	if stats.OverBudgetNewest {
		return nil, fmt.Errorf("%w (budget %d)", ErrOverBudget, r.Budget)
	}
	return Conversation(window), nil
}

// Step sends conv with system as the system prompt and returns the reply.
func (r *Runner) Step(ctx context.Context, model, system string, conv []anthropic.MessageParam) (*Step, error) {
	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(model),
		MaxTokens: r.MaxTokens,
		Messages:  conv,
	}
	if system != "" {
		params.System = []anthropic.TextBlockParam{{Text: system}}
	}
	if tools := r.anthropicTools(); len(tools) > 0 {
		params.Tools = tools
	}

	msg, err := r.Client.Messages.New(ctx, params)
	if err != nil {
		return nil, err
	}

	step := &Step{Message: msg}
	var texts []string
	for _, block := range msg.Content {
		switch v := block.AsAny().(type) {
		case anthropic.TextBlock:
			if v.Text != "" {
				texts = append(texts, v.Text)
			}
		case anthropic.ToolUseBlock:
			step.Calls = append(step.Calls, processor.ToolCall{ID: v.ID, Name: v.Name, Arguments: v.Input})
		}
	}
	step.Text = strings.Join(texts, "\n")
	return step, nil
}

// ToolResults renders outputs as tool_result blocks for the next user turn.
func ToolResults(outputs []processor.ToolOutput) []anthropic.ContentBlockParamUnion {
	out := make([]anthropic.ContentBlockParamUnion, 0, len(outputs))
	for _, o := range outputs {
		out = append(out, anthropic.NewToolResultBlock(o.ToolCallID, o.Output, o.IsError))
	}
	return out
}

// Conversation converts thread messages into Messages API params. The API
// requires a leading user turn and alternating roles, so leading assistant
// messages are dropped and consecutive messages of one role are merged.
func Conversation(msgs []processor.Message) []anthropic.MessageParam {
	var out []anthropic.MessageParam
	for _, m := range msgs {
		text := m.Text()
		if text == "" {
			continue
		}
		role := anthropic.MessageParamRoleUser
		if m.Role == processor.RoleAssistant {
			if len(out) == 0 {
				continue
			}
			role = anthropic.MessageParamRoleAssistant
		}
		block := anthropic.NewTextBlock(text)
		if n := len(out); n > 0 && out[n-1].Role == role {
			out[n-1].Content = append(out[n-1].Content, block)
			continue
		}
		out = append(out, anthropic.MessageParam{Role: role, Content: []anthropic.ContentBlockParamUnion{block}})
	}
	return out
}
