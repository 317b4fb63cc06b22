package processor

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/petasbytes/go-assistant/internal/telemetry"
	"github.com/petasbytes/go-assistant/tools"
)

// Functions dispatches tool calls to registered function definitions.
type Functions struct {
	defs []tools.ToolDefinition
}

// NewFunctions returns a dispatcher over defs. Later duplicates of a name are ignored.
func NewFunctions(defs []tools.ToolDefinition) *Functions {
	seen := make(map[string]bool, len(defs))
	f := &Functions{}
	for _, d := range defs {
		if seen[d.Name] {
			continue
		}
		seen[d.Name] = true
		f.defs = append(f.defs, d)
	}
	return f
}

// Tools describes the registered definitions as assistant function tools.
func (f *Functions) Tools() []Tool {
	out := make([]Tool, 0, len(f.defs))
	for _, d := range f.defs {
		out = append(out, Tool{Type: ToolFunction, Function: &FunctionSpec{
			Name:        d.Name,
			Description: d.Description,
			Parameters:  d.InputSchema.Object(),
		}})
	}
	return out
}

// Call runs the function named name with args and emits a tool_exec event.
func (f *Functions) Call(ctx context.Context, name string, args json.RawMessage) (string, error) {
	start := time.Now()
	runID, _ := telemetry.RunIDFromContext(ctx)
	emit := func(outSize int, errStr string) {
		fields := map[string]any{
			"tool_name":   name,
			"duration_ms": time.Since(start).Milliseconds(),
			"input_size":  len(args),
			"output_size": outSize,
			"run_id":      runID,
			"error":       nil,
		}
		if errStr != "" {
			fields["error"] = errStr
		}
		telemetry.Emit(telemetry.EventToolExec, fields)
	}

	def, ok := tools.Lookup(f.defs, name)
	if !ok {
		emit(0, "function not found")
		return "", fmt.Errorf("%w: %q", ErrUnknownFunction, name)
	}
	if len(args) == 0 {
		args = json.RawMessage(`{}`)
	}
	out, err := def.Function(args)
	if err != nil {
		// Telemetry gets a generic marker; the run gets the detail.
		emit(0, "function error")
		return "", err
	}
	emit(len(out), "")
	return out, nil
}

// Execute answers every call. Failures become error outputs so the run can
// continue and the assistant sees what went wrong.
func (f *Functions) Execute(ctx context.Context, calls []ToolCall) []ToolOutput {
	outputs := make([]ToolOutput, 0, len(calls))
	for _, c := range calls {
		out, err := f.Call(ctx, c.Name, c.Arguments)
		if err != nil {
			outputs = append(outputs, ToolOutput{ToolCallID: c.ID, Output: errorOutput(err), IsError: true})
			continue
		}
		outputs = append(outputs, ToolOutput{ToolCallID: c.ID, Output: out})
	}
	return outputs
}

// errorOutput renders err as a JSON object. Errors that already render as a
// JSON object are passed through.
func errorOutput(err error) string {
	msg := err.Error()
	if json.Valid([]byte(msg)) && len(msg) > 0 && msg[0] == '{' {
		return msg
	}
	b, _ := json.Marshal(map[string]string{"error": msg})
	return string(b)
}
