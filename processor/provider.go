package processor

import (
	"context"
	"encoding/json"
)

// Provider is implemented by each hosted assistant backend.
type Provider interface {
	// CreateAssistant provisions an assistant resource.
	CreateAssistant(ctx context.Context, params AssistantParams) (*Assistant, error)

	// GetOrCreateThread retrieves threadID, or creates a new thread when threadID is empty.
	GetOrCreateThread(ctx context.Context, threadID string) (*Thread, error)

	// CreateMessage appends a user message to the thread and runs the assistant on it.
	// It returns the created user message.
	CreateMessage(ctx context.Context, threadID, assistantID, content string) (*Message, error)

	// StartRun executes the assistant against the thread until the run is terminal,
	// answering function calls along the way.
	StartRun(ctx context.Context, threadID, assistantID string) (*Run, error)

	// GetAssistantResponse returns the newest assistant message that follows the
	// newest user message, retrying up to maxRetries times while none exists.
	GetAssistantResponse(ctx context.Context, threadID string, maxRetries int) (*Message, error)

	// GetThreadMessages lists the thread oldest first.
	GetThreadMessages(ctx context.Context, threadID string) ([]Message, error)

	// SetupNewThread replays messages (role and text) into threadID.
	SetupNewThread(ctx context.Context, threadID string, messages []Message) error

	// ExecuteFunctionCall runs a registered function for a thread.
	ExecuteFunctionCall(ctx context.Context, threadID, name string, args json.RawMessage) (string, error)

	// SubmitToolOutputs executes calls and hands their outputs back to run.
	SubmitToolOutputs(ctx context.Context, run *Run, calls []ToolCall) (*Run, error)

	// Close releases provider resources.
	Close() error
}
