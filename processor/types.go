package processor

import (
	"encoding/json"
	"strings"
	"time"
)

// Role identifies the author of a thread message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// ToolType names a capability enabled on an assistant.
type ToolType string

const (
	ToolCodeInterpreter ToolType = "code_interpreter"
	ToolFileSearch      ToolType = "file_search"
	ToolFunction        ToolType = "function"
)

// FunctionSpec describes a callable function exposed to an assistant.
// Parameters holds a JSON Schema object.
type FunctionSpec struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Parameters  any    `json:"parameters,omitempty"`
}

// Tool is one enabled assistant capability. Function is set only for ToolFunction.
type Tool struct {
	Type     ToolType      `json:"type"`
	Function *FunctionSpec `json:"function,omitempty"`
}

// AssistantParams are the inputs for CreateAssistant.
type AssistantParams struct {
	Name         string
	Instructions string
	// Model falls back to Config.Model when empty.
	Model string
	Tools []Tool
}

// Assistant is a named, provider-hosted configuration that generates replies.
type Assistant struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Instructions string    `json:"instructions"`
	Model        string    `json:"model"`
	Tools        []Tool    `json:"tools,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}

// Thread is an ordered conversation of messages.
type Thread struct {
	ID        string            `json:"id"`
	CreatedAt time.Time         `json:"created_at"`
	Metadata  map[string]string `json:"metadata,omitempty"`
}

// ContentBlock is one piece of message content. Only text blocks carry Text.
type ContentBlock struct {
	Type        string `json:"type"`
	Text        string `json:"text,omitempty"`
	Annotations []any  `json:"annotations,omitempty"`
}

// Message is one turn in a thread.
type Message struct {
	ID          string         `json:"id"`
	ThreadID    string         `json:"thread_id"`
	Role        Role           `json:"role"`
	Content     []ContentBlock `json:"content"`
	CreatedAt   time.Time      `json:"created_at"`
	AssistantID string         `json:"assistant_id,omitempty"`
	// RunID links an assistant reply to the run that produced it.
	RunID string `json:"run_id,omitempty"`
}

// TextMessage builds a message with a single text block.
func TextMessage(role Role, text string) Message {
	return Message{Role: role, Content: []ContentBlock{{Type: "text", Text: text}}}
}

// Text joins the text blocks of m with newlines.
func (m Message) Text() string {
	var parts []string
	for _, c := range m.Content {
		if c.Type == "text" && c.Text != "" {
			parts = append(parts, c.Text)
		}
	}
	return strings.Join(parts, "\n")
}

// RunStatus is the lifecycle state of a run.
type RunStatus string

const (
	RunQueued         RunStatus = "queued"
	RunInProgress     RunStatus = "in_progress"
	RunRequiresAction RunStatus = "requires_action"
	RunCancelling     RunStatus = "cancelling"
	RunCancelled      RunStatus = "cancelled"
	RunFailed         RunStatus = "failed"
	RunCompleted      RunStatus = "completed"
	RunIncomplete     RunStatus = "incomplete"
	RunExpired        RunStatus = "expired"
)

// Terminal reports whether no further transitions are possible.
func (s RunStatus) Terminal() bool {
	switch s {
	case RunCancelled, RunFailed, RunCompleted, RunIncomplete, RunExpired:
		return true
	}
	return false
}

// ToolCall is a function invocation requested by a run.
type ToolCall struct {
	ID        string          `json:"id"`
	Name      string          `json:"name"`
	Arguments json.RawMessage `json:"arguments"`
}

// ToolOutput answers a ToolCall.
type ToolOutput struct {
	ToolCallID string `json:"tool_call_id"`
	Output     string `json:"output"`
	IsError    bool   `json:"is_error,omitempty"`
}

// Run is one execution of an assistant against a thread.
type Run struct {
	ID             string       `json:"id"`
	ThreadID       string       `json:"thread_id"`
	AssistantID    string       `json:"assistant_id"`
	Status         RunStatus    `json:"status"`
	RequiredAction []ToolCall   `json:"required_action,omitempty"`
	ToolOutputs    []ToolOutput `json:"tool_outputs,omitempty"`
	LastError      string       `json:"last_error,omitempty"`
	CreatedAt      time.Time    `json:"created_at"`
	CompletedAt    *time.Time   `json:"completed_at,omitempty"`
}

// LatestReply returns the newest assistant message that follows the newest
// user message in msgs (oldest first), or ErrNoAssistantMessage.
func LatestReply(msgs []Message) (*Message, error) {
	for i := len(msgs) - 1; i >= 0; i-- {
		switch msgs[i].Role {
		case RoleUser:
			return nil, ErrNoAssistantMessage
		case RoleAssistant:
			if msgs[i].Text() == "" {
				continue
			}
			m := msgs[i]
			return &m, nil
		}
	}
	return nil, ErrNoAssistantMessage
}
