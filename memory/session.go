package memory

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"

	"github.com/petasbytes/go-assistant/processor"
)

// Message is a minimal persisted view of a chat turn.
type Message struct {
	Role string `json:"role"`
	Text string `json:"text,omitempty"`
}

// Session is the state `asst chat` resumes from.
type Session struct {
	Provider    string    `json:"provider"`
	AssistantID string    `json:"assistant_id,omitempty"`
	ThreadID    string    `json:"thread_id,omitempty"`
	Messages    []Message `json:"messages,omitempty"`
}

// LoadSession reads path. A missing file yields an empty session.
func LoadSession(path string) (*Session, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return &Session{}, nil
		}
		return nil, err
	}
	var s Session
	if err := json.Unmarshal(b, &s); err != nil {
		return nil, err
	}
	return &s, nil
}

// SaveSession writes s to path, creating parent directories.
func SaveSession(path string, s *Session) error {
	b, err := json.MarshalIndent(s, "", " ")
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(path, b, 0o644)
}

// Append records a turn; blank text is skipped.
func (s *Session) Append(role processor.Role, text string) {
	if text == "" {
		return
	}
	s.Messages = append(s.Messages, Message{Role: string(role), Text: text})
}

// Transcript converts the stored turns for SetupNewThread.
func (s *Session) Transcript() []processor.Message {
	out := make([]processor.Message, 0, len(s.Messages))
	for _, m := range s.Messages {
		out = append(out, processor.TextMessage(processor.Role(m.Role), m.Text))
	}
	return out
}

// Matches reports whether the session belongs to provider, so a session
// saved by one provider is not resumed against another.
func (s *Session) Matches(provider string) bool {
	return s.Provider == "" || s.Provider == provider
}
