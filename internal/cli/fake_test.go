package cli_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/petasbytes/go-assistant/internal/cli"
	"github.com/petasbytes/go-assistant/processor"
)

// fakeProvider keeps threads in memory and answers every message with a
// fixed reply.
type fakeProvider struct {
	mu         sync.Mutex
	assistants []processor.AssistantParams
	threads    map[string][]processor.Message
	replayed   map[string][]processor.Message
	nextID     int
	reply      string
	sendErr    error
	replyErr   error
	closed     bool
}

// useFake registers a fresh fake under the "fake" provider name.
func useFake(t *testing.T) *fakeProvider {
	t.Helper()
	f := &fakeProvider{
		threads:  map[string][]processor.Message{},
		replayed: map[string][]processor.Message{},
		reply:    "3x + 7 = 22\n3x = 15\nx = 5",
	}
	processor.Register("fake", func(processor.Config) (processor.Provider, error) { return f, nil })
	return f
}

func (f *fakeProvider) id(prefix string) string {
	f.nextID++
	return fmt.Sprintf("%s_%d", prefix, f.nextID)
}

func (f *fakeProvider) CreateAssistant(_ context.Context, p processor.AssistantParams) (*processor.Assistant, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.assistants = append(f.assistants, p)
	return &processor.Assistant{ID: f.id("asst"), Name: p.Name, Instructions: p.Instructions, Model: p.Model, Tools: p.Tools}, nil
}

func (f *fakeProvider) GetOrCreateThread(_ context.Context, threadID string) (*processor.Thread, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if threadID == "" {
		threadID = f.id("thread")
		f.threads[threadID] = nil
		return &processor.Thread{ID: threadID}, nil
	}
	if _, ok := f.threads[threadID]; !ok {
		return nil, fmt.Errorf("thread %q: %w", threadID, processor.ErrNotFound)
	}
	return &processor.Thread{ID: threadID}, nil
}

func (f *fakeProvider) CreateMessage(_ context.Context, threadID, assistantID, content string) (*processor.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.sendErr != nil {
		return nil, f.sendErr
	}
	if _, ok := f.threads[threadID]; !ok {
		return nil, fmt.Errorf("thread %q: %w", threadID, processor.ErrNotFound)
	}
	m := processor.TextMessage(processor.RoleUser, content)
	m.ID, m.ThreadID, m.CreatedAt = f.id("msg"), threadID, time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	r := processor.TextMessage(processor.RoleAssistant, f.reply)
	r.ID, r.ThreadID, r.AssistantID, r.CreatedAt = f.id("msg"), threadID, assistantID, m.CreatedAt
	f.threads[threadID] = append(f.threads[threadID], m, r)
	return &m, nil
}

func (f *fakeProvider) StartRun(context.Context, string, string) (*processor.Run, error) {
	return &processor.Run{Status: processor.RunCompleted}, nil
}

func (f *fakeProvider) GetAssistantResponse(_ context.Context, threadID string, _ int) (*processor.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.replyErr != nil {
		return nil, f.replyErr
	}
	return processor.LatestReply(f.threads[threadID])
}

func (f *fakeProvider) GetThreadMessages(_ context.Context, threadID string) ([]processor.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	msgs, ok := f.threads[threadID]
	if !ok {
		return nil, fmt.Errorf("thread %q: %w", threadID, processor.ErrNotFound)
	}
	return msgs, nil
}

func (f *fakeProvider) SetupNewThread(_ context.Context, threadID string, msgs []processor.Message) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.replayed[threadID] = msgs
	f.threads[threadID] = append(f.threads[threadID], msgs...)
	return nil
}

func (f *fakeProvider) ExecuteFunctionCall(context.Context, string, string, json.RawMessage) (string, error) {
	return "", processor.ErrUnknownFunction
}

func (f *fakeProvider) SubmitToolOutputs(_ context.Context, run *processor.Run, _ []processor.ToolCall) (*processor.Run, error) {
	return run, nil
}

func (f *fakeProvider) Close() error {
	f.closed = true
	return nil
}

// isolate runs the test in an empty directory with quiet logging.
func isolate(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Chdir(dir)
	t.Setenv("ASST_LOG_LEVEL", "error")
	t.Setenv("ASST_SESSION_PATH", dir+"/.assistant/session.json")
	return dir
}

// run executes asst with args against the fake provider and returns stdout.
func run(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	root := cli.NewRootCommand()
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetIn(strings.NewReader(stdin))
	root.SetArgs(append([]string{"--provider", "fake"}, args...))
	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

var errBoom = errors.New("boom")

func requireClosed(t *testing.T, f *fakeProvider) {
	t.Helper()
	require.True(t, f.closed, "provider was not closed")
}
