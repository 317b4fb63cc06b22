package store

import (
	"context"
	"slices"
	"sync"

	"github.com/petasbytes/go-assistant/processor"
)

// Memory is a process-local Store.
type Memory struct {
	mu         sync.RWMutex
	assistants map[string]processor.Assistant
	threads    map[string]processor.Thread
	messages   map[string][]processor.Message
	runs       map[string]processor.Run
}

func NewMemory() *Memory {
	return &Memory{
		assistants: map[string]processor.Assistant{},
		threads:    map[string]processor.Thread{},
		messages:   map[string][]processor.Message{},
		runs:       map[string]processor.Run{},
	}
}

func (m *Memory) CreateAssistant(_ context.Context, a *processor.Assistant) error {
	stamp(&a.ID, &a.CreatedAt, "asst")
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *a
	cp.Tools = slices.Clone(a.Tools)
	m.assistants[a.ID] = cp
	return nil
}

func (m *Memory) GetAssistant(_ context.Context, id string) (*processor.Assistant, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	a, ok := m.assistants[id]
	if !ok {
		return nil, notFound("assistant", id)
	}
	a.Tools = slices.Clone(a.Tools)
	return &a, nil
}

func (m *Memory) CreateThread(_ context.Context, t *processor.Thread) error {
	stamp(&t.ID, &t.CreatedAt, "thread")
	m.mu.Lock()
	defer m.mu.Unlock()
	m.threads[t.ID] = *t
	return nil
}

func (m *Memory) GetThread(_ context.Context, id string) (*processor.Thread, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	t, ok := m.threads[id]
	if !ok {
		return nil, notFound("thread", id)
	}
	return &t, nil
}

func (m *Memory) AppendMessage(_ context.Context, msg *processor.Message) error {
	stamp(&msg.ID, &msg.CreatedAt, "msg")
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.threads[msg.ThreadID]; !ok {
		return notFound("thread", msg.ThreadID)
	}
	cp := *msg
	cp.Content = slices.Clone(msg.Content)
	m.messages[msg.ThreadID] = append(m.messages[msg.ThreadID], cp)
	return nil
}

func (m *Memory) ListMessages(_ context.Context, threadID string) ([]processor.Message, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if _, ok := m.threads[threadID]; !ok {
		return nil, notFound("thread", threadID)
	}
	out := make([]processor.Message, len(m.messages[threadID]))
	for i, msg := range m.messages[threadID] {
		msg.Content = slices.Clone(msg.Content)
		out[i] = msg
	}
	return out, nil
}

func (m *Memory) SaveRun(_ context.Context, r *processor.Run) error {
	stamp(&r.ID, &r.CreatedAt, "run")
	m.mu.Lock()
	defer m.mu.Unlock()
	m.runs[r.ID] = *r
	return nil
}

func (m *Memory) GetRun(_ context.Context, id string) (*processor.Run, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	r, ok := m.runs[id]
	if !ok {
		return nil, notFound("run", id)
	}
	return &r, nil
}

func (m *Memory) Close() error { return nil }
