package memory_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/petasbytes/go-assistant/memory"
	"github.com/petasbytes/go-assistant/processor"
)

func TestSession_RoundTrip(t *testing.T) {
	dir := t.TempDir()
	p := filepath.Join(dir, ".assistant", "session.json")

	in := &memory.Session{Provider: "openai", AssistantID: "asst_1", ThreadID: "thread_1"}
	in.Append(processor.RoleUser, "hi")
	in.Append(processor.RoleAssistant, "")
	in.Append(processor.RoleAssistant, "hello")
	if err := memory.SaveSession(p, in); err != nil {
		t.Fatalf("save: %v", err)
	}

	out, err := memory.LoadSession(p)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if out.Provider != "openai" || out.AssistantID != "asst_1" || out.ThreadID != "thread_1" {
		t.Fatalf("unexpected session header: %+v", out)
	}
	if len(out.Messages) != 2 {
		t.Fatalf("length mismatch: got %d want 2", len(out.Messages))
	}
	for i, want := range []memory.Message{{Role: "user", Text: "hi"}, {Role: "assistant", Text: "hello"}} {
		if out.Messages[i] != want {
			t.Fatalf("mismatch at %d: got %+v want %+v", i, out.Messages[i], want)
		}
	}
}

func TestSession_LoadMissing_ReturnsEmpty(t *testing.T) {
	p := filepath.Join(t.TempDir(), "does-not-exist.json")

	s, err := memory.LoadSession(p)
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if s == nil || s.ThreadID != "" || len(s.Messages) != 0 {
		t.Fatalf("expected empty session, got %#v", s)
	}
}

func TestSession_LoadInvalidJSON_ReturnsError(t *testing.T) {
	p := filepath.Join(t.TempDir(), "bad.json")
	if err := os.WriteFile(p, []byte("{oops"), 0o664); err != nil {
		t.Fatalf("prep: %v", err)
	}
	if _, err := memory.LoadSession(p); err == nil {
		t.Fatal("expected error for invalid JSON")
	}
}

func TestSession_Transcript(t *testing.T) {
	s := &memory.Session{Messages: []memory.Message{{Role: "user", Text: "3x + 7 = 22"}, {Role: "assistant", Text: "x = 5"}}}
	msgs := s.Transcript()
	if len(msgs) != 2 {
		t.Fatalf("got %d messages", len(msgs))
	}
	if msgs[0].Role != processor.RoleUser || msgs[1].Text() != "x = 5" {
		t.Fatalf("unexpected transcript: %+v", msgs)
	}
}

func TestSession_Matches(t *testing.T) {
	if !(&memory.Session{}).Matches("openai") {
		t.Fatal("empty session should match any provider")
	}
	s := &memory.Session{Provider: "anthropic"}
	if s.Matches("openai") || !s.Matches("anthropic") {
		t.Fatalf("unexpected match result for %+v", s)
	}
}
