package windowing_test

import (
	"testing"

	"github.com/petasbytes/go-assistant/internal/windowing"
	"github.com/petasbytes/go-assistant/processor"
)

func TestHeuristicCounter_TextAndOverhead(t *testing.T) {
	c := windowing.HeuristicCounter{}
	if got := c.CountMessage(user("hello")); got != 9 {
		t.Fatalf("got %d, want 9", got)
	}
	// Runes, not bytes.
	if got := c.CountMessage(user("héllo")); got != 9 {
		t.Fatalf("got %d, want 9", got)
	}
	m := processor.Message{Role: processor.RoleAssistant, Content: []processor.ContentBlock{
		{Type: "text", Text: "ab"},
		{Type: "image_file"},
	}}
	if got := c.CountMessage(m); got != 10 {
		t.Fatalf("got %d, want 10", got)
	}
}

func TestCountGroup_SumsSpan(t *testing.T) {
	msgs := []processor.Message{user("abc"), asst("de"), user("f")}
	g := windowing.Group{Kind: windowing.GroupTurn, Start: 0, End: 2}
	if got := windowing.CountGroup(windowing.HeuristicCounter{}, g, msgs); got != 13 {
		t.Fatalf("got %d, want 13", got)
	}
}

func TestNewCounter(t *testing.T) {
	c, err := windowing.NewCounter("")
	if err != nil {
		t.Fatalf("default counter: %v", err)
	}
	if _, ok := c.(windowing.HeuristicCounter); !ok {
		t.Fatalf("expected HeuristicCounter, got %T", c)
	}
	if _, err := windowing.NewCounter("bogus"); err == nil {
		t.Fatalf("expected error for unknown counter")
	}
}

func TestTiktokenCounter_CountsTokens(t *testing.T) {
	c, err := windowing.NewTiktokenCounter("cl100k_base")
	if err != nil {
		t.Skipf("encoding unavailable: %v", err)
	}
	short := c.CountMessage(user("hi"))
	long := c.CountMessage(user("Solve the equation: 3x + 7 = 22. Show all solution steps."))
	if short <= 4 || long <= short {
		t.Fatalf("unexpected counts: short=%d long=%d", short, long)
	}
}
