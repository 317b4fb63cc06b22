package windowing_test

import (
	"testing"

	"github.com/petasbytes/go-assistant/internal/windowing"
	"github.com/petasbytes/go-assistant/processor"
)

func TestGroupTurns_UserWithReplies(t *testing.T) {
	msgs := []processor.Message{
		user("Solve 3x + 7 = 22."),
		asst("Subtract 7."),
		asst("x = 5"),
		user("Thanks"),
	}
	groups := windowing.GroupTurns(msgs)
	if len(groups) != 2 {
		t.Fatalf("got %d groups, want 2: %+v", len(groups), groups)
	}
	if groups[0] != (windowing.Group{Kind: windowing.GroupTurn, Start: 0, End: 3}) {
		t.Fatalf("unexpected first group: %+v", groups[0])
	}
	if groups[1] != (windowing.Group{Kind: windowing.GroupTurn, Start: 3, End: 4}) {
		t.Fatalf("unexpected second group: %+v", groups[1])
	}
}

func TestGroupTurns_LeadingAssistantIsSingleton(t *testing.T) {
	msgs := []processor.Message{
		asst("Hello, how can I help?"),
		user("hi"),
	}
	groups := windowing.GroupTurns(msgs)
	if len(groups) != 2 {
		t.Fatalf("got %d groups, want 2", len(groups))
	}
	if groups[0].Kind != windowing.GroupSingleton || groups[0].End != 1 {
		t.Fatalf("expected singleton first group, got %+v", groups[0])
	}
	if groups[1].Kind != windowing.GroupTurn || groups[1].Start != 1 {
		t.Fatalf("expected turn second group, got %+v", groups[1])
	}
}

func TestGroupTurns_Empty(t *testing.T) {
	if groups := windowing.GroupTurns(nil); len(groups) != 0 {
		t.Fatalf("expected no groups, got %+v", groups)
	}
}
