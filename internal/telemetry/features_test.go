package telemetry_test

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/petasbytes/go-assistant/internal/metrics"
	"github.com/petasbytes/go-assistant/internal/telemetry"
)

func TestEmitMessageFeatures_HappyPath(t *testing.T) {
	dir := observeInto(t)
	t.Setenv("ASST_MESSAGE_FEATURES", "1")

	ctx := telemetry.WithRunID(context.Background(), "run_xyz")
	text := "Solve the equation: 3x + 7 = 22.\nShow all solution steps."
	want := metrics.CountFeatures(text)

	telemetry.EmitMessageFeatures(ctx, "thread_1", "user", text)

	events := readEvents(t, dir)
	if len(events) != 1 {
		t.Fatalf("expected 1 event, got %d", len(events))
	}
	ev := events[0]
	if ev["event"] != "message_features" || ev["run_id"] != "run_xyz" || ev["thread_id"] != "thread_1" || ev["role"] != "user" {
		t.Fatalf("unexpected envelope: %#v", ev)
	}
	f, ok := ev["features"].(map[string]any)
	if !ok {
		t.Fatalf("features missing or wrong type: %T", ev["features"])
	}
	if f["bytes"] != float64(want.Bytes) || f["runes"] != float64(want.Runes) ||
		f["words"] != float64(want.Words) || f["lines"] != float64(want.Lines) {
		t.Fatalf("features mismatch: got %#v want %#v", f, want)
	}

	raw, err := os.ReadFile(filepath.Join(dir, "events.jsonl"))
	if err != nil {
		t.Fatal(err)
	}
	if strings.Contains(string(raw), "Solve the equation") {
		t.Fatal("raw message text leaked into events.jsonl")
	}
}

func TestEmitMessageFeatures_FeaturesOff_NoEvent(t *testing.T) {
	dir := observeInto(t)
	t.Setenv("ASST_MESSAGE_FEATURES", "0")
	if telemetry.FeaturesEnabled() {
		t.Skip("features enabled at process start")
	}

	telemetry.EmitMessageFeatures(context.Background(), "t", "user", "hello")

	if _, err := os.Stat(filepath.Join(dir, "events.jsonl")); !os.IsNotExist(err) {
		t.Fatalf("expected no events.jsonl, got err=%v", err)
	}
}

func TestEmitMessageFeatures_ObserveOff_NoEvent(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("ASST_ARTIFACTS_DIR", dir)
	t.Setenv("ASST_OBSERVE_JSON", "0")
	t.Setenv("ASST_MESSAGE_FEATURES", "1")
	if telemetry.ObserveEnabled() {
		t.Skip("observe enabled at process start")
	}

	telemetry.EmitMessageFeatures(context.Background(), "t", "user", "hello")

	if _, err := os.Stat(filepath.Join(dir, "events.jsonl")); !os.IsNotExist(err) {
		t.Fatalf("expected no events.jsonl when observe=0, got err=%v", err)
	}
}
