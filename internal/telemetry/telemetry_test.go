package telemetry_test

import (
	"bufio"
	"encoding/json"
	"errors"
	"math"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/petasbytes/go-assistant/internal/telemetry"
)

// observeInto enables emission into a fresh artifacts dir and returns it.
func observeInto(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("ASST_ARTIFACTS_DIR", dir)
	t.Setenv("ASST_OBSERVE_JSON", "1")
	return dir
}

func readEvents(t *testing.T, dir string) []map[string]any {
	t.Helper()
	f, err := os.Open(filepath.Join(dir, "events.jsonl"))
	if err != nil {
		t.Fatalf("open events.jsonl: %v", err)
	}
	defer f.Close()

	var out []map[string]any
	s := bufio.NewScanner(f)
	for s.Scan() {
		line := strings.TrimSpace(s.Text())
		if line == "" {
			continue
		}
		var m map[string]any
		if err := json.Unmarshal([]byte(line), &m); err != nil {
			t.Fatalf("invalid JSON line %q: %v", line, err)
		}
		out = append(out, m)
	}
	if err := s.Err(); err != nil {
		t.Fatal(err)
	}
	return out
}

func TestEmit_Gating(t *testing.T) {
	// Subprocess so the startup-evaluated config sees observe off.
	tmpDir := t.TempDir()
	cmd := exec.Command(os.Args[0], "-test.run=TestEmitGatingProbe")
	cmd.Env = append(os.Environ(),
		"GO_WANT_HELPER_PROCESS=1",
		"ASST_OBSERVE_JSON=0",
		"ASST_ARTIFACTS_DIR=",
	)
	cmd.Dir = tmpDir
	out, err := cmd.CombinedOutput()
	if err != nil {
		t.Fatalf("subprocess error: %v\n%s", err, string(out))
	}
	if !strings.Contains(string(out), "no_file=true") {
		t.Fatalf("expected no_file=true, got output:\n%s", string(out))
	}
}

func TestEmitGatingProbe(t *testing.T) {
	if os.Getenv("GO_WANT_HELPER_PROCESS") != "1" {
		return
	}
	telemetry.Emit("test_event", map[string]any{"foo": "bar"})
	if _, err := os.Stat(".assistant/events.jsonl"); os.IsNotExist(err) {
		println("no_file=true")
	} else {
		println("no_file=false")
	}
}

func TestEmit_HappyPath(t *testing.T) {
	dir := observeInto(t)

	telemetry.Emit(telemetry.EventRunStarted, map[string]any{"run_id": "run_1", "steps": 42})

	events := readEvents(t, dir)
	if len(events) != 1 {
		t.Fatalf("expected 1 line, got %d", len(events))
	}
	ev := events[0]
	if ev["event"] != "run_started" {
		t.Errorf("expected event=run_started, got %v", ev["event"])
	}
	if ev["run_id"] != "run_1" {
		t.Errorf("expected run_id=run_1, got %v", ev["run_id"])
	}
	if ev["steps"] != float64(42) {
		t.Errorf("expected steps=42, got %v", ev["steps"])
	}
	ts, ok := ev["time"].(string)
	if !ok {
		t.Fatal("expected time field as string")
	}
	if _, err := time.Parse(time.RFC3339Nano, ts); err != nil {
		t.Errorf("time field not valid RFC3339Nano: %v", err)
	}
}

func TestEmit_DefaultDirUnderCwd(t *testing.T) {
	origDir, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	defer os.Chdir(origDir)
	if err := os.Chdir(t.TempDir()); err != nil {
		t.Fatal(err)
	}
	t.Setenv("ASST_ARTIFACTS_DIR", "")
	t.Setenv("ASST_OBSERVE_JSON", "1")

	telemetry.Emit("x", nil)

	if _, err := os.Stat(".assistant/events.jsonl"); err != nil {
		t.Fatalf("expected .assistant/events.jsonl: %v", err)
	}
}

func TestEmit_MultipleEmissionsInOrder(t *testing.T) {
	dir := observeInto(t)

	telemetry.Emit("event1", map[string]any{"id": 1})
	telemetry.Emit("event2", map[string]any{"id": 2})
	telemetry.Emit("event3", map[string]any{"id": 3})

	events := readEvents(t, dir)
	if len(events) != 3 {
		t.Fatalf("expected 3 lines, got %d", len(events))
	}
	for i, want := range []string{"event1", "event2", "event3"} {
		if events[i]["event"] != want {
			t.Errorf("line %d: expected event=%s, got %v", i+1, want, events[i]["event"])
		}
	}
}

func TestEmit_ConcurrentWritersKeepLinesIntact(t *testing.T) {
	dir := observeInto(t)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			telemetry.Emit(telemetry.EventRunStatus, map[string]any{"i": i, "pad": strings.Repeat("x", 512)})
		}(i)
	}
	wg.Wait()

	if got := len(readEvents(t, dir)); got != 20 {
		t.Fatalf("expected 20 events, got %d", got)
	}
}

func TestEmit_MapIsolation(t *testing.T) {
	observeInto(t)

	fields := map[string]any{"key": "value"}
	telemetry.Emit("test", fields)

	if len(fields) != 1 || fields["key"] != "value" {
		t.Errorf("caller map modified: %#v", fields)
	}
}

func TestEmit_ErrorHandling_MarshalError(t *testing.T) {
	dir := observeInto(t)

	// NaN cannot be encoded by encoding/json.
	telemetry.Emit("bad", map[string]any{"x": math.NaN()})

	if _, err := os.Stat(filepath.Join(dir, "events.jsonl")); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("expected no events file on marshal error, got err=%v", err)
	}
}

func TestEmit_NilFields(t *testing.T) {
	dir := observeInto(t)

	telemetry.Emit("nil_fields", nil)

	events := readEvents(t, dir)
	if len(events) != 1 {
		t.Fatalf("expected 1 line, got %d", len(events))
	}
	if len(events[0]) != 2 {
		t.Fatalf("expected exactly 2 keys (event,time), got %#v", events[0])
	}
}

func TestEmit_ErrorHandling_ReadOnlyFile(t *testing.T) {
	dir := observeInto(t)
	path := filepath.Join(dir, "events.jsonl")
	if err := os.WriteFile(path, nil, 0o444); err != nil {
		t.Fatal(err)
	}

	// Open fails; Emit must not panic.
	telemetry.Emit("x", map[string]any{"a": 1})

	fi, err := os.Stat(path)
	if err != nil {
		t.Fatal(err)
	}
	if fi.Size() != 0 && os.Geteuid() != 0 {
		t.Fatalf("expected read-only file size 0, got %d", fi.Size())
	}
}

func TestSetObserve(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("ASST_ARTIFACTS_DIR", dir)
	t.Setenv("ASST_OBSERVE_JSON", "")

	telemetry.SetObserve(true)
	defer telemetry.SetObserve(false)

	telemetry.Emit("on", nil)
	if got := len(readEvents(t, dir)); got != 1 {
		t.Fatalf("expected 1 event, got %d", got)
	}
}
