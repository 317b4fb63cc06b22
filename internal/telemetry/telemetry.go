// Package telemetry appends lifecycle events for assistants, threads and runs
// to a JSONL file. Emission is off unless enabled, and failures are reported
// on stderr without interrupting the caller.
package telemetry

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// Event names.
const (
	EventAssistantCreated = "assistant_created"
	EventThreadReady      = "thread_ready"
	EventMessageCreated   = "message_created"
	EventRunStarted       = "run_started"
	EventRunStatus        = "run_status"
	EventRunFinished      = "run_finished"
	EventToolExec         = "tool_exec"
	EventWindowPrepared   = "window_prepared"
	EventResponseAwaited  = "response_awaited"
	EventMessageFeatures  = "message_features"
)

const defaultDir = ".assistant"

var writeMu sync.Mutex

// Dir returns the directory holding events.jsonl: ASST_ARTIFACTS_DIR or .assistant.
func Dir() string {
	if d := os.Getenv("ASST_ARTIFACTS_DIR"); d != "" {
		return d
	}
	return defaultDir
}

// Emit writes one JSON line with fields plus "time" (RFC3339Nano) and "event".
// The caller's map is not modified.
func Emit(name string, fields map[string]any) {
	if !ObserveEnabled() {
		return
	}

	m := make(map[string]any, len(fields)+2)
	for k, v := range fields {
		m[k] = v
	}
	m["time"] = time.Now().UTC().Format(time.RFC3339Nano)
	m["event"] = name

	b, err := json.Marshal(m)
	if err != nil {
		fmt.Fprintf(os.Stderr, "telemetry: marshal: %v\n", err)
		return
	}

	dir := Dir()
	writeMu.Lock()
	defer writeMu.Unlock()

	if err := os.MkdirAll(dir, 0o755); err != nil {
		fmt.Fprintf(os.Stderr, "telemetry: mkdir %s: %v\n", dir, err)
		return
	}
	path := filepath.Join(dir, "events.jsonl")
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		fmt.Fprintf(os.Stderr, "telemetry: open %s: %v\n", path, err)
		return
	}
	defer f.Close()

	if _, err := f.Write(append(b, '\n')); err != nil {
		fmt.Fprintf(os.Stderr, "telemetry: write %s: %v\n", path, err)
	}
}
