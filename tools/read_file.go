package tools

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/petasbytes/go-assistant/internal/fsops"
)

type ReadFileInput struct {
	Path     string `json:"path" jsonschema_description:"File path relative to the sandbox root."`
	Offset   int    `json:"offset,omitempty" jsonschema_description:"Line offset (0-based) to start reading from."`
	Limit    int    `json:"limit,omitempty" jsonschema_description:"Maximum lines to return from offset (default 200)."`
	Numbered bool   `json:"numbered,omitempty" jsonschema_description:"Prefix each returned line with its 1-based line number."`
}

const (
	defaultReadFileLimit = 200
	maxLineRunes         = 2000
	overallRuneCap       = 12_000
	truncationSentinel   = "-- truncated; use offset/limit to fetch more --\n"
)

var ReadFileDefinition = ToolDefinition{
	Name:        "read_file",
	Description: "Read a text file from the sandbox by relative path. Returns at most `limit` lines starting at `offset`; a trailing marker signals that more lines exist.",
	InputSchema: GenerateSchema[ReadFileInput](),
	Function:    ReadFile,
}

// ReadFile returns a window of lines from a sandboxed file. Long lines and
// the joined output are clamped so a single call stays small enough for a
// run's token budget.
func ReadFile(input json.RawMessage) (string, error) {
	var in ReadFileInput
	if err := json.Unmarshal(input, &in); err != nil {
		return "", fmt.Errorf("read_file: invalid arguments: %w", err)
	}

	content, err := fsops.ReadFile(in.Path)
	if err != nil {
		return "", err
	}

	lines := strings.Split(content, "\n")
	start, end := window(len(lines), in.Offset, in.Limit, defaultReadFileLimit)
	truncated := end < len(lines)

	out := make([]string, 0, end-start)
	for i := start; i < end; i++ {
		line, clipped := clampRunes(lines[i], maxLineRunes)
		truncated = truncated || clipped
		if in.Numbered {
			line = fmt.Sprintf("%6d\t%s", i+1, line)
		}
		out = append(out, line)
	}

	text, clipped := clampRunes(strings.Join(out, "\n"), overallRuneCap)
	if truncated || clipped {
		if !strings.HasSuffix(text, "\n") {
			text += "\n"
		}
		text += truncationSentinel
	}
	return text, nil
}

// window clamps an offset/limit pair to [0, n).
func window(n, offset, limit, fallback int) (int, int) {
	if limit <= 0 {
		limit = fallback
	}
	offset = max(offset, 0)
	offset = min(offset, n)
	return offset, min(offset+limit, n)
}

// clampRunes cuts s to at most n runes and reports whether it cut anything.
func clampRunes(s string, n int) (string, bool) {
	r := []rune(s)
	if len(r) <= n {
		return s, false
	}
	return string(r[:max(n, 0)]), true
}
