package tools_test

import (
	"encoding/json"
	"fmt"
	"strings"
	"testing"

	"github.com/petasbytes/go-assistant/tools"
)

func readFile(t *testing.T, in tools.ReadFileInput) (string, error) {
	t.Helper()
	b, _ := json.Marshal(in)
	return tools.ReadFileDefinition.Function(b)
}

func TestReadFile_Happy(t *testing.T) {
	mustWrite(t, rel(t, "a.txt"), "hi")
	out, err := readFile(t, tools.ReadFileInput{Path: rel(t, "a.txt")})
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if out != "hi" {
		t.Fatalf("got %q", out)
	}
}

func TestReadFile_OffsetLimitAppendsSentinel(t *testing.T) {
	var sb strings.Builder
	for i := 1; i <= 10; i++ {
		fmt.Fprintf(&sb, "line%d\n", i)
	}
	mustWrite(t, rel(t, "ten.txt"), sb.String())

	out, err := readFile(t, tools.ReadFileInput{Path: rel(t, "ten.txt"), Offset: 2, Limit: 3})
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	want := "line3\nline4\nline5\n-- truncated; use offset/limit to fetch more --\n"
	if out != want {
		t.Fatalf("got %q want %q", out, want)
	}
}

func TestReadFile_Numbered(t *testing.T) {
	mustWrite(t, rel(t, "n.txt"), "alpha\nbeta")
	out, err := readFile(t, tools.ReadFileInput{Path: rel(t, "n.txt"), Offset: 1, Numbered: true})
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if out != "     2\tbeta" {
		t.Fatalf("got %q", out)
	}
}

func TestReadFile_OffsetPastEnd_Empty(t *testing.T) {
	mustWrite(t, rel(t, "short.txt"), "one")
	out, err := readFile(t, tools.ReadFileInput{Path: rel(t, "short.txt"), Offset: 50})
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if out != "" {
		t.Fatalf("got %q", out)
	}
}

func TestReadFile_LongLineClamped(t *testing.T) {
	mustWrite(t, rel(t, "long.txt"), strings.Repeat("é", 2500))
	out, err := readFile(t, tools.ReadFileInput{Path: rel(t, "long.txt")})
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if !strings.HasSuffix(out, "-- truncated; use offset/limit to fetch more --\n") {
		t.Fatalf("missing sentinel: %q", out[len(out)-60:])
	}
	first := strings.SplitN(out, "\n", 2)[0]
	if n := len([]rune(first)); n != 2000 {
		t.Fatalf("line runes: got %d want 2000", n)
	}
}

func TestReadFile_InvalidArguments(t *testing.T) {
	if _, err := tools.ReadFileDefinition.Function(json.RawMessage(`{"path":`)); err == nil {
		t.Fatal("expected error for malformed JSON")
	}
}

func TestReadFile_NotFound(t *testing.T) {
	if _, err := readFile(t, tools.ReadFileInput{Path: rel(t, "does-not-exist.txt")}); err == nil {
		t.Fatal("expected error")
	}
}

func TestReadFile_DirectoryPath_Error(t *testing.T) {
	mustWrite(t, rel(t, "sub", "x.txt"), "")
	_, err := readFile(t, tools.ReadFileInput{Path: rel(t, "sub")})
	if err == nil || !strings.Contains(err.Error(), "ERR_NOT_A_FILE") {
		t.Fatalf("expected ERR_NOT_A_FILE, got: %v", err)
	}
}

func TestReadFile_DenylistReadsAssistantDir(t *testing.T) {
	mustWrite(t, ".assistant/store.db", "x")
	_, err := readFile(t, tools.ReadFileInput{Path: ".assistant/store.db"})
	if err == nil || !strings.Contains(err.Error(), "ERR_DENIED_READ") {
		t.Fatalf("expected ERR_DENIED_READ, got: %v", err)
	}
}
