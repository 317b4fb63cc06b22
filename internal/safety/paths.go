// Package safety confines function file access to a sandbox root.
package safety

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// ToolError is a machine-readable failure returned to the assistant as the
// function output.
type ToolError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Error renders the error as compact single-line JSON.
func (e ToolError) Error() string {
	b, _ := json.Marshal(e)
	return string(b)
}

// deniedDirs are sandbox-relative directories functions may never read.
// .assistant holds the local store, session and event log.
var deniedDirs = []string{".git", ".assistant"}

// InitSandboxRoot resolves root to an absolute, symlink-free path.
// An empty root means the current working directory.
func InitSandboxRoot(root string) (string, error) {
	if root == "" {
		cwd, err := os.Getwd()
		if err != nil {
			return "", fmt.Errorf("getwd: %w", err)
		}
		root = cwd
	}
	abs, err := filepath.Abs(root)
	if err != nil {
		return "", fmt.Errorf("abs(%s): %w", root, err)
	}
	if r, err := filepath.EvalSymlinks(abs); err == nil {
		abs = r
	}
	return abs, nil
}

// ValidateRelPath resolves relPath under absRoot. It rejects absolute paths,
// parent traversal, symlinks that leave the root, and the denied directories.
func ValidateRelPath(absRoot, relPath string) (string, error) {
	if filepath.IsAbs(relPath) {
		return "", ToolError{Code: "ERR_PATH_OUTSIDE_SANDBOX", Message: "absolute paths are not allowed"}
	}

	candidate := filepath.Join(absRoot, filepath.Clean(relPath))

	// Resolve the leaf if it exists, else its parent, so a symlinked
	// parent directory cannot hide an escape.
	if resolved, err := filepath.EvalSymlinks(candidate); err == nil {
		candidate = resolved
	} else if parent, err := filepath.EvalSymlinks(filepath.Dir(candidate)); err == nil {
		candidate = filepath.Join(parent, filepath.Base(candidate))
	}

	rel, err := filepath.Rel(absRoot, candidate)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) || filepath.IsAbs(rel) {
		return "", ToolError{Code: "ERR_PATH_OUTSIDE_SANDBOX", Message: "requested path resolves outside the sandbox root"}
	}

	slashed := filepath.ToSlash(rel)
	for _, d := range deniedDirs {
		if slashed == d || strings.HasPrefix(slashed, d+"/") {
			return "", ToolError{Code: "ERR_DENIED_READ", Message: "reads under " + d + "/ are not allowed"}
		}
	}
	return candidate, nil
}
