package fsops

import (
	"os"

	"github.com/petasbytes/go-assistant/internal/safety"
)

// ListDir returns the direct entries of a sandboxed directory, directories
// suffixed with "/". An empty relDir lists the root.
func (s *Sandbox) ListDir(relDir string) ([]string, error) {
	if relDir == "" {
		relDir = "."
	}
	abs, err := safety.ValidateRelPath(s.root, relDir)
	if err != nil {
		return nil, err
	}

	entries, err := os.ReadDir(abs)
	if err != nil {
		if info, statErr := os.Stat(abs); statErr == nil && !info.IsDir() {
			return nil, safety.ToolError{Code: "ERR_NOT_A_DIRECTORY", Message: "path is not a directory"}
		}
		return nil, err
	}
	out := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() {
			out = append(out, e.Name()+"/")
			continue
		}
		out = append(out, e.Name())
	}
	return out, nil
}
