package fsops

import (
	"fmt"
	"os"

	"github.com/petasbytes/go-assistant/internal/safety"
)

// MaxFileBytes bounds the size of a file a function may hand to a run.
const MaxFileBytes = 4 << 20

// ReadFile reads a file addressed relative to the sandbox root. Policy
// violations come back as safety.ToolError so the run sees a stable code.
func (s *Sandbox) ReadFile(relPath string) (string, error) {
	abs, err := safety.ValidateRelPath(s.root, relPath)
	if err != nil {
		return "", err
	}

	info, err := os.Stat(abs)
	switch {
	case err != nil:
		return "", err
	case info.IsDir():
		return "", safety.ToolError{Code: "ERR_NOT_A_FILE", Message: "path is a directory"}
	case info.Size() > MaxFileBytes:
		return "", safety.ToolError{
			Code:    "ERR_FILE_TOO_LARGE",
			Message: fmt.Sprintf("file is %d bytes; limit is %d", info.Size(), MaxFileBytes),
		}
	}

	content, err := os.ReadFile(abs)
	if err != nil {
		return "", err
	}
	return string(content), nil
}
