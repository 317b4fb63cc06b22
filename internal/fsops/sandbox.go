// Package fsops performs the file reads behind the assistant functions,
// confined to a sandbox root.
package fsops

import (
	"fmt"
	"os"
	"sync"

	"github.com/petasbytes/go-assistant/internal/safety"
)

// Sandbox resolves relative paths under a fixed root.
type Sandbox struct {
	root string
}

// NewSandbox resolves root (empty means the working directory).
func NewSandbox(root string) (*Sandbox, error) {
	abs, err := safety.InitSandboxRoot(root)
	if err != nil {
		return nil, err
	}
	info, err := os.Stat(abs)
	if err != nil {
		return nil, fmt.Errorf("sandbox root: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("sandbox root %s is not a directory", abs)
	}
	return &Sandbox{root: abs}, nil
}

// Root returns the absolute sandbox root.
func (s *Sandbox) Root() string { return s.root }

var (
	mu      sync.Mutex
	current *Sandbox
)

// SetRoot replaces the sandbox used by ReadFile and ListDir.
func SetRoot(root string) error {
	s, err := NewSandbox(root)
	if err != nil {
		return err
	}
	mu.Lock()
	current = s
	mu.Unlock()
	return nil
}

// Default returns the process sandbox, resolved on first use from
// ASST_READ_ROOT unless SetRoot ran first.
func Default() (*Sandbox, error) {
	mu.Lock()
	defer mu.Unlock()
	if current == nil {
		s, err := NewSandbox(os.Getenv("ASST_READ_ROOT"))
		if err != nil {
			return nil, err
		}
		current = s
	}
	return current, nil
}

// ReadFile reads relPath from the default sandbox.
func ReadFile(relPath string) (string, error) {
	s, err := Default()
	if err != nil {
		return "", err
	}
	return s.ReadFile(relPath)
}

// ListDir lists relDir in the default sandbox.
func ListDir(relDir string) ([]string, error) {
	s, err := Default()
	if err != nil {
		return nil, err
	}
	return s.ListDir(relDir)
}
