// Package store persists assistants, threads, messages and runs for
// providers that keep conversation state locally.
package store

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/petasbytes/go-assistant/processor"
)

// Store is the persistence contract of a locally emulated thread API.
// Getters return an error matching processor.ErrNotFound for unknown ids.
type Store interface {
	CreateAssistant(ctx context.Context, a *processor.Assistant) error
	GetAssistant(ctx context.Context, id string) (*processor.Assistant, error)

	CreateThread(ctx context.Context, t *processor.Thread) error
	GetThread(ctx context.Context, id string) (*processor.Thread, error)

	// AppendMessage adds m to its thread. The thread must exist.
	AppendMessage(ctx context.Context, m *processor.Message) error
	// ListMessages returns the thread's messages oldest first.
	ListMessages(ctx context.Context, threadID string) ([]processor.Message, error)

	// SaveRun inserts or replaces r.
	SaveRun(ctx context.Context, r *processor.Run) error
	GetRun(ctx context.Context, id string) (*processor.Run, error)

	Close() error
}

// Open returns the store for driver: "memory" or "sqlite" (path required).
func Open(driver, path string) (Store, error) {
	switch driver {
	case "", "memory":
		return NewMemory(), nil
	case "sqlite":
		s, err := OpenSQLite(path)
		if err != nil {
			return nil, err
		}
		return s, nil
	default:
		return nil, fmt.Errorf("store: unknown driver %q", driver)
	}
}

// NewID returns a prefixed random identifier, e.g. "thread_3f1c...".
func NewID(prefix string) string {
	return prefix + "_" + uuid.NewString()
}

func notFound(kind, id string) error {
	return fmt.Errorf("%s %q: %w", kind, id, processor.ErrNotFound)
}

// stamp fills a missing id and creation time.
func stamp(id *string, created *time.Time, prefix string) {
	if *id == "" {
		*id = NewID(prefix)
	}
	if created.IsZero() {
		*created = time.Now().UTC()
	}
}
