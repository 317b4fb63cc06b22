package processor

import (
	"fmt"
	"sort"
	"strings"
	"sync"
)

// Factory builds a Provider from a defaulted Config.
type Factory func(cfg Config) (Provider, error)

var (
	registryMu sync.RWMutex
	registry   = map[string]Factory{}
)

// Register makes a provider available under name. Registering a name again
// replaces the earlier factory.
func Register(name string, f Factory) {
	if f == nil {
		panic("processor: Register factory is nil for " + name)
	}
	registryMu.Lock()
	defer registryMu.Unlock()
	registry[name] = f
}

// Providers returns the registered provider names, sorted.
func Providers() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func lookup(name string) (Factory, error) {
	registryMu.RLock()
	f, ok := registry[name]
	registryMu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %q (registered: %s)", ErrProviderNotImplemented, name, strings.Join(Providers(), ", "))
	}
	return f, nil
}
