package core

import (
	"fmt"
	"sort"
	"strings"
	"sync"
)

// AdapterRegistry is the fixed platform-to-adapter mapping. Registrations
// happen during startup wiring; reads after that are lock-cheap and
// concurrent-safe.
type AdapterRegistry struct {
	mu       sync.RWMutex
	adapters map[Platform]PlatformAdapter
}

func NewAdapterRegistry() *AdapterRegistry {
	return &AdapterRegistry{adapters: make(map[Platform]PlatformAdapter)}
}

func (r *AdapterRegistry) Register(adapter PlatformAdapter) error {
	if adapter == nil {
		return fmt.Errorf("core: adapter is nil")
	}
	platform, err := ParsePlatform(string(adapter.Platform()))
	if err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.adapters[platform]; exists {
		return fmt.Errorf("core: adapter already registered: %s", platform)
	}
	r.adapters[platform] = adapter
	return nil
}

func (r *AdapterRegistry) Get(platform Platform) (PlatformAdapter, bool) {
	normalized := Platform(strings.TrimSpace(strings.ToLower(string(platform))))
	if normalized == "" {
		return nil, false
	}
	r.mu.RLock()
	adapter, ok := r.adapters[normalized]
	r.mu.RUnlock()
	return adapter, ok
}

func (r *AdapterRegistry) List() []PlatformAdapter {
	r.mu.RLock()
	keys := make([]string, 0, len(r.adapters))
	for platform := range r.adapters {
		keys = append(keys, string(platform))
	}
	r.mu.RUnlock()
	sort.Strings(keys)
	adapters := make([]PlatformAdapter, 0, len(keys))
	r.mu.RLock()
	for _, key := range keys {
		adapters = append(adapters, r.adapters[Platform(key)])
	}
	r.mu.RUnlock()
	return adapters
}

var _ Registry = (*AdapterRegistry)(nil)
