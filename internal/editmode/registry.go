package editmode

import (
	"sync"
	"time"
)

// IdleTimeout is how long a tab may stay silent before its flag is dropped.
// Open board pages refresh their state well within it.
const IdleTimeout = 30 * time.Minute

// RegistryOption customises a Registry.
type RegistryOption func(*Registry)

// WithClock replaces time.Now.
func WithClock(clock func() time.Time) RegistryOption {
	return func(registry *Registry) {
		if clock != nil {
			registry.clock = clock
		}
	}
}

type registryEntry struct {
	cell     *Cell
	lastSeen time.Time
}

// Registry holds one Cell per client (browser tab).
type Registry struct {
	mutex   sync.Mutex
	entries map[string]*registryEntry
	clock   func() time.Time
}

// NewRegistry constructs an empty Registry.
func NewRegistry(options ...RegistryOption) *Registry {
	registry := &Registry{
		entries: make(map[string]*registryEntry),
		clock:   time.Now,
	}
	for _, option := range options {
		option(registry)
	}
	return registry
}

// Cell returns the flag of client, creating it switched off on first use.
// Every call counts as activity of client.
func (registry *Registry) Cell(client string) *Cell {
	registry.mutex.Lock()
	defer registry.mutex.Unlock()
	entry, exists := registry.entries[client]
	if !exists {
		entry = &registryEntry{cell: &Cell{}}
		registry.entries[client] = entry
	}
	entry.lastSeen = registry.clock()
	return entry.cell
}

// Forget drops the flag of client.
func (registry *Registry) Forget(client string) {
	registry.mutex.Lock()
	defer registry.mutex.Unlock()
	delete(registry.entries, client)
}

// Expire drops every client not seen for longer than idle and returns them.
func (registry *Registry) Expire(idle time.Duration) []string {
	cutoff := registry.clock().Add(-idle)

	registry.mutex.Lock()
	defer registry.mutex.Unlock()
	var expired []string
	for client, entry := range registry.entries {
		if entry.lastSeen.Before(cutoff) {
			expired = append(expired, client)
			delete(registry.entries, client)
		}
	}
	return expired
}

// Len reports how many clients are tracked.
func (registry *Registry) Len() int {
	registry.mutex.Lock()
	defer registry.mutex.Unlock()
	return len(registry.entries)
}
