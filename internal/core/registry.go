package core

import (
	"fmt"
	"sort"
	"sync"
)

var (
	registry   = make(map[string]SourceDefinition)
	registryMu sync.RWMutex
)

// Register adds a source definition to the registry.
// Panics if a source with the same key is already registered.
func Register(def SourceDefinition) {
	registryMu.Lock()
	defer registryMu.Unlock()

	if def.Key == "" {
		panic("source definition without key")
	}
	if _, exists := registry[def.Key]; exists {
		panic(fmt.Sprintf("source already registered: %s", def.Key))
	}
	if def.Kind == KindDeposits && def.Deposits == nil {
		panic(fmt.Sprintf("deposit source %s has no deposit keywords", def.Key))
	}

	registry[def.Key] = def
}

// Get returns a source definition by key.
func Get(key string) (SourceDefinition, bool) {
	registryMu.RLock()
	defer registryMu.RUnlock()

	def, ok := registry[key]
	return def, ok
}

// All returns all registered source definitions sorted by key.
func All() []SourceDefinition {
	registryMu.RLock()
	defer registryMu.RUnlock()

	result := make([]SourceDefinition, 0, len(registry))
	for _, def := range registry {
		result = append(result, def)
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].Key < result[j].Key
	})

	return result
}

// ByKind returns the registered definitions of one kind sorted by key.
func ByKind(kind SourceKind) []SourceDefinition {
	var result []SourceDefinition
	for _, def := range All() {
		if def.Kind == kind {
			result = append(result, def)
		}
	}
	return result
}

// SourceCount returns the number of registered sources.
func SourceCount() int {
	registryMu.RLock()
	defer registryMu.RUnlock()
	return len(registry)
}

// Clear removes all registered sources.
// Primarily useful for testing.
func Clear() {
	registryMu.Lock()
	defer registryMu.Unlock()
	registry = make(map[string]SourceDefinition)
}
