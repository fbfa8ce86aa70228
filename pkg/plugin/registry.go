// Package plugin provides a registry for AI providers (STT, TTS, LLM,
// VAD) so that the assistant can be wired from configuration without
// the core packages importing every provider. Providers register
// themselves from init() functions.
package plugin

import (
	"fmt"
	"sort"
	"sync"
)

// Factory creates a new provider instance from configuration.
// The returned value is cast by the caller to the appropriate provider
// interface (stt.Transcriber, tts.TTS, llm.LLM, or vad.Classifier).
type Factory func(cfg map[string]any) (any, error)

// Plugin represents a registered provider with its metadata.
type Plugin struct {
	Kind        string // "stt", "tts", "llm", "vad"
	Name        string // provider name (e.g., "openai", "silero")
	Factory     Factory
	Description string
}

// Registry manages plugin registration and lookup.
type Registry struct {
	mu      sync.RWMutex
	plugins map[string]map[string]*Plugin // [kind][name] -> Plugin
}

// Global registry instance
var globalRegistry = &Registry{
	plugins: make(map[string]map[string]*Plugin),
}

// Register adds a plugin to the global registry. Typically called from
// init() in provider packages. Panics on duplicate kind/name.
func Register(p *Plugin) {
	globalRegistry.Register(p)
}

// Get retrieves a plugin factory from the global registry.
func Get(kind, name string) (Factory, bool) {
	return globalRegistry.Get(kind, name)
}

// List returns all registered plugins of a specific kind, or all
// plugins when kind is empty, sorted by kind then name.
func List(kind string) []*Plugin {
	return globalRegistry.List(kind)
}

// Register adds a plugin to this registry instance.
// Panics if a plugin with the same kind and name is already registered.
func (r *Registry) Register(p *Plugin) {
	if p.Kind == "" {
		panic("plugin kind cannot be empty")
	}
	if p.Name == "" {
		panic("plugin name cannot be empty")
	}
	if p.Factory == nil {
		panic("plugin factory cannot be nil")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.plugins[p.Kind] == nil {
		r.plugins[p.Kind] = make(map[string]*Plugin)
	}

	if _, exists := r.plugins[p.Kind][p.Name]; exists {
		panic(fmt.Sprintf("plugin %s/%s already registered", p.Kind, p.Name))
	}

	r.plugins[p.Kind][p.Name] = p
}

// Get retrieves a plugin factory from this registry instance.
func (r *Registry) Get(kind, name string) (Factory, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	kindMap, exists := r.plugins[kind]
	if !exists {
		return nil, false
	}
	p, exists := kindMap[name]
	if !exists {
		return nil, false
	}
	return p.Factory, true
}

// List returns plugins of the given kind (or all plugins when kind is
// empty), sorted by kind then name.
func (r *Registry) List(kind string) []*Plugin {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var plugins []*Plugin
	for k, kindMap := range r.plugins {
		if kind != "" && k != kind {
			continue
		}
		for _, p := range kindMap {
			plugins = append(plugins, p)
		}
	}

	sort.Slice(plugins, func(i, j int) bool {
		if plugins[i].Kind != plugins[j].Kind {
			return plugins[i].Kind < plugins[j].Kind
		}
		return plugins[i].Name < plugins[j].Name
	})

	return plugins
}

// Clear removes all plugins from this registry instance.
// This is primarily useful for testing.
func (r *Registry) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.plugins = make(map[string]map[string]*Plugin)
}
