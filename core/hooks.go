package core

import (
	"fmt"
	"strings"
	"sync"
)

// HookRegistry is the in-process HookResolver: hosts register a HookSet per
// plugin name before driving lifecycle transitions. Plugins without an entry
// get the empty set, so registration is optional.
type HookRegistry struct {
	mu    sync.RWMutex
	hooks map[string]HookSet
}

func NewHookRegistry() *HookRegistry {
	return &HookRegistry{hooks: map[string]HookSet{}}
}

// Register binds hooks to a plugin name. Registering a name twice is an
// error; use Replace when re-binding is intended.
func (r *HookRegistry) Register(pluginName string, hooks HookSet) error {
	if r == nil {
		return fmt.Errorf("core: hook registry is nil")
	}
	pluginName = strings.TrimSpace(pluginName)
	if pluginName == "" {
		return fmt.Errorf("core: plugin name is required")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.hooks[pluginName]; exists {
		return fmt.Errorf("core: hooks for plugin %q already registered", pluginName)
	}
	r.hooks[pluginName] = hooks
	return nil
}

// Replace binds hooks to a plugin name, overwriting any existing entry.
func (r *HookRegistry) Replace(pluginName string, hooks HookSet) error {
	if r == nil {
		return fmt.Errorf("core: hook registry is nil")
	}
	pluginName = strings.TrimSpace(pluginName)
	if pluginName == "" {
		return fmt.Errorf("core: plugin name is required")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.hooks[pluginName] = hooks
	return nil
}

func (r *HookRegistry) Deregister(pluginName string) {
	if r == nil {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.hooks, strings.TrimSpace(pluginName))
}

func (r *HookRegistry) HooksFor(manifest PluginManifest) (HookSet, error) {
	if r == nil {
		return HookSet{}, nil
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.hooks[manifest.Name], nil
}

var _ HookResolver = (*HookRegistry)(nil)
