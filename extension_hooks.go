package platform

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/goliatone/go-platform/core"
)

// ExtensionHooks is the host-facing registry of lifecycle observers. It
// implements core.LifecycleHook itself so it can be handed to the manager
// via WithLifecycleListeners as a single fan-out listener.
//
// Hooks run in deterministic name order. A panicking or failing hook never
// blocks the remaining hooks and never propagates into the lifecycle
// transition that emitted the event.
type ExtensionHooks struct {
	mu sync.RWMutex

	hooks  map[string]core.LifecycleHook
	logger core.Logger
}

type ExtensionHooksOption func(*ExtensionHooks)

func WithExtensionHooksLogger(logger core.Logger) ExtensionHooksOption {
	return func(h *ExtensionHooks) {
		if logger != nil {
			h.logger = logger
		}
	}
}

func NewExtensionHooks(opts ...ExtensionHooksOption) *ExtensionHooks {
	h := &ExtensionHooks{
		hooks: map[string]core.LifecycleHook{},
	}
	for _, opt := range opts {
		if opt != nil {
			opt(h)
		}
	}
	return h
}

func (h *ExtensionHooks) Register(hook core.LifecycleHook) error {
	if h == nil {
		return fmt.Errorf("platform: extension hooks are nil")
	}
	if hook == nil {
		return fmt.Errorf("platform: lifecycle hook is required")
	}
	name := strings.TrimSpace(hook.Name())
	if name == "" {
		return fmt.Errorf("platform: lifecycle hook name is required")
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	if _, exists := h.hooks[name]; exists {
		return fmt.Errorf("platform: lifecycle hook %q already registered", name)
	}
	h.hooks[name] = hook
	return nil
}

func (h *ExtensionHooks) Unregister(name string) bool {
	if h == nil {
		return false
	}
	name = strings.TrimSpace(name)

	h.mu.Lock()
	defer h.mu.Unlock()
	if _, exists := h.hooks[name]; !exists {
		return false
	}
	delete(h.hooks, name)
	return true
}

func (h *ExtensionHooks) HookNames() []string {
	if h == nil {
		return nil
	}
	h.mu.RLock()
	defer h.mu.RUnlock()
	names := make([]string, 0, len(h.hooks))
	for name := range h.hooks {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (h *ExtensionHooks) Name() string {
	return "platform.extension_hooks"
}

func (h *ExtensionHooks) OnEvent(ctx context.Context, event core.LifecycleEvent) error {
	if h == nil {
		return nil
	}

	h.mu.RLock()
	names := make([]string, 0, len(h.hooks))
	for name := range h.hooks {
		names = append(names, name)
	}
	sort.Strings(names)
	snapshot := make([]core.LifecycleHook, 0, len(names))
	for _, name := range names {
		snapshot = append(snapshot, h.hooks[name])
	}
	h.mu.RUnlock()

	for i, hook := range snapshot {
		h.dispatch(ctx, names[i], hook, event)
	}
	return nil
}

func (h *ExtensionHooks) dispatch(ctx context.Context, name string, hook core.LifecycleHook, event core.LifecycleEvent) {
	defer func() {
		if recovered := recover(); recovered != nil && h.logger != nil {
			h.logger.Error("extension hook panicked",
				"hook", name,
				"event", string(event.Type),
				"plugin", event.PluginID,
				"panic", fmt.Sprintf("%v", recovered),
			)
		}
	}()
	if err := hook.OnEvent(ctx, event); err != nil && h.logger != nil {
		h.logger.Error("extension hook failed",
			"hook", name,
			"event", string(event.Type),
			"plugin", event.PluginID,
			"error", err,
		)
	}
}

var _ core.LifecycleHook = (*ExtensionHooks)(nil)
