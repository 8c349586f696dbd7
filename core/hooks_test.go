package core

import (
	"context"
	"strings"
	"testing"
)

func TestHookRegistryRegisterRejectsDuplicates(t *testing.T) {
	registry := NewHookRegistry()

	if err := registry.Register("address-validator", HookSet{}); err != nil {
		t.Fatalf("register: %v", err)
	}
	err := registry.Register("address-validator", HookSet{})
	if err == nil {
		t.Fatal("expected duplicate registration to fail")
	}
	if !strings.Contains(err.Error(), "address-validator") {
		t.Fatalf("error must name the plugin: %v", err)
	}
}

func TestHookRegistryRegisterRequiresName(t *testing.T) {
	registry := NewHookRegistry()
	if err := registry.Register("   ", HookSet{}); err == nil {
		t.Fatal("expected blank name to be rejected")
	}
}

func TestHookRegistryReplaceOverwrites(t *testing.T) {
	registry := NewHookRegistry()
	called := ""

	first := HookSet{OnInstall: func(context.Context, *ExecutionContext) error {
		called = "first"
		return nil
	}}
	second := HookSet{OnInstall: func(context.Context, *ExecutionContext) error {
		called = "second"
		return nil
	}}

	if err := registry.Register("address-validator", first); err != nil {
		t.Fatalf("register: %v", err)
	}
	registry.Replace("address-validator", second)

	hooks, err := registry.HooksFor(PluginManifest{Name: "address-validator"})
	if err != nil {
		t.Fatalf("hooks for: %v", err)
	}
	if err := hooks.OnInstall(context.Background(), nil); err != nil {
		t.Fatalf("run hook: %v", err)
	}
	if called != "second" {
		t.Fatalf("replace must overwrite, got %q", called)
	}
}

func TestHookRegistryUnknownPluginHasNoHooks(t *testing.T) {
	registry := NewHookRegistry()

	hooks, err := registry.HooksFor(PluginManifest{Name: "never-registered"})
	if err != nil {
		t.Fatalf("hooks for: %v", err)
	}
	if hooks.OnInstall != nil || hooks.OnActivate != nil || hooks.OnDeactivate != nil ||
		hooks.OnUninstall != nil || hooks.OnUpdate != nil {
		t.Fatal("unknown plugins must resolve to an empty hook set")
	}
}

func TestHookRegistryDeregister(t *testing.T) {
	registry := NewHookRegistry()
	set := HookSet{OnInstall: func(context.Context, *ExecutionContext) error { return nil }}

	if err := registry.Register("address-validator", set); err != nil {
		t.Fatalf("register: %v", err)
	}
	registry.Deregister("address-validator")

	hooks, err := registry.HooksFor(PluginManifest{Name: "address-validator"})
	if err != nil {
		t.Fatalf("hooks for: %v", err)
	}
	if hooks.OnInstall != nil {
		t.Fatal("deregistered plugins must resolve to an empty hook set")
	}

	// Name becomes available again.
	if err := registry.Register("address-validator", set); err != nil {
		t.Fatalf("re-register after deregister: %v", err)
	}
}
