package identity

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/goliatone/go-platform/core"
)

type failingDirectory struct {
	err error
}

func (d failingDirectory) Lookup(context.Context, string) (Record, error) {
	return Record{}, d.err
}

func TestResolver_MissingCallerIsIdentityNotFound(t *testing.T) {
	resolver := DefaultResolver()

	_, err := resolver.Resolve(context.Background(), nil)
	if !errors.Is(err, core.ErrIdentityNotFound) {
		t.Fatalf("expected ErrIdentityNotFound, got %v", err)
	}

	_, err = resolver.Resolve(context.Background(), map[string]any{"user_id": "   "})
	if !errors.Is(err, core.ErrIdentityNotFound) {
		t.Fatalf("expected ErrIdentityNotFound for blank id, got %v", err)
	}
}

func TestResolver_UnknownDirectoryUserIsIdentityNotFound(t *testing.T) {
	resolver := NewResolver(Config{Directory: StaticDirectory{}})

	_, err := resolver.Resolve(context.Background(), map[string]any{"user_id": "ghost"})
	if !errors.Is(err, core.ErrIdentityNotFound) {
		t.Fatalf("expected ErrIdentityNotFound, got %v", err)
	}
}

func TestResolver_DirectoryOutageIsNotIdentityNotFound(t *testing.T) {
	outage := fmt.Errorf("identity: directory connection refused")
	resolver := NewResolver(Config{Directory: failingDirectory{err: outage}})

	_, err := resolver.Resolve(context.Background(), map[string]any{"user_id": "u_1"})
	if err == nil {
		t.Fatalf("expected outage to surface")
	}
	if errors.Is(err, core.ErrIdentityNotFound) {
		t.Fatalf("outage must not be downgraded to identity-not-found: %v", err)
	}
	if !errors.Is(err, outage) {
		t.Fatalf("expected outage cause to be preserved, got %v", err)
	}
}

func TestResolver_MissingRoleAttributeIsIdentityNotFound(t *testing.T) {
	resolver := DefaultResolver()

	_, err := resolver.Resolve(context.Background(), map[string]any{"user_id": "u_1"})
	if !errors.Is(err, core.ErrIdentityNotFound) {
		t.Fatalf("expected ErrIdentityNotFound, got %v", err)
	}
}

func TestResolver_InvalidRoleAttributeIsNotIdentityNotFound(t *testing.T) {
	resolver := DefaultResolver()

	_, err := resolver.Resolve(context.Background(), map[string]any{
		"user_id": "u_1",
		"role":    "superuser",
	})
	if err == nil {
		t.Fatalf("expected role parse error")
	}
	if errors.Is(err, core.ErrIdentityNotFound) {
		t.Fatalf("bad role must not be downgraded to identity-not-found: %v", err)
	}
	if !errors.Is(err, core.ErrUnknownRole) {
		t.Fatalf("expected ErrUnknownRole cause, got %v", err)
	}
}
