package inbound

import (
	"context"
	"fmt"
	"net/http"
	"testing"

	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-platform/core"
	"github.com/goliatone/go-platform/identity"
)

func newTestDispatcher(t *testing.T) *Dispatcher {
	t.Helper()
	resolver := identity.NewResolver(identity.Config{
		Directory: identity.StaticDirectory{
			"admin_1":  {UserID: "admin_1", Role: core.RoleAdmin},
			"editor_1": {UserID: "editor_1", Role: core.RoleEditor},
			"guest_1":  {UserID: "guest_1", Role: core.RoleGuest},
		},
	})
	authorizer, err := core.NewAuthorizer(resolver)
	if err != nil {
		t.Fatalf("new authorizer: %v", err)
	}
	dispatcher, err := NewDispatcher(authorizer)
	if err != nil {
		t.Fatalf("new dispatcher: %v", err)
	}
	return dispatcher
}

func echoHandler(name string) Handler {
	return HandlerFunc{
		Name: name,
		Fn: func(_ context.Context, req Request, permCtx core.PermissionContext) (Result, error) {
			return Result{
				StatusCode: http.StatusOK,
				Body: map[string]any{
					"role":    string(permCtx.Role),
					"payload": req.Payload,
				},
			}, nil
		},
	}
}

func TestDispatcher_GuardedDispatch(t *testing.T) {
	dispatcher := newTestDispatcher(t)
	if err := dispatcher.Register(echoHandler("plugins.manage"), core.RequireCapability(core.CapabilityPluginManage)); err != nil {
		t.Fatalf("register: %v", err)
	}

	result, err := dispatcher.Dispatch(context.Background(), Request{
		Operation: "plugins.manage",
		Attrs:     map[string]any{"user_id": "admin_1"},
		Payload:   map[string]any{"plugin": "hello-world"},
	})
	if err != nil {
		t.Fatalf("dispatch: %v", err)
	}
	if result.StatusCode != http.StatusOK {
		t.Fatalf("unexpected status %d", result.StatusCode)
	}
	if result.Metadata["operation"] != "plugins.manage" || result.Metadata["user_id"] != "admin_1" {
		t.Fatalf("unexpected metadata: %#v", result.Metadata)
	}
}

func TestDispatcher_DeniesInsufficientRole(t *testing.T) {
	dispatcher := newTestDispatcher(t)
	if err := dispatcher.Register(echoHandler("plugins.manage"), core.RequireCapability(core.CapabilityPluginManage)); err != nil {
		t.Fatalf("register: %v", err)
	}

	_, err := dispatcher.Dispatch(context.Background(), Request{
		Operation: "plugins.manage",
		Attrs:     map[string]any{"user_id": "editor_1"},
	})
	if err == nil {
		t.Fatalf("expected authorization failure")
	}
	var rich *goerrors.Error
	if !goerrors.As(err, &rich) {
		t.Fatalf("expected go-errors envelope, got %T", err)
	}
	if rich.Category != goerrors.CategoryAuthz {
		t.Fatalf("expected authz category, got %q", rich.Category)
	}
}

func TestDispatcher_MissingCallerIsAuthFailure(t *testing.T) {
	dispatcher := newTestDispatcher(t)
	if err := dispatcher.Register(echoHandler("plugins.view"), core.RequireCapability(core.CapabilityPluginView)); err != nil {
		t.Fatalf("register: %v", err)
	}

	_, err := dispatcher.Dispatch(context.Background(), Request{Operation: "plugins.view"})
	if err == nil {
		t.Fatalf("expected authentication failure")
	}
	var rich *goerrors.Error
	if !goerrors.As(err, &rich) {
		t.Fatalf("expected go-errors envelope, got %T", err)
	}
	if rich.Category != goerrors.CategoryAuth {
		t.Fatalf("expected auth category, got %q", rich.Category)
	}
}

func TestDispatcher_UnknownOperationIsNotFound(t *testing.T) {
	dispatcher := newTestDispatcher(t)

	_, err := dispatcher.Dispatch(context.Background(), Request{
		Operation: "plugins.manage",
		Attrs:     map[string]any{"user_id": "admin_1"},
	})
	if err == nil {
		t.Fatalf("expected not-found error")
	}
	var rich *goerrors.Error
	if !goerrors.As(err, &rich) {
		t.Fatalf("expected go-errors envelope, got %T", err)
	}
	if rich.Category != goerrors.CategoryNotFound {
		t.Fatalf("expected not_found category, got %q", rich.Category)
	}
}

func TestDispatcher_DuplicateRegistrationConflicts(t *testing.T) {
	dispatcher := newTestDispatcher(t)
	if err := dispatcher.Register(echoHandler("plugins.view"), core.RequireAuthenticated()); err != nil {
		t.Fatalf("register: %v", err)
	}
	err := dispatcher.Register(echoHandler("plugins.view"), core.RequireAuthenticated())
	if err == nil {
		t.Fatalf("expected duplicate registration error")
	}
	var rich *goerrors.Error
	if !goerrors.As(err, &rich) {
		t.Fatalf("expected go-errors envelope, got %T", err)
	}
	if rich.Category != goerrors.CategoryConflict {
		t.Fatalf("expected conflict category, got %q", rich.Category)
	}
}

func TestDispatcher_HandlerErrorIsOperationFailure(t *testing.T) {
	dispatcher := newTestDispatcher(t)
	handler := HandlerFunc{
		Name: "plugins.install",
		Fn: func(context.Context, Request, core.PermissionContext) (Result, error) {
			return Result{}, fmt.Errorf("store unavailable")
		},
	}
	if err := dispatcher.Register(handler, core.RequireRole(core.RoleAdmin)); err != nil {
		t.Fatalf("register: %v", err)
	}

	_, err := dispatcher.Dispatch(context.Background(), Request{
		Operation: "plugins.install",
		Attrs:     map[string]any{"user_id": "admin_1"},
	})
	if err == nil {
		t.Fatalf("expected handler failure")
	}
	var rich *goerrors.Error
	if !goerrors.As(err, &rich) {
		t.Fatalf("expected go-errors envelope, got %T", err)
	}
	if rich.Category != goerrors.CategoryOperation {
		t.Fatalf("expected operation category, got %q", rich.Category)
	}
}

func TestDispatcher_OrGuardAdmitsEitherRequirement(t *testing.T) {
	dispatcher := newTestDispatcher(t)
	guard := core.RequireAny(
		core.RequireRole(core.RoleAdmin),
		core.RequireCapability(core.CapabilityContentEdit),
	)
	if err := dispatcher.Register(echoHandler("content.edit"), guard); err != nil {
		t.Fatalf("register: %v", err)
	}

	for _, userID := range []string{"admin_1", "editor_1"} {
		if _, err := dispatcher.Dispatch(context.Background(), Request{
			Operation: "content.edit",
			Attrs:     map[string]any{"user_id": userID},
		}); err != nil {
			t.Fatalf("dispatch as %s: %v", userID, err)
		}
	}

	if _, err := dispatcher.Dispatch(context.Background(), Request{
		Operation: "content.edit",
		Attrs:     map[string]any{"user_id": "guest_1"},
	}); err == nil {
		t.Fatalf("expected guest to be denied")
	}
}
