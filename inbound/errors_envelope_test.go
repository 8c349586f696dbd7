package inbound

import (
	"context"
	"net/http"
	"testing"

	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-platform/core"
)

func TestDispatch_MissingOperationReturnsRichError(t *testing.T) {
	dispatcher := newTestDispatcher(t)

	_, err := dispatcher.Dispatch(context.Background(), Request{})
	if err == nil {
		t.Fatalf("expected bad input error")
	}

	var rich *goerrors.Error
	if !goerrors.As(err, &rich) {
		t.Fatalf("expected go-errors envelope, got %T", err)
	}
	if rich.Category != goerrors.CategoryBadInput {
		t.Fatalf("expected bad_input category, got %q", rich.Category)
	}
	if rich.TextCode != core.PlatformErrorBadInput {
		t.Fatalf("expected %q text code, got %q", core.PlatformErrorBadInput, rich.TextCode)
	}
	if rich.Code != http.StatusBadRequest {
		t.Fatalf("expected %d code, got %d", http.StatusBadRequest, rich.Code)
	}
}

func TestDispatch_InfrastructureFailureKeepsCategory(t *testing.T) {
	resolver := outageResolver{}
	authorizer, err := core.NewAuthorizer(resolver)
	if err != nil {
		t.Fatalf("new authorizer: %v", err)
	}
	dispatcher, err := NewDispatcher(authorizer)
	if err != nil {
		t.Fatalf("new dispatcher: %v", err)
	}
	if err := dispatcher.Register(echoHandler("plugins.view"), core.RequireAuthenticated()); err != nil {
		t.Fatalf("register: %v", err)
	}

	_, err = dispatcher.Dispatch(context.Background(), Request{
		Operation: "plugins.view",
		Attrs:     map[string]any{"user_id": "u_1"},
	})
	if err == nil {
		t.Fatalf("expected infrastructure failure")
	}

	var rich *goerrors.Error
	if !goerrors.As(err, &rich) {
		t.Fatalf("expected go-errors envelope, got %T", err)
	}
	if rich.Category == goerrors.CategoryAuth || rich.Category == goerrors.CategoryAuthz {
		t.Fatalf("infrastructure failure downgraded to %q", rich.Category)
	}
}

type outageResolver struct{}

func (outageResolver) Resolve(context.Context, map[string]any) (core.Identity, error) {
	return core.Identity{}, goerrors.New("identity: directory timeout", goerrors.CategoryInternal)
}
