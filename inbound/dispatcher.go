package inbound

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"sync"

	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-platform/core"
)

// Request is one inbound operation call. Attrs carries the caller's
// transport attributes (headers, token claims) consumed by identity
// resolution; Payload is the operation input passed through untouched.
type Request struct {
	Operation string
	Attrs     map[string]any
	Payload   map[string]any
}

type Result struct {
	StatusCode int
	Body       any
	Metadata   map[string]any
}

// Handler executes one named operation after its guard admits the caller.
// The permission context the caller was admitted under is passed along so
// handlers can narrow results further (capability-based filtering).
type Handler interface {
	Operation() string
	Handle(ctx context.Context, req Request, permCtx core.PermissionContext) (Result, error)
}

// HandlerFunc adapts a function to Handler.
type HandlerFunc struct {
	Name string
	Fn   func(ctx context.Context, req Request, permCtx core.PermissionContext) (Result, error)
}

func (h HandlerFunc) Operation() string { return h.Name }

func (h HandlerFunc) Handle(ctx context.Context, req Request, permCtx core.PermissionContext) (Result, error) {
	if h.Fn == nil {
		return Result{}, inboundInternal("inbound: handler function is nil", nil)
	}
	return h.Fn(ctx, req, permCtx)
}

type registration struct {
	handler Handler
	guard   core.Guard
}

// Dispatcher routes named operations through their guards to handlers.
// Guards are attached at registration time; every dispatch runs the same
// ordered checks (identity, permission context, requirement) before the
// handler sees the request.
type Dispatcher struct {
	authorizer *core.Authorizer

	mu       sync.RWMutex
	handlers map[string]registration
}

func NewDispatcher(authorizer *core.Authorizer) (*Dispatcher, error) {
	if authorizer == nil {
		return nil, inboundInternal("inbound: authorizer is required", nil)
	}
	return &Dispatcher{
		authorizer: authorizer,
		handlers:   map[string]registration{},
	}, nil
}

// Register binds a handler and its guard under the handler's operation name.
// Double registration of an operation is a conflict.
func (d *Dispatcher) Register(handler Handler, guard core.Guard) error {
	if d == nil {
		return inboundInternal("inbound: dispatcher is nil", nil)
	}
	if handler == nil {
		return inboundBadInput("inbound: handler is nil", nil)
	}
	operation := normalizeOperation(handler.Operation())
	if operation == "" {
		return inboundBadInput("inbound: operation name is required", nil)
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	if _, exists := d.handlers[operation]; exists {
		return inboundError(
			fmt.Sprintf("inbound: handler already registered for operation %q", operation),
			goerrors.CategoryConflict,
			http.StatusConflict,
			core.PlatformErrorStateConflict,
			map[string]any{"operation": operation},
		)
	}
	d.handlers[operation] = registration{handler: handler, guard: guard}
	return nil
}

// Operations returns the registered operation names, unordered.
func (d *Dispatcher) Operations() []string {
	if d == nil {
		return nil
	}
	d.mu.RLock()
	defer d.mu.RUnlock()
	names := make([]string, 0, len(d.handlers))
	for name := range d.handlers {
		names = append(names, name)
	}
	return names
}

// Dispatch authorizes and executes one operation. Authentication and
// authorization failures from the guard pass through with their categories
// intact; handler failures are wrapped as operation errors.
func (d *Dispatcher) Dispatch(ctx context.Context, req Request) (Result, error) {
	if d == nil {
		return Result{}, inboundInternal("inbound: dispatcher is nil", nil)
	}
	req.Operation = normalizeOperation(req.Operation)
	if req.Operation == "" {
		return Result{}, inboundBadInput("inbound: operation name is required", nil)
	}

	reg, ok := d.registrationFor(req.Operation)
	if !ok {
		return Result{}, inboundError(
			fmt.Sprintf("inbound: no handler registered for operation %q", req.Operation),
			goerrors.CategoryNotFound,
			http.StatusNotFound,
			core.PlatformErrorServiceNotFound,
			map[string]any{"operation": req.Operation},
		)
	}

	permCtx, err := d.authorizer.Authorize(ctx, req.Attrs, reg.guard)
	if err != nil {
		return Result{}, err
	}

	result, err := reg.handler.Handle(ctx, req, permCtx)
	if err != nil {
		return Result{}, inboundWrapError(
			err,
			goerrors.CategoryOperation,
			"inbound: handler execution failed",
			http.StatusInternalServerError,
			core.PlatformErrorInternal,
			map[string]any{"operation": req.Operation},
		)
	}
	if result.StatusCode == 0 {
		result.StatusCode = http.StatusOK
	}
	result.Metadata = ensureMetadata(result.Metadata)
	result.Metadata["operation"] = req.Operation
	result.Metadata["user_id"] = permCtx.UserID
	return result, nil
}

func (d *Dispatcher) registrationFor(operation string) (registration, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	reg, ok := d.handlers[operation]
	return reg, ok
}

func normalizeOperation(operation string) string {
	return strings.TrimSpace(strings.ToLower(operation))
}

func ensureMetadata(metadata map[string]any) map[string]any {
	if len(metadata) == 0 {
		return map[string]any{}
	}
	return metadata
}
