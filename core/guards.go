package core

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	goerrors "github.com/goliatone/go-errors"
	glog "github.com/goliatone/go-logger/glog"
)

type guardKind int

const (
	guardAuthenticated guardKind = iota
	guardRole
	guardCapability
	guardAnyOf
)

// Guard is a declarative access requirement attached to an operation.
// Guards are immutable values composed at registration time; evaluation
// runs the same ordered checks everywhere:
//
//  1. a caller identity must be present (authentication),
//  2. the identity's role must build a permission context,
//  3. the requirement must hold for that context (authorization).
//
// Failures in step 2 are internal faults and are never reported as
// authorization failures.
type Guard struct {
	kind       guardKind
	role       Role
	capability Capability
	anyOf      []Guard
}

// RequireAuthenticated admits any resolved caller.
func RequireAuthenticated() Guard {
	return Guard{kind: guardAuthenticated}
}

// RequireRole admits callers holding exactly the given role.
func RequireRole(role Role) Guard {
	return Guard{kind: guardRole, role: role}
}

// RequireCapability admits callers whose role derives the given capability.
func RequireCapability(capability Capability) Guard {
	return Guard{kind: guardCapability, capability: capability}
}

// RequireAny admits callers satisfying at least one of the given guards.
// An empty list admits nobody.
func RequireAny(guards ...Guard) Guard {
	return Guard{kind: guardAnyOf, anyOf: append([]Guard(nil), guards...)}
}

// SatisfiedBy reports whether the permission context meets the requirement.
func (g Guard) SatisfiedBy(permCtx PermissionContext) bool {
	switch g.kind {
	case guardAuthenticated:
		return true
	case guardRole:
		return permCtx.Role == g.role
	case guardCapability:
		return permCtx.HasCapability(g.capability)
	case guardAnyOf:
		for _, inner := range g.anyOf {
			if inner.SatisfiedBy(permCtx) {
				return true
			}
		}
		return false
	default:
		return false
	}
}

func (g Guard) String() string {
	switch g.kind {
	case guardAuthenticated:
		return "authenticated"
	case guardRole:
		return "role:" + string(g.role)
	case guardCapability:
		return "capability:" + string(g.capability)
	case guardAnyOf:
		if len(g.anyOf) == 0 {
			return "none"
		}
		parts := make([]string, 0, len(g.anyOf))
		for _, inner := range g.anyOf {
			parts = append(parts, inner.String())
		}
		return "any-of(" + strings.Join(parts, " or ") + ")"
	default:
		return "unknown"
	}
}

// Check runs the ordered access checks against a resolved caller and
// returns the permission context operations act under.
func (g Guard) Check(_ context.Context, identity Identity) (PermissionContext, error) {
	if strings.TrimSpace(identity.UserID) == "" {
		return PermissionContext{}, identityRequiredError(nil)
	}
	permCtx, err := NewPermissionContext(identity.UserID, identity.Role)
	if err != nil {
		return PermissionContext{}, permissionContextError(identity.UserID, err)
	}
	if !g.SatisfiedBy(permCtx) {
		return PermissionContext{}, permissionDeniedError(identity, g)
	}
	return permCtx, nil
}

// GuardedFunc is an operation body that runs once access checks pass.
type GuardedFunc func(ctx context.Context, permCtx PermissionContext) error

// Wrap returns the operation with the guard's checks applied up front.
func (g Guard) Wrap(op GuardedFunc) func(ctx context.Context, identity Identity) error {
	return func(ctx context.Context, identity Identity) error {
		permCtx, err := g.Check(ctx, identity)
		if err != nil {
			return err
		}
		if op == nil {
			return nil
		}
		return op(ctx, permCtx)
	}
}

// Authorizer resolves caller identity from transport attributes and applies
// operation guards with uniform logging and metrics. Authorization denials
// log at info; resolver and derivation faults keep full detail at error
// level and are never reported as authorization failures.
type Authorizer struct {
	observer
	resolver IdentityResolver
}

type AuthorizerOption func(*Authorizer)

func WithAuthorizerLogger(logger Logger) AuthorizerOption {
	return func(a *Authorizer) {
		if logger != nil {
			a.logger = logger
		}
	}
}

func WithAuthorizerMetrics(metrics MetricsRecorder) AuthorizerOption {
	return func(a *Authorizer) {
		if metrics != nil {
			a.metrics = metrics
		}
	}
}

func NewAuthorizer(resolver IdentityResolver, options ...AuthorizerOption) (*Authorizer, error) {
	if resolver == nil {
		return nil, fmt.Errorf("core: identity resolver is required")
	}
	a := &Authorizer{
		observer: observer{
			logger:  glog.Nop(),
			metrics: NopMetricsRecorder{},
		},
		resolver: resolver,
	}
	for _, opt := range options {
		if opt == nil {
			continue
		}
		opt(a)
	}
	return a, nil
}

// Authorize resolves the caller and applies the guard in one call.
func (a *Authorizer) Authorize(ctx context.Context, attrs map[string]any, guard Guard) (permCtx PermissionContext, err error) {
	startedAt := time.Now()
	var identity Identity
	defer func() {
		a.observeAuthorization(ctx, startedAt, identity, guard, err)
	}()

	identity, err = a.ResolveIdentity(ctx, attrs)
	if err != nil {
		return PermissionContext{}, err
	}
	return guard.Check(ctx, identity)
}

// ResolveIdentity classifies resolver outcomes. A missing caller is an
// authentication failure; any other resolver error is an infrastructure
// fault and keeps its own category.
func (a *Authorizer) ResolveIdentity(ctx context.Context, attrs map[string]any) (Identity, error) {
	identity, err := a.resolver.Resolve(ctx, attrs)
	if err != nil {
		if errors.Is(err, ErrIdentityNotFound) {
			return Identity{}, identityRequiredError(err)
		}
		return Identity{}, identityResolutionError(err)
	}
	return identity, nil
}

func (a *Authorizer) observeAuthorization(
	ctx context.Context,
	startedAt time.Time,
	identity Identity,
	guard Guard,
	err error,
) {
	outcome := "granted"
	switch errorCategory(err) {
	case goerrors.CategoryAuth:
		outcome = "unauthenticated"
	case goerrors.CategoryAuthz:
		outcome = "denied"
	default:
		if err != nil {
			outcome = "error"
		}
	}

	fields := map[string]any{
		"user_id":     identity.UserID,
		"role":        string(identity.Role),
		"requirement": guard.String(),
		"outcome":     outcome,
		"duration_ms": time.Since(startedAt).Milliseconds(),
	}
	if err != nil {
		fields["error"] = err.Error()
	}
	tags := map[string]string{"outcome": outcome}

	a.recordCounter(ctx, "platform.authorize.total", 1, tags)
	a.recordHistogram(ctx, "platform.authorize.duration_ms", float64(time.Since(startedAt).Milliseconds()), tags)

	switch outcome {
	case "error":
		a.logError(ctx, "authorization failed", fields)
	case "unauthenticated":
		a.logInfo(ctx, "authorization rejected: identity required", fields)
	case "denied":
		a.logInfo(ctx, "authorization denied", fields)
	default:
		a.logInfo(ctx, "authorization granted", fields)
	}
}

func errorCategory(err error) goerrors.Category {
	var zero goerrors.Category
	if err == nil {
		return zero
	}
	var rich *goerrors.Error
	if goerrors.As(err, &rich) {
		return rich.Category
	}
	return zero
}

func identityRequiredError(cause error) error {
	const message = "core: caller identity is required"
	var err *goerrors.Error
	if cause != nil {
		err = goerrors.Wrap(cause, goerrors.CategoryAuth, message)
	} else {
		err = goerrors.New(message, goerrors.CategoryAuth)
	}
	return err.
		WithTextCode(PlatformErrorIdentityRequired).
		WithCode(http.StatusUnauthorized)
}

func identityResolutionError(cause error) error {
	return goerrors.Wrap(cause, goerrors.CategoryOperation, "core: identity resolution failed").
		WithTextCode(PlatformErrorInternal).
		WithCode(http.StatusInternalServerError)
}

func permissionContextError(userID string, cause error) error {
	return goerrors.Wrap(
		cause,
		goerrors.CategoryOperation,
		fmt.Sprintf("core: permission context for user %q could not be built", userID),
	).
		WithTextCode(PlatformErrorInternal).
		WithCode(http.StatusInternalServerError)
}

func permissionDeniedError(identity Identity, guard Guard) error {
	return goerrors.New(
		fmt.Sprintf("core: role %q does not satisfy %s", identity.Role, guard),
		goerrors.CategoryAuthz,
	).
		WithTextCode(PlatformErrorPermissionDenied).
		WithCode(http.StatusForbidden).
		WithMetadata(map[string]any{
			"user_id":     identity.UserID,
			"role":        string(identity.Role),
			"requirement": guard.String(),
		})
}
