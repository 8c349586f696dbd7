package core

import (
	"errors"
	"net/http"
	"strings"

	goerrors "github.com/goliatone/go-errors"
)

const (
	PlatformErrorBadInput         = "PLATFORM_BAD_INPUT"
	PlatformErrorIdentityRequired = "PLATFORM_IDENTITY_REQUIRED"
	PlatformErrorPermissionDenied = "PLATFORM_PERMISSION_DENIED"
	PlatformErrorServiceNotFound  = "PLATFORM_SERVICE_NOT_FOUND"
	PlatformErrorPluginNotFound   = "PLATFORM_PLUGIN_NOT_FOUND"
	PlatformErrorDuplicateService = "PLATFORM_SERVICE_DUPLICATE"
	PlatformErrorStateConflict    = "PLATFORM_STATE_CONFLICT"
	PlatformErrorManifestInvalid  = "PLATFORM_MANIFEST_INVALID"
	PlatformErrorHookFailed       = "PLATFORM_HOOK_FAILED"
	PlatformErrorInitFailed       = "PLATFORM_SERVICE_INIT_FAILED"
	PlatformErrorUpstreamFailed   = "PLATFORM_UPSTREAM_FAILED"
	PlatformErrorInternal         = "PLATFORM_INTERNAL_ERROR"
)

// ErrIdentityNotFound marks the no-resolvable-caller case. Resolvers wrap it
// so guards can keep authentication failures apart from resolver outages.
var ErrIdentityNotFound = errors.New("core: identity not found")

func platformErrorMapper(err error) *goerrors.Error {
	if err == nil {
		return nil
	}

	var richErr *goerrors.Error
	if goerrors.As(err, &richErr) {
		return ensurePlatformErrorEnvelope(richErr)
	}

	switch {
	case errors.Is(err, ErrIdentityNotFound):
		return newPlatformError(err.Error(), goerrors.CategoryAuth, PlatformErrorIdentityRequired)
	case errors.Is(err, ErrPluginNotFound):
		return newPlatformError(err.Error(), goerrors.CategoryNotFound, PlatformErrorPluginNotFound)
	case errors.Is(err, ErrServiceAlreadyRegistered):
		return newPlatformError(err.Error(), goerrors.CategoryConflict, PlatformErrorDuplicateService)
	case errors.Is(err, ErrServiceNotRegistered):
		return newPlatformError(err.Error(), goerrors.CategoryNotFound, PlatformErrorServiceNotFound)
	case errors.Is(err, ErrContainerAlreadyInitialized),
		errors.Is(err, ErrContainerNotInitialized),
		errors.Is(err, ErrInvalidStatusTransition):
		return newPlatformError(err.Error(), goerrors.CategoryConflict, PlatformErrorStateConflict)
	}

	msg := strings.ToLower(strings.TrimSpace(err.Error()))
	switch {
	case strings.Contains(msg, "already registered"):
		return newPlatformError(err.Error(), goerrors.CategoryConflict, PlatformErrorDuplicateService)
	case strings.Contains(msg, "service") && strings.Contains(msg, "not registered"):
		return newPlatformError(err.Error(), goerrors.CategoryNotFound, PlatformErrorServiceNotFound)
	case strings.Contains(msg, "manifest"):
		return newPlatformError(err.Error(), goerrors.CategoryValidation, PlatformErrorManifestInvalid)
	case strings.Contains(msg, "hook"):
		return newPlatformError(err.Error(), goerrors.CategoryOperation, PlatformErrorHookFailed)
	case strings.Contains(msg, "required"), strings.Contains(msg, "invalid"), strings.Contains(msg, "unknown"):
		return newPlatformError(err.Error(), goerrors.CategoryBadInput, PlatformErrorBadInput)
	}

	mapped := goerrors.MapToError(err, goerrors.DefaultErrorMappers())
	return ensurePlatformErrorEnvelope(mapped)
}

func newPlatformError(message string, category goerrors.Category, textCode string) *goerrors.Error {
	return ensurePlatformErrorEnvelope(
		goerrors.New(message, category).
			WithTextCode(textCode),
	)
}

func ensurePlatformErrorEnvelope(err *goerrors.Error) *goerrors.Error {
	if err == nil {
		return nil
	}
	if err.Code == 0 {
		err.Code = platformHTTPStatus(err.Category)
	}
	if strings.TrimSpace(err.TextCode) == "" {
		err.TextCode = defaultPlatformTextCode(err.Category)
	}
	if err.Category == goerrors.CategoryInternal && strings.TrimSpace(err.Message) == "" {
		err.Message = "An unexpected error occurred"
	}
	return err
}

func defaultPlatformTextCode(category goerrors.Category) string {
	switch category {
	case goerrors.CategoryBadInput, goerrors.CategoryValidation:
		return PlatformErrorBadInput
	case goerrors.CategoryNotFound:
		return PlatformErrorServiceNotFound
	case goerrors.CategoryAuth:
		return PlatformErrorIdentityRequired
	case goerrors.CategoryAuthz:
		return PlatformErrorPermissionDenied
	case goerrors.CategoryConflict:
		return PlatformErrorStateConflict
	case goerrors.CategoryOperation:
		return PlatformErrorHookFailed
	default:
		return PlatformErrorInternal
	}
}

func platformHTTPStatus(category goerrors.Category) int {
	switch category {
	case goerrors.CategoryBadInput, goerrors.CategoryValidation:
		return http.StatusBadRequest
	case goerrors.CategoryNotFound:
		return http.StatusNotFound
	case goerrors.CategoryAuth:
		return http.StatusUnauthorized
	case goerrors.CategoryAuthz:
		return http.StatusForbidden
	case goerrors.CategoryConflict:
		return http.StatusConflict
	case goerrors.CategoryRateLimit:
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}
