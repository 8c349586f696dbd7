package core

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

var (
	ErrUnknownRole                 = errors.New("core: unknown role")
	ErrUnknownCapability           = errors.New("core: unknown capability")
	ErrPluginNotFound              = errors.New("core: plugin not found")
	ErrInvalidStatusTransition     = errors.New("core: invalid plugin status transition")
	ErrServiceAlreadyRegistered    = errors.New("core: service already registered")
	ErrServiceNotRegistered        = errors.New("core: service not registered")
	ErrContainerAlreadyInitialized = errors.New("core: container already initialized")
	ErrContainerNotInitialized     = errors.New("core: container is not initialized")
)

// Role is the coarse identity classification. Its derived capability set is
// fixed; ADMIN is a superset of every other role, with no further ordering.
type Role string

const (
	RoleAdmin  Role = "admin"
	RoleEditor Role = "editor"
	RoleViewer Role = "viewer"
	RoleGuest  Role = "guest"
)

func ParseRole(value string) (Role, error) {
	role := Role(strings.TrimSpace(strings.ToLower(value)))
	if !role.Valid() {
		return "", fmt.Errorf("%w: %q", ErrUnknownRole, value)
	}
	return role, nil
}

func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleEditor, RoleViewer, RoleGuest:
		return true
	default:
		return false
	}
}

func (r Role) String() string {
	return string(r)
}

// Capability is a namespaced permission string of the form resource:action,
// drawn from the fixed closed set below.
type Capability string

const (
	CapabilityContentView    Capability = "content:view"
	CapabilityContentCreate  Capability = "content:create"
	CapabilityContentEdit    Capability = "content:edit"
	CapabilityContentDelete  Capability = "content:delete"
	CapabilityContentPublish Capability = "content:publish"
	CapabilityMediaView      Capability = "media:view"
	CapabilityMediaUpload    Capability = "media:upload"
	CapabilityMediaDelete    Capability = "media:delete"
	CapabilityTaxonomyView   Capability = "taxonomy:view"
	CapabilityTaxonomyManage Capability = "taxonomy:manage"
	CapabilityPluginView     Capability = "plugin:view"
	CapabilityPluginManage   Capability = "plugin:manage"
	CapabilityUserView       Capability = "user:view"
	CapabilityUserManage     Capability = "user:manage"
	CapabilitySettingsView   Capability = "settings:view"
	CapabilitySettingsManage Capability = "settings:manage"
)

func (c Capability) String() string {
	return string(c)
}

func ParseCapability(value string) (Capability, error) {
	capability := Capability(strings.TrimSpace(strings.ToLower(value)))
	if !KnownCapability(capability) {
		return "", fmt.Errorf("%w: %q", ErrUnknownCapability, value)
	}
	return capability, nil
}

// HealthStatus is the per-service health report returned by health checks.
type HealthStatus struct {
	Healthy bool
	Message string
}

// Identity is the resolved caller passed to operation guards. Metadata holds
// transport-supplied attributes the resolver used or preserved.
type Identity struct {
	UserID   string
	Role     Role
	Metadata map[string]any
}

// PluginInstance is the runtime record for an installed plugin.
type PluginInstance struct {
	ID            string
	Manifest      PluginManifest
	Status        PluginStatus
	InstalledAt   time.Time
	ActivatedAt   *time.Time
	LastUpdatedAt *time.Time
	Error         string
	Config        map[string]any

	// FailedOperation names the transition that moved the instance into
	// StatusError; operators retry exactly that transition. PriorStatus is
	// the status held before the failed attempt so a retried update can
	// still honor the activation intent recorded there. Both are empty
	// outside the error state.
	FailedOperation string
	PriorStatus     PluginStatus
}

func (p PluginInstance) Clone() PluginInstance {
	out := p
	out.Manifest = p.Manifest.Clone()
	out.Config = copyAnyMap(p.Config)
	if p.ActivatedAt != nil {
		at := *p.ActivatedAt
		out.ActivatedAt = &at
	}
	if p.LastUpdatedAt != nil {
		at := *p.LastUpdatedAt
		out.LastUpdatedAt = &at
	}
	return out
}

type LifecycleEventType string

const (
	LifecycleEventInstalled   LifecycleEventType = "plugin.installed"
	LifecycleEventActivated   LifecycleEventType = "plugin.activated"
	LifecycleEventDeactivated LifecycleEventType = "plugin.deactivated"
	LifecycleEventUninstalled LifecycleEventType = "plugin.uninstalled"
	LifecycleEventUpdated     LifecycleEventType = "plugin.updated"
	LifecycleEventErrored     LifecycleEventType = "plugin.errored"
)

// LifecycleEvent is emitted after every plugin status transition, including
// failed transitions that parked the instance in StatusError.
type LifecycleEvent struct {
	Type       LifecycleEventType
	PluginID   string
	PluginName string
	Version    string
	Status     PluginStatus
	Error      string
	OccurredAt time.Time
	Metadata   map[string]any
}

// ActivityRecord is one audit row describing a container or lifecycle
// operation outcome.
type ActivityRecord struct {
	ID        string
	PluginID  string
	Operation string
	Status    string
	Detail    string
	CreatedAt time.Time
}

type ActivityFilter struct {
	PluginID  string
	Operation string
	Limit     int
	Offset    int
}

type ActivityPage struct {
	Items []ActivityRecord
	Total int
}

func copyAnyMap(in map[string]any) map[string]any {
	if in == nil {
		return nil
	}
	out := make(map[string]any, len(in))
	for key, value := range in {
		out[key] = value
	}
	return out
}

func copyStringMap(in map[string]string) map[string]string {
	if in == nil {
		return nil
	}
	out := make(map[string]string, len(in))
	for key, value := range in {
		out[key] = value
	}
	return out
}
