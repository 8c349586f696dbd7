package core

import (
	"fmt"
	"slices"
	"strings"
)

// allCapabilities is the closed capability set. Manifest validation and role
// derivation both key off this list; extending it is a schema change.
var allCapabilities = []Capability{
	CapabilityContentView,
	CapabilityContentCreate,
	CapabilityContentEdit,
	CapabilityContentDelete,
	CapabilityContentPublish,
	CapabilityMediaView,
	CapabilityMediaUpload,
	CapabilityMediaDelete,
	CapabilityTaxonomyView,
	CapabilityTaxonomyManage,
	CapabilityPluginView,
	CapabilityPluginManage,
	CapabilityUserView,
	CapabilityUserManage,
	CapabilitySettingsView,
	CapabilitySettingsManage,
}

// roleCapabilities is the fixed role→capability table. ADMIN is the union of
// every capability; the other sets are hand curated, GUEST being the minimal
// read-only surface.
var roleCapabilities = map[Role][]Capability{
	RoleAdmin: allCapabilities,
	RoleEditor: {
		CapabilityContentView,
		CapabilityContentCreate,
		CapabilityContentEdit,
		CapabilityContentPublish,
		CapabilityMediaView,
		CapabilityMediaUpload,
		CapabilityTaxonomyView,
		CapabilityTaxonomyManage,
	},
	RoleViewer: {
		CapabilityContentView,
		CapabilityMediaView,
		CapabilityTaxonomyView,
	},
	RoleGuest: {
		CapabilityContentView,
	},
}

// AllCapabilities returns the closed capability set, sorted.
func AllCapabilities() []Capability {
	return sortedCapabilities(allCapabilities)
}

func KnownCapability(capability Capability) bool {
	return slices.Contains(allCapabilities, capability)
}

// DeriveCapabilities returns the fixed capability set for a role as a fresh
// sorted slice. Unknown roles derive the empty set rather than an error so
// membership checks degrade to deny.
func DeriveCapabilities(role Role) []Capability {
	caps, ok := roleCapabilities[role]
	if !ok {
		return []Capability{}
	}
	return sortedCapabilities(caps)
}

// PermissionContext carries a caller's role and its derived capabilities.
// The capability set is private and populated exclusively by
// NewPermissionContext, so it always equals DeriveCapabilities(Role); there
// is no construction path that accepts capabilities as input. The zero value
// holds no capabilities and denies everything.
type PermissionContext struct {
	UserID string
	Role   Role

	capabilities map[Capability]struct{}
}

// NewPermissionContext is the only way to build a PermissionContext.
func NewPermissionContext(userID string, role Role) (PermissionContext, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return PermissionContext{}, fmt.Errorf("core: user id is required")
	}
	if !role.Valid() {
		return PermissionContext{}, fmt.Errorf("%w: %q", ErrUnknownRole, role)
	}
	set := make(map[Capability]struct{})
	for _, capability := range roleCapabilities[role] {
		set[capability] = struct{}{}
	}
	return PermissionContext{UserID: userID, Role: role, capabilities: set}, nil
}

// Capabilities returns a sorted copy of the derived capability set.
func (c PermissionContext) Capabilities() []Capability {
	out := make([]Capability, 0, len(c.capabilities))
	for capability := range c.capabilities {
		out = append(out, capability)
	}
	slices.Sort(out)
	return out
}

func (c PermissionContext) HasCapability(capability Capability) bool {
	_, ok := c.capabilities[capability]
	return ok
}

// HasAnyCapability reports whether at least one of the given capabilities is
// held. An empty argument list yields false.
func (c PermissionContext) HasAnyCapability(capabilities ...Capability) bool {
	for _, capability := range capabilities {
		if c.HasCapability(capability) {
			return true
		}
	}
	return false
}

// HasAllCapabilities reports whether every given capability is held. An
// empty argument list is vacuously true.
func (c PermissionContext) HasAllCapabilities(capabilities ...Capability) bool {
	for _, capability := range capabilities {
		if !c.HasCapability(capability) {
			return false
		}
	}
	return true
}

// FilterByCapability keeps the items whose required capability the context
// holds. Callers use it to hide affordances rather than raise errors.
func FilterByCapability[T any](ctx PermissionContext, items []T, requires func(T) Capability) []T {
	out := make([]T, 0, len(items))
	for _, item := range items {
		if ctx.HasCapability(requires(item)) {
			out = append(out, item)
		}
	}
	return out
}

func sortedCapabilities(in []Capability) []Capability {
	out := append([]Capability(nil), in...)
	slices.Sort(out)
	return slices.Compact(out)
}
