package core

import (
	"fmt"
	"strings"
)

// PluginStatus tracks where a plugin instance sits in the install lifecycle.
// StatusNotInstalled is the absence state: uninstalled plugins have no stored
// record, the constant exists for transition reporting only.
type PluginStatus string

const (
	StatusNotInstalled PluginStatus = "not-installed"
	StatusInstalled    PluginStatus = "installed"
	StatusActive       PluginStatus = "active"
	StatusInactive     PluginStatus = "inactive"
	StatusError        PluginStatus = "error"
)

func ParsePluginStatus(value string) (PluginStatus, error) {
	status := PluginStatus(strings.TrimSpace(strings.ToLower(value)))
	if !status.Valid() {
		return "", fmt.Errorf("core: unknown plugin status %q", value)
	}
	return status, nil
}

func (s PluginStatus) Valid() bool {
	switch s {
	case StatusNotInstalled, StatusInstalled, StatusActive, StatusInactive, StatusError:
		return true
	default:
		return false
	}
}

func (s PluginStatus) String() string {
	return string(s)
}

// Usable reports whether plugin-provided functionality may run.
func (s PluginStatus) Usable() bool {
	return s == StatusActive
}

// Installed reports whether a stored record exists for this status.
func (s PluginStatus) Installed() bool {
	switch s {
	case StatusInstalled, StatusActive, StatusInactive, StatusError:
		return true
	default:
		return false
	}
}

// statusTransitions is the legal edge set of the lifecycle state machine.
// Install introduces installed, activate/deactivate toggle active and
// inactive, uninstall removes active or inactive plugins, and update routes
// active or inactive back through installed. Every state may fall into
// error; leaving error is additionally gated on retrying the operation that
// failed, which Manager enforces on top of this table.
var statusTransitions = map[PluginStatus]map[PluginStatus]struct{}{
	StatusNotInstalled: {
		StatusInstalled: {},
		StatusError:     {},
	},
	StatusInstalled: {
		StatusActive: {},
		StatusError:  {},
	},
	StatusActive: {
		StatusInactive:     {},
		StatusInstalled:    {},
		StatusNotInstalled: {},
		StatusError:        {},
	},
	StatusInactive: {
		StatusActive:       {},
		StatusInstalled:    {},
		StatusNotInstalled: {},
		StatusError:        {},
	},
	StatusError: {
		StatusInstalled:    {},
		StatusActive:       {},
		StatusInactive:     {},
		StatusNotInstalled: {},
	},
}

func statusTransitionAllowed(current, next PluginStatus) bool {
	_, ok := statusTransitions[current][next]
	return ok
}
