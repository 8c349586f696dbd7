package query

import (
	"strings"

	"github.com/goliatone/go-platform/core"
)

const (
	TypeGetPlugin       = "platform.query.plugin.get"
	TypeGetPluginByName = "platform.query.plugin.get_by_name"
	TypeListPlugins     = "platform.query.plugin.list"
	TypeServiceHealth   = "platform.query.service.health"
	TypeListActivity    = "platform.query.activity.list"
)

type GetPluginMessage struct {
	PluginID string
}

func (GetPluginMessage) Type() string { return TypeGetPlugin }

func (m GetPluginMessage) Validate() error {
	if strings.TrimSpace(m.PluginID) == "" {
		return queryValidationError("plugin_id", "plugin id is required")
	}
	return nil
}

type GetPluginByNameMessage struct {
	Name string
}

func (GetPluginByNameMessage) Type() string { return TypeGetPluginByName }

func (m GetPluginByNameMessage) Validate() error {
	if strings.TrimSpace(m.Name) == "" {
		return queryValidationError("name", "plugin name is required")
	}
	return nil
}

// ListPluginsMessage optionally narrows the listing to one status.
type ListPluginsMessage struct {
	Status core.PluginStatus
}

func (ListPluginsMessage) Type() string { return TypeListPlugins }

func (m ListPluginsMessage) Validate() error {
	if m.Status != "" && !m.Status.Valid() {
		return queryValidationError("status", "unknown plugin status")
	}
	return nil
}

// ServiceHealthMessage requests a point-in-time container health snapshot.
type ServiceHealthMessage struct{}

func (ServiceHealthMessage) Type() string { return TypeServiceHealth }

func (ServiceHealthMessage) Validate() error { return nil }

type ListActivityMessage struct {
	Filter core.ActivityFilter
}

func (ListActivityMessage) Type() string { return TypeListActivity }

func (m ListActivityMessage) Validate() error {
	if m.Filter.Limit < 0 {
		return queryValidationError("limit", "limit must be >= 0")
	}
	if m.Filter.Offset < 0 {
		return queryValidationError("offset", "offset must be >= 0")
	}
	return nil
}
