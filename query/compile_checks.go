package query

import (
	gocmd "github.com/goliatone/go-command"
	"github.com/goliatone/go-platform/core"
)

var (
	_ gocmd.Querier[GetPluginMessage, core.PluginInstance]              = (*GetPluginQuery)(nil)
	_ gocmd.Querier[GetPluginByNameMessage, core.PluginInstance]        = (*GetPluginByNameQuery)(nil)
	_ gocmd.Querier[ListPluginsMessage, []core.PluginInstance]          = (*ListPluginsQuery)(nil)
	_ gocmd.Querier[ServiceHealthMessage, map[string]core.HealthStatus] = (*ServiceHealthQuery)(nil)
	_ gocmd.Querier[ListActivityMessage, core.ActivityPage]             = (*ListActivityQuery)(nil)
)
