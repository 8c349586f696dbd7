package query

import (
	"context"

	"github.com/goliatone/go-platform/core"
)

// PluginReader is the read surface of the plugin lifecycle manager.
type PluginReader interface {
	Get(ctx context.Context, id string) (core.PluginInstance, error)
	GetByName(ctx context.Context, name string) (core.PluginInstance, error)
	List(ctx context.Context) ([]core.PluginInstance, error)
}

// HealthReader is the sweep surface of the service container.
type HealthReader interface {
	HealthCheckAll(ctx context.Context) (map[string]core.HealthStatus, error)
}

type ActivityReader interface {
	Activity(ctx context.Context, filter core.ActivityFilter) (core.ActivityPage, error)
}

type GetPluginQuery struct {
	reader PluginReader
}

func NewGetPluginQuery(reader PluginReader) *GetPluginQuery {
	return &GetPluginQuery{reader: reader}
}

func (q *GetPluginQuery) Query(ctx context.Context, msg GetPluginMessage) (core.PluginInstance, error) {
	if q == nil || q.reader == nil {
		return core.PluginInstance{}, queryDependencyError("query: plugin reader is required")
	}
	return q.reader.Get(ctx, msg.PluginID)
}

type GetPluginByNameQuery struct {
	reader PluginReader
}

func NewGetPluginByNameQuery(reader PluginReader) *GetPluginByNameQuery {
	return &GetPluginByNameQuery{reader: reader}
}

func (q *GetPluginByNameQuery) Query(ctx context.Context, msg GetPluginByNameMessage) (core.PluginInstance, error) {
	if q == nil || q.reader == nil {
		return core.PluginInstance{}, queryDependencyError("query: plugin reader is required")
	}
	return q.reader.GetByName(ctx, msg.Name)
}

type ListPluginsQuery struct {
	reader PluginReader
}

func NewListPluginsQuery(reader PluginReader) *ListPluginsQuery {
	return &ListPluginsQuery{reader: reader}
}

func (q *ListPluginsQuery) Query(ctx context.Context, msg ListPluginsMessage) ([]core.PluginInstance, error) {
	if q == nil || q.reader == nil {
		return nil, queryDependencyError("query: plugin reader is required")
	}
	instances, err := q.reader.List(ctx)
	if err != nil {
		return nil, err
	}
	if msg.Status == "" {
		return instances, nil
	}
	filtered := make([]core.PluginInstance, 0, len(instances))
	for _, instance := range instances {
		if instance.Status == msg.Status {
			filtered = append(filtered, instance)
		}
	}
	return filtered, nil
}

type ServiceHealthQuery struct {
	reader HealthReader
}

func NewServiceHealthQuery(reader HealthReader) *ServiceHealthQuery {
	return &ServiceHealthQuery{reader: reader}
}

func (q *ServiceHealthQuery) Query(ctx context.Context, _ ServiceHealthMessage) (map[string]core.HealthStatus, error) {
	if q == nil || q.reader == nil {
		return nil, queryDependencyError("query: health reader is required")
	}
	return q.reader.HealthCheckAll(ctx)
}

type ListActivityQuery struct {
	reader ActivityReader
}

func NewListActivityQuery(reader ActivityReader) *ListActivityQuery {
	return &ListActivityQuery{reader: reader}
}

func (q *ListActivityQuery) Query(ctx context.Context, msg ListActivityMessage) (core.ActivityPage, error) {
	if q == nil || q.reader == nil {
		return core.ActivityPage{}, queryDependencyError("query: activity reader is required")
	}
	return q.reader.Activity(ctx, msg.Filter)
}
