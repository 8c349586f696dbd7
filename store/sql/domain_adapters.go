package sqlstore

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/goliatone/go-platform/core"
)

func newPluginInstanceRecord(instance core.PluginInstance, now time.Time) (*pluginInstanceRecord, error) {
	manifest, err := manifestToMap(instance.Manifest)
	if err != nil {
		return nil, err
	}
	record := &pluginInstanceRecord{
		ID:              instance.ID,
		Name:            instance.Manifest.Name,
		Version:         instance.Manifest.Version,
		Manifest:        manifest,
		Status:          string(instance.Status),
		Error:           instance.Error,
		Config:          copyAnyMap(instance.Config),
		FailedOperation: instance.FailedOperation,
		PriorStatus:     string(instance.PriorStatus),
		InstalledAt:     instance.InstalledAt.UTC(),
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if record.Config == nil {
		record.Config = map[string]any{}
	}
	if instance.ActivatedAt != nil {
		value := instance.ActivatedAt.UTC()
		record.ActivatedAt = &value
	}
	if instance.LastUpdatedAt != nil {
		value := instance.LastUpdatedAt.UTC()
		record.LastUpdatedAt = &value
	}
	return record, nil
}

func (r *pluginInstanceRecord) toDomain() (core.PluginInstance, error) {
	if r == nil {
		return core.PluginInstance{}, nil
	}
	manifest, err := manifestFromMap(r.Manifest)
	if err != nil {
		return core.PluginInstance{}, err
	}
	instance := core.PluginInstance{
		ID:              r.ID,
		Manifest:        manifest,
		Status:          core.PluginStatus(r.Status),
		InstalledAt:     r.InstalledAt,
		Error:           r.Error,
		Config:          copyAnyMap(r.Config),
		FailedOperation: r.FailedOperation,
		PriorStatus:     core.PluginStatus(r.PriorStatus),
	}
	if r.ActivatedAt != nil {
		value := *r.ActivatedAt
		instance.ActivatedAt = &value
	}
	if r.LastUpdatedAt != nil {
		value := *r.LastUpdatedAt
		instance.LastUpdatedAt = &value
	}
	return instance, nil
}

func (r *pluginActivityRecord) toDomain() core.ActivityRecord {
	if r == nil {
		return core.ActivityRecord{}
	}
	return core.ActivityRecord{
		ID:        r.ID,
		PluginID:  r.PluginID,
		Operation: r.Operation,
		Status:    r.Status,
		Detail:    r.Detail,
		CreatedAt: r.CreatedAt,
	}
}

// Manifests are persisted as JSON documents so schema evolution stays in the
// manifest codec, not in table columns.
func manifestToMap(manifest core.PluginManifest) (map[string]any, error) {
	raw, err := json.Marshal(manifest)
	if err != nil {
		return nil, fmt.Errorf("sqlstore: encode manifest: %w", err)
	}
	out := map[string]any{}
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("sqlstore: normalize manifest: %w", err)
	}
	return out, nil
}

func manifestFromMap(document map[string]any) (core.PluginManifest, error) {
	if len(document) == 0 {
		return core.PluginManifest{}, nil
	}
	raw, err := json.Marshal(document)
	if err != nil {
		return core.PluginManifest{}, fmt.Errorf("sqlstore: encode manifest document: %w", err)
	}
	var manifest core.PluginManifest
	if err := json.Unmarshal(raw, &manifest); err != nil {
		return core.PluginManifest{}, fmt.Errorf("sqlstore: decode manifest document: %w", err)
	}
	return manifest, nil
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
