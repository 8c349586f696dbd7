package sqlstore

import (
	"time"

	"github.com/uptrace/bun"
)

type pluginInstanceRecord struct {
	bun.BaseModel `bun:"table:plugin_instances,alias:pi"`

	ID              string         `bun:"id,pk"`
	Name            string         `bun:"name,notnull"`
	Version         string         `bun:"version,notnull"`
	Manifest        map[string]any `bun:"manifest,type:jsonb,notnull"`
	Status          string         `bun:"status,notnull"`
	Error           string         `bun:"error"`
	Config          map[string]any `bun:"config,type:jsonb,notnull"`
	FailedOperation string         `bun:"failed_operation"`
	PriorStatus     string         `bun:"prior_status"`
	InstalledAt     time.Time      `bun:"installed_at,nullzero,notnull"`
	ActivatedAt     *time.Time     `bun:"activated_at,nullzero"`
	LastUpdatedAt   *time.Time     `bun:"last_updated_at,nullzero"`
	CreatedAt       time.Time      `bun:"created_at,nullzero,notnull,default:current_timestamp"`
	UpdatedAt       time.Time      `bun:"updated_at,nullzero,notnull,default:current_timestamp"`
	DeletedAt       *time.Time     `bun:"deleted_at,soft_delete"`
}

type pluginValueRecord struct {
	bun.BaseModel `bun:"table:plugin_storage,alias:ps"`

	ID        string    `bun:"id,pk"`
	PluginID  string    `bun:"plugin_id,notnull"`
	Key       string    `bun:"key,notnull"`
	Value     []byte    `bun:"value"`
	CreatedAt time.Time `bun:"created_at,nullzero,notnull,default:current_timestamp"`
	UpdatedAt time.Time `bun:"updated_at,nullzero,notnull,default:current_timestamp"`
}

type pluginActivityRecord struct {
	bun.BaseModel `bun:"table:plugin_activity,alias:pa"`

	ID        string    `bun:"id,pk"`
	PluginID  string    `bun:"plugin_id"`
	Operation string    `bun:"operation,notnull"`
	Status    string    `bun:"status,notnull"`
	Detail    string    `bun:"detail"`
	CreatedAt time.Time `bun:"created_at,nullzero,notnull,default:current_timestamp"`
}
