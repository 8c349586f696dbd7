package core

import (
	"context"
	"time"

	glog "github.com/goliatone/go-logger/glog"
)

// Service is the contract every orchestrated subsystem implements to
// participate in container-managed boot, shutdown, and health reporting.
// Name must be unique within a container and stable across restarts.
type Service interface {
	Name() string
	Initialize(ctx context.Context) error
	Shutdown(ctx context.Context) error
	HealthCheck(ctx context.Context) (HealthStatus, error)
}

// ServiceRegistration binds a service to its declared dependencies. The
// container initializes dependencies before dependents; a service must not
// reach for an undeclared sibling during its own Initialize.
type ServiceRegistration struct {
	Service   Service
	DependsOn []string
}

// LifecycleResult is the per-service outcome collected by ShutdownAll.
type LifecycleResult struct {
	Service  string
	Err      error
	Duration time.Duration
}

// ServiceLocator is the read-only container view handed to plugin execution
// contexts and queries. It never mutates registry state.
type ServiceLocator interface {
	Get(name string) (Service, error)
	Has(name string) bool
	Names() []string
}

// IdentityResolver turns transport-supplied attributes into a caller
// identity. A missing caller must be reported via ErrIdentityNotFound so
// guards can classify it as an authentication failure; any other error is
// treated as an infrastructure fault.
type IdentityResolver interface {
	Resolve(ctx context.Context, attrs map[string]any) (Identity, error)
}

// HookFunc is a single plugin-provided lifecycle callback.
type HookFunc func(ctx context.Context, execCtx *ExecutionContext) error

// UpdateHookFunc additionally receives the version being replaced.
type UpdateHookFunc func(ctx context.Context, execCtx *ExecutionContext, previousVersion string) error

// HookSet is the optional plugin-provided lifecycle surface. Every field may
// be nil; a missing hook is a no-op, not an error.
type HookSet struct {
	OnInstall    HookFunc
	OnActivate   HookFunc
	OnDeactivate HookFunc
	OnUninstall  HookFunc
	OnUpdate     UpdateHookFunc
}

// HookResolver supplies the lifecycle hooks for a plugin. Hosts back this
// with whatever loads plugin code; returning an empty HookSet is valid and
// means the plugin observes no transitions.
type HookResolver interface {
	HooksFor(manifest PluginManifest) (HookSet, error)
}

// ManifestValidator checks untrusted manifest documents before any plugin
// code runs. Validation errors aggregate every violated constraint.
type ManifestValidator interface {
	Validate(manifest PluginManifest) error
	ParseAndValidate(raw []byte) (PluginManifest, error)
}

// APIRequest is a transport-agnostic HTTP call issued on behalf of a plugin.
type APIRequest struct {
	Method    string
	URL       string
	Headers   map[string]string
	Body      []byte
	BodyLimit int64
}

type APIResponse struct {
	StatusCode int
	Headers    map[string]string
	Body       []byte
}

// APIClient is the http surface exposed to plugin hooks.
type APIClient interface {
	Get(ctx context.Context, url string, headers map[string]string) (APIResponse, error)
	Post(ctx context.Context, url string, body []byte, headers map[string]string) (APIResponse, error)
	Put(ctx context.Context, url string, body []byte, headers map[string]string) (APIResponse, error)
	Delete(ctx context.Context, url string, headers map[string]string) (APIResponse, error)
}

// PluginStorage is the scratch key/value surface scoped to one plugin.
// Values must be JSON-serializable.
type PluginStorage interface {
	Get(ctx context.Context, key string) (any, error)
	Set(ctx context.Context, key string, value any) error
	Delete(ctx context.Context, key string) error
	Has(ctx context.Context, key string) (bool, error)
	Keys(ctx context.Context) ([]string, error)
	Clear(ctx context.Context) error
}

// ExecutionContext is the ephemeral bundle handed to a plugin hook for one
// invocation. It is constructed fresh per call, never persisted, and must
// not outlive the hook. DB and App are raw host handles present only when
// the host runtime supplies them.
type ExecutionContext struct {
	PluginID   string
	PluginName string
	Manifest   PluginManifest
	PluginPath string
	DataPath   string
	Config     map[string]any
	Logger     Logger
	API        APIClient
	Storage    PluginStorage
	Services   ServiceLocator
	DB         any
	App        any
}

// PluginStore persists plugin instance records.
type PluginStore interface {
	GetPlugin(ctx context.Context, id string) (PluginInstance, error)
	GetPluginByName(ctx context.Context, name string) (PluginInstance, error)
	ListPlugins(ctx context.Context) ([]PluginInstance, error)
	SavePlugin(ctx context.Context, instance PluginInstance) (PluginInstance, error)
	DeletePlugin(ctx context.Context, id string) error
}

// PluginKVStore is the persistence backend behind PluginStorage, keyed by
// plugin id so namespaces cannot collide.
type PluginKVStore interface {
	GetValue(ctx context.Context, pluginID, key string) (any, error)
	SetValue(ctx context.Context, pluginID, key string, value any) error
	DeleteValue(ctx context.Context, pluginID, key string) error
	HasValue(ctx context.Context, pluginID, key string) (bool, error)
	ListKeys(ctx context.Context, pluginID string) ([]string, error)
	ClearValues(ctx context.Context, pluginID string) error
}

// ActivityStore appends and lists audit records for container and lifecycle
// operations.
type ActivityStore interface {
	Append(ctx context.Context, record ActivityRecord) (ActivityRecord, error)
	List(ctx context.Context, filter ActivityFilter) (ActivityPage, error)
}

type StoreProvider interface {
	PluginStore() PluginStore
	PluginKVStore() PluginKVStore
	ActivityStore() ActivityStore
}

type RepositoryStoreFactory interface {
	BuildStores(persistenceClient any) (StoreProvider, error)
}

// LifecycleHook is a host-registered observer notified after plugin status
// transitions. Hook failures are logged, never propagated into the
// transition outcome.
type LifecycleHook interface {
	Name() string
	OnEvent(ctx context.Context, event LifecycleEvent) error
}

type Logger = glog.Logger

type LoggerProvider = glog.LoggerProvider

type FieldsLogger = glog.FieldsLogger

type MetricsRecorder interface {
	IncCounter(ctx context.Context, name string, value int64, tags map[string]string)
	ObserveHistogram(ctx context.Context, name string, value float64, tags map[string]string)
}

type JobExecutionMessage struct {
	JobID          string
	Parameters     map[string]any
	IdempotencyKey string
	DedupPolicy    string
}

type JobNackOptions struct {
	Delay      time.Duration
	Requeue    bool
	DeadLetter bool
	Reason     string
}

type JobEnqueuer interface {
	Enqueue(ctx context.Context, msg *JobExecutionMessage) error
}

type JobDelivery interface {
	Message() *JobExecutionMessage
	Ack(ctx context.Context) error
	Nack(ctx context.Context, opts JobNackOptions) error
}

type JobDequeuer interface {
	Dequeue(ctx context.Context) (JobDelivery, error)
}

type JobWorkerHook interface {
	OnStart(ctx context.Context, event JobWorkerEvent)
	OnSuccess(ctx context.Context, event JobWorkerEvent)
	OnFailure(ctx context.Context, event JobWorkerEvent)
	OnRetry(ctx context.Context, event JobWorkerEvent)
}

type JobWorkerEvent struct {
	Message   *JobExecutionMessage
	Attempt   int
	Delay     time.Duration
	Err       error
	StartedAt time.Time
	Duration  time.Duration
}
