package platform

import "github.com/goliatone/go-platform/core"

type Config = core.Config
type PathsConfig = core.PathsConfig
type HealthConfig = core.HealthConfig
type ActivityConfig = core.ActivityConfig
type ConfigProvider = core.ConfigProvider
type RawConfigLoader = core.RawConfigLoader

type Service = core.Service

type ServiceRegistration = core.ServiceRegistration

type ServiceLocator = core.ServiceLocator

type Container = core.Container

type ContainerOption = core.ContainerOption

type Manager = core.Manager

type ManagerOption = core.ManagerOption

type ManifestValidator = core.ManifestValidator
type SchemaValidator = core.SchemaValidator

type PluginInstance = core.PluginInstance
type PluginManifest = core.PluginManifest
type PluginStatus = core.PluginStatus
type PluginPaths = core.PluginPaths

type Role = core.Role
type Capability = core.Capability
type Identity = core.Identity
type IdentityResolver = core.IdentityResolver
type PermissionContext = core.PermissionContext
type Guard = core.Guard
type Authorizer = core.Authorizer
type AuthorizerOption = core.AuthorizerOption

type LifecycleEvent = core.LifecycleEvent
type LifecycleEventType = core.LifecycleEventType
type LifecycleHook = core.LifecycleHook
type HookSet = core.HookSet
type HookResolver = core.HookResolver
type HookRegistry = core.HookRegistry
type ExecutionContext = core.ExecutionContext

type HealthStatus = core.HealthStatus
type HealthMonitor = core.HealthMonitor

type ActivityRecord = core.ActivityRecord
type ActivityFilter = core.ActivityFilter
type ActivityPage = core.ActivityPage

type PluginStore = core.PluginStore
type PluginKVStore = core.PluginKVStore
type ActivityStore = core.ActivityStore
type StoreProvider = core.StoreProvider
type RepositoryStoreFactory = core.RepositoryStoreFactory

const (
	StatusNotInstalled = core.StatusNotInstalled
	StatusInstalled    = core.StatusInstalled
	StatusActive       = core.StatusActive
	StatusInactive     = core.StatusInactive
	StatusError        = core.StatusError
)

const (
	RoleAdmin  = core.RoleAdmin
	RoleEditor = core.RoleEditor
	RoleViewer = core.RoleViewer
	RoleGuest  = core.RoleGuest
)

var (
	ErrPluginNotFound              = core.ErrPluginNotFound
	ErrInvalidStatusTransition     = core.ErrInvalidStatusTransition
	ErrServiceAlreadyRegistered    = core.ErrServiceAlreadyRegistered
	ErrServiceNotRegistered        = core.ErrServiceNotRegistered
	ErrContainerAlreadyInitialized = core.ErrContainerAlreadyInitialized
	ErrContainerNotInitialized     = core.ErrContainerNotInitialized
	ErrIdentityNotFound            = core.ErrIdentityNotFound
	ErrUnknownRole                 = core.ErrUnknownRole
	ErrUnknownCapability           = core.ErrUnknownCapability
)

var (
	WithContainerLogger    = core.WithContainerLogger
	WithContainerMetrics   = core.WithContainerMetrics
	WithManagerLogger      = core.WithManagerLogger
	WithManagerMetrics     = core.WithManagerMetrics
	WithKVStore            = core.WithKVStore
	WithActivityStore      = core.WithActivityStore
	WithHookResolver       = core.WithHookResolver
	WithPluginPaths        = core.WithPluginPaths
	WithLoggerProvider     = core.WithLoggerProvider
	WithPluginAPIClient    = core.WithPluginAPIClient
	WithServiceLocator     = core.WithServiceLocator
	WithHostPluginConfig   = core.WithHostPluginConfig
	WithHostHandles        = core.WithHostHandles
	WithLifecycleListeners = core.WithLifecycleListeners
	WithAuthorizerLogger   = core.WithAuthorizerLogger
	WithAuthorizerMetrics  = core.WithAuthorizerMetrics
)

var (
	RequireAuthenticated = core.RequireAuthenticated
	RequireRole          = core.RequireRole
	RequireCapability    = core.RequireCapability
	RequireAny           = core.RequireAny
)

func DefaultConfig() Config {
	return core.DefaultConfig()
}

func NewCfgxConfigProvider(loader RawConfigLoader) *core.CfgxConfigProvider {
	return core.NewCfgxConfigProvider(loader)
}

func NewContainer(opts ...ContainerOption) *Container {
	return core.NewContainer(opts...)
}

func NewManager(store PluginStore, validator ManifestValidator, opts ...ManagerOption) (*Manager, error) {
	return core.NewManager(store, validator, opts...)
}

func NewSchemaValidator() (*SchemaValidator, error) {
	return core.NewSchemaValidator()
}

func NewAuthorizer(resolver IdentityResolver, opts ...AuthorizerOption) (*Authorizer, error) {
	return core.NewAuthorizer(resolver, opts...)
}

func NewHookRegistry() *HookRegistry {
	return core.NewHookRegistry()
}

func NewPermissionContext(userID string, role Role) (PermissionContext, error) {
	return core.NewPermissionContext(userID, role)
}

func DeriveCapabilities(role Role) []Capability {
	return core.DeriveCapabilities(role)
}

func ParseManifest(raw []byte) (PluginManifest, error) {
	return core.ParseManifest(raw)
}

func LoadManifest(path string) (PluginManifest, error) {
	return core.LoadManifest(path)
}
