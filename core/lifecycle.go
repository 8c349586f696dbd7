package core

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sort"
	"sync"
	"time"

	goerrors "github.com/goliatone/go-errors"
	glog "github.com/goliatone/go-logger/glog"
	"github.com/google/uuid"
)

// Transition names recorded in activity entries and in
// PluginInstance.FailedOperation. An instance in StatusError accepts only
// the operation named there.
const (
	OperationInstall    = "install"
	OperationActivate   = "activate"
	OperationDeactivate = "deactivate"
	OperationUninstall  = "uninstall"
	OperationUpdate     = "update"
	OperationConfigure  = "configure"
)

// Manager drives the plugin lifecycle state machine. Transitions for one
// plugin are serialized on a per-name mutex; different plugins proceed
// concurrently. Each hook runs against a freshly assembled ExecutionContext
// and a failing or panicking hook parks the instance in StatusError with the
// failure recorded, leaving the operator to retry that same transition.
//
// Status changes are written through the PluginStore before the call
// returns, audit entries go to the ActivityStore, and lifecycle listeners
// are notified after the per-plugin lock is released.
type Manager struct {
	observer

	store     PluginStore
	kv        PluginKVStore
	activity  ActivityStore
	validator ManifestValidator
	resolver  HookResolver
	assembly  contextAssembly
	listeners []LifecycleHook

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

type ManagerOption func(*Manager)

func WithManagerLogger(logger Logger) ManagerOption {
	return func(m *Manager) {
		if logger != nil {
			m.logger = logger
		}
	}
}

func WithManagerMetrics(recorder MetricsRecorder) ManagerOption {
	return func(m *Manager) {
		if recorder != nil {
			m.metrics = recorder
		}
	}
}

func WithKVStore(kv PluginKVStore) ManagerOption {
	return func(m *Manager) {
		if kv != nil {
			m.kv = kv
		}
	}
}

func WithActivityStore(activity ActivityStore) ManagerOption {
	return func(m *Manager) {
		if activity != nil {
			m.activity = activity
		}
	}
}

func WithHookResolver(resolver HookResolver) ManagerOption {
	return func(m *Manager) {
		if resolver != nil {
			m.resolver = resolver
		}
	}
}

func WithPluginPaths(paths PluginPaths) ManagerOption {
	return func(m *Manager) {
		m.assembly.paths = paths
	}
}

func WithLoggerProvider(provider LoggerProvider) ManagerOption {
	return func(m *Manager) {
		if provider != nil {
			m.assembly.provider = provider
		}
	}
}

func WithPluginAPIClient(client APIClient) ManagerOption {
	return func(m *Manager) {
		if client != nil {
			m.assembly.api = client
		}
	}
}

func WithServiceLocator(locator ServiceLocator) ManagerOption {
	return func(m *Manager) {
		if locator != nil {
			m.assembly.services = locator
		}
	}
}

// WithHostPluginConfig supplies the host-managed config layer, keyed by
// plugin name. It sits between manifest settings and runtime overrides.
func WithHostPluginConfig(config map[string]map[string]any) ManagerOption {
	return func(m *Manager) {
		m.assembly.hostConfig = config
	}
}

// WithHostHandles passes raw db and application handles through to hook
// execution contexts. Either may be nil.
func WithHostHandles(db, app any) ManagerOption {
	return func(m *Manager) {
		m.assembly.db = db
		m.assembly.app = app
	}
}

func WithLifecycleListeners(listeners ...LifecycleHook) ManagerOption {
	return func(m *Manager) {
		for _, listener := range listeners {
			if listener != nil {
				m.listeners = append(m.listeners, listener)
			}
		}
	}
}

func NewManager(store PluginStore, validator ManifestValidator, options ...ManagerOption) (*Manager, error) {
	if store == nil {
		return nil, fmt.Errorf("core: plugin store is required")
	}
	if validator == nil {
		return nil, fmt.Errorf("core: manifest validator is required")
	}
	m := &Manager{
		observer: observer{
			logger:  glog.Nop(),
			metrics: NopMetricsRecorder{},
		},
		store:     store,
		validator: validator,
		locks:     map[string]*sync.Mutex{},
	}
	for _, opt := range options {
		if opt == nil {
			continue
		}
		opt(m)
	}
	if m.kv == nil {
		m.kv = newEphemeralKV()
	}
	m.assembly.kv = m.kv
	m.assembly.fallback = m.logger
	return m, nil
}

// Install validates an untrusted manifest document, runs the install hook,
// and persists the new instance as StatusInstalled. Installing a name that
// already has a record is a conflict, except when that record sits in
// StatusError from a failed install, which makes this call the retry.
func (m *Manager) Install(ctx context.Context, raw []byte) (instance PluginInstance, err error) {
	manifest, err := m.validator.ParseAndValidate(raw)
	if err != nil {
		return PluginInstance{}, err
	}
	name := manifest.Name

	startedAt := time.Now().UTC()
	defer func() {
		m.observeOperation(ctx, startedAt, "plugin_install", err, map[string]any{"plugin": name})
	}()

	var events []LifecycleEvent
	defer func() { m.notify(ctx, events) }()

	lock := m.pluginLock(name)
	lock.Lock()
	defer lock.Unlock()

	existing, getErr := m.store.GetPluginByName(ctx, name)
	switch {
	case getErr == nil:
		if existing.Status != StatusError {
			err = goerrors.New(
				fmt.Sprintf("core: plugin %q is already installed (status %q)", name, existing.Status),
				goerrors.CategoryConflict,
			).
				WithTextCode(PlatformErrorStateConflict).
				WithCode(http.StatusConflict)
			return PluginInstance{}, err
		}
		if gateErr := m.retryGate(existing, OperationInstall); gateErr != nil {
			err = gateErr
			return PluginInstance{}, err
		}
		instance = existing
		instance.Manifest = manifest
	case errors.Is(getErr, ErrPluginNotFound):
		instance = PluginInstance{
			ID:       uuid.NewString(),
			Manifest: manifest,
			Status:   StatusNotInstalled,
		}
	default:
		err = pluginReadError(getErr)
		return PluginInstance{}, err
	}

	hooks, err := m.hooksFor(manifest)
	if err != nil {
		return PluginInstance{}, err
	}
	execCtx, err := m.buildContext(instance)
	if err != nil {
		return PluginInstance{}, err
	}

	if hookErr := runHook(ctx, hooks.OnInstall, execCtx); hookErr != nil {
		instance, events = m.recordHookFailure(ctx, instance, OperationInstall, StatusNotInstalled, hookErr, events)
		err = hookFailureError(OperationInstall, name, hookErr)
		return PluginInstance{}, err
	}

	instance.Status = StatusInstalled
	instance.InstalledAt = time.Now().UTC()
	instance = clearFailure(instance)
	instance, err = m.save(ctx, instance)
	if err != nil {
		return PluginInstance{}, err
	}

	m.appendActivity(ctx, instance.ID, OperationInstall, "success", "installed version "+manifest.Version)
	events = append(events, m.newEvent(LifecycleEventInstalled, instance, ""))
	return instance, nil
}

// Activate moves an installed or inactive plugin to StatusActive.
func (m *Manager) Activate(ctx context.Context, id string) (instance PluginInstance, err error) {
	startedAt := time.Now().UTC()
	defer func() {
		m.observeOperation(ctx, startedAt, "plugin_activate", err, map[string]any{"plugin_id": id})
	}()

	var events []LifecycleEvent
	defer func() { m.notify(ctx, events) }()

	instance, unlock, err := m.lockInstance(ctx, id)
	if err != nil {
		return PluginInstance{}, err
	}
	defer unlock()

	name := instance.Manifest.Name
	if gateErr := m.retryGate(instance, OperationActivate); gateErr != nil {
		err = gateErr
		return PluginInstance{}, err
	}
	if !statusTransitionAllowed(instance.Status, StatusActive) {
		err = transitionConflictError(name, OperationActivate, instance.Status)
		return PluginInstance{}, err
	}

	hooks, err := m.hooksFor(instance.Manifest)
	if err != nil {
		return PluginInstance{}, err
	}
	execCtx, err := m.buildContext(instance)
	if err != nil {
		return PluginInstance{}, err
	}

	if hookErr := runHook(ctx, hooks.OnActivate, execCtx); hookErr != nil {
		instance, events = m.recordHookFailure(ctx, instance, OperationActivate, instance.Status, hookErr, events)
		err = hookFailureError(OperationActivate, name, hookErr)
		return PluginInstance{}, err
	}

	now := time.Now().UTC()
	instance.Status = StatusActive
	instance.ActivatedAt = &now
	instance = clearFailure(instance)
	instance, err = m.save(ctx, instance)
	if err != nil {
		return PluginInstance{}, err
	}

	m.appendActivity(ctx, instance.ID, OperationActivate, "success", "")
	events = append(events, m.newEvent(LifecycleEventActivated, instance, ""))
	return instance, nil
}

// Deactivate moves an active plugin to StatusInactive. The plugin stays
// installed and keeps its configuration and storage.
func (m *Manager) Deactivate(ctx context.Context, id string) (instance PluginInstance, err error) {
	startedAt := time.Now().UTC()
	defer func() {
		m.observeOperation(ctx, startedAt, "plugin_deactivate", err, map[string]any{"plugin_id": id})
	}()

	var events []LifecycleEvent
	defer func() { m.notify(ctx, events) }()

	instance, unlock, err := m.lockInstance(ctx, id)
	if err != nil {
		return PluginInstance{}, err
	}
	defer unlock()

	name := instance.Manifest.Name
	if gateErr := m.retryGate(instance, OperationDeactivate); gateErr != nil {
		err = gateErr
		return PluginInstance{}, err
	}
	if !statusTransitionAllowed(instance.Status, StatusInactive) {
		err = transitionConflictError(name, OperationDeactivate, instance.Status)
		return PluginInstance{}, err
	}

	hooks, err := m.hooksFor(instance.Manifest)
	if err != nil {
		return PluginInstance{}, err
	}
	execCtx, err := m.buildContext(instance)
	if err != nil {
		return PluginInstance{}, err
	}

	if hookErr := runHook(ctx, hooks.OnDeactivate, execCtx); hookErr != nil {
		instance, events = m.recordHookFailure(ctx, instance, OperationDeactivate, instance.Status, hookErr, events)
		err = hookFailureError(OperationDeactivate, name, hookErr)
		return PluginInstance{}, err
	}

	instance.Status = StatusInactive
	instance = clearFailure(instance)
	instance, err = m.save(ctx, instance)
	if err != nil {
		return PluginInstance{}, err
	}

	m.appendActivity(ctx, instance.ID, OperationDeactivate, "success", "")
	events = append(events, m.newEvent(LifecycleEventDeactivated, instance, ""))
	return instance, nil
}

// Uninstall runs the uninstall hook, deletes the stored record, and clears
// the plugin's key/value namespace. Only active or inactive plugins may be
// uninstalled; the activity trail outlives the record itself.
func (m *Manager) Uninstall(ctx context.Context, id string) (err error) {
	startedAt := time.Now().UTC()
	defer func() {
		m.observeOperation(ctx, startedAt, "plugin_uninstall", err, map[string]any{"plugin_id": id})
	}()

	var events []LifecycleEvent
	defer func() { m.notify(ctx, events) }()

	instance, unlock, err := m.lockInstance(ctx, id)
	if err != nil {
		return err
	}
	defer unlock()

	name := instance.Manifest.Name
	if gateErr := m.retryGate(instance, OperationUninstall); gateErr != nil {
		err = gateErr
		return err
	}
	if !statusTransitionAllowed(instance.Status, StatusNotInstalled) {
		err = transitionConflictError(name, OperationUninstall, instance.Status)
		return err
	}

	hooks, err := m.hooksFor(instance.Manifest)
	if err != nil {
		return err
	}
	execCtx, err := m.buildContext(instance)
	if err != nil {
		return err
	}

	if hookErr := runHook(ctx, hooks.OnUninstall, execCtx); hookErr != nil {
		instance, events = m.recordHookFailure(ctx, instance, OperationUninstall, instance.Status, hookErr, events)
		err = hookFailureError(OperationUninstall, name, hookErr)
		return err
	}

	if deleteErr := m.store.DeletePlugin(ctx, id); deleteErr != nil {
		err = pluginWriteError(deleteErr)
		return err
	}
	if clearErr := m.kv.ClearValues(ctx, id); clearErr != nil {
		m.logWarn(ctx, "clear plugin storage failed", map[string]any{
			"plugin_id": id,
			"plugin":    name,
			"error":     clearErr.Error(),
		})
	}

	m.appendActivity(ctx, id, OperationUninstall, "success", "removed version "+instance.Manifest.Version)
	instance.Status = StatusNotInstalled
	events = append(events, m.newEvent(LifecycleEventUninstalled, instance, ""))
	return nil
}

// Update replaces the manifest of an installed plugin with a newly validated
// one and re-enters the install flow: the instance lands in StatusInstalled
// and, when it was active before the update, is activated again so the prior
// activation intent survives. The update hook receives the version being
// replaced.
func (m *Manager) Update(ctx context.Context, id string, raw []byte) (instance PluginInstance, err error) {
	manifest, err := m.validator.ParseAndValidate(raw)
	if err != nil {
		return PluginInstance{}, err
	}

	startedAt := time.Now().UTC()
	defer func() {
		m.observeOperation(ctx, startedAt, "plugin_update", err, map[string]any{"plugin_id": id})
	}()

	var events []LifecycleEvent
	defer func() { m.notify(ctx, events) }()

	instance, unlock, err := m.lockInstance(ctx, id)
	if err != nil {
		return PluginInstance{}, err
	}
	defer unlock()

	name := instance.Manifest.Name
	if manifest.Name != name {
		err = goerrors.New(
			fmt.Sprintf("core: manifest renames plugin %q to %q", name, manifest.Name),
			goerrors.CategoryBadInput,
		).
			WithTextCode(PlatformErrorBadInput).
			WithCode(http.StatusBadRequest)
		return PluginInstance{}, err
	}
	if gateErr := m.retryGate(instance, OperationUpdate); gateErr != nil {
		err = gateErr
		return PluginInstance{}, err
	}
	if !statusTransitionAllowed(instance.Status, StatusInstalled) {
		err = transitionConflictError(name, OperationUpdate, instance.Status)
		return PluginInstance{}, err
	}

	previousVersion := instance.Manifest.Version
	if manifest.Version == previousVersion {
		err = goerrors.New(
			fmt.Sprintf("core: plugin %q is already at version %s", name, previousVersion),
			goerrors.CategoryConflict,
		).
			WithTextCode(PlatformErrorStateConflict).
			WithCode(http.StatusConflict)
		return PluginInstance{}, err
	}

	wasActive := instance.Status == StatusActive ||
		(instance.Status == StatusError && instance.PriorStatus == StatusActive)

	hooks, err := m.hooksFor(manifest)
	if err != nil {
		return PluginInstance{}, err
	}

	pending := instance
	pending.Manifest = manifest
	execCtx, err := m.buildContext(pending)
	if err != nil {
		return PluginInstance{}, err
	}

	if hookErr := runUpdateHook(ctx, hooks.OnUpdate, execCtx, previousVersion); hookErr != nil {
		instance, events = m.recordHookFailure(ctx, instance, OperationUpdate, instance.Status, hookErr, events)
		err = hookFailureError(OperationUpdate, name, hookErr)
		return PluginInstance{}, err
	}

	now := time.Now().UTC()
	instance.Manifest = manifest
	instance.Status = StatusInstalled
	instance.LastUpdatedAt = &now
	instance = clearFailure(instance)
	instance, err = m.save(ctx, instance)
	if err != nil {
		return PluginInstance{}, err
	}

	m.appendActivity(ctx, instance.ID, OperationUpdate, "success",
		fmt.Sprintf("updated %s to %s", previousVersion, manifest.Version))
	events = append(events, m.newEvent(LifecycleEventUpdated, instance, ""))

	if !wasActive {
		return instance, nil
	}

	execCtx, err = m.buildContext(instance)
	if err != nil {
		return PluginInstance{}, err
	}
	if hookErr := runHook(ctx, hooks.OnActivate, execCtx); hookErr != nil {
		instance, events = m.recordHookFailure(ctx, instance, OperationActivate, StatusInstalled, hookErr, events)
		err = hookFailureError(OperationActivate, name, hookErr)
		return PluginInstance{}, err
	}

	activatedAt := time.Now().UTC()
	instance.Status = StatusActive
	instance.ActivatedAt = &activatedAt
	instance, err = m.save(ctx, instance)
	if err != nil {
		return PluginInstance{}, err
	}

	m.appendActivity(ctx, instance.ID, OperationActivate, "success", "reactivated after update")
	events = append(events, m.newEvent(LifecycleEventActivated, instance, ""))
	return instance, nil
}

// Configure replaces the runtime config overlay for a plugin. The merged
// view hooks observe is manifest settings, then host config, then this.
func (m *Manager) Configure(ctx context.Context, id string, config map[string]any) (instance PluginInstance, err error) {
	startedAt := time.Now().UTC()
	defer func() {
		m.observeOperation(ctx, startedAt, "plugin_configure", err, map[string]any{"plugin_id": id})
	}()

	instance, unlock, err := m.lockInstance(ctx, id)
	if err != nil {
		return PluginInstance{}, err
	}
	defer unlock()

	instance.Config = copyAnyMap(config)
	instance, err = m.save(ctx, instance)
	if err != nil {
		return PluginInstance{}, err
	}
	m.appendActivity(ctx, instance.ID, OperationConfigure, "success", "")
	return instance, nil
}

func (m *Manager) Get(ctx context.Context, id string) (PluginInstance, error) {
	if m == nil {
		return PluginInstance{}, fmt.Errorf("core: plugin manager is nil")
	}
	instance, err := m.store.GetPlugin(ctx, id)
	if err != nil {
		return PluginInstance{}, pluginLookupError(err, id)
	}
	return instance, nil
}

func (m *Manager) GetByName(ctx context.Context, name string) (PluginInstance, error) {
	if m == nil {
		return PluginInstance{}, fmt.Errorf("core: plugin manager is nil")
	}
	instance, err := m.store.GetPluginByName(ctx, name)
	if err != nil {
		return PluginInstance{}, pluginLookupError(err, name)
	}
	return instance, nil
}

// List returns every stored plugin instance sorted by name.
func (m *Manager) List(ctx context.Context) ([]PluginInstance, error) {
	if m == nil {
		return nil, fmt.Errorf("core: plugin manager is nil")
	}
	instances, err := m.store.ListPlugins(ctx)
	if err != nil {
		return nil, pluginReadError(err)
	}
	sort.Slice(instances, func(i, j int) bool {
		return instances[i].Manifest.Name < instances[j].Manifest.Name
	})
	return instances, nil
}

// Activity lists audit entries, newest first per the backing store.
func (m *Manager) Activity(ctx context.Context, filter ActivityFilter) (ActivityPage, error) {
	if m == nil {
		return ActivityPage{}, fmt.Errorf("core: plugin manager is nil")
	}
	if m.activity == nil {
		return ActivityPage{}, nil
	}
	page, err := m.activity.List(ctx, filter)
	if err != nil {
		return ActivityPage{}, pluginReadError(err)
	}
	return page, nil
}

// ExecutionContextFor assembles a fresh context for an out-of-band plugin
// invocation, such as a host-dispatched job. Only usable plugins qualify.
func (m *Manager) ExecutionContextFor(ctx context.Context, id string) (*ExecutionContext, error) {
	instance, err := m.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !instance.Status.Usable() {
		return nil, transitionConflictError(instance.Manifest.Name, "invoke", instance.Status)
	}
	return m.buildContext(instance)
}

func (m *Manager) lockInstance(ctx context.Context, id string) (PluginInstance, func(), error) {
	peek, err := m.store.GetPlugin(ctx, id)
	if err != nil {
		return PluginInstance{}, nil, pluginLookupError(err, id)
	}

	lock := m.pluginLock(peek.Manifest.Name)
	lock.Lock()

	instance, err := m.store.GetPlugin(ctx, id)
	if err != nil {
		lock.Unlock()
		return PluginInstance{}, nil, pluginLookupError(err, id)
	}
	return instance, lock.Unlock, nil
}

func (m *Manager) pluginLock(name string) *sync.Mutex {
	m.mu.Lock()
	defer m.mu.Unlock()
	lock, ok := m.locks[name]
	if !ok {
		lock = &sync.Mutex{}
		m.locks[name] = lock
	}
	return lock
}

// retryGate enforces the error-state contract: once a hook fails, the only
// accepted operation is the one that failed.
func (m *Manager) retryGate(instance PluginInstance, operation string) error {
	if instance.Status != StatusError || instance.FailedOperation == "" {
		return nil
	}
	if instance.FailedOperation == operation {
		return nil
	}
	return goerrors.Wrap(
		ErrInvalidStatusTransition,
		goerrors.CategoryConflict,
		fmt.Sprintf("core: plugin %q is in error state from %q; retry %q instead of %q",
			instance.Manifest.Name, instance.FailedOperation, instance.FailedOperation, operation),
	).
		WithTextCode(PlatformErrorStateConflict).
		WithCode(http.StatusConflict)
}

func (m *Manager) hooksFor(manifest PluginManifest) (HookSet, error) {
	if m.resolver == nil {
		return HookSet{}, nil
	}
	hooks, err := m.resolver.HooksFor(manifest)
	if err != nil {
		return HookSet{}, goerrors.Wrap(
			err,
			goerrors.CategoryOperation,
			fmt.Sprintf("core: resolve hooks for plugin %q failed", manifest.Name),
		).
			WithTextCode(PlatformErrorInternal).
			WithCode(http.StatusInternalServerError)
	}
	return hooks, nil
}

func (m *Manager) buildContext(instance PluginInstance) (*ExecutionContext, error) {
	execCtx, err := m.assembly.build(instance)
	if err != nil {
		return nil, goerrors.Wrap(
			err,
			goerrors.CategoryOperation,
			fmt.Sprintf("core: build execution context for plugin %q failed", instance.Manifest.Name),
		).
			WithTextCode(PlatformErrorInternal).
			WithCode(http.StatusInternalServerError)
	}
	return execCtx, nil
}

// recordHookFailure parks the instance in StatusError. PriorStatus keeps the
// pre-attempt status; a retry that fails again must not overwrite it with
// StatusError itself.
func (m *Manager) recordHookFailure(
	ctx context.Context,
	instance PluginInstance,
	operation string,
	priorStatus PluginStatus,
	hookErr error,
	events []LifecycleEvent,
) (PluginInstance, []LifecycleEvent) {
	if instance.Status == StatusError && instance.PriorStatus != "" {
		priorStatus = instance.PriorStatus
	}
	instance.Status = StatusError
	instance.Error = hookErr.Error()
	instance.FailedOperation = operation
	instance.PriorStatus = priorStatus

	saved, saveErr := m.store.SavePlugin(ctx, instance)
	if saveErr != nil {
		m.logError(ctx, "persist plugin error state failed", map[string]any{
			"plugin_id": instance.ID,
			"plugin":    instance.Manifest.Name,
			"operation": operation,
			"error":     saveErr.Error(),
		})
	} else {
		instance = saved
	}

	m.appendActivity(ctx, instance.ID, operation, "failure", hookErr.Error())
	return instance, append(events, m.newEvent(LifecycleEventErrored, instance, hookErr.Error()))
}

func (m *Manager) save(ctx context.Context, instance PluginInstance) (PluginInstance, error) {
	saved, err := m.store.SavePlugin(ctx, instance)
	if err != nil {
		return PluginInstance{}, pluginWriteError(err)
	}
	return saved, nil
}

func (m *Manager) appendActivity(ctx context.Context, pluginID, operation, status, detail string) {
	if m.activity == nil {
		return
	}
	record := ActivityRecord{
		PluginID:  pluginID,
		Operation: operation,
		Status:    status,
		Detail:    detail,
		CreatedAt: time.Now().UTC(),
	}
	if _, err := m.activity.Append(ctx, record); err != nil {
		m.logWarn(ctx, "append plugin activity failed", map[string]any{
			"plugin_id": pluginID,
			"operation": operation,
			"error":     err.Error(),
		})
	}
}

// notify delivers lifecycle events to host listeners. It runs after the
// per-plugin lock is released; a listener that fails or panics is logged
// and never alters the transition outcome.
func (m *Manager) notify(ctx context.Context, events []LifecycleEvent) {
	if len(events) == 0 || len(m.listeners) == 0 {
		return
	}
	for _, event := range events {
		for _, listener := range m.listeners {
			if err := safeNotify(ctx, listener, event); err != nil {
				m.logWarn(ctx, "lifecycle listener failed", map[string]any{
					"listener":   listener.Name(),
					"event_type": string(event.Type),
					"plugin_id":  event.PluginID,
					"error":      err.Error(),
				})
			}
		}
	}
}

func (m *Manager) newEvent(eventType LifecycleEventType, instance PluginInstance, detail string) LifecycleEvent {
	return LifecycleEvent{
		Type:       eventType,
		PluginID:   instance.ID,
		PluginName: instance.Manifest.Name,
		Version:    instance.Manifest.Version,
		Status:     instance.Status,
		Error:      detail,
		OccurredAt: time.Now().UTC(),
	}
}

func clearFailure(instance PluginInstance) PluginInstance {
	instance.Error = ""
	instance.FailedOperation = ""
	instance.PriorStatus = ""
	return instance
}

func runHook(ctx context.Context, hook HookFunc, execCtx *ExecutionContext) (err error) {
	if hook == nil {
		return nil
	}
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	return hook(ctx, execCtx)
}

func runUpdateHook(ctx context.Context, hook UpdateHookFunc, execCtx *ExecutionContext, previousVersion string) (err error) {
	if hook == nil {
		return nil
	}
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	return hook(ctx, execCtx, previousVersion)
}

func safeNotify(ctx context.Context, listener LifecycleHook, event LifecycleEvent) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	return listener.OnEvent(ctx, event)
}

func pluginLookupError(err error, ref string) error {
	if errors.Is(err, ErrPluginNotFound) {
		return goerrors.New(
			fmt.Sprintf("core: plugin %q is not installed", ref),
			goerrors.CategoryNotFound,
		).
			WithTextCode(PlatformErrorPluginNotFound).
			WithCode(http.StatusNotFound)
	}
	return pluginReadError(err)
}

func pluginReadError(err error) error {
	return goerrors.Wrap(err, goerrors.CategoryOperation, "core: plugin store read failed").
		WithTextCode(PlatformErrorInternal).
		WithCode(http.StatusInternalServerError)
}

func pluginWriteError(err error) error {
	return goerrors.Wrap(err, goerrors.CategoryOperation, "core: plugin store write failed").
		WithTextCode(PlatformErrorInternal).
		WithCode(http.StatusInternalServerError)
}

func transitionConflictError(name, operation string, status PluginStatus) error {
	return goerrors.Wrap(
		ErrInvalidStatusTransition,
		goerrors.CategoryConflict,
		fmt.Sprintf("core: cannot %s plugin %q in status %q", operation, name, status),
	).
		WithTextCode(PlatformErrorStateConflict).
		WithCode(http.StatusConflict).
		WithMetadata(map[string]any{
			"plugin":    name,
			"operation": operation,
			"status":    status.String(),
		})
}

func hookFailureError(operation, name string, hookErr error) error {
	return goerrors.Wrap(
		hookErr,
		goerrors.CategoryOperation,
		fmt.Sprintf("core: %s hook failed for plugin %q", operation, name),
	).
		WithTextCode(PlatformErrorHookFailed).
		WithCode(http.StatusInternalServerError).
		WithMetadata(map[string]any{
			"plugin":    name,
			"operation": operation,
		})
}
